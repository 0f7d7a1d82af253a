package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/bytedrop/internal/logger"
	"github.com/marmos91/bytedrop/pkg/api/handlers"
)

// NewRouter creates and configures the chi router with all middleware and
// routes.
//
// The router is configured with:
//   - Request ID middleware for request tracking
//   - Real IP extraction so the rate limiter keys on the client, not the
//     reverse proxy
//   - Custom request logging using the internal logger
//   - Panic recovery to prevent server crashes
//
// Routes:
//   - GET / - Static index page
//   - GET /health - Liveness probe
//   - POST /post - Store a payload, returns its key
//   - GET /{key} - Retrieve a payload
//   - OPTIONS /post, /* - CORS preflight
//
// Everything else, including bad methods, answers 404 "Invalid path".
func NewRouter(h *handlers.Handler) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", h.Index)
	r.Get("/health", h.Health)
	r.Post("/post", h.Post)
	r.Options("/post", h.Preflight)
	r.Options("/*", h.Preflight)
	r.Get("/{key}", h.Get)

	r.NotFound(h.InvalidPath)
	r.MethodNotAllowed(h.InvalidPath)

	return r
}

// requestLogger is a custom middleware that logs requests using the
// internal logger.
//
// It logs:
//   - Request start (DEBUG level): method, path, remote addr
//   - Request completion (INFO level): method, path, status, duration
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())

		logger.Debug("request started",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
		)

		// Wrap response writer to capture status code
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("request completed",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			logger.KeyDuration, time.Since(start).String(),
		)
	})
}
