package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/bytedrop/internal/logger"
	"github.com/marmos91/bytedrop/pkg/content"
)

// Get serves the record named by the path.
//
// The stored form is gzipped, so a client that advertises gzip gets the
// bytes unchanged with Content-Encoding set; anyone else gets the body
// decompressed in-process. Records are immutable, so successful responses
// are marked publicly cacheable for a day.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if !validKey(key) {
		h.getFailed()
		writeError(w, http.StatusNotFound, "Invalid path")
		return
	}

	if h.readLimit.Check(clientIP(r)) {
		h.getFailed()
		h.rateLimited("read")
		writeError(w, http.StatusTooManyRequests, "Rate limit exceeded")
		return
	}

	rec, err := h.cache.Get(key)
	if err != nil {
		logger.Error("cache load failed", logger.KeyContent, key, logger.KeyError, err)
		h.getFailed()
		writeError(w, http.StatusNotFound, "Invalid path")
		return
	}
	if rec.Empty() || len(rec.Body) == 0 {
		h.getFailed()
		writeError(w, http.StatusNotFound, "Invalid path")
		return
	}

	body := rec.Body
	gzipped := acceptsGzip(r)
	if !gzipped {
		body, err = content.Decompress(rec.Body)
		if err != nil {
			logger.Warn("stored body not decompressible",
				logger.KeyContent, key, logger.KeyError, err)
			h.getFailed()
			writeError(w, http.StatusNotFound, "Unable to uncompress data")
			return
		}
	}

	if h.metrics != nil {
		h.metrics.IncGet()
	}

	setCORS(w)
	w.Header().Set("Content-Type", rec.MediaType)
	w.Header().Set("Cache-Control", "public, max-age=86400")
	w.Header().Set("Expires", rec.Expiry.UTC().Format(http.TimeFormat))
	if gzipped {
		w.Header().Set("Content-Encoding", "gzip")
	}
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck
}

func (h *Handler) getFailed() {
	if h.metrics != nil {
		h.metrics.IncGetFailed()
	}
}
