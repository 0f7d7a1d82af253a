// Package api provides the HTTP surface of bytedrop: the server, the
// router and the request pipeline handlers.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/marmos91/bytedrop/internal/logger"
)

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
}

// Server is the content HTTP server.
//
// The server is created in a stopped state. Call Start() to begin serving
// requests; it supports graceful shutdown with a configurable timeout.
type Server struct {
	server       *http.Server
	config       ServerConfig
	shutdownOnce sync.Once
}

// NewServer creates the HTTP server around the given handler.
func NewServer(config ServerConfig, handler http.Handler) *Server {
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 30 * time.Second
	}

	server := &http.Server{
		Addr:        net.JoinHostPort(config.Host, strconv.Itoa(config.Port)),
		Handler:     handler,
		ReadTimeout: 60 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	return &Server{
		server: server,
		config: config,
	}
}

// Start starts the HTTP server and blocks until the context is cancelled
// or an error occurs.
//
// When the context is cancelled, Start initiates graceful shutdown and
// returns nil on success. A bind failure is returned as an error.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("server shutdown signal received")
		// Don't use the cancelled ctx: it would abort shutdown immediately
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start().
func (s *Server) Stop(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		logger.Debug("server shutdown initiated")

		if err := s.server.Shutdown(ctx); err != nil {
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			logger.Error("server shutdown error", logger.KeyError, err)
		} else {
			logger.Info("server stopped gracefully")
		}
	})
	return shutdownErr
}

// Addr returns the address the server binds to.
func (s *Server) Addr() string {
	return s.server.Addr
}
