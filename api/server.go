// Package api provides the HTTP REST API for the songwriting assistant.
//
// Endpoints:
//
//	GET    /health                      → liveness probe
//	GET    /ready                       → readiness probe
//	GET    /api/songs                   → full history, most recent first
//	POST   /api/songs                   → generate a song from a brief
//	DELETE /api/songs                   → clear the history
//	GET    /api/songs/current           → the current song
//	POST   /api/songs/current           → select a song as current
//	GET    /api/songs/{id}              → one song
//	POST   /api/songs/{id}/analysis     → schedule a critique
//	POST   /api/songs/{id}/variations   → schedule variation generation
//	POST   /api/songs/{id}/render       → schedule a music render
//	POST   /api/songs/{id}/versions     → derive a version from lyrics
//	POST   /api/songs/{id}/rewrite      → derive a version via LLM rewrite
//	POST   /api/songs/{id}/improvements → apply a manual line edit
//	POST   /api/infer                   → infer brief values from references
//
// File structure:
//   - server.go: HTTP server setup and lifecycle
//   - middleware.go: HTTP middleware (logging, recovery)
//   - health.go: Health check endpoints (/health, /ready)
//   - songs.go: Song workflow endpoints
//   - response.go: JSON response helpers
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/thomasrocks006-cmyk/Suno/internal/session"
)

const (
	// DefaultAddr is the default address for the HTTP server.
	DefaultAddr = "127.0.0.1:8080"

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	ShutdownTimeout = 10 * time.Second

	// ReadHeaderTimeout is the timeout for reading request headers.
	// This prevents Slowloris attacks (CWE-400).
	ReadHeaderTimeout = 10 * time.Second

	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout = 30 * time.Second

	// WriteTimeout is the maximum duration for writing the response.
	// Generation calls block on the LLM, so this is generous.
	WriteTimeout = 120 * time.Second

	// IdleTimeout is the maximum time to wait for the next request on keep-alive connections.
	IdleTimeout = 120 * time.Second
)

// Server is the HTTP server for the REST API.
type Server struct {
	mux    *http.ServeMux
	logger *slog.Logger

	health *HealthHandler
	songs  *SongHandler
}

// NewServer creates a new HTTP server with all routes registered.
func NewServer(ctrl *session.Controller, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()

	s := &Server{
		mux:    mux,
		logger: logger,
		health: NewHealthHandler(ctrl, logger),
		songs:  NewSongHandler(ctrl, logger),
	}

	s.health.RegisterRoutes(mux)
	s.songs.RegisterRoutes(mux)

	return s
}

// Handler returns the HTTP handler with middleware applied.
// Middleware order: recovery → logging → handler
func (s *Server) Handler() http.Handler {
	return chain(s.mux, recoveryMiddleware(s.logger), loggingMiddleware(s.logger))
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It handles graceful shutdown when the context is done.
func (s *Server) Run(ctx context.Context, addr string) error {
	if addr == "" {
		addr = DefaultAddr
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: ReadHeaderTimeout,
		ReadTimeout:       ReadTimeout,
		WriteTimeout:      WriteTimeout,
		IdleTimeout:       IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}
