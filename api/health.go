package api

import (
	"log/slog"
	"net/http"

	"github.com/thomasrocks006-cmyk/Suno/internal/session"
)

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	ctrl   *session.Controller
	logger *slog.Logger
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(ctrl *session.Controller, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{ctrl: ctrl, logger: logger}
}

// RegisterRoutes registers health routes on the given mux.
func (h *HealthHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.liveness)
	mux.HandleFunc("GET /ready", h.readiness)
}

// liveness is a liveness probe endpoint.
// Returns 200 OK if the process is alive.
func (h *HealthHandler) liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// readiness is a readiness probe endpoint.
// Returns 200 OK once the session controller is wired up.
func (h *HealthHandler) readiness(w http.ResponseWriter, _ *http.Request) {
	if h.ctrl == nil {
		h.logger.Error("readiness check failed: controller not configured")
		http.Error(w, "controller not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
