package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// HealthHandler serves liveness and Prometheus metrics endpoints.
type HealthHandler struct {
	startedAt  time.Time
	version    string
	prometheus http.Handler
}

// NewHealthHandler creates a health handler. The prometheus handler may be
// nil when metrics are disabled.
func NewHealthHandler(version string, prometheus http.Handler) *HealthHandler {
	return &HealthHandler{
		startedAt:  time.Now().UTC(),
		version:    version,
		prometheus: prometheus,
	}
}

// RegisterRoutes registers the health and metrics routes.
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.GetHealth)
	if h.prometheus != nil {
		r.Method(http.MethodGet, "/metrics", h.prometheus)
	}
}

// GetHealth returns basic health status.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status":    "ok",
		"version":   h.version,
		"uptime":    time.Since(h.startedAt).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
