package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	apierrors "propensity/internal/errors"
	"propensity/internal/middleware"
	"propensity/internal/services"
)

// NewRouter assembles the read API: middleware chain, /api/v1 lead routes
// and the health and metrics endpoints.
func NewRouter(leads *services.LeadsService, logger *slog.Logger, prometheus http.Handler, version string) chi.Router {
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(chimiddleware.StripSlashes)
	r.Use(middleware.StructuredLogger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Compress(5))

	errorHandler := apierrors.NewErrorHandler(logger, false)
	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	leadsHandler := NewLeadsHandler(leads, logger)
	r.Route("/api/v1", leadsHandler.RegisterRoutes)

	NewHealthHandler(version, prometheus).RegisterRoutes(r)

	return r
}
