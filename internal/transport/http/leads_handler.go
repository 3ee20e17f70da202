package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "propensity/internal/errors"
	"propensity/internal/history"
	"propensity/internal/services"
)

// defaultHotScore is the floor of the hot tier.
const defaultHotScore = 80

// LeadsHandler handles lead-related HTTP requests.
type LeadsHandler struct {
	service      *services.LeadsService
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewLeadsHandler creates a new leads handler.
func NewLeadsHandler(service *services.LeadsService, logger *slog.Logger) *LeadsHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeadsHandler{
		service:      service,
		logger:       logger,
		errorHandler: apierrors.NewErrorHandler(logger, false),
	}
}

// RegisterRoutes registers the lead routes.
func (h *LeadsHandler) RegisterRoutes(r chi.Router) {
	r.Route("/leads", func(r chi.Router) {
		r.Get("/", h.GetLeads)
		r.Get("/hot", h.GetHotLeads)
		r.Get("/summary", h.GetSummary)
	})
	r.Get("/companies/{companyID}/score", h.GetCompanyScore)
}

// GetLeads returns every company's latest score, highest first. An optional
// min_score query parameter filters the list.
func (h *LeadsHandler) GetLeads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	minScore := 0
	if raw := r.URL.Query().Get("min_score"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 || parsed > 100 {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("min_score", "must be an integer in [0,100]"))
			return
		}
		minScore = parsed
	}

	leads, err := h.service.HotLeads(ctx, minScore)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load leads", slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrInternalServer)
		return
	}
	render.JSON(w, r, leads)
}

// GetHotLeads returns the leads in the hot tier.
func (h *LeadsHandler) GetHotLeads(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	leads, err := h.service.HotLeads(ctx, defaultHotScore)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load hot leads", slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrInternalServer)
		return
	}
	render.JSON(w, r, leads)
}

// GetSummary returns tier counts and hot leads for the latest run.
func (h *LeadsHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := h.service.Summary(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build summary", slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrInternalServer)
		return
	}
	render.JSON(w, r, summary)
}

// GetCompanyScore returns one company's lead for a specific record date.
func (h *LeadsHandler) GetCompanyScore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	companyID := chi.URLParam(r, "companyID")

	raw := r.URL.Query().Get("date")
	if raw == "" {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", "required, format 2006-01-02"))
		return
	}
	date, err := time.Parse("2006-01-02", raw)
	if err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("date", "must be formatted 2006-01-02"))
		return
	}

	lead, err := h.service.Lead(ctx, companyID, date)
	if errors.Is(err, history.ErrRowNotFound) {
		h.errorHandler.HandleError(w, r, apierrors.ErrScoreNotFound)
		return
	}
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to load company score",
			slog.String("company_id", companyID), slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, apierrors.ErrInternalServer)
		return
	}
	render.JSON(w, r, lead)
}
