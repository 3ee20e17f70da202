package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"propensity/internal/entity"
	"propensity/internal/history"
	"propensity/pkg/contracts/domain"
)

// LeadsService turns scored history rows into agency-facing leads.
type LeadsService struct {
	reader    history.Reader
	companies entity.Store
	logger    *slog.Logger
}

// NewLeadsService creates a leads service.
func NewLeadsService(reader history.Reader, companies entity.Store, logger *slog.Logger) *LeadsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeadsService{reader: reader, companies: companies, logger: logger}
}

// Lead is one company with its most recent propensity score and the
// sub-signals behind it. Nil sub-signals were not measured.
type Lead struct {
	CompanyID  string      `json:"company_id"`
	Name       string      `json:"name"`
	City       string      `json:"city,omitempty"`
	State      string      `json:"state,omitempty"`
	ZipCode    string      `json:"zip_code,omitempty"`
	RecordDate time.Time   `json:"record_date"`
	Score      int         `json:"score"`
	Tier       domain.Tier `json:"tier"`
	Action     string      `json:"action"`
	Rationale  string      `json:"rationale"`

	Expansion       *float64 `json:"expansion,omitempty"`
	Distress        *float64 `json:"distress,omitempty"`
	JobVelocity     *float64 `json:"job_velocity,omitempty"`
	Sentiment       *float64 `json:"sentiment,omitempty"`
	Turnover        *float64 `json:"turnover,omitempty"`
	MarketTightness *float64 `json:"market_tightness,omitempty"`
	Macro           *float64 `json:"macro,omitempty"`
}

// LeadsSummary aggregates the latest run for dashboards.
type LeadsSummary struct {
	GeneratedAt    time.Time           `json:"generated_at"`
	TotalCompanies int                 `json:"total_companies"`
	TierCounts     map[domain.Tier]int `json:"tier_counts"`
	HotLeads       []Lead              `json:"hot_leads"`
}

// LatestLeads returns every company's most recent score, highest first.
func (s *LeadsService) LatestLeads(ctx context.Context) ([]Lead, error) {
	rows, err := s.reader.Latest(ctx)
	if err != nil {
		return nil, fmt.Errorf("load latest history: %w", err)
	}

	leads := make([]Lead, 0, len(rows))
	for _, row := range rows {
		leads = append(leads, s.buildLead(ctx, row))
	}
	return leads, nil
}

// HotLeads returns the latest leads scoring at or above minScore.
func (s *LeadsService) HotLeads(ctx context.Context, minScore int) ([]Lead, error) {
	all, err := s.LatestLeads(ctx)
	if err != nil {
		return nil, err
	}
	hot := make([]Lead, 0, len(all))
	for _, lead := range all {
		if lead.Score >= minScore {
			hot = append(hot, lead)
		}
	}
	return hot, nil
}

// Lead returns one company's latest lead view.
func (s *LeadsService) Lead(ctx context.Context, companyID string, date time.Time) (Lead, error) {
	row, err := s.reader.Get(ctx, companyID, date)
	if err != nil {
		return Lead{}, err
	}
	return s.buildLead(ctx, row), nil
}

// Summary builds the dashboard view of the latest run.
func (s *LeadsService) Summary(ctx context.Context) (LeadsSummary, error) {
	leads, err := s.LatestLeads(ctx)
	if err != nil {
		return LeadsSummary{}, err
	}

	summary := LeadsSummary{
		GeneratedAt:    time.Now().UTC(),
		TotalCompanies: len(leads),
		TierCounts:     make(map[domain.Tier]int, 4),
	}
	for _, lead := range leads {
		summary.TierCounts[lead.Tier]++
		if lead.Tier == domain.TierHot {
			summary.HotLeads = append(summary.HotLeads, lead)
		}
	}
	return summary, nil
}

// buildLead joins one history row with its company identity. A missing
// identity still produces a lead; the score stands on its own.
func (s *LeadsService) buildLead(ctx context.Context, row domain.SignalHistoryRow) Lead {
	lead := Lead{
		CompanyID:       row.CompanyID,
		RecordDate:      row.RecordDate,
		Score:           row.PropensityScore,
		Tier:            row.ScoreTier,
		Expansion:       row.Expansion,
		Distress:        row.Distress,
		JobVelocity:     row.JobVelocity,
		Sentiment:       row.Sentiment,
		Turnover:        row.Turnover,
		MarketTightness: row.MarketTightness,
		Macro:           row.Macro,
	}

	company, err := s.companies.Get(ctx, row.CompanyID)
	if err != nil {
		s.logger.WarnContext(ctx, "history row without company identity",
			"company_id", row.CompanyID, "error", err)
	} else {
		lead.Name = company.Name
		lead.City = company.City
		lead.State = company.State
		lead.ZipCode = company.ZipCode
	}

	lead.Action, lead.Rationale = recommend(lead)
	return lead
}

// recommend maps a lead's tier and signals to a sales action.
func recommend(lead Lead) (string, string) {
	switch lead.Tier {
	case domain.TierHot:
		if lead.Expansion != nil && *lead.Expansion >= 70 {
			return "CALL_TODAY", fmt.Sprintf("score %d with a major expansion permit on file", lead.Score)
		}
		return "CALL_TODAY", fmt.Sprintf("score %d, multiple strong staffing signals", lead.Score)
	case domain.TierWarm:
		if lead.JobVelocity != nil && *lead.JobVelocity >= 60 {
			return "CALL_THIS_WEEK", fmt.Sprintf("score %d, hiring velocity is picking up", lead.Score)
		}
		return "CALL_THIS_WEEK", fmt.Sprintf("score %d, worth a proactive touch", lead.Score)
	case domain.TierCool:
		return "NURTURE", fmt.Sprintf("score %d, keep on the drip campaign", lead.Score)
	default:
		return "MONITOR", fmt.Sprintf("score %d, no current staffing need indicated", lead.Score)
	}
}
