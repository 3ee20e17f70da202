package domain

import (
	"time"
)

// Tier is the discrete classification of a propensity score.
type Tier string

const (
	TierHot  Tier = "hot"  // 80-100
	TierWarm Tier = "warm" // 60-79
	TierCool Tier = "cool" // 40-59
	TierCold Tier = "cold" // 0-39
)

// SignalHistoryRow holds every sub-signal present for one company on one
// record date plus the final propensity score. Exactly one row exists per
// (CompanyID, RecordDate); a recompute replaces the row entirely.
// Absent sub-signals are nil, never zero.
type SignalHistoryRow struct {
	CompanyID       string    `json:"company_id" db:"company_id" validate:"required,uuid"`
	RecordDate      time.Time `json:"record_date" db:"record_date" validate:"required"`
	Expansion       *float64  `json:"expansion_score,omitempty" db:"expansion_score"`
	Distress        *float64  `json:"distress_score,omitempty" db:"distress_score"`
	JobVelocity     *float64  `json:"job_velocity_score,omitempty" db:"job_velocity_score"`
	Sentiment       *float64  `json:"sentiment_score,omitempty" db:"sentiment_score"`
	Turnover        *float64  `json:"turnover_score,omitempty" db:"turnover_score"`
	MarketTightness *float64  `json:"market_tightness_score,omitempty" db:"market_tightness_score"`
	Macro           *float64  `json:"macro_score,omitempty" db:"macro_score"`
	PropensityScore int       `json:"propensity_score" db:"propensity_score" validate:"min=0,max=100"`
	ScoreTier       Tier      `json:"score_tier" db:"score_tier" validate:"required,oneof=hot warm cool cold"`
	ComputedAt      time.Time `json:"computed_at" db:"computed_at"`
}

// Key returns the uniqueness key for this row.
func (r SignalHistoryRow) Key() string {
	return r.CompanyID + "|" + r.RecordDate.Format("2006-01-02")
}

// IsValid checks the row invariants.
func (r SignalHistoryRow) IsValid() bool {
	return r.CompanyID != "" && !r.RecordDate.IsZero() &&
		r.PropensityScore >= 0 && r.PropensityScore <= 100 &&
		(r.ScoreTier == TierHot || r.ScoreTier == TierWarm ||
			r.ScoreTier == TierCool || r.ScoreTier == TierCold)
}
