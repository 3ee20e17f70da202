package signals

import (
	"time"

	"propensity/pkg/contracts/domain"
)

// VelocityParams tunes the job-posting velocity curve.
type VelocityParams struct {
	// WindowDays is the trailing window postings are counted over.
	WindowDays int `json:"window_days" yaml:"window_days"`
	// SaturationCount is the 30-day posting count that maps to a full score.
	SaturationCount int `json:"saturation_count" yaml:"saturation_count"`
}

// DefaultVelocityParams returns the production curve: 10 postings in 30 days
// saturates.
func DefaultVelocityParams() VelocityParams {
	return VelocityParams{WindowDays: 30, SaturationCount: 10}
}

// IsValid checks the parameter constraints.
func (p VelocityParams) IsValid() bool {
	return p.WindowDays > 0 && p.SaturationCount > 0
}

// Score maps a trailing-window posting count to [0,100], linear to the
// saturation count and capped there.
func (p VelocityParams) Score(count int) (float64, error) {
	if count < 0 {
		return 0, ValidationError{Signal: SignalJobVelocity, Field: "job_count", Message: "negative count", Value: count}
	}
	return clampScore(float64(count) / float64(p.SaturationCount) * 100), nil
}

// Extract computes the velocity sub-signal from a company's job-posting
// observations. A company that never appears in the jobs feed is unmeasured,
// not zero. Postings outside the trailing window as of the record date do
// not count, so a company whose postings have all aged out measures zero.
func (p VelocityParams) Extract(obs []domain.RawObservation, asOf time.Time) (*float64, error) {
	if len(obs) == 0 {
		return nil, nil
	}
	cutoff := asOf.AddDate(0, 0, -p.WindowDays)
	count := 0
	for _, o := range obs {
		if o.RecordDate.After(cutoff) && !o.RecordDate.After(asOf) {
			count++
		}
	}
	score, err := p.Score(count)
	if err != nil {
		return nil, err
	}
	return ptr(score), nil
}
