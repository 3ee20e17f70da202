package signals

import (
	"propensity/pkg/contracts/domain"
)

// FieldTurnoverRatio is the inventory payload field carrying the annual
// turnover ratio from filings.
const FieldTurnoverRatio = "turnover_ratio"

// TurnoverParams tunes the inventory-turnover curve.
type TurnoverParams struct {
	// HalfSaturationRatio is the annual turnover ratio that scores 50.
	// The curve is ratio/(ratio+half): saturating, never quite 100.
	HalfSaturationRatio float64 `json:"half_saturation_ratio" yaml:"half_saturation_ratio"`
}

// DefaultTurnoverParams returns the production curve: 5x annual turnover
// scores 50, 15x scores 75.
func DefaultTurnoverParams() TurnoverParams {
	return TurnoverParams{HalfSaturationRatio: 5}
}

// IsValid checks the parameter constraints.
func (p TurnoverParams) IsValid() bool {
	return p.HalfSaturationRatio > 0
}

// Score maps an annual inventory turnover ratio to [0,100]. Faster-moving
// goods need more hands, so higher turnover scores higher.
func (p TurnoverParams) Score(ratio float64) (float64, error) {
	if err := checkFinite(SignalTurnover, FieldTurnoverRatio, ratio); err != nil {
		return 0, err
	}
	if ratio < 0 {
		return 0, ValidationError{Signal: SignalTurnover, Field: FieldTurnoverRatio, Message: "negative ratio", Value: ratio}
	}
	return clampScore(ratio / (ratio + p.HalfSaturationRatio) * 100), nil
}

// Extract computes the turnover sub-signal from a company's inventory
// observations. Returns nil when no observation carries a ratio (private
// companies without filings).
func (p TurnoverParams) Extract(obs []domain.RawObservation) (*float64, error) {
	for _, o := range obs {
		ratio, present, err := o.Float(FieldTurnoverRatio)
		if err != nil {
			return nil, ValidationError{Signal: SignalTurnover, Field: FieldTurnoverRatio, Message: err.Error()}
		}
		if !present {
			continue
		}
		score, scoreErr := p.Score(ratio)
		if scoreErr != nil {
			return nil, scoreErr
		}
		return ptr(score), nil
	}
	return nil, nil
}
