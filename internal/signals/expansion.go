package signals

import (
	"math"

	"propensity/pkg/contracts/domain"
)

// FieldReportedCost is the permit payload field carrying the project cost.
const FieldReportedCost = "reported_cost"

// ExpansionParams tunes the permit-cost expansion curve.
type ExpansionParams struct {
	// SaturationCost is the reported cost that maps to a full score.
	// Log scaling gives diminishing returns well before it.
	SaturationCost float64 `json:"saturation_cost" yaml:"saturation_cost"`
}

// DefaultExpansionParams returns the production curve: $10M saturates.
func DefaultExpansionParams() ExpansionParams {
	return ExpansionParams{SaturationCost: 10_000_000}
}

// IsValid checks the parameter constraints.
func (p ExpansionParams) IsValid() bool {
	return p.SaturationCost > 1
}

// Score maps a permit's reported cost to [0,100]. Monotonically increasing
// and saturating: log10(cost)/log10(saturation), so $100K scores ~71 and
// $10M scores 100 with the default params. A zero cost scores zero; a
// negative or non-finite cost is structurally invalid.
func (p ExpansionParams) Score(reportedCost float64) (float64, error) {
	if err := checkFinite(SignalExpansion, FieldReportedCost, reportedCost); err != nil {
		return 0, err
	}
	if reportedCost < 0 {
		return 0, ValidationError{Signal: SignalExpansion, Field: FieldReportedCost, Message: "negative cost", Value: reportedCost}
	}
	if reportedCost <= 1 {
		return 0, nil
	}
	score := math.Log10(reportedCost) / math.Log10(p.SaturationCost) * 100
	return clampScore(score), nil
}

// Extract computes the expansion sub-signal from a company's permit
// observations for one record date. The largest permit drives the score.
// Returns nil when no observation carries a reported cost.
func (p ExpansionParams) Extract(obs []domain.RawObservation) (*float64, error) {
	var maxCost float64
	found := false
	for _, o := range obs {
		cost, present, err := o.Float(FieldReportedCost)
		if err != nil {
			return nil, ValidationError{Signal: SignalExpansion, Field: FieldReportedCost, Message: err.Error()}
		}
		if !present {
			continue
		}
		if cost < 0 {
			return nil, ValidationError{Signal: SignalExpansion, Field: FieldReportedCost, Message: "negative cost", Value: cost}
		}
		if !found || cost > maxCost {
			maxCost = cost
			found = true
		}
	}
	if !found {
		return nil, nil
	}
	score, err := p.Score(maxCost)
	if err != nil {
		return nil, err
	}
	return ptr(score), nil
}
