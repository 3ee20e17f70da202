package scoring

import (
	"math"

	"propensity/internal/signals"
)

// weightSumTolerance absorbs floating-point error in the sum-to-one check.
const weightSumTolerance = 0.001

// Weights is the configured weight table for the propensity score. The full
// table must sum to 1.0; validation happens at config load, not per
// aggregation. Turnover defaults to zero weight — the signal is extracted
// and stored for analysts but does not move the score until a domain expert
// retunes the table.
type Weights struct {
	Expansion       float64 `json:"expansion" yaml:"expansion" validate:"gte=0,lte=1"`
	Distress        float64 `json:"distress" yaml:"distress" validate:"gte=0,lte=1"`
	JobVelocity     float64 `json:"job_velocity" yaml:"job_velocity" validate:"gte=0,lte=1"`
	Sentiment       float64 `json:"sentiment" yaml:"sentiment" validate:"gte=0,lte=1"`
	Turnover        float64 `json:"turnover" yaml:"turnover" validate:"gte=0,lte=1"`
	MarketTightness float64 `json:"market_tightness" yaml:"market_tightness" validate:"gte=0,lte=1"`
	Macro           float64 `json:"macro" yaml:"macro" validate:"gte=0,lte=1"`
}

// DefaultWeights returns the production weight table.
func DefaultWeights() Weights {
	return Weights{
		Expansion:       0.25,
		Distress:        0.20,
		JobVelocity:     0.20,
		Sentiment:       0.15,
		MarketTightness: 0.10,
		Macro:           0.10,
		Turnover:        0.00,
	}
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Expansion + w.Distress + w.JobVelocity + w.Sentiment +
		w.Turnover + w.MarketTightness + w.Macro
}

// IsValid checks that every weight is non-negative and the table sums to 1.
func (w Weights) IsValid() bool {
	if w.Expansion < 0 || w.Distress < 0 || w.JobVelocity < 0 ||
		w.Sentiment < 0 || w.Turnover < 0 || w.MarketTightness < 0 || w.Macro < 0 {
		return false
	}
	return math.Abs(w.Sum()-1.0) < weightSumTolerance
}

// Of returns the weight configured for a signal. Unknown signals weigh zero.
func (w Weights) Of(sig signals.Signal) float64 {
	switch sig {
	case signals.SignalExpansion:
		return w.Expansion
	case signals.SignalDistress:
		return w.Distress
	case signals.SignalJobVelocity:
		return w.JobVelocity
	case signals.SignalSentiment:
		return w.Sentiment
	case signals.SignalTurnover:
		return w.Turnover
	case signals.SignalMarketTightness:
		return w.MarketTightness
	case signals.SignalMacro:
		return w.Macro
	default:
		return 0
	}
}
