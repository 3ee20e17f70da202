package signals

import (
	"fmt"
	"math"
)

// Signal names one pipeline's contribution to the propensity score.
type Signal string

const (
	SignalExpansion       Signal = "expansion"
	SignalDistress        Signal = "distress"
	SignalJobVelocity     Signal = "job_velocity"
	SignalSentiment       Signal = "sentiment"
	SignalTurnover        Signal = "turnover"
	SignalMarketTightness Signal = "market_tightness"
	SignalMacro           Signal = "macro"
)

// All lists every known signal in stable order.
var All = []Signal{
	SignalExpansion,
	SignalDistress,
	SignalJobVelocity,
	SignalSentiment,
	SignalTurnover,
	SignalMarketTightness,
	SignalMacro,
}

// Set holds the sub-signals measured for one company on one record date.
// A missing key means the signal is absent, not zero.
type Set map[Signal]float64

// Put records a measured value. Nil pointers are ignored so extractor
// results can be fed in directly.
func (s Set) Put(sig Signal, v *float64) {
	if v != nil {
		s[sig] = *v
	}
}

// Get returns the value and whether the signal is present.
func (s Set) Get(sig Signal) (float64, bool) {
	v, ok := s[sig]
	return v, ok
}

// ValidationError reports structurally invalid extractor input. Merely
// missing optional fields never produce one.
type ValidationError struct {
	Signal  Signal `json:"signal"`
	Field   string `json:"field"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Signal, e.Field, e.Message)
}

// clampScore bounds a raw score to the canonical [0,100] range.
func clampScore(v float64) float64 {
	return math.Min(math.Max(v, 0), 100)
}

// checkFinite rejects NaN and infinities.
func checkFinite(sig Signal, field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ValidationError{Signal: sig, Field: field, Message: "not a finite number", Value: v}
	}
	return nil
}

// ptr returns a pointer to v, for building nullable results.
func ptr(v float64) *float64 {
	return &v
}
