package signals

import (
	"sort"

	"propensity/pkg/contracts/domain"
)

// TrendDirection classifies an economic series' recent movement.
type TrendDirection string

const (
	TrendExpanding   TrendDirection = "expanding"
	TrendStable      TrendDirection = "stable"
	TrendContracting TrendDirection = "contracting"
	TrendUnknown     TrendDirection = "unknown"
)

// minTrendObservations is the minimum series length for a trend: two full
// 3-month averaging windows.
const minTrendObservations = 6

// Trend is the computed movement of an economic indicator series.
type Trend struct {
	Direction TrendDirection `json:"direction"`
	PctChange float64        `json:"pct_change"`
}

// MacroParams tunes how the freight-index trend becomes the shared macro
// sub-signal. The macro signal is regional, not per-company: the same value
// is broadcast to every company scored on a given date.
type MacroParams struct {
	// StableBand is the absolute pct change treated as noise (±5%).
	StableBand float64 `json:"stable_band" yaml:"stable_band"`
	// StrongBand is the absolute pct change marking a strong move (±10%).
	StrongBand float64 `json:"strong_band" yaml:"strong_band"`
}

// DefaultMacroParams returns the production bands.
func DefaultMacroParams() MacroParams {
	return MacroParams{StableBand: 0.05, StrongBand: 0.10}
}

// IsValid checks the parameter constraints.
func (p MacroParams) IsValid() bool {
	return p.StableBand > 0 && p.StrongBand > p.StableBand
}

// ComputeTrend compares the trailing 3-month average of a series against the
// prior 3 months, classifying the direction with the same stable band the
// modifier uses. Fewer than six observations is an unknown trend, which the
// caller treats as neutral rather than missing.
func (p MacroParams) ComputeTrend(series []domain.EconomicObservation) Trend {
	if len(series) < minTrendObservations {
		return Trend{Direction: TrendUnknown}
	}

	sorted := make([]domain.EconomicObservation, len(series))
	copy(sorted, series)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].RecordDate.Before(sorted[j].RecordDate)
	})

	n := len(sorted)
	currentAvg := meanValue(sorted[n-3:])
	previousAvg := meanValue(sorted[n-6 : n-3])

	if previousAvg == 0 {
		return Trend{Direction: TrendStable}
	}

	pct := (currentAvg - previousAvg) / previousAvg
	t := Trend{PctChange: pct}
	switch {
	case pct > p.StableBand:
		t.Direction = TrendExpanding
	case pct < -p.StableBand:
		t.Direction = TrendContracting
	default:
		t.Direction = TrendStable
	}
	return t
}

// Modifier maps a trend to the classic macro multiplier in {0.8..1.2}.
// Kept for reporting; scoring consumes Score instead.
func (p MacroParams) Modifier(t Trend) float64 {
	switch {
	case t.Direction == TrendUnknown:
		return 1.0
	case t.PctChange > p.StrongBand:
		return 1.2
	case t.PctChange > p.StableBand:
		return 1.1
	case t.PctChange > -p.StableBand:
		return 1.0
	case t.PctChange > -p.StrongBand:
		return 0.9
	default:
		return 0.8
	}
}

// Score maps the macro modifier onto the canonical [0,100] sub-signal scale
// so macro participates in the weighted sum like every other signal: a 0.8x
// (strong contraction) environment scores 0, neutral scores 50, and a 1.2x
// (strong expansion) environment scores 100.
func (p MacroParams) Score(series []domain.EconomicObservation) *float64 {
	trend := p.ComputeTrend(series)
	modifier := p.Modifier(trend)
	return ptr(clampScore((modifier - 0.8) / 0.4 * 100))
}

func meanValue(obs []domain.EconomicObservation) float64 {
	if len(obs) == 0 {
		return 0
	}
	sum := 0.0
	for _, o := range obs {
		sum += o.Value
	}
	return sum / float64(len(obs))
}
