package signals

// TightnessParams tunes the labor-market tightness curve. This is a
// regional signal: every company in a county shares its unemployment rate.
type TightnessParams struct {
	// FullScoreRate is the unemployment rate (%) at or below which the
	// market is maximally tight (score 100).
	FullScoreRate float64 `json:"full_score_rate" yaml:"full_score_rate"`
	// ZeroScoreRate is the rate (%) at or above which workers are in
	// surplus (score 0).
	ZeroScoreRate float64 `json:"zero_score_rate" yaml:"zero_score_rate"`
}

// DefaultTightnessParams returns the production curve: 2% unemployment
// scores 100, 6% scores 0, linear between.
func DefaultTightnessParams() TightnessParams {
	return TightnessParams{FullScoreRate: 2, ZeroScoreRate: 6}
}

// IsValid checks the parameter constraints.
func (p TightnessParams) IsValid() bool {
	return p.FullScoreRate >= 0 && p.ZeroScoreRate > p.FullScoreRate
}

// Score maps a county unemployment rate to [0,100], inverted: the tighter
// the labor market, the harder companies must work to hire and the likelier
// they are to need an agency.
func (p TightnessParams) Score(unemploymentRate float64) (float64, error) {
	if err := checkFinite(SignalMarketTightness, "unemployment_rate", unemploymentRate); err != nil {
		return 0, err
	}
	if unemploymentRate < 0 {
		return 0, ValidationError{Signal: SignalMarketTightness, Field: "unemployment_rate", Message: "negative rate", Value: unemploymentRate}
	}
	score := (p.ZeroScoreRate - unemploymentRate) / (p.ZeroScoreRate - p.FullScoreRate) * 100
	return clampScore(score), nil
}

// MarketCondition classifies a county unemployment rate for reporting.
type MarketCondition string

const (
	MarketExtremeTightness MarketCondition = "extreme_tightness" // < 3%
	MarketTight            MarketCondition = "tight"             // 3-4%
	MarketNormal           MarketCondition = "normal"            // 4-5%
	MarketLoose            MarketCondition = "loose"             // 5-6%
	MarketVeryLoose        MarketCondition = "very_loose"        // > 6%
)

// ClassifyMarket labels an unemployment rate against the US ~4% baseline.
func ClassifyMarket(rate float64) MarketCondition {
	switch {
	case rate < 3.0:
		return MarketExtremeTightness
	case rate < 4.0:
		return MarketTight
	case rate < 5.0:
		return MarketNormal
	case rate < 6.0:
		return MarketLoose
	default:
		return MarketVeryLoose
	}
}
