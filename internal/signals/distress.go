package signals

import "strings"

// NearbyNotice is one WARN notice within the search radius of a company,
// with an estimated distance.
type NearbyNotice struct {
	DistanceMiles float64 `json:"distance_miles"`
	AffectedCount int     `json:"affected_count"`
}

// DistressParams tunes the WARN proximity/magnitude curve.
type DistressParams struct {
	// MagnitudeScale is the affected-worker count at which the magnitude
	// multiplier reaches 1.5x (50 workers = 1.25x with the default 200).
	MagnitudeScale float64 `json:"magnitude_scale" yaml:"magnitude_scale"`
	// MaxMagnitude caps the magnitude multiplier.
	MaxMagnitude float64 `json:"max_magnitude" yaml:"max_magnitude"`
	// BaseScale converts the raw distance×magnitude product to [0,100].
	BaseScale float64 `json:"base_scale" yaml:"base_scale"`
}

// DefaultDistressParams returns the production curve.
func DefaultDistressParams() DistressParams {
	return DistressParams{
		MagnitudeScale: 200,
		MaxMagnitude:   2.0,
		BaseScale:      50,
	}
}

// IsValid checks the parameter constraints.
func (p DistressParams) IsValid() bool {
	return p.MagnitudeScale > 0 && p.MaxMagnitude > 1 && p.BaseScale > 0
}

// Score rates a single nearby notice: closer and larger layoffs score
// higher. distance_factor = 1/(miles+1), magnitude = min(1+count/scale, max),
// score = factor · magnitude · base, clamped.
func (p DistressParams) Score(distanceMiles float64, affectedCount int) (float64, error) {
	if err := checkFinite(SignalDistress, "distance_miles", distanceMiles); err != nil {
		return 0, err
	}
	if distanceMiles < 0 {
		return 0, ValidationError{Signal: SignalDistress, Field: "distance_miles", Message: "negative distance", Value: distanceMiles}
	}
	if affectedCount < 0 {
		return 0, ValidationError{Signal: SignalDistress, Field: "affected_count", Message: "negative count", Value: affectedCount}
	}

	distanceFactor := 1 / (distanceMiles + 1)
	magnitude := 1 + float64(affectedCount)/p.MagnitudeScale
	if magnitude > p.MaxMagnitude {
		magnitude = p.MaxMagnitude
	}
	return clampScore(distanceFactor * magnitude * p.BaseScale), nil
}

// Extract computes the distress sub-signal from the notices near a company.
// The single most distressing notice drives the score. Zero nearby notices
// is a measurement of zero, not missing data: the signal is present and 0.
func (p DistressParams) Extract(nearby []NearbyNotice) (*float64, error) {
	best := 0.0
	for _, n := range nearby {
		score, err := p.Score(n.DistanceMiles, n.AffectedCount)
		if err != nil {
			return nil, err
		}
		if score > best {
			best = score
		}
	}
	return ptr(best), nil
}

// ZipProximity estimates the distance in miles between a company and a
// notice using location prefix overlap. Shared 5 digits reads as co-located,
// a shared 3-digit sectional prefix as the same metro area, and a shared
// state as the same regional labor market. The bool reports whether the
// notice is near enough to count at all.
func ZipProximity(companyZip, companyState, noticeZip, noticeState string) (float64, bool) {
	if len(companyZip) >= 5 && len(noticeZip) >= 5 {
		switch {
		case companyZip == noticeZip:
			return 0, true
		case companyZip[:3] == noticeZip[:3]:
			return 10, true
		}
	}
	if companyState != "" && strings.EqualFold(companyState, noticeState) {
		return 30, true
	}
	return 0, false
}
