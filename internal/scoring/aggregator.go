package scoring

import (
	"errors"
	"fmt"
	"math"

	"propensity/internal/signals"
	"propensity/pkg/contracts/domain"
)

// ErrInsufficientData indicates a company/date had no weighted signals
// present. Callers must skip the history row, never write a zero score.
var ErrInsufficientData = errors.New("scoring: insufficient data")

// Tier boundaries, inclusive on the low end of each band.
const (
	tierHotFloor  = 80
	tierWarmFloor = 60
	tierCoolFloor = 40
)

// Result is the outcome of aggregating one company/date.
type Result struct {
	Score int         `json:"score"`
	Tier  domain.Tier `json:"tier"`
	// EffectiveWeight is the summed weight of the signals that were present,
	// i.e. the renormalization denominator. 1.0 means full coverage.
	EffectiveWeight float64 `json:"effective_weight"`
	// Contributions break the final score down per present signal; they sum
	// to the unrounded score.
	Contributions map[signals.Signal]float64 `json:"contributions"`
}

// Aggregate combines the present sub-signals into a propensity score using
// the configured weights, renormalized by the weight actually present.
// Deterministic: the same set and weights always yield the same result.
func Aggregate(set signals.Set, weights Weights) (Result, error) {
	if !weights.IsValid() {
		return Result{}, fmt.Errorf("scoring: invalid weight table (sum=%.4f)", weights.Sum())
	}

	var weightedSum, presentWeight float64
	contributions := make(map[signals.Signal]float64, len(set))

	for _, sig := range signals.All {
		value, present := set.Get(sig)
		if !present {
			continue
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return Result{}, fmt.Errorf("scoring: signal %s is not finite", sig)
		}
		w := weights.Of(sig)
		if w == 0 {
			continue
		}
		weightedSum += w * value
		presentWeight += w
	}

	if presentWeight == 0 {
		return Result{}, ErrInsufficientData
	}

	raw := weightedSum / presentWeight
	for _, sig := range signals.All {
		if value, present := set.Get(sig); present {
			if w := weights.Of(sig); w > 0 {
				contributions[sig] = w * value / presentWeight
			}
		}
	}

	score := int(math.Round(raw))
	if score < 0 {
		score = 0
	} else if score > 100 {
		score = 100
	}

	return Result{
		Score:           score,
		Tier:            ClassifyTier(score),
		EffectiveWeight: presentWeight,
		Contributions:   contributions,
	}, nil
}

// ClassifyTier maps a score in [0,100] to its tier band.
func ClassifyTier(score int) domain.Tier {
	switch {
	case score >= tierHotFloor:
		return domain.TierHot
	case score >= tierWarmFloor:
		return domain.TierWarm
	case score >= tierCoolFloor:
		return domain.TierCool
	default:
		return domain.TierCold
	}
}
