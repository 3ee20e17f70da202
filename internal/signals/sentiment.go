package signals

import (
	"propensity/pkg/contracts/domain"
)

// Review payload fields.
const (
	FieldAvgRating   = "avg_rating"
	FieldReviewCount = "review_count"
)

// SentimentParams tunes the employee-review sentiment curve.
type SentimentParams struct {
	// MinRating and MaxRating bound the review scale (1-5 stars).
	MinRating float64 `json:"min_rating" yaml:"min_rating"`
	MaxRating float64 `json:"max_rating" yaml:"max_rating"`
}

// DefaultSentimentParams returns the 1-5 star scale.
func DefaultSentimentParams() SentimentParams {
	return SentimentParams{MinRating: 1, MaxRating: 5}
}

// IsValid checks the parameter constraints.
func (p SentimentParams) IsValid() bool {
	return p.MaxRating > p.MinRating
}

// Score maps an average rating to [0,100], inverted: unhappy employees mean
// turnover and turnover means staffing need, so a 1-star shop scores 100 and
// a 5-star shop scores 0.
func (p SentimentParams) Score(rating float64) (float64, error) {
	if err := checkFinite(SignalSentiment, FieldAvgRating, rating); err != nil {
		return 0, err
	}
	if rating < p.MinRating || rating > p.MaxRating {
		return 0, ValidationError{Signal: SignalSentiment, Field: FieldAvgRating, Message: "rating outside scale", Value: rating}
	}
	score := (p.MaxRating - rating) / (p.MaxRating - p.MinRating) * 100
	return clampScore(score), nil
}

// Extract computes the sentiment sub-signal from a company's review
// observations. A company with zero reviews has no sentiment measurement at
// all — the result is nil, never a fabricated average.
func (p SentimentParams) Extract(obs []domain.RawObservation) (*float64, error) {
	for _, o := range obs {
		count, present, err := o.Float(FieldReviewCount)
		if err != nil {
			return nil, ValidationError{Signal: SignalSentiment, Field: FieldReviewCount, Message: err.Error()}
		}
		if present && count < 0 {
			return nil, ValidationError{Signal: SignalSentiment, Field: FieldReviewCount, Message: "negative count", Value: count}
		}
		if present && count == 0 {
			continue
		}

		rating, present, err := o.Float(FieldAvgRating)
		if err != nil {
			return nil, ValidationError{Signal: SignalSentiment, Field: FieldAvgRating, Message: err.Error()}
		}
		if !present {
			continue
		}

		score, err := p.Score(rating)
		if err != nil {
			return nil, err
		}
		return ptr(score), nil
	}
	return nil, nil
}
