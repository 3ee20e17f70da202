// Package scoring combines a company's sub-signals into the final propensity
// score and tier.
//
// The aggregator computes a weighted average over the signals that are
// actually present, renormalizing by the sum of their weights. That
// renormalization is the property that keeps "low score" and "no data"
// distinct: a company missing two feeds is scored purely on the remainder
// rather than penalized toward zero. A company with no weighted signals at
// all is not scored — Aggregate fails with ErrInsufficientData and no
// history row is written for it.
package scoring
