// Package entity implements canonical company identity resolution.
//
// Raw records from the signal pipelines carry only a free-text company name
// and an optional location. This package maps those mentions onto canonical
// identities in three steps:
//
//  1. Normalize: lower-case, strip legal suffixes, collapse punctuation.
//  2. Exact match on (normalized_name, zip_code).
//  3. Bounded fuzzy match against candidates in the same zip (or city when
//     the zip is absent), behind a swappable Similarity strategy.
//
// The matcher is deliberately conservative: merging two distinct companies is
// a worse error than carrying a duplicate for a cycle, so the default
// threshold is high and a tie between candidates resolves to "create new"
// rather than an arbitrary pick.
package entity
