// Package signals converts resolved raw observations into bounded sub-signal
// values, one extractor per pipeline.
//
// Every extractor is a pure function from one pipeline's observations for a
// company and record date to a score in [0,100]. Extractors distinguish three
// outcomes strictly:
//
//   - a measured value, clamped to [0,100]
//   - nil when the inputs needed for a measurement are absent
//   - an error only for structurally invalid input (negative counts, NaN)
//
// "No data" and "measured as zero" are never conflated: the aggregator in
// package scoring renormalizes over present signals, and a fabricated zero
// would silently drag a company's score down.
//
// Exact curve parameters are policy, not architecture; each extractor carries
// a params struct with conservative defaults that config can override.
package signals
