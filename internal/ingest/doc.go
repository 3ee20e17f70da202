// Package ingest parses pipeline feed extracts into raw observations.
//
// The network fetchers that pull permits, WARN notices, job postings, review
// snapshots and filings live outside this module; they hand over daily CSV
// extracts. This package turns those extracts into domain.RawObservation
// values and loads the static reference tables (zip to FIPS, economic
// indicator series, county unemployment).
//
// Column mapping is alias-based because every upstream portal names the same
// field differently ("estimated_cost" vs "valuation" vs "project_value").
// Structurally broken records are skipped and counted, never fatal: one bad
// row in a city's export must not sink the batch.
package ingest
