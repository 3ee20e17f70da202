// Package batch orchestrates the daily scoring run.
//
// A run is a sequence of steps over shared state: one ingest step per
// pipeline feed (these run in parallel, feeds are independent), then a
// single scoring step that resolves every mention, extracts sub-signals,
// aggregates propensity scores and writes signal history. The core stages
// are CPU-bound and short, so the scoring step runs single-threaded; the
// identity store's uniqueness constraint stays the arbiter regardless.
//
// Errors are isolated per record and per company: a malformed permit or a
// company with contradictory fields is counted in the run report and skipped,
// and the rest of the batch proceeds. Only systemic failures, like a missing
// reference table, abort the run.
package batch
