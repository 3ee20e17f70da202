package batch

import (
	"sync"
	"time"

	"propensity/pkg/contracts/domain"
)

// PipelineCounts summarizes one feed's ingest outcome.
type PipelineCounts struct {
	Observations int `json:"observations"`
	Skipped      int `json:"skipped"`
}

// Report accumulates the counters of one scoring run. Every skip is counted
// somewhere: the totals let an operator spot a feed that silently went bad.
type Report struct {
	mu sync.Mutex

	RunDate   time.Time `json:"run_date"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	Pipelines map[domain.Pipeline]PipelineCounts `json:"pipelines"`

	MentionsResolved  int `json:"mentions_resolved"`
	MatchedExact      int `json:"matched_exact"`
	MatchedFuzzy      int `json:"matched_fuzzy"`
	IdentitiesCreated int `json:"identities_created"`
	AmbiguousCreated  int `json:"ambiguous_created"`
	MentionsSkipped   int `json:"mentions_skipped"`

	CompaniesScored  int `json:"companies_scored"`
	SignalsRejected  int `json:"signals_rejected"`
	InsufficientData int `json:"insufficient_data"`
	RowsWritten      int `json:"rows_written"`
}

// NewReport creates an empty report for the given run date.
func NewReport(runDate time.Time) *Report {
	return &Report{
		RunDate:   runDate,
		StartedAt: time.Now().UTC(),
		Pipelines: make(map[domain.Pipeline]PipelineCounts),
	}
}

func (r *Report) addIngested(pipeline domain.Pipeline, observations, skipped int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.Pipelines[pipeline]
	c.Observations += observations
	c.Skipped += skipped
	r.Pipelines[pipeline] = c
}

func (r *Report) countResolution(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.MentionsResolved++
	switch outcome {
	case "matched_exact":
		r.MatchedExact++
	case "matched_fuzzy":
		r.MatchedFuzzy++
	case "created":
		r.IdentitiesCreated++
	case "created_ambiguous":
		r.IdentitiesCreated++
		r.AmbiguousCreated++
	}
}

func (r *Report) countSkippedMention() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.MentionsSkipped++
}

func (r *Report) countRejectedSignal() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.SignalsRejected++
}

func (r *Report) countScored() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.CompaniesScored++
}

func (r *Report) countInsufficient() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.InsufficientData++
}

func (r *Report) countRowWritten() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.RowsWritten++
}

func (r *Report) finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.EndedAt = time.Now().UTC()
}

// Snapshot returns a copy safe to read after the run.
func (r *Report) Snapshot() Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := Report{
		RunDate:           r.RunDate,
		StartedAt:         r.StartedAt,
		EndedAt:           r.EndedAt,
		Pipelines:         make(map[domain.Pipeline]PipelineCounts, len(r.Pipelines)),
		MentionsResolved:  r.MentionsResolved,
		MatchedExact:      r.MatchedExact,
		MatchedFuzzy:      r.MatchedFuzzy,
		IdentitiesCreated: r.IdentitiesCreated,
		AmbiguousCreated:  r.AmbiguousCreated,
		MentionsSkipped:   r.MentionsSkipped,
		CompaniesScored:   r.CompaniesScored,
		SignalsRejected:   r.SignalsRejected,
		InsufficientData:  r.InsufficientData,
		RowsWritten:       r.RowsWritten,
	}
	for p, c := range r.Pipelines {
		out.Pipelines[p] = c
	}
	return out
}
