package batch

import (
	"sync"
	"time"

	"propensity/pkg/contracts/domain"
)

// State is the shared state of one scoring run. Ingest steps append
// observations concurrently; the scoring step reads everything after the
// ingest level has completed.
type State struct {
	mu sync.Mutex

	// RunDate is the record date every history row of this run is keyed on.
	RunDate time.Time

	observations map[domain.Pipeline][]domain.RawObservation

	// Reference tables, loaded before the run starts.
	ZipAreas          map[string]domain.ZipArea
	EconomicSeries    map[string][]domain.EconomicObservation
	UnemploymentRates map[string]float64 // keyed by county FIPS

	Report *Report
}

// NewState creates run state for the given record date.
func NewState(runDate time.Time) *State {
	return &State{
		RunDate:      runDate,
		observations: make(map[domain.Pipeline][]domain.RawObservation),
		Report:       NewReport(runDate),
	}
}

// AddObservations appends one feed's parsed output.
func (s *State) AddObservations(pipeline domain.Pipeline, obs []domain.RawObservation, skipped int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observations[pipeline] = append(s.observations[pipeline], obs...)
	s.Report.addIngested(pipeline, len(obs), skipped)
}

// Observations returns the accumulated observations for one pipeline.
func (s *State) Observations(pipeline domain.Pipeline) []domain.RawObservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.observations[pipeline]
}
