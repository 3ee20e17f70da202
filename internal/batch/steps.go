package batch

import (
	"context"
	"fmt"
	"io"
	"os"

	"propensity/internal/infrastructure"
	"propensity/internal/ingest"
	"propensity/pkg/contracts/domain"
)

// Step IDs.
const (
	StepIngestPermits   = "ingest_permits"
	StepIngestWARN      = "ingest_warn"
	StepIngestJobs      = "ingest_jobs"
	StepIngestReviews   = "ingest_reviews"
	StepIngestInventory = "ingest_inventory"
	StepScore           = "score"
)

// ParseFunc parses one feed extract into observations.
type ParseFunc func(io.Reader) (ingest.Result, error)

// IngestStep reads one feed extract file and appends its observations to the
// run state. A missing extract file skips the feed with a warning: a feed
// that produced nothing today must not sink the whole run.
type IngestStep struct {
	id       string
	pipeline domain.Pipeline
	path     string
	parse    ParseFunc
	metrics  *infrastructure.Metrics
}

// NewIngestStep creates an ingest step for one feed extract.
func NewIngestStep(id string, pipeline domain.Pipeline, path string, parse ParseFunc, metrics *infrastructure.Metrics) *IngestStep {
	return &IngestStep{id: id, pipeline: pipeline, path: path, parse: parse, metrics: metrics}
}

// ID implements Step.
func (s *IngestStep) ID() string { return s.id }

// Name implements Step.
func (s *IngestStep) Name() string { return fmt.Sprintf("Ingest %s feed", s.pipeline) }

// Dependencies implements Step; ingest steps have none.
func (s *IngestStep) Dependencies() []string { return nil }

// Run implements Step.
func (s *IngestStep) Run(ctx context.Context, state *State) error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		infrastructure.LoggerWithContext(ctx).WarnContext(ctx, "feed extract missing, skipping",
			"pipeline", string(s.pipeline), "path", s.path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("open %s extract: %w", s.pipeline, err)
	}
	defer f.Close()

	result, err := s.parse(f)
	if err != nil {
		return fmt.Errorf("parse %s extract: %w", s.pipeline, err)
	}

	state.AddObservations(s.pipeline, result.Observations, result.Skipped)
	s.metrics.ObservationsIngested(ctx, string(s.pipeline), len(result.Observations))
	return nil
}

// ScoreStep wraps the engine as the run's terminal step. It depends on every
// ingest step so the observation set is complete before resolution starts.
type ScoreStep struct {
	engine *Engine
	deps   []string
}

// NewScoreStep creates the scoring step.
func NewScoreStep(engine *Engine, dependencies []string) *ScoreStep {
	return &ScoreStep{engine: engine, deps: dependencies}
}

// ID implements Step.
func (s *ScoreStep) ID() string { return StepScore }

// Name implements Step.
func (s *ScoreStep) Name() string { return "Resolve, score and persist" }

// Dependencies implements Step.
func (s *ScoreStep) Dependencies() []string { return s.deps }

// Run implements Step.
func (s *ScoreStep) Run(ctx context.Context, state *State) error {
	return s.engine.Score(ctx, state)
}
