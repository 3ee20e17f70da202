package batch

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"propensity/internal/config"
	"propensity/internal/infrastructure"
	"propensity/internal/ingest"
	"propensity/pkg/contracts/domain"
)

// Runner executes a registry's steps level by level: every step in a level
// runs concurrently, and a level starts only after the previous one
// completed. A failed step fails the run; the run report still reflects
// whatever completed before the failure.
type Runner struct {
	registry *Registry
	logger   *slog.Logger

	// StepStates records per-step timing and outcome for the run report.
	StepStates map[string]*StepState
}

// NewRunner creates a runner over the given registry.
func NewRunner(registry *Registry, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		registry:   registry,
		logger:     logger,
		StepStates: make(map[string]*StepState),
	}
}

// Run executes all registered steps against the state.
func (r *Runner) Run(ctx context.Context, state *State) error {
	levels, err := r.registry.Levels()
	if err != nil {
		return fmt.Errorf("order steps: %w", err)
	}

	for _, level := range levels {
		for _, step := range level {
			r.StepStates[step.ID()] = NewStepState(step.ID(), step.Name())
		}
	}

	r.logger.InfoContext(ctx, "starting run",
		"run_date", state.RunDate.Format("2006-01-02"),
		"steps", r.registry.Count(),
		"levels", len(levels))

	for _, level := range levels {
		g, gctx := errgroup.WithContext(ctx)
		for _, step := range level {
			step := step
			ss := r.StepStates[step.ID()]
			g.Go(func() error {
				ss.Start()
				r.logger.InfoContext(gctx, "step started", "step", step.ID())
				if err := step.Run(gctx, state); err != nil {
					ss.Fail(err)
					r.logger.ErrorContext(gctx, "step failed",
						"step", step.ID(), "duration", ss.Duration(), "error", err)
					return fmt.Errorf("step %s: %w", step.ID(), err)
				}
				ss.Complete()
				r.logger.InfoContext(gctx, "step completed",
					"step", step.ID(), "duration", ss.Duration())
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			state.Report.finish()
			return err
		}
	}

	state.Report.finish()
	return nil
}

// BuildStandardRegistry wires the production run: the five company-bearing
// feed ingest steps in parallel, then the scoring step.
func BuildStandardRegistry(paths config.PathsConfig, reader *ingest.FeedReader, engine *Engine, metrics *infrastructure.Metrics) (*Registry, error) {
	registry := NewRegistry()

	ingestSteps := []*IngestStep{
		NewIngestStep(StepIngestPermits, domain.PipelinePermits, paths.Feed(config.PermitsFile), reader.ReadPermits, metrics),
		NewIngestStep(StepIngestWARN, domain.PipelineWARN, paths.Feed(config.WARNFile), reader.ReadWARN, metrics),
		NewIngestStep(StepIngestJobs, domain.PipelineJobs, paths.Feed(config.JobsFile), reader.ReadJobs, metrics),
		NewIngestStep(StepIngestReviews, domain.PipelineReviews, paths.Feed(config.ReviewsFile), reader.ReadReviews, metrics),
		NewIngestStep(StepIngestInventory, domain.PipelineInventory, paths.Feed(config.InventoryFile), reader.ReadInventory, metrics),
	}

	deps := make([]string, 0, len(ingestSteps))
	for _, step := range ingestSteps {
		if err := registry.Register(step); err != nil {
			return nil, err
		}
		deps = append(deps, step.ID())
	}
	if err := registry.Register(NewScoreStep(engine, deps)); err != nil {
		return nil, err
	}
	return registry, nil
}
