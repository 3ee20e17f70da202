package batch

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"propensity/internal/config"
	"propensity/internal/entity"
	"propensity/internal/history"
	"propensity/internal/infrastructure"
	"propensity/internal/scoring"
	"propensity/internal/signals"
	"propensity/pkg/contracts/domain"
)

// Engine runs the core stages over ingested observations: resolve every
// mention to a canonical identity, extract sub-signals per company,
// aggregate the propensity score and upsert the history row.
type Engine struct {
	resolver *entity.Resolver
	writer   history.Writer
	cfg      config.ScoringConfig
	logger   *slog.Logger
	metrics  *infrastructure.Metrics
	now      func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithMetrics attaches run counters.
func WithMetrics(m *infrastructure.Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithEngineClock overrides the time source, for tests.
func WithEngineClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates a scoring engine.
func NewEngine(resolver *entity.Resolver, writer history.Writer, cfg config.ScoringConfig, logger *slog.Logger, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		resolver: resolver,
		writer:   writer,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// resolvedNotice is a WARN notice after entity resolution, kept for the
// distress proximity search.
type resolvedNotice struct {
	companyID     string
	zipCode       string
	state         string
	affectedCount int
}

// companyWork collects one company's observations grouped by pipeline.
type companyWork struct {
	company domain.Company
	obs     map[domain.Pipeline][]domain.RawObservation
}

// Score runs resolution, extraction, aggregation and persistence for every
// company mentioned in the run's observations. Per-company failures are
// counted and skipped; only persistence and context errors abort the run.
func (e *Engine) Score(ctx context.Context, state *State) error {
	work, notices := e.resolveAll(ctx, state)

	// The macro trend is regional: computed once, broadcast to everyone.
	macroValue := e.cfg.Macro.Score(state.EconomicSeries[domain.SeriesFreightShipments])

	// Deterministic iteration order so reruns write rows identically.
	ids := make([]string, 0, len(work))
	for id := range work {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	computedAt := e.now().UTC()
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		w := work[id]

		set := e.extract(ctx, state, w, notices, macroValue)

		result, err := scoring.Aggregate(set, e.cfg.Weights)
		if errors.Is(err, scoring.ErrInsufficientData) {
			state.Report.countInsufficient()
			e.logger.DebugContext(ctx, "no weighted signals present, skipping company",
				"company_id", id, "name", w.company.Name)
			continue
		}
		if err != nil {
			state.Report.countRejectedSignal()
			e.logger.ErrorContext(ctx, "aggregation failed",
				"company_id", id, "error", err)
			continue
		}

		row, err := history.BuildRow(id, state.RunDate, set, result, computedAt)
		if err != nil {
			state.Report.countRejectedSignal()
			e.logger.ErrorContext(ctx, "building history row failed",
				"company_id", id, "error", err)
			continue
		}
		if err := e.writer.Upsert(ctx, row); err != nil {
			return err
		}

		state.Report.countScored()
		state.Report.countRowWritten()
		e.metrics.RowWritten(ctx, result.Score, string(result.Tier))
	}

	report := state.Report.Snapshot()
	e.logger.InfoContext(ctx, "scoring complete",
		"run_date", state.RunDate.Format("2006-01-02"),
		"companies_scored", report.CompaniesScored,
		"rows_written", report.RowsWritten,
		"identities_created", report.IdentitiesCreated,
		"ambiguous_created", report.AmbiguousCreated,
		"insufficient_data", report.InsufficientData,
	)
	return nil
}

// resolvedPipelines lists the feeds whose records carry company mentions.
// Macro and labor feeds are regional and resolve to no company.
var resolvedPipelines = []domain.Pipeline{
	domain.PipelinePermits,
	domain.PipelineWARN,
	domain.PipelineJobs,
	domain.PipelineReviews,
	domain.PipelineInventory,
}

// resolveAll maps every company-bearing observation to its canonical
// identity. Unresolvable mentions are counted and dropped.
func (e *Engine) resolveAll(ctx context.Context, state *State) (map[string]companyWork, []resolvedNotice) {
	work := make(map[string]companyWork)
	var notices []resolvedNotice

	for _, pipeline := range resolvedPipelines {
		for _, obs := range state.Observations(pipeline) {
			res, err := e.resolver.Resolve(ctx, entity.Mention{
				RawName: obs.CompanyName,
				Address: obs.Address,
				City:    obs.City,
				State:   obs.State,
				ZipCode: obs.ZipCode,
			})
			if err != nil {
				state.Report.countSkippedMention()
				e.logger.WarnContext(ctx, "mention resolution failed",
					"pipeline", string(pipeline), "name", obs.CompanyName, "error", err)
				continue
			}
			state.Report.countResolution(string(res.Outcome))
			if res.Outcome == entity.OutcomeCreated || res.Outcome == entity.OutcomeCreatedAmbiguous {
				e.metrics.IdentityCreated(ctx, res.Outcome == entity.OutcomeCreatedAmbiguous)
			}

			w, ok := work[res.Company.ID]
			if !ok {
				w = companyWork{
					company: res.Company,
					obs:     make(map[domain.Pipeline][]domain.RawObservation),
				}
			} else {
				// Later resolutions may carry enriched fields.
				w.company = res.Company
			}
			w.obs[pipeline] = append(w.obs[pipeline], obs)
			work[res.Company.ID] = w

			if pipeline == domain.PipelineWARN {
				notice := resolvedNotice{companyID: res.Company.ID, zipCode: obs.ZipCode, state: obs.State}
				if notice.zipCode == "" {
					notice.zipCode = res.Company.ZipCode
				}
				if notice.state == "" {
					notice.state = res.Company.State
				}
				if count, present, err := obs.Float("affected_count"); err == nil && present {
					notice.affectedCount = int(count)
				}
				notices = append(notices, notice)
			}
		}
	}
	return work, notices
}

// extract computes the sub-signal set for one company. A structurally
// invalid extractor input rejects that signal only; the company still scores
// on whatever else is present.
func (e *Engine) extract(ctx context.Context, state *State, w companyWork, notices []resolvedNotice, macroValue *float64) signals.Set {
	set := make(signals.Set)

	put := func(sig signals.Signal, v *float64, err error) {
		if err != nil {
			state.Report.countRejectedSignal()
			e.logger.WarnContext(ctx, "rejecting invalid signal input",
				"company_id", w.company.ID, "signal", string(sig), "error", err)
			return
		}
		set.Put(sig, v)
	}

	v, err := e.cfg.Expansion.Extract(w.obs[domain.PipelinePermits])
	put(signals.SignalExpansion, v, err)

	v, err = e.cfg.Velocity.Extract(w.obs[domain.PipelineJobs], state.RunDate)
	put(signals.SignalJobVelocity, v, err)

	v, err = e.cfg.Sentiment.Extract(w.obs[domain.PipelineReviews])
	put(signals.SignalSentiment, v, err)

	v, err = e.cfg.Turnover.Extract(w.obs[domain.PipelineInventory])
	put(signals.SignalTurnover, v, err)

	// Distress needs a location to search around; without one the signal is
	// unmeasurable, not zero. A company's own notice never counts against it.
	if w.company.ZipCode != "" || w.company.State != "" {
		nearby := make([]signals.NearbyNotice, 0, 4)
		for _, n := range notices {
			if n.companyID == w.company.ID {
				continue
			}
			if miles, ok := signals.ZipProximity(w.company.ZipCode, w.company.State, n.zipCode, n.state); ok {
				nearby = append(nearby, signals.NearbyNotice{DistanceMiles: miles, AffectedCount: n.affectedCount})
			}
		}
		v, err = e.cfg.Distress.Extract(nearby)
		put(signals.SignalDistress, v, err)
	}

	// Market tightness comes from the county unemployment rate.
	if area, ok := state.ZipAreas[w.company.ZipCode]; ok {
		if rate, ok := state.UnemploymentRates[area.FIPS]; ok {
			score, err := e.cfg.Tightness.Score(rate)
			if err != nil {
				put(signals.SignalMarketTightness, nil, err)
			} else {
				set[signals.SignalMarketTightness] = score
			}
		}
	}

	set.Put(signals.SignalMacro, macroValue)
	return set
}
