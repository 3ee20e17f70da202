package batch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propensity/internal/config"
	"propensity/internal/entity"
	"propensity/internal/history"
	"propensity/internal/signals"
	"propensity/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// runState builds a populated run: three companies across five feeds, a zip
// reference table, county unemployment and a mildly expanding freight index.
func runState(t *testing.T) *State {
	t.Helper()
	state := NewState(day(2026, 3, 2))

	state.ZipAreas = map[string]domain.ZipArea{
		"60601": {ZipCode: "60601", FIPS: "17031", City: "Chicago", State: "IL"},
		"60614": {ZipCode: "60614", FIPS: "17031", City: "Chicago", State: "IL"},
		"75001": {ZipCode: "75001", FIPS: "48113", City: "Addison", State: "TX"},
	}
	state.UnemploymentRates = map[string]float64{"17031": 4.0}

	freight := make([]domain.EconomicObservation, 6)
	for i := range freight {
		value := 100.0
		if i >= 3 {
			value = 108.0 // +8%: mild expansion, macro scores 75
		}
		freight[i] = domain.EconomicObservation{
			SeriesID:   domain.SeriesFreightShipments,
			RecordDate: day(2025, time.Month(i+9), 1),
			Value:      value,
		}
	}
	state.EconomicSeries = map[string][]domain.EconomicObservation{
		domain.SeriesFreightShipments: freight,
	}

	state.AddObservations(domain.PipelinePermits, []domain.RawObservation{
		{
			Pipeline: domain.PipelinePermits, CompanyName: "Acme Logistics LLC",
			City: "Chicago", State: "IL", ZipCode: "60601",
			RecordDate: day(2026, 2, 20),
			Fields:     map[string]any{signals.FieldReportedCost: 10_000_000.0},
		},
	}, 0)
	state.AddObservations(domain.PipelineWARN, []domain.RawObservation{
		{
			Pipeline: domain.PipelineWARN, CompanyName: "Baker Freight Inc",
			City: "Chicago", State: "IL", ZipCode: "60614",
			RecordDate: day(2026, 2, 25),
			Fields:     map[string]any{"affected_count": 200},
		},
	}, 0)
	state.AddObservations(domain.PipelineJobs, []domain.RawObservation{
		{Pipeline: domain.PipelineJobs, CompanyName: "Acme Logistics", ZipCode: "60601", RecordDate: day(2026, 2, 25), Fields: map[string]any{}},
		{Pipeline: domain.PipelineJobs, CompanyName: "Acme Logistics", ZipCode: "60601", RecordDate: day(2026, 2, 20), Fields: map[string]any{}},
	}, 0)
	state.AddObservations(domain.PipelineReviews, []domain.RawObservation{
		{
			Pipeline: domain.PipelineReviews, CompanyName: "Acme Logistics", ZipCode: "60601",
			RecordDate: day(2026, 3, 1),
			Fields:     map[string]any{signals.FieldAvgRating: 2.0, signals.FieldReviewCount: 10},
		},
	}, 0)
	state.AddObservations(domain.PipelineInventory, []domain.RawObservation{
		{
			Pipeline: domain.PipelineInventory, CompanyName: "Casey Haulage", ZipCode: "75001",
			RecordDate: day(2026, 3, 1),
			Fields:     map[string]any{signals.FieldTurnoverRatio: 5.0},
		},
	}, 0)

	return state
}

func testEngine(writer history.Writer) (*Engine, *entity.MemoryStore) {
	companies := entity.NewMemoryStore()
	resolver := entity.NewResolver(companies, nil)
	cfg := config.Default().Scoring
	engine := NewEngine(resolver, writer, cfg, nil,
		WithEngineClock(func() time.Time { return day(2026, 3, 2) }))
	return engine, companies
}

func TestEngineScoreEndToEnd(t *testing.T) {
	ctx := context.Background()
	state := runState(t)
	store := history.NewMemoryStore()
	engine, companies := testEngine(store)

	require.NoError(t, engine.Score(ctx, state))
	assert.Equal(t, 3, companies.Len(), "acme, baker and casey each get one identity")
	assert.Equal(t, 3, store.Len())

	report := state.Report.Snapshot()
	assert.Equal(t, 6, report.MentionsResolved)
	assert.Equal(t, 3, report.IdentitiesCreated)
	assert.Equal(t, 3, report.MatchedExact, "repeat mentions resolve to the existing identity")
	assert.Equal(t, 3, report.CompaniesScored)
	assert.Equal(t, 3, report.RowsWritten)
	assert.Zero(t, report.MentionsSkipped)
	assert.Zero(t, report.SignalsRejected)

	rows, err := store.Latest(ctx)
	require.NoError(t, err)

	byName := map[string]domain.SignalHistoryRow{}
	for _, row := range rows {
		c, err := companies.Get(ctx, row.CompanyID)
		require.NoError(t, err)
		byName[c.NormalizedName] = row
	}

	acme := byName["acme logistics"]
	require.NotNil(t, acme.Expansion)
	assert.InDelta(t, 100, *acme.Expansion, 1e-9)
	require.NotNil(t, acme.JobVelocity)
	assert.InDelta(t, 20, *acme.JobVelocity, 1e-9)
	require.NotNil(t, acme.Sentiment)
	assert.InDelta(t, 75, *acme.Sentiment, 1e-9)
	require.NotNil(t, acme.Distress)
	assert.InDelta(t, 100.0/11.0, *acme.Distress, 1e-9, "baker's notice ten miles away")
	require.NotNil(t, acme.MarketTightness)
	assert.InDelta(t, 50, *acme.MarketTightness, 1e-9)
	require.NotNil(t, acme.Macro)
	assert.InDelta(t, 75, *acme.Macro, 1e-9)
	assert.Nil(t, acme.Turnover, "no filings for acme")
	assert.Equal(t, 55, acme.PropensityScore)
	assert.Equal(t, domain.TierCool, acme.ScoreTier)

	baker := byName["baker freight"]
	require.NotNil(t, baker.Distress)
	assert.Zero(t, *baker.Distress, "a company's own notice never counts against it")
	assert.Nil(t, baker.JobVelocity, "never seen in the jobs feed")
	assert.Equal(t, 31, baker.PropensityScore)
	assert.Equal(t, domain.TierCold, baker.ScoreTier)

	casey := byName["casey haulage"]
	require.NotNil(t, casey.Turnover)
	assert.InDelta(t, 50, *casey.Turnover, 1e-9)
	assert.Nil(t, casey.JobVelocity, "never seen in the jobs feed")
	assert.Nil(t, casey.MarketTightness, "no unemployment rate for its county")
	assert.Equal(t, 25, casey.PropensityScore)
}

func TestEngineInStateNoticeContributesToDistress(t *testing.T) {
	ctx := context.Background()
	state := NewState(day(2026, 3, 2))
	// Peoria is outside Chicago's sectional prefix; the shared state still
	// puts the closure within the regional labor market.
	state.AddObservations(domain.PipelinePermits, []domain.RawObservation{
		{
			Pipeline: domain.PipelinePermits, CompanyName: "Acme Logistics",
			City: "Chicago", State: "IL", ZipCode: "60601",
			RecordDate: day(2026, 2, 20),
			Fields:     map[string]any{signals.FieldReportedCost: 100_000.0},
		},
	}, 0)
	state.AddObservations(domain.PipelineWARN, []domain.RawObservation{
		{
			Pipeline: domain.PipelineWARN, CompanyName: "Delta Distribution",
			City: "Peoria", State: "IL", ZipCode: "61602",
			RecordDate: day(2026, 2, 25),
			Fields:     map[string]any{"affected_count": 200},
		},
	}, 0)

	store := history.NewMemoryStore()
	engine, companies := testEngine(store)

	require.NoError(t, engine.Score(ctx, state))

	rows, err := store.Latest(ctx)
	require.NoError(t, err)

	byName := map[string]domain.SignalHistoryRow{}
	for _, row := range rows {
		c, err := companies.Get(ctx, row.CompanyID)
		require.NoError(t, err)
		byName[c.NormalizedName] = row
	}

	acme := byName["acme logistics"]
	require.NotNil(t, acme.Distress)
	// 30 miles, 200 affected: 1/31 * 2.0 * 50.
	assert.InDelta(t, 100.0/31.0, *acme.Distress, 1e-9)
}

func TestEngineScoreDeterministicAcrossReruns(t *testing.T) {
	ctx := context.Background()

	run := func() []domain.SignalHistoryRow {
		state := runState(t)
		store := history.NewMemoryStore()
		engine, _ := testEngine(store)
		require.NoError(t, engine.Score(ctx, state))
		rows, err := store.Latest(ctx)
		require.NoError(t, err)
		return rows
	}

	first := run()
	second := run()
	require.Len(t, second, len(first))
	for i := range first {
		// IDs are freshly minted per run; scores and signals must not drift.
		assert.Equal(t, first[i].PropensityScore, second[i].PropensityScore)
		assert.Equal(t, first[i].ScoreTier, second[i].ScoreTier)
	}
}

func TestEngineSkipsUnresolvableMentions(t *testing.T) {
	ctx := context.Background()
	state := NewState(day(2026, 3, 2))
	state.AddObservations(domain.PipelinePermits, []domain.RawObservation{
		{Pipeline: domain.PipelinePermits, CompanyName: "...", RecordDate: day(2026, 3, 1), Fields: map[string]any{}},
	}, 0)

	store := history.NewMemoryStore()
	engine, companies := testEngine(store)

	require.NoError(t, engine.Score(ctx, state))
	assert.Zero(t, companies.Len())
	assert.Equal(t, 1, state.Report.Snapshot().MentionsSkipped)
}

func TestEngineRejectsInvalidSignalInputOnly(t *testing.T) {
	ctx := context.Background()
	state := NewState(day(2026, 3, 2))
	// Negative cost poisons expansion, but the review keeps the company
	// scoreable: per-signal isolation, not per-company.
	state.AddObservations(domain.PipelinePermits, []domain.RawObservation{
		{
			Pipeline: domain.PipelinePermits, CompanyName: "Acme Logistics", ZipCode: "60601",
			RecordDate: day(2026, 3, 1),
			Fields:     map[string]any{signals.FieldReportedCost: -100.0},
		},
	}, 0)
	state.AddObservations(domain.PipelineReviews, []domain.RawObservation{
		{
			Pipeline: domain.PipelineReviews, CompanyName: "Acme Logistics", ZipCode: "60601",
			RecordDate: day(2026, 3, 1),
			Fields:     map[string]any{signals.FieldAvgRating: 2.0, signals.FieldReviewCount: 5},
		},
	}, 0)

	store := history.NewMemoryStore()
	engine, _ := testEngine(store)

	require.NoError(t, engine.Score(ctx, state))

	report := state.Report.Snapshot()
	assert.Equal(t, 1, report.SignalsRejected)
	assert.Equal(t, 1, report.CompaniesScored)

	rows, err := store.Latest(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Expansion, "rejected signal stays absent")
	require.NotNil(t, rows[0].Sentiment)
}

func TestIngestStepMissingFileSkips(t *testing.T) {
	step := NewIngestStep(StepIngestPermits, domain.PipelinePermits,
		"/nonexistent/permits.csv", nil, nil)

	state := NewState(day(2026, 3, 2))
	require.NoError(t, step.Run(context.Background(), state))
	assert.Empty(t, state.Observations(domain.PipelinePermits))
}
