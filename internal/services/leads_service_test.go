package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propensity/internal/entity"
	"propensity/internal/history"
	"propensity/pkg/contracts/domain"
)

func f64(v float64) *float64 { return &v }

func seedService(t *testing.T) *LeadsService {
	t.Helper()
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	companies := entity.NewMemoryStore()
	require.NoError(t, companies.Insert(ctx, domain.Company{
		ID: "c-hot", Name: "Acme Logistics", NormalizedName: "acme logistics",
		City: "Chicago", State: "IL", ZipCode: "60601",
	}))
	require.NoError(t, companies.Insert(ctx, domain.Company{
		ID: "c-warm", Name: "Baker Freight", NormalizedName: "baker freight", ZipCode: "60614",
	}))

	rows := []domain.SignalHistoryRow{
		{CompanyID: "c-hot", RecordDate: date, PropensityScore: 86, ScoreTier: domain.TierHot, Expansion: f64(88)},
		{CompanyID: "c-warm", RecordDate: date, PropensityScore: 65, ScoreTier: domain.TierWarm, JobVelocity: f64(70)},
		{CompanyID: "c-cool", RecordDate: date, PropensityScore: 45, ScoreTier: domain.TierCool},
		{CompanyID: "c-cold", RecordDate: date, PropensityScore: 20, ScoreTier: domain.TierCold},
	}
	store := history.NewMemoryStore()
	for _, row := range rows {
		require.NoError(t, store.Upsert(ctx, row))
	}

	return NewLeadsService(store, companies, nil)
}

func TestLatestLeads(t *testing.T) {
	s := seedService(t)

	leads, err := s.LatestLeads(context.Background())
	require.NoError(t, err)
	require.Len(t, leads, 4)

	// Highest score first, identity joined in.
	assert.Equal(t, "c-hot", leads[0].CompanyID)
	assert.Equal(t, "Acme Logistics", leads[0].Name)
	assert.Equal(t, "Chicago", leads[0].City)
	assert.Equal(t, 86, leads[0].Score)

	// A row without a stored identity still yields a lead.
	assert.Equal(t, "c-cool", leads[2].CompanyID)
	assert.Empty(t, leads[2].Name)
}

func TestHotLeadsFiltersByScore(t *testing.T) {
	s := seedService(t)

	leads, err := s.HotLeads(context.Background(), 60)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "c-hot", leads[0].CompanyID)
	assert.Equal(t, "c-warm", leads[1].CompanyID)
}

func TestSummary(t *testing.T) {
	s := seedService(t)

	summary, err := s.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalCompanies)
	assert.Equal(t, 1, summary.TierCounts[domain.TierHot])
	assert.Equal(t, 1, summary.TierCounts[domain.TierWarm])
	assert.Equal(t, 1, summary.TierCounts[domain.TierCool])
	assert.Equal(t, 1, summary.TierCounts[domain.TierCold])
	require.Len(t, summary.HotLeads, 1)
	assert.Equal(t, "c-hot", summary.HotLeads[0].CompanyID)
}

func TestLeadByDate(t *testing.T) {
	s := seedService(t)
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	lead, err := s.Lead(context.Background(), "c-warm", date)
	require.NoError(t, err)
	assert.Equal(t, 65, lead.Score)
	assert.Equal(t, "Baker Freight", lead.Name)

	_, err = s.Lead(context.Background(), "c-warm", date.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, history.ErrRowNotFound)
}

func TestRecommend(t *testing.T) {
	tests := []struct {
		name      string
		lead      Lead
		action    string
		rationale string
	}{
		{
			name:      "hot with expansion permit",
			lead:      Lead{Score: 86, Tier: domain.TierHot, Expansion: f64(88)},
			action:    "CALL_TODAY",
			rationale: "score 86 with a major expansion permit on file",
		},
		{
			name:      "hot without expansion",
			lead:      Lead{Score: 82, Tier: domain.TierHot},
			action:    "CALL_TODAY",
			rationale: "score 82, multiple strong staffing signals",
		},
		{
			name:      "warm with hiring velocity",
			lead:      Lead{Score: 65, Tier: domain.TierWarm, JobVelocity: f64(70)},
			action:    "CALL_THIS_WEEK",
			rationale: "score 65, hiring velocity is picking up",
		},
		{
			name:      "cool",
			lead:      Lead{Score: 45, Tier: domain.TierCool},
			action:    "NURTURE",
			rationale: "score 45, keep on the drip campaign",
		},
		{
			name:      "cold",
			lead:      Lead{Score: 20, Tier: domain.TierCold},
			action:    "MONITOR",
			rationale: "score 20, no current staffing need indicated",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, rationale := recommend(tt.lead)
			assert.Equal(t, tt.action, action)
			assert.Equal(t, tt.rationale, rationale)
		})
	}
}
