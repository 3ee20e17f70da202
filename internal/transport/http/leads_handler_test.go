package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"propensity/internal/entity"
	"propensity/internal/history"
	"propensity/internal/services"
	"propensity/pkg/contracts/domain"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	companies := entity.NewMemoryStore()
	require.NoError(t, companies.Insert(ctx, domain.Company{
		ID: "c-1", Name: "Acme Logistics", NormalizedName: "acme logistics",
		City: "Chicago", State: "IL", ZipCode: "60601",
	}))
	require.NoError(t, companies.Insert(ctx, domain.Company{
		ID: "c-2", Name: "Baker Freight", NormalizedName: "baker freight", ZipCode: "60614",
	}))

	store := history.NewMemoryStore()
	require.NoError(t, store.Upsert(ctx, domain.SignalHistoryRow{
		CompanyID: "c-1", RecordDate: date, PropensityScore: 86, ScoreTier: domain.TierHot,
	}))
	require.NoError(t, store.Upsert(ctx, domain.SignalHistoryRow{
		CompanyID: "c-2", RecordDate: date, PropensityScore: 45, ScoreTier: domain.TierCool,
	}))

	service := services.NewLeadsService(store, companies, nil)
	server := httptest.NewServer(NewRouter(service, nil, nil, "test"))
	t.Cleanup(server.Close)
	return server
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func TestGetLeads(t *testing.T) {
	server := testServer(t)

	var leads []services.Lead
	resp := getJSON(t, server.URL+"/api/v1/leads", &leads)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, leads, 2)
	assert.Equal(t, "c-1", leads[0].CompanyID)
	assert.Equal(t, "Acme Logistics", leads[0].Name)
	assert.Equal(t, "CALL_TODAY", leads[0].Action)
}

func TestGetLeadsMinScoreFilter(t *testing.T) {
	server := testServer(t)

	var leads []services.Lead
	resp := getJSON(t, server.URL+"/api/v1/leads?min_score=60", &leads)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, leads, 1)
	assert.Equal(t, "c-1", leads[0].CompanyID)
}

func TestGetLeadsMinScoreValidation(t *testing.T) {
	server := testServer(t)

	for _, raw := range []string{"abc", "-1", "101"} {
		var problem map[string]any
		resp := getJSON(t, server.URL+"/api/v1/leads?min_score="+raw, &problem)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "min_score=%s", raw)
		assert.Equal(t, "/errors/validation", problem["type"])
	}
}

func TestGetHotLeads(t *testing.T) {
	server := testServer(t)

	var leads []services.Lead
	resp := getJSON(t, server.URL+"/api/v1/leads/hot", &leads)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, leads, 1)
	assert.Equal(t, domain.TierHot, leads[0].Tier)
}

func TestGetSummary(t *testing.T) {
	server := testServer(t)

	var summary services.LeadsSummary
	resp := getJSON(t, server.URL+"/api/v1/leads/summary", &summary)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, summary.TotalCompanies)
	assert.Equal(t, 1, summary.TierCounts[domain.TierHot])
	assert.Equal(t, 1, summary.TierCounts[domain.TierCool])
}

func TestGetCompanyScore(t *testing.T) {
	server := testServer(t)

	var lead services.Lead
	resp := getJSON(t, server.URL+"/api/v1/companies/c-1/score?date=2026-03-02", &lead)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 86, lead.Score)

	resp = getJSON(t, server.URL+"/api/v1/companies/c-1/score?date=2026-03-03", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = getJSON(t, server.URL+"/api/v1/companies/c-1/score", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "date is required")

	resp = getJSON(t, server.URL+"/api/v1/companies/c-1/score?date=03-02-2026", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetHealth(t *testing.T) {
	server := testServer(t)

	var health map[string]any
	resp := getJSON(t, server.URL+"/health", &health)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, "test", health["version"])
}

func TestUnknownRouteIsProblemJSON(t *testing.T) {
	server := testServer(t)

	var problem map[string]any
	resp := getJSON(t, server.URL+"/api/v1/nope", &problem)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "/errors/not-found", problem["type"])
}

func TestSecurityHeaders(t *testing.T) {
	server := testServer(t)

	resp := getJSON(t, server.URL+"/health", nil)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"), "request id echoed")
}
