package exporter

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"propensity/internal/ingest"
	"propensity/internal/services"
	"propensity/pkg/contracts/domain"
)

func f64(v float64) *float64 { return &v }

func sampleLeads() []services.Lead {
	return []services.Lead{
		{
			CompanyID:   "c-1",
			Name:        "Acme Logistics",
			City:        "Chicago",
			State:       "IL",
			ZipCode:     "60601",
			RecordDate:  time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Score:       84,
			Tier:        domain.TierHot,
			Action:      "CALL_TODAY",
			Rationale:   "score 84 with a major expansion permit on file",
			Expansion:   f64(92.5),
			JobVelocity: f64(60),
		},
		{
			CompanyID:  "c-2",
			Name:       "Baker Freight",
			RecordDate: time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			Score:      35,
			Tier:       domain.TierCold,
			Action:     "MONITOR",
			Rationale:  "score 35, no current staffing need indicated",
		},
	}
}

func TestExportLeadsCSV(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	require.NoError(t, ExportLeadsCSV(NewCSVWriter(dir), sampleLeads(), date))

	data, err := os.ReadFile(filepath.Join(dir, "leads_2026-03-02.csv"))
	require.NoError(t, err)

	content := string(data)
	assert.Equal(t, "\xef\xbb\xbf", content[:3], "leads file carries a BOM for Excel")
	assert.Contains(t, content, "c-1,Acme Logistics,Chicago,IL,60601,2026-03-02,84,hot,CALL_TODAY")
	assert.Contains(t, content, "92.5")
	// Unmeasured signals export as empty cells, not zeros.
	assert.Contains(t, content, "c-2,Baker Freight,,,,2026-03-02,35,cold,MONITOR")
	assert.NotContains(t, content, "0.0,0.0,0.0,0.0,0.0,0.0,0.0")
}

func TestExportLeadsWorkbook(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	path, err := ExportLeadsWorkbook(dir, sampleLeads(), date)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ExcelFileName(date)), path)

	wb, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer wb.Close()

	name, err := wb.GetCellValue("Leads", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Acme Logistics", name)

	rows, err := wb.GetRows("Leads")
	require.NoError(t, err)
	assert.Len(t, rows, 3) // header + 2 leads
}

func TestHistorySnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()
	date := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

	rows := []domain.SignalHistoryRow{
		{
			CompanyID:       "c-1",
			RecordDate:      date,
			PropensityScore: 84,
			ScoreTier:       domain.TierHot,
			ComputedAt:      time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
			Expansion:       f64(92.5),
			Distress:        f64(0),
		},
		{
			CompanyID:       "c-2",
			RecordDate:      date,
			PropensityScore: 35,
			ScoreTier:       domain.TierCold,
			ComputedAt:      time.Date(2026, 3, 2, 6, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, ExportHistoryCSV(NewCSVWriter(dir), rows, date))

	f, err := os.Open(filepath.Join(dir, HistoryFileName(date)))
	require.NoError(t, err)
	defer f.Close()

	loaded, err := ingest.LoadSignalHistory(f)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	byID := map[string]domain.SignalHistoryRow{}
	for _, row := range loaded {
		byID[row.CompanyID] = row
	}

	first := byID["c-1"]
	assert.Equal(t, 84, first.PropensityScore)
	assert.Equal(t, domain.TierHot, first.ScoreTier)
	require.NotNil(t, first.Expansion)
	assert.InDelta(t, 92.5, *first.Expansion, 1e-9)
	require.NotNil(t, first.Distress, "measured zero survives the round trip as zero")
	assert.Zero(t, *first.Distress)
	assert.Nil(t, first.Sentiment, "unmeasured signal survives the round trip as nil")

	second := byID["c-2"]
	assert.Nil(t, second.Expansion)
	assert.Equal(t, domain.TierCold, second.ScoreTier)
}

func TestCompaniesSnapshotRoundTrip(t *testing.T) {
	dir := t.TempDir()

	companies := []domain.Company{
		{
			ID:             "c-1",
			Name:           "Acme Logistics LLC",
			NormalizedName: "acme logistics",
			City:           "Chicago",
			State:          "IL",
			ZipCode:        "60601",
			Industry:       "493",
			CreatedAt:      time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			UpdatedAt:      time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
		},
	}
	require.NoError(t, ExportCompaniesCSV(NewCSVWriter(dir), companies))

	f, err := os.Open(filepath.Join(dir, CompaniesFileName))
	require.NoError(t, err)
	defer f.Close()

	loaded, err := ingest.LoadCompanies(f)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, companies[0].ID, loaded[0].ID)
	assert.Equal(t, companies[0].NormalizedName, loaded[0].NormalizedName)
	assert.Equal(t, companies[0].ZipCode, loaded[0].ZipCode)
	assert.True(t, companies[0].CreatedAt.Equal(loaded[0].CreatedAt))
}
