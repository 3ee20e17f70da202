package exporter

import (
	"fmt"
	"strconv"
	"time"

	"propensity/pkg/contracts/domain"
)

// Snapshot column orders. These files are the handoff between the scorer and
// the reporting commands, so the loaders in the ingest package read exactly
// these headers.
var (
	historyHeaders = []string{
		"company_id", "record_date", "propensity_score", "score_tier", "computed_at",
		"expansion", "distress", "job_velocity", "sentiment",
		"turnover", "market_tightness", "macro",
	}
	companyHeaders = []string{
		"id", "name", "normalized_name", "address", "city", "state", "zip_code",
		"industry", "created_at", "updated_at",
	}
)

// HistoryFileName returns the dated signal-history snapshot file name.
func HistoryFileName(date time.Time) string {
	return fmt.Sprintf("history_%s.csv", date.Format("2006-01-02"))
}

// CompaniesFileName is the company identity snapshot file name.
const CompaniesFileName = "companies.csv"

// ExportHistoryCSV writes the run's signal history rows.
func ExportHistoryCSV(w *CSVWriter, rows []domain.SignalHistoryRow, date time.Time) error {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		records = append(records, []string{
			row.CompanyID,
			row.RecordDate.Format("2006-01-02"),
			strconv.Itoa(row.PropensityScore),
			string(row.ScoreTier),
			row.ComputedAt.Format(time.RFC3339),
			formatSignal(row.Expansion),
			formatSignal(row.Distress),
			formatSignal(row.JobVelocity),
			formatSignal(row.Sentiment),
			formatSignal(row.Turnover),
			formatSignal(row.MarketTightness),
			formatSignal(row.Macro),
		})
	}
	return w.WriteSimpleCSV(HistoryFileName(date), historyHeaders, records)
}

// ExportCompaniesCSV writes the full company identity snapshot.
func ExportCompaniesCSV(w *CSVWriter, companies []domain.Company) error {
	records := make([][]string, 0, len(companies))
	for _, c := range companies {
		records = append(records, []string{
			c.ID,
			c.Name,
			c.NormalizedName,
			c.Address,
			c.City,
			c.State,
			c.ZipCode,
			c.Industry,
			c.CreatedAt.Format(time.RFC3339),
			c.UpdatedAt.Format(time.RFC3339),
		})
	}
	return w.WriteSimpleCSV(CompaniesFileName, companyHeaders, records)
}
