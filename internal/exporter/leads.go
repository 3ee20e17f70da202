package exporter

import (
	"fmt"
	"strconv"
	"time"

	"propensity/internal/services"
)

// leadsHeaders is the column order of every leads export. Sub-signal cells
// are empty when the signal was not measured; empty and zero mean different
// things downstream.
var leadsHeaders = []string{
	"CompanyID", "Name", "City", "State", "Zip",
	"RecordDate", "Score", "Tier", "Action", "Rationale",
	"Expansion", "Distress", "JobVelocity", "Sentiment",
	"Turnover", "MarketTightness", "Macro",
}

// LeadsFileName returns the dated CSV file name for a run.
func LeadsFileName(date time.Time) string {
	return fmt.Sprintf("leads_%s.csv", date.Format("2006-01-02"))
}

// ExportLeadsCSV writes the leads to a dated CSV under the output directory.
func ExportLeadsCSV(w *CSVWriter, leads []services.Lead, date time.Time) error {
	records := make([][]string, 0, len(leads))
	for _, lead := range leads {
		records = append(records, leadRecord(lead))
	}
	return w.WriteSimpleCSV(LeadsFileName(date), leadsHeaders, records)
}

func leadRecord(lead services.Lead) []string {
	return []string{
		lead.CompanyID,
		lead.Name,
		lead.City,
		lead.State,
		lead.ZipCode,
		lead.RecordDate.Format("2006-01-02"),
		strconv.Itoa(lead.Score),
		string(lead.Tier),
		lead.Action,
		lead.Rationale,
		formatSignal(lead.Expansion),
		formatSignal(lead.Distress),
		formatSignal(lead.JobVelocity),
		formatSignal(lead.Sentiment),
		formatSignal(lead.Turnover),
		formatSignal(lead.MarketTightness),
		formatSignal(lead.Macro),
	}
}

// formatSignal renders a nullable sub-signal: absent stays an empty cell.
func formatSignal(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
