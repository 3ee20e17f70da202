package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"propensity/pkg/contracts/domain"
)

// Snapshot loaders read the files the scorer exports: the company identity
// snapshot and dated signal history. The reporting commands and the web API
// rebuild their in-memory stores from these between runs.

// LoadCompanies parses a company identity snapshot.
func LoadCompanies(r io.Reader) ([]domain.Company, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read companies header: %w", err)
	}
	columns := mapHeader(header)

	var companies []domain.Company
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read companies record: %w", err)
		}
		row := rowView{columns: columns, record: record}

		c := domain.Company{}
		c.ID, _ = row.value([]string{"id"})
		c.Name, _ = row.value([]string{"name"})
		c.NormalizedName, _ = row.value([]string{"normalized_name"})
		c.Address, _ = row.value([]string{"address"})
		c.City, _ = row.value([]string{"city"})
		c.State, _ = row.value([]string{"state"})
		c.ZipCode, _ = row.value([]string{"zip_code"})
		c.Industry, _ = row.value([]string{"industry"})
		if raw, ok := row.value([]string{"created_at"}); ok {
			c.CreatedAt, _ = time.Parse(time.RFC3339, raw)
		}
		if raw, ok := row.value([]string{"updated_at"}); ok {
			c.UpdatedAt, _ = time.Parse(time.RFC3339, raw)
		}

		if c.ID == "" || c.NormalizedName == "" {
			return nil, fmt.Errorf("companies snapshot: record missing id or normalized_name")
		}
		companies = append(companies, c)
	}
	return companies, nil
}

// LoadSignalHistory parses a signal history snapshot. Empty sub-signal cells
// load as nil: the distinction between unmeasured and zero survives the
// round trip through disk.
func LoadSignalHistory(r io.Reader) ([]domain.SignalHistoryRow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read history header: %w", err)
	}
	columns := mapHeader(header)

	var rows []domain.SignalHistoryRow
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read history record: %w", err)
		}
		row := rowView{columns: columns, record: record}

		hr := domain.SignalHistoryRow{}
		hr.CompanyID, _ = row.value([]string{"company_id"})
		if raw, ok := row.value([]string{"record_date"}); ok {
			hr.RecordDate, err = parseDate(raw)
			if err != nil {
				return nil, fmt.Errorf("history snapshot: %w", err)
			}
		}
		if raw, ok := row.value([]string{"propensity_score"}); ok {
			hr.PropensityScore, err = strconv.Atoi(raw)
			if err != nil {
				return nil, fmt.Errorf("history snapshot score: %w", err)
			}
		}
		if raw, ok := row.value([]string{"score_tier"}); ok {
			hr.ScoreTier = domain.Tier(raw)
		}
		if raw, ok := row.value([]string{"computed_at"}); ok {
			hr.ComputedAt, _ = time.Parse(time.RFC3339, raw)
		}

		for name, dst := range map[string]**float64{
			"expansion":        &hr.Expansion,
			"distress":         &hr.Distress,
			"job_velocity":     &hr.JobVelocity,
			"sentiment":        &hr.Sentiment,
			"turnover":         &hr.Turnover,
			"market_tightness": &hr.MarketTightness,
			"macro":            &hr.Macro,
		} {
			raw, ok := row.value([]string{name})
			if !ok {
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("history snapshot %s: %w", name, err)
			}
			*dst = &v
		}

		if hr.CompanyID == "" || hr.RecordDate.IsZero() {
			return nil, fmt.Errorf("history snapshot: record missing company_id or record_date")
		}
		rows = append(rows, hr)
	}
	return rows, nil
}
