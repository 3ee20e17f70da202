package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"propensity/internal/signals"
	"propensity/pkg/contracts/domain"
)

// Column aliases seen across upstream portals, lowercased.
var (
	nameAliases   = []string{"company_name", "company", "employer", "applicant", "contractor"}
	zipAliases    = []string{"zip_code", "zip", "postal_code", "site_zip"}
	cityAliases   = []string{"city", "source_city", "site_city"}
	stateAliases  = []string{"state", "source_state"}
	addrAliases   = []string{"address", "site_address", "location"}
	costAliases   = []string{"reported_cost", "estimated_cost", "valuation", "project_value"}
	dateAliases   = []string{"record_date", "issue_date", "permit_issue_date", "notice_date", "posted_date", "as_of_date"}
	countAliases  = []string{"affected_count", "affected_workers", "num_affected"}
	ratingAliases = []string{"avg_rating", "rating", "overall_rating"}
	reviewAliases = []string{"review_count", "num_reviews", "reviews"}
	ratioAliases  = []string{"turnover_ratio", "inventory_turnover"}
)

// dateLayouts are tried in order when parsing feed dates.
var dateLayouts = []string{"2006-01-02", "2006-01-02T15:04:05", "01/02/2006", "2006/01/02"}

// FeedReader parses pipeline CSV extracts into raw observations.
type FeedReader struct {
	logger *slog.Logger
}

// NewFeedReader creates a feed reader.
func NewFeedReader(logger *slog.Logger) *FeedReader {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedReader{logger: logger}
}

// Result is the outcome of parsing one feed.
type Result struct {
	Observations []domain.RawObservation
	Skipped      int
}

// ReadPermits parses a building-permit extract. Records without a company
// name or issue date are skipped; a present but malformed cost is a
// structural defect and also skips the record.
func (fr *FeedReader) ReadPermits(r io.Reader) (Result, error) {
	return fr.read(r, domain.PipelinePermits, func(row rowView, obs *domain.RawObservation) error {
		if cost, ok := row.value(costAliases); ok {
			parsed, err := parseMoney(cost)
			if err != nil {
				return fmt.Errorf("cost: %w", err)
			}
			obs.Fields[signals.FieldReportedCost] = parsed
		}
		if desc, ok := row.value([]string{"description", "work_description", "permit_description"}); ok {
			obs.Fields["description"] = desc
		}
		if id, ok := row.value([]string{"permit_id", "permit_number"}); ok {
			obs.Fields["permit_id"] = id
		}
		return nil
	})
}

// ReadWARN parses a WARN notice extract.
func (fr *FeedReader) ReadWARN(r io.Reader) (Result, error) {
	return fr.read(r, domain.PipelineWARN, func(row rowView, obs *domain.RawObservation) error {
		if raw, ok := row.value(countAliases); ok {
			count, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("affected count: %w", err)
			}
			if count < 0 {
				return fmt.Errorf("affected count: negative")
			}
			obs.Fields["affected_count"] = count
		}
		if t, ok := row.value([]string{"layoff_type", "type"}); ok {
			obs.Fields["layoff_type"] = classifyLayoffType(t)
		}
		return nil
	})
}

// ReadJobs parses a job-posting extract; one observation per posting.
func (fr *FeedReader) ReadJobs(r io.Reader) (Result, error) {
	return fr.read(r, domain.PipelineJobs, func(row rowView, obs *domain.RawObservation) error {
		if title, ok := row.value([]string{"title", "job_title"}); ok {
			obs.Fields["title"] = title
		}
		return nil
	})
}

// ReadReviews parses an employee-review snapshot extract.
func (fr *FeedReader) ReadReviews(r io.Reader) (Result, error) {
	return fr.read(r, domain.PipelineReviews, func(row rowView, obs *domain.RawObservation) error {
		if raw, ok := row.value(ratingAliases); ok {
			rating, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("rating: %w", err)
			}
			obs.Fields[signals.FieldAvgRating] = rating
		}
		if raw, ok := row.value(reviewAliases); ok {
			count, err := strconv.Atoi(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("review count: %w", err)
			}
			obs.Fields[signals.FieldReviewCount] = count
		}
		return nil
	})
}

// ReadInventory parses a filings-derived inventory turnover extract.
func (fr *FeedReader) ReadInventory(r io.Reader) (Result, error) {
	return fr.read(r, domain.PipelineInventory, func(row rowView, obs *domain.RawObservation) error {
		if raw, ok := row.value(ratioAliases); ok {
			ratio, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
			if err != nil {
				return fmt.Errorf("turnover ratio: %w", err)
			}
			obs.Fields[signals.FieldTurnoverRatio] = ratio
		}
		return nil
	})
}

// read drives the shared parse loop: header mapping, the common identity and
// location columns, then the pipeline-specific payload via fill.
func (fr *FeedReader) read(r io.Reader, pipeline domain.Pipeline, fill func(rowView, *domain.RawObservation) error) (Result, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return Result{}, fmt.Errorf("read %s header: %w", pipeline, err)
	}
	columns := mapHeader(header)

	var result Result
	line := 1
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			result.Skipped++
			fr.logger.Warn("skipping malformed csv record",
				"pipeline", string(pipeline), "line", line, "error", err)
			continue
		}

		row := rowView{columns: columns, record: record}
		obs := domain.RawObservation{
			Pipeline: pipeline,
			Fields:   make(map[string]any),
		}

		name, ok := row.value(nameAliases)
		if !ok || strings.TrimSpace(name) == "" {
			result.Skipped++
			continue
		}
		obs.CompanyName = strings.TrimSpace(name)

		rawDate, ok := row.value(dateAliases)
		if !ok {
			result.Skipped++
			fr.logger.Warn("skipping record without date",
				"pipeline", string(pipeline), "line", line, "company", obs.CompanyName)
			continue
		}
		date, err := parseDate(rawDate)
		if err != nil {
			result.Skipped++
			fr.logger.Warn("skipping record with bad date",
				"pipeline", string(pipeline), "line", line, "date", rawDate)
			continue
		}
		obs.RecordDate = date

		if v, ok := row.value(zipAliases); ok {
			obs.ZipCode = normalizeZip(v)
		}
		if v, ok := row.value(cityAliases); ok {
			obs.City = strings.TrimSpace(v)
		}
		if v, ok := row.value(stateAliases); ok {
			obs.State = strings.ToUpper(strings.TrimSpace(v))
		}
		if v, ok := row.value(addrAliases); ok {
			obs.Address = strings.TrimSpace(v)
		}

		if err := fill(row, &obs); err != nil {
			result.Skipped++
			fr.logger.Warn("skipping structurally invalid record",
				"pipeline", string(pipeline), "line", line, "company", obs.CompanyName, "error", err)
			continue
		}

		result.Observations = append(result.Observations, obs)
	}

	fr.logger.Info("parsed feed",
		"pipeline", string(pipeline),
		"observations", len(result.Observations),
		"skipped", result.Skipped)
	return result, nil
}

// rowView pairs one CSV record with the feed's header map.
type rowView struct {
	columns map[string]int
	record  []string
}

// value returns the first non-empty cell matching any alias.
func (r rowView) value(aliases []string) (string, bool) {
	for _, alias := range aliases {
		if idx, ok := r.columns[alias]; ok && idx < len(r.record) {
			if v := strings.TrimSpace(r.record[idx]); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func mapHeader(header []string) map[string]int {
	columns := make(map[string]int, len(header))
	for i, h := range header {
		// Excel-friendly exports carry a UTF-8 BOM on the first cell.
		h = strings.TrimPrefix(h, "\ufeff")
		columns[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return columns
}

// parseMoney strips currency formatting before parsing.
func parseMoney(raw string) (float64, error) {
	clean := strings.NewReplacer("$", "", ",", "", " ", "").Replace(raw)
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return v, nil
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("parse date %q", raw)
}

// normalizeZip keeps the 5-digit prefix of zip+4 codes.
func normalizeZip(raw string) string {
	raw = strings.TrimSpace(raw)
	if idx := strings.IndexByte(raw, '-'); idx > 0 {
		raw = raw[:idx]
	}
	if len(raw) > 5 {
		raw = raw[:5]
	}
	return raw
}

func classifyLayoffType(raw string) string {
	lowered := strings.ToLower(raw)
	switch {
	case strings.Contains(lowered, "clos"):
		return "closure"
	case strings.Contains(lowered, "reloc"):
		return "relocation"
	default:
		return "layoff"
	}
}
