package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"propensity/pkg/contracts/domain"
)

// LoadZipAreas parses the static zip→FIPS/city/state reference table.
// Expected columns: zip_code, fips, city, state. A missing or unreadable
// reference table is systemic: the whole run aborts, per the error policy.
func LoadZipAreas(r io.Reader) (map[string]domain.ZipArea, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read zip reference header: %w", err)
	}
	columns := mapHeader(header)
	for _, required := range []string{"zip_code", "fips"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("zip reference missing column %s", required)
		}
	}

	areas := make(map[string]domain.ZipArea)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read zip reference record: %w", err)
		}
		row := rowView{columns: columns, record: record}
		area := domain.ZipArea{}
		if v, ok := row.value([]string{"zip_code"}); ok {
			area.ZipCode = normalizeZip(v)
		}
		if v, ok := row.value([]string{"fips"}); ok {
			area.FIPS = v
		}
		if v, ok := row.value([]string{"city"}); ok {
			area.City = v
		}
		if v, ok := row.value([]string{"state"}); ok {
			area.State = strings.ToUpper(v)
		}
		if area.ZipCode == "" || area.FIPS == "" {
			continue
		}
		areas[area.ZipCode] = area
	}

	if len(areas) == 0 {
		return nil, fmt.Errorf("zip reference table is empty")
	}
	return areas, nil
}

// LoadEconomicSeries parses the economic-indicator reference table into
// observations grouped by series. Expected columns: series_id, record_date,
// value, and optionally series_name.
func LoadEconomicSeries(r io.Reader) (map[string][]domain.EconomicObservation, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read series header: %w", err)
	}
	columns := mapHeader(header)

	series := make(map[string][]domain.EconomicObservation)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read series record: %w", err)
		}
		row := rowView{columns: columns, record: record}

		id, ok := row.value([]string{"series_id"})
		if !ok {
			continue
		}
		rawDate, ok := row.value([]string{"record_date", "date"})
		if !ok {
			continue
		}
		date, err := parseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("series %s: %w", id, err)
		}
		rawValue, ok := row.value([]string{"value"})
		if !ok {
			continue
		}
		value, err := strconv.ParseFloat(rawValue, 64)
		if err != nil {
			return nil, fmt.Errorf("series %s value: %w", id, err)
		}

		obs := domain.EconomicObservation{
			SeriesID:   id,
			RecordDate: date,
			Value:      value,
		}
		if name, ok := row.value([]string{"series_name"}); ok {
			obs.SeriesName = name
		}
		series[id] = append(series[id], obs)
	}
	return series, nil
}

// LoadUnemploymentRates parses county unemployment rates keyed by FIPS code.
// Expected columns: fips, record_date, rate. When a county appears more than
// once the most recent rate wins.
func LoadUnemploymentRates(r io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read unemployment header: %w", err)
	}
	columns := mapHeader(header)

	type dated struct {
		rate float64
		date string
	}
	latest := make(map[string]dated)
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read unemployment record: %w", err)
		}
		row := rowView{columns: columns, record: record}

		fips, ok := row.value([]string{"fips"})
		if !ok {
			continue
		}
		rawRate, ok := row.value([]string{"rate", "unemployment_rate"})
		if !ok {
			continue
		}
		rate, err := strconv.ParseFloat(rawRate, 64)
		if err != nil {
			return nil, fmt.Errorf("fips %s rate: %w", fips, err)
		}
		date, _ := row.value([]string{"record_date", "date"})

		if cur, ok := latest[fips]; !ok || date > cur.date {
			latest[fips] = dated{rate: rate, date: date}
		}
	}

	rates := make(map[string]float64, len(latest))
	for fips, d := range latest {
		rates[fips] = d.rate
	}
	return rates, nil
}
