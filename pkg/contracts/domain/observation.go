package domain

import (
	"fmt"
	"math"
	"time"
)

// Pipeline identifies the external feed an observation came from.
type Pipeline string

const (
	PipelinePermits   Pipeline = "permits"
	PipelineWARN      Pipeline = "warn"
	PipelineMacro     Pipeline = "macro"
	PipelineReviews   Pipeline = "reviews"
	PipelineJobs      Pipeline = "jobs"
	PipelineInventory Pipeline = "inventory"
	PipelineLabor     Pipeline = "labor"
)

// RawObservation is a single fact emitted by one pipeline: a free-text company
// name, an optional location, a typed payload and the date the fact refers to.
// Observations are immutable once ingested.
type RawObservation struct {
	Pipeline    Pipeline       `json:"pipeline"`
	CompanyName string         `json:"company_name"`
	Address     string         `json:"address,omitempty"`
	City        string         `json:"city,omitempty"`
	State       string         `json:"state,omitempty"`
	ZipCode     string         `json:"zip_code,omitempty"`
	RecordDate  time.Time      `json:"record_date"`
	Fields      map[string]any `json:"fields,omitempty"`
}

// Float returns the named numeric field. The second return reports presence;
// an error means the field exists but is not a finite number.
func (o RawObservation) Float(name string) (float64, bool, error) {
	raw, ok := o.Fields[name]
	if !ok || raw == nil {
		return 0, false, nil
	}
	var v float64
	switch t := raw.(type) {
	case float64:
		v = t
	case float32:
		v = float64(t)
	case int:
		v = float64(t)
	case int64:
		v = float64(t)
	default:
		return 0, true, fmt.Errorf("field %s: not numeric (%T)", name, raw)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, fmt.Errorf("field %s: not a finite number", name)
	}
	return v, true, nil
}

// String returns the named string field, or "" when absent.
func (o RawObservation) String(name string) string {
	if raw, ok := o.Fields[name]; ok {
		if s, ok := raw.(string); ok {
			return s
		}
	}
	return ""
}
