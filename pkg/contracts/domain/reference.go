package domain

import (
	"time"
)

// ZipArea maps a zip code to its county FIPS code, city and state.
// Loaded as a static reference table.
type ZipArea struct {
	ZipCode string `json:"zip_code" db:"zip_code" validate:"required,len=5"`
	FIPS    string `json:"fips" db:"fips" validate:"required"`
	City    string `json:"city" db:"city"`
	State   string `json:"state" db:"state"`
}

// EconomicObservation is one dated value of an economic indicator series
// (freight index, unemployment rate, inventory levels).
type EconomicObservation struct {
	SeriesID   string    `json:"series_id" db:"series_id" validate:"required"`
	SeriesName string    `json:"series_name,omitempty" db:"series_name"`
	RecordDate time.Time `json:"record_date" db:"record_date" validate:"required"`
	Value      float64   `json:"value" db:"value"`
}

// Economic indicator series tracked for the macro trend signal.
const (
	SeriesFreightShipments     = "FRGSHPUSM649NCIS"
	SeriesManufacturingInvent  = "MNFCTRMPCIMSA"
	SeriesTruckingEmployment   = "CES4348400001"
	SeriesWarehouseEmployment  = "CES4349300001"
)
