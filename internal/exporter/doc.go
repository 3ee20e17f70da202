// Package exporter writes lead reports to disk.
//
// Two formats are supported: CSV for downstream tooling (with a UTF-8 BOM so
// Excel opens it cleanly) and a formatted Excel workbook for the sales team,
// with leads sorted hot-first and a summary sheet of tier counts.
package exporter
