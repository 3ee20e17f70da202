package exporter

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"propensity/internal/services"
	"propensity/pkg/contracts/domain"
)

const (
	leadsSheet   = "Leads"
	summarySheet = "Summary"
)

// ExcelFileName returns the dated workbook file name for a run.
func ExcelFileName(date time.Time) string {
	return fmt.Sprintf("leads_%s.xlsx", date.Format("2006-01-02"))
}

// ExportLeadsWorkbook writes the sales-facing Excel workbook: a Leads sheet
// sorted as given (hot first) and a Summary sheet with tier counts.
func ExportLeadsWorkbook(outputDir string, leads []services.Lead, date time.Time) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", leadsSheet); err != nil {
		return "", fmt.Errorf("rename leads sheet: %w", err)
	}
	if err := writeLeadsSheet(f, leads); err != nil {
		return "", err
	}
	if err := writeSummarySheet(f, leads, date); err != nil {
		return "", err
	}

	path := filepath.Join(outputDir, ExcelFileName(date))
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func writeLeadsSheet(f *excelize.File, leads []services.Lead) error {
	for i, h := range leadsHeaders {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(leadsSheet, cell, h); err != nil {
			return err
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"DDEBF7"}},
	})
	if err != nil {
		return err
	}
	lastCol, err := excelize.CoordinatesToCellName(len(leadsHeaders), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(leadsSheet, "A1", lastCol, headerStyle); err != nil {
		return err
	}

	for rowIdx, lead := range leads {
		record := leadRecord(lead)
		for colIdx, value := range record {
			cell, err := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(leadsSheet, cell, value); err != nil {
				return err
			}
		}
	}

	// Freeze the header row so long lead lists stay readable.
	return f.SetPanes(leadsSheet, &excelize.Panes{
		Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft",
	})
}

func writeSummarySheet(f *excelize.File, leads []services.Lead, date time.Time) error {
	if _, err := f.NewSheet(summarySheet); err != nil {
		return err
	}

	counts := make(map[domain.Tier]int, 4)
	for _, lead := range leads {
		counts[lead.Tier]++
	}

	rows := [][]any{
		{"Run Date", date.Format("2006-01-02")},
		{"Total Companies", len(leads)},
		{"Hot", counts[domain.TierHot]},
		{"Warm", counts[domain.TierWarm]},
		{"Cool", counts[domain.TierCool]},
		{"Cold", counts[domain.TierCold]},
	}
	for i, row := range rows {
		for j, value := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(summarySheet, cell, value); err != nil {
				return err
			}
		}
	}
	return nil
}
