// Command leads-report turns exported scoring snapshots into sales-facing
// lead reports: a CSV for downstream tooling and an Excel workbook.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"propensity/internal/config"
	"propensity/internal/entity"
	"propensity/internal/exporter"
	"propensity/internal/history"
	"propensity/internal/infrastructure"
	"propensity/internal/ingest"
	"propensity/internal/services"
)

func main() {
	if err := run(); err != nil {
		slog.Error("leads report failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	minScore := flag.Int("min-score", 0, "only include leads scoring at or above this")
	format := flag.String("format", "both", "report format: csv, xlsx or both")
	flag.Parse()

	if *minScore < 0 || *minScore > 100 {
		return fmt.Errorf("-min-score must be in [0,100]")
	}
	if *format != "csv" && *format != "xlsx" && *format != "both" {
		return fmt.Errorf("-format must be csv, xlsx or both")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.EnsureTraceID(context.Background())

	companies, historyStore, err := loadSnapshots(ctx, cfg.Paths.OutputDir, logger)
	if err != nil {
		return err
	}

	leadsService := services.NewLeadsService(historyStore, companies, logger)
	leads, err := leadsService.HotLeads(ctx, *minScore)
	if err != nil {
		return fmt.Errorf("build leads: %w", err)
	}
	if len(leads) == 0 {
		return fmt.Errorf("no leads to report, run the scorer first")
	}

	reportDate := leads[0].RecordDate
	for _, lead := range leads {
		if lead.RecordDate.After(reportDate) {
			reportDate = lead.RecordDate
		}
	}

	if *format == "csv" || *format == "both" {
		if err := exporter.ExportLeadsCSV(exporter.NewCSVWriter(cfg.Paths.OutputDir), leads, reportDate); err != nil {
			return fmt.Errorf("export leads csv: %w", err)
		}
		logger.InfoContext(ctx, "wrote leads csv",
			"path", filepath.Join(cfg.Paths.OutputDir, exporter.LeadsFileName(reportDate)))
	}
	if *format == "xlsx" || *format == "both" {
		path, err := exporter.ExportLeadsWorkbook(cfg.Paths.OutputDir, leads, reportDate)
		if err != nil {
			return fmt.Errorf("export leads workbook: %w", err)
		}
		logger.InfoContext(ctx, "wrote leads workbook", "path", path)
	}

	logger.InfoContext(ctx, "leads report complete",
		"leads", len(leads),
		"min_score", *minScore,
		"report_date", reportDate.Format("2006-01-02"))
	return nil
}

// loadSnapshots rebuilds the in-memory stores from the scorer's exports.
func loadSnapshots(ctx context.Context, outputDir string, logger *slog.Logger) (*entity.MemoryStore, *history.MemoryStore, error) {
	companies := entity.NewMemoryStore()

	f, err := os.Open(filepath.Join(outputDir, exporter.CompaniesFileName))
	if err != nil {
		return nil, nil, fmt.Errorf("open company snapshot: %w", err)
	}
	defer f.Close()
	loaded, err := ingest.LoadCompanies(f)
	if err != nil {
		return nil, nil, fmt.Errorf("load company snapshot: %w", err)
	}
	for _, c := range loaded {
		if err := companies.Insert(ctx, c); err != nil {
			return nil, nil, fmt.Errorf("seed company %s: %w", c.ID, err)
		}
	}

	historyStore := history.NewMemoryStore()
	pattern := filepath.Join(outputDir, "history_*.csv")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return nil, nil, fmt.Errorf("glob history snapshots: %w", err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no history snapshots under %s", outputDir)
	}
	sort.Strings(files)

	total := 0
	for _, file := range files {
		hf, err := os.Open(file)
		if err != nil {
			return nil, nil, fmt.Errorf("open history snapshot: %w", err)
		}
		rows, err := ingest.LoadSignalHistory(hf)
		hf.Close()
		if err != nil {
			return nil, nil, fmt.Errorf("load %s: %w", file, err)
		}
		for _, row := range rows {
			if err := historyStore.Upsert(ctx, row); err != nil {
				return nil, nil, fmt.Errorf("restore history row: %w", err)
			}
		}
		total += len(rows)
	}

	logger.InfoContext(ctx, "loaded snapshots",
		"companies", companies.Len(),
		"history_rows", total,
		"history_files", len(files),
		"as_of", time.Now().UTC().Format(time.RFC3339))
	return companies, historyStore, nil
}
