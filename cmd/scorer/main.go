// Command scorer runs one daily scoring batch: it ingests the feed extracts,
// resolves company mentions, extracts sub-signals, aggregates propensity
// scores and exports the signal history and company snapshots.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"propensity/internal/batch"
	"propensity/internal/config"
	"propensity/internal/entity"
	"propensity/internal/exporter"
	"propensity/internal/history"
	"propensity/internal/infrastructure"
	"propensity/internal/ingest"
)

func main() {
	if err := run(); err != nil {
		slog.Error("scoring run failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	dateFlag := flag.String("date", "", "record date of the run (2006-01-02, defaults to today)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	runDate := time.Now().UTC()
	if *dateFlag != "" {
		runDate, err = time.Parse("2006-01-02", *dateFlag)
		if err != nil {
			return fmt.Errorf("parse -date: %w", err)
		}
	}

	ctx := infrastructure.EnsureTraceID(context.Background())

	providers, err := infrastructure.InitializeMetrics(logger)
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}
	defer providers.Shutdown(ctx)
	metrics, err := infrastructure.NewMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("create metrics: %w", err)
	}

	state := batch.NewState(runDate)
	if err := loadReferenceTables(ctx, cfg.Paths, state, logger); err != nil {
		return err
	}

	companies := entity.NewMemoryStore()
	snapshotPath := filepath.Join(cfg.Paths.OutputDir, exporter.CompaniesFileName)
	if err := seedCompanies(ctx, snapshotPath, companies, logger); err != nil {
		return err
	}
	resolver := entity.NewResolver(companies, logger,
		entity.WithThreshold(cfg.Matching.Threshold),
		entity.WithTieEpsilon(cfg.Matching.TieEpsilon),
	)

	historyStore := history.NewMemoryStore()
	engine := batch.NewEngine(resolver, historyStore, cfg.Scoring, logger, batch.WithMetrics(metrics))

	registry, err := batch.BuildStandardRegistry(cfg.Paths, ingest.NewFeedReader(logger), engine, metrics)
	if err != nil {
		return fmt.Errorf("build registry: %w", err)
	}

	runner := batch.NewRunner(registry, logger)
	if err := runner.Run(ctx, state); err != nil {
		return err
	}

	csvWriter := exporter.NewCSVWriter(cfg.Paths.OutputDir)
	rows, err := historyStore.Latest(ctx)
	if err != nil {
		return fmt.Errorf("collect history: %w", err)
	}
	if err := exporter.ExportHistoryCSV(csvWriter, rows, runDate); err != nil {
		return fmt.Errorf("export history: %w", err)
	}
	allCompanies, err := companies.All(ctx)
	if err != nil {
		return fmt.Errorf("collect companies: %w", err)
	}
	if err := exporter.ExportCompaniesCSV(csvWriter, allCompanies); err != nil {
		return fmt.Errorf("export companies: %w", err)
	}

	report := state.Report.Snapshot()
	logger.InfoContext(ctx, "run finished",
		"run_date", runDate.Format("2006-01-02"),
		"companies_scored", report.CompaniesScored,
		"rows_written", report.RowsWritten,
		"identities_created", report.IdentitiesCreated,
		"mentions_skipped", report.MentionsSkipped,
		"duration", report.EndedAt.Sub(report.StartedAt).String(),
	)
	return nil
}

// loadReferenceTables loads zip areas, economic series and unemployment
// rates. The zip table is required; the other two degrade the affected
// signals to absent with a warning.
func loadReferenceTables(ctx context.Context, paths config.PathsConfig, state *batch.State, logger *slog.Logger) error {
	f, err := os.Open(paths.Feed(config.ZipAreasFile))
	if err != nil {
		return fmt.Errorf("zip reference table: %w", err)
	}
	defer f.Close()
	state.ZipAreas, err = ingest.LoadZipAreas(f)
	if err != nil {
		return err
	}

	if f, err := os.Open(paths.Feed(config.EconomicFile)); err == nil {
		defer f.Close()
		state.EconomicSeries, err = ingest.LoadEconomicSeries(f)
		if err != nil {
			return err
		}
	} else {
		logger.WarnContext(ctx, "economic series missing, macro signal will be neutral", "error", err)
	}

	if f, err := os.Open(paths.Feed(config.UnemploymentFile)); err == nil {
		defer f.Close()
		state.UnemploymentRates, err = ingest.LoadUnemploymentRates(f)
		if err != nil {
			return err
		}
	} else {
		logger.WarnContext(ctx, "unemployment rates missing, tightness signal will be absent", "error", err)
	}
	return nil
}

// seedCompanies loads the identity snapshot from the previous run so
// resolution matches against known companies instead of starting cold.
func seedCompanies(ctx context.Context, path string, store *entity.MemoryStore, logger *slog.Logger) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		logger.InfoContext(ctx, "no company snapshot found, starting with an empty identity store")
		return nil
	}
	if err != nil {
		return fmt.Errorf("open company snapshot: %w", err)
	}
	defer f.Close()

	companies, err := ingest.LoadCompanies(f)
	if err != nil {
		return fmt.Errorf("load company snapshot: %w", err)
	}
	for _, c := range companies {
		if err := store.Insert(ctx, c); err != nil {
			return fmt.Errorf("seed company %s: %w", c.ID, err)
		}
	}
	logger.InfoContext(ctx, "seeded identity store", "companies", len(companies))
	return nil
}
