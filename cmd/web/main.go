// Command web serves the read API over the latest exported snapshots:
// lead lists, per-company scores, health and Prometheus metrics.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"propensity/internal/config"
	"propensity/internal/entity"
	"propensity/internal/exporter"
	"propensity/internal/history"
	"propensity/internal/infrastructure"
	"propensity/internal/ingest"
	"propensity/internal/services"
	transport "propensity/internal/transport/http"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	if err := run(); err != nil {
		slog.Error("web server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	port := flag.Int("port", 0, "listen port (overrides configuration)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = infrastructure.EnsureTraceID(ctx)

	providers, err := infrastructure.InitializeMetrics(logger)
	if err != nil {
		return fmt.Errorf("initialize metrics: %w", err)
	}
	defer providers.Shutdown(context.Background())

	companies, historyStore, err := loadSnapshots(ctx, cfg.Paths.OutputDir, logger)
	if err != nil {
		return err
	}

	leadsService := services.NewLeadsService(historyStore, companies, logger)
	router := transport.NewRouter(leadsService, logger, providers.PrometheusHTTP, Version)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.InfoContext(ctx, "server listening",
			"addr", server.Addr,
			"version", Version)
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// loadSnapshots rebuilds the in-memory stores from the scorer's exports. A
// missing snapshot is fatal: an API with no data behind it should not start.
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
	files, err := filepath.Glob(filepath.Join(outputDir, "history_*.csv"))
	if err != nil {
		return nil, nil, fmt.Errorf("glob history snapshots: %w", err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no history snapshots under %s", outputDir)
	}
	sort.Strings(files)

	total := 0
	start := time.Now()
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
		"elapsed", time.Since(start).String())
	return companies, historyStore, nil
}
