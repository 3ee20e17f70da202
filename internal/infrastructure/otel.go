package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
)

const (
	ServiceName    = "propensity-engine"
	ServiceVersion = "1.0.0"
	MeterName      = "propensity"
)

// Providers holds the OpenTelemetry meter provider and the Prometheus
// scrape handler backed by it.
type Providers struct {
	MeterProvider  *sdkmetric.MeterProvider
	Meter          metric.Meter
	PrometheusHTTP http.Handler
}

// InitializeMetrics sets up the OpenTelemetry meter provider with a
// Prometheus exporter and registers it globally.
func InitializeMetrics(logger *slog.Logger) (*Providers, error) {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create otel resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	otel.SetMeterProvider(provider)

	logger.Info("metrics initialized", "service", ServiceName, "exporter", "prometheus")

	return &Providers{
		MeterProvider:  provider,
		Meter:          provider.Meter(MeterName),
		PrometheusHTTP: promhttp.Handler(),
	}, nil
}

// Shutdown flushes and stops the meter provider.
func (p *Providers) Shutdown(ctx context.Context) error {
	if p == nil || p.MeterProvider == nil {
		return nil
	}
	return p.MeterProvider.Shutdown(ctx)
}

// Metrics bundles the counters the scoring run emits. All methods are
// nil-safe so metrics stay optional in tests and one-shot CLI runs.
type Metrics struct {
	observationsIngested metric.Int64Counter
	identitiesCreated    metric.Int64Counter
	rowsWritten          metric.Int64Counter
	scoresComputed       metric.Int64Histogram
}

// NewMetrics creates the run counters on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.observationsIngested, err = meter.Int64Counter("propensity_observations_ingested_total",
		metric.WithDescription("Raw observations accepted from feed extracts")); err != nil {
		return nil, err
	}
	if m.identitiesCreated, err = meter.Int64Counter("propensity_identities_created_total",
		metric.WithDescription("New company identities created by entity resolution")); err != nil {
		return nil, err
	}
	if m.rowsWritten, err = meter.Int64Counter("propensity_history_rows_written_total",
		metric.WithDescription("Signal history rows upserted")); err != nil {
		return nil, err
	}
	if m.scoresComputed, err = meter.Int64Histogram("propensity_score",
		metric.WithDescription("Distribution of computed propensity scores")); err != nil {
		return nil, err
	}
	return m, nil
}

// ObservationsIngested counts accepted observations for one pipeline.
func (m *Metrics) ObservationsIngested(ctx context.Context, pipeline string, n int) {
	if m == nil || m.observationsIngested == nil {
		return
	}
	m.observationsIngested.Add(ctx, int64(n), metric.WithAttributes(attribute.String("pipeline", pipeline)))
}

// IdentityCreated counts one new company identity.
func (m *Metrics) IdentityCreated(ctx context.Context, ambiguous bool) {
	if m == nil || m.identitiesCreated == nil {
		return
	}
	m.identitiesCreated.Add(ctx, 1, metric.WithAttributes(attribute.Bool("ambiguous", ambiguous)))
}

// RowWritten counts one upserted history row and records its score.
func (m *Metrics) RowWritten(ctx context.Context, score int, tier string) {
	if m == nil {
		return
	}
	if m.rowsWritten != nil {
		m.rowsWritten.Add(ctx, 1)
	}
	if m.scoresComputed != nil {
		m.scoresComputed.Record(ctx, int64(score), metric.WithAttributes(attribute.String("tier", tier)))
	}
}
