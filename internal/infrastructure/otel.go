package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"

	"physioload/internal/config"
)

const (
	ServiceName    = "physioload"
	ServiceVersion = "1.0.0"
	MeterName      = "physioload"
)

// Metrics bundles the ingestion instruments and, when enabled, the
// Prometheus scrape listener that exposes them during long batch runs.
type Metrics struct {
	MeterProvider *sdkmetric.MeterProvider
	Meter         metric.Meter

	RecordsBuilt      metric.Int64Counter
	ChunksUploaded    metric.Int64Counter
	UploadDuration    metric.Float64Histogram
	SubjectsProcessed metric.Int64Counter

	server *http.Server
	logger *slog.Logger
}

// InitializeMetrics sets up the OpenTelemetry meter provider with a
// Prometheus exporter and starts the scrape listener. When the metrics
// listener is disabled, all instruments are no-ops and no listener starts.
func InitializeMetrics(cfg config.MetricsConfig, logger *slog.Logger) (*Metrics, error) {
	if logger == nil {
		logger = slog.Default()
	}

	m := &Metrics{logger: logger}

	if !cfg.Enabled {
		m.Meter = noop.NewMeterProvider().Meter(MeterName)
		return m, m.createInstruments()
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(ServiceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	m.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(m.MeterProvider)
	m.Meter = m.MeterProvider.Meter(MeterName)

	if err := m.createInstruments(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.Handler())
	m.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("metrics listener started",
			slog.String("addr", m.server.Addr),
			slog.String("path", cfg.Path))
		if err := m.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics listener failed", slog.String("error", err.Error()))
		}
	}()

	return m, nil
}

// createInstruments registers the ingestion instruments on the meter
func (m *Metrics) createInstruments() error {
	var err error

	m.RecordsBuilt, err = m.Meter.Int64Counter("physioload.records.built",
		metric.WithDescription("Measurement records expanded from raw signal files"))
	if err != nil {
		return fmt.Errorf("failed to create records counter: %w", err)
	}

	m.ChunksUploaded, err = m.Meter.Int64Counter("physioload.chunks.uploaded",
		metric.WithDescription("Measurement chunks written to the analytical store"))
	if err != nil {
		return fmt.Errorf("failed to create chunks counter: %w", err)
	}

	m.UploadDuration, err = m.Meter.Float64Histogram("physioload.upload.duration",
		metric.WithDescription("Per-chunk store write duration"),
		metric.WithUnit("s"))
	if err != nil {
		return fmt.Errorf("failed to create upload histogram: %w", err)
	}

	m.SubjectsProcessed, err = m.Meter.Int64Counter("physioload.subjects.processed",
		metric.WithDescription("Subject-sessions processed, tagged by outcome"))
	if err != nil {
		return fmt.Errorf("failed to create subjects counter: %w", err)
	}

	return nil
}

// CountSubject records one processed subject-session with its outcome tag.
func (m *Metrics) CountSubject(ctx context.Context, outcome string) {
	m.SubjectsProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// Shutdown stops the scrape listener and flushes the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.server != nil {
		if err := m.server.Shutdown(ctx); err != nil {
			m.logger.Warn("metrics listener shutdown failed", slog.String("error", err.Error()))
		}
	}
	if m.MeterProvider != nil {
		return m.MeterProvider.Shutdown(ctx)
	}
	return nil
}
