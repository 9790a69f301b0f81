package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"accidentscli/internal/config"
)

// MeterName is the instrumentation scope of every tracer and meter
const MeterName = "accidentscli"

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	TraceFile      string // stdout exporter target; empty writes to stderr
	EnableMetrics  bool
}

// OTelProviders holds the OpenTelemetry providers of one run
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Metrics        *PipelineMetrics
	Logger         *slog.Logger

	traceOut io.Closer
}

// OTelConfigFrom maps the telemetry section of the configuration
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: config.AppVersion,
		Environment:    cfg.Environment,
		TraceExporter:  cfg.TraceExporter,
		TraceFile:      cfg.TraceFile,
		EnableMetrics:  true,
	}
}

// InitializeOTel sets up tracing and metrics for a batch run. Metrics are
// collected into a private Prometheus registry that WriteMetricsFile dumps
// at the end of the run.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = OTelConfigFrom(config.Default().Telemetry)
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{Logger: logger}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	logger.DebugContext(ctx, "OpenTelemetry initialization complete",
		slog.String("service", cfg.ServiceName),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	return providers, nil
}

// createResource creates the OpenTelemetry resource
func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	), nil
}

// initializeTracing sets up OpenTelemetry tracing
func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var out io.Writer = os.Stderr

	switch cfg.TraceExporter {
	case "none", "":
		providers.Tracer = otel.Tracer(MeterName)
		return nil
	case "stdout":
		if cfg.TraceFile != "" {
			if err := os.MkdirAll(filepath.Dir(cfg.TraceFile), 0755); err != nil {
				return fmt.Errorf("failed to create trace directory: %w", err)
			}
			file, err := os.Create(cfg.TraceFile)
			if err != nil {
				return fmt.Errorf("failed to create trace file: %w", err)
			}
			providers.traceOut = file
			out = file
		}
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(out))
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	// Batch runs are short; export synchronously so no span is lost on exit
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSyncer(exporter),
		sdktrace.WithResource(res),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.DebugContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.String("file", cfg.TraceFile))

	return nil
}

// initializeMetrics sets up OpenTelemetry metrics on a private registry
func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	registry := prometheus.NewRegistry()

	exporter, err := otelprom.New(
		otelprom.WithRegisterer(registry),
		otelprom.WithoutScopeInfo(),
	)
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.Registry = registry
	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))

	pm, err := CreatePipelineMetrics(providers.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pipeline metrics: %w", err)
	}
	providers.Metrics = pm

	providers.Logger.DebugContext(ctx, "Metrics initialized")
	return nil
}

// PipelineMetrics holds the counters a run records
type PipelineMetrics struct {
	SourcesLoaded    metric.Int64Counter
	RecordsLoaded    metric.Int64Counter
	CellsCoercedNull metric.Int64Counter
	TablesWritten    metric.Int64Counter
	RecordsStored    metric.Int64Counter
	StageDuration    metric.Float64Histogram
}

// CreatePipelineMetrics creates the run instruments on meter
func CreatePipelineMetrics(meter metric.Meter) (*PipelineMetrics, error) {
	sourcesLoaded, err := meter.Int64Counter(
		"accidents_sources_loaded_total",
		metric.WithDescription("Yearly workbooks loaded"),
	)
	if err != nil {
		return nil, err
	}

	recordsLoaded, err := meter.Int64Counter(
		"accidents_records_loaded_total",
		metric.WithDescription("Accident records consolidated"),
	)
	if err != nil {
		return nil, err
	}

	cellsCoerced, err := meter.Int64Counter(
		"accidents_cells_coerced_null_total",
		metric.WithDescription("Cells that failed coercion and were stored as null"),
	)
	if err != nil {
		return nil, err
	}

	tablesWritten, err := meter.Int64Counter(
		"accidents_metric_tables_written_total",
		metric.WithDescription("Metric tables exported"),
	)
	if err != nil {
		return nil, err
	}

	recordsStored, err := meter.Int64Counter(
		"accidents_records_stored_total",
		metric.WithDescription("Records written to the SQLite store"),
	)
	if err != nil {
		return nil, err
	}

	stageDuration, err := meter.Float64Histogram(
		"accidents_stage_duration_seconds",
		metric.WithDescription("Pipeline stage duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &PipelineMetrics{
		SourcesLoaded:    sourcesLoaded,
		RecordsLoaded:    recordsLoaded,
		CellsCoercedNull: cellsCoerced,
		TablesWritten:    tablesWritten,
		RecordsStored:    recordsStored,
		StageDuration:    stageDuration,
	}, nil
}

// Counters returns the run counters, or nil when metrics are disabled
func (p *OTelProviders) Counters() *PipelineMetrics {
	if p == nil {
		return nil
	}
	return p.Metrics
}

// RecordSource records one loaded year
func (m *PipelineMetrics) RecordSource(ctx context.Context, year int, records, coerced int) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Int("year", year))
	m.SourcesLoaded.Add(ctx, 1, attrs)
	m.RecordsLoaded.Add(ctx, int64(records), attrs)
	m.CellsCoercedNull.Add(ctx, int64(coerced), attrs)
}

// RecordTables records exported metric tables
func (m *PipelineMetrics) RecordTables(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.TablesWritten.Add(ctx, int64(n))
}

// RecordStored records rows written to the store
func (m *PipelineMetrics) RecordStored(ctx context.Context, n int) {
	if m == nil {
		return
	}
	m.RecordsStored.Add(ctx, int64(n))
}

// RecordStage records the duration of a named stage
func (m *PipelineMetrics) RecordStage(ctx context.Context, stage string, d time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.StageDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String("stage", stage),
		attribute.String("status", status),
	))
}

// StartStage opens a span for a pipeline stage. The returned function ends
// the span, records err on it and records the stage duration.
func (p *OTelProviders) StartStage(ctx context.Context, stage string, attrs ...attribute.KeyValue) (context.Context, func(error)) {
	tracer := otel.Tracer(MeterName)
	var metrics *PipelineMetrics
	if p != nil {
		if p.Tracer != nil {
			tracer = p.Tracer
		}
		metrics = p.Metrics
	}

	start := time.Now()
	ctx, span := tracer.Start(ctx, stage, trace.WithAttributes(attrs...))
	if runID := GetRunID(ctx); runID != "" {
		span.SetAttributes(attribute.String("run.id", runID))
	}

	return ctx, func(err error) {
		if err != nil {
			RecordError(ctx, err)
		}
		metrics.RecordStage(ctx, stage, time.Since(start), err)
		span.End()
	}
}

// WriteMetricsFile writes the registry in the node-exporter textfile format.
// It is a no-op when metrics are disabled or path is empty.
func (p *OTelProviders) WriteMetricsFile(path string) error {
	if p == nil || p.Registry == nil || path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, p.Registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown flushes and closes the providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if p.traceOut != nil {
		if err := p.traceOut.Close(); err != nil {
			errs = append(errs, fmt.Errorf("trace file close: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}
	return nil
}

// generateInstanceID generates a unique instance identifier
func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
