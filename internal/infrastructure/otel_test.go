package infrastructure

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func testOTelConfig() *OTelConfig {
	return &OTelConfig{
		ServiceName:    "accidents-test",
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  "none",
		EnableMetrics:  true,
	}
}

func TestOTelInitialization(t *testing.T) {
	var buf bytes.Buffer
	providers, err := InitializeOTel(testOTelConfig(), NewJSONLogger(&buf, "debug"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	assert.NotNil(t, providers.Tracer)
	assert.NotNil(t, providers.Meter)
	assert.NotNil(t, providers.Registry)
	assert.NotNil(t, providers.Metrics)
	assert.Nil(t, providers.TracerProvider, "none exporter installs no SDK tracer provider")
}

func TestOTelUnsupportedExporter(t *testing.T) {
	cfg := testOTelConfig()
	cfg.TraceExporter = "zipkin"
	_, err := InitializeOTel(cfg, NewJSONLogger(&bytes.Buffer{}, "info"))
	assert.Error(t, err)
}

func TestStdoutTraceFile(t *testing.T) {
	traceFile := filepath.Join(t.TempDir(), "traces", "run.json")
	cfg := testOTelConfig()
	cfg.TraceExporter = "stdout"
	cfg.TraceFile = traceFile

	providers, err := InitializeOTel(cfg, NewJSONLogger(&bytes.Buffer{}, "info"))
	require.NoError(t, err)

	ctx := WithRunID(context.Background(), "run-42")
	_, end := providers.StartStage(ctx, "consolidate", attribute.Int("sources", 3))
	end(errors.New("boom"))

	require.NoError(t, providers.Shutdown(context.Background()))

	content, err := os.ReadFile(traceFile)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"Name":"consolidate"`)
	assert.Contains(t, string(content), "run-42")
	assert.Contains(t, string(content), "boom")
}

func TestWriteMetricsFile(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig(), NewJSONLogger(&bytes.Buffer{}, "info"))
	require.NoError(t, err)
	defer providers.Shutdown(context.Background())

	ctx := context.Background()
	providers.Metrics.RecordSource(ctx, 2024, 120, 3)
	providers.Metrics.RecordTables(ctx, 7)
	_, end := providers.StartStage(ctx, "report")
	end(nil)

	sys, err := NewSystemMetrics(providers.Meter)
	require.NoError(t, err)
	stats := sys.Collect(ctx, time.Now().Add(-time.Second))
	assert.GreaterOrEqual(t, stats.RunDuration, time.Second)

	path := filepath.Join(t.TempDir(), "textfile", "accidents.prom")
	require.NoError(t, providers.WriteMetricsFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(content)
	assert.True(t, strings.Contains(text, "accidents_records_loaded_total"), text)
	assert.Regexp(t, `accidents_metric_tables_written_total(\{[^}]*\})? 7`, text)
	assert.Contains(t, text, "accidents_stage_duration_seconds")
	assert.Contains(t, text, "accidents_goroutines")
}

func TestWriteMetricsFileNoop(t *testing.T) {
	var providers *OTelProviders
	assert.NoError(t, providers.WriteMetricsFile("ignored"))

	p := &OTelProviders{}
	assert.NoError(t, p.WriteMetricsFile(filepath.Join(t.TempDir(), "x.prom")))
}

func TestNilPipelineMetrics(t *testing.T) {
	var m *PipelineMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordSource(ctx, 2023, 1, 0)
		m.RecordTables(ctx, 1)
		m.RecordStored(ctx, 1)
		m.RecordStage(ctx, "x", time.Millisecond, nil)
	})

	var p *OTelProviders
	assert.NotPanics(t, func() {
		_, end := p.StartStage(ctx, "x")
		end(nil)
	})
}
