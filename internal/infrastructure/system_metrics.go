package infrastructure

import (
	"context"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemMetrics records process resource usage at the end of a run
type SystemMetrics struct {
	goRoutines      metric.Int64Gauge
	memoryAllocated metric.Int64Gauge
	memorySystem    metric.Int64Gauge
	runDuration     metric.Float64Gauge
}

// SystemStats is one snapshot of the process
type SystemStats struct {
	GoRoutines      int64
	MemoryAllocated int64
	MemorySystem    int64
	RunDuration     time.Duration
}

// NewSystemMetrics creates the process gauges on meter
func NewSystemMetrics(meter metric.Meter) (*SystemMetrics, error) {
	goRoutines, err := meter.Int64Gauge(
		"accidents_goroutines",
		metric.WithDescription("Number of goroutines at the end of the run"),
	)
	if err != nil {
		return nil, err
	}

	memoryAllocated, err := meter.Int64Gauge(
		"accidents_memory_allocated_bytes",
		metric.WithDescription("Heap bytes allocated at the end of the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	memorySystem, err := meter.Int64Gauge(
		"accidents_memory_system_bytes",
		metric.WithDescription("Bytes obtained from the OS"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Gauge(
		"accidents_run_duration_seconds",
		metric.WithDescription("Wall time of the run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &SystemMetrics{
		goRoutines:      goRoutines,
		memoryAllocated: memoryAllocated,
		memorySystem:    memorySystem,
		runDuration:     runDuration,
	}, nil
}

// Collect takes a snapshot and records it on the gauges
func (sm *SystemMetrics) Collect(ctx context.Context, startTime time.Time) *SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := &SystemStats{
		GoRoutines:      int64(runtime.NumGoroutine()),
		MemoryAllocated: int64(memStats.Alloc),
		MemorySystem:    int64(memStats.Sys),
		RunDuration:     time.Since(startTime),
	}

	if sm != nil {
		sm.goRoutines.Record(ctx, stats.GoRoutines)
		sm.memoryAllocated.Record(ctx, stats.MemoryAllocated)
		sm.memorySystem.Record(ctx, stats.MemorySystem)
		sm.runDuration.Record(ctx, stats.RunDuration.Seconds())
	}

	return stats
}
