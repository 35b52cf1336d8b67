package infrastructure

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// SystemStats holds current process statistics
type SystemStats struct {
	GoRoutines    int64     `json:"goroutines"`
	HeapAlloc     int64     `json:"heap_alloc_bytes"`
	HeapSys       int64     `json:"heap_sys_bytes"`
	GCCount       uint32    `json:"gc_count"`
	CPUCount      int       `json:"cpu_count"`
	ProcessUptime float64   `json:"uptime_seconds"`
	Timestamp     time.Time `json:"timestamp"`
}

// CollectSystemStats reads the Go runtime statistics
func CollectSystemStats(startTime time.Time) SystemStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return SystemStats{
		GoRoutines:    int64(runtime.NumGoroutine()),
		HeapAlloc:     int64(memStats.HeapAlloc),
		HeapSys:       int64(memStats.HeapSys),
		GCCount:       memStats.NumGC,
		CPUCount:      runtime.NumCPU(),
		ProcessUptime: time.Since(startTime).Seconds(),
		Timestamp:     time.Now(),
	}
}

// RegisterSystemMetrics exposes goroutine, heap and uptime gauges that are
// read on every collection. Monte Carlo runs allocate large path matrices,
// so heap size is the figure worth watching.
func RegisterSystemMetrics(meter metric.Meter, startTime time.Time) error {
	goRoutines, err := meter.Int64ObservableGauge(
		"system_goroutines",
		metric.WithDescription("Number of active goroutines"),
	)
	if err != nil {
		return fmt.Errorf("goroutines gauge: %w", err)
	}

	heapAlloc, err := meter.Int64ObservableGauge(
		"system_heap_alloc_bytes",
		metric.WithDescription("Heap bytes allocated and in use"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return fmt.Errorf("heap gauge: %w", err)
	}

	uptime, err := meter.Float64ObservableGauge(
		"system_uptime_seconds",
		metric.WithDescription("Process uptime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("uptime gauge: %w", err)
	}

	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := CollectSystemStats(startTime)
		o.ObserveInt64(goRoutines, stats.GoRoutines)
		o.ObserveInt64(heapAlloc, stats.HeapAlloc)
		o.ObserveFloat64(uptime, stats.ProcessUptime)
		return nil
	}, goRoutines, heapAlloc, uptime)
	if err != nil {
		return fmt.Errorf("register system metrics callback: %w", err)
	}
	return nil
}
