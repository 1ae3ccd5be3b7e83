package phase

import (
	"context"
	"math"
	"runtime"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// MemoryStats is a snapshot of the process's memory pressure relative to
// a configured ceiling.
type MemoryStats struct {
	UsedMB  float64
	PeakMB  float64
	LimitMB float64
	Percent float64
}

// MemoryMonitor tracks a rolling memory estimate against a configured
// ceiling and reports when the back-pressure threshold (80% of the
// ceiling) is crossed.
type MemoryMonitor struct {
	limitMB float64
	peakMB  atomic.Uint64 // bits of a float64, via math.Float64bits

	mu    sync.Mutex
	gauge metric.Float64ObservableGauge
}

// NewMemoryMonitor builds a monitor against limitMB, the memory ceiling
// from the pipeline configuration.
func NewMemoryMonitor(limitMB float64) *MemoryMonitor {
	m := &MemoryMonitor{limitMB: limitMB}
	meter := otel.Meter("skypeetl")
	gauge, err := meter.Float64ObservableGauge("etl.memory.percent",
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			o.Observe(m.Check().Percent)
			return nil
		}),
	)
	if err == nil {
		m.gauge = gauge
	}
	return m
}

// Check samples current heap usage via runtime.MemStats and returns the
// resulting pressure snapshot, updating the tracked peak.
func (m *MemoryMonitor) Check() MemoryStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	usedMB := float64(ms.HeapAlloc) / (1024 * 1024)

	peak := m.updatePeak(usedMB)

	var percent float64
	if m.limitMB > 0 {
		percent = usedMB / m.limitMB
	}

	return MemoryStats{
		UsedMB:  usedMB,
		PeakMB:  peak,
		LimitMB: m.limitMB,
		Percent: percent,
	}
}

func (m *MemoryMonitor) updatePeak(usedMB float64) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	peak := math.Float64frombits(m.peakMB.Load())
	if usedMB > peak {
		peak = usedMB
		m.peakMB.Store(math.Float64bits(peak))
	}
	return peak
}

// ShouldBackpressure reports whether usage has crossed 80% of the
// configured ceiling — the Transformer's submission gate (spec §4.4 step 6).
func (m *MemoryMonitor) ShouldBackpressure() bool {
	return m.Check().Percent >= 0.8
}
