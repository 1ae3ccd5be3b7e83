package phase

import (
	"context"
	"sync"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// ProgressSnapshot is a point-in-time read of progress for one phase.
type ProgressSnapshot struct {
	Phase    models.Phase
	Current  int64
	Total    int64
	ItemType string
}

// ProgressTracker records current/total counters per phase and mirrors
// throughput onto an `etl.messages.processed` OTel counter so an external
// collector can observe progress without polling Summary().
type ProgressTracker struct {
	mu       sync.Mutex
	snapshot map[models.Phase]*ProgressSnapshot
	meter    metric.Meter
	counter  metric.Int64Counter
}

// NewProgressTracker builds a tracker against the global meter provider.
// Instrument creation failures are tolerated silently — progress tracking
// still works in-process even with no collector configured.
func NewProgressTracker() *ProgressTracker {
	meter := otel.Meter("skypeetl")
	counter, _ := meter.Int64Counter("etl.messages.processed")
	return &ProgressTracker{
		snapshot: make(map[models.Phase]*ProgressSnapshot),
		meter:    meter,
		counter:  counter,
	}
}

// StartPhase initializes the progress snapshot for a phase with a known total.
func (t *ProgressTracker) StartPhase(p models.Phase, total int64, itemType string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snapshot[p] = &ProgressSnapshot{Phase: p, Total: total, ItemType: itemType}
}

// Update advances current for phase p by delta and emits delta to the
// OTel counter tagged with the phase.
func (t *ProgressTracker) Update(ctx context.Context, p models.Phase, delta int64) {
	t.mu.Lock()
	s, ok := t.snapshot[p]
	if !ok {
		s = &ProgressSnapshot{Phase: p}
		t.snapshot[p] = s
	}
	s.Current += delta
	t.mu.Unlock()

	if t.counter != nil {
		t.counter.Add(ctx, delta, metric.WithAttributes(attribute.String("phase", string(p))))
	}
}

// Snapshot returns a copy of the current progress for p.
func (t *ProgressTracker) Snapshot(p models.Phase) ProgressSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.snapshot[p]; ok {
		return *s
	}
	return ProgressSnapshot{Phase: p}
}
