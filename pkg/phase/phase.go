// Package phase tracks the ETL pipeline's phase sequencing, progress,
// memory pressure, and error accumulation — the single-writer state a
// driver thread mutates once per phase transition or progress tick.
package phase

import (
	"sync"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// Manager owns the current phase and its status history. Exactly one
// phase is in_progress at any time.
type Manager struct {
	mu       sync.Mutex
	statuses map[models.Phase]models.PhaseStatus
	current  models.Phase
	started  map[models.Phase]time.Time
	ended    map[models.Phase]time.Time
}

// NewManager returns a Manager with every phase pending.
func NewManager() *Manager {
	statuses := make(map[models.Phase]models.PhaseStatus, len(models.Phases))
	for _, p := range models.Phases {
		statuses[p] = models.PhaseStatusPending
	}
	return &Manager{
		statuses: statuses,
		started:  make(map[models.Phase]time.Time),
		ended:    make(map[models.Phase]time.Time),
	}
}

// StartPhase transitions p to in_progress. It does not enforce ordering
// by itself — CanResumeFromPhase in the checkpoint manager is the
// resumption gate — but it does require no other phase is currently running.
func (m *Manager) StartPhase(p models.Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = p
	m.statuses[p] = models.PhaseStatusInProgress
	m.started[p] = time.Now()
}

// EndPhase transitions p to the given terminal status.
func (m *Manager) EndPhase(p models.Phase, status models.PhaseStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[p] = status
	m.ended[p] = time.Now()
}

// Status returns the current status of p.
func (m *Manager) Status(p models.Phase) models.PhaseStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statuses[p]
}

// Current returns the most recently started or restored phase, whether or
// not it is still in_progress (the zero value if none).
func (m *Manager) Current() models.Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Elapsed returns how long p ran for, or has been running for if still
// in_progress. Zero if p has not started.
func (m *Manager) Elapsed(p models.Phase) time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	start, ok := m.started[p]
	if !ok {
		return 0
	}
	if end, ok := m.ended[p]; ok {
		return end.Sub(start)
	}
	return time.Since(start)
}

// Snapshot returns a copy of all phase statuses, suitable for checkpointing.
func (m *Manager) Snapshot() map[models.Phase]models.PhaseStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[models.Phase]models.PhaseStatus, len(m.statuses))
	for k, v := range m.statuses {
		out[k] = v
	}
	return out
}

// Restore overwrites the status of every phase present in statuses (phases
// absent from it keep their status) and sets the current phase, used when
// resuming from a checkpoint.
func (m *Manager) Restore(statuses map[models.Phase]models.PhaseStatus, current models.Phase) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range models.Phases {
		if s, ok := statuses[p]; ok {
			m.statuses[p] = s
		}
	}
	m.current = current
}

// CanResumeFromPhase reports whether every phase preceding p has status
// completed in the current snapshot.
func (m *Manager) CanResumeFromPhase(p models.Phase) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := p.Index()
	for i := 0; i < idx; i++ {
		if m.statuses[models.Phases[i]] != models.PhaseStatusCompleted {
			return false
		}
	}
	return true
}
