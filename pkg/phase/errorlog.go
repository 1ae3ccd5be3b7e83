package phase

import (
	"sync"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// ErrorLogger accumulates ErrorRecords for the lifetime of a pipeline run.
// Per-message errors stay local here; phase-level fatal errors are the
// caller's signal to abort (spec §7 propagation policy).
type ErrorLogger struct {
	mu      sync.Mutex
	records []models.ErrorRecord
}

// NewErrorLogger returns an empty logger.
func NewErrorLogger() *ErrorLogger {
	return &ErrorLogger{}
}

// Record appends an ErrorRecord stamped with the current time.
func (e *ErrorLogger) Record(p models.Phase, message string, details map[string]any, fatal bool) models.ErrorRecord {
	rec := models.ErrorRecord{
		Phase:     p,
		Message:   message,
		Details:   details,
		Fatal:     fatal,
		Timestamp: time.Now(),
	}
	e.mu.Lock()
	e.records = append(e.records, rec)
	e.mu.Unlock()
	return rec
}

// All returns a copy of every recorded error.
func (e *ErrorLogger) All() []models.ErrorRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.ErrorRecord, len(e.records))
	copy(out, e.records)
	return out
}

// Counts returns (fatal, non-fatal) error counts.
func (e *ErrorLogger) Counts() (fatal, nonFatal int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, r := range e.records {
		if r.Fatal {
			fatal++
		} else {
			nonFatal++
		}
	}
	return fatal, nonFatal
}

// HasFatal reports whether any recorded error is fatal.
func (e *ErrorLogger) HasFatal() bool {
	f, _ := e.Counts()
	return f > 0
}
