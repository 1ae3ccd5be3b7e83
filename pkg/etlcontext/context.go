// Package etlcontext is the composition root for the ETL pipeline (C6): it
// owns configuration, every manager (phase, progress, memory, error,
// checkpoint), the handler registry, the content extractor, and the data
// references passed between phases. It is the only mutable rendezvous
// between Extract, Transform, and Load (spec §4.6).
package etlcontext

import (
	"context"
	"log/slog"
	"sync"

	"github.com/codeready-toolchain/skypeetl/pkg/checkpoint"
	"github.com/codeready-toolchain/skypeetl/pkg/config"
	"github.com/codeready-toolchain/skypeetl/pkg/content"
	"github.com/codeready-toolchain/skypeetl/pkg/etlerrors"
	"github.com/codeready-toolchain/skypeetl/pkg/handlers"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/codeready-toolchain/skypeetl/pkg/phase"
)

// Context is the composition root threaded through Extract, Transform, and Load.
type Context struct {
	TaskID string
	Config *config.Config
	Logger *slog.Logger

	Handlers         *handlers.Registry
	PhaseMgr         *phase.Manager
	Progress         *phase.ProgressTracker
	Memory           *phase.MemoryMonitor
	ErrorLog         *phase.ErrorLogger
	Checkpoint       *checkpoint.Manager
	ContentExtractor ContentExtractorFuncs

	mu              sync.Mutex
	RawData         *models.RawExport
	TransformedData *models.TransformedExport
	FileSource      string
	ExportID        int
	UserID          string
	UserDisplayName string
	ExportDate      string
	CustomMetadata  map[string]any
}

// New builds a Context from a loaded configuration and task id.
func New(taskID string, cfg *config.Config, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{
		TaskID:           taskID,
		Config:           cfg,
		Logger:           logger.With("task_id", taskID),
		Handlers:         handlers.NewRegistry(),
		PhaseMgr:         phase.NewManager(),
		Progress:         phase.NewProgressTracker(),
		Memory:           phase.NewMemoryMonitor(float64(cfg.Pipeline.MemoryLimitMB)),
		ErrorLog:         phase.NewErrorLogger(),
		Checkpoint:       checkpoint.NewManager(cfg.Pipeline.OutputDir),
		ContentExtractor: defaultContentExtractor,
		CustomMetadata:   make(map[string]any),
	}
}

// StartPhase transitions p to in_progress and seeds the progress tracker
// with its expected totals.
func (c *Context) StartPhase(p models.Phase, totalConversations, totalMessages int64) {
	c.PhaseMgr.StartPhase(p)
	c.Progress.StartPhase(p, totalMessages, "messages")
	c.Logger.Info("phase started", "phase", p, "total_conversations", totalConversations, "total_messages", totalMessages)
}

// EndPhase transitions p to its terminal status. A phase ended as completed
// ends as warning instead if a non-fatal error was recorded for it.
func (c *Context) EndPhase(p models.Phase, status models.PhaseStatus) {
	if status == models.PhaseStatusCompleted {
		for _, rec := range c.ErrorLog.All() {
			if rec.Phase == p && !rec.Fatal {
				status = models.PhaseStatusWarning
				break
			}
		}
	}
	c.PhaseMgr.EndPhase(p, status)
	c.Logger.Info("phase ended", "phase", p, "status", status, "elapsed", c.PhaseMgr.Elapsed(p))
}

// UpdateProgress advances the current item count for phase p.
func (c *Context) UpdateProgress(ctx context.Context, p models.Phase, delta int64) {
	c.Progress.Update(ctx, p, delta)
}

// RecordError records a per-message or phase-level error. A fatal error
// transitions the current phase to failed immediately (spec §4.6 invariants);
// a non-fatal error is surfaced as a warning status when the phase ends.
func (c *Context) RecordError(p models.Phase, message string, details map[string]any, fatal bool) models.ErrorRecord {
	rec := c.ErrorLog.Record(p, message, details, fatal)
	if fatal {
		c.PhaseMgr.EndPhase(p, models.PhaseStatusFailed)
		c.Logger.Error("fatal phase error", "phase", p, "message", message)
	} else {
		c.Logger.Warn("non-fatal error recorded", "phase", p, "message", message)
	}
	return rec
}

// CheckMemory samples current memory pressure.
func (c *Context) CheckMemory() phase.MemoryStats {
	return c.Memory.Check()
}

// CreateCheckpoint snapshots the context's current state to durable storage and
// returns the new checkpoint id.
func (c *Context) CreateCheckpoint() (string, error) {
	c.mu.Lock()
	state := checkpoint.State{
		TaskID:          c.TaskID,
		PhaseStatuses:   c.PhaseMgr.Snapshot(),
		CurrentPhase:    c.PhaseMgr.Current(),
		FileSource:      c.FileSource,
		ExportID:        c.ExportID,
		UserID:          c.UserID,
		UserDisplayName: c.UserDisplayName,
		ExportDate:      c.ExportDate,
		CustomMetadata:  c.CustomMetadata,
		RawData:         c.RawData,
		TransformedData: c.TransformedData,
	}
	c.mu.Unlock()

	id, err := c.Checkpoint.CreateCheckpoint(state)
	if err != nil {
		c.Logger.Warn("checkpoint write failed, continuing without it", "error", err)
		return "", err
	}
	return id, nil
}

// Restore loads a checkpoint and repopulates the context's data references
// and phase statuses from it. A restore failure is always fatal (spec §7).
func (c *Context) Restore(checkpointID string) error {
	state, err := c.Checkpoint.RestoreCheckpoint(c.TaskID, checkpointID)
	if err != nil {
		return etlerrors.New(etlerrors.KindCheckpoint, "checkpoint", "failed to restore checkpoint", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.PhaseMgr.Restore(state.PhaseStatuses, state.CurrentPhase)
	c.FileSource = state.FileSource
	c.ExportID = state.ExportID
	c.UserID = state.UserID
	c.UserDisplayName = state.UserDisplayName
	c.ExportDate = state.ExportDate
	c.CustomMetadata = state.CustomMetadata
	c.RawData = state.RawData
	c.TransformedData = state.TransformedData
	return nil
}

// CanResumeFromPhase reports whether p's preceding phases are all completed.
func (c *Context) CanResumeFromPhase(p models.Phase) bool {
	return c.PhaseMgr.CanResumeFromPhase(p)
}

// Summary reports for external consumption: success/failure, export id,
// metrics, and accumulated errors (spec §7 "user-visible behavior").
type Summary struct {
	Success        bool                                 `json:"success"`
	ExportID       int                                  `json:"export_id,omitempty"`
	Phases         map[models.Phase]models.PhaseStatus `json:"phases"`
	FatalErrors    int                                  `json:"fatal_errors"`
	NonFatalErrors int                                  `json:"non_fatal_errors"`
	Errors         []models.ErrorRecord                `json:"errors,omitempty"`
}

// Summary produces a snapshot suitable for the CLI's exit code mapping and
// the on-disk summary file (spec §6 "summary_<task_id>.json").
func (c *Context) Summary() Summary {
	fatal, nonFatal := c.ErrorLog.Counts()
	return Summary{
		Success:        fatal == 0,
		ExportID:       c.ExportID,
		Phases:         c.PhaseMgr.Snapshot(),
		FatalErrors:    fatal,
		NonFatalErrors: nonFatal,
		Errors:         c.ErrorLog.All(),
	}
}

// ContentExtractorFuncs is the function table the Context hands to the
// Transformer for per-message content extraction, so the Context — rather
// than the Transformer — owns the stateless collaborator's access point
// (spec §4.6: the Context owns C1-C5 plus the shared collaborators phases
// call through).
type ContentExtractorFuncs struct {
	FormatMarkup      func(string) string
	ExtractStructured func(string) content.StructuredData
}

// defaultContentExtractor wires the function table to pkg/content's
// package-level implementation; New uses this unless a caller overrides it
// (e.g. tests substituting a stub).
var defaultContentExtractor = ContentExtractorFuncs{
	FormatMarkup:      content.FormatMarkup,
	ExtractStructured: content.ExtractStructured,
}
