package models

import "time"

// PhaseStatus is the lifecycle state of a single pipeline phase.
type PhaseStatus string

const (
	PhaseStatusPending    PhaseStatus = "pending"
	PhaseStatusInProgress PhaseStatus = "in_progress"
	PhaseStatusCompleted  PhaseStatus = "completed"
	PhaseStatusWarning    PhaseStatus = "warning"
	PhaseStatusFailed     PhaseStatus = "failed"
	PhaseStatusSkipped    PhaseStatus = "skipped"
)

// Phase identifies one of the three ordered pipeline stages.
type Phase string

const (
	PhaseExtract   Phase = "extract"
	PhaseTransform Phase = "transform"
	PhaseLoad      Phase = "load"
)

// Phases lists the pipeline phases in execution order.
var Phases = []Phase{PhaseExtract, PhaseTransform, PhaseLoad}

// Index returns p's position in the ordered phase sequence, or -1 if unknown.
func (p Phase) Index() int {
	for i, candidate := range Phases {
		if candidate == p {
			return i
		}
	}
	return -1
}

// ErrorRecord captures one recorded pipeline error, fatal or not.
type ErrorRecord struct {
	Phase     Phase          `json:"phase"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Fatal     bool           `json:"fatal"`
	Timestamp time.Time      `json:"timestamp"`
}

// Checkpoint is a durable snapshot of ETL context state, restorable to
// resume a pipeline run at a later phase (spec §4.7).
type Checkpoint struct {
	ID             string                 `json:"id"`
	TaskID         string                 `json:"task_id"`
	Timestamp      time.Time              `json:"timestamp"`
	PhaseStatuses  map[Phase]PhaseStatus  `json:"phase_statuses"`
	CurrentPhase   Phase                  `json:"current_phase"`
	FileSource     string                 `json:"file_source"`
	ExportID       int                    `json:"export_id,omitempty"`
	UserID         string                 `json:"user_id,omitempty"`
	UserDisplayName string                `json:"user_display_name,omitempty"`
	ExportDate     string                 `json:"export_date,omitempty"`
	CustomMetadata map[string]any         `json:"custom_metadata,omitempty"`
	DataFiles      map[string]string      `json:"data_files,omitempty"`
}
