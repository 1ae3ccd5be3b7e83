// Package etlerrors defines the pipeline's error taxonomy: a fixed set of
// kinds (not type names) shared by every phase, plus typed detail structs
// that carry phase-specific context and wrap an underlying cause.
package etlerrors

import (
	"errors"
	"fmt"
)

// Kind identifies which taxonomy bucket an error belongs to (spec §7).
// It is returned alongside the detail struct so callers can branch on it
// without type-asserting every concrete error type.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindExtraction     Kind = "extraction"
	KindTransformation Kind = "transformation"
	KindLoading        Kind = "loading"
	KindCheckpoint     Kind = "checkpoint"
	KindCancellation   Kind = "cancellation"
)

var (
	// ErrFileNotFound indicates the extractor could not open the source file.
	ErrFileNotFound = errors.New("file not found")

	// ErrUnsupportedFormat indicates the source is neither JSON nor a qualifying TAR.
	ErrUnsupportedFormat = errors.New("unsupported source format")

	// ErrMalformedJSON indicates the source could not be parsed as JSON.
	ErrMalformedJSON = errors.New("malformed JSON")

	// ErrSchemaViolation indicates parsed JSON does not satisfy the RawExport shape.
	ErrSchemaViolation = errors.New("schema violation")

	// ErrDatabaseUnavailable indicates the pool could not acquire a connection
	// within the configured timeout.
	ErrDatabaseUnavailable = errors.New("database unavailable")

	// ErrCancelled indicates the pipeline was stopped by an external cancellation signal.
	ErrCancelled = errors.New("pipeline cancelled")
)

// PhaseError is the common envelope every fatal pipeline error wraps.
// Collaborators (CLI, summary writer) inspect Kind and Phase instead of
// reaching for type assertions on the wrapped error.
type PhaseError struct {
	Kind    Kind
	Phase   string
	Message string
	Err     error
}

func (e *PhaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s phase %q: %s: %v", e.Kind, e.Phase, e.Message, e.Err)
	}
	return fmt.Sprintf("%s phase %q: %s", e.Kind, e.Phase, e.Message)
}

func (e *PhaseError) Unwrap() error { return e.Err }

// New builds a PhaseError for the given kind/phase.
func New(kind Kind, phase, message string, cause error) *PhaseError {
	return &PhaseError{Kind: kind, Phase: phase, Message: message, Err: cause}
}

// ExtractionError carries the offending field path for schema violations (spec §4.3).
type ExtractionError struct {
	*PhaseError
	FieldPath string
}

// NewExtractionError builds an ExtractionError, defaulting Phase to "extract".
func NewExtractionError(message, fieldPath string, cause error) *ExtractionError {
	return &ExtractionError{
		PhaseError: New(KindExtraction, "extract", message, cause),
		FieldPath:  fieldPath,
	}
}

// LoadingError carries the export id that was rolled back, if one was assigned.
type LoadingError struct {
	*PhaseError
	ExportID int
}

// NewLoadingError builds a LoadingError, defaulting Phase to "load".
func NewLoadingError(message string, exportID int, cause error) *LoadingError {
	return &LoadingError{
		PhaseError: New(KindLoading, "load", message, cause),
		ExportID:   exportID,
	}
}

// CheckpointError carries the checkpoint id involved in a spill/restore failure.
type CheckpointError struct {
	*PhaseError
	CheckpointID string
}

// NewCheckpointError builds a CheckpointError.
func NewCheckpointError(message, checkpointID string, cause error) *CheckpointError {
	return &CheckpointError{
		PhaseError: New(KindCheckpoint, "checkpoint", message, cause),
		CheckpointID: checkpointID,
	}
}

// IsFatal reports whether a Kind is always fatal to its phase per the
// taxonomy's propagation policy. Transformation errors are the one kind
// that is non-fatal by default — per-message failures are recorded and
// the neighboring messages still transform.
func (k Kind) IsFatal() bool {
	return k != KindTransformation
}
