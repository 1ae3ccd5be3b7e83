// Package pipeline implements C7: the Extractor, Transformer, Loader, and
// the Pipeline driver that sequences them through an ETL Context (spec §4).
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/codeready-toolchain/skypeetl/pkg/database"
	"github.com/codeready-toolchain/skypeetl/pkg/etlcontext"
	"github.com/codeready-toolchain/skypeetl/pkg/etlerrors"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
)

// Exit codes for any driver wrapping Pipeline.Run (spec §6).
const (
	ExitSuccess            = 0
	ExitFatalError         = 1
	ExitValidationFailure  = 2
	ExitDatabaseUnavailable = 3
	ExitCancelled          = 4
)

// Pipeline sequences Extract, Transform, and Load through a shared Context.
type Pipeline struct {
	Context   *etlcontext.Context
	DBClient  *database.Client
	Extractor *Extractor
	Transform *Transformer
}

// NewPipeline wires a Pipeline around ctx and an optional database client
// (nil is valid when Run will not reach the Load phase, e.g. dry runs).
func NewPipeline(ctx *etlcontext.Context, dbClient *database.Client) *Pipeline {
	return &Pipeline{
		Context:   ctx,
		DBClient:  dbClient,
		Extractor: NewExtractor(),
		Transform: NewTransformer(),
	}
}

// Run executes Extract -> Transform -> Load against source, tagging the
// resulting export with userDisplayName, and returns the process exit code
// that should be reported to the caller (spec §6).
func (p *Pipeline) Run(runCtx context.Context, source string, userDisplayName string) int {
	p.Context.FileSource = source
	p.Context.UserDisplayName = userDisplayName

	if err := p.runExtract(runCtx, source); err != nil {
		return p.finish(err)
	}
	if err := p.runTransform(runCtx, userDisplayName); err != nil {
		return p.finish(err)
	}
	if err := p.runLoad(runCtx, source); err != nil {
		return p.finish(err)
	}
	return p.finish(nil)
}

// RunFromCheckpoint restores context state from a previously written
// checkpoint and continues the pipeline from the first phase that had not
// yet completed, skipping Extract/Transform entirely when the checkpoint
// shows them already done (spec §4.7 resumption).
func (p *Pipeline) RunFromCheckpoint(runCtx context.Context, checkpointID, source, userDisplayName string) int {
	if err := p.Context.Restore(checkpointID); err != nil {
		return p.finish(err)
	}
	p.Context.FileSource = source
	p.Context.UserDisplayName = userDisplayName

	if p.Context.PhaseMgr.Status(models.PhaseExtract) != models.PhaseStatusCompleted {
		if err := p.runExtract(runCtx, source); err != nil {
			return p.finish(err)
		}
	}
	if status := p.Context.PhaseMgr.Status(models.PhaseTransform); status != models.PhaseStatusCompleted && status != models.PhaseStatusWarning {
		if err := p.runTransform(runCtx, userDisplayName); err != nil {
			return p.finish(err)
		}
	}
	if err := p.runLoad(runCtx, source); err != nil {
		return p.finish(err)
	}
	return p.finish(nil)
}

func (p *Pipeline) runExtract(runCtx context.Context, source string) error {
	select {
	case <-runCtx.Done():
		return etlerrors.New(etlerrors.KindCancellation, "extract", "cancelled before extract started", etlerrors.ErrCancelled)
	default:
	}

	p.Context.StartPhase(models.PhaseExtract, 0, 0)
	result, err := p.Extractor.Extract(source)
	if err != nil {
		p.Context.RecordError(models.PhaseExtract, "extraction failed", map[string]any{"source": source}, true)
		return err
	}

	p.Context.RawData = result.Raw
	p.Context.UserID = result.Raw.UserID
	p.Context.ExportDate = result.Raw.ExportDate
	p.Context.StartPhase(models.PhaseExtract, int64(result.ConversationCount), int64(result.TotalMessageCount))
	p.Context.UpdateProgress(runCtx, models.PhaseExtract, int64(result.TotalMessageCount))
	p.Context.EndPhase(models.PhaseExtract, models.PhaseStatusCompleted)

	p.checkpoint()
	return nil
}

func (p *Pipeline) runTransform(runCtx context.Context, userDisplayName string) error {
	select {
	case <-runCtx.Done():
		return etlerrors.New(etlerrors.KindCancellation, "transform", "cancelled before transform started", etlerrors.ErrCancelled)
	default:
	}

	if !p.Context.CanResumeFromPhase(models.PhaseTransform) {
		return etlerrors.New(etlerrors.KindValidation, "transform", "cannot resume: extract phase incomplete", nil)
	}

	cfg := p.Context.Config.Pipeline
	p.Context.StartPhase(models.PhaseTransform, int64(len(p.Context.RawData.Conversations)), 0)

	transformed, err := p.Transform.Transform(runCtx, p.Context.RawData, userDisplayName, TransformOptions{
		ChunkSize:          cfg.ChunkSize,
		ParallelProcessing: cfg.ParallelProcessing,
		MaxWorkers:         cfg.MaxWorkers,
		Memory:             p.Context.Memory,
		Progress:           p.Context.Progress,
		ErrorLog:           p.Context.ErrorLog,
		Content:            p.Context.ContentExtractor,
	})
	if err != nil {
		p.Context.RecordError(models.PhaseTransform, "transformation failed", nil, true)
		return err
	}

	p.Context.TransformedData = transformed
	p.Context.EndPhase(models.PhaseTransform, p.transformEndStatus())

	p.checkpoint()
	return nil
}

func (p *Pipeline) transformEndStatus() models.PhaseStatus {
	_, nonFatal := p.Context.ErrorLog.Counts()
	if nonFatal > 0 {
		return models.PhaseStatusWarning
	}
	return models.PhaseStatusCompleted
}

func (p *Pipeline) runLoad(runCtx context.Context, source string) error {
	select {
	case <-runCtx.Done():
		return etlerrors.New(etlerrors.KindCancellation, "load", "cancelled before load started", etlerrors.ErrCancelled)
	default:
	}

	if !p.Context.CanResumeFromPhase(models.PhaseLoad) {
		return etlerrors.New(etlerrors.KindValidation, "load", "cannot resume: transform phase incomplete", nil)
	}
	if p.DBClient == nil {
		return etlerrors.New(etlerrors.KindLoading, "load", "no database client configured", etlerrors.ErrDatabaseUnavailable)
	}

	p.Context.StartPhase(models.PhaseLoad, int64(p.Context.TransformedData.Metadata.TotalConversations), int64(p.Context.TransformedData.Metadata.TotalMessages))

	loader := NewLoader(p.DBClient, p.Context.Config.Pipeline.BatchSize)
	exportID, err := loader.Load(runCtx, p.Context.RawData, p.Context.TransformedData, source)
	if err != nil {
		p.Context.RecordError(models.PhaseLoad, "load failed", map[string]any{"source": source}, true)
		return err
	}

	p.Context.ExportID = exportID
	p.Context.UpdateProgress(runCtx, models.PhaseLoad, int64(p.Context.TransformedData.Metadata.TotalMessages))
	p.Context.EndPhase(models.PhaseLoad, models.PhaseStatusCompleted)
	return nil
}

// checkpoint snapshots context state, logging (but not failing the
// pipeline) on a write error, per the non-fatal-on-write checkpoint policy.
func (p *Pipeline) checkpoint() {
	if p.Context.Config.Checkpoint == nil || !p.Context.Config.Checkpoint.Enabled {
		return
	}
	if _, err := p.Context.CreateCheckpoint(); err != nil {
		p.Context.Logger.Warn("checkpoint write failed, continuing without it", "error", err)
	}
}

// finish writes the summary file and maps the terminal error, if any, onto
// an exit code (spec §6).
func (p *Pipeline) finish(runErr error) int {
	summary := p.Context.Summary()
	p.writeSummary(summary)

	if runErr == nil {
		if !summary.Success {
			return ExitFatalError
		}
		return ExitSuccess
	}

	if kind, ok := errorKind(runErr); ok {
		switch kind {
		case etlerrors.KindValidation:
			return ExitValidationFailure
		case etlerrors.KindCancellation:
			return ExitCancelled
		}
	}
	if errors.Is(runErr, etlerrors.ErrCancelled) {
		return ExitCancelled
	}
	if errors.Is(runErr, etlerrors.ErrDatabaseUnavailable) {
		return ExitDatabaseUnavailable
	}
	return ExitFatalError
}

// errorKind extracts the taxonomy Kind from any of the typed errors this
// package and its collaborators produce, regardless of which detail struct
// wraps the common PhaseError envelope.
func errorKind(err error) (etlerrors.Kind, bool) {
	var phaseErr *etlerrors.PhaseError
	if errors.As(err, &phaseErr) {
		return phaseErr.Kind, true
	}
	var extractionErr *etlerrors.ExtractionError
	if errors.As(err, &extractionErr) {
		return extractionErr.Kind, true
	}
	var loadingErr *etlerrors.LoadingError
	if errors.As(err, &loadingErr) {
		return loadingErr.Kind, true
	}
	var checkpointErr *etlerrors.CheckpointError
	if errors.As(err, &checkpointErr) {
		return checkpointErr.Kind, true
	}
	return "", false
}

func (p *Pipeline) writeSummary(summary etlcontext.Summary) {
	outputDir := p.Context.Config.Pipeline.OutputDir
	if outputDir == "" {
		return
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		p.Context.Logger.Warn("failed to create output directory for summary", "error", err)
		return
	}

	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		p.Context.Logger.Warn("failed to marshal summary", "error", err)
		return
	}

	path := filepath.Join(outputDir, "summary_"+p.Context.TaskID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		p.Context.Logger.Warn("failed to write summary file", "error", err, "path", path)
	}
}
