// Package checkpoint persists and restores ETL context state to durable
// storage keyed by task id (spec §4.7): a small JSON descriptor plus
// spilled payload files for large raw/transformed data references.
package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/etlerrors"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/google/uuid"
)

// State is the in-memory payload handed to CreateCheckpoint and returned
// by RestoreCheckpoint. RawData/TransformedData are spilled to disk; the
// descriptor only ever inlines the small phase/metadata fields.
type State struct {
	TaskID          string
	PhaseStatuses   map[models.Phase]models.PhaseStatus
	CurrentPhase    models.Phase
	FileSource      string
	ExportID        int
	UserID          string
	UserDisplayName string
	ExportDate      string
	CustomMetadata  map[string]any

	RawData         *models.RawExport
	TransformedData *models.TransformedExport
}

// Manager implements the Checkpoint Manager (C4): create/restore/list
// against a directory tree rooted at <outputDir>/checkpoints/<taskID>/.
type Manager struct {
	outputDir string
}

// NewManager roots checkpoint storage at outputDir.
func NewManager(outputDir string) *Manager {
	return &Manager{outputDir: outputDir}
}

func (m *Manager) taskDir(taskID string) string {
	return filepath.Join(m.outputDir, "checkpoints", taskID)
}

func (m *Manager) descriptorPath(taskID, checkpointID string) string {
	return filepath.Join(m.taskDir(taskID), checkpointID+".json")
}

func (m *Manager) spillDir(taskID, checkpointID string) string {
	return filepath.Join(m.taskDir(taskID), checkpointID)
}

// CreateCheckpoint serializes state to a new checkpoint id, spilling
// RawData/TransformedData to files referenced from DataFiles.
func (m *Manager) CreateCheckpoint(state State) (string, error) {
	id := uuid.New().String()
	dir := m.taskDir(state.TaskID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", etlerrors.NewCheckpointError("failed to create checkpoint directory", id, err)
	}

	dataFiles := make(map[string]string)

	if state.RawData != nil {
		path, err := m.spill(state.TaskID, id, "raw.json", state.RawData)
		if err != nil {
			return "", err
		}
		dataFiles["raw_data"] = path
	}
	if state.TransformedData != nil {
		path, err := m.spill(state.TaskID, id, "transformed.json", state.TransformedData)
		if err != nil {
			return "", err
		}
		dataFiles["transformed_data"] = path
	}

	cp := models.Checkpoint{
		ID:              id,
		TaskID:          state.TaskID,
		Timestamp:       time.Now(),
		PhaseStatuses:   state.PhaseStatuses,
		CurrentPhase:    state.CurrentPhase,
		FileSource:      state.FileSource,
		ExportID:        state.ExportID,
		UserID:          state.UserID,
		UserDisplayName: state.UserDisplayName,
		ExportDate:      state.ExportDate,
		CustomMetadata:  state.CustomMetadata,
		DataFiles:       dataFiles,
	}

	raw, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return "", etlerrors.NewCheckpointError("failed to encode checkpoint descriptor", id, err)
	}
	if err := os.WriteFile(m.descriptorPath(state.TaskID, id), raw, 0o644); err != nil {
		return "", etlerrors.NewCheckpointError("failed to write checkpoint descriptor", id, err)
	}
	return id, nil
}

func (m *Manager) spill(taskID, checkpointID, filename string, payload any) (string, error) {
	dir := m.spillDir(taskID, checkpointID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", etlerrors.NewCheckpointError("failed to create spill directory", checkpointID, err)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return "", etlerrors.NewCheckpointError("failed to encode spill payload", checkpointID, err)
	}
	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return "", etlerrors.NewCheckpointError("failed to write spill payload", checkpointID, err)
	}
	return path, nil
}

// GetCheckpoint reads the inline descriptor without touching spill files.
func (m *Manager) GetCheckpoint(taskID, checkpointID string) (*models.Checkpoint, error) {
	raw, err := os.ReadFile(m.descriptorPath(taskID, checkpointID))
	if err != nil {
		return nil, etlerrors.NewCheckpointError("checkpoint descriptor not found", checkpointID, err)
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, etlerrors.NewCheckpointError("malformed checkpoint descriptor", checkpointID, err)
	}
	return &cp, nil
}

// RestoreCheckpoint reconstitutes a State, reading and decoding every
// referenced spill file during the call; payload loading is not deferred
// until a phase needs it. Restoration is fatal (spec §7) if the descriptor is missing or
// a referenced data file does not exist.
func (m *Manager) RestoreCheckpoint(taskID, checkpointID string) (*State, error) {
	cp, err := m.GetCheckpoint(taskID, checkpointID)
	if err != nil {
		return nil, err
	}

	state := &State{
		TaskID:          cp.TaskID,
		PhaseStatuses:   cp.PhaseStatuses,
		CurrentPhase:    cp.CurrentPhase,
		FileSource:      cp.FileSource,
		ExportID:        cp.ExportID,
		UserID:          cp.UserID,
		UserDisplayName: cp.UserDisplayName,
		ExportDate:      cp.ExportDate,
		CustomMetadata:  cp.CustomMetadata,
	}

	if path, ok := cp.DataFiles["raw_data"]; ok {
		var raw models.RawExport
		if err := loadSpill(path, &raw); err != nil {
			return nil, etlerrors.NewCheckpointError("raw_data spill missing or malformed", checkpointID, err)
		}
		state.RawData = &raw
	}
	if path, ok := cp.DataFiles["transformed_data"]; ok {
		var transformed models.TransformedExport
		if err := loadSpill(path, &transformed); err != nil {
			return nil, etlerrors.NewCheckpointError("transformed_data spill missing or malformed", checkpointID, err)
		}
		state.TransformedData = &transformed
	}

	return state, nil
}

func loadSpill(path string, out any) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// ListCheckpoints returns checkpoint ids for taskID ordered by timestamp
// descending (most recent first).
func (m *Manager) ListCheckpoints(taskID string) ([]string, error) {
	dir := m.taskDir(taskID)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, etlerrors.New(etlerrors.KindCheckpoint, "checkpoint", "failed to list checkpoint directory", err)
	}

	type idTime struct {
		id string
		ts time.Time
	}
	var ids []idTime
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		id := e.Name()[:len(e.Name())-len(".json")]
		cp, err := m.GetCheckpoint(taskID, id)
		if err != nil {
			continue
		}
		ids = append(ids, idTime{id: id, ts: cp.Timestamp})
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].ts.After(ids[j].ts) })

	out := make([]string, len(ids))
	for i, v := range ids {
		out[i] = v.id
	}
	return out, nil
}

// CanResumeFromPhase reports whether every phase preceding p completed in
// the restored checkpoint, and whether every data file it references
// still exists on disk (spec §4.7 resumption rule).
func CanResumeFromPhase(cp *models.Checkpoint, p models.Phase) bool {
	idx := p.Index()
	for i := 0; i < idx; i++ {
		if cp.PhaseStatuses[models.Phases[i]] != models.PhaseStatusCompleted {
			return false
		}
	}
	for _, path := range cp.DataFiles {
		if _, err := os.Stat(path); err != nil {
			return false
		}
	}
	return true
}
