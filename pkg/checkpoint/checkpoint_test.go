package checkpoint

import (
	"testing"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAndRestoreCheckpoint_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	raw := &models.RawExport{UserID: "alice", ExportDate: "2024-01-01T00:00:00Z"}
	transformed := &models.TransformedExport{
		Metadata: models.ExportMetadata{UserID: "alice", TotalConversations: 1, TotalMessages: 2},
	}

	state := State{
		TaskID: "task-1",
		PhaseStatuses: map[models.Phase]models.PhaseStatus{
			models.PhaseExtract:   models.PhaseStatusCompleted,
			models.PhaseTransform: models.PhaseStatusCompleted,
			models.PhaseLoad:      models.PhaseStatusPending,
		},
		CurrentPhase:    models.PhaseLoad,
		FileSource:      "export.json",
		UserID:          "alice",
		RawData:         raw,
		TransformedData: transformed,
	}

	id, err := m.CreateCheckpoint(state)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	restored, err := m.RestoreCheckpoint("task-1", id)
	require.NoError(t, err)
	assert.Equal(t, "alice", restored.UserID)
	assert.Equal(t, "export.json", restored.FileSource)
	require.NotNil(t, restored.RawData)
	assert.Equal(t, "alice", restored.RawData.UserID)
	require.NotNil(t, restored.TransformedData)
	assert.Equal(t, 2, restored.TransformedData.Metadata.TotalMessages)
}

func TestListCheckpoints_OrderedByTimestampDescending(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	state := State{
		TaskID: "task-2",
		PhaseStatuses: map[models.Phase]models.PhaseStatus{
			models.PhaseExtract: models.PhaseStatusCompleted,
		},
	}

	first, err := m.CreateCheckpoint(state)
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := m.CreateCheckpoint(state)
	require.NoError(t, err)

	ids, err := m.ListCheckpoints("task-2")
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Equal(t, second, ids[0])
	assert.Equal(t, first, ids[1])
}

func TestListCheckpoints_UnknownTaskReturnsEmpty(t *testing.T) {
	m := NewManager(t.TempDir())
	ids, err := m.ListCheckpoints("never-created")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestCanResumeFromPhase_RequiresPrecedingPhasesCompletedAndFilesPresent(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(dir)

	state := State{
		TaskID: "task-3",
		PhaseStatuses: map[models.Phase]models.PhaseStatus{
			models.PhaseExtract:   models.PhaseStatusCompleted,
			models.PhaseTransform: models.PhaseStatusPending,
		},
		RawData: &models.RawExport{UserID: "bob"},
	}

	id, err := m.CreateCheckpoint(state)
	require.NoError(t, err)

	cp, err := m.GetCheckpoint("task-3", id)
	require.NoError(t, err)

	assert.True(t, CanResumeFromPhase(cp, models.PhaseTransform))
	assert.False(t, CanResumeFromPhase(cp, models.PhaseLoad))
}

func TestRestoreCheckpoint_MissingDescriptorFails(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.RestoreCheckpoint("ghost-task", "ghost-id")
	assert.Error(t, err)
}
