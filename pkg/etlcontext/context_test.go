package etlcontext

import (
	"context"
	"testing"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/config"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Database: &config.DatabaseConfig{
			Host: "localhost", Port: 5432, Database: "etl",
			MinConns: 2, MaxConns: 10, AcquireTimeout: time.Second,
		},
		Pipeline: &config.PipelineConfig{
			OutputDir: t.TempDir(), ChunkSize: 100, BatchSize: 100,
			MemoryLimitMB: 512, ExtractTimeout: time.Minute,
			TransformTimeout: time.Minute, LoadTimeout: time.Minute,
		},
		Checkpoint: &config.CheckpointConfig{Enabled: true},
	}
	return cfg
}

func TestContext_PhaseLifecycle(t *testing.T) {
	ctx := New("task-1", testConfig(t), nil)

	ctx.StartPhase(models.PhaseExtract, 1, 10)
	assert.Equal(t, models.PhaseExtract, ctx.PhaseMgr.Current())

	ctx.UpdateProgress(context.Background(), models.PhaseExtract, 5)
	snap := ctx.Progress.Snapshot(models.PhaseExtract)
	assert.Equal(t, int64(5), snap.Current)

	ctx.EndPhase(models.PhaseExtract, models.PhaseStatusCompleted)
	assert.True(t, ctx.CanResumeFromPhase(models.PhaseTransform))
}

func TestContext_RecordErrorFatalFailsPhase(t *testing.T) {
	ctx := New("task-2", testConfig(t), nil)
	ctx.StartPhase(models.PhaseLoad, 0, 0)
	ctx.RecordError(models.PhaseLoad, "constraint violation", nil, true)
	assert.Equal(t, models.PhaseStatusFailed, ctx.PhaseMgr.Status(models.PhaseLoad))

	summary := ctx.Summary()
	assert.False(t, summary.Success)
	assert.Equal(t, 1, summary.FatalErrors)
}

func TestContext_CreateCheckpointAndRestore(t *testing.T) {
	ctx := New("task-3", testConfig(t), nil)
	ctx.StartPhase(models.PhaseExtract, 1, 1)
	ctx.RawData = &models.RawExport{UserID: "alice", ExportDate: "2024-01-01T00:00:00Z"}
	ctx.EndPhase(models.PhaseExtract, models.PhaseStatusCompleted)
	ctx.UserID = "alice"

	id, err := ctx.CreateCheckpoint()
	require.NoError(t, err)
	require.NotEmpty(t, id)

	restored := New("task-3", testConfig(t), nil)
	require.NoError(t, restored.Restore(id))
	assert.Equal(t, "alice", restored.UserID)
	require.NotNil(t, restored.RawData)
	assert.True(t, restored.CanResumeFromPhase(models.PhaseTransform))
}
