package phase

import (
	"context"
	"testing"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ExactlyOnePhaseInProgress(t *testing.T) {
	m := NewManager()
	assert.Equal(t, models.PhaseStatusPending, m.Status(models.PhaseExtract))

	m.StartPhase(models.PhaseExtract)
	assert.Equal(t, models.PhaseExtract, m.Current())
	assert.Equal(t, models.PhaseStatusInProgress, m.Status(models.PhaseExtract))

	m.EndPhase(models.PhaseExtract, models.PhaseStatusCompleted)
	assert.Equal(t, models.PhaseStatusCompleted, m.Status(models.PhaseExtract))
}

func TestManager_CanResumeFromPhase(t *testing.T) {
	m := NewManager()
	assert.True(t, m.CanResumeFromPhase(models.PhaseExtract))
	assert.False(t, m.CanResumeFromPhase(models.PhaseTransform))

	m.StartPhase(models.PhaseExtract)
	m.EndPhase(models.PhaseExtract, models.PhaseStatusCompleted)
	assert.True(t, m.CanResumeFromPhase(models.PhaseTransform))
	assert.False(t, m.CanResumeFromPhase(models.PhaseLoad))
}

func TestManager_RestoreReplacesSnapshot(t *testing.T) {
	m := NewManager()
	m.Restore(map[models.Phase]models.PhaseStatus{
		models.PhaseExtract:   models.PhaseStatusCompleted,
		models.PhaseTransform: models.PhaseStatusInProgress,
	}, models.PhaseTransform)

	assert.Equal(t, models.PhaseStatusCompleted, m.Status(models.PhaseExtract))
	assert.Equal(t, models.PhaseTransform, m.Current())
	assert.True(t, m.CanResumeFromPhase(models.PhaseTransform))
}

func TestProgressTracker_TracksCurrentAgainstTotal(t *testing.T) {
	tr := NewProgressTracker()
	tr.StartPhase(models.PhaseTransform, 100, "messages")
	tr.Update(context.Background(), models.PhaseTransform, 40)
	tr.Update(context.Background(), models.PhaseTransform, 10)

	snap := tr.Snapshot(models.PhaseTransform)
	assert.Equal(t, int64(50), snap.Current)
	assert.Equal(t, int64(100), snap.Total)
}

func TestMemoryMonitor_BackpressureThreshold(t *testing.T) {
	m := NewMemoryMonitor(0.000001) // effectively zero ceiling forces >=80%
	assert.True(t, m.ShouldBackpressure())

	unreachable := NewMemoryMonitor(1 << 30) // 1 PiB ceiling never crosses 80%
	assert.False(t, unreachable.ShouldBackpressure())
}

func TestErrorLogger_CountsFatalAndNonFatal(t *testing.T) {
	e := NewErrorLogger()
	e.Record(models.PhaseTransform, "handler panicked", nil, false)
	e.Record(models.PhaseLoad, "constraint violation", nil, true)

	fatal, nonFatal := e.Counts()
	assert.Equal(t, 1, fatal)
	assert.Equal(t, 1, nonFatal)
	require.True(t, e.HasFatal())
	assert.Len(t, e.All(), 2)
}
