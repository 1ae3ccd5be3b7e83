package pipeline

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/config"
	"github.com/codeready-toolchain/skypeetl/pkg/etlcontext"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFixtureExport(t *testing.T, dir string) string {
	t.Helper()
	fixture := map[string]any{
		"userId":     "alice",
		"exportDate": "2024-01-01T00:00:00Z",
		"conversations": []map[string]any{
			{
				"id":          "conv-1",
				"displayName": "Friends",
				"MessageList": []map[string]any{
					{"id": "m1", "originalarrivaltime": "2024-01-01T00:00:00Z", "from": "alice", "content": "hi", "messagetype": "RichText"},
					{"id": "m2", "originalarrivaltime": "2024-01-01T00:01:00Z", "from": "bob", "content": "hello", "messagetype": "RichText"},
				},
			},
		},
	}
	data, err := json.Marshal(fixture)
	require.NoError(t, err)

	path := filepath.Join(dir, "export.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func testPipelineConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Database: config.DefaultDatabaseConfig(),
		Pipeline: &config.PipelineConfig{
			OutputDir: t.TempDir(), ChunkSize: 10, BatchSize: 10,
			ParallelProcessing: false, MemoryLimitMB: 512,
			ExtractTimeout: time.Minute, TransformTimeout: time.Minute, LoadTimeout: time.Minute,
		},
		Checkpoint: &config.CheckpointConfig{Enabled: true},
	}
}

// TestPipeline_RunWithoutDatabaseClientFailsAtLoadButWritesSummary exercises
// Extract and Transform end-to-end and confirms the driver reports
// DatabaseUnavailable (rather than panicking) when no Load collaborator is
// configured, while still persisting a summary file (spec §6).
func TestPipeline_RunWithoutDatabaseClientFailsAtLoadButWritesSummary(t *testing.T) {
	dir := t.TempDir()
	source := writeFixtureExport(t, dir)

	cfg := testPipelineConfig(t)
	ctx := etlcontext.New("task-pipeline-1", cfg, nil)
	p := NewPipeline(ctx, nil)

	code := p.Run(context.Background(), source, "Alice")
	assert.Equal(t, ExitDatabaseUnavailable, code)

	require.NotNil(t, ctx.RawData)
	require.NotNil(t, ctx.TransformedData)
	assert.Equal(t, 1, ctx.TransformedData.Metadata.TotalConversations)
	assert.Equal(t, 2, ctx.TransformedData.Metadata.TotalMessages)

	summaryPath := filepath.Join(cfg.Pipeline.OutputDir, "summary_task-pipeline-1.json")
	_, err := os.Stat(summaryPath)
	require.NoError(t, err)
}

func TestPipeline_RunFailsFastOnMissingSourceFile(t *testing.T) {
	cfg := testPipelineConfig(t)
	ctx := etlcontext.New("task-pipeline-2", cfg, nil)
	p := NewPipeline(ctx, nil)

	code := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.json"), "Alice")
	assert.Equal(t, ExitFatalError, code)
}

func TestPipeline_RunReportsCancelled(t *testing.T) {
	dir := t.TempDir()
	source := writeFixtureExport(t, dir)

	cfg := testPipelineConfig(t)
	ctx := etlcontext.New("task-pipeline-3", cfg, nil)
	p := NewPipeline(ctx, nil)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	code := p.Run(cancelled, source, "Alice")
	assert.Equal(t, ExitCancelled, code)
}
