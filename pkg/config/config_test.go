package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitialize_DefaultsWhenNoYAML(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, DefaultPipelineConfig().ChunkSize, cfg.Pipeline.ChunkSize)
	assert.Equal(t, DefaultPipelineConfig().BatchSize, cfg.Pipeline.BatchSize)
	assert.True(t, cfg.Pipeline.ParallelProcessing)
	assert.Equal(t, filepath.Join(cfg.Pipeline.OutputDir, "checkpoints"), cfg.Checkpoint.Directory)
}

func TestInitialize_UserOverridesMergeOverDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := `
database:
  host: db.internal
  password: secret
pipeline:
  chunk_size: 50
  parallel_processing: false
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "etl.yaml"), []byte(yaml), 0o644))

	cfg, err := Initialize(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "secret", cfg.Database.Password)
	assert.Equal(t, 50, cfg.Pipeline.ChunkSize)
	assert.False(t, cfg.Pipeline.ParallelProcessing)
	// Untouched fields keep their built-in defaults.
	assert.Equal(t, DefaultPipelineConfig().BatchSize, cfg.Pipeline.BatchSize)
}

func TestInitialize_RejectsInvalidConnectionBounds(t *testing.T) {
	dir := t.TempDir()
	yaml := `
database:
  min_conns: 1
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "etl.yaml"), []byte(yaml), 0o644))

	_, err := Initialize(context.Background(), dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_conns")
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("ETL_TEST_DB_HOST", "expanded-host")
	out := ExpandEnv([]byte("host: ${ETL_TEST_DB_HOST}"))
	assert.Equal(t, "host: expanded-host", string(out))
}
