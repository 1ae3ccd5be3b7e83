// Package e2e provides end-to-end test infrastructure for the ETL pipeline:
// a real Postgres-backed Pipeline (testcontainers), source-file builders,
// and golden-file/normalizer helpers for the scenarios named in spec §8.
package e2e

import (
	"fmt"
	"testing"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/config"
	"github.com/codeready-toolchain/skypeetl/pkg/database"
	"github.com/codeready-toolchain/skypeetl/pkg/etlcontext"
	"github.com/codeready-toolchain/skypeetl/pkg/pipeline"
	testdb "github.com/codeready-toolchain/skypeetl/test/database"
)

// TestHarness wires a Pipeline against a real, per-test Postgres database
// and an isolated checkpoint/summary output directory.
type TestHarness struct {
	Context  *etlcontext.Context
	DBClient *database.Client
	Pipeline *pipeline.Pipeline
	TaskID   string

	t *testing.T
}

type harnessConfig struct {
	chunkSize          int
	batchSize          int
	parallelProcessing bool
	maxWorkers         int
	memoryLimitMB      int
	checkpointEnabled  bool
	taskID             string
	dbClient           *database.Client
}

// HarnessOption configures a TestHarness before it is built.
type HarnessOption func(*harnessConfig)

// WithChunkSize overrides the Transformer's chunk size.
func WithChunkSize(n int) HarnessOption { return func(c *harnessConfig) { c.chunkSize = n } }

// WithParallelProcessing toggles the Transformer's worker pool.
func WithParallelProcessing(enabled bool) HarnessOption {
	return func(c *harnessConfig) { c.parallelProcessing = enabled }
}

// WithMaxWorkers overrides the Transformer's worker pool size.
func WithMaxWorkers(n int) HarnessOption { return func(c *harnessConfig) { c.maxWorkers = n } }

// WithMemoryLimitMB overrides the back-pressure ceiling.
func WithMemoryLimitMB(n int) HarnessOption { return func(c *harnessConfig) { c.memoryLimitMB = n } }

// WithCheckpointsDisabled turns off checkpoint writes between phases.
func WithCheckpointsDisabled() HarnessOption {
	return func(c *harnessConfig) { c.checkpointEnabled = false }
}

// WithTaskID pins the task id instead of deriving one from the test name.
func WithTaskID(id string) HarnessOption { return func(c *harnessConfig) { c.taskID = id } }

// WithDBClient injects a pre-built database client instead of provisioning
// a fresh testcontainer (used by scenarios that share a database across
// two harnesses, e.g. the checkpoint-resume scenario).
func WithDBClient(client *database.Client) HarnessOption {
	return func(c *harnessConfig) { c.dbClient = client }
}

// NewTestHarness builds a Pipeline around a fresh testcontainers Postgres
// instance and a t.TempDir() output directory. Cleanup is automatic.
func NewTestHarness(t *testing.T, opts ...HarnessOption) *TestHarness {
	t.Helper()

	hc := &harnessConfig{
		chunkSize:          1000,
		batchSize:          100,
		parallelProcessing: true,
		maxWorkers:         0,
		memoryLimitMB:      1024,
		checkpointEnabled:  true,
		taskID:             fmt.Sprintf("e2e-%s", t.Name()),
	}
	for _, opt := range opts {
		opt(hc)
	}

	outputDir := t.TempDir()

	cfg := &config.Config{
		Database: config.DefaultDatabaseConfig(),
		Pipeline: &config.PipelineConfig{
			OutputDir:          outputDir,
			ChunkSize:          hc.chunkSize,
			BatchSize:          hc.batchSize,
			ParallelProcessing: hc.parallelProcessing,
			MaxWorkers:         hc.maxWorkers,
			MemoryLimitMB:      hc.memoryLimitMB,
			ExtractTimeout:     config.DefaultExtractTimeout,
			TransformTimeout:   config.DefaultTransformTimeout,
			LoadTimeout:        config.DefaultLoadTimeout,
		},
		Checkpoint: &config.CheckpointConfig{
			Enabled:   hc.checkpointEnabled,
			Directory: outputDir + "/checkpoints",
		},
	}

	dbClient := hc.dbClient
	if dbClient == nil {
		dbClient = testdb.NewTestClient(t)
	}

	etlCtx := etlcontext.New(hc.taskID, cfg, nil)
	p := pipeline.NewPipeline(etlCtx, dbClient)

	return &TestHarness{
		Context:  etlCtx,
		DBClient: dbClient,
		Pipeline: p,
		TaskID:   hc.taskID,
		t:        t,
	}
}

// Run drives Pipeline.Run to completion against sourcePath, bounded by a
// generous per-call test timeout, and returns the process-style exit code.
func (h *TestHarness) Run(sourcePath, userDisplayName string) int {
	h.t.Helper()
	ctx, cancel := timeoutContext(2 * time.Minute)
	defer cancel()
	return h.Pipeline.Run(ctx, sourcePath, userDisplayName)
}
