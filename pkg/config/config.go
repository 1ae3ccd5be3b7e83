// Package config loads, merges, and validates the ETL engine's configuration:
// database connection settings, pipeline tuning knobs (chunk/batch sizes,
// worker count, memory ceiling) and checkpoint storage location.
package config

import "time"

// Config is the umbrella configuration object returned by Initialize() and
// threaded through the pipeline as the ETL Context's configuration.
type Config struct {
	configDir string // configuration directory path (for reference)

	Database   *DatabaseConfig
	Pipeline   *PipelineConfig
	Checkpoint *CheckpointConfig
}

// DatabaseConfig holds the connection parameters for the Loader's pooled
// Postgres connection.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`

	// MinConns/MaxConns bound the pooled connection count the Loader
	// acquires from (spec: "at least 2 and at most 10 live connections").
	MinConns       int           `yaml:"min_conns"`
	MaxConns       int           `yaml:"max_conns"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout"`
}

// PipelineConfig holds the tuning knobs shared across phases via the ETL
// Context: chunk/batch sizes, worker pool shape, memory ceiling, and
// per-phase timeouts.
type PipelineConfig struct {
	// OutputDir is the root directory for checkpoints and the summary file.
	OutputDir string `yaml:"output_dir"`

	// ChunkSize is the number of messages per Transform chunk.
	ChunkSize int `yaml:"chunk_size"`

	// BatchSize is the number of rows per Load bulk-insert batch.
	BatchSize int `yaml:"batch_size"`

	// ParallelProcessing enables the worker pool in the Transformer.
	// false => single worker regardless of MaxWorkers (see Open Question
	// in spec.md §9 — this inconsistency is resolved, not carried over).
	ParallelProcessing bool `yaml:"parallel_processing"`

	// MaxWorkers is the worker pool size when ParallelProcessing is true.
	// <= 0 means "default to CPU count".
	MaxWorkers int `yaml:"max_workers"`

	// MemoryLimitMB is the soft ceiling the MemoryMonitor gates against;
	// back-pressure engages at 80% of this value.
	MemoryLimitMB int `yaml:"memory_limit_mb"`

	// Timeouts, one per phase; zero means "use the built-in default".
	ExtractTimeout   time.Duration `yaml:"extract_timeout"`
	TransformTimeout time.Duration `yaml:"transform_timeout"`
	LoadTimeout      time.Duration `yaml:"load_timeout"`
}

// CheckpointConfig controls where and whether checkpoints are persisted.
type CheckpointConfig struct {
	Enabled bool `yaml:"enabled"`

	// Directory defaults to PipelineConfig.OutputDir/checkpoints and is
	// checked by the Validator. The checkpoint manager does not read it:
	// checkpoints are always written under PipelineConfig.OutputDir/checkpoints.
	Directory string `yaml:"directory"`
}

// ConfigDir returns the configuration directory path used to load this Config.
func (c *Config) ConfigDir() string {
	return c.configDir
}

// ConfigStats summarizes the loaded configuration for startup logging.
type ConfigStats struct {
	ChunkSize          int
	BatchSize          int
	MaxWorkers         int
	ParallelProcessing bool
	MemoryLimitMB      int
}

// Stats returns a snapshot of the pipeline tuning knobs for logging.
func (c *Config) Stats() ConfigStats {
	return ConfigStats{
		ChunkSize:          c.Pipeline.ChunkSize,
		BatchSize:          c.Pipeline.BatchSize,
		MaxWorkers:         c.Pipeline.MaxWorkers,
		ParallelProcessing: c.Pipeline.ParallelProcessing,
		MemoryLimitMB:      c.Pipeline.MemoryLimitMB,
	}
}
