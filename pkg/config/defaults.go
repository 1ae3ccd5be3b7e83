package config

import "time"

// Built-in phase timeout defaults (spec.md §5 "Timeouts").
const (
	DefaultExtractTimeout   = 10 * time.Minute
	DefaultTransformTimeout = 60 * time.Minute
	DefaultLoadTimeout      = 30 * time.Minute
)

// DefaultDatabaseConfig returns the built-in database connection defaults.
func DefaultDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		Host:           "localhost",
		Port:           5432,
		User:           "etl",
		Database:       "skype_etl",
		SSLMode:        "disable",
		MinConns:       2,
		MaxConns:       10,
		AcquireTimeout: 30 * time.Second,
	}
}

// DefaultPipelineConfig returns the built-in pipeline tuning defaults
// (spec.md §4.4/§4.5: chunk_size default 1000, batch_size default 100).
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		OutputDir:          "./etl-output",
		ChunkSize:          1000,
		BatchSize:          100,
		ParallelProcessing: true,
		MaxWorkers:         0, // 0 => default to CPU count, resolved at runtime
		MemoryLimitMB:      1024,
		ExtractTimeout:     DefaultExtractTimeout,
		TransformTimeout:   DefaultTransformTimeout,
		LoadTimeout:        DefaultLoadTimeout,
	}
}

// DefaultCheckpointConfig returns the built-in checkpoint storage defaults.
func DefaultCheckpointConfig() *CheckpointConfig {
	return &CheckpointConfig{
		Enabled:   true,
		Directory: "", // empty => derive from PipelineConfig.OutputDir/checkpoints
	}
}
