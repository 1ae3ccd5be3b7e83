package config

import "fmt"

// Validator validates configuration comprehensively with clear error messages.
type Validator struct {
	cfg *Config
}

// NewValidator creates a validator for the given configuration.
func NewValidator(cfg *Config) *Validator {
	return &Validator{cfg: cfg}
}

// ValidateAll performs comprehensive validation (fail-fast — stops at first error).
func (v *Validator) ValidateAll() error {
	if err := v.validateDatabase(); err != nil {
		return fmt.Errorf("database validation failed: %w", err)
	}
	if err := v.validatePipeline(); err != nil {
		return fmt.Errorf("pipeline validation failed: %w", err)
	}
	if err := v.validateCheckpoint(); err != nil {
		return fmt.Errorf("checkpoint validation failed: %w", err)
	}
	return nil
}

func (v *Validator) validateDatabase() error {
	db := v.cfg.Database
	if db == nil {
		return fmt.Errorf("database configuration is nil")
	}
	if db.Host == "" {
		return NewValidationError("database", "", "host", fmt.Errorf("required"))
	}
	if db.Port <= 0 || db.Port > 65535 {
		return NewValidationError("database", "", "port", fmt.Errorf("must be between 1 and 65535, got %d", db.Port))
	}
	if db.Database == "" {
		return NewValidationError("database", "", "database", fmt.Errorf("required"))
	}
	// "at least 2 and at most 10 live connections" (spec.md §4.5 Preconditions).
	if db.MinConns < 2 {
		return NewValidationError("database", "", "min_conns", fmt.Errorf("must be at least 2, got %d", db.MinConns))
	}
	if db.MaxConns > 10 {
		return NewValidationError("database", "", "max_conns", fmt.Errorf("must be at most 10, got %d", db.MaxConns))
	}
	if db.MinConns > db.MaxConns {
		return NewValidationError("database", "", "min_conns", fmt.Errorf("min_conns (%d) cannot exceed max_conns (%d)", db.MinConns, db.MaxConns))
	}
	if db.AcquireTimeout <= 0 {
		return NewValidationError("database", "", "acquire_timeout", fmt.Errorf("must be positive"))
	}
	return nil
}

func (v *Validator) validatePipeline() error {
	p := v.cfg.Pipeline
	if p == nil {
		return fmt.Errorf("pipeline configuration is nil")
	}
	if p.OutputDir == "" {
		return NewValidationError("pipeline", "", "output_dir", fmt.Errorf("required"))
	}
	if p.ChunkSize < 1 {
		return NewValidationError("pipeline", "", "chunk_size", fmt.Errorf("must be at least 1, got %d", p.ChunkSize))
	}
	if p.BatchSize < 1 {
		return NewValidationError("pipeline", "", "batch_size", fmt.Errorf("must be at least 1, got %d", p.BatchSize))
	}
	// MaxWorkers <= 0 is a valid sentinel meaning "default to CPU count"
	// (spec.md §9 Open Question — resolved, not an error).
	if p.MemoryLimitMB < 1 {
		return NewValidationError("pipeline", "", "memory_limit_mb", fmt.Errorf("must be at least 1, got %d", p.MemoryLimitMB))
	}
	if p.ExtractTimeout <= 0 {
		return NewValidationError("pipeline", "", "extract_timeout", fmt.Errorf("must be positive"))
	}
	if p.TransformTimeout <= 0 {
		return NewValidationError("pipeline", "", "transform_timeout", fmt.Errorf("must be positive"))
	}
	if p.LoadTimeout <= 0 {
		return NewValidationError("pipeline", "", "load_timeout", fmt.Errorf("must be positive"))
	}
	return nil
}

func (v *Validator) validateCheckpoint() error {
	c := v.cfg.Checkpoint
	if c == nil {
		return fmt.Errorf("checkpoint configuration is nil")
	}
	if c.Enabled && c.Directory == "" {
		return NewValidationError("checkpoint", "", "directory", fmt.Errorf("required when checkpointing is enabled"))
	}
	return nil
}
