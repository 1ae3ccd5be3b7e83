package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EtlYAMLConfig represents the complete etl.yaml file structure.
type EtlYAMLConfig struct {
	Database   *DatabaseConfig   `yaml:"database"`
	Pipeline   *PipelineConfig   `yaml:"pipeline"`
	Checkpoint *CheckpointConfig `yaml:"checkpoint"`
}

// Initialize loads, validates, and returns ready-to-use configuration.
// This is the primary entry point for configuration loading.
//
// Steps performed:
//  1. Load etl.yaml from configDir
//  2. Expand environment variables
//  3. Parse YAML into structs
//  4. Merge built-in defaults with user-defined overrides
//  5. Resolve the checkpoint directory from the pipeline output dir if unset
//  6. Validate all configuration
//  7. Return Config ready for use
func Initialize(ctx context.Context, configDir string) (*Config, error) {
	log := slog.With("config_dir", configDir)
	log.Info("Initializing configuration")

	cfg, err := load(ctx, configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	stats := cfg.Stats()
	log.Info("Configuration initialized successfully",
		"chunk_size", stats.ChunkSize,
		"batch_size", stats.BatchSize,
		"max_workers", stats.MaxWorkers,
		"parallel_processing", stats.ParallelProcessing,
		"memory_limit_mb", stats.MemoryLimitMB)

	return cfg, nil
}

// load is the internal loader (not exported).
func load(_ context.Context, configDir string) (*Config, error) {
	loader := &configLoader{configDir: configDir}

	yamlCfg, err := loader.loadEtlYAML()
	if err != nil {
		return nil, NewLoadError("etl.yaml", err)
	}

	db, err := mergeWithDefaults(DefaultDatabaseConfig(), yamlCfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to merge database config: %w", err)
	}

	pipeline, err := mergeWithDefaults(DefaultPipelineConfig(), yamlCfg.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to merge pipeline config: %w", err)
	}

	checkpoint, err := mergeWithDefaults(DefaultCheckpointConfig(), yamlCfg.Checkpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to merge checkpoint config: %w", err)
	}
	// mergo never copies a false bool from the override, so the booleans
	// (already decoded over their defaults) are taken from etl.yaml directly.
	if yamlCfg.Pipeline != nil {
		pipeline.ParallelProcessing = yamlCfg.Pipeline.ParallelProcessing
	}
	if yamlCfg.Checkpoint != nil {
		checkpoint.Enabled = yamlCfg.Checkpoint.Enabled
	}
	if checkpoint.Directory == "" {
		checkpoint.Directory = filepath.Join(pipeline.OutputDir, "checkpoints")
	}

	return &Config{
		configDir:  configDir,
		Database:   db,
		Pipeline:   pipeline,
		Checkpoint: checkpoint,
	}, nil
}

// validate performs comprehensive validation on loaded configuration.
func validate(cfg *Config) error {
	validator := NewValidator(cfg)
	return validator.ValidateAll()
}

type configLoader struct {
	configDir string
}

func (l *configLoader) loadYAML(filename string, target any) error {
	path := filepath.Join(l.configDir, filename)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return err
	}

	// Expand ${VAR}/$VAR environment references before parsing (e.g. DB_PASSWORD).
	data = ExpandEnv(data)

	if err := yaml.Unmarshal(data, target); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}

	return nil
}

func (l *configLoader) loadEtlYAML() (*EtlYAMLConfig, error) {
	// Decode over the defaults so a boolean left out of etl.yaml keeps its
	// default while an explicit false is preserved.
	cfg := EtlYAMLConfig{
		Database:   DefaultDatabaseConfig(),
		Pipeline:   DefaultPipelineConfig(),
		Checkpoint: DefaultCheckpointConfig(),
	}
	if err := l.loadYAML("etl.yaml", &cfg); err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			// etl.yaml is optional: an all-defaults Config is valid.
			return &EtlYAMLConfig{}, nil
		}
		return nil, err
	}
	return &cfg, nil
}
