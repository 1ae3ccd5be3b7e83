package database

import (
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/config"
)

// Config holds PostgreSQL connection and pool configuration for the loader.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string

	// MinConns/MaxConns bound the live connection pool (spec: at least 2, at most 10).
	MinConns       int
	MaxConns       int
	AcquireTimeout time.Duration
}

// FromPipelineConfig adapts the loaded application configuration's database
// section into the shape this package's client constructor expects.
func FromPipelineConfig(dc *config.DatabaseConfig) Config {
	return Config{
		Host:           dc.Host,
		Port:           dc.Port,
		User:           dc.User,
		Password:       dc.Password,
		Database:       dc.Database,
		SSLMode:        dc.SSLMode,
		MinConns:       dc.MinConns,
		MaxConns:       dc.MaxConns,
		AcquireTimeout: dc.AcquireTimeout,
	}
}
