// Package database provides the PostgreSQL client and migration utilities
// used by the Loader (spec §4.5): a pooled ent/pgx client, idempotent
// schema migrations embedded into the binary, and acquire-timeout
// semantics mapped onto the loading error taxonomy.
package database

import (
	"context"
	stdsql "database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/codeready-toolchain/skypeetl/ent"
	"github.com/codeready-toolchain/skypeetl/pkg/etlerrors"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx driver for database/sql
)

//go:embed migrations
var migrationsFS embed.FS

// Client wraps an Ent client and exposes the underlying *sql.DB for health
// checks, GIN index bootstrap, and acquire-timeout-bounded connections.
type Client struct {
	*ent.Client
	db  *stdsql.DB
	cfg Config
}

// DB returns the underlying database connection pool.
func (c *Client) DB() *stdsql.DB {
	return c.db
}

// NewClientFromEnt wraps an existing Ent client (used by tests).
func NewClientFromEnt(entClient *ent.Client, db *stdsql.DB, cfg Config) *Client {
	return &Client{Client: entClient, db: db, cfg: cfg}
}

// NewClient opens a pooled connection capped at cfg.MaxConns open
// connections, keeping up to cfg.MinConns idle ones, and applies pending
// migrations. No minimum number of live connections is maintained.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	db, err := stdsql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)

	acquireCtx, cancel := context.WithTimeout(ctx, cfg.AcquireTimeout)
	defer cancel()
	if err := db.PingContext(acquireCtx); err != nil {
		_ = db.Close()
		return nil, etlerrors.New(etlerrors.KindLoading, "load", "failed to acquire database connection", errors.Join(etlerrors.ErrDatabaseUnavailable, err))
	}

	drv := entsql.OpenDB(dialect.Postgres, db)
	entClient := ent.NewClient(ent.Driver(drv))

	if err := runMigrations(ctx, db, cfg, drv); err != nil {
		_ = entClient.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Client{Client: entClient, db: db, cfg: cfg}, nil
}

// AcquireConn blocks for at most cfg.AcquireTimeout waiting for a free pool
// connection, mapping a timed-out wait onto ErrDatabaseUnavailable rather
// than leaking a raw context-deadline error to callers.
func (c *Client) AcquireConn(ctx context.Context) (*stdsql.Conn, error) {
	acquireCtx, cancel := context.WithTimeout(ctx, c.cfg.AcquireTimeout)
	defer cancel()

	conn, err := c.db.Conn(acquireCtx)
	if err != nil {
		return nil, etlerrors.New(etlerrors.KindLoading, "load", "connection pool exhausted", errors.Join(etlerrors.ErrDatabaseUnavailable, err))
	}
	return conn, nil
}

// runMigrations applies embedded migrations with golang-migrate, then
// creates the JSONB GIN indexes Ent's schema DSL can't express directly.
//
// Migration workflow:
//  1. Edit ent/schema/*.go to change the entity shape.
//  2. Hand-author the corresponding pkg/database/migrations/*.sql pair.
//  3. Migrations are embedded into the binary at compile time.
//  4. The binary applies pending migrations on startup (this function).
func runMigrations(ctx context.Context, db *stdsql.DB, cfg Config, drv *entsql.Driver) error {
	hasMigrations, err := hasEmbeddedMigrations()
	if err != nil {
		return fmt.Errorf("failed to check embedded migrations: %w", err)
	}
	if !hasMigrations {
		return fmt.Errorf("no embedded migration files found, binary built incorrectly")
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, cfg.Database, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// Close only the migration source driver: m.Close() would also close the
	// database driver, which calls db.Close() on the *sql.DB shared with Ent.
	if err := sourceDriver.Close(); err != nil {
		return fmt.Errorf("failed to close migration source: %w", err)
	}

	if err := CreateGINIndexes(ctx, drv); err != nil {
		return fmt.Errorf("failed to create GIN indexes: %w", err)
	}

	return nil
}

func hasEmbeddedMigrations() (bool, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read embedded migrations: %w", err)
	}
	for _, entry := range entries {
		if !entry.IsDir() && len(entry.Name()) > 4 && entry.Name()[len(entry.Name())-4:] == ".sql" {
			return true, nil
		}
	}
	return false, nil
}
