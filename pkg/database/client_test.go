package database

import (
	"context"
	"testing"
	"time"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql"
	"github.com/codeready-toolchain/skypeetl/ent"
	"github.com/codeready-toolchain/skypeetl/pkg/etlerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// newTestClient creates a test database client inline (avoids an import
// cycle with test/database, which carries its own copy of this setup for
// e2e scenarios).
func newTestClient(t *testing.T) *Client {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(pgContainer); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	drv, err := sql.Open(dialect.Postgres, connStr)
	require.NoError(t, err)

	db := drv.DB()
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)

	entClient := ent.NewClient(ent.Driver(drv))

	// Auto-migration for tests; production applies the embedded golang-migrate files.
	err = entClient.Schema.Create(ctx)
	require.NoError(t, err)

	err = CreateGINIndexes(ctx, drv)
	require.NoError(t, err)

	cfg := Config{MinConns: 2, MaxConns: 10, AcquireTimeout: 5 * time.Second}
	client := NewClientFromEnt(entClient, db, cfg)

	t.Cleanup(func() {
		client.Close()
	})

	return client
}

func TestDatabaseClient_ConnectionPool(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	err := client.DB().PingContext(ctx)
	require.NoError(t, err)

	health, err := Health(ctx, client.DB())
	require.NoError(t, err)
	assert.Equal(t, "healthy", health.Status)
	assert.Greater(t, health.MaxOpenConns, 0)
}

func TestRawDataJSONBContainmentQuery(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	raw, err := client.RawExport.Create().
		SetFileHash("hash-1").
		SetExportDate(time.Now()).
		SetRawData(map[string]interface{}{"note": "production pod failure observed"}).
		Save(ctx)
	require.NoError(t, err)

	var count int
	row := client.DB().QueryRowContext(ctx,
		`SELECT count(*) FROM raw_exports WHERE raw_data @> $1`, `{"note": "production pod failure observed"}`)
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)
	assert.NotZero(t, raw.ID)
}

func TestAcquireConn_ReturnsUsableConnection(t *testing.T) {
	client := newTestClient(t)

	conn, err := client.AcquireConn(context.Background())
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.PingContext(context.Background()))
}

func TestAcquireConn_DeadlineExceededMapsToDatabaseUnavailable(t *testing.T) {
	client := newTestClient(t)
	client.cfg.AcquireTimeout = 0

	_, err := client.AcquireConn(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, etlerrors.ErrDatabaseUnavailable)
}
