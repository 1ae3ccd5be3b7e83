package database

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect/sql"
)

// CreateGINIndexes creates the JSONB GIN indexes required by spec §6 on
// raw_exports.raw_data and messages.structured_data. Ent's field/index DSL
// has no operator-class knob for GIN, so these are applied as raw SQL
// after the Ent-generated DDL runs.
func CreateGINIndexes(ctx context.Context, driver *sql.Driver) error {
	db := driver.DB()

	_, err := db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_raw_exports_raw_data_gin
		ON raw_exports USING gin(raw_data)`)
	if err != nil {
		return fmt.Errorf("failed to create raw_data GIN index: %w", err)
	}

	_, err = db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS idx_messages_structured_data_gin
		ON messages USING gin(structured_data)`)
	if err != nil {
		return fmt.Errorf("failed to create structured_data GIN index: %w", err)
	}

	return nil
}
