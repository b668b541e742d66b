package db

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaDDL string

// EnsureSchema applies the embedded DDL. Statements are idempotent
// (IF NOT EXISTS) so this is safe to run on every startup, typically through
// the bootstrap DB init hook.
func EnsureSchema(ctx context.Context, database *DB) error {
	if _, err := database.writer.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	database.log.Info("schema ensured")
	return nil
}
