package sqlrepo

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

// ApplySQLiteSchema creates the ledger and prediction tables in a SQLite
// database. Postgres databases are managed by cmd/migration instead.
func ApplySQLiteSchema(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range strings.Split(sqliteSchema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply sqlite schema: %w", err)
		}
	}
	return nil
}
