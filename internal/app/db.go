package app

import (
	"context"
	"fmt"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelsql"
	"github.com/uptrace/opentelemetry-go-extra/otelsqlx"

	"github.com/riskibarqy/fantasy-skiing/internal/config"
	"github.com/riskibarqy/fantasy-skiing/internal/infrastructure/repository/sqlrepo"
)

const dbPingTimeout = 5 * time.Second

// OpenDB opens the traced database behind a sqlite or postgres ledger. A
// SQLite file gets its schema applied on open; Postgres is migrated with
// cmd/migration.
func OpenDB(ctx context.Context, cfg config.Config) (*sqlx.DB, error) {
	var (
		driver string
		dsn    string
		system string
		name   string
	)
	switch cfg.LedgerSource {
	case config.LedgerSourceSQLite:
		driver, dsn, system, name = "sqlite", cfg.LedgerPath, "sqlite", dbNameFromPath(cfg.LedgerPath)
	case config.LedgerSourcePostgres:
		dsn = NormalizeDBURL(cfg.DBURL, cfg.DBDisablePreparedBinary)
		driver, system, name = "postgres", "postgresql", dbNameFromURL(dsn)
	default:
		return nil, fmt.Errorf("ledger source %q has no database", cfg.LedgerSource)
	}

	db, err := otelsqlx.Open(driver, dsn,
		otelsql.WithDBSystem(system),
		otelsql.WithDBName(name),
		otelsql.WithQueryFormatter(formatDBQueryForTrace),
	)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// SQLite allows a single writer.
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, dbPingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	if driver == "sqlite" {
		if err := sqlrepo.ApplySQLiteSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}
