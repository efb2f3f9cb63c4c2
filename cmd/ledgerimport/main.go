package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/riskibarqy/fantasy-skiing/internal/app"
	"github.com/riskibarqy/fantasy-skiing/internal/config"
	"github.com/riskibarqy/fantasy-skiing/internal/infrastructure/repository/csvfile"
	"github.com/riskibarqy/fantasy-skiing/internal/infrastructure/repository/sqlrepo"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

// ledgerimport replaces the ledger stored in the LEDGER_SOURCE database
// with the entries of a ledger CSV.
func main() {
	csvPath := flag.String("csv", "", "ledger CSV to import")
	flag.Parse()
	if *csvPath == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -csv ledger.csv\n", filepath.Base(os.Args[0]))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(2)
	}
	if cfg.LedgerSource != config.LedgerSourceSQLite && cfg.LedgerSource != config.LedgerSourcePostgres {
		fmt.Fprintf(os.Stderr, "LEDGER_SOURCE must be %s or %s, got %s\n", config.LedgerSourceSQLite, config.LedgerSourcePostgres, cfg.LedgerSource)
		os.Exit(2)
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat).With("service", cfg.ServiceName, "command", "ledgerimport")
	logging.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := importLedger(ctx, cfg, *csvPath, logger); err != nil {
		logger.Error("import ledger", "csv", *csvPath, "error", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func importLedger(ctx context.Context, cfg config.Config, csvPath string, logger *logging.Logger) error {
	entries, err := csvfile.NewLedgerRepository(csvPath, logger).ListEntries(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return fmt.Errorf("ledger %s has no usable rows", csvPath)
	}

	db, err := app.OpenDB(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlrepo.NewLedgerRepository(db, 0).ReplaceEntries(ctx, entries); err != nil {
		return err
	}
	logger.Info("ledger imported", "entries", len(entries), "source", cfg.LedgerSource)
	return nil
}
