package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/riskibarqy/fantasy-skiing/internal/app"
	"github.com/riskibarqy/fantasy-skiing/internal/config"
	"github.com/riskibarqy/fantasy-skiing/internal/interfaces/output"
	"github.com/riskibarqy/fantasy-skiing/internal/observability"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
	"github.com/riskibarqy/fantasy-skiing/internal/usecase"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
	exitLedger  = 3
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		weekendPath = flag.String("weekend", "", "weekend definition (YAML)")
		outPath     = flag.String("out", "", "output file for json, output directory for csv (default stdout)")
		format      = flag.String("format", "", "output format: json or csv (default OUTPUT_FORMAT)")
	)
	flag.Parse()
	if *weekendPath == "" {
		fmt.Fprintf(os.Stderr, "usage: %s -weekend weekend.yaml [-out path] [-format json|csv]\n", filepath.Base(os.Args[0]))
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		return exitUsage
	}
	if *format != "" {
		if cfg.OutputFormat, err = config.ParseOutputFormat(*format); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitUsage
		}
	}
	if *outPath != "" {
		cfg.OutputPath = *outPath
	}

	logger := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat).With(
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	telemetry, err := observability.Start(cfg, logger)
	if err != nil {
		logger.Error("start telemetry", "error", err)
		return exitFailure
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := telemetry.Shutdown(ctx); err != nil {
			logger.Warn("shutdown telemetry", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	plan, err := config.LoadWeekend(*weekendPath)
	if err != nil {
		logger.Error("load weekend", "path", *weekendPath, "error", err)
		return exitUsage
	}

	predictor, err := app.NewPredictor(ctx, cfg, logger)
	if err != nil {
		logger.Error("build predictor", "error", err)
		if errors.Is(err, usecase.ErrLedgerUnavailable) {
			return exitLedger
		}
		return exitFailure
	}
	defer func() {
		if err := predictor.Close(); err != nil {
			logger.Warn("close predictor", "error", err)
		}
	}()

	ctx, span := otel.Tracer("fantasy-skiing/cmd/predict").Start(ctx, "predict.Weekend")
	defer span.End()

	result, runErr := predictor.Service.Run(ctx, plan)
	if err := predictor.Metrics.Push(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("push run metrics", "error", err)
	}
	if runErr != nil {
		logger.Error("predict weekend", "season", plan.Weekend.Season, "error", runErr)
		if errors.Is(runErr, usecase.ErrLedgerUnavailable) {
			return exitLedger
		}
		return exitFailure
	}

	if err := writeResult(ctx, cfg, result); err != nil {
		logger.Error("write output", "format", cfg.OutputFormat, "path", cfg.OutputPath, "error", err)
		return exitFailure
	}

	logger.Info("weekend predicted",
		"run_id", result.Run.ID,
		"tables", len(result.Tables),
		"exact", result.Stats.Exact,
		"fuzzy", result.Stats.Fuzzy,
		"imputed", result.Stats.Imputed,
	)
	return exitOK
}

// writeResult writes JSON to one file and CSV to one file per table.
// Without an output path everything goes to stdout; CSV tables are then
// separated by a blank line.
func writeResult(ctx context.Context, cfg config.Config, result usecase.RunResult) error {
	if cfg.OutputFormat == config.OutputFormatJSON {
		return withOutput(cfg.OutputPath, func(w io.Writer) error {
			return output.WriteJSON(ctx, w, result.Run, result.Tables)
		})
	}

	if cfg.OutputPath == "" {
		for i, table := range result.Tables {
			if i > 0 {
				if _, err := fmt.Fprintln(os.Stdout); err != nil {
					return err
				}
			}
			if err := output.WriteCSV(ctx, os.Stdout, table); err != nil {
				return err
			}
		}
		return nil
	}

	if err := os.MkdirAll(cfg.OutputPath, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	for _, table := range result.Tables {
		path := filepath.Join(cfg.OutputPath, table.Name+".csv")
		if err := withOutput(path, func(w io.Writer) error {
			return output.WriteCSV(ctx, w, table)
		}); err != nil {
			return err
		}
	}
	return nil
}

func withOutput(path string, write func(io.Writer) error) error {
	if path == "" {
		return write(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
