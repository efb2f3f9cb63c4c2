package observability

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grafana/pyroscope-go"
	"github.com/uptrace/uptrace-go/uptrace"
	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fantasy-skiing/internal/config"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

// Runtime holds the tracing and profiling exporters of one predictor
// process. A batch run ends long before the exporters' periodic uploads,
// so Shutdown must run before exit to flush them.
type Runtime struct {
	tracing  bool
	profiler *pyroscope.Profiler
	logger   *logging.Logger
}

// Start configures Uptrace tracing and Pyroscope profiling as enabled in
// cfg. Disabled exporters cost nothing.
func Start(cfg config.Config, logger *logging.Logger) (*Runtime, error) {
	if logger == nil {
		logger = logging.Default()
	}
	rt := &Runtime{logger: logger}

	switch {
	case !cfg.UptraceEnabled:
		logger.Info("uptrace disabled", "reason", "UPTRACE_ENABLED=false")
	case strings.TrimSpace(cfg.UptraceDSN) == "":
		logger.Info("uptrace disabled", "reason", "UPTRACE_DSN empty")
	default:
		uptrace.ConfigureOpentelemetry(
			uptrace.WithDSN(cfg.UptraceDSN),
			uptrace.WithServiceName(cfg.ServiceName),
			uptrace.WithServiceVersion(cfg.ServiceVersion),
			uptrace.WithDeploymentEnvironment(cfg.AppEnv),
			uptrace.WithLoggingEnabled(cfg.UptraceLogsEnabled),
			uptrace.WithResourceAttributes(attribute.String("ledger.source", cfg.LedgerSource)),
		)
		rt.tracing = true
		logger.Info("uptrace enabled",
			"service_name", cfg.ServiceName,
			"service_version", cfg.ServiceVersion,
			"environment", cfg.AppEnv,
		)
	}

	if !cfg.PyroscopeEnabled {
		logger.Info("pyroscope disabled", "reason", "PYROSCOPE_ENABLED=false")
		return rt, nil
	}
	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName:   cfg.PyroscopeAppName,
		ServerAddress:     cfg.PyroscopeServerAddress,
		AuthToken:         cfg.PyroscopeAuthToken,
		BasicAuthUser:     cfg.PyroscopeBasicAuthUser,
		BasicAuthPassword: cfg.PyroscopeBasicAuthPassword,
		UploadRate:        cfg.PyroscopeUploadRate,
		Logger:            profilerLogger{logger: logger.Named("pyroscope")},
		Tags: map[string]string{
			"env":           cfg.AppEnv,
			"service":       cfg.ServiceName,
			"ledger_source": cfg.LedgerSource,
		},
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseObjects,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		_ = rt.Shutdown(context.Background())
		return nil, fmt.Errorf("start pyroscope: %w", err)
	}
	rt.profiler = profiler
	logger.Info("pyroscope enabled",
		"server_address", cfg.PyroscopeServerAddress,
		"application", cfg.PyroscopeAppName,
	)
	return rt, nil
}

// Shutdown flushes pending spans and the last profile, then stops both
// exporters.
func (r *Runtime) Shutdown(ctx context.Context) error {
	if r == nil {
		return nil
	}
	var errs []error
	if r.profiler != nil {
		if err := r.profiler.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop pyroscope: %w", err))
		}
		r.profiler = nil
	}
	if r.tracing {
		if err := uptrace.ForceFlush(ctx); err != nil {
			errs = append(errs, fmt.Errorf("flush uptrace: %w", err))
		}
		if err := uptrace.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown uptrace: %w", err))
		}
		r.tracing = false
	}
	return errors.Join(errs...)
}

// profilerLogger routes pyroscope's printf-style logs into the structured
// logger.
type profilerLogger struct {
	logger *logging.Logger
}

func (l profilerLogger) Infof(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l profilerLogger) Debugf(format string, args ...any) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l profilerLogger) Errorf(format string, args ...any) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}
