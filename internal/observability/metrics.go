package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/riskibarqy/fantasy-skiing/internal/config"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

const (
	metricsNamespace = "fantasy_skiing"
	metricsSubsystem = "predict"
)

// RunMetrics collects the counters of one predictor run on a private
// registry. A batch process does not live long enough to be scraped, so the
// registry is pushed to a Pushgateway when the run ends.
type RunMetrics struct {
	registry *prometheus.Registry
	pusher   *push.Pusher
	logger   *logging.Logger

	runs            *prometheus.CounterVec
	runDuration     prometheus.Histogram
	resolutions     *prometheus.CounterVec
	fetchFailures   prometheus.Counter
	raceRows        *prometheus.GaugeVec
	lastRunUnixTime prometheus.Gauge
}

// NewRunMetrics builds the collectors. Push is a no-op unless cfg enables
// metrics with a Pushgateway URL.
func NewRunMetrics(cfg config.Config, logger *logging.Logger) *RunMetrics {
	if logger == nil {
		logger = logging.Default()
	}
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	m := &RunMetrics{
		registry: registry,
		logger:   logger,
		runs: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "runs_total",
			Help:      "Weekend prediction runs by outcome",
		}, []string{"outcome"}),
		runDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one weekend prediction run",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}),
		resolutions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "identity_resolutions_total",
			Help:      "Identity resolutions by method",
		}, []string{"method"}),
		fetchFailures: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "fetch_failures_total",
			Help:      "Start list, profile and pricing fetches that failed after retries",
		}),
		raceRows: auto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "race_rows",
			Help:      "Scored rows of the last race per discipline",
		}, []string{"discipline"}),
		lastRunUnixTime: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: metricsSubsystem,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last finished run",
		}),
	}

	if cfg.MetricsEnabled && strings.TrimSpace(cfg.MetricsPushgatewayURL) != "" {
		m.pusher = push.New(cfg.MetricsPushgatewayURL, cfg.MetricsJob).
			Gatherer(registry).
			Grouping("environment", cfg.AppEnv)
	}
	return m
}

func (m *RunMetrics) ObserveRun(outcome string, duration time.Duration) {
	m.runs.WithLabelValues(outcome).Inc()
	m.runDuration.Observe(duration.Seconds())
	m.lastRunUnixTime.SetToCurrentTime()
}

func (m *RunMetrics) AddResolutions(exact, fuzzy, imputed int64) {
	m.resolutions.WithLabelValues("exact").Add(float64(exact))
	m.resolutions.WithLabelValues("fuzzy").Add(float64(fuzzy))
	m.resolutions.WithLabelValues("imputed").Add(float64(imputed))
}

func (m *RunMetrics) AddFetchFailures(n int) {
	if n > 0 {
		m.fetchFailures.Add(float64(n))
	}
}

func (m *RunMetrics) ObserveRace(discipline string, rows int) {
	m.raceRows.WithLabelValues(discipline).Set(float64(rows))
}

// Registry exposes the collectors, e.g. for tests.
func (m *RunMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// Push sends the collected metrics to the Pushgateway, replacing the
// previous push of this job.
func (m *RunMetrics) Push(ctx context.Context) error {
	if m.pusher == nil {
		return nil
	}
	if err := m.pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("push run metrics: %w", err)
	}
	m.logger.DebugContext(ctx, "run metrics pushed")
	return nil
}
