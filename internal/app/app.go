package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-skiing/external/pricefeed"
	"github.com/riskibarqy/fantasy-skiing/external/racedata"
	"github.com/riskibarqy/fantasy-skiing/internal/config"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/startlist"
	"github.com/riskibarqy/fantasy-skiing/internal/infrastructure/repository/cache"
	"github.com/riskibarqy/fantasy-skiing/internal/infrastructure/repository/csvfile"
	"github.com/riskibarqy/fantasy-skiing/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/fantasy-skiing/internal/infrastructure/repository/sqlrepo"
	"github.com/riskibarqy/fantasy-skiing/internal/observability"
	basecache "github.com/riskibarqy/fantasy-skiing/internal/platform/cache"
	idgen "github.com/riskibarqy/fantasy-skiing/internal/platform/id"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/resilience"
	"github.com/riskibarqy/fantasy-skiing/internal/usecase"
)

// Predictor is the wired prediction pipeline of one process.
type Predictor struct {
	Service     *usecase.PredictionService
	Metrics     *observability.RunMetrics
	Predictions prediction.Repository

	db     *sqlx.DB
	logger *logging.Logger
}

func NewPredictor(ctx context.Context, cfg config.Config, logger *logging.Logger) (*Predictor, error) {
	if logger == nil {
		logger = logging.Default()
	}

	p := &Predictor{logger: logger}
	ledgerRepo, err := p.ledgerRepository(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.LedgerCacheEnabled {
		ledgerRepo = cache.NewLedgerRepository(ledgerRepo, basecache.NewStore[[]ledger.Entry](cfg.LedgerCacheTTL))
	}

	p.Predictions = memory.NewPredictionRepository()
	if cfg.OutputPersist {
		if p.db == nil {
			_ = p.Close()
			return nil, fmt.Errorf("output persistence requires a database ledger source")
		}
		p.Predictions = sqlrepo.NewPredictionRepository(p.db)
	}

	fetcher, err := newFetchService(cfg, logger)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	p.Metrics = observability.NewRunMetrics(cfg, logger)
	p.Service = usecase.NewPredictionService(
		ledgerRepo,
		p.Predictions,
		fetcher,
		idgen.NewUUIDGenerator(),
		p.Metrics,
		usecase.PredictionOptions{
			MatchThreshold: cfg.IdentityMatchThreshold,
			SeasonCutoff:   cfg.ScoringSeasonCutoff,
			LastNameFirst:  cfg.NamesLastFirst,
			Persist:        cfg.OutputPersist,
		},
		logger,
	)

	logger.Info("predictor ready",
		"ledger_source", cfg.LedgerSource,
		"ledger_cache", cfg.LedgerCacheEnabled,
		"persist", cfg.OutputPersist,
		"fetch_enabled", fetcher != nil,
	)
	return p, nil
}

func (p *Predictor) ledgerRepository(ctx context.Context, cfg config.Config) (ledger.Repository, error) {
	switch cfg.LedgerSource {
	case config.LedgerSourceCSV:
		return csvfile.NewLedgerRepository(cfg.LedgerPath, p.logger), nil
	case config.LedgerSourceMemory:
		return memory.NewLedgerRepository(memory.SeedLedger()), nil
	case config.LedgerSourceSQLite, config.LedgerSourcePostgres:
		db, err := OpenDB(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", usecase.ErrLedgerUnavailable, err)
		}
		p.db = db
		return sqlrepo.NewLedgerRepository(db, cfg.LedgerFromSeason), nil
	default:
		return nil, fmt.Errorf("unsupported ledger source %q", cfg.LedgerSource)
	}
}

// newFetchService returns nil when no feed is configured; the pipeline then
// runs on the start lists and prices of the weekend file.
func newFetchService(cfg config.Config, logger *logging.Logger) (*usecase.FetchService, error) {
	breaker := resilience.CircuitBreakerConfig{
		Enabled:          cfg.FetchCircuitEnabled,
		FailureThreshold: cfg.FetchCircuitFailureCount,
		OpenTimeout:      cfg.FetchCircuitOpenTimeout,
		HalfOpenMaxReq:   cfg.FetchCircuitHalfOpenMaxReq,
	}

	var (
		source startlist.Source
		prices fantasy.PriceFeed
	)
	if cfg.RacedataBaseURL != "" {
		client, err := racedata.NewClient(racedata.ClientConfig{
			BaseURL:        cfg.RacedataBaseURL,
			Timeout:        cfg.RacedataTimeout,
			MaxConns:       cfg.RacedataMaxConns,
			Logger:         logger,
			CircuitBreaker: breaker,
		})
		if err != nil {
			return nil, fmt.Errorf("build race data client: %w", err)
		}
		source = client
	}
	if cfg.PriceFeedURL != "" {
		client, err := pricefeed.NewClient(pricefeed.ClientConfig{
			URL:            cfg.PriceFeedURL,
			Token:          cfg.PriceFeedToken,
			Timeout:        cfg.PriceFeedTimeout,
			Logger:         logger,
			CircuitBreaker: breaker,
		})
		if err != nil {
			return nil, fmt.Errorf("build price feed client: %w", err)
		}
		prices = client
	}
	if source == nil && prices == nil {
		return nil, nil
	}

	var normalizerOpts []athlete.NormalizerOption
	if cfg.NamesLastFirst {
		normalizerOpts = append(normalizerOpts, athlete.WithLastNameFirst())
	}
	return usecase.NewFetchService(source, prices, athlete.NewNormalizer(normalizerOpts...), usecase.FetchConfig{
		Workers:  cfg.FetchWorkers,
		MinDelay: cfg.FetchMinDelay,
		Retry: resilience.RetryPolicy{
			Attempts:  cfg.FetchRetryAttempts,
			BaseDelay: cfg.FetchRetryBaseDelay,
			MaxDelay:  cfg.FetchRetryMaxDelay,
		},
	}, logger), nil
}

// Close releases the database handle, if any.
func (p *Predictor) Close() error {
	if p == nil || p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	if err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
