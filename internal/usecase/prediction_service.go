package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/quota"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/startlist"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/cache"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/id"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/nation"
)

// RaceScoring is the per-race scoring configuration of a weekend.
type RaceScoring struct {
	Features     []scoring.Feature
	Coefficients *scoring.Coefficients
	Level        string
	Normalize    bool
}

// WeekendPlan is everything a run needs besides the ledger and the feeds.
type WeekendPlan struct {
	Weekend   race.Weekend
	Overrides roster.Overrides
	Quotas    map[quota.Key]int
	HostBonus int
	Aliases   map[string]string
	Scoring   map[int]RaceScoring
	Curves    scoring.Curves

	// Startlists and Prices are used for races the fetch step did not cover,
	// e.g. offline runs without a race-data source.
	Startlists map[int][]startlist.Row
	Prices     []fantasy.PriceEntry
}

type PredictionOptions struct {
	MatchThreshold int
	SeasonCutoff   int
	LastNameFirst  bool
	Persist        bool
}

// RunMetrics receives per-run counters. A nil RunMetrics is allowed.
type RunMetrics interface {
	ObserveRun(outcome string, duration time.Duration)
	AddResolutions(exact, fuzzy, imputed int64)
	AddFetchFailures(n int)
	ObserveRace(discipline string, rows int)
}

// RunResult is the ranked output of one weekend.
type RunResult struct {
	Run    prediction.Run
	Tables []prediction.Table
	Stats  ResolverStats
	Fetch  FetchResult
}

type PredictionService struct {
	ledgerRepo     ledger.Repository
	predictionRepo prediction.Repository
	fetcher        *FetchService
	nations        *nation.Table
	ids            id.Generator
	metrics        RunMetrics
	opts           PredictionOptions
	now            func() time.Time
	logger         *logging.Logger
}

func NewPredictionService(
	ledgerRepo ledger.Repository,
	predictionRepo prediction.Repository,
	fetcher *FetchService,
	ids id.Generator,
	metrics RunMetrics,
	opts PredictionOptions,
	logger *logging.Logger,
) *PredictionService {
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &PredictionService{
		ledgerRepo:     ledgerRepo,
		predictionRepo: predictionRepo,
		fetcher:        fetcher,
		nations:        nation.Default(),
		ids:            ids,
		metrics:        metrics,
		opts:           opts,
		now:            time.Now,
		logger:         logger,
	}
}

// pipeline holds the per-run services built over one ledger snapshot.
type pipeline struct {
	snapshot *ledger.Snapshot
	resolver *IdentityResolver
	roster   *RosterService
	teams    *TeamService
	scoring  *ScoringService
}

// Run predicts one weekend: load the ledger, fetch the feeds, then for each
// race assemble the roster, aggregate teams, score and merge into the
// gender tables, and finally rank every table.
func (s *PredictionService) Run(ctx context.Context, plan WeekendPlan) (RunResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.Run",
		attribute.Int("weekend.season", plan.Weekend.Season),
		attribute.Int("weekend.races", len(plan.Weekend.Races)),
	)

	started := s.now()
	result, err := s.run(ctx, plan)
	endSpan(span, err)
	if s.metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "failed"
		}
		s.metrics.ObserveRun(outcome, s.now().Sub(started))
	}
	return result, err
}

func (s *PredictionService) run(ctx context.Context, plan WeekendPlan) (RunResult, error) {
	if err := plan.Weekend.Validate(); err != nil {
		return RunResult{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	races := append([]race.Race(nil), plan.Weekend.Races...)
	sort.SliceStable(races, func(i, j int) bool { return races[i].Index < races[j].Index })
	for i := range races {
		if races[i].HostNation == "" {
			races[i].HostNation = plan.Weekend.HostNation
		}
		if races[i].HostNation != "" {
			races[i].HostNation = s.nations.Canonical(races[i].HostNation)
		}
	}

	p, err := s.buildPipeline(ctx, plan)
	if err != nil {
		return RunResult{}, err
	}

	fetched, err := s.fetch(ctx, p, races)
	if err != nil {
		return RunResult{}, err
	}
	prices := fetched.Prices
	if len(prices.Athletes) == 0 && len(prices.Teams) == 0 && len(plan.Prices) > 0 {
		prices = fantasy.NewPriceList(plan.Prices)
	}

	tables := make(map[string]prediction.Table)
	for _, r := range races {
		rows, err := s.predictRace(ctx, p, plan, r, fetched, prices)
		if err != nil {
			return RunResult{}, err
		}
		name := TableName(r)
		tables[name] = prediction.Merge(tables[name], prediction.NewTable(name, r.Index, rows), r.Index)
		if s.metrics != nil {
			s.metrics.ObserveRace(string(r.Discipline), len(rows))
		}
	}

	out := make([]prediction.Table, 0, len(tables))
	for _, t := range tables {
		ranked := prediction.Rank(t)
		if err := ranked.Validate(); err != nil {
			return RunResult{}, fmt.Errorf("rank table %s: %w", t.Name, err)
		}
		out = append(out, ranked)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	runID, err := s.ids.NewID()
	if err != nil {
		return RunResult{}, err
	}
	result := RunResult{
		Run:    prediction.Run{ID: runID, Season: plan.Weekend.Season, CreatedAt: s.now().UTC()},
		Tables: out,
		Stats:  p.resolver.Stats(),
		Fetch:  fetched,
	}
	if s.metrics != nil {
		s.metrics.AddResolutions(result.Stats.Exact, result.Stats.Fuzzy, result.Stats.Imputed)
		s.metrics.AddFetchFailures(fetched.Failed)
	}

	if s.opts.Persist && s.predictionRepo != nil {
		if err := s.predictionRepo.SaveTables(ctx, result.Run, out); err != nil {
			return RunResult{}, fmt.Errorf("save prediction tables: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "weekend predicted",
		"run_id", runID,
		"races", len(races),
		"tables", len(out),
		"exact", result.Stats.Exact,
		"fuzzy", result.Stats.Fuzzy,
		"imputed", result.Stats.Imputed,
		"resolve_cache_hits", result.Stats.CacheHits,
		"fetch_failed", fetched.Failed,
	)
	return result, nil
}

func (s *PredictionService) buildPipeline(ctx context.Context, plan WeekendPlan) (*pipeline, error) {
	if s.ledgerRepo == nil {
		return nil, fmt.Errorf("%w: no ledger repository configured", ErrLedgerUnavailable)
	}
	entries, err := s.ledgerRepo.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	snapshot, err := ledger.NewSnapshot(entries, s.nations)
	if errors.Is(err, ledger.ErrEmpty) {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	if err != nil {
		return nil, fmt.Errorf("build ledger snapshot: %w", err)
	}

	opts := []athlete.NormalizerOption{athlete.WithAliases(plan.Aliases)}
	if s.opts.LastNameFirst {
		opts = append(opts, athlete.WithLastNameFirst())
	}
	normalizer := athlete.NewNormalizer(opts...)
	allocator := quota.NewAllocator(plan.Quotas, plan.HostBonus)

	curves := scoring.DefaultCurves()
	if plan.Curves.Transform != nil || plan.Curves.Response != nil {
		curves = curves.Merge(plan.Curves)
	}
	if err := curves.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	resolver := NewIdentityResolver(snapshot, normalizer, s.opts.MatchThreshold, cache.NewStore[Resolution](0), s.logger)
	return &pipeline{
		snapshot: snapshot,
		resolver: resolver,
		roster:   NewRosterService(resolver, snapshot, allocator, normalizer, s.logger),
		teams:    NewTeamService(snapshot, allocator, s.logger),
		scoring:  NewScoringService(snapshot, curves, s.opts.SeasonCutoff, s.logger),
	}, nil
}

// fetch only looks up profiles of athletes the ledger does not know.
func (s *PredictionService) fetch(ctx context.Context, p *pipeline, races []race.Race) (FetchResult, error) {
	if s.fetcher == nil {
		return FetchResult{Startlists: map[int][]startlist.Row{}, Ages: map[string]float64{}}, nil
	}
	return s.fetcher.Fetch(ctx, FetchInput{
		Races: races,
		NeedProfile: func(r race.Race, row startlist.Row) bool {
			return p.resolver.Resolve(ctx, row.Name, row.Nation, r.Gender).Imputed
		},
	})
}

func (s *PredictionService) predictRace(
	ctx context.Context,
	p *pipeline,
	plan WeekendPlan,
	r race.Race,
	fetched FetchResult,
	prices fantasy.PriceList,
) (_ []prediction.Row, err error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.PredictionService.predictRace", raceAttributes(r)...)
	defer func() { endSpan(span, err) }()

	rows, ok := fetched.Startlists[r.Index]
	if !ok {
		rows = plan.Startlists[r.Index]
	}

	entries, err := p.roster.Assemble(ctx, AssembleInput{
		Race:      r,
		Startlist: rows,
		Overrides: plan.Overrides.ForRace(r.Index),
		Prices:    prices,
		Ages:      fetched.Ages,
	})
	if err != nil {
		return nil, fmt.Errorf("assemble race %d: %w", r.Index, err)
	}

	cfg := plan.Scoring[r.Index]
	req := ScoreRequest{
		Race:         r,
		Features:     cfg.Features,
		Coefficients: cfg.Coefficients,
		Level:        cfg.Level,
		Normalize:    cfg.Normalize,
	}

	if r.Discipline.IsTeam() {
		teams, err := p.teams.Aggregate(ctx, entries, r, prices)
		if err != nil {
			return nil, fmt.Errorf("aggregate race %d: %w", r.Index, err)
		}
		scored, err := p.scoring.ScoreTeams(ctx, req, teams)
		if err != nil {
			return nil, fmt.Errorf("score race %d: %w", r.Index, err)
		}
		out := make([]prediction.Row, len(scored))
		for i, t := range scored {
			out[i] = prediction.FromTeam(t)
		}
		return out, nil
	}

	scored, err := p.scoring.ScoreEntries(ctx, req, entries)
	if err != nil {
		return nil, fmt.Errorf("score race %d: %w", r.Index, err)
	}
	out := make([]prediction.Row, len(scored))
	for i, e := range scored {
		out[i] = prediction.FromEntry(e)
	}
	return out, nil
}

// TableName groups races into output tables: one per gender for
// individual races and one per gender for team races.
func TableName(r race.Race) string {
	var name string
	switch r.Gender {
	case athlete.GenderMen:
		name = "men"
	case athlete.GenderWomen:
		name = "ladies"
	default:
		name = "mixed"
	}
	if r.Discipline.IsTeam() {
		name += "_teams"
	}
	return name
}
