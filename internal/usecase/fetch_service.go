package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/sourcegraph/conc"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/startlist"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/cache"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/resilience"
)

const (
	defaultFetchWorkers = 4
	maxFetchWorkers     = 16
)

type FetchConfig struct {
	Workers  int
	MinDelay time.Duration
	Retry    resilience.RetryPolicy
}

// ProfileFilter decides whether a start list row needs its profile fetched.
// A nil filter fetches every row that carries a profile id.
type ProfileFilter func(r race.Race, row startlist.Row) bool

type FetchInput struct {
	Races       []race.Race
	NeedProfile ProfileFilter
}

// FetchResult is everything gathered from the outside world for one
// weekend. Failed units are already logged and only counted here.
type FetchResult struct {
	Startlists map[int][]startlist.Row
	Prices     fantasy.PriceList
	// Ages maps normalized athlete names to their age on race day.
	Ages map[string]float64

	StartlistsFetched int
	ProfilesFetched   int
	Failed            int
	Skipped           int
}

type FetchService struct {
	source     startlist.Source
	prices     fantasy.PriceFeed
	normalizer *athlete.Normalizer
	limiter    *resilience.RateLimiter
	retry      resilience.RetryPolicy
	workers    int
	profiles   *cache.Store[startlist.Profile]
	now        func() time.Time
	logger     *logging.Logger
}

func NewFetchService(
	source startlist.Source,
	prices fantasy.PriceFeed,
	normalizer *athlete.Normalizer,
	cfg FetchConfig,
	logger *logging.Logger,
) *FetchService {
	if normalizer == nil {
		normalizer = athlete.NewNormalizer()
	}
	if cfg.Retry.Attempts <= 0 {
		cfg.Retry = resilience.DefaultRetryPolicy()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FetchService{
		source:     source,
		prices:     prices,
		normalizer: normalizer,
		limiter:    resilience.NewRateLimiter(cfg.MinDelay),
		retry:      cfg.Retry,
		workers:    cfg.Workers,
		profiles:   cache.NewStore[startlist.Profile](0),
		now:        time.Now,
		logger:     logger,
	}
}

type startlistResult struct {
	race race.Race
	rows []startlist.Row
	err  error
}

type profileTask struct {
	race race.Race
	row  startlist.Row
}

// Fetch pulls the pricing feed and every race's start list concurrently,
// then the profiles of the rows the filter selects. No failure of a single
// unit fails the weekend.
func (s *FetchService) Fetch(ctx context.Context, input FetchInput) (FetchResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.FetchService.Fetch")
	defer span.End()

	result := FetchResult{
		Startlists: make(map[int][]startlist.Row, len(input.Races)),
		Ages:       make(map[string]float64),
	}

	var (
		wg         conc.WaitGroup
		prices     fantasy.PriceList
		priceErr   error
		lists      []startlistResult
		listErr    error
		failed     atomic.Int32
		skipped    atomic.Int32
		listedRace atomic.Int32
	)
	wg.Go(func() {
		prices, priceErr = s.fetchPrices(ctx)
	})
	wg.Go(func() {
		lists, listErr = s.fetchStartlists(ctx, input.Races, &failed, &skipped, &listedRace)
	})
	wg.Wait()

	if listErr != nil {
		return FetchResult{}, listErr
	}
	if priceErr != nil {
		failed.Add(1)
		s.logger.WarnContext(ctx, "pricing feed unavailable, continuing without prices", "error", priceErr)
	}
	result.Prices = prices

	var tasks []profileTask
	for _, l := range lists {
		if l.err != nil {
			continue
		}
		result.Startlists[l.race.Index] = l.rows
		for _, row := range l.rows {
			if strings.TrimSpace(row.ProfileID) == "" || strings.TrimSpace(row.Name) == "" {
				continue
			}
			if input.NeedProfile != nil && !input.NeedProfile(l.race, row) {
				continue
			}
			tasks = append(tasks, profileTask{race: l.race, row: row})
		}
	}

	ages, fetched, err := s.fetchProfiles(ctx, tasks, &failed)
	if err != nil {
		return FetchResult{}, err
	}
	result.Ages = ages
	result.ProfilesFetched = fetched
	result.StartlistsFetched = int(listedRace.Load())
	result.Failed = int(failed.Load())
	result.Skipped = int(skipped.Load())

	s.logger.InfoContext(ctx, "weekend inputs fetched",
		"races", len(input.Races),
		"startlists", result.StartlistsFetched,
		"profiles", result.ProfilesFetched,
		"prices", len(prices.Athletes)+len(prices.Teams),
		"failed", result.Failed,
		"skipped", result.Skipped,
	)
	return result, nil
}

func (s *FetchService) fetchPrices(ctx context.Context) (fantasy.PriceList, error) {
	if s.prices == nil {
		return fantasy.PriceList{}, nil
	}
	var entries []fantasy.PriceEntry
	err := s.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return resilience.Permanent(err)
		}
		out, err := s.prices.ListPrices(ctx)
		if err != nil {
			s.logger.DebugContext(ctx, "pricing feed attempt failed", "attempt", attempt, "error", err)
			return err
		}
		entries = out
		return nil
	})
	if err != nil {
		return fantasy.PriceList{}, fmt.Errorf("%w: list prices: %v", ErrDependencyUnavailable, err)
	}
	return fantasy.NewPriceList(entries), nil
}

func (s *FetchService) fetchStartlists(
	ctx context.Context,
	races []race.Race,
	failed, skipped, fetched *atomic.Int32,
) ([]startlistResult, error) {
	if s.source == nil || len(races) == 0 {
		return nil, nil
	}

	pool, err := ants.NewPool(normalizeFetchWorkers(s.workers, len(races)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	results := make(chan startlistResult, len(races))
	var workers sync.WaitGroup
	for _, r := range races {
		if strings.TrimSpace(r.ExternalID) == "" {
			skipped.Add(1)
			s.logger.DebugContext(ctx, "race has no external id, start list skipped", "race", r.Index)
			continue
		}
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			rows, err := s.fetchStartlist(ctx, r.ExternalID)
			if err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "start list unavailable, race uses fallback roster",
					"race", r.Index,
					"external_id", r.ExternalID,
					"error", err,
				)
			} else {
				fetched.Add(1)
			}
			results <- startlistResult{race: r, rows: rows, err: err}
		}); err != nil {
			workers.Done()
			return nil, fmt.Errorf("submit start list fetch to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	out := make([]startlistResult, 0, len(races))
	for res := range results {
		out = append(out, res)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].race.Index < out[j].race.Index })
	return out, nil
}

func (s *FetchService) fetchStartlist(ctx context.Context, raceID string) ([]startlist.Row, error) {
	var rows []startlist.Row
	err := s.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return resilience.Permanent(err)
		}
		out, err := s.source.GetStartlist(ctx, raceID)
		if err != nil {
			return err
		}
		rows = out
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: start list %s: %v", ErrDependencyUnavailable, raceID, err)
	}

	kept := make([]startlist.Row, 0, len(rows))
	for _, row := range rows {
		if row.IsEmpty() {
			continue
		}
		kept = append(kept, row)
	}
	return kept, nil
}

func (s *FetchService) fetchProfiles(ctx context.Context, tasks []profileTask, failed *atomic.Int32) (map[string]float64, int, error) {
	ages := make(map[string]float64, len(tasks))
	if len(tasks) == 0 {
		return ages, 0, nil
	}

	pool, err := ants.NewPool(normalizeFetchWorkers(s.workers, len(tasks)))
	if err != nil {
		return nil, 0, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var (
		mu      sync.Mutex
		workers sync.WaitGroup
		fetched atomic.Int32
	)
	for _, task := range tasks {
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			profile, err := s.profiles.GetOrLoad(ctx, "profile:"+task.row.ProfileID, func(ctx context.Context) (startlist.Profile, error) {
				return s.fetchProfile(ctx, task.row.ProfileID)
			})
			if err != nil {
				failed.Add(1)
				s.logger.WarnContext(ctx, "athlete profile unavailable, age imputed",
					"athlete", task.row.Name,
					"profile_id", task.row.ProfileID,
					"error", err,
				)
				return
			}
			fetched.Add(1)

			date := task.race.Date
			if date.IsZero() {
				date = s.now()
			}
			age := profile.AgeAt(date)
			if age <= 0 {
				return
			}
			key := s.normalizer.Normalize(task.row.Name)
			mu.Lock()
			ages[key] = age
			mu.Unlock()
		}); err != nil {
			workers.Done()
			return nil, 0, fmt.Errorf("submit profile fetch to worker pool: %w", err)
		}
	}
	workers.Wait()
	return ages, int(fetched.Load()), nil
}

func (s *FetchService) fetchProfile(ctx context.Context, profileID string) (startlist.Profile, error) {
	var profile startlist.Profile
	err := s.retry.Do(ctx, func(ctx context.Context, attempt int) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return resilience.Permanent(err)
		}
		out, err := s.source.GetProfile(ctx, profileID)
		if err != nil {
			return err
		}
		profile = out
		return nil
	})
	if err != nil {
		return startlist.Profile{}, fmt.Errorf("%w: profile %s: %v", ErrDependencyUnavailable, profileID, err)
	}
	return profile, nil
}

func normalizeFetchWorkers(requested, tasks int) int {
	if requested <= 0 {
		requested = defaultFetchWorkers
	}
	if requested > maxFetchWorkers {
		requested = maxFetchWorkers
	}
	if tasks > 0 && requested > tasks {
		requested = tasks
	}
	return requested
}
