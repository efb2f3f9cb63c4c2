package usecase

import (
	"context"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/cache"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/similarity"
)

const DefaultMatchThreshold = 80

// Resolution is the outcome of matching one input name. It always carries an
// athlete: a ledger athlete, or a quartile-imputed one when nothing matched.
type Resolution struct {
	Athlete    athlete.Athlete
	Confidence int
	Imputed    bool
}

type ResolverStats struct {
	Exact     int64
	Fuzzy     int64
	Imputed   int64
	CacheHits int64
}

type indexedAthlete struct {
	key     string
	athlete athlete.Athlete
}

// IdentityResolver maps names from the start lists, override lists and the
// pricing feed onto ledger athletes. It is built per run over one snapshot.
type IdentityResolver struct {
	snapshot   *ledger.Snapshot
	normalizer *athlete.Normalizer
	threshold  int
	cache      *cache.Store[Resolution]
	logger     *logging.Logger

	athletes []indexedAthlete
	keys     []string
	byKey    map[string][]int

	exact   atomic.Int64
	fuzzy   atomic.Int64
	imputed atomic.Int64
}

func NewIdentityResolver(
	snapshot *ledger.Snapshot,
	normalizer *athlete.Normalizer,
	threshold int,
	store *cache.Store[Resolution],
	logger *logging.Logger,
) *IdentityResolver {
	if normalizer == nil {
		normalizer = athlete.NewNormalizer()
	}
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultMatchThreshold
	}
	if store == nil {
		store = cache.NewStore[Resolution](0)
	}
	if logger == nil {
		logger = logging.Default()
	}

	r := &IdentityResolver{
		snapshot:   snapshot,
		normalizer: normalizer,
		threshold:  threshold,
		cache:      store,
		logger:     logger,
		byKey:      make(map[string][]int),
	}
	for _, a := range snapshot.Athletes(athlete.GenderMixed) {
		key := normalizer.Normalize(a.Name)
		if key == "" {
			continue
		}
		r.athletes = append(r.athletes, indexedAthlete{key: key, athlete: a})
	}
	sort.SliceStable(r.athletes, func(i, j int) bool {
		if r.athletes[i].key != r.athletes[j].key {
			return r.athletes[i].key < r.athletes[j].key
		}
		return r.athletes[i].athlete.ID < r.athletes[j].athlete.ID
	})
	r.keys = make([]string, len(r.athletes))
	for i, a := range r.athletes {
		r.keys[i] = a.key
		r.byKey[a.key] = append(r.byKey[a.key], i)
	}
	return r
}

// Resolve never fails: exact match on the normalized name, then token-sort
// similarity above the threshold, then imputation. Only athletes that may
// start an event of gender g are considered; a nation hint breaks ties.
func (r *IdentityResolver) Resolve(ctx context.Context, name, nationHint string, g athlete.Gender) Resolution {
	key := r.normalizer.Normalize(name)
	nationCode := ""
	if strings.TrimSpace(nationHint) != "" {
		nationCode = r.snapshot.Nations().Canonical(nationHint)
	}

	cacheKey := "resolve:" + string(g) + ":" + nationCode + ":" + key
	if res, ok := r.cache.Get(ctx, cacheKey); ok {
		return res
	}

	res := r.resolve(ctx, name, key, nationHint, nationCode, g)
	r.cache.Set(ctx, cacheKey, res)
	return res
}

func (r *IdentityResolver) resolve(ctx context.Context, raw, key, nationHint, nationCode string, g athlete.Gender) Resolution {
	if key != "" {
		if idx, ok := r.pick(r.byKey[key], nationCode, g); ok {
			r.exact.Add(1)
			return Resolution{Athlete: r.athletes[idx].athlete, Confidence: 100}
		}

		matches := similarity.Above(key, r.keys, r.threshold)
		indexes := make([]int, len(matches))
		scores := make(map[int]int, len(matches))
		for i, m := range matches {
			indexes[i] = m.Index
			scores[m.Index] = m.Score
		}
		if idx, ok := r.pick(indexes, nationCode, g); ok {
			r.fuzzy.Add(1)
			r.logger.DebugContext(ctx, "fuzzy identity match",
				"input", raw,
				"matched", r.athletes[idx].athlete.Name,
				"score", scores[idx],
			)
			return Resolution{Athlete: r.athletes[idx].athlete, Confidence: scores[idx]}
		}
	}

	r.imputed.Add(1)
	imputedAthlete := r.snapshot.Placeholder(athlete.ImputedID(key), r.normalizer.Display(raw), nationHint, g)
	r.logger.InfoContext(ctx, "athlete not in ledger, imputing quartile ratings",
		"input", raw,
		"nation", nationCode,
		"gender", string(g),
	)
	return Resolution{Athlete: imputedAthlete, Confidence: 0, Imputed: true}
}

// pick chooses among candidate indexes (best first). With a nation hint the
// best candidate from that nation wins; otherwise the best overall.
func (r *IdentityResolver) pick(candidates []int, nationCode string, g athlete.Gender) (int, bool) {
	best, found := -1, false
	for _, idx := range candidates {
		a := r.athletes[idx].athlete
		if !g.Includes(a.Gender) {
			continue
		}
		if nationCode != "" && a.NationCode == nationCode {
			if !found || r.athletes[best].athlete.NationCode != nationCode {
				best, found = idx, true
			}
			continue
		}
		if !found {
			best, found = idx, true
		}
	}
	return best, found
}

func (r *IdentityResolver) Stats() ResolverStats {
	return ResolverStats{
		Exact:     r.exact.Load(),
		Fuzzy:     r.fuzzy.Load(),
		Imputed:   r.imputed.Load(),
		CacheHits: r.cache.Stats().Hits,
	}
}
