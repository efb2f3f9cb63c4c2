package ledger

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/nation"
)

const imputationQuantile = 0.25

// Defaults holds the 25th-percentile values used wherever a rating or
// covariate is missing.
type Defaults struct {
	Ratings   athlete.Ratings
	Age       float64
	Exp       float64
	AvgPoints float64
}

type pointsKey struct {
	id       string
	category race.Discipline
}

type pointsAgg struct {
	sum   float64
	count int
}

// Snapshot is the in-memory, read-only view of the ledger for one run.
type Snapshot struct {
	entries       []Entry
	latest        map[string]Entry
	order         []string
	currentSeason int
	nations       *nation.Table
	points        map[pointsKey]pointsAgg
	defaults      map[athlete.Gender]Defaults
}

// NewSnapshot orders entries by (id, date), keeps the latest row per
// athlete and precomputes quartile defaults per gender. Team rows are kept
// for fitting only. An empty ledger is
// fatal for the run and reported as ErrEmpty.
func NewSnapshot(entries []Entry, nations *nation.Table) (*Snapshot, error) {
	if len(entries) == 0 {
		return nil, ErrEmpty
	}
	if nations == nil {
		nations = nation.Default()
	}

	sorted := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Validate() != nil {
			continue
		}
		sorted = append(sorted, e)
	}
	if len(sorted) == 0 {
		return nil, ErrEmpty
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].ID != sorted[j].ID {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})

	s := &Snapshot{
		entries: sorted,
		latest:  make(map[string]Entry),
		nations: nations,
		points:  make(map[pointsKey]pointsAgg),
	}
	for _, e := range sorted {
		if e.Season > s.currentSeason {
			s.currentSeason = e.Season
		}
		if e.IsTeam {
			continue
		}
		if _, seen := s.latest[e.ID]; !seen {
			s.order = append(s.order, e.ID)
		}
		s.latest[e.ID] = e
		if e.Points != nil && !math.IsNaN(*e.Points) {
			key := pointsKey{id: e.ID, category: e.Discipline.Category()}
			agg := s.points[key]
			agg.sum += *e.Points
			agg.count++
			s.points[key] = agg
		}
	}

	s.defaults = map[athlete.Gender]Defaults{
		athlete.GenderMen:   s.computeDefaults(athlete.GenderMen),
		athlete.GenderWomen: s.computeDefaults(athlete.GenderWomen),
		athlete.GenderMixed: s.computeDefaults(athlete.GenderMixed),
	}
	return s, nil
}

func (s *Snapshot) CurrentSeason() int {
	return s.currentSeason
}

func (s *Snapshot) Nations() *nation.Table {
	return s.nations
}

// Entries returns the full ordered history, team rows included; callers
// must not modify it.
func (s *Snapshot) Entries() []Entry {
	return s.entries
}

func (s *Snapshot) Latest(id string) (Entry, bool) {
	e, ok := s.latest[id]
	return e, ok
}

// Athletes returns the canonical athlete for every ledger id whose gender
// is covered by g, missing ratings filled with quartile defaults.
func (s *Snapshot) Athletes(g athlete.Gender) []athlete.Athlete {
	out := make([]athlete.Athlete, 0, len(s.order))
	for _, id := range s.order {
		e := s.latest[id]
		if !g.Includes(e.Gender) {
			continue
		}
		out = append(out, s.toAthlete(e))
	}
	return out
}

// Athlete builds the canonical athlete for a ledger id.
func (s *Snapshot) Athlete(id string) (athlete.Athlete, bool) {
	e, ok := s.latest[id]
	if !ok {
		return athlete.Athlete{}, false
	}
	return s.toAthlete(e), true
}

// CurrentSeasonAthletes is the fallback universe: athletes of gender g with
// at least one ledger row in the current season.
func (s *Snapshot) CurrentSeasonAthletes(g athlete.Gender) []athlete.Athlete {
	out := make([]athlete.Athlete, 0, len(s.order)/2)
	for _, id := range s.order {
		e := s.latest[id]
		if e.Season != s.currentSeason || !g.Includes(e.Gender) {
			continue
		}
		out = append(out, s.toAthlete(e))
	}
	return out
}

// AvgPoints is the mean realized fantasy points of athlete id in races of
// the given category.
func (s *Snapshot) AvgPoints(id string, category race.Discipline) (float64, bool) {
	agg, ok := s.points[pointsKey{id: id, category: category.Category()}]
	if !ok || agg.count == 0 {
		return 0, false
	}
	return agg.sum / float64(agg.count), true
}

func (s *Snapshot) Defaults(g athlete.Gender) Defaults {
	if d, ok := s.defaults[g]; ok {
		return d
	}
	return s.defaults[athlete.GenderMixed]
}

// Placeholder is a synthetic athlete carrying only quartile defaults.
func (s *Snapshot) Placeholder(id, name, nationName string, g athlete.Gender) athlete.Athlete {
	d := s.Defaults(g)
	return athlete.Athlete{
		ID:         id,
		Name:       name,
		Nation:     s.nations.DisplayName(nationName),
		NationCode: s.canonicalNation(nationName),
		Gender:     g,
		Ratings:    d.Ratings.Clone(),
		Age:        d.Age,
		Exp:        d.Exp,
		AvgPoints:  d.AvgPoints,
		Imputed:    true,
	}
}

func (s *Snapshot) toAthlete(e Entry) athlete.Athlete {
	d := s.Defaults(e.Gender)
	ratings := make(athlete.Ratings, len(athlete.Dimensions))
	for _, dim := range athlete.Dimensions {
		v, ok := e.Ratings[dim]
		if !ok || math.IsNaN(v) {
			v = d.Ratings[dim]
		}
		ratings[dim] = v
	}
	age := e.Age
	if age <= 0 || math.IsNaN(age) {
		age = d.Age
	}
	exp := e.Exp
	if math.IsNaN(exp) {
		exp = d.Exp
	}
	return athlete.Athlete{
		ID:         e.ID,
		Name:       e.Name,
		Nation:     s.nations.DisplayName(e.Nation),
		NationCode: s.canonicalNation(e.Nation),
		Gender:     e.Gender,
		Ratings:    ratings,
		Age:        age,
		Exp:        exp,
	}
}

func (s *Snapshot) canonicalNation(v string) string {
	if v == "" {
		return ""
	}
	return s.nations.Canonical(v)
}

// computeDefaults takes the 25th percentile of each column among the
// current-season athletes of gender g, falling back to every athlete of g
// and then to the whole ledger when a column has no values.
func (s *Snapshot) computeDefaults(g athlete.Gender) Defaults {
	pools := [][]Entry{
		s.latestWhere(func(e Entry) bool { return e.Season == s.currentSeason && g.Includes(e.Gender) }),
		s.latestWhere(func(e Entry) bool { return g.Includes(e.Gender) }),
		s.latestWhere(func(Entry) bool { return true }),
	}

	d := Defaults{Ratings: make(athlete.Ratings, len(athlete.Dimensions))}
	for _, dim := range athlete.Dimensions {
		d.Ratings[dim] = firstQuartile(pools, func(e Entry) (float64, bool) {
			v, ok := e.Ratings[dim]
			return v, ok
		})
	}
	d.Age = firstQuartile(pools, func(e Entry) (float64, bool) { return e.Age, e.Age > 0 })
	d.Exp = firstQuartile(pools, func(e Entry) (float64, bool) { return e.Exp, true })

	var avgs []float64
	for key, agg := range s.points {
		e, ok := s.latest[key.id]
		if !ok || !g.Includes(e.Gender) || agg.count == 0 {
			continue
		}
		avgs = append(avgs, agg.sum/float64(agg.count))
	}
	d.AvgPoints = Quartile(avgs)
	return d
}

func (s *Snapshot) latestWhere(keep func(Entry) bool) []Entry {
	out := make([]Entry, 0, len(s.order))
	for _, id := range s.order {
		if e := s.latest[id]; keep(e) {
			out = append(out, e)
		}
	}
	return out
}

func firstQuartile(pools [][]Entry, value func(Entry) (float64, bool)) float64 {
	for _, pool := range pools {
		values := make([]float64, 0, len(pool))
		for _, e := range pool {
			v, ok := value(e)
			if !ok || math.IsNaN(v) {
				continue
			}
			values = append(values, v)
		}
		if len(values) > 0 {
			return Quartile(values)
		}
	}
	return 0
}

// Quartile returns the empirical 25th percentile of values, or 0 when
// there are none. values is not modified.
func Quartile(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return stat.Quantile(imputationQuantile, stat.Empirical, sorted, nil)
}
