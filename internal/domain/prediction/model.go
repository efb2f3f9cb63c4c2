package prediction

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/team"
)

// Row is one athlete or team of the consolidated weekend table.
type Row struct {
	Key           string
	ID            string
	Name          string
	Nation        string
	NationCode    string
	Gender        athlete.Gender
	Price         float64
	HasPrice      bool
	Probabilities map[int]roster.Probability
	Points        map[int]float64
	Combined      float64
	Place         int
	Imputed       bool
	Provenance    roster.Provenance
	Quota         int
	IsHostNation  bool
	IsTeam        bool
	Members       []string
}

// Probability returns the race column value; absent columns are Unknown.
func (r Row) Probability(raceIndex int) roster.Probability {
	if p, ok := r.Probabilities[raceIndex]; ok {
		return p
	}
	return roster.Unknown
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := r
	out.Probabilities = make(map[int]roster.Probability, len(r.Probabilities))
	for k, v := range r.Probabilities {
		out.Probabilities[k] = v
	}
	out.Points = make(map[int]float64, len(r.Points))
	for k, v := range r.Points {
		out.Points[k] = v
	}
	out.Members = append([]string(nil), r.Members...)
	return out
}

// FromEntry converts a scored roster entry into a single-race row.
func FromEntry(e roster.Entry) Row {
	return Row{
		Key:           e.Key(),
		ID:            e.Athlete.ID,
		Name:          e.Athlete.Name,
		Nation:        e.Athlete.Nation,
		NationCode:    e.Athlete.NationCode,
		Gender:        e.Athlete.Gender,
		Price:         e.Price,
		HasPrice:      e.HasPrice,
		Probabilities: map[int]roster.Probability{e.RaceIndex: e.Probability},
		Points:        map[int]float64{e.RaceIndex: e.Points},
		Imputed:       e.Athlete.Imputed,
		Provenance:    e.Provenance,
		Quota:         e.Quota,
		IsHostNation:  e.IsHostNation,
	}
}

// FromTeam converts a scored team into a single-race row listing members by leg.
func FromTeam(t team.Team) Row {
	members := make([]string, len(t.Members))
	for i, m := range t.Members {
		members[i] = m.Entry.Athlete.Name
	}
	return Row{
		Key:           t.Key(),
		ID:            t.Key(),
		Name:          t.Label,
		Nation:        t.Nation,
		NationCode:    t.NationCode,
		Gender:        t.Gender,
		Price:         t.Price,
		HasPrice:      t.HasPrice,
		Probabilities: map[int]roster.Probability{t.RaceIndex: t.Probability},
		Points:        map[int]float64{t.RaceIndex: t.Points},
		Imputed:       t.Imputed(),
		Provenance:    t.Provenance,
		Quota:         t.Quota,
		IsHostNation:  t.IsHostNation,
		IsTeam:        true,
		Members:       members,
	}
}

// Table is the consolidated output for a group of races.
type Table struct {
	Name  string
	Races []int
	Rows  []Row
}

// NewTable builds a single-race table; later rows with a key already seen
// are dropped.
func NewTable(name string, raceIndex int, rows []Row) Table {
	t := Table{Name: name, Races: []int{raceIndex}, Rows: make([]Row, 0, len(rows))}
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		if _, dup := seen[r.Key]; dup {
			continue
		}
		seen[r.Key] = struct{}{}
		t.Rows = append(t.Rows, r.Clone())
	}
	return t
}

func (t Table) Find(key string) (Row, bool) {
	for _, r := range t.Rows {
		if r.Key == key {
			return r, true
		}
	}
	return Row{}, false
}

func (t Table) HasRace(raceIndex int) bool {
	for _, r := range t.Races {
		if r == raceIndex {
			return true
		}
	}
	return false
}

func ProbabilityColumn(raceIndex int) string {
	return "prob_" + strconv.Itoa(raceIndex)
}

func PointsColumn(raceIndex int) string {
	return "points_" + strconv.Itoa(raceIndex)
}

// Merge folds the raceIndex column of incoming into existing. Shared rows
// only get that race's probability and points overwritten; rows new to the
// table are appended carrying just that race. Merging the same race twice
// yields the same table.
func Merge(existing, incoming Table, raceIndex int) Table {
	out := Table{
		Name:  existing.Name,
		Races: append([]int(nil), existing.Races...),
		Rows:  make([]Row, 0, len(existing.Rows)+len(incoming.Rows)),
	}
	if out.Name == "" {
		out.Name = incoming.Name
	}
	if !out.HasRace(raceIndex) {
		out.Races = append(out.Races, raceIndex)
		sort.Ints(out.Races)
	}

	index := make(map[string]int, len(existing.Rows))
	for _, r := range existing.Rows {
		index[r.Key] = len(out.Rows)
		out.Rows = append(out.Rows, r.Clone())
	}

	for _, in := range incoming.Rows {
		prob := in.Probability(raceIndex)
		points := in.Points[raceIndex]
		if i, ok := index[in.Key]; ok {
			out.Rows[i].Probabilities[raceIndex] = prob
			out.Rows[i].Points[raceIndex] = points
			continue
		}
		row := in.Clone()
		row.Probabilities = map[int]roster.Probability{raceIndex: prob}
		row.Points = map[int]float64{raceIndex: points}
		row.Combined = 0
		row.Place = 0
		index[row.Key] = len(out.Rows)
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Rank computes combined points and places. Races where the row is a
// confirmed non-starter contribute nothing; Unknown probabilities still
// count. Places are dense from 1 and only assigned to positive totals.
func Rank(t Table) Table {
	out := Table{Name: t.Name, Races: append([]int(nil), t.Races...), Rows: make([]Row, len(t.Rows))}
	for i, r := range t.Rows {
		row := r.Clone()
		row.Combined = 0
		for _, race := range out.Races {
			if row.Probability(race).IsKnownZero() {
				continue
			}
			row.Combined += row.Points[race]
		}
		row.Place = 0
		out.Rows[i] = row
	}

	sort.SliceStable(out.Rows, func(i, j int) bool {
		if out.Rows[i].Combined != out.Rows[j].Combined {
			return out.Rows[i].Combined > out.Rows[j].Combined
		}
		return out.Rows[i].Name < out.Rows[j].Name
	})

	place := 0
	var last float64
	for i := range out.Rows {
		if out.Rows[i].Combined <= 0 {
			break
		}
		if place == 0 || out.Rows[i].Combined != last {
			place++
			last = out.Rows[i].Combined
		}
		out.Rows[i].Place = place
	}
	return out
}

func (t Table) Validate() error {
	seen := make(map[string]struct{}, len(t.Rows))
	for _, r := range t.Rows {
		if r.Key == "" {
			return fmt.Errorf("table %s: row %q has no key", t.Name, r.Name)
		}
		if _, dup := seen[r.Key]; dup {
			return fmt.Errorf("table %s: duplicate row %s", t.Name, r.Key)
		}
		seen[r.Key] = struct{}{}
	}
	return nil
}
