package team

import (
	"fmt"
	"strconv"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
)

// Member is one leg of a team. Placeholder members fill legs nobody was
// parsed for and carry quartile ratings with zero price.
type Member struct {
	Leg         int
	Entry       roster.Entry
	Placeholder bool
}

// Team is a fixed-size national team in one team race. ID is the team part
// of the bibs and may change between races; Slot is the team's position
// among its nation's teams and stays stable across a weekend.
type Team struct {
	ID           string
	Slot         int
	Label        string
	Nation       string
	NationCode   string
	Gender       athlete.Gender
	Discipline   race.Discipline
	RaceIndex    int
	Members      []Member
	Ratings      athlete.Ratings
	Age          float64
	Exp          float64
	AvgPoints    float64
	Price        float64
	HasPrice     bool
	Probability  roster.Probability
	Provenance   roster.Provenance
	Quota        int
	IsHostNation bool
	Projected    bool
	Points       float64
}

// Key identifies a team across the races of a weekend.
func Key(nationCode string, slot int) string {
	if slot < 1 {
		slot = 1
	}
	return "team:" + nationCode + ":" + strconv.Itoa(slot)
}

func (t Team) Key() string {
	return Key(t.NationCode, t.Slot)
}

// Imputed reports whether any leg is a placeholder.
func (t Team) Imputed() bool {
	for _, m := range t.Members {
		if m.Placeholder || m.Entry.Athlete.Imputed {
			return true
		}
	}
	return false
}

func (t Team) Validate() error {
	legs := t.Discipline.Legs()
	if legs == 0 {
		return fmt.Errorf("team %s: discipline %s is not a team event", t.ID, t.Discipline)
	}
	if len(t.Members) != legs {
		return fmt.Errorf("team %s: expected %d members, got %d", t.ID, legs, len(t.Members))
	}
	seen := make(map[int]struct{}, legs)
	for _, m := range t.Members {
		if m.Leg < 1 || m.Leg > legs {
			return fmt.Errorf("team %s: leg %d out of range", t.ID, m.Leg)
		}
		if _, dup := seen[m.Leg]; dup {
			return fmt.Errorf("team %s: duplicate leg %d", t.ID, m.Leg)
		}
		seen[m.Leg] = struct{}{}
	}
	return nil
}

// Aggregate fills the team totals from its members. Each member rating is
// divided by the discipline's divisor before summing; age, experience and
// average points are member means.
func (t *Team) Aggregate() {
	divisor := t.Discipline.RatingDivisor()
	t.Ratings = make(athlete.Ratings, len(athlete.Dimensions))
	for _, dim := range athlete.Dimensions {
		var sum float64
		for _, m := range t.Members {
			sum += m.Entry.Athlete.Ratings[dim] / divisor
		}
		t.Ratings[dim] = sum
	}

	if len(t.Members) == 0 {
		return
	}
	var age, exp, avg float64
	for _, m := range t.Members {
		age += m.Entry.Athlete.Age
		exp += m.Entry.Athlete.Exp
		avg += m.Entry.Athlete.AvgPoints
	}
	n := float64(len(t.Members))
	t.Age = age / n
	t.Exp = exp / n
	t.AvgPoints = avg / n
}

// Athlete presents the team as a single scoring subject.
func (t Team) Athlete() athlete.Athlete {
	return athlete.Athlete{
		ID:         t.Key(),
		Name:       t.Label,
		Nation:     t.Nation,
		NationCode: t.NationCode,
		Gender:     t.Gender,
		Ratings:    t.Ratings,
		Age:        t.Age,
		Exp:        t.Exp,
		AvgPoints:  t.AvgPoints,
		Imputed:    t.Imputed(),
	}
}
