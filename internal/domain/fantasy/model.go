package fantasy

import (
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
)

// PriceEntry is one row of the fantasy-game pricing feed.
type PriceEntry struct {
	Name   string
	Price  float64
	Gender athlete.Gender
	Nation string
	IsTeam bool
}

func (p PriceEntry) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("price entry name is required")
	}
	if p.Price < 0 {
		return fmt.Errorf("price entry %s: price must not be negative", p.Name)
	}
	return nil
}

// PriceList splits the feed into individual and team prices.
type PriceList struct {
	Athletes []PriceEntry
	Teams    []PriceEntry
}

func NewPriceList(entries []PriceEntry) PriceList {
	var out PriceList
	for _, e := range entries {
		if e.Validate() != nil {
			continue
		}
		if e.IsTeam {
			out.Teams = append(out.Teams, e)
			continue
		}
		out.Athletes = append(out.Athletes, e)
	}
	return out
}

// AthletesOf returns the individual prices usable in an event of gender g.
func (l PriceList) AthletesOf(g athlete.Gender) []PriceEntry {
	out := make([]PriceEntry, 0, len(l.Athletes))
	for _, e := range l.Athletes {
		if e.Gender == "" || g.Includes(e.Gender) {
			out = append(out, e)
		}
	}
	return out
}

// TeamPrice matches a team entry first by label, then by nation.
func (l PriceList) TeamPrice(label, nationName, nationCode string, g athlete.Gender) (float64, bool) {
	match := func(same func(PriceEntry) bool) (float64, bool) {
		for _, e := range l.Teams {
			if e.Gender != "" && e.Gender != g {
				continue
			}
			if same(e) {
				return e.Price, true
			}
		}
		return 0, false
	}
	if label != "" {
		if p, ok := match(func(e PriceEntry) bool { return strings.EqualFold(strings.TrimSpace(e.Name), strings.TrimSpace(label)) }); ok {
			return p, true
		}
	}
	return match(func(e PriceEntry) bool {
		for _, v := range []string{e.Nation, e.Name} {
			v = strings.TrimSpace(v)
			if v != "" && (strings.EqualFold(v, nationName) || strings.EqualFold(v, nationCode)) {
				return true
			}
		}
		return false
	})
}
