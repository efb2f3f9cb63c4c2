package team

import (
	"strconv"
	"strings"
)

// Bib is the parsed form of a "{team}-{leg}" descriptor: either Parsed or
// Malformed.
type Bib interface {
	bib()
}

type Parsed struct {
	TeamID string
	Leg    int
}

// Malformed keeps whatever team id could still be read so the entry can be
// grouped before a leg is assigned.
type Malformed struct {
	TeamID string
	Raw    string
}

func (Parsed) bib()    {}
func (Malformed) bib() {}

// ParseBib splits on the last '-', so team ids may themselves contain dashes.
func ParseBib(raw string) Bib {
	raw = strings.TrimSpace(raw)
	teamID, legPart, found := cutLast(raw, "-")
	if !found {
		return Malformed{TeamID: raw, Raw: raw}
	}
	teamID = strings.TrimSpace(teamID)
	leg, err := strconv.Atoi(strings.TrimSpace(legPart))
	if err != nil || leg < 1 || teamID == "" {
		return Malformed{TeamID: teamID, Raw: raw}
	}
	return Parsed{TeamID: teamID, Leg: leg}
}

func cutLast(s, sep string) (before, after string, found bool) {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

// LegAllocator hands out leg numbers for one team. Parsed legs are claimed
// first; the rest are assigned by a counter that only moves forward and
// skips claimed legs.
type LegAllocator struct {
	legs int
	used map[int]bool
	next int
}

func NewLegAllocator(legs int) *LegAllocator {
	return &LegAllocator{legs: legs, used: make(map[int]bool, legs), next: 1}
}

// Claim reserves a parsed leg. It fails for out-of-range or taken legs.
func (a *LegAllocator) Claim(leg int) bool {
	if leg < 1 || leg > a.legs || a.used[leg] {
		return false
	}
	a.used[leg] = true
	return true
}

// Next assigns the next unused leg; false once the team is full.
func (a *LegAllocator) Next() (int, bool) {
	for a.next <= a.legs && a.used[a.next] {
		a.next++
	}
	if a.next > a.legs {
		return 0, false
	}
	leg := a.next
	a.used[leg] = true
	a.next++
	return leg, true
}

// Free lists the legs nobody claimed, ascending.
func (a *LegAllocator) Free() []int {
	out := make([]int, 0, a.legs)
	for leg := 1; leg <= a.legs; leg++ {
		if !a.used[leg] {
			out = append(out, leg)
		}
	}
	return out
}
