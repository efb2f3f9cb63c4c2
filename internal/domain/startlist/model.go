package startlist

import (
	"context"
	"strings"
	"time"
)

// Row is one scraped start list line. Individual events carry Name and
// Nation; team events also carry TeamLabel and a "{team}-{leg}" Bib.
type Row struct {
	Name      string
	Nation    string
	Bib       string
	TeamLabel string
	ProfileID string
}

func (r Row) IsEmpty() bool {
	return strings.TrimSpace(r.Name) == "" && strings.TrimSpace(r.TeamLabel) == ""
}

// Profile is the per-athlete metadata page of the race-data site.
type Profile struct {
	ID        string
	Name      string
	BirthDate time.Time
}

// AgeAt returns the age in whole years on date, or 0 without a birth date.
func (p Profile) AgeAt(date time.Time) float64 {
	if p.BirthDate.IsZero() || date.IsZero() {
		return 0
	}
	years := date.Year() - p.BirthDate.Year()
	if date.Month() < p.BirthDate.Month() || (date.Month() == p.BirthDate.Month() && date.Day() < p.BirthDate.Day()) {
		years--
	}
	return float64(max(years, 0))
}

// Source is the race-data provider delivering start lists and profiles.
type Source interface {
	GetStartlist(ctx context.Context, raceID string) ([]Row, error)
	GetProfile(ctx context.Context, profileID string) (Profile, error)
}
