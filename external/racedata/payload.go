package racedata

import (
	"strconv"
	"strings"
	"time"
)

type startlistItem struct {
	Name      string     `json:"name"`
	Nation    string     `json:"nation"`
	Bib       flexString `json:"bib"`
	Team      string     `json:"team"`
	ProfileID flexString `json:"profile_id"`
}

type profileItem struct {
	ID        flexString `json:"id"`
	Name      string     `json:"name"`
	BirthDate string     `json:"birth_date"`
}

// flexString accepts a JSON string or number; the scraper emits bibs and
// ids either way depending on the source page.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))
	if raw == "null" || raw == "" {
		*f = ""
		return nil
	}
	if unquoted, err := strconv.Unquote(raw); err == nil {
		*f = flexString(unquoted)
		return nil
	}
	*f = flexString(raw)
	return nil
}

func (f flexString) String() string {
	return string(f)
}

var birthDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"02.01.2006",
	"2006",
}

func parseBirthDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range birthDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
