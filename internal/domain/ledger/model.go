package ledger

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
)

var ErrEmpty = errors.New("rating ledger is empty")

// Entry is one (athlete, date) row of the rating ledger. Race context, Home
// and Points are only present on rows that record a race result; they feed
// model fitting and the average-points proxy. IsTeam rows record a team
// result with the team's aggregated ratings and never describe an athlete.
type Entry struct {
	ID         string
	Name       string
	Nation     string
	Gender     athlete.Gender
	Season     int
	Date       time.Time
	Age        float64
	Exp        float64
	Ratings    athlete.Ratings
	Discipline race.Discipline
	Technique  race.Technique
	Level      string
	Home       bool
	IsTeam     bool
	Points     *float64
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return fmt.Errorf("ledger entry id is required")
	}
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Errorf("ledger entry %s: name is required", e.ID)
	}
	if e.Date.IsZero() {
		return fmt.Errorf("ledger entry %s: date is required", e.ID)
	}
	return nil
}

func (e Entry) HasPoints() bool {
	return e.Points != nil
}
