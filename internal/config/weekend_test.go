package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/quota"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/scoring"
)

const weekendYAML = `
season: 2026
host_nation: Norway
host_bonus: 4
races:
  - index: 1
    external_id: "wc-2026-drammen-sprint-m"
    discipline: sprint
    technique: C
    gender: men
    date: "2026-03-05"
    features: [Sprint_C_Elo, Elo]
    coefficients:
      intercept: 0.5
      weights:
        Sprint_C_Elo: 0.002
        Elo: 0.001
  - index: 2
    discipline: Team Sprint
    technique: F
    gender: ladies
    kind: stage
    level: WC
    normalize: true
    startlist:
      - name: DIGGINS Jessie
        nation: USA
        bib: "3-1"
        team: USA 1
quotas:
  - nation: nor
    discipline: sprint
    gender: men
    base: 6
  - nation: Sweden
    discipline: distance
    gender: ladies
    base: 3
overrides:
  - nation: Norway
    name: Erik Valnes
    yes: [1]
    no: [2]
aliases:
  - from: Johannes Klaebo
    to: Johannes Hoesflot Klaebo
curves:
  transform:
    - discipline: sprint
      coefficients: [0, 0.01]
  response:
    - discipline: sprint
      kind: stage
      coefficients: [0, 60, 5]
prices:
  - name: Johannes Hoesflot Klaebo
    price: 25.5
    gender: men
    nation: NOR
`

func writeWeekend(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "weekend.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write weekend file: %v", err)
	}
	return path
}

func TestLoadWeekend(t *testing.T) {
	plan, err := LoadWeekend(writeWeekend(t, weekendYAML))
	require.NoError(t, err)

	assert.Equal(t, 2026, plan.Weekend.Season)
	assert.Equal(t, "Norway", plan.Weekend.HostNation)
	assert.Equal(t, 4, plan.HostBonus)
	require.Len(t, plan.Weekend.Races, 2)

	sprint := plan.Weekend.Races[0]
	assert.Equal(t, race.DisciplineSprint, sprint.Discipline)
	assert.Equal(t, race.TechniqueClassic, sprint.Technique)
	assert.Equal(t, athlete.GenderMen, sprint.Gender)
	assert.Equal(t, race.KindIndividual, sprint.Kind)
	assert.Equal(t, "wc-2026-drammen-sprint-m", sprint.ExternalID)
	assert.Equal(t, time.Date(2026, 3, 5, 0, 0, 0, 0, time.UTC), sprint.Date)

	teamSprint := plan.Weekend.Races[1]
	assert.Equal(t, race.DisciplineTeamSprint, teamSprint.Discipline)
	assert.Equal(t, athlete.GenderWomen, teamSprint.Gender)
	assert.Equal(t, race.KindStage, teamSprint.Kind)

	sprintScoring := plan.Scoring[1]
	assert.Equal(t, []scoring.Feature{"Sprint_C_Elo", "Elo"}, sprintScoring.Features)
	require.NotNil(t, sprintScoring.Coefficients)
	assert.Equal(t, 0.5, sprintScoring.Coefficients.Intercept)
	assert.Equal(t, 0.002, sprintScoring.Coefficients.Weights["Sprint_C_Elo"])

	tsScoring := plan.Scoring[2]
	assert.Nil(t, tsScoring.Coefficients)
	assert.Equal(t, "WC", tsScoring.Level)
	assert.True(t, tsScoring.Normalize)

	require.Len(t, plan.Startlists[2], 1)
	assert.Equal(t, "USA 1", plan.Startlists[2][0].TeamLabel)
	assert.Equal(t, "3-1", plan.Startlists[2][0].Bib)

	assert.Equal(t, 6, plan.Quotas[quota.NewKey("NOR", race.DisciplineSprint, athlete.GenderMen)])
	assert.Equal(t, 3, plan.Quotas[quota.NewKey("SWE", race.DisciplineDistance, athlete.GenderWomen)])
	require.Len(t, plan.Overrides, 1)
	assert.Equal(t, "NOR", plan.Overrides[0].Nation)
	assert.Equal(t, []int{1}, plan.Overrides[0].Yes)
	assert.Equal(t, []int{2}, plan.Overrides[0].No)
	assert.Equal(t, "Johannes Hoesflot Klaebo", plan.Aliases["Johannes Klaebo"])

	assert.Equal(t, scoring.Polynomial{0, 0.01}, plan.Curves.Transform[race.DisciplineSprint])
	assert.Equal(t, scoring.Polynomial{0, 60, 5}, plan.Curves.Response[scoring.NewCurveKey(race.DisciplineSprint, race.KindStage)])

	require.Len(t, plan.Prices, 1)
	assert.Equal(t, 25.5, plan.Prices[0].Price)
	assert.Equal(t, athlete.GenderMen, plan.Prices[0].Gender)
}

func TestLoadWeekend_EnvOverrides(t *testing.T) {
	t.Setenv("WEEKEND_HOST_NATION", "Sweden")
	t.Setenv("WEEKEND_HOST_BONUS", "0")

	plan, err := LoadWeekend(writeWeekend(t, weekendYAML))
	require.NoError(t, err)
	assert.Equal(t, "Sweden", plan.Weekend.HostNation)
	assert.Equal(t, 0, plan.HostBonus)
}

func TestLoadWeekend_DefaultHostBonus(t *testing.T) {
	plan, err := LoadWeekend(writeWeekend(t, `
season: 2026
races:
  - index: 1
    discipline: distance
    gender: women
`))
	require.NoError(t, err)
	assert.Equal(t, quota.DefaultHostBonus, plan.HostBonus)
	assert.Equal(t, race.TechniqueMixed, plan.Weekend.Races[0].Technique)
}

func TestLoadWeekend_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "no races", content: "season: 2026\n"},
		{name: "missing season", content: "races:\n  - index: 1\n    discipline: sprint\n    gender: men\n"},
		{name: "unknown discipline", content: "season: 2026\nraces:\n  - index: 1\n    discipline: biathlon\n    gender: men\n"},
		{name: "unknown gender", content: "season: 2026\nraces:\n  - index: 1\n    discipline: sprint\n    gender: juniors\n"},
		{name: "duplicate index", content: "season: 2026\nraces:\n  - index: 1\n    discipline: sprint\n    gender: men\n  - index: 1\n    discipline: distance\n    gender: men\n"},
		{name: "mixed relay for men", content: "season: 2026\nraces:\n  - index: 1\n    discipline: mixed relay\n    gender: men\n"},
		{name: "bad date", content: "season: 2026\nraces:\n  - index: 1\n    discipline: sprint\n    gender: men\n    date: 5th of March\n"},
		{name: "curve degree", content: "season: 2026\nraces:\n  - index: 1\n    discipline: sprint\n    gender: men\ncurves:\n  response:\n    - discipline: sprint\n      coefficients: [0, 1, 2, 3, 4, 5]\n"},
		{name: "negative host bonus", content: "season: 2026\nhost_bonus: -1\nraces:\n  - index: 1\n    discipline: sprint\n    gender: men\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadWeekend(writeWeekend(t, tc.content))
			if !errors.Is(err, ErrInvalidWeekend) {
				t.Fatalf("expected ErrInvalidWeekend, got %v", err)
			}
		})
	}
}

func TestLoadWeekend_MissingFile(t *testing.T) {
	if _, err := LoadWeekend(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing weekend file")
	}
}
