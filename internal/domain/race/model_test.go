package race

import (
	"testing"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
)

func TestDiscipline_TeamShape(t *testing.T) {
	tests := []struct {
		d       Discipline
		legs    int
		divisor float64
		cat     Discipline
	}{
		{DisciplineSprint, 0, 1, DisciplineSprint},
		{DisciplineDistance, 0, 1, DisciplineDistance},
		{DisciplineTeamSprint, 2, 2, DisciplineSprint},
		{DisciplineMixedTeamSprint, 2, 2, DisciplineSprint},
		{DisciplineRelay, 4, 1, DisciplineDistance},
		{DisciplineMixedRelay, 4, 1, DisciplineDistance},
	}
	for _, tt := range tests {
		if got := tt.d.Legs(); got != tt.legs {
			t.Fatalf("%s legs = %d, want %d", tt.d, got, tt.legs)
		}
		if got := tt.d.RatingDivisor(); got != tt.divisor {
			t.Fatalf("%s divisor = %v, want %v", tt.d, got, tt.divisor)
		}
		if got := tt.d.Category(); got != tt.cat {
			t.Fatalf("%s category = %s, want %s", tt.d, got, tt.cat)
		}
	}
}

func TestRace_PrimaryDimension(t *testing.T) {
	r := Race{Discipline: DisciplineTeamSprint, Technique: TechniqueClassic}
	if got := r.PrimaryDimension(); got != athlete.DimSprintClassic {
		t.Fatalf("unexpected primary dimension %s", got)
	}
	r = Race{Discipline: DisciplineDistance, Technique: TechniqueMixed}
	if got := r.PrimaryDimension(); got != athlete.DimDistanceElo {
		t.Fatalf("unexpected primary dimension %s", got)
	}
}

func TestWeekend_Validate(t *testing.T) {
	ok := Weekend{Races: []Race{
		{Index: 1, Discipline: DisciplineSprint, Gender: athlete.GenderMen},
		{Index: 2, Discipline: DisciplineMixedRelay, Gender: athlete.GenderMixed},
	}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("expected valid weekend: %v", err)
	}

	dup := Weekend{Races: []Race{
		{Index: 1, Discipline: DisciplineSprint, Gender: athlete.GenderMen},
		{Index: 1, Discipline: DisciplineDistance, Gender: athlete.GenderWomen},
	}}
	if err := dup.Validate(); err == nil {
		t.Fatalf("expected duplicate index error")
	}

	mixed := Weekend{Races: []Race{{Index: 1, Discipline: DisciplineMixedRelay, Gender: athlete.GenderMen}}}
	if err := mixed.Validate(); err == nil {
		t.Fatalf("expected mixed gender error")
	}

	if err := (Weekend{}).Validate(); err == nil {
		t.Fatalf("expected empty weekend error")
	}
}

func TestParseKindAndTechnique(t *testing.T) {
	if k, err := ParseKind(""); err != nil || k != KindIndividual {
		t.Fatalf("empty kind should default to individual, got %s %v", k, err)
	}
	if _, err := ParseKind("marathon"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if tech, err := ParseTechnique("skate"); err != nil || tech != TechniqueFreestyle {
		t.Fatalf("unexpected technique %q %v", tech, err)
	}
}

func TestParseDiscipline(t *testing.T) {
	tests := []struct {
		in   string
		want Discipline
	}{
		{"Sprint", DisciplineSprint},
		{"distance", DisciplineDistance},
		{"Team Sprint", DisciplineTeamSprint},
		{"TS", DisciplineTeamSprint},
		{"Rel", DisciplineRelay},
		{"mixed-relay", DisciplineMixedRelay},
		{"mixed_team_sprint", DisciplineMixedTeamSprint},
	}
	for _, tt := range tests {
		got, err := ParseDiscipline(tt.in)
		if err != nil {
			t.Fatalf("ParseDiscipline(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Fatalf("ParseDiscipline(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
	if _, err := ParseDiscipline("biathlon"); err == nil {
		t.Fatalf("expected error for unknown discipline")
	}
}
