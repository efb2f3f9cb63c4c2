package quota

import (
	"testing"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
)

func testAllocator(bonus int) *Allocator {
	return NewAllocator(map[Key]int{
		{Nation: "nor", Discipline: race.DisciplineSprint, Gender: athlete.GenderMen}:   12,
		{Nation: "NOR", Discipline: race.DisciplineDistance, Gender: athlete.GenderMen}: 10,
		{Nation: "SUI", Discipline: race.DisciplineSprint, Gender: athlete.GenderWomen}: 4,
		{Nation: "GER", Discipline: race.DisciplineSprint, Gender: athlete.GenderWomen}: -3,
	}, bonus)
}

func TestAllocator_Quota(t *testing.T) {
	t.Parallel()

	a := testAllocator(DefaultHostBonus)
	tests := []struct {
		name       string
		nation     string
		discipline race.Discipline
		gender     athlete.Gender
		host       bool
		want       int
	}{
		{name: "base", nation: "NOR", discipline: race.DisciplineSprint, gender: athlete.GenderMen, want: 12},
		{name: "host bonus", nation: "SUI", discipline: race.DisciplineSprint, gender: athlete.GenderWomen, host: true, want: 9},
		{name: "team sprint uses sprint quota", nation: "NOR", discipline: race.DisciplineTeamSprint, gender: athlete.GenderMen, want: 12},
		{name: "relay uses distance quota", nation: "nor", discipline: race.DisciplineRelay, gender: athlete.GenderMen, want: 10},
		{name: "unknown nation", nation: "BRA", discipline: race.DisciplineSprint, gender: athlete.GenderMen, want: 0},
		{name: "unknown nation host", nation: "BRA", discipline: race.DisciplineSprint, gender: athlete.GenderMen, host: true, want: 5},
		{name: "negative base clamps", nation: "GER", discipline: race.DisciplineSprint, gender: athlete.GenderWomen, want: 0},
	}
	for _, tc := range tests {
		if got := a.Quota(tc.nation, tc.discipline, tc.gender, tc.host); got != tc.want {
			t.Fatalf("%s: quota = %d, want %d", tc.name, got, tc.want)
		}
	}
}

func TestAllocator_HostNeverLowersQuota(t *testing.T) {
	t.Parallel()

	for _, bonus := range []int{-10, 0, 3} {
		a := testAllocator(bonus)
		for _, nation := range []string{"NOR", "SUI", "GER", "XYZ"} {
			for d := range race.AllDisciplines {
				for _, g := range []athlete.Gender{athlete.GenderMen, athlete.GenderWomen, athlete.GenderMixed} {
					if a.Quota(nation, d, g, true) < a.Quota(nation, d, g, false) {
						t.Fatalf("host quota lower than non-host for %s/%s/%s bonus=%d", nation, d, g, bonus)
					}
				}
			}
		}
	}
}

func TestAllocator_ForRace(t *testing.T) {
	t.Parallel()

	a := testAllocator(2)
	r := race.Race{Index: 1, Discipline: race.DisciplineSprint, Gender: athlete.GenderWomen, HostNation: "SUI"}
	q, host := a.ForRace("sui", r)
	if !host || q != 6 {
		t.Fatalf("ForRace = %d host=%v, want 6 true", q, host)
	}
	var nilAllocator *Allocator
	if nilAllocator.Quota("NOR", race.DisciplineSprint, athlete.GenderMen, true) != 0 {
		t.Fatalf("nil allocator must return 0")
	}
}
