package fantasy

import (
	"testing"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
)

func TestNewPriceList_SplitsTeams(t *testing.T) {
	t.Parallel()

	list := NewPriceList([]PriceEntry{
		{Name: "Jessie Diggins", Price: 28, Gender: athlete.GenderWomen, Nation: "USA"},
		{Name: "Johannes Klaebo", Price: 30, Gender: athlete.GenderMen, Nation: "NOR"},
		{Name: "Norway I", Price: 25, Gender: athlete.GenderMen, Nation: "Norway", IsTeam: true},
		{Name: "", Price: 10},
		{Name: "Broken", Price: -1},
	})
	if len(list.Athletes) != 2 || len(list.Teams) != 1 {
		t.Fatalf("unexpected split athletes=%d teams=%d", len(list.Athletes), len(list.Teams))
	}
	if got := len(list.AthletesOf(athlete.GenderWomen)); got != 1 {
		t.Fatalf("women prices = %d, want 1", got)
	}
	if got := len(list.AthletesOf(athlete.GenderMixed)); got != 2 {
		t.Fatalf("mixed prices = %d, want 2", got)
	}
}

func TestPriceList_TeamPrice(t *testing.T) {
	t.Parallel()

	list := NewPriceList([]PriceEntry{
		{Name: "Norway I", Price: 25, Gender: athlete.GenderMen, Nation: "Norway", IsTeam: true},
		{Name: "Norway II", Price: 18, Gender: athlete.GenderMen, Nation: "Norway", IsTeam: true},
		{Name: "Sweden", Price: 22, Gender: athlete.GenderWomen, IsTeam: true},
	})

	tests := []struct {
		name   string
		label  string
		nation string
		code   string
		gender athlete.Gender
		want   float64
		ok     bool
	}{
		{name: "label match", label: "norway ii", nation: "Norway", code: "NOR", gender: athlete.GenderMen, want: 18, ok: true},
		{name: "nation fallback", label: "Norway III", nation: "Norway", code: "NOR", gender: athlete.GenderMen, want: 25, ok: true},
		{name: "name as nation", nation: "Sweden", code: "SWE", gender: athlete.GenderWomen, want: 22, ok: true},
		{name: "gender mismatch", nation: "Sweden", code: "SWE", gender: athlete.GenderMen, ok: false},
	}
	for _, tc := range tests {
		got, ok := list.TeamPrice(tc.label, tc.nation, tc.code, tc.gender)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("%s: got %v ok=%v, want %v ok=%v", tc.name, got, ok, tc.want, tc.ok)
		}
	}
}
