package team

import (
	"reflect"
	"testing"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
)

func TestParseBib(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want Bib
	}{
		{raw: "5-1", want: Parsed{TeamID: "5", Leg: 1}},
		{raw: " 12-4 ", want: Parsed{TeamID: "12", Leg: 4}},
		{raw: "NOR-1-2", want: Parsed{TeamID: "NOR-1", Leg: 2}},
		{raw: "5", want: Malformed{TeamID: "5", Raw: "5"}},
		{raw: "5-", want: Malformed{TeamID: "5", Raw: "5-"}},
		{raw: "5-x", want: Malformed{TeamID: "5", Raw: "5-x"}},
		{raw: "5-0", want: Malformed{TeamID: "5", Raw: "5-0"}},
		{raw: "-3", want: Malformed{TeamID: "", Raw: "-3"}},
		{raw: "", want: Malformed{}},
	}
	for _, tc := range tests {
		if got := ParseBib(tc.raw); !reflect.DeepEqual(got, tc.want) {
			t.Fatalf("ParseBib(%q) = %#v, want %#v", tc.raw, got, tc.want)
		}
	}
}

func TestLegAllocator_SkipsClaimedLegs(t *testing.T) {
	t.Parallel()

	a := NewLegAllocator(4)
	if !a.Claim(2) || !a.Claim(4) {
		t.Fatalf("expected claims to succeed")
	}
	if a.Claim(2) {
		t.Fatalf("duplicate claim must fail")
	}
	if a.Claim(5) || a.Claim(0) {
		t.Fatalf("out of range claim must fail")
	}

	var assigned []int
	for {
		leg, ok := a.Next()
		if !ok {
			break
		}
		assigned = append(assigned, leg)
	}
	if !reflect.DeepEqual(assigned, []int{1, 3}) {
		t.Fatalf("assigned = %v, want [1 3]", assigned)
	}
	if free := a.Free(); len(free) != 0 {
		t.Fatalf("expected no free legs, got %v", free)
	}
}

func TestLegAllocator_FreeAfterPartialTeam(t *testing.T) {
	t.Parallel()

	a := NewLegAllocator(4)
	for _, leg := range []int{1, 2, 4} {
		a.Claim(leg)
	}
	if free := a.Free(); !reflect.DeepEqual(free, []int{3}) {
		t.Fatalf("free = %v, want [3]", free)
	}
}

func member(leg int, elo float64) Member {
	return Member{
		Leg: leg,
		Entry: roster.Entry{Athlete: athlete.Athlete{
			ID:        "a",
			Ratings:   athlete.Ratings{athlete.DimElo: elo, athlete.DimSprintElo: elo},
			Age:       20 + float64(leg),
			Exp:       10,
			AvgPoints: 30,
		}},
	}
}

func TestTeam_AggregateSumsRatings(t *testing.T) {
	t.Parallel()

	relay := Team{ID: "5", Discipline: race.DisciplineRelay, Members: []Member{member(1, 1000), member(2, 1100), member(3, 1200), member(4, 1300)}}
	relay.Aggregate()
	if relay.Ratings[athlete.DimElo] != 4600 {
		t.Fatalf("relay Elo = %v, want 4600", relay.Ratings[athlete.DimElo])
	}
	if relay.Age != 22.5 {
		t.Fatalf("relay age = %v, want 22.5", relay.Age)
	}
	if err := relay.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	sprint := Team{ID: "1", Discipline: race.DisciplineTeamSprint, Members: []Member{member(1, 1000), member(2, 1200)}}
	sprint.Aggregate()
	if sprint.Ratings[athlete.DimSprintElo] != 1100 {
		t.Fatalf("team sprint Sprint_Elo = %v, want 1100", sprint.Ratings[athlete.DimSprintElo])
	}
}

func TestTeam_Validate(t *testing.T) {
	t.Parallel()

	short := Team{ID: "5", Discipline: race.DisciplineRelay, Members: []Member{member(1, 1), member(2, 1)}}
	if err := short.Validate(); err == nil {
		t.Fatalf("expected error for short relay team")
	}
	dup := Team{ID: "1", Discipline: race.DisciplineTeamSprint, Members: []Member{member(1, 1), member(1, 1)}}
	if err := dup.Validate(); err == nil {
		t.Fatalf("expected error for duplicate legs")
	}
}
