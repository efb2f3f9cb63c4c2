package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/quota"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/team"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

func newTestTeamService(t *testing.T) *TeamService {
	t.Helper()
	allocator := quota.NewAllocator(map[quota.Key]int{
		quota.NewKey("NOR", race.DisciplineRelay, athlete.GenderMen): 2,
	}, 1)
	return NewTeamService(testSnapshot(t), allocator, logging.NewNop())
}

func startlistEntry(t *testing.T, id, bib string, raceIndex int) roster.Entry {
	t.Helper()
	a, ok := testSnapshot(t).Athlete(id)
	if !ok {
		t.Fatalf("athlete %s not in test ledger", id)
	}
	return roster.Entry{
		Athlete:     a,
		RaceIndex:   raceIndex,
		Probability: roster.Certain,
		Provenance:  roster.ProvenanceStartlist,
		Bib:         bib,
	}
}

func legsOf(tm team.Team) map[int]team.Member {
	out := make(map[int]team.Member, len(tm.Members))
	for _, m := range tm.Members {
		out[m.Leg] = m
	}
	return out
}

func TestTeamService_FillsMissingLegWithPlaceholder(t *testing.T) {
	t.Parallel()

	svc := newTestTeamService(t)
	relay := race.Race{Index: 3, Discipline: race.DisciplineRelay, Gender: athlete.GenderMen, HostNation: "NOR"}

	third := startlistEntry(t, "104", "5-4", 3)
	third.Athlete.ID = "107"
	third.Athlete.Name = "Harald Amundsen"

	teams, err := svc.Aggregate(context.Background(), []roster.Entry{
		startlistEntry(t, "101", "5-1", 3),
		startlistEntry(t, "104", "5-2", 3),
		third,
	}, relay, fantasy.NewPriceList([]fantasy.PriceEntry{
		{Name: "Norway", Price: 40, Gender: athlete.GenderMen, IsTeam: true},
	}))
	require.NoError(t, err)
	require.Len(t, teams, 1)

	nor := teams[0]
	require.NoError(t, nor.Validate())
	require.Len(t, nor.Members, 4)

	legs := legsOf(nor)
	assert.Equal(t, "101", legs[1].Entry.Athlete.ID)
	assert.Equal(t, "104", legs[2].Entry.Athlete.ID)
	assert.Equal(t, "107", legs[4].Entry.Athlete.ID)
	assert.True(t, legs[3].Placeholder)
	assert.Equal(t, "placeholder:NOR:5:3", legs[3].Entry.Athlete.ID)
	assert.Equal(t, 0.0, legs[3].Entry.Price)

	assert.Equal(t, "team:NOR:1", nor.Key())
	assert.Equal(t, "Norway", nor.Label)
	assert.True(t, nor.Imputed())
	assert.True(t, nor.IsHostNation)
	assert.Equal(t, 3, nor.Quota)
	assert.True(t, nor.HasPrice)
	assert.Equal(t, 40.0, nor.Price)
	assert.Equal(t, roster.Certain, nor.Probability)

	// relay legs count fully: 1900 + 1700 + 1700 + men's quartile 1700
	assert.Equal(t, 7000.0, nor.Ratings[athlete.DimElo])
}

func TestTeamService_MalformedAndClashingBibs(t *testing.T) {
	t.Parallel()

	svc := newTestTeamService(t)
	relay := race.Race{Index: 3, Discipline: race.DisciplineRelay, Gender: athlete.GenderMen}

	clash := startlistEntry(t, "104", "5-1", 3)
	malformed := startlistEntry(t, "104", "5-x", 3)
	malformed.Athlete.ID = "108"

	teams, err := svc.Aggregate(context.Background(), []roster.Entry{
		startlistEntry(t, "101", "5-1", 3),
		clash,
		malformed,
	}, relay, fantasy.PriceList{})
	require.NoError(t, err)
	require.Len(t, teams, 1)

	legs := legsOf(teams[0])
	assert.Equal(t, "101", legs[1].Entry.Athlete.ID)
	assert.Equal(t, "104", legs[2].Entry.Athlete.ID)
	assert.Equal(t, "108", legs[3].Entry.Athlete.ID)
	assert.True(t, legs[4].Placeholder)
	assert.False(t, teams[0].HasPrice)
}

func TestTeamService_OverflowMemberDropped(t *testing.T) {
	t.Parallel()

	svc := newTestTeamService(t)
	teamSprint := race.Race{Index: 4, Discipline: race.DisciplineTeamSprint, Gender: athlete.GenderMen}

	extra := startlistEntry(t, "104", "", 4)
	extra.Athlete.ID = "109"
	extra.TeamLabel = "Norway 1"
	first := startlistEntry(t, "101", "", 4)
	first.TeamLabel = "Norway 1"
	second := startlistEntry(t, "104", "", 4)
	second.TeamLabel = "Norway 1"

	teams, err := svc.Aggregate(context.Background(), []roster.Entry{first, second, extra}, teamSprint, fantasy.PriceList{})
	require.NoError(t, err)
	require.Len(t, teams, 1)
	require.Len(t, teams[0].Members, 2)
	assert.Equal(t, "Norway 1", teams[0].Label)
	assert.False(t, teams[0].Imputed())

	// team sprint legs count half
	assert.Equal(t, 1800.0, teams[0].Ratings[athlete.DimElo])
}

func TestTeamService_SlotsFollowBibOrderPerNation(t *testing.T) {
	t.Parallel()

	svc := newTestTeamService(t)
	teamSprint := race.Race{Index: 4, Discipline: race.DisciplineTeamSprint, Gender: athlete.GenderMen}

	teams, err := svc.Aggregate(context.Background(), []roster.Entry{
		startlistEntry(t, "101", "10-1", 4),
		startlistEntry(t, "104", "9-1", 4),
	}, teamSprint, fantasy.PriceList{})
	require.NoError(t, err)
	require.Len(t, teams, 2)

	assert.Equal(t, "9", teams[0].ID)
	assert.Equal(t, "team:NOR:1", teams[0].Key())
	assert.Equal(t, "Norway", teams[0].Label)
	assert.Equal(t, "10", teams[1].ID)
	assert.Equal(t, "team:NOR:2", teams[1].Key())
	assert.Equal(t, "Norway 2", teams[1].Label)
}

func TestTeamService_ProjectsTeamsWithoutStartlist(t *testing.T) {
	t.Parallel()

	svc := newTestTeamService(t)
	snapshot := testSnapshot(t)
	mixedRelay := race.Race{Index: 5, Discipline: race.DisciplineMixedRelay, Gender: athlete.GenderMixed}

	var entries []roster.Entry
	for _, a := range snapshot.CurrentSeasonAthletes(athlete.GenderMixed) {
		entries = append(entries, roster.Entry{
			Athlete:     a,
			RaceIndex:   5,
			Probability: roster.Unknown,
			Provenance:  roster.ProvenanceLedgerFallback,
		})
	}

	teams, err := svc.Aggregate(context.Background(), entries, mixedRelay, fantasy.PriceList{})
	require.NoError(t, err)
	require.Len(t, teams, 4)

	codes := make([]string, len(teams))
	for i, tm := range teams {
		codes[i] = tm.NationCode
		require.NoError(t, tm.Validate())
		assert.True(t, tm.Projected)
		assert.False(t, tm.Probability.IsKnown())
		assert.Equal(t, roster.ProvenanceLedgerFallback, tm.Provenance)
	}
	assert.Equal(t, []string{"FIN", "NOR", "SWE", "USA"}, codes)

	nor := legsOf(teams[1])
	assert.Equal(t, "105", nor[1].Entry.Athlete.ID)
	assert.Equal(t, "101", nor[2].Entry.Athlete.ID)
	assert.True(t, nor[3].Placeholder)
	assert.Equal(t, athlete.GenderWomen, nor[3].Entry.Athlete.Gender)
	assert.Equal(t, "104", nor[4].Entry.Athlete.ID)
}

func TestTeamService_ProjectionSkipsRuledOut(t *testing.T) {
	t.Parallel()

	svc := newTestTeamService(t)
	relay := race.Race{Index: 3, Discipline: race.DisciplineRelay, Gender: athlete.GenderMen}

	out := startlistEntry(t, "101", "", 3)
	out.Provenance = roster.ProvenanceOverrideNo
	out.Probability = roster.Never

	teams, err := svc.Aggregate(context.Background(), []roster.Entry{out}, relay, fantasy.PriceList{})
	require.NoError(t, err)
	assert.Empty(t, teams)
}

func TestTeamService_RejectsIndividualRace(t *testing.T) {
	t.Parallel()

	svc := newTestTeamService(t)
	_, err := svc.Aggregate(context.Background(), nil, race.Race{Index: 1, Discipline: race.DisciplineSprint, Gender: athlete.GenderMen}, fantasy.PriceList{})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
