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
	"github.com/riskibarqy/fantasy-skiing/internal/domain/startlist"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/team"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

func newTestRosterService(t *testing.T) *RosterService {
	t.Helper()

	snapshot := testSnapshot(t)
	normalizer := athlete.NewNormalizer()
	resolver := NewIdentityResolver(snapshot, normalizer, 0, nil, logging.NewNop())
	allocator := quota.NewAllocator(map[quota.Key]int{
		{Nation: "NOR", Discipline: race.DisciplineSprint, Gender: athlete.GenderMen}:   6,
		{Nation: "NOR", Discipline: race.DisciplineSprint, Gender: athlete.GenderWomen}: 6,
		{Nation: "USA", Discipline: race.DisciplineSprint, Gender: athlete.GenderWomen}: 4,
	}, 3)
	return NewRosterService(resolver, snapshot, allocator, normalizer, logging.NewNop())
}

func byID(entries []roster.Entry) map[string]roster.Entry {
	out := make(map[string]roster.Entry, len(entries))
	for _, e := range entries {
		out[e.Athlete.ID] = e
	}
	return out
}

func TestRosterService_StartlistBeatsOverrideNo(t *testing.T) {
	t.Parallel()

	svc := newTestRosterService(t)
	womenSprint := race.Race{Index: 2, Discipline: race.DisciplineSprint, Technique: race.TechniqueFreestyle, Gender: athlete.GenderWomen, HostNation: "NOR"}

	entries, err := svc.Assemble(context.Background(), AssembleInput{
		Race:      womenSprint,
		Startlist: []startlist.Row{{Name: "DOE Jane", Nation: "USA", Bib: "12"}},
		Overrides: roster.Overrides{
			{Nation: "USA", Name: "Jane Doe", No: []int{2}},
		},
	})
	require.NoError(t, err)

	jane := byID(entries)["100"]
	v, known := jane.Probability.Value()
	if !known || v != 1 {
		t.Fatalf("startlist must win over override-no, got %s", jane.Probability)
	}
	assert.Equal(t, roster.ProvenanceStartlist, jane.Provenance)
	assert.Equal(t, "12", jane.Bib)
}

func TestRosterService_Precedence(t *testing.T) {
	t.Parallel()

	svc := newTestRosterService(t)
	womenSprint := race.Race{Index: 1, Discipline: race.DisciplineSprint, Gender: athlete.GenderWomen, HostNation: "NOR"}

	entries, err := svc.Assemble(context.Background(), AssembleInput{
		Race:      womenSprint,
		Startlist: []startlist.Row{{Name: "DOE Jane", Nation: "USA"}, {Name: "", Nation: "NOR"}},
		Overrides: roster.Overrides{
			{Nation: "NOR", Name: "Astrid Oeyre Slind", Yes: []int{1}},
			{Nation: "SWE", Name: "Anna Svensson", No: []int{1}},
			{Nation: "FIN", Name: "Anna Svensson", Yes: []int{3}},
		},
		Prices: fantasy.NewPriceList([]fantasy.PriceEntry{
			{Name: "Jane Doe", Price: 21, Gender: athlete.GenderWomen, Nation: "USA"},
			{Name: "Astrid Øyre Slind", Price: 17, Gender: athlete.GenderWomen, Nation: "NOR"},
			{Name: "Nora NEWCOMER", Price: 5, Gender: athlete.GenderWomen, Nation: "CAN"},
			{Name: "Johannes Klaebo", Price: 30, Gender: athlete.GenderMen, Nation: "NOR"},
		}),
	})
	require.NoError(t, err)

	got := byID(entries)
	require.Len(t, entries, 5, "jane, astrid, both annas and the price-feed newcomer")

	assert.Equal(t, roster.ProvenanceStartlist, got["100"].Provenance)
	assert.Equal(t, 21.0, got["100"].Price)
	assert.True(t, got["100"].HasPrice)

	assert.Equal(t, roster.ProvenanceOverrideYes, got["105"].Provenance)
	assert.Equal(t, roster.Certain, got["105"].Probability)
	assert.True(t, got["105"].IsHostNation)
	assert.Equal(t, 9, got["105"].Quota)

	assert.Equal(t, roster.ProvenanceOverrideNo, got["102"].Provenance)
	assert.True(t, got["102"].Probability.IsKnownZero())

	// the Finnish Anna is only confirmed for race 3
	assert.Equal(t, roster.ProvenanceLedgerFallback, got["103"].Provenance)
	assert.False(t, got["103"].Probability.IsKnown())

	newcomer := got[athlete.ImputedID("nora newcomer")]
	assert.Equal(t, roster.ProvenancePriceFeed, newcomer.Provenance)
	assert.True(t, newcomer.Athlete.Imputed)
	assert.False(t, newcomer.Probability.IsKnown())
	assert.Equal(t, 5.0, newcomer.Price)
	assert.Equal(t, 0, newcomer.Quota)

	// ordering follows precedence
	assert.Equal(t, "100", entries[0].Athlete.ID)
	assert.Equal(t, "105", entries[1].Athlete.ID)
	assert.Equal(t, "102", entries[2].Athlete.ID)

	for _, e := range entries {
		require.NoError(t, e.Validate())
		require.NoError(t, e.Athlete.Validate())
	}
}

func TestRosterService_NoDuplicateIdentities(t *testing.T) {
	t.Parallel()

	svc := newTestRosterService(t)
	menSprint := race.Race{Index: 1, Discipline: race.DisciplineSprint, Gender: athlete.GenderMen}

	entries, err := svc.Assemble(context.Background(), AssembleInput{
		Race: menSprint,
		Startlist: []startlist.Row{
			{Name: "KLAEBO Johannes", Nation: "NOR"},
			{Name: "Johannes Klæbo", Nation: "NOR"},
			{Name: "VALNES Erik", Nation: "NOR"},
		},
		Overrides: roster.Overrides{{Name: "Erik Valnes", Nation: "NOR", Yes: []int{1}}},
	})
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, e := range entries {
		if seen[e.Athlete.ID] {
			t.Fatalf("duplicate identity %s", e.Athlete.ID)
		}
		seen[e.Athlete.ID] = true
	}
	require.Len(t, entries, 2)
}

func TestRosterService_ImputedAgeFromProfile(t *testing.T) {
	t.Parallel()

	svc := newTestRosterService(t)
	menSprint := race.Race{Index: 1, Discipline: race.DisciplineSprint, Gender: athlete.GenderMen}

	entries, err := svc.Assemble(context.Background(), AssembleInput{
		Race:      menSprint,
		Startlist: []startlist.Row{{Name: "ROOKIE Tom", Nation: "AUT"}},
		Ages:      map[string]float64{"tom rookie": 19},
	})
	require.NoError(t, err)

	rookie := byID(entries)[athlete.ImputedID("tom rookie")]
	assert.True(t, rookie.Athlete.Imputed)
	assert.Equal(t, 19.0, rookie.Athlete.Age)
	assert.Equal(t, "Tom Rookie", rookie.Athlete.Name)
}

func TestRosterService_MixedEventImputedGenderFromPriceFeed(t *testing.T) {
	t.Parallel()

	svc := newTestRosterService(t)
	mixedRelay := race.Race{Index: 5, Discipline: race.DisciplineMixedRelay, Gender: athlete.GenderMixed}
	prices := fantasy.NewPriceList([]fantasy.PriceEntry{
		{Name: "Petra Novak", Price: 6, Gender: athlete.GenderWomen, Nation: "CZE"},
	})

	entries, err := svc.Assemble(context.Background(), AssembleInput{
		Race:      mixedRelay,
		Overrides: roster.Overrides{{Nation: "CZE", Name: "NOVAK Petra", Yes: []int{5}}},
		Prices:    prices,
	})
	require.NoError(t, err)

	petra, ok := byID(entries)[athlete.ImputedID("petra novak")]
	require.True(t, ok)
	assert.True(t, petra.Athlete.Imputed)
	assert.Equal(t, athlete.GenderWomen, petra.Athlete.Gender)
	assert.Equal(t, "CZE", petra.Athlete.NationCode)
	women := testSnapshot(t).Defaults(athlete.GenderWomen)
	assert.Equal(t, women.Ratings[athlete.DimSprintElo], petra.Athlete.Ratings[athlete.DimSprintElo])

	teams, err := newTestTeamService(t).Aggregate(context.Background(), entries, mixedRelay, prices)
	require.NoError(t, err)
	var cze *team.Team
	for i := range teams {
		if teams[i].NationCode == "CZE" {
			cze = &teams[i]
		}
	}
	require.NotNil(t, cze)
	first := legsOf(*cze)[1]
	assert.False(t, first.Placeholder)
	assert.Equal(t, petra.Athlete.ID, first.Entry.Athlete.ID)
}

func TestRosterService_InvalidRace(t *testing.T) {
	t.Parallel()

	svc := newTestRosterService(t)
	_, err := svc.Assemble(context.Background(), AssembleInput{Race: race.Race{Index: 0}})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
