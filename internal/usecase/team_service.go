package usecase

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/quota"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/team"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

const projectedTeamID = "P"

type TeamService struct {
	snapshot  *ledger.Snapshot
	allocator *quota.Allocator
	logger    *logging.Logger
}

func NewTeamService(snapshot *ledger.Snapshot, allocator *quota.Allocator, logger *logging.Logger) *TeamService {
	if logger == nil {
		logger = logging.Default()
	}
	return &TeamService{
		snapshot:  snapshot,
		allocator: allocator,
		logger:    logger,
	}
}

type teamGroup struct {
	nationCode string
	teamID     string
	slot       int
	label      string
	members    []roster.Entry
}

// Aggregate groups start list entries into fixed-size teams. Entries carry
// a "{team}-{leg}" bib; malformed or clashing legs get the next free leg of
// their team, and legs nobody fills get quartile placeholders. A race with
// no team members on its start list gets one projected team per nation.
func (s *TeamService) Aggregate(ctx context.Context, entries []roster.Entry, r race.Race, prices fantasy.PriceList) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TeamService.Aggregate", raceAttributes(r)...)
	defer span.End()

	if !r.Discipline.IsTeam() {
		return nil, fmt.Errorf("%w: race %d discipline %s is not a team event", ErrInvalidInput, r.Index, r.Discipline)
	}

	groups := s.group(entries)
	if len(groups) == 0 {
		teams := s.project(ctx, entries, r, prices)
		s.logger.InfoContext(ctx, "no team start list, projected teams",
			"race", r.Index,
			"teams", len(teams),
		)
		return teams, nil
	}

	teams := make([]team.Team, 0, len(groups))
	for _, g := range groups {
		t := s.build(ctx, g, r, prices)
		if err := t.Validate(); err != nil {
			return nil, fmt.Errorf("build team %s: %w", g.teamID, err)
		}
		teams = append(teams, t)
	}
	s.logger.InfoContext(ctx, "teams aggregated",
		"race", r.Index,
		"teams", teamIDs(teams),
	)
	return teams, nil
}

// group collects start list members by (nation, team id) in input order.
func (s *TeamService) group(entries []roster.Entry) []*teamGroup {
	var groups []*teamGroup
	byKey := make(map[string]*teamGroup)
	for _, e := range entries {
		if e.Provenance != roster.ProvenanceStartlist {
			continue
		}
		teamID := ""
		switch b := team.ParseBib(e.Bib).(type) {
		case team.Parsed:
			teamID = b.TeamID
		case team.Malformed:
			teamID = b.TeamID
		}
		if teamID == "" {
			teamID = e.TeamLabel
		}
		if teamID == "" {
			teamID = "1"
		}
		key := e.Athlete.NationCode + "|" + teamID
		g, ok := byKey[key]
		if !ok {
			g = &teamGroup{nationCode: e.Athlete.NationCode, teamID: teamID}
			byKey[key] = g
			groups = append(groups, g)
		}
		if g.label == "" && e.TeamLabel != "" {
			g.label = e.TeamLabel
		}
		g.members = append(g.members, e)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].nationCode != groups[j].nationCode {
			return groups[i].nationCode < groups[j].nationCode
		}
		return lessTeamID(groups[i].teamID, groups[j].teamID)
	})
	slot := 0
	for i, g := range groups {
		if i == 0 || groups[i-1].nationCode != g.nationCode {
			slot = 0
		}
		slot++
		g.slot = slot
	}
	return groups
}

// lessTeamID orders numeric bib teams by value, so "10" follows "9".
func lessTeamID(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		return na < nb
	case errA == nil:
		return true
	case errB == nil:
		return false
	default:
		return a < b
	}
}

// teamLabel names a nation's first team after the nation and numbers the
// others.
func teamLabel(nationName string, slot int) string {
	if slot <= 1 {
		return nationName
	}
	return nationName + " " + strconv.Itoa(slot)
}

func (s *TeamService) build(ctx context.Context, g *teamGroup, r race.Race, prices fantasy.PriceList) team.Team {
	legs := r.Discipline.Legs()
	alloc := team.NewLegAllocator(legs)
	members := make([]team.Member, 0, legs)

	var pending []roster.Entry
	for _, e := range g.members {
		if b, ok := team.ParseBib(e.Bib).(team.Parsed); ok && alloc.Claim(b.Leg) {
			members = append(members, team.Member{Leg: b.Leg, Entry: e})
			continue
		}
		pending = append(pending, e)
	}
	for _, e := range pending {
		leg, ok := alloc.Next()
		if !ok {
			s.logger.WarnContext(ctx, "team already full, member dropped",
				"race", r.Index,
				"nation", g.nationCode,
				"team", g.teamID,
				"athlete", e.Athlete.Name,
			)
			continue
		}
		s.logger.WarnContext(ctx, "malformed bib, assigned next free leg",
			"race", r.Index,
			"nation", g.nationCode,
			"team", g.teamID,
			"bib", e.Bib,
			"leg", leg,
		)
		members = append(members, team.Member{Leg: leg, Entry: e})
	}

	label := g.label
	if label == "" {
		label = teamLabel(s.snapshot.Nations().DisplayName(g.nationCode), g.slot)
	}
	t := s.newTeam(g.nationCode, g.teamID, g.slot, label, r, roster.Certain, roster.ProvenanceStartlist)
	t.Members = members
	s.fill(&t, alloc.Free(), r)
	s.finish(&t, prices)
	return t
}

// project builds one team per nation from the athletes not ruled out of the
// race, strongest first by the race's primary rating. Mixed events
// alternate women and men, starting with a woman.
func (s *TeamService) project(ctx context.Context, entries []roster.Entry, r race.Race, prices fantasy.PriceList) []team.Team {
	dim := r.PrimaryDimension()
	byNation := make(map[string][]roster.Entry)
	for _, e := range entries {
		if e.Probability.IsKnownZero() || e.Athlete.NationCode == "" {
			continue
		}
		byNation[e.Athlete.NationCode] = append(byNation[e.Athlete.NationCode], e)
	}

	nations := make([]string, 0, len(byNation))
	for code := range byNation {
		nations = append(nations, code)
	}
	sort.Strings(nations)

	legs := r.Discipline.Legs()
	teams := make([]team.Team, 0, len(nations))
	for _, code := range nations {
		pool := byNation[code]
		sort.SliceStable(pool, func(i, j int) bool {
			ri, rj := pool[i].Athlete.Ratings[dim], pool[j].Athlete.Ratings[dim]
			if ri != rj {
				return ri > rj
			}
			return pool[i].Athlete.Name < pool[j].Athlete.Name
		})

		used := make(map[string]bool, legs)
		alloc := team.NewLegAllocator(legs)
		var members []team.Member
		for leg := 1; leg <= legs; leg++ {
			want := legGender(r, leg)
			for _, e := range pool {
				if used[e.Athlete.ID] || !want.Includes(e.Athlete.Gender) {
					continue
				}
				used[e.Athlete.ID] = true
				alloc.Claim(leg)
				e.Bib = projectedTeamID + "-" + strconv.Itoa(leg)
				members = append(members, team.Member{Leg: leg, Entry: e})
				break
			}
		}

		label := s.snapshot.Nations().DisplayName(code)
		t := s.newTeam(code, projectedTeamID, 1, label, r, roster.Unknown, roster.ProvenanceLedgerFallback)
		t.Members = members
		t.Projected = true
		s.fill(&t, alloc.Free(), r)
		s.finish(&t, prices)
		if err := t.Validate(); err != nil {
			s.logger.WarnContext(ctx, "projected team invalid, skipped", "nation", code, "error", err)
			continue
		}
		teams = append(teams, t)
	}
	return teams
}

func (s *TeamService) newTeam(code, teamID string, slot int, label string, r race.Race, p roster.Probability, prov roster.Provenance) team.Team {
	q, host := s.allocator.ForRace(code, r)
	return team.Team{
		ID:           teamID,
		Slot:         slot,
		Label:        label,
		Nation:       s.snapshot.Nations().DisplayName(code),
		NationCode:   code,
		Gender:       r.Gender,
		Discipline:   r.Discipline,
		RaceIndex:    r.Index,
		Probability:  p,
		Provenance:   prov,
		Quota:        q,
		IsHostNation: host,
	}
}

// fill adds a placeholder for every free leg.
func (s *TeamService) fill(t *team.Team, free []int, r race.Race) {
	for _, leg := range free {
		id := fmt.Sprintf("placeholder:%s:%s:%d", t.NationCode, t.ID, leg)
		name := fmt.Sprintf("%s leg %d", t.Label, leg)
		a := s.snapshot.Placeholder(id, name, t.NationCode, legGender(r, leg))
		t.Members = append(t.Members, team.Member{
			Leg:         leg,
			Placeholder: true,
			Entry: roster.Entry{
				Athlete:     a,
				RaceIndex:   r.Index,
				Probability: t.Probability,
				Provenance:  t.Provenance,
				Bib:         t.ID + "-" + strconv.Itoa(leg),
			},
		})
	}
	sort.Slice(t.Members, func(i, j int) bool { return t.Members[i].Leg < t.Members[j].Leg })
}

func (s *TeamService) finish(t *team.Team, prices fantasy.PriceList) {
	t.Aggregate()
	if p, ok := prices.TeamPrice(t.Label, t.Nation, t.NationCode, t.Gender); ok {
		t.Price = p
		t.HasPrice = true
	}
}

// legGender is the gender expected on a leg: mixed events alternate,
// starting with women.
func legGender(r race.Race, leg int) athlete.Gender {
	if !r.Discipline.IsMixed() {
		return r.Gender
	}
	if leg%2 == 1 {
		return athlete.GenderWomen
	}
	return athlete.GenderMen
}

func teamIDs(teams []team.Team) string {
	ids := make([]string, len(teams))
	for i, t := range teams {
		ids[i] = t.Key()
	}
	return strings.Join(ids, ",")
}
