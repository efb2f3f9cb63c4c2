package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/quota"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/startlist"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

// AssembleInput carries everything known about one race.
type AssembleInput struct {
	Race      race.Race
	Startlist []startlist.Row
	Overrides roster.Overrides
	Prices    fantasy.PriceList
	// Ages holds profile ages keyed by normalized name, used for athletes
	// the ledger does not know.
	Ages map[string]float64
}

type RosterService struct {
	resolver   *IdentityResolver
	snapshot   *ledger.Snapshot
	allocator  *quota.Allocator
	normalizer *athlete.Normalizer
	logger     *logging.Logger
}

func NewRosterService(
	resolver *IdentityResolver,
	snapshot *ledger.Snapshot,
	allocator *quota.Allocator,
	normalizer *athlete.Normalizer,
	logger *logging.Logger,
) *RosterService {
	if normalizer == nil {
		normalizer = athlete.NewNormalizer()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RosterService{
		resolver:   resolver,
		snapshot:   snapshot,
		allocator:  allocator,
		normalizer: normalizer,
		logger:     logger,
	}
}

type rosterBuilder struct {
	race    race.Race
	entries map[string]*roster.Entry
	order   []string
}

// add merges one source's claim on an athlete. The higher-precedence source
// decides probability and provenance; other fields are only filled when
// still empty, so the first source to provide them wins.
func (b *rosterBuilder) add(res Resolution, prov roster.Provenance, fill func(*roster.Entry)) {
	key := res.Athlete.ID
	e, ok := b.entries[key]
	if !ok {
		e = &roster.Entry{
			Athlete:     res.Athlete,
			RaceIndex:   b.race.Index,
			Probability: prov.Probability(),
			Provenance:  prov,
			Confidence:  res.Confidence,
		}
		b.entries[key] = e
		b.order = append(b.order, key)
	} else if prov.Outranks(e.Provenance) {
		e.Provenance = prov
		e.Probability = prov.Probability()
		e.Confidence = res.Confidence
	}
	if fill != nil {
		fill(e)
	}
}

// Assemble builds the deduplicated roster of one race. Precedence, highest
// first: start list (1.0), override yes (1.0), override no (0.0), current
// season ledger athletes (unknown), price-feed only athletes (unknown).
// Quota is attached as data and never used to cut the roster.
func (s *RosterService) Assemble(ctx context.Context, input AssembleInput) ([]roster.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.RosterService.Assemble", raceAttributes(input.Race)...)
	defer span.End()

	r := input.Race
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	b := &rosterBuilder{race: r, entries: make(map[string]*roster.Entry)}

	skipped := 0
	for _, row := range input.Startlist {
		name := strings.TrimSpace(row.Name)
		if name == "" {
			skipped++
			continue
		}
		res := s.resolver.Resolve(ctx, name, row.Nation, r.Gender)
		b.add(res, roster.ProvenanceStartlist, func(e *roster.Entry) {
			if e.Bib == "" {
				e.Bib = strings.TrimSpace(row.Bib)
			}
			if e.TeamLabel == "" {
				e.TeamLabel = strings.TrimSpace(row.TeamLabel)
			}
		})
	}
	if skipped > 0 {
		s.logger.WarnContext(ctx, "start list rows without athlete name skipped",
			"race", r.Index,
			"skipped", skipped,
		)
	}

	for _, o := range input.Overrides {
		prov, ok := o.ProvenanceFor(r.Index)
		if !ok || strings.TrimSpace(o.Name) == "" {
			continue
		}
		res := s.resolver.Resolve(ctx, o.Name, o.Nation, r.Gender)
		b.add(res, prov, nil)
	}

	for _, a := range s.snapshot.CurrentSeasonAthletes(r.Gender) {
		b.add(Resolution{Athlete: a, Confidence: 100}, roster.ProvenanceLedgerFallback, nil)
	}

	for _, p := range input.Prices.AthletesOf(r.Gender) {
		res := s.resolver.Resolve(ctx, p.Name, p.Nation, r.Gender)
		price := p.Price
		b.add(res, roster.ProvenancePriceFeed, func(e *roster.Entry) {
			if !e.HasPrice {
				e.Price = price
				e.HasPrice = true
			}
		})
	}

	priceGenders := s.priceGenders(input.Prices)
	out := make([]roster.Entry, 0, len(b.order))
	for _, key := range b.order {
		e := *b.entries[key]
		if e.Athlete.Imputed && e.Athlete.Gender == athlete.GenderMixed {
			if g, ok := priceGenders[s.normalizer.Normalize(e.Athlete.Name)]; ok {
				a := e.Athlete
				e.Athlete = s.snapshot.Placeholder(a.ID, a.Name, a.Nation, g)
			}
		}
		e.Athlete = s.enrich(e.Athlete, r, input.Ages)
		e.Quota, e.IsHostNation = s.allocator.ForRace(e.Athlete.NationCode, r)
		out = append(out, e)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Provenance.Rank() != out[j].Provenance.Rank() {
			return out[i].Provenance.Rank() < out[j].Provenance.Rank()
		}
		if out[i].Athlete.Name != out[j].Athlete.Name {
			return out[i].Athlete.Name < out[j].Athlete.Name
		}
		return out[i].Athlete.ID < out[j].Athlete.ID
	})

	s.logger.InfoContext(ctx, "roster assembled",
		"race", r.Index,
		"discipline", string(r.Discipline),
		"gender", string(r.Gender),
		"entries", len(out),
		"startlist_rows", len(input.Startlist),
	)
	return out, nil
}

// priceGenders maps normalized price-feed names to the gender the feed
// lists them under, so athletes imputed for a mixed event can still fill a
// women's or men's leg.
func (s *RosterService) priceGenders(prices fantasy.PriceList) map[string]athlete.Gender {
	out := make(map[string]athlete.Gender, len(prices.Athletes))
	for _, p := range prices.Athletes {
		if p.Gender != athlete.GenderMen && p.Gender != athlete.GenderWomen {
			continue
		}
		out[s.normalizer.Normalize(p.Name)] = p.Gender
	}
	return out
}

// enrich fills the race-dependent average-points proxy and, for athletes
// the ledger does not know, the profile age.
func (s *RosterService) enrich(a athlete.Athlete, r race.Race, ages map[string]float64) athlete.Athlete {
	if avg, ok := s.snapshot.AvgPoints(a.ID, r.Discipline); ok {
		a.AvgPoints = avg
	} else {
		a.AvgPoints = s.snapshot.Defaults(a.Gender).AvgPoints
	}
	if a.Imputed && len(ages) > 0 {
		if age, ok := ages[s.normalizer.Normalize(a.Name)]; ok && age > 0 {
			a.Age = age
		}
	}
	return a
}
