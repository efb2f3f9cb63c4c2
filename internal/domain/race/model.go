package race

import (
	"fmt"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
)

type Discipline string

const (
	DisciplineSprint          Discipline = "sprint"
	DisciplineDistance        Discipline = "distance"
	DisciplineTeamSprint      Discipline = "team_sprint"
	DisciplineRelay           Discipline = "relay"
	DisciplineMixedTeamSprint Discipline = "mixed_team_sprint"
	DisciplineMixedRelay      Discipline = "mixed_relay"
)

var AllDisciplines = map[Discipline]struct{}{
	DisciplineSprint:          {},
	DisciplineDistance:        {},
	DisciplineTeamSprint:      {},
	DisciplineRelay:           {},
	DisciplineMixedTeamSprint: {},
	DisciplineMixedRelay:      {},
}

// ParseDiscipline accepts the canonical names plus the spellings found in
// ledger exports ("Team Sprint", "TS", "Rel", "mixed-relay").
func ParseDiscipline(v string) (Discipline, error) {
	key := strings.NewReplacer(" ", "_", "-", "_").Replace(strings.ToLower(strings.TrimSpace(v)))
	switch key {
	case "sprint", "sp":
		return DisciplineSprint, nil
	case "distance", "dist":
		return DisciplineDistance, nil
	case "team_sprint", "ts", "teamsprint":
		return DisciplineTeamSprint, nil
	case "relay", "rel":
		return DisciplineRelay, nil
	case "mixed_team_sprint", "mts":
		return DisciplineMixedTeamSprint, nil
	case "mixed_relay", "mrel", "mixedrelay":
		return DisciplineMixedRelay, nil
	default:
		return "", fmt.Errorf("unknown discipline %q", v)
	}
}

// Legs is the fixed team size; zero for individual events.
func (d Discipline) Legs() int {
	switch d {
	case DisciplineTeamSprint, DisciplineMixedTeamSprint:
		return 2
	case DisciplineRelay, DisciplineMixedRelay:
		return 4
	default:
		return 0
	}
}

func (d Discipline) IsTeam() bool {
	return d.Legs() > 0
}

func (d Discipline) IsMixed() bool {
	return d == DisciplineMixedTeamSprint || d == DisciplineMixedRelay
}

// RatingDivisor is applied to each member's rating before summing. Sprint
// style team events historically count half of each member.
func (d Discipline) RatingDivisor() float64 {
	switch d {
	case DisciplineTeamSprint, DisciplineMixedTeamSprint:
		return 2
	default:
		return 1
	}
}

// Category groups team events with the individual format their legs race:
// team sprints are sprints, relays are distance races.
func (d Discipline) Category() Discipline {
	switch d {
	case DisciplineTeamSprint, DisciplineMixedTeamSprint:
		return DisciplineSprint
	case DisciplineRelay, DisciplineMixedRelay:
		return DisciplineDistance
	default:
		return d
	}
}

type Technique string

const (
	TechniqueClassic   Technique = "C"
	TechniqueFreestyle Technique = "F"
	TechniqueMixed     Technique = ""
)

func ParseTechnique(v string) (Technique, error) {
	switch strings.ToUpper(strings.TrimSpace(v)) {
	case "C", "CLASSIC":
		return TechniqueClassic, nil
	case "F", "FREE", "FREESTYLE", "SKATE":
		return TechniqueFreestyle, nil
	case "", "P", "PURSUIT", "SKIATHLON", "MIXED":
		return TechniqueMixed, nil
	default:
		return "", fmt.Errorf("unknown technique %q", v)
	}
}

// Kind selects the response curve family. Stage races and tours award
// fantasy points differently from single World Cup races.
type Kind string

const (
	KindIndividual Kind = "individual"
	KindStage      Kind = "stage"
	KindTour       Kind = "tour"
)

func ParseKind(v string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(v))) {
	case "", KindIndividual:
		return KindIndividual, nil
	case KindStage:
		return KindStage, nil
	case KindTour:
		return KindTour, nil
	default:
		return "", fmt.Errorf("unknown race kind %q", v)
	}
}

// Race is one event of a weekend. Index is 1-based and keys the probability
// and points columns of the output.
type Race struct {
	Index      int
	ExternalID string
	Discipline Discipline
	Technique  Technique
	Gender     athlete.Gender
	Kind       Kind
	HostNation string
	Date       time.Time
}

func (r Race) Validate() error {
	if r.Index < 1 {
		return fmt.Errorf("race index must be >= 1")
	}
	if _, ok := AllDisciplines[r.Discipline]; !ok {
		return fmt.Errorf("invalid discipline %q for race %d", r.Discipline, r.Index)
	}
	if r.Discipline.IsMixed() && r.Gender != athlete.GenderMixed {
		return fmt.Errorf("race %d: mixed discipline requires mixed gender", r.Index)
	}
	if !r.Discipline.IsMixed() && r.Gender == athlete.GenderMixed {
		return fmt.Errorf("race %d: discipline %s cannot be mixed gender", r.Index, r.Discipline)
	}
	if r.Gender == "" {
		return fmt.Errorf("race %d: gender is required", r.Index)
	}
	return nil
}

// PrimaryDimension is the rating that best describes ability in this race.
func (r Race) PrimaryDimension() athlete.Dimension {
	switch r.Discipline.Category() {
	case DisciplineSprint:
		switch r.Technique {
		case TechniqueClassic:
			return athlete.DimSprintClassic
		case TechniqueFreestyle:
			return athlete.DimSprintFreestyle
		}
		return athlete.DimSprintElo
	default:
		switch r.Technique {
		case TechniqueClassic:
			return athlete.DimDistanceClassic
		case TechniqueFreestyle:
			return athlete.DimDistanceFreestyle
		}
		return athlete.DimDistanceElo
	}
}

func (r Race) IsHost(nationCode string) bool {
	return r.HostNation != "" && strings.EqualFold(r.HostNation, nationCode)
}

// Weekend groups the races scored together into one output table.
type Weekend struct {
	Season     int
	HostNation string
	Races      []Race
}

func (w Weekend) Validate() error {
	if len(w.Races) == 0 {
		return fmt.Errorf("weekend has no races")
	}
	seen := make(map[int]struct{}, len(w.Races))
	for _, r := range w.Races {
		if err := r.Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Index]; dup {
			return fmt.Errorf("duplicate race index %d", r.Index)
		}
		seen[r.Index] = struct{}{}
	}
	return nil
}
