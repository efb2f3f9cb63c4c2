package athlete

import (
	"fmt"
	"strings"
)

type Gender string

const (
	GenderMen   Gender = "M"
	GenderWomen Gender = "L"
	GenderMixed Gender = "X"
)

// ParseGender accepts the spellings used by the ledger ("M", "L"), the
// pricing feed ("men", "women") and the weekend config.
func ParseGender(v string) (Gender, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "m", "men", "male", "man":
		return GenderMen, true
	case "l", "f", "w", "women", "ladies", "female", "woman":
		return GenderWomen, true
	case "x", "mixed":
		return GenderMixed, true
	default:
		return "", false
	}
}

// Includes reports whether an athlete of gender a may enter an event of g.
func (g Gender) Includes(a Gender) bool {
	return g == a || g == GenderMixed
}

// Dimension names one rating column of the ledger.
type Dimension string

const (
	DimElo               Dimension = "Elo"
	DimDistanceElo       Dimension = "Distance_Elo"
	DimDistanceClassic   Dimension = "Distance_C_Elo"
	DimDistanceFreestyle Dimension = "Distance_F_Elo"
	DimSprintElo         Dimension = "Sprint_Elo"
	DimSprintClassic     Dimension = "Sprint_C_Elo"
	DimSprintFreestyle   Dimension = "Sprint_F_Elo"
	DimClassicElo        Dimension = "Classic_Elo"
	DimFreestyleElo      Dimension = "Freestyle_Elo"
)

// Dimensions lists every rating column in ledger order.
var Dimensions = []Dimension{
	DimElo,
	DimDistanceElo,
	DimDistanceClassic,
	DimDistanceFreestyle,
	DimSprintElo,
	DimSprintClassic,
	DimSprintFreestyle,
	DimClassicElo,
	DimFreestyleElo,
}

type Ratings map[Dimension]float64

func (r Ratings) Clone() Ratings {
	out := make(Ratings, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Athlete is the canonical record of a skier for one prediction run.
type Athlete struct {
	ID         string
	Name       string
	Nation     string
	NationCode string
	Gender     Gender
	Ratings    Ratings
	Age        float64
	Exp        float64
	AvgPoints  float64
	Imputed    bool
}

func (a Athlete) Rating(d Dimension) (float64, bool) {
	v, ok := a.Ratings[d]
	return v, ok
}

func (a Athlete) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("athlete id is required")
	}
	if a.Name == "" {
		return fmt.Errorf("athlete name is required")
	}
	for _, d := range Dimensions {
		if _, ok := a.Ratings[d]; !ok {
			return fmt.Errorf("athlete %s missing rating %s", a.ID, d)
		}
	}
	return nil
}

const imputedIDPrefix = "imputed:"

// ImputedID derives a stable identity for an athlete that has no ledger row.
func ImputedID(normalizedName string) string {
	return imputedIDPrefix + normalizedName
}

func IsImputedID(id string) bool {
	return strings.HasPrefix(id, imputedIDPrefix)
}
