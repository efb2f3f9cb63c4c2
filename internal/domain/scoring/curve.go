package scoring

import (
	"fmt"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
)

// MaxCurveDegree bounds every response curve.
const MaxCurveDegree = 4

// Polynomial holds coefficients in ascending order: p[0] + p[1]x + p[2]x² ...
type Polynomial []float64

func (p Polynomial) Eval(x float64) float64 {
	var y float64
	for i := len(p) - 1; i >= 0; i-- {
		y = y*x + p[i]
	}
	return y
}

func (p Polynomial) Degree() int {
	for i := len(p) - 1; i >= 0; i-- {
		if p[i] != 0 {
			return i
		}
	}
	return 0
}

func (p Polynomial) Validate() error {
	if len(p) == 0 {
		return fmt.Errorf("polynomial has no coefficients")
	}
	if d := p.Degree(); d > MaxCurveDegree {
		return fmt.Errorf("polynomial degree %d exceeds %d", d, MaxCurveDegree)
	}
	return nil
}

// Identity leaves a value unchanged.
var Identity = Polynomial{0, 1}

// CurveKey selects a response curve. Team events use the curve of their
// category.
type CurveKey struct {
	Category race.Discipline
	Kind     race.Kind
}

func NewCurveKey(d race.Discipline, k race.Kind) CurveKey {
	if k == "" {
		k = race.KindIndividual
	}
	return CurveKey{Category: d.Category(), Kind: k}
}

// Curves pairs each race type with the transform applied to realized points
// before fitting and the response curve applied to the fitted score.
type Curves struct {
	Transform map[race.Discipline]Polynomial
	Response  map[CurveKey]Polynomial
}

// DefaultCurves returns the built-in curves. Realized points are scaled to a
// unit response per category; the response curves map that scale back to
// fantasy points, with stage and tour races paying out less per place.
func DefaultCurves() Curves {
	return Curves{
		Transform: map[race.Discipline]Polynomial{
			race.DisciplineSprint:   {0, 0.0125, -0.00002},
			race.DisciplineDistance: {0, 0.01, -0.00001},
		},
		Response: map[CurveKey]Polynomial{
			{Category: race.DisciplineSprint, Kind: race.KindIndividual}:   {0, 78, 14, -2.5},
			{Category: race.DisciplineSprint, Kind: race.KindStage}:        {0, 70, 10, -1.8},
			{Category: race.DisciplineSprint, Kind: race.KindTour}:         {0, 62, 8, -1.2},
			{Category: race.DisciplineDistance, Kind: race.KindIndividual}: {0, 95, 6, -1.5, 0.05},
			{Category: race.DisciplineDistance, Kind: race.KindStage}:      {0, 85, 5, -1.2},
			{Category: race.DisciplineDistance, Kind: race.KindTour}:       {0, 120, 10, -2},
		},
	}
}

// TransformFor returns the points transform of a discipline's category.
func (c Curves) TransformFor(d race.Discipline) Polynomial {
	if p, ok := c.Transform[d.Category()]; ok {
		return p
	}
	return Identity
}

// ResponseFor falls back to the individual curve of the category, then to
// the identity.
func (c Curves) ResponseFor(d race.Discipline, k race.Kind) Polynomial {
	key := NewCurveKey(d, k)
	if p, ok := c.Response[key]; ok {
		return p
	}
	if p, ok := c.Response[NewCurveKey(d, race.KindIndividual)]; ok {
		return p
	}
	return Identity
}

// Merge overlays configured curves on top of c.
func (c Curves) Merge(other Curves) Curves {
	out := Curves{
		Transform: make(map[race.Discipline]Polynomial, len(c.Transform)+len(other.Transform)),
		Response:  make(map[CurveKey]Polynomial, len(c.Response)+len(other.Response)),
	}
	for k, v := range c.Transform {
		out.Transform[k] = v
	}
	for k, v := range other.Transform {
		out.Transform[k.Category()] = v
	}
	for k, v := range c.Response {
		out.Response[k] = v
	}
	for k, v := range other.Response {
		out.Response[NewCurveKey(k.Category, k.Kind)] = v
	}
	return out
}

func (c Curves) Validate() error {
	for d, p := range c.Transform {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("transform %s: %w", d, err)
		}
	}
	for k, p := range c.Response {
		if err := p.Validate(); err != nil {
			return fmt.Errorf("response %s/%s: %w", k.Category, k.Kind, err)
		}
	}
	return nil
}
