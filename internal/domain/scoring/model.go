package scoring

import (
	"errors"
	"fmt"
	"math"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
)

var (
	ErrInsufficientHistory = errors.New("insufficient history to fit model")
	ErrNoFeatures          = errors.New("no features configured")
)

// Feature names one regressor. Rating features reuse the ledger column name.
type Feature string

const (
	FeatureAge       Feature = "Age"
	FeatureExp       Feature = "Exp"
	FeatureHome      Feature = "Home"
	FeatureAvgPoints Feature = "AvgPoints"
)

func RatingFeature(d athlete.Dimension) Feature {
	return Feature(d)
}

// DefaultFeatures is the regressor list used when the weekend config does
// not name one: the race's primary rating, overall Elo and the covariates.
func DefaultFeatures(r race.Race) []Feature {
	return []Feature{
		RatingFeature(r.PrimaryDimension()),
		RatingFeature(athlete.DimElo),
		FeatureAge,
		FeatureExp,
		FeatureHome,
		FeatureAvgPoints,
	}
}

// Values is one subject's feature vector. A missing key reads as 0.
type Values map[Feature]float64

// ValuesOf extracts every known feature from an athlete or team subject.
func ValuesOf(a athlete.Athlete, isHost bool) Values {
	v := make(Values, len(a.Ratings)+4)
	for d, r := range a.Ratings {
		v[RatingFeature(d)] = r
	}
	v[FeatureAge] = a.Age
	v[FeatureExp] = a.Exp
	v[FeatureAvgPoints] = a.AvgPoints
	if isHost {
		v[FeatureHome] = 1
	} else {
		v[FeatureHome] = 0
	}
	return v
}

// Coefficients is a fitted (or configured) linear model.
type Coefficients struct {
	Intercept float64
	Weights   map[Feature]float64
	Features  []Feature
	Samples   int
}

func (c Coefficients) Validate() error {
	for f, w := range c.Weights {
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return fmt.Errorf("coefficient %s is not finite", f)
		}
	}
	if math.IsNaN(c.Intercept) || math.IsInf(c.Intercept, 0) {
		return fmt.Errorf("intercept is not finite")
	}
	return nil
}

// Raw is the clamped linear prediction: intercept + Σ wᵢ·xᵢ, never below 0.
func (c Coefficients) Raw(v Values) float64 {
	raw := c.Intercept
	for f, w := range c.Weights {
		raw += w * v[f]
	}
	return max(raw, 0)
}

// Score maps a feature vector through the linear model and the response
// curve. The result is never negative.
func Score(v Values, c Coefficients, curve Polynomial) float64 {
	return max(curve.Eval(c.Raw(v)), 0)
}

// Normalize divides each score by the group maximum. It is applied after the
// response curve; an all-zero group is returned unchanged.
func Normalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	var top float64
	for _, s := range scores {
		top = max(top, s)
	}
	for i, s := range scores {
		if top > 0 {
			out[i] = s / top
		} else {
			out[i] = s
		}
	}
	return out
}
