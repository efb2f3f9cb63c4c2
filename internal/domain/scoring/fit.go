package scoring

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
)

// FitSpec selects the history rows a model is fitted on.
type FitSpec struct {
	Discipline   race.Discipline
	Technique    race.Technique
	Gender       athlete.Gender
	Level        string
	SeasonCutoff int
	Features     []Feature
}

// Sample is one historical observation ready for regression.
type Sample struct {
	Values   Values
	Response float64
}

// AvgPointsFunc looks up the average-points proxy of a ledger athlete.
type AvgPointsFunc func(id string, category race.Discipline) (float64, bool)

// DefaultsFunc returns the quartile defaults of a gender.
type DefaultsFunc func(g athlete.Gender) ledger.Defaults

// Matches reports whether a ledger row belongs to the fit population. Team
// races fit on team rows of the exact discipline; individual races fit on
// athlete rows of the same category.
func (s FitSpec) Matches(e ledger.Entry) bool {
	if e.Points == nil || math.IsNaN(*e.Points) {
		return false
	}
	if s.Discipline.IsTeam() {
		if !e.IsTeam || e.Discipline != s.Discipline {
			return false
		}
	} else if e.IsTeam || e.Discipline.Category() != s.Discipline.Category() {
		return false
	}
	if s.Technique != race.TechniqueMixed && e.Technique != s.Technique {
		return false
	}
	if s.Gender != "" && !s.Gender.Includes(e.Gender) {
		return false
	}
	if s.Level != "" && !strings.EqualFold(e.Level, s.Level) {
		return false
	}
	return e.Season >= s.SeasonCutoff
}

// Samples turns matching history rows into regression samples. The response
// is the realized points passed through the category transform. With
// defaults set, an athlete row missing a rating, age or experience that
// other matching rows carry gets the quartile default of its gender;
// columns no matching row carries stay absent. Team rows are used as is.
func Samples(history []ledger.Entry, spec FitSpec, transform Polynomial, avg AvgPointsFunc, defaults DefaultsFunc) []Sample {
	matched := make([]ledger.Entry, 0, len(history)/4)
	for _, e := range history {
		if spec.Matches(e) {
			matched = append(matched, e)
		}
	}

	present := make(map[athlete.Dimension]bool, len(athlete.Dimensions))
	hasAge := false
	for _, e := range matched {
		for d, r := range e.Ratings {
			if !math.IsNaN(r) {
				present[d] = true
			}
		}
		hasAge = hasAge || e.Age > 0
	}

	out := make([]Sample, 0, len(matched))
	for _, e := range matched {
		var d *ledger.Defaults
		if defaults != nil && !e.IsTeam {
			gd := defaults(e.Gender)
			d = &gd
		}

		v := make(Values, len(present)+4)
		for dim := range present {
			r, ok := e.Ratings[dim]
			switch {
			case ok && !math.IsNaN(r):
				v[RatingFeature(dim)] = r
			case d != nil:
				v[RatingFeature(dim)] = d.Ratings[dim]
			}
		}
		switch {
		case e.Age > 0:
			v[FeatureAge] = e.Age
		case hasAge && d != nil:
			v[FeatureAge] = d.Age
		}
		v[FeatureExp] = e.Exp
		if math.IsNaN(e.Exp) {
			if d != nil {
				v[FeatureExp] = d.Exp
			} else {
				delete(v, FeatureExp)
			}
		}
		if e.Home {
			v[FeatureHome] = 1
		} else {
			v[FeatureHome] = 0
		}
		if avg != nil {
			if p, ok := avg(e.ID, e.Discipline); ok {
				v[FeatureAvgPoints] = p
			}
		}
		out = append(out, Sample{Values: v, Response: transform.Eval(*e.Points)})
	}
	return out
}

// MissingFeatures lists features absent from every sample.
func MissingFeatures(samples []Sample, features []Feature) []Feature {
	var missing []Feature
	for _, f := range features {
		found := false
		for _, s := range samples {
			if _, ok := s.Values[f]; ok {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, f)
		}
	}
	return missing
}

// Fit runs ordinary least squares with an intercept. Features that are
// constant across the samples (including entirely missing ones, read as 0)
// cannot be identified and get a zero weight.
func Fit(samples []Sample, features []Feature) (Coefficients, error) {
	if len(features) == 0 {
		return Coefficients{}, ErrNoFeatures
	}
	if len(samples) < len(features)+2 {
		return Coefficients{}, fmt.Errorf("%w: %d samples for %d features", ErrInsufficientHistory, len(samples), len(features))
	}

	active := make([]Feature, 0, len(features))
	for _, f := range features {
		if varies(samples, f) {
			active = append(active, f)
		}
	}

	n, p := len(samples), len(active)+1
	x := mat.NewDense(n, p, nil)
	y := mat.NewDense(n, 1, nil)
	for i, s := range samples {
		x.Set(i, 0, 1)
		for j, f := range active {
			x.Set(i, j+1, s.Values[f])
		}
		y.Set(i, 0, s.Response)
	}

	var beta mat.Dense
	if err := beta.Solve(x, y); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return Coefficients{}, fmt.Errorf("solve least squares: %w", err)
		}
	}

	c := Coefficients{
		Intercept: beta.At(0, 0),
		Weights:   make(map[Feature]float64, len(features)),
		Features:  append([]Feature(nil), features...),
		Samples:   n,
	}
	for _, f := range features {
		c.Weights[f] = 0
	}
	for j, f := range active {
		c.Weights[f] = beta.At(j+1, 0)
	}
	if err := c.Validate(); err != nil {
		return Coefficients{}, fmt.Errorf("fit produced unusable coefficients: %w", err)
	}
	return c, nil
}

func varies(samples []Sample, f Feature) bool {
	first := samples[0].Values[f]
	for _, s := range samples[1:] {
		if s.Values[f] != first {
			return true
		}
	}
	return false
}
