package scoring

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
)

const (
	featA Feature = "A"
	featB Feature = "B"
)

func TestPolynomial_Eval(t *testing.T) {
	t.Parallel()

	p := Polynomial{1, 2, 3}
	if got := p.Eval(2); got != 17 {
		t.Fatalf("Eval(2) = %v, want 17", got)
	}
	if got := Identity.Eval(4.5); got != 4.5 {
		t.Fatalf("identity Eval = %v", got)
	}
	if (Polynomial{0, 1, 0, 0, 0, 2}).Validate() == nil {
		t.Fatalf("degree 5 polynomial must be rejected")
	}
	if err := (Polynomial{0, 1, 0, 0, 0, 0}).Validate(); err != nil {
		t.Fatalf("trailing zeros should not count towards degree: %v", err)
	}
}

func TestFit_RecoversLinearModel(t *testing.T) {
	t.Parallel()

	var samples []Sample
	for a := 0.0; a < 5; a++ {
		for b := 0.0; b < 4; b++ {
			samples = append(samples, Sample{
				Values:   Values{featA: a, featB: b * b},
				Response: 2 + 3*a - 0.5*b*b,
			})
		}
	}

	c, err := Fit(samples, []Feature{featA, featB})
	require.NoError(t, err)
	assert.InDelta(t, 2, c.Intercept, 1e-9)
	assert.InDelta(t, 3, c.Weights[featA], 1e-9)
	assert.InDelta(t, -0.5, c.Weights[featB], 1e-9)
	assert.Equal(t, 20, c.Samples)
}

func TestFit_ConstantFeatureGetsZeroWeight(t *testing.T) {
	t.Parallel()

	var samples []Sample
	for a := 0.0; a < 6; a++ {
		samples = append(samples, Sample{Values: Values{featA: a}, Response: 1 + a})
	}

	c, err := Fit(samples, []Feature{featA, FeatureHome})
	require.NoError(t, err)
	assert.InDelta(t, 1, c.Weights[featA], 1e-9)
	assert.Equal(t, 0.0, c.Weights[FeatureHome])
	assert.Equal(t, []Feature{FeatureHome}, MissingFeatures(samples, []Feature{featA, FeatureHome}))
}

func TestFit_InsufficientHistory(t *testing.T) {
	t.Parallel()

	samples := []Sample{{Values: Values{featA: 1}, Response: 1}, {Values: Values{featA: 2}, Response: 2}}
	if _, err := Fit(samples, []Feature{featA}); !errors.Is(err, ErrInsufficientHistory) {
		t.Fatalf("expected ErrInsufficientHistory, got %v", err)
	}
	if _, err := Fit(samples, nil); !errors.Is(err, ErrNoFeatures) {
		t.Fatalf("expected ErrNoFeatures, got %v", err)
	}
}

func TestCoefficients_RawClampsAndTreatsMissingAsZero(t *testing.T) {
	t.Parallel()

	c := Coefficients{Intercept: -5, Weights: map[Feature]float64{featA: 2, featB: 10}}
	if got := c.Raw(Values{featA: 1}); got != 0 {
		t.Fatalf("negative raw must clamp to 0, got %v", got)
	}
	if got := c.Raw(Values{featA: 4}); got != 3 {
		t.Fatalf("raw = %v, want 3", got)
	}
	if got := Score(Values{featA: 1}, c, Polynomial{-10, 1}); got != 0 {
		t.Fatalf("score must never be negative, got %v", got)
	}
}

func TestCoefficients_RawMonotoneInRating(t *testing.T) {
	t.Parallel()

	elo := RatingFeature(athlete.DimElo)
	sprint := RatingFeature(athlete.DimSprintElo)
	c := Coefficients{
		Intercept: -3,
		Weights:   map[Feature]float64{elo: 0.002, sprint: 0.0015, FeatureAge: -0.05, FeatureHome: 0.2},
	}
	base := Values{elo: 1500, sprint: 1400, FeatureAge: 27, FeatureHome: 0}

	prev := c.Raw(base)
	for bump := 0.0; bump <= 1000; bump += 50 {
		v := Values{}
		for k, x := range base {
			v[k] = x
		}
		v[sprint] = base[sprint] + bump
		got := c.Raw(v)
		if got < prev {
			t.Fatalf("raw decreased from %v to %v when rating rose by %v", prev, got, bump)
		}
		prev = got
	}
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []float64{0.5, 1, 0}, Normalize([]float64{10, 20, 0}))
	assert.Equal(t, []float64{0, 0}, Normalize([]float64{0, 0}))
}

func TestCurves_ResponseFor(t *testing.T) {
	t.Parallel()

	curves := DefaultCurves()
	require.NoError(t, curves.Validate())

	stage := curves.ResponseFor(race.DisciplineSprint, race.KindStage)
	assert.Equal(t, curves.Response[CurveKey{Category: race.DisciplineSprint, Kind: race.KindStage}], stage)

	relay := curves.ResponseFor(race.DisciplineRelay, race.KindIndividual)
	assert.Equal(t, curves.Response[CurveKey{Category: race.DisciplineDistance, Kind: race.KindIndividual}], relay)

	custom := Curves{Response: map[CurveKey]Polynomial{{Category: race.DisciplineTeamSprint, Kind: race.KindTour}: {0, 2}}}
	merged := curves.Merge(custom)
	assert.Equal(t, Polynomial{0, 2}, merged.ResponseFor(race.DisciplineSprint, race.KindTour))

	empty := Curves{}
	assert.Equal(t, Identity, empty.ResponseFor(race.DisciplineSprint, race.KindIndividual))
	assert.Equal(t, Identity, empty.TransformFor(race.DisciplineDistance))
}

func TestDefaultResponseCurvesIncreaseOverUsedRange(t *testing.T) {
	t.Parallel()

	for key, curve := range DefaultCurves().Response {
		prev := curve.Eval(0)
		for x := 0.05; x <= 2; x += 0.05 {
			y := curve.Eval(x)
			if y < prev {
				t.Fatalf("curve %s/%s decreases at %v", key.Category, key.Kind, x)
			}
			prev = y
		}
	}
}

func TestSamples_FiltersHistory(t *testing.T) {
	t.Parallel()

	p := func(v float64) *float64 { return &v }
	history := []ledger.Entry{
		{ID: "1", Season: 2025, Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen, Points: p(50),
			Ratings: athlete.Ratings{athlete.DimElo: 1500}, Age: 25, Exp: 40, Home: true},
		{ID: "2", Season: 2025, Discipline: race.DisciplineSprint, Technique: race.TechniqueFreestyle, Gender: athlete.GenderMen, Points: p(40)},
		{ID: "3", Season: 2019, Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen, Points: p(30)},
		{ID: "4", Season: 2025, Discipline: race.DisciplineDistance, Technique: race.TechniqueClassic, Gender: athlete.GenderMen, Points: p(20)},
		{ID: "5", Season: 2025, Discipline: race.DisciplineTeamSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen, Points: p(10)},
		{ID: "6", Season: 2025, Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderWomen, Points: p(10)},
		{ID: "7", Season: 2025, Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen},
		{ID: "team:NOR:1", Season: 2025, Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen, IsTeam: true, Points: p(5)},
		{ID: "8", Season: 2025, Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen, Points: p(20)},
	}
	spec := FitSpec{Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen, SeasonCutoff: 2020}
	avg := func(id string, _ race.Discipline) (float64, bool) {
		return 12, id == "1"
	}

	samples := Samples(history, spec, Polynomial{0, 0.01}, avg, nil)
	// Athlete rows from team sprints count towards the sprint category.
	require.Len(t, samples, 3)
	assert.InDelta(t, 0.5, samples[0].Response, 1e-12)
	assert.Equal(t, 1.0, samples[0].Values[FeatureHome])
	assert.Equal(t, 12.0, samples[0].Values[FeatureAvgPoints])
	assert.Equal(t, 1500.0, samples[0].Values[RatingFeature(athlete.DimElo)])
	assert.InDelta(t, 0.1, samples[1].Response, 1e-12)
	_, hasAvg := samples[2].Values[FeatureAvgPoints]
	assert.False(t, hasAvg)
	assert.InDelta(t, 0.2, samples[2].Response, 1e-12)
	assert.False(t, math.IsNaN(samples[2].Response))

	teamSpec := FitSpec{Discipline: race.DisciplineTeamSprint, Technique: race.TechniqueClassic, SeasonCutoff: 2020}
	teamSamples := Samples(history, teamSpec, Identity, nil, nil)
	assert.Empty(t, teamSamples)

	history = append(history, ledger.Entry{ID: "team:NOR:2", Season: 2025, Discipline: race.DisciplineTeamSprint, Technique: race.TechniqueClassic,
		IsTeam: true, Points: p(60), Ratings: athlete.Ratings{athlete.DimSprintElo: 1900}})
	teamSamples = Samples(history, teamSpec, Identity, nil, nil)
	require.Len(t, teamSamples, 1)
	assert.Equal(t, 60.0, teamSamples[0].Response)
}

func TestSamples_FillsMissingRatingsWithQuartile(t *testing.T) {
	t.Parallel()

	p := func(v float64) *float64 { return &v }
	history := []ledger.Entry{
		{ID: "1", Season: 2025, Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen, Points: p(50),
			Ratings: athlete.Ratings{athlete.DimSprintElo: 1950}, Age: 27, Exp: 80},
		{ID: "2", Season: 2025, Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen, Points: p(30),
			Ratings: athlete.Ratings{}, Exp: 20},
		{ID: "team:NOR:1", Season: 2025, Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen,
			IsTeam: true, Points: p(10)},
	}
	spec := FitSpec{Discipline: race.DisciplineSprint, Technique: race.TechniqueClassic, Gender: athlete.GenderMen}
	defaults := func(g athlete.Gender) ledger.Defaults {
		if g != athlete.GenderMen {
			t.Fatalf("unexpected gender %q", g)
		}
		return ledger.Defaults{Ratings: athlete.Ratings{athlete.DimSprintElo: 1700, athlete.DimElo: 1650}, Age: 24, Exp: 15}
	}

	samples := Samples(history, spec, Identity, nil, defaults)
	require.Len(t, samples, 2)
	assert.Equal(t, 1950.0, samples[0].Values[RatingFeature(athlete.DimSprintElo)])
	assert.Equal(t, 1700.0, samples[1].Values[RatingFeature(athlete.DimSprintElo)])
	assert.Equal(t, 24.0, samples[1].Values[FeatureAge])

	// Elo is carried by no matching row, so it stays absent.
	_, hasElo := samples[1].Values[RatingFeature(athlete.DimElo)]
	assert.False(t, hasElo)
	assert.Equal(t, []Feature{RatingFeature(athlete.DimElo)},
		MissingFeatures(samples, []Feature{RatingFeature(athlete.DimSprintElo), RatingFeature(athlete.DimElo)}))
}

func TestValuesOf(t *testing.T) {
	t.Parallel()

	a := athlete.Athlete{Ratings: athlete.Ratings{athlete.DimElo: 1800}, Age: 30, Exp: 100, AvgPoints: 45}
	v := ValuesOf(a, true)
	assert.Equal(t, 1800.0, v[RatingFeature(athlete.DimElo)])
	assert.Equal(t, 1.0, v[FeatureHome])
	assert.Equal(t, 45.0, v[FeatureAvgPoints])
	assert.Equal(t, 0.0, ValuesOf(a, false)[FeatureHome])
}
