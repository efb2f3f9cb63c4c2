package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/team"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/cache"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

// ScoreRequest describes how one race is scored.
type ScoreRequest struct {
	Race race.Race
	// Features overrides the default regressors of the race.
	Features []scoring.Feature
	// Coefficients, when set, are used as given and no model is fitted.
	Coefficients *scoring.Coefficients
	Level        string
	Normalize    bool
}

func (r ScoreRequest) features() []scoring.Feature {
	if len(r.Features) > 0 {
		return r.Features
	}
	return scoring.DefaultFeatures(r.Race)
}

type ScoringService struct {
	snapshot     *ledger.Snapshot
	curves       scoring.Curves
	seasonCutoff int
	fits         *cache.Store[scoring.Coefficients]
	logger       *logging.Logger
}

func NewScoringService(snapshot *ledger.Snapshot, curves scoring.Curves, seasonCutoff int, logger *logging.Logger) *ScoringService {
	if curves.Transform == nil && curves.Response == nil {
		curves = scoring.DefaultCurves()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ScoringService{
		snapshot:     snapshot,
		curves:       curves,
		seasonCutoff: seasonCutoff,
		fits:         cache.NewStore[scoring.Coefficients](0),
		logger:       logger,
	}
}

// Fit regresses transformed realized points on the features of a FitSpec.
// Fits are memoized per FitSpec, so races sharing a population fit once.
func (s *ScoringService) Fit(ctx context.Context, spec scoring.FitSpec) (scoring.Coefficients, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.Fit")
	defer span.End()

	return s.fits.GetOrLoad(ctx, fitKey(spec), func(ctx context.Context) (scoring.Coefficients, error) {
		samples := scoring.Samples(s.snapshot.Entries(), spec, s.curves.TransformFor(spec.Discipline), s.snapshot.AvgPoints, s.snapshot.Defaults)
		if missing := scoring.MissingFeatures(samples, spec.Features); len(missing) > 0 && len(samples) > 0 {
			s.logger.WarnContext(ctx, "feature absent from fit history, substituting 0",
				"discipline", string(spec.Discipline),
				"features", joinFeatures(missing),
			)
		}
		c, err := scoring.Fit(samples, spec.Features)
		if err != nil {
			return scoring.Coefficients{}, err
		}
		s.logger.DebugContext(ctx, "model fitted",
			"discipline", string(spec.Discipline),
			"technique", string(spec.Technique),
			"gender", string(spec.Gender),
			"samples", c.Samples,
			"intercept", c.Intercept,
		)
		return c, nil
	})
}

// Coefficients returns the configured model of a race, else a fitted one.
// Without enough history the race scores zero for everyone and a warning is
// logged; the run continues.
func (s *ScoringService) Coefficients(ctx context.Context, req ScoreRequest) (scoring.Coefficients, error) {
	features := req.features()
	if req.Coefficients != nil {
		if err := req.Coefficients.Validate(); err != nil {
			return scoring.Coefficients{}, fmt.Errorf("%w: race %d coefficients: %v", ErrInvalidInput, req.Race.Index, err)
		}
		c := *req.Coefficients
		if len(c.Features) == 0 {
			c.Features = features
		}
		return c, nil
	}

	spec := scoring.FitSpec{
		Discipline:   req.Race.Discipline,
		Technique:    req.Race.Technique,
		Gender:       req.Race.Gender,
		Level:        req.Level,
		SeasonCutoff: s.seasonCutoff,
		Features:     features,
	}
	c, err := s.Fit(ctx, spec)
	if errors.Is(err, scoring.ErrInsufficientHistory) {
		s.logger.WarnContext(ctx, "insufficient history, race scored as zero",
			"race", req.Race.Index,
			"discipline", string(req.Race.Discipline),
			"error", err,
		)
		return zeroCoefficients(features), nil
	}
	if err != nil {
		return scoring.Coefficients{}, fmt.Errorf("fit race %d: %w", req.Race.Index, err)
	}
	return c, nil
}

// ScoreEntries sets Points on every roster entry of one race.
func (s *ScoringService) ScoreEntries(ctx context.Context, req ScoreRequest, entries []roster.Entry) ([]roster.Entry, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ScoreEntries", raceAttributes(req.Race)...)
	defer span.End()

	if req.Race.Discipline.IsTeam() {
		return nil, fmt.Errorf("%w: race %d is a team event", ErrInvalidInput, req.Race.Index)
	}

	values := make([]scoring.Values, len(entries))
	for i, e := range entries {
		values[i] = scoring.ValuesOf(e.Athlete, e.IsHostNation)
	}
	points, err := s.score(ctx, req, values)
	if err != nil {
		return nil, err
	}

	out := make([]roster.Entry, len(entries))
	for i, e := range entries {
		e.Points = points[i]
		out[i] = e
	}
	return out, nil
}

// ScoreTeams sets Points on every team of one team race, scoring each team
// on its aggregated ratings.
func (s *ScoringService) ScoreTeams(ctx context.Context, req ScoreRequest, teams []team.Team) ([]team.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringService.ScoreTeams", raceAttributes(req.Race)...)
	defer span.End()

	if !req.Race.Discipline.IsTeam() {
		return nil, fmt.Errorf("%w: race %d is not a team event", ErrInvalidInput, req.Race.Index)
	}

	values := make([]scoring.Values, len(teams))
	for i, t := range teams {
		values[i] = scoring.ValuesOf(t.Athlete(), t.IsHostNation)
	}
	points, err := s.score(ctx, req, values)
	if err != nil {
		return nil, err
	}

	out := make([]team.Team, len(teams))
	for i, t := range teams {
		t.Points = points[i]
		out[i] = t
	}
	return out, nil
}

func (s *ScoringService) score(ctx context.Context, req ScoreRequest, values []scoring.Values) ([]float64, error) {
	c, err := s.Coefficients(ctx, req)
	if err != nil {
		return nil, err
	}

	if missing := missingColumns(values, c.Features); len(missing) > 0 {
		s.logger.WarnContext(ctx, "feature absent from every row, substituting 0",
			"race", req.Race.Index,
			"features", joinFeatures(missing),
		)
	}

	curve := s.curves.ResponseFor(req.Race.Discipline, req.Race.Kind)
	points := make([]float64, len(values))
	for i, v := range values {
		points[i] = scoring.Score(v, c, curve)
	}
	if req.Normalize {
		points = scoring.Normalize(points)
	}
	return points, nil
}

func missingColumns(values []scoring.Values, features []scoring.Feature) []scoring.Feature {
	if len(values) == 0 {
		return nil
	}
	var missing []scoring.Feature
	for _, f := range features {
		found := false
		for _, v := range values {
			if _, ok := v[f]; ok {
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

func zeroCoefficients(features []scoring.Feature) scoring.Coefficients {
	c := scoring.Coefficients{
		Weights:  make(map[scoring.Feature]float64, len(features)),
		Features: append([]scoring.Feature(nil), features...),
	}
	for _, f := range features {
		c.Weights[f] = 0
	}
	return c
}

func fitKey(spec scoring.FitSpec) string {
	return fmt.Sprintf("fit:%s:%s:%s:%s:%d:%s",
		spec.Discipline, spec.Technique, spec.Gender, strings.ToLower(spec.Level), spec.SeasonCutoff, joinFeatures(spec.Features))
}

func joinFeatures(features []scoring.Feature) string {
	parts := make([]string, len(features))
	for i, f := range features {
		parts[i] = string(f)
	}
	return strings.Join(parts, ",")
}
