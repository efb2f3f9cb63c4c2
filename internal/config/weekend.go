package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/fantasy"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/quota"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/scoring"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/startlist"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/nation"
	"github.com/riskibarqy/fantasy-skiing/internal/usecase"
)

var ErrInvalidWeekend = errors.New("invalid weekend config")

// WeekendEnvPrefix scopes environment overrides of the weekend file, e.g.
// WEEKEND_HOST_NATION or WEEKEND_HOST_BONUS.
const WeekendEnvPrefix = "WEEKEND_"

var raceDateLayouts = []string{"2006-01-02", time.RFC3339}

// WeekendFile is the YAML layout of one race weekend.
type WeekendFile struct {
	Season     int               `koanf:"season" validate:"required,gte=1900"`
	HostNation string            `koanf:"host_nation"`
	HostBonus  *int              `koanf:"host_bonus" validate:"omitempty,gte=0"`
	Races      []WeekendRace     `koanf:"races" validate:"required,min=1,dive"`
	Quotas     []WeekendQuota    `koanf:"quotas" validate:"dive"`
	Overrides  []WeekendOverride `koanf:"overrides" validate:"dive"`
	Aliases    []WeekendAlias    `koanf:"aliases" validate:"dive"`
	Curves     WeekendCurves     `koanf:"curves"`
	Prices     []WeekendPrice    `koanf:"prices" validate:"dive"`
}

type WeekendRace struct {
	Index        int                  `koanf:"index" validate:"required,gte=1"`
	ExternalID   string               `koanf:"external_id"`
	Discipline   string               `koanf:"discipline" validate:"required"`
	Technique    string               `koanf:"technique"`
	Gender       string               `koanf:"gender" validate:"required"`
	Kind         string               `koanf:"kind"`
	Date         string               `koanf:"date"`
	HostNation   string               `koanf:"host_nation"`
	Level        string               `koanf:"level"`
	Normalize    bool                 `koanf:"normalize"`
	Features     []string             `koanf:"features" validate:"dive,required"`
	Coefficients *WeekendCoefficients `koanf:"coefficients"`
	Startlist    []WeekendStartlist   `koanf:"startlist" validate:"dive"`
}

type WeekendCoefficients struct {
	Intercept float64            `koanf:"intercept"`
	Weights   map[string]float64 `koanf:"weights" validate:"required,min=1"`
}

type WeekendStartlist struct {
	Name      string `koanf:"name"`
	Nation    string `koanf:"nation"`
	Bib       string `koanf:"bib"`
	Team      string `koanf:"team"`
	ProfileID string `koanf:"profile_id"`
}

type WeekendQuota struct {
	Nation     string `koanf:"nation" validate:"required"`
	Discipline string `koanf:"discipline" validate:"required"`
	Gender     string `koanf:"gender" validate:"required"`
	Base       int    `koanf:"base" validate:"gte=0"`
}

type WeekendOverride struct {
	Nation string `koanf:"nation" validate:"required"`
	Name   string `koanf:"name" validate:"required"`
	Yes    []int  `koanf:"yes" validate:"dive,gte=1"`
	No     []int  `koanf:"no" validate:"dive,gte=1"`
}

type WeekendAlias struct {
	From string `koanf:"from" validate:"required"`
	To   string `koanf:"to" validate:"required"`
}

type WeekendCurves struct {
	Transform []WeekendCurve `koanf:"transform" validate:"dive"`
	Response  []WeekendCurve `koanf:"response" validate:"dive"`
}

type WeekendCurve struct {
	Discipline   string    `koanf:"discipline" validate:"required"`
	Kind         string    `koanf:"kind"`
	Coefficients []float64 `koanf:"coefficients" validate:"required,min=1,max=5"`
}

type WeekendPrice struct {
	Name   string  `koanf:"name" validate:"required"`
	Price  float64 `koanf:"price" validate:"gte=0"`
	Gender string  `koanf:"gender"`
	Nation string  `koanf:"nation"`
	IsTeam bool    `koanf:"is_team"`
}

// LoadWeekend reads the weekend YAML at path, applies WEEKEND_* environment
// overrides, validates it and converts it into a prediction plan.
func LoadWeekend(path string) (usecase.WeekendPlan, error) {
	if strings.TrimSpace(path) == "" {
		return usecase.WeekendPlan{}, fmt.Errorf("%w: weekend path is required", ErrInvalidWeekend)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return usecase.WeekendPlan{}, fmt.Errorf("load weekend %s: %w", path, err)
	}
	envProvider := env.Provider(WeekendEnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, WeekendEnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return usecase.WeekendPlan{}, fmt.Errorf("load weekend env overrides: %w", err)
	}

	var w WeekendFile
	if err := k.UnmarshalWithConf("", &w, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return usecase.WeekendPlan{}, fmt.Errorf("%w: decode %s: %v", ErrInvalidWeekend, path, err)
	}
	return w.Plan()
}

// Plan validates the file and converts it into domain types.
func (w WeekendFile) Plan() (usecase.WeekendPlan, error) {
	if err := validator.New().Struct(w); err != nil {
		return usecase.WeekendPlan{}, fmt.Errorf("%w: %v", ErrInvalidWeekend, err)
	}

	plan := usecase.WeekendPlan{
		Weekend: race.Weekend{
			Season:     w.Season,
			HostNation: strings.TrimSpace(w.HostNation),
		},
		HostBonus:  quota.DefaultHostBonus,
		Scoring:    make(map[int]usecase.RaceScoring, len(w.Races)),
		Startlists: make(map[int][]startlist.Row),
	}
	if w.HostBonus != nil {
		plan.HostBonus = *w.HostBonus
	}

	for _, wr := range w.Races {
		r, rs, err := wr.toDomain()
		if err != nil {
			return usecase.WeekendPlan{}, fmt.Errorf("%w: race %d: %v", ErrInvalidWeekend, wr.Index, err)
		}
		plan.Weekend.Races = append(plan.Weekend.Races, r)
		plan.Scoring[r.Index] = rs
		if len(wr.Startlist) > 0 {
			rows := make([]startlist.Row, 0, len(wr.Startlist))
			for _, s := range wr.Startlist {
				rows = append(rows, startlist.Row{
					Name:      s.Name,
					Nation:    s.Nation,
					Bib:       s.Bib,
					TeamLabel: s.Team,
					ProfileID: s.ProfileID,
				})
			}
			plan.Startlists[r.Index] = rows
		}
	}
	if err := plan.Weekend.Validate(); err != nil {
		return usecase.WeekendPlan{}, fmt.Errorf("%w: %v", ErrInvalidWeekend, err)
	}

	nations := nation.Default()
	if len(w.Quotas) > 0 {
		plan.Quotas = make(map[quota.Key]int, len(w.Quotas))
		for _, q := range w.Quotas {
			d, err := race.ParseDiscipline(q.Discipline)
			if err != nil {
				return usecase.WeekendPlan{}, fmt.Errorf("%w: quota %s: %v", ErrInvalidWeekend, q.Nation, err)
			}
			g, ok := athlete.ParseGender(q.Gender)
			if !ok {
				return usecase.WeekendPlan{}, fmt.Errorf("%w: quota %s: unknown gender %q", ErrInvalidWeekend, q.Nation, q.Gender)
			}
			plan.Quotas[quota.NewKey(nations.Canonical(q.Nation), d, g)] = q.Base
		}
	}

	for _, o := range w.Overrides {
		plan.Overrides = append(plan.Overrides, roster.Override{
			Nation: nations.Canonical(o.Nation),
			Name:   strings.TrimSpace(o.Name),
			Yes:    o.Yes,
			No:     o.No,
		})
	}

	if len(w.Aliases) > 0 {
		plan.Aliases = make(map[string]string, len(w.Aliases))
		for _, a := range w.Aliases {
			plan.Aliases[a.From] = a.To
		}
	}

	curves, err := w.Curves.toDomain()
	if err != nil {
		return usecase.WeekendPlan{}, fmt.Errorf("%w: %v", ErrInvalidWeekend, err)
	}
	plan.Curves = curves

	for _, p := range w.Prices {
		entry := fantasy.PriceEntry{
			Name:   strings.TrimSpace(p.Name),
			Price:  p.Price,
			Nation: strings.TrimSpace(p.Nation),
			IsTeam: p.IsTeam,
		}
		if p.Gender != "" {
			g, ok := athlete.ParseGender(p.Gender)
			if !ok {
				return usecase.WeekendPlan{}, fmt.Errorf("%w: price %s: unknown gender %q", ErrInvalidWeekend, p.Name, p.Gender)
			}
			entry.Gender = g
		}
		plan.Prices = append(plan.Prices, entry)
	}

	return plan, nil
}

func (wr WeekendRace) toDomain() (race.Race, usecase.RaceScoring, error) {
	d, err := race.ParseDiscipline(wr.Discipline)
	if err != nil {
		return race.Race{}, usecase.RaceScoring{}, err
	}
	tech, err := race.ParseTechnique(wr.Technique)
	if err != nil {
		return race.Race{}, usecase.RaceScoring{}, err
	}
	kind, err := race.ParseKind(wr.Kind)
	if err != nil {
		return race.Race{}, usecase.RaceScoring{}, err
	}
	g, ok := athlete.ParseGender(wr.Gender)
	if !ok {
		return race.Race{}, usecase.RaceScoring{}, fmt.Errorf("unknown gender %q", wr.Gender)
	}
	date, err := parseRaceDate(wr.Date)
	if err != nil {
		return race.Race{}, usecase.RaceScoring{}, err
	}

	r := race.Race{
		Index:      wr.Index,
		ExternalID: strings.TrimSpace(wr.ExternalID),
		Discipline: d,
		Technique:  tech,
		Gender:     g,
		Kind:       kind,
		HostNation: strings.TrimSpace(wr.HostNation),
		Date:       date,
	}

	rs := usecase.RaceScoring{
		Level:     strings.TrimSpace(wr.Level),
		Normalize: wr.Normalize,
	}
	for _, f := range wr.Features {
		rs.Features = append(rs.Features, scoring.Feature(strings.TrimSpace(f)))
	}
	if wr.Coefficients != nil {
		c := &scoring.Coefficients{
			Intercept: wr.Coefficients.Intercept,
			Weights:   make(map[scoring.Feature]float64, len(wr.Coefficients.Weights)),
		}
		names := make([]string, 0, len(wr.Coefficients.Weights))
		for name, weight := range wr.Coefficients.Weights {
			c.Weights[scoring.Feature(name)] = weight
			names = append(names, name)
		}
		if len(rs.Features) == 0 {
			sort.Strings(names)
			for _, name := range names {
				c.Features = append(c.Features, scoring.Feature(name))
			}
		}
		if err := c.Validate(); err != nil {
			return race.Race{}, usecase.RaceScoring{}, err
		}
		rs.Coefficients = c
	}
	return r, rs, nil
}

func (wc WeekendCurves) toDomain() (scoring.Curves, error) {
	var out scoring.Curves
	if len(wc.Transform) > 0 {
		out.Transform = make(map[race.Discipline]scoring.Polynomial, len(wc.Transform))
		for _, c := range wc.Transform {
			d, err := race.ParseDiscipline(c.Discipline)
			if err != nil {
				return scoring.Curves{}, fmt.Errorf("transform curve: %w", err)
			}
			out.Transform[d.Category()] = scoring.Polynomial(c.Coefficients)
		}
	}
	if len(wc.Response) > 0 {
		out.Response = make(map[scoring.CurveKey]scoring.Polynomial, len(wc.Response))
		for _, c := range wc.Response {
			d, err := race.ParseDiscipline(c.Discipline)
			if err != nil {
				return scoring.Curves{}, fmt.Errorf("response curve: %w", err)
			}
			kind, err := race.ParseKind(c.Kind)
			if err != nil {
				return scoring.Curves{}, fmt.Errorf("response curve: %w", err)
			}
			out.Response[scoring.NewCurveKey(d, kind)] = scoring.Polynomial(c.Coefficients)
		}
	}
	if err := out.Validate(); err != nil {
		return scoring.Curves{}, err
	}
	return out, nil
}

func parseRaceDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range raceDateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid race date %q", v)
}
