package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	"github.com/riskibarqy/fantasy-skiing/internal/platform/logging"
)

var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"20060102",
	"01/02/2006",
}

// LedgerRepository reads the rating ledger from a CSV export.
type LedgerRepository struct {
	path   string
	logger *logging.Logger
}

func NewLedgerRepository(path string, logger *logging.Logger) *LedgerRepository {
	if logger == nil {
		logger = logging.Default()
	}
	return &LedgerRepository{path: path, logger: logger}
}

func (r *LedgerRepository) ListEntries(ctx context.Context) ([]ledger.Entry, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", r.path, err)
	}
	defer f.Close()

	entries, err := ReadEntries(ctx, f, r.logger)
	if err != nil {
		return nil, fmt.Errorf("read ledger %s: %w", r.path, err)
	}
	return entries, nil
}

// ReadEntries parses a ledger CSV. The athlete name may be headed Skier or
// Name; rating columns use the dimension names. Rows that cannot be parsed
// are logged and skipped.
func ReadEntries(ctx context.Context, in io.Reader, logger *logging.Logger) ([]ledger.Entry, error) {
	if logger == nil {
		logger = logging.Default()
	}

	reader := csv.NewReader(in)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headers, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	if !hasAny(headers, "Skier", "Name") || !hasAny(headers, "ID") || !hasAny(headers, "Date") {
		return nil, fmt.Errorf("ledger header must contain Skier (or Name), ID and Date, got %v", headers)
	}

	var entries []ledger.Entry
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			logger.WarnContext(ctx, "skipping unreadable ledger line", "line", line, "error", err)
			continue
		}

		row := make(map[string]string, len(headers))
		for i, value := range record {
			if i < len(headers) {
				row[headers[i]] = strings.TrimSpace(value)
			}
		}

		entry, err := parseEntry(row)
		if err != nil {
			logger.WarnContext(ctx, "skipping malformed ledger line", "line", line, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func parseEntry(row map[string]string) (ledger.Entry, error) {
	name := row["Skier"]
	if name == "" {
		name = row["Name"]
	}
	e := ledger.Entry{
		ID:      row["ID"],
		Name:    name,
		Nation:  row["Nation"],
		Level:   row["Level"],
		Ratings: make(athlete.Ratings, len(athlete.Dimensions)),
	}

	date, err := parseDate(row["Date"])
	if err != nil {
		return ledger.Entry{}, err
	}
	e.Date = date

	if g, ok := athlete.ParseGender(row["Sex"]); ok {
		e.Gender = g
	}

	if v := row["Season"]; v != "" {
		season, err := strconv.Atoi(v)
		if err != nil {
			return ledger.Entry{}, fmt.Errorf("season %q: %w", v, err)
		}
		e.Season = season
	} else {
		e.Season = SeasonOf(date)
	}

	if e.Age, _, err = parseOptionalFloat(row, "Age"); err != nil {
		return ledger.Entry{}, err
	}
	if e.Exp, _, err = parseOptionalFloat(row, "Exp"); err != nil {
		return ledger.Entry{}, err
	}
	for _, d := range athlete.Dimensions {
		v, ok, err := parseOptionalFloat(row, string(d))
		if err != nil {
			return ledger.Entry{}, err
		}
		if ok {
			e.Ratings[d] = v
		}
	}

	if v := row["Discipline"]; v != "" {
		d, err := race.ParseDiscipline(v)
		if err != nil {
			return ledger.Entry{}, err
		}
		e.Discipline = d
	}
	if v := row["Technique"]; v != "" {
		t, err := race.ParseTechnique(v)
		if err != nil {
			return ledger.Entry{}, err
		}
		e.Technique = t
	}
	if points, ok, err := parseOptionalFloat(row, "Points"); err != nil {
		return ledger.Entry{}, err
	} else if ok {
		e.Points = &points
	}
	e.Home = parseBool(row["Home"])
	e.IsTeam = parseBool(row["IsTeam"])

	if err := e.Validate(); err != nil {
		return ledger.Entry{}, err
	}
	return e, nil
}

// SeasonOf maps a date to its winter season, named by the year it ends in.
func SeasonOf(date time.Time) int {
	if date.Month() >= time.July {
		return date.Year() + 1
	}
	return date.Year()
}

func parseDate(v string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", v)
}

func parseOptionalFloat(row map[string]string, column string) (float64, bool, error) {
	v := row[column]
	if v == "" || strings.EqualFold(v, "na") || strings.EqualFold(v, "nan") {
		return 0, false, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%s %q: %w", column, v, err)
	}
	return f, true, nil
}

func parseBool(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}

func hasAny(headers []string, names ...string) bool {
	for _, h := range headers {
		for _, n := range names {
			if h == n {
				return true
			}
		}
	}
	return false
}
