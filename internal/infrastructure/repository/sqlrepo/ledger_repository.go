package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/race"
	qb "github.com/riskibarqy/fantasy-skiing/internal/platform/querybuilder"
)

const ledgerTable = "ledger_entries"

// LedgerRepository reads and replaces the rating ledger stored in
// ledger_entries. It works against Postgres and SQLite.
type LedgerRepository struct {
	db         *sqlx.DB
	fromSeason int
}

// NewLedgerRepository loads entries of fromSeason and later; zero loads
// the whole history.
func NewLedgerRepository(db *sqlx.DB, fromSeason int) *LedgerRepository {
	return &LedgerRepository{db: db, fromSeason: fromSeason}
}

func (r *LedgerRepository) ListEntries(ctx context.Context) ([]ledger.Entry, error) {
	conditions := []qb.Condition{qb.IsNull("deleted_at")}
	if r.fromSeason > 0 {
		conditions = append(conditions, qb.Gte("season", r.fromSeason))
	}
	query, args, err := qb.Select("*").
		From(ledgerTable).
		Where(conditions...).
		OrderBy("athlete_id", "race_date", "id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list ledger entries query: %w", err)
	}

	var rows []ledgerEntryTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}

	out := make([]ledger.Entry, 0, len(rows))
	for _, row := range rows {
		out = append(out, ledgerEntryFromRow(row))
	}
	return out, nil
}

// ReplaceEntries soft-deletes the current ledger and inserts entries in one
// transaction.
func (r *LedgerRepository) ReplaceEntries(ctx context.Context, entries []ledger.Entry) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx replace ledger entries: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	clearQuery, clearArgs, err := qb.Update(ledgerTable).
		SetExpr("deleted_at", "CURRENT_TIMESTAMP").
		Where(qb.IsNull("deleted_at")).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear ledger entries query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear ledger entries: %w", err)
	}

	inserts := make([]ledgerEntryInsertModel, 0, len(entries))
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return fmt.Errorf("insert ledger entry: %w", err)
		}
		inserts = append(inserts, ledgerEntryInsertFromEntry(e))
	}
	stmts, err := qb.InsertModels(ledgerTable, inserts)
	if err != nil {
		return fmt.Errorf("build insert ledger entries query: %w", err)
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt.Query, stmt.Args...); err != nil {
			return fmt.Errorf("insert ledger entries batch %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace ledger entries tx: %w", err)
	}
	return nil
}

func ledgerEntryFromRow(row ledgerEntryTableModel) ledger.Entry {
	gender, _ := athlete.ParseGender(row.Sex)
	ratings := make(athlete.Ratings, len(athlete.Dimensions))
	for d, v := range map[athlete.Dimension]sql.NullFloat64{
		athlete.DimElo:               row.Elo,
		athlete.DimDistanceElo:       row.DistanceElo,
		athlete.DimDistanceClassic:   row.DistanceCElo,
		athlete.DimDistanceFreestyle: row.DistanceFElo,
		athlete.DimSprintElo:         row.SprintElo,
		athlete.DimSprintClassic:     row.SprintCElo,
		athlete.DimSprintFreestyle:   row.SprintFElo,
		athlete.DimClassicElo:        row.ClassicElo,
		athlete.DimFreestyleElo:      row.FreestyleElo,
	} {
		if v.Valid {
			ratings[d] = v.Float64
		}
	}

	return ledger.Entry{
		ID:         row.AthleteID,
		Name:       row.Name,
		Nation:     row.Nation,
		Gender:     gender,
		Season:     row.Season,
		Date:       row.RaceDate.UTC(),
		Age:        row.Age.Float64,
		Exp:        row.Exp,
		Ratings:    ratings,
		Discipline: race.Discipline(row.Discipline),
		Technique:  race.Technique(row.Technique),
		Level:      row.Level,
		Home:       row.Home,
		IsTeam:     row.IsTeam,
		Points:     nullToFloatPtr(row.Points),
	}
}

func ledgerEntryInsertFromEntry(e ledger.Entry) ledgerEntryInsertModel {
	rating := func(d athlete.Dimension) sql.NullFloat64 {
		v, ok := e.Ratings[d]
		return nullFloat(v, ok)
	}
	return ledgerEntryInsertModel{
		AthleteID:    e.ID,
		Name:         e.Name,
		Nation:       e.Nation,
		Sex:          string(e.Gender),
		Season:       e.Season,
		RaceDate:     e.Date.UTC(),
		Age:          nullFloat(e.Age, e.Age > 0),
		Exp:          e.Exp,
		Elo:          rating(athlete.DimElo),
		DistanceElo:  rating(athlete.DimDistanceElo),
		DistanceCElo: rating(athlete.DimDistanceClassic),
		DistanceFElo: rating(athlete.DimDistanceFreestyle),
		SprintElo:    rating(athlete.DimSprintElo),
		SprintCElo:   rating(athlete.DimSprintClassic),
		SprintFElo:   rating(athlete.DimSprintFreestyle),
		ClassicElo:   rating(athlete.DimClassicElo),
		FreestyleElo: rating(athlete.DimFreestyleElo),
		Discipline:   string(e.Discipline),
		Technique:    string(e.Technique),
		Level:        e.Level,
		Home:         e.Home,
		IsTeam:       e.IsTeam,
		Points:       floatPtrToNull(e.Points),
	}
}
