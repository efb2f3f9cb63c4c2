package sqlrepo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/athlete"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/prediction"
	"github.com/riskibarqy/fantasy-skiing/internal/domain/roster"
	qb "github.com/riskibarqy/fantasy-skiing/internal/platform/querybuilder"
)

const (
	predictionRunTable = "prediction_runs"
	predictionRowTable = "prediction_rows"
)

type PredictionRepository struct {
	db *sqlx.DB
}

func NewPredictionRepository(db *sqlx.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// SaveTables upserts the run and replaces all of its rows.
func (r *PredictionRepository) SaveTables(ctx context.Context, run prediction.Run, tables []prediction.Table) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx save prediction tables: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	runQuery, runArgs, err := qb.InsertModel(predictionRunTable, predictionRunInsertModel{
		PublicID:  run.ID,
		Season:    run.Season,
		CreatedAt: run.CreatedAt.UTC(),
	}, `ON CONFLICT (public_id) WHERE deleted_at IS NULL
DO UPDATE SET
    season = EXCLUDED.season,
    created_at = EXCLUDED.created_at`)
	if err != nil {
		return fmt.Errorf("build upsert prediction run query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, runQuery, runArgs...); err != nil {
		return fmt.Errorf("upsert prediction run: %w", err)
	}

	clearQuery, clearArgs, err := qb.Update(predictionRowTable).
		SetExpr("deleted_at", "CURRENT_TIMESTAMP").
		Where(
			qb.Eq("run_public_id", run.ID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build clear prediction rows query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("clear prediction rows: %w", err)
	}

	var inserts []predictionRowInsertModel
	for _, t := range tables {
		races := make(pq.Int64Array, len(t.Races))
		for i, idx := range t.Races {
			races[i] = int64(idx)
		}
		for pos, row := range t.Rows {
			insert, err := predictionRowInsertFromRow(run.ID, t.Name, races, pos, row)
			if err != nil {
				return fmt.Errorf("encode prediction row %s/%s: %w", t.Name, row.Key, err)
			}
			inserts = append(inserts, insert)
		}
	}
	stmts, err := qb.InsertModels(predictionRowTable, inserts)
	if err != nil {
		return fmt.Errorf("build insert prediction rows query: %w", err)
	}
	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt.Query, stmt.Args...); err != nil {
			return fmt.Errorf("insert prediction rows batch %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save prediction tables tx: %w", err)
	}
	return nil
}

func (r *PredictionRepository) GetRun(ctx context.Context, runID string) (prediction.Run, bool, error) {
	query, args, err := qb.Select("*").
		From(predictionRunTable).
		Where(
			qb.Eq("public_id", runID),
			qb.IsNull("deleted_at"),
		).
		ToSQL()
	if err != nil {
		return prediction.Run{}, false, fmt.Errorf("build get prediction run query: %w", err)
	}

	var row predictionRunTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return prediction.Run{}, false, nil
		}
		return prediction.Run{}, false, fmt.Errorf("get prediction run: %w", err)
	}
	return prediction.Run{ID: row.PublicID, Season: row.Season, CreatedAt: row.CreatedAt.UTC()}, true, nil
}

// ListTables returns the run's tables ordered by name, rows in saved order.
func (r *PredictionRepository) ListTables(ctx context.Context, runID string) ([]prediction.Table, error) {
	query, args, err := qb.Select("*").
		From(predictionRowTable).
		Where(
			qb.Eq("run_public_id", runID),
			qb.IsNull("deleted_at"),
		).
		OrderBy("table_name", "position").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list prediction rows query: %w", err)
	}

	var rows []predictionRowTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list prediction rows: %w", err)
	}

	var out []prediction.Table
	for _, row := range rows {
		if len(out) == 0 || out[len(out)-1].Name != row.TableName {
			races := make([]int, len(row.Races))
			for i, idx := range row.Races {
				races[i] = int(idx)
			}
			out = append(out, prediction.Table{Name: row.TableName, Races: races})
		}
		item, err := predictionRowFromModel(row)
		if err != nil {
			return nil, fmt.Errorf("decode prediction row %s/%s: %w", row.TableName, row.RowKey, err)
		}
		last := &out[len(out)-1]
		last.Rows = append(last.Rows, item)
	}
	return out, nil
}

func predictionRowInsertFromRow(runID, table string, races pq.Int64Array, pos int, row prediction.Row) (predictionRowInsertModel, error) {
	probabilities := make(map[int]*float64, len(row.Probabilities))
	for idx, p := range row.Probabilities {
		if v, ok := p.Value(); ok {
			probabilities[idx] = &v
			continue
		}
		probabilities[idx] = nil
	}
	encodedProbabilities, err := encodeJSON(probabilities)
	if err != nil {
		return predictionRowInsertModel{}, err
	}
	encodedPoints, err := encodeJSON(row.Points)
	if err != nil {
		return predictionRowInsertModel{}, err
	}

	return predictionRowInsertModel{
		RunID:         runID,
		TableName:     table,
		Races:         races,
		Position:      pos,
		RowKey:        row.Key,
		AthleteID:     row.ID,
		Name:          row.Name,
		Nation:        row.Nation,
		NationCode:    row.NationCode,
		Gender:        string(row.Gender),
		Price:         row.Price,
		HasPrice:      row.HasPrice,
		Probabilities: encodedProbabilities,
		Points:        encodedPoints,
		Combined:      row.Combined,
		Place:         row.Place,
		Imputed:       row.Imputed,
		Provenance:    string(row.Provenance),
		Quota:         row.Quota,
		IsHostNation:  row.IsHostNation,
		IsTeam:        row.IsTeam,
		Members:       pq.StringArray(append([]string{}, row.Members...)),
	}, nil
}

func predictionRowFromModel(row predictionRowTableModel) (prediction.Row, error) {
	var probabilities map[int]*float64
	if err := decodeJSON(row.Probabilities, &probabilities); err != nil {
		return prediction.Row{}, fmt.Errorf("probabilities: %w", err)
	}
	points := make(map[int]float64)
	if err := decodeJSON(row.Points, &points); err != nil {
		return prediction.Row{}, fmt.Errorf("points: %w", err)
	}

	out := prediction.Row{
		Key:           row.RowKey,
		ID:            row.AthleteID,
		Name:          row.Name,
		Nation:        row.Nation,
		NationCode:    row.NationCode,
		Gender:        athlete.Gender(row.Gender),
		Price:         row.Price,
		HasPrice:      row.HasPrice,
		Probabilities: make(map[int]roster.Probability, len(probabilities)),
		Points:        points,
		Combined:      row.Combined,
		Place:         row.Place,
		Imputed:       row.Imputed,
		Provenance:    roster.Provenance(row.Provenance),
		Quota:         row.Quota,
		IsHostNation:  row.IsHostNation,
		IsTeam:        row.IsTeam,
	}
	for idx, v := range probabilities {
		if v == nil {
			out.Probabilities[idx] = roster.Unknown
			continue
		}
		out.Probabilities[idx] = roster.Known(*v)
	}
	if len(row.Members) > 0 {
		out.Members = append([]string(nil), row.Members...)
	}
	return out, nil
}
