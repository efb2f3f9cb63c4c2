package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/prediction"
)

type PredictionRepository struct {
	mu     sync.RWMutex
	runs   map[string]prediction.Run
	tables map[string][]prediction.Table
}

func NewPredictionRepository() *PredictionRepository {
	return &PredictionRepository{
		runs:   make(map[string]prediction.Run),
		tables: make(map[string][]prediction.Table),
	}
}

// SaveTables replaces every table stored for the run.
func (r *PredictionRepository) SaveTables(_ context.Context, run prediction.Run, tables []prediction.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.runs[run.ID] = run
	r.tables[run.ID] = cloneTables(tables)
	return nil
}

func (r *PredictionRepository) ListTables(_ context.Context, runID string) ([]prediction.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneTables(r.tables[runID]), nil
}

func (r *PredictionRepository) GetRun(_ context.Context, runID string) (prediction.Run, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[runID]
	return run, ok
}

func cloneTables(tables []prediction.Table) []prediction.Table {
	out := make([]prediction.Table, 0, len(tables))
	for _, t := range tables {
		copied := prediction.Table{Name: t.Name, Races: append([]int(nil), t.Races...)}
		copied.Rows = make([]prediction.Row, 0, len(t.Rows))
		for _, row := range t.Rows {
			copied.Rows = append(copied.Rows, row.Clone())
		}
		out = append(out, copied)
	}
	return out
}
