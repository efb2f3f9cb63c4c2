package prediction

import (
	"context"
	"time"
)

// Run identifies one persisted prediction run.
type Run struct {
	ID        string
	Season    int
	CreatedAt time.Time
}

// Repository persists output tables.
type Repository interface {
	SaveTables(ctx context.Context, run Run, tables []Table) error
	ListTables(ctx context.Context, runID string) ([]Table, error)
}
