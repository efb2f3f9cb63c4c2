package memory

import (
	"context"
	"sync"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
)

type LedgerRepository struct {
	mu      sync.RWMutex
	entries []ledger.Entry
}

func NewLedgerRepository(entries []ledger.Entry) *LedgerRepository {
	return &LedgerRepository{entries: cloneEntries(entries)}
}

func (r *LedgerRepository) ListEntries(_ context.Context) ([]ledger.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return cloneEntries(r.entries), nil
}

// Replace swaps the whole ledger, e.g. after an import.
func (r *LedgerRepository) Replace(entries []ledger.Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries = cloneEntries(entries)
}

func cloneEntries(entries []ledger.Entry) []ledger.Entry {
	out := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		e.Ratings = e.Ratings.Clone()
		if e.Points != nil {
			points := *e.Points
			e.Points = &points
		}
		out = append(out, e)
	}
	return out
}
