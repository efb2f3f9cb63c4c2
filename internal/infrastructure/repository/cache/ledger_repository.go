package cache

import (
	"context"

	"github.com/riskibarqy/fantasy-skiing/internal/domain/ledger"
	basecache "github.com/riskibarqy/fantasy-skiing/internal/platform/cache"
)

const ledgerKey = "ledger:entries"

// LedgerRepository keeps the ledger in memory for the store's TTL so
// back-to-back runs do not re-read the file or table.
type LedgerRepository struct {
	next  ledger.Repository
	cache *basecache.Store[[]ledger.Entry]
}

func NewLedgerRepository(next ledger.Repository, cache *basecache.Store[[]ledger.Entry]) *LedgerRepository {
	return &LedgerRepository{next: next, cache: cache}
}

func (r *LedgerRepository) ListEntries(ctx context.Context) ([]ledger.Entry, error) {
	items, err := r.cache.GetOrLoad(ctx, ledgerKey, func(ctx context.Context) ([]ledger.Entry, error) {
		items, err := r.next.ListEntries(ctx)
		if err != nil {
			return nil, err
		}
		return append([]ledger.Entry(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}
	return append([]ledger.Entry(nil), items...), nil
}

// Invalidate drops the cached ledger.
func (r *LedgerRepository) Invalidate(ctx context.Context) {
	r.cache.Delete(ctx, ledgerKey)
}
