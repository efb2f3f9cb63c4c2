package ledger

import "context"

// Repository loads the rating ledger from whatever store holds it.
type Repository interface {
	ListEntries(ctx context.Context) ([]Entry, error)
}
