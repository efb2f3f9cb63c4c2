package usecase

import "errors"

var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrLedgerUnavailable     = errors.New("rating ledger unavailable")
)
