package fantasy

import "context"

// PriceFeed describes the fantasy-game pricing source.
type PriceFeed interface {
	ListPrices(ctx context.Context) ([]PriceEntry, error)
}
