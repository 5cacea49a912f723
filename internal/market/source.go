package market

import "context"

// PriceSource fetches an entity's price series.
type PriceSource interface {
	// FetchPrimarySeries returns bars in ascending date order. period and
	// interval are hints ("6mo", "1d"); sources may ignore them.
	FetchPrimarySeries(ctx context.Context, symbol, period, interval string) (Series, error)
}

// NewsSource fetches an entity's news items.
type NewsSource interface {
	FetchSecondaryItems(ctx context.Context, symbol string, maxItems int) ([]NewsItem, error)
}
