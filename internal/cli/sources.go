package cli

import (
	"context"
	"fmt"

	"github.com/roach88/tickerflow/internal/config"
	"github.com/roach88/tickerflow/internal/market"
)

// noNews is the "none" news provider.
type noNews struct{}

func (noNews) FetchSecondaryItems(ctx context.Context, symbol string, maxItems int) ([]market.NewsItem, error) {
	return []market.NewsItem{}, nil
}

// buildSources constructs the price and news sources named by cfg.
func buildSources(cfg *config.Config) (market.PriceSource, market.NewsSource, error) {
	var prices market.PriceSource
	switch cfg.Prices.Provider {
	case config.ProviderYahoo:
		prices = market.NewYahoo(cfg.Prices.Timeout)
	case config.ProviderCSV:
		if cfg.Prices.CSVDir == "" {
			return nil, nil, fmt.Errorf("prices.csv_dir is required for the csv provider")
		}
		prices = market.CSVPrices{Dir: cfg.Prices.CSVDir}
	default:
		return nil, nil, fmt.Errorf("unknown prices provider %q", cfg.Prices.Provider)
	}

	var news market.NewsSource
	switch cfg.News.Provider {
	case config.ProviderYahoo:
		news = market.NewYahoo(cfg.News.Timeout)
	case config.ProviderCSV:
		if cfg.News.CSVPath == "" {
			return nil, nil, fmt.Errorf("news.csv_path is required for the csv provider")
		}
		news = market.CSVNews{Path: cfg.News.CSVPath}
	case config.ProviderNone:
		news = noNews{}
	default:
		return nil, nil, fmt.Errorf("unknown news provider %q", cfg.News.Provider)
	}
	return prices, news, nil
}
