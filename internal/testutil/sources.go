package testutil

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/roach88/tickerflow/internal/market"
)

// ErrSourceDown is returned by failing fixture sources.
var ErrSourceDown = errors.New("source unavailable")

// BuildSeries returns one bar per close on consecutive days from start
// (DefaultEpoch when zero).
func BuildSeries(start time.Time, closes ...float64) market.Series {
	if start.IsZero() {
		start = DefaultEpoch
	}
	s := make(market.Series, len(closes))
	for i, c := range closes {
		s[i] = market.Bar{Date: start.AddDate(0, 0, i), Close: c}
	}
	return s
}

// Ramp returns n closes starting at from and moving by step.
func Ramp(n int, from, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = from + float64(i)*step
	}
	return out
}

// StaticSource serves fixed prices and news per symbol and counts calls.
// Symbols listed in Fail return ErrSourceDown.
type StaticSource struct {
	Prices map[string]market.Series
	News   map[string][]market.NewsItem
	Fail   map[string]bool

	mu         sync.Mutex
	priceCalls map[string]int
	newsCalls  map[string]int
}

// NewStaticSource returns an empty StaticSource.
func NewStaticSource() *StaticSource {
	return &StaticSource{
		Prices: map[string]market.Series{},
		News:   map[string][]market.NewsItem{},
		Fail:   map[string]bool{},
	}
}

// FetchPrimarySeries implements market.PriceSource.
func (s *StaticSource) FetchPrimarySeries(ctx context.Context, symbol, period, interval string) (market.Series, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.priceCalls == nil {
		s.priceCalls = map[string]int{}
	}
	s.priceCalls[symbol]++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Fail[symbol] {
		return nil, ErrSourceDown
	}
	return append(market.Series{}, s.Prices[symbol]...), nil
}

// FetchSecondaryItems implements market.NewsSource.
func (s *StaticSource) FetchSecondaryItems(ctx context.Context, symbol string, maxItems int) ([]market.NewsItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.newsCalls == nil {
		s.newsCalls = map[string]int{}
	}
	s.newsCalls[symbol]++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.Fail[symbol] {
		return nil, ErrSourceDown
	}
	items := append([]market.NewsItem{}, s.News[symbol]...)
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}
	return items, nil
}

// PriceCalls returns how often prices were fetched for symbol.
func (s *StaticSource) PriceCalls(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.priceCalls[symbol]
}

// NewsCalls returns how often news was fetched for symbol.
func (s *StaticSource) NewsCalls(symbol string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.newsCalls[symbol]
}
