package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tickerflow/internal/market"
)

func TestBuildSeries(t *testing.T) {
	s := BuildSeries(DefaultEpoch, Ramp(3, 10, 2)...)
	require.Len(t, s, 3)
	assert.Equal(t, 14.0, s.Last().Close)
	assert.Equal(t, DefaultEpoch.AddDate(0, 0, 2), s.Last().Date)
}

func TestStaticSource(t *testing.T) {
	src := NewStaticSource()
	src.Prices["AAA"] = BuildSeries(DefaultEpoch, 1, 2)
	src.News["AAA"] = []market.NewsItem{{Title: "a"}, {Title: "b"}, {Title: "c"}}
	src.Fail["BAD"] = true
	ctx := context.Background()

	s, err := src.FetchPrimarySeries(ctx, "AAA", "", "")
	require.NoError(t, err)
	assert.Len(t, s, 2)

	items, err := src.FetchSecondaryItems(ctx, "AAA", 2)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	_, err = src.FetchPrimarySeries(ctx, "BAD", "", "")
	assert.ErrorIs(t, err, ErrSourceDown)

	assert.Equal(t, 1, src.PriceCalls("AAA"))
	assert.Equal(t, 1, src.NewsCalls("AAA"))
	assert.Equal(t, 1, src.PriceCalls("BAD"))
	assert.Equal(t, 0, src.NewsCalls("ZZZ"))
}
