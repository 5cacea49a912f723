package market

import (
	"math"
)

// Trend is the direction of the 20-day return.
type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

const (
	shortWindow    = 5
	longWindow     = 20
	tradingDays    = 252
	asOfDateLayout = "2006-01-02"
)

// Stats summarizes a price series. Optional values are nil when the series
// is too short to compute them.
type Stats struct {
	Empty       bool     `json:"empty,omitempty"`
	AsOf        string   `json:"asof,omitempty"`
	LastValue   float64  `json:"close,omitempty"`
	ShortReturn *float64 `json:"ret_5d,omitempty"`
	LongReturn  *float64 `json:"ret_20d,omitempty"`
	Volatility  *float64 `json:"vol_20,omitempty"` // annualized
	Trend       Trend    `json:"trend,omitempty"`
}

// DeriveStatistics computes Stats from a series.
//
//   - ShortReturn needs more than 5 bars, LongReturn more than 20
//   - Volatility is the sample standard deviation of the last 20 daily
//     returns scaled by √252, so it needs at least 21 bars
//   - Trend follows the sign of LongReturn and is flat when it is missing
func DeriveStatistics(s Series) Stats {
	if s.Empty() {
		return Stats{Empty: true}
	}

	last := len(s) - 1
	st := Stats{
		AsOf:      s[last].Date.Format(asOfDateLayout),
		LastValue: s[last].Close,
		Trend:     TrendFlat,
	}

	if len(s) > shortWindow {
		st.ShortReturn = ratio(s[last].Close, s[last-shortWindow].Close)
	}
	if len(s) > longWindow {
		st.LongReturn = ratio(s[last].Close, s[last-longWindow].Close)
		st.Volatility = volatility(s[last-longWindow:])
	}

	if st.LongReturn != nil {
		switch {
		case *st.LongReturn > 0:
			st.Trend = TrendUp
		case *st.LongReturn < 0:
			st.Trend = TrendDown
		}
	}
	return st
}

// ratio returns cur/prev - 1, or nil when prev is zero.
func ratio(cur, prev float64) *float64 {
	if prev == 0 {
		return nil
	}
	r := cur/prev - 1
	return &r
}

// volatility expects len(window) == longWindow+1 bars.
func volatility(window Series) *float64 {
	returns := make([]float64, 0, len(window)-1)
	for i := 1; i < len(window); i++ {
		if r := ratio(window[i].Close, window[i-1].Close); r != nil {
			returns = append(returns, *r)
		}
	}
	if len(returns) < 2 {
		return nil
	}

	var mean float64
	for _, r := range returns {
		mean += r
	}
	mean /= float64(len(returns))

	var ss float64
	for _, r := range returns {
		ss += (r - mean) * (r - mean)
	}
	v := math.Sqrt(ss/float64(len(returns)-1)) * math.Sqrt(tradingDays)
	return &v
}
