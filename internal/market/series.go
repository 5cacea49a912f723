package market

import (
	"sort"
	"time"
)

// Bar is one observation of a price series.
type Bar struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
}

// Series is a price series in ascending date order.
type Series []Bar

// Empty reports whether the series has no bars.
func (s Series) Empty() bool { return len(s) == 0 }

// Last returns the most recent bar. It panics on an empty series.
func (s Series) Last() Bar { return s[len(s)-1] }

// sortByDate orders bars ascending, keeping input order for equal dates.
func (s Series) sortByDate() {
	sort.SliceStable(s, func(i, j int) bool { return s[i].Date.Before(s[j].Date) })
}
