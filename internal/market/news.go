package market

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NewsItem is one headline about a symbol.
type NewsItem struct {
	Title       string    `json:"title"`
	Source      string    `json:"source,omitempty"`
	Link        string    `json:"link,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
	Lower       string    `json:"lower,omitempty"` // set by PreprocessItems
}

var lowerCaser = cases.Lower(language.Und)

// PreprocessItems trims and NFC-normalizes titles, drops items without a
// title and fills Lower with the case-folded title. The input slice is not
// modified.
func PreprocessItems(items []NewsItem) []NewsItem {
	out := make([]NewsItem, 0, len(items))
	for _, it := range items {
		title := norm.NFC.String(strings.TrimSpace(it.Title))
		if title == "" {
			continue
		}
		it.Title = title
		it.Lower = lowerCaser.String(title)
		out = append(out, it)
	}
	return out
}
