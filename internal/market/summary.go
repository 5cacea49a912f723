package market

import (
	"fmt"
	"strings"
)

// DefaultMaxBullets caps the number of summary lines.
const DefaultMaxBullets = 6

// Summarize renders the Markdown body for a symbol.
//
// Price lines come first, then a "Recent headlines:" line followed by as
// many headlines as fit. The total line count never exceeds maxBullets
// (DefaultMaxBullets when maxBullets <= 0).
func Summarize(symbol string, st Stats, items []NewsItem, sentiment Sentiment, maxBullets int) string {
	if maxBullets <= 0 {
		maxBullets = DefaultMaxBullets
	}

	type line struct {
		text   string
		nested bool
	}
	var lines []line
	add := func(format string, args ...any) {
		lines = append(lines, line{text: fmt.Sprintf(format, args...)})
	}

	if st.Empty {
		add("No recent price data available.")
	} else {
		add("As of **%s**, %s closed at **%.2f**.", st.AsOf, symbol, st.LastValue)
		if st.LongReturn != nil {
			add("20-day return: **%s** | 5-day: **%s**.", percent(st.LongReturn), percent(st.ShortReturn))
		} else {
			add("Return stats unavailable.")
		}
		if st.Volatility != nil {
			add("Volatility (20d, annualized): **%.2f**.", *st.Volatility)
		} else {
			add("Volatility unavailable.")
		}
		add("Trend: **%s** | Sentiment: **%s**.", st.Trend, sentiment)
	}

	if len(items) > 0 {
		add("Recent headlines:")
		for _, it := range items {
			if len(lines) >= maxBullets {
				break
			}
			lines = append(lines, line{text: headline(it), nested: true})
		}
	}

	if len(lines) > maxBullets {
		lines = lines[:maxBullets]
	}

	var b strings.Builder
	fmt.Fprintf(&b, "### %s\n\n", symbol)
	for _, l := range lines {
		if l.nested {
			b.WriteString("  ")
		}
		b.WriteString("- ")
		b.WriteString(l.text)
		b.WriteString("\n")
	}
	return b.String()
}

func percent(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", *v*100)
}

func headline(it NewsItem) string {
	title := it.Title
	if title == "" {
		title = "(untitled)"
	}
	if it.Link != "" {
		return fmt.Sprintf("%s — *%s* → %s", title, it.Source, it.Link)
	}
	return fmt.Sprintf("%s — *%s*", title, it.Source)
}
