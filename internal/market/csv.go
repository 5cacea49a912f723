package market

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// CSVPrices reads "<Dir>/<SYMBOL>.csv" files with at least a date and a
// close column. Period and interval hints are ignored.
type CSVPrices struct {
	Dir string
}

// FetchPrimarySeries implements PriceSource.
func (c CSVPrices) FetchPrimarySeries(ctx context.Context, symbol, period, interval string) (Series, error) {
	rows, header, err := readCSV(filepath.Join(c.Dir, symbol+".csv"))
	if err != nil || len(header) == 0 {
		return Series{}, err
	}

	dateCol := column(header, "date", "datetime", "timestamp")
	closeCol := column(header, "close", "adj close", "adj_close")
	if dateCol < 0 || closeCol < 0 {
		return nil, fmt.Errorf("csv prices %s: need date and close columns, have %v", symbol, header)
	}

	series := make(Series, 0, len(rows))
	for _, row := range rows {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if len(row) <= dateCol || len(row) <= closeCol {
			continue
		}
		date, ok := parseDate(row[dateCol])
		if !ok {
			continue
		}
		closeVal, err := strconv.ParseFloat(strings.TrimSpace(row[closeCol]), 64)
		if err != nil {
			continue
		}
		series = append(series, Bar{Date: date, Close: closeVal})
	}
	series.sortByDate()
	return series, nil
}

// CSVNews reads headlines from a single CSV file. A "symbol" column, when
// present, filters rows to the requested symbol.
type CSVNews struct {
	Path string
}

// FetchSecondaryItems implements NewsSource.
func (c CSVNews) FetchSecondaryItems(ctx context.Context, symbol string, maxItems int) ([]NewsItem, error) {
	rows, header, err := readCSV(c.Path)
	if err != nil || len(header) == 0 {
		return []NewsItem{}, err
	}

	symCol := column(header, "symbol", "ticker")
	titleCol := column(header, "title", "headline")
	sourceCol := column(header, "publisher", "source")
	linkCol := column(header, "link", "url")
	pubCol := column(header, "published", "published_at", "providerpublishtime")
	if titleCol < 0 {
		return nil, fmt.Errorf("csv news: need a title column, have %v", header)
	}

	items := []NewsItem{}
	for _, row := range rows {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if maxItems > 0 && len(items) >= maxItems {
			break
		}
		if symCol >= 0 && cell(row, symCol) != symbol {
			continue
		}
		it := NewsItem{
			Title:  cell(row, titleCol),
			Source: cell(row, sourceCol),
			Link:   cell(row, linkCol),
		}
		if ts, ok := parseDate(cell(row, pubCol)); ok {
			it.PublishedAt = ts
		}
		items = append(items, it)
	}
	return items, nil
}

// readCSV returns (nil, nil, nil) when the file does not exist.
func readCSV(path string) ([][]string, []string, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return [][]string{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read %s header: %w", path, err)
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, header, nil
}

// column returns the index of the first header matching any name, or -1.
func column(header []string, names ...string) int {
	for _, name := range names {
		for i, h := range header {
			if h == name {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

var dateLayouts = []string{asOfDateLayout, time.RFC3339, "2006-01-02 15:04:05"}

// parseDate accepts ISO dates, RFC 3339 timestamps and unix seconds.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), true
	}
	return time.Time{}, false
}
