package market

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultYahooBaseURL is the public Yahoo Finance query host.
const DefaultYahooBaseURL = "https://query1.finance.yahoo.com"

// DefaultFetchTimeout bounds every HTTP request.
const DefaultFetchTimeout = 10 * time.Second

const userAgent = "tickerflow/0.1 (+https://github.com/roach88/tickerflow)"

// Yahoo fetches prices from the chart API and headlines from the search
// API. It implements both PriceSource and NewsSource.
type Yahoo struct {
	BaseURL string
	Client  *http.Client
	Timeout time.Duration
}

// NewYahoo returns a Yahoo source with default host and the given
// per-request timeout (DefaultFetchTimeout when zero).
func NewYahoo(timeout time.Duration) *Yahoo {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Yahoo{BaseURL: DefaultYahooBaseURL, Client: http.DefaultClient, Timeout: timeout}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
	} `json:"chart"`
}

type searchResponse struct {
	News []struct {
		Title               string `json:"title"`
		Publisher           string `json:"publisher"`
		Link                string `json:"link"`
		ProviderPublishTime int64  `json:"providerPublishTime"`
	} `json:"news"`
}

// FetchPrimarySeries implements PriceSource.
func (y *Yahoo) FetchPrimarySeries(ctx context.Context, symbol, period, interval string) (Series, error) {
	q := url.Values{}
	q.Set("range", period)
	q.Set("interval", interval)
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", y.BaseURL, url.PathEscape(symbol), q.Encode())

	var resp chartResponse
	found, err := y.getJSON(ctx, endpoint, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	if !found || len(resp.Chart.Result) == 0 {
		return Series{}, nil
	}

	res := resp.Chart.Result[0]
	if len(res.Indicators.Quote) == 0 {
		return Series{}, nil
	}
	closes := res.Indicators.Quote[0].Close

	series := make(Series, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		series = append(series, Bar{Date: time.Unix(ts, 0).UTC(), Close: *closes[i]})
	}
	series.sortByDate()
	return series, nil
}

// FetchSecondaryItems implements NewsSource.
func (y *Yahoo) FetchSecondaryItems(ctx context.Context, symbol string, maxItems int) ([]NewsItem, error) {
	q := url.Values{}
	q.Set("q", symbol)
	q.Set("quotesCount", "0")
	q.Set("newsCount", strconv.Itoa(maxItems))
	endpoint := fmt.Sprintf("%s/v1/finance/search?%s", y.BaseURL, q.Encode())

	var resp searchResponse
	found, err := y.getJSON(ctx, endpoint, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo search %s: %w", symbol, err)
	}

	items := []NewsItem{}
	if !found {
		return items, nil
	}
	for _, n := range resp.News {
		if maxItems > 0 && len(items) >= maxItems {
			break
		}
		it := NewsItem{Title: n.Title, Source: n.Publisher, Link: n.Link}
		if n.ProviderPublishTime > 0 {
			it.PublishedAt = time.Unix(n.ProviderPublishTime, 0).UTC()
		}
		items = append(items, it)
	}
	return items, nil
}

// getJSON decodes the response body into dst. A 404 reports found=false
// with a nil error: Yahoo answers unknown symbols that way.
func (y *Yahoo) getJSON(ctx context.Context, endpoint string, dst any) (found bool, err error) {
	timeout := y.Timeout
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	client := y.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %s", resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return true, nil
}
