package yahoo

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strings"
	"time"

	"MarketPulse/internal/domain/models"
	apphttp "MarketPulse/pkg/http"
)

const DefaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"

// ErrNoData is returned when the chart has no usable closes.
var ErrNoData = errors.New("no price data")

// chartResponse is the subset of the v8 chart payload we read. Closes are pointers
// because the API sends null for missing sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol   string `json:"symbol"`
				Currency string `json:"currency"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Client fetches daily closes from the Yahoo Finance chart API.
// Implements repository.MarketData.
type Client struct {
	http     *apphttp.Client
	baseURL  string
	rangeStr string
	interval string
}

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithWindow sets the chart range and bar interval (default 3mo / 1d).
func WithWindow(rangeStr, interval string) Option {
	return func(c *Client) { c.rangeStr, c.interval = rangeStr, interval }
}

func NewClient(hc *apphttp.Client, opts ...Option) *Client {
	c := &Client{
		http:     hc,
		baseURL:  DefaultBaseURL,
		rangeStr: "3mo",
		interval: "1d",
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchDaily returns sorted, de-duplicated closes for symbol. Null, non-finite and
// non-positive closes are dropped. The deadline comes from ctx.
func (c *Client) FetchDaily(ctx context.Context, symbol string) ([]models.PricePoint, error) {
	var resp chartResponse
	err := c.http.SendAndParse(ctx, &apphttp.RequestOptions{
		Method: apphttp.MethodGet,
		URL:    c.baseURL + "/" + url.PathEscape(symbol),
		QueryParams: map[string][]string{
			"range":          {c.rangeStr},
			"interval":       {c.interval},
			"includePrePost": {"false"},
		},
	}, &resp)
	if err != nil {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, err)
	}
	return parseChart(symbol, &resp)
}

func parseChart(symbol string, resp *chartResponse) ([]models.PricePoint, error) {
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart %s: %s: %s", symbol, resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}
	result := resp.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}
	closes := result.Indicators.Quote[0].Close

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		v := *closes[i]
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			continue
		}
		points = append(points, models.PricePoint{Time: time.Unix(ts, 0).UTC(), Close: v})
	}

	sort.SliceStable(points, func(i, j int) bool { return points[i].Time.Before(points[j].Time) })
	out := points[:0]
	for i, p := range points {
		if i > 0 && p.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, p)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("yahoo chart %s: %w", symbol, ErrNoData)
	}
	return out, nil
}
