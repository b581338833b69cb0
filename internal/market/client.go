package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/Proton-105/coinwatch-bot/internal/errors"
	"github.com/Proton-105/coinwatch-bot/pkg/metrics"
)

const (
	endpointSimplePrice = "simple_price"
	endpointMarkets     = "coins_markets"
	endpointMarketChart = "market_chart"
	endpointPing        = "ping"

	maxErrorBody = 512
)

// Options configures a Client.
type Options struct {
	BaseURL   string
	APIKey    string
	UserAgent string
	// Timeout bounds each request; zero leaves the http.Client without a timeout.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client issues read-only queries against the market-data API.
// It performs no retries and no caching.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	http      *http.Client
	log       *slog.Logger
}

// NewClient builds a Client from opts, applying defaults for empty fields.
func NewClient(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Client{
		baseURL:   baseURL,
		apiKey:    opts.APIKey,
		userAgent: userAgent,
		http:      httpClient,
		log:       log.With(slog.String("component", "market")),
	}
}

// FetchPrice returns the USD spot price of id.
func (c *Client) FetchPrice(ctx context.Context, id string) (float64, error) {
	const op = "market.fetch_price"

	query := url.Values{}
	query.Set("ids", id)
	query.Set("vs_currencies", vsCurrency)

	var payload simplePriceResponse
	if err := c.getJSON(ctx, op, endpointSimplePrice, id, "/simple/price", query, &payload); err != nil {
		return 0, err
	}

	quotes, ok := payload[id]
	if !ok {
		return 0, apperrors.NewNotFoundError(op, id)
	}

	price, ok := quotes[vsCurrency]
	if !ok || price == nil {
		return 0, apperrors.NewNotFoundError(op, id)
	}

	return *price, nil
}

// FetchSnapshot returns the market snapshot of id.
func (c *Client) FetchSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	const op = "market.fetch_snapshot"

	query := url.Values{}
	query.Set("vs_currency", vsCurrency)
	query.Set("ids", id)
	query.Set("per_page", "1")
	query.Set("page", "1")

	var payload []Snapshot
	if err := c.getJSON(ctx, op, endpointMarkets, id, "/coins/markets", query, &payload); err != nil {
		return nil, err
	}

	if len(payload) == 0 {
		return nil, apperrors.NewNotFoundError(op, id)
	}

	snapshot := payload[0]
	return &snapshot, nil
}

// FetchSeries returns the USD price series of id over the last days.
func (c *Client) FetchSeries(ctx context.Context, id string, days int) (Series, error) {
	const op = "market.fetch_series"

	if days <= 0 {
		days = DefaultSeriesDays
	}

	query := url.Values{}
	query.Set("vs_currency", vsCurrency)
	query.Set("days", strconv.Itoa(days))

	var payload marketChartResponse
	path := "/coins/" + url.PathEscape(id) + "/market_chart"
	if err := c.getJSON(ctx, op, endpointMarketChart, id, path, query, &payload); err != nil {
		return nil, err
	}

	series := make(Series, 0, len(payload.Prices))
	for _, sample := range payload.Prices {
		if len(sample) < 2 {
			continue
		}
		series = append(series, PricePoint{
			Time:  time.UnixMilli(int64(sample[0])).UTC(),
			Price: sample[1],
		})
	}

	if len(series) == 0 {
		return nil, apperrors.NewNoDataError(op, id)
	}

	return series, nil
}

// FetchTop returns the top n coins by market cap, descending.
func (c *Client) FetchTop(ctx context.Context, n int) ([]Snapshot, error) {
	const op = "market.fetch_top"

	if n <= 0 {
		n = DefaultTopCount
	}

	query := url.Values{}
	query.Set("vs_currency", vsCurrency)
	query.Set("order", "market_cap_desc")
	query.Set("per_page", strconv.Itoa(n))
	query.Set("page", "1")

	var payload []Snapshot
	if err := c.getJSON(ctx, op, endpointMarkets, "", "/coins/markets", query, &payload); err != nil {
		return nil, err
	}

	if len(payload) > n {
		payload = payload[:n]
	}

	return payload, nil
}

// Ping checks that the API answers.
func (c *Client) Ping(ctx context.Context) error {
	var payload map[string]any
	return c.getJSON(ctx, "market.ping", endpointPing, "", "/ping", nil, &payload)
}

func (c *Client) getJSON(ctx context.Context, op, endpoint, coin, path string, query url.Values, out any) error {
	start := time.Now()
	outcome := "ok"
	defer func() {
		metrics.RecordMarketRequest(endpoint, outcome, time.Since(start))
	}()

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		outcome = "request_error"
		return apperrors.NewUnknownError(op, coin, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		outcome = "network_error"
		c.log.WarnContext(ctx, "market request failed",
			slog.String("op", op),
			slog.String("coin", coin),
			slog.Any("error", err),
		)
		return apperrors.NewNetworkError(op, coin, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		outcome = "http_error"
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.WarnContext(ctx, "market api returned error status",
			slog.String("op", op),
			slog.String("coin", coin),
			slog.Int("status", resp.StatusCode),
			slog.String("body", string(body)),
		)
		return apperrors.NewUpstreamError(op, coin, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		outcome = "decode_error"
		return apperrors.NewUnknownError(op, coin, fmt.Errorf("decode %s response: %w", endpoint, err))
	}

	return nil
}
