package data

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mohamedkhairy/krw-coin-scanner/internal/config"
	"github.com/mohamedkhairy/krw-coin-scanner/internal/models"
	"github.com/mohamedkhairy/krw-coin-scanner/pkg/logger"
)

// UpbitClient reads markets, quotes and candles from the Upbit REST API
type UpbitClient struct {
	baseURL       string
	quoteCurrency string
	httpClient    *http.Client
	limiter       *RateLimiter
}

var _ Source = (*UpbitClient)(nil)

// NewHTTPClient creates an http.Client with explicit transport timeouts
func NewHTTPClient(timeout time.Duration) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 5 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: t}
}

// NewUpbitClient creates a client from configuration
func NewUpbitClient(cfg config.UpbitConfig) *UpbitClient {
	return NewUpbitClientWith(cfg, NewHTTPClient(cfg.RequestTimeout), NewRateLimiter(cfg.MinRequestInterval))
}

// NewUpbitClientWith creates a client with an explicit HTTP client and limiter
func NewUpbitClientWith(cfg config.UpbitConfig, httpClient *http.Client, limiter *RateLimiter) *UpbitClient {
	currency := cfg.QuoteCurrency
	if currency == "" {
		currency = models.QuoteCurrency
	}
	return &UpbitClient{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		quoteCurrency: currency,
		httpClient:    httpClient,
		limiter:       limiter,
	}
}

// ListTickers handles GET /v1/market/all
func (c *UpbitClient) ListTickers(ctx context.Context) ([]string, error) {
	q := url.Values{}
	q.Set("isDetails", "false")

	var raw []upbitMarket
	if err := c.get(ctx, "/v1/market/all", q, &raw); err != nil {
		return nil, err
	}

	return normalizeMarkets(raw, c.quoteCurrency), nil
}

// Snapshot handles GET /v1/ticker for a single batch of markets
func (c *UpbitClient) Snapshot(ctx context.Context, markets []string) ([]models.Quote, error) {
	if len(markets) == 0 {
		return []models.Quote{}, nil
	}
	if len(markets) > MaxSnapshotBatch {
		return nil, fmt.Errorf("%d markets: %w", len(markets), ErrBatchTooLarge)
	}
	for _, m := range markets {
		if m == "" {
			return nil, ErrInvalidSymbol
		}
	}

	q := url.Values{}
	q.Set("markets", strings.Join(markets, ","))

	var raw []upbitTicker
	if err := c.get(ctx, "/v1/ticker", q, &raw); err != nil {
		return nil, err
	}

	quotes := make([]models.Quote, 0, len(raw))
	for _, r := range raw {
		quote, err := normalizeTicker(r)
		if err != nil {
			logger.Warn("Skipping malformed ticker entry", logger.ErrorField(err))
			continue
		}
		quotes = append(quotes, quote)
	}
	return quotes, nil
}

// Candles handles GET /v1/candles/days and /v1/candles/minutes/60
func (c *UpbitClient) Candles(ctx context.Context, market string, granularity models.Granularity, count int) ([]models.Candle, error) {
	if market == "" {
		return nil, ErrInvalidSymbol
	}
	if err := granularity.Validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("market", market)
	q.Set("count", strconv.Itoa(count))

	var raw []upbitCandle
	if err := c.get(ctx, "/v1/candles/"+string(granularity), q, &raw); err != nil {
		return nil, err
	}

	candles := make([]models.Candle, 0, len(raw))
	for _, r := range raw {
		candle, err := normalizeCandle(r)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", market, err)
		}
		candles = append(candles, candle)
	}
	return candles, nil
}

// get issues a rate-limited GET and decodes the JSON body into dest
func (c *UpbitClient) get(ctx context.Context, endpoint string, query url.Values, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	u := c.baseURL + endpoint
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		logger.UpstreamRequestDuration.WithLabelValues(endpoint, "error").Observe(time.Since(start).Seconds())
		return fmt.Errorf("GET %s: %w: %v", endpoint, ErrUpstream, err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			logger.Warn("Failed to close response body", logger.ErrorField(err))
		}
	}()
	logger.UpstreamRequestDuration.WithLabelValues(endpoint, strconv.Itoa(res.StatusCode)).Observe(time.Since(start).Seconds())

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w: %v", endpoint, ErrUpstream, err)
	}

	if res.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("GET %s: %w", endpoint, ErrRateLimited)
	}
	if res.StatusCode >= 400 {
		var apiErr upbitError
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("GET %s: %w: http %d: %s", endpoint, ErrUpstream, res.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("GET %s: %w: http %d", endpoint, ErrUpstream, res.StatusCode)
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("GET %s: %w: %v", endpoint, ErrMalformedPayload, err)
	}
	return nil
}
