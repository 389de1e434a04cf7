package kroger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// MaxProductBatch is the most product IDs the products endpoint accepts
	// in one filter.
	MaxProductBatch = 49

	maxAttempts    = 5
	initialBackoff = time.Second
	maxBackoff     = 30 * time.Second
	requestTimeout = 30 * time.Second
)

// Observer receives one callback per HTTP request the client issues,
// including retried attempts. Item count is zero for failed attempts.
type Observer func(endpoint string, status int, items int, elapsed time.Duration)

// Client talks to the Kroger public API with token handling and retry on
// throttling and server errors.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     *TokenManager
	logger     *zap.Logger
	observe    Observer

	backoff time.Duration
}

// NewClient creates an API client with its own token manager.
func NewClient(baseURL, clientID, clientSecret string, logger *zap.Logger) *Client {
	httpClient := &http.Client{Timeout: requestTimeout}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     NewTokenManager(baseURL, clientID, clientSecret, httpClient, logger),
		logger:     logger,
		backoff:    initialBackoff,
	}
}

// SetObserver installs the per-request callback. The harvester uses it to
// feed the request log.
func (c *Client) SetObserver(fn Observer) {
	c.observe = fn
}

func (c *Client) observed(endpoint string, status, items int, elapsed time.Duration) {
	if c.observe != nil {
		c.observe(endpoint, status, items, elapsed)
	}
}

// FetchPrices retrieves current prices for up to MaxProductBatch UPCs at one
// store. Longer UPC lists are split across requests.
func (c *Client) FetchPrices(ctx context.Context, locationID string, upcs []string) ([]ProductPrice, error) {
	var out []ProductPrice
	for start := 0; start < len(upcs); start += MaxProductBatch {
		end := start + MaxProductBatch
		if end > len(upcs) {
			end = len(upcs)
		}
		batch := upcs[start:end]

		params := url.Values{
			"filter.locationId": {locationID},
			"filter.productId":  {strings.Join(batch, ",")},
			"filter.limit":      {strconv.Itoa(len(batch) + 1)},
		}

		body, status, elapsed, err := c.doWithRetry(ctx, "/products", params)
		if err != nil {
			return out, err
		}

		var envelope apiEnvelope
		if err := json.Unmarshal(body, &envelope); err != nil {
			c.observed("/products", status, 0, elapsed)
			return out, fmt.Errorf("decode products response: %w", err)
		}
		c.observed("/products", status, len(envelope.Data), elapsed)

		for _, dto := range envelope.Data {
			out = append(out, dto.toPrice())
		}
	}
	return out, nil
}

// ListLocations retrieves stores matching the query.
func (c *Client) ListLocations(ctx context.Context, q LocationQuery) ([]Location, error) {
	params := url.Values{}
	if q.ZipNear != "" {
		params.Set("filter.zipCode.near", q.ZipNear)
	}
	if q.RadiusMiles > 0 {
		params.Set("filter.radiusInMiles", strconv.Itoa(q.RadiusMiles))
	}
	if q.Chain != "" {
		params.Set("filter.chain", q.Chain)
	}
	limit := q.Limit
	if limit < 1 || limit > 200 {
		limit = 200
	}
	params.Set("filter.limit", strconv.Itoa(limit))

	body, status, elapsed, err := c.doWithRetry(ctx, "/locations", params)
	if err != nil {
		return nil, err
	}

	var envelope locationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		c.observed("/locations", status, 0, elapsed)
		return nil, fmt.Errorf("decode locations response: %w", err)
	}
	c.observed("/locations", status, len(envelope.Data), elapsed)

	locations := make([]Location, 0, len(envelope.Data))
	for _, dto := range envelope.Data {
		locations = append(locations, dto.toLocation())
	}
	return locations, nil
}

// doWithRetry issues a GET with up to maxAttempts tries. Transport errors,
// throttling (429) and server errors back off exponentially; a single 401
// forces a token refresh without counting as a throttle. Token acquisition
// failures abort immediately, since retrying with the same credentials
// cannot succeed.
func (c *Client) doWithRetry(ctx context.Context, endpoint string, params url.Values) ([]byte, int, time.Duration, error) {
	backoff := c.backoff
	authRetried := false

	var lastStatus int
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		token, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, 0, 0, err
		}

		body, status, elapsed, err := c.doOnce(ctx, token, endpoint, params)
		if err != nil {
			if attempt == maxAttempts {
				return nil, 0, elapsed, err
			}
			c.logger.Warn("request failed, retrying",
				zap.String("endpoint", endpoint),
				zap.Int("attempt", attempt),
				zap.Error(err))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, 0, elapsed, ctx.Err()
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		lastStatus = status

		switch {
		case status >= 200 && status < 300:
			return body, status, elapsed, nil

		case status == http.StatusUnauthorized && !authRetried:
			authRetried = true
			c.tokens.Invalidate()
			c.logger.Warn("unauthorized response, refreshing token", zap.String("endpoint", endpoint))
			continue

		case status == http.StatusTooManyRequests || status >= 500:
			c.observed(endpoint, status, 0, elapsed)
			c.logger.Warn("retryable API error",
				zap.String("endpoint", endpoint),
				zap.Int("status", status),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, status, elapsed, ctx.Err()
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue

		default:
			c.observed(endpoint, status, 0, elapsed)
			return nil, status, elapsed, fmt.Errorf("%s returned %d: %s", endpoint, status, truncate(body, 200))
		}
	}

	return nil, lastStatus, 0, fmt.Errorf("%s still failing after %d attempts (last status %d)", endpoint, maxAttempts, lastStatus)
}

func (c *Client) doOnce(ctx context.Context, token, endpoint string, params url.Values) ([]byte, int, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		return nil, 0, elapsed, fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, resp.StatusCode, elapsed, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, elapsed, nil
}
