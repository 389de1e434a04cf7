package kroger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	tokenScope = "product.compact"

	// A token is considered stale this long before its actual expiry, so an
	// in-flight batch never crosses the boundary mid-run.
	refreshBuffer = 5 * time.Minute

	minTokenTTL = time.Minute
)

// TokenManager caches a client-credentials access token and refreshes it on
// demand. Safe for concurrent use.
type TokenManager struct {
	baseURL      string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	logger       *zap.Logger

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewTokenManager creates a token manager against the given API base URL.
func NewTokenManager(baseURL, clientID, clientSecret string, httpClient *http.Client, logger *zap.Logger) *TokenManager {
	return &TokenManager{
		baseURL:      strings.TrimRight(baseURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Token returns a valid access token, refreshing when the cached one is
// missing or inside the refresh buffer.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiry.Add(-refreshBuffer)) {
		return m.token, nil
	}
	return m.refreshLocked(ctx)
}

// Invalidate discards the cached token. The next Token call refreshes. Used
// when the API answers 401 despite a supposedly valid token.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.mu.Unlock()
}

func (m *TokenManager) refreshLocked(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {tokenScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		m.baseURL+"/connect/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(m.clientID, m.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, truncate(body, 200))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if payload.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access_token")
	}

	ttl := time.Duration(payload.ExpiresIn) * time.Second
	if ttl < minTokenTTL {
		ttl = minTokenTTL
	}
	m.token = payload.AccessToken
	m.expiry = time.Now().Add(ttl)

	m.logger.Debug("access token refreshed", zap.Duration("ttl", ttl))
	return m.token, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
