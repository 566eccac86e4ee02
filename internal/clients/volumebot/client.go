// Package volumebot is the typed client for the Volume Bot remote API.
// Every response is decoded into an explicit type and validated at the boundary.
package volumebot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the production API.
const DefaultBaseURL = "https://volumebot.furfoori.com"

// Responses larger than this are rejected as malformed.
const maxBodyBytes = 10 << 20

// Same layout as JavaScript's Date.toISOString, which the API expects.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Client for the Volume Bot API
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new API client. A zero timeout means 15s.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "volumebot").Logger(),
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

type validator interface {
	Validate() error
}

// do performs one request and decodes the envelope's data into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path, token string, params url.Values, body, out interface{}) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Debug().Err(err).Str("path", path).Str("request_id", requestID).Msg("Request failed")
		return fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes+1))
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: reading %s: %v", ErrTransport, path, err)
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("duration", time.Since(start)).
		Msg("API call")

	if len(raw) > maxBodyBytes {
		raw = nil
		if resp.StatusCode >= 200 && resp.StatusCode <= 299 {
			return &MalformedResponseError{Endpoint: path, Reason: "body exceeds size limit"}
		}
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		apiErr := &APIError{Status: resp.StatusCode, Err: ErrUnauthorized}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		return fmt.Errorf("%s %s: %w", method, path, apiErr)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
		}
		return apiErr
	}

	if decodeErr != nil {
		return &MalformedResponseError{Endpoint: path, Reason: decodeErr.Error()}
	}
	if env.Success == nil {
		return &MalformedResponseError{Endpoint: path, Reason: "success flag is missing"}
	}
	if !*env.Success {
		return &APIError{Status: resp.StatusCode, Message: env.Message}
	}
	if out == nil {
		return nil
	}

	if len(env.Data) == 0 || string(env.Data) == "null" {
		return &MalformedResponseError{Endpoint: path, Reason: "data is missing"}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &MalformedResponseError{Endpoint: path, Reason: err.Error()}
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return &MalformedResponseError{Endpoint: path, Reason: err.Error()}
		}
	}
	return nil
}

func requireToken(token string) error {
	if token == "" {
		return ErrNoToken
	}
	return nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginResult, error) {
	var data loginData
	err := c.do(ctx, http.MethodPost, "/api/login", "", nil, map[string]string{
		"email":    email,
		"password": password,
	}, &data)
	if err != nil {
		return LoginResult{}, err
	}

	result := LoginResult{Token: data.Token, Email: data.Email, Role: data.Role}
	if data.User != nil {
		if result.Email == "" {
			result.Email = data.User.Email
		}
		if result.Role == "" {
			result.Role = data.User.Role
		}
	}
	if result.Email == "" {
		result.Email = email
	}
	if result.Role == "" {
		result.Role = "user"
	}
	return result, nil
}

// Signup creates a user account. Role is always "user".
func (c *Client) Signup(ctx context.Context, req SignupRequest) error {
	req.Role = "user"
	err := c.do(ctx, http.MethodPost, "/api/signup", "", nil, req, nil)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusBadRequest && apiErr.Message == "" {
		apiErr.Message = "Email already exists"
	}
	return err
}

// Dashboard fetches the aggregate totals and latest trades.
func (c *Client) Dashboard(ctx context.Context, token string) (Dashboard, error) {
	var d Dashboard
	if err := requireToken(token); err != nil {
		return d, err
	}
	return d, c.do(ctx, http.MethodGet, "/api/dashboard", token, nil, nil, &d)
}

// DailyLastBalances fetches one page of daily closing balances.
func (c *Client) DailyLastBalances(ctx context.Context, token string, q PageQuery) (BalancesPage, error) {
	var p BalancesPage
	if err := requireToken(token); err != nil {
		return p, err
	}
	return p, c.do(ctx, http.MethodGet, "/api/daily-last-balances", token, q.values(), nil, &p)
}

// Topups fetches one page of wallet top-ups.
func (c *Client) Topups(ctx context.Context, token string, q PageQuery) (TopupsPage, error) {
	var p TopupsPage
	if err := requireToken(token); err != nil {
		return p, err
	}
	return p, c.do(ctx, http.MethodGet, "/api/topups", token, q.values(), nil, &p)
}

// Trades fetches one page of trade history.
func (c *Client) Trades(ctx context.Context, token string, q PageQuery) (TradesPage, error) {
	var p TradesPage
	if err := requireToken(token); err != nil {
		return p, err
	}
	return p, c.do(ctx, http.MethodGet, "/api/trades", token, q.values(), nil, &p)
}

// WalletBalances fetches the central wallet balances.
func (c *Client) WalletBalances(ctx context.Context, token string) (WalletBalances, error) {
	var w WalletBalances
	if err := requireToken(token); err != nil {
		return w, err
	}
	return w, c.do(ctx, http.MethodGet, "/api/wallets-current-balances", token, nil, nil, &w)
}

// TradingConfig fetches the current trading configuration.
func (c *Client) TradingConfig(ctx context.Context, token string) (TradingConfig, error) {
	var cfg TradingConfig
	if err := requireToken(token); err != nil {
		return cfg, err
	}
	return cfg, c.do(ctx, http.MethodGet, "/api/trading-config", token, nil, nil, &cfg)
}

// UpdateTradingConfig validates cfg locally and saves it. The stored value is returned.
func (c *Client) UpdateTradingConfig(ctx context.Context, token string, cfg TradingConfig) (TradingConfig, error) {
	if err := requireToken(token); err != nil {
		return TradingConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return TradingConfig{}, fmt.Errorf("invalid trading config: %w", err)
	}
	var saved TradingConfig
	if err := c.do(ctx, http.MethodPut, "/api/trading-config", token, nil, cfg, &saved); err != nil {
		return TradingConfig{}, err
	}
	return saved, nil
}

// values encodes the query the list endpoints expect.
// The end date is inclusive, so it is pushed to the last millisecond of its day.
func (q PageQuery) values() url.Values {
	v := url.Values{}
	page := q.Page
	if page < 1 {
		page = 1
	}
	v.Set("page", strconv.Itoa(page))
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if !q.StartDate.IsZero() {
		v.Set("startDate", q.StartDate.UTC().Format(isoMillis))
	}
	if !q.EndDate.IsZero() {
		v.Set("endDate", EndOfDay(q.EndDate).UTC().Format(isoMillis))
	}
	return v
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}
