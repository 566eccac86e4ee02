package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/volumebot/console/internal/clients/volumebot"
)

// Fake API credentials
const (
	FakeEmail    = "bot.owner@example.com"
	FakePassword = "Secr3t!pass"
	FakeToken    = "fake-token-1"
)

// FakeAPI is an in-process Volume Bot API serving the fixtures
type FakeAPI struct {
	server *httptest.Server

	mu           sync.Mutex
	token        string
	unauthorized bool
	failures     map[string]failure
	calls        map[string]int
	queries      map[string]url.Values
	config       volumebot.TradingConfig
	accounts     map[string]string
	signups      []volumebot.SignupRequest
}

type failure struct {
	status  int
	message string
}

// NewFakeAPI starts a fake API that is shut down when the test ends
func NewFakeAPI(t *testing.T) *FakeAPI {
	t.Helper()

	f := &FakeAPI{
		token:    FakeToken,
		failures: make(map[string]failure),
		calls:    make(map[string]int),
		queries:  make(map[string]url.Values),
		config:   NewTradingConfigFixture(),
		accounts: map[string]string{FakeEmail: FakePassword},
	}

	r := chi.NewRouter()
	r.Post("/api/login", f.handleLogin)
	r.Post("/api/signup", f.handleSignup)
	r.Group(func(r chi.Router) {
		r.Use(f.requireToken)
		r.Get("/api/dashboard", f.handleDashboard)
		r.Get("/api/daily-last-balances", f.handleBalances)
		r.Get("/api/topups", f.handleTopups)
		r.Get("/api/trades", f.handleTrades)
		r.Get("/api/wallets-current-balances", f.handleWallet)
		r.Get("/api/trading-config", f.handleGetConfig)
		r.Put("/api/trading-config", f.handlePutConfig)
	})

	f.server = httptest.NewServer(f.record(r))
	t.Cleanup(f.server.Close)
	return f
}

// URL returns the base URL of the fake API
func (f *FakeAPI) URL() string {
	return f.server.URL
}

// SetUnauthorized makes every protected endpoint answer 401
func (f *FakeAPI) SetUnauthorized(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unauthorized = on
}

// Fail makes path answer status with message until cleared with status 0
func (f *FakeAPI) Fail(path string, status int, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if status == 0 {
		delete(f.failures, path)
		return
	}
	f.failures[path] = failure{status: status, message: message}
}

// Calls returns how many requests path received
func (f *FakeAPI) Calls(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[path]
}

// Query returns the query string of the last request to path
func (f *FakeAPI) Query(path string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[path]
}

// Signups returns every accepted signup
func (f *FakeAPI) Signups() []volumebot.SignupRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]volumebot.SignupRequest(nil), f.signups...)
}

// TradingConfig returns the stored trading configuration
func (f *FakeAPI) TradingConfig() volumebot.TradingConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.config
}

func (f *FakeAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.calls[r.URL.Path]++
		f.queries[r.URL.Path] = r.URL.Query()
		fail, failing := f.failures[r.URL.Path]
		f.mu.Unlock()

		if failing {
			writeEnvelope(w, fail.status, false, nil, fail.message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeAPI) requireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		ok := !f.unauthorized && r.Header.Get("Authorization") == "Bearer "+f.token
		f.mu.Unlock()

		if !ok {
			writeEnvelope(w, http.StatusUnauthorized, false, nil, "Invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeEnvelope(w http.ResponseWriter, status int, success bool, data interface{}, message string) {
	body := map[string]interface{}{"success": success}
	if data != nil {
		body["data"] = data
	}
	if message != "" {
		body["message"] = message
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func (f *FakeAPI) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Invalid request body")
		return
	}

	f.mu.Lock()
	password, ok := f.accounts[strings.ToLower(req.Email)]
	token := f.token
	f.mu.Unlock()

	if !ok || password != req.Password {
		writeEnvelope(w, http.StatusUnauthorized, false, nil, "Invalid email or password")
		return
	}
	writeEnvelope(w, http.StatusOK, true, map[string]interface{}{
		"token": token,
		"user":  map[string]string{"email": req.Email, "role": "user"},
	}, "")
}

func (f *FakeAPI) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req volumebot.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Invalid request body")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	email := strings.ToLower(req.Email)
	if _, exists := f.accounts[email]; exists {
		// The real API answers a duplicate with a bare 400
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	f.accounts[email] = req.Password
	f.signups = append(f.signups, req)
	writeEnvelope(w, http.StatusCreated, true, nil, "User created")
}

func pagination(total int) map[string]int {
	return map[string]int{"page": 1, "limit": 10, "total": total, "totalPages": 1}
}

func (f *FakeAPI) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, http.StatusOK, true, NewDashboardFixture(), "")
}

func (f *FakeAPI) handleBalances(w http.ResponseWriter, _ *http.Request) {
	balances := NewBalanceFixtures()
	writeEnvelope(w, http.StatusOK, true, map[string]interface{}{
		"balances":   balances,
		"pagination": pagination(len(balances)),
	}, "")
}

func (f *FakeAPI) handleTopups(w http.ResponseWriter, _ *http.Request) {
	topups := NewTopupFixtures()
	writeEnvelope(w, http.StatusOK, true, map[string]interface{}{
		"topups":     topups,
		"pagination": pagination(len(topups)),
	}, "")
}

func (f *FakeAPI) handleTrades(w http.ResponseWriter, _ *http.Request) {
	trades := NewTradeFixtures()
	writeEnvelope(w, http.StatusOK, true, map[string]interface{}{
		"trades":     trades,
		"pagination": pagination(len(trades)),
	}, "")
}

func (f *FakeAPI) handleWallet(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, http.StatusOK, true, NewWalletFixture(), "")
}

func (f *FakeAPI) handleGetConfig(w http.ResponseWriter, _ *http.Request) {
	writeEnvelope(w, http.StatusOK, true, f.TradingConfig(), "")
}

func (f *FakeAPI) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	var cfg volumebot.TradingConfig
	if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, "Invalid request body")
		return
	}
	if err := cfg.Validate(); err != nil {
		writeEnvelope(w, http.StatusBadRequest, false, nil, err.Error())
		return
	}

	f.mu.Lock()
	f.config = cfg
	f.mu.Unlock()
	writeEnvelope(w, http.StatusOK, true, cfg, "Trading configuration updated")
}
