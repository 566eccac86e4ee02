package volumebot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, 5*time.Second, zerolog.Nop())
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestNewClient_Defaults(t *testing.T) {
	c := NewClient("", 0, zerolog.Nop())
	assert.Equal(t, DefaultBaseURL, c.BaseURL())
	assert.Equal(t, 15*time.Second, c.client.Timeout)

	c = NewClient("http://localhost:9000/", time.Second, zerolog.Nop())
	assert.Equal(t, "http://localhost:9000", c.BaseURL())
}

func TestDashboard_Success(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/dashboard", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":{
			"total_transactions":120,"daily_transactions":7,
			"total_fee_bnb":"0.0125","daily_fee_bnb":"0.001",
			"total_buy_usdt":"1500.25","total_sell_usdt":"1400",
			"total_bot_agents":5,
			"total_available_balances":{"total_usdt":"250.5","total_token":"1000","total_bnb":"0.5"},
			"latest_trades":[{"id":1,"wallet_address":"0xabc","type":"buy","token_amount":"10.5","usdt_amount":"21","price":"2","gas_fee_bnb":"0.0001","timestamp":"2025-09-16T10:00:00Z"}]
		}}`)
	})

	d, err := c.Dashboard(context.Background(), "tok")
	require.NoError(t, err)
	assert.Equal(t, int64(120), d.TotalTransactions)
	assert.True(t, d.TotalBuyUSDT.Equal(decimal.RequireFromString("1500.25")))
	assert.True(t, d.TotalAvailableBalances.TotalBNB.Equal(decimal.RequireFromString("0.5")))
	require.Len(t, d.LatestTrades, 1)
	assert.Equal(t, TradeBuy, d.LatestTrades[0].Type)
}

func TestProtectedEndpoint_RequiresToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected")
	})

	_, err := c.Dashboard(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestUnauthorizedStatuses(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, status, `{"success":false,"message":"Invalid token"}`)
		})

		_, err := c.Topups(context.Background(), "expired", PageQuery{Page: 1})
		require.Error(t, err)
		assert.True(t, IsUnauthorized(err), "status %d", status)
		assert.False(t, IsTransport(err))
		assert.Equal(t, "Invalid token", ServerMessage(err))
	}
}

func TestLogin_RejectedKeepsServerMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"success":false,"message":"Invalid email or password"}`)
	})

	_, err := c.Login(context.Background(), "a@b.c", "wrong")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid email or password", apiErr.Message)
}

func TestAPIError_NonSuccessStatus(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"success":false,"message":"database down"}`)
	})

	_, err := c.WalletBalances(context.Background(), "tok")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, "database down", apiErr.Message)
	assert.Equal(t, "database down", Message(err, "Error fetching balances."))
}

func TestAPIError_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := c.WalletBalances(context.Background(), "tok")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Empty(t, apiErr.Message)
	assert.Equal(t, "Error fetching balances.", Message(err, "Error fetching balances."))
}

func TestAPIError_SuccessFalse(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":false,"message":"No data"}`)
	})

	_, err := c.Trades(context.Background(), "tok", PageQuery{})
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "No data", apiErr.Message)
}

func TestMalformedResponses(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not json", `garbage`},
		{"missing success flag", `{"data":{}}`},
		{"missing data", `{"success":true}`},
		{"null data", `{"success":true,"data":null}`},
		{"wrong shape", `{"success":true,"data":{"balances":"nope"}}`},
		{"invalid record", `{"success":true,"data":{"balances":[{"id":0,"total_usdt":"1","total_bnb":"1","total_token":"1","timestamp":"2025-09-16T00:00:00Z"}]}}`},
		{"missing timestamp", `{"success":true,"data":{"balances":[{"id":3,"total_usdt":"1","total_bnb":"1","total_token":"1"}]}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			})

			_, err := c.DailyLastBalances(context.Background(), "tok", PageQuery{Page: 1, Limit: 10})
			require.Error(t, err)
			assert.True(t, IsMalformed(err), "got %v", err)
		})
	}
}

func TestTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(url, time.Second, zerolog.Nop())
	_, err := c.Dashboard(context.Background(), "tok")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestCancelledContext(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Dashboard(ctx, "tok")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTransport(err))
}

func TestListQueryParameters(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/daily-last-balances", r.URL.Path)
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "10", q.Get("limit"))
		assert.Equal(t, "2025-08-15T22:00:00.000Z", q.Get("startDate"))
		assert.Equal(t, "2025-09-16T21:59:59.999Z", q.Get("endDate"))
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"balances":[
			{"id":7,"total_usdt":"100.123456","total_bnb":"0.5","total_token":"42","timestamp":"2025-09-16T00:00:00Z"}
		],"pagination":{"page":2,"limit":10,"total":11,"totalPages":2}}}`)
	})

	page, err := c.DailyLastBalances(context.Background(), "tok", PageQuery{
		Page:      2,
		Limit:     10,
		StartDate: time.Date(2025, 8, 16, 0, 0, 0, 0, loc),
		EndDate:   time.Date(2025, 9, 16, 8, 30, 0, 0, loc),
	})
	require.NoError(t, err)
	require.Len(t, page.Balances, 1)
	assert.Equal(t, int64(7), page.Balances[0].ID)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, 11, page.Pagination.Total)
}

func TestPageQuery_DefaultsToFirstPage(t *testing.T) {
	v := PageQuery{}.values()
	assert.Equal(t, "1", v.Get("page"))
	assert.Empty(t, v.Get("limit"))
	assert.Empty(t, v.Get("startDate"))
	assert.Empty(t, v.Get("endDate"))
}

func TestLogin(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ops@example.com", body["email"])
		assert.Equal(t, "Secret#123", body["password"])

		writeJSON(w, http.StatusOK, `{"success":true,"data":{"token":"jwt","user":{"email":"ops@example.com","role":"admin"}}}`)
	})

	res, err := c.Login(context.Background(), "ops@example.com", "Secret#123")
	require.NoError(t, err)
	assert.Equal(t, LoginResult{Token: "jwt", Email: "ops@example.com", Role: "admin"}, res)
}

func TestLogin_FlatBodyAndDefaults(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"token":"jwt"}}`)
	})

	res, err := c.Login(context.Background(), "me@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", res.Email)
	assert.Equal(t, "user", res.Role)
}

func TestLogin_MissingToken(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"success":true,"data":{"email":"me@example.com"}}`)
	})

	_, err := c.Login(context.Background(), "me@example.com", "pw")
	assert.True(t, IsMalformed(err))
}

func TestSignup(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body SignupRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "user", body.Role)
		assert.Equal(t, "pass-code", body.AdminPasscode)
		writeJSON(w, http.StatusCreated, `{"success":true,"message":"created"}`)
	})

	err := c.Signup(context.Background(), SignupRequest{
		Email:         "new@example.com",
		Password:      "Secret#123",
		Role:          "admin",
		AdminPasscode: "pass-code",
	})
	assert.NoError(t, err)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	})

	err := c.Signup(context.Background(), SignupRequest{Email: "dup@example.com"})
	assert.Equal(t, "Email already exists", Message(err, "Signup failed"))
}

func TestTradingConfig_RoundTrip(t *testing.T) {
	cfg := TradingConfig{
		TargetTokenAddress: "0x" + "a1b2c3d4e5" + "a1b2c3d4e5" + "a1b2c3d4e5" + "a1b2c3d4e5",
		RPCURL:             "https://bsc-dataseed.binance.org",
		BotCount:           5,
		Trend:              TrendBullish,
		Threshold:          decimal.RequireFromString("2.5"),
	}

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/trading-config", r.URL.Path)
		switch r.Method {
		case http.MethodPut:
			var got TradingConfig
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			assert.Equal(t, 5, got.BotCount)
			data, _ := json.Marshal(got)
			writeJSON(w, http.StatusOK, `{"success":true,"data":`+string(data)+`}`)
		case http.MethodGet:
			data, _ := json.Marshal(cfg)
			writeJSON(w, http.StatusOK, `{"success":true,"data":`+string(data)+`}`)
		}
	})

	saved, err := c.UpdateTradingConfig(context.Background(), "tok", cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg.TargetTokenAddress, saved.TargetTokenAddress)

	got, err := c.TradingConfig(context.Background(), "tok")
	require.NoError(t, err)
	assert.True(t, got.Threshold.Equal(cfg.Threshold))
}

func TestUpdateTradingConfig_RejectsInvalidLocally(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("invalid config must not be sent")
	})

	_, err := c.UpdateTradingConfig(context.Background(), "tok", TradingConfig{BotCount: 16})
	assert.Error(t, err)
}

func TestEndOfDay(t *testing.T) {
	got := EndOfDay(time.Date(2025, 9, 16, 3, 4, 5, 0, time.UTC))
	assert.Equal(t, time.Date(2025, 9, 16, 23, 59, 59, 999000000, time.UTC), got)
}
