package volumebot

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func validConfig() TradingConfig {
	return TradingConfig{
		TargetTokenAddress: "0x" + strings.Repeat("ab", 20),
		RPCURL:             "https://bsc-dataseed.binance.org",
		BotCount:           3,
		Trend:              TrendNeutral,
		Threshold:          decimal.NewFromInt(10),
	}
}

func TestTradingConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*TradingConfig)
		wantErr bool
	}{
		{"valid", func(*TradingConfig) {}, false},
		{"short address", func(c *TradingConfig) { c.TargetTokenAddress = "0x1234" }, true},
		{"address without prefix", func(c *TradingConfig) { c.TargetTokenAddress = strings.Repeat("ab", 21) }, true},
		{"non hex address", func(c *TradingConfig) { c.TargetTokenAddress = "0x" + strings.Repeat("zz", 20) }, true},
		{"ws rpc", func(c *TradingConfig) { c.RPCURL = "wss://node" }, true},
		{"http rpc", func(c *TradingConfig) { c.RPCURL = "http://localhost:8545" }, false},
		{"zero bots", func(c *TradingConfig) { c.BotCount = 0 }, true},
		{"max bots", func(c *TradingConfig) { c.BotCount = MaxBotCount }, false},
		{"too many bots", func(c *TradingConfig) { c.BotCount = MaxBotCount + 1 }, true},
		{"unknown trend", func(c *TradingConfig) { c.Trend = "sideways" }, true},
		{"bearish", func(c *TradingConfig) { c.Trend = TrendBearish }, false},
		{"negative threshold", func(c *TradingConfig) { c.Threshold = decimal.NewFromInt(-1) }, true},
		{"threshold upper bound", func(c *TradingConfig) { c.Threshold = decimal.NewFromInt(100) }, false},
		{"threshold too high", func(c *TradingConfig) { c.Threshold = decimal.RequireFromString("100.01") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrade_Validate(t *testing.T) {
	ts := time.Date(2025, 9, 16, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, Trade{ID: 1, WalletAddress: "0xabc", Type: "buy", Timestamp: ts}.Validate())
	assert.NoError(t, Trade{ID: 1, WalletAddress: "0xabc", Type: "SELL", Timestamp: ts}.Validate())
	assert.Error(t, Trade{ID: 1, WalletAddress: "0xabc", Type: "swap", Timestamp: ts}.Validate())
	assert.Error(t, Trade{ID: 1, Type: "buy", Timestamp: ts}.Validate())
	assert.Error(t, Trade{ID: 1, WalletAddress: "0xabc", Type: "buy"}.Validate())
}

func TestDashboard_ValidateNestedTrades(t *testing.T) {
	d := Dashboard{LatestTrades: []Trade{{ID: 9, Type: "buy"}}}
	err := d.Validate()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "latest_trades[0]")
}

func TestWalletBalances_Validate(t *testing.T) {
	assert.NoError(t, WalletBalances{}.Validate())
	assert.NoError(t, WalletBalances{CentralWallet: CentralWallet{Address: "0x" + strings.Repeat("0", 40)}}.Validate())
	assert.Error(t, WalletBalances{CentralWallet: CentralWallet{Address: "bad"}}.Validate())
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "fallback", Message(ErrTransport, "fallback"))
	assert.Equal(t, "Session expired, please log in again.", Message(ErrUnauthorized, "fallback"))
	assert.Equal(t, "boom", Message(&APIError{Status: 500, Message: "boom"}, "fallback"))
	assert.Equal(t, SessionExpired, Message(&APIError{Status: 403, Message: "Invalid token", Err: ErrUnauthorized}, "fallback"))
	assert.Equal(t, "Invalid token", ServerMessage(&APIError{Status: 403, Message: "Invalid token", Err: ErrUnauthorized}))
	assert.Empty(t, ServerMessage(ErrTransport))
}
