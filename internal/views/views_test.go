package views

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volumebot/console/internal/clients/volumebot"
)

func day(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestDefaultDateRange(t *testing.T) {
	r := DefaultDateRange(time.Date(2025, 9, 16, 15, 30, 0, 0, time.UTC))
	assert.Equal(t, day(2025, 8, 16, 0), r.Start)
	assert.Equal(t, day(2025, 9, 16, 0), r.End)
}

func TestDateRange_ContainsEndDayInclusive(t *testing.T) {
	r := DateRange{Start: day(2025, 9, 1, 0), End: day(2025, 9, 10, 0)}

	assert.True(t, r.Contains(day(2025, 9, 1, 0)))
	assert.True(t, r.Contains(time.Date(2025, 9, 10, 23, 59, 59, 0, time.UTC)))
	assert.False(t, r.Contains(day(2025, 9, 11, 0)))
	assert.False(t, r.Contains(time.Date(2025, 8, 31, 23, 59, 59, 0, time.UTC)))
}

func TestParseDateRange(t *testing.T) {
	now := day(2025, 9, 16, 12)

	r, err := ParseDateRange("2025-09-01", "2025-09-05", now)
	require.NoError(t, err)
	assert.Equal(t, day(2025, 9, 1, 0), r.Start)
	assert.Equal(t, day(2025, 9, 5, 0), r.End)

	r, err = ParseDateRange("", "", now)
	require.NoError(t, err)
	assert.Equal(t, DefaultDateRange(now), r)

	_, err = ParseDateRange("yesterday", "", now)
	assert.Error(t, err)

	_, err = ParseDateRange("2025-09-10", "2025-09-01", now)
	assert.Error(t, err)
}

func TestPagination(t *testing.T) {
	p := NewPagination(0)
	assert.Equal(t, Pagination{Page: 1, PageSize: DefaultPageSize, TotalPages: 1}, p)
	assert.False(t, p.HasNext())
	assert.Equal(t, 1, p.Next().Page)
	assert.Equal(t, 1, p.Prev().Page)

	p = p.Apply(volumebot.Pagination{Total: 43, TotalPages: 5}, 10)
	assert.Equal(t, 43, p.TotalItems)
	assert.Equal(t, 5, p.TotalPages)

	p = p.Next().Next()
	assert.Equal(t, 3, p.Page)
	assert.True(t, p.HasPrev())
	assert.Equal(t, "Page 3 of 5 (43 balances)", p.Label("balances"))

	for i := 0; i < 10; i++ {
		p = p.Next()
	}
	assert.Equal(t, 5, p.Page)
}

func TestPagination_ApplyFallbacks(t *testing.T) {
	p := NewPagination(10)
	p.Page = 4

	p = p.Apply(volumebot.Pagination{}, 7)
	assert.Equal(t, 7, p.TotalItems)
	assert.Equal(t, 1, p.TotalPages)
	assert.Equal(t, 1, p.Page)
}

func TestFilterBalances(t *testing.T) {
	balances := []volumebot.Balance{
		{ID: 12, TotalUSDT: decimal.RequireFromString("100.5"), TotalBNB: decimal.RequireFromString("1"), TotalToken: decimal.RequireFromString("7")},
		{ID: 3, TotalUSDT: decimal.RequireFromString("42"), TotalBNB: decimal.RequireFromString("0.25"), TotalToken: decimal.RequireFromString("99")},
	}

	assert.Len(t, FilterBalances(balances, ""), 2)
	assert.Equal(t, int64(12), FilterBalances(balances, "12")[0].ID)
	assert.Equal(t, int64(12), FilterBalances(balances, "100.5")[0].ID)
	assert.Equal(t, int64(3), FilterBalances(balances, "0.25")[0].ID)
	assert.Empty(t, FilterBalances(balances, "xyz"))
}

func TestFilterTopups(t *testing.T) {
	topups := []volumebot.Topup{
		{ID: 1, WalletAddress: "0xABCdef", TokenType: "USDT", TxHash: "0x111"},
		{ID: 2, WalletAddress: "0x999", TokenType: "BNB", TxHash: "0xFEED"},
	}

	assert.Len(t, FilterTopups(topups, ""), 2)
	assert.Equal(t, int64(1), FilterTopups(topups, "abcDEF")[0].ID)
	assert.Equal(t, int64(2), FilterTopups(topups, "bnb")[0].ID)
	assert.Equal(t, int64(2), FilterTopups(topups, "feed")[0].ID)
	assert.Empty(t, FilterTopups(topups, "nothing"))
}

func TestFilterTrades(t *testing.T) {
	trades := []volumebot.Trade{
		{ID: 1, Type: "buy", WalletAddress: "0xaaa", Timestamp: day(2025, 9, 1, 10)},
		{ID: 2, Type: "sell", WalletAddress: "0xbbb", Timestamp: day(2025, 9, 2, 10)},
		{ID: 3, Type: "buy", WalletAddress: "0xccc", Timestamp: day(2025, 9, 5, 10)},
		{ID: 4, Type: "buy", WalletAddress: "0xaaa", Timestamp: day(2025, 9, 9, 10)},
	}

	ids := func(ts []volumebot.Trade) []int64 {
		out := []int64{}
		for _, t := range ts {
			out = append(out, t.ID)
		}
		return out
	}

	assert.Equal(t, []int64{1, 2, 3, 4}, ids(FilterTrades(trades, TradeFilter{})))
	assert.Equal(t, []int64{1, 3, 4}, ids(FilterTrades(trades, TradeFilter{Type: "BUY"})))
	assert.Equal(t, []int64{2}, ids(FilterTrades(trades, TradeFilter{Search: "sell"})))
	assert.Equal(t, []int64{1, 4}, ids(FilterTrades(trades, TradeFilter{Search: "0xAAA"})))
	assert.Equal(t, []int64{1, 3}, ids(FilterTrades(trades, TradeFilter{
		Type:  "buy",
		Range: DateRange{Start: day(2025, 9, 1, 0), End: day(2025, 9, 5, 0)},
	})))
}

func TestLatest(t *testing.T) {
	trades := make([]volumebot.Trade, 60)
	assert.Len(t, Latest(trades, LatestTradesLimit), 50)
	assert.Len(t, Latest(trades[:3], LatestTradesLimit), 3)
}

func TestNextTradeType(t *testing.T) {
	assert.Equal(t, "buy", NextTradeType(""))
	assert.Equal(t, "sell", NextTradeType("buy"))
	assert.Equal(t, "", NextTradeType("sell"))
}
