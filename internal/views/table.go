package views

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/volumebot/console/internal/clients/volumebot"
)

// TimestampLayout formats timestamps in tables and exports.
const TimestampLayout = "2006-01-02 15:04:05"

// Table is a rendered list: the same rows are shown and exported.
type Table struct {
	// Name identifies the dataset, e.g. "balances".
	Name    string     `json:"name"`
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Len returns the number of data rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Dataset names used by tables, export file names and the gateway routes.
const (
	DatasetBalances     = "balances"
	DatasetTopups       = "topups"
	DatasetLatestTrades = "latest-trades"
	DatasetTrades       = "trades"
)

func fixed(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

func timestamp(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(TimestampLayout)
}

// BalancesTable renders daily balances with 6 decimal places.
func BalancesTable(balances []volumebot.Balance, loc *time.Location) Table {
	t := Table{
		Name:    DatasetBalances,
		Title:   "Last Balances",
		Columns: []string{"ID", "Total USDT", "Total BNB", "Total Token", "Timestamp"},
		Rows:    make([][]string, 0, len(balances)),
	}
	for _, b := range balances {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(b.ID, 10),
			fixed(b.TotalUSDT, 6),
			fixed(b.TotalBNB, 6),
			fixed(b.TotalToken, 6),
			timestamp(b.Timestamp, loc),
		})
	}
	return t
}

// TopupsTable renders top-ups with amounts as received.
func TopupsTable(topups []volumebot.Topup, loc *time.Location) Table {
	t := Table{
		Name:    DatasetTopups,
		Title:   "Topups",
		Columns: []string{"ID", "Wallet", "Token Type", "Amount", "Symbol", "TX Hash", "Timestamp"},
		Rows:    make([][]string, 0, len(topups)),
	}
	for _, tp := range topups {
		t.Rows = append(t.Rows, []string{
			strconv.FormatInt(tp.ID, 10),
			tp.WalletAddress,
			tp.TokenType,
			tp.Amount.String(),
			tp.TokenSymbol,
			tp.TxHash,
			timestamp(tp.Timestamp, loc),
		})
	}
	return t
}

// TradesTable renders trades: amounts with 4 decimals, price and gas with 6.
func TradesTable(name, title string, trades []volumebot.Trade, loc *time.Location) Table {
	t := Table{
		Name:    name,
		Title:   title,
		Columns: []string{"Type", "Token Amount", "USDT Amount", "Price", "Wallet Address", "Timestamp", "Gas Fee (BNB)"},
		Rows:    make([][]string, 0, len(trades)),
	}
	for _, tr := range trades {
		t.Rows = append(t.Rows, []string{
			strings.ToUpper(tr.Type),
			fixed(tr.TokenAmount, 4),
			fixed(tr.USDTAmount, 4),
			fixed(tr.Price, 6),
			tr.WalletAddress,
			timestamp(tr.Timestamp, loc),
			fixed(tr.GasFeeBNB, 6),
		})
	}
	return t
}

// LatestTradesTable renders the dashboard's latest trades.
func LatestTradesTable(trades []volumebot.Trade, loc *time.Location) Table {
	return TradesTable(DatasetLatestTrades, "Latest Trades", trades, loc)
}

// TradeHistoryTable renders the full trade history page.
func TradeHistoryTable(trades []volumebot.Trade, loc *time.Location) Table {
	return TradesTable(DatasetTrades, "Trades", trades, loc)
}
