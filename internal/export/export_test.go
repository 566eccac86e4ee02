package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volumebot/console/internal/clients/volumebot"
	"github.com/volumebot/console/internal/views"
	"github.com/xuri/excelize/v2"
)

func tradeFixture() []volumebot.Trade {
	at := func(d int) time.Time { return time.Date(2025, 9, d, 10, 0, 0, 0, time.UTC) }
	dec := decimal.RequireFromString
	return []volumebot.Trade{
		{ID: 1, Type: "buy", WalletAddress: "0xaaa", TokenAmount: dec("10"), USDTAmount: dec("2.5"), Price: dec("0.25"), GasFeeBNB: dec("0.0001"), Timestamp: at(1)},
		{ID: 2, Type: "sell", WalletAddress: "0xbbb", TokenAmount: dec("4"), USDTAmount: dec("1"), Price: dec("0.25"), GasFeeBNB: dec("0.0001"), Timestamp: at(2)},
		{ID: 3, Type: "buy", WalletAddress: "0xccc", TokenAmount: dec("8.12345"), USDTAmount: dec("2"), Price: dec("0.2462"), GasFeeBNB: dec("0.0002"), Timestamp: at(4)},
		{ID: 4, Type: "buy", WalletAddress: "0xddd", TokenAmount: dec("1"), USDTAmount: dec("0.3"), Price: dec("0.3"), GasFeeBNB: dec("0.0001"), Timestamp: at(20)},
		{ID: 5, Type: "sell", WalletAddress: "0xeee", TokenAmount: dec("3"), USDTAmount: dec("0.9"), Price: dec("0.3"), GasFeeBNB: dec("0.0001"), Timestamp: at(3)},
	}
}

// filteredTable filters trades to buys between Sep 1 and Sep 5.
func filteredTable() ([]volumebot.Trade, views.Table) {
	filtered := views.FilterTrades(tradeFixture(), views.TradeFilter{
		Type: "buy",
		Range: views.DateRange{
			Start: time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2025, 9, 5, 0, 0, 0, 0, time.UTC),
		},
	})
	return filtered, views.TradeHistoryTable(filtered, time.UTC)
}

func TestExportFidelity_CSV(t *testing.T) {
	filtered, table := filteredTable()
	require.Len(t, filtered, 2)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, len(filtered)+1)
	assert.Equal(t, table.Columns, records[0])

	for i, trade := range filtered {
		row := records[i+1]
		assert.Equal(t, table.Rows[i], row)
		assert.Equal(t, "BUY", row[0])
		assert.Equal(t, trade.TokenAmount.StringFixed(4), row[1])
		assert.Equal(t, trade.WalletAddress, row[4])
	}
}

func TestExportFidelity_XLSX(t *testing.T) {
	filtered, table := filteredTable()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, table))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Trades"}, f.GetSheetList())

	rows, err := f.GetRows("Trades")
	require.NoError(t, err)
	require.Len(t, rows, len(filtered)+1)
	assert.Equal(t, table.Columns, rows[0])
	for i := range filtered {
		assert.Equal(t, table.Rows[i], rows[i+1])
	}
	assert.Equal(t, "0xaaa", rows[1][4])
	assert.Equal(t, "0xccc", rows[2][4])
}

func TestExport_EmptyTable(t *testing.T) {
	table := views.BalancesTable(nil, time.UTC)

	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, table), ErrNothingToExport)
	assert.ErrorIs(t, WriteXLSX(&buf, table), ErrNothingToExport)
	assert.Zero(t, buf.Len())

	_, err := SaveToDir(t.TempDir(), table, FormatCSV)
	assert.ErrorIs(t, err, ErrNothingToExport)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "Last_Balances.xlsx", FileName(views.BalancesTable(nil, nil), FormatXLSX))
	assert.Equal(t, "Topups.xlsx", FileName(views.TopupsTable(nil, nil), FormatXLSX))
	assert.Equal(t, "Latest_Trades.xlsx", FileName(views.LatestTradesTable(nil, nil), FormatXLSX))
	assert.Equal(t, "Trades.csv", FileName(views.TradeHistoryTable(nil, nil), FormatCSV))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = ParseFormat("csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = ParseFormat("pdf")
	assert.Error(t, err)

	assert.Contains(t, FormatXLSX.ContentType(), "spreadsheetml")
	assert.Contains(t, FormatCSV.ContentType(), "text/csv")
}

func TestWrite_UnknownFormat(t *testing.T) {
	_, table := filteredTable()
	assert.Error(t, Write(&bytes.Buffer{}, table, Format("pdf")))
}

func TestSaveToDir(t *testing.T) {
	_, table := filteredTable()
	dir := filepath.Join(t.TempDir(), "exports")

	path, err := SaveToDir(dir, table, FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Trades.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Type,Token Amount,USDT Amount")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "Sheet1", SheetName(views.Table{}))
	assert.Len(t, SheetName(views.Table{Title: "An extremely long table title that exceeds"}), 31)
}
