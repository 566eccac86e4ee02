package testing

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/volumebot/console/internal/clients/volumebot"
)

// FixtureTime is the timestamp of every fixture record.
var FixtureTime = time.Date(2025, 9, 3, 10, 15, 0, 0, time.UTC)

// Fixture wallet addresses
const (
	WalletA = "0x1111111111111111111111111111111111111111"
	WalletB = "0x2222222222222222222222222222222222222222"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// NewTradeFixtures returns a buy and a sell from different wallets
func NewTradeFixtures() []volumebot.Trade {
	return []volumebot.Trade{
		{
			ID:            1,
			WalletAddress: WalletA,
			Type:          volumebot.TradeBuy,
			TokenAmount:   dec("1500.123456"),
			USDTAmount:    dec("12.5"),
			Price:         dec("0.00833265"),
			GasFeeBNB:     dec("0.000123"),
			TxHash:        "0xaaa",
			Timestamp:     FixtureTime,
		},
		{
			ID:            2,
			WalletAddress: WalletB,
			Type:          volumebot.TradeSell,
			TokenAmount:   dec("800"),
			USDTAmount:    dec("6.75"),
			Price:         dec("0.0084375"),
			GasFeeBNB:     dec("0.0001"),
			TxHash:        "0xbbb",
			Timestamp:     FixtureTime.Add(time.Hour),
		},
	}
}

// NewDashboardFixture returns dashboard totals with the trade fixtures
func NewDashboardFixture() volumebot.Dashboard {
	return volumebot.Dashboard{
		TotalTransactions: 1200,
		DailyTransactions: 48,
		TotalFeeBNB:       dec("0.42"),
		DailyFeeBNB:       dec("0.012"),
		TotalBuyUSDT:      dec("15230.5"),
		TotalSellUSDT:     dec("14980.25"),
		TotalBotAgents:    15,
		TotalAvailableBalances: volumebot.AvailableBalances{
			TotalUSDT:  dec("5230.75"),
			TotalToken: dec("1250000"),
			TotalBNB:   dec("1.85"),
		},
		LatestTrades: NewTradeFixtures(),
	}
}

// NewBalanceFixtures returns two days of closing balances
func NewBalanceFixtures() []volumebot.Balance {
	return []volumebot.Balance{
		{ID: 10, TotalUSDT: dec("5230.75"), TotalBNB: dec("1.85"), TotalToken: dec("1250000"), Timestamp: FixtureTime},
		{ID: 11, TotalUSDT: dec("5100"), TotalBNB: dec("1.8"), TotalToken: dec("1260000"), Timestamp: FixtureTime.AddDate(0, 0, 1)},
	}
}

// NewTopupFixtures returns a USDT and a BNB top-up
func NewTopupFixtures() []volumebot.Topup {
	return []volumebot.Topup{
		{ID: 1, WalletAddress: WalletA, TokenType: "USDT", TokenSymbol: "USDT", Amount: dec("100"), TxHash: "0xt1", Timestamp: FixtureTime},
		{ID: 2, WalletAddress: WalletB, TokenType: "BNB", TokenSymbol: "BNB", Amount: dec("0.5"), TxHash: "0xt2", Timestamp: FixtureTime},
	}
}

// NewWalletFixture returns central wallet balances
func NewWalletFixture() volumebot.WalletBalances {
	return volumebot.WalletBalances{CentralWallet: volumebot.CentralWallet{
		Address:      WalletA,
		USDTBalance:  dec("5000"),
		TokenBalance: dec("1000000"),
		BNBBalance:   dec("2.5"),
	}}
}

// NewTradingConfigFixture returns a valid trading configuration
func NewTradingConfigFixture() volumebot.TradingConfig {
	return volumebot.TradingConfig{
		TargetTokenAddress: "0x3333333333333333333333333333333333333333",
		RPCURL:             "https://bsc-dataseed.binance.org",
		BotCount:           5,
		Trend:              volumebot.TrendNeutral,
		Threshold:          dec("2.5"),
	}
}
