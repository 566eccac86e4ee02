package volumebot

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Response envelope shared by every endpoint.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

// LoginResult is the credential returned by POST /api/login.
type LoginResult struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// loginData accepts both a flat body and one nesting identity under "user".
type loginData struct {
	Token string `json:"token"`
	Email string `json:"email"`
	Role  string `json:"role"`
	User  *struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	} `json:"user"`
}

// Validate checks the token is present.
func (d loginData) Validate() error {
	if d.Token == "" {
		return fmt.Errorf("token is missing")
	}
	return nil
}

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	AdminPasscode string `json:"adminPasscode"`
}

// AvailableBalances are the summed balances of all bot wallets.
type AvailableBalances struct {
	TotalUSDT  decimal.Decimal `json:"total_usdt"`
	TotalToken decimal.Decimal `json:"total_token"`
	TotalBNB   decimal.Decimal `json:"total_bnb"`
}

// Dashboard is the aggregate shown on the landing page.
type Dashboard struct {
	TotalTransactions      int64             `json:"total_transactions"`
	DailyTransactions      int64             `json:"daily_transactions"`
	TotalFeeBNB            decimal.Decimal   `json:"total_fee_bnb"`
	DailyFeeBNB            decimal.Decimal   `json:"daily_fee_bnb"`
	TotalBuyUSDT           decimal.Decimal   `json:"total_buy_usdt"`
	TotalSellUSDT          decimal.Decimal   `json:"total_sell_usdt"`
	TotalBotAgents         int64             `json:"total_bot_agents"`
	TotalAvailableBalances AvailableBalances `json:"total_available_balances"`
	LatestTrades           []Trade           `json:"latest_trades"`
}

// Validate checks every nested trade.
func (d Dashboard) Validate() error {
	if d.TotalTransactions < 0 || d.DailyTransactions < 0 || d.TotalBotAgents < 0 {
		return fmt.Errorf("negative counter")
	}
	for i, t := range d.LatestTrades {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("latest_trades[%d]: %w", i, err)
		}
	}
	return nil
}

// Pagination is the server-side page descriptor of list endpoints.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// Balance is one daily closing balance.
type Balance struct {
	ID         int64           `json:"id"`
	TotalUSDT  decimal.Decimal `json:"total_usdt"`
	TotalBNB   decimal.Decimal `json:"total_bnb"`
	TotalToken decimal.Decimal `json:"total_token"`
	Timestamp  time.Time       `json:"timestamp"`
}

// Validate checks required fields.
func (b Balance) Validate() error {
	if b.ID <= 0 {
		return fmt.Errorf("balance id must be positive")
	}
	if b.Timestamp.IsZero() {
		return fmt.Errorf("balance %d: timestamp is missing", b.ID)
	}
	return nil
}

// BalancesPage is the data of GET /api/daily-last-balances.
type BalancesPage struct {
	Balances   []Balance  `json:"balances"`
	Pagination Pagination `json:"pagination"`
}

// Validate checks every record.
func (p BalancesPage) Validate() error {
	for i, b := range p.Balances {
		if err := b.Validate(); err != nil {
			return fmt.Errorf("balances[%d]: %w", i, err)
		}
	}
	return nil
}

// Topup is one deposit into a bot wallet.
type Topup struct {
	ID            int64           `json:"id"`
	WalletAddress string          `json:"wallet_address"`
	TokenType     string          `json:"token_type"`
	TokenSymbol   string          `json:"token_symbol"`
	Amount        decimal.Decimal `json:"amount"`
	TxHash        string          `json:"tx_hash"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Validate checks required fields.
func (t Topup) Validate() error {
	if t.WalletAddress == "" {
		return fmt.Errorf("topup %d: wallet_address is missing", t.ID)
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("topup %d: timestamp is missing", t.ID)
	}
	return nil
}

// TopupsPage is the data of GET /api/topups.
type TopupsPage struct {
	Topups     []Topup    `json:"topups"`
	Pagination Pagination `json:"pagination"`
}

// Validate checks every record.
func (p TopupsPage) Validate() error {
	for i, t := range p.Topups {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("topups[%d]: %w", i, err)
		}
	}
	return nil
}

// Trade sides
const (
	TradeBuy  = "buy"
	TradeSell = "sell"
)

// Trade is one swap executed by a bot wallet.
type Trade struct {
	ID            int64           `json:"id"`
	WalletAddress string          `json:"wallet_address"`
	Type          string          `json:"type"`
	TokenAmount   decimal.Decimal `json:"token_amount"`
	USDTAmount    decimal.Decimal `json:"usdt_amount"`
	Price         decimal.Decimal `json:"price"`
	GasFeeBNB     decimal.Decimal `json:"gas_fee_bnb"`
	TxHash        string          `json:"tx_hash,omitempty"`
	Timestamp     time.Time       `json:"timestamp"`
}

// Validate checks required fields.
func (t Trade) Validate() error {
	if t.WalletAddress == "" {
		return fmt.Errorf("trade %d: wallet_address is missing", t.ID)
	}
	switch strings.ToLower(t.Type) {
	case TradeBuy, TradeSell:
	default:
		return fmt.Errorf("trade %d: unknown type %q", t.ID, t.Type)
	}
	if t.Timestamp.IsZero() {
		return fmt.Errorf("trade %d: timestamp is missing", t.ID)
	}
	return nil
}

// TradesPage is the data of GET /api/trades.
type TradesPage struct {
	Trades     []Trade    `json:"trades"`
	Pagination Pagination `json:"pagination"`
}

// Validate checks every record.
func (p TradesPage) Validate() error {
	for i, t := range p.Trades {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("trades[%d]: %w", i, err)
		}
	}
	return nil
}

// CentralWallet holds the funding wallet balances.
type CentralWallet struct {
	Address      string          `json:"wallet_address"`
	USDTBalance  decimal.Decimal `json:"usdt_balance"`
	TokenBalance decimal.Decimal `json:"token_balance"`
	BNBBalance   decimal.Decimal `json:"bnb_balance"`
}

// WalletBalances is the data of GET /api/wallets-current-balances.
type WalletBalances struct {
	CentralWallet CentralWallet `json:"central_wallet"`
}

// Validate checks required fields.
func (w WalletBalances) Validate() error {
	if w.CentralWallet.Address != "" && !addressPattern.MatchString(w.CentralWallet.Address) {
		return fmt.Errorf("central wallet address %q is not a hex address", w.CentralWallet.Address)
	}
	return nil
}

// Trend directions accepted by the bots
const (
	TrendBullish = "bullish"
	TrendBearish = "bearish"
	TrendNeutral = "neutral"
)

// Bounds of the trading configuration form.
const (
	MinBotCount  = 1
	MaxBotCount  = 15
	MaxThreshold = 100
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// TradingConfig is the read/write trading configuration resource.
type TradingConfig struct {
	TargetTokenAddress string          `json:"target_token_address"`
	RPCURL             string          `json:"rpc_url"`
	BotCount           int             `json:"bot_count"`
	Trend              string          `json:"trend"`
	Threshold          decimal.Decimal `json:"threshold"`
}

// Validate enforces the same rules as the settings forms.
func (c TradingConfig) Validate() error {
	if !addressPattern.MatchString(c.TargetTokenAddress) {
		return fmt.Errorf("target token address must be 0x followed by 40 hex characters")
	}
	if !strings.HasPrefix(c.RPCURL, "http://") && !strings.HasPrefix(c.RPCURL, "https://") {
		return fmt.Errorf("RPC URL must start with http:// or https://")
	}
	if c.BotCount < MinBotCount || c.BotCount > MaxBotCount {
		return fmt.Errorf("bot count must be between %d and %d", MinBotCount, MaxBotCount)
	}
	switch c.Trend {
	case TrendBullish, TrendBearish, TrendNeutral:
	default:
		return fmt.Errorf("trend must be one of %s, %s, %s", TrendBullish, TrendBearish, TrendNeutral)
	}
	if c.Threshold.IsNegative() || c.Threshold.GreaterThan(decimal.NewFromInt(MaxThreshold)) {
		return fmt.Errorf("threshold must be between 0 and %d", MaxThreshold)
	}
	return nil
}

// PageQuery selects one page of a list endpoint.
type PageQuery struct {
	Page      int
	Limit     int
	StartDate time.Time
	EndDate   time.Time
}
