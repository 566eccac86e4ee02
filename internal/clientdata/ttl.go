package clientdata

import "time"

// TTL constants for different datasets.
// These are the max-staleness windows: a snapshot older than its TTL is
// discarded instead of being shown while the remote API keeps failing.
const (
	// Aggregates and listings refresh every 30s while a page is mounted
	TTLDashboard      = 24 * time.Hour
	TTLBalances       = 24 * time.Hour
	TTLTopups         = 24 * time.Hour
	TTLTrades         = 24 * time.Hour
	TTLWalletBalances = 24 * time.Hour

	// Configuration changes only when the user saves it
	TTLTradingConfig = 7 * 24 * time.Hour
)

// TTLFor returns the TTL for a key, capped by maxStaleness when it is positive.
func TTLFor(key string, maxStaleness time.Duration) time.Duration {
	var ttl time.Duration
	switch key {
	case KeyDashboard:
		ttl = TTLDashboard
	case KeyBalances:
		ttl = TTLBalances
	case KeyTopups:
		ttl = TTLTopups
	case KeyTrades:
		ttl = TTLTrades
	case KeyWalletBalances:
		ttl = TTLWalletBalances
	case KeyTradingConfig:
		ttl = TTLTradingConfig
	default:
		ttl = 24 * time.Hour
	}

	if maxStaleness > 0 && maxStaleness < ttl {
		return maxStaleness
	}
	return ttl
}
