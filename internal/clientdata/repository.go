// Package clientdata provides persistent caching for remote API responses.
// All data is stored as JSON blobs with fetch and expiration timestamps for cache-first behavior.
package clientdata

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
)

// Snapshot keys, one per logical dataset.
const (
	KeyDashboard      = "dashboardData"
	KeyBalances       = "lastBalances"
	KeyTopups         = "topups"
	KeyTrades         = "trades"
	KeyWalletBalances = "walletBalances"
	KeyTradingConfig  = "tradingConfig"
)

// AllKeys lists every snapshot key for cleanup operations.
var AllKeys = []string{
	KeyDashboard,
	KeyBalances,
	KeyTopups,
	KeyTrades,
	KeyWalletBalances,
	KeyTradingConfig,
}

var validKeys = func() map[string]bool {
	m := make(map[string]bool, len(AllKeys))
	for _, k := range AllKeys {
		m[k] = true
	}
	return m
}()

// Entry is one persisted snapshot.
type Entry struct {
	Key       string
	Data      json.RawMessage
	FetchedAt time.Time
	ExpiresAt time.Time
}

// Repository provides cache operations for snapshot data.
type Repository struct {
	db    *sql.DB
	clock clock.Clock
}

// NewRepository creates a new snapshot repository. A nil clock means wall time.
func NewRepository(db *sql.DB, clk clock.Clock) *Repository {
	if clk == nil {
		clk = clock.New()
	}
	return &Repository{db: db, clock: clk}
}

// ValidateKey ensures the key is one of the known datasets.
func ValidateKey(key string) error {
	if !validKeys[key] {
		return fmt.Errorf("invalid snapshot key: %s", key)
	}
	return nil
}

// Store saves data with fetched_at = now and expires_at = now + ttl.
// Uses INSERT OR REPLACE so a refresh overwrites the previous snapshot in place.
func (r *Repository) Store(key string, data interface{}, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal data: %w", err)
	}

	now := r.clock.Now()
	_, err = r.db.Exec(
		"INSERT OR REPLACE INTO snapshots (key, data, fetched_at, expires_at) VALUES (?, ?, ?, ?)",
		key, string(jsonData), now.UnixMilli(), now.Add(ttl).UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to store snapshot %s: %w", key, err)
	}

	return nil
}

// Get returns the snapshot regardless of expiration status.
// Returns nil, nil if the key doesn't exist.
func (r *Repository) Get(key string) (*Entry, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}

	var (
		data      string
		fetchedAt int64
		expiresAt int64
	)
	err := r.db.QueryRow(
		"SELECT data, fetched_at, expires_at FROM snapshots WHERE key = ?", key,
	).Scan(&data, &fetchedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get snapshot %s: %w", key, err)
	}

	return &Entry{
		Key:       key,
		Data:      json.RawMessage(data),
		FetchedAt: time.UnixMilli(fetchedAt).UTC(),
		ExpiresAt: time.UnixMilli(expiresAt).UTC(),
	}, nil
}

// GetIfFresh returns the snapshot only if expires_at > now, nil otherwise.
func (r *Repository) GetIfFresh(key string) (*Entry, error) {
	entry, err := r.Get(key)
	if err != nil || entry == nil {
		return nil, err
	}
	if !entry.ExpiresAt.After(r.clock.Now()) {
		return nil, nil
	}
	return entry, nil
}

// Delete removes a specific entry.
func (r *Repository) Delete(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	if _, err := r.db.Exec("DELETE FROM snapshots WHERE key = ?", key); err != nil {
		return fmt.Errorf("failed to delete snapshot %s: %w", key, err)
	}
	return nil
}

// Clear removes every snapshot. Used when the session ends.
func (r *Repository) Clear() (int64, error) {
	result, err := r.db.Exec("DELETE FROM snapshots")
	if err != nil {
		return 0, fmt.Errorf("failed to clear snapshots: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// DeleteExpired removes all rows where expires_at < now.
// Returns a map of key to number of rows deleted (0 or 1).
func (r *Repository) DeleteExpired() (map[string]int64, error) {
	rows, err := r.db.Query(
		"SELECT key FROM snapshots WHERE expires_at < ?", r.clock.Now().UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expired snapshots: %w", err)
	}

	var expired []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expired snapshot: %w", err)
		}
		expired = append(expired, key)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expired snapshots: %w", err)
	}

	results := make(map[string]int64, len(expired))
	for _, key := range expired {
		result, err := r.db.Exec(
			"DELETE FROM snapshots WHERE key = ? AND expires_at < ?", key, r.clock.Now().UnixMilli(),
		)
		if err != nil {
			return results, fmt.Errorf("failed to delete expired snapshot %s: %w", key, err)
		}
		n, _ := result.RowsAffected()
		results[key] = n
	}

	return results, nil
}
