package clientdata

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testSchema mirrors internal/database/schemas/snapshots_schema.sql
const testSchema = `
CREATE TABLE snapshots (key TEXT PRIMARY KEY, data TEXT NOT NULL, fetched_at INTEGER NOT NULL, expires_at INTEGER NOT NULL);
CREATE INDEX idx_snapshots_expires ON snapshots(expires_at);
`

func setupTestDB(t *testing.T) *sql.DB {
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	// :memory: is per connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec(testSchema)
	require.NoError(t, err)

	return db
}

func newMockClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(time.Date(2025, 9, 16, 12, 0, 0, 0, time.UTC))
	return clk
}

func TestNewRepository(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, nil)
	assert.NotNil(t, repo)
}

func TestStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	clk := newMockClock()
	repo := NewRepository(db, clk)

	data := []map[string]interface{}{
		{"id": 1, "total_usdt": "100.5"},
	}

	err := repo.Store(KeyBalances, data, 24*time.Hour)
	require.NoError(t, err)

	var storedData string
	var fetchedAt, expiresAt int64
	err = db.QueryRow("SELECT data, fetched_at, expires_at FROM snapshots WHERE key = ?", KeyBalances).
		Scan(&storedData, &fetchedAt, &expiresAt)
	require.NoError(t, err)

	var parsed []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(storedData), &parsed))
	assert.Equal(t, "100.5", parsed[0]["total_usdt"])

	assert.Equal(t, clk.Now().UnixMilli(), fetchedAt)
	assert.Equal(t, clk.Now().Add(24*time.Hour).UnixMilli(), expiresAt)
}

func TestStoreUpsert(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, newMockClock())

	require.NoError(t, repo.Store(KeyTopups, map[string]string{"version": "1"}, time.Hour))
	require.NoError(t, repo.Store(KeyTopups, map[string]string{"version": "2"}, time.Hour))

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM snapshots WHERE key = ?", KeyTopups).Scan(&count))
	assert.Equal(t, 1, count)

	entry, err := repo.GetIfFresh(KeyTopups)
	require.NoError(t, err)
	require.NotNil(t, entry)

	var parsed map[string]string
	require.NoError(t, json.Unmarshal(entry.Data, &parsed))
	assert.Equal(t, "2", parsed["version"])
}

func TestStoreUnmarshalableData(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, newMockClock())

	err := repo.Store(KeyTopups, map[string]interface{}{"ch": make(chan int)}, time.Hour)
	assert.Error(t, err)
}

func TestGetIfFresh_Fresh(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, newMockClock())
	require.NoError(t, repo.Store(KeyDashboard, map[string]int{"total_transactions": 5}, time.Hour))

	entry, err := repo.GetIfFresh(KeyDashboard)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.JSONEq(t, `{"total_transactions":5}`, string(entry.Data))
}

func TestGetIfFresh_Expired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	clk := newMockClock()
	repo := NewRepository(db, clk)
	require.NoError(t, repo.Store(KeyDashboard, map[string]int{"x": 1}, time.Hour))

	clk.Add(2 * time.Hour)

	entry, err := repo.GetIfFresh(KeyDashboard)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestGet_ReturnsStaleData(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	clk := newMockClock()
	repo := NewRepository(db, clk)
	require.NoError(t, repo.Store(KeyWalletBalances, map[string]string{"usdt": "5000"}, time.Hour))
	storedAt := clk.Now()

	clk.Add(3 * time.Hour)

	entry, err := repo.Get(KeyWalletBalances)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.JSONEq(t, `{"usdt":"5000"}`, string(entry.Data))
	assert.True(t, entry.FetchedAt.Equal(storedAt))
	assert.True(t, entry.ExpiresAt.Before(clk.Now()))
}

func TestGet_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, nil)

	entry, err := repo.Get(KeyTrades)
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = repo.GetIfFresh(KeyTrades)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestDelete(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, nil)
	require.NoError(t, repo.Store(KeyTrades, []int{1, 2}, time.Hour))

	require.NoError(t, repo.Delete(KeyTrades))

	entry, err := repo.Get(KeyTrades)
	require.NoError(t, err)
	assert.Nil(t, entry)

	// Deleting a missing key is not an error
	assert.NoError(t, repo.Delete(KeyTrades))
}

func TestClear(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, nil)
	for _, key := range AllKeys {
		require.NoError(t, repo.Store(key, []string{key}, time.Hour))
	}

	deleted, err := repo.Clear()
	require.NoError(t, err)
	assert.Equal(t, int64(len(AllKeys)), deleted)

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM snapshots").Scan(&count))
	assert.Equal(t, 0, count)
}

func TestDeleteExpired(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	clk := newMockClock()
	repo := NewRepository(db, clk)

	require.NoError(t, repo.Store(KeyTopups, []int{1}, time.Hour))
	require.NoError(t, repo.Store(KeyBalances, []int{2}, 48*time.Hour))

	clk.Add(2 * time.Hour)

	results, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{KeyTopups: 1}, results)

	entry, err := repo.Get(KeyBalances)
	require.NoError(t, err)
	assert.NotNil(t, entry)
}

func TestDeleteExpiredEmptyTable(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, nil)

	results, err := repo.DeleteExpired()
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestInvalidKey(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	repo := NewRepository(db, nil)

	assert.Error(t, repo.Store("user", "x", time.Hour))
	_, err := repo.Get("snapshots; DROP TABLE snapshots")
	assert.Error(t, err)
	assert.Error(t, repo.Delete(""))
}

func TestValidateKey(t *testing.T) {
	for _, key := range AllKeys {
		assert.NoError(t, ValidateKey(key), key)
	}
	assert.Error(t, ValidateKey("unknown"))
}

func TestTTLFor(t *testing.T) {
	assert.Equal(t, TTLBalances, TTLFor(KeyBalances, 0))
	assert.Equal(t, TTLTradingConfig, TTLFor(KeyTradingConfig, 0))
	assert.Equal(t, 2*time.Hour, TTLFor(KeyTradingConfig, 2*time.Hour))
	// maxStaleness only ever shortens the TTL
	assert.Equal(t, TTLTopups, TTLFor(KeyTopups, 100*24*time.Hour))
}
