// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// DefaultAPIURL is the production Volume Bot API.
const DefaultAPIURL = "https://volumebot.furfoori.com"

// Config holds application configuration
type Config struct {
	DataDir         string // Directory for snapshots.db, session.db, exports and logs (always absolute)
	APIURL          string // Remote Volume Bot API base URL
	LogLevel        string
	Port            int // Local gateway port
	DevMode         bool
	RefreshInterval time.Duration // Auto refresh period of every page
	HTTPTimeout     time.Duration
	PageSize        int
	MaxStaleness    time.Duration // Snapshots older than this are discarded instead of shown
	CleanupSchedule string        // cron spec for the expired snapshot cleanup

	// Snapshot retention when the session ends
	ClearCacheOnLogout       bool
	ClearCacheOnUnauthorized bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("VOLUMEBOT_DATA_DIR", "")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".volumebot")
	}

	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}

	if err := os.MkdirAll(absDataDir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:                  absDataDir,
		APIURL:                   getEnv("VOLUMEBOT_API_URL", DefaultAPIURL),
		LogLevel:                 getEnv("LOG_LEVEL", "info"),
		Port:                     getEnvAsInt("GO_PORT", 8090),
		DevMode:                  getEnvAsBool("DEV_MODE", false),
		RefreshInterval:          getEnvAsDuration("REFRESH_INTERVAL", 30*time.Second),
		HTTPTimeout:              getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),
		PageSize:                 getEnvAsInt("PAGE_SIZE", 10),
		MaxStaleness:             getEnvAsDuration("MAX_STALENESS", 24*time.Hour),
		CleanupSchedule:          getEnv("CLEANUP_SCHEDULE", "@hourly"),
		ClearCacheOnLogout:       getEnvAsBool("CLEAR_CACHE_ON_LOGOUT", true),
		ClearCacheOnUnauthorized: getEnvAsBool("CLEAR_CACHE_ON_UNAUTHORIZED", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid VOLUMEBOT_API_URL %q", c.APIURL)
	}
	if c.RefreshInterval < time.Second {
		return fmt.Errorf("REFRESH_INTERVAL must be at least 1s, got %s", c.RefreshInterval)
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return fmt.Errorf("PAGE_SIZE must be between 1 and 100, got %d", c.PageSize)
	}
	if c.MaxStaleness <= 0 {
		return fmt.Errorf("MAX_STALENESS must be positive, got %s", c.MaxStaleness)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("GO_PORT out of range: %d", c.Port)
	}
	return nil
}

// SnapshotsPath is the cache database location
func (c *Config) SnapshotsPath() string {
	return filepath.Join(c.DataDir, "snapshots.db")
}

// SessionPath is the credential database location
func (c *Config) SessionPath() string {
	return filepath.Join(c.DataDir, "session.db")
}

// ExportDir is where the terminal UI writes exported spreadsheets
func (c *Config) ExportDir() string {
	return filepath.Join(c.DataDir, "exports")
}

// LogPath is the terminal UI log file
func (c *Config) LogPath() string {
	return filepath.Join(c.DataDir, "console.log")
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
