// Package events provides the in-process event bus used to fan out refresh and session changes.
package events

import "time"

// EventType represents different event types
type EventType string

const (
	// Cached resource lifecycle
	ResourceRefreshed     EventType = "RESOURCE_REFRESHED"
	ResourceRefreshFailed EventType = "RESOURCE_REFRESH_FAILED"

	// Auth gate
	SessionChanged EventType = "SESSION_CHANGED"
	LoginRequired  EventType = "LOGIN_REQUIRED"

	// Writes against the remote API
	TradingConfigSaved EventType = "TRADING_CONFIG_SAVED"

	ErrorOccurred EventType = "ERROR_OCCURRED"
)

// AllTypes lists every event type, used by subscribers that want everything.
var AllTypes = []EventType{
	ResourceRefreshed,
	ResourceRefreshFailed,
	SessionChanged,
	LoginRequired,
	TradingConfigSaved,
	ErrorOccurred,
}

// Event represents a system event
type Event struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data"`
	Module    string                 `json:"module"`
}
