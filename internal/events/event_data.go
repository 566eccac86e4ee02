package events

import "encoding/json"

// EventData is the interface that all event data types must implement
type EventData interface {
	// EventType returns the event type this data is associated with
	EventType() EventType
}

// ResourceRefreshedData contains data for ResourceRefreshed events
type ResourceRefreshedData struct {
	Key       string `json:"key"`
	FetchedAt string `json:"fetched_at"`
	Items     int    `json:"items,omitempty"`
}

// EventType returns the event type for ResourceRefreshedData
func (d *ResourceRefreshedData) EventType() EventType {
	return ResourceRefreshed
}

// ResourceRefreshFailedData contains data for ResourceRefreshFailed events
type ResourceRefreshFailedData struct {
	Key          string `json:"key"`
	Error        string `json:"error"`
	Unauthorized bool   `json:"unauthorized,omitempty"`
}

// EventType returns the event type for ResourceRefreshFailedData
func (d *ResourceRefreshFailedData) EventType() EventType {
	return ResourceRefreshFailed
}

// SessionChangedData contains data for SessionChanged events
type SessionChangedData struct {
	State string `json:"state"`
	Email string `json:"email,omitempty"`
}

// EventType returns the event type for SessionChangedData
func (d *SessionChangedData) EventType() EventType {
	return SessionChanged
}

// LoginRequiredData contains data for LoginRequired events
type LoginRequiredData struct {
	Reason   string `json:"reason"`
	Redirect string `json:"redirect"`
}

// EventType returns the event type for LoginRequiredData
func (d *LoginRequiredData) EventType() EventType {
	return LoginRequired
}

// TradingConfigSavedData contains data for TradingConfigSaved events
type TradingConfigSavedData struct {
	BotCount int    `json:"bot_count"`
	Trend    string `json:"trend"`
}

// EventType returns the event type for TradingConfigSavedData
func (d *TradingConfigSavedData) EventType() EventType {
	return TradingConfigSaved
}

// ErrorEventData contains data for ErrorOccurred events
type ErrorEventData struct {
	Error   string                 `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// EventType returns the event type for ErrorEventData
func (d *ErrorEventData) EventType() EventType {
	return ErrorOccurred
}

// convertEventDataToMap converts typed EventData to the map carried on the bus
func convertEventDataToMap(data EventData) map[string]interface{} {
	if data == nil {
		return nil
	}

	jsonBytes, err := json.Marshal(data)
	if err != nil {
		return nil
	}

	var result map[string]interface{}
	if err := json.Unmarshal(jsonBytes, &result); err != nil {
		return nil
	}
	return result
}
