package volumebot

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized is returned when the API answers 401 or 403.
	// The credential is no longer valid and the session must be torn down.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransport wraps network-level failures (DNS, refused connection, timeout).
	ErrTransport = errors.New("transport failure")

	// ErrNoToken is returned when a protected endpoint is called without a credential.
	ErrNoToken = errors.New("missing bearer token")
)

// APIError is a non-2xx answer or a success=false envelope.
// A 401/403 answer wraps ErrUnauthorized and keeps the server's message.
type APIError struct {
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API returned %d", e.Status)
	}
	return fmt.Sprintf("API returned %d: %s", e.Status, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// MalformedResponseError is returned when a body cannot be decoded into the
// expected shape or a decoded record fails validation.
type MalformedResponseError struct {
	Endpoint string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed response from %s: %s", e.Endpoint, e.Reason)
}

// IsUnauthorized reports whether err means the credential was rejected.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsTransport reports whether err is a network failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsMalformed reports whether err is a decoding or validation failure.
func IsMalformed(err error) bool {
	var m *MalformedResponseError
	return errors.As(err, &m)
}

// SessionExpired is shown when a protected call is rejected.
const SessionExpired = "Session expired, please log in again."

// Message returns the text to show the user for err.
// A rejected credential reads as an expired session, other API errors
// surface the server's message, everything else uses fallback.
func Message(err error, fallback string) string {
	if IsUnauthorized(err) {
		return SessionExpired
	}
	if msg := ServerMessage(err); msg != "" {
		return msg
	}
	return fallback
}

// ServerMessage returns the message the API sent with err, if any.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
