package session

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"time"
)

type tokenClaims struct {
	Exp   int64  `json:"exp,omitempty"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// decodeClaims reads the payload of a JWT without verifying its signature.
// ok is false when token is not a JWT; opaque tokens are allowed.
func decodeClaims(token string) (tokenClaims, bool) {
	token = strings.TrimPrefix(token, "Bearer ")
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return tokenClaims{}, false
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(parts[1], "="))
	if err != nil {
		return tokenClaims{}, false
	}

	var claims tokenClaims
	if err := json.Unmarshal(payload, &claims); err != nil {
		return tokenClaims{}, false
	}
	return claims, true
}

// tokenExpired reports whether token carries an exp claim at or before now.
func tokenExpired(token string, now time.Time) bool {
	claims, ok := decodeClaims(token)
	if !ok || claims.Exp == 0 {
		return false
	}
	return !time.Unix(claims.Exp, 0).After(now)
}
