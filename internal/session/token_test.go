package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDecodeClaims(t *testing.T) {
	now := time.Unix(1758000000, 0)

	claims, ok := decodeClaims(jwtWithExp(now))
	assert.True(t, ok)
	assert.Equal(t, now.Unix(), claims.Exp)
	assert.Equal(t, "ops@example.com", claims.Email)

	claims, ok = decodeClaims("Bearer " + jwtWithExp(now))
	assert.True(t, ok)
	assert.Equal(t, now.Unix(), claims.Exp)

	for _, token := range []string{"", "opaque", "a.b", "a.!!!.c", "a.bm90IGpzb24.c"} {
		_, ok := decodeClaims(token)
		assert.False(t, ok, token)
	}
}

func TestTokenExpired(t *testing.T) {
	now := time.Unix(1758000000, 0)

	assert.False(t, tokenExpired(jwtWithExp(now.Add(time.Second)), now))
	assert.True(t, tokenExpired(jwtWithExp(now), now))
	assert.True(t, tokenExpired(jwtWithExp(now.Add(-time.Hour)), now))
	assert.False(t, tokenExpired("opaque-token", now))
}
