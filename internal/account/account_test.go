package account

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/volumebot/console/internal/clients/volumebot"
)

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		password string
		valid    bool
	}{
		{"Secret#123", true},
		{"ABCDEFG1!", true},
		{"Aa1!aaaa", true},
		{"Aa1!aaa", false},      // too short
		{"secret#123", false},   // no upper case
		{"Secret#abc", false},   // no digit
		{"Secret1234", false},   // no special
		{"Secret 1234!", false}, // space not allowed
		{"Secret#123~", false},  // ~ not in the allowed set
		{"Sécret#1234", false},  // non-ASCII
		{"", false},
	}

	for _, tt := range tests {
		err := ValidatePassword(tt.password)
		if tt.valid {
			assert.NoError(t, err, tt.password)
		} else {
			assert.ErrorIs(t, err, ErrWeakPassword, tt.password)
		}
	}
}

func TestValidatePasswordChange(t *testing.T) {
	assert.ErrorIs(t, ValidatePasswordChange("", "x"), ErrMissingFields)
	assert.ErrorIs(t, ValidatePasswordChange("weak", "weak"), ErrWeakPassword)
	assert.ErrorIs(t, ValidatePasswordChange("Secret#123", "Secret#124"), ErrPasswordMismatch)
	assert.NoError(t, ValidatePasswordChange("Secret#123", "Secret#123"))
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("ops@example.com"))
	assert.ErrorIs(t, ValidateEmail("not-an-email"), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("Ops <ops@example.com>"), ErrInvalidEmail)
}

func TestValidateSignup(t *testing.T) {
	req := &volumebot.SignupRequest{Email: "  new@example.com ", Password: "Secret#123", AdminPasscode: " code "}
	assert.NoError(t, ValidateSignup(req))
	assert.Equal(t, "new@example.com", req.Email)
	assert.Equal(t, "code", req.AdminPasscode)

	assert.ErrorIs(t, ValidateSignup(&volumebot.SignupRequest{Email: "a@b.c", Password: "x"}), ErrMissingFields)
	assert.ErrorIs(t, ValidateSignup(&volumebot.SignupRequest{Email: "a@b.c", Password: " ", AdminPasscode: "c"}), ErrMissingFields)
	assert.ErrorIs(t, ValidateSignup(&volumebot.SignupRequest{Email: "nope", Password: "x", AdminPasscode: "c"}), ErrInvalidEmail)
}
