// Package account validates the signup and password forms before they reach the API.
package account

import (
	"errors"
	"net/mail"
	"strings"
	"unicode"

	"github.com/volumebot/console/internal/clients/volumebot"
)

// Form errors carry the message shown to the user.
var (
	ErrMissingFields    = errors.New("Please fill in all fields")
	ErrInvalidEmail     = errors.New("Please enter a valid email address")
	ErrWeakPassword     = errors.New("Password must be at least 8 chars with 1 uppercase, 1 number & 1 special char.")
	ErrPasswordMismatch = errors.New("Passwords do not match!")
)

// MinPasswordLength is the shortest accepted password.
const MinPasswordLength = 8

const specialChars = "!@#$%^&*"

// ValidatePassword requires at least 8 characters drawn from letters, digits
// and !@#$%^&*, with at least one upper-case letter, one digit and one special.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrWeakPassword
	}

	var upper, digit, special bool
	for _, r := range password {
		switch {
		case r > unicode.MaxASCII:
			return ErrWeakPassword
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(specialChars, r):
			special = true
		case unicode.IsLower(r):
		default:
			return ErrWeakPassword
		}
	}
	if !upper || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}

// ValidatePasswordChange checks both entries are present, strong and equal.
func ValidatePasswordChange(password, confirm string) error {
	if password == "" || confirm == "" {
		return ErrMissingFields
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return ErrPasswordMismatch
	}
	return nil
}

// ValidateEmail accepts a bare address such as ops@example.com.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateSignup checks every signup field is filled and the email is well formed.
// Fields are trimmed in place.
func ValidateSignup(req *volumebot.SignupRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	req.AdminPasscode = strings.TrimSpace(req.AdminPasscode)
	if req.Email == "" || strings.TrimSpace(req.Password) == "" || req.AdminPasscode == "" {
		return ErrMissingFields
	}
	return ValidateEmail(req.Email)
}
