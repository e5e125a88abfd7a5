package auth

import (
	"errors"
	"net/mail"
	"strings"
)

// ErrInvalidEmail is returned for empty or malformed addresses.
var ErrInvalidEmail = errors.New("invalid email")

// NormalizeEmail trims and lowercases an address. It is the single key used for
// allow-list lookups, token ownership and user identity.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ParseEmail normalizes and validates a bare address (no display name).
func ParseEmail(raw string) (string, error) {
	email := NormalizeEmail(raw)
	if email == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}
	return email, nil
}

// EmailDomain returns the part after '@', used when logging rejected requests.
func EmailDomain(email string) string {
	if i := strings.LastIndexByte(email, '@'); i >= 0 {
		return email[i+1:]
	}
	return ""
}
