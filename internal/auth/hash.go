package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

// TokenBytes is the entropy of a magic token: 256 bits.
const TokenBytes = 32

// ErrMalformedToken is returned when a presented token cannot have been issued by us.
var ErrMalformedToken = errors.New("malformed token")

// GenerateToken returns a URL-safe random token.
func GenerateToken() (string, error) {
	b := make([]byte, TokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// TokenHasher derives the at-rest form of magic tokens with keyed BLAKE2b.
type TokenHasher struct {
	key []byte
}

// NewTokenHasher builds a hasher. Keys longer than 64 bytes are compressed first.
func NewTokenHasher(pepper string) *TokenHasher {
	key := []byte(pepper)
	if len(key) > blake2b.Size {
		sum := blake2b.Sum256(key)
		key = sum[:]
	}
	return &TokenHasher{key: key}
}

// Hash validates the token shape and returns its keyed digest.
func (h *TokenHasher) Hash(raw string) ([]byte, error) {
	if raw == "" {
		return nil, ErrMalformedToken
	}
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil || len(decoded) != TokenBytes {
		return nil, ErrMalformedToken
	}
	mac, err := blake2b.New256(h.key)
	if err != nil {
		return nil, err
	}
	mac.Write([]byte(raw))
	return mac.Sum(nil), nil
}
