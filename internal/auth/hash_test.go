package auth

import (
	"bytes"
	"encoding/base64"
	"testing"
)

func TestGenerateTokenEntropyAndUniqueness(t *testing.T) {
	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		tok, err := GenerateToken()
		if err != nil {
			t.Fatalf("GenerateToken: %v", err)
		}
		raw, err := base64.RawURLEncoding.DecodeString(tok)
		if err != nil {
			t.Fatalf("token is not URL-safe base64: %v", err)
		}
		if len(raw) < 16 {
			t.Fatalf("token carries %d bytes, want at least 16", len(raw))
		}
		if _, dup := seen[tok]; dup {
			t.Fatal("duplicate token generated")
		}
		seen[tok] = struct{}{}
	}
}

func TestTokenHasher(t *testing.T) {
	h := NewTokenHasher("pepper")
	tok, err := GenerateToken()
	if err != nil {
		t.Fatal(err)
	}

	first, err := h.Hash(tok)
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	second, _ := h.Hash(tok)
	if !bytes.Equal(first, second) {
		t.Error("hash must be deterministic")
	}

	other, _ := NewTokenHasher("another-pepper").Hash(tok)
	if bytes.Equal(first, other) {
		t.Error("different peppers must produce different digests")
	}

	long := NewTokenHasher(string(bytes.Repeat([]byte("k"), 100)))
	if _, err := long.Hash(tok); err != nil {
		t.Errorf("long pepper should be accepted: %v", err)
	}
}

func TestTokenHasherRejectsMalformed(t *testing.T) {
	h := NewTokenHasher("pepper")
	for _, raw := range []string{"", "tok_123", "!!!!", base64.RawURLEncoding.EncodeToString([]byte("short"))} {
		if _, err := h.Hash(raw); err != ErrMalformedToken {
			t.Errorf("Hash(%q) err = %v, want ErrMalformedToken", raw, err)
		}
	}
}
