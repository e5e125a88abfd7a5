package domain

import (
	"fmt"
	"strings"
	"time"
)

// Role is the flat authorization level of a user.
type Role string

const (
	RoleUser  Role = "User"
	RoleAdmin Role = "Admin"
	RoleLegal Role = "Legal"
)

// ParseRole accepts role names case-insensitively.
func ParseRole(raw string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "user":
		return RoleUser, nil
	case "admin":
		return RoleAdmin, nil
	case "legal":
		return RoleLegal, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// Toggled returns the role a self-service toggle moves to.
func (r Role) Toggled() Role {
	if r == RoleAdmin {
		return RoleUser
	}
	return RoleAdmin
}

// ApprovedUser is an allow-list entry. Email is stored normalized.
type ApprovedUser struct {
	Email string
	Role  Role
}

// MagicToken is the persisted form of a sign-in token. Only the hash of the raw
// token is kept.
type MagicToken struct {
	ID           string
	TokenHash    []byte
	Email        string
	IssuedAt     time.Time
	ExpiresAt    time.Time
	ConsumedAt   *time.Time
	SupersededAt *time.Time
}

// ValidAt reports whether the token can still be consumed at now.
func (t *MagicToken) ValidAt(now time.Time) bool {
	return t.ConsumedAt == nil && t.SupersededAt == nil && now.Before(t.ExpiresAt)
}

// SessionState describes where a session is in its lifecycle.
type SessionState string

const (
	SessionActive  SessionState = "ACTIVE"
	SessionExpired SessionState = "EXPIRED"
	SessionRevoked SessionState = "REVOKED"
)

// Session binds a user to a credential held by one browser context.
type Session struct {
	ID        string
	UserID    string
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// StateAt derives the lifecycle state. Revoked and expired are terminal.
func (s *Session) StateAt(now time.Time) SessionState {
	if s.RevokedAt != nil {
		return SessionRevoked
	}
	if !now.Before(s.ExpiresAt) {
		return SessionExpired
	}
	return SessionActive
}

// RoleChange is the audit record of a role transition.
type RoleChange struct {
	ID        string
	UserID    string
	ActorID   string
	OldRole   Role
	NewRole   Role
	ChangedAt time.Time
}
