package events

import (
	"time"

	"github.com/spec-kit/magiclink-auth/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventMagicLinkRequested EventType = "magic_link_requested"
	EventMagicLinkVerified  EventType = "magic_link_verified"
	EventSessionRevoked     EventType = "session_revoked"
	EventRoleChanged        EventType = "role_changed"
)

// Event represents an auth audit event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	UserID    *string     `json:"user_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// MagicLinkRequestedPayload payload.
type MagicLinkRequestedPayload struct {
	EmailDomain string    `json:"email_domain"`
	TokenID     string    `json:"token_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// MagicLinkVerifiedPayload payload.
type MagicLinkVerifiedPayload struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionRevokedPayload payload.
type SessionRevokedPayload struct {
	SessionID string `json:"session_id"`
}

// RoleChangedPayload payload.
type RoleChangedPayload struct {
	ChangeID string      `json:"change_id"`
	ActorID  string      `json:"actor_id"`
	OldRole  domain.Role `json:"old_role"`
	NewRole  domain.Role `json:"new_role"`
}
