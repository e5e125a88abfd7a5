package dto

import (
	"time"

	"github.com/spec-kit/magiclink-auth/internal/domain"
)

// MagicLinkRequest payload for requesting a sign-in link.
type MagicLinkRequest struct {
	Email string `json:"email" form:"email"`
}

// MagicLinkResponse acknowledges an emailed link.
type MagicLinkResponse struct {
	Sent             bool `json:"sent"`
	ExpiresInMinutes int  `json:"expires_in_minutes"`
}

// VerifyRequest payload for exchanging a magic token.
type VerifyRequest struct {
	Token string `json:"token" form:"token"`
}

// UserResponse is the public view of a user.
type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionResponse describes the session opened by a verify call.
type SessionResponse struct {
	User      UserResponse `json:"user"`
	ExpiresAt time.Time    `json:"expires_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		Role:      string(u.Role),
		IsAdmin:   u.IsAdmin(),
		CreatedAt: u.CreatedAt,
	}
}
