package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/magiclink-auth/internal/domain"
)

const principalKey = "auth_principal"

// Principal represents the caller resolved from a session credential.
type Principal struct {
	User       *domain.User
	Credential string
}

// SessionResolver resolves a credential to its user, returning nil for absent,
// expired or revoked sessions.
type SessionResolver interface {
	CurrentUser(ctx context.Context, credential string) (*domain.User, error)
}

// SessionMiddleware loads the principal for every request that carries a credential.
type SessionMiddleware struct {
	sessions   SessionResolver
	cookieName string
}

// NewSessionMiddleware constructs middleware.
func NewSessionMiddleware(sessions SessionResolver, cookieName string) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions, cookieName: cookieName}
}

// Handle resolves the caller. A missing or stale credential is not an error here;
// route guards decide what an anonymous caller gets.
func (m *SessionMiddleware) Handle(c *fiber.Ctx) error {
	credential := m.Credential(c)
	if credential == "" {
		return c.Next()
	}

	user, err := m.sessions.CurrentUser(c.UserContext(), credential)
	if err != nil {
		return err
	}
	principal := &Principal{Credential: credential, User: user}
	c.Locals(principalKey, principal)
	return c.Next()
}

// Credential extracts the session credential from the cookie or a bearer header.
func (m *SessionMiddleware) Credential(c *fiber.Ctx) string {
	if v := strings.TrimSpace(c.Cookies(m.cookieName)); v != "" {
		return v
	}
	authHeader := c.Get(fiber.HeaderAuthorization)
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// UserFromContext returns the resolved user or nil.
func UserFromContext(c *fiber.Ctx) *domain.User {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		return nil
	}
	return principal.User
}
