package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/service"
)

// requireAdmin runs the Guard before admin handlers, so nothing below it
// executes for anonymous (401) or non-admin (403) callers.
func requireAdmin(guard *service.Guard, sessions *auth.SessionMiddleware) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := guard.RequireAdmin(c.UserContext(), sessions.Credential(c)); err != nil {
			return err
		}
		return c.Next()
	}
}
