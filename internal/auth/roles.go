package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/magiclink-auth/internal/domain"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

// CheckAdmin is the single admin decision: no user is UNAUTHORIZED, a non-admin
// is FORBIDDEN. service.Guard applies it to privileged routes.
func CheckAdmin(user *domain.User) error {
	if user == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if user.Role != domain.RoleAdmin {
		return apperrors.NewForbidden("admin access required")
	}
	return nil
}

// RequireUser rejects API calls without a valid session.
func RequireUser() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserFromContext(c) == nil {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequirePage redirects anonymous page visits to the sign-in flow.
func RequirePage(signInPath string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if UserFromContext(c) == nil {
			return c.Redirect(signInPath, fiber.StatusFound)
		}
		return c.Next()
	}
}
