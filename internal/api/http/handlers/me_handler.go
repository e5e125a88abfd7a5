package handlers

import (
	"html"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/magiclink-auth/internal/api/dto"
	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/service"
)

// MeHandler serves the caller's own account.
type MeHandler struct {
	guard *service.Guard
}

// NewMeHandler constructs handler.
func NewMeHandler(guard *service.Guard) *MeHandler {
	return &MeHandler{guard: guard}
}

// Me handles GET /api/me.
func (h *MeHandler) Me(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(auth.UserFromContext(c))})
}

// ToggleRole handles POST /api/me/role/toggle.
func (h *MeHandler) ToggleRole(c *fiber.Ctx) error {
	principal, _ := auth.PrincipalFromContext(c)
	var credential string
	if principal != nil {
		credential = principal.Credential
	}
	user, err := h.guard.ToggleAdminRole(c.UserContext(), credential)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Dashboard handles GET /dashboard for signed-in users.
func (h *MeHandler) Dashboard(c *fiber.Ctx) error {
	user := auth.UserFromContext(c)
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Type("html").SendString("<!doctype html><title>Dashboard</title><p>Signed in as " +
		html.EscapeString(user.Email) + " (" + string(user.Role) + ")</p>" +
		`<form method="post" action="/auth/logout"><button>Sign out</button></form>`)
}

var loginNotices = map[string]string{
	"sent":              "Check your email for a sign-in link.",
	"invalid_token":     "That sign-in link is invalid or has expired. Request a new one.",
	"validation_failed": "Enter a valid email address.",
	"not_approved":      "This email is not approved for access.",
	"rate_limited":      "A sign-in link was sent recently. Check your email or try again in a few minutes.",
}

// Login handles GET /login, the sign-in page anonymous visitors land on.
func (h *MeHandler) Login(c *fiber.Ctx) error {
	key := c.Query("error")
	if c.Query("sent") != "" {
		key = "sent"
	}
	msg := ""
	if key != "" {
		text, ok := loginNotices[key]
		if !ok {
			text = "Something went wrong. Try again later."
		}
		msg = "<p>" + html.EscapeString(text) + "</p>"
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Type("html").SendString("<!doctype html><title>Sign in</title>" + msg +
		`<form method="post" action="/auth/magic-link"><input type="email" name="email" required>` +
		`<button>Email me a sign-in link</button></form>`)
}
