package handlers

import (
	"html"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/api/dto"
	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/service"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

// LoginPath is the sign-in page.
const LoginPath = "/login"

// CookieConfig controls the session cookie.
type CookieConfig struct {
	Name   string
	Domain string
	Secure bool
}

// AuthHandler exposes the magic link endpoints.
type AuthHandler struct {
	auth       *service.AuthService
	middleware *auth.SessionMiddleware
	cookie     CookieConfig
	baseURL    string
	logger     *zap.Logger
}

// NewAuthHandler constructs handler. baseURL is the configured public origin;
// links are never derived from request headers.
func NewAuthHandler(authService *service.AuthService, middleware *auth.SessionMiddleware, cookie CookieConfig, baseURL string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: authService, middleware: middleware, cookie: cookie, baseURL: baseURL, logger: logger}
}

// RequestLink handles POST /auth/magic-link. Form posts from the login page get
// redirects, API clients get JSON.
func (h *AuthHandler) RequestLink(c *fiber.Ctx) error {
	var req dto.MagicLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return h.fail(c, fiber.NewError(http.StatusBadRequest, "invalid payload"))
	}
	if strings.TrimSpace(req.Email) == "" {
		return h.fail(c, apperrors.NewValidationError("email is required", nil))
	}

	if err := h.auth.RequestMagicLink(c.UserContext(), req.Email, h.baseURL); err != nil {
		return h.fail(c, err)
	}
	if isForm(c) {
		return c.Redirect(LoginPath+"?sent=1", fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{
		"ok":   true,
		"data": dto.MagicLinkResponse{Sent: true, ExpiresInMinutes: h.auth.TokenTTL()},
	})
}

// Verify handles POST /auth/verify.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	user, cred, err := h.auth.VerifyMagicLink(c.UserContext(), req.Token)
	if err != nil {
		return err
	}
	h.setSessionCookie(c, cred.Value, cred.ExpiresAt)
	return c.JSON(fiber.Map{
		"ok": true,
		"data": dto.SessionResponse{
			User:      dto.NewUserResponse(user),
			ExpiresAt: cred.ExpiresAt,
		},
	})
}

// ConfirmCallback handles GET /auth/callback, the target of the emailed link.
// It only renders a confirm form so link scanners cannot spend the token.
func (h *AuthHandler) ConfirmCallback(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		return c.Redirect(LoginPath+"?error=invalid_token", fiber.StatusFound)
	}
	c.Set(fiber.HeaderCacheControl, "no-store")
	c.Set("Referrer-Policy", "no-referrer")
	return c.Type("html").SendString("<!doctype html><title>Sign in</title>" +
		`<form method="post" action="/auth/callback">` +
		`<input type="hidden" name="token" value="` + html.EscapeString(token) + `">` +
		`<button>Continue signing in</button></form>`)
}

// Callback handles POST /auth/callback from the confirm form.
func (h *AuthHandler) Callback(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Redirect(LoginPath+"?error=invalid_token", fiber.StatusSeeOther)
	}
	_, cred, err := h.auth.VerifyMagicLink(c.UserContext(), req.Token)
	if err != nil {
		if de := apperrors.ToDomainError(err); de.HTTPStatus >= http.StatusInternalServerError {
			h.logger.Error("magic link callback failed", zap.Error(err))
		}
		return c.Redirect(LoginPath+"?error=invalid_token", fiber.StatusSeeOther)
	}
	h.setSessionCookie(c, cred.Value, cred.ExpiresAt)
	return c.Redirect("/", fiber.StatusSeeOther)
}

// Logout handles POST /auth/logout. It succeeds without a session.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.auth.Logout(c.UserContext(), h.middleware.Credential(c)); err != nil {
		return err
	}
	h.setSessionCookie(c, "", time.Unix(0, 0))
	if isForm(c) {
		return c.Redirect(LoginPath, fiber.StatusSeeOther)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// fail returns err for API clients and turns it into a login page notice for
// form posts. Server errors are still logged.
func (h *AuthHandler) fail(c *fiber.Ctx, err error) error {
	if !isForm(c) {
		return err
	}
	de := apperrors.ToDomainError(err)
	if de.HTTPStatus >= http.StatusInternalServerError {
		h.logger.Error("magic link request failed", zap.String("code", de.Code), zap.Error(err))
	}
	return c.Redirect(LoginPath+"?error="+url.QueryEscape(strings.ToLower(de.Code)), fiber.StatusSeeOther)
}

func isForm(c *fiber.Ctx) bool {
	return strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationForm)
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, value string, expires time.Time) {
	c.Cookie(&fiber.Cookie{
		Name:     h.cookie.Name,
		Value:    value,
		Path:     "/",
		Domain:   h.cookie.Domain,
		Expires:  expires,
		Secure:   h.cookie.Secure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}
