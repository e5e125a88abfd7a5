package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/magiclink-auth/internal/domain"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

type stubResolver map[string]*domain.User

func (s stubResolver) CurrentUser(_ context.Context, credential string) (*domain.User, error) {
	return s[credential], nil
}

func newGuardedApp() *fiber.App {
	resolver := stubResolver{
		"admin-cred": {ID: "1", Email: "admin@un.org", Role: domain.RoleAdmin},
		"user-cred":  {ID: "2", Email: "user@un.org", Role: domain.RoleUser},
	}
	mw := NewSessionMiddleware(resolver, "dash_session")

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).SendString(de.Code)
		},
	})
	app.Use(mw.Handle)
	app.Get("/api/me", RequireUser(), func(c *fiber.Ctx) error { return c.SendString(UserFromContext(c).Email) })
	app.Get("/dashboard", RequirePage("/login"), func(c *fiber.Ctx) error { return c.SendString("page") })
	return app
}

func TestRequireUser(t *testing.T) {
	app := newGuardedApp()

	tests := []struct {
		name   string
		cookie string
		bearer string
		want   int
	}{
		{name: "no session", want: http.StatusUnauthorized},
		{name: "stale session", cookie: "revoked", want: http.StatusUnauthorized},
		{name: "user cookie", cookie: "user-cred", want: http.StatusOK},
		{name: "admin bearer", bearer: "admin-cred", want: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "dash_session", Value: tt.cookie})
			}
			if tt.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tt.bearer)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestRequirePageRedirects(t *testing.T) {
	app := newGuardedApp()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/dashboard", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusFound || resp.Header.Get("Location") != "/login" {
		t.Errorf("status = %d location = %q, want redirect to /login", resp.StatusCode, resp.Header.Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: "dash_session", Value: "user-cred"})
	resp, err = app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestCheckAdmin(t *testing.T) {
	if !apperrors.IsCode(CheckAdmin(nil), apperrors.CodeUnauthorized) {
		t.Error("nil user should be UNAUTHORIZED")
	}
	if !apperrors.IsCode(CheckAdmin(&domain.User{Role: domain.RoleLegal}), apperrors.CodeForbidden) {
		t.Error("legal user should be FORBIDDEN")
	}
	if err := CheckAdmin(&domain.User{Role: domain.RoleAdmin}); err != nil {
		t.Errorf("admin should pass: %v", err)
	}
}
