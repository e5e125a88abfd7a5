package http

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/api/http/handlers"
	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/ratelimit"
	"github.com/spec-kit/magiclink-auth/internal/service"
)

// SignInPath is where anonymous page visits are sent.
const SignInPath = handlers.LoginPath

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Me             *handlers.MeHandler
	Attachments    *handlers.AttachmentsHandler
	AuthMiddleware *auth.SessionMiddleware
	Guard          *service.Guard
	Limiter        ratelimit.Limiter
	Logger         *zap.Logger
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	session := cfg.AuthMiddleware.Handle

	authGroup := app.Group("/auth")
	authGroup.Post("/magic-link", ratelimit.LimitIP(cfg.Limiter, "magic-link", cfg.Logger), cfg.Auth.RequestLink)
	authGroup.Post("/verify", ratelimit.LimitIP(cfg.Limiter, "verify", cfg.Logger), cfg.Auth.Verify)
	authGroup.Get("/callback", cfg.Auth.ConfirmCallback)
	authGroup.Post("/callback", ratelimit.LimitIP(cfg.Limiter, "verify", cfg.Logger), cfg.Auth.Callback)
	authGroup.Post("/logout", cfg.Auth.Logout)

	app.Get(SignInPath, cfg.Me.Login)
	app.Get("/", func(c *fiber.Ctx) error { return c.Redirect("/dashboard", fiber.StatusFound) })
	app.Get("/dashboard", session, auth.RequirePage(SignInPath), cfg.Me.Dashboard)

	api := app.Group("/api", session)
	api.Get("/me", auth.RequireUser(), cfg.Me.Me)
	api.Post("/me/role/toggle", auth.RequireUser(), cfg.Me.ToggleRole)

	attachments := api.Group("/attachments", requireAdmin(cfg.Guard, cfg.AuthMiddleware))
	attachments.Get("/", cfg.Attachments.List)
	attachments.Get("/:name", cfg.Attachments.Download)
	attachments.Delete("/:name", cfg.Attachments.Delete)
}
