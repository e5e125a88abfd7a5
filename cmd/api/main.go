package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/magiclink-auth/internal/api/http"
	"github.com/spec-kit/magiclink-auth/internal/api/http/handlers"
	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/config"
	"github.com/spec-kit/magiclink-auth/internal/events"
	"github.com/spec-kit/magiclink-auth/internal/mail"
	"github.com/spec-kit/magiclink-auth/internal/observability"
	"github.com/spec-kit/magiclink-auth/internal/persistence"
	"github.com/spec-kit/magiclink-auth/internal/ratelimit"
	"github.com/spec-kit/magiclink-auth/internal/repository"
	"github.com/spec-kit/magiclink-auth/internal/repository/memory"
	"github.com/spec-kit/magiclink-auth/internal/service"
	"github.com/spec-kit/magiclink-auth/internal/storage"
	"github.com/spec-kit/magiclink-auth/internal/worker"
)

type stores struct {
	approved repository.ApprovedUserRepository
	tokens   repository.MagicTokenRepository
	users    repository.UserRepository
	sessions repository.SessionRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	var limiter ratelimit.Limiter = ratelimit.Unlimited{}
	if redis.Enabled() && cfg.Auth.IPLimit > 0 {
		limiter = ratelimit.NewRedisLimiter(redis.Client, cfg.Auth.IPLimit, cfg.Auth.IPWindow())
	}

	repos := newStores(pg)
	clock := service.SystemClock{}
	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger))

	registry := service.NewRegistryService(repos.approved, logger)
	if err := registry.Seed(ctx, cfg.Auth.ApprovedUsers); err != nil {
		logger.Fatal("failed to seed approved users", zap.Error(err))
	}

	var transport mail.Transport = mail.NewLogTransport(logger)
	if cfg.Mail.SMTPAddr != "" {
		transport = mail.NewSMTPTransport(cfg.Mail)
	} else if cfg.App.IsProduction() {
		logger.Warn("MAIL_SMTP_ADDR not set; magic links will only be logged")
	}
	mailer := mail.NewDispatcher(cfg.Mail, cfg.Auth.MagicTokenTTL(), transport)

	tokenService := service.NewTokenService(repos.tokens, auth.NewTokenHasher(cfg.Auth.TokenPepper), clock, service.TokenConfig{
		TTL:            cfg.Auth.MagicTokenTTL(),
		Cooldown:       cfg.Auth.Cooldown(),
		SupersedePrior: cfg.Auth.SupersedePriorTokens,
	})
	sessionService := service.NewSessionService(service.SessionDependencies{
		Sessions:    repos.sessions,
		Credentials: auth.NewCredentialManager(cfg.Auth.SessionSecret, clock.Now),
		Clock:       clock,
		TTL:         cfg.Auth.SessionTTL(),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		Registry:   registry,
		Tokens:     tokenService,
		Identity:   service.NewIdentityService(repos.users, clock),
		Sessions:   sessionService,
		Mailer:     mailer,
		Dispatcher: dispatcher,
		Clock:      clock,
		Logger:     logger,
	})
	guard := service.NewGuard(service.GuardDependencies{
		Sessions:        sessionService,
		Users:           repos.users,
		Clock:           clock,
		AllowRoleToggle: cfg.Auth.AllowRoleToggle,
		Dispatcher:      dispatcher,
		Logger:          logger,
	})
	authMiddleware := auth.NewSessionMiddleware(sessionService, cfg.Auth.CookieName)

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:                 cfg.App.Name,
		DisableStartupMessage:   true,
		ProxyHeader:             cfg.App.ProxyHeader,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          cfg.App.TrustedProxies,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	cookie := handlers.CookieConfig{
		Name:   cfg.Auth.CookieName,
		Domain: cfg.Auth.CookieDomain,
		Secure: cfg.App.IsProduction(),
	}
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis, metrics),
		Auth:           handlers.NewAuthHandler(authService, authMiddleware, cookie, cfg.App.BaseURL, logger),
		Me:             handlers.NewMeHandler(guard),
		Attachments:    handlers.NewAttachmentsHandler(storage.NewAttachmentStore(cfg.App.AttachmentsDir), logger),
		AuthMiddleware: authMiddleware,
		Guard:          guard,
		Limiter:        limiter,
		Logger:         logger,
	})

	sweeper := worker.NewSweeper(map[string]worker.Expirer{
		"magic_tokens": repos.tokens,
		"sessions":     repos.sessions,
	}, cfg.Sweeper.Interval(), clock, logger)
	go sweeper.Run(ctx)

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func newStores(pg *persistence.Postgres) stores {
	if !pg.Enabled() {
		users := memory.NewUsers()
		return stores{
			approved: memory.NewApprovedUsers(),
			tokens:   memory.NewMagicTokens(),
			users:    users,
			sessions: memory.NewSessions(users),
		}
	}
	pool := pg.PoolHandle()
	return stores{
		approved: repository.NewApprovedUserRepository(pool),
		tokens:   repository.NewMagicTokenRepository(pool),
		users:    repository.NewUserRepository(pool),
		sessions: repository.NewSessionRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
