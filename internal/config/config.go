package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Mail     MailConfig
	Sweeper  SweeperConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	BaseURL               string
	AttachmentsDir        string
	ProxyHeader           string
	TrustedProxies        []string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	MigrationsDir  string
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines magic link and session parameters.
type AuthConfig struct {
	SessionSecret        string
	TokenPepper          string
	MagicTokenTTLMinutes int
	CooldownMinutes      int
	SessionTTLHours      int
	SupersedePriorTokens bool
	AllowRoleToggle      bool
	CookieName           string
	CookieDomain         string
	ApprovedUsers        []ApprovedUserSeed
	IPLimit              int
	IPWindowSeconds      int
}

// ApprovedUserSeed is one allow-list entry provided through AUTH_APPROVED_USERS.
type ApprovedUserSeed struct {
	Email string
	Role  string
}

// MailConfig holds delivery settings for magic links.
type MailConfig struct {
	From         string
	SiteName     string
	SMTPAddr     string
	SMTPUser     string
	SMTPPassword string
}

// SweeperConfig controls the expired-row cleanup worker.
type SweeperConfig struct {
	IntervalMinutes int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	seeds, err := ParseApprovedUsers(os.Getenv("AUTH_APPROVED_USERS"))
	if err != nil {
		return nil, fmt.Errorf("invalid AUTH_APPROVED_USERS: %w", err)
	}

	env := getEnv("APP_ENV", "development")

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "dashboard-auth"),
			Env:                   env,
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			BaseURL:               strings.TrimRight(os.Getenv("APP_BASE_URL"), "/"),
			AttachmentsDir:        getEnv("ATTACHMENTS_DIR", "attachments"),
			ProxyHeader:           os.Getenv("HTTP_PROXY_HEADER"),
			TrustedProxies:        splitList(os.Getenv("HTTP_TRUSTED_PROXIES")),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:  getEnv("POSTGRES_MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			SessionSecret:        getEnv("AUTH_SESSION_SECRET", "dev-secret"),
			TokenPepper:          getEnv("AUTH_TOKEN_PEPPER", "dev-pepper"),
			MagicTokenTTLMinutes: getEnvAsInt("AUTH_MAGIC_TOKEN_TTL_MINUTES", 15),
			CooldownMinutes:      getEnvAsInt("AUTH_MAGIC_TOKEN_COOLDOWN_MINUTES", 5),
			SessionTTLHours:      getEnvAsInt("AUTH_SESSION_TTL_HOURS", 720),
			SupersedePriorTokens: getEnvAsBool("AUTH_SUPERSEDE_PRIOR_TOKENS", true),
			AllowRoleToggle:      getEnvAsBool("AUTH_ALLOW_ROLE_TOGGLE", env != "production"),
			CookieName:           getEnv("AUTH_COOKIE_NAME", "dash_session"),
			CookieDomain:         os.Getenv("AUTH_COOKIE_DOMAIN"),
			ApprovedUsers:        seeds,
			IPLimit:              getEnvAsInt("AUTH_IP_LIMIT", 20),
			IPWindowSeconds:      getEnvAsInt("AUTH_IP_WINDOW_SECONDS", 600),
		},
		Mail: MailConfig{
			From:         getEnv("MAIL_FROM", "noreply@example.com"),
			SiteName:     getEnv("MAIL_SITE_NAME", "Dashboard"),
			SMTPAddr:     os.Getenv("MAIL_SMTP_ADDR"),
			SMTPUser:     os.Getenv("MAIL_SMTP_USER"),
			SMTPPassword: os.Getenv("MAIL_SMTP_PASSWORD"),
		},
		Sweeper: SweeperConfig{
			IntervalMinutes: getEnvAsInt("SWEEP_INTERVAL_MINUTES", 10),
		},
	}

	if env == "production" && (cfg.Auth.SessionSecret == "dev-secret" || cfg.Auth.TokenPepper == "dev-pepper") {
		return nil, fmt.Errorf("AUTH_SESSION_SECRET and AUTH_TOKEN_PEPPER must be set in production")
	}

	if cfg.App.BaseURL == "" {
		// Magic links are never built from request headers.
		if env == "production" {
			return nil, fmt.Errorf("APP_BASE_URL must be set in production")
		}
		cfg.App.BaseURL = "http://localhost:" + cfg.App.Port
	}
	if err := validateBaseURL(cfg.App.BaseURL); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validateBaseURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid APP_BASE_URL %q: must be an absolute http(s) URL", raw)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// ParseApprovedUsers parses a comma separated `email[:Role]` list. A missing role means User.
func ParseApprovedUsers(raw string) ([]ApprovedUserSeed, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var seeds []ApprovedUserSeed
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		email, role, found := strings.Cut(item, ":")
		email = strings.TrimSpace(email)
		if email == "" {
			return nil, fmt.Errorf("empty email in entry %q", item)
		}
		role = strings.TrimSpace(role)
		if !found || role == "" {
			role = "User"
		}
		seeds = append(seeds, ApprovedUserSeed{Email: email, Role: role})
	}
	return seeds, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return a.Env == "production"
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// MagicTokenTTL returns how long an issued magic token stays valid.
func (a AuthConfig) MagicTokenTTL() time.Duration {
	if a.MagicTokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.MagicTokenTTLMinutes) * time.Minute
}

// Cooldown returns the per-email issuance cooldown. Zero disables throttling.
func (a AuthConfig) Cooldown() time.Duration {
	if a.CooldownMinutes < 0 {
		return 0
	}
	return time.Duration(a.CooldownMinutes) * time.Minute
}

// SessionTTL returns the lifetime of a session.
func (a AuthConfig) SessionTTL() time.Duration {
	if a.SessionTTLHours <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(a.SessionTTLHours) * time.Hour
}

// IPWindow returns the per-IP limiter window.
func (a AuthConfig) IPWindow() time.Duration {
	if a.IPWindowSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(a.IPWindowSeconds) * time.Second
}

// Interval returns the sweep period, zero when disabled.
func (s SweeperConfig) Interval() time.Duration {
	if s.IntervalMinutes <= 0 {
		return 0
	}
	return time.Duration(s.IntervalMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
