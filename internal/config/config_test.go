package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("AUTH_APPROVED_USERS", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := cfg.Auth.MagicTokenTTL(); got != 15*time.Minute {
		t.Errorf("MagicTokenTTL = %v, want 15m", got)
	}
	if got := cfg.Auth.Cooldown(); got != 5*time.Minute {
		t.Errorf("Cooldown = %v, want 5m", got)
	}
	if !cfg.Auth.SupersedePriorTokens {
		t.Error("SupersedePriorTokens should default to true")
	}
	if !cfg.Auth.AllowRoleToggle {
		t.Error("AllowRoleToggle should default to true outside production")
	}
	if cfg.Auth.CookieName != "dash_session" {
		t.Errorf("CookieName = %q", cfg.Auth.CookieName)
	}
}

func TestLoadBaseURL(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_BASE_URL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.BaseURL != "http://localhost:9090" {
		t.Errorf("BaseURL = %q, want local default", cfg.App.BaseURL)
	}

	t.Setenv("APP_BASE_URL", "dash.un.org")
	if _, err := Load(); err == nil {
		t.Error("expected error for a base URL without scheme")
	}

	t.Setenv("APP_BASE_URL", "https://dash.un.org/")
	cfg, err = Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.App.BaseURL != "https://dash.un.org" {
		t.Errorf("BaseURL = %q", cfg.App.BaseURL)
	}
}

func TestLoadProductionRequiresBaseURL(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_SESSION_SECRET", "s3cr3t")
	t.Setenv("AUTH_TOKEN_PEPPER", "p3pp3r")
	t.Setenv("APP_BASE_URL", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when APP_BASE_URL is missing in production")
	}
}

func TestLoadTrustedProxies(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("HTTP_TRUSTED_PROXIES", " 10.0.0.1, ,10.0.0.0/8 ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.App.TrustedProxies) != 2 || cfg.App.TrustedProxies[1] != "10.0.0.0/8" {
		t.Errorf("TrustedProxies = %v", cfg.App.TrustedProxies)
	}
}

func TestLoadProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("AUTH_SESSION_SECRET", "")
	t.Setenv("AUTH_TOKEN_PEPPER", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when production secrets are missing")
	}

	t.Setenv("AUTH_SESSION_SECRET", "s3cr3t")
	t.Setenv("AUTH_TOKEN_PEPPER", "p3pp3r")
	t.Setenv("APP_BASE_URL", "https://dash.un.org")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.AllowRoleToggle {
		t.Error("AllowRoleToggle should default to false in production")
	}
}

func TestParseApprovedUsers(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []ApprovedUserSeed
		wantErr bool
	}{
		{name: "empty", raw: "  ", want: nil},
		{
			name: "roles and defaults",
			raw:  "admin@un.org:Admin, user@un.org ,legal@un.org:Legal",
			want: []ApprovedUserSeed{
				{Email: "admin@un.org", Role: "Admin"},
				{Email: "user@un.org", Role: "User"},
				{Email: "legal@un.org", Role: "Legal"},
			},
		},
		{name: "skips blanks", raw: "a@b.com,,", want: []ApprovedUserSeed{{Email: "a@b.com", Role: "User"}}},
		{name: "missing email", raw: ":Admin", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseApprovedUsers(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %d seeds, want %d", len(got), len(tt.want))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("seed %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}
