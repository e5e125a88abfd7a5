package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/domain"
	"github.com/spec-kit/magiclink-auth/internal/events"
	"github.com/spec-kit/magiclink-auth/internal/repository/memory"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type sentLink struct {
	Email, Token, BaseURL string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentLink
	err  error
}

func (m *fakeMailer) SendMagicLink(_ context.Context, email, token, baseURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentLink{Email: email, Token: token, BaseURL: baseURL})
	return nil
}

func (m *fakeMailer) last(t *testing.T) sentLink {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		t.Fatal("no magic link sent")
	}
	return m.sent[len(m.sent)-1]
}

type harness struct {
	clock      *fakeClock
	approved   *memory.ApprovedUsers
	tokens     *memory.MagicTokens
	users      *memory.Users
	sessions   *memory.Sessions
	mailer     *fakeMailer
	dispatcher events.Dispatcher
	published  *[]events.Event

	tokenSvc   *TokenService
	sessionSvc *SessionService
	identity   *IdentityService
	registry   *RegistryService
	guard      *Guard
	auth       *AuthService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := zap.NewNop()
	clock := &fakeClock{t: time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)}

	h := &harness{
		clock: clock,
		approved: memory.NewApprovedUsers(
			domain.ApprovedUser{Email: "user@un.org", Role: domain.RoleUser},
			domain.ApprovedUser{Email: "admin@un.org", Role: domain.RoleAdmin},
			domain.ApprovedUser{Email: "legal@un.org", Role: domain.RoleLegal},
		),
		tokens:     memory.NewMagicTokens(),
		users:      memory.NewUsers(),
		mailer:     &fakeMailer{},
		dispatcher: events.NewInMemoryDispatcher(),
	}
	h.sessions = memory.NewSessions(h.users)

	var published []events.Event
	h.published = &published
	record := func(_ context.Context, e events.Event) error {
		published = append(published, e)
		return nil
	}
	for _, et := range []events.EventType{events.EventMagicLinkRequested, events.EventMagicLinkVerified, events.EventSessionRevoked, events.EventRoleChanged} {
		h.dispatcher.Subscribe(et, record)
	}

	h.registry = NewRegistryService(h.approved, logger)
	h.tokenSvc = NewTokenService(h.tokens, auth.NewTokenHasher("pepper"), clock, TokenConfig{
		TTL:            15 * time.Minute,
		Cooldown:       5 * time.Minute,
		SupersedePrior: true,
	})
	h.identity = NewIdentityService(h.users, clock)
	h.sessionSvc = NewSessionService(SessionDependencies{
		Sessions:    h.sessions,
		Credentials: auth.NewCredentialManager("secret", clock.Now),
		Clock:       clock,
		TTL:         24 * time.Hour,
		Dispatcher:  h.dispatcher,
		Logger:      logger,
	})
	h.guard = NewGuard(GuardDependencies{
		Sessions:        h.sessionSvc,
		Users:           h.users,
		Clock:           clock,
		AllowRoleToggle: true,
		Dispatcher:      h.dispatcher,
		Logger:          logger,
	})
	h.auth = NewAuthService(AuthDependencies{
		Registry:   h.registry,
		Tokens:     h.tokenSvc,
		Identity:   h.identity,
		Sessions:   h.sessionSvc,
		Mailer:     h.mailer,
		Dispatcher: h.dispatcher,
		Clock:      clock,
		Logger:     logger,
	})
	return h
}

// signIn runs the full flow and returns the session credential.
func (h *harness) signIn(t *testing.T, email string) (*domain.User, *Credential) {
	t.Helper()
	ctx := context.Background()
	if err := h.auth.RequestMagicLink(ctx, email, "https://dash.un.org"); err != nil {
		t.Fatalf("RequestMagicLink(%s): %v", email, err)
	}
	user, cred, err := h.auth.VerifyMagicLink(ctx, h.mailer.last(t).Token)
	if err != nil {
		t.Fatalf("VerifyMagicLink: %v", err)
	}
	return user, cred
}

func (h *harness) eventTypes() []events.EventType {
	var out []events.EventType
	for _, e := range *h.published {
		out = append(out, e.Type)
	}
	return out
}
