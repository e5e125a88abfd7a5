package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/domain"
	"github.com/spec-kit/magiclink-auth/internal/events"
	"github.com/spec-kit/magiclink-auth/internal/mail"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

// AuthService coordinates the magic link sign-in flow.
type AuthService struct {
	registry   *RegistryService
	tokens     *TokenService
	identity   *IdentityService
	sessions   *SessionService
	mailer     mail.Sender
	dispatcher events.Dispatcher
	clock      Clock
	logger     *zap.Logger
}

// AuthDependencies encapsulates the collaborators of the sign-in flow.
type AuthDependencies struct {
	Registry   *RegistryService
	Tokens     *TokenService
	Identity   *IdentityService
	Sessions   *SessionService
	Mailer     mail.Sender
	Dispatcher events.Dispatcher
	Clock      Clock
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) *AuthService {
	return &AuthService{
		registry:   deps.Registry,
		tokens:     deps.Tokens,
		identity:   deps.Identity,
		sessions:   deps.Sessions,
		mailer:     deps.Mailer,
		dispatcher: deps.Dispatcher,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
}

// RequestMagicLink validates and allow-list checks email, issues a token under
// the cooldown and emails the link. A dispatch failure fails the request but
// leaves the token in place.
func (s *AuthService) RequestMagicLink(ctx context.Context, rawEmail, baseURL string) error {
	email, err := auth.ParseEmail(rawEmail)
	if err != nil {
		return apperrors.NewValidationError("a valid email is required", nil)
	}

	if _, err := s.registry.Lookup(ctx, email); err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotApproved) {
			s.logger.Info("magic link refused", zap.String("email_domain", auth.EmailDomain(email)))
		}
		return err
	}

	issued, err := s.tokens.IssueMagicToken(ctx, email)
	if err != nil {
		return err
	}

	if err := s.mailer.SendMagicLink(ctx, email, issued.Token, baseURL); err != nil {
		s.logger.Error("magic link dispatch failed",
			zap.String("token_id", issued.Record.ID),
			zap.Error(err))
		return apperrors.NewDependencyFailure("mail", err)
	}

	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type: events.EventMagicLinkRequested,
		Payload: events.MagicLinkRequestedPayload{
			EmailDomain: auth.EmailDomain(email),
			TokenID:     issued.Record.ID,
			ExpiresAt:   issued.Record.ExpiresAt,
		},
	}, s.clock)
	return nil
}

// VerifyMagicLink consumes the token, resolves the identity and opens a session.
// Nothing is created when the token is not valid.
func (s *AuthService) VerifyMagicLink(ctx context.Context, rawToken string) (*domain.User, *Credential, error) {
	token := strings.TrimSpace(rawToken)
	if token == "" {
		return nil, nil, apperrors.NewValidationError("token is required", nil)
	}

	email, err := s.tokens.VerifyMagicToken(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	if email == "" {
		return nil, nil, apperrors.NewInvalidToken()
	}

	// The allow-list may have changed since issuance.
	entry, err := s.registry.Lookup(ctx, email)
	if err != nil {
		if apperrors.IsCode(err, apperrors.CodeNotApproved) {
			return nil, nil, apperrors.NewInvalidToken()
		}
		return nil, nil, err
	}

	user, err := s.identity.UpsertUser(ctx, email, entry.Role)
	if err != nil {
		return nil, nil, err
	}
	cred, err := s.sessions.CreateSession(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}

	userID := user.ID
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventMagicLinkVerified,
		UserID:  &userID,
		Payload: events.MagicLinkVerifiedPayload{SessionID: cred.SessionID, ExpiresAt: cred.ExpiresAt},
	}, s.clock)
	return user, cred, nil
}

// Logout revokes the caller's session. It is idempotent.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	return s.sessions.ClearSession(ctx, credential)
}

// CurrentUser exposes the per-request gate.
func (s *AuthService) CurrentUser(ctx context.Context, credential string) (*domain.User, error) {
	return s.sessions.CurrentUser(ctx, credential)
}

// TokenTTL returns the magic token lifetime.
func (s *AuthService) TokenTTL() int {
	return int(s.tokens.TTL().Minutes())
}
