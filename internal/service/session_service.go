package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/domain"
	"github.com/spec-kit/magiclink-auth/internal/events"
	"github.com/spec-kit/magiclink-auth/internal/repository"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

// Credential is what the HTTP layer hands to the client.
type Credential struct {
	Value     string
	SessionID string
	ExpiresAt time.Time
}

// SessionService issues, validates and revokes sessions. It never touches
// request or response objects; credentials go in and out as strings.
type SessionService struct {
	sessions   repository.SessionRepository
	creds      *auth.CredentialManager
	clock      Clock
	ttl        time.Duration
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// SessionDependencies encapsulates requirements for the session service.
type SessionDependencies struct {
	Sessions    repository.SessionRepository
	Credentials *auth.CredentialManager
	Clock       Clock
	TTL         time.Duration
	Dispatcher  events.Dispatcher
	Logger      *zap.Logger
}

// NewSessionService builds the service.
func NewSessionService(deps SessionDependencies) *SessionService {
	ttl := deps.TTL
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &SessionService{
		sessions:   deps.Sessions,
		creds:      deps.Credentials,
		clock:      deps.Clock,
		ttl:        ttl,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
	}
}

// CreateSession persists a new session for userID and returns its credential.
func (s *SessionService) CreateSession(ctx context.Context, userID string) (*Credential, error) {
	now := s.clock.Now()
	session := &domain.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	value, err := s.creds.Issue(session.ID, userID, session.CreatedAt, session.ExpiresAt)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.NewDependencyFailure("postgres", err)
	}
	return &Credential{Value: value, SessionID: session.ID, ExpiresAt: session.ExpiresAt}, nil
}

// CurrentUser resolves a credential to its user. It returns nil, nil when the
// credential is absent, malformed, expired, revoked or its user is gone.
func (s *SessionService) CurrentUser(ctx context.Context, credential string) (*domain.User, error) {
	sessionID, ok := s.sessionID(credential)
	if !ok {
		return nil, nil
	}
	_, user, err := s.sessions.GetActive(ctx, sessionID, s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		s.logger.Error("session lookup failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, apperrors.NewDependencyFailure("postgres", err)
	}
	return user, nil
}

// ClearSession revokes the session behind credential. Clearing an absent or
// already revoked session is not an error.
func (s *SessionService) ClearSession(ctx context.Context, credential string) error {
	sessionID, ok := s.sessionID(credential)
	if !ok {
		return nil
	}
	if err := s.sessions.Revoke(ctx, sessionID, s.clock.Now()); err != nil {
		return apperrors.NewDependencyFailure("postgres", err)
	}
	publish(ctx, s.dispatcher, s.logger, events.Event{
		Type:    events.EventSessionRevoked,
		Payload: events.SessionRevokedPayload{SessionID: sessionID},
	}, s.clock)
	return nil
}

func (s *SessionService) sessionID(credential string) (string, bool) {
	if credential == "" {
		return "", false
	}
	claims, err := s.creds.Parse(credential)
	if err != nil {
		return "", false
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return "", false
	}
	return claims.SessionID, true
}
