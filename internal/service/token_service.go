package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/domain"
	"github.com/spec-kit/magiclink-auth/internal/repository"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

// TokenConfig holds magic token lifetimes.
type TokenConfig struct {
	TTL            time.Duration
	Cooldown       time.Duration
	SupersedePrior bool
}

// IssuedToken pairs the raw token, which only ever leaves in the email, with
// its stored record.
type IssuedToken struct {
	Token  string
	Record *domain.MagicToken
}

// TokenService issues and consumes single-use magic tokens.
type TokenService struct {
	tokens repository.MagicTokenRepository
	hasher *auth.TokenHasher
	clock  Clock
	cfg    TokenConfig
}

// NewTokenService builds the service.
func NewTokenService(tokens repository.MagicTokenRepository, hasher *auth.TokenHasher, clock Clock, cfg TokenConfig) *TokenService {
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	return &TokenService{tokens: tokens, hasher: hasher, clock: clock, cfg: cfg}
}

// TTL returns the token lifetime.
func (s *TokenService) TTL() time.Duration {
	return s.cfg.TTL
}

// RecentTokenExists reports whether a live token for email was issued within
// the cooldown window.
func (s *TokenService) RecentTokenExists(ctx context.Context, email string) (bool, error) {
	if s.cfg.Cooldown <= 0 {
		return false, nil
	}
	now := s.clock.Now()
	recent, err := s.tokens.RecentExists(ctx, auth.NormalizeEmail(email), now.Add(-s.cfg.Cooldown), now)
	if err != nil {
		return false, apperrors.NewDependencyFailure("postgres", err)
	}
	return recent, nil
}

// CreateMagicToken persists a new token for email without a cooldown check.
func (s *TokenService) CreateMagicToken(ctx context.Context, email string) (*IssuedToken, error) {
	issued, err := s.newToken(email)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.Create(ctx, issued.Record, s.cfg.SupersedePrior); err != nil {
		return nil, apperrors.NewDependencyFailure("postgres", err)
	}
	return issued, nil
}

// IssueMagicToken checks the cooldown and creates the token in one store step,
// so duplicate concurrent requests cannot both issue.
func (s *TokenService) IssueMagicToken(ctx context.Context, email string) (*IssuedToken, error) {
	if s.cfg.Cooldown <= 0 {
		return s.CreateMagicToken(ctx, email)
	}

	issued, err := s.newToken(email)
	if err != nil {
		return nil, err
	}
	since := issued.Record.IssuedAt.Add(-s.cfg.Cooldown)
	created, err := s.tokens.CreateIfNoRecent(ctx, issued.Record, since, s.cfg.SupersedePrior)
	if err != nil {
		return nil, apperrors.NewDependencyFailure("postgres", err)
	}
	if !created {
		return nil, apperrors.NewRateLimited("a sign-in link was sent recently; try again later")
	}
	return issued, nil
}

// VerifyMagicToken consumes the token and returns its email. It returns ""
// for unknown, consumed, superseded, expired or malformed tokens; a non-nil
// error only means the store failed.
func (s *TokenService) VerifyMagicToken(ctx context.Context, raw string) (string, error) {
	hash, err := s.hasher.Hash(raw)
	if err != nil {
		return "", nil
	}
	email, err := s.tokens.Consume(ctx, hash, s.clock.Now())
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil
		}
		return "", apperrors.NewDependencyFailure("postgres", err)
	}
	return email, nil
}

func (s *TokenService) newToken(email string) (*IssuedToken, error) {
	raw, err := auth.GenerateToken()
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	hash, err := s.hasher.Hash(raw)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	now := s.clock.Now()
	return &IssuedToken{
		Token: raw,
		Record: &domain.MagicToken{
			ID:        uuid.NewString(),
			TokenHash: hash,
			Email:     auth.NormalizeEmail(email),
			IssuedAt:  now,
			ExpiresAt: now.Add(s.cfg.TTL),
		},
	}, nil
}
