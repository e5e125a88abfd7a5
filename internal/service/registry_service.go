package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/config"
	"github.com/spec-kit/magiclink-auth/internal/domain"
	"github.com/spec-kit/magiclink-auth/internal/repository"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

// RegistryService answers who may ever request a sign-in link.
type RegistryService struct {
	approved repository.ApprovedUserRepository
	logger   *zap.Logger
}

// NewRegistryService builds the service.
func NewRegistryService(approved repository.ApprovedUserRepository, logger *zap.Logger) *RegistryService {
	return &RegistryService{approved: approved, logger: logger}
}

// Lookup returns the allow-list entry for email. A missing entry is NOT_APPROVED,
// a store failure is DEPENDENCY_FAILURE.
func (s *RegistryService) Lookup(ctx context.Context, email string) (*domain.ApprovedUser, error) {
	entry, err := s.approved.GetByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotApproved()
		}
		s.logger.Error("approved user lookup failed", zap.Error(err))
		return nil, apperrors.NewDependencyFailure("postgres", err)
	}
	return entry, nil
}

// IsApprovedUser reports allow-list membership. Any lookup error counts as not approved.
func (s *RegistryService) IsApprovedUser(ctx context.Context, email string) bool {
	_, err := s.Lookup(ctx, email)
	return err == nil
}

// Seed upserts configured allow-list entries.
func (s *RegistryService) Seed(ctx context.Context, seeds []config.ApprovedUserSeed) error {
	for _, seed := range seeds {
		email, err := auth.ParseEmail(seed.Email)
		if err != nil {
			return fmt.Errorf("seed %q: %w", seed.Email, err)
		}
		role, err := domain.ParseRole(seed.Role)
		if err != nil {
			return fmt.Errorf("seed %q: %w", seed.Email, err)
		}
		if err := s.approved.Upsert(ctx, &domain.ApprovedUser{Email: email, Role: role}); err != nil {
			return fmt.Errorf("seed %q: %w", seed.Email, err)
		}
	}
	if len(seeds) > 0 {
		s.logger.Info("approved users seeded", zap.Int("count", len(seeds)))
	}
	return nil
}
