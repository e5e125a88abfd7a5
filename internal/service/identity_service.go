package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/domain"
	"github.com/spec-kit/magiclink-auth/internal/repository"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

// IdentityService maps verified emails to stable user ids.
type IdentityService struct {
	users repository.UserRepository
	clock Clock
}

// NewIdentityService builds the service.
func NewIdentityService(users repository.UserRepository, clock Clock) *IdentityService {
	return &IdentityService{users: users, clock: clock}
}

// UpsertUser returns the user for email, creating it with initialRole on first
// sign-in. An existing user keeps its current role.
func (s *IdentityService) UpsertUser(ctx context.Context, email string, initialRole domain.Role) (*domain.User, error) {
	if initialRole == "" {
		initialRole = domain.RoleUser
	}
	user, err := s.users.Upsert(ctx, uuid.NewString(), auth.NormalizeEmail(email), initialRole, s.clock.Now())
	if err != nil {
		return nil, apperrors.NewDependencyFailure("postgres", err)
	}
	return user, nil
}
