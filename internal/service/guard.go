package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/auth"
	"github.com/spec-kit/magiclink-auth/internal/domain"
	"github.com/spec-kit/magiclink-auth/internal/events"
	"github.com/spec-kit/magiclink-auth/internal/repository"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

// Guard derives and enforces roles on privileged operations.
type Guard struct {
	sessions    auth.SessionResolver
	users       repository.UserRepository
	clock       Clock
	allowToggle bool
	dispatcher  events.Dispatcher
	logger      *zap.Logger
}

// GuardDependencies encapsulates requirements for the guard.
type GuardDependencies struct {
	Sessions        auth.SessionResolver
	Users           repository.UserRepository
	Clock           Clock
	AllowRoleToggle bool
	Dispatcher      events.Dispatcher
	Logger          *zap.Logger
}

// NewGuard builds the guard.
func NewGuard(deps GuardDependencies) *Guard {
	return &Guard{
		sessions:    deps.Sessions,
		users:       deps.Users,
		clock:       deps.Clock,
		allowToggle: deps.AllowRoleToggle,
		dispatcher:  deps.Dispatcher,
		logger:      deps.Logger,
	}
}

// RequireAdmin resolves the caller and returns it when it is an admin. The
// error is UNAUTHORIZED without a valid session and FORBIDDEN for other roles.
func (g *Guard) RequireAdmin(ctx context.Context, credential string) (*domain.User, error) {
	user, err := g.sessions.CurrentUser(ctx, credential)
	if err != nil {
		return nil, err
	}
	if err := auth.CheckAdmin(user); err != nil {
		return user, err
	}
	return user, nil
}

// ToggleAdminRole flips the caller's own role between Admin and non-admin and
// records the change.
func (g *Guard) ToggleAdminRole(ctx context.Context, credential string) (*domain.User, error) {
	user, err := g.sessions.CurrentUser(ctx, credential)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !g.allowToggle {
		return nil, apperrors.NewForbidden("role changes are disabled")
	}

	change := &domain.RoleChange{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ActorID:   user.ID,
		OldRole:   user.Role,
		NewRole:   user.Role.Toggled(),
		ChangedAt: g.clock.Now(),
	}
	updated, err := g.users.ChangeRole(ctx, change)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.NewConflict("role changed concurrently; retry", nil)
		}
		return nil, apperrors.NewDependencyFailure("postgres", err)
	}

	g.logger.Info("role changed",
		zap.String("user_id", user.ID),
		zap.String("old_role", string(change.OldRole)),
		zap.String("new_role", string(change.NewRole)))
	userID := user.ID
	publish(ctx, g.dispatcher, g.logger, events.Event{
		Type:   events.EventRoleChanged,
		UserID: &userID,
		Payload: events.RoleChangedPayload{
			ChangeID: change.ID,
			ActorID:  change.ActorID,
			OldRole:  change.OldRole,
			NewRole:  change.NewRole,
		},
	}, g.clock)
	return updated, nil
}
