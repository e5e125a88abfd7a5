package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/magiclink-auth/internal/config"
	"github.com/spec-kit/magiclink-auth/internal/domain"
	"github.com/spec-kit/magiclink-auth/internal/repository/memory"
	apperrors "github.com/spec-kit/magiclink-auth/pkg/util"
)

type brokenApproved struct{}

func (brokenApproved) GetByEmail(context.Context, string) (*domain.ApprovedUser, error) {
	return nil, errors.New("connection reset")
}

func (brokenApproved) Upsert(context.Context, *domain.ApprovedUser) error {
	return errors.New("connection reset")
}

func TestIsApprovedUserCaseInsensitive(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, email := range []string{"user@un.org", "USER@UN.ORG", "  User@Un.Org "} {
		if !h.registry.IsApprovedUser(ctx, email) {
			t.Errorf("IsApprovedUser(%q) = false", email)
		}
	}
	if h.registry.IsApprovedUser(ctx, "unknown@example.com") {
		t.Error("unknown email must not be approved")
	}
}

func TestRegistryFailsClosed(t *testing.T) {
	registry := NewRegistryService(brokenApproved{}, zap.NewNop())
	ctx := context.Background()

	if registry.IsApprovedUser(ctx, "user@un.org") {
		t.Error("lookup errors must count as not approved")
	}
	if _, err := registry.Lookup(ctx, "user@un.org"); !apperrors.IsCode(err, apperrors.CodeDependencyFailure) {
		t.Errorf("Lookup err = %v, want DEPENDENCY_FAILURE", err)
	}
}

func TestRegistrySeed(t *testing.T) {
	approved := memory.NewApprovedUsers()
	registry := NewRegistryService(approved, zap.NewNop())
	ctx := context.Background()

	err := registry.Seed(ctx, []config.ApprovedUserSeed{{Email: " Boss@UN.org ", Role: "admin"}})
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	entry, err := registry.Lookup(ctx, "boss@un.org")
	if err != nil || entry.Role != domain.RoleAdmin {
		t.Fatalf("Lookup = %+v, %v", entry, err)
	}

	if err := registry.Seed(ctx, []config.ApprovedUserSeed{{Email: "x@un.org", Role: "root"}}); err == nil {
		t.Error("unknown role should fail seeding")
	}
	if err := registry.Seed(ctx, []config.ApprovedUserSeed{{Email: "nope", Role: "User"}}); err == nil {
		t.Error("invalid email should fail seeding")
	}
}
