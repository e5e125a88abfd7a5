package service

import (
	"context"
	"testing"
	"time"

	"github.com/spec-kit/magiclink-auth/internal/domain"
)

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, err := h.identity.UpsertUser(ctx, "user@un.org", domain.RoleUser)
	if err != nil {
		t.Fatal(err)
	}

	cred, err := h.sessionSvc.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}
	got, err := h.sessionSvc.CurrentUser(ctx, cred.Value)
	if err != nil || got == nil || got.ID != user.ID || got.Role != domain.RoleUser {
		t.Fatalf("CurrentUser = %+v, %v", got, err)
	}

	if err := h.sessionSvc.ClearSession(ctx, cred.Value); err != nil {
		t.Fatal(err)
	}
	if err := h.sessionSvc.ClearSession(ctx, cred.Value); err != nil {
		t.Errorf("second clear should be a no-op: %v", err)
	}
	if got, err := h.sessionSvc.CurrentUser(ctx, cred.Value); got != nil || err != nil {
		t.Errorf("replayed cleared credential = %+v, %v", got, err)
	}
}

func TestSessionExpires(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, _ := h.identity.UpsertUser(ctx, "user@un.org", domain.RoleUser)
	cred, err := h.sessionSvc.CreateSession(ctx, user.ID)
	if err != nil {
		t.Fatal(err)
	}

	h.clock.Advance(24 * time.Hour)
	if got, err := h.sessionSvc.CurrentUser(ctx, cred.Value); got != nil || err != nil {
		t.Errorf("expired session = %+v, %v", got, err)
	}
	if err := h.sessionSvc.ClearSession(ctx, cred.Value); err != nil {
		t.Errorf("clearing an expired session should not fail: %v", err)
	}
}

func TestCurrentUserRejectsBadCredentials(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for _, cred := range []string{"", "garbage", "a.b.c"} {
		if got, err := h.sessionSvc.CurrentUser(ctx, cred); got != nil || err != nil {
			t.Errorf("CurrentUser(%q) = %+v, %v", cred, got, err)
		}
	}
}

func TestCurrentUserDeletedUser(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, _ := h.identity.UpsertUser(ctx, "user@un.org", domain.RoleUser)
	cred, _ := h.sessionSvc.CreateSession(ctx, user.ID)

	h.users.Delete(user.ID)
	if got, err := h.sessionSvc.CurrentUser(ctx, cred.Value); got != nil || err != nil {
		t.Errorf("session of deleted user = %+v, %v", got, err)
	}
}

func TestSessionsAreIndependentPerDevice(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	user, _ := h.identity.UpsertUser(ctx, "user@un.org", domain.RoleUser)

	laptop, _ := h.sessionSvc.CreateSession(ctx, user.ID)
	phone, _ := h.sessionSvc.CreateSession(ctx, user.ID)
	if laptop.SessionID == phone.SessionID {
		t.Fatal("sessions must have distinct ids")
	}

	_ = h.sessionSvc.ClearSession(ctx, laptop.Value)
	if got, _ := h.sessionSvc.CurrentUser(ctx, phone.Value); got == nil {
		t.Error("clearing one session must not revoke the other")
	}
}
