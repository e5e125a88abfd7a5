// Package memory holds in-process repository implementations. They back the
// service when no POSTGRES_DSN is configured and are used by tests. Each store
// serializes access with its own mutex, which gives the same per-row atomicity
// the Postgres implementations get from guarded updates.
package memory

import (
	"bytes"
	"context"
	"sync"
	"time"

	"github.com/spec-kit/magiclink-auth/internal/domain"
	"github.com/spec-kit/magiclink-auth/internal/repository"
)

// ApprovedUsers is an in-memory allow-list.
type ApprovedUsers struct {
	mu    sync.RWMutex
	users map[string]domain.ApprovedUser
}

// NewApprovedUsers builds an allow-list from entries with normalized emails.
func NewApprovedUsers(entries ...domain.ApprovedUser) *ApprovedUsers {
	a := &ApprovedUsers{users: make(map[string]domain.ApprovedUser, len(entries))}
	for _, e := range entries {
		a.users[e.Email] = e
	}
	return a
}

func (a *ApprovedUsers) GetByEmail(_ context.Context, email string) (*domain.ApprovedUser, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	u, ok := a.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (a *ApprovedUsers) Upsert(_ context.Context, user *domain.ApprovedUser) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[user.Email] = *user
	return nil
}

// Remove drops an entry from the allow-list.
func (a *ApprovedUsers) Remove(email string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.users, email)
}

// MagicTokens stores tokens keyed by hash.
type MagicTokens struct {
	mu     sync.Mutex
	tokens []*domain.MagicToken
}

// NewMagicTokens returns an empty token store.
func NewMagicTokens() *MagicTokens {
	return &MagicTokens{}
}

func (m *MagicTokens) Create(_ context.Context, token *domain.MagicToken, supersede bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(token, supersede)
	return nil
}

func (m *MagicTokens) CreateIfNoRecent(_ context.Context, token *domain.MagicToken, since time.Time, supersede bool) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.recentLocked(token.Email, since, token.IssuedAt) {
		return false, nil
	}
	m.insertLocked(token, supersede)
	return true, nil
}

func (m *MagicTokens) RecentExists(_ context.Context, email string, since, now time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recentLocked(email, since, now), nil
}

func (m *MagicTokens) Consume(_ context.Context, tokenHash []byte, now time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if !bytes.Equal(t.TokenHash, tokenHash) {
			continue
		}
		if !t.ValidAt(now) {
			return "", repository.ErrNotFound
		}
		consumed := now
		t.ConsumedAt = &consumed
		return t.Email, nil
	}
	return "", repository.ErrNotFound
}

func (m *MagicTokens) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.tokens[:0]
	var deleted int64
	for _, t := range m.tokens {
		if t.ConsumedAt != nil || t.SupersededAt != nil || !t.ExpiresAt.After(before) {
			deleted++
			continue
		}
		kept = append(kept, t)
	}
	m.tokens = kept
	return deleted, nil
}

// Len reports how many token rows are stored.
func (m *MagicTokens) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tokens)
}

func (m *MagicTokens) insertLocked(token *domain.MagicToken, supersede bool) {
	if supersede {
		for _, t := range m.tokens {
			if t.Email == token.Email && t.ConsumedAt == nil && t.SupersededAt == nil {
				at := token.IssuedAt
				t.SupersededAt = &at
			}
		}
	}
	stored := *token
	m.tokens = append(m.tokens, &stored)
}

func (m *MagicTokens) recentLocked(email string, since, now time.Time) bool {
	for _, t := range m.tokens {
		if t.Email == email && t.ValidAt(now) && t.IssuedAt.After(since) {
			return true
		}
	}
	return false
}

// Users stores verified identities.
type Users struct {
	mu      sync.RWMutex
	byID    map[string]*domain.User
	byEmail map[string]string
	changes []domain.RoleChange
}

// NewUsers returns an empty user store.
func NewUsers() *Users {
	return &Users{byID: make(map[string]*domain.User), byEmail: make(map[string]string)}
}

func (u *Users) Upsert(_ context.Context, id, email string, role domain.Role, now time.Time) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if existing, ok := u.byEmail[email]; ok {
		user := *u.byID[existing]
		return &user, nil
	}
	user := &domain.User{ID: id, Email: email, Role: role, CreatedAt: now, UpdatedAt: now}
	u.byID[id] = user
	u.byEmail[email] = id
	out := *user
	return &out, nil
}

func (u *Users) GetByID(_ context.Context, id string) (*domain.User, error) {
	u.mu.RLock()
	defer u.mu.RUnlock()
	user, ok := u.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := *user
	return &out, nil
}

func (u *Users) ChangeRole(_ context.Context, change *domain.RoleChange) (*domain.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[change.UserID]
	if !ok || user.Role != change.OldRole {
		return nil, repository.ErrConflict
	}
	user.Role = change.NewRole
	user.UpdatedAt = change.ChangedAt
	u.changes = append(u.changes, *change)
	out := *user
	return &out, nil
}

// Delete removes a user, as an administrator would outside the auth core.
func (u *Users) Delete(id string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if user, ok := u.byID[id]; ok {
		delete(u.byEmail, user.Email)
		delete(u.byID, id)
	}
}

// Count reports how many users exist.
func (u *Users) Count() int {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return len(u.byID)
}

// RoleChanges returns the recorded role transitions.
func (u *Users) RoleChanges() []domain.RoleChange {
	u.mu.RLock()
	defer u.mu.RUnlock()
	return append([]domain.RoleChange(nil), u.changes...)
}

// Sessions stores sessions and resolves their users through a Users store.
type Sessions struct {
	mu       sync.Mutex
	users    *Users
	sessions map[string]*domain.Session
}

// NewSessions returns an empty session store bound to users.
func NewSessions(users *Users) *Sessions {
	return &Sessions{users: users, sessions: make(map[string]*domain.Session)}
}

func (s *Sessions) Create(_ context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := *session
	s.sessions[session.ID] = &stored
	return nil
}

func (s *Sessions) GetActive(ctx context.Context, id string, now time.Time) (*domain.Session, *domain.User, error) {
	s.mu.Lock()
	session, ok := s.sessions[id]
	var out domain.Session
	if ok {
		out = *session
	}
	s.mu.Unlock()

	if !ok || out.StateAt(now) != domain.SessionActive {
		return nil, nil, repository.ErrNotFound
	}
	user, err := s.users.GetByID(ctx, out.UserID)
	if err != nil {
		return nil, nil, err
	}
	return &out, user, nil
}

func (s *Sessions) Revoke(_ context.Context, id string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok && session.RevokedAt == nil {
		at := now
		session.RevokedAt = &at
	}
	return nil
}

func (s *Sessions) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted int64
	for id, session := range s.sessions {
		if session.RevokedAt != nil || !session.ExpiresAt.After(before) {
			delete(s.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

var (
	_ repository.ApprovedUserRepository = (*ApprovedUsers)(nil)
	_ repository.MagicTokenRepository   = (*MagicTokens)(nil)
	_ repository.UserRepository         = (*Users)(nil)
	_ repository.SessionRepository      = (*Sessions)(nil)
)
