package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/magiclink-auth/internal/domain"
)

// SessionRepository stores sessions keyed by session id.
type SessionRepository interface {
	Create(ctx context.Context, session *domain.Session) error
	// GetActive returns the session and its user when the session is neither
	// revoked nor expired at now and the user still exists.
	GetActive(ctx context.Context, id string, now time.Time) (*domain.Session, *domain.User, error)
	// Revoke is idempotent; revoking an absent or revoked session is not an error.
	Revoke(ctx context.Context, id string, now time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a Postgres-backed implementation.
func NewSessionRepository(pool *pgxpool.Pool) SessionRepository {
	return &sessionRepository{pool: pool}
}

func (r *sessionRepository) Create(ctx context.Context, session *domain.Session) error {
	const query = `
        INSERT INTO sessions (id, user_id, created_at, expires_at)
        VALUES ($1, $2, $3, $4)`

	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.CreatedAt,
		session.ExpiresAt,
	)
	return err
}

func (r *sessionRepository) GetActive(ctx context.Context, id string, now time.Time) (*domain.Session, *domain.User, error) {
	const query = `
        SELECT s.id, s.user_id, s.created_at, s.expires_at, s.revoked_at,
               u.id, u.email, u.role, u.created_at, u.updated_at
        FROM sessions s
        JOIN users u ON u.id = s.user_id
        WHERE s.id=$1 AND s.revoked_at IS NULL AND s.expires_at > $2`

	var (
		session domain.Session
		user    domain.User
	)
	if err := r.pool.QueryRow(ctx, query, id, now).Scan(
		&session.ID,
		&session.UserID,
		&session.CreatedAt,
		&session.ExpiresAt,
		&session.RevokedAt,
		&user.ID,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, nil, notFound(err)
	}
	return &session, &user, nil
}

func (r *sessionRepository) Revoke(ctx context.Context, id string, now time.Time) error {
	const query = `
        UPDATE sessions SET revoked_at=$2
        WHERE id=$1 AND revoked_at IS NULL`
	_, err := r.pool.Exec(ctx, query, id, now)
	return err
}

func (r *sessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `
        DELETE FROM sessions WHERE expires_at <= $1 OR revoked_at IS NOT NULL`

	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
