package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/magiclink-auth/internal/domain"
)

// UserRepository defines persistence access for verified users.
type UserRepository interface {
	// Upsert returns the user for email, creating it with role when absent.
	// Concurrent calls for one email converge on a single row.
	Upsert(ctx context.Context, id, email string, role domain.Role, now time.Time) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// ChangeRole applies change only if the user still holds change.OldRole and
	// records the audit row in the same transaction.
	ChangeRole(ctx context.Context, change *domain.RoleChange) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

func (r *userRepository) Upsert(ctx context.Context, id, email string, role domain.Role, now time.Time) (*domain.User, error) {
	// The no-op DO UPDATE makes RETURNING yield the existing row on conflict.
	const query = `
        INSERT INTO users (id, email, role, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $4)
        ON CONFLICT (email) DO UPDATE SET email=EXCLUDED.email
        RETURNING id, email, role, created_at, updated_at`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id, email, role, now).Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `
        SELECT id, email, role, created_at, updated_at
        FROM users WHERE id=$1`

	var user domain.User
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *userRepository) ChangeRole(ctx context.Context, change *domain.RoleChange) (*domain.User, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateQuery = `
        UPDATE users SET role=$3, updated_at=$4
        WHERE id=$1 AND role=$2
        RETURNING id, email, role, created_at, updated_at`

	var user domain.User
	if err := tx.QueryRow(ctx, updateQuery, change.UserID, change.OldRole, change.NewRole, change.ChangedAt).Scan(
		&user.ID,
		&user.Email,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		if notFound(err) == ErrNotFound {
			return nil, ErrConflict
		}
		return nil, err
	}

	const auditQuery = `
        INSERT INTO role_changes (id, user_id, actor_id, old_role, new_role, changed_at)
        VALUES ($1,$2,$3,$4,$5,$6)`
	if _, err := tx.Exec(ctx, auditQuery,
		change.ID,
		change.UserID,
		change.ActorID,
		change.OldRole,
		change.NewRole,
		change.ChangedAt,
	); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return &user, nil
}
