package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/magiclink-auth/internal/domain"
)

// ApprovedUserRepository is the read side of the allow-list plus the seeding hook
// used at boot.
type ApprovedUserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.ApprovedUser, error)
	Upsert(ctx context.Context, user *domain.ApprovedUser) error
}

type approvedUserRepository struct {
	pool *pgxpool.Pool
}

// NewApprovedUserRepository returns a Postgres-backed implementation.
func NewApprovedUserRepository(pool *pgxpool.Pool) ApprovedUserRepository {
	return &approvedUserRepository{pool: pool}
}

func (r *approvedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.ApprovedUser, error) {
	const query = `
        SELECT email, role FROM approved_users WHERE email=$1`

	var user domain.ApprovedUser
	if err := r.pool.QueryRow(ctx, query, email).Scan(&user.Email, &user.Role); err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

func (r *approvedUserRepository) Upsert(ctx context.Context, user *domain.ApprovedUser) error {
	const query = `
        INSERT INTO approved_users (email, role)
        VALUES ($1, $2)
        ON CONFLICT (email) DO UPDATE SET role=EXCLUDED.role`

	_, err := r.pool.Exec(ctx, query, user.Email, user.Role)
	return err
}
