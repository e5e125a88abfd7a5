package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/magiclink-auth/internal/domain"
)

// MagicTokenRepository manages magic token persistence.
type MagicTokenRepository interface {
	// Create inserts a token. With supersede set, earlier live tokens for the
	// same email stop being valid.
	Create(ctx context.Context, token *domain.MagicToken, supersede bool) error
	// CreateIfNoRecent runs the cooldown check and Create as one step serialized
	// per email. It reports false, without inserting, when a live token was
	// issued after since.
	CreateIfNoRecent(ctx context.Context, token *domain.MagicToken, since time.Time, supersede bool) (bool, error)
	RecentExists(ctx context.Context, email string, since, now time.Time) (bool, error)
	// Consume marks a live token consumed and returns its email. A token that is
	// unknown, consumed, superseded or expired yields ErrNotFound.
	Consume(ctx context.Context, tokenHash []byte, now time.Time) (string, error)
	// DeleteExpired removes tokens expired at before plus every consumed or
	// superseded token; none of them can be used again.
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

type magicTokenRepository struct {
	pool *pgxpool.Pool
}

// NewMagicTokenRepository constructs repository.
func NewMagicTokenRepository(pool *pgxpool.Pool) MagicTokenRepository {
	return &magicTokenRepository{pool: pool}
}

const recentExistsQuery = `
        SELECT EXISTS (
            SELECT 1 FROM magic_tokens
            WHERE email=$1 AND consumed_at IS NULL AND superseded_at IS NULL
              AND expires_at > $3 AND issued_at > $2)`

func (r *magicTokenRepository) Create(ctx context.Context, token *domain.MagicToken, supersede bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if err := insertToken(ctx, tx, token, supersede); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *magicTokenRepository) CreateIfNoRecent(ctx context.Context, token *domain.MagicToken, since time.Time, supersede bool) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, token.Email); err != nil {
		return false, err
	}

	var recent bool
	if err := tx.QueryRow(ctx, recentExistsQuery, token.Email, since, token.IssuedAt).Scan(&recent); err != nil {
		return false, err
	}
	if recent {
		return false, nil
	}

	if err := insertToken(ctx, tx, token, supersede); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

func insertToken(ctx context.Context, tx pgx.Tx, token *domain.MagicToken, supersede bool) error {
	if supersede {
		const supersedeQuery = `
            UPDATE magic_tokens SET superseded_at=$2
            WHERE email=$1 AND consumed_at IS NULL AND superseded_at IS NULL`
		if _, err := tx.Exec(ctx, supersedeQuery, token.Email, token.IssuedAt); err != nil {
			return err
		}
	}

	const insertQuery = `
        INSERT INTO magic_tokens (id, token_hash, email, issued_at, expires_at)
        VALUES ($1,$2,$3,$4,$5)`
	_, err := tx.Exec(ctx, insertQuery,
		token.ID,
		token.TokenHash,
		token.Email,
		token.IssuedAt,
		token.ExpiresAt,
	)
	return err
}

func (r *magicTokenRepository) RecentExists(ctx context.Context, email string, since, now time.Time) (bool, error) {
	var recent bool
	if err := r.pool.QueryRow(ctx, recentExistsQuery, email, since, now).Scan(&recent); err != nil {
		return false, err
	}
	return recent, nil
}

func (r *magicTokenRepository) Consume(ctx context.Context, tokenHash []byte, now time.Time) (string, error) {
	const query = `
        UPDATE magic_tokens SET consumed_at=$2
        WHERE token_hash=$1 AND consumed_at IS NULL AND superseded_at IS NULL AND expires_at > $2
        RETURNING email`

	var email string
	if err := r.pool.QueryRow(ctx, query, tokenHash, now).Scan(&email); err != nil {
		return "", notFound(err)
	}
	return email, nil
}

func (r *magicTokenRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	const query = `
        DELETE FROM magic_tokens
        WHERE expires_at <= $1 OR consumed_at IS NOT NULL OR superseded_at IS NOT NULL`

	cmd, err := r.pool.Exec(ctx, query, before)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
