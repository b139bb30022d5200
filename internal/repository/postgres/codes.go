package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/nkiryanov/eshop/internal/apperrors"
)

// CodeRepo keeps short lived codes in UNLOGGED 'otp_codes' table
// Expiration is evaluated by database clock
type CodeRepo struct {
	DB DBTX
}

const setCode = `-- name: SetCode
INSERT INTO otp_codes (key, value, expires_at)
VALUES ($1, $2, now() + $3::interval)
ON CONFLICT (key) DO UPDATE
SET value = EXCLUDED.value, expires_at = EXCLUDED.expires_at
`

func (r *CodeRepo) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %s", ttl)
	}

	_, err := r.DB.Exec(ctx, setCode, key, value, ttl)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

const getCode = `-- name: GetCode
SELECT value
FROM otp_codes
WHERE key = $1 AND expires_at > now()
`

func (r *CodeRepo) Get(ctx context.Context, key string) (string, error) {
	rows, _ := r.DB.Query(ctx, getCode, key)
	return collectCode(rows)
}

const takeCode = `-- name: TakeCode
DELETE FROM otp_codes
WHERE key = $1 AND expires_at > now()
RETURNING value
`

func (r *CodeRepo) Take(ctx context.Context, key string) (string, error) {
	rows, _ := r.DB.Query(ctx, takeCode, key)
	return collectCode(rows)
}

const deleteExpiredCodes = `-- name: DeleteExpiredCodes
DELETE FROM otp_codes
WHERE expires_at <= now()
`

func (r *CodeRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.DB.Exec(ctx, deleteExpiredCodes)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}

	return tag.RowsAffected(), nil
}

func collectCode(rows pgx.Rows) (string, error) {
	value, err := pgx.CollectOneRow(rows, pgx.RowTo[string])

	switch {
	case err == nil:
		return value, nil
	case errors.Is(err, pgx.ErrNoRows):
		return "", apperrors.ErrCodeNotFound
	default:
		return "", fmt.Errorf("db error: %w", err)
	}
}
