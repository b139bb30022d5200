package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/nkiryanov/eshop/internal/models"
)

type CreateUserParams struct {
	Email          string
	FirstName      string
	LastName       string
	HashedPassword string
}

// User repository interface
type UserRepo interface {
	// Create user
	// If user with the email exists already has to return apperrors.ErrUserAlreadyExists
	CreateUser(ctx context.Context, params CreateUserParams) (models.User, error)

	// Get user by it's id or email
	// If user not found must return apperrors.ErrUserNotFound
	GetUserByID(ctx context.Context, userID uuid.UUID) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)

	// Replace stored password hash
	// If user not found must return apperrors.ErrUserNotFound
	SetPasswordHash(ctx context.Context, userID uuid.UUID, hashedPassword string) error
}

// RefreshToken repository interface
type RefreshTokenRepo interface {
	Save(ctx context.Context, token models.RefreshToken) (models.RefreshToken, error)

	// Return the token if it exists, even used or expired one
	// If not found must return apperrors.ErrRefreshTokenNotFound
	Get(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Return the token and mark it used
	// If the token is already used must not overwrite 'usedAt' and return apperrors.ErrRefreshTokenIsUsed
	GetAndMarkUsed(ctx context.Context, tokenString string) (models.RefreshToken, error)

	// Delete tokens expired before the moment, return number of deleted tokens
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Short lived key-value storage with per key expiration
type CodeRepo interface {
	// Store value under the key, overwrite existing one
	Set(ctx context.Context, key string, value string, ttl time.Duration) error

	// Return not expired value
	// If key is absent or expired must return apperrors.ErrCodeNotFound
	Get(ctx context.Context, key string) (string, error)

	// Same as Get, but delete the key atomically
	Take(ctx context.Context, key string) (string, error)

	// Delete expired keys, return number of deleted keys
	DeleteExpired(ctx context.Context) (int64, error)
}

type Storage interface {
	User() UserRepo
	Refresh() RefreshTokenRepo
	Codes() CodeRepo

	// Run fn in transaction. Commit if fn returns nil, rollback otherwise
	InTx(ctx context.Context, fn func(Storage) error) error
}
