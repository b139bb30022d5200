package models

import (
	"time"

	"github.com/google/uuid"
)

// Opaque refresh token as stored in db
type RefreshToken struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Token     string
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time // nil if token not used
}

func (t RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

type IssuedToken struct {
	Value     string
	ExpiresAt time.Time
}

// Token pair issued by TokenManager for exactly one user
// Access authorizes requests, refresh renews the pair
type TokenPair struct {
	Access  IssuedToken
	Refresh IssuedToken
}
