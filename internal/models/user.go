package models

import (
	"time"

	"github.com/google/uuid"
)

// Account identified by its email
type User struct {
	ID             uuid.UUID
	CreatedAt      time.Time
	Email          string
	FirstName      string
	LastName       string
	HashedPassword string
}
