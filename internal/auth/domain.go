package auth

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticatable account.
type User struct {
	ID           uuid.UUID
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
