package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account. Only the username is public; the hash never leaves
// the server.
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	IsActive     bool      `json:"is_active"`
}
