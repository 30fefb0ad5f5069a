package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. PasswordHash is a bcrypt hash
// and never leaves the repository layer.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Confirmed    bool      `json:"confirmed"`
	CreatedAt    time.Time `json:"created_at"`
}
