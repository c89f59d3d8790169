package models

import (
	"time"
)

// User is the identity record owned by the user repository. It is mutated
// on signup, password change, and password reset, and never hard-deleted
// by this service.
type User struct {
	ID           string
	Name         string
	Email        string // stored lower-cased, unique
	PasswordHash string
	CreatedAt    time.Time
	LastLoginAt  *time.Time
}
