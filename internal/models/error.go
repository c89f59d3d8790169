package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure conditions
var (
	ErrNotFound       = errors.New("resource not found")
	ErrConflict       = errors.New("resource already exists")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")

	// Session token errors
	ErrTokenMissing = errors.New("authentication token missing")
	ErrTokenInvalid = errors.New("authentication token invalid")
	ErrTokenExpired = errors.New("authentication token expired")

	// Password reset errors
	ErrNotifyFailure = errors.New("notification delivery failed")
)

// CredentialsError is returned when email or password verification fails.
// RemainingAttempts tells the caller how many failures remain before the
// email locks; -1 means unknown (the failure could not be recorded).
type CredentialsError struct {
	RemainingAttempts int
}

func (e *CredentialsError) Error() string {
	if e.RemainingAttempts >= 0 {
		return fmt.Sprintf("invalid credentials (%d attempts remaining)", e.RemainingAttempts)
	}
	return "invalid credentials"
}

// LockedError is returned when an email is under an active lockout.
type LockedError struct {
	RemainingMinutes int
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("account locked, try again in %d minutes", e.RemainingMinutes)
}
