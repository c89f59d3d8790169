package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kyuho-lee/asset-manager-sub000/internal/auth"
	"github.com/kyuho-lee/asset-manager-sub000/internal/models"
	pkgauth "github.com/kyuho-lee/asset-manager-sub000/pkg/auth"
	pkglogger "github.com/kyuho-lee/asset-manager-sub000/pkg/logger"
)

// UserRepository defines the credential-store operations the services need
type UserRepository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}

// TokenIssuer signs session tokens for authenticated principals
type TokenIssuer interface {
	Issue(p models.Principal) (string, error)
}

// AuthService composes credential storage, the lockout tracker, and the
// session issuer behind signup, login, and change-password.
type AuthService struct {
	users   UserRepository
	lockout *LockoutService
	tokens  TokenIssuer
	hasher  *pkgauth.Hasher
	timing  *auth.TimingDelay
	logger  *slog.Logger
	audit   *pkglogger.AuditLogger
}

// NewAuthService creates a new AuthService
func NewAuthService(users UserRepository, lockout *LockoutService, tokens TokenIssuer, hasher *pkgauth.Hasher, timing *auth.TimingDelay, logger *slog.Logger, audit *pkglogger.AuditLogger) *AuthService {
	return &AuthService{
		users:   users,
		lockout: lockout,
		tokens:  tokens,
		hasher:  hasher,
		timing:  timing,
		logger:  logger,
		audit:   audit,
	}
}

// LoginResult carries the issued token and the principal it embeds
type LoginResult struct {
	Token     string           `json:"token"`
	Principal models.Principal `json:"user"`
}

// NormalizeEmail lower-cases and trims an email for storage and lookups
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Signup validates all fields, hashes the password, and creates the user.
// The plaintext password is never stored or logged.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)

	if !pkgauth.ValidateName(name) {
		return nil, fmt.Errorf("%w: name must be at least %d characters", models.ErrBadRequest, pkgauth.MinNameLen)
	}
	if !pkgauth.ValidateEmail(email) {
		return nil, fmt.Errorf("%w: email address is malformed", models.ErrBadRequest)
	}
	if err := pkgauth.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	// Early, user-friendly duplicate rejection; the unique index on
	// lower(email) still catches a concurrent duplicate signup.
	_, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return nil, models.ErrConflict
	}
	if !errors.Is(err, models.ErrNotFound) {
		s.logger.Error("failed to check for existing user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Error("failed to hash password", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	user, err := s.users.Create(ctx, &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			return nil, models.ErrConflict
		}
		s.logger.Error("failed to create user", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user signed up", slog.String("user_id", user.ID))
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "signup",
		UserID:    user.ID,
		Email:     user.Email,
		Success:   true,
	})

	return user, nil
}

// Login authenticates an email/password pair and issues a session token.
//
// Order matters: the lockout check runs before any credential work, every
// failure (including unknown emails) increments the counter, and only a
// verified success clears it.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	start := time.Now()
	email = NormalizeEmail(email)

	status, err := s.lockout.Check(ctx, email)
	if err != nil {
		s.logger.Error("lockout check failed", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	if status.Locked {
		s.audit.LogLockout(email, status.RemainingMinutes)
		return nil, &models.LockedError{RemainingMinutes: status.RemainingMinutes}
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			// Unknown emails are counted too, throttling probing of
			// unregistered addresses at the same rate.
			return nil, s.loginFailure(ctx, start, email, "", "unknown_email")
		}
		s.logger.Error("failed to get user by email", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if err := s.hasher.Compare(user.PasswordHash, password); err != nil {
		return nil, s.loginFailure(ctx, start, email, user.ID, "wrong_password")
	}

	if err := s.lockout.RecordSuccess(ctx, email); err != nil {
		s.logger.Error("failed to clear login attempts", slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	now := time.Now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		// The login itself already succeeded; credential and lockout state
		// are consistent, so a stale timestamp is not worth failing over.
		s.logger.Error("failed to refresh last login time",
			slog.String("user_id", user.ID), slog.Any("error", err))
	}

	principal := models.Principal{ID: user.ID, Email: user.Email, Name: user.Name}

	token, err := s.tokens.Issue(principal)
	if err != nil {
		s.logger.Error("failed to issue session token",
			slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.logger.Info("user logged in", slog.String("user_id", user.ID))
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType: "login",
		UserID:    user.ID,
		Email:     user.Email,
		Success:   true,
	})

	return &LoginResult{Token: token, Principal: principal}, nil
}

// loginFailure records the failed attempt and builds the caller-facing
// error, escalating to LockedError exactly when this failure trips the
// lock. The timing delay runs last so both failure branches take a
// similar amount of time.
func (s *AuthService) loginFailure(ctx context.Context, start time.Time, email, userID, reason string) error {
	s.audit.LogAuthAttempt(pkglogger.AuditEvent{
		EventType:     "login",
		UserID:        userID,
		Email:         email,
		Success:       false,
		FailureReason: reason,
	})

	remaining, locked, err := s.lockout.RecordFailure(ctx, email)
	if err != nil {
		s.logger.Error("failed to record login failure", slog.Any("error", err))
		s.timing.WaitFrom(start, false)
		return &models.CredentialsError{RemainingAttempts: -1}
	}

	s.timing.WaitFrom(start, false)

	if locked != nil {
		s.audit.LogLockout(email, locked.RemainingMinutes)
		return &models.LockedError{RemainingMinutes: locked.RemainingMinutes}
	}

	return &models.CredentialsError{RemainingAttempts: remaining}
}

// ChangePassword verifies the current password for the acting user and
// stores a new hash. Lockout state is untouched.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		s.logger.Error("failed to get user for password change",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.hasher.Compare(user.PasswordHash, currentPassword); err != nil {
		s.audit.LogCredentialChange("password_change", userID, false)
		return &models.CredentialsError{RemainingAttempts: -1}
	}

	if err := pkgauth.ValidatePassword(newPassword); err != nil {
		return fmt.Errorf("%w: %s", models.ErrBadRequest, err.Error())
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		s.logger.Error("failed to hash new password", slog.Any("error", err))
		return models.ErrInternalServer
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		s.logger.Error("failed to store new password",
			slog.String("user_id", userID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.audit.LogCredentialChange("password_change", userID, true)
	return nil
}
