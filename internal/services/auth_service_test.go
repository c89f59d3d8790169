package services

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/kyuho-lee/asset-manager-sub000/internal/auth"
	"github.com/kyuho-lee/asset-manager-sub000/internal/models"
	pkgauth "github.com/kyuho-lee/asset-manager-sub000/pkg/auth"
	pkglogger "github.com/kyuho-lee/asset-manager-sub000/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testPassword  = "CorrectHorse1!"
	testUserID    = "user-123"
	testUserEmail = "user@example.com"
)

func newTestHasher() *pkgauth.Hasher {
	return pkgauth.NewHasher(4, 4) // low cost keeps tests fast
}

func newTestAuthService(users UserRepository, store *memAttemptStore) *AuthService {
	logger := slog.Default()
	return NewAuthService(
		users,
		NewLockoutService(store, DefaultLockoutConfig(), logger),
		&MockTokenIssuer{},
		newTestHasher(),
		auth.NewTimingDelay(auth.TimingConfig{}), // zero delay in tests
		logger,
		pkglogger.NewAuditLogger(logger),
	)
}

func storedUser(t *testing.T, hasher *pkgauth.Hasher) *models.User {
	t.Helper()
	hash, err := hasher.Hash(testPassword)
	require.NoError(t, err)
	return &models.User{
		ID:           testUserID,
		Name:         "Jane Doe",
		Email:        testUserEmail,
		PasswordHash: hash,
		CreatedAt:    time.Now(),
	}
}

// ----------------------------------------------------------------------------
// Signup
// ----------------------------------------------------------------------------

func TestAuthService_Signup_Success(t *testing.T) {
	var created *models.User
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			user.ID = testUserID
			user.CreatedAt = time.Now()
			created = user
			return user, nil
		},
	}

	svc := newTestAuthService(users, newMemAttemptStore())

	user, err := svc.Signup(context.Background(), "Jane Doe", "User@Example.com ", testPassword)
	require.NoError(t, err)
	require.NotNil(t, created)

	assert.Equal(t, testUserID, user.ID)
	assert.Equal(t, "user@example.com", created.Email, "email should be normalized")
	assert.NotEqual(t, testPassword, created.PasswordHash, "password must be hashed before storage")
	assert.NotEmpty(t, created.PasswordHash)
}

func TestAuthService_Signup_InvalidFields(t *testing.T) {
	svc := newTestAuthService(&MockUserRepository{}, newMemAttemptStore())
	ctx := context.Background()

	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"short name", "J", testUserEmail, testPassword},
		{"bad email", "Jane Doe", "not-an-email", testPassword},
		{"weak password", "Jane Doe", testUserEmail, "abcdefgh"},
		{"short password", "Jane Doe", testUserEmail, "Ab1!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Signup(ctx, tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, models.ErrBadRequest)
		})
	}
}

func TestAuthService_Signup_DuplicateEmail(t *testing.T) {
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: "existing"}, nil
		},
	}

	svc := newTestAuthService(users, newMemAttemptStore())

	_, err := svc.Signup(context.Background(), "Jane Doe", testUserEmail, testPassword)
	assert.ErrorIs(t, err, models.ErrConflict)
}

func TestAuthService_Signup_ConcurrentDuplicateFromStorage(t *testing.T) {
	// The existence check passed, but the unique index caught a concurrent
	// duplicate insert.
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return nil, models.ErrNotFound
		},
		CreateFunc: func(ctx context.Context, user *models.User) (*models.User, error) {
			return nil, models.ErrConflict
		},
	}

	svc := newTestAuthService(users, newMemAttemptStore())

	_, err := svc.Signup(context.Background(), "Jane Doe", testUserEmail, testPassword)
	assert.ErrorIs(t, err, models.ErrConflict)
}

// ----------------------------------------------------------------------------
// Login
// ----------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	touched := false
	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		TouchLastLoginFunc: func(ctx context.Context, id string, at time.Time) error {
			touched = true
			assert.Equal(t, testUserID, id)
			return nil
		},
	}

	store := newMemAttemptStore()
	svc := newTestAuthService(users, store)
	svc.hasher = hasher

	result, err := svc.Login(context.Background(), testUserEmail, testPassword)
	require.NoError(t, err)

	assert.Equal(t, "token-"+testUserID, result.Token)
	assert.Equal(t, models.Principal{ID: testUserID, Email: testUserEmail, Name: "Jane Doe"}, result.Principal)
	assert.True(t, touched, "last login should be refreshed")
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(users, newMemAttemptStore())
	svc.hasher = hasher

	_, err := svc.Login(context.Background(), testUserEmail, "WrongPass1!")

	var credErr *models.CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, 4, credErr.RemainingAttempts)
}

func TestAuthService_Login_UnknownEmailCounts(t *testing.T) {
	users := &MockUserRepository{} // GetByEmail defaults to ErrNotFound

	store := newMemAttemptStore()
	svc := newTestAuthService(users, store)
	ctx := context.Background()

	_, err := svc.Login(ctx, "ghost@example.com", testPassword)

	var credErr *models.CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, 4, credErr.RemainingAttempts)

	rec, rerr := store.Get(ctx, "ghost@example.com")
	require.NoError(t, rerr)
	require.NotNil(t, rec, "unknown emails must be counted too")
	assert.Equal(t, 1, rec.AttemptCount)
}

func TestAuthService_Login_FifthFailureEscalatesToLock(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(users, newMemAttemptStore())
	svc.hasher = hasher
	ctx := context.Background()

	for i := 1; i <= 4; i++ {
		_, err := svc.Login(ctx, testUserEmail, "WrongPass1!")
		var credErr *models.CredentialsError
		require.ErrorAs(t, err, &credErr, "failure %d", i)
		assert.Equal(t, 5-i, credErr.RemainingAttempts)
	}

	_, err := svc.Login(ctx, testUserEmail, "WrongPass1!")
	var lockedErr *models.LockedError
	require.ErrorAs(t, err, &lockedErr, "fifth failure escalates to lockout")
	assert.Equal(t, 30, lockedErr.RemainingMinutes)

	// Sixth attempt with the CORRECT password is still rejected
	_, err = svc.Login(ctx, testUserEmail, testPassword)
	require.ErrorAs(t, err, &lockedErr)
}

func TestAuthService_Login_ExpiredLockAllowsCorrectPassword(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	store := newMemAttemptStore()
	svc := newTestAuthService(users, store)
	svc.hasher = hasher
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, _ = svc.Login(ctx, testUserEmail, "WrongPass1!")
	}

	store.backdateLock(testUserEmail, time.Now().Add(-time.Second))

	result, err := svc.Login(ctx, testUserEmail, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.False(t, store.has(testUserEmail), "successful login clears the record fully")
}

func TestAuthService_Login_SuccessClearsPartialCount(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
	}

	store := newMemAttemptStore()
	svc := newTestAuthService(users, store)
	svc.hasher = hasher
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, _ = svc.Login(ctx, testUserEmail, "WrongPass1!")
	}

	_, err := svc.Login(ctx, testUserEmail, testPassword)
	require.NoError(t, err)

	// A new failure starts over at 1, not at 4
	_, err = svc.Login(ctx, testUserEmail, "WrongPass1!")
	var credErr *models.CredentialsError
	require.ErrorAs(t, err, &credErr)
	assert.Equal(t, 4, credErr.RemainingAttempts)
}

func TestAuthService_Login_TouchLastLoginFailureDoesNotFailLogin(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	users := &MockUserRepository{
		GetByEmailFunc: func(ctx context.Context, email string) (*models.User, error) {
			return user, nil
		},
		TouchLastLoginFunc: func(ctx context.Context, id string, at time.Time) error {
			return errors.New("transient storage fault")
		},
	}

	svc := newTestAuthService(users, newMemAttemptStore())
	svc.hasher = hasher

	result, err := svc.Login(context.Background(), testUserEmail, testPassword)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
}

// ----------------------------------------------------------------------------
// ChangePassword
// ----------------------------------------------------------------------------

func TestAuthService_ChangePassword_Success(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	var storedHash string
	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
		UpdatePasswordFunc: func(ctx context.Context, id, passwordHash string) error {
			storedHash = passwordHash
			return nil
		},
	}

	svc := newTestAuthService(users, newMemAttemptStore())
	svc.hasher = hasher

	err := svc.ChangePassword(context.Background(), testUserID, testPassword, "NewSecret2@")
	require.NoError(t, err)

	require.NotEmpty(t, storedHash)
	assert.NoError(t, hasher.Compare(storedHash, "NewSecret2@"))
}

func TestAuthService_ChangePassword_WrongCurrent(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(users, newMemAttemptStore())
	svc.hasher = hasher

	err := svc.ChangePassword(context.Background(), testUserID, "WrongPass1!", "NewSecret2@")

	var credErr *models.CredentialsError
	assert.ErrorAs(t, err, &credErr)
}

func TestAuthService_ChangePassword_WeakNewPassword(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	svc := newTestAuthService(users, newMemAttemptStore())
	svc.hasher = hasher

	err := svc.ChangePassword(context.Background(), testUserID, testPassword, "abcdefgh")
	assert.ErrorIs(t, err, models.ErrBadRequest)
}

func TestAuthService_ChangePassword_UserGone(t *testing.T) {
	svc := newTestAuthService(&MockUserRepository{}, newMemAttemptStore())

	err := svc.ChangePassword(context.Background(), "missing", testPassword, "NewSecret2@")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestAuthService_ChangePassword_DoesNotTouchLockout(t *testing.T) {
	hasher := newTestHasher()
	user := storedUser(t, hasher)

	users := &MockUserRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*models.User, error) {
			return user, nil
		},
	}

	store := newMemAttemptStore()
	svc := newTestAuthService(users, store)
	svc.hasher = hasher

	_ = svc.ChangePassword(context.Background(), testUserID, "WrongPass1!", "NewSecret2@")

	assert.False(t, store.has(user.Email), "change-password failures must not feed the lockout tracker")
}
