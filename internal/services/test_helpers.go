package services

import (
	"context"
	"sync"
	"time"

	"github.com/kyuho-lee/asset-manager-sub000/internal/models"
)

// MockUserRepository implements UserRepository for testing
type MockUserRepository struct {
	CreateFunc         func(ctx context.Context, user *models.User) (*models.User, error)
	GetByIDFunc        func(ctx context.Context, id string) (*models.User, error)
	GetByEmailFunc     func(ctx context.Context, email string) (*models.User, error)
	UpdatePasswordFunc func(ctx context.Context, id, passwordHash string) error
	TouchLastLoginFunc func(ctx context.Context, id string, at time.Time) error
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil, models.ErrInternalServer
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, models.ErrNotFound
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockUserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if m.TouchLastLoginFunc != nil {
		return m.TouchLastLoginFunc(ctx, id, at)
	}
	return nil
}

// MockNotifier implements Notifier for testing and records deliveries
type MockNotifier struct {
	SendFunc func(ctx context.Context, to, subject, body string) error

	mu   sync.Mutex
	Sent []SentMail
}

// SentMail is one recorded delivery
type SentMail struct {
	To      string
	Subject string
	Body    string
}

func (m *MockNotifier) Send(ctx context.Context, to, subject, body string) error {
	if m.SendFunc != nil {
		if err := m.SendFunc(ctx, to, subject, body); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Sent = append(m.Sent, SentMail{To: to, Subject: subject, Body: body})
	m.mu.Unlock()
	return nil
}

// MockTokenIssuer implements TokenIssuer for testing
type MockTokenIssuer struct {
	IssueFunc func(p models.Principal) (string, error)
}

func (m *MockTokenIssuer) Issue(p models.Principal) (string, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(p)
	}
	return "token-" + p.ID, nil
}

// memAttemptStore is an in-memory LoginAttemptRepository whose mutations
// are serialized by a mutex, mirroring the row-level atomicity of the SQL
// implementation. It lets the lockout state machine run for real in unit
// tests.
type memAttemptStore struct {
	mu      sync.Mutex
	records map[string]*models.LoginAttempt
}

func newMemAttemptStore() *memAttemptStore {
	return &memAttemptStore{records: make(map[string]*models.LoginAttempt)}
}

func (s *memAttemptStore) Get(ctx context.Context, email string) (*models.LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (s *memAttemptStore) RecordFailure(ctx context.Context, email string, threshold int, lockFor time.Duration) (*models.LoginAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	rec, ok := s.records[email]
	if !ok {
		rec = &models.LoginAttempt{Email: email}
		s.records[email] = rec
	}

	if rec.AttemptCount < threshold {
		rec.AttemptCount++
	}
	rec.LastAttemptAt = now

	if rec.AttemptCount >= threshold && rec.LockedUntil == nil {
		until := now.Add(lockFor)
		rec.LockedUntil = &until
	}

	cp := *rec
	return &cp, nil
}

func (s *memAttemptStore) ResetIfExpired(ctx context.Context, email string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[email]
	if !ok || rec.LockedUntil == nil || rec.LockedUntil.After(now) {
		return false, nil
	}

	rec.AttemptCount = 0
	rec.LockedUntil = nil
	return true, nil
}

func (s *memAttemptStore) Delete(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, email)
	return nil
}

// has reports whether a record exists at all, for asserting full deletion.
func (s *memAttemptStore) has(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.records[email]
	return ok
}

// backdateLock rewinds an active lock so expiry paths can be tested
// without sleeping.
func (s *memAttemptStore) backdateLock(email string, to time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec, ok := s.records[email]; ok && rec.LockedUntil != nil {
		rec.LockedUntil = &to
	}
}
