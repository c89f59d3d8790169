package auth

import (
	"fmt"
	"runtime"

	"golang.org/x/crypto/bcrypt"
)

// Hasher wraps bcrypt with a bound on concurrent hash computations. Hashing
// is deliberately CPU-expensive; the semaphore keeps a burst of logins from
// monopolizing every CPU while other requests are being served. Callers
// block until a slot frees up, never poll.
type Hasher struct {
	cost  int
	slots chan struct{}
}

// NewHasher creates a Hasher with the given bcrypt cost. maxConcurrent <= 0
// defaults to GOMAXPROCS.
func NewHasher(cost, maxConcurrent int) *Hasher {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	if maxConcurrent <= 0 {
		maxConcurrent = runtime.GOMAXPROCS(0)
	}
	return &Hasher{
		cost:  cost,
		slots: make(chan struct{}, maxConcurrent),
	}
}

// Hash computes the bcrypt hash of a password.
func (h *Hasher) Hash(password string) (string, error) {
	if password == "" {
		return "", fmt.Errorf("password cannot be empty")
	}

	h.slots <- struct{}{}
	defer func() { <-h.slots }()

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Compare verifies a candidate password against a stored hash. bcrypt's
// comparison is constant-time with respect to the hash contents.
func (h *Hasher) Compare(hashedPassword, candidate string) error {
	h.slots <- struct{}{}
	defer func() { <-h.slots }()

	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(candidate))
}
