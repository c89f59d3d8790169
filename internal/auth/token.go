package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kyuho-lee/asset-manager-sub000/internal/models"
)

// TokenManager issues and verifies signed session tokens. The symmetric
// secret is loaded once at startup and never rotated at runtime; tokens are
// self-contained, so there is no revocation before expiry.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a new TokenManager
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Issue signs a session token embedding the principal and an expiry derived
// from the configured TTL.
func (tm *TokenManager) Issue(p models.Principal) (string, error) {
	now := time.Now()

	claims := &models.SessionClaims{
		Email: p.Email,
		Name:  p.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Verify checks the signature and expiry of a token and returns the
// embedded principal. The error is one of ErrTokenMissing (empty token),
// ErrTokenExpired (valid signature, past expiry), or ErrTokenInvalid
// (anything else).
func (tm *TokenManager) Verify(tokenString string) (models.Principal, error) {
	if tokenString == "" {
		return models.Principal{}, models.ErrTokenMissing
	}

	claims := &models.SessionClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.Principal{}, models.ErrTokenExpired
		}
		return models.Principal{}, models.ErrTokenInvalid
	}

	if !token.Valid || claims.Subject == "" {
		return models.Principal{}, models.ErrTokenInvalid
	}

	return claims.Principal(), nil
}
