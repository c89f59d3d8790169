package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Principal is the authenticated identity carried inside a session token.
type Principal struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// SessionClaims is the JWT claim set for a session token. Validity is
// entirely a function of the signature and expiry; there is no server-side
// session table and no revocation before expiry.
type SessionClaims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	jwt.RegisteredClaims
}

// Principal extracts the embedded principal from the claims.
func (c *SessionClaims) Principal() Principal {
	return Principal{
		ID:    c.Subject,
		Email: c.Email,
		Name:  c.Name,
	}
}
