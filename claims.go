package accounts

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenUseAccess marks short-lived tokens presented on every request.
	TokenUseAccess = "access"
	// TokenUseRefresh marks long-lived tokens exchanged for fresh pairs.
	TokenUseRefresh = "refresh"
)

// SessionClaims is the JWT payload for both halves of a session pair.
type SessionClaims struct {
	jwt.RegisteredClaims
	UID      string `json:"uid,omitempty"`
	TokenUse string `json:"use,omitempty"`
	Staff    bool   `json:"staff,omitempty"`
}

// AccountID returns the account identifier, falling back to the subject.
func (c *SessionClaims) AccountID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.RegisteredClaims.Subject
}

// Use returns the token use claim, defaulting to access for tokens minted
// before the claim existed.
func (c *SessionClaims) Use() string {
	if c.TokenUse == "" {
		return TokenUseAccess
	}
	return c.TokenUse
}

// Expires returns the expiration time
func (c *SessionClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *SessionClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
