// Package entity holds the gateway's domain types. None of them are persisted:
// credentials and identity live for one request, users and sessions belong to
// the identity provider.
package entity

import "time"

// Credentials is an email/password pair submitted by a client.
type Credentials struct {
	Email    string
	Password string
}

// IdentityClaims is the verified payload of a provider-issued access token.
type IdentityClaims struct {
	Subject      string
	Email        string
	Audience     []string
	ExpiresAt    time.Time
	IssuedAt     *time.Time
	Role         string
	AppMetadata  map[string]any
	UserMetadata map[string]any
}

// Identity returns the request-scoped identity derived from the claims.
func (c *IdentityClaims) Identity() *IdentityContext {
	return &IdentityContext{
		ID:    c.Subject,
		Email: c.Email,
		Role:  c.Role,
	}
}

// IdentityContext is the authenticated principal attached to a request.
type IdentityContext struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

// User is the provider's user record, passed through opaquely.
type User struct {
	ID        string     `json:"id"`
	Email     string     `json:"email,omitempty"`
	Role      string     `json:"role,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Session is a provider-issued token pair.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at,omitempty"`
	TokenType    string `json:"token_type"`
	User         *User  `json:"user,omitempty"`
}

// AuthResult is the data half of a successful session exchange.
// Session is nil after a sign up that still awaits email confirmation.
type AuthResult struct {
	User    *User    `json:"user"`
	Session *Session `json:"session"`
}
