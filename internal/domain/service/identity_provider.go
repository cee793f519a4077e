package service

import (
	"context"
	"fmt"

	"gateway/internal/domain/entity"
)

// ProviderIdentity is one linked identity of a provider user.
type ProviderIdentity struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
}

// ProviderUser is the provider's view of a user. Identities is only used to
// detect sign ups for addresses that are already registered.
type ProviderUser struct {
	entity.User
	Identities []ProviderIdentity
}

// ProviderResponse is what the identity provider returned for an exchange.
// Either field may be nil; the caller decides whether that is consistent.
type ProviderResponse struct {
	User    *ProviderUser
	Session *entity.Session
}

// ProviderError is an error reported by the identity provider.
// Status is 0 when the provider could not be reached.
type ProviderError struct {
	Status  int
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("identity provider error (status %d, code %s): %s", e.Status, e.Code, e.Message)
	}

	return fmt.Sprintf("identity provider error (status %d): %s", e.Status, e.Message)
}

// IdentityProvider is the external identity provider's API.
// Errors describing a provider rejection are *ProviderError.
type IdentityProvider interface {
	// SignUp creates an account. The response may carry a user even when an
	// error is returned.
	SignUp(ctx context.Context, creds entity.Credentials) (*ProviderResponse, error)

	// SignInWithPassword exchanges credentials for a session.
	SignInWithPassword(ctx context.Context, creds entity.Credentials) (*ProviderResponse, error)

	// SignOut revokes the session that issued accessToken.
	SignOut(ctx context.Context, accessToken string) error

	// RefreshSession exchanges a refresh token for a new session.
	RefreshSession(ctx context.Context, refreshToken string) (*ProviderResponse, error)
}
