package context

import (
	"context"

	"gateway/internal/domain/entity"
)

const (
	// KeyIdentity is the key for the authenticated identity.
	KeyIdentity ContextKey = "identity"

	// KeyAccessToken is the key for the verified bearer token.
	KeyAccessToken ContextKey = "access_token"
)

// WithIdentity returns a new context carrying the authenticated identity and
// the bearer token it was derived from.
func WithIdentity(ctx context.Context, identity *entity.IdentityContext, accessToken string) context.Context {
	ctx = context.WithValue(ctx, KeyIdentity, identity)

	return context.WithValue(ctx, KeyAccessToken, accessToken)
}

// GetIdentity returns the identity attached by the access guard.
func GetIdentity(ctx context.Context) (*entity.IdentityContext, bool) {
	identity, ok := ctx.Value(KeyIdentity).(*entity.IdentityContext)

	return identity, ok && identity != nil
}

// GetAccessToken returns the verified bearer token of the current request.
func GetAccessToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(KeyAccessToken).(string)

	return token, ok && token != ""
}
