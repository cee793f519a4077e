// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"gateway/internal/domain/entity"
)

// --- Input DTOs ---

// RegisterInput defines the data required to create an account.
type RegisterInput struct {
	Email    string
	Password string
}

// AuthenticateInput defines the data required to sign in.
type AuthenticateInput struct {
	Email    string
	Password string
}

// RefreshInput carries the refresh token of the session being renewed.
type RefreshInput struct {
	RefreshToken string
}

// AuthUsecase exchanges client credentials and tokens for provider sessions.
// Every returned error wraps one of the domain errors.
type AuthUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*entity.AuthResult, error)
	Authenticate(ctx context.Context, input *AuthenticateInput) (*entity.AuthResult, error)
	// Invalidate signs out the session that issued accessToken.
	Invalidate(ctx context.Context, accessToken string) error
	Refresh(ctx context.Context, input *RefreshInput) (*entity.AuthResult, error)
}
