package impl

import (
	"context"
	"net/http"
	"testing"

	domainerrors "gateway/internal/domain/errors"
	"gateway/internal/domain/service"
	"gateway/internal/usecase"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func requireAppError(t *testing.T, err error, want *domainerrors.BaseError) domainerrors.AppError {
	t.Helper()

	require.Error(t, err)
	require.True(t, errors.Is(err, want), "got %v, want %v", err, want)

	var appErr domainerrors.AppError
	require.True(t, errors.As(err, &appErr))

	return appErr
}

func TestAuthService_Register_Errors(t *testing.T) {
	tests := []struct {
		name        string
		resp        *service.ProviderResponse
		err         error
		want        *domainerrors.BaseError
		wantDetails string
	}{
		{
			name: "user without identities",
			resp: &service.ProviderResponse{User: newProviderUser("user-1", "a@b.com")},
			want: domainerrors.ErrAccountExists,
		},
		{
			name: "user without identities wins over error",
			resp: &service.ProviderResponse{User: newProviderUser("user-1", "a@b.com")},
			err:  &service.ProviderError{Status: http.StatusInternalServerError, Message: "boom"},
			want: domainerrors.ErrAccountExists,
		},
		{
			name: "duplicate reported by code",
			err:  &service.ProviderError{Status: http.StatusUnprocessableEntity, Code: "user_already_exists", Message: "User already registered"},
			want: domainerrors.ErrAccountExists,
		},
		{
			name: "duplicate reported by message",
			err:  &service.ProviderError{Status: http.StatusBadRequest, Message: "User already registered"},
			want: domainerrors.ErrAccountExists,
		},
		{
			name:        "weak password",
			err:         &service.ProviderError{Status: http.StatusUnprocessableEntity, Code: "weak_password", Message: "Password should be at least 6 characters."},
			want:        domainerrors.ErrProviderUnavailable,
			wantDetails: "Password should be at least 6 characters.",
		},
		{
			name:        "provider unreachable",
			err:         &service.ProviderError{Message: "dial tcp: connection refused"},
			want:        domainerrors.ErrProviderUnavailable,
			wantDetails: "dial tcp: connection refused",
		},
		{
			name:        "undecodable response",
			err:         errors.New("failed to decode provider response"),
			want:        domainerrors.ErrProviderUnavailable,
			wantDetails: "unexpected provider response",
		},
		{
			name:        "neither user nor error",
			resp:        &service.ProviderResponse{},
			want:        domainerrors.ErrProviderUnavailable,
			wantDetails: "inconsistent response",
		},
		{
			name:        "nil response",
			want:        domainerrors.ErrProviderUnavailable,
			wantDetails: "inconsistent response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, provider := newTestAuthService(t)
			provider.EXPECT().SignUp(mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			result, err := srv.Register(context.Background(), &usecase.RegisterInput{Email: "a@b.com", Password: "password123"})

			assert.Nil(t, result)
			appErr := requireAppError(t, err, tt.want)
			if tt.wantDetails != "" {
				assert.Equal(t, tt.wantDetails, appErr.Details())
			}
		})
	}
}

func TestAuthService_Authenticate_Errors(t *testing.T) {
	user := newProviderUser("user-1", "a@b.com", "email")

	tests := []struct {
		name        string
		resp        *service.ProviderResponse
		err         error
		want        *domainerrors.BaseError
		wantDetails string
	}{
		{
			name: "invalid login credentials",
			err:  &service.ProviderError{Status: http.StatusBadRequest, Message: "Invalid login credentials"},
			want: domainerrors.ErrInvalidCredentials,
		},
		{
			name: "invalid credentials code",
			err:  &service.ProviderError{Status: http.StatusBadRequest, Code: "invalid_credentials", Message: "Invalid credentials"},
			want: domainerrors.ErrInvalidCredentials,
		},
		{
			name: "email not confirmed",
			err:  &service.ProviderError{Status: http.StatusBadRequest, Message: "Email not confirmed"},
			want: domainerrors.ErrEmailNotConfirmed,
		},
		{
			name:        "rate limited by provider",
			err:         &service.ProviderError{Status: http.StatusTooManyRequests, Message: "Request rate limit reached"},
			want:        domainerrors.ErrProviderUnavailable,
			wantDetails: "Request rate limit reached",
		},
		{
			name:        "missing session",
			resp:        &service.ProviderResponse{User: user},
			want:        domainerrors.ErrProviderUnavailable,
			wantDetails: "inconsistent response",
		},
		{
			name:        "missing user",
			resp:        &service.ProviderResponse{Session: newProviderSession(nil)},
			want:        domainerrors.ErrProviderUnavailable,
			wantDetails: "inconsistent response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, provider := newTestAuthService(t)
			provider.EXPECT().SignInWithPassword(mock.Anything, mock.Anything).Return(tt.resp, tt.err)

			result, err := srv.Authenticate(context.Background(), &usecase.AuthenticateInput{Email: "a@b.com", Password: "password123"})

			assert.Nil(t, result)
			appErr := requireAppError(t, err, tt.want)
			if tt.wantDetails != "" {
				assert.Equal(t, tt.wantDetails, appErr.Details())
			}
		})
	}
}

func TestAuthService_Invalidate_Errors(t *testing.T) {
	t.Run("provider failure is surfaced", func(t *testing.T) {
		srv, provider := newTestAuthService(t)
		provider.EXPECT().SignOut(mock.Anything, "access-token").
			Return(&service.ProviderError{Status: http.StatusInternalServerError, Message: "database unavailable"}).Once()

		err := srv.Invalidate(context.Background(), "access-token")

		appErr := requireAppError(t, err, domainerrors.ErrProviderUnavailable)
		assert.Equal(t, "database unavailable", appErr.Details())
	})

	t.Run("provider rejection is not a sign out", func(t *testing.T) {
		srv, provider := newTestAuthService(t)
		provider.EXPECT().SignOut(mock.Anything, "access-token").
			Return(&service.ProviderError{Status: http.StatusUnauthorized, Message: "Invalid API key"}).Once()

		err := srv.Invalidate(context.Background(), "access-token")

		appErr := requireAppError(t, err, domainerrors.ErrProviderUnavailable)
		assert.Equal(t, "Invalid API key", appErr.Details())
	})

	t.Run("no access token", func(t *testing.T) {
		srv, _ := newTestAuthService(t)

		err := srv.Invalidate(context.Background(), "")

		requireAppError(t, err, domainerrors.ErrUnauthorized)
	})
}

func TestAuthService_Refresh_Errors(t *testing.T) {
	tests := []struct {
		name string
		resp *service.ProviderResponse
		err  error
		want *domainerrors.BaseError
	}{
		{
			name: "provider status 401",
			err:  &service.ProviderError{Status: http.StatusUnauthorized, Message: "Unauthorized"},
			want: domainerrors.ErrInvalidRefreshToken,
		},
		{
			name: "invalid refresh token message",
			err:  &service.ProviderError{Status: http.StatusBadRequest, Message: "Invalid Refresh Token: Refresh Token Not Found"},
			want: domainerrors.ErrInvalidRefreshToken,
		},
		{
			name: "refresh token not found code",
			err:  &service.ProviderError{Status: http.StatusBadRequest, Code: "refresh_token_not_found", Message: "Refresh token not found"},
			want: domainerrors.ErrInvalidRefreshToken,
		},
		{
			name: "provider unreachable",
			err:  &service.ProviderError{Message: "context deadline exceeded"},
			want: domainerrors.ErrProviderUnavailable,
		},
		{
			name: "missing session",
			resp: &service.ProviderResponse{User: newProviderUser("user-1", "a@b.com", "email")},
			want: domainerrors.ErrProviderUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, provider := newTestAuthService(t)
			provider.EXPECT().RefreshSession(mock.Anything, "refresh-token").Return(tt.resp, tt.err)

			result, err := srv.Refresh(context.Background(), &usecase.RefreshInput{RefreshToken: "refresh-token"})

			assert.Nil(t, result)
			requireAppError(t, err, tt.want)
		})
	}
}
