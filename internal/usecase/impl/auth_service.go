// Package impl contains the implementation of the application's business logic.
package impl

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	deliverycontext "gateway/internal/delivery/context"
	"gateway/internal/domain/entity"
	domainerrors "gateway/internal/domain/errors"
	"gateway/internal/domain/service"
	"gateway/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// Provider messages and codes with a meaning of their own. GoTrue reports
// them verbatim; newer versions add the machine codes.
const (
	msgInvalidLogin        = "Invalid login credentials"
	msgEmailNotConfirmed   = "Email not confirmed"
	msgUserRegistered      = "User already registered"
	msgInvalidRefreshToken = "invalid refresh token"

	codeInvalidCredentials   = "invalid_credentials"
	codeEmailNotConfirmed    = "email_not_confirmed"
	codeUserAlreadyExists    = "user_already_exists"
	codeEmailExists          = "email_exists"
	codeRefreshTokenNotFound = "refresh_token_not_found"
)

// authService implements the AuthUsecase interface on top of the identity provider.
type authService struct {
	provider service.IdentityProvider
	logger   *slog.Logger
}

// AuthServiceParams holds dependencies for AuthService, injected by Fx.
type AuthServiceParams struct {
	fx.In

	Provider service.IdentityProvider
	Logger   *slog.Logger
}

// NewAuthService is the constructor for authService.
func NewAuthService(params AuthServiceParams) usecase.AuthUsecase {
	return &authService{
		provider: params.Provider,
		logger:   params.Logger,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *authService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// Register creates an account at the provider.
func (srv *authService) Register(ctx context.Context, input *usecase.RegisterInput) (*entity.AuthResult, error) {
	srv.log(ctx).Debug("Starting registration", slog.String("email", input.Email))

	resp, err := srv.provider.SignUp(ctx, entity.Credentials{Email: input.Email, Password: input.Password})

	// The provider answers a sign up for a known address with a user that has
	// no identities, and no error.
	if resp != nil && resp.User != nil && len(resp.User.Identities) == 0 {
		srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", domainerrors.ErrAccountExists))

		return nil, errors.Wrap(domainerrors.ErrAccountExists, "registration failed")
	}

	if err != nil {
		if isDuplicateAccount(err) {
			srv.log(ctx).Warn("Registration failed", slog.String("email", input.Email), slog.Any("error", err))

			return nil, errors.Wrap(domainerrors.ErrAccountExists, "registration failed")
		}

		return nil, srv.providerFailure(ctx, "registration failed", err)
	}

	if resp == nil || resp.User == nil {
		return nil, srv.inconsistentResponse(ctx, "registration failed")
	}
	srv.log(ctx).Info("User registered",
		slog.String("user_id", resp.User.ID),
		slog.Bool("confirmation_pending", resp.Session == nil),
	)

	return &entity.AuthResult{
		User:    &resp.User.User,
		Session: resp.Session,
	}, nil
}

// Authenticate exchanges email and password for a session.
func (srv *authService) Authenticate(ctx context.Context, input *usecase.AuthenticateInput) (*entity.AuthResult, error) {
	srv.log(ctx).Debug("Starting sign in", slog.String("email", input.Email))

	resp, err := srv.provider.SignInWithPassword(ctx, entity.Credentials{Email: input.Email, Password: input.Password})
	if err != nil {
		var providerErr *service.ProviderError
		if errors.As(err, &providerErr) {
			switch {
			case providerErr.Message == msgInvalidLogin || providerErr.Code == codeInvalidCredentials:
				srv.log(ctx).Warn("Sign in failed", slog.String("email", input.Email), slog.Any("error", err))

				return nil, errors.Wrap(domainerrors.ErrInvalidCredentials, "sign in failed")
			case providerErr.Message == msgEmailNotConfirmed || providerErr.Code == codeEmailNotConfirmed:
				srv.log(ctx).Warn("Sign in failed", slog.String("email", input.Email), slog.Any("error", err))

				return nil, errors.Wrap(domainerrors.ErrEmailNotConfirmed, "sign in failed")
			}
		}

		return nil, srv.providerFailure(ctx, "sign in failed", err)
	}

	result, ok := toAuthResult(resp)
	if !ok {
		return nil, srv.inconsistentResponse(ctx, "sign in failed")
	}
	srv.log(ctx).Info("User signed in", slog.String("user_id", result.User.ID))

	return result, nil
}

// Invalidate revokes the caller's session at the provider.
func (srv *authService) Invalidate(ctx context.Context, accessToken string) error {
	srv.log(ctx).Debug("Starting sign out")

	if accessToken == "" {
		return errors.Wrap(domainerrors.ErrUnauthorized, "sign out without a session")
	}

	if err := srv.provider.SignOut(ctx, accessToken); err != nil {
		return srv.providerFailure(ctx, "sign out failed", err)
	}
	srv.log(ctx).Info("User signed out")

	return nil
}

// Refresh exchanges a refresh token for a new session.
func (srv *authService) Refresh(ctx context.Context, input *usecase.RefreshInput) (*entity.AuthResult, error) {
	srv.log(ctx).Debug("Starting session refresh")

	resp, err := srv.provider.RefreshSession(ctx, input.RefreshToken)
	if err != nil {
		if isInvalidRefreshToken(err) {
			srv.log(ctx).Warn("Session refresh failed", slog.Any("error", err))

			return nil, errors.Wrap(domainerrors.ErrInvalidRefreshToken, "session refresh failed")
		}

		return nil, srv.providerFailure(ctx, "session refresh failed", err)
	}

	result, ok := toAuthResult(resp)
	if !ok {
		return nil, srv.inconsistentResponse(ctx, "session refresh failed")
	}
	srv.log(ctx).Info("Session refreshed", slog.String("user_id", result.User.ID))

	return result, nil
}

// providerFailure reports an unmapped provider error, keeping its message as details.
func (srv *authService) providerFailure(ctx context.Context, op string, err error) error {
	srv.log(ctx).Error("Identity provider request failed", slog.String("operation", op), slog.Any("error", err))

	details := "unexpected provider response"
	var providerErr *service.ProviderError
	if errors.As(err, &providerErr) {
		details = providerErr.Message
	}

	return errors.Wrap(domainerrors.ErrProviderUnavailable.WithDetails(details), op)
}

func (srv *authService) inconsistentResponse(ctx context.Context, op string) error {
	srv.log(ctx).Error("Identity provider returned neither error nor result", slog.String("operation", op))

	return errors.Wrap(domainerrors.ErrProviderUnavailable.WithDetails("inconsistent response"), op)
}

func toAuthResult(resp *service.ProviderResponse) (*entity.AuthResult, bool) {
	if resp == nil || resp.User == nil || resp.Session == nil {
		return nil, false
	}

	return &entity.AuthResult{
		User:    &resp.User.User,
		Session: resp.Session,
	}, true
}

func isDuplicateAccount(err error) bool {
	var providerErr *service.ProviderError
	if !errors.As(err, &providerErr) {
		return false
	}

	return providerErr.Code == codeUserAlreadyExists ||
		providerErr.Code == codeEmailExists ||
		providerErr.Message == msgUserRegistered
}

func isInvalidRefreshToken(err error) bool {
	var providerErr *service.ProviderError
	if !errors.As(err, &providerErr) {
		return false
	}

	return providerErr.Status == http.StatusUnauthorized ||
		providerErr.Code == codeRefreshTokenNotFound ||
		strings.Contains(strings.ToLower(providerErr.Message), msgInvalidRefreshToken)
}
