package middleware

import (
	"log/slog"
	"strings"

	deliverycontext "gateway/internal/delivery/context"
	"gateway/internal/domain/entity"
	domainerrors "gateway/internal/domain/errors"
	"gateway/internal/domain/service"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

const bearerScheme = "Bearer"

// AuthMiddleware guards routes that need a verified access token.
type AuthMiddleware struct {
	verifier service.TokenVerifier
	logger   *slog.Logger
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(verifier service.TokenVerifier, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// Authenticate verifies the bearer token and attaches the caller's identity to
// the request context. Every failure is reported to the client as the same
// 401; the cause is only logged.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		token, err := extractBearer(c.Request().Header.Get(echo.HeaderAuthorization))
		if err != nil {
			return m.deny(c, err)
		}

		claims, err := m.verifier.Verify(token)
		if err != nil {
			return m.deny(c, err)
		}

		ctx = deliverycontext.WithIdentity(ctx, claims.Identity(), token)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// deny answers 401 whatever the cause. Expected verification failures are
// logged at debug; anything else points at a broken verifier.
func (m *AuthMiddleware) deny(c echo.Context, cause error) error {
	logger := deliverycontext.GetLoggerOrDefault(c.Request().Context(), m.logger)
	path := c.Request().URL.Path

	if domainerrors.IsVerificationError(cause) {
		logger.Debug("Access denied", slog.String("path", path), slog.Any("reason", cause))
	} else {
		logger.Warn("Token verification failed unexpectedly", slog.String("path", path), slog.Any("error", cause))
	}

	return errors.Wrap(domainerrors.ErrUnauthorized, "access denied")
}

// extractBearer returns the token of a "Bearer <token>" header. The scheme is
// case-insensitive and exactly one non-empty token must follow it.
func extractBearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, bearerScheme) {
		return "", domainerrors.ErrMissingToken
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", domainerrors.ErrMissingToken.WithDetails("expected a single token")
	}

	return token, nil
}

// GetIdentity returns the identity attached by Authenticate.
func GetIdentity(c echo.Context) (*entity.IdentityContext, bool) {
	return deliverycontext.GetIdentity(c.Request().Context())
}

// GetAccessToken returns the bearer token verified by Authenticate.
func GetAccessToken(c echo.Context) (string, bool) {
	return deliverycontext.GetAccessToken(c.Request().Context())
}
