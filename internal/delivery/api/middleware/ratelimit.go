package middleware

import (
	"log/slog"

	"gateway/config"
	deliverycontext "gateway/internal/delivery/context"
	domainerrors "gateway/internal/domain/errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware limits session exchange calls per client IP.
type RateLimitMiddleware struct {
	limiter echo.MiddlewareFunc
}

// NewRateLimitMiddleware builds the limiter from cfg.Auth.RateLimit. It lets
// every request through when rate limiting is disabled.
func NewRateLimitMiddleware(cfg *config.Config, logger *slog.Logger) *RateLimitMiddleware {
	if cfg.Auth == nil || cfg.Auth.RateLimit == nil || !cfg.Auth.RateLimit.Enabled {
		return &RateLimitMiddleware{}
	}

	return &RateLimitMiddleware{limiter: newIPRateLimiter(cfg.Auth.RateLimit, logger)}
}

// Limit is the echo middleware.
func (m *RateLimitMiddleware) Limit(next echo.HandlerFunc) echo.HandlerFunc {
	if m.limiter == nil {
		return next
	}

	return m.limiter(next)
}

func newIPRateLimiter(rl *config.RateLimitConfig, logger *slog.Logger) echo.MiddlewareFunc {
	store := echomiddleware.NewRateLimiterMemoryStoreWithConfig(echomiddleware.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rl.RequestsPerSecond),
		Burst:     rl.Burst,
		ExpiresIn: rl.ExpiresIn,
	})

	return echomiddleware.RateLimiterWithConfig(echomiddleware.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: clientIP,
		DenyHandler: func(c echo.Context, identifier string, _ error) error {
			deliverycontext.GetLoggerOrDefault(c.Request().Context(), logger).Warn("Rate limit exceeded",
				slog.String("client_ip", identifier),
				slog.String("path", c.Path()),
			)

			return domainerrors.ErrRateLimited
		},
	})
}

// clientIP keys the limiter by the caller's address. It never fails, so the
// limiter's extractor error path is unreachable.
func clientIP(c echo.Context) (string, error) {
	return c.RealIP(), nil
}
