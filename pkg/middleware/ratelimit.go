package middleware

import (
	"net/http"

	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	appctx "github.com/Ramsey-B/vine/pkg/context"
	"github.com/Ramsey-B/vine/pkg/redis"
)

// RateLimit throttles requests per authenticated member using the Redis
// fixed-window limiter. Unauthenticated requests fall back to the remote ip.
// Limiter failures fail open; the store stays the source of truth.
func RateLimit(limiter *redis.RateLimiter, logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx := c.Request().Context()

			key := appctx.GetUserID(ctx)
			if key == "" {
				key = c.RealIP()
			}

			allowed, err := limiter.Allow(ctx, key)
			if err != nil {
				logger.WithContext(ctx).WithError(err).Warn("rate limiter unavailable, allowing request")
				return next(c)
			}
			if !allowed {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
