package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/lyzr/petstore/common/ratelimit"
)

// mutating reports whether the request changes state
func mutating(c echo.Context) bool {
	switch c.Request().Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

// WriteRateLimit throttles mutating requests per client IP. Reads pass
// through untouched. A limiter failure lets the request through; losing
// throttling is preferable to refusing traffic.
func WriteRateLimit(limiter *ratelimit.Limiter, cfg ratelimit.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !mutating(c) {
				return next(c)
			}

			result, err := limiter.CheckClientLimit(
				c.Request().Context(), c.RealIP(), cfg.ClientLimit, cfg.WindowSeconds)
			if err != nil {
				return next(c)
			}

			if !result.Allowed {
				retryAfter := result.RetryAfterSeconds
				if retryAfter < 1 {
					retryAfter = 1
				}
				c.Response().Header().Set(echo.HeaderRetryAfter,
					strconv.FormatInt(retryAfter, 10))
				return c.JSON(http.StatusTooManyRequests, map[string]interface{}{
					"error":       "rate_limit_exceeded",
					"message":     "Too many write requests. Please slow down.",
					"retry_after": result.RetryAfterSeconds,
				})
			}

			return next(c)
		}
	}
}
