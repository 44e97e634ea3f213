package ratelimit

import (
	"log/slog"
	"strconv"

	"github.com/example/task-manager/domain/ratelimit"
	"github.com/gofiber/fiber/v2"
)

// LimitExceededMessage is the body message of a 429 response.
const LimitExceededMessage = "too many requests, please try again later"

// Middleware applies a limiter to Fiber routes, keyed by client IP.
type Middleware struct {
	limiter ratelimit.Limiter
	limit   int
}

// NewMiddleware creates a new rate limiting middleware.
func NewMiddleware(limiter ratelimit.Limiter, config ratelimit.Config) *Middleware {
	return &Middleware{
		limiter: limiter,
		limit:   config.RequestsPerWindow,
	}
}

// IPRateLimit returns middleware that limits requests by client IP within
// scope. Limiter failures let the request through.
func (m *Middleware) IPRateLimit(scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := scope + ":" + c.IP()

		result, err := m.limiter.Allow(c.UserContext(), key)
		if err != nil {
			slog.WarnContext(c.UserContext(), "rate limiter unavailable, allowing request",
				"scope", scope, "error", err)
			return c.Next()
		}

		setRateLimitHeaders(c, result, m.limit)

		if !result.Allowed {
			return sendRateLimitExceeded(c, result)
		}

		return c.Next()
	}
}

// setRateLimitHeaders sets standard rate limit headers on the response.
func setRateLimitHeaders(c *fiber.Ctx, result *ratelimit.Result, limit int) {
	c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	c.Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	c.Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

// sendRateLimitExceeded sends a 429 Too Many Requests response.
func sendRateLimitExceeded(c *fiber.Ctx, result *ratelimit.Result) error {
	retryAfter := int(result.RetryAfter.Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}

	c.Set("Retry-After", strconv.Itoa(retryAfter))

	return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
		"success": false,
		"message": LimitExceededMessage,
	})
}
