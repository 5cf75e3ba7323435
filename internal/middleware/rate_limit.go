package middleware

import (
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
)

// UserRateLimit limits requests per identity, falling back to the client IP
// for anonymous requests, and reports the window in X-RateLimit-* headers.
func UserRateLimit(limiter *ratelimit.SlidingWindow, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}

	return func(c *fiber.Ctx) error {
		key := c.IP()
		if id, ok := CurrentIdentity(c); ok {
			key = "user:" + id.UserID
		}

		decision := limiter.Allow(key)
		c.Set("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Set("X-RateLimit-Reset", decision.Reset.UTC().Format(time.RFC3339))

		if !decision.Allowed {
			wait := decision.Reset.Sub(now())
			seconds := int((wait + time.Second - 1) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))

			resp := dto.NewError(dto.CodeRateLimitExceeded, "Too many requests. Please try again later.")
			resp.RetryAfter = dto.FormatRetry(wait)
			return c.Status(fiber.StatusTooManyRequests).JSON(resp)
		}
		return c.Next()
	}
}
