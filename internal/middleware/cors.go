package middleware

import (
	"strings"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

// CORS answers preflights and sets CORS headers for allowed origins. Every
// origin is allowed in development.
func CORS(cfg *config.Config) fiber.Handler {
	allowed := originAllowed(cfg)
	return cors.New(cors.Config{
		AllowOriginsFunc: allowed,
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept, X-Requested-With",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		ExposeHeaders:    "X-RateLimit-Limit, X-RateLimit-Remaining, X-RateLimit-Reset, X-Request-ID",
		AllowCredentials: true,
	})
}

// OriginGuard rejects cross-origin requests from origins outside the
// allowlist. Requests without an Origin header (curl, mobile apps) pass.
func OriginGuard(cfg *config.Config) fiber.Handler {
	allowed := originAllowed(cfg)
	return func(c *fiber.Ctx) error {
		origin := c.Get(fiber.HeaderOrigin)
		if origin == "" || allowed(origin) {
			return c.Next()
		}
		return c.Status(fiber.StatusForbidden).JSON(dto.NewError(dto.CodeCORSError, "CORS policy violation"))
	}
}

func originAllowed(cfg *config.Config) func(string) bool {
	origins := make(map[string]bool, len(cfg.CORSOrigins))
	for _, o := range cfg.CORSOrigins {
		origins[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	dev := cfg.IsDevelopment()

	return func(origin string) bool {
		return dev || origins[strings.TrimRight(strings.ToLower(origin), "/")]
	}
}
