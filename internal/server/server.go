// Package server assembles the fiber application: services, handlers,
// middleware and routes.
package server

import (
	"context"
	"strconv"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/credentials"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/denylist"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/ratelimit"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/validation"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

const Version = "2.0.0"

type Deps struct {
	Storage *storage.Adapter
	Revoked denylist.Denylist
	// Version defaults to Version.
	Version string
	// Now defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	App *fiber.App

	users       *ratelimit.SlidingWindow
	submissions *ratelimit.SlidingWindow
}

func New(cfg *config.Config, deps Deps) *Server {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	version := deps.Version
	if version == "" {
		version = Version
	}

	validate := validation.New(now)
	sanitizer := validation.NewSanitizer()
	tokens := credentials.NewTokenManager(credentials.TokenConfig{
		Secret:   cfg.JWTSecret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTAccessExpiry,
		Now:      now,
	})

	authService := services.NewAuthService(deps.Storage, credentials.NewHasher(cfg.BcryptRounds), tokens, deps.Revoked, services.AuthOptions{
		MaxLoginAttempts: cfg.MaxLoginAttempts,
		LockDuration:     cfg.AccountLockTime,
		AccessTTL:        cfg.JWTAccessExpiry,
		RefreshTTL:       cfg.JWTRefreshExpiry,
		Now:              now,
	})
	submissions := ratelimit.New(cfg.SubmissionWindow, cfg.SubmissionLimit, now)
	applicationService := services.NewApplicationService(deps.Storage, submissions, now)

	applicationHandler := handlers.NewApplicationHandler(applicationService, validate, sanitizer, deps.Storage, now)
	h := routes.Handlers{
		Auth:         handlers.NewAuthHandler(authService, validate, deps.Storage, now),
		Applications: applicationHandler,
		Admin:        handlers.NewAdminHandler(applicationHandler),
		Health: handlers.NewHealthHandler(deps.Storage, version, cfg.Env, map[string]bool{
			"authentication":  true,
			"rateLimit":       true,
			"security":        true,
			"cors":            true,
			"compression":     true,
			"tokenRevocation": true,
			"metrics":         true,
		}, now),
		Docs: handlers.NewDocsHandler(version, "/api/"+cfg.APIVersion),
	}

	users := ratelimit.New(cfg.UserRateLimitWindow, cfg.UserRateLimitMax, now)
	g := routes.Guards{
		Auth:      middleware.NewAuth(tokens, deps.Storage, deps.Revoked),
		AuthLimit: ipLimiter(cfg.AuthRateLimitMax, cfg.RateLimitWindow, "Too many authentication attempts, please try again later."),
		UserLimit: middleware.UserRateLimit(users, now),
	}

	app := fiber.New(fiber.Config{
		AppName:      "MasterMinds API",
		BodyLimit:    cfg.BodyLimitMB * 1024 * 1024,
		ErrorHandler: errorHandler(cfg),
	})

	app.Use(recover.New())
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Next:   func(*fiber.Ctx) bool { return cfg.Env == config.EnvTest },
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(metrics.Middleware())
	app.Use(middleware.SecurityHeaders())
	app.Use(middleware.OriginGuard(cfg))
	app.Use(middleware.CORS(cfg))
	app.Use(compress.New())
	app.Use("/api", ipLimiter(cfg.RateLimitMax, cfg.RateLimitWindow, "Too many requests from this IP, please try again later."))

	routes.Setup(app, cfg, h, g)
	app.Get("/metrics", metrics.Handler())

	app.Use(func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	return &Server{App: app, users: users, submissions: submissions}
}

// StartCleanup prunes idle limiter keys every interval until ctx is done.
func (s *Server) StartCleanup(ctx context.Context, interval time.Duration) {
	s.users.StartCleanup(ctx, interval)
	s.submissions.StartCleanup(ctx, interval)
}

// ipLimiter is a per-IP sliding window; the limiter sets Retry-After before
// LimitReached runs.
func ipLimiter(limit int, window time.Duration, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:               limit,
		Expiration:        window,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			resp := dto.NewError(dto.CodeRateLimitExceeded, message)
			if seconds, err := strconv.Atoi(string(c.Response().Header.Peek(fiber.HeaderRetryAfter))); err == nil {
				resp.RetryAfter = dto.FormatRetry(time.Duration(seconds) * time.Second)
			}
			return c.Status(fiber.StatusTooManyRequests).JSON(resp)
		},
	})
}
