package routes

import (
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/middleware"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Applications *handlers.ApplicationHandler
	Admin        *handlers.AdminHandler
	Health       *handlers.HealthHandler
	Docs         *handlers.DocsHandler
}

// Guards are the middleware shared by both mounts, so limiter state is
// shared between /api/v1 and the legacy /api paths.
type Guards struct {
	Auth      *middleware.Auth
	AuthLimit fiber.Handler
	UserLimit fiber.Handler
}

// Setup mounts the API under /api/{version} and again under /api for
// older clients.
func Setup(app *fiber.App, cfg *config.Config, h Handlers, g Guards) {
	mount(app.Group("/api/"+cfg.APIVersion), cfg, h, g)
	// Never call Use on the legacy group: its prefix also matches /api/v1.
	mount(app.Group("/api"), cfg, h, g)
}

func mount(api fiber.Router, cfg *config.Config, h Handlers, g Guards) {
	api.Get("/health", h.Health.Check)
	api.Get("/docs", h.Docs.Docs)
	api.Get("/programs", g.Auth.Optional(), h.Applications.Programs)

	// Auth: stricter per-IP limit on the credential endpoints
	api.Post("/auth/register", g.AuthLimit, h.Auth.Register)
	api.Post("/auth/login", g.AuthLimit, h.Auth.Login)
	api.Post("/auth/refresh", g.AuthLimit, h.Auth.Refresh)
	api.Get("/auth/me", g.Auth.Required(), h.Auth.Me)
	api.Post("/auth/logout", g.Auth.Required(), h.Auth.Logout)

	owner := middleware.Ownership(cfg.AdminEmails)
	apps := api.Group("/applications", g.Auth.Required(), g.UserLimit)
	apps.Post("/", h.Applications.Create)
	apps.Get("/", h.Applications.List)
	apps.Get("/:id", owner, h.Applications.Get)
	apps.Put("/:id", owner, h.Applications.Update)
	apps.Delete("/:id", owner, h.Applications.Delete)

	admin := api.Group("/admin", g.Auth.Required(), middleware.AdminRequired(cfg.AdminEmails))
	admin.Get("/applications", h.Admin.ListApplications)
	admin.Put("/applications/:id/status", h.Admin.UpdateStatus)
}
