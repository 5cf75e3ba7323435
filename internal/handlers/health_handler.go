package handlers

import (
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/gofiber/fiber/v2"
)

type HealthHandler struct {
	storage  StorageStatus
	version  string
	env      string
	features map[string]bool
	started  time.Time
	now      func() time.Time
}

// NewHealthHandler reports uptime relative to the moment it is called.
func NewHealthHandler(storage StorageStatus, version, env string, features map[string]bool, now func() time.Time) *HealthHandler {
	if now == nil {
		now = time.Now
	}
	return &HealthHandler{
		storage:  storage,
		version:  version,
		env:      env,
		features: features,
		started:  now(),
		now:      now,
	}
}

// Check stays 200 while running on the in-memory fallback; storage.connected
// tells clients whether the durable backend is reachable.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	now := h.now()

	stats, err := h.storage.Stats(c.UserContext())
	if err != nil {
		slog.Warn("health: storage stats unavailable", "op", "handlers.HealthHandler.Check", "error", err)
	}

	return c.JSON(dto.OK("MasterMinds Backend Server is running!", dto.HealthResponse{
		Status:      "healthy",
		Version:     h.version,
		Environment: h.env,
		Uptime:      now.Sub(h.started).Seconds(),
		Timestamp:   now.UTC().Format(time.RFC3339),
		Storage: dto.StorageStats{
			Mode:         stats.Mode,
			Durable:      stats.Durable,
			Connected:    stats.Connected,
			Users:        stats.Users,
			Applications: stats.Applications,
			Sessions:     stats.Sessions,
		},
		Features: h.features,
	}))
}
