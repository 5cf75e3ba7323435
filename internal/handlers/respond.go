package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/storage"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

// StorageStatus is the part of the storage adapter handlers report on.
type StorageStatus interface {
	Mode() string
	Stats(ctx context.Context) (storage.Stats, error)
}

func fail(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(dto.NewError(code, message))
}

func invalidJSON(c *fiber.Ctx) error {
	return fail(c, fiber.StatusBadRequest, dto.CodeInvalidJSON, "Invalid JSON in request body")
}

// validationFailed answers with the field list when err is validation.Errors
// and hands anything else to the global error handler.
func validationFailed(c *fiber.Ctx, err error) error {
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return err
	}
	resp := dto.NewError(dto.CodeValidationError, "Validation failed")
	resp.Errors = verrs
	return c.Status(fiber.StatusBadRequest).JSON(resp)
}

func tooMany(c *fiber.Ctx, message string, wait time.Duration) error {
	resp := dto.NewError(dto.CodeRateLimitExceeded, message)
	resp.RetryAfter = dto.FormatRetry(wait)
	return c.Status(fiber.StatusTooManyRequests).JSON(resp)
}

func clientInfo(c *fiber.Ctx) services.ClientInfo {
	return services.ClientInfo{IP: c.IP(), UserAgent: c.Get(fiber.HeaderUserAgent)}
}

// identity is only called behind Auth.Required; the check guards against
// a route registered without it.
func identity(c *fiber.Ctx) (*middleware.Identity, error) {
	id, ok := middleware.CurrentIdentity(c)
	if !ok {
		return nil, fiber.NewError(fiber.StatusUnauthorized, "Access denied. Authentication required.")
	}
	return id, nil
}
