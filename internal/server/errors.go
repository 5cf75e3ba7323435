package server

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
)

// NotFoundData is attached to ENDPOINT_NOT_FOUND responses.
type NotFoundData struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	Suggestion string `json:"suggestion"`
}

// errorHandler renders every error that reaches fiber in the shared error
// shape. Server error details are only exposed in development.
func errorHandler(cfg *config.Config) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.NewError(dto.CodeInvalidJSON, "Invalid JSON in request body"))
		}

		code := fiber.StatusInternalServerError
		message := "Internal server error"
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
			message = fe.Message
		}

		switch {
		case code == fiber.StatusNotFound:
			resp := dto.NewError(dto.CodeEndpointNotFound, "API endpoint not found")
			resp.Data = NotFoundData{
				Method:     c.Method(),
				Path:       c.Path(),
				Suggestion: "Check the API documentation at /api/docs",
			}
			return c.Status(code).JSON(resp)
		case code == fiber.StatusRequestEntityTooLarge:
			return c.Status(code).JSON(dto.NewError(dto.CodePayloadTooLarge, "Request body too large"))
		case code == fiber.StatusTooManyRequests:
			return c.Status(code).JSON(dto.NewError(dto.CodeRateLimitExceeded, message))
		case code == fiber.StatusUnauthorized:
			return c.Status(code).JSON(dto.NewError(dto.CodeAuthRequired, message))
		case code == fiber.StatusForbidden:
			return c.Status(code).JSON(dto.NewError(dto.CodeInsufficientPermissions, message))
		case code < fiber.StatusInternalServerError:
			return c.Status(code).JSON(dto.NewError(dto.CodeValidationError, message))
		}

		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}

		message = "Internal server error"
		if cfg.IsDevelopment() {
			message = err.Error()
		}
		return c.Status(code).JSON(dto.NewError(dto.CodeInternalError, message))
	}
}
