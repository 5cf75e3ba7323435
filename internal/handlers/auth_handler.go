package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/metrics"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/validation"
	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	authService *services.AuthService
	validate    *validation.Validator
	storage     StorageStatus
	now         func() time.Time
}

func NewAuthHandler(authService *services.AuthService, validate *validation.Validator, storage StorageStatus, now func() time.Time) *AuthHandler {
	if now == nil {
		now = time.Now
	}
	return &AuthHandler{authService: authService, validate: validate, storage: storage, now: now}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	req.Normalize()
	if err := h.validate.Struct(&req); err != nil {
		metrics.RecordAuth("register", dto.CodeValidationError)
		return validationFailed(c, err)
	}

	data, err := h.authService.Register(c.UserContext(), &req, clientInfo(c))
	if err != nil {
		var limited *services.RateLimitedError
		var weak *services.WeakPasswordError
		switch {
		case errors.As(err, &limited):
			metrics.RecordAuth("register", dto.CodeRateLimitExceeded)
			return tooMany(c, "Too many registration attempts. Please try again later.", limited.RetryAfter)
		case errors.Is(err, services.ErrEmailTaken):
			metrics.RecordAuth("register", dto.CodeUserExists)
			return fail(c, fiber.StatusBadRequest, dto.CodeUserExists, "User with this email already exists")
		case errors.As(err, &weak):
			metrics.RecordAuth("register", dto.CodeWeakPassword)
			resp := dto.NewError(dto.CodeWeakPassword, "Password does not meet security requirements")
			resp.Errors = weak.Strength.Errors
			resp.Data = dto.WeakPasswordData{Strength: weak.Strength.Label, Score: weak.Strength.Score}
			return c.Status(fiber.StatusBadRequest).JSON(resp)
		}
		return err
	}

	metrics.RecordAuth("register", "success")
	return c.Status(fiber.StatusCreated).JSON(
		dto.OK("User registered successfully", data).WithMeta(h.storage.Mode(), h.now()))
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	req.Normalize()
	if err := h.validate.Struct(&req); err != nil {
		metrics.RecordAuth("login", dto.CodeValidationError)
		return validationFailed(c, err)
	}

	data, err := h.authService.Login(c.UserContext(), &req, clientInfo(c))
	if err != nil {
		var locked *services.LockedError
		switch {
		case errors.As(err, &locked):
			metrics.RecordAuth("login", dto.CodeAccountLocked)
			wait := dto.FormatRetry(locked.RetryAfter)
			resp := dto.NewError(dto.CodeAccountLocked, fmt.Sprintf("Account temporarily locked. Try again in %s", wait))
			resp.RetryAfter = wait
			return c.Status(fiber.StatusLocked).JSON(resp)
		case errors.Is(err, services.ErrInvalidCredentials):
			metrics.RecordAuth("login", dto.CodeInvalidCredentials)
			return fail(c, fiber.StatusUnauthorized, dto.CodeInvalidCredentials, "Invalid email or password")
		}
		return err
	}

	metrics.RecordAuth("login", "success")
	return c.JSON(dto.OK("Login successful", data).WithMeta(h.storage.Mode(), h.now()))
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}
	return c.JSON(dto.OK("", dto.MeData{
		User: dto.NewUserResponse(id.User),
		Session: dto.SessionInfo{
			TokenInfo: dto.TokenInfo{IssuedAt: id.IssuedAt, ExpiresAt: id.ExpiresAt},
		},
	}))
}

// Logout ends the caller's session and revokes the presented access token.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	id, err := identity(c)
	if err != nil {
		return err
	}

	data, err := h.authService.Logout(c.UserContext(), id.TokenID, id.ExpiresAt)
	if err != nil {
		metrics.RecordAuth("logout", dto.CodeInternalError)
		return err
	}

	metrics.RecordAuth("logout", "success")
	resp := dto.OK("Logged out successfully", data)
	resp.Code = dto.CodeLogoutSuccess
	return c.JSON(resp)
}

func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	data, err := h.authService.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrRefreshTokenRequired):
			metrics.RecordAuth("refresh", dto.CodeRefreshTokenRequired)
			return fail(c, fiber.StatusBadRequest, dto.CodeRefreshTokenRequired, "Refresh token is required")
		case errors.Is(err, services.ErrInvalidRefreshToken):
			metrics.RecordAuth("refresh", dto.CodeInvalidRefreshToken)
			return fail(c, fiber.StatusUnauthorized, dto.CodeInvalidRefreshToken, "Invalid or expired refresh token")
		case errors.Is(err, services.ErrUserNotFound):
			metrics.RecordAuth("refresh", dto.CodeUserNotFound)
			return fail(c, fiber.StatusUnauthorized, dto.CodeUserNotFound, "User not found")
		}
		return err
	}

	metrics.RecordAuth("refresh", "success")
	return c.JSON(dto.OK("Token refreshed successfully", data))
}
