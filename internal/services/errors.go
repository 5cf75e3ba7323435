package services

import (
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/credentials"
	"github.com/ahmetcoskunkizilkaya/masterminds-backend/internal/models"
)

var (
	ErrEmailTaken           = errors.New("user with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid email or password")
	ErrRefreshTokenRequired = errors.New("refresh token is required")
	ErrInvalidRefreshToken  = errors.New("invalid or expired refresh token")
	ErrUserNotFound         = errors.New("user not found")
	ErrAccountLocked        = errors.New("account temporarily locked")
	ErrRateLimited          = errors.New("too many requests")
	ErrWeakPassword         = errors.New("password does not meet security requirements")

	ErrApplicationNotFound  = errors.New("application not found")
	ErrDuplicateApplication = errors.New("you have already submitted an application for this program")
	ErrNotEditable          = errors.New("cannot update application that is no longer pending")
	ErrNotWithdrawable      = errors.New("cannot withdraw application with current status")
	ErrNoUpdateData         = errors.New("no valid fields to update")
	ErrInvalidTransition    = errors.New("status transition not allowed")
)

// LockedError is returned while an account or e-mail is locked out.
type LockedError struct {
	RetryAfter time.Duration
}

func (e *LockedError) Error() string { return ErrAccountLocked.Error() }
func (e *LockedError) Unwrap() error { return ErrAccountLocked }

// RateLimitedError is returned when a per-client or per-user quota is spent.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string { return ErrRateLimited.Error() }
func (e *RateLimitedError) Unwrap() error { return ErrRateLimited }

type WeakPasswordError struct {
	Strength credentials.Strength
}

func (e *WeakPasswordError) Error() string { return ErrWeakPassword.Error() }
func (e *WeakPasswordError) Unwrap() error { return ErrWeakPassword }

// DuplicateApplicationError carries the application that already occupies
// the (user, program) slot.
type DuplicateApplicationError struct {
	Existing *models.Application
}

func (e *DuplicateApplicationError) Error() string { return ErrDuplicateApplication.Error() }
func (e *DuplicateApplicationError) Unwrap() error { return ErrDuplicateApplication }

// StatusConflictError reports an operation the application's current status
// does not permit. Err is ErrNotEditable, ErrNotWithdrawable or
// ErrInvalidTransition.
type StatusConflictError struct {
	Err     error
	Current string
	Allowed []string
}

func (e *StatusConflictError) Error() string { return e.Err.Error() }
func (e *StatusConflictError) Unwrap() error { return e.Err }
