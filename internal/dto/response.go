package dto

import (
	"fmt"
	"time"
)

// Error codes returned in ErrorResponse.Code.
const (
	CodeValidationError            = "VALIDATION_ERROR"
	CodeInvalidJSON                = "INVALID_JSON"
	CodeInvalidID                  = "INVALID_ID"
	CodeUserExists                 = "USER_EXISTS"
	CodeWeakPassword               = "WEAK_PASSWORD"
	CodeInvalidCredentials         = "INVALID_CREDENTIALS"
	CodeAccountLocked              = "ACCOUNT_LOCKED"
	CodeRateLimitExceeded          = "RATE_LIMIT_EXCEEDED"
	CodeNoToken                    = "NO_TOKEN"
	CodeTokenExpired               = "TOKEN_EXPIRED"
	CodeMalformedToken             = "MALFORMED_TOKEN"
	CodeTokenRevoked               = "TOKEN_REVOKED"
	CodeUserNotFound               = "USER_NOT_FOUND"
	CodeAuthRequired               = "AUTH_REQUIRED"
	CodeInsufficientPermissions    = "INSUFFICIENT_PERMISSIONS"
	CodeResourceIDRequired         = "RESOURCE_ID_REQUIRED"
	CodeRefreshTokenRequired       = "REFRESH_TOKEN_REQUIRED"
	CodeInvalidRefreshToken        = "INVALID_REFRESH_TOKEN"
	CodeDuplicateApplication       = "DUPLICATE_APPLICATION"
	CodeApplicationNotFound        = "APPLICATION_NOT_FOUND"
	CodeApplicationNotEditable     = "APPLICATION_NOT_EDITABLE"
	CodeApplicationNotWithdrawable = "APPLICATION_NOT_WITHDRAWABLE"
	CodeNoUpdateData               = "NO_UPDATE_DATA"
	CodeInvalidStatusTransition    = "INVALID_STATUS_TRANSITION"
	CodeCORSError                  = "CORS_ERROR"
	CodeEndpointNotFound           = "ENDPOINT_NOT_FOUND"
	CodePayloadTooLarge            = "PAYLOAD_TOO_LARGE"
	CodeInternalError              = "INTERNAL_ERROR"
	CodeLogoutSuccess              = "LOGOUT_SUCCESS"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	Code       string      `json:"code"`
	Errors     interface{} `json:"errors,omitempty"`
	Data       interface{} `json:"data,omitempty"`
	RetryAfter string      `json:"retryAfter,omitempty"`
}

func NewError(code, message string) ErrorResponse {
	return ErrorResponse{Success: false, Code: code, Message: message}
}

// Response is the body of every 2xx response.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
	Data    T      `json:"data"`
	Meta    *Meta  `json:"meta,omitempty"`
}

type Meta struct {
	StorageMode string     `json:"storageMode,omitempty"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
}

func OK[T any](message string, data T) Response[T] {
	return Response[T]{Success: true, Message: message, Data: data}
}

// WithMeta attaches the storage mode and the current time.
func (r Response[T]) WithMeta(storageMode string, now time.Time) Response[T] {
	r.Meta = &Meta{StorageMode: storageMode, Timestamp: &now}
	return r
}

// FormatDuration renders whole days as "7d" and anything else in Go
// duration syntax.
func FormatDuration(d time.Duration) string {
	const day = 24 * time.Hour
	if d > 0 && d%day == 0 {
		return fmt.Sprintf("%dd", d/day)
	}
	return d.String()
}

// FormatRetry renders a lock or rate-limit wait the way clients display it.
func FormatRetry(d time.Duration) string {
	minutes := int((d + time.Minute - 1) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	if minutes == 1 {
		return "1 minute"
	}
	return fmt.Sprintf("%d minutes", minutes)
}
