package model

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Sentinel errors for common cases.
// Use errors.Is() to check against these.
var (
	ErrNotFound       = errors.New("not found")
	ErrInvalidRequest = errors.New("invalid request")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrUpstreamError  = errors.New("upstream error")
	ErrRateLimited    = errors.New("rate limited")
)

// APIError represents a structured error for API responses.
// Implements error interface and supports unwrapping.
type APIError struct {
	Code       string        `json:"code"`
	Message    string        `json:"message"`
	StatusCode int           `json:"-"` // HTTP status, not serialized
	Err        error         `json:"-"` // Wrapped error, not serialized
	FromServer bool          `json:"-"` // Message came from the storefront API "error" field
	RetryAfter time.Duration `json:"-"` // Set on 429 when the API advertises a reset window
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error for missing resources.
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Code:       "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		StatusCode: 404,
		Err:        ErrNotFound,
	}
}

// NewValidationError creates a 400 error for invalid input.
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:       "VALIDATION_ERROR",
		Message:    fmt.Sprintf("invalid %s: %s", field, reason),
		StatusCode: 400,
		Err:        ErrInvalidRequest,
	}
}

// NewUnauthorizedError creates a 401 error for auth failures.
func NewUnauthorizedError(reason string) *APIError {
	return &APIError{
		Code:       "UNAUTHORIZED",
		Message:    reason,
		StatusCode: 401,
		Err:        ErrUnauthorized,
	}
}

// NewForbiddenError creates a 403 error for role checks.
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:       "FORBIDDEN",
		Message:    reason,
		StatusCode: 403,
		Err:        ErrForbidden,
	}
}

// NewUpstreamError creates a 502 error for backend failures.
func NewUpstreamError(service string, err error) *APIError {
	return &APIError{
		Code:       "UPSTREAM_ERROR",
		Message:    fmt.Sprintf("%s request failed", service),
		StatusCode: 502,
		Err:        fmt.Errorf("%w: %v", ErrUpstreamError, err),
	}
}

// NewInternalError creates a 500 error for unexpected failures.
func NewInternalError(err error) *APIError {
	return &APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: 500,
		Err:        err,
	}
}

// NewRateLimitError creates a 429 error for rate limiting.
func NewRateLimitError(service string) *APIError {
	return &APIError{
		Code:       "RATE_LIMITED",
		Message:    fmt.Sprintf("%s rate limit exceeded, please retry later", service),
		StatusCode: 429,
		Err:        ErrRateLimited,
	}
}

// NewServerError builds an APIError from a non-2xx storefront response.
// message is the server's "error" field; when empty the error carries a
// generic message and FromServer stays false so callers fall back to
// their per-action text.
func NewServerError(statusCode int, message string) *APIError {
	var apiErr *APIError
	switch {
	case statusCode == http.StatusNotFound:
		apiErr = NewNotFoundError("resource")
	case statusCode == http.StatusUnauthorized:
		apiErr = NewUnauthorizedError("authentication required")
	case statusCode == http.StatusForbidden:
		apiErr = NewForbiddenError("access denied")
	case statusCode == http.StatusTooManyRequests:
		apiErr = NewRateLimitError("storefront API")
	case statusCode >= 400 && statusCode < 500:
		apiErr = NewValidationError("request", "rejected by server")
	default:
		apiErr = NewUpstreamError("storefront API", fmt.Errorf("status %d", statusCode))
	}
	apiErr.StatusCode = statusCode
	if message != "" {
		apiErr.Message = message
		apiErr.FromServer = true
	}
	return apiErr
}

// UserMessage returns the text to show for a failed action: the server's
// own error message when it sent one, otherwise fallback.
func UserMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.FromServer && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
