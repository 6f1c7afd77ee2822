package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Authentication Errors (1xxx)
	ErrCodeInvalidCredentials ErrorCode = "AUTH_1001"
	ErrCodeUserNotFound       ErrorCode = "AUTH_1002"

	// Validation Errors (2xxx)
	ErrCodeInvalidRequest         ErrorCode = "VALID_2005"
	ErrCodeUnsupportedContentType ErrorCode = "VALID_2006"

	// Rate Limiting Errors (3xxx)
	ErrCodeRateLimitExceeded ErrorCode = "RATE_3001"

	// Database Errors (5xxx)
	ErrCodeDatabaseError ErrorCode = "DB_5001"

	// Server Errors (6xxx)
	ErrCodeInternalServerError ErrorCode = "SERVER_6001"

	// Security Errors (7xxx)
	ErrCodeAccessDenied ErrorCode = "SEC_7003"
)

var statusByCode = map[ErrorCode]int{
	ErrCodeInvalidCredentials:     http.StatusUnauthorized,
	ErrCodeUserNotFound:           http.StatusUnauthorized,
	ErrCodeInvalidRequest:         http.StatusBadRequest,
	ErrCodeUnsupportedContentType: http.StatusUnsupportedMediaType,
	ErrCodeRateLimitExceeded:      http.StatusTooManyRequests,
	ErrCodeDatabaseError:          http.StatusServiceUnavailable,
	ErrCodeInternalServerError:    http.StatusInternalServerError,
	ErrCodeAccessDenied:           http.StatusForbidden,
}

// AppError represents a structured application error
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is matches any AppError carrying the same code.
func (e *AppError) Is(target error) bool {
	var other *AppError
	if !errors.As(target, &other) {
		return false
	}
	return other.Code == e.Code
}

func NewAppError(code ErrorCode, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// Authentication errors

func ErrInvalidCredentials(details string) *AppError {
	return NewAppError(ErrCodeInvalidCredentials, "Invalid email or password", details, nil)
}

func ErrUserNotFound(email string) *AppError {
	return NewAppError(ErrCodeUserNotFound, "User not found", fmt.Sprintf("Email: %s", email), nil)
}

// Validation errors

func ErrInvalidRequest(details string, cause error) *AppError {
	return NewAppError(ErrCodeInvalidRequest, "Invalid request body", details, cause)
}

func ErrUnsupportedContentType(contentType string) *AppError {
	return NewAppError(ErrCodeUnsupportedContentType, "Authentication Content-Type not supported", fmt.Sprintf("Content-Type: %q", contentType), nil)
}

// Rate limiting errors

func ErrRateLimitExceeded(attempts int, window string) *AppError {
	return NewAppError(ErrCodeRateLimitExceeded, "Too many requests", fmt.Sprintf("Attempts: %d, Window: %s", attempts, window), nil)
}

// Database errors

func ErrDatabaseError(operation string, cause error) *AppError {
	return NewAppError(ErrCodeDatabaseError, "Database operation failed", fmt.Sprintf("Operation: %s", operation), cause)
}

// Server errors

func ErrInternalServerError(details string, cause error) *AppError {
	return NewAppError(ErrCodeInternalServerError, "Internal server error", details, cause)
}

// Security errors

func ErrAccessDenied(path string) *AppError {
	return NewAppError(ErrCodeAccessDenied, "Access denied", fmt.Sprintf("Path: %s", path), nil)
}

// HTTPStatus maps an error to its HTTP status code. Unknown errors are 500.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if status, ok := statusByCode[appErr.Code]; ok {
			return status
		}
	}
	return http.StatusInternalServerError
}

// Public returns the error as it may be shown to a client. Unknown-user failures are
// reported as invalid credentials so the wire never reveals which emails exist, and
// causes and details of server-side failures are stripped.
func Public(err error) *AppError {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return NewAppError(ErrCodeInternalServerError, "Internal server error", "", nil)
	}
	switch appErr.Code {
	case ErrCodeUserNotFound, ErrCodeInvalidCredentials:
		return NewAppError(ErrCodeInvalidCredentials, "Invalid email or password", "", nil)
	case ErrCodeDatabaseError, ErrCodeInternalServerError:
		return NewAppError(appErr.Code, appErr.Message, "", nil)
	}
	return appErr
}

// ErrorResponse is the body written for failed requests.
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *AppError `json:"error"`
	TraceID string    `json:"trace_id,omitempty"`
}

func NewErrorResponse(err *AppError, traceID string) *ErrorResponse {
	return &ErrorResponse{
		Success: false,
		Error:   err,
		TraceID: traceID,
	}
}
