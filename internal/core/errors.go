package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCategory classifies errors for handling decisions.
type ErrorCategory string

const (
	ErrCatValidation      ErrorCategory = "validation"       // Invalid input
	ErrCatTimeout         ErrorCategory = "timeout"          // Model call timed out
	ErrCatRateLimit       ErrorCategory = "rate_limit"       // Endpoint rate limited
	ErrCatService         ErrorCategory = "service"          // Endpoint or model unavailable
	ErrCatInvalidResponse ErrorCategory = "invalid_response" // Empty or malformed completion
	ErrCatAuth            ErrorCategory = "auth"             // Authentication failure
	ErrCatCancelled       ErrorCategory = "cancelled"        // Caller cancelled the run
	ErrCatInternal        ErrorCategory = "internal"         // Unexpected internal error
)

// Description returns a short human readable phrase for the category.
func (c ErrorCategory) Description() string {
	switch c {
	case ErrCatValidation:
		return "input validation failure"
	case ErrCatTimeout:
		return "model response timeouts"
	case ErrCatRateLimit:
		return "sustained rate limiting"
	case ErrCatService:
		return "model service unavailability"
	case ErrCatInvalidResponse:
		return "invalid model responses"
	case ErrCatAuth:
		return "authentication failure"
	case ErrCatCancelled:
		return "cancellation of the analysis"
	default:
		return "an unexpected internal error"
	}
}

// DomainError represents a structured error from the domain layer.
type DomainError struct {
	Category  ErrorCategory
	Code      string
	Message   string
	Retryable bool
	Cause     error
	Details   map[string]interface{}
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Category, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches a target.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Category == t.Category && e.Code == t.Code
}

// WithCause wraps an underlying error.
func (e *DomainError) WithCause(cause error) *DomainError {
	e.Cause = cause
	return e
}

// WithDetail adds contextual information.
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ErrValidation creates a validation error.
func ErrValidation(code, message string) *DomainError {
	return &DomainError{
		Category:  ErrCatValidation,
		Code:      code,
		Message:   message,
		Retryable: false,
	}
}

// ErrTimeout creates a timeout error.
func ErrTimeout(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatTimeout,
		Code:      CodeTimeout,
		Message:   message,
		Retryable: true,
	}
}

// ErrRateLimit creates a rate limit error.
func ErrRateLimit(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatRateLimit,
		Code:      CodeRateLimited,
		Message:   message,
		Retryable: true,
	}
}

// ErrService creates a service error. The model tier is considered
// unavailable, so the error is not retried in place.
func ErrService(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatService,
		Code:      CodeServiceError,
		Message:   message,
		Retryable: false,
	}
}

// ErrInvalidResponse creates an invalid response error.
func ErrInvalidResponse(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatInvalidResponse,
		Code:      CodeInvalidResponse,
		Message:   message,
		Retryable: false,
	}
}

// ErrAuth creates an authentication error.
func ErrAuth(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatAuth,
		Code:      "AUTH_FAILED",
		Message:   message,
		Retryable: false,
	}
}

// ErrCancelled creates a cancellation error.
func ErrCancelled(message string) *DomainError {
	return &DomainError{
		Category:  ErrCatCancelled,
		Code:      CodeCancelled,
		Message:   message,
		Retryable: false,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Retryable
	}
	return false
}

// GetCategory extracts the error category.
func GetCategory(err error) ErrorCategory {
	var domErr *DomainError
	if errors.As(err, &domErr) {
		return domErr.Category
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCatTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrCatCancelled
	}
	return ErrCatInternal
}

// IsCategory checks if an error belongs to a category.
func IsCategory(err error, cat ErrorCategory) bool {
	return GetCategory(err) == cat
}

// Predefined error codes
const (
	CodeTimeout         = "TIMEOUT"
	CodeRateLimited     = "RATE_LIMITED"
	CodeServiceError    = "SERVICE_ERROR"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeCancelled       = "CANCELLED"
	CodeModelsExhausted = "MODELS_EXHAUSTED"

	// Validation error codes
	CodeEmptyQuery      = "EMPTY_QUERY"
	CodeQueryTooShort   = "QUERY_TOO_SHORT"
	CodeInvalidConfig   = "INVALID_CONFIG"
	CodeNoModels        = "NO_MODELS"
	CodeMissingAPIKey   = "MISSING_API_KEY"
	CodeUnknownRole     = "UNKNOWN_ROLE"
	CodeUnknownProvider = "UNKNOWN_PROVIDER"
	CodeUnknownFormat   = "UNKNOWN_FORMAT"
)
