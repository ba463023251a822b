package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

// Common error codes used across all packages
const (
	// Generic errors
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput  ErrorCode = "INVALID_INPUT"
	ErrCodeInvalidFormat ErrorCode = "INVALID_FORMAT"
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrCodeRateLimited   ErrorCode = "RATE_LIMITED"

	// Device context errors
	ErrCodeMissingIdentifier  ErrorCode = "MISSING_IDENTIFIER"
	ErrCodeProfileRequired    ErrorCode = "PROFILE_REQUIRED"
	ErrCodeLocationRequired   ErrorCode = "LOCATION_REQUIRED"
	ErrCodePayloadFormat      ErrorCode = "PAYLOAD_FORMAT_ERROR"
	ErrCodeIdentityResolution ErrorCode = "IDENTITY_RESOLUTION_ERROR"
	ErrCodePersistence        ErrorCode = "PERSISTENCE_ERROR"
)

// Error represents a structured error with code, message, and optional details
type Error struct {
	Code    ErrorCode              // Unique error code
	Message string                 // Human-readable error message
	Details map[string]interface{} // Optional additional details
	Err     error                  // Wrapped underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail to the error
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// HTTPStatusCode returns the appropriate HTTP status code for this error
func (e *Error) HTTPStatusCode() int {
	return MapErrorCodeToHTTPStatus(e.Code)
}

// New creates a new Error with the given code and message
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new Error with formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap wraps an existing error with code and message
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error
// Returns ErrCodeInternal if the error is not a structured Error
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ErrCodeInternal
}

// GetMessage returns the human-readable message of a structured error,
// falling back to err.Error() for anything else.
func GetMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// MapErrorCodeToHTTPStatus maps error codes to HTTP status codes
func MapErrorCodeToHTTPStatus(code ErrorCode) int {
	switch code {
	// 400 Bad Request
	case ErrCodeInvalidInput, ErrCodeInvalidFormat, ErrCodePayloadFormat,
		ErrCodeMissingIdentifier, ErrCodeProfileRequired, ErrCodeLocationRequired:
		return http.StatusBadRequest

	// 401 Unauthorized
	case ErrCodeUnauthorized, ErrCodeIdentityResolution:
		return http.StatusUnauthorized

	// 404 Not Found
	case ErrCodeNotFound:
		return http.StatusNotFound

	// 429 Too Many Requests
	case ErrCodeRateLimited:
		return http.StatusTooManyRequests

	// 500 Internal Server Error (default)
	case ErrCodePersistence, ErrCodeInternal:
		fallthrough
	default:
		return http.StatusInternalServerError
	}
}

// Common error constructors for frequently used errors

// NotFound creates a "not found" error
func NotFound(resourceType, identifier string) *Error {
	return Newf(ErrCodeNotFound, "%s not found: %s", resourceType, identifier)
}

// InvalidInput creates an "invalid input" error
func InvalidInput(field, reason string) *Error {
	return New(ErrCodeInvalidInput, fmt.Sprintf("invalid %s: %s", field, reason))
}

// RateLimited is returned when a client exceeds the named request limit
func RateLimited(limit string) *Error {
	return Newf(ErrCodeRateLimited, "too many requests (%s limit), try again later", limit)
}

// MissingIdentifier is returned when the device identifier is blank or absent
func MissingIdentifier() *Error {
	return New(ErrCodeMissingIdentifier, "device identifier cannot be found from the context")
}

// ProfileRequired is returned when no device profile was collected in this attempt
func ProfileRequired() *Error {
	return New(ErrCodeProfileRequired, "device attribute collection of the device profile is required")
}

// LocationRequired is returned when no device location was collected in this attempt
func LocationRequired() *Error {
	return New(ErrCodeLocationRequired, "device attribute collection of the device location is required")
}

// PayloadFormat wraps a malformed device attribute submission
func PayloadFormat(err error, message string) *Error {
	if err == nil {
		return New(ErrCodePayloadFormat, message)
	}
	return Wrap(err, ErrCodePayloadFormat, message)
}

// Persistence wraps an identity store write failure
func Persistence(err error, message string) *Error {
	return Wrap(err, ErrCodePersistence, message)
}
