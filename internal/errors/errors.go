// FilePath: internal/errors/errors.go
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// Error types
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeDatabase       ErrorType = "database"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeInternal       ErrorType = "internal"
	ErrorTypeUnavailable    ErrorType = "service_unavailable"
	ErrorTypePartialSuccess ErrorType = "partial_success"
)

// Sentinels for programmatic checks; wrapped into APIErrors by the services.
var (
	ErrInvalidDevice = stderrors.New("invalid device")
	ErrInvalidStatus = stderrors.New("invalid status")

	// ErrRecordAlreadyOpen is returned when a device already has an open
	// operation record.
	ErrRecordAlreadyOpen = stderrors.New("operation record already open")
)

// APIError represents a structured API error
type APIError struct {
	Type      ErrorType `json:"type"`
	Message   string    `json:"message"`
	Code      int       `json:"code"`
	RequestID string    `json:"request_id,omitempty"`
	Details   any       `json:"details,omitempty"`
	err       error     // Internal error for logging
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s (internal: %v)", e.Type, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the internal error to errors.Is / errors.As
func (e *APIError) Unwrap() error {
	return e.err
}

// Cause returns the internal error message, or "" when there is none
func (e *APIError) Cause() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

// WithRequestID adds a request ID to the error
func (e *APIError) WithRequestID(id string) *APIError {
	e.RequestID = id
	return e
}

// WithDetails adds additional details to the error
func (e *APIError) WithDetails(details any) *APIError {
	e.Details = details
	return e
}

// NewValidationError creates a new validation error
func NewValidationError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeValidation,
		Message: msg,
		Code:    http.StatusBadRequest,
		err:     err,
	}
}

// NewDatabaseError creates a new database error
func NewDatabaseError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeDatabase,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeNotFound,
		Message: msg,
		Code:    http.StatusNotFound,
		err:     err,
	}
}

// NewInternalError creates a new internal server error
func NewInternalError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeInternal,
		Message: msg,
		Code:    http.StatusInternalServerError,
		err:     err,
	}
}

// NewUnavailableError is returned when an upstream collaborator cannot be reached
func NewUnavailableError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypeUnavailable,
		Message: msg,
		Code:    http.StatusServiceUnavailable,
		err:     err,
	}
}

// NewPartialSuccessError reports a local write that succeeded while the
// follow-up push to the device cloud did not.
func NewPartialSuccessError(msg string, err error) *APIError {
	return &APIError{
		Type:    ErrorTypePartialSuccess,
		Message: msg,
		Code:    http.StatusMultiStatus,
		err:     err,
	}
}

// IsNotFound checks if an error is a NotFound error
func IsNotFound(err error) bool {
	return hasType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a Validation error
func IsValidation(err error) bool {
	return hasType(err, ErrorTypeValidation)
}

// IsPartialSuccess checks if an error is a PartialSuccess error
func IsPartialSuccess(err error) bool {
	return hasType(err, ErrorTypePartialSuccess)
}

// IsAlreadyOpen reports whether err is or wraps ErrRecordAlreadyOpen
func IsAlreadyOpen(err error) bool {
	return stderrors.Is(err, ErrRecordAlreadyOpen)
}

// AsAPIError returns err as an APIError, wrapping unknown errors as internal
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}
	return NewInternalError("internal error", err)
}

func hasType(err error, t ErrorType) bool {
	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr.Type == t
	}
	return false
}
