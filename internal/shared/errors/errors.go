package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a record was not found where one was required
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeValidation indicates invalid input or a disallowed action
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConflict indicates a conflict with existing data
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeUnauthorized indicates authentication failure
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	// ErrorTypeForbidden indicates insufficient permissions
	ErrorTypeForbidden ErrorType = "forbidden"
	// ErrorTypeInternal indicates an internal server error
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeMethodNotAllowed indicates an unsupported HTTP method
	ErrorTypeMethodNotAllowed ErrorType = "method_not_allowed"
	// ErrorTypeExternal indicates an external service error
	ErrorTypeExternal ErrorType = "external"
	// ErrorTypeWriteFailure indicates the backing store rejected a write
	ErrorTypeWriteFailure ErrorType = "write_failure"
	// ErrorTypeMalformedRecord indicates a persisted record could not be decoded
	ErrorTypeMalformedRecord ErrorType = "malformed_record"
	// ErrorTypeInsufficientHolds indicates a container lacks cargo capacity
	ErrorTypeInsufficientHolds ErrorType = "insufficient_holds"
	// ErrorTypeClusterFull indicates no empty sector could be found in a cluster
	ErrorTypeClusterFull ErrorType = "cluster_full"
	// ErrorTypePartialReparent indicates a child was linked to its new parent
	// but could not be removed from its previous one
	ErrorTypePartialReparent ErrorType = "partial_reparent"
	// ErrorTypeRateLimited is returned when a client exceeds its request rate
	ErrorTypeRateLimited ErrorType = "rate_limited"
)

// AppError is the base error type for application errors
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// NotFoundf creates a not found error with formatting
func NotFoundf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeNotFound,
		Message: fmt.Sprintf(format, args...),
	}
}

// Validation creates a validation error
func Validation(message string) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
	}
}

// Validationf creates a validation error with formatting
func Validationf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeValidation,
		Message: message,
		Err:     err,
	}
}

// Conflictf creates a conflict error with formatting
func Conflictf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeConflict,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInternal,
		Message: message,
		Err:     err,
	}
}

// Unauthorized creates an unauthorized error
func Unauthorized(message string) error {
	return &AppError{
		Type:    ErrorTypeUnauthorized,
		Message: message,
	}
}

// Forbidden creates a forbidden error
func Forbidden(message string) error {
	return &AppError{
		Type:    ErrorTypeForbidden,
		Message: message,
	}
}

// MethodNotAllowed creates a method not allowed error
func MethodNotAllowed(method string) error {
	return &AppError{
		Type:    ErrorTypeMethodNotAllowed,
		Message: fmt.Sprintf("method %s not allowed", method),
	}
}

// RateLimited creates a rate limited error
func RateLimited(message string) error {
	return &AppError{
		Type:    ErrorTypeRateLimited,
		Message: message,
	}
}

// External creates an external service error
func External(message string) error {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
	}
}

// WrapExternal wraps an error as an external service error
func WrapExternal(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeExternal,
		Message: message,
		Err:     err,
	}
}

// WrapWriteFailure wraps a rejected store write. The caller's operation must
// be treated as not committed.
func WrapWriteFailure(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeWriteFailure,
		Message: message,
		Err:     err,
	}
}

// WrapMalformed wraps a decode failure for a persisted record
func WrapMalformed(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeMalformedRecord,
		Message: message,
		Err:     err,
	}
}

// Malformedf creates a malformed record error with formatting
func Malformedf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeMalformedRecord,
		Message: fmt.Sprintf(format, args...),
	}
}

// ClusterFullf creates a cluster full error with formatting
func ClusterFullf(format string, args ...interface{}) error {
	return &AppError{
		Type:    ErrorTypeClusterFull,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapInsufficientHolds wraps a capacity violation in a cargo transfer
func WrapInsufficientHolds(message string, err error) error {
	return &AppError{
		Type:    ErrorTypeInsufficientHolds,
		Message: message,
		Err:     err,
	}
}

// WrapPartialReparent wraps the failure to detach a child from its previous parent
func WrapPartialReparent(message string, err error) error {
	return &AppError{
		Type:    ErrorTypePartialReparent,
		Message: message,
		Err:     err,
	}
}

// GetType returns the error type of an error
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// HasType reports whether err carries the given error type
func HasType(err error, errorType ErrorType) bool {
	if err == nil {
		return false
	}
	return GetType(err) == errorType
}
