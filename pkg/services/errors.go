// Package services implements the connection lifecycle, the OAuth callback flow and
// the LinkedIn campaign submission use cases on top of persistence and the providers.
package services

import (
	"errors"
	"fmt"

	"github.com/unyte/adconnect/pkg/persistence"
)

var (
	// ErrUnauthenticated is returned when the request carries no authenticated user (401).
	ErrUnauthenticated = errors.New("user not authenticated")
	// ErrConnectionNotFound is returned when the user holds no connection for the platform (404).
	ErrConnectionNotFound = persistence.ErrConnectionNotFound
	// ErrExternalCallFailed is returned when a blocking provider call fails (502).
	ErrExternalCallFailed = errors.New("external call failed")
	// ErrValidationFailed is returned for malformed input (400).
	ErrValidationFailed = errors.New("validation failed")
	// ErrDeleteFailed is returned when the local connection record could not be removed (500).
	ErrDeleteFailed = errors.New("failed to delete connection")
	// ErrUnexpected is the catch-all for anything else (500).
	ErrUnexpected = errors.New("unexpected error")
)

const unexpectedMessage = "An unexpected error occurred"

// ServiceError wraps service-level errors with additional context.
type ServiceError struct {
	Op      string // Operation name
	Code    string // Error code for API responses
	Message string // Human-readable message, safe to show to the user
	Err     error  // Underlying error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}

	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func (e *ServiceError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 400.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidationFailed)
}

// IsNotFoundError checks if an error should return HTTP 404.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}

// IsExternalError checks if an error was caused by a failing provider and should return HTTP 502.
func IsExternalError(err error) bool {
	return errors.Is(err, ErrExternalCallFailed)
}

// UserMessage returns the message of the outermost ServiceError, or a generic message.
func UserMessage(err error) string {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) && serviceErr.Message != "" {
		return serviceErr.Message
	}

	return unexpectedMessage
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, code, message string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    code,
		Message: message,
		Err:     ErrValidationFailed,
	}
}

func newUnauthenticatedError(op string) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    "unauthenticated",
		Message: "User not authenticated",
		Err:     ErrUnauthenticated,
	}
}

func newUnexpectedError(op string, err error) *ServiceError {
	return &ServiceError{
		Op:      op,
		Code:    "unexpected",
		Message: unexpectedMessage,
		Err:     errors.Join(ErrUnexpected, err),
	}
}
