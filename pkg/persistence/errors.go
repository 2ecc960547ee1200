package persistence

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionNotFound indicates no connection exists for the given key or identifier.
	ErrConnectionNotFound = errors.New("connection not found")

	// ErrInvalidConnection indicates a connection is missing its user, organization or platform.
	ErrInvalidConnection = errors.New("invalid connection")
)

// ConnectionError wraps connection-related errors with additional context.
type ConnectionError struct {
	Op             string // Operation being performed (e.g., "Find", "Save", "Delete")
	Platform       string
	OrganizationID string
	ConnectionID   string
	Err            error
}

func (e *ConnectionError) Error() string {
	target := e.ConnectionID
	if target == "" {
		target = fmt.Sprintf("%s in organization %s", e.Platform, e.OrganizationID)
	}

	return fmt.Sprintf("%s operation failed for connection %s: %v", e.Op, target, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for connection errors.
func (e *ConnectionError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewConnectionError creates a connection error addressed by its key.
func NewConnectionError(op, platform, organizationID string, err error) *ConnectionError {
	return &ConnectionError{
		Op:             op,
		Platform:       platform,
		OrganizationID: organizationID,
		Err:            err,
	}
}

// NewConnectionIDError creates a connection error addressed by its identifier.
func NewConnectionIDError(op, connectionID string, err error) *ConnectionError {
	return &ConnectionError{
		Op:           op,
		ConnectionID: connectionID,
		Err:          err,
	}
}

// IsConnectionNotFound checks if an error indicates a connection was not found.
func IsConnectionNotFound(err error) bool {
	return errors.Is(err, ErrConnectionNotFound)
}
