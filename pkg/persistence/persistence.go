// Package persistence provides the storage abstraction for ad-platform connections.
package persistence

import (
	"context"

	"github.com/unyte/adconnect/pkg/models"
)

type Persistence interface {
	ConnectionRepository() ConnectionRepository
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// ConnectionRepository stores OAuth connections keyed by (user, organization, platform).
type ConnectionRepository interface {
	// FindConnection returns the connection for the key or ErrConnectionNotFound.
	FindConnection(ctx context.Context, userID, organizationID string, platform models.Platform) (*models.Connection, error)

	// ConnectionsByOrganization lists the user's connections within an organization.
	ConnectionsByOrganization(ctx context.Context, userID, organizationID string) ([]*models.Connection, error)

	// SaveConnection inserts the connection or replaces the credentials of the existing one with the same key.
	// The stored ID and CreatedAt are written back into connection.
	SaveConnection(ctx context.Context, connection *models.Connection) error

	// DeleteConnection removes a connection by ID, returning ErrConnectionNotFound when nothing was deleted.
	DeleteConnection(ctx context.Context, id string) error
}
