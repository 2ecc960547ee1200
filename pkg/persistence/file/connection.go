package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/persistence"
)

// ConnectionRepository stores one JSON document per connection under <root>/connections.
type ConnectionRepository struct {
	root string
	mu   sync.Mutex
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(root string) *ConnectionRepository {
	return &ConnectionRepository{root: root}
}

func (cr *ConnectionRepository) dir() string {
	return path.Join(cr.root, "connections")
}

func (cr *ConnectionRepository) filePath(id string) string {
	return filepath.Clean(path.Join(cr.dir(), id+".json"))
}

// FindConnection returns the connection for the (user, organization, platform) key.
func (cr *ConnectionRepository) FindConnection(_ context.Context, userID, organizationID string, platform models.Platform) (*models.Connection, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	connection, err := cr.findByKey(userID, organizationID, platform)
	if err != nil {
		return nil, err
	}

	if connection == nil {
		return nil, persistence.NewConnectionError("Find", string(platform), organizationID, persistence.ErrConnectionNotFound)
	}

	return connection, nil
}

// ConnectionsByOrganization lists the user's connections within an organization, oldest first.
func (cr *ConnectionRepository) ConnectionsByOrganization(_ context.Context, userID, organizationID string) ([]*models.Connection, error) {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	all, err := cr.loadAll()
	if err != nil {
		return nil, err
	}

	connections := make([]*models.Connection, 0)

	for _, connection := range all {
		if connection.UserID == userID && connection.OrganizationID == organizationID {
			connections = append(connections, connection)
		}
	}

	return connections, nil
}

// SaveConnection upserts on the (user, organization, platform) key.
func (cr *ConnectionRepository) SaveConnection(_ context.Context, connection *models.Connection) error {
	if connection.UserID == "" || connection.OrganizationID == "" || connection.Platform == "" {
		return persistence.NewConnectionError("Save", string(connection.Platform), connection.OrganizationID, persistence.ErrInvalidConnection)
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()

	existing, err := cr.findByKey(connection.UserID, connection.OrganizationID, connection.Platform)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	if existing != nil {
		connection.ID = existing.ID
		connection.CreatedAt = existing.CreatedAt
	} else {
		if connection.ID == "" {
			connection.ID = uuid.NewString()
		}

		connection.CreatedAt = now
	}

	connection.UpdatedAt = now

	err = os.MkdirAll(cr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create connections directory: %w", err)
	}

	data, err := json.MarshalIndent(connection, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal connection %s: %w", connection.ID, err)
	}

	return os.WriteFile(cr.filePath(connection.ID), data, 0600)
}

// DeleteConnection removes the connection document.
func (cr *ConnectionRepository) DeleteConnection(_ context.Context, id string) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	err := os.Remove(cr.filePath(id))
	if err != nil && os.IsNotExist(err) {
		return persistence.NewConnectionIDError("Delete", id, persistence.ErrConnectionNotFound)
	}

	if err != nil {
		return fmt.Errorf("failed to delete connection %s: %w", id, err)
	}

	return nil
}

func (cr *ConnectionRepository) findByKey(userID, organizationID string, platform models.Platform) (*models.Connection, error) {
	all, err := cr.loadAll()
	if err != nil {
		return nil, err
	}

	for _, connection := range all {
		if connection.UserID == userID && connection.OrganizationID == organizationID && connection.Platform == platform {
			return connection, nil
		}
	}

	return nil, nil
}

func (cr *ConnectionRepository) loadAll() ([]*models.Connection, error) {
	jsonFiles, err := fs.Glob(os.DirFS(cr.root), "connections/*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list connection files: %w", err)
	}

	connections := make([]*models.Connection, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		body, err := os.ReadFile(filepath.Join(cr.root, file))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return nil, fmt.Errorf("failed to read connection file %s: %w", file, err)
		}

		var connection models.Connection

		err = json.Unmarshal(body, &connection)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal connection file %s: %w", file, err)
		}

		connections = append(connections, &connection)
	}

	sort.Slice(connections, func(i, j int) bool {
		return connections[i].CreatedAt.Before(connections[j].CreatedAt)
	})

	return connections, nil
}
