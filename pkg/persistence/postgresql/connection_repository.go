package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/persistence"
)

const connectionColumns = `id, platform, organization_id, user_id, access_token, refresh_token, scope, expires_at, created_at, updated_at`

// ConnectionRepository handles connection-related database operations.
type ConnectionRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewConnectionRepository creates a new connection repository.
func NewConnectionRepository(db *sql.DB, logger *slog.Logger) *ConnectionRepository {
	return &ConnectionRepository{db: db, logger: logger}
}

// FindConnection retrieves the connection for a (user, organization, platform) key.
func (cr *ConnectionRepository) FindConnection(ctx context.Context, userID, organizationID string, platform models.Platform) (*models.Connection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM platform_connections
		WHERE user_id = $1 AND organization_id = $2 AND platform = $3`

	row := cr.db.QueryRowContext(ctx, query, userID, organizationID, string(platform))

	connection, err := cr.scanConnection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewConnectionError("Find", string(platform), organizationID, persistence.ErrConnectionNotFound)
		}

		return nil, fmt.Errorf("failed to scan connection: %w", err)
	}

	return connection, nil
}

// ConnectionsByOrganization retrieves every connection a user holds in an organization.
func (cr *ConnectionRepository) ConnectionsByOrganization(ctx context.Context, userID, organizationID string) ([]*models.Connection, error) {
	query := `SELECT ` + connectionColumns + `
		FROM platform_connections
		WHERE user_id = $1 AND organization_id = $2
		ORDER BY created_at`

	rows, err := cr.db.QueryContext(ctx, query, userID, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query platform connections: %w", err)
	}

	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			cr.logger.ErrorContext(ctx, "failed to close rows", "error", closeErr)
		}
	}()

	connections := make([]*models.Connection, 0)

	for rows.Next() {
		connection, err := cr.scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan connection: %w", err)
		}

		connections = append(connections, connection)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating connections: %w", err)
	}

	return connections, nil
}

// SaveConnection inserts a connection or, on key conflict, replaces the stored credentials.
func (cr *ConnectionRepository) SaveConnection(ctx context.Context, connection *models.Connection) error {
	if connection.UserID == "" || connection.OrganizationID == "" || connection.Platform == "" {
		return persistence.NewConnectionError("Save", string(connection.Platform), connection.OrganizationID, persistence.ErrInvalidConnection)
	}

	if connection.ID == "" {
		connection.ID = uuid.NewString()
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO platform_connections (` + connectionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
		ON CONFLICT (user_id, organization_id, platform) DO UPDATE SET
			access_token = EXCLUDED.access_token,
			refresh_token = EXCLUDED.refresh_token,
			scope = EXCLUDED.scope,
			expires_at = EXCLUDED.expires_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at, updated_at`

	err := cr.db.QueryRowContext(ctx, query,
		connection.ID,
		string(connection.Platform),
		connection.OrganizationID,
		connection.UserID,
		connection.AccessToken,
		nullString(connection.RefreshToken),
		nullString(connection.Scope),
		connection.ExpiresAt,
		now,
	).Scan(&connection.ID, &connection.CreatedAt, &connection.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save connection: %w", err)
	}

	return nil
}

// DeleteConnection removes a connection from the database.
func (cr *ConnectionRepository) DeleteConnection(ctx context.Context, id string) error {
	result, err := cr.db.ExecContext(ctx, `DELETE FROM platform_connections WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete connection: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return persistence.NewConnectionIDError("Delete", id, persistence.ErrConnectionNotFound)
	}

	return nil
}

// scanConnection scans a connection from a database row.
func (cr *ConnectionRepository) scanConnection(scanner interface {
	Scan(dest ...any) error
}) (*models.Connection, error) {
	var (
		connection          models.Connection
		platform            string
		refreshToken, scope sql.NullString
		expiresAt           sql.NullTime
	)

	err := scanner.Scan(
		&connection.ID,
		&platform,
		&connection.OrganizationID,
		&connection.UserID,
		&connection.AccessToken,
		&refreshToken,
		&scope,
		&expiresAt,
		&connection.CreatedAt,
		&connection.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	connection.Platform = models.Platform(platform)
	connection.RefreshToken = refreshToken.String
	connection.Scope = scope.String

	if expiresAt.Valid {
		t := expiresAt.Time
		connection.ExpiresAt = &t
	}

	return &connection, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
