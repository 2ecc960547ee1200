package models

import "time"

// Connection is a stored OAuth credential linking one user, one organization and one ad platform.
// At most one connection exists per (UserID, OrganizationID, Platform).
type Connection struct {
	ID             string     `json:"id"`
	Platform       Platform   `json:"platform"        validate:"required"`
	OrganizationID string     `json:"organization_id" validate:"required"`
	UserID         string     `json:"user_id"         validate:"required"`
	AccessToken    string     `json:"access_token"`
	RefreshToken   string     `json:"refresh_token,omitempty"`
	Scope          string     `json:"scope,omitempty"`
	ExpiresAt      *time.Time `json:"expires_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// RevocationToken returns the token to send to the provider's revocation endpoint.
// Refresh tokens are preferred because revoking them invalidates the whole grant.
func (c *Connection) RevocationToken() string {
	if c.RefreshToken != "" {
		return c.RefreshToken
	}

	return c.AccessToken
}

// ConnectionStatus is the public view of a connection, without credentials.
type ConnectionStatus struct {
	Platform    Platform   `json:"platform"`
	Connected   bool       `json:"connected"`
	ConnectedAt *time.Time `json:"connected_at,omitempty"`
}

// AccountProfile is the provider account behind a connection, shown before the user disconnects it.
type AccountProfile struct {
	Platform       Platform `json:"platform"`
	ID             string   `json:"id,omitempty"`
	DisplayName    string   `json:"display_name"`
	Email          string   `json:"email,omitempty"`
	ProfilePicture string   `json:"profile_picture,omitempty"`
}
