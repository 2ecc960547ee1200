// Package events defines the notifications published when platform connections and campaigns change.
package events

import (
	"time"

	"github.com/google/uuid"
	"github.com/unyte/adconnect/pkg/models"
)

type EventType string

// Topic is the single topic every adconnect event is published on.
const Topic = "adconnect.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	ConnectionConnectedEvent    EventType = "connection.connected"
	ConnectionDisconnectedEvent EventType = "connection.disconnected"
	CampaignCreatedEvent        EventType = "campaign.created"
)

type BaseEvent struct {
	ID        string    `json:"id"`
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func newBaseEvent(eventType EventType) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
	}
}

// ConnectionConnected is published after an OAuth callback stored a connection.
type ConnectionConnected struct {
	BaseEvent

	ConnectionID   string          `json:"connection_id"`
	Platform       models.Platform `json:"platform"`
	OrganizationID string          `json:"organization_id"`
	UserID         string          `json:"user_id"`
}

func (e ConnectionConnected) GetType() EventType {
	return ConnectionConnectedEvent
}

func NewConnectionConnected(connection *models.Connection) ConnectionConnected {
	return ConnectionConnected{
		BaseEvent:      newBaseEvent(ConnectionConnectedEvent),
		ConnectionID:   connection.ID,
		Platform:       connection.Platform,
		OrganizationID: connection.OrganizationID,
		UserID:         connection.UserID,
	}
}

// ConnectionDisconnected is published after a connection was removed. Dashboards refresh
// their connection status when they see it.
type ConnectionDisconnected struct {
	BaseEvent

	ConnectionID   string          `json:"connection_id"`
	Platform       models.Platform `json:"platform"`
	OrganizationID string          `json:"organization_id"`
	UserID         string          `json:"user_id"`
	Revoked        bool            `json:"revoked"`
}

func (e ConnectionDisconnected) GetType() EventType {
	return ConnectionDisconnectedEvent
}

func NewConnectionDisconnected(connection *models.Connection, revoked bool) ConnectionDisconnected {
	return ConnectionDisconnected{
		BaseEvent:      newBaseEvent(ConnectionDisconnectedEvent),
		ConnectionID:   connection.ID,
		Platform:       connection.Platform,
		OrganizationID: connection.OrganizationID,
		UserID:         connection.UserID,
		Revoked:        revoked,
	}
}

// CampaignCreated is published after a LinkedIn campaign was submitted.
type CampaignCreated struct {
	BaseEvent

	OrganizationID  string              `json:"organization_id"`
	AdAccountID     string              `json:"ad_account_id"`
	CampaignGroupID string              `json:"campaign_group_id"`
	CampaignID      string              `json:"campaign_id"`
	CampaignType    models.CampaignType `json:"campaign_type"`
}

func (e CampaignCreated) GetType() EventType {
	return CampaignCreatedEvent
}

func NewCampaignCreated(organizationID, adAccountID string, campaign *models.Campaign) CampaignCreated {
	return CampaignCreated{
		BaseEvent:       newBaseEvent(CampaignCreatedEvent),
		OrganizationID:  organizationID,
		AdAccountID:     adAccountID,
		CampaignGroupID: campaign.CampaignGroupID,
		CampaignID:      campaign.ID,
		CampaignType:    campaign.Type,
	}
}
