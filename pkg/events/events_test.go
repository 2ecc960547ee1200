package events_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unyte/adconnect/pkg/events"
	"github.com/unyte/adconnect/pkg/models"
)

func TestNewConnectionDisconnected(t *testing.T) {
	t.Parallel()

	event := events.NewConnectionDisconnected(&models.Connection{
		ID:             "conn-1",
		Platform:       models.PlatformTikTok,
		OrganizationID: "org-1",
		UserID:         "user-1",
		AccessToken:    "secret",
	}, false)

	assert.Equal(t, events.ConnectionDisconnectedEvent, event.GetType())
	assert.Equal(t, events.ConnectionDisconnectedEvent, event.Type)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	payload, err := json.Marshal(event)
	require.NoError(t, err)
	assert.NotContains(t, string(payload), "secret")
	assert.Contains(t, string(payload), `"connection_id":"conn-1"`)
}

func TestNewCampaignCreated(t *testing.T) {
	t.Parallel()

	event := events.NewCampaignCreated("org-1", "508", &models.Campaign{
		ID:              "900",
		CampaignGroupID: "77",
		Type:            models.CampaignTypeTextAd,
	})

	assert.Equal(t, events.CampaignCreatedEvent, event.GetType())
	assert.Equal(t, "77", event.CampaignGroupID)
	assert.Equal(t, models.CampaignTypeTextAd, event.CampaignType)
}
