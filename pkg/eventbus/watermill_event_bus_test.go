package eventbus_test

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unyte/adconnect/pkg/channels/gochannel"
	"github.com/unyte/adconnect/pkg/eventbus"
	"github.com/unyte/adconnect/pkg/events"
	"github.com/unyte/adconnect/pkg/models"
)

func newBus(t *testing.T) *eventbus.WatermillEventBus {
	t.Helper()

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() { _ = bus.Close() })

	return bus
}

func TestWatermillEventBus_PublishAndHandle(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	received := make(chan *events.ConnectionDisconnected, 1)

	require.NoError(t, bus.Handle(events.ConnectionDisconnectedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.ConnectionDisconnected)

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	connection := &models.Connection{ID: "conn-1", Platform: models.PlatformGoogle, OrganizationID: "org-1", UserID: "u1"}
	require.NoError(t, bus.Publish(ctx, "org-1", events.NewConnectionDisconnected(connection, true)))

	select {
	case event := <-received:
		assert.Equal(t, "conn-1", event.ConnectionID)
		assert.Equal(t, models.PlatformGoogle, event.Platform)
		assert.True(t, event.Revoked)
	case <-time.After(5 * time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestWatermillEventBus_UnhandledEventsAreAcked(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	received := make(chan struct{}, 1)

	require.NoError(t, bus.Handle(events.CampaignCreatedEvent, func(context.Context, any) error {
		received <- struct{}{}

		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, bus.Subscribe(ctx))

	connection := &models.Connection{ID: "conn-1", Platform: models.PlatformGoogle}
	require.NoError(t, bus.Publish(ctx, "org-1", events.NewConnectionConnected(connection)))
	require.NoError(t, bus.Publish(ctx, "org-1", events.NewCampaignCreated("org-1", "1", &models.Campaign{ID: "2"})))

	select {
	case <-received:
	case <-time.After(5 * time.Second):
		t.Fatal("campaign event was not delivered after an unhandled event")
	}
}

func TestWatermillEventBus_GenerateID(t *testing.T) {
	t.Parallel()

	bus := newBus(t)
	assert.NotEqual(t, bus.GenerateID(), bus.GenerateID())
}
