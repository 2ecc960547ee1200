package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/unyte/adconnect/pkg/cache"
	"github.com/unyte/adconnect/pkg/eventbus"
	"github.com/unyte/adconnect/pkg/events"
)

// RegisterCacheInvalidation drops the cached dashboard views of a user and organization whenever
// a connection event arrives, so every API instance sharing the bus refreshes.
func RegisterCacheInvalidation(subscriber eventbus.EventSubscriber, store cache.Cache, logger *slog.Logger) error {
	logger = logger.With("module", "cache_invalidation")

	invalidate := func(ctx context.Context, userID, organizationID string) error {
		logger.DebugContext(ctx, "Invalidating dashboard caches", "user_id", userID, "organization_id", organizationID)

		return store.Delete(ctx, StatusCacheKey(userID, organizationID), AdAccountsCacheKey(userID, organizationID))
	}

	err := subscriber.Handle(events.ConnectionConnectedEvent, func(ctx context.Context, event any) error {
		connected, ok := event.(*events.ConnectionConnected)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}

		return invalidate(ctx, connected.UserID, connected.OrganizationID)
	})
	if err != nil {
		return fmt.Errorf("failed to register %s handler: %w", events.ConnectionConnectedEvent, err)
	}

	err = subscriber.Handle(events.ConnectionDisconnectedEvent, func(ctx context.Context, event any) error {
		disconnected, ok := event.(*events.ConnectionDisconnected)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}

		return invalidate(ctx, disconnected.UserID, disconnected.OrganizationID)
	})
	if err != nil {
		return fmt.Errorf("failed to register %s handler: %w", events.ConnectionDisconnectedEvent, err)
	}

	return nil
}
