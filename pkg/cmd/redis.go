package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/unyte/adconnect/pkg/cache"
)

// NewRedis connects to the Redis instance holding sessions and the shared cache.
func NewRedis(ctx context.Context, logger *slog.Logger, redisURL string) *redis.Client {
	options, err := redis.ParseURL(redisURL)
	if err != nil {
		panic(fmt.Errorf("invalid redis url: %w", err))
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		panic(fmt.Errorf("failed to ping redis: %w", err))
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr)

	return client
}

// NewCache returns a Redis cache when client is set and an in-process cache otherwise.
// The in-process cache is only correct for a single API instance.
//
//nolint:ireturn
func NewCache(client redis.UniversalClient) cache.Cache {
	if client == nil {
		return cache.NewMemory()
	}

	return cache.NewRedis(client, "adconnect:")
}
