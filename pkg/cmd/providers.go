package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/unyte/adconnect/pkg/config"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/providers"
)

const platformHTTPTimeout = 15 * time.Second

// NewProviders loads the platform configuration file and builds the OAuth provider registry.
func NewProviders(ctx context.Context, logger *slog.Logger, configPath string, m *metrics.Metrics) *providers.Registry {
	configs, err := config.LoadPlatformConfig(configPath)
	if err != nil {
		panic(fmt.Errorf("failed to load platform config: %w", err))
	}

	registry, err := providers.Build(configs, providers.Dependencies{
		HTTPClient: &http.Client{Timeout: platformHTTPTimeout},
		Logger:     logger,
		Metrics:    m,
	})
	if err != nil {
		panic(fmt.Errorf("failed to build providers: %w", err))
	}

	logger.InfoContext(ctx, "Platform providers configured", "platforms", registry.Platforms())

	return registry
}
