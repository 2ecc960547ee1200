package providers

import (
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"

	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/models"
)

// Dependencies are shared by every provider built from configuration.
type Dependencies struct {
	HTTPClient *http.Client
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Factory builds a provider from its platform configuration.
type Factory func(cfg Config, deps Dependencies) Provider

// Factories maps every supported platform to its provider constructor.
var Factories = map[models.Platform]Factory{
	models.PlatformGoogle:   NewGoogle,
	models.PlatformFacebook: NewFacebook,
	models.PlatformLinkedIn: NewLinkedIn,
	models.PlatformTikTok:   NewTikTok,
}

// Registry holds the configured providers by platform.
type Registry struct {
	providers map[models.Platform]Provider
	mu        sync.RWMutex
}

// NewRegistry creates an empty provider registry.
func NewRegistry() *Registry {
	return &Registry{providers: make(map[models.Platform]Provider)}
}

// Build creates a registry holding one provider for each configured platform.
func Build(configs map[models.Platform]Config, deps Dependencies) (*Registry, error) {
	if deps.HTTPClient == nil {
		deps.HTTPClient = http.DefaultClient
	}

	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	registry := NewRegistry()

	for platform, cfg := range configs {
		factory, ok := Factories[platform]
		if !ok {
			return nil, fmt.Errorf("no provider for platform %q", platform)
		}

		registry.Register(factory(cfg, deps))
	}

	return registry, nil
}

// Register adds or replaces the provider of its platform.
func (r *Registry) Register(provider Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.providers[provider.Platform()] = provider
}

// Get returns the provider of platform.
func (r *Registry) Get(platform models.Platform) (Provider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	provider, ok := r.providers[platform]
	if !ok {
		return nil, fmt.Errorf("%s: %w", platform, ErrProviderNotConfigured)
	}

	return provider, nil
}

// Platforms lists the configured platforms, sorted.
func (r *Registry) Platforms() []models.Platform {
	r.mu.RLock()
	defer r.mu.RUnlock()

	platforms := make([]models.Platform, 0, len(r.providers))
	for platform := range r.providers {
		platforms = append(platforms, platform)
	}

	sort.Slice(platforms, func(i, j int) bool { return platforms[i] < platforms[j] })

	return platforms
}
