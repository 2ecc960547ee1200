package cmd

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unyte/adconnect/pkg/cache"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/persistence/file"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParsePersistenceProvider(t *testing.T) {
	assert.Equal(t, "postgres", parsePersistenceProvider("postgres://user@localhost/adconnect"))
	assert.Equal(t, "file", parsePersistenceProvider("./data"))
	assert.Equal(t, "file", parsePersistenceProvider("file://./data"))
}

func TestNewPersistence_File(t *testing.T) {
	p := NewPersistence(t.Context(), discardLogger(), t.TempDir())

	_, ok := p.(*file.Persistence)
	assert.True(t, ok)
}

func TestNewCache(t *testing.T) {
	_, ok := NewCache(nil).(*cache.Memory)
	assert.True(t, ok)
}

func TestNewEventBus_Memory(t *testing.T) {
	bus := NewEventBus("memory", "", discardLogger())
	require.NotNil(t, bus)
	assert.NoError(t, bus.Close())

	assert.Panics(t, func() { NewEventBus("carrier-pigeon", "", discardLogger()) })
}

func TestNewProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "platforms.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
platforms:
  google:
    client_id: id
    client_secret: secret
    redirect_url: https://app.example.com/auth/google/callback
`), 0o600))

	registry := NewProviders(t.Context(), discardLogger(), path, metrics.New())

	assert.Equal(t, []models.Platform{models.PlatformGoogle}, registry.Platforms())
}
