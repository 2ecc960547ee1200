package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unyte/adconnect/pkg/cache"
	"github.com/unyte/adconnect/pkg/cmd"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/persistence/file"
	"github.com/unyte/adconnect/pkg/providers"
	"github.com/unyte/adconnect/pkg/session"
)

type staticSessions struct{}

func (staticSessions) Lookup(_ context.Context, sessionID string) (*models.User, error) {
	if sessionID == "token" {
		return &models.User{ID: "user-1"}, nil
	}

	return nil, session.ErrSessionNotFound
}

func setupTestApp(t *testing.T) *fiber.App {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := cmd.NewEventBus("memory", "", logger)
	t.Cleanup(func() { _ = bus.Close() })

	api := NewAPI(
		logger,
		file.NewPersistence(t.TempDir()),
		providers.NewRegistry(),
		bus,
		staticSessions{},
		cache.NewMemory(),
		metrics.New(),
		nil,
		Settings{AppBaseURL: "https://app.example.com"},
	)

	return api.App()
}

func get(t *testing.T, app *fiber.App, target string, headers map[string]string) (*http.Response, string) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, string(body)
}

func TestAPI_RootEndpoint(t *testing.T) {
	resp, body := get(t, setupTestApp(t), "/", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "adconnect API", body)
}

func TestAPI_Liveness(t *testing.T) {
	resp, _ := get(t, setupTestApp(t), "/livez", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAPI_Metrics(t *testing.T) {
	resp, body := get(t, setupTestApp(t), "/metrics", nil)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "go_goroutines")
}

func TestAPI_ConnectionsRequireSession(t *testing.T) {
	app := setupTestApp(t)

	resp, _ := get(t, app, "/organizations/org-1/connections", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body := get(t, app, "/organizations/org-1/connections", map[string]string{session.HeaderName: "token"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `"platform":"google"`)
}

func TestAPI_ConnectUnconfiguredPlatform(t *testing.T) {
	resp, _ := get(t, setupTestApp(t), "/auth/google/connect?organization_id=org-1", map[string]string{session.HeaderName: "token"})

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
