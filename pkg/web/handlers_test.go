package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/unyte/adconnect/pkg/autopopulate"
	"github.com/unyte/adconnect/pkg/cache"
	"github.com/unyte/adconnect/pkg/linkedin"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/mocks"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/persistence"
	"github.com/unyte/adconnect/pkg/persistence/file"
	"github.com/unyte/adconnect/pkg/providers"
	"github.com/unyte/adconnect/pkg/services"
	"github.com/unyte/adconnect/pkg/session"
	"github.com/unyte/adconnect/pkg/web"
)

const (
	appBaseURL   = "https://app.example.com"
	sessionToken = "session-1"
)

type fakeSessions map[string]*models.User

func (s fakeSessions) Lookup(_ context.Context, sessionID string) (*models.User, error) {
	if user, ok := s[sessionID]; ok {
		return user, nil
	}

	return nil, session.ErrSessionNotFound
}

type testEnv struct {
	app         *fiber.App
	persistence persistence.Persistence
	api         *mocks.MockLinkedInAPI
	tokens      *mocks.MockTokenSource
}

// newPlatformServer fakes the authorization, token and revocation endpoints.
func newPlatformServer(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			var body map[string]string
			_ = json.NewDecoder(r.Body).Decode(&body)

			if body["auth_code"] != "good-code" {
				_, _ = w.Write([]byte(`{"code":40001,"message":"invalid auth_code"}`))

				return
			}

			_, _ = w.Write([]byte(`{"code":0,"message":"OK","data":{"access_token":"tiktok-access","scope":[1,2]}}`))
		case "/revoke":
			w.WriteHeader(http.StatusOK)
		case "/userinfo":
			if r.Header.Get("Authorization") != "Bearer access" {
				w.WriteHeader(http.StatusUnauthorized)

				return
			}

			_, _ = w.Write([]byte(`{"sub":"g-1","name":"","email":"ada@example.com"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func setupTestApp(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server := newPlatformServer(t)
	m := metrics.New()

	cfg := providers.Config{
		ClientID:     "client",
		ClientSecret: "secret",
		RedirectURL:  appBaseURL + "/callback",
		AuthURL:      server.URL + "/authorize",
		TokenURL:     server.URL + "/token",
		RevokeURL:    server.URL + "/revoke",
		UserInfoURL:  server.URL + "/userinfo",
	}

	registry, err := providers.Build(map[models.Platform]providers.Config{
		models.PlatformGoogle: cfg,
		models.PlatformTikTok: cfg,
	}, providers.Dependencies{HTTPClient: server.Client(), Logger: logger, Metrics: m})
	require.NoError(t, err)

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	store := cache.NewMemory()
	p := file.NewPersistence(t.TempDir())

	connectionService := services.NewConnection(services.ConnectionDependencies{
		Persistence: p,
		Providers:   registry,
		Publisher:   bus,
		Cache:       store,
		Metrics:     m,
		Logger:      logger,
	})

	api := &mocks.MockLinkedInAPI{}
	tokens := &mocks.MockTokenSource{}
	linkedInService := services.NewLinkedIn(api, tokens, bus, store, nil, logger)

	handlers := web.NewAPIHandlers(
		connectionService,
		linkedInService,
		autopopulate.NewEngine(logger, nil),
		validator.New(validator.WithRequiredStructEnabled()),
		m,
		web.HandlerConfig{AppBaseURL: appBaseURL},
		logger,
	)

	app := fiber.New()
	app.Use(session.Middleware(fakeSessions{sessionToken: {ID: "user-1"}}, logger))

	app.Get("/health", handlers.HealthCheck)

	auth := app.Group("/auth")
	auth.Get("/error", handlers.AuthError)
	auth.Get("/:platform/connect", handlers.Connect)
	auth.Get("/:platform/callback", handlers.Callback)

	org := app.Group("/organizations/:orgId")
	org.Get("/connections", handlers.GetConnections)
	org.Delete("/connections/:platform", handlers.Disconnect)
	org.Get("/connections/:platform/account", handlers.GetAccount)
	org.Post("/linkedin/auto-populate", handlers.AutoPopulate)
	org.Get("/linkedin/ad-accounts", handlers.GetAdAccounts)
	org.Get("/linkedin/ad-accounts/:accountId/campaign-groups", handlers.GetCampaignGroups)
	org.Post("/linkedin/ad-accounts/:accountId/campaign-groups", handlers.CreateCampaignGroup)
	org.Post("/linkedin/ad-accounts/:accountId/campaigns", handlers.CreateCampaign)

	return &testEnv{app: app, persistence: p, api: api, tokens: tokens}
}

func (e *testEnv) do(t *testing.T, method, target string, body any, authenticated bool, cookies ...*http.Cookie) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	if authenticated {
		req.Header.Set(session.HeaderName, sessionToken)
	}

	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := e.app.Test(req)
	require.NoError(t, err)

	t.Cleanup(func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	})

	return resp
}

func readJSON(t *testing.T, resp *http.Response, target any) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(body, target), string(body))
}

func responseCookie(resp *http.Response, name string) *http.Cookie {
	for _, cookie := range resp.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}

	return nil
}

func (e *testEnv) seed(t *testing.T, platform models.Platform) {
	t.Helper()

	require.NoError(t, e.persistence.ConnectionRepository().SaveConnection(t.Context(), &models.Connection{
		Platform:       platform,
		OrganizationID: "org-1",
		UserID:         "user-1",
		AccessToken:    "access",
		RefreshToken:   "refresh",
	}))
}

func TestConnect(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	t.Run("redirects to the provider and stores the state", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/auth/google/connect?organization_id=org-1", nil, true)

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Contains(t, resp.Header.Get("Location"), "/authorize?")

		cookie := responseCookie(resp, "google_csrf_state")
		require.NotNil(t, cookie)
		assert.True(t, strings.HasSuffix(cookie.Value, services.StateSeparator+"org-1"))
		assert.True(t, cookie.HttpOnly)
		assert.Contains(t, resp.Header.Get("Location"), "state=")
	})

	t.Run("requires a session", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/auth/google/connect?organization_id=org-1", nil, false)

		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("requires an organization", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/auth/google/connect", nil, true)

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown platform", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/auth/myspace/connect?organization_id=org-1", nil, true)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("platform without configuration", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/auth/linkedin/connect?organization_id=org-1", nil, true)

		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		var problem map[string]any
		readJSON(t, resp, &problem)
		assert.Equal(t, "provider_not_configured", problem["type"])
	})
}

func TestCallback_CompletesFlow(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := env.do(t, http.MethodGet, "/auth/tiktok/connect?organization_id=org-1", nil, true)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	state := responseCookie(resp, "tiktok_csrf_state")
	require.NotNil(t, state)

	resp = env.do(t, http.MethodGet, "/auth/tiktok/callback?code=good-code&state="+state.Value, nil, true,
		&http.Cookie{Name: "tiktok_csrf_state", Value: state.Value})

	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, appBaseURL+"/home/org-1?tiktok=connected&success=1", resp.Header.Get("Location"))

	connection, err := env.persistence.ConnectionRepository().FindConnection(t.Context(), "user-1", "org-1", models.PlatformTikTok)
	require.NoError(t, err)
	assert.Equal(t, "tiktok-access", connection.AccessToken)
	assert.Equal(t, "1,2", connection.Scope)
}

func TestCallback_Failures(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	state := "nonce" + services.StateSeparator + "org-1"

	tests := []struct {
		name     string
		query    string
		cookie   string
		location string
	}{
		{
			name:     "provider error",
			query:    "error=access_denied&error_description=User%20cancelled",
			location: appBaseURL + "/auth/error?error=access_denied&description=User%20cancelled",
		},
		{
			name:     "missing state cookie",
			query:    "code=good-code&state=" + state,
			location: appBaseURL + "/auth/error?error=Invalid%20state%20parameter",
		},
		{
			name:     "state mismatch",
			query:    "code=good-code&state=" + state,
			cookie:   "other" + services.StateSeparator + "org-1",
			location: appBaseURL + "/auth/error?error=Invalid%20state%20parameter",
		},
		{
			name:     "missing code",
			query:    "state=" + state,
			cookie:   state,
			location: appBaseURL + "/auth/error?error=Missing%20required%20parameters",
		},
		{
			name:     "rejected code",
			query:    "code=bad-code&state=" + state,
			cookie:   state,
			location: appBaseURL + "/auth/error?error=Failed%20to%20exchange%20token",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cookies []*http.Cookie
			if tt.cookie != "" {
				cookies = append(cookies, &http.Cookie{Name: "tiktok_csrf_state", Value: tt.cookie})
			}

			resp := env.do(t, http.MethodGet, "/auth/tiktok/callback?"+tt.query, nil, true, cookies...)

			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.location, resp.Header.Get("Location"))
		})
	}
}

func TestAuthError(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := env.do(t, http.MethodGet, "/auth/error?error=%3Cscript%3E", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Sorry, something went wrong.")
	assert.Contains(t, string(body), "Code error: &lt;script&gt;")
	assert.NotContains(t, string(body), "<script>")

	resp = env.do(t, http.MethodGet, "/auth/error", nil, false)
	body, err = io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "An unspecified error occurred.")
}

func TestDisconnect(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seed(t, models.PlatformGoogle)

	resp := env.do(t, http.MethodDelete, "/organizations/org-1/connections/google", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result web.DisconnectResponse
	readJSON(t, resp, &result)
	assert.True(t, result.Success)
	assert.Empty(t, result.Error)

	resp = env.do(t, http.MethodDelete, "/organizations/org-1/connections/google", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	readJSON(t, resp, &result)
	assert.False(t, result.Success)
	assert.Equal(t, "Google connection not found", result.Error)
}

func TestDisconnect_Unauthenticated(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seed(t, models.PlatformGoogle)

	resp := env.do(t, http.MethodDelete, "/organizations/org-1/connections/google", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var result web.DisconnectResponse
	readJSON(t, resp, &result)
	assert.False(t, result.Success)
	assert.Equal(t, "User not authenticated", result.Error)

	_, err := env.persistence.ConnectionRepository().FindConnection(t.Context(), "user-1", "org-1", models.PlatformGoogle)
	assert.NoError(t, err)
}

func TestDisconnect_UnknownPlatform(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := env.do(t, http.MethodDelete, "/organizations/org-1/connections/myspace", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestGetConnections(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seed(t, models.PlatformLinkedIn)

	resp := env.do(t, http.MethodGet, "/organizations/org-1/connections", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Connections []models.ConnectionStatus `json:"connections"`
	}
	readJSON(t, resp, &result)

	require.Len(t, result.Connections, len(models.Platforms))

	for _, status := range result.Connections {
		assert.Equal(t, status.Platform == models.PlatformLinkedIn, status.Connected, status.Platform)
	}
}

func TestGetAccount(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seed(t, models.PlatformGoogle)

	resp := env.do(t, http.MethodGet, "/organizations/org-1/connections/google/account", nil, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result struct {
		Account models.AccountProfile `json:"account"`
	}
	readJSON(t, resp, &result)

	assert.Equal(t, models.PlatformGoogle, result.Account.Platform)
	assert.Equal(t, "g-1", result.Account.ID)
	assert.Equal(t, "Google User", result.Account.DisplayName)
	assert.Equal(t, "ada@example.com", result.Account.Email)
}

func TestGetAccount_NotConnected(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := env.do(t, http.MethodGet, "/organizations/org-1/connections/meta/account", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem struct {
		Detail string `json:"detail"`
	}
	readJSON(t, resp, &problem)
	assert.Equal(t, "No Meta account connected", problem.Detail)
}

func TestGetAccount_Errors(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.seed(t, models.PlatformGoogle)

	resp := env.do(t, http.MethodGet, "/organizations/org-1/connections/google/account", nil, false)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodGet, "/organizations/org-1/connections/myspace/account", nil, true)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAutoPopulate(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	t.Run("derives fields", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/organizations/org-1/linkedin/auto-populate", map[string]any{
			"form": map[string]any{
				"rawText": "",
				"formData": []map[string]string{
					{"question": "Campaign Name", "answer": "Spring Launch"},
					{"question": "Total budget", "answer": "$10,000"},
				},
			},
		}, true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result web.AutoPopulateResponse
		readJSON(t, resp, &result)

		require.NotNil(t, result.Fields.Name)
		assert.Equal(t, "Spring Launch", *result.Fields.Name)
		assert.Contains(t, result.Fields.Filled, "Campaign Name")
		assert.InDelta(t, 10000, result.Budget.TotalBudget, 0.001)
		assert.Positive(t, result.Suggestions.Minimum)
		assert.NotEmpty(t, result.Notifications)
	})

	t.Run("no form data", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/organizations/org-1/linkedin/auto-populate", map[string]any{
			"form": map[string]any{"rawText": "hello", "formData": nil},
		}, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var result web.AutoPopulateResponse
		readJSON(t, resp, &result)
		require.Len(t, result.Notifications, 1)
		assert.Equal(t, "No form data available for auto-population", result.Notifications[0].Title)
	})

	t.Run("schema violation", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/organizations/org-1/linkedin/auto-populate", map[string]any{
			"form": map[string]any{"formData": "not a list"},
		}, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var problem map[string]any
		readJSON(t, resp, &problem)
		assert.Equal(t, "validation_error", problem["type"])
	})

	t.Run("unknown campaign type", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/organizations/org-1/linkedin/auto-populate", map[string]any{
			"form":         map[string]any{"formData": []any{}},
			"campaignType": "BILLBOARD",
		}, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestLinkedInRoutes(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)
	env.tokens.On("AccessToken", mock.Anything, models.PlatformLinkedIn, "org-1").Return("li-token", nil)

	t.Run("ad accounts", func(t *testing.T) {
		env.api.On("AdAccounts", mock.Anything, "li-token").Return([]models.AdAccount{{ID: "5101", Name: "Acme"}}, nil).Once()

		resp := env.do(t, http.MethodGet, "/organizations/org-1/linkedin/ad-accounts", nil, true)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var result struct {
			Accounts []models.AdAccount `json:"accounts"`
		}
		readJSON(t, resp, &result)
		require.Len(t, result.Accounts, 1)
		assert.Equal(t, "Acme", result.Accounts[0].Name)
	})

	t.Run("create campaign group rejects an empty name", func(t *testing.T) {
		resp := env.do(t, http.MethodPost, "/organizations/org-1/linkedin/ad-accounts/5101/campaign-groups",
			web.CreateCampaignGroupRequest{}, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("create campaign group", func(t *testing.T) {
		env.api.On("CreateCampaignGroup", mock.Anything, "li-token", "5101", "Q3").
			Return(&models.CampaignGroup{ID: "901", Name: "Q3"}, nil).Once()

		resp := env.do(t, http.MethodPost, "/organizations/org-1/linkedin/ad-accounts/5101/campaign-groups",
			web.CreateCampaignGroupRequest{Name: "Q3"}, true)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)
	})

	t.Run("create campaign applies overrides", func(t *testing.T) {
		draft := models.NewCampaignDraft()
		draft.Name = "Draft name"
		draft.BudgetAmount = "50"
		draft.StartDate = "2025-03-03"

		name := "Launch"

		env.api.On("CreateCampaign", mock.Anything, "li-token", "5101", mock.MatchedBy(func(req linkedin.CampaignRequest) bool {
			return req.Name == "Launch" && req.CampaignGroupID == "901" && req.BudgetAmount == "50"
		})).Return(&models.Campaign{ID: "7001", Name: "Launch"}, nil).Once()
		env.api.On("CreateCampaign", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe().
			Return(nil, linkedin.ErrMissingID)

		resp := env.do(t, http.MethodPost, "/organizations/org-1/linkedin/ad-accounts/5101/campaigns", web.CreateCampaignRequest{
			CampaignGroupID: "901",
			Draft:           *draft,
			Overrides:       web.CampaignOverrides{Name: &name},
		}, true)
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		var campaign models.Campaign
		readJSON(t, resp, &campaign)
		assert.Equal(t, "7001", campaign.ID)
	})

	t.Run("requires a session", func(t *testing.T) {
		resp := env.do(t, http.MethodGet, "/organizations/org-1/linkedin/ad-accounts", nil, false)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestHealthCheck(t *testing.T) {
	t.Parallel()

	env := setupTestApp(t)

	resp := env.do(t, http.MethodGet, "/health", nil, false)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result map[string]any
	readJSON(t, resp, &result)
	assert.Equal(t, "healthy", result["status"])
}
