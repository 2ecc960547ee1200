package linkedin_test

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/unyte/adconnect/pkg/linkedin"
	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/models"
)

func newClient(t *testing.T, handler http.HandlerFunc) *linkedin.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return linkedin.NewClient(server.URL, server.Client(), metrics.New(), slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func assertHeaders(t *testing.T, r *http.Request) {
	t.Helper()

	assert.Equal(t, "Bearer token-1", r.Header.Get("Authorization"))
	assert.Equal(t, linkedin.APIVersion, r.Header.Get("LinkedIn-Version"))
	assert.Equal(t, "2.0.0", r.Header.Get("X-Restli-Protocol-Version"))
}

func TestClient_AdAccounts(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertHeaders(t, r)
		assert.Equal(t, "/adAccounts", r.URL.Path)
		assert.Equal(t, "search", r.URL.Query().Get("q"))

		_, _ = w.Write([]byte(`{"elements":[{"id":5101,"name":"Acme","currency":"USD","status":"ACTIVE","type":"BUSINESS"}]}`))
	})

	accounts, err := client.AdAccounts(t.Context(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, []models.AdAccount{{ID: "5101", Name: "Acme", Currency: "USD", Status: "ACTIVE", Type: "BUSINESS"}}, accounts)
}

func TestClient_CampaignGroups(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertHeaders(t, r)
		assert.Equal(t, "/adAccounts/5101/adCampaignGroups", r.URL.Path)

		_, _ = w.Write([]byte(`{"elements":[{"id":77,"name":"Q3","status":"ACTIVE"},{"id":78,"name":"Q4","status":"DRAFT"}]}`))
	})

	groups, err := client.CampaignGroups(t.Context(), "token-1", "5101")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "77", groups[0].ID)
	assert.Equal(t, "Q4", groups[1].Name)
}

func TestClient_CreateCampaignGroup(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assertHeaders(t, r)
		assert.Equal(t, http.MethodPost, r.Method)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "urn:li:sponsoredAccount:5101", body["account"])
		assert.Equal(t, "Launch", body["name"])

		w.Header().Set("X-Restli-Id", "urn:li:sponsoredCampaignGroup:901")
		w.WriteHeader(http.StatusCreated)
	})

	group, err := client.CreateCampaignGroup(t.Context(), "token-1", "5101", "Launch")
	require.NoError(t, err)
	assert.Equal(t, "901", group.ID)
	assert.Equal(t, "Launch", group.Name)
}

func TestClient_CreateCampaign(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/adAccounts/5101/adCampaigns", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "urn:li:sponsoredCampaignGroup:901", body["campaignGroup"])
		assert.Equal(t, "SPONSORED_UPDATES", body["type"])
		assert.Equal(t, map[string]any{"amount": "2500", "currencyCode": "USD"}, body["totalBudget"])
		assert.NotContains(t, body, "dailyBudget")
		assert.Equal(t, map[string]any{"country": "CA", "language": "fr"}, body["locale"])
		assert.Contains(t, body, "runSchedule")

		w.Header().Set("X-Restli-Id", "4455")
		w.WriteHeader(http.StatusCreated)
	})

	campaign, err := client.CreateCampaign(t.Context(), "token-1", "5101", linkedin.CampaignRequest{
		Name:            "Spring Launch",
		CampaignGroupID: "901",
		Type:            models.CampaignTypeSponsoredUpdates,
		BudgetType:      models.BudgetTypeTotal,
		BudgetAmount:    "2500",
		Currency:        "USD",
		Country:         "CA",
		Language:        "fr",
		StartDate:       "2025-03-03",
		EndDate:         "2025-04-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "4455", campaign.ID)
	assert.Equal(t, "901", campaign.CampaignGroupID)
}

func TestClient_CreateCampaignInvalidDate(t *testing.T) {
	client := newClient(t, func(_ http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.CreateCampaign(t.Context(), "token-1", "5101", linkedin.CampaignRequest{
		Name:         "x",
		BudgetType:   models.BudgetTypeDaily,
		BudgetAmount: "10",
		Currency:     "USD",
		StartDate:    "03/03/2025",
	})
	assert.ErrorContains(t, err, "invalid start date")
}

func TestClient_Errors(t *testing.T) {
	t.Run("unauthorized", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
		})

		_, err := client.AdAccounts(t.Context(), "token-1")
		assert.ErrorIs(t, err, linkedin.ErrUnauthorized)
	})

	t.Run("api error", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"status":400,"code":"INVALID_VALUE","message":"Invalid budget"}`))
		})

		_, err := client.CampaignGroups(t.Context(), "token-1", "5101")

		var apiErr *linkedin.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.Status)
		assert.Equal(t, "Invalid budget", apiErr.Message)
	})

	t.Run("missing id", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
		})

		_, err := client.CreateCampaignGroup(t.Context(), "token-1", "5101", "x")
		assert.ErrorIs(t, err, linkedin.ErrMissingID)
	})
}
