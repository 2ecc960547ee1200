// Package linkedin is a small client for the LinkedIn Marketing REST API: ad accounts,
// campaign groups and campaigns.
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/unyte/adconnect/pkg/metrics"
	"github.com/unyte/adconnect/pkg/models"
)

const (
	// DefaultBaseURL is the LinkedIn versioned REST root.
	DefaultBaseURL = "https://api.linkedin.com/rest"
	// APIVersion is sent as the LinkedIn-Version header.
	APIVersion = "202405"

	accountURNPrefix = "urn:li:sponsoredAccount:"
	groupURNPrefix   = "urn:li:sponsoredCampaignGroup:"
)

var (
	// ErrUnauthorized is returned when LinkedIn rejects the access token.
	ErrUnauthorized = errors.New("linkedin rejected the access token")
	// ErrMissingID is returned when a create call succeeds without reporting the new entity ID.
	ErrMissingID = errors.New("linkedin response carried no entity id")
)

// APIError is a non-2xx LinkedIn response.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("linkedin api error %d: %s", e.Status, e.Message)
	}

	return fmt.Sprintf("linkedin api error %d", e.Status)
}

// Client calls the LinkedIn Marketing API on behalf of the member whose token is passed per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// NewClient creates a LinkedIn client. An empty baseURL selects DefaultBaseURL.
func NewClient(baseURL string, httpClient *http.Client, m *metrics.Metrics, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	if m == nil {
		m = metrics.New()
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		metrics:    m,
		logger:     logger.With("module", "linkedin_client"),
	}
}

type adAccountElement struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Type     string `json:"type"`
}

type campaignGroupElement struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

type collection[T any] struct {
	Elements []T `json:"elements"`
}

// AdAccounts lists the ad accounts the member can use.
func (c *Client) AdAccounts(ctx context.Context, accessToken string) ([]models.AdAccount, error) {
	query := url.Values{
		"q":      {"search"},
		"search": {"(status:(values:List(ACTIVE,DRAFT)))"},
	}

	var result collection[adAccountElement]
	if _, err := c.do(ctx, "ad_accounts", accessToken, http.MethodGet, "/adAccounts?"+query.Encode(), nil, &result); err != nil {
		return nil, err
	}

	accounts := make([]models.AdAccount, 0, len(result.Elements))
	for _, element := range result.Elements {
		accounts = append(accounts, models.AdAccount{
			ID:       fmt.Sprint(element.ID),
			Name:     element.Name,
			Currency: element.Currency,
			Status:   element.Status,
			Type:     element.Type,
		})
	}

	return accounts, nil
}

// CampaignGroups lists the campaign groups of an ad account.
func (c *Client) CampaignGroups(ctx context.Context, accessToken, accountID string) ([]models.CampaignGroup, error) {
	path := fmt.Sprintf("/adAccounts/%s/adCampaignGroups?q=search", url.PathEscape(accountID))

	var result collection[campaignGroupElement]
	if _, err := c.do(ctx, "campaign_groups", accessToken, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}

	groups := make([]models.CampaignGroup, 0, len(result.Elements))
	for _, element := range result.Elements {
		groups = append(groups, models.CampaignGroup{
			ID:     fmt.Sprint(element.ID),
			Name:   element.Name,
			Status: element.Status,
		})
	}

	return groups, nil
}

// CreateCampaignGroup creates a draft campaign group in the ad account.
func (c *Client) CreateCampaignGroup(ctx context.Context, accessToken, accountID, name string) (*models.CampaignGroup, error) {
	body := map[string]any{
		"account": accountURNPrefix + accountID,
		"name":    name,
		"status":  "DRAFT",
		"runSchedule": map[string]any{
			"start": time.Now().UnixMilli(),
		},
	}

	path := fmt.Sprintf("/adAccounts/%s/adCampaignGroups", url.PathEscape(accountID))

	id, err := c.do(ctx, "create_campaign_group", accessToken, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}

	return &models.CampaignGroup{ID: id, Name: name, Status: "DRAFT"}, nil
}

// CampaignRequest is the input of CreateCampaign.
type CampaignRequest struct {
	Name            string              `json:"name"            validate:"required"`
	CampaignGroupID string              `json:"campaignGroupId" validate:"required"`
	Type            models.CampaignType `json:"type"            validate:"required"`
	BudgetType      models.BudgetType   `json:"budgetType"      validate:"required,oneof=daily total"`
	BudgetAmount    string              `json:"budgetAmount"    validate:"required,numeric"`
	Currency        string              `json:"currency"        validate:"required,len=3"`
	Country         string              `json:"country"`
	Language        string              `json:"language"`
	StartDate       string              `json:"startDate"       validate:"omitempty,datetime=2006-01-02"`
	EndDate         string              `json:"endDate"         validate:"omitempty,datetime=2006-01-02"`
}

// CreateCampaign creates a draft campaign in the given campaign group.
func (c *Client) CreateCampaign(ctx context.Context, accessToken, accountID string, req CampaignRequest) (*models.Campaign, error) {
	body, err := campaignBody(accountID, req)
	if err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/adAccounts/%s/adCampaigns", url.PathEscape(accountID))

	id, err := c.do(ctx, "create_campaign", accessToken, http.MethodPost, path, body, nil)
	if err != nil {
		return nil, err
	}

	return &models.Campaign{
		ID:              id,
		Name:            req.Name,
		CampaignGroupID: req.CampaignGroupID,
		Type:            req.Type,
		Status:          "DRAFT",
	}, nil
}

func campaignBody(accountID string, req CampaignRequest) (map[string]any, error) {
	budget := map[string]any{"amount": req.BudgetAmount, "currencyCode": req.Currency}

	body := map[string]any{
		"account":                accountURNPrefix + accountID,
		"campaignGroup":          groupURNPrefix + req.CampaignGroupID,
		"name":                   req.Name,
		"type":                   string(req.Type),
		"costType":               "CPM",
		"status":                 "DRAFT",
		"offsiteDeliveryEnabled": false,
	}

	if req.BudgetType == models.BudgetTypeTotal {
		body["totalBudget"] = budget
	} else {
		body["dailyBudget"] = budget
	}

	if req.Country != "" || req.Language != "" {
		body["locale"] = map[string]any{"country": req.Country, "language": req.Language}
	}

	schedule := map[string]any{}

	if req.StartDate != "" {
		start, err := time.Parse(time.DateOnly, req.StartDate)
		if err != nil {
			return nil, fmt.Errorf("invalid start date: %w", err)
		}

		schedule["start"] = start.UnixMilli()
	}

	if req.EndDate != "" {
		end, err := time.Parse(time.DateOnly, req.EndDate)
		if err != nil {
			return nil, fmt.Errorf("invalid end date: %w", err)
		}

		schedule["end"] = end.UnixMilli()
	}

	if len(schedule) > 0 {
		body["runSchedule"] = schedule
	}

	return body, nil
}

// do performs one API call. It returns the x-restli-id header, set by LinkedIn on create calls.
func (c *Client) do(ctx context.Context, operation, accessToken, method, path string, body, dest any) (id string, err error) {
	started := time.Now()

	defer func() {
		c.metrics.ObservePlatformCall(string(models.PlatformLinkedIn), operation, started, err)
	}()

	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return "", fmt.Errorf("failed to encode request: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return "", fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("LinkedIn-Version", APIVersion)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("linkedin %s request failed: %w", operation, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusUnauthorized {
		return "", ErrUnauthorized
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr)
		apiErr.Status = resp.StatusCode

		c.logger.WarnContext(ctx, "LinkedIn API call failed", "operation", operation, "status", resp.StatusCode, "message", apiErr.Message)

		return "", apiErr
	}

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return "", fmt.Errorf("failed to decode linkedin response: %w", err)
		}

		return "", nil
	}

	if method == http.MethodPost {
		id = resp.Header.Get("X-Restli-Id")
		if id == "" {
			return "", ErrMissingID
		}

		id = strings.TrimPrefix(strings.TrimPrefix(id, groupURNPrefix), "urn:li:sponsoredCampaign:")
	}

	return id, nil
}
