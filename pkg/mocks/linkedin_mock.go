package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/unyte/adconnect/pkg/linkedin"
	"github.com/unyte/adconnect/pkg/models"
)

// MockLinkedInAPI is a mock of the LinkedIn Marketing API client.
type MockLinkedInAPI struct {
	mock.Mock
}

func (m *MockLinkedInAPI) AdAccounts(ctx context.Context, accessToken string) ([]models.AdAccount, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.AdAccount), args.Error(1)
}

func (m *MockLinkedInAPI) CampaignGroups(ctx context.Context, accessToken, accountID string) ([]models.CampaignGroup, error) {
	args := m.Called(ctx, accessToken, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.CampaignGroup), args.Error(1)
}

func (m *MockLinkedInAPI) CreateCampaignGroup(ctx context.Context, accessToken, accountID, name string) (*models.CampaignGroup, error) {
	args := m.Called(ctx, accessToken, accountID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.CampaignGroup), args.Error(1)
}

func (m *MockLinkedInAPI) CreateCampaign(ctx context.Context, accessToken, accountID string, req linkedin.CampaignRequest) (*models.Campaign, error) {
	args := m.Called(ctx, accessToken, accountID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Campaign), args.Error(1)
}

// MockTokenSource is a mock of the stored-connection token lookup.
type MockTokenSource struct {
	mock.Mock
}

func (m *MockTokenSource) AccessToken(ctx context.Context, platform models.Platform, organizationID string) (string, error) {
	args := m.Called(ctx, platform, organizationID)

	return args.String(0), args.Error(1)
}
