package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/unyte/adconnect/pkg/models"
	"github.com/unyte/adconnect/pkg/persistence"
)

// MockConnectionRepository is a mock implementation of persistence.ConnectionRepository interface.
type MockConnectionRepository struct {
	mock.Mock
}

func (m *MockConnectionRepository) FindConnection(ctx context.Context, userID, organizationID string, platform models.Platform) (*models.Connection, error) {
	args := m.Called(ctx, userID, organizationID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Connection), args.Error(1)
}

func (m *MockConnectionRepository) ConnectionsByOrganization(ctx context.Context, userID, organizationID string) ([]*models.Connection, error) {
	args := m.Called(ctx, userID, organizationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.Connection), args.Error(1)
}

func (m *MockConnectionRepository) SaveConnection(ctx context.Context, connection *models.Connection) error {
	args := m.Called(ctx, connection)

	return args.Error(0)
}

func (m *MockConnectionRepository) DeleteConnection(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock

	Connections *MockConnectionRepository
}

// NewMockPersistence returns a MockPersistence whose ConnectionRepository is a fresh mock.
func NewMockPersistence() *MockPersistence {
	return &MockPersistence{Connections: &MockConnectionRepository{}}
}

func (m *MockPersistence) ConnectionRepository() persistence.ConnectionRepository {
	return m.Connections
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

var (
	_ persistence.Persistence          = (*MockPersistence)(nil)
	_ persistence.ConnectionRepository = (*MockConnectionRepository)(nil)
)
