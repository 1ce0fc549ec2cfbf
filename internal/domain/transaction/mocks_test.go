package transaction

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
)

type MockEstateDatabasePort struct {
	mock.Mock
}

func (m *MockEstateDatabasePort) Create(ctx context.Context, estate *model.Estate) error {
	args := m.Called(ctx, estate)
	return args.Error(0)
}

func (m *MockEstateDatabasePort) FindByID(ctx context.Context, id string) (*model.Estate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estate), args.Error(1)
}

func (m *MockEstateDatabasePort) UpdateStatus(ctx context.Context, id string, status model.EstateStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

type MockTransactionDatabasePort struct {
	mock.Mock
}

func (m *MockTransactionDatabasePort) ListByEstate(ctx context.Context, estateID string) ([]model.Transaction, error) {
	args := m.Called(ctx, estateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Transaction), args.Error(1)
}

func (m *MockTransactionDatabasePort) FindByID(ctx context.Context, estateID, transactionID string) (*model.Transaction, error) {
	args := m.Called(ctx, estateID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Transaction), args.Error(1)
}

func (m *MockTransactionDatabasePort) ReplaceForEstate(ctx context.Context, estateID string, txs []model.Transaction) error {
	args := m.Called(ctx, estateID, txs)
	return args.Error(0)
}

type MockCancellationDatabasePort struct {
	mock.Mock
}

func (m *MockCancellationDatabasePort) Save(ctx context.Context, c *model.Cancellation) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockCancellationDatabasePort) Find(ctx context.Context, estateID, transactionID string) (*model.Cancellation, error) {
	args := m.Called(ctx, estateID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cancellation), args.Error(1)
}

func (m *MockCancellationDatabasePort) AppendHistory(ctx context.Context, estateID, transactionID string, entry *model.CancellationHistoryRow) (*model.Cancellation, error) {
	args := m.Called(ctx, estateID, transactionID, entry)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Cancellation), args.Error(1)
}

type MockArtifactGenerator struct {
	mock.Mock
}

func (m *MockArtifactGenerator) Generate(ctx context.Context, method model.CancellationMethod, estate *model.Estate, tx *model.Transaction, contact map[string]string) (string, error) {
	args := m.Called(ctx, method, estate, tx, contact)
	return args.String(0), args.Error(1)
}

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, event outbound.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordCancellationTransition(status string) {
	m.Called(status)
}
