package payment

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
)

// --- Mock Implementations ---

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

type MockPaymentProviderPort struct {
	mock.Mock
}

func (m *MockPaymentProviderPort) Name() string {
	return "stripe"
}

func (m *MockPaymentProviderPort) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*model.ProviderPaymentIntent, error) {
	args := m.Called(ctx, amount, currency, metadata)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderPaymentIntent), args.Error(1)
}

func (m *MockPaymentProviderPort) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*model.ProviderPaymentIntent, error) {
	args := m.Called(ctx, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderPaymentIntent), args.Error(1)
}

func (m *MockPaymentProviderPort) GetReceiptURL(ctx context.Context, chargeID string) (string, error) {
	args := m.Called(ctx, chargeID)
	return args.String(0), args.Error(1)
}

func (m *MockPaymentProviderPort) ConstructWebhookEvent(payload []byte, signature string) (*model.ProviderWebhookEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProviderWebhookEvent), args.Error(1)
}

type MockWebhookEventDatabasePort struct {
	mock.Mock
}

func (m *MockWebhookEventDatabasePort) Claim(ctx context.Context, event *model.WebhookEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockWebhookEventDatabasePort) Release(ctx context.Context, provider, eventID string) error {
	args := m.Called(ctx, provider, eventID)
	return args.Error(0)
}

func (m *MockWebhookEventDatabasePort) MarkProcessed(ctx context.Context, provider, eventID string, processErr error) error {
	args := m.Called(ctx, provider, eventID, processErr)
	return args.Error(0)
}

type MockPaymentStatusCachePort struct {
	mock.Mock
}

func (m *MockPaymentStatusCachePort) Get(ctx context.Context, paymentIntentID string) (*model.PaymentStatusResponse, error) {
	args := m.Called(ctx, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentStatusResponse), args.Error(1)
}

func (m *MockPaymentStatusCachePort) Set(ctx context.Context, paymentIntentID string, status *model.PaymentStatusResponse, terminal bool) error {
	args := m.Called(ctx, paymentIntentID, status, terminal)
	return args.Error(0)
}

type MockEventPublisherPort struct {
	mock.Mock
}

func (m *MockEventPublisherPort) Publish(ctx context.Context, event outbound.DomainEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordWebhookEvent(eventType, result string) {
	m.Called(eventType, result)
}

func (m *MockRecorder) RecordCacheHit(cache string) {
	m.Called(cache)
}

func (m *MockRecorder) RecordCacheMiss(cache string) {
	m.Called(cache)
}
