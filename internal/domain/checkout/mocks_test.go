package checkout

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/estateflow/server/internal/model"
)

// --- Mock Implementations ---

type MockStatusGatewayPort struct {
	mock.Mock
}

func (m *MockStatusGatewayPort) CreatePaymentIntent(ctx context.Context, estateID string) (*model.PaymentRecord, error) {
	args := m.Called(ctx, estateID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentRecord), args.Error(1)
}

func (m *MockStatusGatewayPort) FetchPaymentStatus(ctx context.Context, paymentIntentID string) (*model.PaymentRecord, error) {
	args := m.Called(ctx, paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.PaymentRecord), args.Error(1)
}

func (m *MockStatusGatewayPort) RequestCancellation(ctx context.Context, req *model.CancellationRequest) (*model.CancellationArtifact, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CancellationArtifact), args.Error(1)
}

func (m *MockStatusGatewayPort) FetchCancellationStatus(ctx context.Context, estateID, transactionID string) (*model.CancellationRecord, error) {
	args := m.Called(ctx, estateID, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CancellationRecord), args.Error(1)
}

func (m *MockStatusGatewayPort) AdvanceCancellationStatus(ctx context.Context, estateID, transactionID string, status model.CancellationStatus, comment string) (*model.CancellationRecord, error) {
	args := m.Called(ctx, estateID, transactionID, status, comment)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CancellationRecord), args.Error(1)
}

type MockPaymentConfirmerPort struct {
	mock.Mock
}

func (m *MockPaymentConfirmerPort) ConfirmPayment(ctx context.Context, clientSecret string) error {
	args := m.Called(ctx, clientSecret)
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) RecordPoll(result string) {
	m.Called(result)
}

func (m *MockRecorder) RecordCheckoutOutcome(status string, duration time.Duration) {
	m.Called(status, duration)
}
