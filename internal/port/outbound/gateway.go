package outbound

import (
	"context"

	"github.com/estateflow/server/internal/model"
)

// StatusGatewayPort is the client's only boundary to the backend system of record.
// Implementations never mutate local state; every method is a remote call.
type StatusGatewayPort interface {
	// CreatePaymentIntent creates a payment intent for an estate.
	// The returned record is always in a non-terminal state.
	CreatePaymentIntent(ctx context.Context, estateID string) (*model.PaymentRecord, error)

	// FetchPaymentStatus returns the authoritative status of a payment intent.
	FetchPaymentStatus(ctx context.Context, paymentIntentID string) (*model.PaymentRecord, error)

	// RequestCancellation generates a cancellation letter or email.
	RequestCancellation(ctx context.Context, req *model.CancellationRequest) (*model.CancellationArtifact, error)

	// FetchCancellationStatus returns the cancellation record for a transaction.
	// A not found error means no cancellation was ever requested.
	FetchCancellationStatus(ctx context.Context, estateID, transactionID string) (*model.CancellationRecord, error)

	// AdvanceCancellationStatus appends one history entry server-side.
	AdvanceCancellationStatus(ctx context.Context, estateID, transactionID string, status model.CancellationStatus, comment string) (*model.CancellationRecord, error)
}

// PaymentConfirmerPort hands a client secret to the processor's confirmation flow.
// Its outcome is advisory; the authoritative result always comes from polling.
type PaymentConfirmerPort interface {
	ConfirmPayment(ctx context.Context, clientSecret string) error
}
