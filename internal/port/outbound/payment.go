package outbound

import (
	"context"

	"github.com/estateflow/server/internal/model"
)

// PaymentProviderPort defines the processor operations the backend needs (Stripe-style).
type PaymentProviderPort interface {
	// Name returns the provider name.
	Name() string

	// CreatePaymentIntent creates a payment intent.
	CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*model.ProviderPaymentIntent, error)

	// GetPaymentIntent gets a payment intent.
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*model.ProviderPaymentIntent, error)

	// GetReceiptURL returns the receipt URL of a charge.
	GetReceiptURL(ctx context.Context, chargeID string) (string, error)

	// ConstructWebhookEvent verifies the signature and parses a webhook payload.
	ConstructWebhookEvent(payload []byte, signature string) (*model.ProviderWebhookEvent, error)
}

// WebhookEventDatabasePort defines webhook event persistence operations.
type WebhookEventDatabasePort interface {
	// Claim records the event unless it was already seen. Returns false for
	// a redelivery of an event that was already recorded.
	Claim(ctx context.Context, event *model.WebhookEvent) (bool, error)

	// Release forgets a claimed event so a redelivery is processed again.
	Release(ctx context.Context, provider, eventID string) error

	// MarkProcessed marks a webhook event as processed.
	MarkProcessed(ctx context.Context, provider, eventID string, processErr error) error
}

// PaymentStatusCachePort caches processor lookups behind the status endpoint.
type PaymentStatusCachePort interface {
	// Get returns the cached status, or nil when absent.
	Get(ctx context.Context, paymentIntentID string) (*model.PaymentStatusResponse, error)

	// Set stores the status. Terminal statuses are kept longer.
	Set(ctx context.Context, paymentIntentID string, status *model.PaymentStatusResponse, terminal bool) error
}
