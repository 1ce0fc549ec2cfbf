package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// PaymentStatus represents the status of a payment intent at the processor.
type PaymentStatus string

const (
	PaymentStatusRequiresPaymentMethod PaymentStatus = "requires_payment_method"
	PaymentStatusRequiresConfirmation  PaymentStatus = "requires_confirmation"
	PaymentStatusRequiresAction        PaymentStatus = "requires_action"
	PaymentStatusProcessing            PaymentStatus = "processing"
	PaymentStatusRequiresCapture       PaymentStatus = "requires_capture"
	PaymentStatusSucceeded             PaymentStatus = "succeeded"
	PaymentStatusCancelled             PaymentStatus = "cancelled"
	PaymentStatusFailed                PaymentStatus = "failed"
)

var knownPaymentStatuses = map[PaymentStatus]struct{}{
	PaymentStatusRequiresPaymentMethod: {},
	PaymentStatusRequiresConfirmation:  {},
	PaymentStatusRequiresAction:        {},
	PaymentStatusProcessing:            {},
	PaymentStatusRequiresCapture:       {},
	PaymentStatusSucceeded:             {},
	PaymentStatusCancelled:             {},
	PaymentStatusFailed:                {},
}

// ParsePaymentStatus parses a wire value. Stripe spells it "canceled"; both
// spellings map to PaymentStatusCancelled. For values outside the enumeration
// the raw value is returned together with an UnknownStatus error so callers can
// log and continue.
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "canceled" {
		return PaymentStatusCancelled, nil
	}
	s := PaymentStatus(v)
	if _, ok := knownPaymentStatuses[s]; !ok {
		return PaymentStatus(raw), apperrors.UnknownStatus("payment", raw)
	}
	return s, nil
}

// IsKnown reports whether the status is part of the enumeration.
func (s PaymentStatus) IsKnown() bool {
	_, ok := knownPaymentStatuses[s]
	return ok
}

// IsTerminal returns true if the status ends the payment lifecycle.
// Unknown values are never terminal and keep being polled.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusCancelled || s == PaymentStatusFailed
}

// IsSucceeded returns true if the status is succeeded.
func (s PaymentStatus) IsSucceeded() bool {
	return s == PaymentStatusSucceeded
}

// DisplayName returns the status for display, "unknown" when unrecognised.
func (s PaymentStatus) DisplayName() string {
	if !s.IsKnown() {
		return "unknown"
	}
	return string(s)
}

func (s PaymentStatus) String() string {
	return string(s)
}

// PaymentRecord is the client-side view of one checkout attempt.
// The backend is the system of record; this value is never persisted locally.
type PaymentRecord struct {
	PaymentIntentID string        `json:"payment_intent_id"`
	ClientSecret    string        `json:"-"`
	Amount          int64         `json:"amount"` // minor currency units
	Currency        string        `json:"currency,omitempty"`
	Status          PaymentStatus `json:"status"`
	ReceiptURL      *string       `json:"receipt_url,omitempty"`
}

// MajorAmount returns the amount in major currency units (øre -> NOK).
func (r *PaymentRecord) MajorAmount() decimal.Decimal {
	return decimal.New(r.Amount, -2)
}

// HasReceipt reports whether a receipt URL is available.
func (r *PaymentRecord) HasReceipt() bool {
	return r.ReceiptURL != nil && *r.ReceiptURL != ""
}

// PaymentIntentIDFromSecret derives the payment intent ID from a Stripe client
// secret of the form "pi_xxx_secret_yyy".
func PaymentIntentIDFromSecret(clientSecret string) (string, bool) {
	id, _, found := strings.Cut(clientSecret, "_secret_")
	if !found || id == "" {
		return "", false
	}
	return id, true
}

// --- Wire types (snake_case, shared by the backend handlers and the API client) ---

// CreatePaymentIntentRequest is the body of POST /payment/create-intent.
type CreatePaymentIntentRequest struct {
	EstateID string `json:"estate_id" binding:"required"`
}

// CreatePaymentIntentResponse is returned by POST /payment/create-intent.
type CreatePaymentIntentResponse struct {
	ClientSecret    string `json:"client_secret"`
	Amount          int64  `json:"amount"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

// PaymentStatusResponse is returned by GET /payment/{id}/status.
type PaymentStatusResponse struct {
	Status     string  `json:"status"`
	Amount     int64   `json:"amount"`
	ReceiptURL *string `json:"receipt_url"`
}

// --- Processor-side types (backend) ---

// ProviderPaymentIntent represents a payment intent from the processor.
type ProviderPaymentIntent struct {
	ID             string
	ClientSecret   string
	Amount         int64
	Currency       string
	Status         string
	LatestChargeID string
	Metadata       map[string]string
}

// ProviderWebhookEvent is a verified webhook event from the processor.
type ProviderWebhookEvent struct {
	ID              string
	Type            string
	PaymentIntentID string
	Metadata        map[string]string
}

// WebhookEvent represents a processed webhook event, stored for deduplication.
type WebhookEvent struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Provider    string     `json:"provider" gorm:"not null;uniqueIndex:idx_webhook_provider_event"`
	EventID     string     `json:"event_id" gorm:"not null;uniqueIndex:idx_webhook_provider_event"`
	EventType   string     `json:"event_type" gorm:"not null"`
	Processed   bool       `json:"processed" gorm:"default:false"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
	Error       *string    `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// TableName returns the table name.
func (WebhookEvent) TableName() string {
	return "webhook_events"
}
