package model

import (
	"time"

	"github.com/google/uuid"
)

// Domain event types.
const (
	EventPaymentSucceeded        = "PaymentSucceeded"
	EventPaymentFailed           = "PaymentFailed"
	EventCancellationRequested   = "CancellationRequested"
	EventCancellationStatusMoved = "CancellationStatusChanged"
)

// BaseEvent carries the fields common to every domain event.
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Aggregate string    `json:"aggregate_id"`
}

// NewBaseEvent creates a BaseEvent for the given aggregate.
func NewBaseEvent(eventType, aggregateID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Timestamp: time.Now(),
		Aggregate: aggregateID,
	}
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) EventType() string     { return e.Type }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }
func (e BaseEvent) AggregateID() string   { return e.Aggregate }

// PaymentSucceededEvent is published when the processor reports a captured payment.
type PaymentSucceededEvent struct {
	BaseEvent
	EstateID        string `json:"estate_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// NewPaymentSucceededEvent creates a PaymentSucceededEvent.
func NewPaymentSucceededEvent(estateID, paymentIntentID string) *PaymentSucceededEvent {
	return &PaymentSucceededEvent{
		BaseEvent:       NewBaseEvent(EventPaymentSucceeded, estateID),
		EstateID:        estateID,
		PaymentIntentID: paymentIntentID,
	}
}

// PaymentFailedEvent is published when the processor reports a failed payment.
type PaymentFailedEvent struct {
	BaseEvent
	EstateID        string `json:"estate_id"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// NewPaymentFailedEvent creates a PaymentFailedEvent.
func NewPaymentFailedEvent(estateID, paymentIntentID string) *PaymentFailedEvent {
	return &PaymentFailedEvent{
		BaseEvent:       NewBaseEvent(EventPaymentFailed, estateID),
		EstateID:        estateID,
		PaymentIntentID: paymentIntentID,
	}
}

// CancellationEvent is published when a cancellation is created or its status moves.
type CancellationEvent struct {
	BaseEvent
	EstateID      string             `json:"estate_id"`
	TransactionID string             `json:"transaction_id"`
	Status        CancellationStatus `json:"status"`
}

// NewCancellationEvent creates a CancellationEvent of the given type.
func NewCancellationEvent(eventType, estateID, transactionID string, status CancellationStatus) *CancellationEvent {
	return &CancellationEvent{
		BaseEvent:     NewBaseEvent(eventType, estateID+"/"+transactionID),
		EstateID:      estateID,
		TransactionID: transactionID,
		Status:        status,
	}
}
