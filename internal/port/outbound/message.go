package outbound

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// DomainEvent is implemented by every event published through EventPublisherPort.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() string
}

// EventPublisherPort defines event publishing operations.
type EventPublisherPort interface {
	// Publish publishes a domain event.
	Publish(ctx context.Context, event DomainEvent) error
}
