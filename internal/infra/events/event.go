package events

import "github.com/estateflow/server/internal/port/outbound"

// Event is a domain event dispatched by the Bus.
type Event = outbound.DomainEvent
