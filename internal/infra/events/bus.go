package events

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/estateflow/server/internal/port/outbound"
)

// Bus is a synchronous in-process event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger.Named("events"),
	}
}

// Register registers a handler for the events it handles.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range handler.Handles() {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
		b.logger.Debug("registered event handler", zap.String("event_type", eventType))
	}
}

// Publish dispatches the event to every registered handler in registration
// order. A failing handler does not stop the others; their errors are joined.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_id", event.AggregateID()),
	}
	if len(handlers) == 0 {
		b.logger.Debug("no handlers registered for event", fields...)
		return nil
	}
	b.logger.Info("publishing event", append(fields, zap.Int("handler_count", len(handlers)))...)

	var errs []error
	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("event handler failed", append(fields, zap.Error(err))...)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Compile-time check
var _ outbound.EventPublisherPort = (*Bus)(nil)
