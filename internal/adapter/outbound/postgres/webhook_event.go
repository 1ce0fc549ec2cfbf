package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
)

// webhookEventAdapter implements outbound.WebhookEventDatabasePort.
type webhookEventAdapter struct {
	db *gorm.DB
}

// NewWebhookEventAdapter creates a new webhook event database adapter.
func NewWebhookEventAdapter(db *gorm.DB) outbound.WebhookEventDatabasePort {
	return &webhookEventAdapter{db: db}
}

// Claim inserts the event, relying on the (provider, event_id) unique index
// so concurrent redeliveries cannot both win.
func (a *webhookEventAdapter) Claim(ctx context.Context, event *model.WebhookEvent) (bool, error) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	res := a.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "provider"}, {Name: "event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return false, fmt.Errorf("claim webhook event: %w", res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (a *webhookEventAdapter) Release(ctx context.Context, provider, eventID string) error {
	err := a.db.WithContext(ctx).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Delete(&model.WebhookEvent{}).Error
	if err != nil {
		return fmt.Errorf("release webhook event: %w", err)
	}
	return nil
}

func (a *webhookEventAdapter) MarkProcessed(ctx context.Context, provider, eventID string, processErr error) error {
	updates := map[string]any{
		"processed":    true,
		"processed_at": time.Now(),
	}
	if processErr != nil {
		updates["error"] = processErr.Error()
	}
	err := a.db.WithContext(ctx).
		Model(&model.WebhookEvent{}).
		Where("provider = ? AND event_id = ?", provider, eventID).
		Updates(updates).Error
	if err != nil {
		return fmt.Errorf("mark webhook event processed: %w", err)
	}
	return nil
}

// Compile-time check
var _ outbound.WebhookEventDatabasePort = (*webhookEventAdapter)(nil)
