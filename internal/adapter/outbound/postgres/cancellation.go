package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
)

// cancellationAdapter implements outbound.CancellationDatabasePort.
type cancellationAdapter struct {
	db *gorm.DB
}

// NewCancellationAdapter creates a new cancellation database adapter.
func NewCancellationAdapter(db *gorm.DB) outbound.CancellationDatabasePort {
	return &cancellationAdapter{db: db}
}

// Save upserts the cancellation and replaces its history with c.History.
func (a *cancellationAdapter) Save(ctx context.Context, c *model.Cancellation) error {
	return a.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		history := c.History
		row := *c
		row.History = nil

		err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "estate_id"}, {Name: "transaction_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"method", "content", "contact_info", "status", "updated_at"}),
		}).Create(&row).Error
		if err != nil {
			return fmt.Errorf("save cancellation: %w", err)
		}

		err = db.Where("estate_id = ? AND transaction_id = ?", c.EstateID, c.TransactionID).
			Delete(&model.CancellationHistoryRow{}).Error
		if err != nil {
			return fmt.Errorf("clear cancellation history: %w", err)
		}
		for i := range history {
			history[i].Seq = 0
			history[i].EstateID = c.EstateID
			history[i].TransactionID = c.TransactionID
			if err := db.Create(&history[i]).Error; err != nil {
				return fmt.Errorf("insert cancellation history: %w", err)
			}
		}
		c.CreatedAt, c.UpdatedAt = row.CreatedAt, row.UpdatedAt
		return nil
	})
}

func (a *cancellationAdapter) Find(ctx context.Context, estateID, txID string) (*model.Cancellation, error) {
	return a.find(a.db.WithContext(ctx), estateID, txID)
}

func (a *cancellationAdapter) find(db *gorm.DB, estateID, txID string) (*model.Cancellation, error) {
	var c model.Cancellation
	err := db.
		Preload("History", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		First(&c, "estate_id = ? AND transaction_id = ?", estateID, txID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find cancellation: %w", err)
	}
	return &c, nil
}

// AppendHistory adds one entry, moves the current status to it and returns the
// updated cancellation. Returns nil, nil when no cancellation exists.
func (a *cancellationAdapter) AppendHistory(ctx context.Context, estateID, txID string, row *model.CancellationHistoryRow) (*model.Cancellation, error) {
	var out *model.Cancellation
	err := a.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var c model.Cancellation
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&c, "estate_id = ? AND transaction_id = ?", estateID, txID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("lock cancellation: %w", err)
		}

		row.EstateID, row.TransactionID = estateID, txID
		if err := db.Create(row).Error; err != nil {
			return fmt.Errorf("append cancellation history: %w", err)
		}
		err = db.Model(&model.Cancellation{}).
			Where("estate_id = ? AND transaction_id = ?", estateID, txID).
			Update("status", row.Status).Error
		if err != nil {
			return fmt.Errorf("update cancellation status: %w", err)
		}

		out, err = a.find(db, estateID, txID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Compile-time check
var _ outbound.CancellationDatabasePort = (*cancellationAdapter)(nil)
