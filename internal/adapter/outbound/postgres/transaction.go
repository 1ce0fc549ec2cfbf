package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
)

// transactionAdapter implements outbound.TransactionDatabasePort.
type transactionAdapter struct {
	db *gorm.DB
}

// NewTransactionAdapter creates a new transaction database adapter.
func NewTransactionAdapter(db *gorm.DB) outbound.TransactionDatabasePort {
	return &transactionAdapter{db: db}
}

func (a *transactionAdapter) ListByEstate(ctx context.Context, estateID string) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := a.db.WithContext(ctx).
		Where("estate_id = ?", estateID).
		Order("date DESC, id").
		Find(&txs).Error
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (a *transactionAdapter) FindByID(ctx context.Context, estateID, txID string) (*model.Transaction, error) {
	var tx model.Transaction
	err := a.db.WithContext(ctx).First(&tx, "estate_id = ? AND id = ?", estateID, txID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find transaction by id: %w", err)
	}
	return &tx, nil
}

// ReplaceForEstate swaps the estate's transaction list in one database transaction.
func (a *transactionAdapter) ReplaceForEstate(ctx context.Context, estateID string, txs []model.Transaction) error {
	return a.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		if err := db.Where("estate_id = ?", estateID).Delete(&model.Transaction{}).Error; err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		if len(txs) == 0 {
			return nil
		}
		for i := range txs {
			txs[i].EstateID = estateID
		}
		if err := db.Create(&txs).Error; err != nil {
			return fmt.Errorf("insert transactions: %w", err)
		}
		return nil
	})
}

// Compile-time check
var _ outbound.TransactionDatabasePort = (*transactionAdapter)(nil)
