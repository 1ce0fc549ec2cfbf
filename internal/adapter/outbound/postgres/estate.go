package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
)

// estateAdapter implements outbound.EstateDatabasePort.
type estateAdapter struct {
	db *gorm.DB
}

// NewEstateAdapter creates a new estate database adapter.
func NewEstateAdapter(db *gorm.DB) outbound.EstateDatabasePort {
	return &estateAdapter{db: db}
}

func (a *estateAdapter) Create(ctx context.Context, estate *model.Estate) error {
	if err := a.db.WithContext(ctx).Create(estate).Error; err != nil {
		return fmt.Errorf("create estate: %w", err)
	}
	return nil
}

func (a *estateAdapter) FindByID(ctx context.Context, id string) (*model.Estate, error) {
	var estate model.Estate
	err := a.db.WithContext(ctx).First(&estate, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find estate by id: %w", err)
	}
	return &estate, nil
}

func (a *estateAdapter) UpdateStatus(ctx context.Context, id string, status model.EstateStatus) error {
	res := a.db.WithContext(ctx).
		Model(&model.Estate{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update estate status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("update estate status: %w", gorm.ErrRecordNotFound)
	}
	return nil
}

// Compile-time check
var _ outbound.EstateDatabasePort = (*estateAdapter)(nil)
