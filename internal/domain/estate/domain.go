package estate

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// EstateDomain manages estates and applies payment outcomes to them.
type EstateDomain interface {
	CreateEstate(ctx context.Context, req *model.CreateEstateRequest) (*model.Estate, error)
	GetEstate(ctx context.Context, id string) (*model.Estate, error)

	// HandlePaymentEvent moves the estate to paid or payment_failed.
	HandlePaymentEvent(ctx context.Context, event outbound.DomainEvent) error
}

// PaymentEventTypes lists the events HandlePaymentEvent consumes.
var PaymentEventTypes = []string{model.EventPaymentSucceeded, model.EventPaymentFailed}

type estateDomain struct {
	estates outbound.EstateDatabasePort
	logger  *zap.Logger
}

// NewEstateDomain creates a new estate domain service.
func NewEstateDomain(estates outbound.EstateDatabasePort, logger *zap.Logger) EstateDomain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &estateDomain{estates: estates, logger: logger.Named("estate")}
}

func (d *estateDomain) CreateEstate(ctx context.Context, req *model.CreateEstateRequest) (*model.Estate, error) {
	if req == nil || strings.TrimSpace(req.DeceasedName) == "" {
		return nil, apperrors.Validation("deceased_name is required")
	}
	estate := &model.Estate{
		ID:            uuid.New().String(),
		OwnerID:       req.OwnerID,
		DeceasedName:  strings.TrimSpace(req.DeceasedName),
		DeceasedBirth: req.DeceasedBirth,
		DateOfDeath:   req.DateOfDeath,
		HeirName:      req.HeirName,
		Status:        model.EstateStatusActive,
	}
	if err := d.estates.Create(ctx, estate); err != nil {
		return nil, apperrors.Internal("create estate", err)
	}
	d.logger.Info("estate created", zap.String("estate_id", estate.ID))
	return estate, nil
}

func (d *estateDomain) GetEstate(ctx context.Context, id string) (*model.Estate, error) {
	estate, err := d.estates.FindByID(ctx, id)
	if err != nil {
		return nil, apperrors.Internal("load estate", err)
	}
	if estate == nil {
		return nil, apperrors.NotFound("estate")
	}
	return estate, nil
}

func (d *estateDomain) HandlePaymentEvent(ctx context.Context, event outbound.DomainEvent) error {
	var (
		estateID string
		target   model.EstateStatus
	)
	switch e := event.(type) {
	case *model.PaymentSucceededEvent:
		estateID, target = e.EstateID, model.EstateStatusPaid
	case *model.PaymentFailedEvent:
		estateID, target = e.EstateID, model.EstateStatusPaymentFailed
	default:
		return nil
	}

	estate, err := d.estates.FindByID(ctx, estateID)
	if err != nil {
		return apperrors.Internal("load estate", err)
	}
	if estate == nil {
		d.logger.Warn("payment event for unknown estate", zap.String("estate_id", estateID))
		return nil
	}
	// A late failure for an earlier attempt never downgrades a paid estate.
	if estate.Status == model.EstateStatusPaid || estate.Status == target {
		return nil
	}

	if err := d.estates.UpdateStatus(ctx, estateID, target); err != nil {
		return apperrors.Internal("update estate status", err)
	}
	d.logger.Info("estate payment status updated",
		zap.String("estate_id", estateID),
		zap.String("status", string(target)))
	return nil
}
