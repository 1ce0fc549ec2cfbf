package estate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/estateflow/server/internal/model"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

type MockEstateDatabasePort struct {
	mock.Mock
}

func (m *MockEstateDatabasePort) Create(ctx context.Context, estate *model.Estate) error {
	args := m.Called(ctx, estate)
	return args.Error(0)
}

func (m *MockEstateDatabasePort) FindByID(ctx context.Context, id string) (*model.Estate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Estate), args.Error(1)
}

func (m *MockEstateDatabasePort) UpdateStatus(ctx context.Context, id string, status model.EstateStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func TestEstateDomain_CreateEstate(t *testing.T) {
	ctx := context.Background()

	t.Run("creates active estate", func(t *testing.T) {
		db := new(MockEstateDatabasePort)
		db.On("Create", ctx, mock.AnythingOfType("*model.Estate")).Return(nil)
		d := NewEstateDomain(db, nil)

		estate, err := d.CreateEstate(ctx, &model.CreateEstateRequest{DeceasedName: " Ola Nordmann ", DateOfDeath: "2024-03-01"})

		require.NoError(t, err)
		assert.NotEmpty(t, estate.ID)
		assert.Equal(t, "Ola Nordmann", estate.DeceasedName)
		assert.Equal(t, model.EstateStatusActive, estate.Status)
		db.AssertExpectations(t)
	})

	t.Run("name required", func(t *testing.T) {
		d := NewEstateDomain(new(MockEstateDatabasePort), nil)
		_, err := d.CreateEstate(ctx, &model.CreateEstateRequest{})
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestEstateDomain_GetEstate(t *testing.T) {
	ctx := context.Background()
	db := new(MockEstateDatabasePort)
	db.On("FindByID", ctx, "missing").Return(nil, nil)
	db.On("FindByID", ctx, "broken").Return(nil, errors.New("conn reset"))
	d := NewEstateDomain(db, nil)

	_, err := d.GetEstate(ctx, "missing")
	assert.True(t, apperrors.IsNotFound(err))

	_, err = d.GetEstate(ctx, "broken")
	assert.Equal(t, 500, apperrors.GetStatusCode(err))
}

func TestEstateDomain_HandlePaymentEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeded marks paid", func(t *testing.T) {
		db := new(MockEstateDatabasePort)
		db.On("FindByID", ctx, "e1").Return(&model.Estate{ID: "e1", Status: model.EstateStatusActive}, nil)
		db.On("UpdateStatus", ctx, "e1", model.EstateStatusPaid).Return(nil)
		d := NewEstateDomain(db, nil)

		require.NoError(t, d.HandlePaymentEvent(ctx, model.NewPaymentSucceededEvent("e1", "pi_1")))
		db.AssertExpectations(t)
	})

	t.Run("failure does not downgrade paid estate", func(t *testing.T) {
		db := new(MockEstateDatabasePort)
		db.On("FindByID", ctx, "e1").Return(&model.Estate{ID: "e1", Status: model.EstateStatusPaid}, nil)
		d := NewEstateDomain(db, nil)

		require.NoError(t, d.HandlePaymentEvent(ctx, model.NewPaymentFailedEvent("e1", "pi_old")))
		db.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("failure marks payment_failed", func(t *testing.T) {
		db := new(MockEstateDatabasePort)
		db.On("FindByID", ctx, "e1").Return(&model.Estate{ID: "e1", Status: model.EstateStatusActive}, nil)
		db.On("UpdateStatus", ctx, "e1", model.EstateStatusPaymentFailed).Return(nil)
		d := NewEstateDomain(db, nil)

		require.NoError(t, d.HandlePaymentEvent(ctx, model.NewPaymentFailedEvent("e1", "pi_1")))
		db.AssertExpectations(t)
	})

	t.Run("redelivery is idempotent", func(t *testing.T) {
		db := new(MockEstateDatabasePort)
		db.On("FindByID", ctx, "e1").Return(&model.Estate{ID: "e1", Status: model.EstateStatusPaid}, nil)
		d := NewEstateDomain(db, nil)

		require.NoError(t, d.HandlePaymentEvent(ctx, model.NewPaymentSucceededEvent("e1", "pi_1")))
		db.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown estate ignored", func(t *testing.T) {
		db := new(MockEstateDatabasePort)
		db.On("FindByID", ctx, "ghost").Return(nil, nil)
		d := NewEstateDomain(db, nil)

		assert.NoError(t, d.HandlePaymentEvent(ctx, model.NewPaymentSucceededEvent("ghost", "pi_1")))
	})

	t.Run("store error surfaces", func(t *testing.T) {
		db := new(MockEstateDatabasePort)
		db.On("FindByID", ctx, "e1").Return(&model.Estate{ID: "e1", Status: model.EstateStatusActive}, nil)
		db.On("UpdateStatus", ctx, "e1", model.EstateStatusPaid).Return(errors.New("db down"))
		d := NewEstateDomain(db, nil)

		assert.Error(t, d.HandlePaymentEvent(ctx, model.NewPaymentSucceededEvent("e1", "pi_1")))
	})
}
