package outbound

import (
	"context"

	"github.com/estateflow/server/internal/model"
)

// EstateDatabasePort defines estate persistence operations.
type EstateDatabasePort interface {
	// Create creates a new estate.
	Create(ctx context.Context, estate *model.Estate) error

	// FindByID finds an estate by ID. Returns nil, nil when absent.
	FindByID(ctx context.Context, id string) (*model.Estate, error)

	// UpdateStatus sets the estate status.
	UpdateStatus(ctx context.Context, id string, status model.EstateStatus) error
}

// TransactionDatabasePort defines bank transaction persistence operations.
type TransactionDatabasePort interface {
	// ListByEstate lists the transactions of an estate.
	ListByEstate(ctx context.Context, estateID string) ([]model.Transaction, error)

	// FindByID finds a transaction. Returns nil, nil when absent.
	FindByID(ctx context.Context, estateID, transactionID string) (*model.Transaction, error)

	// ReplaceForEstate replaces the transaction list of an estate.
	ReplaceForEstate(ctx context.Context, estateID string, txs []model.Transaction) error
}

// CancellationDatabasePort defines cancellation persistence operations.
type CancellationDatabasePort interface {
	// Save creates or replaces a cancellation including its history.
	Save(ctx context.Context, c *model.Cancellation) error

	// Find returns the cancellation with history in insertion order. Returns nil, nil when absent.
	Find(ctx context.Context, estateID, transactionID string) (*model.Cancellation, error)

	// AppendHistory sets the status and appends one history row atomically.
	AppendHistory(ctx context.Context, estateID, transactionID string, entry *model.CancellationHistoryRow) (*model.Cancellation, error)
}

// ArtifactGeneratorPort renders the cancellation letter or email text.
type ArtifactGeneratorPort interface {
	Generate(ctx context.Context, method model.CancellationMethod, estate *model.Estate, tx *model.Transaction, contact map[string]string) (string, error)
}
