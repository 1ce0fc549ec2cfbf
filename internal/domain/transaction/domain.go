package transaction

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
	sharedlogger "github.com/estateflow/server/internal/shared/logger"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// CreatedComment is the history comment of the entry written when a
// cancellation is first requested.
const CreatedComment = "Cancellation request created"

// TransactionDomain manages estate transactions and subscription cancellations.
type TransactionDomain interface {
	ListTransactions(ctx context.Context, estateID string) (*model.TransactionList, error)
	ReplaceTransactions(ctx context.Context, estateID string, txs []model.Transaction) (*model.TransactionList, error)

	// RequestCancellation generates the artifact and stores the cancellation as pending.
	RequestCancellation(ctx context.Context, req *model.CancellationRequest) (*model.CancellationArtifact, error)
	GetCancellation(ctx context.Context, estateID, transactionID string) (*model.CancellationStatusResponse, error)
	UpdateCancellationStatus(ctx context.Context, estateID, transactionID string, req *model.UpdateCancellationStatusRequest) (*model.CancellationStatusResponse, error)
}

// Recorder receives cancellation metrics.
type Recorder interface {
	RecordCancellationTransition(status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCancellationTransition(string) {}

type transactionDomain struct {
	estates       outbound.EstateDatabasePort
	transactions  outbound.TransactionDatabasePort
	cancellations outbound.CancellationDatabasePort
	generator     outbound.ArtifactGeneratorPort
	publisher     outbound.EventPublisherPort
	recorder      Recorder
	now           func() time.Time
	logger        *zap.Logger
}

// NewTransactionDomain creates a new transaction domain service. publisher and
// recorder may be nil.
func NewTransactionDomain(
	estates outbound.EstateDatabasePort,
	transactions outbound.TransactionDatabasePort,
	cancellations outbound.CancellationDatabasePort,
	generator outbound.ArtifactGeneratorPort,
	publisher outbound.EventPublisherPort,
	recorder Recorder,
	logger *zap.Logger,
) TransactionDomain {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &transactionDomain{
		estates:       estates,
		transactions:  transactions,
		cancellations: cancellations,
		generator:     generator,
		publisher:     publisher,
		recorder:      recorder,
		now:           time.Now,
		logger:        logger.Named("transaction"),
	}
}

func (d *transactionDomain) requireEstate(ctx context.Context, estateID string) (*model.Estate, error) {
	estate, err := d.estates.FindByID(ctx, estateID)
	if err != nil {
		return nil, apperrors.Internal("load estate", err)
	}
	if estate == nil {
		return nil, apperrors.NotFound("estate")
	}
	return estate, nil
}

func (d *transactionDomain) ListTransactions(ctx context.Context, estateID string) (*model.TransactionList, error) {
	if _, err := d.requireEstate(ctx, estateID); err != nil {
		return nil, err
	}
	txs, err := d.transactions.ListByEstate(ctx, estateID)
	if err != nil {
		return nil, apperrors.Internal("list transactions", err)
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	return &model.TransactionList{EstateID: estateID, Transactions: txs}, nil
}

func (d *transactionDomain) ReplaceTransactions(ctx context.Context, estateID string, txs []model.Transaction) (*model.TransactionList, error) {
	if _, err := d.requireEstate(ctx, estateID); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(txs))
	for i := range txs {
		id := strings.TrimSpace(txs[i].ID)
		if id == "" {
			return nil, apperrors.Validation(fmt.Sprintf("transactions[%d].id is required", i))
		}
		if _, dup := seen[id]; dup {
			return nil, apperrors.Validation(fmt.Sprintf("duplicate transaction id %q", id))
		}
		seen[id] = struct{}{}
		txs[i].ID = id
		txs[i].EstateID = estateID
	}
	if err := d.transactions.ReplaceForEstate(ctx, estateID, txs); err != nil {
		return nil, apperrors.Internal("replace transactions", err)
	}
	if txs == nil {
		txs = []model.Transaction{}
	}
	return &model.TransactionList{EstateID: estateID, Transactions: txs}, nil
}

func (d *transactionDomain) RequestCancellation(ctx context.Context, req *model.CancellationRequest) (*model.CancellationArtifact, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	tx, err := d.transactions.FindByID(ctx, req.EstateID, req.TransactionID)
	if err != nil {
		return nil, apperrors.Internal("load transaction", err)
	}
	if tx == nil {
		return nil, apperrors.NotFound("transaction")
	}
	estate, err := d.requireEstate(ctx, req.EstateID)
	if err != nil {
		return nil, err
	}

	existing, err := d.cancellations.Find(ctx, req.EstateID, req.TransactionID)
	if err != nil {
		return nil, apperrors.Internal("load cancellation", err)
	}
	if existing != nil && existing.Status.IsTerminal() {
		return nil, apperrors.TerminalState(fmt.Sprintf("cancellation is already %s", existing.Status))
	}

	content, err := d.generator.Generate(ctx, req.CancellationMethod, estate, tx, req.ContactInfo)
	if err != nil {
		return nil, apperrors.Internal("generate cancellation", err)
	}

	c := &model.Cancellation{
		EstateID:      req.EstateID,
		TransactionID: req.TransactionID,
		Method:        req.CancellationMethod,
		Content:       content,
		ContactInfo:   req.ContactInfo,
		Status:        model.CancellationStatusPending,
		History: []model.CancellationHistoryRow{{
			Status:    model.CancellationStatusPending,
			Timestamp: d.now(),
			Comment:   CreatedComment,
		}},
	}
	if err := d.cancellations.Save(ctx, c); err != nil {
		return nil, apperrors.Internal("save cancellation", err)
	}

	d.recorder.RecordCancellationTransition(string(model.CancellationStatusPending))
	d.publish(ctx, model.NewCancellationEvent(model.EventCancellationRequested, req.EstateID, req.TransactionID, model.CancellationStatusPending))
	sharedlogger.FromContext(ctx, d.logger).Info("cancellation requested",
		zap.String("estate_id", req.EstateID),
		zap.String("transaction_id", req.TransactionID),
		zap.String("method", string(req.CancellationMethod)))

	artifact := &model.CancellationArtifact{
		TransactionID: req.TransactionID,
		ContactInfo:   req.ContactInfo,
	}
	if artifact.ContactInfo == nil {
		artifact.ContactInfo = map[string]string{}
	}
	if req.CancellationMethod == model.CancellationMethodLetter {
		artifact.LetterText = &content
	} else {
		artifact.EmailText = &content
	}
	return artifact, nil
}

func validateRequest(req *model.CancellationRequest) error {
	if req == nil {
		return apperrors.Validation("request body is required")
	}
	if strings.TrimSpace(req.EstateID) == "" || strings.TrimSpace(req.TransactionID) == "" {
		return apperrors.Validation("estate_id and transaction_id are required")
	}
	if !req.CancellationMethod.IsValid() {
		return apperrors.Validation(fmt.Sprintf("unsupported cancellation_method %q", req.CancellationMethod))
	}
	key := req.CancellationMethod.RequiredContactKey()
	if strings.TrimSpace(req.ContactInfo[key]) == "" {
		return apperrors.Validation(fmt.Sprintf("contact_info.%s is required for %s cancellations", key, req.CancellationMethod))
	}
	return nil
}

func (d *transactionDomain) GetCancellation(ctx context.Context, estateID, transactionID string) (*model.CancellationStatusResponse, error) {
	c, err := d.cancellations.Find(ctx, estateID, transactionID)
	if err != nil {
		return nil, apperrors.Internal("load cancellation", err)
	}
	if c == nil {
		return nil, apperrors.NotFound("cancellation")
	}
	return toStatusResponse(c), nil
}

func (d *transactionDomain) UpdateCancellationStatus(ctx context.Context, estateID, transactionID string, req *model.UpdateCancellationStatusRequest) (*model.CancellationStatusResponse, error) {
	if req == nil {
		return nil, apperrors.Validation("request body is required")
	}
	status, err := model.ParseCancellationStatus(string(req.Status))
	if err != nil {
		return nil, apperrors.Validation(fmt.Sprintf("unsupported status %q", req.Status))
	}

	c, err := d.cancellations.AppendHistory(ctx, estateID, transactionID, &model.CancellationHistoryRow{
		Status:    status,
		Timestamp: d.now(),
		Comment:   req.Comment,
	})
	if err != nil {
		return nil, apperrors.Internal("update cancellation", err)
	}
	if c == nil {
		return nil, apperrors.NotFound("cancellation")
	}

	d.recorder.RecordCancellationTransition(string(status))
	d.publish(ctx, model.NewCancellationEvent(model.EventCancellationStatusMoved, estateID, transactionID, status))
	sharedlogger.FromContext(ctx, d.logger).Info("cancellation status updated",
		zap.String("estate_id", estateID),
		zap.String("transaction_id", transactionID),
		zap.String("status", string(status)))
	return toStatusResponse(c), nil
}

func (d *transactionDomain) publish(ctx context.Context, event outbound.DomainEvent) {
	if d.publisher == nil {
		return
	}
	if err := d.publisher.Publish(ctx, event); err != nil {
		d.logger.Warn("publish cancellation event", zap.String("event_type", event.EventType()), zap.Error(err))
	}
}

func toStatusResponse(c *model.Cancellation) *model.CancellationStatusResponse {
	rec := c.ToRecord()
	return &model.CancellationStatusResponse{Status: rec.Status, History: rec.History}
}
