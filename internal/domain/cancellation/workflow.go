package cancellation

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// DefaultConfirmComment is sent when the user confirms without a comment.
const DefaultConfirmComment = "Oppsigelse bekreftet av bruker"

// Recorder receives cancellation transition observations.
type Recorder interface {
	RecordCancellationTransition(status string)
}

type nopRecorder struct{}

func (nopRecorder) RecordCancellationTransition(string) {}

// Workflow tracks the cancellation of one transaction of one estate. The
// backend owns the record; the workflow only mirrors what the gateway returns.
type Workflow struct {
	// opMu serialises remote operations, mu guards the mirrored state.
	opMu sync.Mutex
	mu   sync.RWMutex

	gateway  outbound.StatusGatewayPort
	recorder Recorder
	logger   *zap.Logger

	estateID      string
	transactionID string

	state    State
	record   *model.CancellationRecord
	artifact *model.CancellationArtifact
}

// NewWorkflow creates a workflow for an estate transaction in state none.
func NewWorkflow(gateway outbound.StatusGatewayPort, estateID, transactionID string, logger *zap.Logger) *Workflow {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Workflow{
		gateway:  gateway,
		recorder: nopRecorder{},
		logger: logger.Named("cancellation").With(
			zap.String("estate_id", estateID),
			zap.String("transaction_id", transactionID)),
		estateID:      estateID,
		transactionID: transactionID,
		state:         StateNone,
	}
}

// SetRecorder sets the metrics recorder.
func (w *Workflow) SetRecorder(r Recorder) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if r == nil {
		r = nopRecorder{}
	}
	w.recorder = r
}

// EstateID returns the estate the workflow belongs to.
func (w *Workflow) EstateID() string { return w.estateID }

// TransactionID returns the transaction the workflow belongs to.
func (w *Workflow) TransactionID() string { return w.transactionID }

// State returns the current local state.
func (w *Workflow) State() State {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state
}

// CanMutate reports whether requesting or confirming is still allowed.
func (w *Workflow) CanMutate() bool {
	return !w.State().IsTerminal()
}

// Record returns a copy of the mirrored record, or nil in state none.
func (w *Workflow) Record() *model.CancellationRecord {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.record.Clone()
}

// History returns the mirrored history exactly as the gateway returned it.
func (w *Workflow) History() []model.CancellationHistoryEntry {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.record == nil {
		return nil
	}
	return append([]model.CancellationHistoryEntry(nil), w.record.History...)
}

// Artifact returns the last generated letter or email, if any.
func (w *Workflow) Artifact() *model.CancellationArtifact {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.artifact.Clone()
}

// LoadStatus fetches the current record. A missing record puts the workflow in
// state none and is not an error.
func (w *Workflow) LoadStatus(ctx context.Context) error {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	rec, err := w.gateway.FetchCancellationStatus(ctx, w.estateID, w.transactionID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			w.mu.Lock()
			w.state = StateNone
			w.record = nil
			w.mu.Unlock()
			w.logger.Debug("no cancellation found")
			return nil
		}
		return err
	}

	w.mirror(rec)
	return nil
}

// RequestCancellation asks the backend to generate the cancellation letter or
// email. The request is validated locally first. On success the workflow
// enters pending and refreshes its mirror from the backend.
func (w *Workflow) RequestCancellation(ctx context.Context, req *model.CancellationRequest) (*model.CancellationArtifact, error) {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	if state := w.State(); state.IsTerminal() {
		return nil, apperrors.TerminalState("cancellation is already " + state.String())
	}
	if err := w.validate(req); err != nil {
		return nil, err
	}

	artifact, err := w.gateway.RequestCancellation(ctx, req)
	if err != nil {
		w.logger.Warn("request cancellation failed", zap.Error(err))
		return nil, err
	}

	w.mu.Lock()
	changed := w.state != StatePending
	w.state = StatePending
	w.artifact = artifact
	recorder := w.recorder
	w.mu.Unlock()

	if changed {
		recorder.RecordCancellationTransition(string(StatePending))
	}
	w.logger.Info("cancellation requested", zap.String("method", string(req.CancellationMethod)))

	rec, err := w.gateway.FetchCancellationStatus(ctx, w.estateID, w.transactionID)
	switch {
	case err == nil:
		w.mirror(rec)
	case apperrors.IsNotFound(err):
		w.logger.Debug("cancellation not yet visible after request")
	default:
		w.logger.Warn("refresh after request failed", zap.Error(err))
	}

	return artifact, nil
}

// Confirm records the user's confirmation. It is valid from pending, or from
// a status this client does not recognise. An empty comment is replaced with
// DefaultConfirmComment. The mirror is replaced with the returned record.
func (w *Workflow) Confirm(ctx context.Context, comment string) (*model.CancellationRecord, error) {
	w.opMu.Lock()
	defer w.opMu.Unlock()

	state := w.State()
	switch {
	case state.IsTerminal():
		return nil, apperrors.TerminalState("cancellation is already " + state.String())
	case state == StateNone:
		return nil, apperrors.Validation("no cancellation has been requested for this transaction")
	}

	if strings.TrimSpace(comment) == "" {
		comment = DefaultConfirmComment
	}

	rec, err := w.gateway.AdvanceCancellationStatus(ctx, w.estateID, w.transactionID, model.CancellationStatusConfirmed, comment)
	if err != nil {
		w.logger.Warn("confirm cancellation failed", zap.Error(err))
		return nil, err
	}

	w.mirror(rec)
	w.logger.Info("cancellation confirmed", zap.String("status", rec.Status.String()))
	return rec.Clone(), nil
}

func (w *Workflow) validate(req *model.CancellationRequest) error {
	if req == nil {
		return apperrors.Validation("cancellation request is required")
	}
	if req.EstateID != w.estateID || req.TransactionID != w.transactionID {
		return apperrors.Validation("request does not match this estate transaction").
			WithDetails(map[string]any{"estate_id": req.EstateID, "transaction_id": req.TransactionID})
	}
	if !req.CancellationMethod.IsValid() {
		return apperrors.Validation("cancellation_method must be email or letter")
	}
	key := req.CancellationMethod.RequiredContactKey()
	if strings.TrimSpace(req.ContactInfo[key]) == "" {
		return apperrors.Validation("contact_info." + key + " is required for " + string(req.CancellationMethod))
	}
	return nil
}

// mirror replaces the local state with a gateway record.
func (w *Workflow) mirror(rec *model.CancellationRecord) {
	if rec == nil {
		return
	}
	rec = rec.Clone()
	if rec.EstateID == "" {
		rec.EstateID = w.estateID
	}
	if rec.TransactionID == "" {
		rec.TransactionID = w.transactionID
	}
	next := State(rec.Status)

	w.mu.Lock()
	prev := w.state
	w.state = next
	w.record = rec
	recorder := w.recorder
	w.mu.Unlock()

	if !next.IsKnown() {
		w.logger.Warn("unknown cancellation status", zap.String("status", rec.Status.String()))
	}
	if prev != next {
		recorder.RecordCancellationTransition(next.DisplayName())
	}
}
