package checkout

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// Listener receives the payment record whenever its status changes.
type Listener func(record model.PaymentRecord)

// Recorder receives poll and outcome observations.
type Recorder interface {
	RecordPoll(result string)
	RecordCheckoutOutcome(status string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordPoll(string)                           {}
func (nopRecorder) RecordCheckoutOutcome(string, time.Duration) {}

// Controller drives one checkout attempt at a time. It creates a payment
// intent, hands the client secret to the confirmer and polls the backend until
// the payment reaches a terminal status or the attempt is cancelled.
type Controller struct {
	mu sync.Mutex

	gateway   outbound.StatusGatewayPort
	confirmer outbound.PaymentConfirmerPort
	recorder  Recorder
	logger    *zap.Logger
	config    *Config

	listeners []subscription
	nextSubID uint64

	current  *attempt
	attempts uint64
}

type subscription struct {
	id uint64
	fn Listener
}

// attempt is one checkout lifecycle. Fields below intentID are guarded by
// Controller.mu.
type attempt struct {
	id        uint64
	intentID  string
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	startedAt time.Time

	record   model.PaymentRecord
	seen     map[model.PaymentStatus]struct{}
	finished bool
	err      error
}

// NewController creates a new checkout controller. confirmer may be nil.
func NewController(gateway outbound.StatusGatewayPort, confirmer outbound.PaymentConfirmerPort, logger *zap.Logger, config *Config) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		gateway:   gateway,
		confirmer: confirmer,
		recorder:  nopRecorder{},
		logger:    logger.Named("checkout"),
		config:    config.withDefaults(),
	}
}

// SetRecorder sets the metrics recorder.
func (c *Controller) SetRecorder(r Recorder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r == nil {
		r = nopRecorder{}
	}
	c.recorder = r
}

// OnStatusChange registers a listener. It is invoked at most once per distinct
// status of an attempt and exactly once with the terminal status.
// Returns an unsubscribe function.
func (c *Controller) OnStatusChange(listener Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.nextSubID++
	id := c.nextSubID
	c.listeners = append(c.listeners, subscription{id: id, fn: listener})

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		for i, sub := range c.listeners {
			if sub.id == id {
				c.listeners = append(c.listeners[:i:i], c.listeners[i+1:]...)
				break
			}
		}
	}
}

// StartCheckout creates a payment intent for the estate and starts polling its
// status in the background. It returns once the intent exists.
func (c *Controller) StartCheckout(ctx context.Context, estateID string) error {
	if strings.TrimSpace(estateID) == "" {
		return apperrors.Validation("estate_id is required")
	}

	a, err := c.reserve(ctx)
	if err != nil {
		return err
	}

	createCtx, stop := context.WithCancel(ctx)
	stopAfter := context.AfterFunc(a.ctx, stop)
	rec, err := c.gateway.CreatePaymentIntent(createCtx, estateID)
	stopAfter()
	stop()

	if a.ctx.Err() != nil {
		c.abort(a, ErrCancelled)
		return ErrCancelled
	}
	if err != nil {
		c.logger.Warn("create payment intent failed",
			zap.String("estate_id", estateID),
			zap.Error(err))
		c.abort(a, err)
		return err
	}
	if rec.PaymentIntentID == "" {
		err := apperrors.Internal("payment intent id missing from create response", nil)
		c.abort(a, err)
		return err
	}

	a.intentID = rec.PaymentIntentID
	c.logger.Info("payment intent created",
		zap.String("estate_id", estateID),
		zap.String("payment_intent_id", rec.PaymentIntentID),
		zap.String("status", rec.Status.String()))

	if c.apply(a, rec) {
		close(a.done)
		return nil
	}

	go c.run(a, rec.ClientSecret)
	return nil
}

// Resume re-attaches to an existing payment intent and polls it from its
// authoritative remote state.
func (c *Controller) Resume(ctx context.Context, paymentIntentID string) error {
	if strings.TrimSpace(paymentIntentID) == "" {
		return apperrors.Validation("payment_intent_id is required")
	}

	a, err := c.reserve(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	a.intentID = paymentIntentID
	a.record.PaymentIntentID = paymentIntentID
	c.mu.Unlock()

	c.logger.Info("resuming checkout", zap.String("payment_intent_id", paymentIntentID))
	go c.run(a, "")
	return nil
}

// Cancel stops polling. It has no effect on the remote payment and is
// idempotent. Once it returns no further poll result is applied.
func (c *Controller) Cancel() {
	c.mu.Lock()
	a := c.current
	if a == nil || a.finished {
		c.mu.Unlock()
		return
	}
	a.finished = true
	a.err = ErrCancelled
	a.cancel()
	recorder := c.recorder
	c.mu.Unlock()

	recorder.RecordCheckoutOutcome("stopped", time.Since(a.startedAt))
	c.logger.Info("checkout cancelled", zap.String("payment_intent_id", a.intentID))
}

// Active returns true while an attempt is in progress.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil && !c.current.finished
}

// Record returns a copy of the current attempt's record.
func (c *Controller) Record() (model.PaymentRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return model.PaymentRecord{}, false
	}
	return c.current.record, true
}

// Done returns a channel closed once the current attempt's background work has
// stopped. It is closed immediately when no attempt was started.
func (c *Controller) Done() <-chan struct{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		ch := make(chan struct{})
		close(ch)
		return ch
	}
	return c.current.done
}

// Wait blocks until the current attempt concludes. The error is nil when the
// backend reported a terminal status; otherwise it tells why the attempt ended
// without one (not found, timeout, cancelled).
func (c *Controller) Wait(ctx context.Context) (*model.PaymentRecord, error) {
	c.mu.Lock()
	a := c.current
	c.mu.Unlock()
	if a == nil {
		return nil, ErrNotStarted
	}

	select {
	case <-a.done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	rec := a.record
	return &rec, a.err
}

func (c *Controller) reserve(ctx context.Context) (*attempt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil && !c.current.finished {
		return nil, apperrors.AlreadyInProgress("checkout already in progress")
	}

	c.attempts++
	actx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a := &attempt{
		id:        c.attempts,
		ctx:       actx,
		cancel:    cancel,
		done:      make(chan struct{}),
		startedAt: time.Now(),
		seen:      make(map[model.PaymentStatus]struct{}),
	}
	c.current = a
	return a, nil
}

// abort ends an attempt that never reached polling.
func (c *Controller) abort(a *attempt, err error) {
	c.mu.Lock()
	if !a.finished {
		a.finished = true
		a.err = err
		a.cancel()
	}
	c.mu.Unlock()
	close(a.done)
}

func (c *Controller) run(a *attempt, clientSecret string) {
	defer close(a.done)

	var timeout <-chan time.Time
	if c.config.PollTimeout > 0 {
		t := time.NewTimer(c.config.PollTimeout)
		defer t.Stop()
		timeout = t.C
	}

	if c.confirmer != nil && clientSecret != "" {
		if err := c.confirmer.ConfirmPayment(a.ctx, clientSecret); err != nil && a.ctx.Err() == nil {
			c.logger.Warn("payment confirmation error",
				zap.String("payment_intent_id", a.intentID),
				zap.Error(err))
		}
	}

	// First poll fires immediately.
	timer := time.NewTimer(0)
	defer timer.Stop()

	failures := 0
	for {
		select {
		case <-a.ctx.Done():
			return

		case <-timeout:
			c.logger.Warn("payment status polling timed out",
				zap.String("payment_intent_id", a.intentID),
				zap.Duration("poll_timeout", c.config.PollTimeout))
			c.fail(a, apperrors.Timeout("payment status polling timed out"))
			return

		case <-timer.C:
			// select picks randomly when Cancel races the timer.
			if a.ctx.Err() != nil {
				return
			}
			pollCtx, cancel := context.WithTimeout(a.ctx, c.config.RequestTimeout)
			rec, err := c.gateway.FetchPaymentStatus(pollCtx, a.intentID)
			cancel()

			if a.ctx.Err() != nil {
				return
			}

			if err != nil {
				if apperrors.IsNotFound(err) {
					c.recordPoll("fatal")
					c.logger.Error("payment status poll failed",
						zap.String("payment_intent_id", a.intentID),
						zap.Error(err))
					c.fail(a, err)
					return
				}

				failures++
				c.recordPoll("error")
				c.logger.Warn("poll error",
					zap.String("payment_intent_id", a.intentID),
					zap.Int("consecutive_failures", failures),
					zap.Error(err))
				timer.Reset(c.config.backoff(failures))
				continue
			}

			failures = 0
			c.recordPoll("ok")
			if c.apply(a, rec) {
				return
			}
			timer.Reset(c.config.PollInterval)
		}
	}
}

func (c *Controller) recordPoll(result string) {
	c.mu.Lock()
	r := c.recorder
	c.mu.Unlock()
	r.RecordPoll(result)
}

// apply mirrors a gateway record into the attempt and notifies listeners of a
// status not seen before. Returns true once the attempt is over.
func (c *Controller) apply(a *attempt, rec *model.PaymentRecord) bool {
	c.mu.Lock()
	if a.finished {
		c.mu.Unlock()
		return true
	}

	if rec.PaymentIntentID != "" {
		a.record.PaymentIntentID = rec.PaymentIntentID
	}
	if rec.ClientSecret != "" {
		a.record.ClientSecret = rec.ClientSecret
	}
	if rec.Currency != "" {
		a.record.Currency = rec.Currency
	}
	a.record.Amount = rec.Amount
	a.record.Status = rec.Status
	a.record.ReceiptURL = rec.ReceiptURL

	_, seen := a.seen[rec.Status]
	a.seen[rec.Status] = struct{}{}

	terminal := rec.Status.IsTerminal()
	if terminal {
		c.finishLocked(a, nil)
	}

	snapshot := a.record
	var listeners []Listener
	if !seen {
		listeners = c.listenersLocked()
	}
	c.mu.Unlock()

	if !seen && !rec.Status.IsKnown() {
		c.logger.Warn("unknown payment status",
			zap.String("payment_intent_id", a.intentID),
			zap.String("status", rec.Status.String()))
	}
	if terminal {
		c.logger.Info("checkout concluded",
			zap.String("payment_intent_id", a.intentID),
			zap.String("status", rec.Status.String()),
			zap.Int64("amount", rec.Amount))
	}

	for _, l := range listeners {
		l(snapshot)
	}
	return terminal
}

// fail ends the attempt reporting failed.
func (c *Controller) fail(a *attempt, err error) {
	c.mu.Lock()
	if a.finished {
		c.mu.Unlock()
		return
	}
	a.record.Status = model.PaymentStatusFailed
	a.seen[model.PaymentStatusFailed] = struct{}{}
	c.finishLocked(a, err)
	snapshot := a.record
	listeners := c.listenersLocked()
	c.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

func (c *Controller) finishLocked(a *attempt, err error) {
	a.finished = true
	a.err = err
	a.cancel()
	c.recorder.RecordCheckoutOutcome(a.record.Status.DisplayName(), time.Since(a.startedAt))
}

func (c *Controller) listenersLocked() []Listener {
	out := make([]Listener, 0, len(c.listeners))
	for _, sub := range c.listeners {
		out = append(out, sub.fn)
	}
	return out
}
