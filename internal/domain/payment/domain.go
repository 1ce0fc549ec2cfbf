package payment

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
	sharedlogger "github.com/estateflow/server/internal/shared/logger"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// Stripe webhook event types acted upon.
const (
	webhookPaymentSucceeded = "payment_intent.succeeded"
	webhookPaymentFailed    = "payment_intent.payment_failed"
)

const statusCacheName = "payment_status"

// PaymentDomain defines the backend payment service behind /payment.
type PaymentDomain interface {
	// CreatePaymentIntent charges the fixed settlement price for an estate.
	CreatePaymentIntent(ctx context.Context, estateID string) (*model.CreatePaymentIntentResponse, error)

	// GetPaymentStatus returns the processor's view of a payment intent.
	GetPaymentStatus(ctx context.Context, paymentIntentID string) (*model.PaymentStatusResponse, error)

	// HandleWebhook verifies and applies a processor webhook delivery.
	HandleWebhook(ctx context.Context, payload []byte, signature string) error
}

// Pricing is the fixed charge for settling an estate, in minor units.
type Pricing struct {
	Amount   int64
	Currency string
}

// Recorder receives payment metrics.
type Recorder interface {
	RecordWebhookEvent(eventType, result string)
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
}

type nopRecorder struct{}

func (nopRecorder) RecordWebhookEvent(string, string) {}
func (nopRecorder) RecordCacheHit(string)             {}
func (nopRecorder) RecordCacheMiss(string)            {}

// paymentDomain implements PaymentDomain.
type paymentDomain struct {
	estates   outbound.EstateDatabasePort
	provider  outbound.PaymentProviderPort
	webhookDB outbound.WebhookEventDatabasePort
	cache     outbound.PaymentStatusCachePort
	publisher outbound.EventPublisherPort
	pricing   Pricing
	recorder  Recorder
	logger    *zap.Logger
}

// NewPaymentDomain creates a new payment domain service. cache and recorder may be nil.
func NewPaymentDomain(
	estates outbound.EstateDatabasePort,
	provider outbound.PaymentProviderPort,
	webhookDB outbound.WebhookEventDatabasePort,
	cache outbound.PaymentStatusCachePort,
	publisher outbound.EventPublisherPort,
	pricing Pricing,
	recorder Recorder,
	logger *zap.Logger,
) PaymentDomain {
	if logger == nil {
		logger = zap.NewNop()
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &paymentDomain{
		estates:   estates,
		provider:  provider,
		webhookDB: webhookDB,
		cache:     cache,
		publisher: publisher,
		pricing:   pricing,
		recorder:  recorder,
		logger:    logger.Named("payment"),
	}
}

func (d *paymentDomain) CreatePaymentIntent(ctx context.Context, estateID string) (*model.CreatePaymentIntentResponse, error) {
	estateID = strings.TrimSpace(estateID)
	if estateID == "" {
		return nil, apperrors.Validation("estate_id is required")
	}

	estate, err := d.estates.FindByID(ctx, estateID)
	if err != nil {
		return nil, apperrors.Internal("load estate", err)
	}
	// An unknown estate is a caller input problem here, not a missing resource.
	if estate == nil {
		return nil, apperrors.Validation("Estate not found")
	}
	if !estate.Status.IsPayable() {
		return nil, apperrors.Validation("Estate is already paid")
	}

	pi, err := d.provider.CreatePaymentIntent(ctx, d.pricing.Amount, d.pricing.Currency, map[string]string{
		"estate_id": estateID,
	})
	if err != nil {
		return nil, err
	}

	sharedlogger.FromContext(ctx, d.logger).Info("payment intent created",
		zap.String("estate_id", estateID),
		zap.String("payment_intent_id", pi.ID),
		zap.Int64("amount", pi.Amount))

	return &model.CreatePaymentIntentResponse{
		ClientSecret:    pi.ClientSecret,
		Amount:          pi.Amount,
		PaymentIntentID: pi.ID,
	}, nil
}

func (d *paymentDomain) GetPaymentStatus(ctx context.Context, paymentIntentID string) (*model.PaymentStatusResponse, error) {
	paymentIntentID = strings.TrimSpace(paymentIntentID)
	if paymentIntentID == "" {
		return nil, apperrors.Validation("payment intent id is required")
	}

	if cached := d.cachedStatus(ctx, paymentIntentID); cached != nil {
		return cached, nil
	}

	pi, err := d.provider.GetPaymentIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, err
	}

	status, err := model.ParsePaymentStatus(pi.Status)
	if err != nil {
		d.logger.Warn("unrecognised processor status",
			zap.String("payment_intent_id", paymentIntentID),
			zap.String("status", pi.Status))
	}

	resp := &model.PaymentStatusResponse{
		Status: string(status),
		Amount: pi.Amount,
	}
	cacheable := true
	if status.IsSucceeded() && pi.LatestChargeID != "" {
		url, err := d.provider.GetReceiptURL(ctx, pi.LatestChargeID)
		if err != nil {
			// The payment still succeeded; serve it without a receipt and retry on the next poll.
			d.logger.Warn("receipt lookup failed",
				zap.String("payment_intent_id", paymentIntentID),
				zap.Error(err))
			cacheable = false
		} else if url != "" {
			resp.ReceiptURL = &url
		}
	}

	if cacheable && d.cache != nil {
		if err := d.cache.Set(ctx, paymentIntentID, resp, status.IsTerminal()); err != nil {
			d.logger.Warn("cache payment status", zap.Error(err))
		}
	}
	return resp, nil
}

func (d *paymentDomain) cachedStatus(ctx context.Context, paymentIntentID string) *model.PaymentStatusResponse {
	if d.cache == nil {
		return nil
	}
	cached, err := d.cache.Get(ctx, paymentIntentID)
	if err != nil {
		d.logger.Warn("read payment status cache", zap.Error(err))
		return nil
	}
	if cached == nil {
		d.recorder.RecordCacheMiss(statusCacheName)
		return nil
	}
	d.recorder.RecordCacheHit(statusCacheName)
	return cached
}

func (d *paymentDomain) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := d.provider.ConstructWebhookEvent(payload, signature)
	if err != nil {
		d.recorder.RecordWebhookEvent("unknown", "invalid")
		return err
	}
	log := d.logger.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	var event outbound.DomainEvent
	estateID := ev.Metadata["estate_id"]
	switch ev.Type {
	case webhookPaymentSucceeded:
		event = model.NewPaymentSucceededEvent(estateID, ev.PaymentIntentID)
	case webhookPaymentFailed:
		event = model.NewPaymentFailedEvent(estateID, ev.PaymentIntentID)
	default:
		log.Debug("webhook event ignored")
		d.recorder.RecordWebhookEvent(ev.Type, "ignored")
		return nil
	}
	if estateID == "" {
		log.Warn("webhook event without estate_id metadata")
		d.recorder.RecordWebhookEvent(ev.Type, "ignored")
		return nil
	}

	provider := d.provider.Name()
	claimed, err := d.webhookDB.Claim(ctx, &model.WebhookEvent{
		Provider:  provider,
		EventID:   ev.ID,
		EventType: ev.Type,
	})
	if err != nil {
		d.recorder.RecordWebhookEvent(ev.Type, "error")
		return apperrors.Internal("record webhook event", err)
	}
	if !claimed {
		log.Info("duplicate webhook event")
		d.recorder.RecordWebhookEvent(ev.Type, "duplicate")
		return nil
	}

	if err := d.publisher.Publish(ctx, event); err != nil {
		log.Error("apply webhook event", zap.Error(err))
		d.recorder.RecordWebhookEvent(ev.Type, "error")
		if relErr := d.webhookDB.Release(ctx, provider, ev.ID); relErr != nil {
			log.Error("release webhook event", zap.Error(relErr))
		}
		return apperrors.Internal("apply webhook event", err)
	}

	if err := d.webhookDB.MarkProcessed(ctx, provider, ev.ID, nil); err != nil {
		log.Warn("mark webhook event processed", zap.Error(err))
	}
	d.recorder.RecordWebhookEvent(ev.Type, "processed")
	log.Info("webhook event processed", zap.String("estate_id", estateID))
	return nil
}
