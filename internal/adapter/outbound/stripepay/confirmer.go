package stripepay

import (
	"context"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"go.uber.org/zap"

	"github.com/estateflow/server/internal/infra/config"
	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// Confirmer confirms a payment intent from the client side using the
// publishable key and the intent's client secret. It stands in for the
// platform payment sheet in the terminal client.
type Confirmer struct {
	api           *client.API
	paymentMethod string
	returnURL     string
	logger        *zap.Logger
}

// NewConfirmer creates a confirmer. The publishable key is used; the secret
// key never leaves the backend.
func NewConfirmer(cfg *config.StripeConfig, logger *zap.Logger, opts ...Option) *Confirmer {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("stripe_confirmer")
	return &Confirmer{
		api:           newAPI(cfg.PublishableKey, logger, opts),
		paymentMethod: cfg.PaymentMethod,
		returnURL:     cfg.ReturnURL,
		logger:        logger,
	}
}

// ConfirmPayment submits the confirmation. The outcome is advisory only;
// the backend status endpoint stays authoritative.
func (c *Confirmer) ConfirmPayment(ctx context.Context, clientSecret string) error {
	id, ok := model.PaymentIntentIDFromSecret(clientSecret)
	if !ok {
		return apperrors.Validation("malformed client secret")
	}

	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx
	params.AddExtra("client_secret", clientSecret)
	if c.paymentMethod != "" {
		params.PaymentMethod = stripe.String(c.paymentMethod)
	}
	if c.returnURL != "" {
		params.ReturnURL = stripe.String(c.returnURL)
	}

	pi, err := c.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		return mapError("confirm payment intent", err)
	}
	c.logger.Debug("payment intent confirmed", zap.String("payment_intent_id", pi.ID), zap.String("status", string(pi.Status)))
	return nil
}

// Compile-time check
var _ outbound.PaymentConfirmerPort = (*Confirmer)(nil)
