package stripepay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/estateflow/server/internal/infra/config"
	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/outbound"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

const providerName = "stripe"

// Option customises the Stripe API backend.
type Option func(*stripe.BackendConfig)

// WithBaseURL points the client at a different API host.
func WithBaseURL(url string) Option {
	return func(c *stripe.BackendConfig) {
		c.URL = stripe.String(strings.TrimRight(url, "/"))
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *stripe.BackendConfig) {
		c.HTTPClient = hc
	}
}

// WithMaxNetworkRetries overrides the SDK's retry count.
func WithMaxNetworkRetries(n int64) Option {
	return func(c *stripe.BackendConfig) {
		c.MaxNetworkRetries = stripe.Int64(n)
	}
}

func newAPI(key string, logger *zap.Logger, opts []Option) *client.API {
	cfg := &stripe.BackendConfig{
		LeveledLogger:     logger.Sugar(),
		MaxNetworkRetries: stripe.Int64(2),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	backend := stripe.GetBackendWithConfig(stripe.APIBackend, cfg)
	return client.New(key, &stripe.Backends{
		API:     backend,
		Connect: backend,
		Uploads: backend,
	})
}

// Provider implements outbound.PaymentProviderPort on the Stripe API.
type Provider struct {
	api           *client.API
	webhookSecret string
	logger        *zap.Logger
}

// NewProvider creates a Stripe provider using the secret key.
func NewProvider(cfg *config.StripeConfig, logger *zap.Logger, opts ...Option) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("stripe")
	return &Provider{
		api:           newAPI(cfg.SecretKey, logger, opts),
		webhookSecret: cfg.WebhookSecret,
		logger:        logger,
	}
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return providerName
}

func (p *Provider) CreatePaymentIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*model.ProviderPaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, mapError("create payment intent", err)
	}
	return toProviderIntent(pi), nil
}

func (p *Provider) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*model.ProviderPaymentIntent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(paymentIntentID, params)
	if err != nil {
		return nil, mapError("get payment intent", err)
	}
	return toProviderIntent(pi), nil
}

func (p *Provider) GetReceiptURL(ctx context.Context, chargeID string) (string, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx

	ch, err := p.api.Charges.Get(chargeID, params)
	if err != nil {
		return "", mapError("get charge", err)
	}
	return ch.ReceiptURL, nil
}

// ConstructWebhookEvent verifies the signature header and extracts the
// payment intent carried by payment_intent.* events.
func (p *Provider) ConstructWebhookEvent(payload []byte, signature string) (*model.ProviderWebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, apperrors.Validation("invalid webhook signature").WithDetails(map[string]any{"reason": err.Error()})
	}

	out := &model.ProviderWebhookEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if strings.HasPrefix(out.Type, "payment_intent.") && event.Data != nil {
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			return nil, apperrors.Validation("malformed payment intent in webhook event")
		}
		out.PaymentIntentID = pi.ID
		out.Metadata = pi.Metadata
	}
	return out, nil
}

func toProviderIntent(pi *stripe.PaymentIntent) *model.ProviderPaymentIntent {
	out := &model.ProviderPaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
		Status:       string(pi.Status),
		Metadata:     pi.Metadata,
	}
	if pi.LatestCharge != nil {
		out.LatestChargeID = pi.LatestCharge.ID
	}
	return out
}

// mapError translates SDK errors into the application taxonomy.
func mapError(op string, err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return apperrors.Network(op, err)
	}
	switch {
	case se.HTTPStatusCode == http.StatusNotFound || se.Code == stripe.ErrorCodeResourceMissing:
		return apperrors.NotFound("payment intent")
	case se.HTTPStatusCode >= 400 && se.HTTPStatusCode < 500:
		return apperrors.Validation(fmt.Sprintf("%s: %s", op, se.Msg))
	default:
		return apperrors.Network(op, err)
	}
}

// Compile-time check
var _ outbound.PaymentProviderPort = (*Provider)(nil)
