package gin

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/estateflow/server/internal/domain/payment"
	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/inbound"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// maxWebhookBody caps the webhook payload read into memory.
const maxWebhookBody = 64 << 10

// paymentAdapter implements inbound.PaymentHttpPort.
type paymentAdapter struct {
	domain payment.PaymentDomain
}

// NewPaymentAdapter creates a new payment HTTP adapter.
func NewPaymentAdapter(domain payment.PaymentDomain) inbound.PaymentHttpPort {
	return &paymentAdapter{domain: domain}
}

// RegisterPaymentRoutes registers payment routes.
func RegisterPaymentRoutes(r *gin.RouterGroup, adapter inbound.PaymentHttpPort, guards Guards) {
	payments := r.Group("/payment")
	{
		payments.POST("/create-intent", guards.mutate(adapter.CreatePaymentIntent)...)
		payments.GET("/:id/status", guards.status(adapter.GetPaymentStatus)...)
	}
}

func (a *paymentAdapter) CreatePaymentIntent(c *gin.Context) {
	var req model.CreatePaymentIntentRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := a.domain.CreatePaymentIntent(c.Request.Context(), strings.TrimSpace(req.EstateID))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a *paymentAdapter) GetPaymentStatus(c *gin.Context) {
	resp, err := a.domain.GetPaymentStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Compile-time check
var _ inbound.PaymentHttpPort = (*paymentAdapter)(nil)

// --- Webhook Adapter ---

// webhookAdapter implements inbound.WebhookHttpPort.
type webhookAdapter struct {
	domain payment.PaymentDomain
}

// NewWebhookAdapter creates a new webhook HTTP adapter.
func NewWebhookAdapter(domain payment.PaymentDomain) inbound.WebhookHttpPort {
	return &webhookAdapter{domain: domain}
}

// RegisterWebhookRoutes registers webhook routes.
func RegisterWebhookRoutes(r *gin.RouterGroup, adapter inbound.WebhookHttpPort) {
	r.POST("/payment/webhook", adapter.HandleStripeWebhook)
}

func (a *webhookAdapter) HandleStripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_PAYLOAD", "failed to read request body"))
		return
	}

	signature := c.GetHeader("Stripe-Signature")
	if signature == "" {
		c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_SIGNATURE", "missing Stripe-Signature header"))
		return
	}

	if err := a.domain.HandleWebhook(c.Request.Context(), payload, signature); err != nil {
		// Stripe only distinguishes 2xx from the rest; 400 stops retries for bad payloads.
		if apperrors.IsValidation(err) {
			c.JSON(http.StatusBadRequest, model.NewErrorResponse("INVALID_SIGNATURE", "webhook signature verification failed"))
			return
		}
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// Compile-time check
var _ inbound.WebhookHttpPort = (*webhookAdapter)(nil)
