package inbound

import "github.com/gin-gonic/gin"

// PaymentHttpPort defines HTTP handler interface for payment operations.
type PaymentHttpPort interface {
	// CreatePaymentIntent handles POST /payment/create-intent
	// Creates a Stripe PaymentIntent for an estate.
	CreatePaymentIntent(c *gin.Context)

	// GetPaymentStatus handles GET /payment/:id/status
	// Returns the current status, amount and receipt URL of a payment intent.
	GetPaymentStatus(c *gin.Context)
}

// WebhookHttpPort defines HTTP handler interface for processor webhooks.
type WebhookHttpPort interface {
	// HandleStripeWebhook handles POST /payment/webhook
	// Verifies the Stripe-Signature header and applies the event.
	HandleStripeWebhook(c *gin.Context)
}
