package inbound

import "github.com/gin-gonic/gin"

// EstateHttpPort defines HTTP handler interface for estates.
type EstateHttpPort interface {
	// CreateEstate handles POST /estates
	CreateEstate(c *gin.Context)

	// GetEstate handles GET /estates/:id
	GetEstate(c *gin.Context)
}

// TransactionHttpPort defines HTTP handler interface for transactions and
// subscription cancellations.
type TransactionHttpPort interface {
	// ListTransactions handles GET /transactions/:estate_id
	ListTransactions(c *gin.Context)

	// ReplaceTransactions handles PUT /transactions/:estate_id
	ReplaceTransactions(c *gin.Context)

	// RequestCancellation handles POST /transaction/cancel
	// Generates the cancellation letter or email and records it as pending.
	RequestCancellation(c *gin.Context)

	// GetCancellation handles GET /cancellations/:estate_id/:transaction_id
	GetCancellation(c *gin.Context)

	// UpdateCancellationStatus handles POST /cancellations/:estate_id/:transaction_id/status
	UpdateCancellationStatus(c *gin.Context)
}
