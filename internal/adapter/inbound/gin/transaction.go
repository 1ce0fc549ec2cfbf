package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/estateflow/server/internal/domain/transaction"
	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/inbound"
)

// transactionAdapter implements inbound.TransactionHttpPort.
type transactionAdapter struct {
	domain transaction.TransactionDomain
}

// NewTransactionAdapter creates a new transaction HTTP adapter.
func NewTransactionAdapter(domain transaction.TransactionDomain) inbound.TransactionHttpPort {
	return &transactionAdapter{domain: domain}
}

// RegisterTransactionRoutes registers transaction and cancellation routes.
func RegisterTransactionRoutes(r *gin.RouterGroup, adapter inbound.TransactionHttpPort, guards Guards) {
	transactions := r.Group("/transactions")
	{
		transactions.GET("/:estate_id", adapter.ListTransactions)
		transactions.PUT("/:estate_id", guards.mutate(adapter.ReplaceTransactions)...)
	}

	r.POST("/transaction/cancel", guards.mutate(adapter.RequestCancellation)...)

	cancellations := r.Group("/cancellations/:estate_id/:transaction_id")
	{
		cancellations.GET("", guards.status(adapter.GetCancellation)...)
		cancellations.POST("/status", guards.mutate(adapter.UpdateCancellationStatus)...)
	}
}

func (a *transactionAdapter) ListTransactions(c *gin.Context) {
	list, err := a.domain.ListTransactions(c.Request.Context(), c.Param("estate_id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

func (a *transactionAdapter) ReplaceTransactions(c *gin.Context) {
	var req model.TransactionList
	if !bindJSON(c, &req) {
		return
	}

	list, err := a.domain.ReplaceTransactions(c.Request.Context(), c.Param("estate_id"), req.Transactions)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, list)
}

// cancelRequest accepts contact_info values of any JSON scalar type;
// customer numbers often arrive as numbers.
type cancelRequest struct {
	TransactionID      string                   `json:"transaction_id" binding:"required"`
	EstateID           string                   `json:"estate_id" binding:"required"`
	CancellationMethod model.CancellationMethod `json:"cancellation_method" binding:"required"`
	ContactInfo        map[string]any           `json:"contact_info"`
}

func (a *transactionAdapter) RequestCancellation(c *gin.Context) {
	var body cancelRequest
	if !bindJSON(c, &body) {
		return
	}

	req := &model.CancellationRequest{
		TransactionID:      body.TransactionID,
		EstateID:           body.EstateID,
		CancellationMethod: body.CancellationMethod,
		ContactInfo:        cast.ToStringMapString(body.ContactInfo),
	}

	artifact, err := a.domain.RequestCancellation(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, artifact)
}

func (a *transactionAdapter) GetCancellation(c *gin.Context) {
	resp, err := a.domain.GetCancellation(c.Request.Context(), c.Param("estate_id"), c.Param("transaction_id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (a *transactionAdapter) UpdateCancellationStatus(c *gin.Context) {
	var req model.UpdateCancellationStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := a.domain.UpdateCancellationStatus(c.Request.Context(), c.Param("estate_id"), c.Param("transaction_id"), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Compile-time check
var _ inbound.TransactionHttpPort = (*transactionAdapter)(nil)
