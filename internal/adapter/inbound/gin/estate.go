package gin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estateflow/server/internal/domain/estate"
	"github.com/estateflow/server/internal/model"
	"github.com/estateflow/server/internal/port/inbound"
)

// estateAdapter implements inbound.EstateHttpPort.
type estateAdapter struct {
	domain estate.EstateDomain
}

// NewEstateAdapter creates a new estate HTTP adapter.
func NewEstateAdapter(domain estate.EstateDomain) inbound.EstateHttpPort {
	return &estateAdapter{domain: domain}
}

// RegisterEstateRoutes registers estate routes.
func RegisterEstateRoutes(r *gin.RouterGroup, adapter inbound.EstateHttpPort, guards Guards) {
	estates := r.Group("/estates")
	{
		estates.POST("", guards.mutate(adapter.CreateEstate)...)
		estates.GET("/:id", adapter.GetEstate)
	}
}

func (a *estateAdapter) CreateEstate(c *gin.Context) {
	var req model.CreateEstateRequest
	if !bindJSON(c, &req) {
		return
	}

	e, err := a.domain.CreateEstate(c.Request.Context(), &req)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, e)
}

func (a *estateAdapter) GetEstate(c *gin.Context) {
	e, err := a.domain.GetEstate(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, e)
}

// Compile-time check
var _ inbound.EstateHttpPort = (*estateAdapter)(nil)
