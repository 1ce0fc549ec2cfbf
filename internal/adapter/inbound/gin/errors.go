package gin

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estateflow/server/internal/model"
	apperrors "github.com/estateflow/server/internal/utils/errors"
)

// handleError maps domain errors to HTTP responses.
func handleError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, model.NewErrorResponse("INTERNAL_ERROR", "Internal server error"))
		return
	}

	resp := model.NewErrorResponse(appErr.Code, appErr.Message)
	if len(appErr.Details) > 0 {
		resp.Details = appErr.Details
	}
	if appErr.StatusCode >= http.StatusInternalServerError {
		// Keep the cause in the access log, not in the response.
		_ = c.Error(err)
		if appErr.Code == "INTERNAL_ERROR" {
			resp = model.NewErrorResponse(appErr.Code, "Internal server error")
		}
	}
	c.JSON(appErr.StatusCode, resp)
}

// bindJSON binds the request body and writes a validation error on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.JSON(http.StatusUnprocessableEntity, model.NewErrorResponse("VALIDATION_ERROR", err.Error()))
		return false
	}
	return true
}
