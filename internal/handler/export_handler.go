package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/estudai/smart-plan-api/internal/dto"
	"github.com/estudai/smart-plan-api/internal/service"
	appErrors "github.com/estudai/smart-plan-api/pkg/errors"
	"github.com/estudai/smart-plan-api/pkg/response"
)

type planExporter interface {
	Render(ctx context.Context, userID, planID string, format service.ExportFormat) (*service.ExportResult, error)
}

// ExportHandler streams plan exports.
type ExportHandler struct {
	exports planExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(exports planExporter) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Export godoc
// @Summary Download a plan as CSV or PDF
// @Tags Plans
// @Produce octet-stream
// @Param id path string true "Plan ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /plans/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export query"))
		return
	}
	format := service.ExportFormatCSV
	if query.Format == "pdf" {
		format = service.ExportFormatPDF
	}

	result, err := h.exports.Render(c.Request.Context(), claims.UserID, c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
