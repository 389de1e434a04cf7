package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/service"
	"github.com/nickscoggins/kroger-grocery-price-index/pkg/response"
)

// ExportHandler streams bulk price data out of the API
type ExportHandler struct {
	exportService *service.ExportService
}

// NewExportHandler creates a new export handler
func NewExportHandler(exportService *service.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
	}
}

// ExportPrices handles GET /api/v1/export/prices. The body is
// zstd-compressed NDJSON, one observation per line.
func (h *ExportHandler) ExportPrices(c *gin.Context) {
	var q models.ExportQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	c.Header("Content-Type", "application/zstd")
	c.Header("Content-Disposition", `attachment; filename="`+h.exportService.Filename(q)+`"`)

	if _, err := h.exportService.WritePrices(c.Writer, q); err != nil {
		// Headers are already sent; all we can do is cut the stream short.
		_ = c.Error(err)
		c.Abort()
	}
}
