package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/service"
	"github.com/nickscoggins/kroger-grocery-price-index/pkg/response"
)

// StoreHandler handles HTTP requests for store locations
type StoreHandler struct {
	storeService   *service.StoreService
	productService *service.ProductService
}

// NewStoreHandler creates a new store handler
func NewStoreHandler(storeService *service.StoreService, productService *service.ProductService) *StoreHandler {
	return &StoreHandler{
		storeService:   storeService,
		productService: productService,
	}
}

// GetStores handles GET /api/v1/stores
func (h *StoreHandler) GetStores(c *gin.Context) {
	var q models.StoreListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	result, err := h.storeService.GetStores(q)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetStoreByID handles GET /api/v1/stores/:id
func (h *StoreHandler) GetStoreByID(c *gin.Context) {
	store, err := h.storeService.GetStoreByID(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Store not found")
		return
	}

	response.Success(c, store)
}

// Nearby handles GET /api/v1/stores/nearby
func (h *StoreHandler) Nearby(c *gin.Context) {
	var q models.NearbyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	stores, err := h.storeService.Nearby(q)
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"data":  stores,
		"count": len(stores),
	})
}

// GetFilterOptions handles GET /api/v1/stores/filters
func (h *StoreHandler) GetFilterOptions(c *gin.Context) {
	options, err := h.storeService.GetFilterOptions()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, options)
}

// GetPriceHistory handles GET /api/v1/stores/:id/prices
func (h *StoreHandler) GetPriceHistory(c *gin.Context) {
	var q models.PriceHistoryQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}
	if q.UPC == "" {
		response.BadRequest(c, "upc is required")
		return
	}

	// The store must exist; an empty history for a real store is a valid
	// answer, a missing store is not.
	if _, err := h.storeService.GetStoreByID(c.Param("id")); err != nil {
		response.NotFound(c, "Store not found")
		return
	}

	history, err := h.productService.GetHistory(c.Param("id"), q)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, history)
}
