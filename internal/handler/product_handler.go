package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/service"
	"github.com/nickscoggins/kroger-grocery-price-index/pkg/response"
)

// ProductHandler handles HTTP requests for the product catalog
type ProductHandler struct {
	productService *service.ProductService
}

// NewProductHandler creates a new product handler
func NewProductHandler(productService *service.ProductService) *ProductHandler {
	return &ProductHandler{
		productService: productService,
	}
}

// GetProducts handles GET /api/v1/products
func (h *ProductHandler) GetProducts(c *gin.Context) {
	result, err := h.productService.GetProducts()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, result)
}

// GetProductByUPC handles GET /api/v1/products/:upc
func (h *ProductHandler) GetProductByUPC(c *gin.Context) {
	product, err := h.productService.GetProductByUPC(c.Param("upc"))
	if err != nil {
		response.NotFound(c, "Product not found")
		return
	}

	response.Success(c, product)
}

// GetCoverage handles GET /api/v1/products/:upc/coverage
func (h *ProductHandler) GetCoverage(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "30")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	dates, err := h.productService.CoverageDates(c.Param("upc"), limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"upc":   c.Param("upc"),
		"dates": dates,
		"count": len(dates),
	})
}

// RegisterProduct handles POST /api/v1/admin/products
func (h *ProductHandler) RegisterProduct(c *gin.Context) {
	var product models.Product
	if err := c.ShouldBindJSON(&product); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.productService.RegisterProduct(product); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	response.Created(c, gin.H{"upc": product.UPC})
}

// SetTracked handles PATCH /api/v1/admin/products/:upc/tracking
func (h *ProductHandler) SetTracked(c *gin.Context) {
	var body struct {
		Tracked *bool `json:"tracked" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid request body: tracked is required")
		return
	}

	if err := h.productService.SetTracked(c.Param("upc"), *body.Tracked); err != nil {
		if strings.Contains(err.Error(), "not found") {
			response.NotFound(c, "Product not found")
			return
		}
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"upc":     c.Param("upc"),
		"tracked": *body.Tracked,
	})
}
