package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/repository"
)

// ProductService handles business logic for the tracked product catalog
type ProductService struct {
	productRepo *repository.ProductRepository
	priceRepo   *repository.PriceRepository
}

// NewProductService creates a new product service
func NewProductService(productRepo *repository.ProductRepository, priceRepo *repository.PriceRepository) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		priceRepo:   priceRepo,
	}
}

// GetProducts retrieves all products with their observation coverage
func (s *ProductService) GetProducts() (*models.ProductsResponse, error) {
	products, total, err := s.productRepo.GetProducts()
	if err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}

	return &models.ProductsResponse{
		Data:  products,
		Total: total,
	}, nil
}

// GetProductByUPC retrieves a single product
func (s *ProductService) GetProductByUPC(upc string) (*models.Product, error) {
	product, err := s.productRepo.GetProductByUPC(upc)
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	if product == nil {
		return nil, fmt.Errorf("product not found")
	}
	return product, nil
}

// RegisterProduct adds or updates a product in the catalog. New products
// start tracked so the next harvest picks them up.
func (s *ProductService) RegisterProduct(p models.Product) error {
	if p.UPC == "" {
		return fmt.Errorf("upc is required")
	}
	if p.Description == "" {
		return fmt.Errorf("description is required")
	}

	p.IsTracked = true
	if err := s.productRepo.UpsertProduct(p); err != nil {
		return fmt.Errorf("failed to register product: %w", err)
	}
	return nil
}

// SetTracked enables or disables harvesting for a product
func (s *ProductService) SetTracked(upc string, tracked bool) error {
	err := s.productRepo.SetTracked(upc, tracked)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("product not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update tracking: %w", err)
	}
	return nil
}

// GetHistory retrieves the observation history for one store and product,
// most recent first
func (s *ProductService) GetHistory(locationID string, q models.PriceHistoryQuery) (*models.PriceHistoryResponse, error) {
	if q.UPC == "" {
		return nil, fmt.Errorf("upc is required")
	}

	rows, err := s.priceRepo.History(locationID, q)
	if err != nil {
		return nil, fmt.Errorf("failed to get price history: %w", err)
	}

	return &models.PriceHistoryResponse{
		LocationID: locationID,
		UPC:        q.UPC,
		Rows:       rows,
		Total:      len(rows),
	}, nil
}

// CoverageDates lists the distinct observation dates for a product, most
// recent first
func (s *ProductService) CoverageDates(upc string, limit int) ([]string, error) {
	if upc == "" {
		return nil, fmt.Errorf("upc is required")
	}
	if limit < 1 {
		limit = 30
	}
	if limit > 365 {
		limit = 365
	}

	dates, err := s.priceRepo.CoverageDates(upc, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get coverage dates: %w", err)
	}
	return dates, nil
}
