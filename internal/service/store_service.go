package service

import (
	"fmt"
	"math"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/repository"
)

// StoreService handles business logic for store locations
type StoreService struct {
	storeRepo *repository.StoreRepository
}

// NewStoreService creates a new store service
func NewStoreService(storeRepo *repository.StoreRepository) *StoreService {
	return &StoreService{
		storeRepo: storeRepo,
	}
}

// GetStores retrieves stores with filtering and pagination
func (s *StoreService) GetStores(q models.StoreListQuery) (*models.StoresResponse, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = 100
	}
	if q.PageSize > 1000 {
		q.PageSize = 1000
	}

	stores, total, err := s.storeRepo.GetStores(q)
	if err != nil {
		return nil, fmt.Errorf("failed to get stores: %w", err)
	}

	totalPages := int(math.Ceil(float64(total) / float64(q.PageSize)))

	return &models.StoresResponse{
		Data:       stores,
		Total:      total,
		Page:       q.Page,
		PageSize:   q.PageSize,
		TotalPages: totalPages,
	}, nil
}

// GetStoreByID retrieves a single store
func (s *StoreService) GetStoreByID(id string) (*models.StorePoint, error) {
	store, err := s.storeRepo.GetStoreByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to get store: %w", err)
	}
	if store == nil {
		return nil, fmt.Errorf("store not found")
	}
	return store, nil
}

// Nearby retrieves stores within a radius of a point, closest first
func (s *StoreService) Nearby(q models.NearbyQuery) ([]models.NearbyStore, error) {
	if q.Lat < -90 || q.Lat > 90 || q.Lng < -180 || q.Lng > 180 {
		return nil, fmt.Errorf("coordinates out of range")
	}

	stores, err := s.storeRepo.Nearby(q)
	if err != nil {
		return nil, fmt.Errorf("failed to search nearby stores: %w", err)
	}
	return stores, nil
}

// GetFilterOptions retrieves the distinct attribute values for filter
// selectors
func (s *StoreService) GetFilterOptions() (*models.FilterOptions, error) {
	options, err := s.storeRepo.GetFilterOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to get filter options: %w", err)
	}
	return options, nil
}
