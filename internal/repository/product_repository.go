package repository

import (
	"database/sql"
	"fmt"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

// ProductRepository handles database operations for tracked products
type ProductRepository struct {
	db *sql.DB
}

// NewProductRepository creates a new product repository
func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// GetProducts retrieves all products with observation coverage counters
func (r *ProductRepository) GetProducts() ([]models.ProductSummary, int64, error) {
	query := `SELECT p.upc, p.description, p.brand, p.category, p.size, p.is_tracked,
			p.created_at, p.updated_at,
			COUNT(DISTINCT d.location_id) AS store_count,
			COUNT(d.upc) AS observations,
			COALESCE(MAX(d.price_date), '') AS latest_date
		FROM products p
		LEFT JOIN daily_prices d ON d.upc = p.upc
		GROUP BY p.upc
		ORDER BY p.description`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var products []models.ProductSummary
	for rows.Next() {
		var p models.ProductSummary
		var brand, category, size sql.NullString
		err := rows.Scan(
			&p.UPC, &p.Description, &brand, &category, &size, &p.IsTracked,
			&p.CreatedAt, &p.UpdatedAt,
			&p.StoreCount, &p.Observation, &p.LatestDate,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan product: %w", err)
		}
		p.Brand = brand.String
		p.Category = category.String
		p.Size = size.String
		products = append(products, p)
	}

	return products, int64(len(products)), nil
}

// GetProductByUPC retrieves a single product
func (r *ProductRepository) GetProductByUPC(upc string) (*models.Product, error) {
	query := `SELECT upc, description, brand, category, size, is_tracked, created_at, updated_at
		FROM products WHERE upc = ?`

	var p models.Product
	var brand, category, size sql.NullString
	err := r.db.QueryRow(query, upc).Scan(
		&p.UPC, &p.Description, &brand, &category, &size, &p.IsTracked,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	p.Brand = brand.String
	p.Category = category.String
	p.Size = size.String
	return &p, nil
}

// GetTrackedProducts retrieves the products the harvester collects prices
// for, in UPC order.
func (r *ProductRepository) GetTrackedProducts() ([]models.Product, error) {
	query := `SELECT upc, description, brand, category, size, is_tracked, created_at, updated_at
		FROM products WHERE is_tracked = 1 ORDER BY upc`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracked products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		var brand, category, size sql.NullString
		err := rows.Scan(
			&p.UPC, &p.Description, &brand, &category, &size, &p.IsTracked,
			&p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan tracked product: %w", err)
		}
		p.Brand = brand.String
		p.Category = category.String
		p.Size = size.String
		products = append(products, p)
	}

	return products, nil
}

// UpsertProduct inserts or refreshes a product's catalog fields. Tracking
// state is preserved on update.
func (r *ProductRepository) UpsertProduct(p models.Product) error {
	query := `INSERT INTO products (upc, description, brand, category, size, is_tracked)
		VALUES (?, ?, ?, ?, ?, 1)
		ON CONFLICT(upc) DO UPDATE SET
			description = excluded.description,
			brand = excluded.brand,
			category = excluded.category,
			size = excluded.size,
			updated_at = datetime('now')`

	if _, err := r.db.Exec(query, p.UPC, p.Description, p.Brand, p.Category, p.Size); err != nil {
		return fmt.Errorf("failed to upsert product %s: %w", p.UPC, err)
	}
	return nil
}

// SetTracked switches a product in or out of the harvest set
func (r *ProductRepository) SetTracked(upc string, tracked bool) error {
	result, err := r.db.Exec(
		"UPDATE products SET is_tracked = ?, updated_at = datetime('now') WHERE upc = ?",
		tracked, upc,
	)
	if err != nil {
		return fmt.Errorf("failed to update tracking for %s: %w", upc, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
