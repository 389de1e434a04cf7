package models

import "time"

// Product is a tracked catalog item, keyed by UPC.
type Product struct {
	UPC         string    `json:"upc" db:"upc"`
	Description string    `json:"description" db:"description"`
	Brand       string    `json:"brand,omitempty" db:"brand"`
	Category    string    `json:"category,omitempty" db:"category"`
	Size        string    `json:"size,omitempty" db:"size"`
	IsTracked   bool      `json:"is_tracked" db:"is_tracked"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// ProductsResponse represents a product listing with observation counts.
type ProductsResponse struct {
	Data  []ProductSummary `json:"data"`
	Total int64            `json:"total"`
}

// ProductSummary is a product plus coverage counters used by the product
// selector in the renderer.
type ProductSummary struct {
	Product
	StoreCount  int64  `json:"store_count"`
	LatestDate  string `json:"latest_date,omitempty"`
	Observation int64  `json:"observations"`
}
