package models

import "time"

// PriceQuote is the latest observed price pair for one store and product.
// Promo is nil when no promotion was in effect at observation time.
type PriceQuote struct {
	Regular   *float64  `json:"regular" db:"regular_price"`
	Promo     *float64  `json:"promo" db:"promo_price"`
	PriceDate string    `json:"price_date" db:"price_date"`
	FetchedAt time.Time `json:"fetched_at" db:"fetched_at"`
}

// PriceRow is one observation in the daily price history table.
type PriceRow struct {
	LocationID   string    `json:"location_id" db:"location_id"`
	UPC          string    `json:"upc" db:"upc"`
	PriceDate    string    `json:"price_date" db:"price_date"`
	RegularPrice *float64  `json:"regular_price" db:"regular_price"`
	PromoPrice   *float64  `json:"promo_price" db:"promo_price"`
	FetchedAt    time.Time `json:"fetched_at" db:"fetched_at"`
}

// EffectiveValue applies the promo-over-regular precedence to a raw history
// row.
func (r PriceRow) EffectiveValue() *float64 {
	if r.PromoPrice != nil {
		return r.PromoPrice
	}
	return r.RegularPrice
}

// PriceHistoryResponse represents the observation history for one store and
// product, most recent first.
type PriceHistoryResponse struct {
	LocationID string     `json:"location_id"`
	UPC        string     `json:"upc"`
	Rows       []PriceRow `json:"rows"`
	Total      int        `json:"total"`
}
