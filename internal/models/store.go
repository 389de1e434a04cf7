package models

import "time"

// LatLng is a WGS84 coordinate pair.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// StorePoint represents a store location with an optional price quote attached
// for the currently selected product. Stores are supplied fresh to the map
// pipeline on every recomputation; nothing downstream mutates them.
type StorePoint struct {
	ID       string `json:"location_id" db:"location_id"`
	Name     string `json:"name" db:"name"`
	Chain    string `json:"chain,omitempty" db:"chain"`
	Address  string `json:"address,omitempty" db:"address"`
	City     string `json:"city,omitempty" db:"city"`
	State    string `json:"state,omitempty" db:"state"`
	ZipCode  string `json:"zip_code,omitempty" db:"zip_code"`
	Region   string `json:"region,omitempty" db:"region"`
	Division string `json:"division,omitempty" db:"division"`

	// Nullable on purpose: stores without a geocode are excluded from all
	// spatial computation but still appear in plain listings.
	Latitude  *float64 `json:"latitude" db:"latitude"`
	Longitude *float64 `json:"longitude" db:"longitude"`

	IsActive bool `json:"is_active" db:"is_active"`

	// Quote carries the latest observation for the selected product, joined
	// in by the price layer. Nil when no product is selected or the store
	// has no row for it.
	Quote *PriceQuote `json:"quote,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// HasGeometry reports whether the store can participate in spatial
// computation (both coordinates present).
func (s StorePoint) HasGeometry() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// EffectiveValue returns the promo price when present, else the regular
// price, else nil. The same precedence rule feeds both the color scale and
// the price statistics.
func (s StorePoint) EffectiveValue() *float64 {
	if s.Quote == nil {
		return nil
	}
	if s.Quote.Promo != nil {
		return s.Quote.Promo
	}
	return s.Quote.Regular
}

// StoresResponse represents a paginated store listing.
type StoresResponse struct {
	Data       []StorePoint `json:"data"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"pageSize"`
	TotalPages int          `json:"totalPages"`
}

// NearbyStore is a store plus its distance from a query point.
type NearbyStore struct {
	StorePoint
	DistanceKm float64 `json:"distance_km"`
}

// FilterOptions lists the distinct attribute values available for the
// renderer's filter selectors.
type FilterOptions struct {
	Regions   []string `json:"regions"`
	Divisions []string `json:"divisions"`
	States    []string `json:"states"`
	Chains    []string `json:"chains"`
}
