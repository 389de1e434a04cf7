package models

import "strings"

// StoreFilter represents the attribute filters shared by store listings and
// the map pipeline. Empty fields match everything.
type StoreFilter struct {
	Region   string `form:"region" json:"region,omitempty"`
	Division string `form:"division" json:"division,omitempty"`
	State    string `form:"state" json:"state,omitempty"`
	Chain    string `form:"chain" json:"chain,omitempty"`
}

// IsZero reports whether no filter is active.
func (f StoreFilter) IsZero() bool {
	return f.Region == "" && f.Division == "" && f.State == "" && f.Chain == ""
}

// Match applies the filter to a store in memory. Used by the session layer,
// which filters its cached store set instead of re-querying.
func (f StoreFilter) Match(s StorePoint) bool {
	if f.Region != "" && !strings.EqualFold(f.Region, s.Region) {
		return false
	}
	if f.Division != "" && !strings.EqualFold(f.Division, s.Division) {
		return false
	}
	if f.State != "" && !strings.EqualFold(f.State, s.State) {
		return false
	}
	if f.Chain != "" && !strings.EqualFold(f.Chain, s.Chain) {
		return false
	}
	return true
}

// Key returns a stable composite used in frame memo keys.
func (f StoreFilter) Key() string {
	return strings.ToLower(f.Region) + "|" + strings.ToLower(f.Division) + "|" +
		strings.ToLower(f.State) + "|" + strings.ToLower(f.Chain)
}

// MapQuery represents the query parameters of a stateless frame request.
// Omitted camera parameters fall back to the default view.
type MapQuery struct {
	StoreFilter
	Zoom      int     `form:"zoom,default=4"`
	CenterLat float64 `form:"center_lat,default=39.8283"`
	CenterLng float64 `form:"center_lng,default=-98.5795"`
	UPC       string  `form:"upc"`
}

// StoreListQuery represents the query parameters of the store listing.
type StoreListQuery struct {
	StoreFilter
	ActiveOnly bool   `form:"active_only"`
	Search     string `form:"search"`
	Page       int    `form:"page"`
	PageSize   int    `form:"pageSize"`
}

// NearbyQuery represents a radius search around a point.
type NearbyQuery struct {
	Lat      float64 `form:"lat"`
	Lng      float64 `form:"lng"`
	RadiusKm float64 `form:"radiusKm"`
	Limit    int     `form:"limit"`
}

// PriceHistoryQuery represents the query parameters of the price history
// endpoint.
type PriceHistoryQuery struct {
	UPC   string `form:"upc"`
	Days  int    `form:"days"`
	Limit int    `form:"limit"`
}

// ExportQuery represents the query parameters of the bulk price export.
type ExportQuery struct {
	UPC       string `form:"upc"`
	StartDate string `form:"startDate"`
	EndDate   string `form:"endDate"`
}
