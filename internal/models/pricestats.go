package models

// ValueRange is the observed min and max of the effective values currently
// on the map. Both pointers are nil when no store carries a value.
type ValueRange struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// IsEmpty reports whether no value was observed at all.
func (r ValueRange) IsEmpty() bool {
	return r.Min == nil || r.Max == nil
}

// Degenerate reports whether every observed value is identical, in which
// case the color scale falls back to the neutral swatch.
func (r ValueRange) Degenerate() bool {
	return !r.IsEmpty() && *r.Min == *r.Max
}

// PriceStats summarizes the effective values of the stores in scope. All
// figures derive from values rounded to two decimals, so ties and bucket
// identities are stable across recomputations.
type PriceStats struct {
	Min          float64       `json:"min"`
	Median       float64       `json:"median"`
	Mean         float64       `json:"mean"`
	Max          float64       `json:"max"`
	Count        int           `json:"count"`
	Distribution []ValueBucket `json:"distribution"`
}

// ValueBucket is one distinct rounded value and its frequency. Buckets are
// emitted in ascending value order.
type ValueBucket struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
}
