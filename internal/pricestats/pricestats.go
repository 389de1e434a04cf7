package pricestats

import (
	"math"
	"sort"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Collect pulls the effective values out of a store slice, skipping stores
// without one.
func Collect(stores []models.StorePoint) []float64 {
	vals := make([]float64, 0, len(stores))
	for _, s := range stores {
		if v := s.EffectiveValue(); v != nil {
			vals = append(vals, *v)
		}
	}
	return vals
}

// RangeOf returns the raw min and max of the effective values in the slice.
// The color scale normalizes against this range.
func RangeOf(stores []models.StorePoint) models.ValueRange {
	var rng models.ValueRange
	for _, s := range stores {
		v := s.EffectiveValue()
		if v == nil {
			continue
		}
		if rng.Min == nil || *v < *rng.Min {
			min := *v
			rng.Min = &min
		}
		if rng.Max == nil || *v > *rng.Max {
			max := *v
			rng.Max = &max
		}
	}
	return rng
}

// Compute summarizes the effective values of the given stores. Returns nil
// when no store carries a value, which the frame builder renders as an
// absent panel rather than a row of zeros.
func Compute(stores []models.StorePoint) *models.PriceStats {
	return FromValues(Collect(stores))
}

// FromValues summarizes a raw value slice. Values are rounded to two
// decimals before aggregation so ties and bucket identities stay stable
// across recomputations.
func FromValues(values []float64) *models.PriceStats {
	if len(values) == 0 {
		return nil
	}
	rounded := make([]float64, len(values))
	for i, v := range values {
		rounded[i] = Round2(v)
	}
	sort.Float64s(rounded)

	n := len(rounded)
	var sum float64
	for _, v := range rounded {
		sum += v
	}
	var median float64
	if n%2 == 1 {
		median = rounded[n/2]
	} else {
		median = (rounded[n/2-1] + rounded[n/2]) / 2
	}

	stats := &models.PriceStats{
		Min:    rounded[0],
		Median: Round2(median),
		Mean:   Round2(sum / float64(n)),
		Max:    rounded[n-1],
		Count:  n,
	}
	// The slice is sorted, so one pass yields ascending buckets.
	for _, v := range rounded {
		if k := len(stats.Distribution); k > 0 && stats.Distribution[k-1].Value == v {
			stats.Distribution[k-1].Count++
			continue
		}
		stats.Distribution = append(stats.Distribution, models.ValueBucket{Value: v, Count: 1})
	}
	return stats
}
