package spatial

import (
	"math"

	"github.com/golang/geo/s2"
)

// Constants
const (
	EarthRadiusMeters = 6371000.0 // Earth's mean radius in meters
	EarthRadiusKm     = 6371.0    // Earth's mean radius in kilometers
)

// HaversineDistance calculates the great-circle distance between two points in meters
// using the Haversine formula
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// HaversineDistanceKm is HaversineDistance in kilometers.
func HaversineDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	return HaversineDistance(lat1, lon1, lat2, lon2) / 1000.0
}

// BoundingBox is a lat/lng rectangle used to prefilter radius queries in SQL
// before the exact distance check.
type BoundingBox struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundingBoxAround returns the box that fully contains the circle of the
// given radius around a point. Near the poles the longitude span degenerates
// and the box widens to the full range.
func BoundingBoxAround(lat, lng, radiusKm float64) BoundingBox {
	latDelta := radiusKm / 111.0 // ~111 km per degree of latitude

	cosLat := math.Cos(lat * math.Pi / 180)
	var lngDelta float64
	if cosLat < 1e-6 {
		lngDelta = 180
	} else {
		lngDelta = radiusKm / (111.0 * cosLat)
	}

	return BoundingBox{
		MinLat: lat - latDelta,
		MaxLat: lat + latDelta,
		MinLng: lng - lngDelta,
		MaxLng: lng + lngDelta,
	}
}
