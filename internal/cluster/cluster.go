package cluster

import (
	"fmt"
	"math"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

// IndividualZoomThreshold is the zoom at which aggregation stops and every
// store renders as its own marker.
const IndividualZoomThreshold = 11

// Grid cell edge lengths in degrees per zoom band. Wider cells at lower
// zooms keep the marker count readable on a continent-scale view.
const (
	cellCoarse = 6.0
	cellMedium = 3.5
	cellFine   = 1.5
)

// CellSizeForZoom returns the grid edge in degrees for a clustered zoom.
func CellSizeForZoom(zoom int) float64 {
	switch {
	case zoom <= 4:
		return cellCoarse
	case zoom <= 7:
		return cellMedium
	default:
		return cellFine
	}
}

// snap rounds a coordinate to the nearest cell boundary. Negative zero is
// collapsed so both sides of a zero boundary share one key.
func snap(v, cell float64) float64 {
	s := math.Round(v/cell) * cell
	if s == 0 {
		return 0
	}
	return s
}

// CellKey returns the canonical identifier of the grid cell containing the
// coordinate at the given cell size. Stores whose snapped coordinates agree
// to two decimals share a cell.
func CellKey(lat, lng, cell float64) string {
	return fmt.Sprintf("%.2f,%.2f", snap(lat, cell), snap(lng, cell))
}

// Classify splits stores into grid clusters or individual markers depending
// on zoom. At IndividualZoomThreshold and above every store stands alone;
// below it stores sharing a grid cell collapse into one cluster. Cluster
// order follows cell discovery order and member order follows input order,
// so identical input always produces an identical partition.
func Classify(stores []models.StorePoint, zoom int) models.Partition {
	if zoom >= IndividualZoomThreshold {
		individuals := make([]models.StorePoint, 0, len(stores))
		for _, s := range stores {
			if !s.HasGeometry() {
				continue
			}
			individuals = append(individuals, s)
		}
		return models.Partition{Individuals: individuals}
	}
	return models.Partition{Clusters: clusterByCell(stores, CellSizeForZoom(zoom))}
}

func clusterByCell(stores []models.StorePoint, cell float64) []models.Cluster {
	index := make(map[string]int, len(stores))
	clusters := make([]models.Cluster, 0)
	for _, s := range stores {
		if !s.HasGeometry() {
			continue
		}
		key := CellKey(*s.Latitude, *s.Longitude, cell)
		i, ok := index[key]
		if !ok {
			i = len(clusters)
			index[key] = i
			clusters = append(clusters, models.Cluster{})
		}
		c := &clusters[i]
		c.Stores = append(c.Stores, s)

		// Running mean keeps the centroid exact without a second pass.
		n := float64(len(c.Stores))
		c.Centroid.Lat += (*s.Latitude - c.Centroid.Lat) / n
		c.Centroid.Lng += (*s.Longitude - c.Centroid.Lng) / n
	}
	return clusters
}
