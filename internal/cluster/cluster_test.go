package cluster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

func store(id string, lat, lng float64) models.StorePoint {
	return models.StorePoint{ID: id, Latitude: &lat, Longitude: &lng}
}

func TestCellSizeForZoom(t *testing.T) {
	tests := []struct {
		zoom int
		want float64
	}{
		{0, 6.0},
		{3, 6.0},
		{4, 6.0},
		{5, 3.5},
		{7, 3.5},
		{8, 1.5},
		{10, 1.5},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CellSizeForZoom(tt.zoom), "zoom %d", tt.zoom)
	}
}

func TestCellKeyFormat(t *testing.T) {
	// 40.71/6 rounds to 7 cells -> 42.00; -74.01/6 rounds to -12 -> -72.00.
	assert.Equal(t, "42.00,-72.00", CellKey(40.71, -74.01, 6.0))
	assert.Equal(t, "40.50,-73.50", CellKey(40.70, -74.00, 1.5))
	assert.Equal(t, "94.50,0.00", CellKey(94.6, 1.2, 3.5))
}

func TestCellKeyZeroBoundary(t *testing.T) {
	// Coordinates just west and just east of the prime meridian snap to the
	// same cell and must share a key.
	assert.Equal(t, CellKey(40.70, 1.0, 6.0), CellKey(40.70, -1.0, 6.0))
	assert.NotContains(t, CellKey(40.70, -1.0, 6.0), "-0.00")
}

func TestClassifyIndividualAtThreshold(t *testing.T) {
	stores := []models.StorePoint{
		store("a", 40.70, -74.00),
		store("b", 40.71, -74.01),
	}

	p := Classify(stores, IndividualZoomThreshold)
	assert.False(t, p.Clustered())
	assert.Len(t, p.Individuals, 2)
	assert.Empty(t, p.Clusters)

	p = Classify(stores, 13)
	assert.Len(t, p.Individuals, 2)
}

func TestClassifyClusteredBelowThreshold(t *testing.T) {
	stores := []models.StorePoint{
		store("a", 40.70, -74.00),
		store("b", 40.71, -74.01),
	}

	p := Classify(stores, IndividualZoomThreshold-1)
	assert.True(t, p.Clustered())
	assert.Nil(t, p.Individuals)
}

func TestClassifyMergesNearbyStoresAtLowZoom(t *testing.T) {
	stores := []models.StorePoint{
		store("a", 40.70, -74.00),
		store("b", 40.71, -74.01),
	}

	p := Classify(stores, 3)
	require.Len(t, p.Clusters, 1)

	c := p.Clusters[0]
	assert.Equal(t, 2, c.Size())
	assert.Equal(t, "a", c.Stores[0].ID)
	assert.Equal(t, "b", c.Stores[1].ID)
	assert.InDelta(t, 40.705, c.Centroid.Lat, 1e-9)
	assert.InDelta(t, -74.005, c.Centroid.Lng, 1e-9)
}

func TestClassifySplitsAtHigherZoom(t *testing.T) {
	// 40.70 and 41.60 sit in different 1.5 degree rows but share a 6 degree
	// cell, so the pair merges at zoom 3 and splits at zoom 9.
	stores := []models.StorePoint{
		store("a", 40.70, -74.00),
		store("b", 41.60, -74.00),
	}

	low := Classify(stores, 3)
	require.Len(t, low.Clusters, 1)

	high := Classify(stores, 9)
	require.Len(t, high.Clusters, 2)
	assert.Equal(t, 1, high.Clusters[0].Size())
	assert.Equal(t, 1, high.Clusters[1].Size())
}

func TestClassifyDiscoveryOrder(t *testing.T) {
	// a and c share a cell; b sits far away. The a cell is discovered first
	// and keeps position 0 with members in input order.
	stores := []models.StorePoint{
		store("a", 40.70, -74.00),
		store("b", 34.05, -118.24),
		store("c", 40.71, -74.01),
	}

	p := Classify(stores, 3)
	require.Len(t, p.Clusters, 2)
	assert.Equal(t, []string{"a", "c"}, memberIDs(p.Clusters[0]))
	assert.Equal(t, []string{"b"}, memberIDs(p.Clusters[1]))
}

func TestCentroidPermutationInvariant(t *testing.T) {
	// All four points share a 6 degree cell. Any feed order must converge on
	// the same running-mean centroid.
	perms := [][]models.StorePoint{
		{store("a", 40.70, -74.00), store("b", 40.71, -74.01), store("c", 40.90, -73.80), store("d", 41.10, -74.20)},
		{store("d", 41.10, -74.20), store("c", 40.90, -73.80), store("b", 40.71, -74.01), store("a", 40.70, -74.00)},
		{store("b", 40.71, -74.01), store("d", 41.10, -74.20), store("a", 40.70, -74.00), store("c", 40.90, -73.80)},
	}

	first := Classify(perms[0], 3)
	require.Len(t, first.Clusters, 1)
	for _, perm := range perms[1:] {
		p := Classify(perm, 3)
		require.Len(t, p.Clusters, 1)
		assert.InDelta(t, first.Clusters[0].Centroid.Lat, p.Clusters[0].Centroid.Lat, 1e-9)
		assert.InDelta(t, first.Clusters[0].Centroid.Lng, p.Clusters[0].Centroid.Lng, 1e-9)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	stores := []models.StorePoint{
		store("a", 40.70, -74.00),
		store("b", 34.05, -118.24),
		store("c", 41.88, -87.63),
		store("d", 40.71, -74.01),
	}

	first := Classify(stores, 4)
	for i := 0; i < 50; i++ {
		assert.Equal(t, first, Classify(stores, 4))
	}
}

func TestClassifySkipsStoresWithoutGeometry(t *testing.T) {
	lat := 40.70
	stores := []models.StorePoint{
		store("a", 40.70, -74.00),
		{ID: "no-geo"},
		{ID: "half-geo", Latitude: &lat},
	}

	p := Classify(stores, 3)
	require.Len(t, p.Clusters, 1)
	assert.Equal(t, []string{"a"}, memberIDs(p.Clusters[0]))

	p = Classify(stores, 12)
	require.Len(t, p.Individuals, 1)
	assert.Equal(t, "a", p.Individuals[0].ID)
}

func TestClassifyEmptyInput(t *testing.T) {
	p := Classify(nil, 3)
	assert.True(t, p.Clustered())
	assert.Empty(t, p.Clusters)

	p = Classify(nil, 12)
	assert.NotNil(t, p.Individuals)
	assert.Empty(t, p.Individuals)
}

func memberIDs(c models.Cluster) []string {
	ids := make([]string, 0, len(c.Stores))
	for _, s := range c.Stores {
		ids = append(ids, s.ID)
	}
	return ids
}
