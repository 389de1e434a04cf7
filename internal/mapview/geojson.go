package mapview

import (
	geojson "github.com/paulmach/go.geojson"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
)

// FrameGeoJSON renders a frame as a point FeatureCollection for tooling
// that consumes GeoJSON instead of the native frame format. Cluster markers
// become centroid features, individual markers become store features.
func FrameGeoJSON(frame *models.MapFrame) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, c := range frame.Clusters {
		f := geojson.NewPointFeature([]float64{c.Centroid.Lng, c.Centroid.Lat})
		f.SetProperty("kind", "cluster")
		f.SetProperty("count", c.Count)
		f.SetProperty("color", c.Color.Hex)
		if c.Value != nil {
			f.SetProperty("value", *c.Value)
		}
		fc.AddFeature(f)
	}
	for _, p := range frame.Points {
		f := geojson.NewPointFeature([]float64{p.Lng, p.Lat})
		f.SetProperty("kind", "store")
		f.SetProperty("location_id", p.ID)
		f.SetProperty("name", p.Name)
		f.SetProperty("color", p.Color.Hex)
		if p.Value != nil {
			f.SetProperty("value", *p.Value)
		}
		fc.AddFeature(f)
	}
	return fc
}
