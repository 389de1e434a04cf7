package mapview

import (
	"github.com/nickscoggins/kroger-grocery-price-index/internal/cluster"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/colorscale"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/pricestats"
)

// Builder composes partitions, statistics and colors into render frames.
type Builder struct {
	scale colorscale.Scale
}

// NewBuilder returns a Builder over the given color scale.
func NewBuilder(scale colorscale.Scale) *Builder {
	return &Builder{scale: scale}
}

// Scale exposes the builder's color scale.
func (b *Builder) Scale() colorscale.Scale {
	return b.scale
}

// BuildFrame computes one complete frame for a store set and camera. Stores
// without geometry are dropped before any spatial or statistical work;
// stores without a value render neutral but still count as members. The
// same stores, camera and scale always produce a byte-identical frame.
func (b *Builder) BuildFrame(stores []models.StorePoint, view models.ViewState) *models.MapFrame {
	visible := withGeometry(stores)
	rng := pricestats.RangeOf(visible)
	stats := pricestats.Compute(visible)
	part := cluster.Classify(visible, view.Zoom)

	frame := &models.MapFrame{
		Viewport: view,
		Range:    rng,
		Stats:    stats,
		Total:    len(visible),
		Clusters: make([]models.ClusterMarker, 0, len(part.Clusters)),
		Points:   make([]models.PointMarker, 0, len(part.Individuals)),
	}
	if part.Clustered() {
		frame.Mode = models.RenderModeClustered
		for _, c := range part.Clusters {
			frame.Clusters = append(frame.Clusters, b.clusterMarker(c, rng))
		}
	} else {
		frame.Mode = models.RenderModeIndividual
		for _, s := range part.Individuals {
			frame.Points = append(frame.Points, b.pointMarker(s, rng))
		}
	}
	frame.Gradient = b.gradient(stats, rng)
	return frame
}

func (b *Builder) clusterMarker(c models.Cluster, rng models.ValueRange) models.ClusterMarker {
	v := c.MeanEffectiveValue()
	if v != nil {
		r := pricestats.Round2(*v)
		v = &r
	}
	m := models.ClusterMarker{
		Centroid: c.Centroid,
		Count:    c.Size(),
		Value:    v,
		Color:    b.scale.ColorFor(v, rng),
		Stores:   make([]models.ClusterMember, 0, c.Size()),
	}
	for _, s := range c.Stores {
		m.Stores = append(m.Stores, models.ClusterMember{
			ID:    s.ID,
			Name:  s.Name,
			Value: s.EffectiveValue(),
		})
	}
	return m
}

func (b *Builder) pointMarker(s models.StorePoint, rng models.ValueRange) models.PointMarker {
	v := s.EffectiveValue()
	return models.PointMarker{
		ID:    s.ID,
		Name:  s.Name,
		Chain: s.Chain,
		City:  s.City,
		State: s.State,
		Lat:   *s.Latitude,
		Lng:   *s.Longitude,
		Value: v,
		Color: b.scale.ColorFor(v, rng),
	}
}

// gradient builds the legend. Endpoint colors are always present; ticks
// mirror the stats distribution, projected onto the scale.
func (b *Builder) gradient(stats *models.PriceStats, rng models.ValueRange) *models.GradientBar {
	bar := &models.GradientBar{
		LowHex:     b.scale.LowHex(),
		HighHex:    b.scale.HighHex(),
		NeutralHex: b.scale.NeutralHex(),
	}
	if stats == nil {
		return bar
	}
	bar.Ticks = make([]models.GradientTick, 0, len(stats.Distribution))
	for _, bucket := range stats.Distribution {
		bar.Ticks = append(bar.Ticks, models.GradientTick{
			Value: bucket.Value,
			Count: bucket.Count,
			T:     b.scale.Position(bucket.Value, rng),
		})
	}
	return bar
}

func withGeometry(stores []models.StorePoint) []models.StorePoint {
	out := make([]models.StorePoint, 0, len(stores))
	for _, s := range stores {
		if s.HasGeometry() {
			out = append(out, s)
		}
	}
	return out
}
