package models

// Render modes for a map frame. The mode is decided purely by zoom, never by
// store count.
const (
	RenderModeClustered  = "clustered"
	RenderModeIndividual = "individual"
)

// ViewState is the camera: discrete zoom plus center coordinate.
type ViewState struct {
	Zoom   int    `json:"zoom"`
	Center LatLng `json:"center"`
}

// Swatch is a resolved marker color. T is the normalized position of the
// value inside the active range; Neutral marks the no-value fallback so the
// renderer can style it apart from the gradient.
type Swatch struct {
	Hex     string  `json:"hex"`
	T       float64 `json:"t"`
	Neutral bool    `json:"neutral,omitempty"`
}

// PointMarker is one individually rendered store.
type PointMarker struct {
	ID    string   `json:"location_id"`
	Name  string   `json:"name"`
	Chain string   `json:"chain,omitempty"`
	City  string   `json:"city,omitempty"`
	State string   `json:"state,omitempty"`
	Lat   float64  `json:"lat"`
	Lng   float64  `json:"lng"`
	Value *float64 `json:"value,omitempty"`
	Color Swatch   `json:"color"`
}

// ClusterMember is the popup line for one store inside a cluster marker.
type ClusterMember struct {
	ID    string   `json:"location_id"`
	Name  string   `json:"name"`
	Value *float64 `json:"value,omitempty"`
}

// ClusterMarker is one aggregate marker. Value is the mean effective value
// of the members that have one, and drives the marker color exactly like an
// individual store's value would.
type ClusterMarker struct {
	Centroid LatLng          `json:"centroid"`
	Count    int             `json:"count"`
	Value    *float64        `json:"value,omitempty"`
	Color    Swatch          `json:"color"`
	Stores   []ClusterMember `json:"stores"`
}

// GradientTick is one distribution bucket projected onto the gradient bar.
type GradientTick struct {
	Value float64 `json:"value"`
	Count int     `json:"count"`
	T     float64 `json:"t"`
}

// GradientBar describes the legend: endpoint colors plus the tick marks for
// every distinct observed value.
type GradientBar struct {
	LowHex     string         `json:"low_hex"`
	HighHex    string         `json:"high_hex"`
	NeutralHex string         `json:"neutral_hex"`
	Ticks      []GradientTick `json:"ticks"`
}

// MapFrame is one complete render instruction set for the current viewport,
// selection and filters. Recomputing a frame for identical inputs yields a
// byte-identical JSON document.
type MapFrame struct {
	Viewport ViewState       `json:"viewport"`
	Mode     string          `json:"mode"`
	Clusters []ClusterMarker `json:"clusters"`
	Points   []PointMarker   `json:"points"`
	Range    ValueRange      `json:"range"`
	Stats    *PriceStats     `json:"stats,omitempty"`
	Gradient *GradientBar    `json:"gradient,omitempty"`
	Total    int             `json:"total"`
}
