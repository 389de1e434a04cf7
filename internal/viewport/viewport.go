package viewport

import "github.com/nickscoggins/kroger-grocery-price-index/internal/models"

// Camera bounds and initial state. The default center is the geographic
// center of the continental US.
const (
	MinZoom     = 0
	MaxZoom     = 13
	DefaultZoom = 4

	DefaultCenterLat = 39.8283
	DefaultCenterLng = -98.5795
)

// ClusterZoomStep is how far the camera dives when a cluster is activated.
const ClusterZoomStep = 2

// DefaultView returns the initial camera state.
func DefaultView() models.ViewState {
	return models.ViewState{
		Zoom:   DefaultZoom,
		Center: models.LatLng{Lat: DefaultCenterLat, Lng: DefaultCenterLng},
	}
}

// Controller tracks the camera for one session. It is not safe for
// concurrent use; the owning session serializes access.
type Controller struct {
	state models.ViewState
}

// NewController starts at the default view.
func NewController() *Controller {
	return &Controller{state: DefaultView()}
}

// State returns the current camera.
func (c *Controller) State() models.ViewState {
	return c.state
}

// SetZoom moves the camera to the given zoom, clamped to the camera bounds.
func (c *Controller) SetZoom(zoom int) {
	c.state.Zoom = clampZoom(zoom)
}

// SetCenter moves the camera center.
func (c *Controller) SetCenter(center models.LatLng) {
	c.state.Center = center
}

// SetView replaces both zoom and center in one step.
func (c *Controller) SetView(zoom int, center models.LatLng) {
	c.SetZoom(zoom)
	c.SetCenter(center)
}

// ActivateCluster recenters on the cluster centroid and zooms in two steps,
// never past MaxZoom. Activating a cluster at the zoom ceiling only pans.
func (c *Controller) ActivateCluster(centroid models.LatLng) {
	c.state.Center = centroid
	c.state.Zoom = clampZoom(c.state.Zoom + ClusterZoomStep)
}

// Reset restores the default view.
func (c *Controller) Reset() {
	c.state = DefaultView()
}

func clampZoom(zoom int) int {
	if zoom < MinZoom {
		return MinZoom
	}
	if zoom > MaxZoom {
		return MaxZoom
	}
	return zoom
}
