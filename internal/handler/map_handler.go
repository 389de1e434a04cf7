package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/models"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/service"
	"github.com/nickscoggins/kroger-grocery-price-index/pkg/response"
)

// MapHandler handles the map session lifecycle and viewport events. Every
// event responds with the recomputed frame, so the renderer never needs a
// second round trip.
type MapHandler struct {
	mapService *service.MapService
}

// NewMapHandler creates a new map handler
func NewMapHandler(mapService *service.MapService) *MapHandler {
	return &MapHandler{
		mapService: mapService,
	}
}

type centerEvent struct {
	Lat *float64 `json:"lat" binding:"required"`
	Lng *float64 `json:"lng" binding:"required"`
}

// CreateSession handles POST /api/v1/map/sessions
func (h *MapHandler) CreateSession(c *gin.Context) {
	sess := h.mapService.CreateSession()

	frame, err := h.mapService.FrameForSession(sess.ID())
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Created(c, gin.H{
		"session_id": sess.ID(),
		"frame":      frame,
	})
}

// GetSession handles GET /api/v1/map/sessions/:sid
func (h *MapHandler) GetSession(c *gin.Context) {
	state, err := h.mapService.SessionState(c.Param("sid"))
	if err != nil {
		response.NotFound(c, "Session not found")
		return
	}

	response.Success(c, state)
}

// EndSession handles DELETE /api/v1/map/sessions/:sid
func (h *MapHandler) EndSession(c *gin.Context) {
	h.mapService.EndSession(c.Param("sid"))
	response.Success(c, nil)
}

// GetFrame handles GET /api/v1/map/sessions/:sid/frame
func (h *MapHandler) GetFrame(c *gin.Context) {
	frame, err := h.mapService.FrameForSession(c.Param("sid"))
	if err != nil {
		h.frameError(c, err)
		return
	}

	response.Success(c, frame)
}

// GetFrameGeoJSON handles GET /api/v1/map/sessions/:sid/frame/geojson.
// The body is a bare FeatureCollection, directly consumable by map
// libraries.
func (h *MapHandler) GetFrameGeoJSON(c *gin.Context) {
	fc, err := h.mapService.GeoJSONForSession(c.Param("sid"))
	if err != nil {
		h.frameError(c, err)
		return
	}

	c.JSON(200, fc)
}

// Zoom handles POST /api/v1/map/sessions/:sid/events/zoom
func (h *MapHandler) Zoom(c *gin.Context) {
	var body struct {
		Zoom *int `json:"zoom" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid request body: zoom is required")
		return
	}

	frame, err := h.mapService.Zoom(c.Param("sid"), *body.Zoom)
	if err != nil {
		h.frameError(c, err)
		return
	}

	response.Success(c, frame)
}

// Center handles POST /api/v1/map/sessions/:sid/events/center
func (h *MapHandler) Center(c *gin.Context) {
	var body centerEvent
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid request body: lat and lng are required")
		return
	}

	frame, err := h.mapService.Pan(c.Param("sid"), models.LatLng{Lat: *body.Lat, Lng: *body.Lng})
	if err != nil {
		h.frameError(c, err)
		return
	}

	response.Success(c, frame)
}

// ActivateCluster handles POST /api/v1/map/sessions/:sid/events/cluster.
// The body carries the centroid of the activated cluster marker.
func (h *MapHandler) ActivateCluster(c *gin.Context) {
	var body centerEvent
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid request body: lat and lng are required")
		return
	}

	frame, err := h.mapService.ActivateCluster(c.Param("sid"), models.LatLng{Lat: *body.Lat, Lng: *body.Lng})
	if err != nil {
		h.frameError(c, err)
		return
	}

	response.Success(c, frame)
}

// ResetView handles POST /api/v1/map/sessions/:sid/events/reset
func (h *MapHandler) ResetView(c *gin.Context) {
	frame, err := h.mapService.ResetView(c.Param("sid"))
	if err != nil {
		h.frameError(c, err)
		return
	}

	response.Success(c, frame)
}

// SelectProduct handles POST /api/v1/map/sessions/:sid/events/select. An
// empty UPC clears the selection.
func (h *MapHandler) SelectProduct(c *gin.Context) {
	var body struct {
		UPC string `json:"upc"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	frame, err := h.mapService.SelectProduct(c.Param("sid"), body.UPC)
	if err != nil {
		h.frameError(c, err)
		return
	}

	response.Success(c, frame)
}

// ApplyFilter handles POST /api/v1/map/sessions/:sid/events/filter
func (h *MapHandler) ApplyFilter(c *gin.Context) {
	var filter models.StoreFilter
	if err := c.ShouldBindJSON(&filter); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	frame, err := h.mapService.ApplyFilter(c.Param("sid"), filter)
	if err != nil {
		h.frameError(c, err)
		return
	}

	response.Success(c, frame)
}

// GetStatelessFrame handles GET /api/v1/map/frame, a one-shot frame without
// a session
func (h *MapHandler) GetStatelessFrame(c *gin.Context) {
	var q models.MapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	frame, err := h.mapService.FrameForQuery(q)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, frame)
}

// GetStatelessGeoJSON handles GET /api/v1/map/frame/geojson
func (h *MapHandler) GetStatelessGeoJSON(c *gin.Context) {
	var q models.MapQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	fc, err := h.mapService.GeoJSONForQuery(q)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	c.JSON(200, fc)
}

func (h *MapHandler) frameError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrSessionNotFound) {
		response.NotFound(c, "Session not found")
		return
	}
	response.InternalError(c, err.Error())
}
