package handler

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/kroger"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/middleware"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/service"
	"github.com/nickscoggins/kroger-grocery-price-index/pkg/response"
)

// HarvestHandler handles administrative harvest and store sync requests
type HarvestHandler struct {
	harvestService *service.HarvestService
}

// NewHarvestHandler creates a new harvest handler
func NewHarvestHandler(harvestService *service.HarvestService) *HarvestHandler {
	return &HarvestHandler{
		harvestService: harvestService,
	}
}

// StartHarvest handles POST /api/v1/admin/harvest
func (h *HarvestHandler) StartHarvest(c *gin.Context) {
	var body struct {
		DryRun bool `json:"dry_run"`
	}
	// An empty body means a normal run.
	_ = c.ShouldBindJSON(&body)

	createdBy := c.GetString(middleware.ContextUserKey)
	task, err := h.harvestService.StartHarvest(createdBy, body.DryRun)
	if err != nil {
		if strings.Contains(err.Error(), "already") {
			response.Conflict(c, err.Error())
			return
		}
		response.BadRequest(c, err.Error())
		return
	}

	response.Accepted(c, task)
}

// GetActiveTask handles GET /api/v1/admin/harvest/active
func (h *HarvestHandler) GetActiveTask(c *gin.Context) {
	task, err := h.harvestService.GetActiveTask()
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, task)
}

// ListTasks handles GET /api/v1/admin/harvest/tasks
func (h *HarvestHandler) ListTasks(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		response.BadRequest(c, "Invalid limit parameter")
		return
	}

	tasks, err := h.harvestService.ListRecentTasks(limit)
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"data":  tasks,
		"count": len(tasks),
	})
}

// GetTask handles GET /api/v1/admin/harvest/tasks/:id
func (h *HarvestHandler) GetTask(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.harvestService.GetTask(id)
	if err != nil {
		response.NotFound(c, "Task not found")
		return
	}

	response.Success(c, task)
}

// SyncStores handles POST /api/v1/admin/stores/sync
func (h *HarvestHandler) SyncStores(c *gin.Context) {
	var body struct {
		Zip         string `json:"zip" binding:"required"`
		RadiusMiles int    `json:"radius_miles"`
		Chain       string `json:"chain"`
		Limit       int    `json:"limit"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "Invalid request body: zip is required")
		return
	}

	count, err := h.harvestService.SyncStores(c.Request.Context(), kroger.LocationQuery{
		ZipNear:     body.Zip,
		RadiusMiles: body.RadiusMiles,
		Chain:       body.Chain,
		Limit:       body.Limit,
	})
	if err != nil {
		response.InternalError(c, err.Error())
		return
	}

	response.Success(c, gin.H{"stores_synced": count})
}
