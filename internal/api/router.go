package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nickscoggins/kroger-grocery-price-index/internal/config"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/handler"
	"github.com/nickscoggins/kroger-grocery-price-index/internal/middleware"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth    *handler.AuthHandler
	Store   *handler.StoreHandler
	Product *handler.ProductHandler
	Map     *handler.MapHandler
	Harvest *handler.HarvestHandler
	Export  *handler.ExportHandler
}

// SetupRouter wires all routes and middleware.
func SetupRouter(cfg *config.Config, logger *zap.Logger, h *Handlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.Logger(logger))

	// CORS: the map renderer is served from a different origin.
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Grocery Price Index API is running",
		})
	})

	api := r.Group("/api/v1")
	// Interactive panning fires a burst of events per gesture, so the
	// window is sized for map sessions rather than document APIs.
	api.Use(middleware.RateLimit(600, time.Minute))
	{
		api.POST("/auth/token", h.Auth.IssueToken)

		stores := api.Group("/stores")
		{
			stores.GET("", h.Store.GetStores)
			stores.GET("/nearby", h.Store.Nearby)
			stores.GET("/filters", h.Store.GetFilterOptions)
			stores.GET("/:id", h.Store.GetStoreByID)
			stores.GET("/:id/prices", h.Store.GetPriceHistory)
		}

		products := api.Group("/products")
		{
			products.GET("", h.Product.GetProducts)
			products.GET("/:upc", h.Product.GetProductByUPC)
			products.GET("/:upc/coverage", h.Product.GetCoverage)
		}

		m := api.Group("/map")
		{
			m.GET("/frame", h.Map.GetStatelessFrame)
			m.GET("/frame/geojson", h.Map.GetStatelessGeoJSON)

			m.POST("/sessions", h.Map.CreateSession)
			m.GET("/sessions/:sid", h.Map.GetSession)
			m.DELETE("/sessions/:sid", h.Map.EndSession)
			m.GET("/sessions/:sid/frame", h.Map.GetFrame)
			m.GET("/sessions/:sid/frame/geojson", h.Map.GetFrameGeoJSON)

			m.POST("/sessions/:sid/events/zoom", h.Map.Zoom)
			m.POST("/sessions/:sid/events/center", h.Map.Center)
			m.POST("/sessions/:sid/events/cluster", h.Map.ActivateCluster)
			m.POST("/sessions/:sid/events/reset", h.Map.ResetView)
			m.POST("/sessions/:sid/events/select", h.Map.SelectProduct)
			m.POST("/sessions/:sid/events/filter", h.Map.ApplyFilter)
		}

		api.GET("/export/prices", h.Export.ExportPrices)

		admin := api.Group("/admin")
		admin.Use(middleware.RequireAdmin(cfg.JWTSecret))
		{
			admin.POST("/harvest", h.Harvest.StartHarvest)
			admin.GET("/harvest/active", h.Harvest.GetActiveTask)
			admin.GET("/harvest/tasks", h.Harvest.ListTasks)
			admin.GET("/harvest/tasks/:id", h.Harvest.GetTask)

			admin.POST("/stores/sync", h.Harvest.SyncStores)
			admin.POST("/products", h.Product.RegisterProduct)
			admin.PATCH("/products/:upc/tracking", h.Product.SetTracked)
		}
	}

	return r
}
