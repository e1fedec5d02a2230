// Package api assembles the HTTP server: middleware, handlers and routes.
package api

import (
	"net/http"
	"time"

	"expansion-planner/internal/api/handlers"
	"expansion-planner/internal/api/middleware"
	"expansion-planner/internal/api/models"
	"expansion-planner/internal/config"
	"expansion-planner/internal/data"

	"github.com/gin-gonic/gin"
)

// Options configures NewRouter. Zero values select the built-in catalog, default run
// settings, fresh metrics and a one hour run TTL.
type Options struct {
	Catalog  *data.Catalog
	Defaults *config.Config
	Metrics  *middleware.Metrics
	RunTTL   time.Duration
	// Origins overrides CORS_ALLOWED_ORIGINS when set.
	Origins    []string
	BatchLimit int
}

// NewRouter wires the routes
func NewRouter(opts Options) *gin.Engine {
	if opts.Metrics == nil {
		opts.Metrics = middleware.NewMetrics()
	}
	if opts.RunTTL == 0 {
		opts.RunTTL = time.Hour
	}

	router := gin.New()
	if len(opts.Origins) > 0 {
		router.Use(middleware.CORSWithOrigins(opts.Origins))
	} else {
		router.Use(middleware.CORS())
	}
	router.Use(middleware.Logger())
	router.Use(opts.Metrics.Middleware())
	router.Use(middleware.ErrorHandler())

	runs := handlers.NewRunStore(opts.RunTTL, opts.Metrics)
	solveHandler := handlers.NewSolveHandler(opts.Defaults, opts.Catalog, runs, opts.Metrics)
	if opts.BatchLimit > 0 {
		solveHandler.BatchLimit = opts.BatchLimit
	}
	scenarioHandler := handlers.NewScenarioHandler(opts.Catalog)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", opts.Metrics.Handler())

	api := router.Group("/api/v1")
	{
		api.POST("/solve", solveHandler.Solve)
		api.POST("/solve/compare", solveHandler.Compare)

		api.GET("/runs/:id", solveHandler.GetRun)
		api.GET("/runs/:id/rows", solveHandler.GetRunRows)
		api.GET("/runs/:id/storage", solveHandler.GetRunStorage)

		api.GET("/scenarios", scenarioHandler.ListScenarios)
		api.GET("/scenarios/:name", scenarioHandler.GetScenario)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{
				Code:    "NOT_FOUND",
				Message: "Not found",
			},
		})
	})
	return router
}
