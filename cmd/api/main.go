package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"expansion-planner/internal/api"
	"expansion-planner/internal/config"
	"expansion-planner/internal/data"

	"github.com/gin-gonic/gin"
)

func main() {
	// Get configuration from environment
	port := os.Getenv("API_PORT")
	if port == "" {
		port = "8080"
	}

	catalog := data.BuiltinCatalog()
	if path := os.Getenv("SCENARIO_CATALOG"); path != "" {
		c, err := data.LoadCatalog(path)
		if err != nil {
			log.Fatalf("Failed to load scenario catalog: %v", err)
		}
		catalog = c
		log.Printf("Loaded scenario catalog %s (%d scenarios)", path, len(c.Scenarios))
	}

	// Server-side defaults for every setting a request leaves out.
	defaults := config.Default()
	if path := os.Getenv("DEFAULTS_CONFIG"); path != "" {
		c, err := config.LoadUnchecked(path)
		if err != nil {
			log.Fatalf("Failed to load default config: %v", err)
		}
		defaults = c
		log.Printf("Loaded default run config %s", path)
	}

	runTTL := time.Hour
	if v := os.Getenv("RUN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Fatalf("Invalid RUN_TTL %q: %v", v, err)
		}
		runTTL = d
	}
	batchLimit := 0
	if v := os.Getenv("BATCH_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			log.Fatalf("Invalid BATCH_LIMIT %q: %v", v, err)
		}
		batchLimit = n
	}

	if os.Getenv("API_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Options{
		Catalog:    catalog,
		Defaults:   defaults,
		RunTTL:     runTTL,
		BatchLimit: batchLimit,
	})

	// Start server
	addr := fmt.Sprintf(":%s", port)
	log.Printf("Starting API server on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
