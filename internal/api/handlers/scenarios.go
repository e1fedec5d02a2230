package handlers

import (
	"fmt"
	"log"
	"net/http"

	"expansion-planner/internal/api/models"
	"expansion-planner/internal/data"

	"github.com/gin-gonic/gin"
)

// ScenarioHandler handles scenario catalog requests
type ScenarioHandler struct {
	catalog *data.Catalog
}

// NewScenarioHandler creates a scenario handler. A nil catalog serves the built-in samples.
func NewScenarioHandler(catalog *data.Catalog) *ScenarioHandler {
	if catalog == nil {
		catalog = data.BuiltinCatalog()
	}
	log.Printf("[API] Serving %d scenarios", len(catalog.Scenarios))
	return &ScenarioHandler{catalog: catalog}
}

// ListScenarios handles GET /api/v1/scenarios
func (h *ScenarioHandler) ListScenarios(c *gin.Context) {
	c.JSON(http.StatusOK, models.ScenarioListResponse{
		Scenarios: h.catalog.Scenarios,
		Count:     len(h.catalog.Scenarios),
	})
}

// GetScenario handles GET /api/v1/scenarios/:name. The dataset comes back in the
// dict-of-columns layout a solve request accepts inline.
func (h *ScenarioHandler) GetScenario(c *gin.Context) {
	name := c.Param("name")
	if _, ok := h.catalog.Lookup(name); !ok {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown scenario %q", name), nil)
		return
	}
	ds, info, err := h.catalog.Open(name)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, "DATA_LOAD_ERROR",
			fmt.Sprintf("Failed to load scenario: %v", err), map[string]interface{}{"scenario": name})
		return
	}

	rows := make(map[string]int, len(ds))
	for table, cols := range ds {
		rows[table] = cols.Len()
	}
	c.JSON(http.StatusOK, gin.H{
		"scenario": info,
		"rows":     rows,
		"dataset":  ds,
	})
}
