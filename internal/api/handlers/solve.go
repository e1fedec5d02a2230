package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strconv"

	"expansion-planner/internal/api/middleware"
	"expansion-planner/internal/api/models"
	"expansion-planner/internal/backtest"
	"expansion-planner/internal/config"
	"expansion-planner/internal/data"
	"expansion-planner/internal/results"
	"expansion-planner/internal/scenario"
	"expansion-planner/internal/solver"

	"github.com/gin-gonic/gin"
)

// inlineName labels runs over a dataset sent in the request body.
const inlineName = "inline"

// SolveHandler handles solve, compare and run retrieval requests
type SolveHandler struct {
	defaults config.Config
	catalog  *data.Catalog
	runs     *RunStore
	metrics  *middleware.Metrics
	// BatchLimit bounds concurrent solves of one compare request; 0 means no limit.
	BatchLimit int
}

// NewSolveHandler creates a solve handler. defaults supplies every setting a request leaves out.
func NewSolveHandler(defaults *config.Config, catalog *data.Catalog, runs *RunStore, metrics *middleware.Metrics) *SolveHandler {
	if defaults == nil {
		defaults = config.Default()
	}
	if catalog == nil {
		catalog = data.BuiltinCatalog()
	}
	return &SolveHandler{
		defaults:   *defaults,
		catalog:    catalog,
		runs:       runs,
		metrics:    metrics,
		BatchLimit: 4,
	}
}

// Solve handles POST /api/v1/solve
func (h *SolveHandler) Solve(c *gin.Context) {
	var req models.SolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}

	cfg := config.Merge(h.defaults, req.Config.Overlay())
	in, ok := h.input(c, req.Scenario, req.Dataset, &cfg)
	if !ok {
		return
	}
	s, err := solver.New(cfg.Solver.Name, cfg.Solver.Tolerance)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error(), nil)
		return
	}

	out, err := scenario.New(s).Run(c.Request.Context(), in)
	if err != nil {
		log.Printf("[API] solve %s failed: %v", in.Name, err)
		abortWithPipelineError(c, err)
		return
	}
	h.metrics.Solve(string(out.Status), out.SolveTime)

	run := h.runs.Put(out)
	c.JSON(http.StatusOK, models.NewSolveResponse(run.ID, out, req.Options.IncludeRows, run.CreatedAt))
}

// Compare handles POST /api/v1/solve/compare
func (h *SolveHandler) Compare(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	if len(req.Variations) == 0 {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", "at least one variation is required", nil)
		return
	}

	base := config.Merge(h.defaults, req.BaseConfig.Overlay())
	s, err := solver.New(base.Solver.Name, base.Solver.Tolerance)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_CONFIG", err.Error(), nil)
		return
	}

	comparison := make([]models.ComparisonResult, len(req.Variations))
	var inputs []scenario.Input
	var slots []int
	for i, v := range req.Variations {
		comparison[i] = models.ComparisonResult{Name: v.Name}
		cfg := config.Merge(base, v.Config.Overlay())
		in, err := h.buildInput(req.Scenario, req.Dataset, &cfg)
		if err != nil {
			// An invalid variation is reported, not skipped.
			_, detail := h.inputError(req.Scenario, err)
			comparison[i].Status = string(solver.StatusError)
			comparison[i].Error = &detail
			continue
		}
		in.Name = v.Name
		inputs = append(inputs, in)
		slots = append(slots, i)
	}

	items := scenario.New(s).RunBatch(c.Request.Context(), inputs, h.BatchLimit)
	for k, item := range items {
		res := &comparison[slots[k]]
		if item.Err != nil {
			_, detail := classify(item.Err)
			res.Status = string(solver.StatusError)
			res.Error = &detail
			continue
		}
		h.metrics.Solve(string(item.Outcome.Status), item.Outcome.SolveTime)
		run := h.runs.Put(item.Outcome)
		full := models.NewSolveResponse(run.ID, item.Outcome, false, run.CreatedAt)
		res.ID = full.ID
		res.Status = full.Status
		res.Summary = full.Summary
		res.Capacities = full.Capacities
	}

	c.JSON(http.StatusOK, models.CompareResponse{Comparison: comparison})
}

// GetRun handles GET /api/v1/runs/:id
func (h *SolveHandler) GetRun(c *gin.Context) {
	run, ok := h.lookupRun(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, models.NewSolveResponse(run.ID, run.Outcome, false, run.CreatedAt))
}

// GetRunRows handles GET /api/v1/runs/:id/rows. Supports offset, limit and format=csv.
func (h *SolveHandler) GetRunRows(c *gin.Context) {
	run, ok := h.lookupRun(c)
	if !ok {
		return
	}
	if run.Outcome.Result == nil {
		abortWithError(c, http.StatusConflict, "NOT_SOLVED",
			fmt.Sprintf("run %s ended with status %s and has no rows", run.ID, run.Outcome.Status), nil)
		return
	}
	rows := run.Outcome.Result.Rows

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.ID+"-rows.csv"))
		c.Status(http.StatusOK)
		if err := results.WriteRowsCSV(c.Writer, rows); err != nil {
			log.Printf("[API] writing rows of run %s: %v", run.ID, err)
		}
		return
	}

	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	limit, err := queryInt(c, "limit", len(rows))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return
	}
	end := offset + limit
	if offset > len(rows) {
		offset = len(rows)
	}
	if end > len(rows) || end < offset {
		end = len(rows)
	}

	c.JSON(http.StatusOK, models.RowsResponse{
		ID:     run.ID,
		Total:  len(rows),
		Offset: offset,
		Limit:  limit,
		Rows:   rows[offset:end],
	})
}

// GetRunStorage handles GET /api/v1/runs/:id/storage. Supports format=csv.
func (h *SolveHandler) GetRunStorage(c *gin.Context) {
	run, ok := h.lookupRun(c)
	if !ok {
		return
	}
	st := run.Outcome.Storage
	if st == nil {
		abortWithError(c, http.StatusConflict, "NOT_SOLVED",
			fmt.Sprintf("run %s ended with status %s and has no storage ledger", run.ID, run.Outcome.Status), nil)
		return
	}

	if c.Query("format") == "csv" {
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", run.ID+"-storage.csv"))
		c.Status(http.StatusOK)
		if err := backtest.WriteLedgerCSV(c.Writer, st.Ledger); err != nil {
			log.Printf("[API] writing storage ledger of run %s: %v", run.ID, err)
		}
		return
	}

	c.JSON(http.StatusOK, models.StorageResponse{
		ID:       run.ID,
		MaxDrift: st.MaxDrift,
		Assets:   st.Assets,
		Ledger:   st.Ledger,
	})
}

func (h *SolveHandler) lookupRun(c *gin.Context) (*StoredRun, bool) {
	id := c.Param("id")
	run, ok := h.runs.Get(id)
	if !ok {
		abortWithError(c, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("run %s not found or expired", id), nil)
		return nil, false
	}
	return run, true
}

// input resolves the data source of a request and writes the error response itself.
func (h *SolveHandler) input(c *gin.Context, name string, ds data.Dataset, cfg *config.Config) (scenario.Input, bool) {
	in, err := h.buildInput(name, ds, cfg)
	if err != nil {
		status, detail := h.inputError(name, err)
		c.AbortWithStatusJSON(status, models.ErrorResponse{Error: detail})
		return scenario.Input{}, false
	}
	return in, true
}

// requestError is a failure of the request itself rather than of its data.
type requestError struct {
	status int
	code   string
	msg    string
}

func (e *requestError) Error() string { return e.msg }

// configError wraps a failed config.Validate.
type configError struct{ err error }

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

func (h *SolveHandler) buildInput(name string, ds data.Dataset, cfg *config.Config) (scenario.Input, error) {
	switch {
	case ds != nil:
		if name == "" {
			name = inlineName
		}
		cfg.Scenario = name
	case name == "":
		return scenario.Input{}, &requestError{http.StatusBadRequest, "INVALID_REQUEST", "scenario or dataset is required"}
	default:
		if _, ok := h.catalog.Lookup(name); !ok {
			return scenario.Input{}, &requestError{http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("unknown scenario %q", name)}
		}
		cfg.Scenario = name
	}
	cfg.DataFile = ""
	if err := cfg.Validate(); err != nil {
		return scenario.Input{}, &configError{err}
	}
	if ds != nil {
		return scenario.WithDataset(cfg, name, ds)
	}
	return scenario.FromConfig(cfg, h.catalog)
}

func (h *SolveHandler) inputError(name string, err error) (int, models.ErrorDetail) {
	switch e := err.(type) {
	case *requestError:
		return e.status, models.ErrorDetail{Code: e.code, Message: e.msg}
	case *configError:
		return http.StatusBadRequest, models.ErrorDetail{Code: "INVALID_CONFIG", Message: e.Error()}
	}
	status, detail := classify(err)
	if detail.Code == "SOLVE_FAILED" {
		// Anything else failed while loading the scenario's data.
		return http.StatusInternalServerError, models.ErrorDetail{
			Code:    "DATA_LOAD_ERROR",
			Message: err.Error(),
			Details: map[string]interface{}{"scenario": name},
		}
	}
	return status, detail
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", key)
	}
	return n, nil
}
