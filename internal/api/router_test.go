package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gotest.tools/v3/assert"

	"expansion-planner/internal/api/models"
	"expansion-planner/internal/data"
	"expansion-planner/internal/model"
	"expansion-planner/internal/results"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newServer(t *testing.T) *gin.Engine {
	t.Helper()
	return NewRouter(Options{Origins: []string{"https://planner.example"}, RunTTL: time.Minute})
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		assert.NilError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	assert.NilError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var e models.ErrorResponse
	decode(t, w, &e)
	return e.Error.Code
}

func TestHealth(t *testing.T) {
	w := do(t, newServer(t), http.MethodGet, "/health", nil)
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Assert(t, strings.Contains(w.Body.String(), "ok"))
}

func TestListScenarios(t *testing.T) {
	w := do(t, newServer(t), http.MethodGet, "/api/v1/scenarios", nil)
	assert.Equal(t, w.Code, http.StatusOK)

	var resp models.ScenarioListResponse
	decode(t, w, &resp)
	assert.Equal(t, resp.Count, len(data.SampleNames()))
	assert.Equal(t, resp.Scenarios[0].Name, data.SampleSingleCarrier)
	assert.Assert(t, resp.Scenarios[0].Builtin)
}

func TestGetScenario(t *testing.T) {
	r := newServer(t)
	w := do(t, r, http.MethodGet, "/api/v1/scenarios/"+data.SampleHeatPump, nil)
	assert.Equal(t, w.Code, http.StatusOK)

	var resp struct {
		Rows    map[string]int `json:"rows"`
		Dataset data.Dataset   `json:"dataset"`
	}
	decode(t, w, &resp)
	assert.Equal(t, resp.Rows[data.TableAsset], 2)
	assert.NilError(t, data.CheckSchema(resp.Dataset))

	w = do(t, r, http.MethodGet, "/api/v1/scenarios/nope", nil)
	assert.Equal(t, w.Code, http.StatusNotFound)
	assert.Equal(t, errorCode(t, w), "NOT_FOUND")
}

func TestSolveAndRetrieve(t *testing.T) {
	r := newServer(t)
	w := do(t, r, http.MethodPost, "/api/v1/solve", models.SolveRequest{
		Scenario: data.SampleSingleCarrier,
		Config:   models.RunConfig{Year: data.SampleYear},
	})
	assert.Equal(t, w.Code, http.StatusOK, w.Body.String())

	var resp models.SolveResponse
	decode(t, w, &resp)
	assert.Equal(t, resp.Status, "optimal")
	assert.Assert(t, resp.ID != "")
	assert.Assert(t, resp.Rows == nil)
	assert.Assert(t, resp.Pivot != nil)
	got := results.Lookup(resp.Balance, "dk_0", results.RoleFinal, "elec")
	assert.Assert(t, got < -model.HoursPerYear+1e-3 && got > -model.HoursPerYear-1e-3, "final consumption %v", got)
	assert.Equal(t, len(resp.Capacities), 1)
	assert.Assert(t, resp.Capacities[0].Max != nil)
	assert.Equal(t, resp.Summary.ByFamily["balance"], 4)

	w = do(t, r, http.MethodGet, "/api/v1/runs/"+resp.ID, nil)
	assert.Equal(t, w.Code, http.StatusOK)
	var again models.SolveResponse
	decode(t, w, &again)
	assert.Equal(t, again.ID, resp.ID)
	assert.Equal(t, again.Summary.Objective, resp.Summary.Objective)

	w = do(t, r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/rows?offset=1&limit=2", nil)
	assert.Equal(t, w.Code, http.StatusOK)
	var page models.RowsResponse
	decode(t, w, &page)
	assert.Equal(t, len(page.Rows), 2)
	assert.Equal(t, page.Offset, 1)
	assert.Assert(t, page.Total > 2)

	w = do(t, r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/rows?offset=1000", nil)
	assert.Equal(t, w.Code, http.StatusOK)
	decode(t, w, &page)
	assert.Equal(t, len(page.Rows), 0)

	w = do(t, r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/rows?limit=-1", nil)
	assert.Equal(t, w.Code, http.StatusBadRequest)

	w = do(t, r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/rows?format=csv", nil)
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Assert(t, strings.HasPrefix(w.Body.String(), "asset,variable,region"))
}

func TestSolveIncludeRows(t *testing.T) {
	w := do(t, newServer(t), http.MethodPost, "/api/v1/solve", models.SolveRequest{
		Scenario: data.SampleHeatPump,
		Config:   models.RunConfig{Year: data.SampleYear},
		Options:  models.SolveOptions{IncludeRows: true},
	})
	assert.Equal(t, w.Code, http.StatusOK, w.Body.String())
	var resp models.SolveResponse
	decode(t, w, &resp)
	assert.Assert(t, len(resp.Rows) > 0)
	assert.Assert(t, len(resp.Utilization) > 0)
}

func TestSolveInlineDataset(t *testing.T) {
	ds, err := data.Sample(data.SampleSingleCarrier)
	assert.NilError(t, err)
	w := do(t, newServer(t), http.MethodPost, "/api/v1/solve", models.SolveRequest{
		Dataset: ds,
		Config:  models.RunConfig{Year: data.SampleYear, CarryOver: "reset"},
	})
	assert.Equal(t, w.Code, http.StatusOK, w.Body.String())
	var resp models.SolveResponse
	decode(t, w, &resp)
	assert.Equal(t, resp.Summary.Scenario, "inline")
	assert.Equal(t, resp.Status, "optimal")
}

func TestSolveErrors(t *testing.T) {
	r := newServer(t)

	bad, err := data.Sample(data.SampleSingleCarrier)
	assert.NilError(t, err)
	bad[data.TableAsset]["regn"] = []any{"atlantis"}

	noTables := data.Dataset{data.TableRegion: {"regn": []any{"dk_0"}}}

	// A transmission asset that ends where it starts.
	loop, err := data.Sample(data.SampleSingleCarrier)
	assert.NilError(t, err)
	loop[data.TableAsset]["role"] = []any{"trms"}
	loop[data.TableAsset]["dest"] = []any{"dk_0"}

	cases := []struct {
		name   string
		body   interface{}
		status int
		code   string
	}{
		{"malformed", "not an object", http.StatusBadRequest, "INVALID_REQUEST"},
		{"no source", models.SolveRequest{Config: models.RunConfig{Year: data.SampleYear}}, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unknown scenario", models.SolveRequest{Scenario: "nope", Config: models.RunConfig{Year: data.SampleYear}}, http.StatusNotFound, "NOT_FOUND"},
		{"missing year", models.SolveRequest{Scenario: data.SampleSingleCarrier}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"bad carry over", models.SolveRequest{
			Scenario: data.SampleSingleCarrier,
			Config:   models.RunConfig{Year: data.SampleYear, CarryOver: "sideways"},
		}, http.StatusBadRequest, "INVALID_CONFIG"},
		{"schema", models.SolveRequest{Dataset: noTables, Config: models.RunConfig{Year: data.SampleYear}}, http.StatusBadRequest, "SCHEMA_ERROR"},
		{"reference", models.SolveRequest{Dataset: bad, Config: models.RunConfig{Year: data.SampleYear}}, http.StatusUnprocessableEntity, "REFERENCE_ERROR"},
		{"invalid asset", models.SolveRequest{Dataset: loop, Config: models.RunConfig{Year: data.SampleYear}}, http.StatusUnprocessableEntity, "INVALID_ASSET"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/solve", tc.body)
			assert.Equal(t, w.Code, tc.status, w.Body.String())
			assert.Equal(t, errorCode(t, w), tc.code)
		})
	}
}

func TestSolveInfeasibleIsReported(t *testing.T) {
	ds, err := data.Sample(data.SampleSingleCarrier)
	assert.NilError(t, err)
	// Demand above the only asset's capacity.
	ds[data.TableDemand]["lFin"] = []any{5000.0}

	r := newServer(t)
	w := do(t, r, http.MethodPost, "/api/v1/solve", models.SolveRequest{
		Dataset: ds,
		Config:  models.RunConfig{Year: data.SampleYear},
	})
	assert.Equal(t, w.Code, http.StatusOK, w.Body.String())
	var resp models.SolveResponse
	decode(t, w, &resp)
	assert.Equal(t, resp.Status, "infeasible")
	assert.Assert(t, resp.Balance == nil)

	w = do(t, r, http.MethodGet, "/api/v1/runs/"+resp.ID+"/rows", nil)
	assert.Equal(t, w.Code, http.StatusConflict)
	assert.Equal(t, errorCode(t, w), "NOT_SOLVED")
}

func TestCompare(t *testing.T) {
	r := newServer(t)
	w := do(t, r, http.MethodPost, "/api/v1/solve/compare", models.CompareRequest{
		Scenario:   data.SampleNordic,
		BaseConfig: models.RunConfig{Year: data.SampleYear},
		Variations: []models.RunVariation{
			{Name: "cyclic"},
			{Name: "carry", Config: models.RunConfig{CarryOver: "carry"}},
			{Name: "broken", Config: models.RunConfig{CarryOver: "sideways"}},
		},
	})
	assert.Equal(t, w.Code, http.StatusOK, w.Body.String())

	var resp models.CompareResponse
	decode(t, w, &resp)
	assert.Equal(t, len(resp.Comparison), 3)
	assert.Equal(t, resp.Comparison[0].Name, "cyclic")
	assert.Equal(t, resp.Comparison[0].Status, "optimal")
	assert.Assert(t, resp.Comparison[0].ID != "")
	assert.Equal(t, resp.Comparison[1].Status, "optimal")
	assert.Equal(t, resp.Comparison[2].Status, "error")
	assert.Equal(t, resp.Comparison[2].Error.Code, "INVALID_CONFIG")

	w = do(t, r, http.MethodGet, "/api/v1/runs/"+resp.Comparison[1].ID, nil)
	assert.Equal(t, w.Code, http.StatusOK)
	var run models.SolveResponse
	decode(t, w, &run)
	assert.Equal(t, len(run.Storage), 1)

	w = do(t, r, http.MethodGet, "/api/v1/runs/"+resp.Comparison[1].ID+"/storage", nil)
	assert.Equal(t, w.Code, http.StatusOK)
	var st models.StorageResponse
	decode(t, w, &st)
	assert.Equal(t, len(st.Ledger), 8)
	assert.Assert(t, st.MaxDrift < 1e-6)

	w = do(t, r, http.MethodGet, "/api/v1/runs/"+resp.Comparison[1].ID+"/storage?format=csv", nil)
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Assert(t, strings.HasPrefix(w.Body.String(), "index,asset"))

	w = do(t, r, http.MethodPost, "/api/v1/solve/compare", models.CompareRequest{Scenario: data.SampleNordic})
	assert.Equal(t, w.Code, http.StatusBadRequest)
}

func TestUnknownRun(t *testing.T) {
	r := newServer(t)
	for _, path := range []string{"/api/v1/runs/not-a-uuid", "/api/v1/runs/7f0c5a52-3b0e-4d7e-9a49-5d7c0a3a1e11/rows"} {
		w := do(t, r, http.MethodGet, path, nil)
		assert.Equal(t, w.Code, http.StatusNotFound)
		assert.Equal(t, errorCode(t, w), "NOT_FOUND")
	}
}

func TestMetrics(t *testing.T) {
	r := newServer(t)
	w := do(t, r, http.MethodPost, "/api/v1/solve", models.SolveRequest{
		Scenario: data.SampleSingleCarrier,
		Config:   models.RunConfig{Year: data.SampleYear},
	})
	assert.Equal(t, w.Code, http.StatusOK)

	w = do(t, r, http.MethodGet, "/metrics", nil)
	assert.Equal(t, w.Code, http.StatusOK)
	body := w.Body.String()
	assert.Assert(t, strings.Contains(body, `solves_total{status="optimal"} 1`), body)
	assert.Assert(t, strings.Contains(body, `http_requests_total{route="/api/v1/solve",status="200"} 1`), body)
	assert.Assert(t, strings.Contains(body, "stored_runs 1"), body)
}

func TestCORSPreflight(t *testing.T) {
	r := newServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/solve", nil)
	req.Header.Set("Origin", "https://planner.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, w.Code, http.StatusNoContent)
	assert.Equal(t, w.Header().Get("Access-Control-Allow-Origin"), "https://planner.example")

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, w.Code, http.StatusOK)
	assert.Equal(t, w.Header().Get("Access-Control-Allow-Origin"), "")
}
