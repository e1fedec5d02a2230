package models

import (
	"math"
	"time"

	"expansion-planner/internal/analysis"
	"expansion-planner/internal/backtest"
	"expansion-planner/internal/data"
	"expansion-planner/internal/model"
	"expansion-planner/internal/results"
	"expansion-planner/internal/scenario"
)

// SolveResponse represents the response from a solve
type SolveResponse struct {
	ID          string                       `json:"id,omitempty"`
	Status      string                       `json:"status"`
	Summary     RunSummary                   `json:"summary"`
	Balance     []results.BalanceRow         `json:"balance,omitempty"`
	Pivot       *results.Pivot               `json:"pivot,omitempty"`
	Capacities  []CapacityInfo               `json:"capacities,omitempty"`
	Utilization []analysis.RankedUtilization `json:"utilization,omitempty"`
	Storage     []backtest.AssetSummary      `json:"storage,omitempty"`
	Rows        []results.Row                `json:"rows,omitempty"`
}

// RunSummary contains the headline numbers of a run
type RunSummary struct {
	Scenario    string                `json:"scenario"`
	Year        string                `json:"year"`
	Message     string                `json:"message,omitempty"`
	Objective   float64               `json:"objective"`
	Weight      float64               `json:"weight,omitempty"`
	Variables   int                   `json:"variables"`
	Constraints int                   `json:"constraints"`
	ByKind      map[model.VarKind]int `json:"variables_by_kind,omitempty"`
	ByFamily    map[string]int        `json:"constraints_by_family,omitempty"`
	SolveTimeMS float64               `json:"solve_time_ms"`
	CreatedAt   time.Time             `json:"created_at"`
}

// CapacityInfo reports one asset's capacity; Max is omitted when unbounded
type CapacityInfo struct {
	Asset   string     `json:"asset"`
	Role    model.Role `json:"role"`
	Region  string     `json:"region"`
	Initial float64    `json:"initial"`
	Added   float64    `json:"added"`
	Total   float64    `json:"total"`
	Max     *float64   `json:"max,omitempty"`
}

// NewSolveResponse converts an outcome. Rows are only copied when includeRows is set.
func NewSolveResponse(id string, out *scenario.Outcome, includeRows bool, created time.Time) SolveResponse {
	resp := SolveResponse{
		ID:     id,
		Status: string(out.Status),
		Summary: RunSummary{
			Scenario:    out.Name,
			Year:        out.Year,
			Message:     out.Message,
			Objective:   out.Objective,
			Variables:   out.Variables,
			Constraints: out.Constraints,
			ByKind:      out.Stats.Variables,
			SolveTimeMS: float64(out.SolveTime) / float64(time.Millisecond),
			CreatedAt:   created,
		},
	}
	if len(out.Stats.Constraints) > 0 {
		resp.Summary.ByFamily = make(map[string]int, len(out.Stats.Constraints))
		for f, n := range out.Stats.Constraints {
			resp.Summary.ByFamily[string(f)] = n
		}
	}
	if out.Result == nil {
		return resp
	}
	resp.Summary.Weight = out.Result.Weight
	resp.Balance = out.Result.Balance
	p := results.PivotBalance(out.Result.Balance)
	resp.Pivot = &p
	resp.Capacities = NewCapacityInfos(out.Result.Capacities)
	resp.Utilization = out.Utilization
	if out.Storage != nil {
		resp.Storage = out.Storage.Assets
	}
	if includeRows {
		resp.Rows = out.Result.Rows
	}
	return resp
}

// NewCapacityInfos converts capacity rows, dropping infinite maxima
func NewCapacityInfos(rows []results.CapacityRow) []CapacityInfo {
	out := make([]CapacityInfo, 0, len(rows))
	for _, r := range rows {
		ci := CapacityInfo{
			Asset:   r.Asset,
			Role:    r.Role,
			Region:  r.Region,
			Initial: r.Initial,
			Added:   r.Added,
			Total:   r.Total,
		}
		if !math.IsInf(r.Max, 0) && !math.IsNaN(r.Max) {
			m := r.Max
			ci.Max = &m
		}
		out = append(out, ci)
	}
	return out
}

// CompareResponse represents the response from a comparison
type CompareResponse struct {
	Comparison []ComparisonResult `json:"comparison"`
}

// ComparisonResult contains results for one variation
type ComparisonResult struct {
	Name       string         `json:"name"`
	ID         string         `json:"id,omitempty"`
	Status     string         `json:"status"`
	Summary    RunSummary     `json:"summary"`
	Capacities []CapacityInfo `json:"capacities,omitempty"`
	Error      *ErrorDetail   `json:"error,omitempty"`
}

// RowsResponse represents one page of a run's long result table
type RowsResponse struct {
	ID     string        `json:"id"`
	Total  int           `json:"total"`
	Offset int           `json:"offset"`
	Limit  int           `json:"limit"`
	Rows   []results.Row `json:"rows"`
}

// StorageResponse represents the storage replay ledger of a run
type StorageResponse struct {
	ID       string                  `json:"id"`
	MaxDrift float64                 `json:"max_drift"`
	Assets   []backtest.AssetSummary `json:"assets"`
	Ledger   []backtest.LedgerRow    `json:"ledger"`
}

// ScenarioListResponse lists the scenarios the server can run by name
type ScenarioListResponse struct {
	Scenarios []data.ScenarioInfo `json:"scenarios"`
	Count     int                 `json:"count"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
