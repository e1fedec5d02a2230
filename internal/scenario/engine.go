// Package scenario wires the pipeline together: tables, sets, parameters, formulation,
// solve and interpretation. Every run builds its own instances; nothing is shared.
package scenario

import (
	"context"
	"fmt"
	"log"
	"time"

	"expansion-planner/internal/analysis"
	"expansion-planner/internal/backtest"
	"expansion-planner/internal/data"
	"expansion-planner/internal/formulation"
	"expansion-planner/internal/index"
	"expansion-planner/internal/model"
	"expansion-planner/internal/params"
	"expansion-planner/internal/results"
	"expansion-planner/internal/solver"
)

// Input is one scenario to run. Exactly one of Dataset and Tables is needed; Tables wins.
type Input struct {
	Name    string
	Dataset data.Dataset
	Tables  *model.Tables
	Year    string

	Formulation formulation.Options
	Results     results.Options
	// Timeout bounds the solve; 0 means only ctx bounds it.
	Timeout time.Duration
}

// Outcome is the structured answer of a run. Result is nil unless Status is optimal.
type Outcome struct {
	Name        string
	Year        string
	Status      solver.Status
	Message     string
	Variables   int
	Constraints int
	Stats       formulation.Stats
	Objective   float64
	SolveTime   time.Duration
	Result      *results.Result
	Utilization []analysis.RankedUtilization
	// Storage is the slot-by-slot replay of the solved storage schedule.
	Storage *backtest.Result
}

// Optimal reports whether the outcome carries results.
func (o *Outcome) Optimal() bool {
	return o != nil && o.Status == solver.StatusOptimal
}

type Engine struct {
	Solver solver.Solver
}

func New(s solver.Solver) *Engine { return &Engine{Solver: s} }

// Build runs the pipeline up to the formulated model.
func Build(in Input) (*formulation.Model, error) {
	tbl := in.Tables
	if tbl == nil {
		if in.Dataset == nil {
			return nil, fmt.Errorf("scenario %s: no data", in.Name)
		}
		var err error
		if tbl, err = data.Parse(in.Dataset); err != nil {
			return nil, fmt.Errorf("scenario %s: %w", in.Name, err)
		}
	}
	sets, err := index.Build(tbl, in.Year)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", in.Name, err)
	}
	m, err := formulation.Build(sets, params.Build(tbl, sets), in.Formulation)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", in.Name, err)
	}
	return m, nil
}

// Run formulates and solves one scenario. Data and model errors are returned as
// errors; solver outcomes (infeasible, unbounded, timeout) are reported in Outcome.
func (e *Engine) Run(ctx context.Context, in Input) (*Outcome, error) {
	if e.Solver == nil {
		return nil, fmt.Errorf("solver is nil")
	}
	m, err := Build(in)
	if err != nil {
		return nil, err
	}

	if in.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, in.Timeout)
		defer cancel()
	}
	sol := e.Solver.Solve(ctx, m.Problem)

	out := &Outcome{
		Name:        in.Name,
		Year:        in.Year,
		Status:      sol.Status,
		Message:     sol.Message,
		Variables:   len(m.Problem.Variables),
		Constraints: len(m.Problem.Constraints),
		Stats:       m.Stats,
		SolveTime:   sol.Duration,
	}
	if !sol.Optimal() {
		log.Printf("[Scenario] %s: solve ended with status %s: %s", in.Name, sol.Status, sol.Message)
		return out, nil
	}
	res, err := results.Interpret(m, sol, in.Results)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", in.Name, err)
	}
	out.Objective = sol.Objective
	out.Result = res
	out.Utilization = analysis.RankByCapacityFactor(analysis.ComputeUtilization(res))
	if out.Storage, err = backtest.New().Run(m, sol); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", in.Name, err)
	}
	for _, a := range out.Storage.Assets {
		if a.Violations > 0 {
			log.Printf("[Scenario] %s: storage %s leaves its volume bounds in %d slots (max drift %.3g)",
				in.Name, a.Asset, a.Violations, a.MaxDrift)
		}
	}
	log.Printf("[Scenario] %s: optimal, objective %.6g (%d variables, %d constraints)",
		in.Name, out.Objective, out.Variables, out.Constraints)
	return out, nil
}
