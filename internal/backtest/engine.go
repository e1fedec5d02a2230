// Package backtest replays the solved storage schedule slot by slot. The replay walks
// the volume recurrence forward from each week's starting volume using only the
// solved charge and discharge levels, so disagreement with the solver's own volumes
// (drift) or a volume outside [0, capacity] points at a numerical problem.
package backtest

import (
	"fmt"
	"math"

	"expansion-planner/internal/formulation"
	"expansion-planner/internal/model"
	"expansion-planner/internal/solver"
)

// DefaultTolerance is the flow level below which a slot counts as idle, and the
// relative slack allowed on the volume bounds.
const DefaultTolerance = 1e-7

type Engine struct {
	Tolerance float64
}

func New() *Engine { return &Engine{Tolerance: DefaultTolerance} }

// Run replays every storage asset of m against an optimal solution.
func (e *Engine) Run(m *formulation.Model, sol *solver.Solution) (*Result, error) {
	if m == nil {
		return nil, fmt.Errorf("model is nil")
	}
	if !sol.Optimal() {
		return nil, fmt.Errorf("solution is not optimal")
	}
	tol := e.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	s := m.Sets
	res := &Result{}
	for _, id := range s.ByRole[model.RoleStorage] {
		a, _ := s.Asset(id)
		rows, sum := e.replayAsset(m, sol, a, tol)
		res.Ledger = append(res.Ledger, rows...)
		res.Assets = append(res.Assets, sum)
		res.MaxDrift = math.Max(res.MaxDrift, sum.MaxDrift)
	}
	return res, nil
}

func (e *Engine) replayAsset(m *formulation.Model, sol *solver.Solution, a model.Asset, tol float64) ([]LedgerRow, AssetSummary) {
	s, opts := m.Sets, m.Options
	effS, effD := a.StorageEfficiencies()
	step := opts.StepHours

	capacity := m.Params.InitialCapacity(a.ID)
	if i, ok := m.Var(formulation.VarKey{Kind: model.VarCapacity, Asset: a.ID}); ok {
		capacity += sol.Value(i)
	}
	value := func(kind model.VarKind, w, h string) float64 {
		i, ok := m.Var(formulation.VarKey{Kind: kind, Asset: a.ID, Week: w, Hour: h})
		if !ok {
			return 0
		}
		return sol.Value(i)
	}

	sum := AssetSummary{
		Asset:     a.ID,
		Role:      a.Role,
		Region:    a.Region,
		Capacity:  capacity,
		MinVolume: math.Inf(1),
		MaxVolume: math.Inf(-1),
	}
	slack := tol * math.Max(1, capacity)
	nw, nh := len(s.Weeks), len(s.Hours)
	if nw == 0 || nh == 0 {
		sum.MinVolume, sum.MaxVolume = 0, 0
		return nil, sum
	}
	rows := make([]LedgerRow, 0, nw*nh)
	cum := 0.0

	for wi, w := range s.Weeks {
		var vol float64
		switch opts.CarryOver {
		case formulation.CarryReset:
			vol = opts.InitialVolumeFraction * capacity
		case formulation.CarryForward:
			vol = value(model.VarVolume, s.Weeks[(wi+nw-1)%nw], s.Hours[nh-1])
		default:
			vol = value(model.VarVolume, w, s.Hours[nh-1])
		}

		for _, h := range s.Hours {
			charge := value(model.VarCharge, w, h)
			discharge := value(model.VarDischarge, w, h)
			stored := step * effS * charge
			released := step * discharge / effD
			losses := step*charge - stored + released - step*discharge
			cum += losses

			solved := value(model.VarVolume, w, h)
			row := LedgerRow{
				Index:  len(rows),
				Asset:  a.ID,
				Region: a.Region,
				Week:   w,
				Hour:   h,

				Action: ActionFromFlows(charge, discharge, tol),

				Charge:    charge,
				Discharge: discharge,
				Stored:    stored,
				Released:  released,
				Losses:    losses,

				VolumeStart:  vol,
				VolumeEnd:    vol + stored - released,
				SolvedVolume: solved,

				CumLosses: cum,
			}
			row.Drift = row.VolumeEnd - solved
			rows = append(rows, row)

			sum.Charged += step * charge
			sum.Discharged += step * discharge
			sum.Losses += losses
			sum.MinVolume = math.Min(sum.MinVolume, row.VolumeEnd)
			sum.MaxVolume = math.Max(sum.MaxVolume, row.VolumeEnd)
			sum.MaxDrift = math.Max(sum.MaxDrift, math.Abs(row.Drift))
			if row.VolumeEnd < -slack || row.VolumeEnd > capacity+slack {
				sum.Violations++
			}
			vol = row.VolumeEnd
		}
	}
	if capacity > 0 {
		sum.Cycles = sum.Discharged / capacity
	}
	return rows, sum
}
