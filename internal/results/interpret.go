// Package results maps solved variables back to domain quantities: a long table of
// per-carrier flows, balances by (region, role, carrier) and installed capacities.
package results

import (
	"errors"
	"fmt"

	"expansion-planner/internal/formulation"
	"expansion-planner/internal/model"
	"expansion-planner/internal/solver"
)

// ErrNotSolved is returned for any solution that is not optimal.
var ErrNotSolved = errors.New("results: solution is not optimal")

// Options control result scaling.
type Options struct {
	// EnergyScale divides reweighted energies (1000 turns MWh into GWh). <= 0 means 1.
	EnergyScale float64
}

// Interpret builds the result tables. It refuses anything but an optimal solution.
func Interpret(m *formulation.Model, sol *solver.Solution, opts Options) (*Result, error) {
	if !sol.Optimal() {
		status := solver.Status("missing")
		if sol != nil {
			status = sol.Status
		}
		return nil, fmt.Errorf("%w (status %s)", ErrNotSolved, status)
	}
	if len(sol.Values) != len(m.Problem.Variables) {
		return nil, fmt.Errorf("results: solution has %d values for %d variables", len(sol.Values), len(m.Problem.Variables))
	}
	scale := opts.EnergyScale
	if scale <= 0 {
		scale = 1
	}

	res := &Result{Objective: sol.Objective, Weight: m.Weight, EnergyScale: scale}
	energy := func(net float64) float64 { return net * m.Weight / scale }
	s, p := m.Sets, m.Params

	for i, k := range m.Keys {
		if k.Kind == model.VarCapacity {
			continue
		}
		a, _ := s.Asset(k.Asset)
		level := sol.Values[i]
		for _, l := range s.Links(k.Asset) {
			for _, side := range sides(a, k.Kind, l.Efficiency) {
				net := level * side.eff
				res.Rows = append(res.Rows, Row{
					Asset:      a.ID,
					Variable:   k.Kind,
					Region:     side.region,
					Role:       string(a.Role),
					Carrier:    l.Carrier,
					Week:       k.Week,
					Hour:       k.Hour,
					Level:      level,
					Efficiency: side.eff,
					Net:        net,
					Energy:     energy(net),
				})
			}
		}
	}

	for _, e := range s.Carriers {
		for _, r := range s.Regions {
			if !p.HasDemand(e, r) {
				continue
			}
			for _, sl := range s.Slots() {
				d := p.Demand(e, r, sl)
				res.Rows = append(res.Rows, Row{
					Asset:      AssetFinal,
					Variable:   model.VarFinal,
					Region:     r,
					Role:       RoleFinal,
					Carrier:    e,
					Week:       sl.Week,
					Hour:       sl.Hour,
					Level:      d,
					Efficiency: -1,
					Net:        -d,
					Energy:     energy(-d),
				})
			}
		}
	}

	for _, id := range s.Assets {
		a, _ := s.Asset(id)
		c := CapacityRow{
			Asset:   id,
			Role:    a.Role,
			Region:  a.Region,
			Initial: p.InitialCapacity(id),
			Max:     p.MaxCapacity(id),
		}
		if i, ok := m.Var(formulation.VarKey{Kind: model.VarCapacity, Asset: id}); ok {
			c.Added = sol.Values[i]
		}
		c.Total = c.Initial + c.Added
		res.Capacities = append(res.Capacities, c)
	}

	res.Balance = Aggregate(res.Rows)
	return res, nil
}

type side struct {
	region string
	eff    float64
}

// sides gives the signed coefficient of a variable kind per region it touches.
// Transmission touches both ends; everything else only its home region.
func sides(a model.Asset, kind model.VarKind, linkEff float64) []side {
	switch kind {
	case model.VarProduction, model.VarTransformation:
		return []side{{a.Region, linkEff}}
	case model.VarCharge:
		return []side{{a.Region, -1}}
	case model.VarDischarge:
		return []side{{a.Region, 1}}
	case model.VarVolume:
		return []side{{a.Region, 0}}
	case model.VarExport:
		return []side{{a.Region, -1}, {a.Destination, linkEff}}
	case model.VarImport:
		return []side{{a.Destination, -1}, {a.Region, linkEff}}
	}
	return nil
}
