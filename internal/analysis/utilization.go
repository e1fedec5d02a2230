package analysis

import (
	"math"
	"sort"

	"expansion-planner/internal/model"
	"expansion-planner/internal/results"
)

// AssetUtilization summarises how hard an asset was driven over the representative slots.
// Levels are the asset's main dispatch variable: production, throughput, discharge, or
// the sum of both flow directions for transmission.
type AssetUtilization struct {
	Asset  string     `json:"asset"`
	Role   model.Role `json:"role"`
	Region string     `json:"region"`

	Count    int     `json:"count"`
	Capacity float64 `json:"capacity"`

	MinLevel  float64 `json:"min_level"`
	MaxLevel  float64 `json:"max_level"`
	MeanLevel float64 `json:"mean_level"`
	P05Level  float64 `json:"p05_level"`
	P95Level  float64 `json:"p95_level"`

	// CapacityFactor is MeanLevel / Capacity; 0 for assets without capacity.
	CapacityFactor float64 `json:"capacity_factor"`
	// Throughput is the reweighted sum of levels over the real period, in the
	// result's energy units.
	Throughput float64 `json:"throughput"`
}

func mainKind(role model.Role, kind model.VarKind) bool {
	switch role {
	case model.RolePrimary:
		return kind == model.VarProduction
	case model.RoleTransformation:
		return kind == model.VarTransformation
	case model.RoleStorage:
		return kind == model.VarDischarge
	case model.RoleTransmission:
		return kind == model.VarExport || kind == model.VarImport
	}
	return false
}

// ComputeUtilization returns one entry per asset in the capacity report, in its order.
func ComputeUtilization(res *results.Result) []AssetUtilization {
	if res == nil {
		return nil
	}
	type varSlot struct {
		kind model.VarKind
		slot model.Slot
	}
	levels := make(map[string]map[model.Slot]float64)
	seen := make(map[string]map[varSlot]bool)
	for _, r := range res.Rows {
		if !mainKind(model.Role(r.Role), r.Variable) {
			continue
		}
		vs := varSlot{r.Variable, model.Slot{Week: r.Week, Hour: r.Hour}}
		// A variable appears once per linked carrier and side; count it once.
		if seen[r.Asset] == nil {
			seen[r.Asset] = make(map[varSlot]bool)
			levels[r.Asset] = make(map[model.Slot]float64)
		}
		if seen[r.Asset][vs] {
			continue
		}
		seen[r.Asset][vs] = true
		levels[r.Asset][vs.slot] += r.Level
	}

	out := make([]AssetUtilization, 0, len(res.Capacities))
	for _, c := range res.Capacities {
		u := AssetUtilization{Asset: c.Asset, Role: c.Role, Region: c.Region, Capacity: c.Total}
		vals := make([]float64, 0, len(levels[c.Asset]))
		for _, v := range levels[c.Asset] {
			vals = append(vals, v)
		}
		if len(vals) > 0 {
			sort.Float64s(vals)
			sum := 0.0
			for _, v := range vals {
				sum += v
			}
			u.Count = len(vals)
			u.MinLevel = vals[0]
			u.MaxLevel = vals[len(vals)-1]
			u.MeanLevel = sum / float64(len(vals))
			u.P05Level = percentileSorted(vals, 0.05)
			u.P95Level = percentileSorted(vals, 0.95)
			u.Throughput = sum * res.Weight / energyScale(res)
			if c.Total > 0 {
				u.CapacityFactor = u.MeanLevel / c.Total
			}
		}
		out = append(out, u)
	}
	return out
}

func energyScale(res *results.Result) float64 {
	if res.EnergyScale <= 0 {
		return 1
	}
	return res.EnergyScale
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}
