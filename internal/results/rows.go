package results

import "expansion-planner/internal/model"

// RoleFinal marks the synthetic final-consumption rows of the long table.
const RoleFinal = "fcon"

// AssetFinal is the asset column of final-consumption rows.
const AssetFinal = "demand"

// Row is one line of the long result table: one variable's effect on one carrier.
// Net = Level * Efficiency; Energy is Net reweighted to the real period.
type Row struct {
	Asset      string        `json:"asset"`
	Variable   model.VarKind `json:"variable"`
	Region     string        `json:"region"`
	Role       string        `json:"role"`
	Carrier    string        `json:"carrier"`
	Week       string        `json:"week"`
	Hour       string        `json:"hour"`
	Level      float64       `json:"level"`
	Efficiency float64       `json:"efficiency"`
	Net        float64       `json:"net"`
	Energy     float64       `json:"energy"`
}

// BalanceRow is the reweighted energy of one role for one carrier in one region.
type BalanceRow struct {
	Region  string  `json:"region"`
	Role    string  `json:"role"`
	Carrier string  `json:"carrier"`
	Energy  float64 `json:"energy"`
}

// CapacityRow reports the installed capacity of an asset after the solve.
type CapacityRow struct {
	Asset   string     `json:"asset"`
	Role    model.Role `json:"role"`
	Region  string     `json:"region"`
	Initial float64    `json:"initial"`
	Added   float64    `json:"added"`
	Total   float64    `json:"total"`
	// Max may be +Inf.
	Max float64 `json:"-"`
}

// Result is everything the interpreter derives from one optimal solution.
type Result struct {
	Rows       []Row
	Balance    []BalanceRow
	Capacities []CapacityRow
	// Objective includes the constant fixed cost of initial capacity.
	Objective float64
	Weight    float64
	// EnergyScale is the divisor applied to every reported energy.
	EnergyScale float64
}
