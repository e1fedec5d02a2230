package models

import (
	"time"

	"expansion-planner/internal/config"
	"expansion-planner/internal/data"
)

// SolveRequest represents the request body for solving one scenario
type SolveRequest struct {
	// Scenario names a catalog entry; ignored when Dataset is set.
	Scenario string `json:"scenario,omitempty"`
	// Dataset is an inline dict-of-columns dataset.
	Dataset data.Dataset `json:"dataset,omitempty"`
	Config  RunConfig    `json:"config"`
	Options SolveOptions `json:"options,omitempty"`
}

// RunConfig contains the run settings a client may set. Zero or absent fields keep the
// server defaults; the pointer fields accept an explicit false or 0.
type RunConfig struct {
	Year                  string   `json:"year"`
	Solver                string   `json:"solver,omitempty"`
	TimeoutSeconds        float64  `json:"timeout_seconds,omitempty"`
	Tolerance             float64  `json:"tolerance,omitempty"`
	PeriodHours           float64  `json:"period_hours,omitempty"`
	WeightObjective       *bool    `json:"weight_objective,omitempty"`
	CarryOver             string   `json:"carry_over,omitempty"`
	MinVolumeFraction     *float64 `json:"min_volume_fraction,omitempty"`
	InitialVolumeFraction *float64 `json:"initial_volume_fraction,omitempty"`
	StepHours             float64  `json:"step_hours,omitempty"`
	EnergyScale           float64  `json:"energy_scale,omitempty"`
}

// Overlay converts the request settings into a config override for config.Merge.
// Data locations never come from a request.
func (r RunConfig) Overlay() config.Config {
	var c config.Config
	c.Year = r.Year
	c.Solver.Name = r.Solver
	c.Solver.Timeout = time.Duration(r.TimeoutSeconds * float64(time.Second))
	c.Solver.Tolerance = r.Tolerance
	c.Time.PeriodHours = r.PeriodHours
	c.Time.WeightObjective = r.WeightObjective
	c.Storage.CarryOver = r.CarryOver
	c.Storage.MinVolumeFraction = r.MinVolumeFraction
	c.Storage.InitialVolumeFraction = r.InitialVolumeFraction
	c.Storage.StepHours = r.StepHours
	c.Output.EnergyScale = r.EnergyScale
	return c
}

// SolveOptions contains optional response parameters
type SolveOptions struct {
	IncludeRows bool `json:"include_rows,omitempty"` // default: false
}

// CompareRequest represents a request to solve several variations of one scenario
type CompareRequest struct {
	Scenario   string         `json:"scenario,omitempty"`
	Dataset    data.Dataset   `json:"dataset,omitempty"`
	BaseConfig RunConfig      `json:"base_config"`
	Variations []RunVariation `json:"variations" binding:"required,dive"`
}

// RunVariation represents one variation in a comparison
type RunVariation struct {
	Name   string    `json:"name" binding:"required"`
	Config RunConfig `json:"config"`
}
