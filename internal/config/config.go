package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"expansion-planner/internal/formulation"
	"expansion-planner/internal/model"
	"expansion-planner/internal/results"
	"expansion-planner/internal/solver"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk run configuration (YAML).
type Config struct {
	// DataFile is a JSON dataset or a directory of CSV tables. Relative paths are tried
	// against the config file directory first, then the working directory.
	DataFile string `yaml:"data_file"`
	// Scenario names a built-in sample; used when DataFile is empty.
	Scenario string `yaml:"scenario"`
	// Year is the active modelling year.
	Year string `yaml:"year"`

	Solver  SolverConfig  `yaml:"solver"`
	Time    TimeConfig    `yaml:"time"`
	Storage StorageConfig `yaml:"storage"`
	Output  OutputConfig  `yaml:"output"`
}

type SolverConfig struct {
	Name string `yaml:"name"`
	// Timeout of 0 means no timeout.
	Timeout   time.Duration `yaml:"timeout"`
	Tolerance float64       `yaml:"tolerance"`
}

type TimeConfig struct {
	PeriodHours     float64 `yaml:"period_hours"`
	WeightObjective *bool   `yaml:"weight_objective"`
}

// StorageConfig fractions are pointers so an override can set them back to 0.
type StorageConfig struct {
	CarryOver             string   `yaml:"carry_over"`
	MinVolumeFraction     *float64 `yaml:"min_volume_fraction"`
	InitialVolumeFraction *float64 `yaml:"initial_volume_fraction"`
	StepHours             float64  `yaml:"step_hours"`
}

type OutputConfig struct {
	EnergyScale float64 `yaml:"energy_scale"`
	// Dir receives the CSV result tables; empty writes nothing.
	Dir string `yaml:"dir"`
}

// Default returns the configuration used for every field a file leaves out.
func Default() *Config {
	weight := true
	return &Config{
		Solver: SolverConfig{
			Name:      "simplex",
			Timeout:   30 * time.Second,
			Tolerance: solver.DefaultTolerance,
		},
		Time: TimeConfig{
			PeriodHours:     model.HoursPerYear,
			WeightObjective: &weight,
		},
		Storage: StorageConfig{
			CarryOver: string(formulation.CarryCyclic),
			StepHours: 1,
		},
		Output: OutputConfig{EnergyScale: 1},
	}
}

func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked reads the file over the defaults and resolves DataFile, without validating.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if c.DataFile != "" && !filepath.IsAbs(c.DataFile) {
		// Prefer the config file directory, fall back to the working directory.
		cand := filepath.Join(filepath.Dir(path), c.DataFile)
		if _, err := os.Stat(cand); err == nil {
			c.DataFile = cand
		}
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.DataFile == "" && c.Scenario == "" {
		return errors.New("data_file or scenario is required")
	}
	if c.Year == "" {
		return errors.New("year is required")
	}
	if _, err := solver.New(c.Solver.Name, c.Solver.Tolerance); err != nil {
		return fmt.Errorf("solver config invalid: %w", err)
	}
	if c.Solver.Timeout < 0 {
		return errors.New("solver.timeout must be >= 0")
	}
	if c.Solver.Tolerance < 0 {
		return errors.New("solver.tolerance must be >= 0")
	}
	if c.Output.EnergyScale < 0 {
		return errors.New("output.energy_scale must be >= 0")
	}
	if _, err := c.FormulationOptions(); err != nil {
		return fmt.Errorf("model config invalid: %w", err)
	}
	return nil
}

// FormulationOptions converts the time and storage sections.
func (c *Config) FormulationOptions() (formulation.Options, error) {
	co, err := formulation.ParseCarryOver(c.Storage.CarryOver)
	if err != nil {
		return formulation.Options{}, err
	}
	opts := formulation.Options{
		PeriodHours:           c.Time.PeriodHours,
		WeightObjective:       c.Time.WeightObjective == nil || *c.Time.WeightObjective,
		CarryOver:             co,
		MinVolumeFraction:     value(c.Storage.MinVolumeFraction),
		InitialVolumeFraction: value(c.Storage.InitialVolumeFraction),
		StepHours:             c.Storage.StepHours,
	}
	return opts, opts.Validate()
}

func (c *Config) ResultOptions() results.Options {
	return results.Options{EnergyScale: c.Output.EnergyScale}
}

// Merge overlays the non-zero fields of override onto base. Used to apply per-request
// variations to a base configuration. Pointer fields overlay when non-nil, so they can
// carry false or 0; the result shares no pointers with either argument.
func Merge(base, override Config) Config {
	out := base
	out.Time.WeightObjective = clone(base.Time.WeightObjective)
	out.Storage.MinVolumeFraction = clone(base.Storage.MinVolumeFraction)
	out.Storage.InitialVolumeFraction = clone(base.Storage.InitialVolumeFraction)
	if override.DataFile != "" {
		out.DataFile = override.DataFile
	}
	if override.Scenario != "" {
		out.Scenario = override.Scenario
	}
	if override.Year != "" {
		out.Year = override.Year
	}
	if override.Solver.Name != "" {
		out.Solver.Name = override.Solver.Name
	}
	if override.Solver.Timeout != 0 {
		out.Solver.Timeout = override.Solver.Timeout
	}
	if override.Solver.Tolerance != 0 {
		out.Solver.Tolerance = override.Solver.Tolerance
	}
	if override.Time.PeriodHours != 0 {
		out.Time.PeriodHours = override.Time.PeriodHours
	}
	if override.Time.WeightObjective != nil {
		out.Time.WeightObjective = clone(override.Time.WeightObjective)
	}
	if override.Storage.CarryOver != "" {
		out.Storage.CarryOver = override.Storage.CarryOver
	}
	if override.Storage.MinVolumeFraction != nil {
		out.Storage.MinVolumeFraction = clone(override.Storage.MinVolumeFraction)
	}
	if override.Storage.InitialVolumeFraction != nil {
		out.Storage.InitialVolumeFraction = clone(override.Storage.InitialVolumeFraction)
	}
	if override.Storage.StepHours != 0 {
		out.Storage.StepHours = override.Storage.StepHours
	}
	if override.Output.EnergyScale != 0 {
		out.Output.EnergyScale = override.Output.EnergyScale
	}
	if override.Output.Dir != "" {
		out.Output.Dir = override.Output.Dir
	}
	return out
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
