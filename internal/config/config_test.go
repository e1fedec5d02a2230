package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"expansion-planner/internal/formulation"
	"expansion-planner/internal/model"
)

func write(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	assert.NilError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "dk.json", "{}")
	path := write(t, dir, "run.yaml", "data_file: dk.json\nyear: y2020\nsolver:\n  timeout: 5s\n")

	c, err := Load(path)
	assert.NilError(t, err)
	assert.Equal(t, c.DataFile, filepath.Join(dir, "dk.json"))
	assert.Equal(t, c.Solver.Timeout, 5*time.Second)
	assert.Equal(t, c.Solver.Name, "simplex")
	assert.Equal(t, c.Time.PeriodHours, model.HoursPerYear)

	opts, err := c.FormulationOptions()
	assert.NilError(t, err)
	assert.Assert(t, opts.WeightObjective)
	assert.Equal(t, opts.CarryOver, formulation.CarryCyclic)
	assert.Equal(t, opts.StepHours, 1.0)
	assert.Equal(t, c.ResultOptions().EnergyScale, 1.0)
}

func TestLoadStorageAndWeighting(t *testing.T) {
	dir := t.TempDir()
	body := `scenario: nordic
year: y2020
time:
  weight_objective: false
storage:
  carry_over: reset
  initial_volume_fraction: 0.5
  min_volume_fraction: 0.1
output:
  energy_scale: 1000
`
	c, err := Load(write(t, dir, "run.yaml", body))
	assert.NilError(t, err)
	opts, err := c.FormulationOptions()
	assert.NilError(t, err)
	assert.Assert(t, !opts.WeightObjective)
	assert.Equal(t, opts.CarryOver, formulation.CarryReset)
	assert.Equal(t, opts.InitialVolumeFraction, 0.5)
	assert.Equal(t, opts.MinVolumeFraction, 0.1)
	assert.Equal(t, c.ResultOptions().EnergyScale, 1000.0)
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"data_file or scenario": "year: y2020\n",
		"year is required":      "scenario: nordic\n",
		"unknown solver":        "scenario: nordic\nyear: y2020\nsolver:\n  name: cplex\n",
		"carry-over":            "scenario: nordic\nyear: y2020\nstorage:\n  carry_over: never\n",
		"step_hours":            "scenario: nordic\nyear: y2020\nstorage:\n  step_hours: -1\n",
	}
	for want, body := range cases {
		_, err := Load(write(t, dir, "run.yaml", body))
		assert.ErrorContains(t, err, want)
	}

	c, err := LoadUnchecked(write(t, dir, "run.yaml", "year: y2020\n"))
	assert.NilError(t, err)
	assert.Equal(t, c.Year, "y2020")

	var nilConfig *Config
	assert.ErrorContains(t, nilConfig.Validate(), "nil")
}

func TestMerge(t *testing.T) {
	base := *Default()
	base.Scenario = "nordic"
	base.Year = "y2020"

	off := false
	merged := Merge(base, Config{
		Year:    "y2030",
		Time:    TimeConfig{WeightObjective: &off},
		Storage: StorageConfig{CarryOver: "carry"},
	})
	assert.Equal(t, merged.Year, "y2030")
	assert.Equal(t, merged.Scenario, "nordic")
	assert.Equal(t, *merged.Time.WeightObjective, false)
	assert.Equal(t, *base.Time.WeightObjective, true)
	assert.Equal(t, merged.Storage.CarryOver, "carry")
	assert.Equal(t, merged.Storage.StepHours, 1.0)
}

func TestExampleConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "examples", "run.yaml"))
	assert.NilError(t, err)
	assert.Equal(t, c.Scenario, "nordic")
	assert.Equal(t, c.Output.EnergyScale, 1000.0)

	opts, err := c.FormulationOptions()
	assert.NilError(t, err)
	assert.Equal(t, opts.CarryOver, formulation.CarryForward)
	assert.Equal(t, opts.MinVolumeFraction, 0.05)
}

func TestMergeOverridesToZeroWithoutSharing(t *testing.T) {
	base := *Default()
	base.Scenario = "nordic"
	base.Year = "y2020"
	minVol, iniVol := 0.2, 0.5
	base.Storage.MinVolumeFraction = &minVol
	base.Storage.InitialVolumeFraction = &iniVol

	zero := 0.0
	merged := Merge(base, Config{Storage: StorageConfig{MinVolumeFraction: &zero}})
	opts, err := merged.FormulationOptions()
	assert.NilError(t, err)
	assert.Equal(t, opts.MinVolumeFraction, 0.0)
	assert.Equal(t, opts.InitialVolumeFraction, 0.5)

	// Writes through the merged config leave base alone.
	*merged.Time.WeightObjective = false
	*merged.Storage.InitialVolumeFraction = 0.9
	assert.Equal(t, *base.Time.WeightObjective, true)
	assert.Equal(t, iniVol, 0.5)
	zero = 0.3
	assert.Equal(t, *merged.Storage.MinVolumeFraction, 0.0)
}
