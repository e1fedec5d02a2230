package backtest_test

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"

	"gotest.tools/v3/assert"

	"expansion-planner/internal/backtest"
	"expansion-planner/internal/data"
	"expansion-planner/internal/formulation"
	"expansion-planner/internal/model"
	"expansion-planner/internal/scenario"
	"expansion-planner/internal/solver"
)

const battery = "batt_dk0"

func nordicModel(t *testing.T, co formulation.CarryOver) *formulation.Model {
	t.Helper()
	ds, err := data.Sample(data.SampleNordic)
	assert.NilError(t, err)
	opts := formulation.DefaultOptions()
	opts.CarryOver = co
	m, err := scenario.Build(scenario.Input{Name: "nordic", Dataset: ds, Year: data.SampleYear, Formulation: opts})
	assert.NilError(t, err)
	return m
}

func TestActionFromFlows(t *testing.T) {
	assert.Equal(t, backtest.ActionFromFlows(0, 0, 1e-7), backtest.ActionIdle)
	assert.Equal(t, backtest.ActionFromFlows(1e-9, 0, 1e-7), backtest.ActionIdle)
	assert.Equal(t, backtest.ActionFromFlows(1, 0, 1e-7), backtest.ActionCharging)
	assert.Equal(t, backtest.ActionFromFlows(0, 1, 1e-7), backtest.ActionDischarging)
	assert.Equal(t, backtest.ActionFromFlows(1, 1, 1e-7), backtest.ActionBoth)
}

func TestReplayRejectsUnsolved(t *testing.T) {
	m := nordicModel(t, formulation.CarryCyclic)
	_, err := backtest.New().Run(m, &solver.Solution{Status: solver.StatusInfeasible})
	assert.ErrorContains(t, err, "not optimal")
	_, err = backtest.New().Run(nil, &solver.Solution{Status: solver.StatusOptimal})
	assert.ErrorContains(t, err, "model is nil")
}

// A lone charge that the solved volumes ignore shows up as drift and, with no
// capacity, as bound violations until the next week restarts from the solved volume.
func TestReplayDetectsDrift(t *testing.T) {
	m := nordicModel(t, formulation.CarryCyclic)
	sol := &solver.Solution{Status: solver.StatusOptimal, Values: make([]float64, len(m.Problem.Variables))}
	s := m.Sets
	i, ok := m.Var(formulation.VarKey{Kind: model.VarCharge, Asset: battery, Week: s.Weeks[0], Hour: s.Hours[0]})
	assert.Assert(t, ok)
	sol.Values[i] = 1

	res, err := backtest.New().Run(m, sol)
	assert.NilError(t, err)
	assert.Equal(t, len(res.Ledger), len(s.Weeks)*len(s.Hours))

	first := res.Ledger[0]
	assert.Equal(t, first.Action, backtest.ActionCharging)
	assert.Assert(t, math.Abs(first.Stored-0.95) < 1e-12)
	assert.Assert(t, math.Abs(first.Losses-0.05) < 1e-12)
	assert.Assert(t, math.Abs(first.Drift-0.95) < 1e-12)
	assert.Equal(t, res.Ledger[1].Action, backtest.ActionIdle)
	assert.Assert(t, math.Abs(res.Ledger[1].VolumeStart-0.95) < 1e-12)

	second := res.Ledger[len(s.Hours)]
	assert.Equal(t, second.Week, s.Weeks[1])
	assert.Equal(t, second.VolumeStart, 0.0)

	sum := res.Assets[0]
	assert.Equal(t, sum.Asset, battery)
	assert.Equal(t, sum.Capacity, 0.0)
	assert.Equal(t, sum.Violations, len(s.Hours))
	assert.Equal(t, sum.Cycles, 0.0)
	assert.Assert(t, math.Abs(res.MaxDrift-0.95) < 1e-12)
}

func TestReplayResetStartsFromFraction(t *testing.T) {
	m := nordicModel(t, formulation.CarryReset)
	m.Options.InitialVolumeFraction = 0.5
	sol := &solver.Solution{Status: solver.StatusOptimal, Values: make([]float64, len(m.Problem.Variables))}
	c, ok := m.Var(formulation.VarKey{Kind: model.VarCapacity, Asset: battery})
	assert.Assert(t, ok)
	sol.Values[c] = 4

	res, err := backtest.New().Run(m, sol)
	assert.NilError(t, err)
	for _, r := range res.Ledger {
		if r.Hour == m.Sets.Hours[0] {
			assert.Equal(t, r.VolumeStart, 2.0)
		}
	}
	assert.Equal(t, res.Assets[0].Capacity, 4.0)
}

func TestReplayOfSolvedScenario(t *testing.T) {
	m := nordicModel(t, formulation.CarryForward)
	sol := (&solver.Simplex{}).Solve(context.Background(), m.Problem)
	assert.Equal(t, sol.Status, solver.StatusOptimal, sol.Message)

	res, err := backtest.New().Run(m, sol)
	assert.NilError(t, err)
	assert.Assert(t, res.MaxDrift < 1e-6, "drift %v", res.MaxDrift)
	assert.Equal(t, res.Assets[0].Violations, 0)

	var buf bytes.Buffer
	assert.NilError(t, backtest.WriteLedgerCSV(&buf, res.Ledger))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Equal(t, len(lines), len(res.Ledger)+1)
	assert.Assert(t, strings.HasPrefix(lines[0], "index,asset,region,week,hour,action"))
}
