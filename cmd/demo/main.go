package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"expansion-planner/internal/config"
	"expansion-planner/internal/data"
	"expansion-planner/internal/results"
	"expansion-planner/internal/scenario"
	"expansion-planner/internal/solver"
)

// Demo:
// - Run every built-in sample scenario concurrently
// - Show how the energy balance and capacity decisions come out of each solve
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional; data_file and scenario are ignored)")
	carryOver := flag.String("carry-over", "", "Storage carry-over policy override: cyclic, carry or reset")
	outDir := flag.String("out", "", "Optional directory for per-scenario result CSVs (e.g. results/demo)")
	flag.Parse()

	cfg := config.Default()
	if *cfgPath != "" {
		c, err := config.LoadUnchecked(*cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = c
	}
	if *carryOver != "" {
		cfg.Storage.CarryOver = *carryOver
	}
	cfg.Year = data.SampleYear

	var inputs []scenario.Input
	for _, name := range data.SampleNames() {
		ds, err := data.Sample(name)
		if err != nil {
			panic(err)
		}
		in, err := scenario.WithDataset(cfg, name, ds)
		if err != nil {
			panic(err)
		}
		inputs = append(inputs, in)
	}

	s, err := solver.New(cfg.Solver.Name, cfg.Solver.Tolerance)
	if err != nil {
		panic(err)
	}
	items := scenario.New(s).RunBatch(context.Background(), inputs, 0)

	failed := 0
	for _, item := range items {
		fmt.Printf("== %s ==\n", item.Name)
		if item.Err != nil {
			fmt.Printf("error: %v\n\n", item.Err)
			failed++
			continue
		}
		out := item.Outcome
		fmt.Printf("status=%s variables=%d constraints=%d [%s]\n", out.Status, out.Variables, out.Constraints, out.Stats)
		if !out.Optimal() {
			fmt.Printf("%s\n\n", out.Message)
			failed++
			continue
		}
		fmt.Printf("objective=%.6g weight=%.4g h/slot solve=%s\n", out.Objective, out.Result.Weight, out.SolveTime)

		for _, r := range results.PivotBalance(out.Result.Balance).Rows {
			fmt.Printf("  %-6s %-6s", r.Region, r.Carrier)
			for _, role := range []string{"prim", "tfrm", "trms", "stor", results.RoleFinal} {
				if v, ok := r.Values[role]; ok {
					fmt.Printf("  %s=%10.4g", role, v)
				}
			}
			fmt.Printf("  net=%.3g\n", r.Net)
		}
		for _, c := range out.Result.Capacities {
			if c.Added > 0 {
				fmt.Printf("  invest %-14s +%.4g (total %.4g)\n", c.Asset, c.Added, c.Total)
			}
		}

		if *outDir != "" {
			dir := filepath.Join(*outDir, item.Name)
			if err := out.Result.WriteFiles(dir); err != nil {
				panic(err)
			}
			fmt.Printf("  wrote CSVs to %s\n", dir)
		}
		fmt.Println("")
	}

	fmt.Printf("Done. %d/%d scenarios solved to optimality\n", len(items)-failed, len(items))
	if failed > 0 {
		os.Exit(1)
	}
}
