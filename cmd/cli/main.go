package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"expansion-planner/internal/backtest"
	"expansion-planner/internal/config"
	"expansion-planner/internal/data"
	"expansion-planner/internal/index"
	"expansion-planner/internal/model"
	"expansion-planner/internal/results"
	"expansion-planner/internal/scenario"
	"expansion-planner/internal/solver"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "solve":
		cmdSolve(os.Args[2:])
	case "rank":
		cmdRank(os.Args[2:])
	case "index":
		cmdIndex(os.Args[2:])
	case "scenarios":
		cmdScenarios(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli solve --config examples/run.yaml --out results/")
	fmt.Println("  cli solve --scenario nordic --year y2020 --carry-over carry")
	fmt.Println("  cli rank --scenario nordic --year y2020")
	fmt.Println("  cli index --data scenarios/dk.json --year y2020")
	fmt.Println("  cli scenarios [--catalog scenarios/catalog.yaml]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - solve prints the energy balance pivot and writes rows/balance/capacity CSVs to output.dir")
	fmt.Println("  - rank solves and orders assets by capacity factor")
	fmt.Println("  - --data accepts a JSON dataset or a directory of <table>.csv files")
}

// runFlags are shared by solve and rank. Flags override the config file.
type runFlags struct {
	cfgPath     *string
	catalogPath *string
	dataPath    *string
	scenario    *string
	year        *string
	carryOver   *string
	periodHours *float64
}

func addRunFlags(fs *flag.FlagSet) runFlags {
	return runFlags{
		cfgPath:     fs.String("config", "", "Path to YAML run config"),
		catalogPath: fs.String("catalog", "", "Optional YAML scenario catalog"),
		dataPath:    fs.String("data", "", "JSON dataset or CSV directory (overrides data_file)"),
		scenario:    fs.String("scenario", "", "Catalog scenario name (overrides scenario)"),
		year:        fs.String("year", "", "Active year (overrides year)"),
		carryOver:   fs.String("carry-over", "", "Storage carry-over policy: cyclic, carry or reset"),
		periodHours: fs.Float64("period-hours", 0, "Real hours represented by the time grid"),
	}
}

func (f runFlags) load() (*config.Config, *data.Catalog) {
	cfg := config.Default()
	if *f.cfgPath != "" {
		c, err := config.LoadUnchecked(*f.cfgPath)
		if err != nil {
			panic(err)
		}
		cfg = c
	}
	var override config.Config
	override.DataFile = *f.dataPath
	override.Scenario = *f.scenario
	override.Year = *f.year
	override.Storage.CarryOver = *f.carryOver
	override.Time.PeriodHours = *f.periodHours
	merged := config.Merge(*cfg, override)
	if *f.scenario != "" {
		merged.DataFile = ""
	}
	if err := merged.Validate(); err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(2)
	}
	return &merged, loadCatalog(*f.catalogPath)
}

func loadCatalog(path string) *data.Catalog {
	if path == "" {
		return data.BuiltinCatalog()
	}
	c, err := data.LoadCatalog(path)
	if err != nil {
		panic(err)
	}
	return c
}

func run(cfg *config.Config, catalog *data.Catalog) *scenario.Outcome {
	in, err := scenario.FromConfig(cfg, catalog)
	if err != nil {
		panic(err)
	}
	s, err := solver.New(cfg.Solver.Name, cfg.Solver.Tolerance)
	if err != nil {
		panic(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	out, err := scenario.New(s).Run(ctx, in)
	if err != nil {
		panic(err)
	}
	fmt.Printf("Scenario %s (%s): %d variables, %d constraints [%s]\n",
		out.Name, out.Year, out.Variables, out.Constraints, out.Stats)
	if !out.Optimal() {
		fmt.Printf("Solve ended with status %s: %s\n", out.Status, out.Message)
		os.Exit(1)
	}
	fmt.Printf("Objective=%.6g Weight=%.4g h/slot SolveTime=%s\n", out.Objective, out.Result.Weight, out.SolveTime)
	return out
}

func cmdSolve(args []string) {
	fs := flag.NewFlagSet("solve", flag.ExitOnError)
	rf := addRunFlags(fs)
	outDir := fs.String("out", "", "Directory for result CSVs (overrides output.dir)")
	_ = fs.Parse(args)

	cfg, catalog := rf.load()
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	out := run(cfg, catalog)

	printPivot(results.PivotBalance(out.Result.Balance))
	fmt.Println("")
	printCapacities(out.Result.Capacities)

	if bad := results.Imbalances(results.PivotBalance(out.Result.Balance), 1e-6); len(bad) > 0 {
		fmt.Println("")
		fmt.Println("rows with nonzero net (solver tolerance residue):")
		for _, r := range bad {
			fmt.Printf("  %s/%s net=%.4g\n", r.Region, r.Carrier, r.Net)
		}
	}

	if len(out.Storage.Assets) > 0 {
		fmt.Println("")
		printStorage(out.Storage)
	}

	if cfg.Output.Dir != "" {
		if err := out.Result.WriteFiles(cfg.Output.Dir); err != nil {
			panic(err)
		}
		if err := backtest.WriteLedgerFile(filepath.Join(cfg.Output.Dir, "storage.csv"), out.Storage.Ledger); err != nil {
			panic(err)
		}
		fmt.Printf("Wrote %d rows to %s\n", len(out.Result.Rows), cfg.Output.Dir)
	}
}

func cmdRank(args []string) {
	fs := flag.NewFlagSet("rank", flag.ExitOnError)
	rf := addRunFlags(fs)
	_ = fs.Parse(args)

	cfg, catalog := rf.load()
	out := run(cfg, catalog)

	fmt.Printf("%-4s %-16s %-6s %-8s %-10s %-10s %-17s %-8s %-12s\n",
		"rank", "asset", "role", "region", "capacity", "mean", "p05/p95", "cf", "throughput")
	for _, r := range out.Utilization {
		fmt.Printf(
			"%-4d %-16s %-6s %-8s %-10.3g %-10.3g %-8.3g/%-8.3g %-8.3f %-12.4g\n",
			r.Rank,
			r.Asset,
			r.Role,
			r.Region,
			r.Capacity,
			r.MeanLevel,
			r.P05Level,
			r.P95Level,
			r.CapacityFactor,
			r.Throughput,
		)
	}
}

func cmdIndex(args []string) {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	dataPath := fs.String("data", "", "JSON dataset or CSV directory")
	name := fs.String("scenario", "", "Catalog scenario name (used when --data is empty)")
	catalogPath := fs.String("catalog", "", "Optional YAML scenario catalog")
	year := fs.String("year", data.SampleYear, "Active year")
	_ = fs.Parse(args)

	var ds data.Dataset
	var err error
	switch {
	case *dataPath != "":
		ds, err = data.Load(*dataPath)
	case *name != "":
		ds, _, err = loadCatalog(*catalogPath).Open(*name)
	default:
		fmt.Println("--data or --scenario is required")
		os.Exit(2)
	}
	if err != nil {
		panic(err)
	}
	tables, err := data.Parse(ds)
	if err != nil {
		panic(err)
	}
	sets, err := index.Build(tables, *year)
	if err != nil {
		panic(err)
	}

	fmt.Printf("year=%s carriers=%d regions=%d assets=%d (of %d) weeks=%d hours=%d\n",
		sets.Year, len(sets.Carriers), len(sets.Regions), len(sets.Assets), len(tables.Assets),
		len(sets.Weeks), len(sets.Hours))
	fmt.Printf("investable: %s\n", strings.Join(sets.Investable, ", "))
	for _, role := range model.Roles {
		for _, freq := range model.Frequencies {
			ids := sets.RoleFrequency[index.RoleFrequency{Role: role, Frequency: freq}]
			if len(ids) == 0 {
				continue
			}
			fmt.Printf("  %-5s %-7s %s\n", role, freq, strings.Join(ids, ", "))
		}
	}

	keys := make([]index.Key, 0, len(sets.Triples))
	for k := range sets.Triples {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	for _, k := range keys {
		fmt.Printf("%s:\n", k)
		for _, t := range sets.Triples[k] {
			fmt.Printf("  (%s, %s, %s)\n", t.Carrier, t.Region, t.Asset)
		}
	}
}

func cmdScenarios(args []string) {
	fs := flag.NewFlagSet("scenarios", flag.ExitOnError)
	catalogPath := fs.String("catalog", "", "Optional YAML scenario catalog")
	_ = fs.Parse(args)

	for _, s := range loadCatalog(*catalogPath).Scenarios {
		src := s.DataFile
		if s.Builtin {
			src = "(built-in)"
		}
		fmt.Printf("%-14s %-8s %-30s %s\n", s.Name, s.Year, src, s.Description)
	}
}

func printPivot(p results.Pivot) {
	fmt.Printf("%-10s %-8s", "region", "carrier")
	for _, c := range p.Columns {
		fmt.Printf(" %12s", c)
	}
	fmt.Printf(" %12s\n", "net")
	for _, r := range p.Rows {
		fmt.Printf("%-10s %-8s", r.Region, r.Carrier)
		for _, c := range p.Columns {
			fmt.Printf(" %12.4g", r.Values[c])
		}
		fmt.Printf(" %12.4g\n", r.Net)
	}
}

func printCapacities(caps []results.CapacityRow) {
	fmt.Printf("%-16s %-6s %-8s %10s %10s %10s %10s\n", "asset", "role", "region", "initial", "added", "total", "max")
	for _, c := range caps {
		fmt.Printf("%-16s %-6s %-8s %10.4g %10.4g %10.4g %10.4g\n",
			c.Asset, c.Role, c.Region, c.Initial, c.Added, c.Total, c.Max)
	}
}

func printStorage(st *backtest.Result) {
	fmt.Printf("%-16s %10s %10s %10s %10s %8s %10s %5s\n",
		"storage", "capacity", "charged", "discharged", "losses", "cycles", "max drift", "viol")
	for _, a := range st.Assets {
		fmt.Printf("%-16s %10.4g %10.4g %10.4g %10.4g %8.3f %10.2g %5d\n",
			a.Asset, a.Capacity, a.Charged, a.Discharged, a.Losses, a.Cycles, a.MaxDrift, a.Violations)
	}
}
