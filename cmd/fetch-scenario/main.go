package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"expansion-planner/internal/data"
	"expansion-planner/internal/index"
)

func main() {
	var (
		baseURL = flag.String("base-url", os.Getenv("SCENARIO_SERVER_URL"), "Scenario server base URL")
		names   = flag.String("scenarios", "", "Comma-separated scenario names to download")
		outDir  = flag.String("out", "./scenarios", "Output directory")
		format  = flag.String("format", "json", "Output format: json (one file) or csv (one directory per scenario)")
		year    = flag.String("check-year", "", "Optional: verify the references of the active assets of this year")
		timeout = flag.Duration("timeout", 2*time.Minute, "Overall download timeout")
	)
	flag.Parse()

	token := os.Getenv("SCENARIO_SERVER_TOKEN")
	list := splitNames(*names)
	if len(list) == 0 {
		log.Fatal("--scenarios is required")
	}
	if *format != "json" && *format != "csv" {
		log.Fatalf("unsupported format %q", *format)
	}

	fetcher := data.NewFetcher(*baseURL, token)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	fmt.Printf("Downloading %d scenarios from %s\n", len(list), *baseURL)
	failed := 0
	for _, name := range list {
		ds, err := fetcher.Fetch(ctx, name)
		if err != nil {
			fmt.Printf("  ⚠️  %s: %v\n", name, err)
			failed++
			continue
		}
		if *year != "" {
			if err := check(ds, *year); err != nil {
				fmt.Printf("  ⚠️  %s: %v\n", name, err)
				failed++
				continue
			}
		}

		var path string
		if *format == "csv" {
			path = filepath.Join(*outDir, name)
			err = data.WriteCSVDir(ds, path)
		} else {
			path = filepath.Join(*outDir, name+".json")
			err = data.SaveJSON(ds, path)
		}
		if err != nil {
			log.Fatalf("Failed to save %s: %v", name, err)
		}
		fmt.Printf("  ✓ %s -> %s\n", name, path)
	}

	fmt.Printf("Saved %d/%d scenarios to %s\n", len(list)-failed, len(list), *outDir)
	if failed > 0 {
		os.Exit(1)
	}
}

// check parses the dataset and builds its index for year.
func check(ds data.Dataset, year string) error {
	tables, err := data.Parse(ds)
	if err != nil {
		return err
	}
	sets, err := index.Build(tables, year)
	if err != nil {
		return err
	}
	if len(sets.Assets) == 0 {
		return fmt.Errorf("no asset is active in %s", year)
	}
	return nil
}

func splitNames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
