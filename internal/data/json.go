package data

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"expansion-planner/internal/model"
)

// DecodeJSON reads a dict-of-columns dataset. Numbers are kept as json.Number so that
// integer-looking identifiers (weeks, hours) survive unchanged.
func DecodeJSON(r io.Reader) (Dataset, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("failed to decode dataset: %w", err)
	}
	return ds, nil
}

func LoadJSON(path string) (Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()
	return DecodeJSON(f)
}

// SaveJSON writes ds as indented JSON, creating the parent directory.
func SaveJSON(ds Dataset, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	raw, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal dataset: %w", err)
	}
	if err := os.WriteFile(path, raw, 0644); err != nil {
		return fmt.Errorf("failed to write dataset: %w", err)
	}
	return nil
}

// Load reads a dataset from a JSON file or a directory of CSV tables.
func Load(path string) (Dataset, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadCSVDir(path)
	}
	return LoadJSON(path)
}

// LoadTables is Load followed by Parse.
func LoadTables(path string) (*model.Tables, error) {
	ds, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Parse(ds)
}
