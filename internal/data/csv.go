package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
)

// ReadCSVTable reads one table with a header row. Cells stay strings; Parse converts them.
func ReadCSVTable(r io.Reader) (Columns, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Columns{}, nil
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(Columns, len(header))
	for _, h := range header {
		cols[h] = []any{}
	}
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		for i, h := range header {
			cols[h] = append(cols[h], rec[i])
		}
	}
	return cols, nil
}

// LoadCSVDir reads every table from <dir>/<table>.csv. Missing files are left for
// CheckSchema to report.
func LoadCSVDir(dir string) (Dataset, error) {
	ds := make(Dataset)
	for _, tbl := range schema {
		path := filepath.Join(dir, tbl.name+".csv")
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		cols, err := ReadCSVTable(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("table %s: %w", tbl.name, err)
		}
		ds[tbl.name] = cols
	}
	return ds, nil
}

// WriteCSVDir writes ds as one CSV file per table with columns in sorted order.
func WriteCSVDir(ds Dataset, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	for table, cols := range ds {
		if err := writeCSVTable(filepath.Join(dir, table+".csv"), cols); err != nil {
			return fmt.Errorf("table %s: %w", table, err)
		}
	}
	return nil
}

func writeCSVTable(path string, cols Columns) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	names := make([]string, 0, len(cols))
	for n := range cols {
		names = append(names, n)
	}
	sort.Strings(names)

	w := csv.NewWriter(f)
	if err := w.Write(names); err != nil {
		return err
	}
	r := reader{cols: cols}
	for i := 0; i < cols.Len(); i++ {
		row := make([]string, len(names))
		for j, n := range names {
			row[j] = r.str(n, i)
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
