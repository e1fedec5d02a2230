package results

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// WriteRowsCSV writes the long table.
func WriteRowsCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	header := []string{
		"asset", "variable", "region", "role", "carrier", "week", "hour",
		"level", "efficiency", "net", "energy",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			r.Asset,
			string(r.Variable),
			r.Region,
			r.Role,
			r.Carrier,
			r.Week,
			r.Hour,
			fmtFloat(r.Level),
			fmtFloat(r.Efficiency),
			fmtFloat(r.Net),
			fmtFloat(r.Energy),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteBalanceCSV(w io.Writer, balance []BalanceRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"region", "role", "carrier", "energy"}); err != nil {
		return err
	}
	for _, b := range balance {
		if err := cw.Write([]string{b.Region, b.Role, b.Carrier, fmtFloat(b.Energy)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteCapacityCSV(w io.Writer, caps []CapacityRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"asset", "role", "region", "initial", "added", "total", "max"}); err != nil {
		return err
	}
	for _, c := range caps {
		rec := []string{
			c.Asset,
			string(c.Role),
			c.Region,
			fmtFloat(c.Initial),
			fmtFloat(c.Added),
			fmtFloat(c.Total),
			fmtFloat(c.Max),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteFiles writes rows.csv, balance.csv and capacity.csv into dir.
func (r *Result) WriteFiles(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	files := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"rows.csv", func(w io.Writer) error { return WriteRowsCSV(w, r.Rows) }},
		{"balance.csv", func(w io.Writer) error { return WriteBalanceCSV(w, r.Balance) }},
		{"capacity.csv", func(w io.Writer) error { return WriteCapacityCSV(w, r.Capacities) }},
	}
	for _, f := range files {
		if err := writeFile(filepath.Join(dir, f.name), f.write); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtFloat(x float64) string {
	if math.IsInf(x, 1) {
		return "Inf"
	}
	return strconv.FormatFloat(x, 'f', 6, 64)
}
