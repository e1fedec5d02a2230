package backtest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// WriteLedgerCSV writes the replay ledger.
func WriteLedgerCSV(w io.Writer, ledger []LedgerRow) error {
	cw := csv.NewWriter(w)

	header := []string{
		"index",
		"asset",
		"region",
		"week",
		"hour",
		"action",
		"charge",
		"discharge",
		"stored",
		"released",
		"losses",
		"volume_start",
		"volume_end",
		"solved_volume",
		"drift",
		"cum_losses",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			r.Asset,
			r.Region,
			r.Week,
			r.Hour,
			string(r.Action),
			fmtFloat(r.Charge),
			fmtFloat(r.Discharge),
			fmtFloat(r.Stored),
			fmtFloat(r.Released),
			fmtFloat(r.Losses),
			fmtFloat(r.VolumeStart),
			fmtFloat(r.VolumeEnd),
			fmtFloat(r.SolvedVolume),
			fmtFloat(r.Drift),
			fmtFloat(r.CumLosses),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteLedgerFile writes the ledger to path, creating its directory.
func WriteLedgerFile(path string, ledger []LedgerRow) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLedgerCSV(f, ledger); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
