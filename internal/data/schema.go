package data

import (
	"fmt"
	"sort"
)

// Columns is one table: column name -> values, all columns of equal length.
type Columns map[string][]any

// Len returns the row count (the length of any column).
func (c Columns) Len() int {
	for _, v := range c {
		return len(v)
	}
	return 0
}

// Dataset is the raw ingestion shape: table name -> columns.
//
// Example (JSON):
//
//	{
//	  "r_data": {"regn": ["dk0", "no0"]},
//	  "e_data": {"ener": ["elec"], "tfrq": ["hourly"]},
//	  ...
//	}
type Dataset map[string]Columns

// Table names.
const (
	TableRegion    = "r_data"
	TableCarrier   = "e_data"
	TableDemand    = "er_data"
	TableAsset     = "a_data"
	TableLink      = "ae_data"
	TableAssetYear = "ay_data"
	TableWeek      = "w_data"
	TableHour      = "h_data"
	TableProfile   = "wh_data"
)

// SchemaError reports a missing table or column, or a malformed table.
type SchemaError struct {
	Table  string
	Column string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema: table %s: %s", e.Table, e.Reason)
	}
	return fmt.Sprintf("schema: table %s column %s: %s", e.Table, e.Column, e.Reason)
}

type tableSpec struct {
	name     string
	required []string
}

var schema = []tableSpec{
	{TableRegion, []string{"regn"}},
	{TableCarrier, []string{"ener", "tfrq"}},
	{TableDemand, []string{"ener", "regn", "lFin", "vFin"}},
	{TableAsset, []string{"asst", "role", "regn", "cstC", "cstV", "vAva"}},
	{TableLink, []string{"asst", "ener", "effi"}},
	{TableAssetYear, []string{"asst", "year", "iniC", "maxC"}},
	{TableWeek, []string{"week"}},
	{TableHour, []string{"hour"}},
	{TableProfile, []string{"week", "hour"}},
}

// columnAliases maps older column spellings onto the canonical ones.
var columnAliases = map[string]string{
	"rgio": "regn",
	"effe": "effi",
}

// Normalize returns a copy of ds with column aliases resolved.
func Normalize(ds Dataset) Dataset {
	out := make(Dataset, len(ds))
	for table, cols := range ds {
		nc := make(Columns, len(cols))
		for name, vals := range cols {
			if canon, ok := columnAliases[name]; ok {
				if _, dup := cols[canon]; !dup {
					name = canon
				}
			}
			nc[name] = vals
		}
		out[table] = nc
	}
	return out
}

// CheckSchema verifies required tables and columns exist and that every table's columns
// have equal length. It runs before any index or parameter work.
func CheckSchema(ds Dataset) error {
	for _, tbl := range schema {
		cols, ok := ds[tbl.name]
		if !ok {
			return &SchemaError{Table: tbl.name, Reason: "missing table"}
		}
		for _, c := range tbl.required {
			if _, ok := cols[c]; !ok {
				return &SchemaError{Table: tbl.name, Column: c, Reason: "missing column"}
			}
		}
		if err := checkLengths(tbl.name, cols); err != nil {
			return err
		}
	}
	return nil
}

func checkLengths(table string, cols Columns) error {
	names := make([]string, 0, len(cols))
	for n := range cols {
		names = append(names, n)
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil
	}
	want := len(cols[names[0]])
	for _, n := range names[1:] {
		if got := len(cols[n]); got != want {
			return &SchemaError{
				Table:  table,
				Column: n,
				Reason: fmt.Sprintf("length %d does not match column %s (length %d)", got, names[0], want),
			}
		}
	}
	return nil
}
