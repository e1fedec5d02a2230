package data

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"expansion-planner/internal/model"
)

// Parse checks the schema of ds and converts it into entity tables.
func Parse(ds Dataset) (*model.Tables, error) {
	ds = Normalize(ds)
	if err := CheckSchema(ds); err != nil {
		return nil, err
	}

	t := &model.Tables{}
	var err error

	r := reader{table: TableRegion, cols: ds[TableRegion]}
	for i := 0; i < r.cols.Len(); i++ {
		t.Regions = append(t.Regions, model.Region{ID: r.str("regn", i)})
	}

	r = reader{table: TableCarrier, cols: ds[TableCarrier]}
	for i := 0; i < r.cols.Len(); i++ {
		c := model.Carrier{ID: r.str("ener", i)}
		if c.Frequency, err = model.ParseFrequency(r.str("tfrq", i)); err != nil {
			return nil, &SchemaError{Table: r.table, Column: "tfrq", Reason: err.Error()}
		}
		t.Carriers = append(t.Carriers, c)
	}

	if t.Assets, err = parseAssets(ds[TableAsset]); err != nil {
		return nil, err
	}
	if t.Links, err = parseLinks(ds[TableLink]); err != nil {
		return nil, err
	}

	r = reader{table: TableAssetYear, cols: ds[TableAssetYear]}
	for i := 0; i < r.cols.Len(); i++ {
		y := model.AssetYear{Asset: r.str("asst", i), Year: r.str("year", i)}
		if y.InitialCapacity, err = r.num("iniC", i); err != nil {
			return nil, err
		}
		if y.MaxCapacity, err = r.num("maxC", i); err != nil {
			return nil, err
		}
		t.Years = append(t.Years, y)
	}

	r = reader{table: TableDemand, cols: ds[TableDemand]}
	for i := 0; i < r.cols.Len(); i++ {
		d := model.Demand{Carrier: r.str("ener", i), Region: r.str("regn", i), Profile: r.str("vFin", i)}
		if d.Level, err = r.num("lFin", i); err != nil {
			return nil, err
		}
		t.Demands = append(t.Demands, d)
	}

	if t.Time, err = parseTime(ds); err != nil {
		return nil, err
	}
	return t, nil
}

func parseAssets(cols Columns) ([]model.Asset, error) {
	r := reader{table: TableAsset, cols: cols}
	seen := make(map[string]bool)
	out := make([]model.Asset, 0, cols.Len())
	for i := 0; i < cols.Len(); i++ {
		a := model.Asset{
			ID:                  r.str("asst", i),
			Region:              r.str("regn", i),
			Destination:         r.str("dest", i),
			AvailabilityProfile: r.str("vAva", i),
			CostProfile:         r.str("vCst", i),
		}
		if seen[a.ID] {
			return nil, &SchemaError{Table: r.table, Column: "asst", Reason: fmt.Sprintf("duplicate asset %q", a.ID)}
		}
		seen[a.ID] = true

		role, err := model.ParseRole(r.str("role", i))
		if err != nil {
			return nil, &SchemaError{Table: r.table, Column: "role", Reason: err.Error()}
		}
		a.Role = role

		fields := []struct {
			col string
			dst *float64
		}{
			{"cstC", &a.CapitalCost},
			{"cstF", &a.FixedCost},
			{"cstV", &a.VariableCost},
			{"ratSV", &a.ChargeRatio},
			{"ratDV", &a.DischargeRatio},
			{"effS", &a.ChargeEfficiency},
			{"effD", &a.DischargeEfficiency},
		}
		for _, f := range fields {
			if *f.dst, err = r.num(f.col, i); err != nil {
				return nil, err
			}
		}
		out = append(out, a)
	}
	return out, nil
}

func parseLinks(cols Columns) ([]model.AssetCarrierLink, error) {
	r := reader{table: TableLink, cols: cols}
	type pair struct{ asset, carrier string }
	seen := make(map[pair]bool)
	out := make([]model.AssetCarrierLink, 0, cols.Len())
	for i := 0; i < cols.Len(); i++ {
		l := model.AssetCarrierLink{Asset: r.str("asst", i), Carrier: r.str("ener", i)}
		k := pair{l.Asset, l.Carrier}
		if seen[k] {
			return nil, &SchemaError{
				Table:  r.table,
				Reason: fmt.Sprintf("duplicate (asset, carrier) pair (%s, %s)", l.Asset, l.Carrier),
			}
		}
		seen[k] = true
		var err error
		if l.Efficiency, err = r.num("effi", i); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func parseTime(ds Dataset) (model.TimeStructure, error) {
	ts := model.TimeStructure{Profiles: make(map[string]map[model.Slot]float64)}

	r := reader{table: TableWeek, cols: ds[TableWeek]}
	ts.Weeks = uniqueStrings(r, "week")
	r = reader{table: TableHour, cols: ds[TableHour]}
	ts.Hours = uniqueStrings(r, "hour")

	r = reader{table: TableProfile, cols: ds[TableProfile]}
	for name := range r.cols {
		if name == "week" || name == "hour" {
			continue
		}
		col := make(map[model.Slot]float64, r.cols.Len())
		for i := 0; i < r.cols.Len(); i++ {
			v, err := r.num(name, i)
			if err != nil {
				return ts, err
			}
			col[model.Slot{Week: r.str("week", i), Hour: r.str("hour", i)}] = v
		}
		ts.Profiles[name] = col
	}
	return ts, nil
}

func uniqueStrings(r reader, col string) []string {
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < r.cols.Len(); i++ {
		s := r.str(col, i)
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// reader reads typed cells from one table. Optional columns read as zero values.
type reader struct {
	table string
	cols  Columns
}

func (r reader) str(col string, i int) string {
	vals, ok := r.cols[col]
	if !ok || i >= len(vals) {
		return ""
	}
	switch v := vals[i].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (r reader) num(col string, i int) (float64, error) {
	vals, ok := r.cols[col]
	if !ok || i >= len(vals) {
		return 0, nil
	}
	switch v := vals[i].(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, r.badNumber(col, i, v.String())
		}
		return f, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		switch strings.ToLower(s) {
		case "inf", "+inf", "infinity":
			return math.Inf(1), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, r.badNumber(col, i, s)
		}
		return f, nil
	}
	return 0, r.badNumber(col, i, fmt.Sprint(vals[i]))
}

func (r reader) badNumber(col string, i int, raw string) error {
	return &SchemaError{Table: r.table, Column: col, Reason: fmt.Sprintf("row %d: %q is not a number", i, raw)}
}
