package results

import (
	"math"
	"sort"

	"expansion-planner/internal/model"
)

// roleOrder puts asset roles first, final consumption last.
func roleOrder(role string) int {
	for i, r := range model.Roles {
		if string(r) == role {
			return i
		}
	}
	return len(model.Roles)
}

// Aggregate sums row energies by (region, role, carrier). Output is sorted by region,
// carrier, then role.
func Aggregate(rows []Row) []BalanceRow {
	type key struct{ region, role, carrier string }
	sums := make(map[key]float64)
	var keys []key
	for _, r := range rows {
		k := key{r.Region, r.Role, r.Carrier}
		if _, ok := sums[k]; !ok {
			keys = append(keys, k)
		}
		sums[k] += r.Energy
	}
	out := make([]BalanceRow, 0, len(keys))
	for _, k := range keys {
		out = append(out, BalanceRow{Region: k.region, Role: k.role, Carrier: k.carrier, Energy: sums[k]})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Region != b.Region {
			return a.Region < b.Region
		}
		if a.Carrier != b.Carrier {
			return a.Carrier < b.Carrier
		}
		return roleOrder(a.Role) < roleOrder(b.Role)
	})
	return out
}

// Lookup returns the energy of one (region, role, carrier) cell, 0 when absent.
func Lookup(balance []BalanceRow, region, role, carrier string) float64 {
	for _, b := range balance {
		if b.Region == region && b.Role == role && b.Carrier == carrier {
			return b.Energy
		}
	}
	return 0
}

// PivotRow is one (region, carrier) line of the pivoted balance.
type PivotRow struct {
	Region  string             `json:"region"`
	Carrier string             `json:"carrier"`
	Values  map[string]float64 `json:"values"`
	Net     float64            `json:"net"`
}

// Pivot is the balance with roles as columns.
type Pivot struct {
	Columns []string   `json:"columns"`
	Rows    []PivotRow `json:"rows"`
}

// PivotBalance spreads the roles of each (region, carrier) into columns and adds the net.
func PivotBalance(balance []BalanceRow) Pivot {
	var p Pivot
	seenCol := make(map[string]bool)
	pos := make(map[[2]string]int)
	for _, b := range balance {
		if !seenCol[b.Role] {
			seenCol[b.Role] = true
			p.Columns = append(p.Columns, b.Role)
		}
		k := [2]string{b.Region, b.Carrier}
		i, ok := pos[k]
		if !ok {
			i = len(p.Rows)
			pos[k] = i
			p.Rows = append(p.Rows, PivotRow{Region: b.Region, Carrier: b.Carrier, Values: make(map[string]float64)})
		}
		p.Rows[i].Values[b.Role] += b.Energy
		p.Rows[i].Net += b.Energy
	}
	sort.Slice(p.Columns, func(i, j int) bool { return roleOrder(p.Columns[i]) < roleOrder(p.Columns[j]) })
	return p
}

// Imbalances returns pivot rows whose net energy is off by more than tol relative to
// the largest flow in the row. Losses are already inside the balance rows, so an
// optimal solution only leaves solver tolerance residue here.
func Imbalances(p Pivot, tol float64) []PivotRow {
	var out []PivotRow
	for _, r := range p.Rows {
		scale := 1.0
		for _, v := range r.Values {
			scale = math.Max(scale, math.Abs(v))
		}
		if math.Abs(r.Net) > tol*scale {
			out = append(out, r)
		}
	}
	return out
}
