package index

import (
	"errors"
	"sort"
	"testing"

	"gotest.tools/v3/assert"

	"expansion-planner/internal/data"
	"expansion-planner/internal/model"
)

func nordic(t *testing.T) *model.Tables {
	t.Helper()
	ds, err := data.Sample(data.SampleNordic)
	assert.NilError(t, err)
	tbl, err := data.Parse(ds)
	assert.NilError(t, err)
	return tbl
}

func TestBuildPrunesInactiveAssets(t *testing.T) {
	s, err := Build(nordic(t), data.SampleYear)
	assert.NilError(t, err)

	assert.Equal(t, len(s.Assets), 8)
	_, ok := s.Asset("nucl_se0")
	assert.Assert(t, !ok)
	for _, tr := range s.Triples[Key{model.RolePrimary, model.Hourly, Home}] {
		assert.Assert(t, tr.Asset != "nucl_se0")
	}
	// y2030 rows do not leak into the y2020 set.
	assert.Equal(t, s.YearRecord("wind_dk0").InitialCapacity, 2.0)
	assert.DeepEqual(t, s.Investable, []string{"wind_dk0", "ccgt_se0", "hpmp_dk0", "line_dk0_no0", "batt_dk0"})
}

func TestRoleSubsetsPartitionAssets(t *testing.T) {
	s, err := Build(nordic(t), data.SampleYear)
	assert.NilError(t, err)

	seen := make(map[string]int)
	for _, r := range model.Roles {
		for _, a := range s.ByRole[r] {
			seen[a]++
			got, _ := s.Asset(a)
			assert.Equal(t, got.Role, r)
		}
	}
	assert.Equal(t, len(seen), len(s.Assets))
	for a, n := range seen {
		assert.Equal(t, n, 1, a)
	}
}

func TestTransmissionDuality(t *testing.T) {
	s, err := Build(nordic(t), data.SampleYear)
	assert.NilError(t, err)

	home := Key{model.RoleTransmission, model.Hourly, Home}
	dest := Key{model.RoleTransmission, model.Hourly, Destination}
	for _, id := range s.ByRole[model.RoleTransmission] {
		a, _ := s.Asset(id)
		count := func(k Key, region string) int {
			n := 0
			for _, tr := range s.Triples[k] {
				if tr.Asset == id && tr.Region == region && tr.Carrier == "elec" {
					n++
				}
			}
			return n
		}
		assert.Equal(t, count(home, a.Region), 1, id)
		assert.Equal(t, count(dest, a.Destination), 1, id)
		assert.Equal(t, count(home, a.Destination), 0, id)
		assert.Equal(t, count(dest, a.Region), 0, id)
	}
	assert.DeepEqual(t, s.AssetsFor(dest, "elec", "no0"), []string{"line_dk0_no0"})
	assert.DeepEqual(t, s.AssetsFor(home, "elec", "no0"), []string{"line_no0_se0"})
	assert.Equal(t, len(s.Triples[Key{model.RolePrimary, model.Hourly, Destination}]), 0)
}

func TestRoleFrequencySubsets(t *testing.T) {
	s, err := Build(nordic(t), data.SampleYear)
	assert.NilError(t, err)

	assert.DeepEqual(t, s.RoleFrequency[RoleFrequency{model.RoleTransformation, model.Yearly}], []string{"ccgt_se0"})
	assert.DeepEqual(t, s.RoleFrequency[RoleFrequency{model.RoleTransformation, model.Weekly}], []string{"hpmp_dk0"})
	assert.DeepEqual(t, s.RoleFrequency[RoleFrequency{model.RoleTransformation, model.Hourly}], []string{"ccgt_se0", "hpmp_dk0"})
	assert.DeepEqual(t, s.ByFrequency[model.Yearly], []string{"gas"})
	assert.Equal(t, len(s.AssetsFor(Key{model.RoleStorage, model.Hourly, Home}, "heat", "dk0")), 0)
}

func TestBuildIsIdempotent(t *testing.T) {
	tbl := nordic(t)
	a, err := Build(tbl, data.SampleYear)
	assert.NilError(t, err)
	b, err := Build(tbl, data.SampleYear)
	assert.NilError(t, err)

	assert.DeepEqual(t, sorted(a.Assets), sorted(b.Assets))
	assert.Equal(t, len(a.Triples), len(b.Triples))
	for k, ts := range a.Triples {
		assert.DeepEqual(t, sortTriples(ts), sortTriples(b.Triples[k]))
	}
	for r, ids := range a.ByRole {
		assert.DeepEqual(t, sorted(ids), sorted(b.ByRole[r]))
	}
}

func TestReferenceErrors(t *testing.T) {
	tbl := nordic(t)
	tbl.Assets[0].Region = "fi0"
	_, err := Build(tbl, data.SampleYear)
	var re *ReferenceError
	assert.Assert(t, errors.As(err, &re))
	assert.Equal(t, re.Value, "fi0")

	tbl = nordic(t)
	for i := range tbl.Assets {
		if tbl.Assets[i].ID == "line_dk0_no0" {
			tbl.Assets[i].Destination = "fi0"
		}
	}
	_, err = Build(tbl, data.SampleYear)
	assert.ErrorContains(t, err, `a_data.dest value "fi0"`)

	tbl = nordic(t)
	tbl.Links = append(tbl.Links, model.AssetCarrierLink{Asset: "wind_dk0", Carrier: "h2", Efficiency: 1})
	_, err = Build(tbl, data.SampleYear)
	assert.ErrorContains(t, err, "not a known carrier")

	// A pruned asset with a dangling region is not inspected.
	tbl = nordic(t)
	for i := range tbl.Assets {
		if tbl.Assets[i].ID == "nucl_se0" {
			tbl.Assets[i].Region = "fi0"
		}
	}
	_, err = Build(tbl, data.SampleYear)
	assert.NilError(t, err)
}

func TestInvalidAssetErrors(t *testing.T) {
	cases := map[string]func(a *model.Asset){
		"needs a destination": func(a *model.Asset) { a.Destination = "" },
		"must differ":         func(a *model.Asset) { a.Destination = a.Region },
		"only transmission":   func(a *model.Asset) { a.Role = model.RolePrimary },
	}
	for want, mutate := range cases {
		tbl := nordic(t)
		for i := range tbl.Assets {
			if tbl.Assets[i].ID == "line_dk0_no0" {
				mutate(&tbl.Assets[i])
			}
		}
		_, err := Build(tbl, data.SampleYear)
		var ve *ValidationError
		assert.Assert(t, errors.As(err, &ve), "%s: %v", want, err)
		assert.Equal(t, ve.Asset, "line_dk0_no0")
		assert.ErrorContains(t, err, want)
	}
}

func TestOrphanLinksDropped(t *testing.T) {
	tbl := nordic(t)
	tbl.Links = append(tbl.Links, model.AssetCarrierLink{Asset: "ghost", Carrier: "elec", Efficiency: 1})
	s, err := Build(tbl, data.SampleYear)
	assert.NilError(t, err)
	assert.Equal(t, len(s.Links("ghost")), 0)
	assert.Equal(t, len(s.Links("nucl_se0")), 0)
}

func TestEmptyYear(t *testing.T) {
	s, err := Build(nordic(t), "y1990")
	assert.NilError(t, err)
	assert.Equal(t, len(s.Assets), 0)
	assert.Equal(t, len(s.Triples), 0)
	assert.Equal(t, len(s.Slots()), 8)
}

func sorted(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}

func sortTriples(in []Triple) []Triple {
	out := append([]Triple(nil), in...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Asset != out[j].Asset {
			return out[i].Asset < out[j].Asset
		}
		if out[i].Carrier != out[j].Carrier {
			return out[i].Carrier < out[j].Carrier
		}
		return out[i].Region < out[j].Region
	})
	return out
}
