package data

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"expansion-planner/internal/model"
)

func TestParseSingleCarrierSample(t *testing.T) {
	ds, err := Sample(SampleSingleCarrier)
	assert.NilError(t, err)
	tbl, err := Parse(ds)
	assert.NilError(t, err)

	assert.Equal(t, len(tbl.Regions), 1)
	assert.Equal(t, tbl.Carriers[0], model.Carrier{ID: "elec", Frequency: model.Hourly})
	assert.Equal(t, tbl.Assets[0].Role, model.RolePrimary)
	assert.Equal(t, tbl.Years[0].MaxCapacity, 1000.0)
	assert.DeepEqual(t, tbl.Time.Hours, []string{"h003", "h009", "h015", "h021"})
	v, ok := tbl.Time.Profile("uniform", model.Slot{Week: "w001", Hour: "h015"})
	assert.Assert(t, ok)
	assert.Equal(t, v, 1.0)
}

func TestParseAllSamples(t *testing.T) {
	for _, name := range SampleNames() {
		ds, err := Sample(name)
		assert.NilError(t, err)
		_, err = Parse(ds)
		assert.NilError(t, err, name)
	}
	_, err := Sample("nope")
	assert.ErrorContains(t, err, "unknown sample")
}

func TestCheckSchemaMissingTable(t *testing.T) {
	ds, _ := Sample(SampleSingleCarrier)
	delete(ds, TableHour)
	_, err := Parse(ds)
	var se *SchemaError
	assert.Assert(t, errors.As(err, &se))
	assert.Equal(t, se.Table, TableHour)
	assert.ErrorContains(t, err, "missing table")
}

func TestCheckSchemaMissingColumn(t *testing.T) {
	ds, _ := Sample(SampleSingleCarrier)
	delete(ds[TableAsset], "vAva")
	err := CheckSchema(ds)
	assert.ErrorContains(t, err, "column vAva: missing column")
}

func TestCheckSchemaLengthMismatch(t *testing.T) {
	ds, _ := Sample(SampleSingleCarrier)
	ds[TableLink]["effi"] = col(1.0, 2.0)
	err := CheckSchema(ds)
	assert.ErrorContains(t, err, "does not match")
}

func TestNormalizeAliases(t *testing.T) {
	ds, _ := Sample(SampleSingleCarrier)
	ds[TableAsset]["rgio"] = ds[TableAsset]["regn"]
	delete(ds[TableAsset], "regn")
	ds[TableLink]["effe"] = ds[TableLink]["effi"]
	delete(ds[TableLink], "effi")

	tbl, err := Parse(ds)
	assert.NilError(t, err)
	assert.Equal(t, tbl.Assets[0].Region, "dk_0")
	assert.Equal(t, tbl.Links[0].Efficiency, 1.0)
}

func TestParseRejectsDuplicates(t *testing.T) {
	ds, _ := Sample(SampleSingleCarrier)
	ds[TableLink] = Columns{"asst": col("sopv_dk0", "sopv_dk0"), "ener": col("elec", "elec"), "effi": col(1.0, 1.0)}
	_, err := Parse(ds)
	assert.ErrorContains(t, err, "duplicate (asset, carrier) pair")

	ds, _ = Sample(SampleHeatPump)
	ds[TableAsset]["asst"] = col("sopv_dk0", "sopv_dk0")
	_, err = Parse(ds)
	assert.ErrorContains(t, err, "duplicate asset")
}

func TestParseBadValues(t *testing.T) {
	ds, _ := Sample(SampleSingleCarrier)
	ds[TableAsset]["role"] = col("fcon")
	_, err := Parse(ds)
	assert.ErrorContains(t, err, "column role")

	ds, _ = Sample(SampleSingleCarrier)
	ds[TableAssetYear]["maxC"] = col("lots")
	_, err = Parse(ds)
	assert.ErrorContains(t, err, `"lots" is not a number`)

	ds, _ = Sample(SampleSingleCarrier)
	ds[TableAssetYear]["maxC"] = col("Inf")
	tbl, err := Parse(ds)
	assert.NilError(t, err)
	assert.Assert(t, math.IsInf(tbl.Years[0].MaxCapacity, 1))
}

func TestJSONRoundTrip(t *testing.T) {
	ds, _ := Sample(SampleHeatPump)
	path := filepath.Join(t.TempDir(), "out", "hp.json")
	assert.NilError(t, SaveJSON(ds, path))

	tbl, err := LoadTables(path)
	assert.NilError(t, err)
	assert.Equal(t, len(tbl.Links), 3)
	assert.Equal(t, tbl.Links[2].Efficiency, 3.0)
}

func TestDecodeJSONKeepsIdentifiers(t *testing.T) {
	raw := `{"w_data": {"week": [1, 2]}, "h_data": {"hour": [10]}}`
	ds, err := DecodeJSON(strings.NewReader(raw))
	assert.NilError(t, err)
	ts, err := parseTime(ds)
	assert.NilError(t, err)
	assert.DeepEqual(t, ts.Weeks, []string{"1", "2"})
	assert.DeepEqual(t, ts.Hours, []string{"10"})
}

func TestCSVDirRoundTrip(t *testing.T) {
	ds, _ := Sample(SampleNordic)
	dir := t.TempDir()
	assert.NilError(t, WriteCSVDir(ds, dir))

	tbl, err := LoadTables(dir)
	assert.NilError(t, err)
	assert.Equal(t, len(tbl.Assets), 9)
	a, ok := tbl.AssetByID("line_dk0_no0")
	assert.Assert(t, ok)
	assert.Equal(t, a.Destination, "no0")
	v, _ := tbl.Time.Profile("wind", model.Slot{Week: "w02", Hour: "h04"})
	assert.Equal(t, v, 1.0)
}

func TestLoadCSVDirMissingTable(t *testing.T) {
	dir := t.TempDir()
	assert.NilError(t, os.WriteFile(filepath.Join(dir, TableRegion+".csv"), []byte("regn\ndk0\n"), 0644))
	_, err := LoadTables(dir)
	assert.ErrorContains(t, err, "missing table")
}

func TestCache(t *testing.T) {
	c := NewCache[int](time.Minute)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	assert.Assert(t, ok)
	assert.Equal(t, v, 1)
	assert.Equal(t, c.Len(), 1)

	now = now.Add(2 * time.Minute)
	_, ok = c.Get("a")
	assert.Assert(t, !ok)
	assert.Equal(t, c.Prune(), 1)

	var disabled *Cache[int]
	disabled.Set("a", 1)
	_, ok = disabled.Get("a")
	assert.Assert(t, !ok)
	assert.Assert(t, NewCache[int](0) == nil)

	assert.Equal(t, CacheKey("a", "b"), CacheKey("a", "b"))
	assert.Assert(t, CacheKey("a", "b") != CacheKey("ab"))
}

func TestFetcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ds.json")
	sample, _ := Sample(SampleSingleCarrier)
	assert.NilError(t, SaveJSON(sample, path))
	raw, err := os.ReadFile(path)
	assert.NilError(t, err)

	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Path != "/scenarios/"+SampleSingleCarrier+".json" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Write(raw)
	}))
	defer srv.Close()

	f := NewFetcher(srv.URL+"/", "secret")
	f.Cache = NewCache[Dataset](time.Minute)

	ds, err := f.Fetch(context.Background(), SampleSingleCarrier)
	assert.NilError(t, err)
	_, err = Parse(ds)
	assert.NilError(t, err)

	_, err = f.Fetch(context.Background(), SampleSingleCarrier)
	assert.NilError(t, err)
	assert.Equal(t, atomic.LoadInt32(&hits), int32(1))

	_, err = f.Fetch(context.Background(), "missing")
	var fe *FetchError
	assert.Assert(t, errors.As(err, &fe))
	assert.Equal(t, fe.Code, "NOT_FOUND")

	bad := NewFetcher(srv.URL, "wrong")
	_, err = bad.Fetch(context.Background(), SampleSingleCarrier)
	assert.Assert(t, errors.As(err, &fe))
	assert.Equal(t, fe.StatusCode, http.StatusUnauthorized)
}

func TestCatalog(t *testing.T) {
	dir := t.TempDir()
	ds, _ := Sample(SampleHeatPump)
	assert.NilError(t, SaveJSON(ds, filepath.Join(dir, "hp.json")))
	yml := "scenarios:\n  - name: heatpump\n    description: custom\n    data_file: hp.json\n    year: y2020\n"
	path := filepath.Join(dir, "catalog.yaml")
	assert.NilError(t, os.WriteFile(path, []byte(yml), 0644))

	c, err := LoadCatalog(path)
	assert.NilError(t, err)
	assert.Equal(t, len(c.Scenarios), 1+len(SampleNames()))

	got, info, err := c.Open("heatpump")
	assert.NilError(t, err)
	assert.Equal(t, info.Year, "y2020")
	assert.Equal(t, got[TableLink].Len(), 3)

	_, info, err = c.Open(SampleNordic)
	assert.NilError(t, err)
	assert.Assert(t, info.Builtin)

	_, _, err = c.Open("nope")
	assert.ErrorContains(t, err, "unknown scenario")
}
