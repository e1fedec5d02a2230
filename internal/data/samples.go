package data

import (
	"fmt"
	"sort"
)

// Sample names.
const (
	SampleSingleCarrier = "1r1e1a1w4h"
	SampleHeatPump      = "1r2e2a1w4h"
	SampleNordic        = "nordic"
)

// SampleYear is the active year of every built-in sample.
const SampleYear = "y2020"

var samples = map[string]func() Dataset{
	SampleSingleCarrier: singleCarrierSample,
	SampleHeatPump:      heatPumpSample,
	SampleNordic:        nordicSample,
}

// SampleNames lists the built-in datasets in sorted order.
func SampleNames() []string {
	out := make([]string, 0, len(samples))
	for n := range samples {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Sample returns a fresh copy of a built-in dataset.
func Sample(name string) (Dataset, error) {
	build, ok := samples[name]
	if !ok {
		return nil, fmt.Errorf("unknown sample %q", name)
	}
	return build(), nil
}

func col(vals ...any) []any { return vals }

// repeat returns n copies of v.
func repeat(v any, n int) []any {
	out := make([]any, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// grid returns the week and hour columns of a full week x hour table.
func grid(weeks, hours []string) (w, h []any) {
	for _, wk := range weeks {
		for _, hr := range hours {
			w = append(w, wk)
			h = append(h, hr)
		}
	}
	return w, h
}

func strs(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// singleCarrierSample: one region, one hourly carrier, one solar asset, four
// representative hours of a single week, constant demand of 1.
func singleCarrierSample() Dataset {
	weeks := []string{"w001"}
	hours := []string{"h003", "h009", "h015", "h021"}
	w, h := grid(weeks, hours)
	n := len(w)
	return Dataset{
		TableRegion:  {"regn": col("dk_0")},
		TableCarrier: {"ener": col("elec"), "tfrq": col("hourly")},
		TableDemand: {
			"ener": col("elec"), "regn": col("dk_0"),
			"lFin": col(1.0), "vFin": col("uniform"),
		},
		TableAsset: {
			"asst": col("sopv_dk0"), "role": col("prim"), "regn": col("dk_0"), "dest": col(""),
			"cstC": col(1.0), "cstF": col(0.0), "cstV": col(1.0),
			"vAva": col("uniform"), "vCst": col("uniform"),
		},
		TableLink:      {"asst": col("sopv_dk0"), "ener": col("elec"), "effi": col(1.0)},
		TableAssetYear: {"asst": col("sopv_dk0"), "year": col(SampleYear), "iniC": col(1000.0), "maxC": col(1000.0)},
		TableWeek:      {"week": strs(weeks)},
		TableHour:      {"hour": strs(hours)},
		TableProfile:   {"week": w, "hour": h, "uniform": repeat(1.0, n)},
	}
}

// heatPumpSample adds a heat carrier served by a heat pump with a COP of 3.
func heatPumpSample() Dataset {
	ds := singleCarrierSample()
	ds[TableCarrier] = Columns{"ener": col("elec", "heat"), "tfrq": col("hourly", "hourly")}
	ds[TableDemand] = Columns{
		"ener": col("elec", "heat"), "regn": col("dk_0", "dk_0"),
		"lFin": col(1.0, 1.0), "vFin": col("uniform", "uniform"),
	}
	ds[TableAsset] = Columns{
		"asst": col("sopv_dk0", "hpmp_dk0"), "role": col("prim", "tfrm"), "regn": col("dk_0", "dk_0"),
		"dest": col("", ""), "cstC": col(1.0, 1.0), "cstF": col(0.0, 0.0), "cstV": col(1.0, 0.0),
		"vAva": col("uniform", "uniform"), "vCst": col("uniform", "uniform"),
	}
	ds[TableLink] = Columns{
		"asst": col("sopv_dk0", "hpmp_dk0", "hpmp_dk0"),
		"ener": col("elec", "elec", "heat"),
		"effi": col(1.0, -1.0, 3.0),
	}
	ds[TableAssetYear] = Columns{
		"asst": col("sopv_dk0", "hpmp_dk0"), "year": col(SampleYear, SampleYear),
		"iniC": col(1000.0, 1000.0), "maxC": col(1000.0, 1000.0),
	}
	return ds
}

// nordicSample is a three-region system with transmission, storage and carriers at
// every trading frequency (hourly elec, weekly heat, yearly gas).
func nordicSample() Dataset {
	weeks := []string{"w01", "w02"}
	hours := []string{"h01", "h02", "h03", "h04"}
	w, h := grid(weeks, hours)
	n := len(w)

	return Dataset{
		TableRegion:  {"regn": col("dk0", "no0", "se0")},
		TableCarrier: {"ener": col("elec", "heat", "gas"), "tfrq": col("hourly", "weekly", "yearly")},
		TableDemand: {
			"ener": col("elec", "elec", "elec", "heat"),
			"regn": col("dk0", "no0", "se0", "dk0"),
			"lFin": col(2.0, 2.0, 2.0, 1.0),
			"vFin": col("load", "load", "load", "uniform"),
		},
		TableAsset: {
			"asst":  col("wind_dk0", "hydr_no0", "ngas_se0", "ccgt_se0", "hpmp_dk0", "line_dk0_no0", "line_no0_se0", "batt_dk0", "nucl_se0"),
			"role":  col("prim", "prim", "prim", "tfrm", "tfrm", "trms", "trms", "stor", "prim"),
			"regn":  col("dk0", "no0", "se0", "se0", "dk0", "dk0", "no0", "dk0", "se0"),
			"dest":  col("", "", "", "", "", "no0", "se0", "", ""),
			"cstC":  col(50.0, 0.0, 0.0, 30.0, 40.0, 10.0, 0.0, 5.0, 200.0),
			"cstF":  col(1.0, 2.0, 0.0, 1.0, 1.0, 0.5, 0.5, 0.2, 4.0),
			"cstV":  col(0.0, 5.0, 20.0, 2.0, 0.0, 0.1, 0.1, 0.0, 1.0),
			"vAva":  col("wind", "uniform", "uniform", "uniform", "uniform", "uniform", "uniform", "uniform", "uniform"),
			"vCst":  col("", "", "", "", "", "", "", "", ""),
			"ratSV": col(0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.25, 0.0),
			"ratDV": col(0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.25, 0.0),
			"effS":  col(0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.95, 0.0),
			"effD":  col(0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.95, 0.0),
		},
		TableLink: {
			"asst": col("wind_dk0", "hydr_no0", "ngas_se0", "ccgt_se0", "ccgt_se0", "hpmp_dk0", "hpmp_dk0", "line_dk0_no0", "line_no0_se0", "batt_dk0", "nucl_se0"),
			"ener": col("elec", "elec", "gas", "gas", "elec", "elec", "heat", "elec", "elec", "elec", "elec"),
			"effi": col(1.0, 1.0, 1.0, -1.0, 0.55, -1.0, 3.0, 0.97, 0.98, 1.0, 1.0),
		},
		// nucl_se0 has neither initial nor investable capacity and is pruned.
		TableAssetYear: {
			"asst": col("wind_dk0", "hydr_no0", "ngas_se0", "ccgt_se0", "hpmp_dk0", "line_dk0_no0", "line_no0_se0", "batt_dk0", "nucl_se0", "wind_dk0"),
			"year": col(SampleYear, SampleYear, SampleYear, SampleYear, SampleYear, SampleYear, SampleYear, SampleYear, SampleYear, "y2030"),
			"iniC": col(2.0, 3.0, 10.0, 2.0, 0.0, 2.0, 1.0, 0.0, 0.0, 4.0),
			"maxC": col(10.0, 0.0, 0.0, 5.0, 5.0, 4.0, 0.0, 20.0, 0.0, 20.0),
		},
		TableWeek: {"week": strs(weeks)},
		TableHour: {"hour": strs(hours)},
		TableProfile: {
			"week":    w,
			"hour":    h,
			"uniform": repeat(1.0, n),
			"wind":    col(0.9, 0.6, 0.2, 0.4, 0.1, 0.3, 0.8, 1.0),
			"load":    col(0.8, 1.0, 1.2, 1.0, 0.9, 1.1, 1.0, 0.8),
		},
	}
}
