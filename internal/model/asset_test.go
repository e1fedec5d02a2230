package model

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestAssetValidate(t *testing.T) {
	ok := Asset{ID: "wind_dk0", Role: RolePrimary, Region: "dk0"}
	assert.NilError(t, ok.Validate())

	link := Asset{ID: "line_dk0_no0", Role: RoleTransmission, Region: "dk0", Destination: "no0"}
	assert.NilError(t, link.Validate())

	noDest := Asset{ID: "line", Role: RoleTransmission, Region: "dk0"}
	assert.ErrorContains(t, noDest.Validate(), "needs a destination")

	loop := Asset{ID: "line", Role: RoleTransmission, Region: "dk0", Destination: "dk0"}
	assert.ErrorContains(t, loop.Validate(), "must differ")

	strayDest := Asset{ID: "ccgt", Role: RoleTransformation, Region: "dk0", Destination: "no0"}
	assert.ErrorContains(t, strayDest.Validate(), "only transmission")

	badRole := Asset{ID: "x", Role: Role("fcon"), Region: "dk0"}
	assert.ErrorContains(t, badRole.Validate(), "invalid role")

	badEff := Asset{ID: "bat", Role: RoleStorage, Region: "dk0", ChargeEfficiency: 1.2}
	assert.ErrorContains(t, badEff.Validate(), "charge efficiency")
}

func TestStorageDefaults(t *testing.T) {
	a := Asset{ID: "bat", Role: RoleStorage, Region: "dk0", DischargeRatio: 0.5, ChargeEfficiency: 0.9}
	c, d := a.StorageRatios()
	assert.Equal(t, c, 1.0)
	assert.Equal(t, d, 0.5)
	ce, de := a.StorageEfficiencies()
	assert.Equal(t, ce, 0.9)
	assert.Equal(t, de, 1.0)
}

func TestParseEnums(t *testing.T) {
	for in, want := range map[string]Frequency{"hour": Hourly, "hourly": Hourly, "Weekly": Weekly, "y": Yearly} {
		got, err := ParseFrequency(in)
		assert.NilError(t, err)
		assert.Equal(t, got, want)
	}
	_, err := ParseFrequency("daily")
	assert.ErrorContains(t, err, "daily")

	for in, want := range map[string]Role{"prim": RolePrimary, "transformation": RoleTransformation, "trms": RoleTransmission, "Storage": RoleStorage} {
		got, err := ParseRole(in)
		assert.NilError(t, err)
		assert.Equal(t, got, want)
	}
	_, err = ParseRole("fcon")
	assert.ErrorContains(t, err, "fcon")
}

func TestTimeStructureWeight(t *testing.T) {
	ts := TimeStructure{
		Weeks: []string{"w001"},
		Hours: []string{"h003", "h009", "h015", "h021"},
		Profiles: map[string]map[Slot]float64{
			"uniform": {{"w001", "h003"}: 1},
		},
	}
	assert.Equal(t, ts.Weight(HoursPerYear), HoursPerYear/4)
	assert.Equal(t, len(ts.Slots()), 4)

	v, ok := ts.Profile("uniform", Slot{"w001", "h003"})
	assert.Assert(t, ok)
	assert.Equal(t, v, 1.0)
	v, ok = ts.Profile("uniform", Slot{"w001", "h009"})
	assert.Assert(t, ok)
	assert.Equal(t, v, 0.0)
	_, ok = ts.Profile("missing", Slot{"w001", "h003"})
	assert.Assert(t, !ok)

	assert.Equal(t, TimeStructure{}.Weight(HoursPerYear), 0.0)
}
