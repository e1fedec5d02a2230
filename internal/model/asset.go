package model

import (
	"errors"
	"fmt"
	"math"
)

// Region is a geographic balancing area.
type Region struct {
	ID string
}

// Carrier is an energy form with its own balance equations.
type Carrier struct {
	ID        string
	Frequency Frequency
}

// Asset is one modelled piece of infrastructure.
// Units:
// - costs: money per unit of capacity (capital, fixed) or per unit of dispatch (variable)
// - ratios and efficiencies: dimensionless
type Asset struct {
	ID     string
	Role   Role
	Region string
	// Destination is the far end of a transmission link; empty for every other role.
	Destination string

	CapitalCost  float64
	FixedCost    float64
	VariableCost float64

	// AvailabilityProfile names a column of the week x hour profile table.
	AvailabilityProfile string
	// CostProfile scales VariableCost; empty means a constant 1.
	CostProfile string

	// Storage only. Charge and discharge capacity as a ratio of volume capacity (<= 0 means 1).
	ChargeRatio    float64
	DischargeRatio float64
	// Storage only. Efficiencies in (0, 1]; 0 means 1.
	ChargeEfficiency    float64
	DischargeEfficiency float64
}

func (a Asset) Validate() error {
	if a.ID == "" {
		return errors.New("asset id is required")
	}
	if !a.Role.Valid() {
		return fmt.Errorf("asset %s: invalid role %q", a.ID, a.Role)
	}
	if a.Region == "" {
		return fmt.Errorf("asset %s: region is required", a.ID)
	}
	if a.Role == RoleTransmission {
		if a.Destination == "" {
			return fmt.Errorf("asset %s: transmission asset needs a destination region", a.ID)
		}
		if a.Destination == a.Region {
			return fmt.Errorf("asset %s: destination must differ from home region %s", a.ID, a.Region)
		}
	} else if a.Destination != "" {
		return fmt.Errorf("asset %s: only transmission assets may have a destination (got %q)", a.ID, a.Destination)
	}
	if a.CapitalCost < 0 || a.FixedCost < 0 {
		return fmt.Errorf("asset %s: capital and fixed cost must be >= 0", a.ID)
	}
	if a.ChargeEfficiency < 0 || a.ChargeEfficiency > 1 {
		return fmt.Errorf("asset %s: charge efficiency must be in (0, 1]", a.ID)
	}
	if a.DischargeEfficiency < 0 || a.DischargeEfficiency > 1 {
		return fmt.Errorf("asset %s: discharge efficiency must be in (0, 1]", a.ID)
	}
	return nil
}

// StorageRatios returns the charge and discharge capacity ratios with defaults applied.
func (a Asset) StorageRatios() (charge, discharge float64) {
	charge, discharge = a.ChargeRatio, a.DischargeRatio
	if charge <= 0 {
		charge = 1
	}
	if discharge <= 0 {
		discharge = 1
	}
	return charge, discharge
}

// StorageEfficiencies returns the charge and discharge efficiencies with defaults applied.
func (a Asset) StorageEfficiencies() (charge, discharge float64) {
	charge, discharge = a.ChargeEfficiency, a.DischargeEfficiency
	if charge == 0 {
		charge = 1
	}
	if discharge == 0 {
		discharge = 1
	}
	return charge, discharge
}

// AssetCarrierLink ties an asset to a carrier it consumes (negative) or produces (positive).
type AssetCarrierLink struct {
	Asset      string
	Carrier    string
	Efficiency float64
}

// AssetYear holds the capacity bounds of an asset in one modelling year.
type AssetYear struct {
	Asset           string
	Year            string
	InitialCapacity float64
	MaxCapacity     float64
}

// Active reports whether the record keeps its asset in the model.
func (y AssetYear) Active() bool {
	return y.InitialCapacity > 0 || y.MaxCapacity > 0
}

// Investable reports whether capacity may be added.
func (y AssetYear) Investable() bool {
	return y.MaxCapacity > 0 && !math.IsNaN(y.MaxCapacity)
}

// Demand is final consumption of a carrier in a region.
// Hourly demand = Level * value of Profile at (week, hour).
type Demand struct {
	Carrier string
	Region  string
	Level   float64
	Profile string
}
