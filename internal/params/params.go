// Package params computes the numeric coefficients of the model by joining the entity
// tables and expanding named profile columns into per-slot values.
package params

import (
	"log"

	"expansion-planner/internal/index"
	"expansion-planner/internal/model"
)

// AssetSlot keys hourly asset parameters.
type AssetSlot struct {
	Asset string
	model.Slot
}

// CarrierAsset keys conversion efficiencies.
type CarrierAsset struct {
	Carrier string
	Asset   string
}

// DemandSlot keys hourly final consumption.
type DemandSlot struct {
	Carrier string
	Region  string
	model.Slot
}

type carrierRegion struct {
	carrier string
	region  string
}

// Params holds every coefficient. Lookups of missing keys return 0.
type Params struct {
	availability map[AssetSlot]float64
	unitCost     map[AssetSlot]float64
	demand       map[DemandSlot]float64
	hasDemand    map[carrierRegion]bool
	efficiency   map[CarrierAsset]float64

	initial map[string]float64
	maximum map[string]float64
	capital map[string]float64
	fixed   map[string]float64
}

// Build expands the profiles of every active asset and every demand record.
// Unknown profile columns read as 0 and are logged once each.
func Build(t *model.Tables, s *index.Sets) *Params {
	p := &Params{
		availability: make(map[AssetSlot]float64),
		unitCost:     make(map[AssetSlot]float64),
		demand:       make(map[DemandSlot]float64),
		hasDemand:    make(map[carrierRegion]bool),
		efficiency:   make(map[CarrierAsset]float64),
		initial:      make(map[string]float64),
		maximum:      make(map[string]float64),
		capital:      make(map[string]float64),
		fixed:        make(map[string]float64),
	}
	ts := t.Time
	slots := s.Slots()
	warned := make(map[string]bool)
	column := func(name string) bool {
		if ts.HasProfile(name) {
			return true
		}
		if !warned[name] {
			warned[name] = true
			log.Printf("[Params] Warning: profile column %q not found, using 0", name)
		}
		return false
	}

	for _, id := range s.Assets {
		a, _ := s.Asset(id)
		y := s.YearRecord(id)
		p.initial[id] = y.InitialCapacity
		p.maximum[id] = y.MaxCapacity
		p.capital[id] = a.CapitalCost
		p.fixed[id] = a.FixedCost
		for _, l := range s.Links(id) {
			p.efficiency[CarrierAsset{l.Carrier, id}] = l.Efficiency
		}

		if column(a.AvailabilityProfile) {
			for _, sl := range slots {
				v, _ := ts.Profile(a.AvailabilityProfile, sl)
				if v != 0 {
					p.availability[AssetSlot{id, sl}] = v
				}
			}
		}

		if a.VariableCost == 0 {
			continue
		}
		if a.CostProfile == "" {
			for _, sl := range slots {
				p.unitCost[AssetSlot{id, sl}] = a.VariableCost
			}
			continue
		}
		if column(a.CostProfile) {
			for _, sl := range slots {
				v, _ := ts.Profile(a.CostProfile, sl)
				if v != 0 {
					p.unitCost[AssetSlot{id, sl}] = a.VariableCost * v
				}
			}
		}
	}

	for _, d := range t.Demands {
		cr := carrierRegion{d.Carrier, d.Region}
		p.hasDemand[cr] = true
		if !column(d.Profile) {
			continue
		}
		for _, sl := range slots {
			v, _ := ts.Profile(d.Profile, sl)
			if v != 0 {
				// Repeated records for one (carrier, region) add up.
				p.demand[DemandSlot{d.Carrier, d.Region, sl}] += d.Level * v
			}
		}
	}
	return p
}

// Availability is the fraction of capacity usable by asset at slot.
func (p *Params) Availability(asset string, s model.Slot) float64 {
	return p.availability[AssetSlot{asset, s}]
}

// UnitCost is the variable cost of one unit of dispatch at slot.
func (p *Params) UnitCost(asset string, s model.Slot) float64 {
	return p.unitCost[AssetSlot{asset, s}]
}

// Demand is final consumption of carrier in region at slot.
func (p *Params) Demand(carrier, region string, s model.Slot) float64 {
	return p.demand[DemandSlot{carrier, region, s}]
}

// HasDemand reports whether any demand record exists for (carrier, region).
func (p *Params) HasDemand(carrier, region string) bool {
	return p.hasDemand[carrierRegion{carrier, region}]
}

// Efficiency is the signed conversion coefficient of asset for carrier.
func (p *Params) Efficiency(carrier, asset string) float64 {
	return p.efficiency[CarrierAsset{carrier, asset}]
}

func (p *Params) InitialCapacity(asset string) float64 { return p.initial[asset] }
func (p *Params) MaxCapacity(asset string) float64     { return p.maximum[asset] }
func (p *Params) CapitalCost(asset string) float64     { return p.capital[asset] }
func (p *Params) FixedCost(asset string) float64       { return p.fixed[asset] }
