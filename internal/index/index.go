// Package index derives every set and subset the formulation iterates over.
package index

import (
	"fmt"
	"log"

	"expansion-planner/internal/model"
)

// Side says which end of an asset a triple is keyed by. Only transmission assets have
// a Destination side.
type Side string

const (
	Home        Side = "home"
	Destination Side = "dest"
)

// Key selects one composite subset.
type Key struct {
	Role      model.Role
	Frequency model.Frequency
	Side      Side
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s/%s", k.Role, k.Frequency, k.Side)
}

// Triple is one (carrier, region, asset) membership.
type Triple struct {
	Carrier string
	Region  string
	Asset   string
}

// RoleFrequency keys the role x frequency asset lists.
type RoleFrequency struct {
	Role      model.Role
	Frequency model.Frequency
}

// ReferenceError is a foreign key that does not resolve.
type ReferenceError struct {
	Table  string
	Column string
	Value  string
	Target string
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("reference: %s.%s value %q is not a known %s", e.Table, e.Column, e.Value, e.Target)
}

// ValidationError reports an asset record that is inconsistent on its own, such as a
// transmission asset without a destination.
type ValidationError struct {
	Asset string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid asset %s: %v", e.Asset, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

type carrierRegion struct {
	carrier string
	region  string
}

// Sets is the output of Build. It is read-only after construction.
type Sets struct {
	Year     string
	Carriers []string
	Regions  []string
	// Assets holds the assets active in Year, in input order.
	Assets []string
	Weeks  []string
	Hours  []string

	ByRole        map[model.Role][]string
	ByFrequency   map[model.Frequency][]string
	RoleFrequency map[RoleFrequency][]string
	Triples       map[Key][]Triple
	Investable    []string

	assets      map[string]model.Asset
	years       map[string]model.AssetYear
	links       map[string][]model.AssetCarrierLink
	carrierFreq map[string]model.Frequency
	regions     map[string]bool
	lookup      map[Key]map[carrierRegion][]string
}

// Build computes the sets for the active year. It fails with a *ReferenceError when an
// active asset points at an unknown region or a link points at an unknown carrier.
func Build(t *model.Tables, year string) (*Sets, error) {
	if t == nil {
		return nil, fmt.Errorf("index: no tables")
	}
	s := &Sets{
		Year:          year,
		ByRole:        make(map[model.Role][]string),
		ByFrequency:   make(map[model.Frequency][]string),
		RoleFrequency: make(map[RoleFrequency][]string),
		Triples:       make(map[Key][]Triple),
		assets:        make(map[string]model.Asset),
		years:         make(map[string]model.AssetYear),
		links:         make(map[string][]model.AssetCarrierLink),
		carrierFreq:   make(map[string]model.Frequency),
		regions:       make(map[string]bool),
		lookup:        make(map[Key]map[carrierRegion][]string),
	}

	for _, r := range t.Regions {
		if !s.regions[r.ID] {
			s.regions[r.ID] = true
			s.Regions = append(s.Regions, r.ID)
		}
	}
	for _, c := range t.Carriers {
		if _, ok := s.carrierFreq[c.ID]; ok {
			continue
		}
		s.carrierFreq[c.ID] = c.Frequency
		s.Carriers = append(s.Carriers, c.ID)
		s.ByFrequency[c.Frequency] = append(s.ByFrequency[c.Frequency], c.ID)
	}
	s.Weeks = dedupe(t.Time.Weeks)
	s.Hours = dedupe(t.Time.Hours)

	for _, y := range t.Years {
		if y.Year != year || !y.Active() {
			continue
		}
		if _, dup := s.years[y.Asset]; dup {
			log.Printf("[Index] Warning: asset %s has more than one %s record, keeping the first", y.Asset, year)
			continue
		}
		s.years[y.Asset] = y
	}

	pruned := 0
	for _, a := range t.Assets {
		y, ok := s.years[a.ID]
		if !ok {
			pruned++
			continue
		}
		if err := a.Validate(); err != nil {
			return nil, &ValidationError{Asset: a.ID, Err: err}
		}
		if !s.regions[a.Region] {
			return nil, &ReferenceError{Table: "a_data", Column: "regn", Value: a.Region, Target: "region"}
		}
		if a.Role == model.RoleTransmission && !s.regions[a.Destination] {
			return nil, &ReferenceError{Table: "a_data", Column: "dest", Value: a.Destination, Target: "region"}
		}
		s.assets[a.ID] = a
		s.Assets = append(s.Assets, a.ID)
		s.ByRole[a.Role] = append(s.ByRole[a.Role], a.ID)
		if y.Investable() {
			s.Investable = append(s.Investable, a.ID)
		}
	}
	// Year records of assets missing from the asset table are dropped with them.
	for id := range s.years {
		if _, ok := s.assets[id]; !ok {
			delete(s.years, id)
		}
	}
	if pruned > 0 {
		log.Printf("[Index] Pruned %d assets with no capacity in %s", pruned, year)
	}

	for _, d := range t.Demands {
		if _, ok := s.carrierFreq[d.Carrier]; !ok {
			return nil, &ReferenceError{Table: "er_data", Column: "ener", Value: d.Carrier, Target: "carrier"}
		}
		if !s.regions[d.Region] {
			return nil, &ReferenceError{Table: "er_data", Column: "regn", Value: d.Region, Target: "region"}
		}
	}

	seenRF := make(map[RoleFrequency]map[string]bool)
	for _, l := range t.Links {
		a, ok := s.assets[l.Asset]
		if !ok {
			continue
		}
		freq, ok := s.carrierFreq[l.Carrier]
		if !ok {
			return nil, &ReferenceError{Table: "ae_data", Column: "ener", Value: l.Carrier, Target: "carrier"}
		}
		s.links[a.ID] = append(s.links[a.ID], l)

		rf := RoleFrequency{a.Role, freq}
		if seenRF[rf] == nil {
			seenRF[rf] = make(map[string]bool)
		}
		if !seenRF[rf][a.ID] {
			seenRF[rf][a.ID] = true
			s.RoleFrequency[rf] = append(s.RoleFrequency[rf], a.ID)
		}

		s.add(Key{a.Role, freq, Home}, Triple{l.Carrier, a.Region, a.ID})
		if a.Role == model.RoleTransmission {
			s.add(Key{a.Role, freq, Destination}, Triple{l.Carrier, a.Destination, a.ID})
		}
	}
	return s, nil
}

func (s *Sets) add(k Key, t Triple) {
	s.Triples[k] = append(s.Triples[k], t)
	m := s.lookup[k]
	if m == nil {
		m = make(map[carrierRegion][]string)
		s.lookup[k] = m
	}
	cr := carrierRegion{t.Carrier, t.Region}
	m[cr] = append(m[cr], t.Asset)
}

// AssetsFor returns the assets of subset k linked to carrier in region. A miss is an
// empty result, never an error.
func (s *Sets) AssetsFor(k Key, carrier, region string) []string {
	return s.lookup[k][carrierRegion{carrier, region}]
}

// Asset returns an active asset.
func (s *Sets) Asset(id string) (model.Asset, bool) {
	a, ok := s.assets[id]
	return a, ok
}

// YearRecord returns the active-year record of an asset (zero value when pruned).
func (s *Sets) YearRecord(id string) model.AssetYear {
	return s.years[id]
}

// Links returns the carrier links of an active asset in input order.
func (s *Sets) Links(id string) []model.AssetCarrierLink {
	return s.links[id]
}

// CarrierFrequency reports the trading frequency of a carrier.
func (s *Sets) CarrierFrequency(id string) (model.Frequency, bool) {
	f, ok := s.carrierFreq[id]
	return f, ok
}

func (s *Sets) IsInvestable(id string) bool {
	return s.years[id].Investable()
}

// HasRegion reports whether id is a known region.
func (s *Sets) HasRegion(id string) bool {
	return s.regions[id]
}

// Slots returns the week x hour grid in week-major order.
func (s *Sets) Slots() []model.Slot {
	return model.TimeStructure{Weeks: s.Weeks, Hours: s.Hours}.Slots()
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
