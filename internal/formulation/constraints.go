package formulation

import (
	"fmt"
	"math"

	"expansion-planner/internal/index"
	"expansion-planner/internal/model"
	"expansion-planner/internal/solver"
)

// flow is one asset variable entering a balance with a signed coefficient.
type flow struct {
	kind  model.VarKind
	asset string
	coef  float64
}

// flows lists the contributions to the balance of carrier e in region r at frequency f.
//
// Transmission enters twice: at the home region exports leave unscaled and imports
// arrive scaled by efficiency; at the destination exports arrive scaled and imports
// leave unscaled.
func (m *Model) flows(e, r string, f model.Frequency) []flow {
	s, p := m.Sets, m.Params
	var out []flow
	for _, a := range s.AssetsFor(index.Key{Role: model.RolePrimary, Frequency: f, Side: index.Home}, e, r) {
		out = append(out, flow{model.VarProduction, a, p.Efficiency(e, a)})
	}
	for _, a := range s.AssetsFor(index.Key{Role: model.RoleTransformation, Frequency: f, Side: index.Home}, e, r) {
		out = append(out, flow{model.VarTransformation, a, p.Efficiency(e, a)})
	}
	for _, a := range s.AssetsFor(index.Key{Role: model.RoleStorage, Frequency: f, Side: index.Home}, e, r) {
		out = append(out, flow{model.VarDischarge, a, 1}, flow{model.VarCharge, a, -1})
	}
	for _, a := range s.AssetsFor(index.Key{Role: model.RoleTransmission, Frequency: f, Side: index.Home}, e, r) {
		out = append(out, flow{model.VarExport, a, -1}, flow{model.VarImport, a, p.Efficiency(e, a)})
	}
	for _, a := range s.AssetsFor(index.Key{Role: model.RoleTransmission, Frequency: f, Side: index.Destination}, e, r) {
		out = append(out, flow{model.VarExport, a, p.Efficiency(e, a)}, flow{model.VarImport, a, -1})
	}
	return out
}

// balance generates supply = demand per (carrier, region) and time group. Hourly
// carriers balance every slot, weekly carriers every week and yearly carriers once.
// Pairs with neither flows nor a demand record get no constraint.
func (m *Model) balance() {
	s, p := m.Sets, m.Params
	for _, e := range s.Carriers {
		freq, _ := s.CarrierFrequency(e)
		groups := m.timeGroups(freq)
		for _, r := range s.Regions {
			fl := m.flows(e, r, freq)
			if len(fl) == 0 && !p.HasDemand(e, r) {
				continue
			}
			for _, g := range groups {
				terms := make([]solver.Term, 0, len(fl)*len(g.slots))
				rhs := 0.0
				for _, sl := range g.slots {
					for _, f := range fl {
						terms = append(terms, solver.Term{Var: m.hourly(f.kind, f.asset, sl), Coef: f.coef})
					}
					rhs += p.Demand(e, r, sl)
				}
				m.addConstraint(FamilyBalance, e+","+r+g.suffix, terms, solver.Equal, rhs)
			}
		}
	}
}

type timeGroup struct {
	suffix string
	slots  []model.Slot
}

func (m *Model) timeGroups(f model.Frequency) []timeGroup {
	s := m.Sets
	switch f {
	case model.Weekly:
		out := make([]timeGroup, 0, len(s.Weeks))
		for _, w := range s.Weeks {
			g := timeGroup{suffix: "," + w}
			for _, h := range s.Hours {
				g.slots = append(g.slots, model.Slot{Week: w, Hour: h})
			}
			out = append(out, g)
		}
		return out
	case model.Yearly:
		return []timeGroup{{slots: s.Slots()}}
	}
	slots := s.Slots()
	out := make([]timeGroup, 0, len(slots))
	for _, sl := range slots {
		out = append(out, timeGroup{suffix: "," + sl.Week + "," + sl.Hour, slots: []model.Slot{sl}})
	}
	return out
}

// capacityRatio is the share of installed capacity a variable kind may use.
func capacityRatio(a model.Asset, kind model.VarKind) float64 {
	charge, discharge := a.StorageRatios()
	switch kind {
	case model.VarCharge:
		return charge
	case model.VarDischarge:
		return discharge
	}
	return 1
}

// capacityLimits bounds every hourly variable:
// x - ratio*ava*C <= ratio*ava*initial.
func (m *Model) capacityLimits() {
	s, p := m.Sets, m.Params
	slots := s.Slots()
	for _, role := range model.Roles {
		for _, id := range s.ByRole[role] {
			a, _ := s.Asset(id)
			c, investable := m.capacity(id)
			ini := p.InitialCapacity(id)
			for _, kind := range model.DispatchKinds(role) {
				ratio := capacityRatio(a, kind)
				for _, sl := range slots {
					k := ratio * p.Availability(id, sl)
					terms := []solver.Term{{Var: m.hourly(kind, id, sl), Coef: 1}}
					if investable {
						terms = append(terms, solver.Term{Var: c, Coef: -k})
					}
					m.addConstraint(FamilyCapacity, fmt.Sprintf("%s,%s,%s,%s", kind, id, sl.Week, sl.Hour),
						terms, solver.LessEqual, k*ini)
				}
			}
		}
	}
}

// minVolume keeps storage above a fraction of its available volume capacity.
func (m *Model) minVolume() {
	frac := m.Options.MinVolumeFraction
	if frac <= 0 {
		return
	}
	s, p := m.Sets, m.Params
	for _, id := range s.ByRole[model.RoleStorage] {
		c, investable := m.capacity(id)
		ini := p.InitialCapacity(id)
		for _, sl := range s.Slots() {
			k := frac * p.Availability(id, sl)
			terms := []solver.Term{{Var: m.hourly(model.VarVolume, id, sl), Coef: 1}}
			if investable {
				terms = append(terms, solver.Term{Var: c, Coef: -k})
			}
			m.addConstraint(FamilyMinVolume, fmt.Sprintf("%s,%s,%s", id, sl.Week, sl.Hour),
				terms, solver.GreaterEqual, k*ini)
		}
	}
}

// ceilings caps capacity additions. An infinite maximum needs no row.
func (m *Model) ceilings() {
	for _, id := range m.Sets.Investable {
		limit := m.Params.MaxCapacity(id)
		if math.IsInf(limit, 1) {
			continue
		}
		c, _ := m.capacity(id)
		m.addConstraint(FamilyCeiling, id, []solver.Term{{Var: c, Coef: 1}}, solver.LessEqual, limit)
	}
}

// storage links volumes across hours:
// V[t] - V[prev] - step*effS*S[t] + step/effD*D[t] = 0.
// The first hour of a week follows the policy in Options.CarryOver.
func (m *Model) storage() {
	s, p := m.Sets, m.Params
	nw, nh := len(s.Weeks), len(s.Hours)
	if nw == 0 || nh == 0 {
		return
	}
	step := m.Options.StepHours
	for _, id := range s.ByRole[model.RoleStorage] {
		a, _ := s.Asset(id)
		effS, effD := a.StorageEfficiencies()
		c, investable := m.capacity(id)
		for wi, w := range s.Weeks {
			for hi, h := range s.Hours {
				sl := model.Slot{Week: w, Hour: h}
				terms := []solver.Term{
					{Var: m.hourly(model.VarVolume, id, sl), Coef: 1},
					{Var: m.hourly(model.VarCharge, id, sl), Coef: -step * effS},
					{Var: m.hourly(model.VarDischarge, id, sl), Coef: step / effD},
				}
				rhs := 0.0
				name := fmt.Sprintf("%s,%s,%s", id, w, h)

				var prev model.Slot
				switch {
				case hi > 0:
					prev = model.Slot{Week: w, Hour: s.Hours[hi-1]}
				case m.Options.CarryOver == CarryForward:
					prev = model.Slot{Week: s.Weeks[(wi+nw-1)%nw], Hour: s.Hours[nh-1]}
				case m.Options.CarryOver == CarryReset:
					f0 := m.Options.InitialVolumeFraction
					if investable {
						terms = append(terms, solver.Term{Var: c, Coef: -f0})
					}
					rhs = f0 * p.InitialCapacity(id)
					m.addConstraint(FamilyStorage, name, terms, solver.Equal, rhs)
					continue
				default:
					prev = model.Slot{Week: w, Hour: s.Hours[nh-1]}
				}
				terms = append(terms, solver.Term{Var: m.hourly(model.VarVolume, id, prev), Coef: -1})
				m.addConstraint(FamilyStorage, name, terms, solver.Equal, rhs)
			}
		}
	}
}
