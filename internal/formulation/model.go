// Package formulation turns sets and parameters into a linear program: variables,
// objective and the constraint families.
package formulation

import (
	"fmt"
	"log"
	"sort"
	"strings"

	"expansion-planner/internal/index"
	"expansion-planner/internal/model"
	"expansion-planner/internal/params"
	"expansion-planner/internal/solver"
)

// VarKey identifies a decision variable. Week and Hour are empty for capacity variables.
type VarKey struct {
	Kind  model.VarKind
	Asset string
	Week  string
	Hour  string
}

func (k VarKey) Slot() model.Slot {
	return model.Slot{Week: k.Week, Hour: k.Hour}
}

func (k VarKey) String() string {
	if k.Week == "" && k.Hour == "" {
		return fmt.Sprintf("%s[%s]", k.Kind, k.Asset)
	}
	return fmt.Sprintf("%s[%s,%s,%s]", k.Kind, k.Asset, k.Week, k.Hour)
}

// Family names a group of constraints.
type Family string

const (
	FamilyBalance   Family = "balance"
	FamilyCapacity  Family = "capacity"
	FamilyMinVolume Family = "min_volume"
	FamilyCeiling   Family = "ceiling"
	FamilyStorage   Family = "storage"
)

var Families = []Family{FamilyBalance, FamilyCapacity, FamilyMinVolume, FamilyCeiling, FamilyStorage}

// Stats counts variables per kind and constraints per family.
type Stats struct {
	Variables   map[model.VarKind]int
	Constraints map[Family]int
}

func (s Stats) String() string {
	var parts []string
	kinds := make([]string, 0, len(s.Variables))
	for k := range s.Variables {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%d", k, s.Variables[model.VarKind(k)]))
	}
	for _, f := range Families {
		if n := s.Constraints[f]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", f, n))
		}
	}
	return strings.Join(parts, " ")
}

// Model is one formulated problem plus the namespace needed to read its solution.
type Model struct {
	Problem *solver.Problem
	Keys    []VarKey
	Stats   Stats
	// Weight is the number of real hours one representative slot stands for.
	Weight  float64
	Options Options

	Sets   *index.Sets
	Params *params.Params

	vars map[VarKey]int
}

// Var returns the column of a variable.
func (m *Model) Var(k VarKey) (int, bool) {
	i, ok := m.vars[k]
	return i, ok
}

// Build formulates the problem. Empty subsets produce empty families.
func Build(s *index.Sets, p *params.Params, opts Options) (*Model, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("formulation: %w", err)
	}
	if opts.CarryOver == "" {
		opts.CarryOver = CarryCyclic
	}
	m := &Model{
		Problem: &solver.Problem{},
		Stats: Stats{
			Variables:   make(map[model.VarKind]int),
			Constraints: make(map[Family]int),
		},
		Options: opts,
		Sets:    s,
		Params:  p,
		vars:    make(map[VarKey]int),
	}
	m.Weight = model.TimeStructure{Weeks: s.Weeks, Hours: s.Hours}.Weight(opts.PeriodHours)

	m.declare()
	m.balance()
	m.capacityLimits()
	m.minVolume()
	m.ceilings()
	m.storage()

	log.Printf("[Formulation] %d variables, %d constraints (%s)",
		len(m.Problem.Variables), len(m.Problem.Constraints), m.Stats)
	return m, nil
}

func (m *Model) addVar(k VarKey, cost float64) int {
	i := m.Problem.AddVariable(k.String(), cost)
	m.vars[k] = i
	m.Keys = append(m.Keys, k)
	m.Stats.Variables[k.Kind]++
	return i
}

func (m *Model) addConstraint(f Family, name string, terms []solver.Term, sense solver.Sense, rhs float64) {
	m.Problem.AddConstraint(solver.Constraint{
		Name:  fmt.Sprintf("%s[%s]", f, name),
		Terms: mergeTerms(terms),
		Sense: sense,
		RHS:   rhs,
	})
	m.Stats.Constraints[f]++
}

// declare creates capacity variables for investable assets and the hourly variables
// of every active asset, and sets their costs.
func (m *Model) declare() {
	s, p := m.Sets, m.Params
	costWeight := 1.0
	if m.Options.WeightObjective {
		costWeight = m.Weight
	}

	for _, a := range s.Investable {
		m.addVar(VarKey{Kind: model.VarCapacity, Asset: a}, p.CapitalCost(a)+p.FixedCost(a))
	}
	for _, a := range s.Assets {
		m.Problem.ObjectiveConstant += p.FixedCost(a) * p.InitialCapacity(a)
	}

	slots := s.Slots()
	for _, role := range model.Roles {
		for _, a := range s.ByRole[role] {
			for _, kind := range model.DispatchKinds(role) {
				for _, sl := range slots {
					cost := 0.0
					if kind != model.VarCharge && kind != model.VarVolume {
						cost = costWeight * p.UnitCost(a, sl)
					}
					m.addVar(VarKey{Kind: kind, Asset: a, Week: sl.Week, Hour: sl.Hour}, cost)
				}
			}
		}
	}
}

func (m *Model) hourly(kind model.VarKind, a string, sl model.Slot) int {
	return m.vars[VarKey{Kind: kind, Asset: a, Week: sl.Week, Hour: sl.Hour}]
}

func (m *Model) capacity(a string) (int, bool) {
	i, ok := m.vars[VarKey{Kind: model.VarCapacity, Asset: a}]
	return i, ok
}

// mergeTerms sums repeated variables and drops zero coefficients, keeping first-seen order.
func mergeTerms(in []solver.Term) []solver.Term {
	pos := make(map[int]int, len(in))
	out := make([]solver.Term, 0, len(in))
	for _, t := range in {
		if i, ok := pos[t.Var]; ok {
			out[i].Coef += t.Coef
			continue
		}
		pos[t.Var] = len(out)
		out = append(out, t)
	}
	kept := out[:0]
	for _, t := range out {
		if t.Coef != 0 {
			kept = append(kept, t)
		}
	}
	return kept
}
