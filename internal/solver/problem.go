// Package solver defines the request/response contract between the formulation and an
// LP solver, plus the pure-Go simplex implementation of it.
package solver

import (
	"context"
	"fmt"
	"math"
	"time"
)

// Sense is the relation of a constraint's left-hand side to its right-hand side.
type Sense string

const (
	LessEqual    Sense = "<="
	GreaterEqual Sense = ">="
	Equal        Sense = "="
)

// Term is coefficient x variable.
type Term struct {
	Var  int
	Coef float64
}

// Constraint is sum(Terms) Sense RHS.
type Constraint struct {
	Name  string
	Terms []Term
	Sense Sense
	RHS   float64
}

// Variable is a continuous decision variable with lower bound 0 and no upper bound.
// Upper limits are expressed as constraints.
type Variable struct {
	Name string
}

// Problem is: minimize Objective . x + ObjectiveConstant subject to Constraints, x >= 0.
type Problem struct {
	Variables []Variable
	// Objective holds one cost per variable.
	Objective         []float64
	ObjectiveConstant float64
	Constraints       []Constraint
}

// AddVariable appends a variable and returns its column.
func (p *Problem) AddVariable(name string, cost float64) int {
	p.Variables = append(p.Variables, Variable{Name: name})
	p.Objective = append(p.Objective, cost)
	return len(p.Variables) - 1
}

func (p *Problem) AddConstraint(c Constraint) {
	p.Constraints = append(p.Constraints, c)
}

// Validate checks indices, senses and that every number is finite.
func (p *Problem) Validate() error {
	if len(p.Objective) != len(p.Variables) {
		return fmt.Errorf("objective has %d coefficients for %d variables", len(p.Objective), len(p.Variables))
	}
	for i, c := range p.Objective {
		if !finite(c) {
			return fmt.Errorf("objective coefficient of %s is %v", p.Variables[i].Name, c)
		}
	}
	if !finite(p.ObjectiveConstant) {
		return fmt.Errorf("objective constant is %v", p.ObjectiveConstant)
	}
	for _, c := range p.Constraints {
		switch c.Sense {
		case LessEqual, GreaterEqual, Equal:
		default:
			return fmt.Errorf("constraint %s: unknown sense %q", c.Name, c.Sense)
		}
		if !finite(c.RHS) {
			return fmt.Errorf("constraint %s: right-hand side is %v", c.Name, c.RHS)
		}
		for _, t := range c.Terms {
			if t.Var < 0 || t.Var >= len(p.Variables) {
				return fmt.Errorf("constraint %s: variable %d out of range", c.Name, t.Var)
			}
			if !finite(t.Coef) {
				return fmt.Errorf("constraint %s: coefficient of %s is %v", c.Name, p.Variables[t.Var].Name, t.Coef)
			}
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// Status is the outcome of a solve.
type Status string

const (
	StatusOptimal    Status = "optimal"
	StatusInfeasible Status = "infeasible"
	StatusUnbounded  Status = "unbounded"
	StatusError      Status = "error"
	// StatusTimeout means the solve was abandoned before it completed.
	StatusTimeout Status = "timeout"
)

// Solution is the solver's answer. Values is only meaningful when Status is optimal.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
	Message   string
	Duration  time.Duration
}

// Optimal reports whether the solution may be interpreted.
func (s *Solution) Optimal() bool {
	return s != nil && s.Status == StatusOptimal
}

// Value returns the value of variable i, 0 when unknown.
func (s *Solution) Value(i int) float64 {
	if s == nil || i < 0 || i >= len(s.Values) {
		return 0
	}
	return s.Values[i]
}

// Solver turns a Problem into a Solution. Failures are reported through Status;
// implementations must return promptly once ctx is done.
type Solver interface {
	Name() string
	Solve(ctx context.Context, p *Problem) *Solution
}

// New returns the solver registered under name.
func New(name string, tolerance float64) (Solver, error) {
	switch name {
	case "", "simplex":
		return &Simplex{Tolerance: tolerance}, nil
	}
	return nil, fmt.Errorf("unknown solver %q", name)
}
