package solver

import (
	"context"
	"fmt"
	"log"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
)

// DefaultTolerance is used when Simplex.Tolerance is zero.
const DefaultTolerance = 1e-9

const (
	// pivotTolerance is the smallest tableau entry accepted as a pivot.
	pivotTolerance = 1e-9
	// degenerateRun is the number of consecutive pivots that leave the objective
	// unchanged before entering columns are picked by Bland's rule.
	degenerateRun = 50
	// checkEvery is how many standard-form rows are built between ctx checks.
	checkEvery = 256
)

// Simplex is a two-phase dense tableau simplex method.
//
// Problems are converted to standard form (slack columns for inequalities, artificial
// columns where no slack can start the basis). Entering columns follow Dantzig's rule
// and switch to Bland's rule during degenerate stretches, which rules out cycling.
// ctx is checked between pivots, so a timeout stops the work instead of abandoning it.
type Simplex struct {
	Tolerance float64
	// MaxIterations caps the pivots of one solve. Zero derives a cap from the size.
	MaxIterations int
}

func (s *Simplex) Name() string { return "simplex" }

// Solve runs both phases in the calling goroutine.
func (s *Simplex) Solve(ctx context.Context, p *Problem) *Solution {
	start := time.Now()
	sol := s.solve(ctx, p)
	sol.Duration = time.Since(start)
	log.Printf("[Solver] %s: %d variables, %d constraints -> %s (duration: %v)",
		s.Name(), len(p.Variables), len(p.Constraints), sol.Status, sol.Duration)
	return sol
}

func (s *Simplex) solve(ctx context.Context, p *Problem) *Solution {
	if err := p.Validate(); err != nil {
		return &Solution{Status: StatusError, Message: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return timedOut(err)
	}
	tol := s.Tolerance
	if tol <= 0 {
		tol = DefaultTolerance
	}

	sf, status, msg := toStandardForm(ctx, p, tol)
	if status != "" {
		return &Solution{Status: status, Message: msg}
	}

	values := make([]float64, len(p.Variables))
	if len(sf.rows) > 0 {
		t := newTableau(sf, tol)
		limit := s.MaxIterations
		if limit <= 0 {
			limit = 20 * (t.m + t.width)
			if limit < 10000 {
				limit = 10000
			}
		}
		if status, msg := t.run(ctx, limit); status != StatusOptimal {
			return &Solution{Status: status, Message: msg}
		}
		t.values(values)
	}

	obj := p.ObjectiveConstant
	for i, v := range values {
		obj += p.Objective[i] * v
	}
	return &Solution{Status: StatusOptimal, Objective: obj, Values: values}
}

func timedOut(err error) *Solution {
	return &Solution{Status: StatusTimeout, Message: fmt.Sprintf("solve did not complete: %v", err)}
}

// sparseRow is one standard-form equality with a non-negative right-hand side.
type sparseRow struct {
	cols []int
	vals []float64
	rhs  float64
	// slack is the row's own slack column when its coefficient is +1, else -1.
	slack int
}

// standardForm is min c.x, A x = b, x >= 0. Columns past the problem's variables
// are slacks.
type standardForm struct {
	n     int
	width int
	c     []float64
	rows  []sparseRow
}

// toStandardForm merges duplicate terms, drops empty rows that hold trivially and
// decides problems that need no pivoting. A non-empty status ends the solve.
func toStandardForm(ctx context.Context, p *Problem, tol float64) (standardForm, Status, string) {
	n := len(p.Variables)
	sf := standardForm{n: n, width: n}
	used := make([]bool, n)
	acc := make([]float64, n)
	var touched []int

	for i, c := range p.Constraints {
		if i%checkEvery == 0 {
			if err := ctx.Err(); err != nil {
				return sf, StatusTimeout, fmt.Sprintf("solve did not complete: %v", err)
			}
		}
		touched = touched[:0]
		for _, t := range c.Terms {
			if acc[t.Var] == 0 {
				touched = append(touched, t.Var)
			}
			acc[t.Var] += t.Coef
		}
		row := sparseRow{slack: -1, rhs: c.RHS}
		for _, j := range touched {
			if v := acc[j]; v != 0 {
				row.cols = append(row.cols, j)
				row.vals = append(row.vals, v)
				used[j] = true
			}
			acc[j] = 0
		}

		if len(row.cols) == 0 {
			ok := true
			switch c.Sense {
			case Equal:
				ok = math.Abs(c.RHS) <= tol
			case LessEqual:
				ok = c.RHS >= -tol
			case GreaterEqual:
				ok = c.RHS <= tol
			}
			if !ok {
				return sf, StatusInfeasible, fmt.Sprintf("constraint %s is empty with right-hand side %g", c.Name, c.RHS)
			}
			continue
		}

		slackCoef := 0.0
		switch c.Sense {
		case LessEqual:
			slackCoef = 1
		case GreaterEqual:
			slackCoef = -1
		}
		if slackCoef != 0 {
			row.cols = append(row.cols, sf.width)
			row.vals = append(row.vals, slackCoef)
			sf.width++
		}
		if row.rhs < 0 {
			for k := range row.vals {
				row.vals[k] = -row.vals[k]
			}
			row.rhs = -row.rhs
			slackCoef = -slackCoef
		}
		if slackCoef == 1 {
			row.slack = row.cols[len(row.cols)-1]
		}
		sf.rows = append(sf.rows, row)
	}

	for j := 0; j < n; j++ {
		// An unconstrained column sits at 0 unless its cost rewards growth.
		if !used[j] && p.Objective[j] < 0 {
			return sf, StatusUnbounded, fmt.Sprintf("variable %s is unconstrained with negative cost", p.Variables[j].Name)
		}
	}
	sf.c = make([]float64, sf.width)
	copy(sf.c, p.Objective)
	return sf, "", ""
}

// tableau holds m constraint rows and one reduced cost row. The last column is the
// right-hand side; the reduced cost row's right-hand side is minus the objective.
type tableau struct {
	m int
	// n counts structural and slack columns; columns from n to width are artificial.
	n     int
	width int
	a     *mat.Dense
	basis []int
	cost  []float64

	optTol  float64
	feasTol float64
}

func newTableau(sf standardForm, tol float64) *tableau {
	m := len(sf.rows)
	artificial := 0
	for _, r := range sf.rows {
		if r.slack < 0 {
			artificial++
		}
	}
	t := &tableau{
		m:     m,
		n:     sf.width,
		width: sf.width + artificial,
		basis: make([]int, m),
	}
	t.a = mat.NewDense(m+1, t.width+1, nil)
	t.cost = make([]float64, t.width)
	copy(t.cost, sf.c)

	costScale, rhsScale := 1.0, 1.0
	for _, c := range sf.c {
		costScale = math.Max(costScale, math.Abs(c))
	}

	next := sf.width
	for i, r := range sf.rows {
		row := t.a.RawRowView(i)
		for k, j := range r.cols {
			row[j] += r.vals[k]
		}
		row[t.width] = r.rhs
		rhsScale = math.Max(rhsScale, r.rhs)
		if r.slack >= 0 {
			t.basis[i] = r.slack
			continue
		}
		row[next] = 1
		t.basis[i] = next
		next++
	}
	t.optTol = tol * costScale
	t.feasTol = tol * 100 * rhsScale
	return t
}

func (t *tableau) objRow() []float64 { return t.a.RawRowView(t.m) }

func (t *tableau) rhs(i int) float64 { return t.a.At(i, t.width) }

// run performs phase one when artificial columns exist, then phase two.
func (t *tableau) run(ctx context.Context, limit int) (Status, string) {
	z := t.objRow()
	if t.width > t.n {
		for j := range z {
			z[j] = 0
		}
		for j := t.n; j < t.width; j++ {
			z[j] = 1
		}
		for i, b := range t.basis {
			if b >= t.n {
				subtract(z, t.a.RawRowView(i), 1)
			}
		}
		status, msg := t.iterate(ctx, limit)
		switch status {
		case StatusOptimal:
		case StatusUnbounded:
			return StatusError, "phase one reported an unbounded column"
		default:
			return status, msg
		}
		if infeas := -z[t.width]; infeas > t.feasTol {
			return StatusInfeasible, fmt.Sprintf("no feasible point: artificial total %g after phase one", infeas)
		}
		t.dropArtificials()
	}

	for j := range z {
		z[j] = 0
	}
	copy(z, t.cost)
	for i, b := range t.basis {
		if cb := t.cost[b]; cb != 0 {
			subtract(z, t.a.RawRowView(i), cb)
		}
	}
	return t.iterate(ctx, limit)
}

// iterate pivots until no column of [0, n) improves the objective.
func (t *tableau) iterate(ctx context.Context, limit int) (Status, string) {
	z := t.objRow()
	stalled := 0
	for it := 0; ; it++ {
		if err := ctx.Err(); err != nil {
			return StatusTimeout, fmt.Sprintf("solve did not complete: %v", err)
		}
		bland := stalled >= degenerateRun

		enter := -1
		best := -t.optTol
		for j := 0; j < t.n; j++ {
			if z[j] < best {
				enter = j
				if bland {
					break
				}
				best = z[j]
			}
		}
		if enter < 0 {
			return StatusOptimal, ""
		}
		if it >= limit {
			return StatusError, fmt.Sprintf("iteration limit %d reached", limit)
		}

		leave := t.ratioTest(enter, bland)
		if leave < 0 {
			return StatusUnbounded, fmt.Sprintf("column %d can grow without bound", enter)
		}
		if t.rhs(leave) <= t.feasTol {
			stalled++
		} else {
			stalled = 0
		}
		t.pivot(leave, enter)
	}
}

// ratioTest returns the row leaving the basis when column j enters, or -1 when the
// column is unbounded. Ties go to the lowest basic column under Bland's rule and to
// the largest pivot otherwise.
func (t *tableau) ratioTest(j int, bland bool) int {
	leave := -1
	var bestRatio, bestPivot float64
	for i := 0; i < t.m; i++ {
		aij := t.a.At(i, j)
		if aij <= pivotTolerance {
			continue
		}
		ratio := math.Max(t.rhs(i), 0) / aij
		switch {
		case leave < 0 || ratio < bestRatio-pivotTolerance:
		case ratio <= bestRatio+pivotTolerance:
			if bland && t.basis[i] > t.basis[leave] {
				continue
			}
			if !bland && aij <= bestPivot {
				continue
			}
		default:
			continue
		}
		leave, bestRatio, bestPivot = i, ratio, aij
	}
	return leave
}

func (t *tableau) pivot(r, j int) {
	pr := t.a.RawRowView(r)
	inv := 1 / pr[j]
	var nz []int
	for k, v := range pr {
		if v != 0 {
			pr[k] = v * inv
			nz = append(nz, k)
		}
	}
	pr[j] = 1

	for i := 0; i <= t.m; i++ {
		if i == r {
			continue
		}
		row := t.a.RawRowView(i)
		f := row[j]
		if f == 0 {
			continue
		}
		for _, k := range nz {
			row[k] -= f * pr[k]
		}
		row[j] = 0
		if i < t.m && row[t.width] < 0 && row[t.width] > -t.feasTol {
			row[t.width] = 0
		}
	}
	t.basis[r] = j
}

// dropArtificials pivots artificial columns out of the basis after phase one. A row
// with no usable column is redundant and keeps its artificial at zero.
func (t *tableau) dropArtificials() {
	for i, b := range t.basis {
		if b < t.n {
			continue
		}
		row := t.a.RawRowView(i)
		col, best := -1, pivotTolerance
		for j := 0; j < t.n; j++ {
			if a := math.Abs(row[j]); a > best {
				col, best = j, a
			}
		}
		if col >= 0 {
			t.pivot(i, col)
		}
	}
}

// values writes the basic values of the problem's own variables into x.
func (t *tableau) values(x []float64) {
	for i, b := range t.basis {
		if b < len(x) {
			x[b] = math.Max(t.rhs(i), 0)
		}
	}
}

// subtract sets dst -= f * src.
func subtract(dst, src []float64, f float64) {
	for k, v := range src {
		if v != 0 {
			dst[k] -= f * v
		}
	}
}
