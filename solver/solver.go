// Package solver calibrates curve node values to market instrument quotes.
//
// A solver owns one or more curves and a list of calibration instruments with
// target quotes. Solve runs a damped Gauss-Newton iteration: instrument rates
// are evaluated with first-order automatic differentiation, the Jacobian is
// read off the dual-number gradients, and node values are updated until every
// weighted residual is within tolerance. Solvers can be chained: pre-solved
// curves are read by dependent instruments but never mutated.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/internal/linalg"
)

var (
	// ErrConstruction is returned for malformed solver inputs.
	ErrConstruction = errors.New("solver: invalid construction")
	// ErrNonConvergence is returned when the iteration cap is reached before
	// every residual is within tolerance.
	ErrNonConvergence = errors.New("solver: failed to converge")
	// ErrSingular is returned when the Jacobian is rank-deficient, typically
	// more free node values than independent instrument constraints.
	ErrSingular = errors.New("solver: singular jacobian")
	// ErrCyclicDependency is returned when the pre-solver graph contains a
	// cycle, directly or transitively.
	ErrCyclicDependency = errors.New("solver: cyclic pre-solver dependency")
	// ErrCancelled is returned when the context is cancelled between
	// iterations.
	ErrCancelled = errors.New("solver: cancelled")
)

// Instrument is the calibration contract. Rate evaluates the instrument's
// model value off the curves it references; Label identifies it in
// diagnostics. Instruments must not mutate curve state.
type Instrument interface {
	Label() string
	Rate() (dual.Dual, error)
}

// State tracks solver progress.
type State int

const (
	Uninitialized State = iota
	Iterating
	Converged
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Iterating:
		return "iterating"
	case Converged:
		return "converged"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Options holds convergence parameters. Zero values select the defaults.
type Options struct {
	// Tolerance is the maximum absolute weighted residual accepted as
	// converged. Default 1e-12.
	Tolerance float64

	// MaxIterations caps the Gauss-Newton loop. Default 100.
	MaxIterations int

	// Damping limits the per-variable step size to Damping * max(1, |value|)
	// to prevent overshooting. Default 0.5.
	Damping float64

	// MinValue is the floor applied to updated node values, keeping discount
	// factors strictly positive. Default 1e-9.
	MinValue float64
}

func (o Options) withDefaults() Options {
	if o.Tolerance == 0 {
		o.Tolerance = 1e-12
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = 100
	}
	if o.Damping == 0 {
		o.Damping = 0.5
	}
	if o.MinValue == 0 {
		o.MinValue = 1e-9
	}
	return o
}

// Config assembles a solver. Curves listed here are owned and mutated by
// Solve; curves reachable only through PreSolvers are read-only inputs.
type Config struct {
	ID          string
	Curves      []*curve.Curve
	Instruments []Instrument
	Targets     []float64
	// Weights scales each residual; nil means 1.0 everywhere. Regularization
	// instruments use a near-zero weight (1e-8 by convention) so they bias
	// shape without materially affecting fit.
	Weights    []float64
	PreSolvers []*Solver
	Options    Options
	Logger     *zap.Logger
}

type freeVar struct {
	curve int // index into curves
	node  int // node index within that curve
}

// Solver calibrates its owned curves' node values to instrument targets.
type Solver struct {
	id          string
	curves      []*curve.Curve
	instruments []Instrument
	targets     []float64
	weights     []float64
	preSolvers  []*Solver
	opts        Options
	log         *zap.Logger

	vars     []freeVar
	varNames []string

	state      State
	iterations int
	jacobian   [][]float64
}

// New validates the configuration, checks the pre-solver graph for cycles and
// for ownership overlap, and returns a solver in the Uninitialized state.
func New(cfg Config) (*Solver, error) {
	if len(cfg.Curves) == 0 {
		return nil, fmt.Errorf("%w: no curves to calibrate", ErrConstruction)
	}
	if len(cfg.Instruments) == 0 {
		return nil, fmt.Errorf("%w: no calibration instruments", ErrConstruction)
	}
	if len(cfg.Targets) != len(cfg.Instruments) {
		return nil, fmt.Errorf("%w: %d targets for %d instruments",
			ErrConstruction, len(cfg.Targets), len(cfg.Instruments))
	}
	if cfg.Weights != nil && len(cfg.Weights) != len(cfg.Instruments) {
		return nil, fmt.Errorf("%w: %d weights for %d instruments",
			ErrConstruction, len(cfg.Weights), len(cfg.Instruments))
	}
	weights := cfg.Weights
	if weights == nil {
		weights = make([]float64, len(cfg.Instruments))
		for i := range weights {
			weights[i] = 1.0
		}
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	s := &Solver{
		id:          cfg.ID,
		curves:      cfg.Curves,
		instruments: cfg.Instruments,
		targets:     cfg.Targets,
		weights:     weights,
		preSolvers:  cfg.PreSolvers,
		opts:        cfg.Options.withDefaults(),
		log:         log,
		state:       Uninitialized,
	}

	// Free variables: every node except each curve's anchor.
	for ci, c := range s.curves {
		for ni := 1; ni < c.Len(); ni++ {
			s.vars = append(s.vars, freeVar{curve: ci, node: ni})
			s.varNames = append(s.varNames, c.VarName(ni))
		}
	}

	if err := s.checkGraph(); err != nil {
		return nil, err
	}
	return s, nil
}

// AddPreSolver links an already-constructed solver as a dependency. The
// combined graph is re-checked so a cycle fails here, before any iteration.
func (s *Solver) AddPreSolver(pre *Solver) error {
	s.preSolvers = append(s.preSolvers, pre)
	if err := s.checkGraph(); err != nil {
		s.preSolvers = s.preSolvers[:len(s.preSolvers)-1]
		return err
	}
	return nil
}

// checkGraph walks the pre-solver graph: a repeat on the DFS stack is a
// cycle, and a pre-solver owning one of this solver's curves would let a
// dependent solve mutate supposedly fixed values.
func (s *Solver) checkGraph() error {
	onStack := map[*Solver]bool{s: true}
	done := map[*Solver]bool{}
	var visit func(n *Solver) error
	visit = func(n *Solver) error {
		if onStack[n] {
			return fmt.Errorf("%w: via %q", ErrCyclicDependency, n.id)
		}
		if done[n] {
			return nil
		}
		onStack[n] = true
		for _, c := range n.curves {
			for _, own := range s.curves {
				if c == own {
					return fmt.Errorf("%w: curve %q owned by both %q and pre-solver %q",
						ErrConstruction, c.ID(), s.id, n.id)
				}
			}
		}
		for _, p := range n.preSolvers {
			if err := visit(p); err != nil {
				return err
			}
		}
		onStack[n] = false
		done[n] = true
		return nil
	}
	for _, p := range s.preSolvers {
		if err := visit(p); err != nil {
			return err
		}
	}
	return nil
}

// ID returns the solver identifier.
func (s *Solver) ID() string { return s.id }

// State returns the solver state.
func (s *Solver) State() State { return s.state }

// Iterations returns the number of completed Gauss-Newton iterations.
func (s *Solver) Iterations() int { return s.iterations }

// InstrumentLabels returns the instrument labels in Jacobian row order.
func (s *Solver) InstrumentLabels() []string {
	out := make([]string, len(s.instruments))
	for i, inst := range s.instruments {
		out[i] = inst.Label()
	}
	return out
}

// VarNames returns the free node variable names in Jacobian column order.
func (s *Solver) VarNames() []string {
	return append([]string(nil), s.varNames...)
}

// Jacobian returns the weighted residual Jacobian from the last completed
// iteration, rows per instrument and columns per free variable. Nil before
// the first Solve.
func (s *Solver) Jacobian() [][]float64 {
	return s.jacobian
}

// Result reports the outcome of a Solve call.
type Result struct {
	State      State
	Iterations int
	// Residual is the largest absolute weighted residual at termination.
	Residual float64
}

// Solve runs the calibration loop, mutating the owned curves' node values in
// place. Pre-solved curves are never touched. Cancellation is checked at the
// top of each iteration.
func (s *Solver) Solve(ctx context.Context) (Result, error) {
	for _, c := range s.curves {
		if err := c.SetADOrder(1); err != nil {
			return Result{State: Failed}, err
		}
	}
	s.state = Iterating
	s.iterations = 0

	for iter := 0; iter < s.opts.MaxIterations; iter++ {
		select {
		case <-ctx.Done():
			s.state = Failed
			return Result{State: Failed, Iterations: s.iterations},
				fmt.Errorf("%w: %v", ErrCancelled, ctx.Err())
		default:
		}

		resid, jac, err := s.evaluate()
		if err != nil {
			s.state = Failed
			return Result{State: Failed, Iterations: s.iterations}, err
		}
		s.jacobian = jac

		worst := maxAbs(resid)
		s.log.Debug("solver iteration",
			zap.String("solver", s.id),
			zap.Int("iteration", iter),
			zap.Float64("max_residual", worst))
		if worst < s.opts.Tolerance {
			s.state = Converged
			s.log.Info("solver converged",
				zap.String("solver", s.id),
				zap.Int("iterations", s.iterations),
				zap.Float64("max_residual", worst))
			return Result{State: Converged, Iterations: s.iterations, Residual: worst}, nil
		}

		step, err := s.step(resid, jac)
		if err != nil {
			s.state = Failed
			return Result{State: Failed, Iterations: s.iterations, Residual: worst}, err
		}
		if err := s.apply(step); err != nil {
			s.state = Failed
			return Result{State: Failed, Iterations: s.iterations, Residual: worst}, err
		}
		s.iterations++
	}

	resid, _, err := s.evaluate()
	if err != nil {
		s.state = Failed
		return Result{State: Failed, Iterations: s.iterations}, err
	}
	worst := maxAbs(resid)
	if worst < s.opts.Tolerance {
		s.state = Converged
		return Result{State: Converged, Iterations: s.iterations, Residual: worst}, nil
	}
	s.state = Failed
	return Result{State: Failed, Iterations: s.iterations, Residual: worst},
		fmt.Errorf("%w: residual %.3e after %d iterations (tolerance %.3e)",
			ErrNonConvergence, worst, s.iterations, s.opts.Tolerance)
}

// evaluate prices every instrument at the current node values and assembles
// the weighted residual vector and its Jacobian from the dual gradients.
func (s *Solver) evaluate() ([]float64, [][]float64, error) {
	resid := make([]float64, len(s.instruments))
	jac := make([][]float64, len(s.instruments))
	for i, inst := range s.instruments {
		r, err := inst.Rate()
		if err != nil {
			return nil, nil, fmt.Errorf("instrument %q: %w", inst.Label(), err)
		}
		w := s.weights[i]
		resid[i] = w * (r.Real - s.targets[i])

		// Variables the instrument never touched contribute zero columns.
		grads := make(map[string]float64, len(r.Vars()))
		rv, rg := r.Vars(), r.Grad()
		for k, name := range rv {
			grads[name] = rg[k]
		}
		row := make([]float64, len(s.varNames))
		for j, name := range s.varNames {
			row[j] = w * grads[name]
		}
		jac[i] = row
	}
	return resid, jac, nil
}

// step solves the Gauss-Newton normal equations J'J dx = -J'r. A
// rank-deficient system surfaces as ErrSingular.
func (s *Solver) step(resid []float64, jac [][]float64) ([]float64, error) {
	n := len(s.vars)
	jtj := make([][]float64, n)
	jtr := make([]float64, n)
	for a := 0; a < n; a++ {
		jtj[a] = make([]float64, n)
		for b := 0; b < n; b++ {
			sum := 0.0
			for i := range jac {
				sum += jac[i][a] * jac[i][b]
			}
			jtj[a][b] = sum
		}
		sum := 0.0
		for i := range jac {
			sum += jac[i][a] * resid[i]
		}
		jtr[a] = -sum
	}
	dx, err := linalg.Solve(jtj, jtr)
	if err != nil {
		if errors.Is(err, linalg.ErrSingular) {
			return nil, fmt.Errorf("%w: %d free variables, %d instruments",
				ErrSingular, n, len(s.instruments))
		}
		return nil, err
	}
	return dx, nil
}

// apply updates node values by the damped step, scaling the whole step down
// if any component exceeds the damping limit so the direction is preserved.
func (s *Solver) apply(step []float64) error {
	scale := 1.0
	for j, v := range s.vars {
		cur := s.curves[v.curve].NodeValue(v.node)
		limit := s.opts.Damping * math.Max(1.0, math.Abs(cur))
		if d := math.Abs(step[j]); d > limit {
			if sc := limit / d; sc < scale {
				scale = sc
			}
		}
	}
	for j, v := range s.vars {
		c := s.curves[v.curve]
		next := c.NodeValue(v.node) + scale*step[j]
		if next < s.opts.MinValue {
			next = s.opts.MinValue
		}
		if err := c.SetNodeValue(v.node, next); err != nil {
			return err
		}
	}
	return nil
}

func maxAbs(v []float64) float64 {
	out := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > out {
			out = a
		}
	}
	return out
}
