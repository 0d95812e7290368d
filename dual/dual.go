// Package dual implements forward-mode automatic differentiation values.
//
// A Dual carries a scalar together with first-order (and optionally
// second-order) partial derivatives against a named, ordered set of risk
// variables. Every arithmetic operation propagates exact derivatives; nothing
// in this package ever falls back to finite differencing.
package dual

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when variable names and partials differ in length.
	ErrDimensionMismatch = errors.New("dual: dimension mismatch between vars and partials")
	// ErrDivisionByZero is returned when dividing by a dual whose real part is exactly zero.
	ErrDivisionByZero = errors.New("dual: division by zero real part")
	// ErrUnknownVariable is returned when a gradient is requested for a variable
	// that never entered the computation.
	ErrUnknownVariable = errors.New("dual: unknown variable")
	// ErrConvergence is returned when Newton iteration exceeds its cap.
	ErrConvergence = errors.New("dual: root finding failed to converge")
	// ErrDomain is returned for transcendental functions evaluated outside their domain.
	ErrDomain = errors.New("dual: argument outside function domain")
)

// Dual is an immutable automatic-differentiation value.
//
// vars is the ordered variable set; grad is aligned positionally with vars.
// grad2, when non-nil, holds second-order partials as a symmetric
// len(vars) x len(vars) matrix. Combining a first-order and a second-order
// Dual upcasts the first-order operand: its missing second derivatives are
// treated as zero. There is no IncompatibleOrder failure mode.
type Dual struct {
	Real  float64
	vars  []string
	grad  []float64
	grad2 [][]float64
}

// New constructs a first-order Dual. Fails with ErrDimensionMismatch when
// len(vars) != len(partials).
func New(real float64, vars []string, partials []float64) (Dual, error) {
	if len(vars) != len(partials) {
		return Dual{}, fmt.Errorf("%w: %d vars, %d partials", ErrDimensionMismatch, len(vars), len(partials))
	}
	v := make([]string, len(vars))
	copy(v, vars)
	g := make([]float64, len(partials))
	copy(g, partials)
	return Dual{Real: real, vars: v, grad: g}, nil
}

// New2 constructs a second-order Dual with zero second derivatives.
func New2(real float64, vars []string, partials []float64) (Dual, error) {
	d, err := New(real, vars, partials)
	if err != nil {
		return Dual{}, err
	}
	d.grad2 = zeroMatrix(len(d.vars))
	return d, nil
}

// Var seeds a first-order variable: value v with partial 1.0 against name.
func Var(v float64, name string) Dual {
	return Dual{Real: v, vars: []string{name}, grad: []float64{1.0}}
}

// Var2 seeds a second-order variable.
func Var2(v float64, name string) Dual {
	return Dual{Real: v, vars: []string{name}, grad: []float64{1.0}, grad2: zeroMatrix(1)}
}

// Const wraps a plain scalar as a Dual with an empty variable set.
func Const(v float64) Dual {
	return Dual{Real: v}
}

// Order reports the AD order carried: 0 for a bare constant, 1 or 2 otherwise.
func (d Dual) Order() int {
	if d.grad2 != nil {
		return 2
	}
	if len(d.vars) > 0 {
		return 1
	}
	return 0
}

// Vars returns a copy of the ordered variable set.
func (d Dual) Vars() []string {
	out := make([]string, len(d.vars))
	copy(out, d.vars)
	return out
}

// Grad returns a copy of the first-order partials, aligned with Vars.
func (d Dual) Grad() []float64 {
	out := make([]float64, len(d.grad))
	copy(out, d.grad)
	return out
}

func zeroMatrix(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// upcast aligns two operands onto the ordered union of their variable sets.
// The union preserves a's ordering, then appends b's unseen variables in
// b's order; missing partials are zero. If either side carries second-order
// state, both results do.
func upcast(a, b Dual) (Dual, Dual) {
	if sameVars(a.vars, b.vars) {
		if (a.grad2 == nil) != (b.grad2 == nil) {
			if a.grad2 == nil {
				a.grad2 = zeroMatrix(len(a.vars))
			} else {
				b.grad2 = zeroMatrix(len(b.vars))
			}
		}
		return a, b
	}

	union := make([]string, 0, len(a.vars)+len(b.vars))
	seen := make(map[string]int, len(a.vars)+len(b.vars))
	for _, v := range a.vars {
		seen[v] = len(union)
		union = append(union, v)
	}
	for _, v := range b.vars {
		if _, ok := seen[v]; !ok {
			seen[v] = len(union)
			union = append(union, v)
		}
	}

	secondOrder := a.grad2 != nil || b.grad2 != nil
	return remap(a, union, seen, secondOrder), remap(b, union, seen, secondOrder)
}

func sameVars(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func remap(d Dual, union []string, index map[string]int, secondOrder bool) Dual {
	out := Dual{Real: d.Real, vars: union, grad: make([]float64, len(union))}
	pos := make([]int, len(d.vars))
	for i, v := range d.vars {
		pos[i] = index[v]
		out.grad[pos[i]] = d.grad[i]
	}
	if secondOrder {
		out.grad2 = zeroMatrix(len(union))
		if d.grad2 != nil {
			for i := range d.vars {
				for j := range d.vars {
					out.grad2[pos[i]][pos[j]] = d.grad2[i][j]
				}
			}
		}
	}
	return out
}

// Add returns a + b.
func Add(a, b Dual) Dual {
	a, b = upcast(a, b)
	out := Dual{Real: a.Real + b.Real, vars: a.vars, grad: make([]float64, len(a.grad))}
	for i := range a.grad {
		out.grad[i] = a.grad[i] + b.grad[i]
	}
	if a.grad2 != nil {
		out.grad2 = zeroMatrix(len(a.vars))
		for i := range a.grad2 {
			for j := range a.grad2 {
				out.grad2[i][j] = a.grad2[i][j] + b.grad2[i][j]
			}
		}
	}
	return out
}

// Sub returns a - b.
func Sub(a, b Dual) Dual {
	return Add(a, Neg(b))
}

// Neg returns -a.
func Neg(a Dual) Dual {
	return Scale(a, -1.0)
}

// Scale returns a * k for a plain scalar k.
func Scale(a Dual, k float64) Dual {
	out := Dual{Real: a.Real * k, vars: a.vars, grad: make([]float64, len(a.grad))}
	for i := range a.grad {
		out.grad[i] = a.grad[i] * k
	}
	if a.grad2 != nil {
		out.grad2 = zeroMatrix(len(a.vars))
		for i := range a.grad2 {
			for j := range a.grad2 {
				out.grad2[i][j] = a.grad2[i][j] * k
			}
		}
	}
	return out
}

// AddFloat returns a + k for a plain scalar k.
func AddFloat(a Dual, k float64) Dual {
	out := a.clone()
	out.Real += k
	return out
}

// Mul returns a * b with the product rule, including second-order terms when carried.
func Mul(a, b Dual) Dual {
	a, b = upcast(a, b)
	n := len(a.vars)
	out := Dual{Real: a.Real * b.Real, vars: a.vars, grad: make([]float64, n)}
	for i := 0; i < n; i++ {
		out.grad[i] = a.grad[i]*b.Real + b.grad[i]*a.Real
	}
	if a.grad2 != nil {
		out.grad2 = zeroMatrix(n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				out.grad2[i][j] = a.grad2[i][j]*b.Real + b.grad2[i][j]*a.Real +
					a.grad[i]*b.grad[j] + b.grad[i]*a.grad[j]
			}
		}
	}
	return out
}

// Div returns a / b. Fails with ErrDivisionByZero when b.Real is exactly zero;
// a NaN is never silently produced.
func Div(a, b Dual) (Dual, error) {
	if b.Real == 0.0 {
		return Dual{}, ErrDivisionByZero
	}
	return Mul(a, reciprocal(b)), nil
}

// reciprocal computes 1/b for b.Real != 0.
func reciprocal(b Dual) Dual {
	inv := 1.0 / b.Real
	return applyUnary(b, inv, -inv*inv, 2.0*inv*inv*inv)
}

// clone deep-copies d.
func (d Dual) clone() Dual {
	out := Dual{Real: d.Real, vars: d.vars, grad: make([]float64, len(d.grad))}
	copy(out.grad, d.grad)
	if d.grad2 != nil {
		out.grad2 = zeroMatrix(len(d.vars))
		for i := range d.grad2 {
			copy(out.grad2[i], d.grad2[i])
		}
	}
	return out
}

// applyUnary propagates a univariate function through d given f(d.Real) and
// its first and second analytic derivatives at d.Real:
//
//	grad  -> f' * g
//	grad2 -> f' * H + f'' * g g^T
func applyUnary(d Dual, f, fp, fpp float64) Dual {
	n := len(d.vars)
	out := Dual{Real: f, vars: d.vars, grad: make([]float64, n)}
	for i := 0; i < n; i++ {
		out.grad[i] = fp * d.grad[i]
	}
	if d.grad2 != nil {
		out.grad2 = zeroMatrix(n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				out.grad2[i][j] = fp*d.grad2[i][j] + fpp*d.grad[i]*d.grad[j]
			}
		}
	}
	return out
}

// Gradient extracts first-order partials of d against the requested variables,
// in the requested order. A variable that never entered the computation is an
// ErrUnknownVariable failure, not a silent zero.
func Gradient(d Dual, wrt []string) ([]float64, error) {
	index := make(map[string]int, len(d.vars))
	for i, v := range d.vars {
		index[v] = i
	}
	out := make([]float64, len(wrt))
	for i, v := range wrt {
		j, ok := index[v]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, v)
		}
		out[i] = d.grad[j]
	}
	return out, nil
}

// Gradient2 extracts the second-order partial matrix against the requested
// variables. The value must carry second-order state.
func Gradient2(d Dual, wrt []string) ([][]float64, error) {
	if d.grad2 == nil {
		return nil, fmt.Errorf("%w: value carries no second-order state", ErrDomain)
	}
	index := make(map[string]int, len(d.vars))
	for i, v := range d.vars {
		index[v] = i
	}
	pos := make([]int, len(wrt))
	for i, v := range wrt {
		j, ok := index[v]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownVariable, v)
		}
		pos[i] = j
	}
	out := make([][]float64, len(wrt))
	for i := range wrt {
		out[i] = make([]float64, len(wrt))
		for j := range wrt {
			out[i][j] = d.grad2[pos[i]][pos[j]]
		}
	}
	return out, nil
}
