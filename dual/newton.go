package dual

import (
	"fmt"
	"math"
)

// Func1D evaluates a one-dimensional target function at guess, given fixed
// (possibly dual-valued) arguments, returning the function value and its
// derivative with respect to guess.
type Func1D func(guess Dual, args []Dual) (value, derivative Dual, err error)

// Newton1D finds the root of f starting from g0.
//
// The iteration itself runs on plain floats (args stripped of sensitivities).
// Once converged, one final dual-mode evaluation applies the implicit function
// theorem so the returned root carries sensitivities to the args:
//
//	x* = x - f(x, args)/f'(x)
//
// Fails with ErrConvergence when maxIter is exhausted and with
// ErrDivisionByZero when the derivative vanishes at the current iterate.
func Newton1D(f Func1D, g0 float64, args []Dual, tol float64, maxIter int) (Dual, error) {
	flat := make([]Dual, len(args))
	for i, a := range args {
		flat[i] = Const(a.Real)
	}

	g := g0
	converged := false
	for iter := 0; iter < maxIter; iter++ {
		v, d, err := f(Const(g), flat)
		if err != nil {
			return Dual{}, err
		}
		if math.Abs(v.Real) < tol {
			converged = true
			break
		}
		if d.Real == 0 {
			return Dual{}, fmt.Errorf("%w: zero derivative at guess %v", ErrDivisionByZero, g)
		}
		g = g - v.Real/d.Real
	}
	if !converged {
		// The loop may have landed on the root with its last step.
		v, _, err := f(Const(g), flat)
		if err != nil {
			return Dual{}, err
		}
		if math.Abs(v.Real) >= tol {
			return Dual{}, fmt.Errorf("%w: after %d iterations, residual %v", ErrConvergence, maxIter, v.Real)
		}
	}

	// Implicit function theorem step with full dual arguments.
	v, d, err := f(Const(g), args)
	if err != nil {
		return Dual{}, err
	}
	if d.Real == 0 {
		return Dual{}, fmt.Errorf("%w: zero derivative at root", ErrDivisionByZero)
	}
	step, err := Div(v, d)
	if err != nil {
		return Dual{}, err
	}
	return Sub(Const(g), step), nil
}

// IFT1D inverts a monotonic one-dimensional function: it finds x in [lo, hi]
// with h(x) = y. The bracket is narrowed by bisection to seed Newton, and the
// returned root carries y's sensitivities through the implicit function
// theorem. Fails with ErrConvergence when no root is bracketed or iteration
// stalls.
func IFT1D(h func(x Dual) (Dual, error), y Dual, lo, hi float64, tol float64, maxIter int) (Dual, error) {
	flo, err := h(Const(lo))
	if err != nil {
		return Dual{}, err
	}
	fhi, err := h(Const(hi))
	if err != nil {
		return Dual{}, err
	}
	rlo, rhi := flo.Real-y.Real, fhi.Real-y.Real
	if rlo*rhi > 0 {
		return Dual{}, fmt.Errorf("%w: target not bracketed in [%v, %v]", ErrConvergence, lo, hi)
	}

	// A few bisection steps to get a safe Newton seed.
	a, b, ra := lo, hi, rlo
	for i := 0; i < 20 && b-a > tol; i++ {
		mid := 0.5 * (a + b)
		fm, err := h(Const(mid))
		if err != nil {
			return Dual{}, err
		}
		rm := fm.Real - y.Real
		if ra*rm <= 0 {
			b = mid
		} else {
			a, ra = mid, rm
		}
	}

	f := func(guess Dual, args []Dual) (Dual, Dual, error) {
		// Derivative of h at the guess via a private seed variable.
		probe, err := h(Var(guess.Real, "__ift__"))
		if err != nil {
			return Dual{}, Dual{}, err
		}
		dh, err := Gradient(probe, []string{"__ift__"})
		if err != nil {
			return Dual{}, Dual{}, err
		}
		val, err := h(guess)
		if err != nil {
			return Dual{}, Dual{}, err
		}
		return Sub(val, args[0]), Const(dh[0]), nil
	}
	return Newton1D(f, 0.5*(a+b), []Dual{y}, tol, maxIter)
}
