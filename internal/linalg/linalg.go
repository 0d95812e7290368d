// Package linalg provides the small dense solves shared by the spline fitter
// and the calibration engine. Systems here are at most a few dozen unknowns,
// so Gaussian elimination with partial pivoting is sufficient.
package linalg

import (
	"errors"
	"math"

	"github.com/meenmo/curvelib/dual"
)

// ErrSingular is returned when elimination encounters a vanishing pivot.
var ErrSingular = errors.New("linalg: singular matrix")

const pivotTolerance = 1e-13

// Solve solves A x = b for a float right-hand side. A and b are not modified.
func Solve(a [][]float64, b []float64) ([]float64, error) {
	n := len(a)
	m := cloneMatrix(a)
	x := make([]float64, n)
	copy(x, b)

	perm, err := factorize(m)
	if err != nil {
		return nil, err
	}
	applyPermutation(x, perm)
	for k := 0; k < n; k++ {
		for i := k + 1; i < n; i++ {
			x[i] -= m[i][k] * x[k]
		}
	}
	for i := n - 1; i >= 0; i-- {
		for j := i + 1; j < n; j++ {
			x[i] -= m[i][j] * x[j]
		}
		x[i] /= m[i][i]
	}
	return x, nil
}

// SolveDual solves A x = b where the matrix is float but the right-hand side
// carries dual sensitivities. The solution is the same linear combination of b
// entries for real parts and partials alike, so elimination multipliers apply
// directly to the Dual values.
func SolveDual(a [][]float64, b []dual.Dual) ([]dual.Dual, error) {
	n := len(a)
	m := cloneMatrix(a)
	x := make([]dual.Dual, n)
	copy(x, b)

	perm, err := factorize(m)
	if err != nil {
		return nil, err
	}
	applyPermutationDual(x, perm)
	for k := 0; k < n; k++ {
		for i := k + 1; i < n; i++ {
			x[i] = dual.Sub(x[i], dual.Scale(x[k], m[i][k]))
		}
	}
	for i := n - 1; i >= 0; i-- {
		for j := i + 1; j < n; j++ {
			x[i] = dual.Sub(x[i], dual.Scale(x[j], m[i][j]))
		}
		x[i] = dual.Scale(x[i], 1.0/m[i][i])
	}
	return x, nil
}

// factorize performs in-place LU decomposition with partial pivoting,
// storing multipliers below the diagonal. Returns the row permutation.
func factorize(m [][]float64) ([]int, error) {
	n := len(m)
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for k := 0; k < n; k++ {
		p := k
		best := math.Abs(m[k][k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(m[i][k]); v > best {
				best, p = v, i
			}
		}
		if best < pivotTolerance {
			return nil, ErrSingular
		}
		if p != k {
			m[p], m[k] = m[k], m[p]
			perm[p], perm[k] = perm[k], perm[p]
		}
		for i := k + 1; i < n; i++ {
			m[i][k] /= m[k][k]
			for j := k + 1; j < n; j++ {
				m[i][j] -= m[i][k] * m[k][j]
			}
		}
	}
	return perm, nil
}

func cloneMatrix(a [][]float64) [][]float64 {
	m := make([][]float64, len(a))
	for i := range a {
		m[i] = make([]float64, len(a[i]))
		copy(m[i], a[i])
	}
	return m
}

func applyPermutation(x []float64, perm []int) {
	out := make([]float64, len(x))
	for i, p := range perm {
		out[i] = x[p]
	}
	copy(x, out)
}

func applyPermutationDual(x []dual.Dual, perm []int) {
	out := make([]dual.Dual, len(x))
	for i, p := range perm {
		out[i] = x[p]
	}
	copy(x, out)
}
