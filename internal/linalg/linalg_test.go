package linalg_test

import (
	"errors"
	"math"
	"testing"

	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/internal/linalg"
)

func TestSolve(t *testing.T) {
	t.Parallel()

	a := [][]float64{
		{0, 2, 1},
		{1, -2, -3},
		{-1, 1, 2},
	}
	b := []float64{-8, 0, 3}
	x, err := linalg.Solve(a, b)
	if err != nil {
		t.Fatalf("Solve error: %v", err)
	}
	// Verify A x = b.
	for i := range a {
		got := 0.0
		for j := range x {
			got += a[i][j] * x[j]
		}
		if math.Abs(got-b[i]) > 1e-12 {
			t.Fatalf("row %d residual: got %v want %v", i, got, b[i])
		}
	}
}

func TestSolveSingular(t *testing.T) {
	t.Parallel()

	a := [][]float64{
		{1, 2},
		{2, 4},
	}
	_, err := linalg.Solve(a, []float64{1, 2})
	if !errors.Is(err, linalg.ErrSingular) {
		t.Fatalf("expected ErrSingular, got %v", err)
	}
}

func TestSolveDualSensitivities(t *testing.T) {
	t.Parallel()

	// x = A^{-1} b is linear in b, so dx/db_k is the k-th column of A^{-1}.
	a := [][]float64{
		{2, 1},
		{1, 3},
	}
	b := []dual.Dual{dual.Var(1.0, "b0"), dual.Var(2.0, "b1")}
	x, err := linalg.SolveDual(a, b)
	if err != nil {
		t.Fatalf("SolveDual error: %v", err)
	}

	// A^{-1} = 1/5 * [[3, -1], [-1, 2]]
	wantReal := []float64{(3*1.0 - 1*2.0) / 5, (-1*1.0 + 2*2.0) / 5}
	wantGrad := [][]float64{{0.6, -0.2}, {-0.2, 0.4}}
	for i := range x {
		if math.Abs(x[i].Real-wantReal[i]) > 1e-12 {
			t.Fatalf("x[%d] real mismatch: got %v want %v", i, x[i].Real, wantReal[i])
		}
		g, err := dual.Gradient(x[i], []string{"b0", "b1"})
		if err != nil {
			t.Fatalf("Gradient error: %v", err)
		}
		for j := range g {
			if math.Abs(g[j]-wantGrad[i][j]) > 1e-12 {
				t.Fatalf("dx[%d]/db[%d] mismatch: got %v want %v", i, j, g[j], wantGrad[i][j])
			}
		}
	}
}
