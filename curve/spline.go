package curve

import (
	"fmt"

	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/internal/linalg"
)

const splineOrder = 4 // cubic

// ppSpline is a cubic B-spline fitted to log(DF) at the node sites covered by
// the knot sequence. Coefficients are dual-valued so spline lookups carry node
// sensitivities through the linear fit.
type ppSpline struct {
	knots  []float64
	coeffs []dual.Dual
}

// splineValue evaluates the spline region at curve time t, fitting lazily.
func (c *Curve) splineValue(t float64) (dual.Dual, error) {
	if c.spline == nil {
		sp, err := c.fitSpline()
		if err != nil {
			return dual.Dual{}, err
		}
		c.spline = sp
	}
	logDF := c.spline.eval(t)
	return dual.Exp(logDF), nil
}

// fitSpline solves for the B-spline coefficients interpolating log(DF) at the
// node sites within the knot span. When the knot sequence supplies two more
// coefficients than sites, the extra freedom is pinned by natural boundary
// conditions (zero second derivative at both ends).
func (c *Curve) fitSpline() (*ppSpline, error) {
	ncoeffs := len(c.knotT) - splineOrder

	var siteT []float64
	var siteY []dual.Dual
	for i := range c.nodes {
		if c.nodes[i].Date.Before(c.knots[0]) {
			continue
		}
		l, err := dual.Log(c.nodeValue(i))
		if err != nil {
			return nil, fmt.Errorf("spline fit at node %d: %w", i, err)
		}
		siteT = append(siteT, c.times[i])
		siteY = append(siteY, l)
	}

	natural := ncoeffs == len(siteT)+2
	if !natural && ncoeffs != len(siteT) {
		return nil, fmt.Errorf("%w: %d spline coefficients for %d sites", ErrConstruction, ncoeffs, len(siteT))
	}

	b := make([][]float64, ncoeffs)
	rhs := make([]dual.Dual, ncoeffs)
	row := 0
	if natural {
		b[row] = basisRow2(c.knotT, siteT[0])
		rhs[row] = dual.Const(0.0)
		row++
	}
	for s := range siteT {
		b[row] = basisRow(c.knotT, siteT[s])
		rhs[row] = siteY[s]
		row++
	}
	if natural {
		b[row] = basisRow2(c.knotT, siteT[len(siteT)-1])
		rhs[row] = dual.Const(0.0)
	}

	coeffs, err := linalg.SolveDual(b, rhs)
	if err != nil {
		return nil, fmt.Errorf("spline fit: %w", err)
	}
	return &ppSpline{knots: c.knotT, coeffs: coeffs}, nil
}

// eval returns the spline value (log DF) at curve time t.
func (sp *ppSpline) eval(t float64) dual.Dual {
	out := dual.Const(0.0)
	for j, cf := range sp.coeffs {
		w := bspline(sp.knots, j, splineOrder, t)
		if w != 0 {
			out = dual.Add(out, dual.Scale(cf, w))
		}
	}
	return out
}

// basisRow evaluates every basis function at t.
func basisRow(knots []float64, t float64) []float64 {
	n := len(knots) - splineOrder
	row := make([]float64, n)
	for j := 0; j < n; j++ {
		row[j] = bspline(knots, j, splineOrder, t)
	}
	return row
}

// basisRow2 evaluates every basis function's second derivative at t.
func basisRow2(knots []float64, t float64) []float64 {
	n := len(knots) - splineOrder
	row := make([]float64, n)
	for j := 0; j < n; j++ {
		row[j] = bsplineDeriv2(knots, j, splineOrder, t)
	}
	return row
}

// bspline is the Cox-de Boor recursion for B_{j,k}(t). The right endpoint of
// the overall span is closed: at t == knots[len-1] the last nonzero basis
// takes its left limit so the spline interpolates its final site.
func bspline(knots []float64, j, k int, t float64) float64 {
	if k == 1 {
		if knots[j] <= t && t < knots[j+1] {
			return 1.0
		}
		// Closed right end of the final span.
		if t == knots[len(knots)-1] && knots[j] < knots[j+1] && knots[j+1] == t {
			return 1.0
		}
		return 0.0
	}
	var left, right float64
	if d := knots[j+k-1] - knots[j]; d > 0 {
		left = (t - knots[j]) / d * bspline(knots, j, k-1, t)
	}
	if d := knots[j+k] - knots[j+1]; d > 0 {
		right = (knots[j+k] - t) / d * bspline(knots, j+1, k-1, t)
	}
	return left + right
}

// bsplineDeriv is dB_{j,k}/dt.
func bsplineDeriv(knots []float64, j, k int, t float64) float64 {
	var left, right float64
	if d := knots[j+k-1] - knots[j]; d > 0 {
		left = float64(k-1) / d * bspline(knots, j, k-1, t)
	}
	if d := knots[j+k] - knots[j+1]; d > 0 {
		right = float64(k-1) / d * bspline(knots, j+1, k-1, t)
	}
	return left - right
}

// bsplineDeriv2 is d2B_{j,k}/dt2.
func bsplineDeriv2(knots []float64, j, k int, t float64) float64 {
	var left, right float64
	if d := knots[j+k-1] - knots[j]; d > 0 {
		left = float64(k-1) / d * bsplineDeriv(knots, j, k-1, t)
	}
	if d := knots[j+k] - knots[j+1]; d > 0 {
		right = float64(k-1) / d * bsplineDeriv(knots, j+1, k-1, t)
	}
	return left - right
}
