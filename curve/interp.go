package curve

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/dual"
)

// localValue evaluates the configured local strategy at a non-node date
// strictly inside the domain, with t its curve time.
func (c *Curve) localValue(date time.Time, t float64) (dual.Dual, error) {
	i := c.bracket(date)
	t1, t2 := c.times[i], c.times[i+1]
	v1, v2 := c.nodeValue(i), c.nodeValue(i+1)
	w := (t - t1) / (t2 - t1)

	switch c.interp {
	case LogLinear:
		// DF(t) = DF1^(1-w) * DF2^w: linear in log space, constant
		// instantaneous forward over the interval.
		l1, err := dual.Log(v1)
		if err != nil {
			return dual.Dual{}, err
		}
		l2, err := dual.Log(v2)
		if err != nil {
			return dual.Dual{}, err
		}
		return dual.Exp(dual.Add(dual.Scale(l1, 1.0-w), dual.Scale(l2, w))), nil

	case Linear:
		return dual.Add(dual.Scale(v1, 1.0-w), dual.Scale(v2, w)), nil

	case FlatForward:
		// Hold the left node's discount factor; all accrual lands on the
		// right node date.
		return v1, nil

	case LinearIndex:
		// Linear on the index value 1/DF.
		i1, err := dual.Div(dual.Const(1.0), v1)
		if err != nil {
			return dual.Dual{}, err
		}
		i2, err := dual.Div(dual.Const(1.0), v2)
		if err != nil {
			return dual.Dual{}, err
		}
		idx := dual.Add(dual.Scale(i1, 1.0-w), dual.Scale(i2, w))
		return dual.Div(dual.Const(1.0), idx)

	case LinearZeroRate:
		// Linear on the continuously-compounded zero rate. The anchor has no
		// zero rate; the first interval holds the first pillar's rate flat.
		z2, err := c.zeroRate(i + 1)
		if err != nil {
			return dual.Dual{}, err
		}
		var z dual.Dual
		if i == 0 {
			z = z2
		} else {
			z1, err := c.zeroRate(i)
			if err != nil {
				return dual.Dual{}, err
			}
			z = dual.Add(dual.Scale(z1, 1.0-w), dual.Scale(z2, w))
		}
		return dual.Exp(dual.Scale(z, -t)), nil

	case Spline:
		// Auto-knot spline covers the whole domain; localValue is only
		// reached when the knot setup failed to cover date.
		return dual.Dual{}, fmt.Errorf("%w: spline knots do not cover %s",
			ErrConstruction, date.Format("2006-01-02"))

	default:
		return dual.Dual{}, fmt.Errorf("%w: unknown interpolation %q", ErrConstruction, c.interp)
	}
}

// zeroRate returns the continuously-compounded zero rate of node i > 0.
func (c *Curve) zeroRate(i int) (dual.Dual, error) {
	l, err := dual.Log(c.nodeValue(i))
	if err != nil {
		return dual.Dual{}, err
	}
	return dual.Scale(l, -1.0/c.times[i]), nil
}
