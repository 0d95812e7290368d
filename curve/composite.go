package curve

import (
	"fmt"
	"sort"
	"time"

	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/utils"
)

// CompositeCurve combines constituent curves by summing their
// continuously-compounded rates, equivalently multiplying discount factors.
// Constituents are shared read-only references; the composite owns no
// calibration degrees of freedom of its own.
type CompositeCurve struct {
	id     string
	curves []*Curve
}

// NewComposite builds a composite over one or more constituent curves. All
// constituents must share the same anchor date.
func NewComposite(id string, curves ...*Curve) (*CompositeCurve, error) {
	if len(curves) == 0 {
		return nil, fmt.Errorf("%w: composite needs at least one constituent", ErrConstruction)
	}
	anchor := curves[0].Anchor()
	for _, c := range curves[1:] {
		if !c.Anchor().Equal(anchor) {
			return nil, fmt.Errorf("%w: constituent anchors differ (%s vs %s)",
				ErrConstruction, anchor.Format("2006-01-02"), c.Anchor().Format("2006-01-02"))
		}
	}
	return &CompositeCurve{id: id, curves: curves}, nil
}

// ID returns the composite identifier.
func (cc *CompositeCurve) ID() string { return cc.id }

// Anchor returns the shared anchor date.
func (cc *CompositeCurve) Anchor() time.Time { return cc.curves[0].Anchor() }

// DayCount returns the first constituent's day count; constituents are
// expected to share a time axis convention.
func (cc *CompositeCurve) DayCount() string { return cc.curves[0].DayCount() }

// Lookup returns the product of constituent discount factors, the discrete
// equivalent of summing continuously-compounded rates. A date outside any
// constituent's domain is an error.
func (cc *CompositeCurve) Lookup(date time.Time) (dual.Dual, error) {
	out := dual.Const(1.0)
	for _, c := range cc.curves {
		df, err := c.Lookup(date)
		if err != nil {
			return dual.Dual{}, err
		}
		out = dual.Mul(out, df)
	}
	return out, nil
}

// ForwardRate returns the simple forward rate between two dates off the
// combined discount factors.
func (cc *CompositeCurve) ForwardRate(d1, d2 time.Time) (dual.Dual, error) {
	return simpleForward(cc, d1, d2)
}

// CCForwardRate returns the continuously-compounded forward rate between two
// dates off the combined discount factors.
func (cc *CompositeCurve) CCForwardRate(d1, d2 time.Time) (dual.Dual, error) {
	return ccForward(cc, d1, d2)
}

// MultiCsaCurve models cheapest-to-deliver collateral optionality: over every
// approximation interval the posting party funds at the highest constituent
// forward rate, so the composite discounts at the element-wise maximum of
// cost. The approximation grid is the union of constituent node dates, which
// makes the resulting rate function piecewise and its derivatives
// discontinuous where the maximizing constituent switches.
type MultiCsaCurve struct {
	id     string
	curves []*Curve
	grid   []time.Time
}

// NewMultiCsa builds a multi-CSA curve over two or more constituents sharing
// an anchor date.
func NewMultiCsa(id string, curves ...*Curve) (*MultiCsaCurve, error) {
	if len(curves) < 2 {
		return nil, fmt.Errorf("%w: multi-CSA curve needs at least two constituents", ErrConstruction)
	}
	anchor := curves[0].Anchor()
	for _, c := range curves[1:] {
		if !c.Anchor().Equal(anchor) {
			return nil, fmt.Errorf("%w: constituent anchors differ", ErrConstruction)
		}
	}

	seen := make(map[time.Time]struct{})
	var grid []time.Time
	for _, c := range curves {
		for _, d := range c.NodeDates() {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				grid = append(grid, d)
			}
		}
	}
	utils.SortDates(grid)
	return &MultiCsaCurve{id: id, curves: curves, grid: grid}, nil
}

// ID returns the multi-CSA curve identifier.
func (mc *MultiCsaCurve) ID() string { return mc.id }

// Anchor returns the shared anchor date.
func (mc *MultiCsaCurve) Anchor() time.Time { return mc.curves[0].Anchor() }

// DayCount returns the first constituent's day count convention.
func (mc *MultiCsaCurve) DayCount() string { return mc.curves[0].DayCount() }

// Lookup accumulates the discount factor from the anchor to date, taking the
// maximum constituent continuously-compounded forward over each grid
// sub-interval. The maximizing constituent's sensitivities are the ones that
// propagate (a subgradient at switch points).
func (mc *MultiCsaCurve) Lookup(date time.Time) (dual.Dual, error) {
	anchor := mc.Anchor()
	if date.Before(anchor) {
		return dual.Dual{}, fmt.Errorf("%w: %s before anchor", ErrOutOfDomain, date.Format("2006-01-02"))
	}
	if date.Equal(anchor) {
		return dual.Const(1.0), nil
	}

	// Grid points strictly inside (anchor, date), then date itself.
	i := sort.Search(len(mc.grid), func(i int) bool { return mc.grid[i].After(anchor) })
	df := dual.Const(1.0)
	prev := anchor
	for ; i < len(mc.grid) && mc.grid[i].Before(date); i++ {
		step, err := mc.maxForwardStep(prev, mc.grid[i])
		if err != nil {
			return dual.Dual{}, err
		}
		df = dual.Mul(df, step)
		prev = mc.grid[i]
	}
	step, err := mc.maxForwardStep(prev, date)
	if err != nil {
		return dual.Dual{}, err
	}
	return dual.Mul(df, step), nil
}

// maxForwardStep returns exp(-max_c f_c * yf) over [d1, d2].
func (mc *MultiCsaCurve) maxForwardStep(d1, d2 time.Time) (dual.Dual, error) {
	var best dual.Dual
	haveBest := false
	for _, c := range mc.curves {
		f, err := c.CCForwardRate(d1, d2)
		if err != nil {
			return dual.Dual{}, err
		}
		if !haveBest || f.Real > best.Real {
			best = f
			haveBest = true
		}
	}
	yf := utils.YearFraction(d1, d2, mc.DayCount())
	return dual.Exp(dual.Scale(best, -yf)), nil
}

// ForwardRate returns the simple forward rate between two dates off the
// cheapest-to-deliver discount factors.
func (mc *MultiCsaCurve) ForwardRate(d1, d2 time.Time) (dual.Dual, error) {
	return simpleForward(mc, d1, d2)
}

// CCForwardRate returns the continuously-compounded forward rate between two
// dates off the cheapest-to-deliver discount factors.
func (mc *MultiCsaCurve) CCForwardRate(d1, d2 time.Time) (dual.Dual, error) {
	return ccForward(mc, d1, d2)
}
