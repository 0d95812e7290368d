package curve

import (
	"fmt"
	"math"
	"time"

	"github.com/meenmo/curvelib/utils"
)

// Shift returns a new independent curve whose instantaneous forward rates are
// uniformly higher by bp basis points. Node discount factors become
// DF_i * exp(-bp/10000 * t_i); the original curve is untouched.
func (c *Curve) Shift(bp float64) (*Curve, error) {
	nodes := make([]Node, len(c.nodes))
	spread := bp / 10000.0
	for i, n := range c.nodes {
		nodes[i] = Node{Date: n.Date, Value: n.Value * math.Exp(-spread*c.times[i])}
	}
	return New(c.id, nodes, c.derivedOptions(c.knotsForDerived()))
}

// Roll returns a new curve whose anchor is moved by tenor, shifting every node
// date by the same calendar-day offset while keeping node values. It is used
// to analyze roll-down without recalibration; a negative tenor rolls backward.
func (c *Curve) Roll(tenor string) (*Curve, error) {
	target, err := utils.AddTenor(c.nodes[0].Date, tenor, c.cal)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConstruction, err)
	}
	offsetDays := int(math.Round(utils.Days(c.nodes[0].Date, target)))

	nodes := make([]Node, len(c.nodes))
	for i, n := range c.nodes {
		nodes[i] = Node{Date: n.Date.AddDate(0, 0, offsetDays), Value: n.Value}
	}
	var knots []time.Time
	if k := c.knotsForDerived(); k != nil {
		knots = make([]time.Time, len(k))
		for i, d := range k {
			knots[i] = d.AddDate(0, 0, offsetDays)
		}
	}
	return New(c.id, nodes, c.derivedOptions(knots))
}

// Translate returns a new curve re-anchored at newAnchor, with the new first
// node's value inferred from the existing interpolation: each surviving node
// carries DF(d)/DF(newAnchor). Rates are reproduced exactly for local
// strategies; spline curves may differ within a small tolerance near the new
// boundary when interior knots precede the new anchor.
func (c *Curve) Translate(newAnchor time.Time) (*Curve, error) {
	if newAnchor.Before(c.nodes[0].Date) || !newAnchor.Before(c.nodes[len(c.nodes)-1].Date) {
		return nil, fmt.Errorf("%w: new anchor %s outside curve domain",
			ErrConstruction, newAnchor.Format("2006-01-02"))
	}
	base, err := c.Lookup(newAnchor)
	if err != nil {
		return nil, err
	}

	nodes := []Node{{Date: newAnchor, Value: 1.0}}
	for i, n := range c.nodes {
		if !n.Date.After(newAnchor) {
			continue
		}
		nodes = append(nodes, Node{Date: n.Date, Value: c.nodes[i].Value / base.Real})
	}
	if len(nodes) < 2 {
		return nil, fmt.Errorf("%w: no nodes after new anchor", ErrConstruction)
	}

	var knots []time.Time
	if k := c.knotsForDerived(); k != nil {
		for _, d := range k {
			if d.Before(newAnchor) {
				return nil, fmt.Errorf("%w: knot %s precedes new anchor",
					ErrConstruction, d.Format("2006-01-02"))
			}
		}
		knots = k
	}
	return New(c.id, nodes, c.derivedOptions(knots))
}

// derivedOptions carries the curve's configuration onto a structural
// derivative. Derived curves share no mutable state with the original.
func (c *Curve) derivedOptions(knots []time.Time) Options {
	return Options{
		Convention:    c.convention,
		Calendar:      c.cal,
		Interpolation: c.interp,
		Knots:         knots,
		ADOrder:       c.adOrder,
		Extrapolate:   c.extrapolate,
	}
}

// knotsForDerived returns the explicit knot sequence to pass on: auto-spline
// knots are regenerated by New, only mixed-curve knots travel.
func (c *Curve) knotsForDerived() []time.Time {
	if c.knots == nil || c.interp == Spline {
		return nil
	}
	return append([]time.Time(nil), c.knots...)
}
