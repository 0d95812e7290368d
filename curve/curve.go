// Package curve implements node-based discount curves with pluggable
// interpolation and automatic-differentiation-aware lookups.
//
// A curve owns an ordered set of (date, value) nodes, a day count convention
// for its time axis, a calendar, and an interpolation strategy. Values between
// nodes are produced by the strategy; node values themselves are the curve's
// calibration degrees of freedom.
package curve

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/utils"
)

var (
	// ErrConstruction is returned for malformed curve inputs.
	ErrConstruction = errors.New("curve: invalid construction")
	// ErrOutOfDomain is returned for lookups outside the node date range
	// when extrapolation is not enabled.
	ErrOutOfDomain = errors.New("curve: date outside curve domain")
)

// Interpolation identifies a local interpolation strategy.
type Interpolation string

const (
	// LogLinear interpolates log(DF) linearly in curve time. Instantaneous
	// forward rates are piecewise-constant between nodes; this is the
	// strategy that preserves futures-implied constant-rate periods.
	LogLinear Interpolation = "log_linear"
	// Linear interpolates the stored value directly.
	Linear Interpolation = "linear"
	// FlatForward holds the discount factor at the left node's value until
	// the next node. Despite the name this concentrates all rate accrual at
	// node boundaries; it does not produce constant per-period forwards.
	FlatForward Interpolation = "flat_forward"
	// LinearIndex interpolates the index value 1/DF linearly.
	LinearIndex Interpolation = "linear_index"
	// LinearZeroRate interpolates the continuously-compounded zero rate linearly.
	LinearZeroRate Interpolation = "linear_zero_rate"
	// Spline fits a cubic B-spline to log(DF) over the full node range with
	// natural boundary conditions.
	Spline Interpolation = "spline"
)

// Node is a (date, value) curve pillar. For discount curves the value is a
// discount factor, conventionally 1.0 at the anchor date.
type Node struct {
	Date  time.Time
	Value float64
}

// Options configures curve construction.
type Options struct {
	Convention    string              // day count for the curve time axis; default ACT/365F
	Calendar      calendar.CalendarID // default ALL
	Interpolation Interpolation       // default LogLinear
	// Knots enables mixed interpolation: a cubic spline governs dates from
	// Knots[0] onward while the local strategy covers the short end. The
	// sequence must repeat its boundary knots to the spline order (4).
	Knots []time.Time
	// ADOrder selects automatic differentiation: 0 plain floats, 1 first
	// order, 2 second order.
	ADOrder int
	// Extrapolate permits lookups beyond the last node, holding the last
	// node's discount factor constant.
	Extrapolate bool
}

// DiscountCurve is the read-only lookup contract shared by Curve,
// CompositeCurve and MultiCsaCurve. Pricing code holds this interface and
// must never mutate node values.
type DiscountCurve interface {
	Lookup(date time.Time) (dual.Dual, error)
	Anchor() time.Time
	DayCount() string
}

// Curve is an ordered node set with an interpolation strategy. Node values
// are mutated in place by a calibrating solver; all lookups are cached until
// the next mutation.
type Curve struct {
	id          string
	nodes       []Node
	convention  string
	cal         calendar.CalendarID
	interp      Interpolation
	knots       []time.Time
	adOrder     int
	extrapolate bool

	times  []float64 // year fraction of each node date from the anchor
	knotT  []float64 // year fraction of each knot date, when knots are set
	cache  map[time.Time]dual.Dual
	spline *ppSpline // fitted lazily; nil until first spline lookup
}

// New constructs a curve. Nodes must be supplied in strictly increasing date
// order; violations fail with ErrConstruction.
func New(id string, nodes []Node, opts Options) (*Curve, error) {
	if len(nodes) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 nodes, got %d", ErrConstruction, len(nodes))
	}
	for i := 1; i < len(nodes); i++ {
		if !nodes[i-1].Date.Before(nodes[i].Date) {
			return nil, fmt.Errorf("%w: node dates not strictly increasing at %s",
				ErrConstruction, nodes[i].Date.Format("2006-01-02"))
		}
	}
	if opts.Convention == "" {
		opts.Convention = "ACT/365F"
	}
	if opts.Calendar == "" {
		opts.Calendar = calendar.ALL
	}
	if opts.Interpolation == "" {
		opts.Interpolation = LogLinear
	}
	if opts.ADOrder < 0 || opts.ADOrder > 2 {
		return nil, fmt.Errorf("%w: AD order %d", ErrConstruction, opts.ADOrder)
	}

	c := &Curve{
		id:          id,
		nodes:       append([]Node(nil), nodes...),
		convention:  opts.Convention,
		cal:         opts.Calendar,
		interp:      opts.Interpolation,
		adOrder:     opts.ADOrder,
		extrapolate: opts.Extrapolate,
		cache:       make(map[time.Time]dual.Dual),
	}
	c.times = make([]float64, len(c.nodes))
	for i, n := range c.nodes {
		c.times[i] = utils.YearFraction(c.nodes[0].Date, n.Date, c.convention)
	}

	knots := opts.Knots
	if opts.Interpolation == Spline && knots == nil {
		knots = autoKnots(c.nodes)
	}
	if knots != nil {
		if err := c.setKnots(knots); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// autoKnots builds the full-domain knot sequence for "spline" interpolation:
// boundary nodes repeated to the spline order with interior nodes as single
// knots. The resulting coefficient count is len(nodes)+2, which selects
// natural boundary conditions in the fit.
func autoKnots(nodes []Node) []time.Time {
	first, last := nodes[0].Date, nodes[len(nodes)-1].Date
	t := []time.Time{first, first, first, first}
	for _, n := range nodes[1 : len(nodes)-1] {
		t = append(t, n.Date)
	}
	return append(t, last, last, last, last)
}

func (c *Curve) setKnots(knots []time.Time) error {
	if len(knots) < 2*splineOrder {
		return fmt.Errorf("%w: knot sequence needs at least %d entries, got %d",
			ErrConstruction, 2*splineOrder, len(knots))
	}
	for i := 1; i < splineOrder; i++ {
		if !knots[i].Equal(knots[0]) || !knots[len(knots)-1-i].Equal(knots[len(knots)-1]) {
			return fmt.Errorf("%w: boundary knots must repeat to the spline order", ErrConstruction)
		}
	}
	for i := 1; i < len(knots); i++ {
		if knots[i].Before(knots[i-1]) {
			return fmt.Errorf("%w: knot sequence not non-decreasing", ErrConstruction)
		}
	}
	if knots[0].Before(c.nodes[0].Date) || knots[len(knots)-1].After(c.nodes[len(c.nodes)-1].Date) {
		return fmt.Errorf("%w: knot sequence extends beyond node range", ErrConstruction)
	}

	sites := 0
	for _, n := range c.nodes {
		if !n.Date.Before(knots[0]) {
			sites++
		}
	}
	ncoeffs := len(knots) - splineOrder
	if ncoeffs != sites && ncoeffs != sites+2 {
		return fmt.Errorf("%w: %d spline coefficients cannot fit %d node sites", ErrConstruction, ncoeffs, sites)
	}

	c.knots = append([]time.Time(nil), knots...)
	c.knotT = make([]float64, len(knots))
	for i, k := range knots {
		c.knotT[i] = utils.YearFraction(c.nodes[0].Date, k, c.convention)
	}
	return nil
}

// ID returns the curve identifier used for variable naming and diagnostics.
func (c *Curve) ID() string { return c.id }

// Anchor returns the curve's initial node date.
func (c *Curve) Anchor() time.Time { return c.nodes[0].Date }

// DayCount returns the curve time axis day count convention.
func (c *Curve) DayCount() string { return c.convention }

// Calendar returns the curve's calendar.
func (c *Curve) Calendar() calendar.CalendarID { return c.cal }

// Interpolation returns the configured strategy.
func (c *Curve) Interpolation() Interpolation { return c.interp }

// Len returns the number of nodes.
func (c *Curve) Len() int { return len(c.nodes) }

// NodeDates returns the node dates in order.
func (c *Curve) NodeDates() []time.Time {
	out := make([]time.Time, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = n.Date
	}
	return out
}

// NodeValues returns the node values in order.
func (c *Curve) NodeValues() []float64 {
	out := make([]float64, len(c.nodes))
	for i, n := range c.nodes {
		out[i] = n.Value
	}
	return out
}

// NodeValue returns node i's value.
func (c *Curve) NodeValue(i int) float64 { return c.nodes[i].Value }

// VarName returns the AD variable name of node i, "<id><i>".
func (c *Curve) VarName(i int) string {
	return c.id + strconv.Itoa(i)
}

// SetNodeValue updates node i's value and invalidates the lookup cache and
// any fitted spline. The anchor node (i == 0) is a fixed point of discount
// curves and may not be reassigned.
func (c *Curve) SetNodeValue(i int, v float64) error {
	if i <= 0 || i >= len(c.nodes) {
		return fmt.Errorf("%w: node index %d", ErrConstruction, i)
	}
	c.nodes[i].Value = v
	c.invalidate()
	return nil
}

// SetADOrder changes the automatic differentiation order (0, 1 or 2) and
// invalidates cached lookups, whose sensitivities depend on it.
func (c *Curve) SetADOrder(order int) error {
	if order < 0 || order > 2 {
		return fmt.Errorf("%w: AD order %d", ErrConstruction, order)
	}
	if order != c.adOrder {
		c.adOrder = order
		c.invalidate()
	}
	return nil
}

// ADOrder returns the active automatic differentiation order.
func (c *Curve) ADOrder() int { return c.adOrder }

func (c *Curve) invalidate() {
	c.cache = make(map[time.Time]dual.Dual)
	c.spline = nil
}

// nodeValue returns node i's value at the active AD order. The anchor node is
// always a constant: it is not a calibration degree of freedom.
func (c *Curve) nodeValue(i int) dual.Dual {
	v := c.nodes[i].Value
	if i == 0 || c.adOrder == 0 {
		return dual.Const(v)
	}
	if c.adOrder == 2 {
		return dual.Var2(v, c.VarName(i))
	}
	return dual.Var(v, c.VarName(i))
}

// Lookup returns the discount factor at date. Results are cached until node
// values or the AD order change. Dates outside [first node, last node] fail
// with ErrOutOfDomain unless extrapolation was enabled, in which case the
// last node's discount factor is held flat beyond the domain.
func (c *Curve) Lookup(date time.Time) (dual.Dual, error) {
	if v, ok := c.cache[date]; ok {
		return v, nil
	}
	v, err := c.evaluate(date)
	if err != nil {
		return dual.Dual{}, err
	}
	c.cache[date] = v
	return v, nil
}

func (c *Curve) evaluate(date time.Time) (dual.Dual, error) {
	first, last := c.nodes[0].Date, c.nodes[len(c.nodes)-1].Date
	if date.Before(first) {
		return dual.Dual{}, fmt.Errorf("%w: %s before first node %s",
			ErrOutOfDomain, date.Format("2006-01-02"), first.Format("2006-01-02"))
	}
	if date.After(last) {
		if !c.extrapolate {
			return dual.Dual{}, fmt.Errorf("%w: %s after last node %s",
				ErrOutOfDomain, date.Format("2006-01-02"), last.Format("2006-01-02"))
		}
		return c.nodeValue(len(c.nodes) - 1), nil
	}

	// Exact node dates return the stored value with no interpolation error.
	if i, ok := c.nodeIndex(date); ok {
		return c.nodeValue(i), nil
	}

	t := utils.YearFraction(first, date, c.convention)
	if c.knots != nil && !date.Before(c.knots[0]) {
		return c.splineValue(t)
	}
	return c.localValue(date, t)
}

// nodeIndex locates date among the node dates.
func (c *Curve) nodeIndex(date time.Time) (int, bool) {
	i := sort.Search(len(c.nodes), func(i int) bool {
		return !c.nodes[i].Date.Before(date)
	})
	if i < len(c.nodes) && c.nodes[i].Date.Equal(date) {
		return i, true
	}
	return 0, false
}

// bracket returns the node index i with times[i] <= t < times[i+1].
func (c *Curve) bracket(date time.Time) int {
	i := sort.Search(len(c.nodes), func(i int) bool {
		return c.nodes[i].Date.After(date)
	})
	if i <= 0 {
		return 0
	}
	if i >= len(c.nodes) {
		return len(c.nodes) - 2
	}
	return i - 1
}

// ForwardRate returns the simple (money-market) forward rate between two
// dates: (DF(d1)/DF(d2) - 1) / yf(d1, d2). This is a distinct metric from
// CCForwardRate; the two must not be conflated.
func (c *Curve) ForwardRate(d1, d2 time.Time) (dual.Dual, error) {
	return simpleForward(c, d1, d2)
}

// CCForwardRate returns the continuously-compounded forward rate between two
// dates: log(DF(d1)/DF(d2)) / yf(d1, d2).
func (c *Curve) CCForwardRate(d1, d2 time.Time) (dual.Dual, error) {
	return ccForward(c, d1, d2)
}

func simpleForward(dc DiscountCurve, d1, d2 time.Time) (dual.Dual, error) {
	df1, err := dc.Lookup(d1)
	if err != nil {
		return dual.Dual{}, err
	}
	df2, err := dc.Lookup(d2)
	if err != nil {
		return dual.Dual{}, err
	}
	ratio, err := dual.Div(df1, df2)
	if err != nil {
		return dual.Dual{}, err
	}
	yf := utils.YearFraction(d1, d2, dc.DayCount())
	return dual.Scale(dual.AddFloat(ratio, -1.0), 1.0/yf), nil
}

func ccForward(dc DiscountCurve, d1, d2 time.Time) (dual.Dual, error) {
	df1, err := dc.Lookup(d1)
	if err != nil {
		return dual.Dual{}, err
	}
	df2, err := dc.Lookup(d2)
	if err != nil {
		return dual.Dual{}, err
	}
	ratio, err := dual.Div(df1, df2)
	if err != nil {
		return dual.Dual{}, err
	}
	l, err := dual.Log(ratio)
	if err != nil {
		return dual.Dual{}, err
	}
	yf := utils.YearFraction(d1, d2, dc.DayCount())
	return dual.Scale(l, 1.0/yf), nil
}
