package recipes_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instruments"
	"github.com/meenmo/curvelib/marketdata/cookbook"
	"github.com/meenmo/curvelib/recipes"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

func TestSingleCurrencyThreeInterpolations(t *testing.T) {
	t.Parallel()

	curves, err := recipes.SingleCurrencyCurves(context.Background(), nil)
	if err != nil {
		t.Fatalf("SingleCurrencyCurves: %v", err)
	}
	if len(curves) != 3 {
		t.Fatalf("expected 3 variants, got %d", len(curves))
	}

	// Every variant reprices every quote to within 1e-8.
	for variant, c := range curves {
		df, err := c.Lookup(cookbook.SingleCurrencyAnchor)
		if err != nil || df.Real != 1.0 {
			t.Fatalf("%s: anchor DF = %v (err %v), want exactly 1", variant, df.Real, err)
		}
		for _, q := range cookbook.SingleCurrencyQuotes() {
			irs := instruments.IRS{
				Lbl: q.Label, Curve: c,
				Effective: q.Effective, Termination: q.Termination,
				Convention: c.DayCount(), Calendar: c.Calendar(),
			}
			r, err := irs.Rate()
			if err != nil {
				t.Fatalf("%s/%s: Rate: %v", variant, q.Label, err)
			}
			if math.Abs(r.Real-q.Rate) > 1e-8 {
				t.Fatalf("%s/%s reprices to %v, want %v", variant, q.Label, r.Real, q.Rate)
			}
		}
	}

	// Between the 2024-03-15 and 2025-01-01 pillars the interpolation choice
	// materially changes the discount factors.
	probe := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	dfs := map[string]float64{}
	for variant, c := range curves {
		df, err := c.Lookup(probe)
		if err != nil {
			t.Fatalf("%s: Lookup(%s): %v", variant, probe.Format("2006-01-02"), err)
		}
		dfs[variant] = df.Real
	}
	pairs := [][2]string{{"log_linear", "spline"}, {"log_linear", "mixed"}, {"spline", "mixed"}}
	for _, p := range pairs {
		if math.Abs(dfs[p[0]]-dfs[p[1]]) < 1e-6 {
			t.Fatalf("%s and %s indistinguishable at the unconstrained region: %v vs %v",
				p[0], p[1], dfs[p[0]], dfs[p[1]])
		}
	}
}

func TestSofrCurveReprices(t *testing.T) {
	t.Parallel()

	c, s, err := recipes.SofrCurve(context.Background(), nil)
	if err != nil {
		t.Fatalf("SofrCurve: %v", err)
	}
	if s.State() != solver.Converged {
		t.Fatalf("solver state %v, want converged", s.State())
	}
	if c.Len() != len(cookbook.SofrQuotes())+1 {
		t.Fatalf("pillar count %d, want %d", c.Len(), len(cookbook.SofrQuotes())+1)
	}

	for i, q := range cookbook.SofrQuotes() {
		term, err := utils.AddTenor(cookbook.SofrEffective, q.Term, c.Calendar())
		if err != nil {
			t.Fatalf("AddTenor(%s): %v", q.Term, err)
		}
		irs := instruments.IRS{
			Lbl: q.Term, Curve: c,
			Effective: cookbook.SofrEffective, Termination: term,
			Convention: "ACT/360", Calendar: c.Calendar(),
		}
		r, err := irs.Rate()
		if err != nil {
			t.Fatalf("%s: Rate: %v", q.Term, err)
		}
		if math.Abs(r.Real-q.Rate) > 1e-8 {
			t.Fatalf("%s reprices to %v, want %v", q.Term, r.Real, q.Rate)
		}
		// Positive rates force strictly decreasing pillar DFs.
		if c.NodeValue(i+1) >= c.NodeValue(i) {
			t.Fatalf("pillar DFs not decreasing at %d: %v", i+1, c.NodeValues())
		}
	}
}

func TestDependencyChainRepricesBothStages(t *testing.T) {
	t.Parallel()

	res, err := recipes.DependencyChain(context.Background(), nil)
	if err != nil {
		t.Fatalf("DependencyChain: %v", err)
	}
	if res.ChainedRun.State() != solver.Converged {
		t.Fatalf("chained solver state %v", res.ChainedRun.State())
	}

	// The pre-solved EUR curve still reprices its own quotes after the
	// dependent solve.
	for _, q := range cookbook.EurQuotes() {
		irs := instruments.IRS{
			Lbl: q.Label, Curve: res.Eur,
			Effective: q.Effective, Termination: q.Termination,
			Convention: res.Eur.DayCount(), Calendar: res.Eur.Calendar(),
		}
		r, err := irs.Rate()
		if err != nil {
			t.Fatalf("%s: Rate: %v", q.Label, err)
		}
		if math.Abs(r.Real-q.Rate) > 1e-8 {
			t.Fatalf("pre-solved %s drifted to %v, want %v", q.Label, r.Real, q.Rate)
		}
	}

	// Basis spreads reprice in basis points.
	for _, q := range cookbook.BasisQuotes() {
		sp := instruments.Spread{
			Lbl: q.Label,
			Shorter: instruments.IRS{
				Lbl: q.Label + "-eur", Curve: res.Eur,
				Effective: q.Effective, Termination: q.Termination,
				Convention: "ACT/360", Calendar: res.Eur.Calendar(),
			},
			Longer: instruments.IRS{
				Lbl: q.Label + "-xcs", Curve: res.Discount,
				Effective: q.Effective, Termination: q.Termination,
				Convention: "ACT/360", Calendar: res.Eur.Calendar(),
			},
		}
		r, err := sp.Rate()
		if err != nil {
			t.Fatalf("%s: Rate: %v", q.Label, err)
		}
		if math.Abs(100.0*r.Real-q.Rate) > 1e-6 {
			t.Fatalf("%s reprices to %v bp, want %v bp", q.Label, 100.0*r.Real, q.Rate)
		}
	}
}

func TestMultiCsaTracksMaxForward(t *testing.T) {
	t.Parallel()

	res, err := recipes.MultiCsaDiscontinuity(context.Background(), nil)
	if err != nil {
		t.Fatalf("MultiCsaDiscontinuity: %v", err)
	}
	anchor := res.Low.Anchor()
	y1 := anchor.AddDate(1, 0, 0)
	y2 := anchor.AddDate(2, 0, 0)
	y3 := anchor.AddDate(3, 0, 0)

	// Year one the first constituent is more expensive; year two onward the
	// second is. The combined forward switches constituent at the crossing.
	f1, _ := res.Csa.CCForwardRate(anchor, y1)
	w1, _ := res.Low.CCForwardRate(anchor, y1)
	if math.Abs(f1.Real-w1.Real) > 1e-12 {
		t.Fatalf("year-1 forward %v, want first constituent's %v", f1.Real, w1.Real)
	}
	f2, _ := res.Csa.CCForwardRate(y1, y2)
	w2, _ := res.High.CCForwardRate(y1, y2)
	if math.Abs(f2.Real-w2.Real) > 1e-12 {
		t.Fatalf("year-2 forward %v, want second constituent's %v", f2.Real, w2.Real)
	}

	// The combined DF compounds the maximum rate, so it lies below both
	// constituents once the maximizer has switched.
	dfCsa, _ := res.Csa.Lookup(y3)
	dfLow, _ := res.Low.Lookup(y3)
	dfHigh, _ := res.High.Lookup(y3)
	if dfCsa.Real >= dfLow.Real || dfCsa.Real >= dfHigh.Real {
		t.Fatalf("multi-CSA DF %v not below constituents %v, %v", dfCsa.Real, dfLow.Real, dfHigh.Real)
	}
}

func TestRecipesHonorCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := recipes.SingleCurrencyCurves(ctx, nil); !errors.Is(err, solver.ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

// Guard against fixture drift: the end-to-end scenario is defined by 14
// pillars and 13 quotes.
func TestFixtureShape(t *testing.T) {
	t.Parallel()

	if n := len(cookbook.SingleCurrencyNodes()); n != 14 {
		t.Fatalf("single-currency pillars = %d, want 14", n)
	}
	if n := len(cookbook.SingleCurrencyQuotes()); n != 13 {
		t.Fatalf("single-currency quotes = %d, want 13", n)
	}
	if _, err := curve.New("shape", cookbook.SingleCurrencyNodes(), curve.Options{
		Interpolation: curve.LogLinear,
		Knots:         cookbook.MixedKnots(),
	}); err != nil {
		t.Fatalf("mixed knot sequence rejected: %v", err)
	}
}
