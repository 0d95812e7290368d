package instruments_test

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instruments"
	"github.com/meenmo/curvelib/solver"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// flatCurve builds a curve with a constant continuously-compounded rate.
func flatCurve(t *testing.T, id string, anchor time.Time, rate float64, maturities ...time.Time) *curve.Curve {
	t.Helper()
	nodes := []curve.Node{{Date: anchor, Value: 1.0}}
	for _, d := range maturities {
		yf := d.Sub(anchor).Hours() / 24 / 365
		nodes = append(nodes, curve.Node{Date: d, Value: math.Exp(-rate * yf)})
	}
	c, err := curve.New(id, nodes, curve.Options{})
	if err != nil {
		t.Fatalf("curve.New: %v", err)
	}
	return c
}

func TestIRSParRateOnFlatCurve(t *testing.T) {
	t.Parallel()

	anchor := date(2022, 1, 1)
	c := flatCurve(t, "fl", anchor, 0.03, date(2023, 1, 1), date(2024, 1, 1), date(2025, 1, 1))

	irs := instruments.IRS{
		Lbl:         "2Y",
		Curve:       c,
		Effective:   anchor,
		Termination: date(2024, 1, 1),
	}
	r, err := irs.Rate()
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}

	// Par rate off a flat CC curve with unit accruals is the annually
	// compounded equivalent: exp(r) - 1.
	want := (math.Exp(0.03) - 1.0) * 100.0
	if math.Abs(r.Real-want) > 1e-4 {
		t.Fatalf("par rate = %v, want ~%v", r.Real, want)
	}

	// The quote carries sensitivities to every schedule pillar.
	if len(r.Vars()) == 0 {
		t.Fatal("par rate carries no node sensitivities")
	}
}

func TestIRSStubTermination(t *testing.T) {
	t.Parallel()

	anchor := date(2022, 1, 1)
	c := flatCurve(t, "st", anchor, 0.02, date(2023, 1, 1), date(2024, 1, 1))

	// 18M termination off an annual grid: one regular period plus a stub.
	irs := instruments.IRS{
		Lbl:         "18M",
		Curve:       c,
		Effective:   anchor,
		Termination: date(2023, 7, 1),
	}
	r, err := irs.Rate()
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if r.Real <= 0 || r.Real > 3.0 {
		t.Fatalf("stub par rate implausible: %v", r.Real)
	}
}

func TestIRSRejectsInvertedDates(t *testing.T) {
	t.Parallel()

	anchor := date(2022, 1, 1)
	c := flatCurve(t, "iv", anchor, 0.02, date(2023, 1, 1))
	irs := instruments.IRS{Lbl: "bad", Curve: c, Effective: date(2023, 1, 1), Termination: anchor}
	if _, err := irs.Rate(); !errors.Is(err, instruments.ErrConstruction) {
		t.Fatalf("expected ErrConstruction, got %v", err)
	}
}

func TestFRAMatchesCurveForward(t *testing.T) {
	t.Parallel()

	anchor := date(2022, 1, 1)
	c := flatCurve(t, "fr", anchor, 0.025, date(2023, 1, 1), date(2024, 1, 1))

	d1, d2 := date(2022, 6, 1), date(2022, 12, 1)
	fra := instruments.FRA{Lbl: "6x12", Curve: c, Start: d1, End: d2}
	r, err := fra.Rate()
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	f, err := c.ForwardRate(d1, d2)
	if err != nil {
		t.Fatalf("ForwardRate: %v", err)
	}
	if math.Abs(r.Real-100.0*f.Real) > 1e-12 {
		t.Fatalf("FRA quote %v, curve forward %v", r.Real, 100.0*f.Real)
	}
}

func TestButterflyVanishesOnLinearRateProfile(t *testing.T) {
	t.Parallel()

	anchor := date(2022, 1, 1)
	c := flatCurve(t, "bf", anchor, 0.03,
		date(2023, 1, 1), date(2024, 1, 1), date(2025, 1, 1), date(2026, 1, 1))

	mk := func(lbl string, term time.Time) instruments.IRS {
		return instruments.IRS{Lbl: lbl, Curve: c, Effective: anchor, Termination: term}
	}
	fly := instruments.Butterfly{
		Lbl:   "1s2s3s",
		Left:  mk("1Y", date(2023, 1, 1)),
		Mid:   mk("2Y", date(2024, 1, 1)),
		Right: mk("3Y", date(2025, 1, 1)),
	}
	r, err := fly.Rate()
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	// Par rates on a flat CC curve are nearly equal across maturities, so
	// the curvature combination is close to zero (leap-year day counts keep
	// it from vanishing exactly).
	if math.Abs(r.Real) > 1e-3 {
		t.Fatalf("butterfly on flat curve = %v, want ~0", r.Real)
	}
	if len(r.Vars()) == 0 {
		t.Fatal("butterfly carries no sensitivities")
	}
}

func TestSpreadOfIdenticalLegsIsZero(t *testing.T) {
	t.Parallel()

	anchor := date(2022, 1, 1)
	c := flatCurve(t, "sp", anchor, 0.02, date(2023, 1, 1), date(2024, 1, 1))
	leg := instruments.IRS{Lbl: "2Y", Curve: c, Effective: anchor, Termination: date(2024, 1, 1)}
	sp := instruments.Spread{Lbl: "flat", Shorter: leg, Longer: leg}
	r, err := sp.Rate()
	if err != nil {
		t.Fatalf("Rate: %v", err)
	}
	if r.Real != 0 {
		t.Fatalf("spread of identical legs = %v, want 0", r.Real)
	}
}

func TestIRSCalibration(t *testing.T) {
	t.Parallel()

	anchor := date(2022, 1, 1)
	nodes := []curve.Node{
		{Date: anchor, Value: 1.0},
		{Date: date(2023, 1, 1), Value: 1.0},
		{Date: date(2024, 1, 1), Value: 1.0},
	}
	c, err := curve.New("cal", nodes, curve.Options{})
	if err != nil {
		t.Fatalf("curve.New: %v", err)
	}

	insts := []solver.Instrument{
		instruments.IRS{Lbl: "1Y", Curve: c, Effective: anchor, Termination: date(2023, 1, 1)},
		instruments.IRS{Lbl: "2Y", Curve: c, Effective: anchor, Termination: date(2024, 1, 1)},
	}
	targets := []float64{1.50, 1.85}

	s, err := solver.New(solver.Config{
		ID:          "irs",
		Curves:      []*curve.Curve{c},
		Instruments: insts,
		Targets:     targets,
	})
	if err != nil {
		t.Fatalf("solver.New: %v", err)
	}
	if _, err := s.Solve(context.Background()); err != nil {
		t.Fatalf("Solve: %v", err)
	}
	for i, inst := range insts {
		r, err := inst.Rate()
		if err != nil {
			t.Fatalf("Rate: %v", err)
		}
		if math.Abs(r.Real-targets[i]) > 1e-10 {
			t.Fatalf("%s reprices to %v, want %v", inst.Label(), r.Real, targets[i])
		}
	}
	// Discount factors decrease with maturity under positive rates.
	if !(c.NodeValue(1) < 1.0 && c.NodeValue(2) < c.NodeValue(1)) {
		t.Fatalf("calibrated DFs not decreasing: %v", c.NodeValues())
	}
}
