package curve_test

import (
	"errors"
	"math"
	"testing"

	"github.com/meenmo/curvelib/curve"
)

func TestCompositeSumsRates(t *testing.T) {
	t.Parallel()

	base := mustCurve(t, "base", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2023, 1, 1), Value: 0.97},
	}, curve.Options{})
	spread := mustCurve(t, "spread", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2023, 1, 1), Value: 0.999},
	}, curve.Options{})

	cc, err := curve.NewComposite(
		"combined", base, spread)
	if err != nil {
		t.Fatalf("NewComposite error: %v", err)
	}

	d := date(2022, 7, 1)
	got, err := cc.Lookup(d)
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	a, _ := base.Lookup(d)
	b, _ := spread.Lookup(d)
	if math.Abs(got.Real-a.Real*b.Real) > 1e-15 {
		t.Fatalf("composite DF mismatch: got %v want %v", got.Real, a.Real*b.Real)
	}

	// Continuous rates add: f_combined = f_base + f_spread.
	f, err := cc.CCForwardRate(date(2022, 3, 1), date(2022, 9, 1))
	if err != nil {
		t.Fatalf("CCForwardRate error: %v", err)
	}
	fb, _ := base.CCForwardRate(date(2022, 3, 1), date(2022, 9, 1))
	fs, _ := spread.CCForwardRate(date(2022, 3, 1), date(2022, 9, 1))
	if math.Abs(f.Real-(fb.Real+fs.Real)) > 1e-12 {
		t.Fatalf("rates do not add: %v vs %v", f.Real, fb.Real+fs.Real)
	}
}

func TestCompositeAnchorMismatch(t *testing.T) {
	t.Parallel()

	a := mustCurve(t, "a", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2023, 1, 1), Value: 0.97},
	}, curve.Options{})
	b := mustCurve(t, "b", []curve.Node{
		{Date: date(2022, 2, 1), Value: 1.0},
		{Date: date(2023, 2, 1), Value: 0.97},
	}, curve.Options{})

	if _, err := curve.NewComposite("bad", a, b); !errors.Is(err, curve.ErrConstruction) {
		t.Fatalf("expected ErrConstruction, got %v", err)
	}
}

func TestCompositeDomainError(t *testing.T) {
	t.Parallel()

	long := mustCurve(t, "long", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2024, 1, 1), Value: 0.94},
	}, curve.Options{})
	short := mustCurve(t, "short", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2023, 1, 1), Value: 0.98},
	}, curve.Options{})

	cc, err := curve.NewComposite("lim", long, short)
	if err != nil {
		t.Fatalf("NewComposite error: %v", err)
	}
	if _, err := cc.Lookup(date(2023, 6, 1)); !errors.Is(err, curve.ErrOutOfDomain) {
		t.Fatalf("expected ErrOutOfDomain beyond a constituent's domain, got %v", err)
	}
}

func TestMultiCsaDiscountsAtMaxRate(t *testing.T) {
	t.Parallel()

	// Two flat curves at roughly 2% and 3%: the multi-CSA curve must track
	// the higher-rate constituent everywhere.
	lo := mustCurve(t, "lo", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2023, 1, 1), Value: math.Exp(-0.02)},
	}, curve.Options{})
	hi := mustCurve(t, "hi", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2023, 1, 1), Value: math.Exp(-0.03)},
	}, curve.Options{})

	mc, err := curve.NewMultiCsa("csa", lo, hi)
	if err != nil {
		t.Fatalf("NewMultiCsa error: %v", err)
	}
	d := date(2022, 7, 1)
	got, err := mc.Lookup(d)
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	want, _ := hi.Lookup(d)
	if math.Abs(got.Real-want.Real) > 1e-12 {
		t.Fatalf("multi-CSA did not take max-rate constituent: got %v want %v", got.Real, want.Real)
	}
}

func TestMultiCsaSwitchesConstituents(t *testing.T) {
	t.Parallel()

	// Curve a is expensive in year one, curve b in year two; the multi-CSA
	// DF at the far date compounds the maximum rate per interval and is
	// therefore below either constituent.
	a := mustCurve(t, "ca", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2023, 1, 1), Value: math.Exp(-0.04)},
		{Date: date(2024, 1, 1), Value: math.Exp(-0.04 - 0.01)},
	}, curve.Options{})
	b := mustCurve(t, "cb", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2023, 1, 1), Value: math.Exp(-0.01)},
		{Date: date(2024, 1, 1), Value: math.Exp(-0.01 - 0.05)},
	}, curve.Options{})

	mc, err := curve.NewMultiCsa("sw", a, b)
	if err != nil {
		t.Fatalf("NewMultiCsa error: %v", err)
	}
	far := date(2024, 1, 1)
	got, err := mc.Lookup(far)
	if err != nil {
		t.Fatalf("Lookup error: %v", err)
	}
	want := math.Exp(-0.04 - 0.05)
	if math.Abs(got.Real-want) > 1e-9 {
		t.Fatalf("interval-wise max not applied: got %v want %v", got.Real, want)
	}
	da, _ := a.Lookup(far)
	db, _ := b.Lookup(far)
	if got.Real >= da.Real || got.Real >= db.Real {
		t.Fatalf("multi-CSA DF not below both constituents: %v vs %v, %v", got.Real, da.Real, db.Real)
	}
}
