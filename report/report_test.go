package report_test

import (
	"bytes"
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/report"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testCurve(t *testing.T) *curve.Curve {
	t.Helper()
	c, err := curve.New("usd", []curve.Node{
		{Date: date(2022, 1, 1), Value: 1.0},
		{Date: date(2023, 1, 1), Value: 0.98},
		{Date: date(2024, 1, 1), Value: 0.955},
	}, curve.Options{})
	if err != nil {
		t.Fatalf("curve.New: %v", err)
	}
	return c
}

func TestDiscountFactorCSV(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	rows, err := report.DiscountFactors(c, []time.Time{
		date(2022, 1, 1), date(2022, 7, 1), date(2023, 1, 1),
	})
	if err != nil {
		t.Fatalf("DiscountFactors: %v", err)
	}
	if len(rows) != 3 || rows[0].Factor != 1.0 || rows[2].Factor != 0.98 {
		t.Fatalf("rows misbuilt: %+v", rows)
	}

	var buf bytes.Buffer
	if err := report.WriteCSV(&rows, &buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header plus 3 rows, got %d lines:\n%s", len(lines), buf.String())
	}
	if got := strings.TrimSpace(lines[0]); got != "curve,date,discount_factor" {
		t.Fatalf("header = %q", got)
	}
	if !strings.HasPrefix(lines[1], "usd,2022-01-01,1") {
		t.Fatalf("first row = %q", lines[1])
	}
}

func TestForwardRateRows(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	dates := []time.Time{date(2022, 1, 1), date(2023, 1, 1), date(2024, 1, 1)}
	rows, err := report.ForwardRates(c, dates)
	if err != nil {
		t.Fatalf("ForwardRates: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 forward rows, got %d", len(rows))
	}
	yf := utils.YearFraction(dates[0], dates[1], c.DayCount())
	want := 100.0 * (1.0/0.98 - 1.0) / yf
	if math.Abs(rows[0].Rate-want) > 1e-10 {
		t.Fatalf("first forward = %v, want %v", rows[0].Rate, want)
	}
}

func TestSensitivityRows(t *testing.T) {
	t.Parallel()

	c := testCurve(t)
	inst := dfQuote{label: "1Y", c: c, d: date(2023, 1, 1)}
	s, err := solver.New(solver.Config{
		ID:          "report",
		Curves:      []*curve.Curve{c},
		Instruments: []solver.Instrument{inst, dfQuote{label: "2Y", c: c, d: date(2024, 1, 1)}},
		Targets:     []float64{0.979, 0.951},
	})
	if err != nil {
		t.Fatalf("solver.New: %v", err)
	}
	if _, err := s.Solve(context.Background()); err != nil {
		t.Fatalf("Solve: %v", err)
	}

	rows := report.Sensitivities(s)
	if len(rows) != 4 {
		t.Fatalf("expected 2x2 sensitivity rows, got %d", len(rows))
	}
	// A DF quote at its own pillar has unit sensitivity to that node and
	// zero to the other.
	byKey := map[string]float64{}
	for _, r := range rows {
		byKey[r.Instrument+"/"+r.Variable] = r.Value
	}
	if math.Abs(byKey["1Y/"+c.VarName(1)]-1.0) > 1e-12 {
		t.Fatalf("1Y own-pillar sensitivity = %v, want 1", byKey["1Y/"+c.VarName(1)])
	}
	if byKey["1Y/"+c.VarName(2)] != 0.0 {
		t.Fatalf("1Y cross-pillar sensitivity = %v, want 0", byKey["1Y/"+c.VarName(2)])
	}
}

// dfQuote quotes the discount factor at a pillar directly.
type dfQuote struct {
	label string
	c     *curve.Curve
	d     time.Time
}

func (q dfQuote) Label() string { return q.label }

func (q dfQuote) Rate() (dual.Dual, error) {
	return q.c.Lookup(q.d)
}
