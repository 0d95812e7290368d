// Package recipes reproduces the worked curve-building examples end to end:
// building curves from bundled market data, calibrating them, and returning
// the calibrated objects for reporting. Each recipe is independent so a
// driver can isolate failures per recipe.
package recipes

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instruments"
	"github.com/meenmo/curvelib/marketdata/cookbook"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

// SingleCurrencyVariants are the interpolation setups of the single-currency
// recipe, in presentation order.
var SingleCurrencyVariants = []string{"log_linear", "spline", "mixed"}

// SingleCurrencyCurves calibrates the 14-node single-currency curve under
// log-linear, spline and mixed interpolation against the same 13 par swap
// quotes, returning the calibrated curve per variant. The variants reprice
// identically at the pillars but differ materially between them.
func SingleCurrencyCurves(ctx context.Context, log *zap.Logger) (map[string]*curve.Curve, error) {
	if log == nil {
		log = zap.NewNop()
	}
	out := make(map[string]*curve.Curve, len(SingleCurrencyVariants))
	for _, variant := range SingleCurrencyVariants {
		opts := curve.Options{Convention: "ACT/365F", Calendar: calendar.ALL}
		switch variant {
		case "log_linear":
			opts.Interpolation = curve.LogLinear
		case "spline":
			opts.Interpolation = curve.Spline
		case "mixed":
			opts.Interpolation = curve.LogLinear
			opts.Knots = cookbook.MixedKnots()
		}

		c, err := curve.New("uscurve-"+variant, cookbook.SingleCurrencyNodes(), opts)
		if err != nil {
			return nil, fmt.Errorf("recipe 1 (%s): %w", variant, err)
		}
		if err := calibrate(ctx, log, variant, c, cookbook.SingleCurrencyQuotes()); err != nil {
			return nil, fmt.Errorf("recipe 1 (%s): %w", variant, err)
		}
		out[variant] = c
	}
	return out, nil
}

// calibrate solves a single curve against par swap quotes.
func calibrate(ctx context.Context, log *zap.Logger, id string, c *curve.Curve, quotes []cookbook.Quote) error {
	insts := make([]solver.Instrument, len(quotes))
	targets := make([]float64, len(quotes))
	for i, q := range quotes {
		insts[i] = instruments.IRS{
			Lbl:         q.Label,
			Curve:       c,
			Effective:   q.Effective,
			Termination: q.Termination,
			Convention:  c.DayCount(),
			Calendar:    c.Calendar(),
		}
		targets[i] = q.Rate
	}
	s, err := solver.New(solver.Config{
		ID:          id,
		Curves:      []*curve.Curve{c},
		Instruments: insts,
		Targets:     targets,
		Logger:      log,
	})
	if err != nil {
		return err
	}
	res, err := s.Solve(ctx)
	if err != nil {
		return err
	}
	log.Info("curve calibrated",
		zap.String("curve", c.ID()),
		zap.Int("iterations", res.Iterations),
		zap.Float64("residual", res.Residual))
	return nil
}

// SofrCurve builds the conventional par tenor curve: pillars at every quoted
// tenor's adjusted termination from the spot date, calibrated to the par
// grid.
func SofrCurve(ctx context.Context, log *zap.Logger) (*curve.Curve, *solver.Solver, error) {
	if log == nil {
		log = zap.NewNop()
	}
	quotes := cookbook.SofrQuotes()

	nodes := []curve.Node{{Date: cookbook.SofrAnchor, Value: 1.0}}
	terminations := make([]time.Time, len(quotes))
	for i, q := range quotes {
		term, err := utils.AddTenor(cookbook.SofrEffective, q.Term, calendar.NYC)
		if err != nil {
			return nil, nil, fmt.Errorf("recipe 2: tenor %s: %w", q.Term, err)
		}
		terminations[i] = term
		nodes = append(nodes, curve.Node{Date: term, Value: 1.0})
	}

	c, err := curve.New("sofr", nodes, curve.Options{
		Convention:    "ACT/360",
		Calendar:      calendar.NYC,
		Interpolation: curve.LogLinear,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("recipe 2: %w", err)
	}

	insts := make([]solver.Instrument, len(quotes))
	targets := make([]float64, len(quotes))
	for i, q := range quotes {
		insts[i] = instruments.IRS{
			Lbl:         q.Term,
			Curve:       c,
			Effective:   cookbook.SofrEffective,
			Termination: terminations[i],
			Convention:  "ACT/360",
			Calendar:    calendar.NYC,
		}
		targets[i] = q.Rate
	}
	s, err := solver.New(solver.Config{
		ID:          "us_rates",
		Curves:      []*curve.Curve{c},
		Instruments: insts,
		Targets:     targets,
		Logger:      log,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("recipe 2: %w", err)
	}
	res, err := s.Solve(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("recipe 2: %w", err)
	}
	log.Info("sofr curve calibrated",
		zap.Int("pillars", c.Len()),
		zap.Int("iterations", res.Iterations))
	return c, s, nil
}

// DependencyResult holds the calibrated curves and solvers of the
// dependency-chain recipe.
type DependencyResult struct {
	Eur        *curve.Curve
	Usd        *curve.Curve
	Basis      *curve.Curve
	Discount   *curve.CompositeCurve
	EurSolver  *solver.Solver
	UsdSolver  *solver.Solver
	ChainedRun *solver.Solver
}

// DependencyChain solves the EUR and USD curves independently, then
// calibrates a basis curve to quoted spreads over the fixed EUR curve via a
// composite discount curve. The pre-solved curves are read but never
// mutated.
func DependencyChain(ctx context.Context, log *zap.Logger) (*DependencyResult, error) {
	if log == nil {
		log = zap.NewNop()
	}

	// Business-day adjustment can push the final payment a day or two past
	// the last pillar, so these curves hold the last discount factor flat.
	eur, err := curve.New("eureur", cookbook.EurNodes(), curve.Options{
		Convention: "ACT/360", Calendar: calendar.TGT, Extrapolate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("recipe 3: %w", err)
	}
	eurSolver, err := parSolver(ctx, log, "eur", eur, cookbook.EurQuotes())
	if err != nil {
		return nil, fmt.Errorf("recipe 3 (eur): %w", err)
	}

	usd, err := curve.New("usdusd", cookbook.UsdNodes(), curve.Options{
		Convention: "ACT/360", Calendar: calendar.NYC, Extrapolate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("recipe 3: %w", err)
	}
	usdSolver, err := parSolver(ctx, log, "usd", usd, cookbook.UsdQuotes())
	if err != nil {
		return nil, fmt.Errorf("recipe 3 (usd): %w", err)
	}

	basis, err := curve.New("eurusd", cookbook.BasisNodes(), curve.Options{
		Convention: "ACT/360", Extrapolate: true,
	})
	if err != nil {
		return nil, fmt.Errorf("recipe 3: %w", err)
	}
	discount, err := curve.NewComposite("eurusd-discount", eur, basis)
	if err != nil {
		return nil, fmt.Errorf("recipe 3: %w", err)
	}

	// Basis quote: the spread, in basis points, of a par swap discounted on
	// the composite over the same swap on the plain EUR curve.
	quotes := cookbook.BasisQuotes()
	insts := make([]solver.Instrument, len(quotes))
	targets := make([]float64, len(quotes))
	for i, q := range quotes {
		insts[i] = instruments.Spread{
			Lbl: q.Label,
			Shorter: instruments.IRS{
				Lbl: q.Label + "-eur", Curve: eur,
				Effective: q.Effective, Termination: q.Termination,
				Convention: "ACT/360", Calendar: calendar.TGT,
			},
			Longer: instruments.IRS{
				Lbl: q.Label + "-xcs", Curve: discount,
				Effective: q.Effective, Termination: q.Termination,
				Convention: "ACT/360", Calendar: calendar.TGT,
			},
		}
		targets[i] = q.Rate / 100.0 // bp to percent
	}
	chained, err := solver.New(solver.Config{
		ID:          "eur/usd",
		Curves:      []*curve.Curve{basis},
		Instruments: insts,
		Targets:     targets,
		PreSolvers:  []*solver.Solver{eurSolver, usdSolver},
		Logger:      log,
	})
	if err != nil {
		return nil, fmt.Errorf("recipe 3 (basis): %w", err)
	}
	if _, err := chained.Solve(ctx); err != nil {
		return nil, fmt.Errorf("recipe 3 (basis): %w", err)
	}

	return &DependencyResult{
		Eur: eur, Usd: usd, Basis: basis, Discount: discount,
		EurSolver: eurSolver, UsdSolver: usdSolver, ChainedRun: chained,
	}, nil
}

func parSolver(ctx context.Context, log *zap.Logger, id string, c *curve.Curve, quotes []cookbook.Quote) (*solver.Solver, error) {
	insts := make([]solver.Instrument, len(quotes))
	targets := make([]float64, len(quotes))
	for i, q := range quotes {
		insts[i] = instruments.IRS{
			Lbl:         q.Label,
			Curve:       c,
			Effective:   q.Effective,
			Termination: q.Termination,
			Convention:  c.DayCount(),
			Calendar:    c.Calendar(),
		}
		targets[i] = q.Rate
	}
	s, err := solver.New(solver.Config{
		ID:          id,
		Curves:      []*curve.Curve{c},
		Instruments: insts,
		Targets:     targets,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.Solve(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// MultiCsaResult pairs the cheapest-to-deliver curve with its constituents.
type MultiCsaResult struct {
	Csa  *curve.MultiCsaCurve
	Low  *curve.Curve
	High *curve.Curve
}

// MultiCsaDiscontinuity builds two discount curves whose forward rates cross
// mid-domain and combines them into a multi-CSA curve. The combined forward
// rate tracks whichever constituent is higher, switching constituent at the
// crossing, so its derivative is discontinuous there.
func MultiCsaDiscontinuity(_ context.Context, log *zap.Logger) (*MultiCsaResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	anchor := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	mk := func(id string, dfs []float64) (*curve.Curve, error) {
		nodes := []curve.Node{{Date: anchor, Value: 1.0}}
		for i, v := range dfs {
			nodes = append(nodes, curve.Node{Date: anchor.AddDate(i+1, 0, 0), Value: v})
		}
		return curve.New(id, nodes, curve.Options{})
	}

	// Steep then flat against flat then steep: forwards cross in year two.
	low, err := mk("csa-low", []float64{0.970, 0.945, 0.920})
	if err != nil {
		return nil, fmt.Errorf("recipe 28: %w", err)
	}
	high, err := mk("csa-high", []float64{0.985, 0.950, 0.905})
	if err != nil {
		return nil, fmt.Errorf("recipe 28: %w", err)
	}
	csa, err := curve.NewMultiCsa("csa", low, high)
	if err != nil {
		return nil, fmt.Errorf("recipe 28: %w", err)
	}
	log.Info("multi-CSA curve assembled", zap.String("curve", csa.ID()))
	return &MultiCsaResult{Csa: csa, Low: low, High: high}, nil
}
