// Command curvebook runs the bundled curve-building recipes, or a YAML
// calibration definition, and writes the results as CSV. Recipes are
// isolated: a failing recipe is reported and the rest still run.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/meenmo/curvelib/config"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/recipes"
	"github.com/meenmo/curvelib/report"
	"github.com/meenmo/curvelib/solver"
)

// initializeLogger builds a zap logger from the CLI options.
func initializeLogger(level, format string) (*zap.Logger, error) {
	var zapLevel zapcore.Level
	switch level {
	case "", "info":
		zapLevel = zapcore.InfoLevel
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "warn", "warning":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("invalid log level: %s", level)
	}

	var cfg zap.Config
	switch format {
	case "", "console":
		cfg = zap.NewDevelopmentConfig()
	case "json":
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("invalid log format: %s", format)
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	return cfg.Build()
}

func main() {
	recipeFlag := flag.String("recipes", "all", "comma-separated recipe selection: 1, 2, 3, 28 or all")
	configPath := flag.String("config", "", "YAML calibration definition to run instead of the built-in recipes")
	outDir := flag.String("out", "", "directory for CSV output; stdout when empty")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	logFormat := flag.String("log-format", "", "log format (console, json)")
	flag.Parse()

	logger, err := initializeLogger(*logLevel, *logFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()

	if *configPath != "" {
		if err := runConfig(ctx, logger, *configPath, *outDir); err != nil {
			logger.Error("calibration failed",
				zap.String("config", *configPath),
				zap.Error(err))
			os.Exit(1)
		}
		return
	}

	runners := map[string]func(context.Context, *zap.Logger, string) error{
		"1":  runSingleCurrency,
		"2":  runSofr,
		"3":  runDependencyChain,
		"28": runMultiCsa,
	}
	var selected []string
	if *recipeFlag == "all" {
		selected = []string{"1", "2", "3", "28"}
	} else {
		selected = strings.Split(*recipeFlag, ",")
	}

	failures := 0
	for _, name := range selected {
		name = strings.TrimSpace(name)
		run, ok := runners[name]
		if !ok {
			logger.Error("unknown recipe", zap.String("recipe", name))
			failures++
			continue
		}
		logger.Info("running recipe", zap.String("recipe", name))
		if err := run(ctx, logger, *outDir); err != nil {
			// One broken recipe must not abort the batch.
			logger.Error("recipe failed", zap.String("recipe", name), zap.Error(err))
			failures++
		}
	}
	if failures > 0 {
		os.Exit(1)
	}
}

func runSingleCurrency(ctx context.Context, logger *zap.Logger, outDir string) error {
	curves, err := recipes.SingleCurrencyCurves(ctx, logger)
	if err != nil {
		return err
	}
	var rows []report.DiscountFactorRow
	for _, variant := range recipes.SingleCurrencyVariants {
		c := curves[variant]
		r, err := report.DiscountFactors(c, c.NodeDates())
		if err != nil {
			return err
		}
		rows = append(rows, r...)
	}
	return writeCSV(outDir, "recipe1_discount_factors", &rows)
}

func runSofr(ctx context.Context, logger *zap.Logger, outDir string) error {
	c, s, err := recipes.SofrCurve(ctx, logger)
	if err != nil {
		return err
	}
	dfRows, err := report.DiscountFactors(c, c.NodeDates())
	if err != nil {
		return err
	}
	if err := writeCSV(outDir, "recipe2_discount_factors", &dfRows); err != nil {
		return err
	}
	sensRows := report.Sensitivities(s)
	return writeCSV(outDir, "recipe2_sensitivities", &sensRows)
}

func runDependencyChain(ctx context.Context, logger *zap.Logger, outDir string) error {
	res, err := recipes.DependencyChain(ctx, logger)
	if err != nil {
		return err
	}
	var rows []report.DiscountFactorRow
	for _, c := range []*curve.Curve{res.Eur, res.Usd, res.Basis} {
		r, err := report.DiscountFactors(c, c.NodeDates())
		if err != nil {
			return err
		}
		rows = append(rows, r...)
	}
	return writeCSV(outDir, "recipe3_discount_factors", &rows)
}

func runMultiCsa(ctx context.Context, logger *zap.Logger, outDir string) error {
	res, err := recipes.MultiCsaDiscontinuity(ctx, logger)
	if err != nil {
		return err
	}
	// Monthly sampling exposes the forward-rate kink at the switch.
	anchor := res.Low.Anchor()
	var grid []time.Time
	for m := 0; m <= 36; m++ {
		grid = append(grid, anchor.AddDate(0, m, 0))
	}
	var rows []report.ForwardRateRow
	for _, c := range []report.NamedCurve{res.Csa, res.Low, res.High} {
		r, err := report.ForwardRates(c, grid)
		if err != nil {
			return err
		}
		rows = append(rows, r...)
	}
	return writeCSV(outDir, "recipe28_forward_rates", &rows)
}

func runConfig(ctx context.Context, logger *zap.Logger, path, outDir string) error {
	doc, err := config.Load(path)
	if err != nil {
		return err
	}
	curveMap, err := doc.BuildCurves()
	if err != nil {
		return err
	}
	insts, targets, weights, err := doc.BuildInstruments(curveMap)
	if err != nil {
		return err
	}

	ids := make([]string, 0, len(curveMap))
	for id := range curveMap {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	ordered := make([]*curve.Curve, len(ids))
	for i, id := range ids {
		ordered[i] = curveMap[id]
	}

	s, err := solver.New(solver.Config{
		ID:          doc.Solver.ID,
		Curves:      ordered,
		Instruments: insts,
		Targets:     targets,
		Weights:     weights,
		Options:     doc.SolverOptions(),
		Logger:      logger,
	})
	if err != nil {
		return err
	}
	res, err := s.Solve(ctx)
	if err != nil {
		return err
	}
	logger.Info("calibration converged",
		zap.String("solver", doc.Solver.ID),
		zap.Int("iterations", res.Iterations),
		zap.Float64("residual", res.Residual))

	var rows []report.DiscountFactorRow
	for _, c := range ordered {
		r, err := report.DiscountFactors(c, c.NodeDates())
		if err != nil {
			return err
		}
		rows = append(rows, r...)
	}
	return writeCSV(outDir, "calibration_discount_factors", &rows)
}

// writeCSV writes rows to <outDir>/<name>.csv, or to stdout with a heading
// when no output directory is set.
func writeCSV(outDir, name string, rows interface{}) error {
	if outDir == "" {
		fmt.Printf("# %s\n", name)
		return report.WriteCSV(rows, os.Stdout)
	}
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	f, err := os.Create(filepath.Join(outDir, name+".csv"))
	if err != nil {
		return err
	}
	defer func() {
		_ = f.Close()
	}()
	return report.WriteCSV(rows, f)
}
