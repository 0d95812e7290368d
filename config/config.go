// Package config loads YAML calibration definitions: curves, calibration
// instruments with target quotes, and solver parameters. Supported curve and
// instrument types form a closed set dispatched by explicit switches, so an
// unknown identifier fails at load time rather than at first use.
package config

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/viper"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/instruments"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

// ErrConfig is returned for malformed or unsupported configuration input.
var ErrConfig = errors.New("config: invalid configuration")

// Document is the root of a calibration definition file.
type Document struct {
	Curves      []CurveSpec
	Instruments []InstrumentSpec
	Solver      SolverSpec
}

// CurveSpec declares one curve: node dates bound to initial values (1.0 by
// convention), plus interpolation and convention identifiers.
type CurveSpec struct {
	ID            string
	Convention    string
	Calendar      string
	Interpolation string
	Extrapolate   bool
	Nodes         []NodeSpec
	Knots         []string
}

// NodeSpec is one (ISO 8601 date, value) curve pillar.
type NodeSpec struct {
	Date  string
	Value float64
}

// InstrumentSpec declares one calibration instrument with its target quote.
// Which fields apply depends on Type: irs uses effective/termination, fra
// uses start/end, butterfly names three component labels.
type InstrumentSpec struct {
	Type            string
	Label           string
	Curve           string
	Effective       string
	Termination     string
	Start           string
	End             string
	FrequencyMonths int
	Convention      string
	Components      []string
	Target          float64
	// Weight scales the residual; 0 means the default 1.0. Regularization
	// entries use a small explicit weight such as 1e-8.
	Weight float64
}

// SolverSpec carries convergence parameters; zero values select defaults.
type SolverSpec struct {
	ID            string
	Tolerance     float64
	MaxIterations int
	Damping       float64
}

// Load reads a YAML calibration definition from a file path.
func Load(configPath string) (*Document, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrConfig, configPath, err)
	}
	return unmarshal(v)
}

// Parse reads a YAML calibration definition from a reader.
func Parse(r io.Reader) (*Document, error) {
	v := viper.New()
	v.SetConfigType("yml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return unmarshal(v)
}

func unmarshal(v *viper.Viper) (*Document, error) {
	var doc Document
	if err := v.Unmarshal(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return &doc, nil
}

// BuildCurves constructs every declared curve, keyed by ID.
func (doc *Document) BuildCurves() (map[string]*curve.Curve, error) {
	out := make(map[string]*curve.Curve, len(doc.Curves))
	for _, spec := range doc.Curves {
		if spec.ID == "" {
			return nil, fmt.Errorf("%w: curve without an id", ErrConfig)
		}
		if _, dup := out[spec.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate curve id %q", ErrConfig, spec.ID)
		}
		c, err := spec.build()
		if err != nil {
			return nil, err
		}
		out[spec.ID] = c
	}
	return out, nil
}

func (spec CurveSpec) build() (*curve.Curve, error) {
	interp, err := interpolationFor(spec.Interpolation)
	if err != nil {
		return nil, fmt.Errorf("curve %q: %w", spec.ID, err)
	}
	cal, err := calendarFor(spec.Calendar)
	if err != nil {
		return nil, fmt.Errorf("curve %q: %w", spec.ID, err)
	}

	nodes := make([]curve.Node, len(spec.Nodes))
	for i, n := range spec.Nodes {
		d, err := utils.ParseDate(n.Date)
		if err != nil {
			return nil, fmt.Errorf("%w: curve %q node date %q", ErrConfig, spec.ID, n.Date)
		}
		nodes[i] = curve.Node{Date: d, Value: n.Value}
	}
	var knots []time.Time
	for _, k := range spec.Knots {
		d, err := utils.ParseDate(k)
		if err != nil {
			return nil, fmt.Errorf("%w: curve %q knot date %q", ErrConfig, spec.ID, k)
		}
		knots = append(knots, d)
	}

	c, err := curve.New(spec.ID, nodes, curve.Options{
		Convention:    spec.Convention,
		Calendar:      cal,
		Interpolation: interp,
		Knots:         knots,
		Extrapolate:   spec.Extrapolate,
	})
	if err != nil {
		return nil, fmt.Errorf("curve %q: %w", spec.ID, err)
	}
	return c, nil
}

// interpolationFor maps a config identifier onto the closed strategy set.
func interpolationFor(s string) (curve.Interpolation, error) {
	switch curve.Interpolation(s) {
	case "":
		return curve.LogLinear, nil
	case curve.LogLinear, curve.Linear, curve.FlatForward,
		curve.LinearIndex, curve.LinearZeroRate, curve.Spline:
		return curve.Interpolation(s), nil
	}
	// "mixed" is log-linear plus an explicit knot sequence.
	if s == "mixed" {
		return curve.LogLinear, nil
	}
	return "", fmt.Errorf("%w: unknown interpolation %q", ErrConfig, s)
}

// calendarFor maps a config identifier onto the closed calendar set.
func calendarFor(s string) (calendar.CalendarID, error) {
	switch s {
	case "":
		return calendar.ALL, nil
	case "all":
		return calendar.ALL, nil
	case "bus":
		return calendar.BUS, nil
	case "nyc":
		return calendar.NYC, nil
	case "tgt":
		return calendar.TGT, nil
	}
	return "", fmt.Errorf("%w: unknown calendar %q", ErrConfig, s)
}

// BuildInstruments constructs the instrument list plus aligned target and
// weight slices against the given curves. Combination instruments reference
// earlier entries by label.
func (doc *Document) BuildInstruments(curves map[string]*curve.Curve) ([]solver.Instrument, []float64, []float64, error) {
	insts := make([]solver.Instrument, 0, len(doc.Instruments))
	targets := make([]float64, 0, len(doc.Instruments))
	weights := make([]float64, 0, len(doc.Instruments))
	byLabel := make(map[string]instruments.Quoter)

	for _, spec := range doc.Instruments {
		inst, err := spec.build(curves, byLabel)
		if err != nil {
			return nil, nil, nil, err
		}
		insts = append(insts, inst)
		targets = append(targets, spec.Target)
		w := spec.Weight
		if w == 0 {
			w = 1.0
		}
		weights = append(weights, w)
		byLabel[spec.Label] = inst
	}
	return insts, targets, weights, nil
}

func (spec InstrumentSpec) build(curves map[string]*curve.Curve, byLabel map[string]instruments.Quoter) (solver.Instrument, error) {
	if spec.Label == "" {
		return nil, fmt.Errorf("%w: instrument without a label", ErrConfig)
	}
	switch spec.Type {
	case "irs":
		c, dates, err := spec.resolve(curves, spec.Effective, spec.Termination)
		if err != nil {
			return nil, err
		}
		return instruments.IRS{
			Lbl:             spec.Label,
			Curve:           c,
			Effective:       dates[0],
			Termination:     dates[1],
			FrequencyMonths: spec.FrequencyMonths,
			Convention:      spec.Convention,
			Calendar:        c.Calendar(),
		}, nil
	case "fra":
		c, dates, err := spec.resolve(curves, spec.Start, spec.End)
		if err != nil {
			return nil, err
		}
		return instruments.FRA{Lbl: spec.Label, Curve: c, Start: dates[0], End: dates[1]}, nil
	case "butterfly":
		if len(spec.Components) != 3 {
			return nil, fmt.Errorf("%w: butterfly %q needs 3 components, got %d",
				ErrConfig, spec.Label, len(spec.Components))
		}
		wings := make([]instruments.Quoter, 3)
		for i, label := range spec.Components {
			q, ok := byLabel[label]
			if !ok {
				return nil, fmt.Errorf("%w: butterfly %q references undefined instrument %q",
					ErrConfig, spec.Label, label)
			}
			wings[i] = q
		}
		return instruments.Butterfly{Lbl: spec.Label, Left: wings[0], Mid: wings[1], Right: wings[2]}, nil
	}
	return nil, fmt.Errorf("%w: unknown instrument type %q", ErrConfig, spec.Type)
}

func (spec InstrumentSpec) resolve(curves map[string]*curve.Curve, from, to string) (*curve.Curve, [2]time.Time, error) {
	c, ok := curves[spec.Curve]
	if !ok {
		return nil, [2]time.Time{}, fmt.Errorf("%w: instrument %q references undefined curve %q",
			ErrConfig, spec.Label, spec.Curve)
	}
	d1, err := utils.ParseDate(from)
	if err != nil {
		return nil, [2]time.Time{}, fmt.Errorf("%w: instrument %q date %q", ErrConfig, spec.Label, from)
	}
	d2, err := utils.ParseDate(to)
	if err != nil {
		return nil, [2]time.Time{}, fmt.Errorf("%w: instrument %q date %q", ErrConfig, spec.Label, to)
	}
	return c, [2]time.Time{d1, d2}, nil
}

// SolverOptions converts the solver section into solver options.
func (doc *Document) SolverOptions() solver.Options {
	return solver.Options{
		Tolerance:     doc.Solver.Tolerance,
		MaxIterations: doc.Solver.MaxIterations,
		Damping:       doc.Solver.Damping,
	}
}
