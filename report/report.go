// Package report flattens calibration results into plain row types for
// downstream consumption and writes them out as CSV. The core engine computes
// numbers; rendering stops at character-separated values.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/solver"
	"github.com/meenmo/curvelib/utils"
)

const dateLayout = "2006-01-02"

// NamedCurve is a discount curve with an identifier, satisfied by Curve,
// CompositeCurve and MultiCsaCurve.
type NamedCurve interface {
	curve.DiscountCurve
	ID() string
}

// DiscountFactorRow is one (curve, date, discount factor) observation.
type DiscountFactorRow struct {
	Curve  string  `csv:"curve"`
	Date   string  `csv:"date"`
	Factor float64 `csv:"discount_factor"`
}

// ForwardRateRow is one simple forward rate over consecutive sample dates,
// in percent.
type ForwardRateRow struct {
	Curve string  `csv:"curve"`
	Start string  `csv:"start"`
	End   string  `csv:"end"`
	Rate  float64 `csv:"forward_rate_pct"`
}

// SensitivityRow is one entry of the calibrated Jacobian: the derivative of
// a weighted instrument residual with respect to a curve node variable.
type SensitivityRow struct {
	Instrument string  `csv:"instrument"`
	Variable   string  `csv:"variable"`
	Value      float64 `csv:"sensitivity"`
}

// DiscountFactors samples the curve at the given dates.
func DiscountFactors(c NamedCurve, dates []time.Time) ([]DiscountFactorRow, error) {
	rows := make([]DiscountFactorRow, 0, len(dates))
	for _, d := range dates {
		df, err := c.Lookup(d)
		if err != nil {
			return nil, fmt.Errorf("report: curve %s at %s: %w", c.ID(), d.Format(dateLayout), err)
		}
		rows = append(rows, DiscountFactorRow{
			Curve:  c.ID(),
			Date:   d.Format(dateLayout),
			Factor: df.Real,
		})
	}
	return rows, nil
}

// ForwardRates samples simple forward rates over consecutive date pairs.
func ForwardRates(c NamedCurve, dates []time.Time) ([]ForwardRateRow, error) {
	rows := make([]ForwardRateRow, 0, len(dates))
	for i := 1; i < len(dates); i++ {
		d1, d2 := dates[i-1], dates[i]
		df1, err := c.Lookup(d1)
		if err != nil {
			return nil, fmt.Errorf("report: curve %s at %s: %w", c.ID(), d1.Format(dateLayout), err)
		}
		df2, err := c.Lookup(d2)
		if err != nil {
			return nil, fmt.Errorf("report: curve %s at %s: %w", c.ID(), d2.Format(dateLayout), err)
		}
		yf := utils.YearFraction(d1, d2, c.DayCount())
		rate := (df1.Real/df2.Real - 1.0) / yf
		rows = append(rows, ForwardRateRow{
			Curve: c.ID(),
			Start: d1.Format(dateLayout),
			End:   d2.Format(dateLayout),
			Rate:  100.0 * rate,
		})
	}
	return rows, nil
}

// Sensitivities flattens the solver's last Jacobian into rows, one per
// (instrument, free variable) pair.
func Sensitivities(s *solver.Solver) []SensitivityRow {
	jac := s.Jacobian()
	labels := s.InstrumentLabels()
	vars := s.VarNames()
	rows := make([]SensitivityRow, 0, len(jac)*len(vars))
	for i, row := range jac {
		for j, v := range row {
			rows = append(rows, SensitivityRow{
				Instrument: labels[i],
				Variable:   vars[j],
				Value:      v,
			})
		}
	}
	return rows
}

// WriteCSV marshals any row slice to w.
func WriteCSV(rows interface{}, w io.Writer) error {
	return gocsv.Marshal(rows, w)
}
