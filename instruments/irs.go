// Package instruments provides calibration instruments quoting market rates
// off discount curves with automatic-differentiation-aware arithmetic, plus
// combination instruments (spreads, butterflies) used as solver targets and
// regularization penalties.
package instruments

import (
	"errors"
	"fmt"
	"time"

	"github.com/meenmo/curvelib/calendar"
	"github.com/meenmo/curvelib/curve"
	"github.com/meenmo/curvelib/dual"
	"github.com/meenmo/curvelib/utils"
)

// ErrConstruction is returned for malformed instrument terms.
var ErrConstruction = errors.New("instruments: invalid construction")

// ForwardCurve is the lookup contract instruments price against. Curve,
// CompositeCurve and MultiCsaCurve all satisfy it.
type ForwardCurve interface {
	curve.DiscountCurve
	ForwardRate(d1, d2 time.Time) (dual.Dual, error)
}

// IRS is a par interest rate swap quoted as the fixed rate, in percent, that
// sets the swap's value to zero: (DF(effective) - DF(maturity)) / annuity.
// Both legs are discounted and projected off the same curve.
type IRS struct {
	Lbl         string
	Curve       ForwardCurve
	Effective   time.Time
	Termination time.Time

	// FrequencyMonths is the fixed-leg coupon spacing; default 12 (annual).
	FrequencyMonths int
	// Convention is the fixed-leg accrual day count; default ACT/365F.
	Convention string
	// Calendar adjusts payment dates under modified following; default ALL.
	Calendar calendar.CalendarID
}

// Label returns the instrument identifier used in solver diagnostics.
func (irs IRS) Label() string { return irs.Lbl }

// Rate returns the par fixed rate in percent.
func (irs IRS) Rate() (dual.Dual, error) {
	if irs.Curve == nil {
		return dual.Dual{}, fmt.Errorf("%w: %s has no curve", ErrConstruction, irs.Lbl)
	}
	if !irs.Effective.Before(irs.Termination) {
		return dual.Dual{}, fmt.Errorf("%w: %s effective %s not before termination %s",
			ErrConstruction, irs.Lbl,
			irs.Effective.Format("2006-01-02"), irs.Termination.Format("2006-01-02"))
	}

	schedule := irs.paymentDates()
	dfEff, err := irs.Curve.Lookup(irs.Effective)
	if err != nil {
		return dual.Dual{}, err
	}

	conv := irs.Convention
	if conv == "" {
		conv = "ACT/365F"
	}
	annuity := dual.Const(0.0)
	var dfLast dual.Dual
	prev := irs.Effective
	for _, p := range schedule {
		df, err := irs.Curve.Lookup(p)
		if err != nil {
			return dual.Dual{}, err
		}
		annuity = dual.Add(annuity, dual.Scale(df, utils.YearFraction(prev, p, conv)))
		dfLast = df
		prev = p
	}

	par, err := dual.Div(dual.Sub(dfEff, dfLast), annuity)
	if err != nil {
		return dual.Dual{}, err
	}
	return dual.Scale(par, 100.0), nil
}

// paymentDates generates the fixed-leg schedule: regular periods from the
// effective date at the coupon frequency, adjusted modified following, with
// end-of-month effective dates rolling to month ends, plus a final stub at
// termination when the regular grid does not land on it.
func (irs IRS) paymentDates() []time.Time {
	freq := irs.FrequencyMonths
	if freq <= 0 {
		freq = 12
	}
	cal := irs.Calendar
	if cal == "" {
		cal = calendar.ALL
	}

	eom := calendar.IsEndOfMonth(cal, irs.Effective)
	var dates []time.Time
	for i := 1; ; i++ {
		raw := utils.AddMonth(irs.Effective, freq*i)
		if raw.After(irs.Termination) {
			break
		}
		if eom {
			dates = append(dates, calendar.LastBusinessDayOfMonth(cal, raw))
		} else {
			dates = append(dates, calendar.Adjust(cal, raw))
		}
	}
	end := calendar.Adjust(cal, irs.Termination)
	if len(dates) == 0 || !dates[len(dates)-1].Equal(end) {
		dates = append(dates, end)
	}
	return dates
}
