package instruments

import (
	"fmt"
	"time"

	"github.com/meenmo/curvelib/dual"
)

// FRA quotes the simple (money-market) forward rate over a single period, in
// percent.
type FRA struct {
	Lbl   string
	Curve ForwardCurve
	Start time.Time
	End   time.Time
}

// Label returns the instrument identifier.
func (f FRA) Label() string { return f.Lbl }

// Rate returns the simple forward rate over [Start, End] in percent.
func (f FRA) Rate() (dual.Dual, error) {
	if f.Curve == nil {
		return dual.Dual{}, fmt.Errorf("%w: %s has no curve", ErrConstruction, f.Lbl)
	}
	if !f.Start.Before(f.End) {
		return dual.Dual{}, fmt.Errorf("%w: %s start %s not before end %s",
			ErrConstruction, f.Lbl, f.Start.Format("2006-01-02"), f.End.Format("2006-01-02"))
	}
	r, err := f.Curve.ForwardRate(f.Start, f.End)
	if err != nil {
		return dual.Dual{}, err
	}
	return dual.Scale(r, 100.0), nil
}
