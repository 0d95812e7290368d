package instruments

import (
	"fmt"

	"github.com/meenmo/curvelib/dual"
)

// Quoter is the minimal contract combination instruments compose over. It
// matches the solver's instrument interface.
type Quoter interface {
	Label() string
	Rate() (dual.Dual, error)
}

// Spread quotes the rate difference Longer minus Shorter, in the underlying
// instruments' quote units.
type Spread struct {
	Lbl     string
	Shorter Quoter
	Longer  Quoter
}

// Label returns the instrument identifier.
func (s Spread) Label() string { return s.Lbl }

// Rate returns Longer.Rate() - Shorter.Rate().
func (s Spread) Rate() (dual.Dual, error) {
	if s.Shorter == nil || s.Longer == nil {
		return dual.Dual{}, fmt.Errorf("%w: %s missing a leg", ErrConstruction, s.Lbl)
	}
	lo, err := s.Shorter.Rate()
	if err != nil {
		return dual.Dual{}, err
	}
	hi, err := s.Longer.Rate()
	if err != nil {
		return dual.Dual{}, err
	}
	return dual.Sub(hi, lo), nil
}

// Butterfly quotes Left - 2*Mid + Right. With a zero target and a near-zero
// solver weight it acts as a curvature penalty biasing calibration toward
// smooth rate profiles.
type Butterfly struct {
	Lbl   string
	Left  Quoter
	Mid   Quoter
	Right Quoter
}

// Label returns the instrument identifier.
func (b Butterfly) Label() string { return b.Lbl }

// Rate returns the butterfly combination of the three component rates.
func (b Butterfly) Rate() (dual.Dual, error) {
	if b.Left == nil || b.Mid == nil || b.Right == nil {
		return dual.Dual{}, fmt.Errorf("%w: %s missing a wing", ErrConstruction, b.Lbl)
	}
	l, err := b.Left.Rate()
	if err != nil {
		return dual.Dual{}, err
	}
	m, err := b.Mid.Rate()
	if err != nil {
		return dual.Dual{}, err
	}
	r, err := b.Right.Rate()
	if err != nil {
		return dual.Dual{}, err
	}
	return dual.Add(dual.Sub(l, dual.Scale(m, 2.0)), r), nil
}
