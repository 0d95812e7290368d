// Package cookbook bundles the market data behind the worked curve-building
// examples: pillar dates, par quotes and knot sequences. Static snapshots for
// development and testing, not a live feed.
package cookbook

import (
	"time"

	"github.com/meenmo/curvelib/curve"
)

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// Quote is one par swap quote: the swap's dates and its market rate in
// percent.
type Quote struct {
	Label       string
	Effective   time.Time
	Termination time.Time
	Rate        float64
}

// SingleCurrencyAnchor is the initial date of the single-currency example.
var SingleCurrencyAnchor = d(2022, 1, 1)

// SingleCurrencyNodes returns the 14 pillars of the single-currency curve,
// IMM dates through the front years then annual out to ten years, all bound
// to the placeholder value 1.0.
func SingleCurrencyNodes() []curve.Node {
	dates := []time.Time{
		d(2022, 1, 1),
		d(2022, 3, 15),
		d(2022, 6, 15),
		d(2022, 9, 21),
		d(2022, 12, 21),
		d(2023, 3, 15),
		d(2023, 6, 21),
		d(2023, 9, 20),
		d(2023, 12, 20),
		d(2024, 3, 15),
		d(2025, 1, 1),
		d(2027, 1, 1),
		d(2029, 1, 1),
		d(2032, 1, 1),
	}
	nodes := make([]curve.Node, len(dates))
	for i, dt := range dates {
		nodes[i] = curve.Node{Date: dt, Value: 1.0}
	}
	return nodes
}

// SingleCurrencyQuotes returns the 13 calibration swaps: a one-day deposit
// proxy, forward-starting swaps spanning the IMM pillars, and spot-starting
// 3y/5y/7y/10y swaps.
func SingleCurrencyQuotes() []Quote {
	return []Quote{
		{"1b", d(2022, 1, 1), d(2022, 1, 2), 1.00},
		{"mar22-jun22", d(2022, 3, 15), d(2022, 6, 15), 1.05},
		{"jun22-sep22", d(2022, 6, 15), d(2022, 9, 21), 1.12},
		{"sep22-dec22", d(2022, 9, 21), d(2022, 12, 21), 1.16},
		{"dec22-mar23", d(2022, 12, 21), d(2023, 3, 15), 1.21},
		{"mar23-jun23", d(2023, 3, 15), d(2023, 6, 21), 1.27},
		{"jun23-sep23", d(2023, 6, 21), d(2023, 9, 20), 1.45},
		{"sep23-dec23", d(2023, 9, 20), d(2023, 12, 20), 1.68},
		{"dec23-mar24", d(2023, 12, 20), d(2024, 3, 15), 1.92},
		{"3y", d(2022, 1, 1), d(2025, 1, 1), 1.68},
		{"5y", d(2022, 1, 1), d(2027, 1, 1), 2.10},
		{"7y", d(2022, 1, 1), d(2029, 1, 1), 2.20},
		{"10y", d(2022, 1, 1), d(2032, 1, 1), 2.07},
	}
}

// MixedKnots returns the knot sequence of the "mixed" single-currency curve:
// log-linear up to 2024-03-15, then a natural cubic spline out to the long
// end. The transition and final dates repeat to the spline order.
func MixedKnots() []time.Time {
	return []time.Time{
		d(2024, 3, 15), d(2024, 3, 15), d(2024, 3, 15), d(2024, 3, 15),
		d(2025, 1, 1),
		d(2027, 1, 1),
		d(2029, 1, 1),
		d(2032, 1, 1), d(2032, 1, 1), d(2032, 1, 1), d(2032, 1, 1),
	}
}

// TenorQuote is one par tenor quote off a spot effective date.
type TenorQuote struct {
	Term string
	Rate float64
}

// SofrAnchor is the curve date of the par tenor SOFR example; SofrEffective
// is the T+2 spot date its swaps start on.
var (
	SofrAnchor    = d(2023, 9, 27)
	SofrEffective = d(2023, 9, 29)
)

// SofrQuotes returns the conventional par tenor grid from one week to forty
// years with quoted par rates in percent.
func SofrQuotes() []TenorQuote {
	return []TenorQuote{
		{"1W", 5.309}, {"2W", 5.312}, {"3W", 5.314}, {"1M", 5.318},
		{"2M", 5.351}, {"3M", 5.382}, {"4M", 5.410}, {"5M", 5.435},
		{"6M", 5.452}, {"7M", 5.467}, {"8M", 5.471}, {"9M", 5.470},
		{"10M", 5.467}, {"11M", 5.457}, {"12M", 5.445}, {"18M", 5.208},
		{"2Y", 4.990}, {"3Y", 4.650}, {"4Y", 4.458}, {"5Y", 4.352},
		{"6Y", 4.291}, {"7Y", 4.250}, {"8Y", 4.224}, {"9Y", 4.210},
		{"10Y", 4.201}, {"12Y", 4.198}, {"15Y", 4.199}, {"20Y", 4.153},
		{"25Y", 4.047}, {"30Y", 3.941}, {"40Y", 3.719},
	}
}

// Dependency-chain example: two single-currency curves solved independently,
// then a basis curve calibrated against both with the first two held fixed.
var DependencyAnchor = d(2022, 1, 1)

// EurNodes returns the EUR discount curve pillars.
func EurNodes() []curve.Node {
	return []curve.Node{
		{Date: d(2022, 1, 1), Value: 1.0},
		{Date: d(2022, 5, 1), Value: 1.0},
		{Date: d(2023, 1, 1), Value: 1.0},
	}
}

// EurQuotes returns the EUR calibration swaps.
func EurQuotes() []Quote {
	return []Quote{
		{"eur-4m", d(2022, 1, 1), d(2022, 5, 1), 2.0},
		{"eur-1y", d(2022, 1, 1), d(2023, 1, 1), 2.5},
	}
}

// UsdNodes returns the USD discount curve pillars.
func UsdNodes() []curve.Node {
	return []curve.Node{
		{Date: d(2022, 1, 1), Value: 1.0},
		{Date: d(2022, 8, 1), Value: 1.0},
		{Date: d(2023, 1, 1), Value: 1.0},
	}
}

// UsdQuotes returns the USD calibration swaps.
func UsdQuotes() []Quote {
	return []Quote{
		{"usd-7m", d(2022, 1, 1), d(2022, 8, 1), 4.0},
		{"usd-1y", d(2022, 1, 1), d(2023, 1, 1), 4.8},
	}
}

// BasisNodes returns the cross-currency basis curve pillars.
func BasisNodes() []curve.Node {
	return []curve.Node{
		{Date: d(2022, 1, 1), Value: 1.0},
		{Date: d(2022, 5, 1), Value: 1.0},
		{Date: d(2022, 9, 1), Value: 1.0},
		{Date: d(2023, 1, 1), Value: 1.0},
	}
}

// BasisQuotes returns the basis spreads, in basis points, of the dependent
// curve over the EUR curve at each basis pillar.
func BasisQuotes() []Quote {
	return []Quote{
		{"xcs-4m", d(2022, 1, 1), d(2022, 5, 1), -5.0},
		{"xcs-8m", d(2022, 1, 1), d(2022, 9, 1), -6.5},
		{"xcs-1y", d(2022, 1, 1), d(2023, 1, 1), -11.0},
	}
}
