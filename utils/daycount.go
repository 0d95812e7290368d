package utils

import (
	"time"
)

// YearFraction computes the year fraction between two dates using the specified
// day count convention. Supported conventions: ACT/360, ACT/365F, 30/360, 30E/360.
// Unrecognized conventions fall back to ACT/365F, matching the curve time axis
// convention used for discount curve interpolation.
func YearFraction(start, end time.Time, convention string) float64 {
	switch normalizeConvention(convention) {
	case "ACT/360":
		days := end.Sub(start).Hours() / 24
		return days / 360.0
	case "ACT/365F":
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	case "30E/360", "30/360":
		// 30E/360 ISDA (Eurobond basis); D1 and D2 capped at 30.
		d1 := start.Day()
		if d1 > 30 {
			d1 = 30
		}
		d2 := end.Day()
		if d2 > 30 {
			d2 = 30
		}
		y1, m1 := start.Year(), int(start.Month())
		y2, m2 := end.Year(), int(end.Month())
		return float64(360*(y2-y1)+30*(m2-m1)+(d2-d1)) / 360.0
	default:
		days := end.Sub(start).Hours() / 24
		return days / 365.0
	}
}

// normalizeConvention maps config-file spellings ("act365f", "Act360") onto the
// canonical convention identifiers.
func normalizeConvention(convention string) string {
	switch convention {
	case "ACT/360", "act360", "Act360", "ACT360":
		return "ACT/360"
	case "ACT/365F", "act365f", "Act365F", "ACT365F":
		return "ACT/365F"
	case "30/360", "30360":
		return "30/360"
	case "30E/360", "30e360":
		return "30E/360"
	default:
		return convention
	}
}
