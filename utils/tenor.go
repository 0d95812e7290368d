package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/meenmo/curvelib/calendar"
)

// Tenor is a parsed market tenor such as 3M, 10Y, 2W, 90D or 1B (business days).
type Tenor struct {
	N    int
	Unit byte // 'D', 'B', 'W', 'M', 'Y'
}

// ParseTenor parses tenor strings like "1W", "3M", "10Y", "1B".
func ParseTenor(s string) (Tenor, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if len(s) < 2 {
		return Tenor{}, fmt.Errorf("parse tenor %q: too short", s)
	}
	unit := s[len(s)-1]
	switch unit {
	case 'D', 'B', 'W', 'M', 'Y':
	default:
		return Tenor{}, fmt.Errorf("parse tenor %q: unknown unit %q", s, string(unit))
	}
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return Tenor{}, fmt.Errorf("parse tenor %q: %w", s, err)
	}
	return Tenor{N: n, Unit: unit}, nil
}

// Years converts a tenor to an approximate year fraction, used for ordering
// and quote keys, not for accrual.
func (t Tenor) Years() float64 {
	switch t.Unit {
	case 'B':
		return float64(t.N) / 252.0
	case 'D':
		return float64(t.N) / 365.0
	case 'W':
		return float64(t.N) * 7.0 / 365.0
	case 'M':
		return float64(t.N) / 12.0
	default:
		return float64(t.N)
	}
}

func (t Tenor) String() string {
	return fmt.Sprintf("%d%s", t.N, string(t.Unit))
}

// AddTenor advances a date by a tenor and applies Modified Following on cal.
// Month and year steps use EDATE semantics (AddMonth), business-day steps
// walk the calendar directly.
func AddTenor(start time.Time, tenor string, cal calendar.CalendarID) (time.Time, error) {
	t, err := ParseTenor(tenor)
	if err != nil {
		return time.Time{}, err
	}
	var end time.Time
	switch t.Unit {
	case 'B':
		return calendar.AddBusinessDays(cal, start, t.N), nil
	case 'D':
		end = start.AddDate(0, 0, t.N)
	case 'W':
		end = start.AddDate(0, 0, 7*t.N)
	case 'M':
		end = AddMonth(start, t.N)
	case 'Y':
		end = AddMonth(start, 12*t.N)
	}
	return calendar.Adjust(cal, end), nil
}
