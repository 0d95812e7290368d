package calendar

import "time"

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// ALL treats every calendar day, weekends included, as a business day.
	// Used for curve grids whose node dates are fixed in advance.
	ALL CalendarID = "all"
	// BUS is weekdays-only with no holiday set.
	BUS CalendarID = "bus"
	// NYC is the US government securities calendar.
	NYC CalendarID = "nyc"
	// TGT is the ECB TARGET calendar.
	TGT CalendarID = "tgt"
)

var nycHolidays = map[string]struct{}{}
var tgtHolidays = map[string]struct{}{}

func init() {
	nycHolidays = make(map[string]struct{}, len(nycHolidayList))
	for _, h := range nycHolidayList {
		nycHolidays[h] = struct{}{}
	}
	tgtHolidays = make(map[string]struct{}, len(tgtHolidayList))
	for _, h := range tgtHolidayList {
		tgtHolidays[h] = struct{}{}
	}
}

func isHoliday(cal CalendarID, t time.Time) bool {
	key := t.Format("2006-01-02")
	switch cal {
	case NYC:
		_, ok := nycHolidays[key]
		return ok
	case TGT:
		_, ok := tgtHolidays[key]
		return ok
	default:
		return false
	}
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, t time.Time) bool {
	if cal == ALL {
		return true
	}
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		return false
	}
	return !isHoliday(cal, t)
}

// Adjust applies Modified Following.
func Adjust(cal CalendarID, t time.Time) time.Time {
	origMonth := t.Month()
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	if t.Month() != origMonth {
		t = t.AddDate(0, 0, -1)
		for !IsBusinessDay(cal, t) {
			t = t.AddDate(0, 0, -1)
		}
	}
	return t
}

// AdjustFollowing applies a simple Following convention (no month preservation).
func AdjustFollowing(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, 1)
	}
	return t
}

// AdjustPreceding rolls backward to the prior business day.
func AdjustPreceding(cal CalendarID, t time.Time) time.Time {
	for !IsBusinessDay(cal, t) {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, t time.Time, n int) time.Time {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		t = t.AddDate(0, 0, step)
		if IsBusinessDay(cal, t) {
			n -= step
		}
	}
	return t
}

// LastBusinessDayOfMonth returns the last business day of the month containing t.
func LastBusinessDayOfMonth(cal CalendarID, t time.Time) time.Time {
	nextMonth := time.Date(t.Year(), t.Month()+1, 1, 0, 0, 0, 0, time.UTC)
	return AddBusinessDays(cal, nextMonth, -1)
}

// IsEndOfMonth checks if t is the last business day of its month.
func IsEndOfMonth(cal CalendarID, t time.Time) bool {
	return t.Equal(LastBusinessDayOfMonth(cal, t))
}
