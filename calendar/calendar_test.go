package calendar_test

import (
	"testing"
	"time"

	"github.com/meenmo/curvelib/calendar"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsBusinessDay(t *testing.T) {
	t.Parallel()

	cases := []struct {
		cal  calendar.CalendarID
		d    time.Time
		want bool
	}{
		{calendar.ALL, date(2022, 1, 1), true},  // Saturday, but ALL ignores weekends
		{calendar.BUS, date(2022, 1, 1), false}, // Saturday
		{calendar.BUS, date(2022, 1, 3), true},  // Monday
		{calendar.NYC, date(2022, 7, 4), false}, // Independence Day
		{calendar.NYC, date(2022, 7, 5), true},
		{calendar.TGT, date(2022, 12, 26), false}, // Boxing Day
		{calendar.TGT, date(2022, 7, 4), true},    // US holiday, not TARGET
	}
	for _, tc := range cases {
		if got := calendar.IsBusinessDay(tc.cal, tc.d); got != tc.want {
			t.Fatalf("IsBusinessDay(%s, %s) = %v, want %v",
				tc.cal, tc.d.Format("2006-01-02"), got, tc.want)
		}
	}
}

func TestAdjustModifiedFollowing(t *testing.T) {
	t.Parallel()

	// 2022-04-30 is a Saturday; Following would cross into May, so Modified
	// Following rolls back to Friday the 29th.
	if got := calendar.Adjust(calendar.BUS, date(2022, 4, 30)); !got.Equal(date(2022, 4, 29)) {
		t.Fatalf("Adjust(2022-04-30) = %s, want 2022-04-29", got.Format("2006-01-02"))
	}
	// Mid-month weekend rolls forward.
	if got := calendar.Adjust(calendar.BUS, date(2022, 1, 8)); !got.Equal(date(2022, 1, 10)) {
		t.Fatalf("Adjust(2022-01-08) = %s, want 2022-01-10", got.Format("2006-01-02"))
	}
	// Business days pass through untouched.
	if got := calendar.Adjust(calendar.NYC, date(2022, 3, 15)); !got.Equal(date(2022, 3, 15)) {
		t.Fatalf("Adjust moved a business day to %s", got.Format("2006-01-02"))
	}
}

func TestAddBusinessDays(t *testing.T) {
	t.Parallel()

	// Friday + 1 business day crosses the weekend.
	if got := calendar.AddBusinessDays(calendar.BUS, date(2022, 1, 7), 1); !got.Equal(date(2022, 1, 10)) {
		t.Fatalf("Friday+1b = %s, want Monday 2022-01-10", got.Format("2006-01-02"))
	}
	// NYC skips the MLK holiday on Monday 2022-01-17.
	if got := calendar.AddBusinessDays(calendar.NYC, date(2022, 1, 14), 1); !got.Equal(date(2022, 1, 18)) {
		t.Fatalf("Friday+1b over MLK = %s, want 2022-01-18", got.Format("2006-01-02"))
	}
	if got := calendar.AddBusinessDays(calendar.BUS, date(2022, 1, 10), -1); !got.Equal(date(2022, 1, 7)) {
		t.Fatalf("Monday-1b = %s, want Friday 2022-01-07", got.Format("2006-01-02"))
	}
}

func TestLastBusinessDayOfMonth(t *testing.T) {
	t.Parallel()

	// April 2022 ends on a Saturday.
	if got := calendar.LastBusinessDayOfMonth(calendar.BUS, date(2022, 4, 12)); !got.Equal(date(2022, 4, 29)) {
		t.Fatalf("last business day of 2022-04 = %s, want 2022-04-29", got.Format("2006-01-02"))
	}
	if !calendar.IsEndOfMonth(calendar.BUS, date(2022, 4, 29)) {
		t.Fatal("2022-04-29 should be end of month for BUS")
	}
	if calendar.IsEndOfMonth(calendar.BUS, date(2022, 4, 28)) {
		t.Fatal("2022-04-28 should not be end of month")
	}
}
