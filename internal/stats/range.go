package stats

import (
	"time"

	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// Range is an inclusive interval of local time.
type Range struct {
	Start time.Time
	End   time.Time
}

// StartDate returns the first day of the range as YYYY-MM-DD
func (r Range) StartDate() string { return timeclock.DateOf(r.Start) }

// EndDate returns the last day of the range as YYYY-MM-DD
func (r Range) EndDate() string { return timeclock.DateOf(r.End) }

// ContainsDate reports whether a YYYY-MM-DD date falls within the range
func (r Range) ContainsDate(date string) bool {
	return date >= r.StartDate() && date <= r.EndDate()
}

// Days returns every date of the range, first to last
func (r Range) Days() []time.Time {
	var days []time.Time
	for d := startOfDay(r.Start); !d.After(r.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WeekStart returns Monday 00:00:00 of the week containing t, in t's location
func WeekStart(t time.Time) time.Time {
	weekday := t.Weekday()
	daysFromMonday := int(weekday - time.Monday)
	if weekday == time.Sunday {
		daysFromMonday = 6 // Sunday is 6 days from Monday
	}
	return startOfDay(t.AddDate(0, 0, -daysFromMonday))
}

// WeekRange returns Monday 00:00:00 to Sunday 23:59:59.999 of the week containing t
func WeekRange(t time.Time) Range {
	start := WeekStart(t)
	return Range{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Millisecond)}
}

// MonthRange returns the calendar month containing t
func MonthRange(t time.Time) Range {
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return Range{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Millisecond)}
}

// ISOWeek returns the ISO-8601 week number of t; week 1 holds the year's first Thursday.
func ISOWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
