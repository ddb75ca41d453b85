package stats

import (
	"sort"
	"time"

	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// DefaultWeeklyGoalHours is the weekly target shown in statistics.
const DefaultWeeklyGoalHours = 35

// Summary aggregates closed sessions over a range
type Summary struct {
	Range                Range
	TotalMinutes         int
	Sessions             int
	DaysWorked           int
	AveragePerDayMinutes int
}

// TotalHours returns the total as fractional hours
func (s Summary) TotalHours() float64 {
	return float64(s.TotalMinutes) / 60
}

// Summarize totals the sessions whose date falls in r. The average is 0 when no
// day was worked.
func Summarize(sessions []timeclock.ClosedSession, r Range) Summary {
	summary := Summary{Range: r}
	days := make(map[string]struct{})

	for _, s := range sessions {
		if !r.ContainsDate(s.Date) {
			continue
		}
		summary.TotalMinutes += s.Duration
		summary.Sessions++
		days[s.Date] = struct{}{}
	}

	summary.DaysWorked = len(days)
	if summary.DaysWorked > 0 {
		summary.AveragePerDayMinutes = summary.TotalMinutes / summary.DaysWorked
	}
	return summary
}

// GoalProgress returns min(total/goal, 1) as a percentage. A non-positive goal
// yields 0.
func GoalProgress(totalMinutes int, goalHours float64) float64 {
	if goalHours <= 0 {
		return 0
	}
	ratio := float64(totalMinutes) / 60 / goalHours
	if ratio > 1 {
		ratio = 1
	}
	return ratio * 100
}

// RemainingMinutes is the time left to reach the goal, never negative
func RemainingMinutes(totalMinutes int, goalHours float64) int {
	left := int(goalHours*60) - totalMinutes
	if left < 0 {
		return 0
	}
	return left
}

// DayTotal is the worked time of one day
type DayTotal struct {
	Date    time.Time
	Minutes int
}

// DailyTotals returns one entry per day of r, including days without work.
func DailyTotals(sessions []timeclock.ClosedSession, r Range) []DayTotal {
	byDate := make(map[string]int)
	for _, s := range sessions {
		byDate[s.Date] += s.Duration
	}

	var totals []DayTotal
	for _, day := range r.Days() {
		totals = append(totals, DayTotal{Date: day, Minutes: byDate[timeclock.DateOf(day)]})
	}
	return totals
}

// WeekTotal is the worked time of one week
type WeekTotal struct {
	Range   Range
	ISOWeek int
	Minutes int
}

// WeeklyTotals returns the totals of the last n weeks ending with the week of
// now, oldest first.
func WeeklyTotals(sessions []timeclock.ClosedSession, n int, now time.Time) []WeekTotal {
	if n <= 0 {
		return nil
	}

	current := WeekStart(now)
	totals := make([]WeekTotal, 0, n)
	for i := n - 1; i >= 0; i-- {
		r := WeekRange(current.AddDate(0, 0, -7*i))
		totals = append(totals, WeekTotal{
			Range:   r,
			ISOWeek: ISOWeek(r.Start),
			Minutes: Summarize(sessions, r).TotalMinutes,
		})
	}
	return totals
}

// DateGroup holds the entries of one day
type DateGroup struct {
	Date         string
	Entries      []timeclock.Entry
	TotalMinutes int
}

// GroupByDate groups entries by date, newest date first. Entries keep their
// relative order inside a group.
func GroupByDate(entries []timeclock.Entry) []DateGroup {
	index := make(map[string]int)
	var groups []DateGroup

	for _, e := range entries {
		i, ok := index[e.Day()]
		if !ok {
			i = len(groups)
			index[e.Day()] = i
			groups = append(groups, DateGroup{Date: e.Day()})
		}
		groups[i].Entries = append(groups[i].Entries, e)
		if closed, ok := e.(timeclock.ClosedSession); ok {
			groups[i].TotalMinutes += closed.Duration
		}
	}

	sort.SliceStable(groups, func(a, b int) bool {
		return groups[a].Date > groups[b].Date
	})
	return groups
}
