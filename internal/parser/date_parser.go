package parser

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidDate = errors.New("invalid date format. Use: dd/mm/yyyy, yyyy-mm-dd, today, yesterday, last week, last month, or X days/weeks/months ago")

var (
	dayMonthYear = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	relativeAgo  = regexp.MustCompile(`^(\d+)\s+(day|days|week|weeks|month|months)\s+ago$`)
)

// ParseReferenceDate resolves the date a statistics view is anchored on.
// Supported formats:
// - empty or "today"
// - "yesterday", "last week", "last month"
// - dd/mm/yyyy (e.g. "15/01/2025")
// - yyyy-mm-dd (e.g. "2025-01-15")
// - X days|weeks|months ago (e.g. "2 weeks ago")
//
// The result is local noon of the resolved day, so week and month ranges around
// it never depend on the time of day or DST shifts.
func ParseReferenceDate(input string, now time.Time) (time.Time, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "", "today", "now":
		return noon(now), nil
	case "yesterday":
		return noon(now).AddDate(0, 0, -1), nil
	case "last week":
		return noon(now).AddDate(0, 0, -7), nil
	case "last month":
		return noon(now).AddDate(0, -1, 0), nil
	}

	if date, err := parseDayMonthYear(input); err == nil {
		return date, nil
	} else if !errors.Is(err, ErrInvalidDate) {
		return time.Time{}, err
	}

	if date, err := time.ParseInLocation("2006-01-02", input, time.Local); err == nil {
		return noon(date), nil
	}

	if date, err := parseAgo(input, now); err == nil {
		return date, nil
	} else if !errors.Is(err, ErrInvalidDate) {
		return time.Time{}, err
	}

	return time.Time{}, ErrInvalidDate
}

func parseDayMonthYear(input string) (time.Time, error) {
	matches := dayMonthYear.FindStringSubmatch(input)
	if len(matches) != 4 {
		return time.Time{}, ErrInvalidDate
	}

	day, _ := strconv.Atoi(matches[1])
	month, _ := strconv.Atoi(matches[2])
	year, _ := strconv.Atoi(matches[3])

	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("day must be between 1 and 31")
	}
	if month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("month must be between 1 and 12")
	}
	if year < 2000 || year > 2100 {
		return time.Time{}, fmt.Errorf("year must be between 2000 and 2100")
	}

	date := time.Date(year, time.Month(month), day, 12, 0, 0, 0, time.Local)
	// rejects 31/02 and friends, which time.Date would normalize
	if date.Day() != day || date.Month() != time.Month(month) {
		return time.Time{}, fmt.Errorf("invalid date: %s", input)
	}
	return date, nil
}

func parseAgo(input string, now time.Time) (time.Time, error) {
	matches := relativeAgo.FindStringSubmatch(input)
	if len(matches) != 3 {
		return time.Time{}, ErrInvalidDate
	}

	amount, err := strconv.Atoi(matches[1])
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}

	base := noon(now)
	switch matches[2] {
	case "day", "days":
		if amount > 3650 {
			return time.Time{}, fmt.Errorf("days must be at most 3650")
		}
		return base.AddDate(0, 0, -amount), nil
	case "week", "weeks":
		if amount > 520 {
			return time.Time{}, fmt.Errorf("weeks must be at most 520")
		}
		return base.AddDate(0, 0, -7*amount), nil
	default:
		if amount > 120 {
			return time.Time{}, fmt.Errorf("months must be at most 120")
		}
		return base.AddDate(0, -amount, 0), nil
	}
}

func noon(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, t.Location())
}

// FormatDay labels a YYYY-MM-DD date for history headers, relative to now.
func FormatDay(date string, now time.Time) string {
	day, err := time.ParseInLocation("2006-01-02", date, now.Location())
	if err != nil {
		return date
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	dateStr := day.Format("Mon 02/01/2006")

	switch {
	case day.Equal(today):
		return fmt.Sprintf("Today (%s)", dateStr)
	case day.Equal(today.AddDate(0, 0, -1)):
		return fmt.Sprintf("Yesterday (%s)", dateStr)
	default:
		return dateStr
	}
}
