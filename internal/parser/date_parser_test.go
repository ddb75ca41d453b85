package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Wednesday afternoon
var now = time.Date(2025, 3, 12, 16, 45, 0, 0, time.Local)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.Local)
}

func TestParseReferenceDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"", day(2025, 3, 12)},
		{"today", day(2025, 3, 12)},
		{" Yesterday ", day(2025, 3, 11)},
		{"last week", day(2025, 3, 5)},
		{"last month", day(2025, 2, 12)},
		{"15/01/2025", day(2025, 1, 15)},
		{"1/2/2024", day(2024, 2, 1)},
		{"29/02/2024", day(2024, 2, 29)},
		{"2025-01-15", day(2025, 1, 15)},
		{"3 days ago", day(2025, 3, 9)},
		{"1 day ago", day(2025, 3, 11)},
		{"2 weeks ago", day(2025, 2, 26)},
		{"2 months ago", day(2025, 1, 12)},
		{"0 weeks ago", day(2025, 3, 12)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseReferenceDate(tt.input, now)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s want %s", got, tt.want)
		})
	}
}

func TestParseReferenceDate_Errors(t *testing.T) {
	tests := []struct {
		input   string
		message string
	}{
		{"tomorrow-ish", "invalid date format"},
		{"2 days", "invalid date format"},
		{"32/01/2025", "day must be between"},
		{"10/13/2025", "month must be between"},
		{"10/10/1999", "year must be between"},
		{"31/02/2025", "invalid date"},
		{"29/02/2025", "invalid date"},
		{"600 weeks ago", "weeks must be at most"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := ParseReferenceDate(tt.input, now)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestFormatDay(t *testing.T) {
	assert.Equal(t, "Today (Wed 12/03/2025)", FormatDay("2025-03-12", now))
	assert.Equal(t, "Yesterday (Tue 11/03/2025)", FormatDay("2025-03-11", now))
	assert.Equal(t, "Mon 03/03/2025", FormatDay("2025-03-03", now))
	assert.Equal(t, "garbage", FormatDay("garbage", now))
}
