package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// SessionSubject is the email subject of a session notice.
const SessionSubject = "Work Session Completed - Nanny Hours Tracker"

const defaultUserName = "User"

// FormatDuration renders whole minutes as "45min", "2h" or "2h 05min".
func FormatDuration(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	hours, mins := minutes/60, minutes%60

	switch {
	case hours == 0:
		return fmt.Sprintf("%dmin", mins)
	case mins == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %02dmin", hours, mins)
	}
}

// FormatClock renders t as HH:MM in local time
func FormatClock(t time.Time) string {
	return t.Local().Format("15:04")
}

// FormatSummary builds the session completion notice.
func FormatSummary(session timeclock.ClosedSession, userName string) string {
	name := strings.TrimSpace(userName)
	if name == "" {
		name = defaultUserName
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s - Work Session Completed\n\n", name)
	fmt.Fprintf(&b, "Duration: %s\n", FormatDuration(session.Duration))
	fmt.Fprintf(&b, "Clock In: %s\n", FormatClock(session.ArrivalTime))
	fmt.Fprintf(&b, "Clock Out: %s\n\n", FormatClock(session.DepartureTime))
	b.WriteString("Nanny Hours Tracker")
	return b.String()
}
