package timeclock

import (
	"time"
)

// DateLayout is the format of Session dates used for grouping and range queries.
const DateLayout = "2006-01-02"

// Entry is either an OpenSession or a ClosedSession.
type Entry interface {
	SessionID() string
	Arrival() time.Time
	Day() string
	isEntry()
}

// OpenSession is a session with an arrival but no departure yet.
type OpenSession struct {
	ID          string
	ArrivalTime time.Time
	Date        string
}

// ClosedSession is a completed session. Duration is in whole minutes.
type ClosedSession struct {
	ID            string
	ArrivalTime   time.Time
	DepartureTime time.Time
	Duration      int
	Date          string
}

func (s OpenSession) SessionID() string  { return s.ID }
func (s OpenSession) Arrival() time.Time { return s.ArrivalTime }
func (s OpenSession) Day() string        { return s.Date }
func (OpenSession) isEntry()             {}

func (s ClosedSession) SessionID() string  { return s.ID }
func (s ClosedSession) Arrival() time.Time { return s.ArrivalTime }
func (s ClosedSession) Day() string        { return s.Date }
func (ClosedSession) isEntry()             {}

// Elapsed returns how long the session has been running at now.
func (s OpenSession) Elapsed(now time.Time) time.Duration {
	if now.Before(s.ArrivalTime) {
		return 0
	}
	return now.Sub(s.ArrivalTime)
}

// Close turns the open session into a closed one departing at departure.
func (s OpenSession) Close(departure time.Time) ClosedSession {
	return ClosedSession{
		ID:            s.ID,
		ArrivalTime:   s.ArrivalTime,
		DepartureTime: departure,
		Duration:      DurationMinutes(s.ArrivalTime, departure),
		Date:          s.Date,
	}
}

// DurationMinutes is floor((departure - arrival) / 1 minute), never negative.
func DurationMinutes(arrival, departure time.Time) int {
	d := departure.Sub(arrival)
	if d < 0 {
		return 0
	}
	return int(d / time.Minute)
}

// DateOf returns the local calendar date of t.
func DateOf(t time.Time) string {
	return t.Format(DateLayout)
}
