package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// NannyStore is the timeclock.Store of one nanny working for one employer.
type NannyStore struct {
	entries    *EntryRepository
	nannyID    uuid.UUID
	employerID uuid.UUID
}

func NewNannyStore(entries *EntryRepository, nannyID, employerID uuid.UUID) *NannyStore {
	return &NannyStore{entries: entries, nannyID: nannyID, employerID: employerID}
}

func (s *NannyStore) OpenSession(ctx context.Context) (*timeclock.OpenSession, error) {
	entry, err := s.entries.Open(ctx, s.nannyID)
	if err != nil || entry == nil {
		return nil, err
	}
	open := entryToOpen(*entry)
	return &open, nil
}

func (s *NannyStore) CreateOpenSession(ctx context.Context, arrival time.Time) (timeclock.OpenSession, error) {
	entry, err := s.entries.CreateOpen(ctx, s.nannyID, s.employerID, arrival)
	if err != nil {
		return timeclock.OpenSession{}, err
	}
	return entryToOpen(*entry), nil
}

func (s *NannyStore) CloseSession(ctx context.Context, id string, departure time.Time, durationMinutes int) (timeclock.ClosedSession, error) {
	key, err := uuid.Parse(id)
	if err != nil {
		return timeclock.ClosedSession{}, fmt.Errorf("invalid entry id %q: %w", id, timeclock.ErrSessionNotFound)
	}
	entry, err := s.entries.Close(ctx, key, departure, durationMinutes)
	if err != nil {
		return timeclock.ClosedSession{}, err
	}
	return EntryToClosed(*entry), nil
}

func entryToOpen(e models.TimeEntry) timeclock.OpenSession {
	arrival := e.ClockIn.Local()
	return timeclock.OpenSession{ID: e.ID.String(), ArrivalTime: arrival, Date: timeclock.DateOf(arrival)}
}

// EntryToClosed converts a completed time entry
func EntryToClosed(e models.TimeEntry) timeclock.ClosedSession {
	arrival := e.ClockIn.Local()
	closed := timeclock.ClosedSession{ID: e.ID.String(), ArrivalTime: arrival, Date: timeclock.DateOf(arrival)}
	if e.ClockOut != nil {
		closed.DepartureTime = e.ClockOut.Local()
	}
	if e.DurationMinutes != nil {
		closed.Duration = *e.DurationMinutes
	}
	return closed
}
