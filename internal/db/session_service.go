package db

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"gorm.io/gorm"

	"github.com/balkashynov/nannyclock/internal/logutil"
	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// OpenSession returns the session without departure, if any
func (s *Store) OpenSession(ctx context.Context) (*timeclock.OpenSession, error) {
	var session models.Session
	err := s.db.WithContext(ctx).Where("departure_time IS NULL").First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil // No open session is not an error
	}
	if err != nil {
		return nil, err
	}

	open := toOpen(session)
	return &open, nil
}

// CreateOpenSession starts a new session at arrival
func (s *Store) CreateOpenSession(ctx context.Context, arrival time.Time) (timeclock.OpenSession, error) {
	session := models.Session{
		ArrivalTime: arrival,
		Date:        timeclock.DateOf(arrival),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Session{}).Where("departure_time IS NULL").Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return timeclock.ErrSessionOpen
		}
		return tx.Create(&session).Error
	})
	if err != nil {
		if errors.Is(err, timeclock.ErrSessionOpen) || isUniqueViolation(err) {
			return timeclock.OpenSession{}, timeclock.ErrSessionOpen
		}
		return timeclock.OpenSession{}, logutil.LogAndWrapErr(s.logger, "failed to create session", err)
	}

	s.changed()
	return toOpen(session), nil
}

// CloseSession sets departure and duration on the session with the given id, as
// long as it is still open.
func (s *Store) CloseSession(ctx context.Context, id string, departure time.Time, durationMinutes int) (timeclock.ClosedSession, error) {
	key, err := parseID(id)
	if err != nil {
		return timeclock.ClosedSession{}, err
	}

	result := s.db.WithContext(ctx).Model(&models.Session{}).
		Where("id = ? AND departure_time IS NULL", key).
		Updates(map[string]any{
			"departure_time": departure,
			"duration":       durationMinutes,
		})
	if result.Error != nil {
		return timeclock.ClosedSession{}, logutil.LogAndWrapErr(s.logger, "failed to close session", result.Error, "session_id", id)
	}
	if result.RowsAffected == 0 {
		return timeclock.ClosedSession{}, timeclock.ErrSessionNotFound
	}

	var session models.Session
	if err := s.db.WithContext(ctx).First(&session, key).Error; err != nil {
		return timeclock.ClosedSession{}, err
	}

	s.changed()
	return toClosed(session), nil
}

// ListSessions returns every session, newest arrival first
func (s *Store) ListSessions(ctx context.Context) ([]timeclock.Entry, error) {
	var sessions []models.Session
	if err := s.db.WithContext(ctx).Order("arrival_time DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}
	return toEntries(sessions), nil
}

// SessionsInRange returns the sessions whose date is within [startDate, endDate]
// (YYYY-MM-DD, inclusive), oldest first.
func (s *Store) SessionsInRange(ctx context.Context, startDate, endDate string) ([]timeclock.Entry, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ?", startDate, endDate).
		Order("arrival_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return toEntries(sessions), nil
}

// ClosedSessionsInRange is SessionsInRange restricted to completed sessions
func (s *Store) ClosedSessionsInRange(ctx context.Context, startDate, endDate string) ([]timeclock.ClosedSession, error) {
	var sessions []models.Session
	err := s.db.WithContext(ctx).
		Where("date >= ? AND date <= ? AND departure_time IS NOT NULL", startDate, endDate).
		Order("arrival_time ASC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}

	closed := make([]timeclock.ClosedSession, 0, len(sessions))
	for _, session := range sessions {
		closed = append(closed, toClosed(session))
	}
	return closed, nil
}

// DeleteSession removes a closed session. Open sessions cannot be deleted.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	key, err := parseID(id)
	if err != nil {
		return err
	}

	var session models.Session
	err = s.db.WithContext(ctx).First(&session, key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("session #%s: %w", id, timeclock.ErrSessionNotFound)
	}
	if err != nil {
		return err
	}
	if session.IsOpen() {
		return fmt.Errorf("session #%s: %w", id, timeclock.ErrSessionOpen)
	}

	if err := s.db.WithContext(ctx).Delete(&models.Session{}, key).Error; err != nil {
		return logutil.LogAndWrapErr(s.logger, "failed to delete session", err, "session_id", id)
	}

	s.changed()
	return nil
}

func parseID(id string) (uint, error) {
	n, err := strconv.ParseUint(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid session id %q: %w", id, timeclock.ErrSessionNotFound)
	}
	return uint(n), nil
}

func formatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func toOpen(s models.Session) timeclock.OpenSession {
	return timeclock.OpenSession{
		ID:          formatID(s.ID),
		ArrivalTime: s.ArrivalTime.Local(),
		Date:        s.Date,
	}
}

func toClosed(s models.Session) timeclock.ClosedSession {
	closed := timeclock.ClosedSession{
		ID:          formatID(s.ID),
		ArrivalTime: s.ArrivalTime.Local(),
		Date:        s.Date,
	}
	if s.DepartureTime != nil {
		closed.DepartureTime = s.DepartureTime.Local()
	}
	if s.Duration != nil {
		closed.Duration = *s.Duration
	}
	return closed
}

func toEntries(sessions []models.Session) []timeclock.Entry {
	entries := make([]timeclock.Entry, 0, len(sessions))
	for _, s := range sessions {
		if s.IsOpen() {
			entries = append(entries, toOpen(s))
		} else {
			entries = append(entries, toClosed(s))
		}
	}
	return entries
}
