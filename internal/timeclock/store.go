package timeclock

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrSessionOpen is returned by stores when an open session already exists,
	// and when deleting a session that is still open.
	ErrSessionOpen = errors.New("a session is already open")
	// ErrSessionNotFound means the session does not exist or is no longer open.
	ErrSessionNotFound = errors.New("session not found")
)

// Store persists sessions for one user. Implementations must guarantee that at
// most one open session exists at any time.
type Store interface {
	// OpenSession returns the open session, or nil when there is none.
	OpenSession(ctx context.Context) (*OpenSession, error)
	// CreateOpenSession records a new session arriving at arrival.
	CreateOpenSession(ctx context.Context, arrival time.Time) (OpenSession, error)
	// CloseSession sets the departure of an open session. It returns
	// ErrSessionNotFound if the session is not open anymore.
	CloseSession(ctx context.Context, id string, departure time.Time, durationMinutes int) (ClosedSession, error)
}

// Notifier is told about every completed session.
type Notifier interface {
	Notify(ctx context.Context, session ClosedSession) error
}
