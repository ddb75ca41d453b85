package timeclock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/logutil"
)

var (
	ErrNoWorkSite    = errors.New("no work site configured")
	ErrNoPositionFix = errors.New("current position unknown")
)

// OutsideWorkSiteError blocks a clock-in made too far from the work site.
type OutsideWorkSiteError struct {
	Distance float64
	Radius   float64
}

func (e *OutsideWorkSiteError) Error() string {
	return fmt.Sprintf("outside the work site: %.0f m away (limit %.0f m)", e.Distance, e.Radius)
}

// ErrOutsideWorkSite matches any *OutsideWorkSiteError with errors.Is.
var ErrOutsideWorkSite = &OutsideWorkSiteError{}

func (e *OutsideWorkSiteError) Is(target error) bool {
	_, ok := target.(*OutsideWorkSiteError)
	return ok
}

// State of the timer
type State int

const (
	Idle State = iota
	Running
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	default:
		return "idle"
	}
}

// Geofence is the part of geo.Monitor the timer needs.
type Geofence interface {
	Status() geo.Status
}

// Timer is the clock-in/clock-out state machine. The state is not cached: it is
// always derived from the store's open session.
type Timer struct {
	store       Store
	fence       Geofence
	notifier    Notifier
	now         func() time.Time
	logger      *slog.Logger
	requireSite bool

	mu          sync.Mutex
	lastInRange bool
	zoneKnown   bool
}

type Option func(*Timer)

func WithGeofence(f Geofence) Option {
	return func(t *Timer) { t.fence = f }
}

func WithNotifier(n Notifier) Option {
	return func(t *Timer) { t.notifier = n }
}

func WithClock(now func() time.Time) Option {
	return func(t *Timer) {
		if now != nil {
			t.now = now
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Timer) {
		if l != nil {
			t.logger = l
		}
	}
}

// RequireWorkSite refuses clock-in while no work site is configured.
func RequireWorkSite() Option {
	return func(t *Timer) { t.requireSite = true }
}

func New(store Store, opts ...Option) *Timer {
	t := &Timer{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State reports Running when an open session exists.
func (t *Timer) State(ctx context.Context) (State, *OpenSession, error) {
	open, err := t.store.OpenSession(ctx)
	if err != nil {
		return Idle, nil, logutil.LogAndWrapErr(t.logger, "failed to load open session", err)
	}
	if open == nil {
		return Idle, nil, nil
	}
	return Running, open, nil
}

// ClockIn opens a session at the current time. When a session is already open it
// does nothing and returns (nil, nil).
func (t *Timer) ClockIn(ctx context.Context) (*OpenSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	open, err := t.store.OpenSession(ctx)
	if err != nil {
		return nil, logutil.LogAndWrapErr(t.logger, "failed to load open session", err)
	}
	if open != nil {
		t.logger.Debug("clock-in ignored, session already open", "session_id", open.ID)
		return nil, nil
	}

	if err := t.checkGeofence(); err != nil {
		return nil, err
	}

	session, err := t.store.CreateOpenSession(ctx, t.now())
	if errors.Is(err, ErrSessionOpen) {
		t.logger.Debug("clock-in ignored, store already holds an open session")
		return nil, nil
	}
	if err != nil {
		return nil, logutil.LogAndWrapErr(t.logger, "failed to create session", err)
	}

	t.zoneKnown = false
	t.logger.Info("clocked in", "session_id", session.ID, "arrival", session.ArrivalTime)
	return &session, nil
}

func (t *Timer) checkGeofence() error {
	if t.fence == nil {
		if t.requireSite {
			return ErrNoWorkSite
		}
		return nil
	}

	status := t.fence.Status()
	if status.Target == nil {
		if t.requireSite {
			return ErrNoWorkSite
		}
		return nil
	}
	if !status.HasFix() {
		if status.Err != nil {
			return fmt.Errorf("%w: %w", ErrNoPositionFix, status.Err)
		}
		return ErrNoPositionFix
	}
	if !status.InRange {
		return &OutsideWorkSiteError{Distance: status.Distance, Radius: status.Radius}
	}
	return nil
}

// ClockOut closes the open session at the current time and notifies. When no
// session is open it does nothing and returns (nil, nil). A notification failure
// is returned together with the closed session.
func (t *Timer) ClockOut(ctx context.Context) (*ClosedSession, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	open, err := t.store.OpenSession(ctx)
	if err != nil {
		return nil, logutil.LogAndWrapErr(t.logger, "failed to load open session", err)
	}
	if open == nil {
		t.logger.Debug("clock-out ignored, no open session")
		return nil, nil
	}

	departure := t.now()
	closed, err := t.store.CloseSession(ctx, open.ID, departure, DurationMinutes(open.ArrivalTime, departure))
	if errors.Is(err, ErrSessionNotFound) {
		t.logger.Debug("clock-out ignored, session closed concurrently", "session_id", open.ID)
		return nil, nil
	}
	if err != nil {
		return nil, logutil.LogAndWrapErr(t.logger, "failed to close session", err, "session_id", open.ID)
	}

	t.zoneKnown = false
	t.logger.Info("clocked out", "session_id", closed.ID, "duration_min", closed.Duration)

	if t.notifier != nil {
		if err := t.notifier.Notify(ctx, closed); err != nil {
			t.logger.Warn("session notification failed", "session_id", closed.ID, "err", err)
			return &closed, fmt.Errorf("session closed, notification not sent: %w", err)
		}
	}
	return &closed, nil
}

// Elapsed returns the running time of the open session, or false when idle.
func (t *Timer) Elapsed(ctx context.Context) (time.Duration, bool, error) {
	open, err := t.store.OpenSession(ctx)
	if err != nil {
		return 0, false, err
	}
	if open == nil {
		return 0, false, nil
	}
	return open.Elapsed(t.now()), true, nil
}

// ObserveZone feeds a geofence update to the timer while a session runs. It
// returns true exactly when the device just left the work site, so the caller can
// suggest clocking out. It never clocks out by itself.
func (t *Timer) ObserveZone(running bool, status geo.Status) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !running || status.Target == nil || !status.HasFix() {
		return false
	}

	left := t.zoneKnown && t.lastInRange && !status.InRange
	if !t.zoneKnown && !status.InRange {
		// first observation of a running session already outside
		left = true
	}
	t.lastInRange = status.InRange
	t.zoneKnown = true
	return left
}
