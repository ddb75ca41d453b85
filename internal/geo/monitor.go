package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	// DefaultRadiusMeters is the work-site detection radius.
	DefaultRadiusMeters = 50.0
	// DefaultFixTimeout bounds one-shot position lookups.
	DefaultFixTimeout = 10 * time.Second

	defaultRetryInterval = 2 * time.Second
)

// Status is a snapshot of the monitor state.
type Status struct {
	Current     *Position
	Target      *Position
	Radius      float64
	Distance    float64
	HasDistance bool
	InRange     bool
	Err         error
	UpdatedAt   time.Time
}

// HasFix reports whether at least one position was received
func (s Status) HasFix() bool {
	return s.Current != nil
}

// Monitor samples a Source continuously and tracks whether the device is inside
// the circle of Radius meters around the target.
type Monitor struct {
	source Source
	radius     float64
	retry      time.Duration
	fixTimeout time.Duration
	logger     *slog.Logger

	mu        sync.RWMutex
	target    *Position
	current   *Position
	lastErr   error
	updatedAt time.Time
	subs      map[int]func(Status)
	nextSub   int

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

type Option func(*Monitor)

func WithRadius(meters float64) Option {
	return func(m *Monitor) {
		if meters > 0 {
			m.radius = meters
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Monitor) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRetryInterval sets the delay before re-subscribing to a source whose stream ended.
func WithRetryInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.retry = d
		}
	}
}

// WithFixTimeout bounds CurrentPositionOnce. Defaults to DefaultFixTimeout.
func WithFixTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.fixTimeout = d
		}
	}
}

// NewMonitor creates a stopped monitor without a target.
func NewMonitor(source Source, opts ...Option) *Monitor {
	m := &Monitor{
		source: source,
		radius: DefaultRadiusMeters,
		retry:      defaultRetryInterval,
		fixTimeout: DefaultFixTimeout,
		logger:     slog.Default(),
		subs:       make(map[int]func(Status)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetTarget sets the work-site coordinate
func (m *Monitor) SetTarget(p Position) {
	m.mu.Lock()
	m.target = &p
	m.mu.Unlock()
	m.notify()
}

// ClearTarget removes the work-site coordinate; InRange becomes false.
func (m *Monitor) ClearTarget() {
	m.mu.Lock()
	m.target = nil
	m.mu.Unlock()
	m.notify()
}

// Status returns the current snapshot.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.statusLocked()
}

func (m *Monitor) statusLocked() Status {
	s := Status{
		Radius:    m.radius,
		Err:       m.lastErr,
		UpdatedAt: m.updatedAt,
	}
	if m.current != nil {
		cur := *m.current
		s.Current = &cur
	}
	if m.target != nil {
		tgt := *m.target
		s.Target = &tgt
	}
	if s.Current != nil && s.Target != nil {
		s.Distance = s.Current.DistanceTo(*s.Target)
		s.HasDistance = true
		s.InRange = s.Distance <= m.radius
	}
	return s
}

// Subscribe registers fn to be called after every state change. fn runs on the
// sampling goroutine and must not block.
func (m *Monitor) Subscribe(fn func(Status)) (unsubscribe func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Monitor) notify() {
	m.mu.RLock()
	status := m.statusLocked()
	subs := make([]func(Status), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.RUnlock()

	for _, fn := range subs {
		fn(status)
	}
}

// Start begins continuous sampling. Calling Start on a running monitor is a no-op.
// The returned function stops the monitor and is safe to defer.
func (m *Monitor) Start(ctx context.Context) (stop func()) {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.cancel != nil {
		return m.Stop
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	go m.run(ctx, m.done)

	m.logger.Debug("geofence monitor started", "radius_m", m.radius)
	return m.Stop
}

// Stop halts sampling and waits for the sampling goroutine to exit. Idempotent.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	m.logger.Debug("geofence monitor stopped")
}

// Running reports whether sampling is active
func (m *Monitor) Running() bool {
	m.runMu.Lock()
	defer m.runMu.Unlock()
	return m.cancel != nil
}

func (m *Monitor) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		samples, err := m.source.Watch(ctx)
		if err != nil {
			m.record(Sample{Err: err, At: time.Now()})
		} else {
			m.consume(ctx, samples)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(m.retry):
			m.logger.Debug("position stream ended, resubscribing")
		}
	}
}

func (m *Monitor) consume(ctx context.Context, samples <-chan Sample) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-samples:
			if !ok {
				return
			}
			m.record(s)
		}
	}
}

func (m *Monitor) record(s Sample) {
	at := s.At
	if at.IsZero() {
		at = time.Now()
	}

	m.mu.Lock()
	if s.Err != nil {
		// keep the last known position, only surface the error
		m.lastErr = s.Err
	} else {
		pos := s.Position
		m.current = &pos
		m.lastErr = nil
	}
	m.updatedAt = at
	m.mu.Unlock()

	if s.Err != nil {
		m.logger.Warn("position sample failed", "err", s.Err)
	}
	m.notify()
}

// WaitForFix blocks until the monitor has received a position or ctx is done.
func (m *Monitor) WaitForFix(ctx context.Context) (Status, error) {
	wake := make(chan struct{}, 1)
	unsubscribe := m.Subscribe(func(Status) {
		select {
		case wake <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	for {
		status := m.Status()
		if status.HasFix() {
			return status, nil
		}

		select {
		case <-ctx.Done():
			if status.Err != nil {
				return status, status.Err
			}
			return status, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
		case <-wake:
		}
	}
}

// CurrentPositionOnce fetches a single fix without starting the monitor.
func (m *Monitor) CurrentPositionOnce(ctx context.Context) (Position, error) {
	return CurrentPosition(ctx, m.source, m.fixTimeout)
}

// CurrentPosition fetches a single fix from src within timeout.
func CurrentPosition(ctx context.Context, src Source, timeout time.Duration) (Position, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		pos Position
		err error
	}
	ch := make(chan result, 1)
	go func() {
		pos, err := src.Current(ctx)
		ch <- result{pos, err}
	}()

	select {
	case r := <-ch:
		if errors.Is(r.err, context.DeadlineExceeded) {
			return Position{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
		}
		return r.pos, r.err
	case <-ctx.Done():
		return Position{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}
