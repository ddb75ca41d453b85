package scheduler

import (
	"context"
	"sync"
	"time"
)

// Weekly gates a job so that it does real work at most once per ISO week, on the
// first tick at or after Weekday Hour:00 local time. A failed run is retried on
// the next tick.
type Weekly struct {
	Weekday time.Weekday
	Hour    int
	Now     func() time.Time

	mu       sync.Mutex
	doneYear int
	doneWeek int
}

// Wrap returns fn gated by w.
func (w *Weekly) Wrap(fn func(ctx context.Context) error) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		w.mu.Lock()
		defer w.mu.Unlock()

		now := time.Now()
		if w.Now != nil {
			now = w.Now()
		}
		if !w.due(now) {
			return nil
		}
		if err := fn(ctx); err != nil {
			return err
		}
		w.doneYear, w.doneWeek = now.ISOWeek()
		return nil
	}
}

func (w *Weekly) due(now time.Time) bool {
	year, week := now.ISOWeek()
	if year == w.doneYear && week == w.doneWeek {
		return false
	}
	// weekdays counted from Monday so Sunday is the last day of the ISO week
	day := (int(now.Weekday()) + 6) % 7
	target := (int(w.Weekday) + 6) % 7
	if day != target {
		return day > target
	}
	return now.Hour() >= w.Hour
}

// FridayEvening is the weekly report slot.
func FridayEvening(now func() time.Time) *Weekly {
	return &Weekly{Weekday: time.Friday, Hour: 18, Now: now}
}
