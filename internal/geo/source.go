package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// Sample is one reading delivered by a Source. Exactly one of Position or Err is meaningful.
type Sample struct {
	Position Position
	Err      error
	At       time.Time
}

// Source provides device positions.
type Source interface {
	// Watch streams samples until ctx is done. The channel is closed when the stream ends.
	Watch(ctx context.Context) (<-chan Sample, error)
	// Current returns a single fix.
	Current(ctx context.Context) (Position, error)
}

// StaticSource reports a fixed position, e.g. coordinates given on the command line.
type StaticSource struct {
	Position Position
}

func (s StaticSource) Watch(ctx context.Context) (<-chan Sample, error) {
	ch := make(chan Sample, 1)
	ch <- Sample{Position: s.Position, At: time.Now()}
	go func() {
		<-ctx.Done()
		close(ch)
	}()
	return ch, nil
}

func (s StaticSource) Current(ctx context.Context) (Position, error) {
	return s.Position, nil
}

// FileSource polls a JSON fix file kept up to date by an external GPS bridge:
//
//	{"latitude": 48.8566, "longitude": 2.3522, "timestamp": "2025-01-06T08:00:00Z"}
//	{"error": "permission_denied"}
type FileSource struct {
	Path     string
	Interval time.Duration
	// MaxAge rejects fixes older than this as timed out. Zero disables the check.
	MaxAge time.Duration
}

type fixFile struct {
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

func (s FileSource) interval() time.Duration {
	if s.Interval <= 0 {
		return time.Second
	}
	return s.Interval
}

func (s FileSource) Watch(ctx context.Context) (<-chan Sample, error) {
	if s.Path == "" {
		return nil, fmt.Errorf("file source: %w", ErrPositionUnavailable)
	}

	ch := make(chan Sample)
	go func() {
		defer close(ch)
		ticker := time.NewTicker(s.interval())
		defer ticker.Stop()

		var last *Sample
		for {
			sample := s.read()
			// only forward changes so subscribers are not woken every tick
			if last == nil || !sameSample(*last, sample) {
				select {
				case ch <- sample:
				case <-ctx.Done():
					return
				}
				last = &sample
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return ch, nil
}

func (s FileSource) Current(ctx context.Context) (Position, error) {
	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		sample := s.read()
		if sample.Err == nil {
			return sample.Position, nil
		}
		if errors.Is(sample.Err, ErrPermissionDenied) {
			return Position{}, sample.Err
		}

		select {
		case <-ctx.Done():
			return Position{}, fmt.Errorf("%w: %v", ErrTimeout, sample.Err)
		case <-ticker.C:
		}
	}
}

func (s FileSource) read() Sample {
	now := time.Now()

	data, err := os.ReadFile(s.Path)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return Sample{Err: fmt.Errorf("%w: %s", ErrPermissionDenied, s.Path), At: now}
		}
		return Sample{Err: fmt.Errorf("%w: %v", ErrPositionUnavailable, err), At: now}
	}

	var fix fixFile
	if err := json.Unmarshal(data, &fix); err != nil {
		return Sample{Err: fmt.Errorf("%w: malformed fix file: %v", ErrPositionUnavailable, err), At: now}
	}

	switch fix.Error {
	case "":
	case "permission_denied":
		return Sample{Err: ErrPermissionDenied, At: now}
	case "timeout":
		return Sample{Err: ErrTimeout, At: now}
	default:
		return Sample{Err: fmt.Errorf("%w: %s", ErrPositionUnavailable, fix.Error), At: now}
	}

	if fix.Latitude == nil || fix.Longitude == nil {
		return Sample{Err: fmt.Errorf("%w: fix without coordinates", ErrPositionUnavailable), At: now}
	}
	if s.MaxAge > 0 && !fix.Timestamp.IsZero() && now.Sub(fix.Timestamp) > s.MaxAge {
		return Sample{Err: fmt.Errorf("%w: last fix is %s old", ErrTimeout, now.Sub(fix.Timestamp).Round(time.Second)), At: now}
	}

	return Sample{Position: Position{Latitude: *fix.Latitude, Longitude: *fix.Longitude}, At: now}
}

func sameSample(a, b Sample) bool {
	if (a.Err == nil) != (b.Err == nil) {
		return false
	}
	if a.Err != nil {
		return a.Err.Error() == b.Err.Error()
	}
	return a.Position == b.Position
}
