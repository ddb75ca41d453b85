package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

var (
	ErrMissingDestination = errors.New("no recipient configured for the send method")
	ErrUnknownMethod      = errors.New("unknown send method")
)

// SettingsProvider returns the current notification settings.
type SettingsProvider interface {
	Settings(ctx context.Context) (models.Settings, error)
}

// Dispatcher sends the completion notice of every closed session through the
// channel registered for the configured send method.
type Dispatcher struct {
	settings SettingsProvider
	channels map[string]Channel
	logger   *slog.Logger
}

type DispatcherOption func(*Dispatcher)

// WithChannel registers ch for method ("sms" or "email")
func WithChannel(method string, ch Channel) DispatcherOption {
	return func(d *Dispatcher) { d.channels[method] = ch }
}

func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// NewDispatcher uses the OS hand-off channels unless others are registered
func NewDispatcher(settings SettingsProvider, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		settings: settings,
		channels: map[string]Channel{
			models.SendMethodSMS:   NewSMSHandoff(),
			models.SendMethodEmail: NewEmailHandoff(),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// BuildMessage validates the destination for the configured method and returns
// the message to send. It never sends.
func BuildMessage(settings models.Settings, session timeclock.ClosedSession) (string, Message, error) {
	method := strings.ToLower(strings.TrimSpace(settings.SendMethod))
	msg := Message{Body: FormatSummary(session, settings.UserName)}

	switch method {
	case models.SendMethodSMS:
		msg.To = strings.TrimSpace(settings.RecipientPhone)
		if msg.To == "" {
			return method, msg, fmt.Errorf("%w: phone number not configured", ErrMissingDestination)
		}
	case models.SendMethodEmail:
		msg.To = strings.TrimSpace(settings.RecipientEmail)
		msg.Subject = SessionSubject
		if msg.To == "" {
			return method, msg, fmt.Errorf("%w: email not configured", ErrMissingDestination)
		}
	default:
		return method, msg, fmt.Errorf("%w: %q", ErrUnknownMethod, settings.SendMethod)
	}
	return method, msg, nil
}

// Notify implements timeclock.Notifier.
func (d *Dispatcher) Notify(ctx context.Context, session timeclock.ClosedSession) error {
	settings, err := d.settings.Settings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	method, msg, err := BuildMessage(settings, session)
	if err != nil {
		return err
	}

	ch, ok := d.channels[method]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if err := ch.Send(ctx, msg); err != nil {
		return err
	}

	d.logger.Debug("session notice handed off", "method", method, "session_id", session.ID)
	return nil
}
