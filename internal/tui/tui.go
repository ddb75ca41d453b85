package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// ChangeFeed is db.Store.Subscribe
type ChangeFeed func(fn func()) (unsubscribe func())

// RunClock runs the live clock screen until the user quits. monitor and feed may
// be nil.
func RunClock(ctx context.Context, timer ClockTimer, monitor *geo.Monitor, feed ChangeFeed) error {
	var zones chan geo.Status
	if monitor != nil {
		zones = make(chan geo.Status, 8)
		zones <- monitor.Status()
		unsubscribe := monitor.Subscribe(func(s geo.Status) {
			select {
			case zones <- s:
			default: // the screen only needs the latest few
			}
		})
		defer unsubscribe()
	}

	var changes chan struct{}
	if feed != nil {
		changes = make(chan struct{}, 1)
		unsubscribe := feed(func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
		defer unsubscribe()
	}

	model := NewClockModel(ctx, timer, zones, changes)
	finalModel, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if err != nil {
		return err
	}

	m := finalModel.(ClockModel)
	if m.state == timeclock.Running && m.open != nil {
		fmt.Printf("⏱️  Still clocked in since %s.\n", notify.FormatClock(m.open.ArrivalTime))
		fmt.Println("   Use 'nannyclock out' to clock out.")
	} else if m.closed != nil {
		fmt.Printf("⏹️  Last session: %s\n", notify.FormatDuration(m.closed.Duration))
	}
	return nil
}

// RunSettings runs the settings form. It reports whether the settings were saved.
func RunSettings(ctx context.Context, saver SettingsSaver, current models.Settings) (bool, error) {
	finalModel, err := tea.NewProgram(NewSettingsModel(ctx, saver, current), tea.WithAltScreen()).Run()
	if err != nil {
		return false, err
	}
	m := finalModel.(SettingsModel)
	if m.saved {
		return true, nil
	}
	return false, m.err
}

// RunHistory runs the history browser
func RunHistory(ctx context.Context, store HistoryStore) error {
	entries, err := store.ListSessions(ctx)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(NewHistoryModel(ctx, store, entries), tea.WithAltScreen()).Run()
	return err
}
