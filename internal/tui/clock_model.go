package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// ClockTimer is the part of timeclock.Timer the clock screen drives.
type ClockTimer interface {
	State(ctx context.Context) (timeclock.State, *timeclock.OpenSession, error)
	ClockIn(ctx context.Context) (*timeclock.OpenSession, error)
	ClockOut(ctx context.Context) (*timeclock.ClosedSession, error)
	ObserveZone(running bool, status geo.Status) bool
}

// ClockModel is the live clock-in/clock-out screen
type ClockModel struct {
	ctx     context.Context
	timer   ClockTimer
	now     func() time.Time
	zones   <-chan geo.Status
	changes <-chan struct{}

	width  int
	height int

	state   timeclock.State
	open    *timeclock.OpenSession
	elapsed time.Duration

	zone    geo.Status
	hasZone bool
	prompt  confirm

	notice    string
	noticeErr bool
	closed    *timeclock.ClosedSession
}

type (
	clockTickMsg    time.Time
	zoneMsg         geo.Status
	storeChangedMsg struct{}
	stateMsg        struct {
		state timeclock.State
		open  *timeclock.OpenSession
		err   error
	}
	clockInMsg struct {
		open *timeclock.OpenSession
		err  error
	}
	clockOutMsg struct {
		closed *timeclock.ClosedSession
		err    error
	}
)

// NewClockModel builds the screen. zones and changes may be nil when there is no
// geofence monitor or change feed.
func NewClockModel(ctx context.Context, timer ClockTimer, zones <-chan geo.Status, changes <-chan struct{}) ClockModel {
	return ClockModel{
		ctx:     ctx,
		timer:   timer,
		now:     time.Now,
		zones:   zones,
		changes: changes,
	}
}

func (m ClockModel) Init() tea.Cmd {
	return tea.Batch(m.loadState(), clockTick(), m.waitZone(), m.waitChange())
}

func clockTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return clockTickMsg(t)
	})
}

func (m ClockModel) loadState() tea.Cmd {
	return func() tea.Msg {
		state, open, err := m.timer.State(m.ctx)
		return stateMsg{state: state, open: open, err: err}
	}
}

func (m ClockModel) waitZone() tea.Cmd {
	if m.zones == nil {
		return nil
	}
	zones := m.zones
	return func() tea.Msg {
		status, ok := <-zones
		if !ok {
			return nil
		}
		return zoneMsg(status)
	}
}

func (m ClockModel) waitChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes := m.changes
	return func() tea.Msg {
		if _, ok := <-changes; !ok {
			return nil
		}
		return storeChangedMsg{}
	}
}

func (m ClockModel) clockIn() tea.Cmd {
	return func() tea.Msg {
		open, err := m.timer.ClockIn(m.ctx)
		return clockInMsg{open: open, err: err}
	}
}

func (m ClockModel) clockOut() tea.Cmd {
	return func() tea.Msg {
		closed, err := m.timer.ClockOut(m.ctx)
		return clockOutMsg{closed: closed, err: err}
	}
}

func (m ClockModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case clockTickMsg:
		m.refreshElapsed()
		return m, clockTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case stateMsg:
		if msg.err != nil {
			m.setNotice(msg.err.Error(), true)
			return m, nil
		}
		m.state, m.open = msg.state, msg.open
		m.refreshElapsed()
		return m, nil

	case storeChangedMsg:
		return m, tea.Batch(m.loadState(), m.waitChange())

	case zoneMsg:
		m.zone = geo.Status(msg)
		m.hasZone = true
		if m.timer.ObserveZone(m.state == timeclock.Running, m.zone) && !m.prompt.shown {
			m.prompt.open("You left the work site.\nClock out now?", true)
		}
		return m, m.waitZone()

	case clockInMsg:
		switch {
		case msg.err != nil:
			m.setNotice("Cannot clock in: "+msg.err.Error(), true)
		case msg.open == nil:
			m.setNotice("Already clocked in", false)
		default:
			m.state, m.open = timeclock.Running, msg.open
			m.refreshElapsed()
			m.setNotice("Clocked in at "+notify.FormatClock(msg.open.ArrivalTime), false)
		}
		return m, nil

	case clockOutMsg:
		if msg.closed != nil {
			m.state, m.open, m.elapsed = timeclock.Idle, nil, 0
			m.closed = msg.closed
		}
		switch {
		case msg.closed != nil && msg.err != nil:
			m.setNotice(fmt.Sprintf("Session saved (%s), notification failed: %v", notify.FormatDuration(msg.closed.Duration), msg.err), true)
		case msg.err != nil:
			m.setNotice("Cannot clock out: "+msg.err.Error(), true)
		case msg.closed == nil:
			m.setNotice("Not clocked in", false)
		default:
			m.setNotice("Session saved: "+notify.FormatDuration(msg.closed.Duration), false)
		}
		return m, nil

	case tea.KeyMsg:
		if m.prompt.shown {
			if decided, _ := m.prompt.key(msg.String()); decided && m.prompt.choice {
				return m, m.clockOut()
			}
			return m, nil
		}

		switch msg.String() {
		case "i", "I":
			if m.state == timeclock.Idle {
				return m, m.clockIn()
			}
		case "o", "O":
			if m.state == timeclock.Running {
				return m, m.clockOut()
			}
		case "ctrl+c", "esc", "q":
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ClockModel) refreshElapsed() {
	if m.open == nil {
		m.elapsed = 0
		return
	}
	m.elapsed = m.open.Elapsed(m.now())
}

func (m *ClockModel) setNotice(text string, isErr bool) {
	m.notice, m.noticeErr = text, isErr
}

func (m ClockModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}
	if m.prompt.shown {
		return m.prompt.render(m.width, m.height)
	}

	help := helpBar(m.width, m.helpText())
	contentHeight := m.height - 2

	if m.width < 90 {
		return lipgloss.JoinVertical(lipgloss.Left, m.renderClockPanel(m.width, contentHeight), help)
	}

	leftWidth := m.width / 2
	rightWidth := m.width - leftWidth - 2
	content := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.renderClockPanel(leftWidth, contentHeight),
		"  ",
		m.renderSitePanel(rightWidth, contentHeight),
	)
	return lipgloss.JoinVertical(lipgloss.Left, content, help)
}

func (m ClockModel) renderClockPanel(width, height int) string {
	centered := lipgloss.NewStyle().Align(lipgloss.Center).Width(width)
	var components []string

	header := "OFF THE CLOCK"
	headerColor := ColorSecondaryText
	clockColor := ColorDisabledText
	if m.state == timeclock.Running {
		header = "ON THE CLOCK"
		headerColor = ColorAccentBright
		clockColor = ColorAccentBright
	}
	components = append(components, centered.
		Foreground(lipgloss.Color(headerColor)).
		Bold(true).
		Render(header))

	var clock []string
	for _, line := range strings.Split(renderBigClock(m.elapsed, clockColor), "\n") {
		clock = append(clock, centered.Render(line))
	}
	components = append(components, strings.Join(clock, "\n"))

	info := "Press i to clock in"
	if m.open != nil {
		info = "Clocked in at " + notify.FormatClock(m.open.ArrivalTime)
	} else if m.closed != nil {
		info = fmt.Sprintf("Last session: %s - %s (%s)",
			notify.FormatClock(m.closed.ArrivalTime),
			notify.FormatClock(m.closed.DepartureTime),
			notify.FormatDuration(m.closed.Duration))
	}
	components = append(components, centered.
		Foreground(lipgloss.Color(ColorSecondaryText)).
		Italic(true).
		Render(info))

	if m.notice != "" {
		color := ColorSuccess
		if m.noticeErr {
			color = ColorError
		}
		components = append(components, centered.Foreground(lipgloss.Color(color)).Render(m.notice))
	}

	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(strings.Join(components, "\n\n"))
}

func (m ClockModel) renderSitePanel(width, height int) string {
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorPrimaryText)).
		Render("Work site")

	var lines []string
	for _, l := range zoneLines(m.zone, m.hasZone) {
		lines = append(lines, lipgloss.NewStyle().Foreground(lipgloss.Color(l.color)).Render(l.text))
	}

	return lipgloss.NewStyle().
		Width(width-2).
		Height(height-2).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1, 2).
		Render(title + "\n\n" + strings.Join(lines, "\n"))
}

type styledLine struct {
	text  string
	color string
}

// zoneLines describes the geofence state for the site panel.
func zoneLines(s geo.Status, known bool) []styledLine {
	if !known {
		return []styledLine{{"Location tracking off", ColorDisabledText}}
	}
	if s.Target == nil {
		return []styledLine{
			{"No work site configured", ColorDisabledText},
			{"Clock-in is not location checked", ColorDisabledText},
		}
	}

	lines := []styledLine{{"Site: " + s.Target.String(), ColorSecondaryText}}
	switch {
	case !s.HasFix() && s.Err != nil:
		lines = append(lines, styledLine{"Location unavailable: " + s.Err.Error(), ColorWarning})
	case !s.HasFix():
		lines = append(lines, styledLine{"Waiting for a position fix...", ColorSecondaryText})
	case s.InRange:
		lines = append(lines, styledLine{fmt.Sprintf("✓ At the work site (%.0f m, limit %.0f m)", s.Distance, s.Radius), ColorSuccess})
	default:
		lines = append(lines, styledLine{fmt.Sprintf("✗ Outside the work site (%.0f m away, limit %.0f m)", s.Distance, s.Radius), ColorWarning})
	}
	if s.HasFix() && s.Err != nil {
		lines = append(lines, styledLine{"Last update failed: " + s.Err.Error(), ColorWarning})
	}
	if !s.UpdatedAt.IsZero() {
		lines = append(lines, styledLine{"Updated " + s.UpdatedAt.Format("15:04:05"), ColorDisabledText})
	}
	return lines
}

func (m ClockModel) helpText() string {
	if m.state == timeclock.Running {
		return "o clock out · q exit (keep running) · ctrl+c quit"
	}
	return "i clock in · q exit · ctrl+c quit"
}
