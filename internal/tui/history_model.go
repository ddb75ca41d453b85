package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/parser"
	"github.com/balkashynov/nannyclock/internal/stats"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// HistoryStore lists and deletes sessions (db.Store).
type HistoryStore interface {
	ListSessions(ctx context.Context) ([]timeclock.Entry, error)
	DeleteSession(ctx context.Context, id string) error
}

type historyRow struct {
	group *stats.DateGroup // set on date header rows
	entry timeclock.Entry
}

// HistoryModel lists past sessions grouped by day and deletes closed ones
type HistoryModel struct {
	ctx   context.Context
	store HistoryStore
	now   func() time.Time

	rows     []historyRow
	selected int // index in rows, always a session row when any exists
	page     int
	perPage  int
	width    int
	height   int

	modal     confirm
	notice    string
	noticeErr bool
}

type historyLoadedMsg struct {
	entries []timeclock.Entry
	err     error
}

type sessionDeletedMsg struct {
	err error
}

func NewHistoryModel(ctx context.Context, store HistoryStore, entries []timeclock.Entry) HistoryModel {
	m := HistoryModel{
		ctx:     ctx,
		store:   store,
		now:     time.Now,
		perPage: 20,
	}
	m.setEntries(entries)
	return m
}

func (m *HistoryModel) setEntries(entries []timeclock.Entry) {
	m.rows = nil
	groups := stats.GroupByDate(entries)
	for i := range groups {
		m.rows = append(m.rows, historyRow{group: &groups[i]})
		for _, e := range groups[i].Entries {
			m.rows = append(m.rows, historyRow{entry: e})
		}
	}

	if m.selected >= len(m.rows) {
		m.selected = len(m.rows) - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
	if len(m.rows) > 0 && m.rows[m.selected].group != nil {
		m.moveSelection(1)
	}
	m.page = m.selected / m.perPage
}

func (m HistoryModel) Init() tea.Cmd {
	return nil
}

func (m HistoryModel) reload() tea.Cmd {
	return func() tea.Msg {
		entries, err := m.store.ListSessions(m.ctx)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (m HistoryModel) deleteSelected(id string) tea.Cmd {
	return func() tea.Msg {
		return sessionDeletedMsg{err: m.store.DeleteSession(m.ctx, id)}
	}
}

func (m HistoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		// title(2) + pagination(1) + help(1) + borders and margins(6)
		m.perPage = max(m.height-10, 3)
		m.page = m.selected / m.perPage
		return m, nil

	case historyLoadedMsg:
		if msg.err != nil {
			m.notice, m.noticeErr = msg.err.Error(), true
			return m, nil
		}
		m.setEntries(msg.entries)
		return m, nil

	case sessionDeletedMsg:
		switch {
		case errors.Is(msg.err, timeclock.ErrSessionOpen):
			m.notice, m.noticeErr = "Clock out before deleting a running session", true
		case msg.err != nil:
			m.notice, m.noticeErr = msg.err.Error(), true
		default:
			m.notice, m.noticeErr = "Session deleted", false
		}
		return m, m.reload()

	case tea.KeyMsg:
		if m.modal.shown {
			decided, _ := m.modal.key(msg.String())
			if decided && m.modal.choice {
				if entry := m.current(); entry != nil {
					return m, m.deleteSelected(entry.SessionID())
				}
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			m.moveSelection(-1)
		case "down", "j":
			m.moveSelection(1)
		case "left", "h":
			m.turnPage(-1)
		case "right", "l":
			m.turnPage(1)
		case "d", "delete":
			entry := m.current()
			if entry == nil {
				return m, nil
			}
			if _, open := entry.(timeclock.OpenSession); open {
				m.notice, m.noticeErr = "Clock out before deleting a running session", true
				return m, nil
			}
			m.modal.open("Delete this session?", false)
		}
	}
	return m, nil
}

func (m HistoryModel) current() timeclock.Entry {
	if m.selected < 0 || m.selected >= len(m.rows) {
		return nil
	}
	return m.rows[m.selected].entry
}

// moveSelection steps over date headers
func (m *HistoryModel) moveSelection(delta int) {
	for i := m.selected + delta; i >= 0 && i < len(m.rows); i += delta {
		if m.rows[i].group == nil {
			m.selected = i
			break
		}
	}
	m.page = m.selected / m.perPage
}

func (m *HistoryModel) turnPage(delta int) {
	pages := m.pages()
	next := m.page + delta
	if next < 0 || next >= pages {
		return
	}
	m.page = next
	m.selected = next * m.perPage
	if m.rows[m.selected].group != nil {
		m.moveSelection(1)
		m.page = next
	}
}

func (m HistoryModel) pages() int {
	return max((len(m.rows)+m.perPage-1)/m.perPage, 1)
}

func (m HistoryModel) View() string {
	if m.modal.shown {
		return m.modal.render(m.width, m.height)
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(ColorAccentBright)).
		Render("Session history"))
	b.WriteString("\n\n")

	if len(m.rows) == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDisabledText)).Render("No sessions yet"))
	}

	start := m.page * m.perPage
	end := min(start+m.perPage, len(m.rows))
	for i := start; i < end; i++ {
		b.WriteString(m.renderRow(i))
		b.WriteString("\n")
	}

	if m.pages() > 1 {
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color(ColorSecondaryText)).
			Render(fmt.Sprintf("\nPage %d/%d", m.page+1, m.pages())))
		b.WriteString("\n")
	}
	if m.notice != "" {
		color := ColorSuccess
		if m.noticeErr {
			color = ColorError
		}
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(m.notice))
	}

	panel := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(ColorBorder)).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.JoinVertical(
		lipgloss.Left,
		panel,
		helpBar(lipgloss.Width(panel), "↑↓ select · ←→ page · d delete · q quit"),
	)
}

func (m HistoryModel) renderRow(i int) string {
	row := m.rows[i]
	if row.group != nil {
		header := fmt.Sprintf("%s · %s", parser.FormatDay(row.group.Date, m.now()), notify.FormatDuration(row.group.TotalMinutes))
		return lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorAccentMain)).Render(header)
	}

	text := historyLine(row.entry)
	style := lipgloss.NewStyle().Foreground(lipgloss.Color(ColorPrimaryText))
	marker := "  "
	if i == m.selected {
		style = style.Foreground(lipgloss.Color(ColorAccentBright)).Bold(true)
		marker = "▶ "
	}
	return style.Render(marker + text)
}

// historyLine is one session row, e.g. "08:30 - 12:45  4h 15min"
func historyLine(e timeclock.Entry) string {
	if s, ok := e.(timeclock.ClosedSession); ok {
		return fmt.Sprintf("%s - %s  %s", notify.FormatClock(s.ArrivalTime), notify.FormatClock(s.DepartureTime), notify.FormatDuration(s.Duration))
	}
	return fmt.Sprintf("%s - ...    running", notify.FormatClock(e.Arrival()))
}
