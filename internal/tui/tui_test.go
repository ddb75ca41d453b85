package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// run executes cmd and feeds its message back into the model
func run(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

type sessionStore struct {
	open    *timeclock.OpenSession
	closed  []timeclock.ClosedSession
	deleted []string
}

func (s *sessionStore) OpenSession(ctx context.Context) (*timeclock.OpenSession, error) {
	if s.open == nil {
		return nil, nil
	}
	open := *s.open
	return &open, nil
}

func (s *sessionStore) CreateOpenSession(ctx context.Context, arrival time.Time) (timeclock.OpenSession, error) {
	if s.open != nil {
		return timeclock.OpenSession{}, timeclock.ErrSessionOpen
	}
	s.open = &timeclock.OpenSession{ID: strconv.Itoa(len(s.closed) + 1), ArrivalTime: arrival, Date: timeclock.DateOf(arrival)}
	return *s.open, nil
}

func (s *sessionStore) CloseSession(ctx context.Context, id string, departure time.Time, minutes int) (timeclock.ClosedSession, error) {
	if s.open == nil || s.open.ID != id {
		return timeclock.ClosedSession{}, timeclock.ErrSessionNotFound
	}
	closed := s.open.Close(departure)
	s.closed = append(s.closed, closed)
	s.open = nil
	return closed, nil
}

func (s *sessionStore) ListSessions(ctx context.Context) ([]timeclock.Entry, error) {
	var entries []timeclock.Entry
	if s.open != nil {
		entries = append(entries, *s.open)
	}
	for i := len(s.closed) - 1; i >= 0; i-- {
		entries = append(entries, s.closed[i])
	}
	return entries, nil
}

func (s *sessionStore) DeleteSession(ctx context.Context, id string) error {
	if s.open != nil && s.open.ID == id {
		return timeclock.ErrSessionOpen
	}
	for i, c := range s.closed {
		if c.ID == id {
			s.closed = append(s.closed[:i], s.closed[i+1:]...)
			s.deleted = append(s.deleted, id)
			return nil
		}
	}
	return timeclock.ErrSessionNotFound
}

func TestClockText(t *testing.T) {
	assert.Equal(t, "00:00:00", clockText(0))
	assert.Equal(t, "00:04:31", clockText(271*time.Second))
	assert.Equal(t, "02:05:09", clockText(2*time.Hour+5*time.Minute+9*time.Second))
	assert.Equal(t, "00:00:00", clockText(-time.Minute))
}

func TestBigClockLines(t *testing.T) {
	lines := bigClockLines(0)
	require.Len(t, lines, 5)
	// eight glyphs of width 5 separated by single spaces
	assert.Equal(t, 8*5+7, len([]rune(lines[1])))
	assert.True(t, strings.HasPrefix(lines[1], "█   █"))
}

var site = geo.Position{Latitude: 48.856614, Longitude: 2.352222}

func status(current geo.Position) geo.Status {
	target := site
	d := site.DistanceTo(current)
	return geo.Status{
		Current:     &current,
		Target:      &target,
		Radius:      geo.DefaultRadiusMeters,
		Distance:    d,
		HasDistance: true,
		InRange:     d <= geo.DefaultRadiusMeters,
	}
}

func TestZoneLines(t *testing.T) {
	text := func(lines []styledLine) string {
		var parts []string
		for _, l := range lines {
			parts = append(parts, l.text)
		}
		return strings.Join(parts, "\n")
	}

	assert.Contains(t, text(zoneLines(geo.Status{}, false)), "tracking off")
	assert.Contains(t, text(zoneLines(geo.Status{}, true)), "No work site configured")

	target := site
	waiting := geo.Status{Target: &target, Radius: 50}
	assert.Contains(t, text(zoneLines(waiting, true)), "Waiting for a position fix")

	waiting.Err = geo.ErrPermissionDenied
	assert.Contains(t, text(zoneLines(waiting, true)), "Location unavailable")

	inside := zoneLines(status(site), true)
	assert.Contains(t, text(inside), "At the work site (0 m, limit 50 m)")
	assert.Equal(t, ColorSuccess, inside[1].color)

	outside := zoneLines(status(geo.Position{Latitude: site.Latitude + 0.01, Longitude: site.Longitude}), true)
	assert.Contains(t, text(outside), "Outside the work site (1112 m away")
	assert.Equal(t, ColorWarning, outside[1].color)
}

func newClockModel(store *sessionStore, now *time.Time) ClockModel {
	clock := func() time.Time { return *now }
	timer := timeclock.New(store, timeclock.WithClock(clock))
	m := NewClockModel(context.Background(), timer, nil, nil)
	m.now = clock
	return m
}

func TestClockModel_ClockInAndOut(t *testing.T) {
	now := time.Date(2024, 3, 6, 8, 30, 0, 0, time.Local)
	store := &sessionStore{}
	var model tea.Model = newClockModel(store, &now)

	model = run(t, model, model.(ClockModel).loadState())
	assert.Equal(t, timeclock.Idle, model.(ClockModel).state)

	// o while idle does nothing
	_, cmd := model.Update(key("o"))
	assert.Nil(t, cmd)

	model, cmd = model.Update(key("i"))
	model = run(t, model, cmd)
	m := model.(ClockModel)
	assert.Equal(t, timeclock.Running, m.state)
	assert.Equal(t, "Clocked in at 08:30", m.notice)

	now = now.Add(2*time.Hour + 5*time.Minute + 30*time.Second)
	model, _ = model.Update(clockTickMsg(now))
	assert.Equal(t, 2*time.Hour+5*time.Minute+30*time.Second, model.(ClockModel).elapsed)

	// i while running does nothing
	_, cmd = model.Update(key("i"))
	assert.Nil(t, cmd)

	model, cmd = model.Update(key("o"))
	model = run(t, model, cmd)
	m = model.(ClockModel)
	assert.Equal(t, timeclock.Idle, m.state)
	assert.Zero(t, m.elapsed)
	assert.Equal(t, "Session saved: 2h 05min", m.notice)
	require.Len(t, store.closed, 1)
	assert.Equal(t, 125, store.closed[0].Duration)
}

func TestClockModel_ClockInError(t *testing.T) {
	now := time.Now()
	m := newClockModel(&sessionStore{}, &now)

	model, _ := m.Update(clockInMsg{err: &timeclock.OutsideWorkSiteError{Distance: 420, Radius: 50}})
	cm := model.(ClockModel)
	assert.True(t, cm.noticeErr)
	assert.Contains(t, cm.notice, "420 m away")
	assert.Equal(t, timeclock.Idle, cm.state)
}

func TestClockModel_ZoneExitPrompt(t *testing.T) {
	now := time.Date(2024, 3, 6, 8, 30, 0, 0, time.Local)
	store := &sessionStore{}
	var model tea.Model = newClockModel(store, &now)

	model, cmd := model.Update(key("i"))
	model = run(t, model, cmd)

	model, _ = model.Update(zoneMsg(status(site)))
	assert.False(t, model.(ClockModel).prompt.shown)

	model, _ = model.Update(zoneMsg(status(geo.Position{Latitude: site.Latitude + 0.01, Longitude: site.Longitude})))
	require.True(t, model.(ClockModel).prompt.shown)

	// declining keeps the session running
	model, cmd = model.Update(key("n"))
	assert.Nil(t, cmd)
	assert.False(t, model.(ClockModel).prompt.shown)
	assert.Equal(t, timeclock.Running, model.(ClockModel).state)

	model, _ = model.Update(zoneMsg(status(site)))
	model, _ = model.Update(zoneMsg(status(geo.Position{Latitude: site.Latitude + 0.01, Longitude: site.Longitude})))
	require.True(t, model.(ClockModel).prompt.shown)

	now = now.Add(time.Hour)
	model, cmd = model.Update(key("y"))
	model = run(t, model, cmd)
	assert.Equal(t, timeclock.Idle, model.(ClockModel).state)
	assert.Len(t, store.closed, 1)
}

func TestClockModel_View(t *testing.T) {
	now := time.Date(2024, 3, 6, 8, 30, 0, 0, time.Local)
	var model tea.Model = newClockModel(&sessionStore{}, &now)
	assert.Equal(t, "Loading...", model.View())

	model, _ = model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	view := model.View()
	assert.Contains(t, view, "OFF THE CLOCK")
	assert.Contains(t, view, "Work site")
	assert.Contains(t, view, "i clock in")
}

type fakeSaver struct {
	saved models.Settings
	err   error
}

func (f *fakeSaver) UpdateSettings(ctx context.Context, fn func(*models.Settings)) (models.Settings, error) {
	if f.err != nil {
		return models.Settings{}, f.err
	}
	fn(&f.saved)
	return f.saved, nil
}

func typeText(m tea.Model, s string) tea.Model {
	for _, r := range s {
		m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestSettingsModel_Save(t *testing.T) {
	saver := &fakeSaver{}
	current := models.Settings{SendMethod: models.SendMethodSMS}
	var model tea.Model = NewSettingsModel(context.Background(), saver, current)

	model = typeText(model, "Marie")
	model, _ = model.Update(key("tab"))
	model = typeText(model, "+33600000000")

	model, cmd := model.Update(key("ctrl+s"))
	model = run(t, model, cmd)

	m := model.(SettingsModel)
	assert.True(t, m.saved)
	assert.Equal(t, "Marie", saver.saved.UserName)
	assert.Equal(t, "+33600000000", saver.saved.RecipientPhone)
	assert.Equal(t, models.SendMethodSMS, saver.saved.SendMethod)
}

func TestSettingsModel_InvalidMethod(t *testing.T) {
	current := models.Settings{SendMethod: "fax"}
	var model tea.Model = NewSettingsModel(context.Background(), &fakeSaver{}, current)

	model, cmd := model.Update(key("ctrl+s"))
	assert.Nil(t, cmd)
	m := model.(SettingsModel)
	assert.Equal(t, "Send method must be sms or email", m.validationErr)
	assert.Equal(t, fieldMethod, m.focused)
	assert.False(t, m.saved)
}

func TestSettingsModel_SaveFailure(t *testing.T) {
	saver := &fakeSaver{err: errors.New("database is locked")}
	var model tea.Model = NewSettingsModel(context.Background(), saver, models.Settings{SendMethod: "email"})

	model, cmd := model.Update(key("ctrl+s"))
	model = run(t, model, cmd)
	m := model.(SettingsModel)
	assert.False(t, m.saved)
	assert.Equal(t, "database is locked", m.validationErr)
}

func TestSettingsModel_EscWithChangesAsks(t *testing.T) {
	var model tea.Model = NewSettingsModel(context.Background(), &fakeSaver{}, models.Settings{SendMethod: "sms"})

	model, cmd := model.Update(key("esc"))
	require.NotNil(t, cmd, "no changes: quits")
	assert.True(t, model.(SettingsModel).cancelled)

	model = NewSettingsModel(context.Background(), &fakeSaver{}, models.Settings{SendMethod: "sms"})
	model = typeText(model, "Ana")
	model, _ = model.Update(key("esc"))
	assert.True(t, model.(SettingsModel).modal.shown)

	model, cmd = model.Update(key("n"))
	require.NotNil(t, cmd)
	assert.True(t, model.(SettingsModel).cancelled)
}

func TestSettingsModel_DestinationWarning(t *testing.T) {
	m := NewSettingsModel(context.Background(), &fakeSaver{}, models.Settings{SendMethod: "email"})
	assert.Contains(t, m.destinationWarning(), "No email address")

	m = NewSettingsModel(context.Background(), &fakeSaver{}, models.Settings{SendMethod: "sms", RecipientPhone: "123"})
	assert.Empty(t, m.destinationWarning())
}

func closedAt(id string, arrival time.Time, minutes int) timeclock.ClosedSession {
	open := timeclock.OpenSession{ID: id, ArrivalTime: arrival, Date: timeclock.DateOf(arrival)}
	return open.Close(arrival.Add(time.Duration(minutes) * time.Minute))
}

func TestHistoryModel_RowsAndSelection(t *testing.T) {
	day1 := time.Date(2024, 3, 5, 8, 0, 0, 0, time.Local)
	day2 := time.Date(2024, 3, 6, 8, 0, 0, 0, time.Local)
	store := &sessionStore{closed: []timeclock.ClosedSession{
		closedAt("1", day1, 60),
		closedAt("2", day1.Add(5*time.Hour), 30),
		closedAt("3", day2, 90),
	}}
	entries, err := store.ListSessions(context.Background())
	require.NoError(t, err)

	m := NewHistoryModel(context.Background(), store, entries)
	// header(03-06), 3, header(03-05), 2, 1
	require.Len(t, m.rows, 5)
	assert.NotNil(t, m.rows[0].group)
	assert.Equal(t, "2024-03-06", m.rows[0].group.Date)
	assert.Equal(t, 90, m.rows[2].group.TotalMinutes)
	assert.Equal(t, "3", m.current().SessionID())

	var model tea.Model = m
	model, _ = model.Update(key("j"))
	assert.Equal(t, "2", model.(HistoryModel).current().SessionID(), "skips the date header")
	model, _ = model.Update(key("j"))
	model, _ = model.Update(key("j"))
	assert.Equal(t, "1", model.(HistoryModel).current().SessionID(), "stops at the end")
	model, _ = model.Update(key("k"))
	model, _ = model.Update(key("k"))
	model, _ = model.Update(key("k"))
	assert.Equal(t, "3", model.(HistoryModel).current().SessionID())
}

func TestHistoryModel_Delete(t *testing.T) {
	arrival := time.Date(2024, 3, 6, 8, 0, 0, 0, time.Local)
	store := &sessionStore{closed: []timeclock.ClosedSession{closedAt("1", arrival, 60)}}
	entries, _ := store.ListSessions(context.Background())

	var model tea.Model = NewHistoryModel(context.Background(), store, entries)
	model, _ = model.Update(key("d"))
	require.True(t, model.(HistoryModel).modal.shown)
	assert.False(t, model.(HistoryModel).modal.choice, "defaults to No")

	model, cmd := model.Update(key("y"))
	model, cmd = model.Update(cmd())
	assert.Equal(t, "Session deleted", model.(HistoryModel).notice)
	model = run(t, model, cmd)

	assert.Equal(t, []string{"1"}, store.deleted)
	assert.Empty(t, model.(HistoryModel).rows)
	assert.Nil(t, model.(HistoryModel).current())
}

func TestHistoryModel_OpenSessionNotDeletable(t *testing.T) {
	arrival := time.Date(2024, 3, 6, 8, 0, 0, 0, time.Local)
	store := &sessionStore{open: &timeclock.OpenSession{ID: "9", ArrivalTime: arrival, Date: timeclock.DateOf(arrival)}}
	entries, _ := store.ListSessions(context.Background())

	var model tea.Model = NewHistoryModel(context.Background(), store, entries)
	model, cmd := model.Update(key("d"))
	assert.Nil(t, cmd)
	assert.False(t, model.(HistoryModel).modal.shown)
	assert.Contains(t, model.(HistoryModel).notice, "Clock out before deleting")
}

func TestHistoryLine(t *testing.T) {
	arrival := time.Date(2024, 3, 6, 8, 30, 0, 0, time.Local)
	assert.Equal(t, "08:30 - 12:45  4h 15min", historyLine(closedAt("1", arrival, 255)))
	assert.Contains(t, historyLine(timeclock.OpenSession{ArrivalTime: arrival}), "running")
}
