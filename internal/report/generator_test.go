package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/notify"
)

type fakeProfiles struct {
	profiles []models.Profile
}

func (f *fakeProfiles) ListByRole(ctx context.Context, role string) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		if p.Role == role {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) ListNannies(ctx context.Context, employerID uuid.UUID) ([]models.Profile, error) {
	var out []models.Profile
	for _, p := range f.profiles {
		if p.Role == models.RoleNanny && p.EmployerID != nil && *p.EmployerID == employerID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeEntries struct {
	entries []models.TimeEntry
}

func (f *fakeEntries) ClosedInRange(ctx context.Context, nannyID, employerID uuid.UUID, start, end time.Time) ([]models.TimeEntry, error) {
	var out []models.TimeEntry
	for _, e := range f.entries {
		if e.NannyID == nannyID && e.EmployerID == employerID && e.ClockOut != nil &&
			!e.ClockIn.Before(start) && !e.ClockIn.After(end) {
			out = append(out, e)
		}
	}
	return out, nil
}

type fakeReports struct {
	saved []models.WeeklyReport
	sent  map[uuid.UUID]time.Time
	err   error
}

func (f *fakeReports) Upsert(ctx context.Context, r *models.WeeklyReport) error {
	if f.err != nil {
		return f.err
	}
	r.ID = uuid.New()
	f.saved = append(f.saved, *r)
	return nil
}

func (f *fakeReports) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	if f.sent == nil {
		f.sent = make(map[uuid.UUID]time.Time)
	}
	f.sent[id] = at
	return nil
}

type fixture struct {
	profiles *fakeProfiles
	entries  *fakeEntries
	reports  *fakeReports
	now      time.Time
	nannyID  uuid.UUID
}

func entry(nanny, employer uuid.UUID, in time.Time, minutes int) models.TimeEntry {
	out := in.Add(time.Duration(minutes) * time.Minute)
	return models.TimeEntry{ID: uuid.New(), NannyID: nanny, EmployerID: employer, ClockIn: in, ClockOut: &out, DurationMinutes: &minutes}
}

func newFixture() *fixture {
	employer := models.Profile{ID: uuid.New(), Email: "parents@example.com", FullName: "The Parents", Role: models.RoleEmployer}
	idle := models.Profile{ID: uuid.New(), Email: "solo@example.com", Role: models.RoleEmployer}
	nanny := models.Profile{ID: uuid.New(), Email: "marie@example.com", FullName: "Marie", Role: models.RoleNanny, EmployerID: &employer.ID}
	lazy := models.Profile{ID: uuid.New(), Email: "paul@example.com", Role: models.RoleNanny, EmployerID: &employer.ID}

	// Friday 19 January 2024, 18:30
	now := time.Date(2024, 1, 19, 18, 30, 0, 0, time.Local)
	monday := time.Date(2024, 1, 15, 8, 0, 0, 0, time.Local)

	open := models.TimeEntry{ID: uuid.New(), NannyID: nanny.ID, EmployerID: employer.ID, ClockIn: now.Add(-time.Hour)}
	return &fixture{
		profiles: &fakeProfiles{profiles: []models.Profile{employer, idle, nanny, lazy}},
		entries: &fakeEntries{entries: []models.TimeEntry{
			entry(nanny.ID, employer.ID, monday, 120),
			entry(nanny.ID, employer.ID, monday.Add(6*time.Hour), 60),
			entry(nanny.ID, employer.ID, monday.AddDate(0, 0, 1), 95),
			entry(nanny.ID, employer.ID, monday.AddDate(0, 0, -3), 600), // previous week
			open,
		}},
		reports: &fakeReports{},
		now:     now,
		nannyID: nanny.ID,
	}
}

func (f *fixture) generator(opts ...Option) *Generator {
	opts = append([]Option{WithClock(func() time.Time { return f.now })}, opts...)
	return NewGenerator(f.profiles, f.entries, f.reports, opts...)
}

func TestGenerate(t *testing.T) {
	f := newFixture()

	summaries, err := f.generator().Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1, "pairs without work are skipped")

	s := summaries[0]
	assert.Equal(t, "Marie", s.Nanny.Name)
	assert.Equal(t, "parents@example.com", s.Employer.Email)
	assert.Equal(t, "15/01/2024", s.WeekStart)
	assert.Equal(t, "21/01/2024", s.WeekEnd)
	assert.Equal(t, 275, s.TotalMinutes)
	assert.Equal(t, "4h 35min", s.TotalHours)
	assert.Equal(t, 2, s.DaysWorked)
	require.Len(t, s.Entries, 3)
	assert.Equal(t, Line{Date: "15/01/2024", ClockIn: "08:00", ClockOut: "10:00", Duration: "2h"}, s.Entries[0])
	assert.False(t, s.Emailed)

	require.Len(t, f.reports.saved, 1)
	saved := f.reports.saved[0]
	assert.Equal(t, f.nannyID, saved.NannyID)
	assert.Equal(t, 4, saved.TotalHours)
	assert.Equal(t, 35, saved.TotalMinutes)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.Local), saved.WeekStart)
	assert.Equal(t, saved.ID, s.ReportID)
	assert.Empty(t, f.reports.sent)
}

func TestGenerate_Emails(t *testing.T) {
	f := newFixture()
	var sent []notify.Message
	mailer := notify.ChannelFunc(func(ctx context.Context, msg notify.Message) error {
		sent = append(sent, msg)
		return nil
	})

	summaries, err := f.generator(WithMailer(mailer)).Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Emailed)

	require.Len(t, sent, 2)
	assert.Equal(t, "parents@example.com", sent[0].To)
	assert.Equal(t, "marie@example.com", sent[1].To)
	assert.Equal(t, "Weekly summary - 15/01/2024 to 21/01/2024", sent[0].Subject)
	assert.Contains(t, sent[0].Body, "Total: 4h 35min over 2 day(s)")
	assert.Contains(t, sent[0].Body, "16/01/2024  08:00 - 09:35  1h 35min")

	assert.Equal(t, f.now, f.reports.sent[summaries[0].ReportID])
}

func TestGenerate_EmailFailureDoesNotStopRun(t *testing.T) {
	f := newFixture()
	mailer := notify.ChannelFunc(func(ctx context.Context, msg notify.Message) error {
		return errors.New("connection refused")
	})

	summaries, err := f.generator(WithMailer(mailer)).Generate(context.Background())
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.False(t, summaries[0].Emailed)
	assert.Empty(t, f.reports.sent)
}

func TestGenerate_StoreFailure(t *testing.T) {
	f := newFixture()
	f.reports.err = errors.New("disk full")

	_, err := f.generator().Generate(context.Background())
	assert.ErrorContains(t, err, "disk full")
}

func TestGenerate_NoEmployers(t *testing.T) {
	f := newFixture()
	f.profiles.profiles = nil

	summaries, err := f.generator().Generate(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, summaries)
	assert.Empty(t, summaries)
}
