package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// setupDB connects to TEST_DATABASE_URL, migrates and empties the tables. Tests
// are skipped when it is not set.
func setupDB(t *testing.T) *DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, Migrate(db))
	require.NoError(t, Migrate(db), "migrating twice is a no-op")

	_, err = db.Exec(ctx, `TRUNCATE weekly_reports, time_entries, profiles CASCADE`)
	require.NoError(t, err)
	return db
}

func createPair(t *testing.T, db *DB) (employer, nanny *models.Profile) {
	t.Helper()
	ctx := context.Background()
	profiles := NewProfileRepository(db)

	employer = &models.Profile{Email: "parents@example.com", FullName: "The Parents", Role: models.RoleEmployer}
	require.NoError(t, profiles.Create(ctx, employer))

	nanny = &models.Profile{Email: "marie@example.com", FullName: "Marie", Role: models.RoleNanny, EmployerID: &employer.ID}
	require.NoError(t, profiles.Create(ctx, nanny))
	return employer, nanny
}

func TestProfileRepository(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	profiles := NewProfileRepository(db)

	employer, nanny := createPair(t, db)
	assert.NotEqual(t, uuid.Nil, employer.ID)
	assert.False(t, employer.CreatedAt.IsZero())

	err := profiles.Create(ctx, &models.Profile{Email: "marie@example.com", Role: models.RoleNanny})
	assert.ErrorIs(t, err, ErrEmailTaken)

	got, err := profiles.GetByEmail(ctx, "MARIE@example.com")
	require.NoError(t, err)
	assert.Equal(t, nanny.ID, got.ID)
	require.NotNil(t, got.EmployerID)
	assert.Equal(t, employer.ID, *got.EmployerID)

	_, err = profiles.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	nannies, err := profiles.ListNannies(ctx, employer.ID)
	require.NoError(t, err)
	require.Len(t, nannies, 1)

	employers, err := profiles.ListByRole(ctx, models.RoleEmployer)
	require.NoError(t, err)
	assert.Len(t, employers, 1)

	require.NoError(t, profiles.SetWorkSite(ctx, nanny.ID, "1 rue de Rivoli", 48.85, 2.35))
	got, err = profiles.GetByID(ctx, nanny.ID)
	require.NoError(t, err)
	require.NotNil(t, got.WorkLatitude)
	assert.InDelta(t, 48.85, *got.WorkLatitude, 1e-9)

	assert.ErrorIs(t, profiles.SetEmployer(ctx, uuid.New(), employer.ID), ErrNotFound)
}

func TestNannyStore_SingleOpenEntry(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	employer, nanny := createPair(t, db)

	store := NewNannyStore(NewEntryRepository(db), nanny.ID, employer.ID)
	now := time.Date(2024, 1, 15, 8, 0, 0, 0, time.Local)
	timer := timeclock.New(store, timeclock.WithClock(func() time.Time { return now }))

	open, err := timer.ClockIn(ctx)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, "2024-01-15", open.Date)

	_, err = store.CreateOpenSession(ctx, now.Add(time.Minute))
	assert.ErrorIs(t, err, timeclock.ErrSessionOpen)

	now = now.Add(271 * time.Second)
	closed, err := timer.ClockOut(ctx)
	require.NoError(t, err)
	require.NotNil(t, closed)
	assert.Equal(t, 4, closed.Duration)

	_, err = store.CloseSession(ctx, closed.ID, now, 4)
	assert.ErrorIs(t, err, timeclock.ErrSessionNotFound)
}

func TestEntryAndReportRepositories(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	employer, nanny := createPair(t, db)
	entries := NewEntryRepository(db)
	reports := NewReportRepository(db)

	monday := time.Date(2024, 1, 15, 8, 0, 0, 0, time.Local)
	for i, minutes := range []int{120, 90, 45} {
		in := monday.AddDate(0, 0, i)
		e, err := entries.CreateOpen(ctx, nanny.ID, employer.ID, in)
		require.NoError(t, err)
		_, err = entries.Close(ctx, e.ID, in.Add(time.Duration(minutes)*time.Minute), minutes)
		require.NoError(t, err)
	}
	_, err := entries.CreateOpen(ctx, nanny.ID, employer.ID, monday.AddDate(0, 0, 3))
	require.NoError(t, err)

	week, err := entries.ClosedInRange(ctx, nanny.ID, employer.ID, monday, monday.AddDate(0, 0, 7))
	require.NoError(t, err)
	assert.Len(t, week, 3)

	latest, err := entries.ListByNanny(ctx, nanny.ID, 2)
	require.NoError(t, err)
	require.Len(t, latest, 2)
	assert.Nil(t, latest[0].ClockOut)

	report := &models.WeeklyReport{
		NannyID: nanny.ID, EmployerID: employer.ID,
		WeekStart: monday, WeekEnd: monday.AddDate(0, 0, 7).Add(-time.Millisecond),
		TotalHours: 4, TotalMinutes: 15,
	}
	require.NoError(t, reports.Upsert(ctx, report))
	firstID := report.ID

	again := *report
	again.ID = uuid.Nil
	again.TotalMinutes = 20
	require.NoError(t, reports.Upsert(ctx, &again))
	assert.Equal(t, firstID, again.ID, "same week replaces the totals")

	require.NoError(t, reports.MarkSent(ctx, firstID, time.Now()))

	list, err := reports.ListByEmployer(ctx, employer.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 20, list[0].TotalMinutes)
	assert.NotNil(t, list[0].SentAt)
}

func TestWithTransaction_Rollback(t *testing.T) {
	db := setupDB(t)
	ctx := context.Background()
	profiles := NewProfileRepository(db)

	err := db.WithTransaction(ctx, func(ctx context.Context) error {
		if err := profiles.Create(ctx, &models.Profile{Email: "a@example.com", Role: models.RoleEmployer}); err != nil {
			return err
		}
		return profiles.Create(ctx, &models.Profile{Email: "a@example.com", Role: models.RoleEmployer})
	})
	assert.ErrorIs(t, err, ErrEmailTaken)

	_, err = profiles.GetByEmail(ctx, "a@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
}
