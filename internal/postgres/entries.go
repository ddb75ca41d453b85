package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

const entryColumns = `id, nanny_id, employer_id, clock_in, clock_out, duration_minutes, created_at`

type EntryRepository struct {
	db *DB
}

func NewEntryRepository(db *DB) *EntryRepository {
	return &EntryRepository{db: db}
}

// Open returns the nanny's entry without clock-out, or nil
func (r *EntryRepository) Open(ctx context.Context, nannyID uuid.UUID) (*models.TimeEntry, error) {
	rows, err := r.db.querier(ctx).Query(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE nanny_id = $1 AND clock_out IS NULL`, nannyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get open entry: %w", err)
	}
	entry, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.TimeEntry])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get open entry: %w", err)
	}
	return &entry, nil
}

// CreateOpen starts an entry. The partial unique index turns a second open entry
// into timeclock.ErrSessionOpen.
func (r *EntryRepository) CreateOpen(ctx context.Context, nannyID, employerID uuid.UUID, clockIn time.Time) (*models.TimeEntry, error) {
	entry := models.TimeEntry{
		ID:         uuid.New(),
		NannyID:    nannyID,
		EmployerID: employerID,
		ClockIn:    clockIn,
	}

	err := r.db.querier(ctx).QueryRow(ctx,
		`INSERT INTO time_entries (id, nanny_id, employer_id, clock_in) VALUES ($1, $2, $3, $4) RETURNING created_at`,
		entry.ID, entry.NannyID, entry.EmployerID, entry.ClockIn,
	).Scan(&entry.CreatedAt)
	if isUniqueViolation(err) {
		return nil, timeclock.ErrSessionOpen
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create entry: %w", err)
	}
	return &entry, nil
}

// Close sets clock-out on an entry that is still open
func (r *EntryRepository) Close(ctx context.Context, id uuid.UUID, clockOut time.Time, minutes int) (*models.TimeEntry, error) {
	rows, err := r.db.querier(ctx).Query(ctx, `
		UPDATE time_entries SET clock_out = $2, duration_minutes = $3
		WHERE id = $1 AND clock_out IS NULL
		RETURNING `+entryColumns, id, clockOut, minutes)
	if err != nil {
		return nil, fmt.Errorf("failed to close entry: %w", err)
	}
	entry, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.TimeEntry])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, timeclock.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to close entry: %w", err)
	}
	return &entry, nil
}

// ClosedInRange returns the completed entries of a pair clocked in within
// [start, end], oldest first.
func (r *EntryRepository) ClosedInRange(ctx context.Context, nannyID, employerID uuid.UUID, start, end time.Time) ([]models.TimeEntry, error) {
	rows, err := r.db.querier(ctx).Query(ctx, `
		SELECT `+entryColumns+` FROM time_entries
		WHERE nanny_id = $1 AND employer_id = $2
		  AND clock_in >= $3 AND clock_in <= $4
		  AND clock_out IS NOT NULL
		ORDER BY clock_in`, nannyID, employerID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.TimeEntry])
}

// ListByNanny returns the latest entries of a nanny, newest first
func (r *EntryRepository) ListByNanny(ctx context.Context, nannyID uuid.UUID, limit int) ([]models.TimeEntry, error) {
	rows, err := r.db.querier(ctx).Query(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE nanny_id = $1 ORDER BY clock_in DESC LIMIT $2`, nannyID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.TimeEntry])
}
