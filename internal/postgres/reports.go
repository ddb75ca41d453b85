package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/balkashynov/nannyclock/internal/models"
)

const reportColumns = `id, nanny_id, employer_id, week_start, week_end, total_hours, total_minutes, sent_at, created_at`

type ReportRepository struct {
	db *DB
}

func NewReportRepository(db *DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// Upsert stores the report of a pair for a week. Generating the same week again
// replaces the totals and keeps the original id.
func (r *ReportRepository) Upsert(ctx context.Context, report *models.WeeklyReport) error {
	if report.ID == uuid.Nil {
		report.ID = uuid.New()
	}

	err := r.db.querier(ctx).QueryRow(ctx, `
		INSERT INTO weekly_reports (id, nanny_id, employer_id, week_start, week_end, total_hours, total_minutes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (nanny_id, employer_id, week_start)
		DO UPDATE SET week_end = EXCLUDED.week_end,
		              total_hours = EXCLUDED.total_hours,
		              total_minutes = EXCLUDED.total_minutes
		RETURNING id, sent_at, created_at`,
		report.ID,
		report.NannyID,
		report.EmployerID,
		report.WeekStart,
		report.WeekEnd,
		report.TotalHours,
		report.TotalMinutes,
	).Scan(&report.ID, &report.SentAt, &report.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save weekly report: %w", err)
	}
	return nil
}

// MarkSent records when the report email went out
func (r *ReportRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := r.db.querier(ctx).Exec(ctx, `UPDATE weekly_reports SET sent_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("failed to mark report sent: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("weekly report %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListByEmployer returns an employer's reports, newest week first
func (r *ReportRepository) ListByEmployer(ctx context.Context, employerID uuid.UUID) ([]models.WeeklyReport, error) {
	rows, err := r.db.querier(ctx).Query(ctx,
		`SELECT `+reportColumns+` FROM weekly_reports WHERE employer_id = $1 ORDER BY week_start DESC`, employerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list weekly reports: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.WeeklyReport])
}
