package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/balkashynov/nannyclock/internal/models"
)

// ErrEmailTaken is returned when creating a profile with an existing email.
var ErrEmailTaken = errors.New("email already registered")

const profileColumns = `id, email, full_name, role, employer_id, work_address, work_latitude, work_longitude, created_at`

type ProfileRepository struct {
	db *DB
}

func NewProfileRepository(db *DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// Create inserts p, assigning its id when empty
func (r *ProfileRepository) Create(ctx context.Context, p *models.Profile) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	query := `
		INSERT INTO profiles (id, email, full_name, role, employer_id, work_address, work_latitude, work_longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`
	err := r.db.querier(ctx).QueryRow(ctx, query,
		p.ID,
		p.Email,
		p.FullName,
		p.Role,
		p.EmployerID,
		p.WorkAddress,
		p.WorkLatitude,
		p.WorkLongitude,
	).Scan(&p.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %s", ErrEmailTaken, p.Email)
	}
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

func (r *ProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE id = $1`, id)
}

func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.getOne(ctx, `SELECT `+profileColumns+` FROM profiles WHERE lower(email) = lower($1)`, email)
}

func (r *ProfileRepository) getOne(ctx context.Context, query string, arg any) (*models.Profile, error) {
	rows, err := r.db.querier(ctx).Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	p, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[models.Profile])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}

// ListByRole returns all profiles with the given role, oldest first
func (r *ProfileRepository) ListByRole(ctx context.Context, role string) ([]models.Profile, error) {
	rows, err := r.db.querier(ctx).Query(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE role = $1 ORDER BY created_at, email`, role)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Profile])
}

// ListNannies returns the nannies linked to employerID
func (r *ProfileRepository) ListNannies(ctx context.Context, employerID uuid.UUID) ([]models.Profile, error) {
	rows, err := r.db.querier(ctx).Query(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE role = 'nanny' AND employer_id = $1 ORDER BY created_at, email`, employerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list nannies: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowToStructByName[models.Profile])
}

// SetEmployer links a nanny profile to an employer
func (r *ProfileRepository) SetEmployer(ctx context.Context, nannyID, employerID uuid.UUID) error {
	tag, err := r.db.querier(ctx).Exec(ctx, `UPDATE profiles SET employer_id = $2 WHERE id = $1`, nannyID, employerID)
	if err != nil {
		return fmt.Errorf("failed to link profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", nannyID, ErrNotFound)
	}
	return nil
}

// SetWorkSite stores the work address and coordinates of a nanny
func (r *ProfileRepository) SetWorkSite(ctx context.Context, id uuid.UUID, address string, lat, lon float64) error {
	tag, err := r.db.querier(ctx).Exec(ctx,
		`UPDATE profiles SET work_address = $2, work_latitude = $3, work_longitude = $4 WHERE id = $1`,
		id, address, lat, lon)
	if err != nil {
		return fmt.Errorf("failed to set work site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", id, ErrNotFound)
	}
	return nil
}
