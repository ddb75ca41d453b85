package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleEmployer = "employer"
	RoleNanny    = "nanny"
)

// Profile is an employer or a nanny in the multi-tenant store. A nanny references
// its employer through EmployerID.
type Profile struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	Email         string     `db:"email" json:"email"`
	FullName      string     `db:"full_name" json:"full_name"`
	Role          string     `db:"role" json:"role"`
	EmployerID    *uuid.UUID `db:"employer_id" json:"employer_id,omitempty"`
	WorkAddress   *string    `db:"work_address" json:"work_address,omitempty"`
	WorkLatitude  *float64   `db:"work_latitude" json:"work_latitude,omitempty"`
	WorkLongitude *float64   `db:"work_longitude" json:"work_longitude,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// TimeEntry is a nanny's work session, always tied to the employer.
type TimeEntry struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	NannyID         uuid.UUID  `db:"nanny_id" json:"nanny_id"`
	EmployerID      uuid.UUID  `db:"employer_id" json:"employer_id"`
	ClockIn         time.Time  `db:"clock_in" json:"clock_in"`
	ClockOut        *time.Time `db:"clock_out" json:"clock_out,omitempty"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// WeeklyReport is the persisted weekly total of one employer/nanny pair.
type WeeklyReport struct {
	ID           uuid.UUID  `db:"id" json:"id"`
	NannyID      uuid.UUID  `db:"nanny_id" json:"nanny_id"`
	EmployerID   uuid.UUID  `db:"employer_id" json:"employer_id"`
	WeekStart    time.Time  `db:"week_start" json:"week_start"`
	WeekEnd      time.Time  `db:"week_end" json:"week_end"`
	TotalHours   int        `db:"total_hours" json:"total_hours"`
	TotalMinutes int        `db:"total_minutes" json:"total_minutes"`
	SentAt       *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
