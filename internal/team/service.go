package team

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/logutil"
	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

var (
	ErrInvalidRole  = errors.New("role must be employer or nanny")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrRoleMismatch = errors.New("profile has the wrong role")
	ErrNotLinked    = errors.New("nanny is not linked to an employer")
)

// Profiles is the profile storage the service needs.
type Profiles interface {
	Create(ctx context.Context, p *models.Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	SetEmployer(ctx context.Context, nannyID, employerID uuid.UUID) error
	SetWorkSite(ctx context.Context, id uuid.UUID, address string, lat, lon float64) error
}

// StoreFactory builds the session store of an employer/nanny pair.
type StoreFactory func(nannyID, employerID uuid.UUID) timeclock.Store

// Service enforces the employer/nanny invariants before any write: entries are
// only recorded for a nanny linked to a profile with the employer role.
type Service struct {
	profiles Profiles
	stores   StoreFactory
	logger   *slog.Logger
}

func NewService(profiles Profiles, stores StoreFactory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{profiles: profiles, stores: stores, logger: logger}
}

// AddProfile registers a new employer or nanny
func (s *Service) AddProfile(ctx context.Context, email, fullName, role string) (*models.Profile, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if role != models.RoleEmployer && role != models.RoleNanny {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEmail, email)
	}

	p := &models.Profile{Email: addr.Address, FullName: strings.TrimSpace(fullName), Role: role}
	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("profile created", "profile_id", p.ID, "role", role)
	return p, nil
}

// Resolve finds a profile by id or by email
func (s *Service) Resolve(ctx context.Context, ref string) (*models.Profile, error) {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return s.profiles.GetByID(ctx, id)
	}
	return s.profiles.GetByEmail(ctx, ref)
}

// Link attaches a nanny to an employer
func (s *Service) Link(ctx context.Context, nannyRef, employerRef string) error {
	nanny, err := s.resolveRole(ctx, nannyRef, models.RoleNanny)
	if err != nil {
		return err
	}
	employer, err := s.resolveRole(ctx, employerRef, models.RoleEmployer)
	if err != nil {
		return err
	}

	if err := s.profiles.SetEmployer(ctx, nanny.ID, employer.ID); err != nil {
		return logutil.LogAndWrapErr(s.logger, "failed to link profiles", err, "nanny_id", nanny.ID, "employer_id", employer.ID)
	}
	s.logger.Info("nanny linked", "nanny_id", nanny.ID, "employer_id", employer.ID)
	return nil
}

// SetWorkSite stores the location a nanny must be at to clock in
func (s *Service) SetWorkSite(ctx context.Context, nannyRef, address string, pos geo.Position) error {
	nanny, err := s.resolveRole(ctx, nannyRef, models.RoleNanny)
	if err != nil {
		return err
	}
	return s.profiles.SetWorkSite(ctx, nanny.ID, strings.TrimSpace(address), pos.Latitude, pos.Longitude)
}

// Pair returns a nanny and the employer it is linked to, checking both roles.
func (s *Service) Pair(ctx context.Context, nannyRef string) (nanny, employer *models.Profile, err error) {
	nanny, err = s.resolveRole(ctx, nannyRef, models.RoleNanny)
	if err != nil {
		return nil, nil, err
	}
	if nanny.EmployerID == nil {
		return nil, nil, fmt.Errorf("%w: %s", ErrNotLinked, nanny.Email)
	}

	employer, err = s.profiles.GetByID(ctx, *nanny.EmployerID)
	if err != nil {
		return nil, nil, err
	}
	if employer.Role != models.RoleEmployer {
		return nil, nil, fmt.Errorf("%w: %s is %s, not employer", ErrRoleMismatch, employer.Email, employer.Role)
	}
	return nanny, employer, nil
}

// Store returns the session store of a linked nanny together with its profile.
func (s *Service) Store(ctx context.Context, nannyRef string) (timeclock.Store, *models.Profile, error) {
	nanny, employer, err := s.Pair(ctx, nannyRef)
	if err != nil {
		return nil, nil, err
	}
	return s.stores(nanny.ID, employer.ID), nanny, nil
}

// WorkSite returns the nanny's work site position, or nil when unset
func WorkSite(p *models.Profile) *geo.Position {
	if p.WorkLatitude == nil || p.WorkLongitude == nil {
		return nil
	}
	return &geo.Position{Latitude: *p.WorkLatitude, Longitude: *p.WorkLongitude}
}

func (s *Service) resolveRole(ctx context.Context, ref, role string) (*models.Profile, error) {
	p, err := s.Resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	if p.Role != role {
		return nil, fmt.Errorf("%w: %s is %s, not %s", ErrRoleMismatch, p.Email, p.Role, role)
	}
	return p, nil
}
