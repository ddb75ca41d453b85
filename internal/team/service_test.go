package team

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

var errNotFound = errors.New("not found")

type memoryProfiles struct {
	byID map[uuid.UUID]*models.Profile
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{byID: make(map[uuid.UUID]*models.Profile)}
}

func (m *memoryProfiles) Create(ctx context.Context, p *models.Profile) error {
	for _, existing := range m.byID {
		if strings.EqualFold(existing.Email, p.Email) {
			return fmt.Errorf("duplicate %s", p.Email)
		}
	}
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	stored := *p
	m.byID[p.ID] = &stored
	return nil
}

func (m *memoryProfiles) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	p, ok := m.byID[id]
	if !ok {
		return nil, errNotFound
	}
	out := *p
	return &out, nil
}

func (m *memoryProfiles) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	for _, p := range m.byID {
		if strings.EqualFold(p.Email, email) {
			out := *p
			return &out, nil
		}
	}
	return nil, errNotFound
}

func (m *memoryProfiles) SetEmployer(ctx context.Context, nannyID, employerID uuid.UUID) error {
	p, ok := m.byID[nannyID]
	if !ok {
		return errNotFound
	}
	p.EmployerID = &employerID
	return nil
}

func (m *memoryProfiles) SetWorkSite(ctx context.Context, id uuid.UUID, address string, lat, lon float64) error {
	p, ok := m.byID[id]
	if !ok {
		return errNotFound
	}
	p.WorkAddress, p.WorkLatitude, p.WorkLongitude = &address, &lat, &lon
	return nil
}

type pairStore struct {
	timeclock.Store
	nannyID, employerID uuid.UUID
}

func newService(profiles *memoryProfiles) *Service {
	return NewService(profiles, func(nannyID, employerID uuid.UUID) timeclock.Store {
		return pairStore{nannyID: nannyID, employerID: employerID}
	}, nil)
}

func TestAddProfile(t *testing.T) {
	svc := newService(newMemoryProfiles())
	ctx := context.Background()

	p, err := svc.AddProfile(ctx, " Marie <marie@example.com> ", " Marie ", "Nanny")
	require.NoError(t, err)
	assert.Equal(t, "marie@example.com", p.Email)
	assert.Equal(t, "Marie", p.FullName)
	assert.Equal(t, models.RoleNanny, p.Role)

	_, err = svc.AddProfile(ctx, "boss@example.com", "", "manager")
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.AddProfile(ctx, "not-an-email", "", "employer")
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestLinkAndPair(t *testing.T) {
	profiles := newMemoryProfiles()
	svc := newService(profiles)
	ctx := context.Background()

	employer, err := svc.AddProfile(ctx, "parents@example.com", "Parents", models.RoleEmployer)
	require.NoError(t, err)
	nanny, err := svc.AddProfile(ctx, "marie@example.com", "Marie", models.RoleNanny)
	require.NoError(t, err)

	_, _, err = svc.Pair(ctx, "marie@example.com")
	assert.ErrorIs(t, err, ErrNotLinked)

	assert.ErrorIs(t, svc.Link(ctx, "parents@example.com", "marie@example.com"), ErrRoleMismatch)
	require.NoError(t, svc.Link(ctx, nanny.ID.String(), "parents@example.com"))

	gotNanny, gotEmployer, err := svc.Pair(ctx, "marie@example.com")
	require.NoError(t, err)
	assert.Equal(t, nanny.ID, gotNanny.ID)
	assert.Equal(t, employer.ID, gotEmployer.ID)

	store, p, err := svc.Store(ctx, "marie@example.com")
	require.NoError(t, err)
	assert.Equal(t, nanny.ID, p.ID)
	ps := store.(pairStore)
	assert.Equal(t, nanny.ID, ps.nannyID)
	assert.Equal(t, employer.ID, ps.employerID)

	_, _, err = svc.Pair(ctx, "parents@example.com")
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

func TestPair_EmployerWithWrongRole(t *testing.T) {
	profiles := newMemoryProfiles()
	svc := newService(profiles)
	ctx := context.Background()

	other, err := svc.AddProfile(ctx, "other@example.com", "", models.RoleNanny)
	require.NoError(t, err)
	nanny, err := svc.AddProfile(ctx, "marie@example.com", "", models.RoleNanny)
	require.NoError(t, err)
	require.NoError(t, profiles.SetEmployer(ctx, nanny.ID, other.ID))

	_, _, err = svc.Store(ctx, "marie@example.com")
	assert.ErrorIs(t, err, ErrRoleMismatch)
}

func TestSetWorkSite(t *testing.T) {
	profiles := newMemoryProfiles()
	svc := newService(profiles)
	ctx := context.Background()

	nanny, err := svc.AddProfile(ctx, "marie@example.com", "", models.RoleNanny)
	require.NoError(t, err)
	assert.Nil(t, WorkSite(nanny))

	pos := geo.Position{Latitude: 48.85, Longitude: 2.35}
	require.NoError(t, svc.SetWorkSite(ctx, "marie@example.com", " 1 rue de Rivoli ", pos))

	got, err := svc.Resolve(ctx, nanny.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "1 rue de Rivoli", *got.WorkAddress)
	assert.Equal(t, &pos, WorkSite(got))

	_, err = svc.AddProfile(ctx, "parents@example.com", "", models.RoleEmployer)
	require.NoError(t, err)
	assert.ErrorIs(t, svc.SetWorkSite(ctx, "parents@example.com", "x", pos), ErrRoleMismatch)
}
