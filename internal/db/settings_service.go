package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/logutil"
	"github.com/balkashynov/nannyclock/internal/models"
)

// ErrInvalidSendMethod is returned when the send method is neither sms nor email.
var ErrInvalidSendMethod = errors.New("send method must be sms or email")

// InitializeDefaults creates the settings row with empty defaults if it does not
// exist yet.
func (s *Store) InitializeDefaults(ctx context.Context) error {
	_, err := s.Settings(ctx)
	return err
}

// Settings returns the settings, creating the defaults on first use
func (s *Store) Settings(ctx context.Context) (models.Settings, error) {
	var settings models.Settings
	err := s.db.WithContext(ctx).First(&settings, models.SettingsID).Error
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return settings, err
	}

	settings = defaultSettings()
	if err := s.db.WithContext(ctx).Create(&settings).Error; err != nil {
		return settings, logutil.LogAndWrapErr(s.logger, "failed to create default settings", err)
	}
	return settings, nil
}

// UpdateSettings applies fn to the current settings and saves the result
func (s *Store) UpdateSettings(ctx context.Context, fn func(*models.Settings)) (models.Settings, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return settings, err
	}

	fn(&settings)
	settings.ID = models.SettingsID
	settings.SendMethod = strings.ToLower(strings.TrimSpace(settings.SendMethod))
	if settings.SendMethod != models.SendMethodSMS && settings.SendMethod != models.SendMethodEmail {
		return settings, ErrInvalidSendMethod
	}
	if settings.WorkSite.RadiusMeters <= 0 {
		settings.WorkSite.RadiusMeters = geo.DefaultRadiusMeters
	}

	if err := s.db.WithContext(ctx).Save(&settings).Error; err != nil {
		return settings, logutil.LogAndWrapErr(s.logger, "failed to save settings", err)
	}

	s.changed()
	return settings, nil
}

// SetWorkSite replaces the configured work site
func (s *Store) SetWorkSite(ctx context.Context, site models.WorkSite) (models.Settings, error) {
	return s.UpdateSettings(ctx, func(settings *models.Settings) {
		settings.WorkSite = site
	})
}

// ClearWorkSite removes the work site, keeping the radius
func (s *Store) ClearWorkSite(ctx context.Context) (models.Settings, error) {
	return s.UpdateSettings(ctx, func(settings *models.Settings) {
		settings.WorkSite = models.WorkSite{RadiusMeters: settings.WorkSite.RadiusMeters}
	})
}

func defaultSettings() models.Settings {
	return models.Settings{
		ID:         models.SettingsID,
		SendMethod: models.SendMethodSMS,
		WorkSite:   models.WorkSite{RadiusMeters: geo.DefaultRadiusMeters},
	}
}
