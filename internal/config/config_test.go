package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 50.0, cfg.Geo.RadiusMeters)
	assert.Equal(t, 10*time.Second, cfg.Geo.FixTimeout)
	assert.Equal(t, 35.0, cfg.Stats.WeeklyGoalHours)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_YAML(t *testing.T) {
	t.Setenv("TEST_NANNYCLOCK_SECRET", "s3cret")
	path := writeConfig(t, `
database:
  path: /tmp/clock.db
  url: postgres://localhost/nannies
server:
  port: 9090
  cron_secret: ${TEST_NANNYCLOCK_SECRET}
geo:
  radius_meters: 80
  fix_timeout: 5s
stats:
  weekly_goal_hours: 40
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/clock.db", cfg.Database.Path)
	assert.Equal(t, "postgres://localhost/nannies", cfg.Database.URL)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "s3cret", cfg.Server.CronSecret)
	assert.Equal(t, 80.0, cfg.Geo.RadiusMeters)
	assert.Equal(t, 5*time.Second, cfg.Geo.FixTimeout)
	assert.Equal(t, 2*time.Minute, cfg.Geo.FixMaxAge, "unset keys keep defaults")
	assert.Equal(t, 40.0, cfg.Stats.WeeklyGoalHours)
	assert.Equal(t, "json", cfg.Log.Format)
	require.NoError(t, cfg.ValidateServer())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")
	t.Setenv("PORT", "7000")
	t.Setenv("DATABASE_URL", "postgres://db/app")
	t.Setenv("CRON_SECRET", "abc")
	t.Setenv("SMTP_HOST", "smtp.example.com")
	t.Setenv("SMTP_PORT", "2525")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("WEEKLY_GOAL_HOURS", "30")
	t.Setenv("GEOCODER_LANGUAGE", "fr")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Server.Port)
	assert.Equal(t, "postgres://db/app", cfg.Database.URL)
	assert.Equal(t, "abc", cfg.Server.CronSecret)
	assert.Equal(t, "smtp.example.com", cfg.SMTP.Host)
	assert.Equal(t, 2525, cfg.SMTP.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30.0, cfg.Stats.WeeklyGoalHours)
	assert.Equal(t, "fr", cfg.Geocoder.Language)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err, "an explicit path must exist")

	_, err = Load(writeConfig(t, "server: [not, a, map]"))
	assert.ErrorContains(t, err, "error parsing config")

	t.Setenv("PORT", "eighty")
	_, err = Load(writeConfig(t, ""))
	assert.ErrorContains(t, err, "invalid PORT")
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Geo, cfg.Geo)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Geo.RadiusMeters = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	assert.EqualError(t, cfg.ValidateTeam(), "DATABASE_URL is required")

	cfg.Database.URL = "postgres://db/app"
	require.NoError(t, cfg.ValidateTeam())
	assert.EqualError(t, cfg.ValidateServer(), "CRON_SECRET is required")

	cfg.Server.CronSecret = "abc"
	cfg.Server.Port = 70000
	assert.Error(t, cfg.ValidateServer())
}
