package commands

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/nannyclock/internal/config"
	"github.com/balkashynov/nannyclock/internal/db"
	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/geocode"
	"github.com/balkashynov/nannyclock/internal/logutil"
	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/postgres"
	"github.com/balkashynov/nannyclock/internal/report"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

// app holds what every command needs. The store is opened on first use.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *db.Store
	pg     *postgres.DB
}

var cli = &app{}

func (a *app) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.Log.Level
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = "debug"
	}
	a.cfg = cfg
	a.logger = logutil.New(os.Stderr, level, cfg.Log.Format)
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.logger.Warn("failed to close database", "err", err)
		}
		a.store = nil
	}
	if a.pg != nil {
		a.pg.Close()
		a.pg = nil
	}
}

// openStore opens the local database and creates the default settings.
func (a *app) openStore(ctx context.Context) (*db.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	path := a.cfg.Database.Path
	if path == "" {
		p, err := db.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	store, err := db.Open(path, db.WithLogger(a.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := store.InitializeDefaults(ctx); err != nil {
		store.Close()
		return nil, err
	}
	a.store = store
	return store, nil
}

// positionSource picks where positions come from: --lat/--lon on the command
// line, else the configured fix file. It returns nil when neither is set.
func (a *app) positionSource(cmd *cobra.Command) (geo.Source, error) {
	flags := cmd.Flags()
	if flags.Changed("lat") || flags.Changed("lon") {
		if !flags.Changed("lat") || !flags.Changed("lon") {
			return nil, fmt.Errorf("--lat and --lon must be given together")
		}
		lat, _ := flags.GetFloat64("lat")
		lon, _ := flags.GetFloat64("lon")
		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return nil, fmt.Errorf("coordinates out of range: %f, %f", lat, lon)
		}
		return geo.StaticSource{Position: geo.Position{Latitude: lat, Longitude: lon}}, nil
	}
	if a.cfg.Geo.FixFile != "" {
		return geo.FileSource{
			Path:     a.cfg.Geo.FixFile,
			Interval: a.cfg.Geo.PollInterval,
			MaxAge:   a.cfg.Geo.FixMaxAge,
		}, nil
	}
	return nil, nil
}

func addPositionFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("lat", 0, "current latitude (overrides the fix file)")
	cmd.Flags().Float64("lon", 0, "current longitude (overrides the fix file)")
}

// monitor builds a geofence monitor around target. It returns nil when there is
// no work site to check against.
func (a *app) monitor(src geo.Source, target *geo.Position, radius float64) *geo.Monitor {
	if target == nil || src == nil {
		return nil
	}
	if radius <= 0 {
		radius = a.cfg.Geo.RadiusMeters
	}
	m := geo.NewMonitor(src,
		geo.WithRadius(radius),
		geo.WithLogger(a.logger),
		geo.WithRetryInterval(a.cfg.Geo.PollInterval),
		geo.WithFixTimeout(a.cfg.Geo.FixTimeout),
	)
	m.SetTarget(*target)
	return m
}

// locate fetches a single position from src.
func (a *app) locate(ctx context.Context, src geo.Source) (geo.Position, error) {
	m := geo.NewMonitor(src, geo.WithLogger(a.logger), geo.WithFixTimeout(a.cfg.Geo.FixTimeout))
	return m.CurrentPositionOnce(ctx)
}

// waitForFix starts m and blocks until it has a position or the fix timeout
// passes. The timer reports the missing fix itself.
func (a *app) waitForFix(ctx context.Context, m *geo.Monitor) {
	ctx, cancel := context.WithTimeout(ctx, a.cfg.Geo.FixTimeout)
	defer cancel()
	if _, err := m.WaitForFix(ctx); err != nil {
		a.logger.Debug("no position fix before clock-in", "err", err)
	}
}

// siteTarget returns the settings' work site position, if any
func siteTarget(s models.Settings) *geo.Position {
	if !s.WorkSite.IsSet() {
		return nil
	}
	return &geo.Position{Latitude: *s.WorkSite.Latitude, Longitude: *s.WorkSite.Longitude}
}

func (a *app) smtpChannel(opts ...notify.SMTPOption) *notify.SMTPChannel {
	c := a.cfg.SMTP
	opts = append([]notify.SMTPOption{notify.WithSMTPLogger(a.logger)}, opts...)
	return notify.NewSMTPChannel(notify.SMTPConfig{
		Host:     c.Host,
		Port:     c.Port,
		Username: c.Username,
		Password: c.Password,
		From:     c.From,
		FromName: c.FromName,
	}, opts...)
}

// dispatcher sends session summaries. Email goes over SMTP when configured,
// otherwise it is handed to the mail client.
func (a *app) dispatcher(store *db.Store) *notify.Dispatcher {
	opts := []notify.DispatcherOption{notify.WithLogger(a.logger)}
	// session notices are sent once, without retry
	if smtp := a.smtpChannel(notify.WithRetries(1, 0)); smtp.Configured() {
		opts = append(opts, notify.WithChannel(models.SendMethodEmail, smtp))
	}
	return notify.NewDispatcher(store, opts...)
}

// timer builds the local timer, geofenced when fence is not nil.
func (a *app) timer(store *db.Store, fence *geo.Monitor) *timeclock.Timer {
	opts := []timeclock.Option{
		timeclock.WithNotifier(a.dispatcher(store)),
		timeclock.WithLogger(a.logger),
	}
	if fence != nil {
		opts = append(opts, timeclock.WithGeofence(fence))
	}
	return timeclock.New(store, opts...)
}

func (a *app) geocoder() *geocode.Client {
	g := a.cfg.Geocoder
	return geocode.New(g.BaseURL,
		geocode.WithHTTPClient(&http.Client{Timeout: g.Timeout}),
		geocode.WithUserAgent(g.UserAgent),
		geocode.WithLanguage(g.Language),
		geocode.WithLogger(a.logger),
	)
}

// openPostgres connects to the multi-tenant database.
func (a *app) openPostgres(ctx context.Context) (*postgres.DB, error) {
	if a.pg != nil {
		return a.pg, nil
	}
	if err := a.cfg.ValidateTeam(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	pg, err := postgres.Connect(ctx, a.cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	a.logger.Debug("connected to postgres")
	a.pg = pg
	return pg, nil
}

// reportGenerator builds the weekly report generator, emailing reports when
// SMTP is configured.
func (a *app) reportGenerator(pg *postgres.DB) *report.Generator {
	opts := []report.Option{report.WithLogger(a.logger)}
	if smtp := a.smtpChannel(notify.WithRetries(3, time.Second)); smtp.Configured() {
		opts = append(opts, report.WithMailer(smtp))
	}
	return report.NewGenerator(
		postgres.NewProfileRepository(pg),
		postgres.NewEntryRepository(pg),
		postgres.NewReportRepository(pg),
		opts...,
	)
}
