package report

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/balkashynov/nannyclock/internal/logutil"
	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/stats"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

const dateLayout = "02/01/2006"

type Profiles interface {
	ListByRole(ctx context.Context, role string) ([]models.Profile, error)
	ListNannies(ctx context.Context, employerID uuid.UUID) ([]models.Profile, error)
}

type Entries interface {
	ClosedInRange(ctx context.Context, nannyID, employerID uuid.UUID, start, end time.Time) ([]models.TimeEntry, error)
}

type Reports interface {
	Upsert(ctx context.Context, report *models.WeeklyReport) error
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
}

type Party struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Line struct {
	Date     string `json:"date"`
	ClockIn  string `json:"clock_in"`
	ClockOut string `json:"clock_out"`
	Duration string `json:"duration"`
}

// Summary is the weekly report of one employer/nanny pair.
type Summary struct {
	ReportID     uuid.UUID `json:"report_id"`
	Employer     Party     `json:"employer"`
	Nanny        Party     `json:"nanny"`
	WeekStart    string    `json:"week_start"`
	WeekEnd      string    `json:"week_end"`
	TotalHours   string    `json:"total_hours"`
	TotalMinutes int       `json:"total_minutes"`
	DaysWorked   int       `json:"days_worked"`
	Entries      []Line    `json:"entries"`
	Emailed      bool      `json:"emailed"`
}

// Generator builds and stores the weekly reports of every linked pair.
type Generator struct {
	profiles Profiles
	entries  Entries
	reports  Reports
	mailer   notify.Channel
	now      func() time.Time
	logger   *slog.Logger
}

type Option func(*Generator)

// WithMailer emails each report to the employer and the nanny
func WithMailer(ch notify.Channel) Option {
	return func(g *Generator) { g.mailer = ch }
}

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func WithLogger(l *slog.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

func NewGenerator(profiles Profiles, entries Entries, reports Reports, opts ...Option) *Generator {
	g := &Generator{
		profiles: profiles,
		entries:  entries,
		reports:  reports,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate stores one report per employer/nanny pair with completed entries in
// the current week. Pairs without work are skipped. Email failures are logged and
// do not stop the run.
func (g *Generator) Generate(ctx context.Context) ([]Summary, error) {
	defer logutil.NewTimingLogger(g.logger, time.Now(), "weekly reports generated")()

	week := stats.WeekRange(g.now())

	employers, err := g.profiles.ListByRole(ctx, models.RoleEmployer)
	if err != nil {
		return nil, logutil.LogAndWrapErr(g.logger, "failed to list employers", err)
	}

	summaries := []Summary{}
	for _, employer := range employers {
		nannies, err := g.profiles.ListNannies(ctx, employer.ID)
		if err != nil {
			return summaries, logutil.LogAndWrapErr(g.logger, "failed to list nannies", err, "employer_id", employer.ID)
		}

		for _, nanny := range nannies {
			summary, ok, err := g.generatePair(ctx, employer, nanny, week)
			if err != nil {
				return summaries, err
			}
			if ok {
				summaries = append(summaries, summary)
			}
		}
	}

	g.logger.Info("weekly reports", "count", len(summaries), "week_start", week.StartDate())
	return summaries, nil
}

func (g *Generator) generatePair(ctx context.Context, employer, nanny models.Profile, week stats.Range) (Summary, bool, error) {
	entries, err := g.entries.ClosedInRange(ctx, nanny.ID, employer.ID, week.Start, week.End)
	if err != nil {
		return Summary{}, false, logutil.LogAndWrapErr(g.logger, "failed to list entries", err, "nanny_id", nanny.ID)
	}
	if len(entries) == 0 {
		return Summary{}, false, nil
	}

	summary := buildSummary(employer, nanny, week, entries)

	record := &models.WeeklyReport{
		NannyID:      nanny.ID,
		EmployerID:   employer.ID,
		WeekStart:    week.Start,
		WeekEnd:      week.End,
		TotalHours:   summary.TotalMinutes / 60,
		TotalMinutes: summary.TotalMinutes % 60,
	}
	if err := g.reports.Upsert(ctx, record); err != nil {
		return Summary{}, false, logutil.LogAndWrapErr(g.logger, "failed to save weekly report", err, "nanny_id", nanny.ID)
	}
	summary.ReportID = record.ID

	if g.mailer != nil {
		summary.Emailed = g.send(ctx, summary)
		if summary.Emailed {
			if err := g.reports.MarkSent(ctx, record.ID, g.now()); err != nil {
				g.logger.Warn("failed to mark report sent", "report_id", record.ID, "err", err)
			}
		}
	}
	return summary, true, nil
}

func (g *Generator) send(ctx context.Context, s Summary) bool {
	sent := true
	body := FormatEmail(s)
	for _, to := range []string{s.Employer.Email, s.Nanny.Email} {
		msg := notify.Message{To: to, Subject: Subject(s), Body: body}
		if err := g.mailer.Send(ctx, msg); err != nil {
			g.logger.Error("failed to email weekly report", "to", to, "report_id", s.ReportID, "err", err)
			sent = false
		}
	}
	return sent
}

func buildSummary(employer, nanny models.Profile, week stats.Range, entries []models.TimeEntry) Summary {
	summary := Summary{
		Employer:  Party{Name: employer.FullName, Email: employer.Email},
		Nanny:     Party{Name: nanny.FullName, Email: nanny.Email},
		WeekStart: week.Start.Format(dateLayout),
		WeekEnd:   week.End.Format(dateLayout),
	}

	days := make(map[string]struct{})
	for _, e := range entries {
		minutes := 0
		if e.DurationMinutes != nil {
			minutes = *e.DurationMinutes
		}
		summary.TotalMinutes += minutes

		in := e.ClockIn.Local()
		days[timeclock.DateOf(in)] = struct{}{}

		line := Line{
			Date:     in.Format(dateLayout),
			ClockIn:  notify.FormatClock(in),
			Duration: notify.FormatDuration(minutes),
		}
		if e.ClockOut != nil {
			line.ClockOut = notify.FormatClock(*e.ClockOut)
		}
		summary.Entries = append(summary.Entries, line)
	}

	summary.DaysWorked = len(days)
	summary.TotalHours = notify.FormatDuration(summary.TotalMinutes)
	return summary
}

// Subject is the email subject of a weekly report
func Subject(s Summary) string {
	return fmt.Sprintf("Weekly summary - %s to %s", s.WeekStart, s.WeekEnd)
}

// FormatEmail renders a weekly report as plain text
func FormatEmail(s Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly summary for %s\n", displayName(s.Nanny))
	fmt.Fprintf(&b, "Week of %s to %s\n\n", s.WeekStart, s.WeekEnd)
	fmt.Fprintf(&b, "Total: %s over %d day(s)\n\n", s.TotalHours, s.DaysWorked)
	for _, line := range s.Entries {
		fmt.Fprintf(&b, "%s  %s - %s  %s\n", line.Date, line.ClockIn, line.ClockOut, line.Duration)
	}
	b.WriteString("\nNanny Hours Tracker")
	return b.String()
}

func displayName(p Party) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
