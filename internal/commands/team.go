package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/postgres"
	"github.com/balkashynov/nannyclock/internal/report"
	"github.com/balkashynov/nannyclock/internal/team"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Employers and nannies in the shared PostgreSQL database",
	Long: `Manage employer and nanny profiles stored in PostgreSQL (DATABASE_URL), clock
nannies in and out, and generate the weekly reports.

Examples:
  nannyclock team migrate
  nannyclock team profile add --email parent@example.com --name "Sam Doe" --role employer
  nannyclock team profile add --email anna@example.com --name Anna --role nanny
  nannyclock team link anna@example.com parent@example.com
  nannyclock team site anna@example.com "10 Rue de Rivoli, Paris"
  nannyclock team in anna@example.com --lat 48.8566 --lon 2.3522
  nannyclock team report --json`,
}

var teamMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pg, err := cli.openPostgres(cmd.Context())
		if err != nil {
			return err
		}
		if err := postgres.Migrate(pg); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Schema up to date")
		return nil
	},
}

var teamProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage profiles",
}

var teamProfileAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register an employer or a nanny",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		name, _ := cmd.Flags().GetString("name")
		role, _ := cmd.Flags().GetString("role")

		svc, err := teamService(cmd.Context())
		if err != nil {
			return err
		}
		p, err := svc.AddProfile(cmd.Context(), email, name, role)
		if errors.Is(err, postgres.ErrEmailTaken) {
			return fmt.Errorf("%s is already registered", email)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s %s registered (%s)\n", p.Role, p.Email, p.ID)
		return nil
	},
}

var teamLinkCmd = &cobra.Command{
	Use:   "link <nanny> <employer>",
	Short: "Link a nanny to an employer (by email or id)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := teamService(ctx)
		if err != nil {
			return err
		}
		err = cli.pg.WithTransaction(ctx, func(ctx context.Context) error {
			return svc.Link(ctx, args[0], args[1])
		})
		if err != nil {
			return describeTeamError(err, args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ %s now works for %s\n", args[0], args[1])
		return nil
	},
}

var teamSiteCmd = &cobra.Command{
	Use:   "site <nanny> [address]",
	Short: "Set a nanny's work site from an address or --lat/--lon",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		address := ""
		if len(args) == 2 {
			address = strings.TrimSpace(args[1])
		}

		var pos geo.Position
		if cmd.Flags().Changed("lat") || cmd.Flags().Changed("lon") {
			src, err := cli.positionSource(cmd)
			if err != nil {
				return err
			}
			if pos, err = cli.locate(ctx, src); err != nil {
				return err
			}
		} else {
			if address == "" {
				return fmt.Errorf("give an address or --lat/--lon")
			}
			result, err := cli.geocoder().Lookup(ctx, address)
			if err != nil {
				return fmt.Errorf("could not locate %q: %w", address, err)
			}
			pos, address = result.Position, result.DisplayName
		}

		svc, err := teamService(ctx)
		if err != nil {
			return err
		}
		if err := svc.SetWorkSite(ctx, args[0], address, pos); err != nil {
			return describeTeamError(err, args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✅ Work site of %s set to %s\n", args[0], siteLabel(address, pos))
		return nil
	},
}

var teamInCmd = &cobra.Command{
	Use:   "in <nanny>",
	Short: "Clock a nanny in at the work site",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := teamService(ctx)
		if err != nil {
			return err
		}
		store, nanny, err := svc.Store(ctx, args[0])
		if err != nil {
			return describeTeamError(err, args[0])
		}

		src, err := cli.positionSource(cmd)
		if err != nil {
			return err
		}
		target := team.WorkSite(nanny)
		if target != nil && src == nil {
			return errNoSource
		}
		fence := cli.monitor(src, target, cli.cfg.Geo.RadiusMeters)
		if fence != nil {
			stop := fence.Start(ctx)
			defer stop()
			cli.waitForFix(ctx, fence)
		}

		opts := []timeclock.Option{timeclock.RequireWorkSite(), timeclock.WithLogger(cli.logger)}
		if fence != nil {
			opts = append(opts, timeclock.WithGeofence(fence))
		}
		open, err := timeclock.New(store, opts...).ClockIn(ctx)
		if errors.Is(err, timeclock.ErrNoWorkSite) {
			return fmt.Errorf("%w. Set it with: nannyclock team site %s <address>", err, args[0])
		}
		if err != nil {
			return describeClockInError(err)
		}
		if open == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is already clocked in\n", nanny.Email)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🟢 %s clocked in at %s\n", nanny.Email, notify.FormatClock(open.ArrivalTime))
		return nil
	},
}

var teamOutCmd = &cobra.Command{
	Use:   "out <nanny>",
	Short: "Clock a nanny out",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := teamService(ctx)
		if err != nil {
			return err
		}
		store, nanny, err := svc.Store(ctx, args[0])
		if err != nil {
			return describeTeamError(err, args[0])
		}

		closed, err := timeclock.New(store, timeclock.WithLogger(cli.logger)).ClockOut(ctx)
		if err != nil {
			return err
		}
		if closed == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "%s is not clocked in\n", nanny.Email)
			return nil
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🔴 %s clocked out: %s\n", nanny.Email, notify.FormatDuration(closed.Duration))
		return nil
	},
}

var teamHistoryCmd = &cobra.Command{
	Use:   "history <nanny>",
	Short: "Show a nanny's latest sessions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		limit, _ := cmd.Flags().GetInt("limit")
		if limit <= 0 {
			return fmt.Errorf("--limit must be positive")
		}

		svc, err := teamService(ctx)
		if err != nil {
			return err
		}
		nanny, err := svc.Resolve(ctx, args[0])
		if err != nil {
			return describeTeamError(err, args[0])
		}

		pg, err := cli.openPostgres(ctx)
		if err != nil {
			return err
		}
		rows, err := postgres.NewEntryRepository(pg).ListByNanny(ctx, nanny.ID, limit)
		if err != nil {
			return err
		}
		printTeamHistory(cmd.OutOrStdout(), rows)
		return nil
	},
}

var teamReportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate and store this week's report of every linked pair",
	Long: `Generate this week's report of every employer/nanny pair with completed sessions.
Reports are stored, and emailed to both parties when SMTP is configured.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		pg, err := cli.openPostgres(cmd.Context())
		if err != nil {
			return err
		}
		summaries, err := cli.reportGenerator(pg).Generate(cmd.Context())
		if err != nil {
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summaries)
		}
		printReports(cmd.OutOrStdout(), summaries)
		return nil
	},
}

var teamReportsCmd = &cobra.Command{
	Use:   "reports <employer>",
	Short: "List the stored weekly reports of an employer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		svc, err := teamService(ctx)
		if err != nil {
			return err
		}
		employer, err := svc.Resolve(ctx, args[0])
		if err != nil {
			return describeTeamError(err, args[0])
		}
		if employer.Role != models.RoleEmployer {
			return fmt.Errorf("%s is %s, not employer", employer.Email, employer.Role)
		}

		rows, err := postgres.NewReportRepository(cli.pg).ListByEmployer(ctx, employer.ID)
		if err != nil {
			return err
		}
		printStoredReports(cmd.OutOrStdout(), rows)
		return nil
	},
}

func init() {
	teamProfileAddCmd.Flags().String("email", "", "profile email (required)")
	teamProfileAddCmd.Flags().String("name", "", "full name")
	teamProfileAddCmd.Flags().String("role", "", "employer|nanny (required)")
	teamProfileAddCmd.MarkFlagRequired("email")
	teamProfileAddCmd.MarkFlagRequired("role")
	teamProfileCmd.AddCommand(teamProfileAddCmd)

	addPositionFlags(teamSiteCmd)
	addPositionFlags(teamInCmd)
	teamHistoryCmd.Flags().Int("limit", 20, "number of sessions")
	teamReportCmd.Flags().Bool("json", false, "JSON output")

	teamCmd.AddCommand(teamMigrateCmd)
	teamCmd.AddCommand(teamProfileCmd)
	teamCmd.AddCommand(teamLinkCmd)
	teamCmd.AddCommand(teamSiteCmd)
	teamCmd.AddCommand(teamInCmd)
	teamCmd.AddCommand(teamOutCmd)
	teamCmd.AddCommand(teamHistoryCmd)
	teamCmd.AddCommand(teamReportCmd)
	teamCmd.AddCommand(teamReportsCmd)
}

func teamService(ctx context.Context) (*team.Service, error) {
	pg, err := cli.openPostgres(ctx)
	if err != nil {
		return nil, err
	}
	entries := postgres.NewEntryRepository(pg)
	stores := func(nannyID, employerID uuid.UUID) timeclock.Store {
		return postgres.NewNannyStore(entries, nannyID, employerID)
	}
	return team.NewService(postgres.NewProfileRepository(pg), stores, cli.logger), nil
}

func describeTeamError(err error, ref string) error {
	switch {
	case errors.Is(err, postgres.ErrNotFound):
		return fmt.Errorf("no profile found for %q", ref)
	case errors.Is(err, team.ErrNotLinked):
		return fmt.Errorf("%w. Link it first with: nannyclock team link %s <employer>", err, ref)
	}
	return err
}

func printTeamHistory(w io.Writer, rows []models.TimeEntry) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No sessions yet")
		return
	}
	for _, row := range rows {
		if row.ClockOut == nil {
			in := row.ClockIn.Local()
			fmt.Fprintf(w, "%s  %s - ...    running\n", in.Format("02/01/2006"), notify.FormatClock(in))
			continue
		}
		s := postgres.EntryToClosed(row)
		fmt.Fprintf(w, "%s  %s - %s  %s\n",
			s.ArrivalTime.Format("02/01/2006"),
			notify.FormatClock(s.ArrivalTime),
			notify.FormatClock(s.DepartureTime),
			notify.FormatDuration(s.Duration))
	}
}

func printReports(w io.Writer, summaries []report.Summary) {
	if len(summaries) == 0 {
		fmt.Fprintln(w, "No completed sessions this week, no report generated")
		return
	}
	for _, s := range summaries {
		status := "stored"
		if s.Emailed {
			status = "emailed"
		}
		fmt.Fprintf(w, "%s → %s: %s over %d day(s), %s\n",
			s.Nanny.Email, s.Employer.Email, s.TotalHours, s.DaysWorked, status)
	}
	fmt.Fprintf(w, "\n%d report(s) for %s - %s\n", len(summaries), summaries[0].WeekStart, summaries[0].WeekEnd)
}

func printStoredReports(w io.Writer, rows []models.WeeklyReport) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No reports stored yet")
		return
	}
	for _, row := range rows {
		sent := "not sent"
		if row.SentAt != nil {
			sent = "sent " + row.SentAt.Local().Format("02/01/2006 15:04")
		}
		fmt.Fprintf(w, "%s - %s  %dh %02dmin  %s\n",
			row.WeekStart.Format("02/01/2006"),
			row.WeekEnd.Format("02/01/2006"),
			row.TotalHours, row.TotalMinutes, sent)
	}
}
