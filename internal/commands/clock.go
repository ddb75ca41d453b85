package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/stats"
	"github.com/balkashynov/nannyclock/internal/timeclock"
	"github.com/balkashynov/nannyclock/internal/tui"
)

var errNoSource = fmt.Errorf("%w: a work site is set but no position source is configured (use --lat/--lon or NANNYCLOCK_FIX_FILE)", timeclock.ErrNoPositionFix)

var inCmd = &cobra.Command{
	Use:   "in",
	Short: "Clock in",
	Long: `Start a work session. When a work site is set, clock-in only succeeds within
its radius. Opens the live clock by default, use --no-ui to just clock in.

Examples:
  nannyclock in                              # position from the fix file
  nannyclock in --lat 48.8566 --lon 2.3522   # position given explicitly
  nannyclock in --no-ui`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := cli.openStore(ctx)
		if err != nil {
			return err
		}
		settings, err := store.Settings(ctx)
		if err != nil {
			return err
		}
		src, err := cli.positionSource(cmd)
		if err != nil {
			return err
		}

		target := siteTarget(settings)
		if target != nil && src == nil {
			return errNoSource
		}
		fence := cli.monitor(src, target, settings.WorkSite.RadiusMeters)
		if fence != nil {
			stop := fence.Start(ctx)
			defer stop()
			cli.waitForFix(ctx, fence)
		}

		timer := cli.timer(store, fence)
		open, err := timer.ClockIn(ctx)
		if err != nil {
			return describeClockInError(err)
		}

		out := cmd.OutOrStdout()
		if open == nil {
			fmt.Fprintln(out, "Already clocked in.")
		} else {
			fmt.Fprintf(out, "⏱️  Clocked in at %s\n", notify.FormatClock(open.ArrivalTime))
		}

		if noUI, _ := cmd.Flags().GetBool("no-ui"); noUI {
			return nil
		}
		return tui.RunClock(ctx, timer, fence, store.Subscribe)
	},
}

var outCmd = &cobra.Command{
	Use:   "out",
	Short: "Clock out and send the session summary",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := cli.openStore(ctx)
		if err != nil {
			return err
		}

		closed, err := cli.timer(store, nil).ClockOut(ctx)
		out := cmd.OutOrStdout()
		if closed == nil {
			if err != nil {
				return err
			}
			fmt.Fprintln(out, "Not clocked in.")
			return nil
		}

		printClosed(out, *closed)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  Summary not sent: %v\n", err)
		}
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the current session and today's total",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := cli.openStore(ctx)
		if err != nil {
			return err
		}
		settings, err := store.Settings(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		_, open, err := cli.timer(store, nil).State(ctx)
		if err != nil {
			return err
		}
		today := timeclock.DateOf(now)
		closed, err := store.ClosedSessionsInRange(ctx, today, today)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		printStatus(out, open, stats.Summarize(closed, stats.Range{Start: now, End: now}), now)

		target := siteTarget(settings)
		if target == nil {
			fmt.Fprintln(out, "Work site: not set")
			return nil
		}
		src, err := cli.positionSource(cmd)
		if err != nil {
			return err
		}
		if src == nil {
			fmt.Fprintf(out, "Work site: %s (no position source)\n", siteLabel(settings.WorkSite.Address, *target))
			return nil
		}
		pos, err := cli.locate(ctx, src)
		if err != nil {
			fmt.Fprintf(out, "Work site: %s (position unavailable: %v)\n", siteLabel(settings.WorkSite.Address, *target), err)
			return nil
		}
		printDistance(out, target.DistanceTo(pos), settings.WorkSite.RadiusMeters)
		return nil
	},
}

func init() {
	inCmd.Flags().Bool("no-ui", false, "clock in without the live clock")
	addPositionFlags(inCmd)
	addPositionFlags(statusCmd)
}

func printStatus(w io.Writer, open *timeclock.OpenSession, today stats.Summary, now time.Time) {
	if open == nil {
		fmt.Fprintln(w, "Not clocked in")
	} else {
		elapsed := timeclock.DurationMinutes(open.ArrivalTime, now)
		fmt.Fprintf(w, "⏱️  Clocked in since %s (%s)\n", notify.FormatClock(open.ArrivalTime), notify.FormatDuration(elapsed))
	}
	fmt.Fprintf(w, "Today: %s in %d session(s)\n", notify.FormatDuration(today.TotalMinutes), today.Sessions)
}

func printClosed(w io.Writer, s timeclock.ClosedSession) {
	fmt.Fprintf(w, "⏹️  Clocked out at %s\n", notify.FormatClock(s.DepartureTime))
	fmt.Fprintf(w, "Session: %s - %s, %s\n",
		notify.FormatClock(s.ArrivalTime),
		notify.FormatClock(s.DepartureTime),
		notify.FormatDuration(s.Duration))
}

func printDistance(w io.Writer, distance, radius float64) {
	if distance <= radius {
		fmt.Fprintf(w, "✅ At the work site (%.0f m, limit %.0f m)\n", distance, radius)
		return
	}
	fmt.Fprintf(w, "📍 %.0f m from the work site (limit %.0f m)\n", distance, radius)
}

// describeClockInError adds a hint to the geofence errors
func describeClockInError(err error) error {
	var outside *timeclock.OutsideWorkSiteError
	switch {
	case errors.As(err, &outside):
		return fmt.Errorf("%w. Move closer to the work site and try again", err)
	case errors.Is(err, timeclock.ErrNoPositionFix):
		return fmt.Errorf("%w. Check the position source and try again", err)
	}
	return err
}

func siteLabel(address string, p geo.Position) string {
	if address == "" {
		return p.String()
	}
	return fmt.Sprintf("%s (%s)", address, p)
}
