package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/parser"
	"github.com/balkashynov/nannyclock/internal/stats"
	"github.com/balkashynov/nannyclock/internal/timeclock"
)

const barWidth = 24

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show weekly statistics (see also: stats month, stats trend)",
	Long: `Show worked hours for the current week with a daily breakdown and the
progress towards the weekly goal.

Examples:
  nannyclock stats
  nannyclock stats --at "last week"
  nannyclock stats month --at 15/01/2025
  nannyclock stats trend --weeks 8`,
	Args: cobra.NoArgs,
	RunE: runWeekStats,
}

var statsWeekCmd = &cobra.Command{
	Use:   "week",
	Short: "Show the statistics of one week",
	Args:  cobra.NoArgs,
	RunE:  runWeekStats,
}

var statsMonthCmd = &cobra.Command{
	Use:   "month",
	Short: "Show the statistics of one calendar month",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		at, err := referenceDate(cmd)
		if err != nil {
			return err
		}
		r := stats.MonthRange(at)
		sessions, err := closedIn(cmd, r)
		if err != nil {
			return err
		}
		printMonth(cmd.OutOrStdout(), sessions, r)
		return nil
	},
}

var statsTrendCmd = &cobra.Command{
	Use:   "trend",
	Short: "Show the weekly totals of the last weeks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		weeks, _ := cmd.Flags().GetInt("weeks")
		if weeks <= 0 {
			weeks = cli.cfg.Stats.TrendWeeks
		}
		if weeks > 52 {
			return fmt.Errorf("--weeks must be between 1 and 52")
		}
		at, err := referenceDate(cmd)
		if err != nil {
			return err
		}

		r := stats.Range{
			Start: stats.WeekStart(at).AddDate(0, 0, -7*(weeks-1)),
			End:   stats.WeekRange(at).End,
		}
		sessions, err := closedIn(cmd, r)
		if err != nil {
			return err
		}
		printTrend(cmd.OutOrStdout(), stats.WeeklyTotals(sessions, weeks, at), cli.cfg.Stats.WeeklyGoalHours)
		return nil
	},
}

func init() {
	for _, c := range []*cobra.Command{statsCmd, statsWeekCmd, statsMonthCmd, statsTrendCmd} {
		c.Flags().String("at", "", "reference day (dd/mm/yyyy, yyyy-mm-dd, \"last week\", \"2 weeks ago\", ...)")
	}
	statsTrendCmd.Flags().Int("weeks", 0, "number of weeks (default from config)")

	statsCmd.AddCommand(statsWeekCmd)
	statsCmd.AddCommand(statsMonthCmd)
	statsCmd.AddCommand(statsTrendCmd)
}

func runWeekStats(cmd *cobra.Command, args []string) error {
	at, err := referenceDate(cmd)
	if err != nil {
		return err
	}
	r := stats.WeekRange(at)
	sessions, err := closedIn(cmd, r)
	if err != nil {
		return err
	}
	printWeek(cmd.OutOrStdout(), sessions, r, cli.cfg.Stats.WeeklyGoalHours)
	return nil
}

func referenceDate(cmd *cobra.Command) (time.Time, error) {
	at, _ := cmd.Flags().GetString("at")
	t, err := parser.ParseReferenceDate(at, time.Now())
	if err != nil {
		return t, fmt.Errorf("--at: %w", err)
	}
	return t, nil
}

func closedIn(cmd *cobra.Command, r stats.Range) ([]timeclock.ClosedSession, error) {
	store, err := cli.openStore(cmd.Context())
	if err != nil {
		return nil, err
	}
	return store.ClosedSessionsInRange(cmd.Context(), r.StartDate(), r.EndDate())
}

func printSummary(w io.Writer, s stats.Summary) {
	fmt.Fprintf(w, "Total: %s in %d session(s) over %d day(s)\n", notify.FormatDuration(s.TotalMinutes), s.Sessions, s.DaysWorked)
	fmt.Fprintf(w, "Average per day: %s\n", notify.FormatDuration(s.AveragePerDayMinutes))
}

func printWeek(w io.Writer, sessions []timeclock.ClosedSession, r stats.Range, goalHours float64) {
	summary := stats.Summarize(sessions, r)

	fmt.Fprintf(w, "Week %d · %s - %s\n", stats.ISOWeek(r.Start), r.Start.Format("02/01/2006"), r.End.Format("02/01/2006"))
	printSummary(w, summary)

	progress := stats.GoalProgress(summary.TotalMinutes, goalHours)
	fmt.Fprintf(w, "Goal: %s %.0f%% of %gh", bar(progress, 100), progress, goalHours)
	if left := stats.RemainingMinutes(summary.TotalMinutes, goalHours); left > 0 {
		fmt.Fprintf(w, " · %s to go\n", notify.FormatDuration(left))
	} else {
		fmt.Fprintln(w, " · reached")
	}

	days := stats.DailyTotals(sessions, r)
	maxMinutes := 0
	for _, d := range days {
		maxMinutes = max(maxMinutes, d.Minutes)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%-10s  %9s\n", "Day", "Worked")
	fmt.Fprintln(w, strings.Repeat("-", 10+2+9+2+barWidth))
	for _, d := range days {
		worked := "-"
		if d.Minutes > 0 {
			worked = notify.FormatDuration(d.Minutes)
		}
		fmt.Fprintf(w, "%-10s  %9s  %s\n", d.Date.Format("Mon 02/01"), worked, bar(float64(d.Minutes), float64(maxMinutes)))
	}
}

func printMonth(w io.Writer, sessions []timeclock.ClosedSession, r stats.Range) {
	summary := stats.Summarize(sessions, r)

	fmt.Fprintf(w, "%s\n", r.Start.Format("January 2006"))
	printSummary(w, summary)
	if summary.Sessions == 0 {
		return
	}

	fmt.Fprintln(w)
	for _, d := range stats.DailyTotals(sessions, r) {
		if d.Minutes == 0 {
			continue
		}
		fmt.Fprintf(w, "%-10s  %9s\n", d.Date.Format("Mon 02/01"), notify.FormatDuration(d.Minutes))
	}
}

func printTrend(w io.Writer, weeks []stats.WeekTotal, goalHours float64) {
	maxMinutes := int(goalHours * 60)
	for _, wk := range weeks {
		maxMinutes = max(maxMinutes, wk.Minutes)
	}

	fmt.Fprintf(w, "%-8s  %-11s  %7s\n", "Week", "Starting", "Hours")
	fmt.Fprintln(w, strings.Repeat("-", 8+2+11+2+7+2+barWidth))
	for _, wk := range weeks {
		fmt.Fprintf(w, "W%-7d  %-11s  %7.1f  %s\n",
			wk.ISOWeek,
			wk.Range.Start.Format("02/01/2006"),
			float64(wk.Minutes)/60,
			bar(float64(wk.Minutes), float64(maxMinutes)))
	}
}

// bar renders value/total as a fixed-width block bar
func bar(value, total float64) string {
	filled := 0
	if total > 0 {
		filled = int(value / total * barWidth)
	}
	filled = min(max(filled, 0), barWidth)
	return strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
}
