package commands

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/parser"
	"github.com/balkashynov/nannyclock/internal/stats"
	"github.com/balkashynov/nannyclock/internal/timeclock"
	"github.com/balkashynov/nannyclock/internal/tui"
)

var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"ls"},
	Short:   "List past sessions grouped by day",
	Long: `List sessions grouped by day, newest first. Opens an interactive browser by
default (d deletes the selected session); --no-ui prints a plain list.

Examples:
  nannyclock history
  nannyclock history --no-ui --from "2 weeks ago"
  nannyclock history --no-ui --from 01/03/2025 --to 31/03/2025`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := cli.openStore(ctx)
		if err != nil {
			return err
		}

		noUI, _ := cmd.Flags().GetBool("no-ui")
		from, _ := cmd.Flags().GetString("from")
		to, _ := cmd.Flags().GetString("to")
		if !noUI && from == "" && to == "" {
			return tui.RunHistory(ctx, store)
		}

		var entries []timeclock.Entry
		if from == "" && to == "" {
			entries, err = store.ListSessions(ctx)
		} else {
			r, rangeErr := historyRange(from, to, time.Now())
			if rangeErr != nil {
				return rangeErr
			}
			entries, err = store.SessionsInRange(ctx, r.StartDate(), r.EndDate())
		}
		if err != nil {
			return err
		}

		printHistory(cmd.OutOrStdout(), entries, time.Now())
		return nil
	},
}

var historyRmCmd = &cobra.Command{
	Use:     "rm <session-id>",
	Aliases: []string{"delete"},
	Short:   "Delete a completed session",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := cli.openStore(ctx)
		if err != nil {
			return err
		}

		switch err := store.DeleteSession(ctx, args[0]); {
		case errors.Is(err, timeclock.ErrSessionOpen):
			return fmt.Errorf("session %s is still running, clock out first", args[0])
		case errors.Is(err, timeclock.ErrSessionNotFound):
			return fmt.Errorf("session %s not found", args[0])
		case err != nil:
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "🗑️  Deleted session #%s\n", args[0])
		return nil
	},
}

func init() {
	historyCmd.Flags().Bool("no-ui", false, "print a plain list")
	historyCmd.Flags().String("from", "", "first day (dd/mm/yyyy, yyyy-mm-dd, \"2 weeks ago\", ...)")
	historyCmd.Flags().String("to", "", "last day (default today)")
	historyCmd.AddCommand(historyRmCmd)
}

// historyRange resolves --from/--to; a missing bound is open (from) or today (to)
func historyRange(from, to string, now time.Time) (stats.Range, error) {
	r := stats.Range{Start: time.Date(2000, 1, 1, 0, 0, 0, 0, now.Location()), End: now}
	if from != "" {
		start, err := parser.ParseReferenceDate(from, now)
		if err != nil {
			return r, fmt.Errorf("--from: %w", err)
		}
		r.Start = start
	}
	if to != "" {
		end, err := parser.ParseReferenceDate(to, now)
		if err != nil {
			return r, fmt.Errorf("--to: %w", err)
		}
		r.End = end
	}
	if r.StartDate() > r.EndDate() {
		return r, fmt.Errorf("--from is after --to")
	}
	return r, nil
}

func printHistory(w io.Writer, entries []timeclock.Entry, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No sessions found. Use 'nannyclock in' to start one.")
		return
	}

	for i, group := range stats.GroupByDate(entries) {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "%s · %s\n", parser.FormatDay(group.Date, now), notify.FormatDuration(group.TotalMinutes))
		for _, e := range group.Entries {
			switch s := e.(type) {
			case timeclock.ClosedSession:
				fmt.Fprintf(w, "  #%-5s %s - %s  %s\n", s.ID, notify.FormatClock(s.ArrivalTime), notify.FormatClock(s.DepartureTime), notify.FormatDuration(s.Duration))
			case timeclock.OpenSession:
				fmt.Fprintf(w, "  #%-5s %s - ...    running\n", s.ID, notify.FormatClock(s.ArrivalTime))
			}
		}
	}
}
