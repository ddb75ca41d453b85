package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/nannyclock/internal/models"
	"github.com/balkashynov/nannyclock/internal/notify"
	"github.com/balkashynov/nannyclock/internal/timeclock"
	"github.com/balkashynov/nannyclock/internal/tui"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change who receives the session summaries",
	Long: `Show or change your name, the recipient's phone number and email, and whether
session summaries go out by SMS or email.

Examples:
  nannyclock settings
  nannyclock settings set --name Anna --email family@example.com --method email
  nannyclock settings edit`,
	Args: cobra.NoArgs,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the settings",
	Args:  cobra.NoArgs,
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change settings from the command line",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("name") && !flags.Changed("phone") && !flags.Changed("email") && !flags.Changed("method") {
			return fmt.Errorf("nothing to change: use --name, --phone, --email or --method")
		}

		store, err := cli.openStore(cmd.Context())
		if err != nil {
			return err
		}

		settings, err := store.UpdateSettings(cmd.Context(), func(s *models.Settings) {
			if flags.Changed("name") {
				s.UserName, _ = flags.GetString("name")
			}
			if flags.Changed("phone") {
				s.RecipientPhone, _ = flags.GetString("phone")
			}
			if flags.Changed("email") {
				s.RecipientEmail, _ = flags.GetString("email")
			}
			if flags.Changed("method") {
				s.SendMethod, _ = flags.GetString("method")
			}
			s.UserName = strings.TrimSpace(s.UserName)
			s.RecipientPhone = strings.TrimSpace(s.RecipientPhone)
			s.RecipientEmail = strings.TrimSpace(s.RecipientEmail)
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "✅ Settings saved")
		printSettings(cmd.OutOrStdout(), settings)
		return nil
	},
}

var settingsEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit settings in the interactive form",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cli.openStore(cmd.Context())
		if err != nil {
			return err
		}
		current, err := store.Settings(cmd.Context())
		if err != nil {
			return err
		}

		saved, err := tui.RunSettings(cmd.Context(), store, current)
		if err != nil {
			return err
		}
		if saved {
			fmt.Fprintln(cmd.OutOrStdout(), "✅ Settings saved")
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No changes saved")
		}
		return nil
	},
}

func init() {
	settingsSetCmd.Flags().String("name", "", "your name, used in the summaries")
	settingsSetCmd.Flags().String("phone", "", "recipient phone number for SMS")
	settingsSetCmd.Flags().String("email", "", "recipient email address")
	settingsSetCmd.Flags().String("method", "", "send method: sms|email")

	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsEditCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	store, err := cli.openStore(cmd.Context())
	if err != nil {
		return err
	}
	settings, err := store.Settings(cmd.Context())
	if err != nil {
		return err
	}
	printSettings(cmd.OutOrStdout(), settings)
	return nil
}

func printSettings(w io.Writer, s models.Settings) {
	fmt.Fprintf(w, "Name:         %s\n", orDash(s.UserName))
	fmt.Fprintf(w, "Phone:        %s\n", orDash(s.RecipientPhone))
	fmt.Fprintf(w, "Email:        %s\n", orDash(s.RecipientEmail))
	fmt.Fprintf(w, "Send method:  %s\n", s.SendMethod)

	// an empty session is enough to check the destination
	if _, _, err := notify.BuildMessage(s, timeclock.ClosedSession{}); err != nil {
		fmt.Fprintf(w, "⚠️  %v\n", err)
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
