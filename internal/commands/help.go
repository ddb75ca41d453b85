package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var helpCmd = &cobra.Command{
	Use:   "help",
	Short: "Show comprehensive help for nannyclock",
	Long:  `Display detailed help for all nannyclock commands and flags.`,
	Run: func(cmd *cobra.Command, args []string) {
		showCustomHelp(cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nannyclock %s (commit %s, built %s)\n", version, commit, date)
	},
}

func showCustomHelp(w io.Writer) {
	fmt.Fprint(w, `
███╗   ██╗ ██████╗██╗      ██████╗  ██████╗██╗  ██╗
████╗  ██║██╔════╝██║     ██╔═══██╗██╔════╝██║ ██╔╝
██╔██╗ ██║██║     ██║     ██║   ██║██║     █████╔╝
██║╚██╗██║██║     ██║     ██║   ██║██║     ██╔═██╗
██║ ╚████║╚██████╗███████╗╚██████╔╝╚██████╗██║  ██╗
╚═╝  ╚═══╝ ╚═════╝╚══════╝ ╚═════╝  ╚═════╝╚═╝  ╚═╝

nannyclock - Geofenced time clock for caregivers

COMMANDS:

  in                      Clock in and open the live clock
    --lat, --lon          Current position (overrides the fix file)
    --no-ui               Clock in without the live clock

    Live clock keys:
      i             Clock in
      o             Clock out
      q/esc         Quit (the session keeps running)

  out                     Clock out and send the session summary
  status                  Show the running session and today's total
    --lat, --lon          Also show the distance to the work site

  history                 Browse past sessions grouped by day
    --from, --to          Date range (dd/mm/yyyy, yyyy-mm-dd, "last week", ...)
    --no-ui               Plain text output

    Quick actions:
      ↑/↓ j/k       Navigate sessions
      h/l           Previous/next page
      d             Delete session
      esc/q         Quit
  history rm <id>         Delete one session

  stats                   This week's total, daily breakdown and goal
    --at                  Any day of the week to show
  stats month             Totals of one calendar month
  stats trend             Weekly totals of the last weeks
    --weeks               Number of weeks

  site set <address>      Geocode an address and use it as work site
    --radius              Clock-in radius in meters
  site here               Use the current position as work site
  site show               Show the work site
  site clear              Remove the work site

  settings                Show the notification settings
  settings set            Change settings from the command line
    --name, --phone, --email, --method
  settings edit           Edit settings in the interactive form

  team migrate            Apply the PostgreSQL schema
  team profile add        Register an employer or nanny
  team link <n> <e>       Link a nanny to an employer
  team site <nanny>       Set a nanny's work site
  team in <nanny>         Clock a nanny in
  team out <nanny>        Clock a nanny out
  team history <nanny>    Show a nanny's latest sessions
  team report             Generate this week's reports
    --json                JSON output
  team reports <employer> List an employer's stored reports

  serve                   Run the report HTTP endpoint
    --schedule-reports    Also generate reports every Friday evening

  version                 Print version information
  help                    Show this help

Configuration lives in ~/.nannyclock/config.yaml; environment variables and a
.env file in the working directory override it.

`)
}
