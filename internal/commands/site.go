package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/balkashynov/nannyclock/internal/geo"
	"github.com/balkashynov/nannyclock/internal/models"
)

var siteCmd = &cobra.Command{
	Use:   "site",
	Short: "Manage the work site clock-in is checked against",
	Long: `Show or change the work site. Clock-in only succeeds within the site's radius.

Examples:
  nannyclock site set "10 Rue de Rivoli, Paris" --radius 80
  nannyclock site here --lat 48.8566 --lon 2.3522
  nannyclock site show
  nannyclock site clear`,
	Args: cobra.NoArgs,
	RunE: runSiteShow,
}

var siteShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the work site",
	Args:  cobra.NoArgs,
	RunE:  runSiteShow,
}

var siteSetCmd = &cobra.Command{
	Use:   "set <address>",
	Short: "Geocode an address and use it as work site",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		address := strings.TrimSpace(strings.Join(args, " "))
		if address == "" {
			return fmt.Errorf("address cannot be empty")
		}

		radius, err := radiusFlag(cmd)
		if err != nil {
			return err
		}
		store, err := cli.openStore(ctx)
		if err != nil {
			return err
		}

		result, err := cli.geocoder().Lookup(ctx, address)
		if err != nil {
			return fmt.Errorf("could not locate %q: %w", address, err)
		}

		settings, err := store.SetWorkSite(ctx, workSite(result.DisplayName, result.Position, radius))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Work site set")
		printSite(cmd.OutOrStdout(), settings.WorkSite)
		return nil
	},
}

var siteHereCmd = &cobra.Command{
	Use:   "here",
	Short: "Use the current position as work site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		radius, err := radiusFlag(cmd)
		if err != nil {
			return err
		}
		src, err := cli.positionSource(cmd)
		if err != nil {
			return err
		}
		if src == nil {
			return fmt.Errorf("no position source configured (use --lat/--lon or NANNYCLOCK_FIX_FILE)")
		}
		store, err := cli.openStore(ctx)
		if err != nil {
			return err
		}

		pos, err := cli.locate(ctx, src)
		if err != nil {
			return fmt.Errorf("could not get the current position: %w", err)
		}

		address, _ := cmd.Flags().GetString("address")
		settings, err := store.SetWorkSite(ctx, workSite(address, pos, radius))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "✅ Work site set to the current position")
		printSite(cmd.OutOrStdout(), settings.WorkSite)
		return nil
	},
}

var siteClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the work site",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := cli.openStore(cmd.Context())
		if err != nil {
			return err
		}
		if _, err := store.ClearWorkSite(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Work site removed, clock-in is no longer geofenced")
		return nil
	},
}

func init() {
	siteSetCmd.Flags().Float64("radius", 0, "clock-in radius in meters (default from config)")
	siteHereCmd.Flags().Float64("radius", 0, "clock-in radius in meters (default from config)")
	siteHereCmd.Flags().String("address", "", "label to store with the position")
	addPositionFlags(siteHereCmd)

	siteCmd.AddCommand(siteShowCmd)
	siteCmd.AddCommand(siteSetCmd)
	siteCmd.AddCommand(siteHereCmd)
	siteCmd.AddCommand(siteClearCmd)
}

func runSiteShow(cmd *cobra.Command, args []string) error {
	store, err := cli.openStore(cmd.Context())
	if err != nil {
		return err
	}
	settings, err := store.Settings(cmd.Context())
	if err != nil {
		return err
	}
	printSite(cmd.OutOrStdout(), settings.WorkSite)
	return nil
}

func radiusFlag(cmd *cobra.Command) (float64, error) {
	radius, _ := cmd.Flags().GetFloat64("radius")
	if !cmd.Flags().Changed("radius") {
		return cli.cfg.Geo.RadiusMeters, nil
	}
	if radius <= 0 {
		return 0, fmt.Errorf("--radius must be positive")
	}
	return radius, nil
}

func workSite(address string, p geo.Position, radius float64) models.WorkSite {
	lat, lon := p.Latitude, p.Longitude
	return models.WorkSite{
		Address:      strings.TrimSpace(address),
		Latitude:     &lat,
		Longitude:    &lon,
		RadiusMeters: radius,
	}
}

func printSite(w io.Writer, site models.WorkSite) {
	if !site.IsSet() {
		fmt.Fprintln(w, "No work site set, clock-in is allowed anywhere")
		return
	}
	p := geo.Position{Latitude: *site.Latitude, Longitude: *site.Longitude}
	fmt.Fprintf(w, "📍 %s\n", siteLabel(site.Address, p))
	fmt.Fprintf(w, "   Radius: %.0f m\n", site.RadiusMeters)
}
