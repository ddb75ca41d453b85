package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/balkashynov/nannyclock/internal/postgres"
	"github.com/balkashynov/nannyclock/internal/scheduler"
	"github.com/balkashynov/nannyclock/internal/server"
)

const reportCheckInterval = time.Hour

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the weekly report HTTP endpoint",
	Long: `Serve POST /api/send-report, which generates this week's reports when called
with "Authorization: Bearer $CRON_SECRET". GET /api/send-report is a health check.

With --schedule-reports the reports are also generated every Friday from 18:00,
so no external cron is needed.

Examples:
  CRON_SECRET=s3cret DATABASE_URL=postgres://... nannyclock serve
  nannyclock serve --migrate --schedule-reports`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.cfg.ValidateServer(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		pg, err := cli.openPostgres(ctx)
		if err != nil {
			return err
		}
		if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
			if err := postgres.Migrate(pg); err != nil {
				return err
			}
			cli.logger.Info("database migrated")
		}

		generator := cli.reportGenerator(pg)
		router := server.NewRouter(server.RouterConfig{
			CronSecret:     cli.cfg.Server.CronSecret,
			AllowedOrigins: cli.cfg.Server.AllowedOrigins,
			Logger:         cli.logger,
		}, server.NewReportHandler(generator, cli.logger))

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Run(gctx, cli.cfg.Addr(), router, cli.logger)
		})

		if schedule, _ := cmd.Flags().GetBool("schedule-reports"); schedule {
			jobs := scheduler.New(cli.logger)
			weekly := scheduler.FridayEvening(time.Now)
			jobs.AddJob("weekly-reports", reportCheckInterval, weekly.Wrap(func(ctx context.Context) error {
				_, err := generator.Generate(ctx)
				return err
			}))

			g.Go(func() error {
				jobs.Start(gctx)
				<-gctx.Done()
				jobs.Stop()
				return nil
			})
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Listening on %s\n", cli.cfg.Addr())
		return g.Wait()
	},
}

func init() {
	serveCmd.Flags().Bool("migrate", false, "apply the database schema before serving")
	serveCmd.Flags().Bool("schedule-reports", false, "generate the weekly reports every Friday evening")
}
