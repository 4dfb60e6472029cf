package commands

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/querydesk/querydesk/internal/server"
)

type serveOptions struct {
	withScheduler bool
}

func newServeCmd() *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and dashboard",
		Long: `Run the JSON API under /api/v1, the dashboard under /ui and the Prometheus
metrics endpoint. With --scheduler (or ENABLE_SCHEDULER=true) the Target Vs
Achievement report is mailed on REPORT_SCHEDULE from the same process.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer func() {
				if err := a.Close(); err != nil {
					log.Warn().Err(err).Msg("close")
				}
			}()

			if err := a.DB.TestConnection(ctx); err != nil {
				log.Warn().Err(err).Msg("database unreachable at startup")
			}

			if opts.withScheduler || a.Config.EnableScheduler {
				if err := a.StartScheduler(); err != nil {
					return err
				}
			}

			return server.New(a).Run(ctx)
		},
	}

	cmd.Flags().BoolVar(&opts.withScheduler, "scheduler", false, "Also run the scheduled report")

	return cmd
}
