package commands

import (
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/querydesk/querydesk/internal/app"
)

func newReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Build and mail the Target Vs Achievement report",
	}

	cmd.AddCommand(newReportRunCmd(), newReportScheduleCmd())

	return cmd
}

type reportRunOptions struct {
	preview bool
}

func newReportRunCmd() *cobra.Command {
	opts := &reportRunOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the report once and mail it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := loadApp(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Job == nil {
				return app.ErrReportsDisabled
			}
			if opts.preview {
				shaped, err := a.Job.Build(cmd.Context())
				if err != nil {
					return err
				}
				return printTable(cmd.OutOrStdout(), shaped.Table)
			}
			return a.Job.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&opts.preview, "preview", false, "Print the report instead of mailing it")

	return cmd
}

func newReportScheduleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schedule",
		Short: "Mail the report on REPORT_SCHEDULE until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := loadApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.StartScheduler(); err != nil {
				return err
			}
			<-ctx.Done()
			log.Info().Msg("shutting down scheduler")
			return nil
		},
	}
}
