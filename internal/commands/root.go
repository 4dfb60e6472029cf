// Package commands contains the querydesk CLI command definitions.
package commands

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/querydesk/querydesk/internal/app"
	"github.com/querydesk/querydesk/internal/config"
)

type rootOptions struct {
	logLevel string
	pretty   bool
}

// NewRootCmd creates and returns the root command for the CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:           "querydesk",
		Short:         "Ask the sales database questions in plain language",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			setupLogging(cmd.ErrOrStderr(), opts.level(os.Getenv("QUERYDESK_LOG_LEVEL")), opts.pretty)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error); overrides QUERYDESK_LOG_LEVEL")
	rootCmd.PersistentFlags().BoolVar(&opts.pretty, "pretty", false, "Human-readable console logs")

	rootCmd.AddCommand(
		newServeCmd(),
		newAskCmd(),
		newSchemaCmd(),
		newReportCmd(),
	)

	return rootCmd
}

// level prefers the --log-level flag over fallback.
func (o *rootOptions) level(fallback string) string {
	if o.logLevel != "" {
		return o.logLevel
	}
	return fallback
}

func setupLogging(w io.Writer, level string, pretty bool) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339

	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// loadApp loads configuration, re-applies logging from it and wires the
// components every command uses.
func loadApp(ctx context.Context, cmd *cobra.Command) (*app.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := cfg.LogLevel
	if f := cmd.Flag("log-level"); f != nil && f.Value.String() != "" {
		level = f.Value.String()
	}
	pretty := cfg.IsDevelopment()
	if f := cmd.Flag("pretty"); f != nil && f.Changed {
		pretty = f.Value.String() == "true"
	}
	setupLogging(cmd.ErrOrStderr(), level, pretty)

	return app.New(ctx, cfg)
}
