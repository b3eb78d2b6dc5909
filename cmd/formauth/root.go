package main

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/99minutos/formauth/internal/app"
	"github.com/99minutos/formauth/internal/pkg/config"
	"github.com/99minutos/formauth/pkg/logger"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "formauth",
		Short: "Local sign-in, session and user registry for the forms application",
		Long: `formauth keeps the user registry and the single local session of the forms
application. Configuration is read from the environment.

	formauth serve
	formauth users list`,
		SilenceUsage: true,
	}

	root.AddCommand(newServeCmd(), newUsersCmd())
	return root
}

// setup loads configuration, initialises the logger and opens the app.
func setup(ctx context.Context) (*app.App, zerolog.Logger, error) {
	cfg, err := config.Load(ctx)
	if err != nil {
		return nil, zerolog.Nop(), err
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.LogPretty || cfg.IsDevelopment(),
	})

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		return nil, log, err
	}
	return a, log, nil
}
