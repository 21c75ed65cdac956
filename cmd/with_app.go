package cmd

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"bridgee/internal/bootstrap"
	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
)

const fxTimeout = 10 * time.Second

func withApp(run func(cmd *cobra.Command, app *bootstrap.App) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		return runApp(cmd, func(app *bootstrap.App) error { return run(cmd, app) })
	}
}

// withService is withApp plus one more fx-provided dependency that only some
// commands need, such as the intake service with its chat notifier.
func withService[T any](run func(cmd *cobra.Command, app *bootstrap.App, svc T) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		var svc T
		return runApp(cmd, func(app *bootstrap.App) error { return run(cmd, app, svc) }, &svc)
	}
}

func runApp(cmd *cobra.Command, run func(app *bootstrap.App) error, targets ...any) error {
	ctx := logging.WithAttrs(
		cmd.Context(),
		slog.String("command", cmd.CommandPath()),
		slog.String("config_file", cfgFile),
	)

	var app *bootstrap.App
	fxApp := fx.New(
		bootstrap.Module,
		fx.NopLogger,
		fx.Provide(func() context.Context { return ctx }),
		fx.Provide(
			fx.Annotate(
				func() string { return cfgFile },
				fx.ResultTags(`name:"configFile"`),
			),
		),
		fx.Populate(append([]any{&app}, targets...)...),
	)

	startCtx, cancelStart := context.WithTimeout(ctx, fxTimeout)
	defer cancelStart()
	if err := fxApp.Start(startCtx); err != nil {
		logging.Error(ctx, "bootstrap application failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "start fx application")
	}

	defer func() {
		stopCtx, cancelStop := context.WithTimeout(context.Background(), fxTimeout)
		defer cancelStop()
		if err := fxApp.Stop(stopCtx); err != nil {
			logging.Error(ctx, "fx application stop failed", slog.Any("err", errs.Loggable(err)))
		}
	}()

	logger := logging.New(cmd.ErrOrStderr(), app.Config.Log.Level)
	cmd.SetContext(logging.WithLogger(cmd.Context(), logger))

	if err := run(app); err != nil {
		return errs.Wrap(err, "run command")
	}
	return nil
}
