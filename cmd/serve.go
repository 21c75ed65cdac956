package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bridgee/internal/bootstrap"
	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
	"bridgee/internal/transport/httpapi"
	"bridgee/internal/usecase/intake"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the application intake HTTP API",
	RunE: withService(func(cmd *cobra.Command, app *bootstrap.App, svc *intake.Service) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		addr := app.Config.HTTP.Addr
		if override, _ := cmd.Flags().GetString("addr"); override != "" {
			addr = override
		}

		server := httpapi.NewServer(ctx, svc, httpapi.Options{
			Addr:            addr,
			AllowedOrigins:  app.Config.HTTP.AllowedOrigins,
			ShutdownTimeout: app.Config.HTTP.ShutdownTimeout,
		})

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Run(gctx)
		})

		if err := g.Wait(); err != nil && !errs.IsAny(err, context.Canceled) {
			return errs.Wrap(err, "serve")
		}
		logging.Info(ctx, "serve stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address, overrides http.addr")
}
