/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "bridgee",
	Short:        "Job application intake and review service",
	Long:         "Bridgee accepts job applications over HTTP, keeps them in a JSON record store and lets HR review them from Telegram or a terminal console.",
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}

	ctx = logging.WithLogger(ctx, logging.New(rootCmd.ErrOrStderr(), "info"))
	ctx = logging.WithAttrs(ctx, slog.String("app", "bridgee"))

	rootCmd.SetContext(ctx)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logging.Error(ctx, "command execution failed", slog.Any("err", errs.Loggable(err)))
		return errs.Wrap(err, "execute root command")
	}

	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default: ./configs/config.yaml when present)")
}
