package cmd

import (
	"context"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"bridgee/internal/bootstrap"
	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/domain/application"
	"bridgee/internal/errs"
	"bridgee/internal/infrastructure/watch"
	"bridgee/internal/usecase/reviewconsole"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Start the terminal review console",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx := logging.WithAttrs(cmd.Context(), slog.String("command", cmd.CommandPath()))

		actorName, _ := cmd.Flags().GetString("actor")
		rawStatus, _ := cmd.Flags().GetString("status")
		jobTitle, _ := cmd.Flags().GetString("job")

		status := application.StatusNew
		if rawStatus != "" {
			parsed, err := application.ParseStatus(rawStatus)
			if err != nil {
				return errs.Wrap(err, "parse --status")
			}
			status = parsed
		}

		model := reviewconsole.NewReviewModel(ctx, app.Reviews, reviewconsole.Options{
			Actor:    application.Actor{ID: "console", Name: actorName},
			Status:   status,
			JobTitle: jobTitle,
		})
		program := tea.NewProgram(model, tea.WithAltScreen())

		watchCtx, cancelWatch := context.WithCancel(ctx)
		defer cancelWatch()
		watcher := watch.NewFileWatcher(app.Config.Storage.ApplicationsFile, watch.DefaultDebounce)
		go func() {
			err := watcher.Run(watchCtx, func() { program.Send(reviewconsole.StoreChangedMsg{}) })
			if err != nil && watchCtx.Err() == nil {
				logging.Warn(ctx, "store watcher stopped", slog.Any("err", errs.Loggable(err)))
			}
		}()

		if _, err := program.Run(); err != nil {
			return errs.Wrap(err, "run review console")
		}
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	consoleCmd.Flags().String("actor", "Console Operator", "Reviewer name recorded on status changes")
	consoleCmd.Flags().String("status", "", "Initial status tab (default: new)")
	consoleCmd.Flags().String("job", "", "Initial job title filter")
}
