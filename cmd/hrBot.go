package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"bridgee/internal/bootstrap"
	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/bot/hrbot"
	"bridgee/internal/errs"
	"bridgee/internal/infrastructure/telegram"
	"bridgee/internal/infrastructure/watch"
)

var hrBotCmd = &cobra.Command{
	Use:   "hr-bot",
	Short: "Run the HR review bot on Telegram",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		tg := app.Config.Telegram
		client, err := telegram.Dial(tg.HRBotToken, "hr")
		if err != nil {
			return errs.Wrap(err, "connect hr bot")
		}

		bot := hrbot.New(client, app.Reviews, tg.HRChatID)
		if bot.Open() {
			logging.Warn(ctx, "telegram.hr_chat_id is not set: HR bot is open to every chat and new-application pings are disabled")
		}
		poller := telegram.NewPoller(client, app.Cache, tg.PollTimeout)

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return poller.Run(gctx, bot.Handle)
		})

		watchStore, _ := cmd.Flags().GetBool("watch")
		if watchStore || tg.WatchStoreForNew {
			if err := bot.StoreChanged(gctx); err != nil {
				logging.Warn(ctx, "initial new-application count failed", slog.Any("err", errs.Loggable(err)))
			}
			watcher := watch.NewFileWatcher(app.Config.Storage.ApplicationsFile, watch.DefaultDebounce)
			g.Go(func() error {
				return watcher.Run(gctx, func() {
					if err := bot.StoreChanged(gctx); err != nil {
						logging.Warn(ctx, "new-application ping failed", slog.Any("err", errs.Loggable(err)))
					}
				})
			})
		}

		if err := g.Wait(); err != nil && gctx.Err() == nil {
			return errs.Wrap(err, "run hr bot")
		}
		logging.Info(ctx, "hr bot stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(hrBotCmd)
	hrBotCmd.Flags().Bool("watch", false, "Ping the HR chat when new applications land in the store file")
}
