package cmd

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"bridgee/internal/bootstrap"
	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/bot/blogbot"
	"bridgee/internal/errs"
	"bridgee/internal/infrastructure/telegram"
)

var blogBotCmd = &cobra.Command{
	Use:   "blog-bot",
	Short: "Run the blog admin bot on Telegram",
	RunE: withApp(func(cmd *cobra.Command, app *bootstrap.App) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.WithAttrs(ctx, slog.String("command", cmd.CommandPath()))

		tg := app.Config.Telegram
		client, err := telegram.Dial(tg.BlogBotToken, "blog")
		if err != nil {
			return errs.Wrap(err, "connect blog bot")
		}

		bot := blogbot.New(client, app.Blog, tg.BlogAdminChatID)
		if bot.Open() {
			logging.Warn(ctx, "telegram.blog_admin_chat_id is not set, access is open")
		}

		poller := telegram.NewPoller(client, app.Cache, tg.PollTimeout)
		if err := poller.Run(ctx, bot.Handle); err != nil && ctx.Err() == nil {
			return errs.Wrap(err, "run blog bot")
		}
		logging.Info(ctx, "blog bot stopped")
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(blogBotCmd)
}
