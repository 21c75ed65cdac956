// Package telegram adapts the Telegram Bot API to the chat ports used by
// the review and blog bots.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

// ErrTokenMissing is returned when a bot is started without a token.
var ErrTokenMissing = errors.New("telegram bot token is not configured")

// botAPI is the subset of *tgbotapi.BotAPI the adapters call.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Client implements ports.Messenger on top of the Bot API.
type Client struct {
	api  botAPI
	name string
}

var _ ports.Messenger = (*Client)(nil)

// Dial authenticates token against the Bot API. name tags log lines.
func Dial(token string, name string) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errs.Wrapf(ErrTokenMissing, "bot %s", name)
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, errs.Wrapf(err, "connect bot %s", name)
	}
	return &Client{api: api, name: name}, nil
}

func newClient(api botAPI, name string) *Client {
	return &Client{api: api, name: name}
}

func (c *Client) Send(ctx context.Context, chatID int64, msg ports.ChatMessage) (int, error) {
	if err := checkContext(ctx); err != nil {
		return 0, err
	}

	cfg := tgbotapi.NewMessage(chatID, msg.Text)
	switch {
	case len(msg.Inline) > 0:
		cfg.ReplyMarkup = inlineMarkup(msg.Inline)
	case len(msg.Keyboard) > 0:
		cfg.ReplyMarkup = replyKeyboard(msg.Keyboard)
	case msg.RemoveKeyboard:
		cfg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(true)
	}

	sent, err := c.api.Send(cfg)
	if err != nil {
		c.logFailure(ctx, "send message", chatID, err)
		return 0, errs.Wrapf(err, "send message to %d", chatID)
	}
	return sent.MessageID, nil
}

// Edit replaces text and inline buttons of an earlier message. A message
// without Inline rows loses its buttons.
func (c *Client) Edit(ctx context.Context, chatID int64, messageID int, msg ports.ChatMessage) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	var cfg tgbotapi.Chattable
	if len(msg.Inline) > 0 {
		cfg = tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, msg.Text, inlineMarkup(msg.Inline))
	} else {
		cfg = tgbotapi.NewEditMessageText(chatID, messageID, msg.Text)
	}
	if _, err := c.api.Request(cfg); err != nil {
		c.logFailure(ctx, "edit message", chatID, err)
		return errs.Wrapf(err, "edit message %d in %d", messageID, chatID)
	}
	return nil
}

func (c *Client) SendDocument(ctx context.Context, chatID int64, doc ports.ChatDocument) error {
	if err := checkContext(ctx); err != nil {
		return err
	}

	cfg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: doc.FileName, Bytes: doc.Data})
	cfg.Caption = doc.Caption
	if _, err := c.api.Send(cfg); err != nil {
		c.logFailure(ctx, "send document", chatID, err)
		return errs.Wrapf(err, "send document %s to %d", doc.FileName, chatID)
	}
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string, text string) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, text)); err != nil {
		return errs.Wrapf(err, "answer callback %s", callbackID)
	}
	return nil
}

func (c *Client) logFailure(ctx context.Context, op string, chatID int64, err error) {
	ctx = logging.WithAttrs(ctx, slog.String("component", "telegram.client"), slog.String("bot", c.name))
	logging.Warn(ctx, "telegram request failed",
		slog.String("op", op),
		slog.Int64("chat_id", chatID),
		slog.Any("err", errs.Loggable(err)),
	)
}

func inlineMarkup(rows [][]ports.ChatButton) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

func replyKeyboard(rows [][]string) tgbotapi.ReplyKeyboardMarkup {
	out := make([][]tgbotapi.KeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, text := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(text))
		}
		out = append(out, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	kb := tgbotapi.NewReplyKeyboard(out...)
	kb.ResizeKeyboard = true
	return kb
}

// convertUpdate maps a Bot API update. ok is false for update kinds the
// bots ignore.
func convertUpdate(u tgbotapi.Update) (ports.ChatUpdate, bool) {
	out := ports.ChatUpdate{UpdateID: u.UpdateID}
	switch {
	case u.CallbackQuery != nil:
		q := u.CallbackQuery
		out.CallbackID = q.ID
		out.CallbackData = q.Data
		out.From = convertUser(q.From)
		if q.Message != nil {
			out.MessageID = q.Message.MessageID
			if q.Message.Chat != nil {
				out.ChatID = q.Message.Chat.ID
			}
		}
		return out, true
	case u.Message != nil:
		m := u.Message
		out.MessageID = m.MessageID
		out.Text = m.Text
		out.From = convertUser(m.From)
		if m.Chat != nil {
			out.ChatID = m.Chat.ID
		}
		return out, true
	default:
		return out, false
	}
}

func convertUser(u *tgbotapi.User) ports.ChatUser {
	if u == nil {
		return ports.ChatUser{}
	}
	return ports.ChatUser{ID: u.ID, Username: u.UserName, FirstName: u.FirstName, LastName: u.LastName}
}

func checkContext(ctx context.Context) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if err := ctx.Err(); err != nil {
		return errs.Wrap(err, "check context")
	}
	return nil
}
