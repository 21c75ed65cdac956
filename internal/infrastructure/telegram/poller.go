package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"bridgee/internal/bootstrap/logging"
	"bridgee/internal/errs"
	"bridgee/internal/ports"
)

const offsetTTL = 7 * 24 * time.Hour

// Handler processes one update. Handlers run sequentially.
type Handler func(ctx context.Context, update ports.ChatUpdate)

// Poller long-polls getUpdates and remembers the next offset in a cache so
// a restarted bot does not replay handled updates.
type Poller struct {
	client  *Client
	offsets ports.Cache
	timeout time.Duration
}

func NewPoller(client *Client, offsets ports.Cache, timeout time.Duration) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{client: client, offsets: offsets, timeout: timeout}
}

func (p *Poller) offsetKey() string {
	return "telegram_offset:" + p.client.name
}

// Run blocks until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, handle Handler) error {
	if err := checkContext(ctx); err != nil {
		return err
	}
	ctx = logging.WithAttrs(ctx, slog.String("component", "telegram.poller"), slog.String("bot", p.client.name))

	cfg := tgbotapi.NewUpdate(p.loadOffset(ctx))
	cfg.Timeout = int(p.timeout / time.Second)
	updates := p.client.api.GetUpdatesChan(cfg)
	logging.Info(ctx, "polling started", slog.Int("offset", cfg.Offset))

	for {
		select {
		case <-ctx.Done():
			p.client.api.StopReceivingUpdates()
			logging.Info(ctx, "polling stopped")
			return nil
		case raw, ok := <-updates:
			if !ok {
				return nil
			}
			if update, keep := convertUpdate(raw); keep {
				dispatch(logging.WithChat(ctx, update.ChatID), handle, update)
			}
			p.storeOffset(ctx, raw.UpdateID+1)
		}
	}
}

// dispatch runs handle and logs a panic instead of letting it end polling.
// The offset still advances past the update.
func dispatch(ctx context.Context, handle Handler, update ports.ChatUpdate) {
	defer func() {
		if r := recover(); r != nil {
			err := errs.WithStack(fmt.Errorf("panic handling update %d: %v", update.UpdateID, r))
			logging.Error(ctx, "update handler panicked", slog.Any("err", errs.Loggable(err)))
		}
	}()
	handle(ctx, update)
}

func (p *Poller) loadOffset(ctx context.Context) int {
	if p.offsets == nil {
		return 0
	}
	value, found, err := p.offsets.Get(ctx, p.offsetKey())
	if err != nil {
		logging.Warn(ctx, "load update offset failed", slog.Any("err", errs.Loggable(err)))
		return 0
	}
	if !found {
		return 0
	}
	offset, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return offset
}

func (p *Poller) storeOffset(ctx context.Context, offset int) {
	if p.offsets == nil {
		return
	}
	if err := p.offsets.Set(ctx, p.offsetKey(), strconv.Itoa(offset), offsetTTL); err != nil {
		logging.Warn(ctx, "store update offset failed", slog.Any("err", errs.Loggable(err)))
	}
}
