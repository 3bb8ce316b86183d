package bot

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/core/telegram/format"
	"github.com/m3rciful/scholarbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Messenger sends a message outside an update. *tele.Bot satisfies it.
type Messenger interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// notifier pushes webhook outcomes to users through the dispatcher queue.
type notifier struct {
	dispatcher *sender.Dispatcher
	bot        atomic.Pointer[Messenger]
}

func (n *notifier) setBot(m Messenger) {
	n.bot.Store(&m)
}

// Notify implements webhook.Notifier. Messages are dropped, with a log line,
// until the bot is up or when the queue is full.
func (n *notifier) Notify(ctx context.Context, telegramID int64, text string) {
	p := n.bot.Load()
	if p == nil {
		logger.Warn(ctx, logger.CompWebhook, "notify.skipped",
			slog.Int64("telegram_id", telegramID),
			slog.String("reason", "bot_not_ready"),
		)
		return
	}
	m := *p
	send := func() error {
		_, err := m.Send(tele.ChatID(telegramID), format.Legacy(text), &tele.SendOptions{ParseMode: tele.ModeMarkdown})
		return err
	}
	if err := n.dispatcher.Enqueue(ctx, sender.ActionNotify, "sendMessage", send); err != nil {
		logger.Warn(ctx, logger.CompWebhook, "notify.dropped",
			slog.Int64("telegram_id", telegramID),
			slog.String("err", err.Error()),
		)
	}
}
