package helpers

import (
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/core/telegram/format"
	"github.com/m3rciful/scholarbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action sender.Action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, logger.CompDispatch, "queue.fallback",
				slog.String("action", string(action)),
				slog.String("endpoint", endpoint),
				slog.String("err", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, sender.ActionReply, "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm}
	return SendText(c, text, opts)
}

// SendLong delivers text synchronously in Telegram-sized chunks. Only the last
// chunk carries rm. A chunk rejected for bad Markdown is resent as plain text.
func SendLong(c tele.Context, text string, rm *tele.ReplyMarkup) error {
	chunks := format.Split(format.Legacy(text), format.MaxMessageLength)
	for i, chunk := range chunks {
		opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown}
		if i == len(chunks)-1 {
			opts.ReplyMarkup = rm
		}
		err := c.Send(chunk, opts)
		if err != nil && IsParseError(err) {
			logger.Debug(BuildContext(c), logger.CompTelegram, "send.markdown_fallback",
				slog.Int("chunk", i),
			)
			opts.ParseMode = tele.ModeDefault
			err = c.Send(format.StripMarkdown(chunk), opts)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// EditMD edits a message with Markdown parse mode, falling back to plain text
// when Telegram cannot parse the entities.
func EditMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	err := c.Edit(format.Legacy(text), &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm})
	if err != nil && IsParseError(err) {
		err = c.Edit(format.StripMarkdown(text), &tele.SendOptions{ReplyMarkup: rm})
	}
	return err
}

// EditOrSendMD tries to edit the message (Markdown) or sends a new one if edit fails.
func EditOrSendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	if c.Callback() == nil {
		return SendLong(c, text, rm)
	}
	if err := EditMD(c, text, rm); err != nil {
		if isNotModified(err) {
			return nil
		}
		return SendLong(c, text, rm)
	}
	return nil
}

// IsParseError reports whether Telegram rejected the message entities.
func IsParseError(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "can't parse entities")
}

func isNotModified(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "message is not modified")
}
