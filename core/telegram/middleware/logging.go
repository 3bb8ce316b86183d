package middleware

import (
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/m3rciful/scholarbot/core/logger"
	"github.com/m3rciful/scholarbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/scholarbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const receivedKey = "update_received"

// LoggerMiddleware builds the request context of the update and logs one
// receipt line for it. Routers wrap handlers with it a second time; the
// marker on the context makes the later passes no-ops.
func LoggerMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		if seen, _ := c.Get(receivedKey).(bool); seen {
			return next(c)
		}
		c.Set(receivedKey, true)

		ctx := tghelpers.BuildContext(c)
		if logger.ShouldSampleDebug() {
			logger.LogEvent(ctx, logger.Component(logger.CompTelegram), slog.LevelDebug, "update.received", receiptAttrs(c)...)
		}
		return next(c)
	}
}

func receiptAttrs(c tele.Context) []slog.Attr {
	upd := c.Update()
	attrs := []slog.Attr{
		slog.String("status", "ok"),
		slog.String("rid", tghelpers.RID(c)),
		slog.Int("update_id", upd.ID),
		slog.String("kind", updateKind(upd)),
	}
	if chat := c.Chat(); chat != nil {
		attrs = append(attrs,
			slog.Int64("chat_id", chat.ID),
			slog.String("chat_type", string(chat.Type)),
		)
	}
	if user := c.Sender(); user != nil {
		attrs = append(attrs, slog.Int64("user_id", user.ID))
		if user.Username != "" {
			attrs = append(attrs, slog.String("username", logger.SanitizeLimit(user.Username, 64)))
		}
		if user.LanguageCode != "" {
			attrs = append(attrs, slog.String("lang", user.LanguageCode))
		}
	}

	switch {
	case upd.Callback != nil:
		key, payload := callbacks.Split(upd.Callback)
		if key != "" {
			attrs = append(attrs, slog.String("cb_key", logger.SanitizeLimit(key, 128)))
		}
		if payload != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(payload, 256)))
		}
	case upd.Message != nil && upd.Message.Document != nil:
		doc := upd.Message.Document
		attrs = append(attrs,
			slog.String("doc_ext", strings.ToLower(filepath.Ext(doc.FileName))),
			slog.String("doc_mime", doc.MIME),
			slog.Int64("doc_size", doc.FileSize),
		)
	case upd.Message != nil:
		if t := c.Text(); t != "" {
			attrs = append(attrs, slog.String("payload", logger.SanitizeLimit(t, 256)))
		}
	}
	return attrs
}
