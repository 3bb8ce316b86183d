package helpers

import (
	"context"

	"github.com/m3rciful/scholarbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

// Keys under which the update's request data lives in tele.Context.
const (
	ctxKey = "request_ctx"
	ridKey = "rid"
)

// StoreContext replaces the request context kept for the update.
func StoreContext(c tele.Context, ctx context.Context) {
	if c == nil || ctx == nil {
		return
	}
	c.Set(ctxKey, ctx)
}

// ContextFrom returns the request context stored for the update, if any.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// RID returns the request id of the update, minting and storing it on first use.
func RID(c tele.Context) string {
	if rid, _ := c.Get(ridKey).(string); rid != "" {
		return rid
	}
	chatID, userID := participants(c)
	rid := logger.BuildRID(c.Update().ID, chatID, userID)
	c.Set(ridKey, rid)
	return rid
}

func participants(c tele.Context) (chatID, userID int64) {
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	return chatID, userID
}

// BuildContext returns the request context of the update. The first call
// derives it from the update (request id, chat and user) and caches it, so
// every log line and outbound job of one update shares the same fields.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	chatID, userID := participants(c)

	ctx := logger.WithRID(logger.Background(), RID(c))
	ctx = logger.WithUpdateMeta(ctx, c.Update().ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component(logger.CompTelegram))
	StoreContext(c, ctx)
	return ctx
}

// WithHandler tags the request context with the routed handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
