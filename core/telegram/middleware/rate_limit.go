package middleware

import (
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/scholarbot/core/logger"
	tghelpers "github.com/m3rciful/scholarbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds that bypass the limit: "message",
	// "document", "callback", "inline_query" or "other".
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	Now       func() time.Time
}

// updateKind names the part of the update a handler will react to.
func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil && upd.Message.Document != nil:
		return "document"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}

// limiter remembers when each user was last let through.
type limiter struct {
	mu       sync.Mutex
	interval time.Duration
	seen     map[int64]time.Time
	pruned   time.Time
}

// allow reports whether userID may proceed at now and, if not, how long
// until the window reopens.
func (l *limiter) allow(userID int64, now time.Time) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.pruned) >= l.interval*10 {
		for id, at := range l.seen {
			if now.Sub(at) >= l.interval {
				delete(l.seen, id)
			}
		}
		l.pruned = now
	}
	if last, ok := l.seen[userID]; ok {
		if wait := l.interval - now.Sub(last); wait > 0 {
			return false, wait
		}
	}
	l.seen[userID] = now
	return true, 0
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	l := &limiter{interval: opts.Interval, seen: make(map[int64]time.Time)}

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			kind := updateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			ok, wait := l.allow(user.ID, now())
			if ok {
				return next(c)
			}
			logger.Warn(tghelpers.BuildContext(c), logger.CompTelegram, "rate_limit",
				slog.String("kind", kind),
				slog.Int64("user_id", user.ID),
				slog.Duration("retry_in", wait),
			)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}
