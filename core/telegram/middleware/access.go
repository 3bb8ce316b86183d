package middleware

import (
	"log/slog"

	"github.com/m3rciful/scholarbot/core/logger"
	tghelpers "github.com/m3rciful/scholarbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	IsAdmin  func(userID int64) bool
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware lets only administrators reach downstream handlers.
// A nil IsAdmin rejects everyone.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			var uid int64
			if u := c.Sender(); u != nil {
				uid = u.ID
			}
			if opts.IsAdmin == nil || !opts.IsAdmin(uid) {
				logger.Info(tghelpers.BuildContext(c), logger.CompAccess, "admin.denied",
					slog.Int64("user_id", uid),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
