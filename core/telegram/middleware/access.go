package middleware

import (
	"log/slog"

	"github.com/m3rciful/stockbot/core/logger"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	// IsAdmin decides whether a user may run admin-only handlers.
	// A nil predicate rejects everyone.
	IsAdmin  func(userID int64) bool
	OnReject tele.HandlerFunc
}

// Allowed reports whether the sender of c passes the admin check.
func (o AdminOptions) Allowed(c tele.Context) bool {
	user := c.Sender()
	return user != nil && o.IsAdmin != nil && o.IsAdmin(user.ID)
}

// AdminOnlyMiddleware ensures that only allow-listed users can invoke downstream handlers.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.Allowed(c) {
				return next(c)
			}
			var userID int64
			if u := c.Sender(); u != nil {
				userID = u.ID
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "access.denied",
				slog.String("status", "skip"),
				slog.Int64("user_id", userID),
			)
			if opts.OnReject != nil {
				return opts.OnReject(c)
			}
			return nil
		}
	}
}
