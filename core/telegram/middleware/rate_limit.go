package middleware

import (
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/m3rciful/stockbot/core/logger"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

const defaultRateLimitUsers = 4096

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval  time.Duration
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// MaxUsers bounds how many users are tracked; the least recently seen are forgotten.
	MaxUsers int
	Now      func() time.Time
}

// RateLimitMiddleware returns a middleware that enforces a minimum interval
// between updates from the same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	if opts.MaxUsers <= 0 {
		opts.MaxUsers = defaultRateLimitUsers
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	lastSeen, _ := lru.New[int64, time.Time](opts.MaxUsers)
	var mu sync.Mutex

	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, skip := opts.Exclude[updateKind(c.Update())]; skip {
				return next(c)
			}

			now := opts.Now()
			mu.Lock()
			last, ok := lastSeen.Get(user.ID)
			limited := ok && now.Sub(last) < opts.Interval
			if !limited {
				lastSeen.Add(user.ID, now)
			}
			mu.Unlock()

			if !limited {
				return next(c)
			}
			attrs := []slog.Attr{slog.String("status", "skip"), slog.Int64("user_id", user.ID)}
			if chat := c.Chat(); chat != nil {
				attrs = append(attrs, slog.Int64("chat_id", chat.ID))
			}
			logger.Warn(tghelpers.BuildContext(c), "tg", "tg.rate_limit", attrs...)
			if opts.OnLimited != nil {
				_ = opts.OnLimited(c)
			}
			return nil
		}
	}
}

func updateKind(upd tele.Update) string {
	switch {
	case upd.Callback != nil:
		return "callback"
	case upd.Message != nil:
		return "message"
	case upd.Query != nil:
		return "inline_query"
	}
	return "other"
}
