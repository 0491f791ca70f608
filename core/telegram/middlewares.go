package telegram

import (
	"time"

	coreconfig "github.com/m3rciful/stockbot/core/config"
	"github.com/m3rciful/stockbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// DefaultMiddlewares builds the shared chain: recover, rate limit (when an
// interval is configured), receipt logging and message counters.
func DefaultMiddlewares(cfg *coreconfig.Config, onLimited tele.HandlerFunc) []Middleware {
	mws := []Middleware{
		{Name: "recover", Use: middleware.RecoverMiddleware},
	}
	if rl := rateLimit(cfg, onLimited); rl != nil {
		mws = append(mws, Middleware{Name: "rate_limit", Use: rl})
	}
	return append(mws,
		Middleware{Name: "logger", Use: middleware.LoggerMiddleware},
		Middleware{Name: "metrics", Use: middleware.MessageMetricsMiddleware},
	)
}

// rateLimit expects exclusions already normalized by coreconfig.Normalize.
func rateLimit(cfg *coreconfig.Config, onLimited tele.HandlerFunc) tele.MiddlewareFunc {
	if cfg == nil || cfg.RateLimit.IntervalMS <= 0 {
		return nil
	}
	exclude := make(map[string]struct{}, len(cfg.RateLimit.ExcludeUpdates))
	for _, kind := range cfg.RateLimit.ExcludeUpdates {
		exclude[kind] = struct{}{}
	}
	return middleware.RateLimitMiddleware(middleware.RateLimitOptions{
		Interval:  time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
		Exclude:   exclude,
		OnLimited: onLimited,
		MaxUsers:  cfg.RateLimit.MaxUsers,
	})
}
