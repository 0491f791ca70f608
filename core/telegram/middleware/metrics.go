package middleware

import (
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// metricsContext counts messages sent synchronously through the context.
type metricsContext struct{ tele.Context }

func (m metricsContext) count(err error, opts []any) error {
	if err == nil {
		tghelpers.CountSent(m.Context, tghelpers.HasKeyboard(opts...))
	}
	return err
}

// Send proxies tele.Context.Send while updating message counters.
func (m metricsContext) Send(what any, opts ...any) error {
	return m.count(m.Context.Send(what, opts...), opts)
}

// Reply proxies tele.Context.Reply while updating message counters.
func (m metricsContext) Reply(what any, opts ...any) error {
	return m.count(m.Context.Reply(what, opts...), opts)
}

// Edit proxies tele.Context.Edit; edits count as responses.
func (m metricsContext) Edit(what any, opts ...any) error {
	return m.count(m.Context.Edit(what, opts...), opts)
}

// EditOrSend proxies tele.Context.EditOrSend while updating message counters.
func (m metricsContext) EditOrSend(what any, opts ...any) error {
	return m.count(m.Context.EditOrSend(what, opts...), opts)
}

// EditOrReply proxies tele.Context.EditOrReply while updating message counters.
func (m metricsContext) EditOrReply(what any, opts ...any) error {
	return m.count(m.Context.EditOrReply(what, opts...), opts)
}

// MessageMetricsMiddleware instruments the context so the handler summary can
// report how many messages an update produced and whether a keyboard was shown.
func MessageMetricsMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		tghelpers.ResetCounters(c)
		return next(metricsContext{Context: c})
	}
}
