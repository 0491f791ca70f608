package router

import (
	"time"

	tg "github.com/m3rciful/stockbot/core/telegram"
	"github.com/m3rciful/stockbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversations receives free text while a user is inside a multi-step run.
type Conversations interface {
	InProgress(userID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for text/document updates.
type TextOptions struct {
	// Admin gates admin-only commands reached through an alias or bare name,
	// exactly as the slash command routes do.
	Admin           middleware.AdminOptions
	UnknownText     tele.HandlerFunc
	UnknownDocument tele.HandlerFunc
}

// TextRoutes builds handlers for text and document routing. Text goes to an
// active conversation first, then to a command matched by alias, then to fallbacks.
func TextRoutes(conv Conversations, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if conv != nil && c.Sender() != nil && conv.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "conversation", start, "", "", func() error {
				return conv.ManagerHandler(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				h := cmd.Handler
				if cmd.AdminOnly {
					h = middleware.AdminOnlyMiddleware(opts.Admin)(h)
				}
				return handleWithSummary(c, normalizeHandlerName(key), start, "", "", func() error {
					return h(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	docHandler := func(c tele.Context) error {
		start := time.Now()
		if conv != nil && c.Sender() != nil && conv.InProgress(c.Sender().ID) {
			return handleWithSummary(c, "conversation_document", start, "", "", func() error {
				return conv.ManagerHandler(c)
			})
		}
		if opts.UnknownDocument != nil {
			return handleWithSummary(c, "unexpected_document", start, "", "", func() error {
				return opts.UnknownDocument(c)
			})
		}
		logHandlerSummary(c, "unexpected_document", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(handler)),
		},
		{
			Endpoint: tele.OnDocument,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(docHandler)),
		},
	}
}
