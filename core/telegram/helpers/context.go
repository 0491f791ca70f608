package helpers

import (
	"context"

	"github.com/m3rciful/stockbot/core/logger"

	tele "gopkg.in/telebot.v4"
)

const (
	ctxKey = "logger_ctx"
	ridKey = "rid"
)

// StoreContext caches ctx on the update so later helpers log with the same fields.
func StoreContext(c tele.Context, ctx context.Context) {
	if c != nil && ctx != nil {
		c.Set(ctxKey, ctx)
	}
}

// ContextFrom returns the context cached by StoreContext.
func ContextFrom(c tele.Context) (context.Context, bool) {
	if c == nil {
		return nil, false
	}
	ctx, ok := c.Get(ctxKey).(context.Context)
	return ctx, ok && ctx != nil
}

// UpdateIDs returns the chat and user ids of the update, zero when absent.
func UpdateIDs(c tele.Context) (chatID, userID int64) {
	if chat := c.Chat(); chat != nil {
		chatID = chat.ID
	}
	if user := c.Sender(); user != nil {
		userID = user.ID
	}
	return chatID, userID
}

// NewUpdateContext assigns the update its request id and caches a fresh
// logging context carrying the update, chat and user ids.
func NewUpdateContext(c tele.Context) (context.Context, string) {
	upd := c.Update()
	chatID, userID := UpdateIDs(c)
	rid := logger.BuildRID(upd.ID, chatID, userID)
	c.Set(ridKey, rid)

	ctx := logger.WithRID(context.Background(), rid)
	ctx = logger.WithUpdateMeta(ctx, upd.ID, userID, chatID)
	ctx = logger.WithLogger(ctx, logger.Component("tg"))
	StoreContext(c, ctx)
	return ctx, rid
}

// BuildContext returns the update's logging context, creating it when no
// middleware did. Services take this context so their logs carry the rid.
func BuildContext(c tele.Context) context.Context {
	if cached, ok := ContextFrom(c); ok {
		return cached
	}
	ctx, _ := NewUpdateContext(c)
	return ctx
}

// WithHandler tags the update's context with the handler name.
func WithHandler(c tele.Context, handler string) context.Context {
	ctx := BuildContext(c)
	if handler == "" {
		return ctx
	}
	ctx = logger.WithHandler(ctx, handler)
	StoreContext(c, ctx)
	return ctx
}
