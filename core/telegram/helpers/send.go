package helpers

import (
	"errors"
	"log/slog"
	"strconv"
	"sync/atomic"

	"github.com/m3rciful/stockbot/core/logger"
	"github.com/m3rciful/stockbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

const actionDelete = "delete"

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

// botContext sends straight through the bot API, bypassing any wrapper
// installed on the handler's context.
type botContext struct{ tele.Context }

func (b botContext) Send(what any, opts ...any) error {
	_, err := b.Bot().Send(b.Recipient(), what, opts...)
	return err
}

// sendAsync runs send on the dispatcher when one is wired, otherwise inline.
// Queued sends get a context detached from the handler's, so the message is
// counted once, at enqueue time.
func sendAsync(c tele.Context, action, endpoint string, keyboard bool, send func(tele.Context) error) error {
	disp := currentDispatcher()
	if disp == nil || c.Bot() == nil {
		return send(c)
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, action, endpoint, func() error {
		return send(botContext{c})
	})
	switch {
	case err == nil:
		if action != actionDelete {
			CountSent(c, keyboard)
		}
		return nil
	case errors.Is(err, sender.ErrQueueFull), errors.Is(err, sender.ErrQueueClosed):
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return send(c)
	}
	return err
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", HasKeyboard(sendOpts), func(tc tele.Context) error {
		if sendOpts != nil {
			return tc.Send(text, sendOpts)
		}
		return tc.Send(text)
	})
}

// SendMD sends a message with Markdown parse mode and optional reply markup.
func SendMD(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	opts := &tele.SendOptions{ParseMode: tele.ModeMarkdown, ReplyMarkup: rm}
	return SendText(c, text, opts)
}

// DeleteMessages removes previously sent messages from the current chat.
// Failures are logged and skipped; messages older than 48h cannot be deleted by bots.
func DeleteMessages(c tele.Context, ids []int) {
	chat := c.Chat()
	if chat == nil || len(ids) == 0 {
		return
	}
	ctx := BuildContext(c)
	for _, id := range ids {
		msg := &tele.StoredMessage{MessageID: strconv.Itoa(id), ChatID: chat.ID}
		err := sendAsync(c, actionDelete, "deleteMessage", false, func(tc tele.Context) error {
			err := tc.Bot().Delete(msg)
			if errors.Is(err, tele.ErrNotFoundToDelete) {
				return nil
			}
			return err
		})
		if err != nil {
			logger.Debug(ctx, "tg.sender", "delete.skip",
				slog.Int("message_id", id),
				slog.String("err", err.Error()),
			)
		}
	}
}
