package helpers

import tele "gopkg.in/telebot.v4"

const (
	counterMessages = "messages"
	counterKeyboard = "kb"
)

// ResetCounters starts message accounting for the current update.
func ResetCounters(c tele.Context) {
	c.Set(counterMessages, 0)
	c.Set(counterKeyboard, false)
}

// CountSent records one outgoing message for the handler summary. Sends that
// bypass the context (queued sends, prompts sent through the bot) call it directly.
func CountSent(c tele.Context, keyboard bool) {
	n, _ := c.Get(counterMessages).(int)
	c.Set(counterMessages, n+1)
	if keyboard {
		c.Set(counterKeyboard, true)
	}
}

// Counters returns how many messages the handler sent and whether any carried a keyboard.
func Counters(c tele.Context) (int, bool) {
	n, _ := c.Get(counterMessages).(int)
	kb, _ := c.Get(counterKeyboard).(bool)
	return n, kb
}

// HasKeyboard reports whether send options carry reply markup.
func HasKeyboard(opts ...any) bool {
	for _, o := range opts {
		switch v := o.(type) {
		case *tele.SendOptions:
			if v != nil && v.ReplyMarkup != nil {
				return true
			}
		case *tele.ReplyMarkup:
			if v != nil {
				return true
			}
		}
	}
	return false
}
