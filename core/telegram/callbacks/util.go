package callbacks

import (
	"strings"

	tele "gopkg.in/telebot.v4"
)

// ParseCallbackData splits a callback into its unique key and payload.
// Telebot fills Unique only when a handler is bound to "\f<unique>"; callbacks
// routed through OnCallback keep the raw "\f<unique>|<payload>" encoding in Data.
func ParseCallbackData(cb *tele.Callback) (string, string) {
	if cb == nil {
		return "", ""
	}
	if cb.Unique != "" {
		return cb.Unique, cb.Data
	}
	raw := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.SplitN(raw, "|", 2)
	unique := strings.TrimSpace(parts[0])
	payload := ""
	if len(parts) == 2 {
		payload = parts[1]
	}
	return unique, payload
}

// CallbackPayload returns the payload (after '|') of the current callback.
func CallbackPayload(c tele.Context) string {
	_, payload := ParseCallbackData(c.Callback())
	return payload
}
