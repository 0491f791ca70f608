package ui

import tele "gopkg.in/telebot.v4"

// FallbackProvider exposes handlers used when incoming updates
// cannot be mapped to commands, callbacks, or expected documents,
// or were refused by the access and rate-limit middleware.
type FallbackProvider interface {
	UnknownText() tele.HandlerFunc
	UnknownDocument() tele.HandlerFunc
	UnknownCallback() tele.HandlerFunc
	Rejected() tele.HandlerFunc
	Limited() tele.HandlerFunc
}
