package netutil

import (
	"errors"
	"net"
	"net/url"
	"time"

	tele "gopkg.in/telebot.v4"
)

// ShouldRetry reports whether a failed Telegram call is worth retrying:
// transient dial/timeout failures, flood control and 5xx API answers.
// Other 4xx answers (bad markup, message not found) never succeed on retry.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if _, ok := RetryAfter(err); ok {
		return true
	}
	var apiErr *tele.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code >= 500
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() || netErr.Temporary() {
			return true
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() || opErr.Op == "dial" {
			return true
		}
		if nested, ok := opErr.Err.(net.Error); ok {
			if nested.Timeout() || nested.Temporary() {
				return true
			}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return true
		}
		if urlErr.Err != nil && !errors.Is(urlErr.Err, err) {
			return ShouldRetry(urlErr.Err)
		}
	}

	return false
}

// RetryAfter extracts the wait Telegram demands after a 429 flood error.
func RetryAfter(err error) (time.Duration, bool) {
	var flood tele.FloodError
	if errors.As(err, &flood) && flood.RetryAfter > 0 {
		return time.Duration(flood.RetryAfter) * time.Second, true
	}
	return 0, false
}
