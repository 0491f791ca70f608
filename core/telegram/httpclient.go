package telegram

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/m3rciful/stockbot/core/logger"
	"github.com/m3rciful/stockbot/core/telegram/netutil"
)

const (
	defaultDialTimeout       = 5 * time.Second
	defaultTLSHandshake      = 5 * time.Second
	defaultIdleConnTimeout   = 30 * time.Second
	defaultResponseTimeout   = 5 * time.Second
	defaultClientTimeout     = 30 * time.Second
	defaultKeepAliveInterval = 30 * time.Second
	defaultRetryAttempts     = 3
	defaultRetryBackoff      = 2 * time.Second
)

// HTTPOptions tunes the Bot API client.
type HTTPOptions struct {
	// PollTimeout is the long-poll wait; header and client timeouts are extended by it.
	PollTimeout time.Duration
	Retries     int
	// Backoff is the delay unit between attempts; negative disables waiting.
	Backoff time.Duration
	// Base replaces the default transport, mostly in tests.
	Base http.RoundTripper
}

// BuildHTTPClient returns an HTTP client for Bot API calls that retries
// transport failures (dial errors, timeouts) with linear backoff.
// API-level errors arrive as normal responses and are left to the sender.
func BuildHTTPClient(opts HTTPOptions) *http.Client {
	if opts.PollTimeout < 0 {
		opts.PollTimeout = 0
	}
	if opts.Retries <= 0 {
		opts.Retries = defaultRetryAttempts
	}
	switch {
	case opts.Backoff == 0:
		opts.Backoff = defaultRetryBackoff
	case opts.Backoff < 0:
		opts.Backoff = 0
	}
	base := opts.Base
	if base == nil {
		base = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: defaultDialTimeout, KeepAlive: defaultKeepAliveInterval}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          16,
			MaxIdleConnsPerHost:   16,
			IdleConnTimeout:       defaultIdleConnTimeout,
			TLSHandshakeTimeout:   defaultTLSHandshake,
			ResponseHeaderTimeout: defaultResponseTimeout + opts.PollTimeout,
			ExpectContinueTimeout: time.Second,
		}
	}
	return &http.Client{
		Timeout:   defaultClientTimeout + opts.PollTimeout,
		Transport: &retryTransport{base: base, retries: opts.Retries, backoff: opts.Backoff},
	}
}

type retryTransport struct {
	base    http.RoundTripper
	retries int
	backoff time.Duration
}

func (t *retryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	for attempt := 1; ; attempt++ {
		resp, err := t.base.RoundTrip(req)
		if err == nil || attempt > t.retries || !netutil.ShouldRetry(err) {
			return resp, err
		}

		next, rerr := rewind(req)
		if rerr != nil {
			return nil, err
		}
		req = next

		delay := t.backoff * time.Duration(attempt)
		logger.Debug(ctx, "tg", "http.retry",
			slog.Int("attempt", attempt),
			slog.Duration("backoff", delay),
			slog.String("err", logger.RedactToken(err.Error())),
		)
		if delay <= 0 {
			continue
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
}

// rewind clones req with a fresh body for another attempt.
func rewind(req *http.Request) (*http.Request, error) {
	next := req.Clone(req.Context())
	if req.Body == nil || req.Body == http.NoBody {
		return next, nil
	}
	if req.GetBody == nil {
		return nil, http.ErrBodyReadAfterClose
	}
	body, err := req.GetBody()
	if err != nil {
		return nil, err
	}
	next.Body = body
	return next, nil
}
