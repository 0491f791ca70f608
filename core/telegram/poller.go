package telegram

import (
	"net"
	"strconv"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/stockbot/core/config"

	tele "gopkg.in/telebot.v4"
)

const defaultPollSeconds = 10

// handledUpdates are the update kinds the routers handle; Telegram drops the rest.
var handledUpdates = []string{"message", "callback_query"}

// WebhookOptions declares webhook listener settings.
type WebhookOptions struct {
	Listen      string
	Port        int
	URL         string
	SecretToken string
}

// PollerOptions configures BuildPoller.
type PollerOptions struct {
	RunMode                string
	LongPollTimeoutSeconds int
	DropPending            bool
	Webhook                WebhookOptions
}

func pollerOptions(cfg *coreconfig.Config) PollerOptions {
	return PollerOptions{
		RunMode:                cfg.Telegram.RunMode,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		DropPending:            cfg.Telegram.DropPending,
		Webhook: WebhookOptions{
			Listen:      cfg.Webhook.Listen,
			Port:        cfg.Webhook.Port,
			URL:         cfg.Webhook.URL,
			SecretToken: cfg.Webhook.SecretToken,
		},
	}
}

// BuildPoller returns a webhook or long poller limited to message and callback updates.
func BuildPoller(opts PollerOptions) tele.Poller {
	if strings.EqualFold(strings.TrimSpace(opts.RunMode), coreconfig.RunModeWebhook) {
		return &tele.Webhook{
			Listen:         net.JoinHostPort(opts.Webhook.Listen, strconv.Itoa(opts.Webhook.Port)),
			Endpoint:       &tele.WebhookEndpoint{PublicURL: opts.Webhook.URL},
			SecretToken:    opts.Webhook.SecretToken,
			DropUpdates:    opts.DropPending,
			AllowedUpdates: handledUpdates,
		}
	}
	return &tele.LongPoller{
		Timeout:        time.Duration(pollSeconds(opts.LongPollTimeoutSeconds)) * time.Second,
		AllowedUpdates: handledUpdates,
	}
}

func pollSeconds(configured int) int {
	if configured <= 0 {
		return defaultPollSeconds
	}
	return configured
}
