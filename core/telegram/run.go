package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coreconfig "github.com/m3rciful/stockbot/core/config"
	"github.com/m3rciful/stockbot/core/logger"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"
	tgsender "github.com/m3rciful/stockbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

// Middleware describes a global bot middleware to be registered via bot.Use.
type Middleware struct {
	Name string
	Use  func(next tele.HandlerFunc) tele.HandlerFunc
}

// Route declares a single bot handler bound to an arbitrary endpoint.
// Endpoint values are passed directly to tele.Bot.Handle.
type Route struct {
	Endpoint any
	Handler  tele.HandlerFunc
}

// RunOptions controls the behaviour of RunTelegram.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	DispatcherOptions tgsender.Options
	Dispatcher        *tgsender.Dispatcher

	Middlewares []Middleware
	Routes      []Route

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Dispatcher *tgsender.Dispatcher
	Registry   *Registry
	// Menu reports which command menus were published, admin scopes included.
	Menu MenuReport
}

// RunTelegram builds the bot, wires middleware, routes and menus, and serves
// updates until ctx is done. The helper dispatcher is installed for the run
// and removed afterwards.
func RunTelegram(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := opts.Config
	if cfg == nil {
		return errors.New("telegram: nil config provided")
	}
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}

	bot, err := newBot(ctx, cfg)
	if err != nil {
		return err
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = tgsender.NewDispatcher(opts.DispatcherOptions)
	}
	tghelpers.SetDispatcher(dispatcher)
	defer func() {
		dispatcher.Close()
		tghelpers.SetDispatcher(nil)
	}()

	for _, mw := range opts.Middlewares {
		if mw.Use != nil {
			bot.Use(mw.Use)
		}
	}
	for _, route := range opts.Routes {
		if route.Endpoint != nil && route.Handler != nil {
			bot.Handle(route.Endpoint, route.Handler)
		}
	}

	rt := Runtime{
		Dispatcher: dispatcher,
		Registry:   reg,
		Menu:       PublishMenu(bot, reg, cfg.Telegram.AdminIDs),
	}
	logger.TWire.Info("menu.published",
		slog.String("event", "menu.published"),
		slog.Int("public", rt.Menu.Public),
		slog.Int("admin", rt.Menu.Admin),
		slog.Int("admin_chats", rt.Menu.Scopes),
		slog.Int("failed", rt.Menu.Failed),
	)

	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			return err
		}
	}

	runErr := serve(ctx, bot)

	if opts.OnStop != nil {
		if err := opts.OnStop(ctx, rt); err != nil {
			return err
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

func newBot(ctx context.Context, cfg *coreconfig.Config) (*tele.Bot, error) {
	poller := BuildPoller(pollerOptions(cfg))
	start := time.Now()
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.Telegram.Token,
		Poller: poller,
		Client: BuildHTTPClient(HTTPOptions{PollTimeout: pollTimeout(cfg)}),
	})
	if err != nil {
		return nil, fmt.Errorf("telegram: bot initialization failed: %s", logger.RedactToken(err.Error()))
	}
	took := logger.Took(start)

	switch p := poller.(type) {
	case *tele.Webhook:
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "webhook mode",
			slog.String("event", "mode"),
			slog.String("mode", "webhook"),
			slog.String("listen", p.Listen),
			slog.String("public_url", p.Endpoint.PublicURL),
			slog.Bool("secret", p.SecretToken != ""),
			slog.Duration("duration", took),
		)
	case *tele.LongPoller:
		logger.TG.Info("polling mode",
			slog.String("event", "mode"),
			slog.String("mode", "polling"),
			slog.Duration("timeout", p.Timeout),
			slog.Duration("duration", took),
		)
		// A webhook left over from a previous deployment blocks getUpdates.
		if err := bot.RemoveWebhook(cfg.Telegram.DropPending); err != nil {
			logger.TG.Warn("failed to delete webhook",
				slog.String("event", "delete_webhook"),
				slog.String("err", logger.RedactToken(err.Error())),
			)
		}
	}
	return bot, nil
}

// serve runs the bot until it stops on its own or ctx is done.
func serve(ctx context.Context, bot *tele.Bot) error {
	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Start()
	}()
	select {
	case <-ctx.Done():
		bot.Stop()
		<-done
		return ctx.Err()
	case <-done:
		return nil
	}
}

func pollTimeout(cfg *coreconfig.Config) time.Duration {
	if !strings.EqualFold(cfg.Telegram.RunMode, coreconfig.RunModeLongpoll) {
		return 0
	}
	return time.Duration(pollSeconds(cfg.Telegram.LongPollTimeoutSeconds)) * time.Second
}
