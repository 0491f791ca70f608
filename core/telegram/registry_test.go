package telegram

import (
	"errors"
	"testing"
	"time"

	coreconfig "github.com/m3rciful/stockbot/core/config"
	"github.com/m3rciful/stockbot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

func noop(tele.Context) error { return nil }

func TestLookupCommandByAlias(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/products", commands.Command{Handler: noop, Description: "list", Aliases: []string{"Товары"}}); err != nil {
		t.Fatalf("register: %v", err)
	}

	key, _, ok := reg.LookupCommand("Товары")
	if !ok || key != "/products" {
		t.Fatalf("alias lookup = %q %v", key, ok)
	}
	if _, _, ok := reg.LookupCommand("products"); !ok {
		t.Fatal("expected lookup without slash")
	}
	if _, _, ok := reg.LookupCommand("/unknown"); ok {
		t.Fatal("unexpected match")
	}
}

func TestMenuHidesAdminOnly(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"})
	_ = reg.RegisterCommand("/add", commands.Command{Handler: noop, Description: "add", AdminOnly: true})
	if err := reg.RegisterCommand("nope", commands.Command{Handler: noop, Description: "no slash"}); err == nil {
		t.Fatal("expected error for command without slash")
	}

	_ = reg.RegisterCommand("/debug", commands.Command{Handler: noop, Description: "debug", AdminOnly: true, Hidden: true})

	visible := reg.Menu(false)
	if len(visible) != 1 || visible[0].Text != "/start" {
		t.Fatalf("visible = %+v", visible)
	}
	if all := reg.Menu(true); len(all) != 2 || all[0].Text != "/add" {
		t.Fatalf("admin menu = %+v", all)
	}
}

func TestRegisterCommandRejectsAliasClash(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCommand("/stock", commands.Command{Handler: noop, Description: "stock", Aliases: []string{"Склад"}}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCommand("/phones", commands.Command{Handler: noop, Description: "phones", Aliases: []string{"Склад"}}); err == nil {
		t.Fatal("expected alias clash")
	}
	if err := reg.RegisterCommand("/stock", commands.Command{Handler: noop, Description: "again"}); err == nil {
		t.Fatal("expected duplicate command error")
	}
	if _, _, ok := reg.LookupCommand("/phones"); ok {
		t.Fatal("rejected command must not be registered")
	}
}

type menuRecorder struct {
	calls   [][]tele.Command
	scopes  []int64
	failFor int64
}

func (m *menuRecorder) SetCommands(opts ...any) error {
	var scope int64
	for _, o := range opts {
		if s, ok := o.(tele.CommandScope); ok {
			scope = s.ChatID
		}
	}
	if scope != 0 && scope == m.failFor {
		return errors.New("chat not found")
	}
	m.calls = append(m.calls, opts[0].([]tele.Command))
	m.scopes = append(m.scopes, scope)
	return nil
}

func TestPublishMenuScopesAdminCommands(t *testing.T) {
	reg := NewRegistry()
	_ = reg.RegisterCommand("/start", commands.Command{Handler: noop, Description: "start"})
	_ = reg.RegisterCommand("/add", commands.Command{Handler: noop, Description: "add", AdminOnly: true})

	api := &menuRecorder{failFor: 13}
	rep := PublishMenu(api, reg, []int64{42, 13})

	if rep != (MenuReport{Public: 1, Admin: 2, Scopes: 1, Failed: 1}) {
		t.Fatalf("report = %+v", rep)
	}
	if len(api.calls) != 2 || api.scopes[0] != 0 || len(api.calls[0]) != 1 {
		t.Fatalf("default menu = %+v scopes %v", api.calls, api.scopes)
	}
	if api.scopes[1] != 42 || len(api.calls[1]) != 2 || api.calls[1][0].Text != "/add" {
		t.Fatalf("admin menu = %+v scopes %v", api.calls, api.scopes)
	}
}

func TestRegisterCallbackRejectsDuplicates(t *testing.T) {
	reg := NewRegistry()
	if err := reg.RegisterCallback("wiz", noop); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.RegisterCallback("wiz", noop); err == nil {
		t.Fatal("expected duplicate error")
	}
	if _, ok := reg.GetCallback("wiz"); !ok {
		t.Fatal("callback not found")
	}
}

func TestBuildPoller(t *testing.T) {
	p := BuildPoller(PollerOptions{RunMode: "webhook", Webhook: WebhookOptions{Listen: "0.0.0.0", Port: 8443, URL: "https://x"}})
	wh, ok := p.(*tele.Webhook)
	if !ok || wh.Listen != "0.0.0.0:8443" {
		t.Fatalf("poller = %#v", p)
	}
	if len(wh.AllowedUpdates) != 2 || wh.AllowedUpdates[1] != "callback_query" {
		t.Fatalf("webhook updates = %v", wh.AllowedUpdates)
	}
	lp, ok := BuildPoller(PollerOptions{RunMode: "longpoll"}).(*tele.LongPoller)
	if !ok || lp.Timeout != 10*time.Second || len(lp.AllowedUpdates) != 2 {
		t.Fatalf("longpoll = %#v", lp)
	}
}

func TestPollTimeoutExtendsClient(t *testing.T) {
	cfg := &coreconfig.Config{Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll, LongPollTimeoutSeconds: 25}}
	d := pollTimeout(cfg)
	if d != 25*time.Second {
		t.Fatalf("poll timeout = %v", d)
	}
	if c := BuildHTTPClient(HTTPOptions{PollTimeout: d}); c.Timeout <= d {
		t.Fatalf("client timeout %v must exceed poll wait %v", c.Timeout, d)
	}
	cfg.Telegram.RunMode = coreconfig.RunModeWebhook
	if pollTimeout(cfg) != 0 {
		t.Fatal("webhook mode has no poll wait")
	}
}

func TestDefaultMiddlewaresChain(t *testing.T) {
	names := func(mws []Middleware) []string {
		out := make([]string, 0, len(mws))
		for _, mw := range mws {
			out = append(out, mw.Name)
		}
		return out
	}
	cfg := &coreconfig.Config{}
	if got := names(DefaultMiddlewares(cfg, nil)); len(got) != 3 || got[1] != "logger" {
		t.Fatalf("without interval = %v", got)
	}
	cfg.RateLimit = coreconfig.RateLimitConfig{IntervalMS: 300, ExcludeUpdates: []string{"callback"}}
	if got := names(DefaultMiddlewares(cfg, noop)); len(got) != 4 || got[1] != "rate_limit" {
		t.Fatalf("with interval = %v", got)
	}
}
