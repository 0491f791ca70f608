// Package bot binds the inventory wizard and catalog to Telegram updates.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/m3rciful/stockbot/core/logger"
	tg "github.com/m3rciful/stockbot/core/telegram"
	"github.com/m3rciful/stockbot/core/telegram/commands"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"
	"github.com/m3rciful/stockbot/core/telegram/middleware"
	"github.com/m3rciful/stockbot/core/telegram/ui"
	"github.com/m3rciful/stockbot/internal/catalog"
	"github.com/m3rciful/stockbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// Wizard is the conversation engine driven by the bot.
type Wizard interface {
	Active(userID int64) bool
	StartItem(ctx context.Context, userID int64) wizard.Reply
	StartCategory(ctx context.Context, userID int64) wizard.Reply
	StartSale(ctx context.Context, userID int64, ref catalog.ItemRef) wizard.Reply
	Handle(ctx context.Context, in wizard.Input) wizard.Reply
	Cancel(ctx context.Context, userID int64) wizard.Reply
	Remember(userID int64, messageID int)
}

// Catalog is the read side used by list and browse commands.
type Catalog interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListItems(ctx context.Context, kind catalog.ItemKind, sold bool) ([]catalog.Item, error)
}

// Sender delivers a message and returns it so its id can be tracked.
type Sender func(c tele.Context, what string, opts *tele.SendOptions) (*tele.Message, error)

// Bot holds Telegram handlers for the inventory manager.
type Bot struct {
	wiz    Wizard
	cat    Catalog
	access middleware.AdminOptions
	reg    *tg.Registry

	send    Sender
	discard func(c tele.Context, ids []int)
}

// Option customises a Bot.
type Option func(*Bot)

// WithSender replaces the synchronous sender used for wizard prompts.
func WithSender(s Sender) Option {
	return func(b *Bot) {
		if s != nil {
			b.send = s
		}
	}
}

// WithDiscard replaces how finished prompt messages are removed.
func WithDiscard(fn func(c tele.Context, ids []int)) Option {
	return func(b *Bot) {
		if fn != nil {
			b.discard = fn
		}
	}
}

// New creates a Bot. isAdmin is the allow-list predicate guarding every
// mutating entry point.
func New(wiz Wizard, cat Catalog, isAdmin func(int64) bool, opts ...Option) *Bot {
	b := &Bot{
		wiz:     wiz,
		cat:     cat,
		send:    sendSync,
		discard: tghelpers.DeleteMessages,
	}
	b.access = middleware.AdminOptions{IsAdmin: isAdmin, OnReject: b.Rejected()}
	for _, o := range opts {
		o(b)
	}
	return b
}

var _ ui.FallbackProvider = (*Bot)(nil)

func sendSync(c tele.Context, what string, opts *tele.SendOptions) (*tele.Message, error) {
	return c.Bot().Send(c.Recipient(), what, opts)
}

// Access returns the admin check shared with command routing.
func (b *Bot) Access() middleware.AdminOptions { return b.access }

// Register adds commands, callbacks and fallbacks to reg.
func (b *Bot) Register(reg *tg.Registry) error {
	b.reg = reg

	cmds := []struct {
		name string
		cmd  commands.Command
	}{
		{"/start", commands.Command{Handler: b.onStart, Description: "Главное меню"}},
		{"/help", commands.Command{Handler: b.onHelp, Description: "Справка", Aliases: []string{labelHelp}}},
		{"/categories", commands.Command{Handler: b.onCategories, Description: "Список категорий", Aliases: []string{labelCategories}}},
		{"/products", commands.Command{Handler: b.listHandler(catalog.KindProduct, false), Description: "Товары в наличии", Aliases: []string{labelProducts}}},
		{"/phones", commands.Command{Handler: b.listHandler(catalog.KindPhone, false), Description: "Телефоны в наличии", Aliases: []string{labelPhones}}},
		{"/stock", commands.Command{Handler: b.onStock, Description: "Просмотр склада", Aliases: []string{labelStock}}},
		{"/cancel", commands.Command{Handler: b.onCancel, Description: "Отменить текущее действие"}},
		{"/sold", commands.Command{Handler: b.onSold, Description: "Проданные товары", AdminOnly: true}},
		{"/add", commands.Command{Handler: b.onAdd, Description: "Добавить товар", AdminOnly: true}},
		{"/newcategory", commands.Command{Handler: b.onNewCategory, Description: "Создать категорию", AdminOnly: true}},
	}
	for _, c := range cmds {
		if err := reg.RegisterCommand(c.name, c.cmd); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}

	for key, h := range map[string]tele.HandlerFunc{
		cbChoice: b.onChoice,
		cbMenu:   b.onMenu,
		cbStock:  b.onStockPage,
		cbSell:   b.onSell,
	} {
		if err := reg.RegisterCallback(key, h); err != nil {
			return fmt.Errorf("bot: %w", err)
		}
	}
	reg.SetCallbackNotFound(b.UnknownCallback())
	reg.SetTextFallback(b.UnknownText())
	return nil
}

// InProgress reports whether text from userID belongs to a wizard run.
func (b *Bot) InProgress(userID int64) bool {
	return b.wiz.Active(userID)
}

// ManagerHandler feeds a typed answer to the wizard.
func (b *Bot) ManagerHandler(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return nil
	}
	if m := c.Message(); m != nil {
		b.wiz.Remember(user.ID, m.ID)
	}
	ctx := tghelpers.BuildContext(c)
	reply := b.wiz.Handle(ctx, wizard.Input{UserID: user.ID, Text: c.Text()})
	return b.render(c, reply)
}

// render shows a wizard reply: stale prompts are deleted, the next prompt is
// sent and remembered while the run continues.
func (b *Bot) render(c tele.Context, r wizard.Reply) error {
	b.discard(c, r.Discard)
	if r.Prompt.Text == "" {
		return nil
	}
	opts := &tele.SendOptions{ReplyMarkup: promptMarkup(r.Prompt)}
	if r.Done() {
		opts.ReplyMarkup = nil
	}
	msg, err := b.send(c, r.Prompt.Text, opts)
	if err != nil {
		return fmt.Errorf("send prompt: %w", err)
	}
	tghelpers.CountSent(c, opts.ReplyMarkup != nil)
	if !r.Done() && msg != nil {
		b.wiz.Remember(c.Sender().ID, msg.ID)
	}
	logger.Debug(tghelpers.BuildContext(c), "tg", "wizard.reply",
		slog.String("outcome", replyOutcome(r)),
		slog.String("op", string(r.Outcome)),
		slog.Int("discarded", len(r.Discard)),
	)
	return nil
}

func replyOutcome(r wizard.Reply) string {
	switch r.Outcome {
	case wizard.OutcomeFailed:
		return "fail"
	case wizard.OutcomeSaved, wizard.OutcomeSold, wizard.OutcomeContinue:
		return "ok"
	case wizard.OutcomeCancelled:
		return "cancelled"
	case wizard.OutcomeConflict, wizard.OutcomeExists:
		return "conflict"
	}
	return "skip"
}

// UnknownText answers text that matched no command outside a wizard run.
func (b *Bot) UnknownText() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, msgUnknownText) }
}

// UnknownDocument answers unexpected file uploads.
func (b *Bot) UnknownDocument() tele.HandlerFunc {
	return func(c tele.Context) error { return tghelpers.SendText(c, msgUnknownDoc) }
}

// UnknownCallback answers stale or foreign inline buttons.
func (b *Bot) UnknownCallback() tele.HandlerFunc {
	return func(c tele.Context) error {
		return c.Respond(&tele.CallbackResponse{Text: msgUnsupported})
	}
}

// Rejected answers non-admins invoking admin-only actions.
func (b *Bot) Rejected() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: msgDenied, ShowAlert: true})
		}
		return tghelpers.SendText(c, msgDenied)
	}
}

// Limited answers updates dropped by the rate limiter.
func (b *Bot) Limited() tele.HandlerFunc {
	return func(c tele.Context) error {
		if c.Callback() != nil {
			return c.Respond(&tele.CallbackResponse{Text: msgSlowDown})
		}
		return nil
	}
}
