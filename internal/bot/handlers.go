package bot

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/m3rciful/stockbot/core/logger"
	"github.com/m3rciful/stockbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"
	"github.com/m3rciful/stockbot/internal/catalog"
	"github.com/m3rciful/stockbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

var errNoSender = errors.New("bot: update without sender")

func (b *Bot) onStart(c tele.Context) error {
	if err := tghelpers.SendText(c, msgWelcome, &tele.SendOptions{ReplyMarkup: mainKeyboard()}); err != nil {
		return err
	}
	if !b.access.Allowed(c) {
		return nil
	}
	return tghelpers.SendText(c, msgAdminMenu, &tele.SendOptions{ReplyMarkup: adminKeyboard()})
}

func (b *Bot) onHelp(c tele.Context) error {
	return tghelpers.SendText(c, b.helpText(b.access.Allowed(c)))
}

// helpText lists public commands, and admin-only ones for admins.
func (b *Bot) helpText(admin bool) string {
	var sb strings.Builder
	sb.WriteString(msgHelpHeader)
	if b.reg == nil {
		return sb.String()
	}
	for _, cmd := range b.reg.Menu(false) {
		sb.WriteString("\n" + cmd.Text + " - " + cmd.Description)
	}
	if !admin {
		return sb.String()
	}
	sb.WriteString("\n\n" + msgHelpAdmin)
	for _, cmd := range b.reg.Menu(true) {
		if meta := b.reg.Commands()[cmd.Text]; !meta.AdminOnly {
			continue
		}
		sb.WriteString("\n" + cmd.Text + " - " + cmd.Description)
	}
	return sb.String()
}

func (b *Bot) onCategories(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	cats, err := b.cat.ListCategories(ctx)
	if err != nil {
		logger.Error(ctx, "tg", "categories.fail", slog.String("err", err.Error()))
		return tghelpers.SendText(c, msgLoadFailed)
	}
	if len(cats) == 0 {
		return tghelpers.SendText(c, msgNoCategories)
	}
	lines := make([]string, 0, len(cats))
	for _, cat := range cats {
		lines = append(lines, categoryLine(cat))
	}
	return b.sendChunks(c, msgCategories, lines)
}

func (b *Bot) listHandler(kind catalog.ItemKind, sold bool) tele.HandlerFunc {
	header, empty := msgProducts, msgNoProducts
	switch {
	case sold:
		header, empty = msgSold, msgNoSold
	case kind == catalog.KindPhone:
		header, empty = msgPhones, msgNoPhones
	}
	return func(c tele.Context) error {
		ctx := tghelpers.BuildContext(c)
		items, err := b.cat.ListItems(ctx, kind, sold)
		if err != nil {
			logger.Error(ctx, "tg", "items.fail",
				slog.String("kind", string(kind)),
				slog.Bool("sold", sold),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, msgLoadFailed)
		}
		if len(items) == 0 {
			return tghelpers.SendText(c, empty)
		}
		lines := make([]string, 0, len(items))
		for _, it := range items {
			lines = append(lines, itemLine(it))
		}
		return b.sendChunks(c, header, lines)
	}
}

// onSold lists sold products followed by sold phones.
func (b *Bot) onSold(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	var lines []string
	for _, kind := range []catalog.ItemKind{catalog.KindProduct, catalog.KindPhone} {
		items, err := b.cat.ListItems(ctx, kind, true)
		if err != nil {
			logger.Error(ctx, "tg", "items.fail",
				slog.String("kind", string(kind)),
				slog.Bool("sold", true),
				slog.String("err", err.Error()),
			)
			return tghelpers.SendText(c, msgLoadFailed)
		}
		for _, it := range items {
			lines = append(lines, itemLine(it))
		}
	}
	if len(lines) == 0 {
		return tghelpers.SendText(c, msgNoSold)
	}
	return b.sendChunks(c, msgSold, lines)
}

func (b *Bot) sendChunks(c tele.Context, header string, lines []string) error {
	for _, msg := range chunkLines(header, lines, maxMessage) {
		if err := tghelpers.SendMD(c, msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) onAdd(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return errNoSender
	}
	return b.render(c, b.wiz.StartItem(tghelpers.BuildContext(c), user.ID))
}

func (b *Bot) onNewCategory(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return errNoSender
	}
	return b.render(c, b.wiz.StartCategory(tghelpers.BuildContext(c), user.ID))
}

func (b *Bot) onCancel(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return errNoSender
	}
	return b.render(c, b.wiz.Cancel(tghelpers.BuildContext(c), user.ID))
}

// onChoice feeds an inline button press to the wizard.
func (b *Bot) onChoice(c tele.Context) error {
	user := c.Sender()
	if user == nil {
		return errNoSender
	}
	token := callbacks.CallbackPayload(c)
	reply := b.wiz.Handle(tghelpers.BuildContext(c), wizard.Input{UserID: user.ID, Token: token})
	if reply.Outcome == wizard.OutcomeIdle {
		return c.Respond(&tele.CallbackResponse{Text: reply.Prompt.Text})
	}
	return b.render(c, reply)
}

// onMenu handles the admin inline menu.
func (b *Bot) onMenu(c tele.Context) error {
	switch callbacks.CallbackPayload(c) {
	case menuStock:
		return b.showStock(c, catalog.KindProduct, 0, false)
	case menuCategory:
		if !b.access.Allowed(c) {
			return b.access.OnReject(c)
		}
		return b.onNewCategory(c)
	case menuAdd:
		if !b.access.Allowed(c) {
			return b.access.OnReject(c)
		}
		return b.onAdd(c)
	}
	return b.UnknownCallback()(c)
}

// onSell starts the sale workflow for the item on a stock card.
func (b *Bot) onSell(c tele.Context) error {
	if !b.access.Allowed(c) {
		return b.access.OnReject(c)
	}
	short, id, err := callbacks.PayloadKeyInt64(c, "|")
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgBadPayload})
	}
	kind, err := catalog.ParseItemKind(short)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgBadPayload})
	}
	ref := catalog.ItemRef{Kind: kind, ID: id}
	return b.render(c, b.wiz.StartSale(tghelpers.BuildContext(c), c.Sender().ID, ref))
}
