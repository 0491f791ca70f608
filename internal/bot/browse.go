package bot

import (
	"log/slog"

	"github.com/m3rciful/stockbot/core/logger"
	"github.com/m3rciful/stockbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/stockbot/core/telegram/helpers"
	"github.com/m3rciful/stockbot/internal/catalog"

	tele "gopkg.in/telebot.v4"
)

func (b *Bot) onStock(c tele.Context) error {
	return b.showStock(c, catalog.KindProduct, 0, false)
}

// onStockPage moves the stock card to another index. The list is fetched
// again on every press so indices always refer to the current ordering.
func (b *Bot) onStockPage(c tele.Context) error {
	short, index, err := callbacks.PayloadKeyInt64(c, "|")
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgBadPayload})
	}
	kind, err := catalog.ParseItemKind(short)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: msgBadPayload})
	}
	return b.showStock(c, kind, int(index), true)
}

func (b *Bot) showStock(c tele.Context, kind catalog.ItemKind, index int, edit bool) error {
	ctx := tghelpers.BuildContext(c)
	items, err := b.cat.ListItems(ctx, kind, false)
	if err != nil {
		logger.Error(ctx, "tg", "stock.fail",
			slog.String("kind", string(kind)),
			slog.String("err", err.Error()),
		)
		return tghelpers.SendText(c, msgLoadFailed)
	}
	text, markup := b.stockPage(kind, items, index, b.access.Allowed(c))
	opts := &tele.SendOptions{ReplyMarkup: markup}
	if edit {
		return c.EditOrSend(text, opts)
	}
	return tghelpers.SendText(c, text, opts)
}

// stockPage renders the card at index, clamped to the list bounds.
func (b *Bot) stockPage(kind catalog.ItemKind, items []catalog.Item, index int, admin bool) (string, *tele.ReplyMarkup) {
	if len(items) == 0 {
		header := msgNoProducts
		if kind == catalog.KindPhone {
			header = msgNoPhones
		}
		return header, stockMarkup(kind, 0, 0, catalog.ItemRef{}, false)
	}
	index = max(0, min(index, len(items)-1))
	it := items[index]
	return itemCard(it, index, len(items)), stockMarkup(kind, index, len(items), it.Ref, admin)
}
