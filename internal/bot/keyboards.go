package bot

import (
	"strconv"

	"github.com/m3rciful/stockbot/core/telegram/keyboard"
	"github.com/m3rciful/stockbot/internal/catalog"
	"github.com/m3rciful/stockbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

// Callback keys.
const (
	cbChoice = "wiz"
	cbMenu   = "menu"
	cbStock  = "stock"
	cbSell   = "sell"
)

// Admin menu payloads.
const (
	menuCategory = "category"
	menuAdd      = "add"
	menuStock    = "stock"
)

const choicesPerRow = 2

func mainKeyboard() *tele.ReplyMarkup {
	return keyboard.ReplyButtons(
		[]string{labelCategories, labelProducts},
		[]string{labelPhones, labelStock},
		[]string{labelHelp},
	)
}

func adminKeyboard() *tele.ReplyMarkup {
	return keyboard.InlineButtons([]keyboard.InlineBtn{
		{Text: labelNewCategory, Unique: cbMenu, Data: menuCategory},
		{Text: labelAddItem, Unique: cbMenu, Data: menuAdd},
		{Text: labelBrowse, Unique: cbMenu, Data: menuStock},
	})
}

// promptMarkup renders wizard choices as inline buttons. The cancel choice
// always gets a row of its own at the bottom.
func promptMarkup(p wizard.Prompt) *tele.ReplyMarkup {
	if len(p.Choices) == 0 {
		return nil
	}
	var (
		btns   []keyboard.InlineBtn
		cancel *keyboard.InlineBtn
	)
	for _, ch := range p.Choices {
		b := keyboard.InlineBtn{Text: ch.Label, Unique: cbChoice, Data: ch.Token}
		if ch.Token == wizard.TokenCancel {
			cancel = &b
			continue
		}
		btns = append(btns, b)
	}
	rows := keyboard.Chunk(btns, choicesPerRow)
	if cancel != nil {
		rows = append(rows, []keyboard.InlineBtn{*cancel})
	}
	return keyboard.InlineButtonsRows(rows...)
}

func refPayload(ref catalog.ItemRef) string {
	return ref.Kind.Short() + "|" + strconv.FormatInt(ref.ID, 10)
}

func pagePayload(kind catalog.ItemKind, index int) string {
	return kind.Short() + "|" + strconv.Itoa(index)
}

// stockMarkup builds navigation for the item at index out of total.
func stockMarkup(kind catalog.ItemKind, index, total int, ref catalog.ItemRef, canSell bool) *tele.ReplyMarkup {
	var nav []keyboard.InlineBtn
	if index > 0 {
		nav = append(nav, keyboard.InlineBtn{Text: labelPrev, Unique: cbStock, Data: pagePayload(kind, index-1)})
	}
	if index+1 < total {
		nav = append(nav, keyboard.InlineBtn{Text: labelNext, Unique: cbStock, Data: pagePayload(kind, index+1)})
	}
	var rows [][]keyboard.InlineBtn
	if len(nav) > 0 {
		rows = append(rows, nav)
	}
	if canSell && total > 0 {
		rows = append(rows, []keyboard.InlineBtn{{Text: labelSell, Unique: cbSell, Data: refPayload(ref)}})
	}
	other, label := catalog.KindPhone, labelShowPhones
	if kind == catalog.KindPhone {
		other, label = catalog.KindProduct, labelShowGoods
	}
	rows = append(rows, []keyboard.InlineBtn{{Text: label, Unique: cbStock, Data: pagePayload(other, 0)}})
	return keyboard.InlineButtonsRows(rows...)
}
