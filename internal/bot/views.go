package bot

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/core/telegram/format"
	"github.com/m3rciful/stockbot/internal/catalog"
)

// maxMessage keeps list messages under Telegram's 4096 character limit.
const maxMessage = 3500

func money(d decimal.Decimal) string { return d.StringFixed(2) }

func yesNo(v bool) string {
	if v {
		return "да"
	}
	return "нет"
}

func categoryLine(c catalog.Category) string {
	return fmt.Sprintf("%d. %s", c.ID, format.MD(c.Name))
}

// itemLine is one row of /products, /phones and /sold.
func itemLine(it catalog.Item) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d %s: закупка %s", it.Ref.ID, format.MD(it.Name()), money(it.PurchasePrice()))
	if sp := it.SalePrice(); sp.Valid {
		if it.Sold() {
			fmt.Fprintf(&b, ", продан за %s", money(sp.Decimal))
		} else {
			fmt.Fprintf(&b, ", продажа %s", money(sp.Decimal))
		}
	}
	if p := it.Product; p != nil && p.Quantity > 1 {
		fmt.Fprintf(&b, ", %d шт.", p.Quantity)
	}
	return b.String()
}

// itemCard is the plain-text view shown by stock navigation.
func itemCard(it catalog.Item, index, total int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d из %d\n\n", index+1, total)
	switch {
	case it.Phone != nil:
		p := it.Phone
		fmt.Fprintf(&b, "📱 %s (ID: %d)\n", p.Name, p.ID)
		fmt.Fprintf(&b, "Рынок: %s\nЦвет: %s\nСостояние: %s\n", p.MarketName, p.ColorName, p.ConditionName)
		fmt.Fprintf(&b, "Батарея: %d%%\n", format.Deref(p.BatteryHealth, 100))
		fmt.Fprintf(&b, "Ремонт: %s\nПолный комплект: %s\n", yesNo(p.Repaired), yesNo(p.FullKit))
		fmt.Fprintf(&b, "IMEI: %s\nСерийный номер: %s\n", format.Deref(p.IMEI, "—"), format.Deref(p.SerialNumber, "—"))
	case it.Product != nil:
		p := it.Product
		fmt.Fprintf(&b, "📦 %s (ID: %d)\n", p.Name, p.ID)
		fmt.Fprintf(&b, "Категория: %s\nКоличество: %d\n", p.CategoryName, p.Quantity)
	}
	fmt.Fprintf(&b, "Закупка: %s", money(it.PurchasePrice()))
	if sp := it.SalePrice(); sp.Valid {
		fmt.Fprintf(&b, "\nЦена продажи: %s", money(sp.Decimal))
	}
	return b.String()
}

// chunkLines joins lines under header into messages no longer than max bytes.
func chunkLines(header string, lines []string, max int) []string {
	var (
		out []string
		b   strings.Builder
	)
	b.WriteString(header)
	for _, l := range lines {
		if b.Len() > 0 && b.Len()+len(l)+1 > max {
			out = append(out, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(l)
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
