package wizard

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	msgBadPrice         = "Некорректная цена. Введите число, например 150 или 99,90."
	msgPriceNotPositive = "Цена должна быть больше нуля."
	msgPriceTooLarge    = "Слишком большая сумма."
	msgBadQuantity      = "Количество должно быть целым числом не меньше 1."
	msgBadBattery       = "Введите состояние батареи целым числом от 0 до 100."
	msgBadYesNo         = "Ответьте «Да» или «Нет»."
	msgEmptyText        = "Значение не может быть пустым."
	msgTextTooLong      = "Слишком длинное значение: не больше %d символов."
	msgUnknownChoice    = "Выберите вариант из списка."

	msgNoCategories = "Категорий пока нет. Сначала создайте категорию."
	msgNoBrands     = "Нет ни одного бренда. Добавьте бренды в справочник."
	msgNoModels     = "Для бренда %s нет моделей. Добавьте модели в справочник."
	msgNoStorage    = "Справочник объёмов памяти пуст."
	msgNoMarkets    = "Справочник рынков пуст."
	msgNoColors     = "Справочник цветов пуст."
	msgNoConditions = "Справочник состояний пуст."

	msgAskCategory     = "Выберите категорию:"
	msgAskName         = "Введите название товара:"
	msgAskPurchase     = "Введите закупочную цену:"
	msgAskSalePrice    = "Введите цену продажи или пропустите:"
	msgAskQuantity     = "Введите количество или пропустите (будет 1):"
	msgAskBrand        = "Выберите бренд:"
	msgAskModel        = "Выберите модель %s:"
	msgAskStorage      = "Выберите объём памяти:"
	msgAskMarket       = "Выберите рынок:"
	msgAskPhonePrice   = "Введите закупочную цену для %s:"
	msgAskColor        = "Выберите цвет:"
	msgAskCondition    = "Выберите состояние:"
	msgAskBattery      = "Введите состояние батареи в процентах (0–100):"
	msgAskRepaired     = "Телефон был в ремонте?"
	msgAskFullKit      = "Полный комплект?"
	msgAskIMEI         = "Введите IMEI (до 17 символов) или пропустите:"
	msgAskSerial       = "Введите серийный номер (до 50 символов) или пропустите:"
	msgAskCategoryName = "Введите название новой категории:"
	msgAskSaleAmount   = "Введите цену продажи для «%s» (закупка %s):"

	msgCancelled      = "Действие отменено."
	msgNothingToDo    = "Нет активного действия."
	msgSaveFailed     = "Не удалось сохранить. Начните заново."
	msgCategoryExists = "Категория «%s» уже существует."
	msgCategoryAdded  = "Категория «%s» (ID: %d) успешно добавлена."
	msgItemNotFound   = "Товар не найден: возможно, он был удалён."
	msgAlreadySold    = "Этот товар уже продан."
	msgSaleFailed     = "Не удалось провести продажу. Попробуйте ещё раз."

	labelCancel = "Отмена"
	labelSkip   = "Пропустить"
	labelYes    = "Да"
	labelNo     = "Нет"
)

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func optionalMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return "—"
	}
	return money(d.Decimal)
}

func yesNo(v bool) string {
	if v {
		return labelYes
	}
	return labelNo
}

func orDash(s *string) string {
	if s == nil {
		return "—"
	}
	return *s
}

func productSummary(id int64, d ProductDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Товар добавлен (ID: %d)\n", id)
	fmt.Fprintf(&b, "Название: %s\n", d.Name)
	fmt.Fprintf(&b, "Категория: %s\n", d.CategoryName)
	fmt.Fprintf(&b, "Закупка: %s\n", money(d.PurchasePrice))
	fmt.Fprintf(&b, "Продажа: %s\n", optionalMoney(d.SalePrice))
	fmt.Fprintf(&b, "Количество: %d", d.Quantity)
	return b.String()
}

func phoneSummary(id int64, d PhoneDraft) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Телефон добавлен (ID: %d)\n", id)
	fmt.Fprintf(&b, "%s, %s, %s\n", phoneName(d), d.ColorName, d.MarketName)
	fmt.Fprintf(&b, "Закупка: %s\n", money(d.PurchasePrice))
	fmt.Fprintf(&b, "Состояние: %s\n", d.ConditionName)
	if d.BatteryHealth != nil {
		fmt.Fprintf(&b, "Батарея: %d%%\n", *d.BatteryHealth)
	}
	fmt.Fprintf(&b, "Ремонт: %s, комплект: %s\n", yesNo(d.Repaired), yesNo(d.FullKit))
	fmt.Fprintf(&b, "IMEI: %s, S/N: %s", orDash(d.IMEI), orDash(d.SerialNumber))
	return b.String()
}

func saleSummary(name string, price, profit decimal.Decimal) string {
	label := "Прибыль"
	if profit.IsNegative() {
		label = "Убыток"
	}
	return fmt.Sprintf("Продано: %s за %s.\n%s: %s", name, money(price), label, money(profit.Abs()))
}

func phoneName(d PhoneDraft) string {
	return fmt.Sprintf("%s %s %dGB", d.BrandName, d.ModelName, d.Capacity)
}
