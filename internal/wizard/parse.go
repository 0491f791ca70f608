package wizard

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/internal/catalog"
)

var priceRe = regexp.MustCompile(`^\d+([.,]\d{1,2})?$`)

// maxPrice keeps prices inside NUMERIC(12,2).
var maxPrice = decimal.New(1, 10)

// parsePrice accepts "150", "150.5" and "150,50".
func parsePrice(in Input) (decimal.Decimal, error) {
	raw := strings.ReplaceAll(strings.TrimSpace(in.Text), " ", "")
	if !priceRe.MatchString(raw) {
		return decimal.Decimal{}, invalid(msgBadPrice)
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.Decimal{}, invalid(msgBadPrice)
	}
	if !d.IsPositive() {
		return decimal.Decimal{}, invalid(msgPriceNotPositive)
	}
	if d.GreaterThanOrEqual(maxPrice) {
		return decimal.Decimal{}, invalid(msgPriceTooLarge)
	}
	return d, nil
}

// parseQuantity keeps quantities inside an INTEGER column.
func parseQuantity(in Input) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(in.Text))
	if err != nil || n < 1 || n > math.MaxInt32 {
		return 0, invalid(msgBadQuantity)
	}
	return n, nil
}

func parseBattery(in Input) (int, error) {
	raw := strings.TrimSuffix(strings.TrimSpace(in.Text), "%")
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 0 || n > 100 {
		return 0, invalid(msgBadBattery)
	}
	return n, nil
}

func parseYesNo(in Input) (bool, error) {
	switch in.Token {
	case TokenYes:
		return true, nil
	case TokenNo:
		return false, nil
	}
	switch normalize(in.Text) {
	case "да", "yes", "y", "+":
		return true, nil
	case "нет", "no", "n":
		return false, nil
	}
	return false, invalid(msgBadYesNo)
}

func isSkip(in Input) bool {
	if in.Token == TokenSkip {
		return true
	}
	switch normalize(in.Text) {
	case "-", "skip", "пропустить":
		return true
	}
	return false
}

func isCancel(in Input) bool {
	if in.Token == TokenCancel {
		return true
	}
	switch normalize(in.Text) {
	case "/cancel", "отмена", "cancel":
		return true
	}
	return false
}

// freeText trims the answer and bounds its length in runes.
func freeText(in Input, max int) (string, error) {
	s := strings.TrimSpace(in.Text)
	if s == "" {
		return "", invalid(msgEmptyText)
	}
	if utf8.RuneCountInString(s) > max {
		return "", invalid(msgTextTooLong, max)
	}
	return s, nil
}

// optionalText is freeText that also accepts a skip, returning nil.
func optionalText(in Input, max int) (*string, error) {
	if isSkip(in) {
		return nil, nil
	}
	s, err := freeText(in, max)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// pickOption resolves a button token or a typed name against the current choice set.
func pickOption(opts []catalog.Option, in Input) (catalog.Option, error) {
	if in.Token != "" {
		id, err := strconv.ParseInt(in.Token, 10, 64)
		if err == nil {
			for _, o := range opts {
				if o.ID == id {
					return o, nil
				}
			}
		}
		return catalog.Option{}, invalid(msgUnknownChoice)
	}
	want := normalize(in.Text)
	for _, o := range opts {
		if normalize(o.Name) == want {
			return o, nil
		}
	}
	return catalog.Option{}, invalid(msgUnknownChoice)
}

func pickCategory(cats []catalog.Category, in Input) (catalog.Category, error) {
	opts := make([]catalog.Option, len(cats))
	for i, c := range cats {
		opts[i] = catalog.Option{ID: c.ID, Name: c.Name}
	}
	o, err := pickOption(opts, in)
	if err != nil {
		return catalog.Category{}, err
	}
	return catalog.Category{ID: o.ID, Name: o.Name}, nil
}

// pickCapacity accepts a token, the label ("128 GB") or the bare number.
func pickCapacity(caps []catalog.StorageCapacity, in Input) (catalog.StorageCapacity, error) {
	opts := make([]catalog.Option, len(caps))
	for i, c := range caps {
		opts[i] = catalog.Option{ID: c.ID, Name: c.Label()}
	}
	if o, err := pickOption(opts, in); err == nil {
		for _, c := range caps {
			if c.ID == o.ID {
				return c, nil
			}
		}
	}
	if in.Token == "" {
		raw := strings.TrimSpace(strings.TrimSuffix(normalize(in.Text), "gb"))
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			for _, c := range caps {
				if c.Capacity == n {
					return c, nil
				}
			}
		}
	}
	return catalog.StorageCapacity{}, invalid(msgUnknownChoice)
}
