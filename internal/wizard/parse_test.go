package wizard

import (
	"errors"
	"testing"

	"github.com/m3rciful/stockbot/internal/catalog"
)

func TestParsePrice(t *testing.T) {
	ok := map[string]string{
		"150":     "150.00",
		"150,5":   "150.50",
		"99.99":   "99.99",
		" 1 200 ": "1200.00",
		"0,01":    "0.01",
	}
	for in, want := range ok {
		got, err := parsePrice(Input{Text: in})
		if err != nil {
			t.Fatalf("parsePrice(%q): %v", in, err)
		}
		if got.StringFixed(2) != want {
			t.Fatalf("parsePrice(%q) = %s, want %s", in, got.StringFixed(2), want)
		}
	}
	for _, in := range []string{"", "abc", "-5", "0", "1.234", "1e3", "12,", "10000000000"} {
		_, err := parsePrice(Input{Text: in})
		var ie *InputError
		if !errors.As(err, &ie) {
			t.Fatalf("parsePrice(%q) err = %v, want InputError", in, err)
		}
	}
}

func TestParseQuantityAndBattery(t *testing.T) {
	if n, err := parseQuantity(Input{Text: " 3 "}); err != nil || n != 3 {
		t.Fatalf("quantity = %d, %v", n, err)
	}
	if n, err := parseQuantity(Input{Text: "2147483647"}); err != nil || n != 2147483647 {
		t.Fatalf("max quantity = %d, %v", n, err)
	}
	for _, in := range []string{"0", "-1", "1.5", "x", "2147483648", "3000000000"} {
		if _, err := parseQuantity(Input{Text: in}); err == nil {
			t.Fatalf("quantity %q accepted", in)
		}
	}
	for in, want := range map[string]int{"0": 0, "87%": 87, "100": 100} {
		if n, err := parseBattery(Input{Text: in}); err != nil || n != want {
			t.Fatalf("battery %q = %d, %v", in, n, err)
		}
	}
	for _, in := range []string{"101", "-1", "full"} {
		if _, err := parseBattery(Input{Text: in}); err == nil {
			t.Fatalf("battery %q accepted", in)
		}
	}
}

func TestParseYesNoAndSkip(t *testing.T) {
	if v, err := parseYesNo(Input{Token: TokenYes}); err != nil || !v {
		t.Fatalf("yes token = %v, %v", v, err)
	}
	if v, err := parseYesNo(Input{Text: "Нет"}); err != nil || v {
		t.Fatalf("нет = %v, %v", v, err)
	}
	if _, err := parseYesNo(Input{Text: "maybe"}); err == nil {
		t.Fatal("maybe accepted")
	}
	if !isSkip(Input{Text: "-"}) || !isSkip(Input{Token: TokenSkip}) || isSkip(Input{Text: "123"}) {
		t.Fatal("skip detection broken")
	}
}

func TestPickOption(t *testing.T) {
	opts := []catalog.Option{{ID: 3, Name: "Black"}, {ID: 5, Name: "Синий"}}
	if o, err := pickOption(opts, Input{Token: "5"}); err != nil || o.Name != "Синий" {
		t.Fatalf("token pick = %+v, %v", o, err)
	}
	if o, err := pickOption(opts, Input{Text: " black "}); err != nil || o.ID != 3 {
		t.Fatalf("text pick = %+v, %v", o, err)
	}
	if o, err := pickOption(opts, Input{Text: "СИНИЙ"}); err != nil || o.ID != 5 {
		t.Fatalf("cyrillic pick = %+v, %v", o, err)
	}
	if _, err := pickOption(opts, Input{Token: "9"}); err == nil {
		t.Fatal("stale token accepted")
	}
}

func TestPickCapacity(t *testing.T) {
	caps := []catalog.StorageCapacity{{ID: 1, Capacity: 64}, {ID: 2, Capacity: 128}}
	for _, in := range []Input{{Token: "2"}, {Text: "128"}, {Text: "128 GB"}, {Text: "128gb"}} {
		c, err := pickCapacity(caps, in)
		if err != nil || c.ID != 2 {
			t.Fatalf("pickCapacity(%+v) = %+v, %v", in, c, err)
		}
	}
	if _, err := pickCapacity(caps, Input{Text: "512"}); err == nil {
		t.Fatal("unknown capacity accepted")
	}
}

func TestClassifier(t *testing.T) {
	c := NewClassifier(nil, nil)
	if c.Classify(catalog.Category{Name: " Телефоны "}) != TrackPhone {
		t.Fatal("expected phone track for Телефоны")
	}
	if c.Classify(catalog.Category{Name: "PHONES"}) != TrackPhone {
		t.Fatal("expected phone track for PHONES")
	}
	if c.Classify(catalog.Category{Name: "Аксессуары"}) != TrackGeneric {
		t.Fatal("expected generic track")
	}
	if !c.IsUsed(catalog.Option{Name: "Б/У"}) || c.IsUsed(catalog.Option{Name: "Новый"}) {
		t.Fatal("used detection broken")
	}

	custom := NewClassifier([]string{"Смартфоны"}, []string{"refurbished"})
	if custom.Classify(catalog.Category{Name: "смартфоны"}) != TrackPhone {
		t.Fatal("custom phone category ignored")
	}
	if custom.Classify(catalog.Category{Name: "Телефоны"}) != TrackGeneric {
		t.Fatal("defaults must be replaced by custom names")
	}
}
