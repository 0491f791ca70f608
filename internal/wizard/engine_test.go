package wizard

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/core/telegram/state"
	"github.com/m3rciful/stockbot/internal/catalog"
)

type fakeCatalog struct {
	categories []catalog.Category
	conditions []catalog.Option
	brands     []catalog.Option
	models     map[int64][]catalog.Option
	capacities []catalog.StorageCapacity
	markets    []catalog.Option
	colors     []catalog.Option

	createdCategories map[string]int64
	products          []catalog.NewProduct
	phones            []catalog.NewPhone
	items             map[catalog.ItemRef]catalog.Item

	insertErr error
	saleErr   error
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		categories: []catalog.Category{{ID: 1, Name: "Аксессуары"}, {ID: 2, Name: "Телефоны"}},
		conditions: []catalog.Option{{ID: 1, Name: "Б/у"}, {ID: 2, Name: "New"}},
		brands:     []catalog.Option{{ID: 1, Name: "Acme"}},
		models:     map[int64][]catalog.Option{1: {{ID: 10, Name: "X1"}}},
		capacities: []catalog.StorageCapacity{{ID: 1, Capacity: 64}, {ID: 2, Capacity: 128}},
		markets:    []catalog.Option{{ID: 1, Name: "EU"}},
		colors:     []catalog.Option{{ID: 1, Name: "Black"}},

		createdCategories: map[string]int64{},
		items:             map[catalog.ItemRef]catalog.Item{},
	}
}

func (f *fakeCatalog) ListCategories(context.Context) ([]catalog.Category, error) {
	return f.categories, nil
}
func (f *fakeCatalog) ListConditions(context.Context) ([]catalog.Option, error) {
	return f.conditions, nil
}
func (f *fakeCatalog) ListBrands(context.Context) ([]catalog.Option, error) { return f.brands, nil }
func (f *fakeCatalog) ListModels(_ context.Context, brandID int64) ([]catalog.Option, error) {
	return f.models[brandID], nil
}
func (f *fakeCatalog) ListStorageCapacities(context.Context) ([]catalog.StorageCapacity, error) {
	return f.capacities, nil
}
func (f *fakeCatalog) ListMarkets(context.Context) ([]catalog.Option, error) { return f.markets, nil }
func (f *fakeCatalog) ListColors(context.Context) ([]catalog.Option, error)  { return f.colors, nil }

func (f *fakeCatalog) InsertCategory(_ context.Context, name string) (int64, error) {
	if _, ok := f.createdCategories[name]; ok {
		return 0, catalog.ErrCategoryExists
	}
	id := int64(len(f.createdCategories) + 100)
	f.createdCategories[name] = id
	return id, nil
}

func (f *fakeCatalog) InsertProduct(_ context.Context, p catalog.NewProduct) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.products = append(f.products, p)
	return int64(len(f.products)), nil
}

func (f *fakeCatalog) InsertPhone(_ context.Context, p catalog.NewPhone) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.phones = append(f.phones, p)
	return int64(len(f.phones)), nil
}

func (f *fakeCatalog) GetItem(_ context.Context, ref catalog.ItemRef) (catalog.Item, error) {
	it, ok := f.items[ref]
	if !ok {
		return catalog.Item{}, catalog.ErrNotFound
	}
	return it, nil
}

func (f *fakeCatalog) MarkSold(_ context.Context, ref catalog.ItemRef, price decimal.Decimal) (catalog.SaleResult, error) {
	if f.saleErr != nil {
		return catalog.SaleResult{}, f.saleErr
	}
	it, ok := f.items[ref]
	if !ok {
		return catalog.SaleResult{}, catalog.ErrNotFound
	}
	if it.Sold() {
		return catalog.SaleResult{}, catalog.ErrAlreadySold
	}
	it.Product.IsSold = true
	return catalog.SaleResult{
		Ref:           ref,
		Name:          it.Name(),
		PurchasePrice: it.PurchasePrice(),
		SalePrice:     price,
		Profit:        price.Sub(it.PurchasePrice()),
		LedgerID:      1,
	}, nil
}

func newEngine(t *testing.T, cat *fakeCatalog) *Engine {
	t.Helper()
	store, err := state.NewStore[Conversation](16, 0)
	if err != nil {
		t.Fatalf("state store: %v", err)
	}
	n := 0
	return New(cat, store, WithRunIDs(func() string {
		n++
		return "run-" + strconv.Itoa(n)
	}))
}

// answer sends typed text and fails unless the run moves on.
func answer(t *testing.T, e *Engine, userID int64, text string) Reply {
	t.Helper()
	r := e.Handle(context.Background(), Input{UserID: userID, Text: text})
	if r.Outcome == OutcomeRetry || r.Outcome == OutcomeFailed || r.Outcome == OutcomeAborted {
		t.Fatalf("answer %q: outcome %s (%s)", text, r.Outcome, r.Prompt.Text)
	}
	return r
}

func press(t *testing.T, e *Engine, userID int64, token string) Reply {
	t.Helper()
	r := e.Handle(context.Background(), Input{UserID: userID, Token: token})
	if r.Outcome == OutcomeRetry || r.Outcome == OutcomeFailed || r.Outcome == OutcomeAborted {
		t.Fatalf("press %q: outcome %s (%s)", token, r.Outcome, r.Prompt.Text)
	}
	return r
}

func expectStep(t *testing.T, e *Engine, userID int64, want Step) {
	t.Helper()
	got, ok := e.Current(userID)
	if !ok || got != want {
		t.Fatalf("step = %q (active %v), want %q", got, ok, want)
	}
}

func hasChoice(p Prompt, token string) bool {
	for _, c := range p.Choices {
		if c.Token == token {
			return true
		}
	}
	return false
}

func TestGenericRunWithSkippedFields(t *testing.T) {
	cat := newFakeCatalog()
	e := newEngine(t, cat)
	ctx := context.Background()

	r := e.StartItem(ctx, 1)
	if r.Outcome != OutcomeContinue || !hasChoice(r.Prompt, "1") || !hasChoice(r.Prompt, TokenCancel) {
		t.Fatalf("start reply = %+v", r)
	}
	e.Remember(1, 501)
	press(t, e, 1, "1")
	expectStep(t, e, 1, StepName)
	e.Remember(1, 502)
	answer(t, e, 1, "Чехол силиконовый")
	expectStep(t, e, 1, StepPurchasePrice)
	answer(t, e, 1, "100,50")
	expectStep(t, e, 1, StepSalePrice)
	r = press(t, e, 1, TokenSkip)
	if !hasChoice(r.Prompt, TokenSkip) {
		t.Fatal("quantity prompt must offer skip")
	}
	r = press(t, e, 1, TokenSkip)

	if r.Outcome != OutcomeSaved || r.Ref != catalog.ProductRef(1) {
		t.Fatalf("final reply = %+v", r)
	}
	if e.Active(1) {
		t.Fatal("state must be cleared after save")
	}
	if len(r.Discard) != 2 || r.Discard[0] != 501 || r.Discard[1] != 502 {
		t.Fatalf("discard = %v", r.Discard)
	}
	p := cat.products[0]
	if p.Name != "Чехол силиконовый" || p.CategoryID != 1 || p.Quantity != 1 || p.SalePrice.Valid {
		t.Fatalf("product = %+v", p)
	}
	if p.PurchasePrice.StringFixed(2) != "100.50" {
		t.Fatalf("purchase = %s", p.PurchasePrice)
	}
}

func TestGenericRunWithAllFields(t *testing.T) {
	cat := newFakeCatalog()
	e := newEngine(t, cat)

	e.StartItem(context.Background(), 1)
	answer(t, e, 1, "аксессуары")
	answer(t, e, 1, "Кабель")
	answer(t, e, 1, "10")
	answer(t, e, 1, "19.99")
	r := answer(t, e, 1, "4")

	if r.Outcome != OutcomeSaved {
		t.Fatalf("outcome = %s", r.Outcome)
	}
	p := cat.products[0]
	if !p.SalePrice.Valid || p.SalePrice.Decimal.StringFixed(2) != "19.99" || p.Quantity != 4 {
		t.Fatalf("product = %+v", p)
	}
	if !strings.Contains(r.Prompt.Text, "Кабель") {
		t.Fatalf("summary = %q", r.Prompt.Text)
	}
}

func TestPhoneRunWithNewConditionUsesDefaults(t *testing.T) {
	cat := newFakeCatalog()
	e := newEngine(t, cat)

	e.StartItem(context.Background(), 1)
	press(t, e, 1, "2")
	expectStep(t, e, 1, StepBrand)
	answer(t, e, 1, "Acme")
	answer(t, e, 1, "X1")
	answer(t, e, 1, "128")
	answer(t, e, 1, "EU")
	expectStep(t, e, 1, StepPhonePrice)
	answer(t, e, 1, "300")
	answer(t, e, 1, "Black")
	answer(t, e, 1, "New")
	expectStep(t, e, 1, StepIMEI)
	answer(t, e, 1, "356938035643809")
	r := press(t, e, 1, TokenSkip)

	if r.Outcome != OutcomeSaved || r.Ref != catalog.PhoneRef(1) {
		t.Fatalf("final reply = %+v", r)
	}
	ph := cat.phones[0]
	if ph.Name != "Acme X1 128GB" || ph.ModelID != 10 || ph.StorageCapacityID != 2 || ph.ConditionID != 2 {
		t.Fatalf("phone = %+v", ph)
	}
	if ph.BatteryHealth == nil || *ph.BatteryHealth != 100 || ph.Repaired || !ph.FullKit {
		t.Fatalf("defaults = battery %v repaired %v kit %v", ph.BatteryHealth, ph.Repaired, ph.FullKit)
	}
	if ph.IMEI == nil || *ph.IMEI != "356938035643809" || ph.SerialNumber != nil {
		t.Fatalf("imei/serial = %v/%v", ph.IMEI, ph.SerialNumber)
	}
	if !ph.PurchasePrice.Equal(decimal.NewFromInt(300)) {
		t.Fatalf("price = %s", ph.PurchasePrice)
	}
}

func TestPhoneRunWithUsedConditionAsksDetails(t *testing.T) {
	cat := newFakeCatalog()
	e := newEngine(t, cat)

	e.StartItem(context.Background(), 1)
	press(t, e, 1, "2")
	press(t, e, 1, "1")
	press(t, e, 1, "10")
	press(t, e, 1, "1")
	press(t, e, 1, "1")
	answer(t, e, 1, "250")
	press(t, e, 1, "1")
	press(t, e, 1, "1")
	expectStep(t, e, 1, StepBattery)

	r := e.Handle(context.Background(), Input{UserID: 1, Text: "101"})
	if r.Outcome != OutcomeRetry || !strings.HasPrefix(r.Prompt.Text, msgBadBattery) {
		t.Fatalf("battery 101 reply = %+v", r)
	}
	expectStep(t, e, 1, StepBattery)

	answer(t, e, 1, "85")
	press(t, e, 1, TokenYes)
	answer(t, e, 1, "нет")
	expectStep(t, e, 1, StepIMEI)
	answer(t, e, 1, "-")
	r = answer(t, e, 1, "SN-42")

	if r.Outcome != OutcomeSaved {
		t.Fatalf("outcome = %s", r.Outcome)
	}
	ph := cat.phones[0]
	if *ph.BatteryHealth != 85 || !ph.Repaired || ph.FullKit || ph.IMEI != nil || *ph.SerialNumber != "SN-42" {
		t.Fatalf("phone = %+v", ph)
	}
}

func TestInvalidAnswerDoesNotTransition(t *testing.T) {
	e := newEngine(t, newFakeCatalog())
	e.StartItem(context.Background(), 1)
	before, _ := e.states.Get(1)

	r := e.Handle(context.Background(), Input{UserID: 1, Token: "999"})
	if r.Outcome != OutcomeRetry || r.Done() {
		t.Fatalf("reply = %+v", r)
	}
	if !strings.HasPrefix(r.Prompt.Text, msgUnknownChoice) || !hasChoice(r.Prompt, "1") {
		t.Fatalf("retry prompt = %+v", r.Prompt)
	}
	after, _ := e.states.Get(1)
	if after.Step != before.Step || after.RunID != before.RunID {
		t.Fatalf("state changed: %+v -> %+v", before, after)
	}
}

func TestOversizedQuantityIsAskedAgain(t *testing.T) {
	cat := newFakeCatalog()
	e := newEngine(t, cat)
	e.StartItem(context.Background(), 1)
	answer(t, e, 1, "аксессуары")
	answer(t, e, 1, "Кабель")
	answer(t, e, 1, "10")
	answer(t, e, 1, "-")

	r := e.Handle(context.Background(), Input{UserID: 1, Text: "3000000000"})
	if r.Outcome != OutcomeRetry || !strings.HasPrefix(r.Prompt.Text, msgBadQuantity) {
		t.Fatalf("reply = %+v", r)
	}
	expectStep(t, e, 1, StepQuantity)
	if len(cat.products) != 0 {
		t.Fatalf("products = %+v", cat.products)
	}
}

func TestEmptyBrandsAbortRun(t *testing.T) {
	cat := newFakeCatalog()
	cat.brands = nil
	e := newEngine(t, cat)

	e.StartItem(context.Background(), 1)
	e.Remember(1, 77)
	r := e.Handle(context.Background(), Input{UserID: 1, Token: "2"})
	if r.Outcome != OutcomeAborted || r.Prompt.Text != msgNoBrands {
		t.Fatalf("reply = %+v", r)
	}
	if e.Active(1) {
		t.Fatal("state must be cleared on missing reference data")
	}
	if len(r.Discard) != 1 || r.Discard[0] != 77 {
		t.Fatalf("discard = %v", r.Discard)
	}
}

func TestEmptyCategoriesAbortOnStart(t *testing.T) {
	cat := newFakeCatalog()
	cat.categories = nil
	e := newEngine(t, cat)

	r := e.StartItem(context.Background(), 1)
	if r.Outcome != OutcomeAborted || e.Active(1) {
		t.Fatalf("reply = %+v active=%v", r, e.Active(1))
	}
}

func TestPersistenceFailureClearsState(t *testing.T) {
	cat := newFakeCatalog()
	cat.insertErr = errors.New("connection reset")
	e := newEngine(t, cat)

	e.StartItem(context.Background(), 1)
	press(t, e, 1, "1")
	answer(t, e, 1, "Кабель")
	answer(t, e, 1, "10")
	press(t, e, 1, TokenSkip)
	r := e.Handle(context.Background(), Input{UserID: 1, Token: TokenSkip})

	if r.Outcome != OutcomeFailed || r.Prompt.Text != msgSaveFailed {
		t.Fatalf("reply = %+v", r)
	}
	if e.Active(1) {
		t.Fatal("state must be cleared after a failed insert")
	}
}

func TestCancelDiscardsPrompts(t *testing.T) {
	e := newEngine(t, newFakeCatalog())
	e.StartItem(context.Background(), 1)
	e.Remember(1, 10)
	press(t, e, 1, "1")
	e.Remember(1, 11)

	r := e.Handle(context.Background(), Input{UserID: 1, Token: TokenCancel})
	if r.Outcome != OutcomeCancelled || len(r.Discard) != 2 {
		t.Fatalf("reply = %+v", r)
	}
	if r := e.Handle(context.Background(), Input{UserID: 1, Text: "x"}); r.Outcome != OutcomeIdle {
		t.Fatalf("after cancel outcome = %s", r.Outcome)
	}
	if r := e.Cancel(context.Background(), 1); r.Outcome != OutcomeIdle {
		t.Fatalf("second cancel outcome = %s", r.Outcome)
	}
}

func TestRestartDiscardsPreviousRun(t *testing.T) {
	e := newEngine(t, newFakeCatalog())
	e.StartItem(context.Background(), 1)
	e.Remember(1, 5)

	r := e.StartCategory(context.Background(), 1)
	if r.Outcome != OutcomeContinue || len(r.Discard) != 1 || r.Discard[0] != 5 {
		t.Fatalf("reply = %+v", r)
	}
	expectStep(t, e, 1, StepCategoryName)
}

func TestCategoryCreationIsIdempotent(t *testing.T) {
	cat := newFakeCatalog()
	e := newEngine(t, cat)

	e.StartCategory(context.Background(), 1)
	r := answer(t, e, 1, "Electronics")
	if r.Outcome != OutcomeSaved || r.CategoryID == 0 {
		t.Fatalf("first reply = %+v", r)
	}

	e.StartCategory(context.Background(), 1)
	r = e.Handle(context.Background(), Input{UserID: 1, Text: "Electronics"})
	if r.Outcome != OutcomeExists || e.Active(1) {
		t.Fatalf("second reply = %+v", r)
	}
	if len(cat.createdCategories) != 1 {
		t.Fatalf("categories = %v", cat.createdCategories)
	}
}

func TestCategoryNameMustNotBeBlank(t *testing.T) {
	e := newEngine(t, newFakeCatalog())
	e.StartCategory(context.Background(), 1)
	r := e.Handle(context.Background(), Input{UserID: 1, Text: "   "})
	if r.Outcome != OutcomeRetry {
		t.Fatalf("outcome = %s", r.Outcome)
	}
	expectStep(t, e, 1, StepCategoryName)
}

func addProduct(cat *fakeCatalog, id int64, purchase string, sold bool) catalog.ItemRef {
	ref := catalog.ProductRef(id)
	cat.items[ref] = catalog.Item{Ref: ref, Product: &catalog.Product{
		ID: id, Name: "Наушники", PurchasePrice: decimal.RequireFromString(purchase), Quantity: 1, IsSold: sold,
	}}
	return ref
}

func TestSaleReportsExactProfit(t *testing.T) {
	cat := newFakeCatalog()
	ref := addProduct(cat, 7, "100", false)
	e := newEngine(t, cat)

	r := e.StartSale(context.Background(), 1, ref)
	if r.Outcome != OutcomeContinue || !strings.Contains(r.Prompt.Text, "100.00") {
		t.Fatalf("start reply = %+v", r)
	}
	expectStep(t, e, 1, StepSaleAmount)

	r = answer(t, e, 1, "150")
	if r.Outcome != OutcomeSold || r.Sale == nil {
		t.Fatalf("reply = %+v", r)
	}
	if r.Sale.Profit.StringFixed(2) != "50.00" {
		t.Fatalf("profit = %s", r.Sale.Profit.StringFixed(2))
	}
	if !strings.Contains(r.Prompt.Text, "Прибыль: 50.00") {
		t.Fatalf("summary = %q", r.Prompt.Text)
	}
	if e.Active(1) {
		t.Fatal("state must be cleared after sale")
	}
}

func TestSaleAtLossIsReported(t *testing.T) {
	cat := newFakeCatalog()
	ref := addProduct(cat, 8, "100", false)
	e := newEngine(t, cat)

	e.StartSale(context.Background(), 1, ref)
	r := answer(t, e, 1, "80,5")
	if !strings.Contains(r.Prompt.Text, "Убыток: 19.50") {
		t.Fatalf("summary = %q", r.Prompt.Text)
	}
}

func TestSaleOfAlreadySoldItem(t *testing.T) {
	cat := newFakeCatalog()
	ref := addProduct(cat, 9, "100", true)
	e := newEngine(t, cat)

	r := e.StartSale(context.Background(), 1, ref)
	if r.Outcome != OutcomeConflict || r.Prompt.Text != msgAlreadySold || e.Active(1) {
		t.Fatalf("reply = %+v", r)
	}
	r = e.StartSale(context.Background(), 1, catalog.PhoneRef(404))
	if r.Outcome != OutcomeConflict || r.Prompt.Text != msgItemNotFound {
		t.Fatalf("missing item reply = %+v", r)
	}
}

func TestSaleRacingAnotherSale(t *testing.T) {
	cat := newFakeCatalog()
	ref := addProduct(cat, 10, "100", false)
	e := newEngine(t, cat)

	e.StartSale(context.Background(), 1, ref)
	e.StartSale(context.Background(), 2, ref)
	if r := answer(t, e, 2, "120"); r.Outcome != OutcomeSold {
		t.Fatalf("first seller outcome = %s", r.Outcome)
	}
	r := e.Handle(context.Background(), Input{UserID: 1, Text: "130"})
	if r.Outcome != OutcomeConflict || r.Prompt.Text != msgAlreadySold {
		t.Fatalf("second seller reply = %+v", r)
	}
	if e.Active(1) {
		t.Fatal("state must be cleared after a conflict")
	}
}

func TestSaleRejectsBadPrice(t *testing.T) {
	cat := newFakeCatalog()
	ref := addProduct(cat, 11, "100", false)
	e := newEngine(t, cat)

	e.StartSale(context.Background(), 1, ref)
	r := e.Handle(context.Background(), Input{UserID: 1, Text: "сто"})
	if r.Outcome != OutcomeRetry {
		t.Fatalf("outcome = %s", r.Outcome)
	}
	expectStep(t, e, 1, StepSaleAmount)
}

func TestUsersDoNotShareState(t *testing.T) {
	cat := newFakeCatalog()
	e := newEngine(t, cat)

	e.StartItem(context.Background(), 1)
	e.StartCategory(context.Background(), 2)
	press(t, e, 1, "1")
	answer(t, e, 2, "Инструменты")

	expectStep(t, e, 1, StepName)
	if e.Active(2) {
		t.Fatal("user 2 run should be finished")
	}
	if _, ok := cat.createdCategories["Инструменты"]; !ok {
		t.Fatal("user 2 category not created")
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	run := func() catalog.NewPhone {
		cat := newFakeCatalog()
		e := newEngine(t, cat)
		e.StartItem(context.Background(), 1)
		for _, a := range []string{"Телефоны", "Acme", "X1", "64 GB", "EU", "199.90", "Black", "б/у", "90", "нет", "да", "-", "-"} {
			answer(t, e, 1, a)
		}
		if len(cat.phones) != 1 {
			t.Fatalf("phones = %d", len(cat.phones))
		}
		return cat.phones[0]
	}
	a, b := run(), run()
	if a.Name != b.Name || *a.BatteryHealth != *b.BatteryHealth || a.FullKit != b.FullKit || !a.PurchasePrice.Equal(b.PurchasePrice) {
		t.Fatalf("runs differ: %+v vs %+v", a, b)
	}
	if a.Name != "Acme X1 64GB" || !a.FullKit || a.Repaired {
		t.Fatalf("phone = %+v", a)
	}
}
