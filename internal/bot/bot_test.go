package bot

import (
	"context"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	tg "github.com/m3rciful/stockbot/core/telegram"
	"github.com/m3rciful/stockbot/core/telegram/state"
	"github.com/m3rciful/stockbot/internal/catalog"
	"github.com/m3rciful/stockbot/internal/catalog/catalogtest"
	"github.com/m3rciful/stockbot/internal/wizard"

	tele "gopkg.in/telebot.v4"
)

const (
	adminID = int64(42)
	guestID = int64(7)
)

type sent struct {
	text   string
	markup *tele.ReplyMarkup
}

// fakeContext implements the parts of tele.Context the handlers touch.
type fakeContext struct {
	tele.Context
	user  *tele.User
	chat  *tele.Chat
	msg   *tele.Message
	cb    *tele.Callback
	store map[string]any

	sent      []sent
	responses []string
}

func newContext(userID int64) *fakeContext {
	return &fakeContext{
		user:  &tele.User{ID: userID},
		chat:  &tele.Chat{ID: userID, Type: tele.ChatPrivate},
		store: map[string]any{},
	}
}

func (f *fakeContext) Sender() *tele.User         { return f.user }
func (f *fakeContext) Chat() *tele.Chat           { return f.chat }
func (f *fakeContext) Recipient() tele.Recipient  { return f.chat }
func (f *fakeContext) Message() *tele.Message     { return f.msg }
func (f *fakeContext) Callback() *tele.Callback   { return f.cb }
func (f *fakeContext) Update() tele.Update        { return tele.Update{ID: 1, Message: f.msg, Callback: f.cb} }
func (f *fakeContext) Get(key string) interface{} { return f.store[key] }
func (f *fakeContext) Set(key string, v interface{}) {
	f.store[key] = v
}

func (f *fakeContext) Text() string {
	if f.msg == nil {
		return ""
	}
	return f.msg.Text
}

func (f *fakeContext) Send(what interface{}, opts ...interface{}) error {
	s := sent{text: what.(string)}
	for _, o := range opts {
		if so, ok := o.(*tele.SendOptions); ok && so != nil {
			s.markup = so.ReplyMarkup
		}
	}
	f.sent = append(f.sent, s)
	return nil
}

func (f *fakeContext) EditOrSend(what interface{}, opts ...interface{}) error {
	return f.Send(what, opts...)
}

func (f *fakeContext) Respond(resp ...*tele.CallbackResponse) error {
	for _, r := range resp {
		if r != nil {
			f.responses = append(f.responses, r.Text)
		}
	}
	return nil
}

// harness wires a Bot to a real engine over an in-memory catalog.
type harness struct {
	bot       *Bot
	store     *catalog.Store
	nextID    int
	prompts   []sent
	promptIDs []int
	deleted   []int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, _ := catalogtest.NewStore(t)
	states, err := state.NewStore[wizard.Conversation](16, time.Minute)
	if err != nil {
		t.Fatalf("state store: %v", err)
	}
	h := &harness{store: store, nextID: 100}
	eng := wizard.New(store, states)
	h.bot = New(eng, store, func(id int64) bool { return id == adminID },
		WithSender(func(_ tele.Context, what string, opts *tele.SendOptions) (*tele.Message, error) {
			h.nextID++
			var m *tele.ReplyMarkup
			if opts != nil {
				m = opts.ReplyMarkup
			}
			h.prompts = append(h.prompts, sent{text: what, markup: m})
			h.promptIDs = append(h.promptIDs, h.nextID)
			return &tele.Message{ID: h.nextID}, nil
		}),
		WithDiscard(func(_ tele.Context, ids []int) {
			h.deleted = append(h.deleted, ids...)
		}),
	)
	if err := h.bot.Register(tg.NewRegistry()); err != nil {
		t.Fatalf("register: %v", err)
	}
	return h
}

func (h *harness) lastPrompt(t *testing.T) sent {
	t.Helper()
	if len(h.prompts) == 0 {
		t.Fatal("no prompt sent")
	}
	return h.prompts[len(h.prompts)-1]
}

// typeText sends a text answer as userID and returns the message id used.
func (h *harness) typeText(t *testing.T, userID int64, text string) int {
	t.Helper()
	h.nextID++
	id := h.nextID
	c := newContext(userID)
	c.msg = &tele.Message{ID: id, Text: text}
	if !h.bot.InProgress(userID) {
		t.Fatalf("typed %q without an active run", text)
	}
	if err := h.bot.ManagerHandler(c); err != nil {
		t.Fatalf("answer %q: %v", text, err)
	}
	return id
}

func press(userID int64, unique, data string) *fakeContext {
	c := newContext(userID)
	c.cb = &tele.Callback{Data: "\f" + unique + "|" + data}
	return c
}

func findButton(m *tele.ReplyMarkup, label string) (tele.InlineButton, bool) {
	if m == nil {
		return tele.InlineButton{}, false
	}
	for _, row := range m.InlineKeyboard {
		for _, b := range row {
			if b.Text == label {
				return b, true
			}
		}
	}
	return tele.InlineButton{}, false
}

func TestAddProductRunSavesAndDeletesPrompts(t *testing.T) {
	h := newHarness(t)
	if err := h.bot.onAdd(newContext(adminID)); err != nil {
		t.Fatalf("add: %v", err)
	}
	btn, ok := findButton(h.lastPrompt(t).markup, "Электроника")
	if !ok {
		t.Fatalf("category keyboard missing: %+v", h.lastPrompt(t).markup)
	}
	if err := h.bot.onChoice(press(adminID, btn.Unique, btn.Data)); err != nil {
		t.Fatalf("choose category: %v", err)
	}

	var typed []int
	for _, answer := range []string{"Кабель USB-C", "100", "-", "-"} {
		typed = append(typed, h.typeText(t, adminID, answer))
	}
	if h.bot.InProgress(adminID) {
		t.Fatal("run still active after the last answer")
	}
	if !strings.Contains(h.lastPrompt(t).text, "Кабель USB-C") {
		t.Fatalf("summary = %q", h.lastPrompt(t).text)
	}

	items, err := h.store.ListItems(context.Background(), catalog.KindProduct, false)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 || items[0].Product.Quantity != 1 || items[0].Product.SalePrice.Valid {
		t.Fatalf("items = %+v", items)
	}

	// Every prompt but the final summary, and every typed answer, is deleted.
	for _, id := range slices.Concat(h.promptIDs[:len(h.promptIDs)-1], typed) {
		if !slices.Contains(h.deleted, id) {
			t.Fatalf("message %d not deleted; deleted = %v", id, h.deleted)
		}
	}
	if slices.Contains(h.deleted, h.promptIDs[len(h.promptIDs)-1]) {
		t.Fatal("final summary must stay in the chat")
	}
}

func TestInvalidAnswerRepromptsWithCancel(t *testing.T) {
	h := newHarness(t)
	if err := h.bot.onNewCategory(newContext(adminID)); err != nil {
		t.Fatalf("new category: %v", err)
	}
	h.typeText(t, adminID, strings.Repeat("x", catalog.MaxCategoryName+1))
	p := h.lastPrompt(t)
	if !h.bot.InProgress(adminID) {
		t.Fatal("invalid name must keep the run")
	}
	if _, ok := findButton(p.markup, "Отмена"); !ok {
		t.Fatalf("retry prompt lacks cancel: %+v", p.markup)
	}
	cancel, _ := findButton(p.markup, "Отмена")
	if err := h.bot.onChoice(press(adminID, cancel.Unique, cancel.Data)); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if h.bot.InProgress(adminID) {
		t.Fatal("cancel must clear the run")
	}
}

func TestChoiceWithoutRunAnswersCallback(t *testing.T) {
	h := newHarness(t)
	c := press(adminID, cbChoice, wizard.TokenSkip)
	if err := h.bot.onChoice(c); err != nil {
		t.Fatalf("choice: %v", err)
	}
	if len(c.responses) != 1 || c.responses[0] == "" {
		t.Fatalf("responses = %v", c.responses)
	}
	if len(h.prompts) != 0 {
		t.Fatalf("unexpected prompts: %+v", h.prompts)
	}
}

func TestSellFromStockCard(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	cats, err := h.store.ListCategories(ctx)
	if err != nil || len(cats) == 0 {
		t.Fatalf("categories: %v %v", cats, err)
	}
	id, err := h.store.InsertProduct(ctx, catalog.NewProduct{
		Name:          "Чехол",
		PurchasePrice: decimal.RequireFromString("100"),
		Quantity:      1,
		CategoryID:    cats[0].ID,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	c := newContext(adminID)
	if err := h.bot.onStock(c); err != nil {
		t.Fatalf("stock: %v", err)
	}
	if len(c.sent) != 1 || !strings.Contains(c.sent[0].text, "Чехол") {
		t.Fatalf("card = %+v", c.sent)
	}
	sell, ok := findButton(c.sent[0].markup, labelSell)
	if !ok || sell.Data != refPayload(catalog.ProductRef(id)) {
		t.Fatalf("sell button = %+v ok=%v", sell, ok)
	}

	if err := h.bot.onSell(press(adminID, sell.Unique, sell.Data)); err != nil {
		t.Fatalf("sell: %v", err)
	}
	h.typeText(t, adminID, "150")
	if !strings.Contains(h.lastPrompt(t).text, "50.00") {
		t.Fatalf("sale summary = %q", h.lastPrompt(t).text)
	}
	sold, err := h.store.ListItems(ctx, catalog.KindProduct, true)
	if err != nil || len(sold) != 1 {
		t.Fatalf("sold = %+v err=%v", sold, err)
	}
}

func TestGuestCannotSellOrAdd(t *testing.T) {
	h := newHarness(t)
	c := press(guestID, cbSell, "p|1")
	if err := h.bot.onSell(c); err != nil {
		t.Fatalf("sell: %v", err)
	}
	if len(c.responses) != 1 || c.responses[0] != msgDenied {
		t.Fatalf("responses = %v", c.responses)
	}
	m := press(guestID, cbMenu, menuAdd)
	if err := h.bot.onMenu(m); err != nil {
		t.Fatalf("menu: %v", err)
	}
	if h.bot.InProgress(guestID) {
		t.Fatal("guest started a run")
	}

	card := newContext(guestID)
	if err := h.bot.onStock(card); err != nil {
		t.Fatalf("stock: %v", err)
	}
	if _, ok := findButton(card.sent[0].markup, labelSell); ok {
		t.Fatal("guest must not see the sell button")
	}
}

func TestStockPageClampsIndex(t *testing.T) {
	b := &Bot{}
	items := []catalog.Item{
		{Ref: catalog.ProductRef(3), Product: &catalog.Product{ID: 3, Name: "C", Quantity: 1}},
		{Ref: catalog.ProductRef(2), Product: &catalog.Product{ID: 2, Name: "B", Quantity: 1}},
	}
	text, markup := b.stockPage(catalog.KindProduct, items, 9, true)
	if !strings.HasPrefix(text, "2 из 2") {
		t.Fatalf("text = %q", text)
	}
	if _, ok := findButton(markup, labelNext); ok {
		t.Fatal("last card must not offer next")
	}
	prev, ok := findButton(markup, labelPrev)
	if !ok || prev.Data != "p|0" {
		t.Fatalf("prev = %+v", prev)
	}

	text, markup = b.stockPage(catalog.KindPhone, nil, 0, true)
	if text != msgNoPhones {
		t.Fatalf("empty text = %q", text)
	}
	if _, ok := findButton(markup, labelSell); ok {
		t.Fatal("empty page must not offer sell")
	}
	if toggle, ok := findButton(markup, labelShowGoods); !ok || toggle.Data != "p|0" {
		t.Fatalf("toggle = %+v", toggle)
	}
}

func TestHelpTextAdminSection(t *testing.T) {
	h := newHarness(t)
	guest := h.bot.helpText(false)
	if strings.Contains(guest, "/add") || strings.Contains(guest, msgHelpAdmin) {
		t.Fatalf("guest help leaks admin commands:\n%s", guest)
	}
	if !strings.Contains(guest, "/categories") {
		t.Fatalf("guest help lacks /categories:\n%s", guest)
	}
	admin := h.bot.helpText(true)
	for _, cmd := range []string{"/add", "/newcategory", "/sold"} {
		if !strings.Contains(admin, cmd) {
			t.Fatalf("admin help lacks %s:\n%s", cmd, admin)
		}
	}
}

func TestPromptMarkupPutsCancelLast(t *testing.T) {
	m := promptMarkup(wizard.Prompt{Text: "?", Choices: []wizard.Choice{
		{Label: "A", Token: "1"}, {Label: "B", Token: "2"}, {Label: "C", Token: "3"},
		{Label: "Отмена", Token: wizard.TokenCancel},
	}})
	rows := m.InlineKeyboard
	if len(rows) != 3 || len(rows[0]) != 2 || len(rows[1]) != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if last := rows[2]; len(last) != 1 || last[0].Data != wizard.TokenCancel {
		t.Fatalf("cancel row = %+v", last)
	}
	if promptMarkup(wizard.Prompt{Text: "?"}) != nil {
		t.Fatal("prompt without choices must have no keyboard")
	}
}

func TestChunkLines(t *testing.T) {
	lines := []string{strings.Repeat("a", 40), strings.Repeat("b", 40), strings.Repeat("c", 40)}
	out := chunkLines("head", lines, 100)
	if len(out) != 2 {
		t.Fatalf("chunks = %d: %q", len(out), out)
	}
	for _, m := range out {
		if len(m) > 100 {
			t.Fatalf("chunk too long: %d", len(m))
		}
	}
	if !strings.HasPrefix(out[0], "head\n") {
		t.Fatalf("first chunk = %q", out[0])
	}
}
