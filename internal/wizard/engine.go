// Package wizard implements the guided conversations that add stock,
// create categories and sell items.
//
// Every event goes through Engine, which reads the user's Conversation,
// validates the answer for the current Step, moves to the next step and
// returns the Prompt to show. Nothing is written to the catalog before the
// last answer of a run.
package wizard

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/core/logger"
	"github.com/m3rciful/stockbot/internal/catalog"
)

const component = "service.wizard"

// Catalog is the reference and persistence surface the engine depends on.
type Catalog interface {
	ListCategories(ctx context.Context) ([]catalog.Category, error)
	ListConditions(ctx context.Context) ([]catalog.Option, error)
	ListBrands(ctx context.Context) ([]catalog.Option, error)
	ListModels(ctx context.Context, brandID int64) ([]catalog.Option, error)
	ListStorageCapacities(ctx context.Context) ([]catalog.StorageCapacity, error)
	ListMarkets(ctx context.Context) ([]catalog.Option, error)
	ListColors(ctx context.Context) ([]catalog.Option, error)

	InsertCategory(ctx context.Context, name string) (int64, error)
	InsertProduct(ctx context.Context, p catalog.NewProduct) (int64, error)
	InsertPhone(ctx context.Context, p catalog.NewPhone) (int64, error)
	MarkSold(ctx context.Context, ref catalog.ItemRef, price decimal.Decimal) (catalog.SaleResult, error)
	GetItem(ctx context.Context, ref catalog.ItemRef) (catalog.Item, error)
}

// StateStore keeps one Conversation per user.
type StateStore interface {
	Get(userID int64) (Conversation, bool)
	Set(userID int64, c Conversation)
	Clear(userID int64)
}

type step struct {
	prompt func(ctx context.Context, c *Conversation) (Prompt, error)
	handle func(ctx context.Context, c *Conversation, in Input) error
}

// Engine drives every user's conversation. It holds no per-user data itself
// and is safe for concurrent use by different users.
type Engine struct {
	catalog    Catalog
	states     StateStore
	classifier Classifier
	newRunID   func() string
	steps      map[Step]step
}

// Option configures an Engine.
type Option func(*Engine)

// WithClassifier replaces the default track classifier.
func WithClassifier(c Classifier) Option {
	return func(e *Engine) { e.classifier = c }
}

// WithRunIDs replaces the run id generator.
func WithRunIDs(fn func() string) Option {
	return func(e *Engine) {
		if fn != nil {
			e.newRunID = fn
		}
	}
}

// New builds an engine over the catalog and state store.
func New(cat Catalog, states StateStore, opts ...Option) *Engine {
	e := &Engine{
		catalog:    cat,
		states:     states,
		classifier: NewClassifier(nil, nil),
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.steps = map[Step]step{}
	e.registerItemSteps()
	e.registerPhoneSteps()
	e.registerCategorySteps()
	e.registerSaleSteps()
	return e
}

// Active reports whether the user is in the middle of a run.
func (e *Engine) Active(userID int64) bool {
	_, ok := e.states.Get(userID)
	return ok
}

// Current returns the step the user is waiting in.
func (e *Engine) Current(userID int64) (Step, bool) {
	c, ok := e.states.Get(userID)
	return c.Step, ok
}

// StartItem begins the add-item run at the category choice.
func (e *Engine) StartItem(ctx context.Context, userID int64) Reply {
	return e.start(ctx, userID, StepCategory, ItemDraft{})
}

// StartCategory begins the create-category run.
func (e *Engine) StartCategory(ctx context.Context, userID int64) Reply {
	return e.start(ctx, userID, StepCategoryName, CategoryDraft{})
}

func (e *Engine) start(ctx context.Context, userID int64, first Step, draft Draft) Reply {
	var stale []int
	if prev, ok := e.states.Get(userID); ok {
		stale = prev.Messages
		e.states.Clear(userID)
	}
	c := Conversation{RunID: e.newRunID(), Step: first, Draft: draft}
	ctx = logger.WithRun(ctx, c.RunID)
	logger.Info(ctx, component, "wizard.start",
		slog.Int64("user_id", userID),
		slog.String("track", draft.kind()),
		slog.String("step", string(first)),
	)
	r := e.enter(ctx, userID, c)
	r.Discard = append(stale, r.Discard...)
	return r
}

// Handle processes one answer from the user.
func (e *Engine) Handle(ctx context.Context, in Input) Reply {
	cur, ok := e.states.Get(in.UserID)
	if !ok {
		return Reply{Outcome: OutcomeIdle, Prompt: Prompt{Text: msgNothingToDo}}
	}
	if isCancel(in) {
		return e.Cancel(ctx, in.UserID)
	}
	ctx = logger.WithRun(ctx, cur.RunID)
	st, ok := e.steps[cur.Step]
	if !ok {
		return e.fail(ctx, in.UserID, cur, &draftMismatchError{step: cur.Step, got: cur.Draft}, msgSaveFailed)
	}

	next := cur.clone()
	if err := st.handle(ctx, &next, in); err != nil {
		var ie *InputError
		if errors.As(err, &ie) {
			return e.retry(ctx, in.UserID, cur, ie)
		}
		return e.abortOrFail(ctx, in.UserID, cur, err)
	}
	logger.Debug(ctx, component, "wizard.step",
		slog.Int64("user_id", in.UserID),
		slog.String("track", next.Draft.kind()),
		slog.String("step", string(cur.Step)),
		slog.String("op", string(next.Step)),
	)
	if next.Step == stepPersist {
		return e.finish(ctx, in.UserID, next)
	}
	return e.enter(ctx, in.UserID, next)
}

// Cancel abandons the user's run.
func (e *Engine) Cancel(ctx context.Context, userID int64) Reply {
	c, ok := e.states.Get(userID)
	if !ok {
		return Reply{Outcome: OutcomeIdle, Prompt: Prompt{Text: msgNothingToDo}}
	}
	e.states.Clear(userID)
	logger.Info(logger.WithRun(ctx, c.RunID), component, "wizard.cancel",
		slog.String("status", "cancelled"),
		slog.Int64("user_id", userID),
		slog.String("step", string(c.Step)),
	)
	return Reply{Outcome: OutcomeCancelled, Prompt: Prompt{Text: msgCancelled}, Discard: c.Messages}
}

// Remember records a prompt message sent for the user's active run so it can
// be cleaned up when the run ends. It is a no-op without an active run.
func (e *Engine) Remember(userID int64, messageID int) {
	c, ok := e.states.Get(userID)
	if !ok || messageID == 0 {
		return
	}
	c = c.clone()
	c.Messages = append(c.Messages, messageID)
	e.states.Set(userID, c)
}

// enter renders the prompt of c.Step and stores c. A missing choice set ends the run.
func (e *Engine) enter(ctx context.Context, userID int64, c Conversation) Reply {
	p, err := e.render(ctx, &c)
	if err != nil {
		return e.abortOrFail(ctx, userID, c, err)
	}
	e.states.Set(userID, c)
	return Reply{Outcome: OutcomeContinue, Prompt: p}
}

func (e *Engine) render(ctx context.Context, c *Conversation) (Prompt, error) {
	st, ok := e.steps[c.Step]
	if !ok {
		return Prompt{}, &draftMismatchError{step: c.Step, got: c.Draft}
	}
	p, err := st.prompt(ctx, c)
	if err != nil {
		return Prompt{}, err
	}
	p.Choices = append(p.Choices, Choice{Label: labelCancel, Token: TokenCancel})
	return p, nil
}

// retry asks the same step again; the stored conversation is left as it was.
func (e *Engine) retry(ctx context.Context, userID int64, c Conversation, ie *InputError) Reply {
	p, err := e.render(ctx, &c)
	if err != nil {
		return e.abortOrFail(ctx, userID, c, err)
	}
	logger.Debug(ctx, component, "wizard.retry",
		slog.String("status", "skip"),
		slog.String("step", string(c.Step)),
		slog.String("cause", ie.Reason),
	)
	p.Text = ie.Reason + "\n\n" + p.Text
	return Reply{Outcome: OutcomeRetry, Prompt: p}
}

func (e *Engine) abortOrFail(ctx context.Context, userID int64, c Conversation, err error) Reply {
	var pe *PreconditionError
	if errors.As(err, &pe) {
		e.states.Clear(userID)
		logger.Warn(ctx, component, "wizard.abort",
			slog.String("status", "skip"),
			slog.Int64("user_id", userID),
			slog.String("step", string(c.Step)),
			slog.String("cause", pe.Reason),
		)
		return Reply{Outcome: OutcomeAborted, Prompt: Prompt{Text: pe.Reason}, Discard: c.Messages}
	}
	return e.fail(ctx, userID, c, err, msgSaveFailed)
}

func (e *Engine) fail(ctx context.Context, userID int64, c Conversation, err error, text string) Reply {
	e.states.Clear(userID)
	logger.Error(ctx, component, "wizard.fail",
		slog.String("status", "fail"),
		slog.Int64("user_id", userID),
		slog.String("step", string(c.Step)),
		slog.String("err", err.Error()),
	)
	return Reply{Outcome: OutcomeFailed, Prompt: Prompt{Text: text}, Discard: c.Messages}
}

// finish persists a completed draft. The state is cleared whatever the result.
func (e *Engine) finish(ctx context.Context, userID int64, c Conversation) Reply {
	var r Reply
	var err error
	switch d := c.Draft.(type) {
	case ProductDraft:
		r, err = e.saveProduct(ctx, d)
	case PhoneDraft:
		r, err = e.savePhone(ctx, d)
	case CategoryDraft:
		r, err = e.saveCategory(ctx, d)
	case SaleDraft:
		return e.completeSale(ctx, userID, c, d)
	default:
		err = &draftMismatchError{step: c.Step, got: c.Draft}
	}
	if err != nil {
		return e.fail(ctx, userID, c, err, msgSaveFailed)
	}
	e.states.Clear(userID)
	r.Discard = c.Messages
	logger.Info(ctx, component, "wizard.done",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("track", c.Draft.kind()),
		slog.String("outcome", finishOutcome(r.Outcome)),
		slog.String("op", string(r.Outcome)),
	)
	return r
}

func finishOutcome(o Outcome) string {
	if o == OutcomeExists {
		return "conflict"
	}
	return "ok"
}

func (e *Engine) saveProduct(ctx context.Context, d ProductDraft) (Reply, error) {
	id, err := e.catalog.InsertProduct(ctx, catalog.NewProduct{
		Name:          d.Name,
		PurchasePrice: d.PurchasePrice,
		SalePrice:     d.SalePrice,
		Quantity:      d.Quantity,
		CategoryID:    d.CategoryID,
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Outcome: OutcomeSaved,
		Prompt:  Prompt{Text: productSummary(id, d)},
		Ref:     catalog.ProductRef(id),
	}, nil
}

func (e *Engine) savePhone(ctx context.Context, d PhoneDraft) (Reply, error) {
	id, err := e.catalog.InsertPhone(ctx, catalog.NewPhone{
		Name:              phoneName(d),
		PurchasePrice:     d.PurchasePrice,
		ModelID:           d.ModelID,
		ColorID:           d.ColorID,
		StorageCapacityID: d.StorageCapacityID,
		MarketID:          d.MarketID,
		ConditionID:       d.ConditionID,
		BatteryHealth:     d.BatteryHealth,
		Repaired:          d.Repaired,
		FullKit:           d.FullKit,
		IMEI:              d.IMEI,
		SerialNumber:      d.SerialNumber,
	})
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Outcome: OutcomeSaved,
		Prompt:  Prompt{Text: phoneSummary(id, d)},
		Ref:     catalog.PhoneRef(id),
	}, nil
}
