package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/stockbot/core/logger"
	"github.com/m3rciful/stockbot/internal/catalog"
)

// StartSale begins the sale of one unsold item.
func (e *Engine) StartSale(ctx context.Context, userID int64, ref catalog.ItemRef) Reply {
	it, err := e.catalog.GetItem(ctx, ref)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return Reply{Outcome: OutcomeConflict, Prompt: Prompt{Text: msgItemNotFound}}
	case err != nil:
		logger.Error(ctx, "service.sales", "sale.start",
			slog.String("status", "fail"),
			slog.String("item_type", string(ref.Kind)),
			slog.Int64("item_id", ref.ID),
			slog.String("err", err.Error()),
		)
		return Reply{Outcome: OutcomeFailed, Prompt: Prompt{Text: msgSaleFailed}}
	case it.Sold():
		return Reply{Outcome: OutcomeConflict, Prompt: Prompt{Text: msgAlreadySold}}
	}
	return e.start(ctx, userID, StepSaleAmount, SaleDraft{
		Ref:           ref,
		Name:          it.Name(),
		PurchasePrice: it.PurchasePrice(),
	})
}

func (e *Engine) registerSaleSteps() {
	e.steps[StepSaleAmount] = step{
		prompt: func(_ context.Context, c *Conversation) (Prompt, error) {
			d, err := draftAs[SaleDraft](c)
			if err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: fmt.Sprintf(msgAskSaleAmount, d.Name, money(d.PurchasePrice))}, nil
		},
		handle: func(_ context.Context, c *Conversation, in Input) error {
			d, err := draftAs[SaleDraft](c)
			if err != nil {
				return err
			}
			price, err := parsePrice(in)
			if err != nil {
				return err
			}
			d.Price = price
			c.Draft = d
			c.Step = stepPersist
			return nil
		},
	}
}

// completeSale marks the item sold. The item may have been sold or removed
// since the run started; that is reported as a conflict.
func (e *Engine) completeSale(ctx context.Context, userID int64, c Conversation, d SaleDraft) Reply {
	e.states.Clear(userID)
	res, err := e.catalog.MarkSold(ctx, d.Ref, d.Price)
	switch {
	case errors.Is(err, catalog.ErrAlreadySold):
		return Reply{Outcome: OutcomeConflict, Prompt: Prompt{Text: msgAlreadySold}, Discard: c.Messages}
	case errors.Is(err, catalog.ErrNotFound):
		return Reply{Outcome: OutcomeConflict, Prompt: Prompt{Text: msgItemNotFound}, Discard: c.Messages}
	case err != nil:
		return e.fail(ctx, userID, c, err, msgSaleFailed)
	}
	logger.Info(ctx, component, "wizard.done",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("track", c.Draft.kind()),
		slog.String("item_type", string(d.Ref.Kind)),
		slog.Int64("item_id", d.Ref.ID),
		slog.String("profit", money(res.Profit)),
	)
	return Reply{
		Outcome: OutcomeSold,
		Prompt:  Prompt{Text: saleSummary(res.Name, res.SalePrice, res.Profit)},
		Discard: c.Messages,
		Ref:     d.Ref,
		Sale:    &res,
	}
}

func (e *Engine) saveCategory(ctx context.Context, d CategoryDraft) (Reply, error) {
	id, err := e.catalog.InsertCategory(ctx, d.Name)
	if errors.Is(err, catalog.ErrCategoryExists) {
		return Reply{Outcome: OutcomeExists, Prompt: Prompt{Text: fmt.Sprintf(msgCategoryExists, d.Name)}}, nil
	}
	if err != nil {
		return Reply{}, err
	}
	return Reply{
		Outcome:    OutcomeSaved,
		Prompt:     Prompt{Text: fmt.Sprintf(msgCategoryAdded, d.Name, id)},
		CategoryID: id,
	}, nil
}
