package wizard

import (
	"context"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/internal/catalog"
)

const maxItemName = 255

var skipChoice = Choice{Label: labelSkip, Token: TokenSkip}

func optionChoices(opts []catalog.Option) []Choice {
	out := make([]Choice, len(opts))
	for i, o := range opts {
		out[i] = Choice{Label: o.Name, Token: strconv.FormatInt(o.ID, 10)}
	}
	return out
}

func (e *Engine) registerItemSteps() {
	e.steps[StepCategory] = step{
		prompt: func(ctx context.Context, _ *Conversation) (Prompt, error) {
			cats, err := e.catalog.ListCategories(ctx)
			if err != nil {
				return Prompt{}, err
			}
			if len(cats) == 0 {
				return Prompt{}, missing(msgNoCategories)
			}
			choices := make([]Choice, len(cats))
			for i, c := range cats {
				choices[i] = Choice{Label: c.Name, Token: strconv.FormatInt(c.ID, 10)}
			}
			return Prompt{Text: msgAskCategory, Choices: choices}, nil
		},
		handle: func(ctx context.Context, c *Conversation, in Input) error {
			cats, err := e.catalog.ListCategories(ctx)
			if err != nil {
				return err
			}
			cat, err := pickCategory(cats, in)
			if err != nil {
				return err
			}
			if e.classifier.Classify(cat) == TrackPhone {
				c.Draft = PhoneDraft{CategoryID: cat.ID}
				c.Step = StepBrand
				return nil
			}
			c.Draft = ProductDraft{CategoryID: cat.ID, CategoryName: cat.Name}
			c.Step = StepName
			return nil
		},
	}

	e.steps[StepName] = step{
		prompt: fixedPrompt(msgAskName),
		handle: productStep(func(d *ProductDraft, in Input) (Step, error) {
			name, err := freeText(in, maxItemName)
			if err != nil {
				return "", err
			}
			d.Name = name
			return StepPurchasePrice, nil
		}),
	}

	e.steps[StepPurchasePrice] = step{
		prompt: fixedPrompt(msgAskPurchase),
		handle: productStep(func(d *ProductDraft, in Input) (Step, error) {
			price, err := parsePrice(in)
			if err != nil {
				return "", err
			}
			d.PurchasePrice = price
			return StepSalePrice, nil
		}),
	}

	e.steps[StepSalePrice] = step{
		prompt: fixedPrompt(msgAskSalePrice, skipChoice),
		handle: productStep(func(d *ProductDraft, in Input) (Step, error) {
			if isSkip(in) {
				d.SalePrice = decimal.NullDecimal{}
				return StepQuantity, nil
			}
			price, err := parsePrice(in)
			if err != nil {
				return "", err
			}
			d.SalePrice = decimal.NewNullDecimal(price)
			return StepQuantity, nil
		}),
	}

	e.steps[StepQuantity] = step{
		prompt: fixedPrompt(msgAskQuantity, skipChoice),
		handle: productStep(func(d *ProductDraft, in Input) (Step, error) {
			if isSkip(in) {
				d.Quantity = 1
				return stepPersist, nil
			}
			n, err := parseQuantity(in)
			if err != nil {
				return "", err
			}
			d.Quantity = n
			return stepPersist, nil
		}),
	}
}

func fixedPrompt(text string, choices ...Choice) func(context.Context, *Conversation) (Prompt, error) {
	return func(context.Context, *Conversation) (Prompt, error) {
		return Prompt{Text: text, Choices: append([]Choice(nil), choices...)}, nil
	}
}

// productStep adapts a pure draft update into a step handler.
func productStep(fn func(d *ProductDraft, in Input) (Step, error)) func(context.Context, *Conversation, Input) error {
	return func(_ context.Context, c *Conversation, in Input) error {
		d, err := draftAs[ProductDraft](c)
		if err != nil {
			return err
		}
		next, err := fn(&d, in)
		if err != nil {
			return err
		}
		c.Draft = d
		c.Step = next
		return nil
	}
}

func (e *Engine) registerCategorySteps() {
	e.steps[StepCategoryName] = step{
		prompt: fixedPrompt(msgAskCategoryName),
		handle: func(_ context.Context, c *Conversation, in Input) error {
			d, err := draftAs[CategoryDraft](c)
			if err != nil {
				return err
			}
			name, err := freeText(in, catalog.MaxCategoryName)
			if err != nil {
				return err
			}
			d.Name = name
			c.Draft = d
			c.Step = stepPersist
			return nil
		},
	}
}
