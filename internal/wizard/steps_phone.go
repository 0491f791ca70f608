package wizard

import (
	"context"
	"fmt"
	"strconv"
)

const (
	maxIMEI   = 17
	maxSerial = 50
)

var yesNoChoices = []Choice{{Label: labelYes, Token: TokenYes}, {Label: labelNo, Token: TokenNo}}

// phoneStep adapts a draft update that may need the catalog into a step handler.
func phoneStep(fn func(ctx context.Context, d *PhoneDraft, in Input) (Step, error)) func(context.Context, *Conversation, Input) error {
	return func(ctx context.Context, c *Conversation, in Input) error {
		d, err := draftAs[PhoneDraft](c)
		if err != nil {
			return err
		}
		next, err := fn(ctx, &d, in)
		if err != nil {
			return err
		}
		c.Draft = d
		c.Step = next
		return nil
	}
}

func (e *Engine) registerPhoneSteps() {
	e.steps[StepBrand] = step{
		prompt: func(ctx context.Context, _ *Conversation) (Prompt, error) {
			brands, err := e.catalog.ListBrands(ctx)
			if err != nil {
				return Prompt{}, err
			}
			if len(brands) == 0 {
				return Prompt{}, missing(msgNoBrands)
			}
			return Prompt{Text: msgAskBrand, Choices: optionChoices(brands)}, nil
		},
		handle: phoneStep(func(ctx context.Context, d *PhoneDraft, in Input) (Step, error) {
			brands, err := e.catalog.ListBrands(ctx)
			if err != nil {
				return "", err
			}
			b, err := pickOption(brands, in)
			if err != nil {
				return "", err
			}
			d.BrandID, d.BrandName = b.ID, b.Name
			return StepModel, nil
		}),
	}

	e.steps[StepModel] = step{
		prompt: func(ctx context.Context, c *Conversation) (Prompt, error) {
			d, err := draftAs[PhoneDraft](c)
			if err != nil {
				return Prompt{}, err
			}
			models, err := e.catalog.ListModels(ctx, d.BrandID)
			if err != nil {
				return Prompt{}, err
			}
			if len(models) == 0 {
				return Prompt{}, missing(msgNoModels, d.BrandName)
			}
			return Prompt{Text: fmt.Sprintf(msgAskModel, d.BrandName), Choices: optionChoices(models)}, nil
		},
		handle: phoneStep(func(ctx context.Context, d *PhoneDraft, in Input) (Step, error) {
			models, err := e.catalog.ListModels(ctx, d.BrandID)
			if err != nil {
				return "", err
			}
			m, err := pickOption(models, in)
			if err != nil {
				return "", err
			}
			d.ModelID, d.ModelName = m.ID, m.Name
			return StepStorage, nil
		}),
	}

	e.steps[StepStorage] = step{
		prompt: func(ctx context.Context, _ *Conversation) (Prompt, error) {
			caps, err := e.catalog.ListStorageCapacities(ctx)
			if err != nil {
				return Prompt{}, err
			}
			if len(caps) == 0 {
				return Prompt{}, missing(msgNoStorage)
			}
			choices := make([]Choice, len(caps))
			for i, c := range caps {
				choices[i] = Choice{Label: c.Label(), Token: strconv.FormatInt(c.ID, 10)}
			}
			return Prompt{Text: msgAskStorage, Choices: choices}, nil
		},
		handle: phoneStep(func(ctx context.Context, d *PhoneDraft, in Input) (Step, error) {
			caps, err := e.catalog.ListStorageCapacities(ctx)
			if err != nil {
				return "", err
			}
			sc, err := pickCapacity(caps, in)
			if err != nil {
				return "", err
			}
			d.StorageCapacityID, d.Capacity = sc.ID, sc.Capacity
			return StepMarket, nil
		}),
	}

	e.steps[StepMarket] = step{
		prompt: func(ctx context.Context, _ *Conversation) (Prompt, error) {
			markets, err := e.catalog.ListMarkets(ctx)
			if err != nil {
				return Prompt{}, err
			}
			if len(markets) == 0 {
				return Prompt{}, missing(msgNoMarkets)
			}
			return Prompt{Text: msgAskMarket, Choices: optionChoices(markets)}, nil
		},
		handle: phoneStep(func(ctx context.Context, d *PhoneDraft, in Input) (Step, error) {
			markets, err := e.catalog.ListMarkets(ctx)
			if err != nil {
				return "", err
			}
			m, err := pickOption(markets, in)
			if err != nil {
				return "", err
			}
			d.MarketID, d.MarketName = m.ID, m.Name
			return StepPhonePrice, nil
		}),
	}

	e.steps[StepPhonePrice] = step{
		prompt: func(_ context.Context, c *Conversation) (Prompt, error) {
			d, err := draftAs[PhoneDraft](c)
			if err != nil {
				return Prompt{}, err
			}
			return Prompt{Text: fmt.Sprintf(msgAskPhonePrice, phoneName(d))}, nil
		},
		handle: phoneStep(func(_ context.Context, d *PhoneDraft, in Input) (Step, error) {
			price, err := parsePrice(in)
			if err != nil {
				return "", err
			}
			d.PurchasePrice = price
			return StepColor, nil
		}),
	}

	e.steps[StepColor] = step{
		prompt: func(ctx context.Context, _ *Conversation) (Prompt, error) {
			colors, err := e.catalog.ListColors(ctx)
			if err != nil {
				return Prompt{}, err
			}
			if len(colors) == 0 {
				return Prompt{}, missing(msgNoColors)
			}
			return Prompt{Text: msgAskColor, Choices: optionChoices(colors)}, nil
		},
		handle: phoneStep(func(ctx context.Context, d *PhoneDraft, in Input) (Step, error) {
			colors, err := e.catalog.ListColors(ctx)
			if err != nil {
				return "", err
			}
			col, err := pickOption(colors, in)
			if err != nil {
				return "", err
			}
			d.ColorID, d.ColorName = col.ID, col.Name
			return StepCondition, nil
		}),
	}

	e.steps[StepCondition] = step{
		prompt: func(ctx context.Context, _ *Conversation) (Prompt, error) {
			conds, err := e.catalog.ListConditions(ctx)
			if err != nil {
				return Prompt{}, err
			}
			if len(conds) == 0 {
				return Prompt{}, missing(msgNoConditions)
			}
			return Prompt{Text: msgAskCondition, Choices: optionChoices(conds)}, nil
		},
		handle: phoneStep(func(ctx context.Context, d *PhoneDraft, in Input) (Step, error) {
			conds, err := e.catalog.ListConditions(ctx)
			if err != nil {
				return "", err
			}
			cond, err := pickOption(conds, in)
			if err != nil {
				return "", err
			}
			d.ConditionID, d.ConditionName = cond.ID, cond.Name
			d.Used = e.classifier.IsUsed(cond)
			if d.Used {
				d.BatteryHealth = nil
				return StepBattery, nil
			}
			full := 100
			d.BatteryHealth = &full
			d.Repaired = false
			d.FullKit = true
			return StepIMEI, nil
		}),
	}

	e.steps[StepBattery] = step{
		prompt: fixedPrompt(msgAskBattery),
		handle: phoneStep(func(_ context.Context, d *PhoneDraft, in Input) (Step, error) {
			n, err := parseBattery(in)
			if err != nil {
				return "", err
			}
			d.BatteryHealth = &n
			return StepRepaired, nil
		}),
	}

	e.steps[StepRepaired] = step{
		prompt: fixedPrompt(msgAskRepaired, yesNoChoices...),
		handle: phoneStep(func(_ context.Context, d *PhoneDraft, in Input) (Step, error) {
			v, err := parseYesNo(in)
			if err != nil {
				return "", err
			}
			d.Repaired = v
			return StepFullKit, nil
		}),
	}

	e.steps[StepFullKit] = step{
		prompt: fixedPrompt(msgAskFullKit, yesNoChoices...),
		handle: phoneStep(func(_ context.Context, d *PhoneDraft, in Input) (Step, error) {
			v, err := parseYesNo(in)
			if err != nil {
				return "", err
			}
			d.FullKit = v
			return StepIMEI, nil
		}),
	}

	e.steps[StepIMEI] = step{
		prompt: fixedPrompt(msgAskIMEI, skipChoice),
		handle: phoneStep(func(_ context.Context, d *PhoneDraft, in Input) (Step, error) {
			v, err := optionalText(in, maxIMEI)
			if err != nil {
				return "", err
			}
			d.IMEI = v
			return StepSerial, nil
		}),
	}

	e.steps[StepSerial] = step{
		prompt: fixedPrompt(msgAskSerial, skipChoice),
		handle: phoneStep(func(_ context.Context, d *PhoneDraft, in Input) (Step, error) {
			v, err := optionalText(in, maxSerial)
			if err != nil {
				return "", err
			}
			d.SerialNumber = v
			return stepPersist, nil
		}),
	}
}
