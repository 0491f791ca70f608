package wizard

import (
	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/internal/catalog"
)

// Step tags the state a conversation is waiting in.
type Step string

const (
	StepCategory      Step = "category"
	StepName          Step = "name"
	StepPurchasePrice Step = "purchase_price"
	StepSalePrice     Step = "sale_price"
	StepQuantity      Step = "quantity"

	StepBrand      Step = "brand"
	StepModel      Step = "model"
	StepStorage    Step = "storage"
	StepMarket     Step = "market"
	StepPhonePrice Step = "phone_price"
	StepColor      Step = "color"
	StepCondition  Step = "condition"
	StepBattery    Step = "battery"
	StepRepaired   Step = "repaired"
	StepFullKit    Step = "full_kit"
	StepIMEI       Step = "imei"
	StepSerial     Step = "serial"

	StepCategoryName Step = "category_name"
	StepSaleAmount   Step = "sale_amount"

	// stepPersist marks that every answer is collected and the draft can be saved.
	stepPersist Step = "persist"
)

// Track is the kind of item a wizard run collects.
type Track string

const (
	TrackGeneric Track = "generic"
	TrackPhone   Track = "phone"
)

// Draft is the answer set of one run. Each variant holds only the fields its
// track can collect.
type Draft interface {
	kind() string
}

// ItemDraft is the draft before the category decides the track.
type ItemDraft struct{}

// ProductDraft collects a generic product.
type ProductDraft struct {
	CategoryID    int64
	CategoryName  string
	Name          string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.NullDecimal
	Quantity      int
}

// PhoneDraft collects a phone.
type PhoneDraft struct {
	CategoryID        int64
	BrandID           int64
	BrandName         string
	ModelID           int64
	ModelName         string
	StorageCapacityID int64
	Capacity          int
	MarketID          int64
	MarketName        string
	PurchasePrice     decimal.Decimal
	ColorID           int64
	ColorName         string
	ConditionID       int64
	ConditionName     string
	Used              bool
	BatteryHealth     *int
	Repaired          bool
	FullKit           bool
	IMEI              *string
	SerialNumber      *string
}

// CategoryDraft is the category creation flow. The name is the terminal answer.
type CategoryDraft struct {
	Name string
}

// SaleDraft is the sale flow for one selected item.
type SaleDraft struct {
	Ref           catalog.ItemRef
	Name          string
	PurchasePrice decimal.Decimal
	Price         decimal.Decimal
}

func (ItemDraft) kind() string     { return "item" }
func (ProductDraft) kind() string  { return string(TrackGeneric) }
func (PhoneDraft) kind() string    { return string(TrackPhone) }
func (CategoryDraft) kind() string { return "category" }
func (SaleDraft) kind() string     { return "sale" }

// Conversation is the per-user state of an active run.
type Conversation struct {
	RunID string
	Step  Step
	Draft Draft
	// Messages holds ids of prompts sent during the run, oldest first.
	Messages []int
}

func (c Conversation) clone() Conversation {
	c.Messages = append([]int(nil), c.Messages...)
	return c
}

// Input is one inbound event for a user. Token is set for button presses,
// Text for typed messages.
type Input struct {
	UserID int64
	Text   string
	Token  string
}

// Reserved tokens carried by non-reference choices.
const (
	TokenCancel = "cancel"
	TokenSkip   = "skip"
	TokenYes    = "yes"
	TokenNo     = "no"
)

// Choice is one selectable answer.
type Choice struct {
	Label string
	Token string
}

// Prompt is what the transport should show next.
type Prompt struct {
	Text    string
	Choices []Choice
}

// Outcome classifies a Reply.
type Outcome string

const (
	OutcomeContinue  Outcome = "continue"
	OutcomeRetry     Outcome = "retry"
	OutcomeSaved     Outcome = "saved"
	OutcomeExists    Outcome = "exists"
	OutcomeSold      Outcome = "sold"
	OutcomeCancelled Outcome = "cancelled"
	OutcomeAborted   Outcome = "aborted"
	OutcomeConflict  Outcome = "conflict"
	OutcomeFailed    Outcome = "failed"
	OutcomeIdle      Outcome = "idle"
)

// Reply is the engine's answer to an event.
type Reply struct {
	Outcome Outcome
	Prompt  Prompt
	// Discard lists prompt message ids the transport may delete.
	Discard []int
	// Ref is set when an item was created.
	Ref catalog.ItemRef
	// CategoryID is set when a category was created.
	CategoryID int64
	Sale       *catalog.SaleResult
}

// Done reports whether the run is over and its state cleared.
func (r Reply) Done() bool {
	return r.Outcome != OutcomeContinue && r.Outcome != OutcomeRetry
}
