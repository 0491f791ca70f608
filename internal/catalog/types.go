package catalog

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Category groups products and selects the wizard track.
type Category struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// Option is a row of a reference table offered as a wizard choice.
type Option struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

// StorageCapacity is a phone storage size in gigabytes.
type StorageCapacity struct {
	ID       int64 `db:"id"`
	Capacity int   `db:"capacity"`
}

// Label renders the capacity the way it is shown on buttons.
func (s StorageCapacity) Label() string {
	return fmt.Sprintf("%d GB", s.Capacity)
}

// ItemKind distinguishes the two kinds of stock.
type ItemKind string

const (
	KindProduct ItemKind = "product"
	KindPhone   ItemKind = "phone"
)

// ParseItemKind accepts the short form used in callback payloads as well.
func ParseItemKind(s string) (ItemKind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "product", "p":
		return KindProduct, nil
	case "phone", "ph":
		return KindPhone, nil
	}
	return "", fmt.Errorf("%w: unknown item kind %q", ErrInvalidItem, s)
}

// Short is the compact token used in callback data.
func (k ItemKind) Short() string {
	if k == KindPhone {
		return "ph"
	}
	return "p"
}

func (k ItemKind) table() (string, error) {
	switch k {
	case KindProduct:
		return "products", nil
	case KindPhone:
		return "phones", nil
	}
	return "", fmt.Errorf("%w: unknown item kind %q", ErrInvalidItem, string(k))
}

// ItemRef points to exactly one product or phone.
type ItemRef struct {
	Kind ItemKind
	ID   int64
}

// ProductRef references a product row.
func ProductRef(id int64) ItemRef { return ItemRef{Kind: KindProduct, ID: id} }

// PhoneRef references a phone row.
func PhoneRef(id int64) ItemRef { return ItemRef{Kind: KindPhone, ID: id} }

// Validate rejects refs with an unknown kind or a non-positive id.
func (r ItemRef) Validate() error {
	if _, err := r.Kind.table(); err != nil {
		return err
	}
	if r.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidItem)
	}
	return nil
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%d", r.Kind, r.ID)
}

// ledgerColumn is the transactions column holding this ref.
func (r ItemRef) ledgerColumn() string {
	if r.Kind == KindPhone {
		return "phone_id"
	}
	return "product_id"
}

// Product is a generic stock item sold by quantity.
type Product struct {
	ID            int64               `db:"id"`
	Name          string              `db:"name"`
	PurchasePrice decimal.Decimal     `db:"purchase_price"`
	SalePrice     decimal.NullDecimal `db:"sale_price"`
	Quantity      int                 `db:"quantity"`
	CategoryID    int64               `db:"category_id"`
	CategoryName  string              `db:"category_name"`
	IsSold        bool                `db:"is_sold"`
}

// Phone is a single uniquely identified handset.
type Phone struct {
	ID                int64               `db:"id"`
	Name              string              `db:"name"`
	PurchasePrice     decimal.Decimal     `db:"purchase_price"`
	SalePrice         decimal.NullDecimal `db:"sale_price"`
	ModelID           int64               `db:"model_id"`
	ColorID           int64               `db:"color_id"`
	StorageCapacityID int64               `db:"storage_capacity_id"`
	MarketID          int64               `db:"market_id"`
	ConditionID       int64               `db:"condition_id"`
	BatteryHealth     *int                `db:"battery_health"`
	Repaired          bool                `db:"repaired"`
	FullKit           bool                `db:"full_kit"`
	IMEI              *string             `db:"imei"`
	SerialNumber      *string             `db:"serial_number"`
	IsSold            bool                `db:"is_sold"`

	BrandName     string `db:"brand_name"`
	ModelName     string `db:"model_name"`
	ColorName     string `db:"color_name"`
	Capacity      int    `db:"capacity"`
	MarketName    string `db:"market_name"`
	ConditionName string `db:"condition_name"`
}

// Item is either a Product or a Phone; exactly one of the pointers is set.
type Item struct {
	Ref     ItemRef
	Product *Product
	Phone   *Phone
}

// Name returns the display name of the underlying item.
func (it Item) Name() string {
	if it.Phone != nil {
		return it.Phone.Name
	}
	if it.Product != nil {
		return it.Product.Name
	}
	return ""
}

// PurchasePrice returns what was paid for the item.
func (it Item) PurchasePrice() decimal.Decimal {
	if it.Phone != nil {
		return it.Phone.PurchasePrice
	}
	if it.Product != nil {
		return it.Product.PurchasePrice
	}
	return decimal.Zero
}

// SalePrice returns the sale price, which may be unset.
func (it Item) SalePrice() decimal.NullDecimal {
	if it.Phone != nil {
		return it.Phone.SalePrice
	}
	if it.Product != nil {
		return it.Product.SalePrice
	}
	return decimal.NullDecimal{}
}

// Sold reports the item's sold flag.
func (it Item) Sold() bool {
	if it.Phone != nil {
		return it.Phone.IsSold
	}
	return it.Product != nil && it.Product.IsSold
}

// NewProduct carries the fields needed to insert a product.
type NewProduct struct {
	Name          string `validate:"required,max=255"`
	PurchasePrice decimal.Decimal
	SalePrice     decimal.NullDecimal
	Quantity      int   `validate:"min=1"`
	CategoryID    int64 `validate:"gt=0"`
}

// NewPhone carries the fields needed to insert a phone.
type NewPhone struct {
	Name              string `validate:"required,max=255"`
	PurchasePrice     decimal.Decimal
	ModelID           int64   `validate:"gt=0"`
	ColorID           int64   `validate:"gt=0"`
	StorageCapacityID int64   `validate:"gt=0"`
	MarketID          int64   `validate:"gt=0"`
	ConditionID       int64   `validate:"gt=0"`
	BatteryHealth     *int    `validate:"omitempty,min=0,max=100"`
	Repaired          bool
	FullKit           bool
	IMEI              *string `validate:"omitempty,max=17"`
	SerialNumber      *string `validate:"omitempty,max=50"`
}

// LedgerEntry is an append-only record of a sale.
type LedgerEntry struct {
	ID          int64
	Ref         ItemRef
	Type        string
	Amount      decimal.Decimal
	Description string
}

// LedgerTypeSale is the only ledger entry type written today.
const LedgerTypeSale = "sale"

// LedgerSaleDescription formats a sale entry from the item name and sale price.
const LedgerSaleDescription = "Продажа: %s за %s"

// SaleResult reports a completed sale.
type SaleResult struct {
	Ref           ItemRef
	Name          string
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Profit        decimal.Decimal
	LedgerID      int64
}
