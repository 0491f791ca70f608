package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const productColumns = `
	SELECT p.id, p.name, p.purchase_price, p.sale_price, p.quantity,
	       p.category_id, c.name AS category_name, p.is_sold
	FROM products p
	JOIN categories c ON c.id = p.category_id`

const phoneColumns = `
	SELECT ph.id, ph.name, ph.purchase_price, ph.sale_price,
	       ph.model_id, ph.color_id, ph.storage_capacity_id, ph.market_id, ph.condition_id,
	       ph.battery_health, ph.repaired, ph.full_kit, ph.imei, ph.serial_number, ph.is_sold,
	       b.name AS brand_name, m.name AS model_name, col.name AS color_name,
	       sc.capacity AS capacity, mk.name AS market_name, cn.name AS condition_name
	FROM phones ph
	JOIN models m ON m.id = ph.model_id
	JOIN brands b ON b.id = m.brand_id
	JOIN colors col ON col.id = ph.color_id
	JOIN storage_capacities sc ON sc.id = ph.storage_capacity_id
	JOIN markets mk ON mk.id = ph.market_id
	JOIN conditions cn ON cn.id = ph.condition_id`

// ListProducts returns products with the given sold flag, newest first.
func (s *Store) ListProducts(ctx context.Context, sold bool) ([]Product, error) {
	var out []Product
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(productColumns+`
		WHERE p.is_sold = ? ORDER BY p.id DESC`), sold); err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return out, nil
}

// ListPhones returns phones with the given sold flag, newest first.
func (s *Store) ListPhones(ctx context.Context, sold bool) ([]Phone, error) {
	var out []Phone
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(phoneColumns+`
		WHERE ph.is_sold = ? ORDER BY ph.id DESC`), sold); err != nil {
		return nil, fmt.Errorf("list phones: %w", err)
	}
	return out, nil
}

// ListItems returns items of one kind in id-descending order. The order is
// stable across calls, so callers may page through it by index.
func (s *Store) ListItems(ctx context.Context, kind ItemKind, sold bool) ([]Item, error) {
	switch kind {
	case KindProduct:
		rows, err := s.ListProducts(ctx, sold)
		if err != nil {
			return nil, err
		}
		items := make([]Item, len(rows))
		for i := range rows {
			items[i] = Item{Ref: ProductRef(rows[i].ID), Product: &rows[i]}
		}
		return items, nil
	case KindPhone:
		rows, err := s.ListPhones(ctx, sold)
		if err != nil {
			return nil, err
		}
		items := make([]Item, len(rows))
		for i := range rows {
			items[i] = Item{Ref: PhoneRef(rows[i].ID), Phone: &rows[i]}
		}
		return items, nil
	}
	return nil, fmt.Errorf("%w: unknown item kind %q", ErrInvalidItem, string(kind))
}

// GetItem loads one item by reference.
func (s *Store) GetItem(ctx context.Context, ref ItemRef) (Item, error) {
	if err := ref.Validate(); err != nil {
		return Item{}, err
	}
	var err error
	it := Item{Ref: ref}
	if ref.Kind == KindPhone {
		var ph Phone
		err = s.db.GetContext(ctx, &ph, s.db.Rebind(phoneColumns+` WHERE ph.id = ?`), ref.ID)
		it.Phone = &ph
	} else {
		var p Product
		err = s.db.GetContext(ctx, &p, s.db.Rebind(productColumns+` WHERE p.id = ?`), ref.ID)
		it.Product = &p
	}
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, ErrNotFound
	}
	if err != nil {
		return Item{}, fmt.Errorf("get %s: %w", ref, err)
	}
	return it, nil
}

// Ledger returns the ledger entries recorded for one item, oldest first.
func (s *Store) Ledger(ctx context.Context, ref ItemRef) ([]LedgerEntry, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	var rows []struct {
		ID          int64           `db:"id"`
		Type        string          `db:"type"`
		Amount      decimal.Decimal `db:"amount"`
		Description sql.NullString  `db:"description"`
	}
	err := s.db.SelectContext(ctx, &rows, s.db.Rebind(
		`SELECT id, type, amount, description FROM transactions WHERE `+ref.ledgerColumn()+` = ? ORDER BY id`),
		ref.ID)
	if err != nil {
		return nil, fmt.Errorf("ledger %s: %w", ref, err)
	}
	out := make([]LedgerEntry, len(rows))
	for i, r := range rows {
		out[i] = LedgerEntry{ID: r.ID, Ref: ref, Type: r.Type, Amount: r.Amount, Description: r.Description.String}
	}
	return out, nil
}
