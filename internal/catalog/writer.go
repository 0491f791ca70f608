package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/m3rciful/stockbot/core/database"
	"github.com/m3rciful/stockbot/core/logger"
)

// MaxCategoryName bounds category names in runes.
const MaxCategoryName = 100

// InsertCategory creates a category. A duplicate name yields ErrCategoryExists
// and leaves the table untouched.
func (s *Store) InsertCategory(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > MaxCategoryName {
		return 0, fmt.Errorf("%w: category name must be 1..%d characters", ErrInvalidItem, MaxCategoryName)
	}

	var id int64
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &id, tx.Rebind(
			`INSERT INTO categories (name) VALUES (?) ON CONFLICT (name) DO NOTHING RETURNING id`), name)
	})
	switch {
	case errors.Is(err, sql.ErrNoRows):
		logger.Info(ctx, component, "category.create",
			slog.String("status", "skip"),
			slog.String("cause", "exists"),
		)
		return 0, ErrCategoryExists
	case err != nil:
		logger.Error(ctx, component, "category.create",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("insert category: %w", err)
	}
	logger.Info(ctx, component, "category.create",
		slog.String("status", "ok"),
		slog.Int64("category_id", id),
	)
	return id, nil
}

// InsertProduct persists a generic product.
func (s *Store) InsertProduct(ctx context.Context, p NewProduct) (int64, error) {
	if err := s.check(p, p.PurchasePrice, p.SalePrice); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.GetContext(ctx, &id, s.db.Rebind(`
		INSERT INTO products (name, purchase_price, sale_price, quantity, category_id)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		strings.TrimSpace(p.Name), p.PurchasePrice, p.SalePrice, p.Quantity, p.CategoryID,
	)
	if err != nil {
		logger.Error(ctx, component, "product.create",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("insert product: %w", err)
	}
	logger.Info(ctx, component, "product.create",
		slog.String("status", "ok"),
		slog.Int64("item_id", id),
		slog.Int64("category_id", p.CategoryID),
	)
	return id, nil
}

// InsertPhone persists a phone. Phones are never batched, so no quantity is stored.
func (s *Store) InsertPhone(ctx context.Context, p NewPhone) (int64, error) {
	if err := s.check(p, p.PurchasePrice, decimal.NullDecimal{}); err != nil {
		return 0, err
	}
	var id int64
	err := s.db.GetContext(ctx, &id, s.db.Rebind(`
		INSERT INTO phones (
			name, purchase_price, model_id, color_id, storage_capacity_id, market_id,
			condition_id, battery_health, repaired, full_kit, imei, serial_number
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		strings.TrimSpace(p.Name), p.PurchasePrice, p.ModelID, p.ColorID, p.StorageCapacityID, p.MarketID,
		p.ConditionID, p.BatteryHealth, p.Repaired, p.FullKit, p.IMEI, p.SerialNumber,
	)
	if err != nil {
		logger.Error(ctx, component, "phone.create",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return 0, fmt.Errorf("insert phone: %w", err)
	}
	logger.Info(ctx, component, "phone.create",
		slog.String("status", "ok"),
		slog.Int64("item_id", id),
	)
	return id, nil
}

func (s *Store) check(v any, purchase decimal.Decimal, sale decimal.NullDecimal) error {
	if err := s.validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidItem, err)
	}
	if !purchase.IsPositive() {
		return fmt.Errorf("%w: purchase price must be positive", ErrInvalidItem)
	}
	if sale.Valid && !sale.Decimal.IsPositive() {
		return fmt.Errorf("%w: sale price must be positive", ErrInvalidItem)
	}
	return nil
}

// MarkSold flips the item's sold flag, stores the sale price and appends the
// ledger entry in a single transaction. The sold flag is re-checked by the
// UPDATE itself so two concurrent sales cannot both succeed.
func (s *Store) MarkSold(ctx context.Context, ref ItemRef, price decimal.Decimal) (SaleResult, error) {
	if err := ref.Validate(); err != nil {
		return SaleResult{}, err
	}
	if !price.IsPositive() {
		return SaleResult{}, fmt.Errorf("%w: sale price must be positive", ErrInvalidItem)
	}
	table, _ := ref.Kind.table()

	res := SaleResult{Ref: ref, SalePrice: price}
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		r, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE `+table+` SET is_sold = TRUE, sale_price = ? WHERE id = ? AND is_sold = FALSE`),
			price, ref.ID)
		if err != nil {
			return fmt.Errorf("mark sold: %w", err)
		}
		n, err := r.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark sold rows: %w", err)
		}
		if n == 0 {
			var sold bool
			err := tx.GetContext(ctx, &sold, tx.Rebind(`SELECT is_sold FROM `+table+` WHERE id = ?`), ref.ID)
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("recheck item: %w", err)
			}
			return ErrAlreadySold
		}

		var row struct {
			Name          string          `db:"name"`
			PurchasePrice decimal.Decimal `db:"purchase_price"`
		}
		if err := tx.GetContext(ctx, &row, tx.Rebind(
			`SELECT name, purchase_price FROM `+table+` WHERE id = ?`), ref.ID); err != nil {
			return fmt.Errorf("load item: %w", err)
		}
		res.Name = row.Name
		res.PurchasePrice = row.PurchasePrice
		res.Profit = price.Sub(row.PurchasePrice)

		return tx.GetContext(ctx, &res.LedgerID, tx.Rebind(
			`INSERT INTO transactions (`+ref.ledgerColumn()+`, type, amount, description)
			VALUES (?, ?, ?, ?) RETURNING id`),
			ref.ID, LedgerTypeSale, res.Profit, saleDescription(row.Name, price))
	})
	if err != nil {
		status := "fail"
		if errors.Is(err, ErrAlreadySold) || errors.Is(err, ErrNotFound) {
			status = "skip"
		}
		logger.Warn(ctx, "service.sales", "sale.fail",
			slog.String("status", status),
			slog.String("item_type", string(ref.Kind)),
			slog.Int64("item_id", ref.ID),
			slog.String("err", err.Error()),
		)
		return SaleResult{}, err
	}

	logger.Info(ctx, "service.sales", "sale.done",
		slog.String("status", "ok"),
		slog.String("item_type", string(ref.Kind)),
		slog.Int64("item_id", ref.ID),
		slog.String("price", price.StringFixed(2)),
		slog.String("profit", res.Profit.StringFixed(2)),
	)
	return res, nil
}

func saleDescription(name string, price decimal.Decimal) string {
	return fmt.Sprintf(LedgerSaleDescription, name, price.StringFixed(2))
}
