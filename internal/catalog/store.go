package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/stockbot/core/logger"
)

const component = "service.catalog"

// Store reads and writes the catalog through sqlx. Queries are written with
// '?' placeholders and rebound for the connected driver.
type Store struct {
	db       *sqlx.DB
	validate *validator.Validate
}

// NewStore wraps an open database handle.
func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, validate: validator.New()}
}

// ListCategories returns every category ordered by name.
func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := s.selectRef(ctx, "categories", &out, `SELECT id, name FROM categories ORDER BY name, id`)
	return out, err
}

// ListConditions returns item conditions ordered by name.
func (s *Store) ListConditions(ctx context.Context) ([]Option, error) {
	var out []Option
	err := s.selectRef(ctx, "conditions", &out, `SELECT id, name FROM conditions ORDER BY name, id`)
	return out, err
}

// ListBrands returns phone brands ordered by name.
func (s *Store) ListBrands(ctx context.Context) ([]Option, error) {
	var out []Option
	err := s.selectRef(ctx, "brands", &out, `SELECT id, name FROM brands ORDER BY name, id`)
	return out, err
}

// ListModels returns the models of one brand ordered by name.
func (s *Store) ListModels(ctx context.Context, brandID int64) ([]Option, error) {
	var out []Option
	err := s.selectRef(ctx, "models", &out,
		`SELECT id, name FROM models WHERE brand_id = ? ORDER BY name, id`, brandID)
	return out, err
}

// ListStorageCapacities returns capacities in ascending order.
func (s *Store) ListStorageCapacities(ctx context.Context) ([]StorageCapacity, error) {
	var out []StorageCapacity
	err := s.selectRef(ctx, "storage_capacities", &out,
		`SELECT id, capacity FROM storage_capacities ORDER BY capacity, id`)
	return out, err
}

// ListMarkets returns markets ordered by name.
func (s *Store) ListMarkets(ctx context.Context) ([]Option, error) {
	var out []Option
	err := s.selectRef(ctx, "markets", &out, `SELECT id, name FROM markets ORDER BY name, id`)
	return out, err
}

// ListColors returns colors ordered by name.
func (s *Store) ListColors(ctx context.Context) ([]Option, error) {
	var out []Option
	err := s.selectRef(ctx, "colors", &out, `SELECT id, name FROM colors ORDER BY name, id`)
	return out, err
}

func (s *Store) selectRef(ctx context.Context, table string, dest any, query string, args ...any) error {
	start := time.Now()
	err := s.db.SelectContext(ctx, dest, s.db.Rebind(query), args...)
	if err != nil {
		logger.Error(ctx, component, "catalog.list",
			slog.String("status", "fail"),
			slog.String("op", table),
			slog.String("err", err.Error()),
		)
		return fmt.Errorf("list %s: %w", table, err)
	}
	if logger.ShouldSampleDebug() {
		logger.Debug(ctx, component, "catalog.list",
			slog.String("status", "ok"),
			slog.String("op", table),
			slog.Duration("duration", logger.Took(start)),
		)
	}
	return nil
}
