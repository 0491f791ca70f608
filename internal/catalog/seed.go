package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/stockbot/core/database"
	"github.com/m3rciful/stockbot/core/logger"
)

// BrandSeed lists a brand and its models.
type BrandSeed struct {
	Name   string   `yaml:"name"`
	Models []string `yaml:"models"`
}

// Reference is the reference data loaded from configuration at startup.
type Reference struct {
	Categories        []string    `yaml:"categories"`
	Conditions        []string    `yaml:"conditions"`
	Brands            []BrandSeed `yaml:"brands"`
	StorageCapacities []int       `yaml:"storage_capacities"`
	Markets           []string    `yaml:"markets"`
	Colors            []string    `yaml:"colors"`
}

// Empty reports whether there is nothing to seed.
func (r Reference) Empty() bool {
	return len(r.Categories) == 0 && len(r.Conditions) == 0 && len(r.Brands) == 0 &&
		len(r.StorageCapacities) == 0 && len(r.Markets) == 0 && len(r.Colors) == 0
}

// SeedReference inserts missing reference rows. Existing rows are left as they
// are, so running it on every start is safe.
func (s *Store) SeedReference(ctx context.Context, ref Reference) error {
	if ref.Empty() {
		return nil
	}
	inserted := 0
	err := database.WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, set := range []struct {
			table string
			names []string
		}{
			{"categories", ref.Categories},
			{"conditions", ref.Conditions},
			{"markets", ref.Markets},
			{"colors", ref.Colors},
		} {
			for _, name := range set.names {
				n, err := insertName(ctx, tx, set.table, name)
				if err != nil {
					return err
				}
				inserted += n
			}
		}
		for _, c := range ref.StorageCapacities {
			if c <= 0 {
				return fmt.Errorf("seed storage capacity %d: must be positive", c)
			}
			n, err := execCount(ctx, tx,
				`INSERT INTO storage_capacities (capacity) VALUES (?) ON CONFLICT (capacity) DO NOTHING`, c)
			if err != nil {
				return fmt.Errorf("seed storage capacity %d: %w", c, err)
			}
			inserted += n
		}
		for _, b := range ref.Brands {
			n, err := insertName(ctx, tx, "brands", b.Name)
			if err != nil {
				return err
			}
			inserted += n
			var brandID int64
			if err := tx.GetContext(ctx, &brandID, tx.Rebind(`SELECT id FROM brands WHERE name = ?`),
				strings.TrimSpace(b.Name)); err != nil {
				return fmt.Errorf("seed brand %q: %w", b.Name, err)
			}
			for _, model := range b.Models {
				model = strings.TrimSpace(model)
				if model == "" {
					continue
				}
				n, err := execCount(ctx, tx,
					`INSERT INTO models (brand_id, name) VALUES (?, ?) ON CONFLICT (brand_id, name) DO NOTHING`,
					brandID, model)
				if err != nil {
					return fmt.Errorf("seed model %q: %w", model, err)
				}
				inserted += n
			}
		}
		return nil
	})
	if err != nil {
		logger.Error(ctx, "db.seed", "seed.reference",
			slog.String("status", "fail"),
			slog.String("err", err.Error()),
		)
		return err
	}
	logger.Info(ctx, "db.seed", "seed.reference",
		slog.String("status", "ok"),
		slog.Int("count", inserted),
	)
	return nil
}

func insertName(ctx context.Context, tx *sqlx.Tx, table, name string) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, nil
	}
	n, err := execCount(ctx, tx, `INSERT INTO `+table+` (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name)
	if err != nil {
		return 0, fmt.Errorf("seed %s %q: %w", table, name, err)
	}
	return n, nil
}

func execCount(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (int, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
