package app

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/stockbot/core/bootstrap"
	"github.com/m3rciful/stockbot/internal/catalog"
)

// ReferenceSeeder inserts the configured reference rows that are still missing.
func ReferenceSeeder(ref catalog.Reference) bootstrap.Seeder {
	return bootstrap.SeederFunc(func(ctx context.Context, db *sqlx.DB) error {
		if ref.Empty() {
			return nil
		}
		return catalog.NewStore(db).SeedReference(ctx, ref)
	})
}
