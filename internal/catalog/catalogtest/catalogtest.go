// Package catalogtest provides an in-memory SQLite catalog for tests.
package catalogtest

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/m3rciful/stockbot/internal/catalog"
)

// Schema mirrors migrations/ in SQLite dialect.
const Schema = `
CREATE TABLE categories (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE);
CREATE TABLE conditions (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE);
CREATE TABLE brands (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE);
CREATE TABLE models (
  id INTEGER PRIMARY KEY,
  brand_id INTEGER NOT NULL REFERENCES brands(id),
  name TEXT NOT NULL,
  UNIQUE (brand_id, name)
);
CREATE TABLE storage_capacities (id INTEGER PRIMARY KEY, capacity INTEGER NOT NULL UNIQUE);
CREATE TABLE markets (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE);
CREATE TABLE colors (id INTEGER PRIMARY KEY, name TEXT NOT NULL UNIQUE);
CREATE TABLE products (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  purchase_price NUMERIC NOT NULL,
  sale_price NUMERIC,
  quantity INTEGER NOT NULL DEFAULT 1,
  category_id INTEGER NOT NULL REFERENCES categories(id),
  is_sold BOOLEAN NOT NULL DEFAULT FALSE,
  CHECK (NOT is_sold OR sale_price IS NOT NULL)
);
CREATE TABLE phones (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  purchase_price NUMERIC NOT NULL,
  sale_price NUMERIC,
  model_id INTEGER NOT NULL REFERENCES models(id),
  color_id INTEGER NOT NULL REFERENCES colors(id),
  storage_capacity_id INTEGER NOT NULL REFERENCES storage_capacities(id),
  market_id INTEGER NOT NULL REFERENCES markets(id),
  condition_id INTEGER NOT NULL REFERENCES conditions(id),
  battery_health INTEGER CHECK (battery_health BETWEEN 0 AND 100),
  repaired BOOLEAN NOT NULL DEFAULT FALSE,
  full_kit BOOLEAN NOT NULL DEFAULT TRUE,
  imei TEXT,
  serial_number TEXT,
  is_sold BOOLEAN NOT NULL DEFAULT FALSE,
  CHECK (NOT is_sold OR sale_price IS NOT NULL)
);
CREATE TABLE transactions (
  id INTEGER PRIMARY KEY,
  product_id INTEGER REFERENCES products(id),
  phone_id INTEGER REFERENCES phones(id),
  type TEXT NOT NULL DEFAULT 'sale',
  amount NUMERIC NOT NULL,
  description TEXT,
  CHECK ((product_id IS NULL) <> (phone_id IS NULL))
);
CREATE UNIQUE INDEX transactions_product_sale_uniq ON transactions (product_id) WHERE type = 'sale' AND product_id IS NOT NULL;
CREATE UNIQUE INDEX transactions_phone_sale_uniq ON transactions (phone_id) WHERE type = 'sale' AND phone_id IS NOT NULL;
`

// Reference is a small seed with deliberately unsorted names.
var Reference = catalog.Reference{
	Categories: []string{"Электроника", "Телефоны"},
	Conditions: []string{"Новый", "Б/у"},
	Brands: []catalog.BrandSeed{
		{Name: "Zeta", Models: []string{"Z2", "Z1"}},
		{Name: "Acme", Models: []string{"X1"}},
	},
	StorageCapacities: []int{256, 64, 128},
	Markets:           []string{"EU", "US"},
	Colors:            []string{"Black", "Blue"},
}

// Open returns an in-memory SQLite database with Schema applied.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.Exec(Schema); err != nil {
		t.Fatal(err)
	}
	return db
}

// NewStore returns a Store over Open seeded with Reference.
func NewStore(t testing.TB) (*catalog.Store, *sqlx.DB) {
	t.Helper()
	db := Open(t)
	store := catalog.NewStore(db)
	if err := store.SeedReference(context.Background(), Reference); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return store, db
}
