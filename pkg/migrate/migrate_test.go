package migrate_test

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/resinriver/storefront/pkg/migrate"
)

func readMigration(t *testing.T, suffix string) string {
	t.Helper()
	matches, err := fs.Glob(migrate.Files(), "*_"+suffix+".sql")
	require.NoError(t, err)
	require.Len(t, matches, 1, "no %s migration found", suffix)

	data, err := fs.ReadFile(migrate.Files(), matches[0])
	require.NoError(t, err)
	return string(data)
}

func TestEmbeddedMigrationsAreValid(t *testing.T) {
	require.NoError(t, migrate.ValidateFS(migrate.Files()))
	require.NoError(t, migrate.ValidateDir("migrations"))
}

func TestOrdersMigrationContainsConstraints(t *testing.T) {
	content := readMigration(t, "create_orders")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS orders",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_orders_order_number ON orders (order_number)",
		"FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE",
		"CHECK (quantity >= 1)",
		"payment_status text NOT NULL DEFAULT 'unpaid'",
		"DROP TABLE IF EXISTS orders",
	}
	for _, sub := range checks {
		assert.Contains(t, content, sub)
	}
}

func TestCatalogMigrationDefaults(t *testing.T) {
	content := readMigration(t, "create_catalog")

	checks := []string{
		"CREATE TABLE IF NOT EXISTS items",
		"available boolean NOT NULL DEFAULT true",
		"CREATE UNIQUE INDEX IF NOT EXISTS ux_items_slug ON items (slug)",
		"PRIMARY KEY (item_id, tag_id)",
		"DROP TABLE IF EXISTS item_tags",
	}
	for _, sub := range checks {
		assert.Contains(t, content, sub)
	}
}

func TestPricingMigrationIndexes(t *testing.T) {
	content := readMigration(t, "create_pricing")

	for _, sub := range []string{
		"ux_discount_codes_code",
		"ux_tax_configurations_region ON tax_configurations (country, state)",
		"CHECK (discount_type IN ('percentage', 'fixed'))",
	} {
		assert.Contains(t, content, sub)
	}
}

func TestValidateFSRejectsBadFiles(t *testing.T) {
	cases := map[string]fstest.MapFS{
		"bad name": {
			"add_orders.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
		"missing down": {
			"20260101000000_orders.sql": {Data: []byte("-- +goose Up\nSELECT 1;\n")},
		},
		"duplicate version": {
			"20260101000000_a.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
			"20260101000000_b.sql": {Data: []byte("-- +goose Up\n-- +goose Down\n")},
		},
	}
	for name, fsys := range cases {
		t.Run(name, func(t *testing.T) {
			assert.Error(t, migrate.ValidateFS(fsys))
		})
	}
}

func TestCreateSQLMigration(t *testing.T) {
	dir := t.TempDir()

	path, err := migrate.CreateSQLMigration(dir, "Add Gift Cards!")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(filepath.Base(path), "_add_gift_cards.sql"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "-- +goose Up")
	assert.NoError(t, migrate.ValidateDir(dir))

	_, err = migrate.CreateSQLMigration(dir, "  ")
	assert.Error(t, err)
}
