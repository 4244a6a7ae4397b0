package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaDDL defines the catalog tables. Deleting a product cascades to
// its price rows; price history is only ever lost through an explicit
// product delete or the replacement of a store's current price.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS products (
	product_id      TEXT PRIMARY KEY,
	small_image_url TEXT NOT NULL,
	brand_name      TEXT,
	title_name      TEXT NOT NULL,
	type            TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS product_prices (
	product_id     TEXT NOT NULL REFERENCES products(product_id) ON DELETE CASCADE,
	store          TEXT NOT NULL,
	price_cents    BIGINT,
	package_sizing TEXT NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	PRIMARY KEY (product_id, store)
);
`

// EnsureSchema creates the catalog tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}
