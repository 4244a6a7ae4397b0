package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/logger"
)

// ErrProductNotFound is returned when a product identifier has no row.
// Callers should check with errors.Is().
var ErrProductNotFound = errors.New("product not found")

// productSelectColumns lists columns for SELECT queries on products.
const productSelectColumns = `product_id, small_image_url, brand_name, title_name, type`

// ProductRepository handles catalog persistence. Upserts run one
// transaction per product; concurrent upserts for different product
// identifiers are safe, but callers must serialize upserts for the
// same identifier.
type ProductRepository struct {
	db  *sqlx.DB
	log logger.Interface
}

// NewProductRepository creates a new product repository.
func NewProductRepository(db *sqlx.DB, log logger.Interface) *ProductRepository {
	return &ProductRepository{db: db, log: log}
}

// Upsert applies one canonical product to storage. An existing product
// has its descriptive fields overwritten unconditionally (the canonical
// record is always more current than storage) and each incoming price
// either replaces that store's current row, bumping updated_at, or is
// inserted. Stores on file but absent from the incoming set keep their
// last known price. Applying the same product twice leaves storage
// unchanged the second time.
func (r *ProductRepository) Upsert(ctx context.Context, p domain.CanonicalProduct) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin upsert transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	exists, existsErr := productExists(ctx, tx, p.ProductID)
	if existsErr != nil {
		return existsErr
	}

	if exists {
		if updateErr := updateProduct(ctx, tx, p); updateErr != nil {
			return updateErr
		}
		if priceErr := reconcilePrices(ctx, tx, p); priceErr != nil {
			return priceErr
		}
	} else {
		if insertErr := insertProduct(ctx, tx, p); insertErr != nil {
			return insertErr
		}
		// A merged product can carry several observations for one store
		// (its price changed between domain scrapes); the price table
		// keys on (product_id, store), so later observations replace
		// earlier ones rather than violating the key.
		if priceErr := reconcilePrices(ctx, tx, p); priceErr != nil {
			return priceErr
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		return fmt.Errorf("failed to commit upsert transaction: %w", commitErr)
	}

	return nil
}

// UpsertAll applies a batch of canonical products, one transaction
// each. A failed product is rolled back and recorded in the report;
// the batch continues.
func (r *ProductRepository) UpsertAll(ctx context.Context, products []domain.CanonicalProduct) domain.BatchReport {
	var report domain.BatchReport

	for _, p := range products {
		if err := r.Upsert(ctx, p); err != nil {
			report.RecordFailure(p.ProductID, err)
			r.log.Error("product upsert failed",
				"product_id", p.ProductID,
				"error", err.Error(),
			)
			continue
		}
		report.RecordSuccess()
	}

	r.log.Info("bulk upsert complete",
		"total", report.Total,
		"succeeded", report.Succeeded,
		"failed", report.Failed,
	)
	return report
}

// GetByID loads one product and its price rows.
func (r *ProductRepository) GetByID(ctx context.Context, productID string) (*domain.CanonicalProduct, error) {
	var row domain.Product

	query := `SELECT ` + productSelectColumns + ` FROM products WHERE product_id = $1`
	if err := r.db.GetContext(ctx, &row, query, productID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to select product: %w", err)
	}

	var prices []domain.ProductPrice
	priceQuery := `
		SELECT product_id, store, price_cents, package_sizing, updated_at
		FROM product_prices
		WHERE product_id = $1
		ORDER BY store
	`
	if err := r.db.SelectContext(ctx, &prices, priceQuery, productID); err != nil {
		return nil, fmt.Errorf("failed to select product prices: %w", err)
	}

	p := canonicalFromRow(row)
	for _, price := range prices {
		p.Prices = append(p.Prices, observationFromRow(price))
	}
	return &p, nil
}

// List loads the full persisted catalog in the canonical record shape,
// products ordered by identifier and prices by store.
func (r *ProductRepository) List(ctx context.Context) ([]domain.CanonicalProduct, error) {
	var rows []domain.Product

	query := `SELECT ` + productSelectColumns + ` FROM products ORDER BY product_id`
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to select products: %w", err)
	}

	var prices []domain.ProductPrice
	priceQuery := `
		SELECT product_id, store, price_cents, package_sizing, updated_at
		FROM product_prices
		ORDER BY product_id, store
	`
	if err := r.db.SelectContext(ctx, &prices, priceQuery); err != nil {
		return nil, fmt.Errorf("failed to select product prices: %w", err)
	}

	byID := make(map[string]int, len(rows))
	catalog := make([]domain.CanonicalProduct, 0, len(rows))
	for i, row := range rows {
		byID[row.ProductID] = i
		catalog = append(catalog, canonicalFromRow(row))
	}
	for _, price := range prices {
		if idx, ok := byID[price.ProductID]; ok {
			catalog[idx].Prices = append(catalog[idx].Prices, observationFromRow(price))
		}
	}

	return catalog, nil
}

// Count returns the number of persisted products.
func (r *ProductRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products`); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// Delete removes a product; its price rows go with it via ON DELETE CASCADE.
func (r *ProductRepository) Delete(ctx context.Context, productID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM products WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	affected, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return fmt.Errorf("failed to read delete result: %w", affectedErr)
	}
	if affected == 0 {
		return ErrProductNotFound
	}
	return nil
}

// productExists checks for an existing product row within a transaction.
func productExists(ctx context.Context, tx *sqlx.Tx, productID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM products WHERE product_id = $1)`
	if err := tx.GetContext(ctx, &exists, query, productID); err != nil {
		return false, fmt.Errorf("failed to check product existence: %w", err)
	}
	return exists, nil
}

// insertProduct inserts a new product row.
func insertProduct(ctx context.Context, tx *sqlx.Tx, p domain.CanonicalProduct) error {
	query := `
		INSERT INTO products (product_id, small_image_url, brand_name, title_name, type)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := tx.ExecContext(ctx, query, p.ProductID, p.SmallURL, p.Brand, p.Title, p.Type); err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// updateProduct overwrites an existing product's descriptive fields.
func updateProduct(ctx context.Context, tx *sqlx.Tx, p domain.CanonicalProduct) error {
	query := `
		UPDATE products
		SET small_image_url = $2, brand_name = $3, title_name = $4, type = $5
		WHERE product_id = $1
	`
	if _, err := tx.ExecContext(ctx, query, p.ProductID, p.SmallURL, p.Brand, p.Title, p.Type); err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	return nil
}

// reconcilePrices applies incoming observations against the stores
// already on file: replace in place when the store exists, insert when
// it does not. Stores not present in the incoming set are untouched.
func reconcilePrices(ctx context.Context, tx *sqlx.Tx, p domain.CanonicalProduct) error {
	var stores []string
	query := `SELECT store FROM product_prices WHERE product_id = $1`
	if err := tx.SelectContext(ctx, &stores, query, p.ProductID); err != nil {
		return fmt.Errorf("failed to select existing price stores: %w", err)
	}

	onFile := make(map[string]bool, len(stores))
	for _, store := range stores {
		onFile[store] = true
	}

	for _, obs := range p.Prices {
		if onFile[obs.Store] {
			if err := updatePrice(ctx, tx, p.ProductID, obs); err != nil {
				return err
			}
			continue
		}
		if err := insertPrice(ctx, tx, p.ProductID, obs); err != nil {
			return err
		}
		onFile[obs.Store] = true
	}

	return nil
}

// insertPrice inserts a new price row for a store.
func insertPrice(ctx context.Context, tx *sqlx.Tx, productID string, obs domain.PriceObservation) error {
	query := `
		INSERT INTO product_prices (product_id, store, price_cents, package_sizing, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
	`
	if _, err := tx.ExecContext(ctx, query, productID, obs.Store, obs.PriceCents, obs.PackageSizing); err != nil {
		return fmt.Errorf("failed to insert price for store %q: %w", obs.Store, err)
	}
	return nil
}

// updatePrice replaces a store's current price row in place.
func updatePrice(ctx context.Context, tx *sqlx.Tx, productID string, obs domain.PriceObservation) error {
	query := `
		UPDATE product_prices
		SET price_cents = $3, package_sizing = $4, updated_at = NOW()
		WHERE product_id = $1 AND store = $2
	`
	if _, err := tx.ExecContext(ctx, query, productID, obs.Store, obs.PriceCents, obs.PackageSizing); err != nil {
		return fmt.Errorf("failed to update price for store %q: %w", obs.Store, err)
	}
	return nil
}

// canonicalFromRow maps a product row into the canonical record shape.
func canonicalFromRow(row domain.Product) domain.CanonicalProduct {
	return domain.CanonicalProduct{
		ProductID: row.ProductID,
		SmallURL:  row.SmallImageURL,
		Brand:     row.BrandName,
		Title:     row.TitleName,
		Type:      row.Type,
	}
}

// observationFromRow maps a price row into a PriceObservation.
func observationFromRow(price domain.ProductPrice) domain.PriceObservation {
	obs := domain.PriceObservation{
		Store:         price.Store,
		PackageSizing: price.PackageSizing,
	}
	if price.PriceCents != nil {
		obs.PriceCents = *price.PriceCents
	}
	return obs
}
