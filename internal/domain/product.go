// Package domain defines the core types shared across the harvest,
// merge, and persistence stages.
package domain

import "time"

// PlaceholderImageURL is used when a tile carries no product image.
const PlaceholderImageURL = "//assets.shop.loblaws.ca/products/NoImage/b1/en/front/NoImage_front_a06.png"

// ProductTile is one listing entry as found on a results page.
// Produced by the extractor, consumed by the merger.
type ProductTile struct {
	ProductID     string  `json:"productId"`
	Title         string  `json:"title"`
	Brand         *string `json:"brand,omitempty"`
	ImageURL      string  `json:"imageUrl"`
	Price         string  `json:"price"`
	PricingUnits  string  `json:"pricingUnits"`
	PackageSizing string  `json:"packageSizing"`
}

// PriceObservation is one store's reported price for a product.
type PriceObservation struct {
	Store         string `json:"store"`
	PriceCents    int64  `json:"price_cents"`
	PackageSizing string `json:"packageSizing"`
}

// CanonicalProduct is the cross-domain merged record for one product
// identity. Descriptive fields are fixed at first sight; the price set
// grows monotonically during a merge pass.
type CanonicalProduct struct {
	ProductID string             `json:"productId"`
	SmallURL  string             `json:"smallUrl"`
	Brand     *string            `json:"brand"`
	Title     string             `json:"title"`
	Type      string             `json:"type"`
	Prices    []PriceObservation `json:"prices"`
}

// HasPrice reports whether the product already carries an observation
// with the same (store, price_cents, package_sizing) tuple.
func (p *CanonicalProduct) HasPrice(obs PriceObservation) bool {
	for _, existing := range p.Prices {
		if existing.Store == obs.Store &&
			existing.PriceCents == obs.PriceCents &&
			existing.PackageSizing == obs.PackageSizing {
			return true
		}
	}
	return false
}

// Product is the storage-side projection of a CanonicalProduct.
type Product struct {
	ProductID     string  `db:"product_id"      json:"productId"`
	SmallImageURL string  `db:"small_image_url" json:"smallUrl"`
	BrandName     *string `db:"brand_name"      json:"brand"`
	TitleName     string  `db:"title_name"      json:"title"`
	Type          string  `db:"type"            json:"type"`
}

// ProductPrice is one store's current persisted price for a product.
// Keyed by (product_id, store); updated_at is bumped on every write.
type ProductPrice struct {
	ProductID     string    `db:"product_id"     json:"productId"`
	Store         string    `db:"store"          json:"store"`
	PriceCents    *int64    `db:"price_cents"    json:"price_cents"`
	PackageSizing string    `db:"package_sizing" json:"packageSizing"`
	UpdatedAt     time.Time `db:"updated_at"     json:"updated_at"`
}
