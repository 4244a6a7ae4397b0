// Package extractor turns raw listing-page payloads into product tiles.
// It is a pure transform: field mapping only, no business logic.
package extractor

import (
	"encoding/json"

	"github.com/shelfwatch/shelfwatch/internal/domain"
)

// pageBody mirrors the structural path to the product grid inside a
// listing API response. Anything outside this path is ignored.
type pageBody struct {
	Layout struct {
		Sections struct {
			ProductListingSection struct {
				Components []struct {
					Data struct {
						ProductGrid *productGrid `json:"productGrid"`
					} `json:"data"`
				} `json:"components"`
			} `json:"productListingSection"`
		} `json:"sections"`
	} `json:"layout"`
}

type productGrid struct {
	ProductTiles []rawTile `json:"productTiles"`
}

type rawTile struct {
	ProductID    string  `json:"productId"`
	Title        string  `json:"title"`
	Brand        *string `json:"brand"`
	ProductImage []struct {
		SmallURL string `json:"smallUrl"`
	} `json:"productImage"`
	Pricing struct {
		Price json.Number `json:"price"`
	} `json:"pricing"`
	PricingUnits struct {
		Type string `json:"type"`
	} `json:"pricingUnits"`
	PackageSizing string `json:"packageSizing"`
}

// Extract pulls the product tiles out of one raw page body. The second
// return value reports whether the page is structurally empty: the body
// is not valid JSON, any segment of the grid path is absent, the grid
// is explicitly null, or it holds zero tiles. This is the signal the
// harvester's strike counter consumes.
//
// Tiles without a product identifier are skipped individually; a page
// is never rejected for a single bad tile. Optional fields fall back to
// defaults rather than failing.
func Extract(body []byte) ([]domain.ProductTile, bool) {
	var page pageBody
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, true
	}

	components := page.Layout.Sections.ProductListingSection.Components
	if len(components) == 0 {
		return nil, true
	}

	grid := components[0].Data.ProductGrid
	if grid == nil || len(grid.ProductTiles) == 0 {
		return nil, true
	}

	tiles := make([]domain.ProductTile, 0, len(grid.ProductTiles))
	for _, raw := range grid.ProductTiles {
		if raw.ProductID == "" {
			continue
		}
		tiles = append(tiles, normalizeTile(raw))
	}

	return tiles, false
}

// normalizeTile maps one raw tile into the ProductTile shape.
func normalizeTile(raw rawTile) domain.ProductTile {
	imageURL := domain.PlaceholderImageURL
	if len(raw.ProductImage) > 0 && raw.ProductImage[0].SmallURL != "" {
		imageURL = raw.ProductImage[0].SmallURL
	}

	price := raw.Pricing.Price.String()
	if price == "" {
		price = "0"
	}

	return domain.ProductTile{
		ProductID:     raw.ProductID,
		Title:         raw.Title,
		Brand:         raw.Brand,
		ImageURL:      imageURL,
		Price:         price,
		PricingUnits:  raw.PricingUnits.Type,
		PackageSizing: raw.PackageSizing,
	}
}
