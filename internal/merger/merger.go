// Package merger folds per-domain product tiles into a canonical,
// deduplicated catalog keyed by product identity.
package merger

import (
	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/logger"
)

// Merger combines per-domain tile lists into canonical products.
type Merger struct {
	log logger.Interface
}

// New creates a new merger.
func New(log logger.Interface) *Merger {
	return &Merger{log: log}
}

// Merge processes domains in the caller-supplied order and tiles in
// list order, so the result is deterministic for a given input. Output
// is ordered by first appearance of each product identifier.
//
// Descriptive fields are populated from the first domain that reports a
// product and never revised by later domains, even when those supply
// richer data. Price observations are deduplicated on the exact
// (store, price_cents, package_sizing) tuple; a store whose price
// differs between domain scrapes keeps both observations, surfacing the
// inconsistency rather than hiding it.
func (m *Merger) Merge(domains []string, tilesByDomain map[string][]domain.ProductTile) ([]domain.CanonicalProduct, domain.MergeStats) {
	var stats domain.MergeStats

	index := make(map[string]int)
	catalog := make([]domain.CanonicalProduct, 0)

	for _, store := range domains {
		for _, tile := range tilesByDomain[store] {
			stats.TilesSeen++

			if tile.ProductID == "" {
				// No key, nothing to merge onto.
				stats.TilesSkipped++
				m.log.Warn("skipping tile without product identifier",
					"domain", store,
					"title", tile.Title,
				)
				continue
			}

			pos, seen := index[tile.ProductID]
			if !seen {
				pos = len(catalog)
				index[tile.ProductID] = pos
				catalog = append(catalog, domain.CanonicalProduct{
					ProductID: tile.ProductID,
					SmallURL:  tile.ImageURL,
					Brand:     tile.Brand,
					Title:     tile.Title,
					Type:      tile.PricingUnits,
				})
			}

			obs := m.observe(store, tile, &stats)
			if catalog[pos].HasPrice(obs) {
				stats.DuplicatePrices++
				m.log.Debug("duplicate price suppressed",
					"product_id", tile.ProductID,
					"domain", store,
				)
				continue
			}
			catalog[pos].Prices = append(catalog[pos].Prices, obs)
			stats.PricesAdded++
		}
	}

	stats.Products = len(catalog)
	m.log.Info("merge complete",
		"products", stats.Products,
		"tiles_seen", stats.TilesSeen,
		"tiles_skipped", stats.TilesSkipped,
		"prices_added", stats.PricesAdded,
		"duplicate_prices", stats.DuplicatePrices,
		"bad_prices", stats.BadPrices,
	)

	return catalog, stats
}

// observe converts a tile's pricing fields into a PriceObservation for
// its store. An unparseable price becomes 0 cents: downstream
// persistence needs a concrete integer, and a bad tile must not abort
// the merge.
func (m *Merger) observe(store string, tile domain.ProductTile, stats *domain.MergeStats) domain.PriceObservation {
	cents, err := ParseCents(tile.Price)
	if err != nil {
		stats.BadPrices++
		m.log.Warn("unparseable price, recording 0 cents",
			"product_id", tile.ProductID,
			"domain", store,
			"price", tile.Price,
		)
		cents = 0
	}

	return domain.PriceObservation{
		Store:         store,
		PriceCents:    cents,
		PackageSizing: tile.PackageSizing,
	}
}
