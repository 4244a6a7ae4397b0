package merger_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/merger"
)

func strPtr(s string) *string { return &s }

func TestMerge_FirstSightWinsAcrossDomains(t *testing.T) {
	t.Parallel()

	m := merger.New(logger.NewNoOp())

	tilesByDomain := map[string][]domain.ProductTile{
		"loblaws": {
			{
				ProductID:     "20143381001",
				Title:         "Cilantro",
				Brand:         nil,
				ImageURL:      "https://assets.example/cilantro_small.jpg",
				Price:         "1.29",
				PricingUnits:  "SOLD_BY_EACH",
				PackageSizing: "1 bunch",
			},
		},
		"zehrs": {
			{
				ProductID:     "20143381001",
				Title:         "Fresh Cilantro",
				Brand:         strPtr("Farmer's Market"),
				ImageURL:      "https://assets.example/cilantro_large.jpg",
				Price:         "1.49",
				PricingUnits:  "SOLD_BY_EACH",
				PackageSizing: "1 bunch",
			},
		},
	}

	catalog, stats := m.Merge([]string{"loblaws", "zehrs"}, tilesByDomain)

	require.Len(t, catalog, 1)
	p := catalog[0]

	// Descriptive fields come from the first domain to report the
	// product and are never revised, even when a later domain has
	// richer data.
	require.Equal(t, "20143381001", p.ProductID)
	require.Equal(t, "Cilantro", p.Title)
	require.Nil(t, p.Brand)
	require.Equal(t, "https://assets.example/cilantro_small.jpg", p.SmallURL)
	require.Equal(t, "SOLD_BY_EACH", p.Type)

	// Both stores' prices survive.
	require.Equal(t, []domain.PriceObservation{
		{Store: "loblaws", PriceCents: 129, PackageSizing: "1 bunch"},
		{Store: "zehrs", PriceCents: 149, PackageSizing: "1 bunch"},
	}, p.Prices)

	require.Equal(t, 2, stats.TilesSeen)
	require.Equal(t, 2, stats.PricesAdded)
	require.Equal(t, 1, stats.Products)
	require.Zero(t, stats.DuplicatePrices)
	require.Zero(t, stats.BadPrices)
}

func TestMerge_DeduplicatesIdenticalObservations(t *testing.T) {
	t.Parallel()

	m := merger.New(logger.NewNoOp())

	tile := domain.ProductTile{
		ProductID:     "20600135",
		Title:         "Bananas",
		ImageURL:      "https://assets.example/banana.jpg",
		Price:         "0.69",
		PricingUnits:  "SOLD_BY_EACH",
		PackageSizing: "1 ea",
	}

	// The same tile appearing twice within one domain, e.g. on
	// overlapping pages, must yield one observation.
	catalog, stats := m.Merge([]string{"loblaws"}, map[string][]domain.ProductTile{
		"loblaws": {tile, tile},
	})

	require.Len(t, catalog, 1)
	require.Len(t, catalog[0].Prices, 1)
	require.Equal(t, 1, stats.DuplicatePrices)
	require.Equal(t, 1, stats.PricesAdded)
}

func TestMerge_SameStoreDifferentPricesBothKept(t *testing.T) {
	t.Parallel()

	m := merger.New(logger.NewNoOp())

	catalog, stats := m.Merge([]string{"loblaws"}, map[string][]domain.ProductTile{
		"loblaws": {
			{ProductID: "p1", Title: "Milk", Price: "4.99", PackageSizing: "2 L"},
			{ProductID: "p1", Title: "Milk", Price: "5.49", PackageSizing: "2 L"},
		},
	})

	require.Len(t, catalog, 1)
	require.Len(t, catalog[0].Prices, 2)
	require.Zero(t, stats.DuplicatePrices)
}

func TestMerge_UnparseablePriceRecordsZeroCents(t *testing.T) {
	t.Parallel()

	m := merger.New(logger.NewNoOp())

	catalog, stats := m.Merge([]string{"maxi"}, map[string][]domain.ProductTile{
		"maxi": {
			{ProductID: "p2", Title: "Mystery Item", Price: "n/a", PackageSizing: "1 ea"},
		},
	})

	require.Len(t, catalog, 1)
	require.Equal(t, []domain.PriceObservation{
		{Store: "maxi", PriceCents: 0, PackageSizing: "1 ea"},
	}, catalog[0].Prices)
	require.Equal(t, 1, stats.BadPrices)
}

func TestMerge_SkipsTilesWithoutProductID(t *testing.T) {
	t.Parallel()

	m := merger.New(logger.NewNoOp())

	catalog, stats := m.Merge([]string{"loblaws"}, map[string][]domain.ProductTile{
		"loblaws": {
			{ProductID: "", Title: "Orphan", Price: "1.00"},
			{ProductID: "p3", Title: "Bread", Price: "3.29", PackageSizing: "675 g"},
		},
	})

	require.Len(t, catalog, 1)
	require.Equal(t, "p3", catalog[0].ProductID)
	require.Equal(t, 1, stats.TilesSkipped)
}

func TestMerge_OutputOrderedByFirstAppearance(t *testing.T) {
	t.Parallel()

	m := merger.New(logger.NewNoOp())

	catalog, _ := m.Merge([]string{"nofrills", "loblaws"}, map[string][]domain.ProductTile{
		"nofrills": {
			{ProductID: "b", Title: "Second", Price: "1.00"},
			{ProductID: "a", Title: "Third", Price: "1.00"},
		},
		"loblaws": {
			{ProductID: "c", Title: "Fourth", Price: "1.00"},
			{ProductID: "b", Title: "ignored duplicate title", Price: "2.00"},
		},
	})

	ids := make([]string, 0, len(catalog))
	for _, p := range catalog {
		ids = append(ids, p.ProductID)
	}
	require.Equal(t, []string{"b", "a", "c"}, ids)
	require.Equal(t, "Second", catalog[0].Title)
}

func TestMerge_NoDomains(t *testing.T) {
	t.Parallel()

	m := merger.New(logger.NewNoOp())

	catalog, stats := m.Merge(nil, nil)

	require.Empty(t, catalog)
	require.Zero(t, stats.TilesSeen)
	require.Zero(t, stats.Products)
}
