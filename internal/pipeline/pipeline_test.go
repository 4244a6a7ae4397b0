package pipeline_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/internal/artifacts"
	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/harvester"
	"github.com/shelfwatch/shelfwatch/internal/logger"
	"github.com/shelfwatch/shelfwatch/internal/merger"
	"github.com/shelfwatch/shelfwatch/internal/pipeline"
)

const pipelineTestThreshold = 3

// tilePage renders a one-tile listing page for the given product.
func tilePage(productID, title, price string) string {
	return fmt.Sprintf(`{
		"layout": {"sections": {"productListingSection": {"components": [
			{"data": {"productGrid": {"productTiles": [
				{
					"productId": %q,
					"title": %q,
					"pricing": {"price": %s},
					"pricingUnits": {"type": "SOLD_BY_EACH"},
					"packageSizing": "1 ea"
				}
			]}}}
		]}}}
	}`, productID, title, price)
}

var fromPattern = regexp.MustCompile(`"from":\s*(\d+)`)

// startCatalogServer serves one product tile per page up to lastPage,
// then structurally empty bodies.
func startCatalogServer(t *testing.T, lastPage int) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		page := 0
		if m := fromPattern.FindSubmatch(body); m != nil {
			page, _ = strconv.Atoi(string(m[1]))
		}

		if page > lastPage {
			_, _ = w.Write([]byte(`{}`))
			return
		}
		id := fmt.Sprintf("p%d", page)
		_, _ = w.Write([]byte(tilePage(id, "Item "+id, "1.29")))
	}))
	t.Cleanup(server.Close)

	return server
}

// fakeResolver serves templates for any domain, all pointed at one URL.
type fakeResolver struct {
	url string
}

func (r *fakeResolver) Resolve(domainName string) (domain.RequestTemplate, error) {
	return domain.RequestTemplate{
		Method:  http.MethodPost,
		URL:     r.url,
		Payload: `{"query": "grocery", "from": 1}`,
		Domain:  domainName,
	}, nil
}

// fakeUpserter records the catalogs it is handed.
type fakeUpserter struct {
	mu       sync.Mutex
	received []domain.CanonicalProduct
}

func (u *fakeUpserter) UpsertAll(_ context.Context, products []domain.CanonicalProduct) domain.BatchReport {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.received = append(u.received, products...)

	var report domain.BatchReport
	for range products {
		report.RecordSuccess()
	}
	return report
}

// newTestPipeline wires a pipeline over a temp artifact store and the
// given listing server.
func newTestPipeline(t *testing.T, serverURL string, up pipeline.Upserter) (*pipeline.Pipeline, *artifacts.Store) {
	t.Helper()

	log := logger.NewNoOp()
	store := artifacts.NewStore(t.TempDir())

	h := harvester.New(log, harvester.Config{
		StrikeThreshold: pipelineTestThreshold,
		RequestTimeout:  5 * time.Second,
	})

	p := pipeline.New(&fakeResolver{url: serverURL}, h, store, merger.New(log), up, log, 2)
	return p, store
}

func TestPipeline_Harvest(t *testing.T) {
	t.Parallel()

	server := startCatalogServer(t, 2)
	p, store := newTestPipeline(t, server.URL, &fakeUpserter{})

	stats, err := p.Harvest(context.Background(), []string{"loblaws"})
	require.NoError(t, err)
	require.Len(t, stats, 1)
	require.Equal(t, 2+pipelineTestThreshold, stats[0].PagesFetched)

	// The consolidated artifact carries both pages' tiles in order.
	tiles, readErr := store.ReadConsolidated("loblaws")
	require.NoError(t, readErr)
	require.Len(t, tiles, 2)
	require.Equal(t, "p1", tiles[0].ProductID)
	require.Equal(t, "p2", tiles[1].ProductID)

	// Raw pages, including the empty trailers, were persisted.
	pages, rawErr := store.ReadRawPages("loblaws")
	require.NoError(t, rawErr)
	require.Len(t, pages, 2+pipelineTestThreshold)
}

func TestPipeline_ExtractReplaysStoredPages(t *testing.T) {
	t.Parallel()

	p, store := newTestPipeline(t, "http://unused.invalid", &fakeUpserter{})

	require.NoError(t, store.WriteRawPage(domain.RawPage{
		Domain: "zehrs", Page: 1, Body: []byte(tilePage("p1", "Item p1", "2.49")),
	}))
	require.NoError(t, store.WriteRawPage(domain.RawPage{
		Domain: "zehrs", Page: 2, Body: []byte(`{}`),
	}))

	count, err := p.Extract("zehrs")
	require.NoError(t, err)
	require.Equal(t, 1, count)

	tiles, readErr := store.ReadConsolidated("zehrs")
	require.NoError(t, readErr)
	require.Len(t, tiles, 1)
	require.Equal(t, "2.49", tiles[0].Price)
}

func TestPipeline_Merge(t *testing.T) {
	t.Parallel()

	p, store := newTestPipeline(t, "http://unused.invalid", &fakeUpserter{})

	require.NoError(t, store.WriteConsolidated("loblaws", []domain.ProductTile{
		{ProductID: "p1", Title: "Cilantro", Price: "1.29", PackageSizing: "1 bunch"},
	}))
	require.NoError(t, store.WriteConsolidated("zehrs", []domain.ProductTile{
		{ProductID: "p1", Title: "Fresh Cilantro", Price: "1.49", PackageSizing: "1 bunch"},
	}))

	path, stats, err := p.Merge([]string{"loblaws", "zehrs"})
	require.NoError(t, err)
	require.Equal(t, 1, stats.Products)
	require.Equal(t, 2, stats.PricesAdded)

	catalog, readErr := store.ReadCombined(path)
	require.NoError(t, readErr)
	require.Len(t, catalog, 1)
	require.Equal(t, "Cilantro", catalog[0].Title)
	require.Len(t, catalog[0].Prices, 2)
}

func TestPipeline_LoadLatestCombined(t *testing.T) {
	t.Parallel()

	up := &fakeUpserter{}
	p, store := newTestPipeline(t, "http://unused.invalid", up)

	products := []domain.CanonicalProduct{
		{ProductID: "p1", Title: "Cilantro", Prices: []domain.PriceObservation{
			{Store: "loblaws", PriceCents: 129, PackageSizing: "1 bunch"},
		}},
	}
	_, err := store.WriteCombined(products, time.Now())
	require.NoError(t, err)

	// Empty path loads the newest combined artifact.
	report, loadErr := p.Load(context.Background(), "")
	require.NoError(t, loadErr)
	require.Equal(t, 1, report.Succeeded)
	require.Equal(t, products, up.received)
}

func TestPipeline_LoadWithoutArtifact(t *testing.T) {
	t.Parallel()

	p, _ := newTestPipeline(t, "http://unused.invalid", &fakeUpserter{})

	_, err := p.Load(context.Background(), "")
	require.ErrorIs(t, err, artifacts.ErrNoCombined)
}

func TestPipeline_Run(t *testing.T) {
	t.Parallel()

	server := startCatalogServer(t, 1)
	up := &fakeUpserter{}
	p, _ := newTestPipeline(t, server.URL, up)

	summary, err := p.Run(context.Background(), []string{"loblaws", "nofrills"})
	require.NoError(t, err)

	require.NotEmpty(t, summary.RunID)
	require.Len(t, summary.Harvest, 2)
	require.NotEmpty(t, summary.CombinedPath)

	// Both domains serve the same single product, so the merged catalog
	// holds one product with one price observation per store.
	require.Equal(t, 1, summary.Merge.Products)
	require.Equal(t, 2, summary.Merge.PricesAdded)
	require.Equal(t, 1, summary.Batch.Succeeded)

	require.Len(t, up.received, 1)
	require.Len(t, up.received[0].Prices, 2)
}
