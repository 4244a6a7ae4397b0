package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/shelfwatch/shelfwatch/internal/api"
	"github.com/shelfwatch/shelfwatch/internal/database"
	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/logger"
)

// fakeCatalog implements api.CatalogReader over an in-memory slice.
type fakeCatalog struct {
	products []domain.CanonicalProduct
	err      error
}

func (f *fakeCatalog) GetByID(_ context.Context, productID string) (*domain.CanonicalProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	for i := range f.products {
		if f.products[i].ProductID == productID {
			return &f.products[i], nil
		}
	}
	return nil, database.ErrProductNotFound
}

func (f *fakeCatalog) List(context.Context) ([]domain.CanonicalProduct, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.products, nil
}

func (f *fakeCatalog) Count(context.Context) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return len(f.products), nil
}

// serve runs one request through a router built over the catalog.
func serve(t *testing.T, catalog *fakeCatalog, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	router := api.NewRouter(catalog, logger.NewNoOp())

	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	return rec
}

func sampleCatalog() *fakeCatalog {
	return &fakeCatalog{
		products: []domain.CanonicalProduct{
			{ProductID: "p1", Title: "Cilantro", Prices: []domain.PriceObservation{
				{Store: "loblaws", PriceCents: 129, PackageSizing: "1 bunch"},
			}},
			{ProductID: "p2", Title: "Bananas"},
			{ProductID: "p3", Title: "Bread"},
		},
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	rec := serve(t, sampleCatalog(), http.MethodGet, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	rec := serve(t, sampleCatalog(), http.MethodGet, "/api/v1/products")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total    int                       `json:"total"`
		Limit    int                       `json:"limit"`
		Offset   int                       `json:"offset"`
		Products []domain.CanonicalProduct `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Total)
	require.Len(t, resp.Products, 3)
	require.Equal(t, "Cilantro", resp.Products[0].Title)
}

func TestListProducts_Pagination(t *testing.T) {
	t.Parallel()

	rec := serve(t, sampleCatalog(), http.MethodGet, "/api/v1/products?limit=1&offset=1")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Total    int                       `json:"total"`
		Products []domain.CanonicalProduct `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 3, resp.Total)
	require.Len(t, resp.Products, 1)
	require.Equal(t, "p2", resp.Products[0].ProductID)
}

func TestListProducts_OffsetPastEnd(t *testing.T) {
	t.Parallel()

	rec := serve(t, sampleCatalog(), http.MethodGet, "/api/v1/products?offset=100")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Products []domain.CanonicalProduct `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Empty(t, resp.Products)
}

func TestGetProduct(t *testing.T) {
	t.Parallel()

	rec := serve(t, sampleCatalog(), http.MethodGet, "/api/v1/products/p1")

	require.Equal(t, http.StatusOK, rec.Code)

	var product domain.CanonicalProduct
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &product))
	require.Equal(t, "Cilantro", product.Title)
	require.Len(t, product.Prices, 1)
}

func TestGetProduct_NotFound(t *testing.T) {
	t.Parallel()

	rec := serve(t, sampleCatalog(), http.MethodGet, "/api/v1/products/missing")

	require.Equal(t, http.StatusNotFound, rec.Code)
	require.JSONEq(t, `{"error": "product not found"}`, rec.Body.String())
}

func TestListProducts_BackendError(t *testing.T) {
	t.Parallel()

	catalog := &fakeCatalog{err: context.DeadlineExceeded}

	rec := serve(t, catalog, http.MethodGet, "/api/v1/products")

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}
