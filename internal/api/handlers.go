// Package api implements the read-only HTTP API over the persisted
// catalog.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/shelfwatch/internal/database"
	"github.com/shelfwatch/shelfwatch/internal/domain"
	"github.com/shelfwatch/shelfwatch/internal/logger"
)

// Default pagination values.
const (
	defaultLimit  = 50
	defaultOffset = 0
)

// CatalogReader provides read access to the persisted catalog.
type CatalogReader interface {
	GetByID(ctx context.Context, productID string) (*domain.CanonicalProduct, error)
	List(ctx context.Context) ([]domain.CanonicalProduct, error)
	Count(ctx context.Context) (int, error)
}

// Handler serves catalog queries.
type Handler struct {
	catalog CatalogReader
	log     logger.Interface
}

// NewHandler creates a new API handler.
func NewHandler(catalog CatalogReader, log logger.Interface) *Handler {
	return &Handler{catalog: catalog, log: log}
}

// Health reports service liveness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListProducts returns a page of the catalog in the canonical record shape.
func (h *Handler) ListProducts(c *gin.Context) {
	limit, offset := parseLimitOffset(c, defaultLimit, defaultOffset)

	catalog, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.log.Error("list products failed", "error", err.Error())
		respondInternalError(c, "failed to list products")
		return
	}

	total := len(catalog)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	c.JSON(http.StatusOK, gin.H{
		"total":    total,
		"limit":    limit,
		"offset":   offset,
		"products": catalog[offset:end],
	})
}

// GetProduct returns one product with its per-store prices.
func (h *Handler) GetProduct(c *gin.Context) {
	productID := c.Param("id")

	product, err := h.catalog.GetByID(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, database.ErrProductNotFound) {
			respondNotFound(c, "product")
			return
		}
		h.log.Error("get product failed", "product_id", productID, "error", err.Error())
		respondInternalError(c, "failed to get product")
		return
	}

	c.JSON(http.StatusOK, product)
}

// parseLimitOffset parses limit and offset query params with defaults.
func parseLimitOffset(c *gin.Context, defLimit, defOffset int) (limit, offset int) {
	limitStr := c.DefaultQuery("limit", strconv.Itoa(defLimit))
	offsetStr := c.DefaultQuery("offset", strconv.Itoa(defOffset))
	limit, _ = strconv.Atoi(limitStr)
	offset, _ = strconv.Atoi(offsetStr)
	if limit <= 0 {
		limit = defLimit
	}
	if offset < 0 {
		offset = defOffset
	}
	return limit, offset
}

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"error": message})
}

// respondNotFound sends a 404 with resource not found message.
func respondNotFound(c *gin.Context, resource string) {
	respondError(c, http.StatusNotFound, resource+" not found")
}

// respondInternalError sends a 500 with message.
func respondInternalError(c *gin.Context, message string) {
	respondError(c, http.StatusInternalServerError, message)
}
