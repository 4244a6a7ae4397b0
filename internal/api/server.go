package api

import (
	"github.com/gin-gonic/gin"

	"github.com/shelfwatch/shelfwatch/internal/logger"
)

// NewRouter builds the gin engine with all catalog routes registered.
func NewRouter(catalog CatalogReader, log logger.Interface) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	handler := NewHandler(catalog, log)

	router.GET("/health", handler.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/products", handler.ListProducts)
		v1.GET("/products/:id", handler.GetProduct)
	}

	return router
}
