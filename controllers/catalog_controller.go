package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/catalog"
)

// CatalogController proxies the upstream catalog, serving the normalized
// shapes so no client ever sees the mixed-language field names.
type CatalogController struct {
	Catalog *catalog.Client
	Logger  *zap.Logger
}

func (ctl *CatalogController) ListProducts(c *gin.Context) {
	snap, err := ctl.Catalog.FetchProducts(c.Request.Context())
	if err != nil {
		ctl.Logger.Warn("catalog fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Catalog unavailable"})
		return
	}
	c.JSON(http.StatusOK, snap.Products)
}

func (ctl *CatalogController) ListCategories(c *gin.Context) {
	cats, err := ctl.Catalog.FetchCategories(c.Request.Context())
	if err != nil {
		ctl.Logger.Warn("categories fetch failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Catalog unavailable"})
		return
	}
	c.JSON(http.StatusOK, cats)
}
