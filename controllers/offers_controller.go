package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/middlewares"
	"storefront/models"
	"storefront/offers"
)

// OffersController serves the best-effort external marketplace search.
type OffersController struct {
	Aggregator *offers.Aggregator
}

func (ctl *OffersController) SearchOffers(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing query"})
		return
	}

	result, cached := ctl.Aggregator.Search(c.Request.Context(), query)
	middlewares.RecordOffersCache(cached)
	if result == nil {
		result = []models.Offer{}
	}
	c.JSON(http.StatusOK, gin.H{"offers": result, "cached": cached})
}
