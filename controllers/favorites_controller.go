package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/favorites"
	"storefront/middlewares"
)

// FavoritesController fronts the optimistic favorites service. Mutations
// answer immediately with the optimistic list state; a failed upstream sync
// surfaces as an error after the local state has already been rolled back.
type FavoritesController struct {
	Favorites *favorites.Service
	Logger    *zap.Logger
}

func (ctl *FavoritesController) ListFavorites(c *gin.Context) {
	userID := c.GetInt(middlewares.ContextUserID)
	token := c.GetString(middlewares.ContextToken)
	c.JSON(http.StatusOK, gin.H{"favorites": ctl.Favorites.List(c.Request.Context(), userID, token)})
}

type favoriteRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

func (ctl *FavoritesController) AddFavorite(c *gin.Context) {
	userID := c.GetInt(middlewares.ContextUserID)
	token := c.GetString(middlewares.ContextToken)

	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := ctl.Favorites.Add(c.Request.Context(), userID, token, req.ProductID); err != nil {
		ctl.Logger.Warn("favorite add failed", zap.String("product_id", req.ProductID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not save favorite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": ctl.Favorites.List(c.Request.Context(), userID, token)})
}

func (ctl *FavoritesController) RemoveFavorite(c *gin.Context) {
	userID := c.GetInt(middlewares.ContextUserID)
	token := c.GetString(middlewares.ContextToken)

	if err := ctl.Favorites.Remove(c.Request.Context(), userID, token, c.Param("id")); err != nil {
		ctl.Logger.Warn("favorite remove failed", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not remove favorite"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": ctl.Favorites.List(c.Request.Context(), userID, token)})
}
