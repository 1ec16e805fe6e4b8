package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/middlewares"
	"storefront/models"
	"storefront/reviews"
)

// ReviewsController proxies the upstream reviews API. Reads are public;
// creating and deleting require the caller's token, forwarded upstream where
// ownership and the one-review-per-product rule are enforced.
type ReviewsController struct {
	Reviews reviews.API
	Logger  *zap.Logger
}

func (ctl *ReviewsController) ListProductReviews(c *gin.Context) {
	list, err := ctl.Reviews.ListByProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, reviews.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		ctl.Logger.Warn("reviews fetch failed", zap.String("product_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Reviews unavailable"})
		return
	}
	if list == nil {
		list = []models.Review{}
	}
	c.JSON(http.StatusOK, list)
}

type createReviewRequest struct {
	ProductID string `json:"product_id" binding:"required"`
	Rating    int    `json:"rating" binding:"required,min=1,max=5"`
	Comment   string `json:"comment"`
}

func (ctl *ReviewsController) CreateReview(c *gin.Context) {
	token := c.GetString(middlewares.ContextToken)

	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	review, err := ctl.Reviews.Create(c.Request.Context(), token, req.ProductID, req.Rating, req.Comment)
	switch {
	case errors.Is(err, reviews.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "Product already reviewed"})
	case errors.Is(err, reviews.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
	case err != nil:
		ctl.Logger.Warn("review create failed", zap.String("product_id", req.ProductID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not save review"})
	default:
		c.JSON(http.StatusCreated, review)
	}
}

func (ctl *ReviewsController) DeleteReview(c *gin.Context) {
	token := c.GetString(middlewares.ContextToken)

	reviewID, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid review id"})
		return
	}

	err = ctl.Reviews.Delete(c.Request.Context(), token, reviewID)
	switch {
	case errors.Is(err, reviews.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not your review"})
	case errors.Is(err, reviews.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case err != nil:
		ctl.Logger.Warn("review delete failed", zap.Int("review_id", reviewID), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Could not delete review"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Review deleted"})
	}
}
