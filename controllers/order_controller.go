package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/middlewares"
	"storefront/models"
	"storefront/orders"
)

// OrderController serves order history and the externally driven status
// updates. Orders are immutable apart from status.
type OrderController struct {
	Emitter *orders.Emitter
	Logger  *zap.Logger
}

func (ctl *OrderController) ListOrders(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("list", c.Writer.Status() < 400)
	}()
	userID := c.GetInt(middlewares.ContextUserID)

	list, err := ctl.Emitter.List(c.Request.Context(), userID)
	if err != nil {
		ctl.Logger.Error("order list failed", zap.Int("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load orders"})
		return
	}
	c.JSON(http.StatusOK, list)
}

func (ctl *OrderController) GetOrder(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("details", c.Writer.Status() < 400)
	}()
	userID := c.GetInt(middlewares.ContextUserID)

	order, err := ctl.Emitter.Get(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		ctl.Logger.Error("order fetch failed", zap.String("order_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required,oneof=paid shipped delivered cancelled"`
}

func (ctl *OrderController) UpdateOrderStatus(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("update_status", c.Writer.Status() < 400)
	}()
	userID := c.GetInt(middlewares.ContextUserID)

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := ctl.Emitter.UpdateStatus(c.Request.Context(), c.Param("id"), userID, req.Status)
	switch {
	case errors.Is(err, orders.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
	case errors.Is(err, orders.ErrBadTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Invalid status transition"})
	case err != nil:
		ctl.Logger.Error("status update failed", zap.String("order_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
	default:
		c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order_id": c.Param("id")})
	}
}
