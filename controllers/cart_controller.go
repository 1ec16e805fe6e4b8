package controllers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/cart"
	"storefront/catalog"
	"storefront/middlewares"
	"storefront/models"
	"storefront/pricing"
)

// CartController exposes the cart over HTTP. Every read reconciles the raw
// lines against a fresh catalog snapshot and writes clamped quantities back,
// so corrections made here are durable rather than cosmetic.
type CartController struct {
	Carts    *cart.Store
	Catalog  *catalog.Client
	TaxRate  float64
	PickupID string
	Logger   *zap.Logger
}

type cartLineView struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Brand     string `json:"brand"`
	Price     int64  `json:"price"`
	Stock     int    `json:"stock"`
	Quantity  int    `json:"qty"`
	Subtotal  int64  `json:"subtotal"`
	Image     string `json:"img,omitempty"`
}

type cartView struct {
	Items    []cartLineView `json:"items"`
	Amounts  models.Amounts `json:"amounts"`
	Adjusted bool           `json:"adjusted"`
}

func cartID(userID int) string {
	return "user:" + strconv.Itoa(userID)
}

// GetCart returns the reconciled cart with display amounts (no coupon, no
// shipping at this stage).
func (ctl *CartController) GetCart(c *gin.Context) {
	defer func() {
		middlewares.RecordCartOperation("view", c.Writer.Status() < 400)
	}()
	userID := c.GetInt(middlewares.ContextUserID)

	lines, adjusted, ok := ctl.reconciled(c, userID)
	if !ok {
		return
	}

	view := cartView{
		Items:    make([]cartLineView, 0, len(lines)),
		Amounts:  pricing.Calculate(lines, nil, nil, ctl.PickupID, ctl.TaxRate),
		Adjusted: adjusted,
	}
	for _, ln := range lines {
		view.Items = append(view.Items, cartLineView{
			ProductID: ln.Product.ID,
			Name:      ln.Product.Name,
			Brand:     ln.Product.Brand,
			Price:     ln.Product.Price,
			Stock:     ln.Product.Stock,
			Quantity:  ln.Quantity,
			Subtotal:  ln.Product.Price * int64(ln.Quantity),
			Image:     ln.Product.FirstImage(),
		})
	}
	c.JSON(http.StatusOK, view)
}

type addItemRequest struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"qty"`
}

// AddItem inserts or increments a line. Stock is not enforced here; the next
// reconciled read clamps and reports the adjustment.
func (ctl *CartController) AddItem(c *gin.Context) {
	defer func() {
		middlewares.RecordCartOperation("add", c.Writer.Status() < 400)
	}()
	userID := c.GetInt(middlewares.ContextUserID)

	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	ctl.Carts.Add(c.Request.Context(), cartID(userID), req.ProductID, req.Quantity)
	c.JSON(http.StatusOK, gin.H{"items": ctl.Carts.List(c.Request.Context(), cartID(userID))})
}

type setQuantityRequest struct {
	Quantity int `json:"qty" binding:"required"`
}

// SetQuantity replaces a line's quantity (floored at 1). Unknown product ids
// are a no-op, mirroring the store contract.
func (ctl *CartController) SetQuantity(c *gin.Context) {
	defer func() {
		middlewares.RecordCartOperation("set_quantity", c.Writer.Status() < 400)
	}()
	userID := c.GetInt(middlewares.ContextUserID)

	var req setQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctl.Carts.SetQuantity(c.Request.Context(), cartID(userID), c.Param("id"), req.Quantity)
	c.JSON(http.StatusOK, gin.H{"items": ctl.Carts.List(c.Request.Context(), cartID(userID))})
}

// RemoveItem drops a line.
func (ctl *CartController) RemoveItem(c *gin.Context) {
	defer func() {
		middlewares.RecordCartOperation("remove", c.Writer.Status() < 400)
	}()
	userID := c.GetInt(middlewares.ContextUserID)

	ctl.Carts.Remove(c.Request.Context(), cartID(userID), c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"items": ctl.Carts.List(c.Request.Context(), cartID(userID))})
}

// ClearCart empties the cart.
func (ctl *CartController) ClearCart(c *gin.Context) {
	defer func() {
		middlewares.RecordCartOperation("clear", c.Writer.Status() < 400)
	}()
	userID := c.GetInt(middlewares.ContextUserID)

	ctl.Carts.Clear(c.Request.Context(), cartID(userID))
	c.JSON(http.StatusOK, gin.H{"items": []models.CartLine{}})
}

// reconciled joins the cart against a fresh catalog snapshot and persists any
// corrections. A catalog failure degrades to an empty view with a notice
// instead of an error page; the cart itself is untouched in that case.
func (ctl *CartController) reconciled(c *gin.Context, userID int) ([]pricing.Line, bool, bool) {
	ctx := c.Request.Context()
	items := ctl.Carts.List(ctx, cartID(userID))

	snap, err := ctl.Catalog.FetchProducts(ctx)
	if err != nil {
		ctl.Logger.Warn("catalog fetch failed", zap.Error(err))
		c.Header("X-Catalog-Unavailable", "1")
		c.JSON(http.StatusOK, cartView{
			Items:   []cartLineView{},
			Amounts: models.Amounts{},
		})
		return nil, false, false
	}

	lines := pricing.Reconcile(items, snap)
	adjusted := pricing.Changed(items, lines)
	if adjusted {
		ctl.Carts.Replace(ctx, cartID(userID), pricing.ToCartLines(lines))
	}
	return lines, adjusted, true
}

// reconcileForCheckout is the same join for the checkout path, but a catalog
// failure there is a hard error: nothing can be priced without a snapshot.
func (ctl *CartController) reconcileForCheckout(ctx context.Context, userID int) ([]pricing.Line, error) {
	items := ctl.Carts.List(ctx, cartID(userID))
	snap, err := ctl.Catalog.FetchProducts(ctx)
	if err != nil {
		return nil, err
	}
	lines := pricing.Reconcile(items, snap)
	if pricing.Changed(items, lines) {
		ctl.Carts.Replace(ctx, cartID(userID), pricing.ToCartLines(lines))
	}
	return lines, nil
}
