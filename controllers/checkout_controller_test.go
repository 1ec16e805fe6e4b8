package controllers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"storefront/cart"
	"storefront/catalog"
	"storefront/middlewares"
	"storefront/models"
	"storefront/orders"
)

// catalogUpstream mimics the external backend, Spanish field names included.
const catalogUpstream = `[
	{"id": "P1", "name": "Audífonos", "price": 10000, "stock": 5, "images": ["p1.png"]},
	{"id": "P2", "titulo": "Lámpara", "precio": 5000, "stock": 3, "imagenes": ["p2.png"]}
]`

type testEnv struct {
	router *gin.Engine
	carts  *cart.Store
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(catalogUpstream))
	}))
	t.Cleanup(upstream.Close)

	logger := zap.NewNop()
	carts := cart.NewStore(cart.NewMemoryStorage(), logger)
	t.Cleanup(carts.Close)

	emitter := orders.NewEmitter(orders.NewMemoryStore(), carts, nil, time.Minute, logger)

	cartCtl := &CartController{
		Carts:    carts,
		Catalog:  catalog.NewClient(upstream.URL, time.Second, logger),
		TaxRate:  0.19,
		PickupID: "retiro",
		Logger:   logger,
	}
	checkoutCtl := &CheckoutController{
		Cart:    cartCtl,
		Emitter: emitter,
		Coupons: map[string]models.Coupon{
			"DIEZ": {Code: "DIEZ", Kind: models.CouponPercent, Value: 10},
		},
		Methods: []models.ShippingMethod{
			{ID: "retiro", Name: "Retiro en tienda", Cost: 0},
			{ID: "std", Name: "Envío estándar", Cost: 3990},
		},
		TaxRate:  0.19,
		PickupID: "retiro",
		Logger:   logger,
	}
	orderCtl := &OrderController{Emitter: emitter, Logger: logger}

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middlewares.ContextUserID, 1)
		c.Set(middlewares.ContextToken, "test-token")
	})
	r.GET("/api/cart", cartCtl.GetCart)
	r.POST("/api/cart/items", cartCtl.AddItem)
	r.PUT("/api/cart/items/:id", cartCtl.SetQuantity)
	r.DELETE("/api/cart/items/:id", cartCtl.RemoveItem)
	r.DELETE("/api/cart", cartCtl.ClearCart)
	r.POST("/api/checkout", checkoutCtl.Submit)
	r.GET("/api/orders", orderCtl.ListOrders)
	r.PUT("/api/orders/:id/status", orderCtl.UpdateOrderStatus)

	return &testEnv{router: r, carts: carts}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func validCheckout() map[string]any {
	return map[string]any{
		"shipping_method_id": "retiro",
		"first_name":         "Ana",
		"last_name":          "Pérez",
		"email":              "ana@example.com",
		"phone":              "+56912345678",
		"payment_method":     "card",
		"card_number":        "4111111111111111",
		"card_exp":           "12/27",
		"card_cvc":           "123",
	}
}

func TestGetCartReconcilesAndWritesBack(t *testing.T) {
	env := setupEnv(t)

	// qty 10 of P2, stock 3
	w := env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P2", "qty": 10})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, "/api/cart", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var view cartView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.True(t, view.Adjusted)
	require.Len(t, view.Items, 1)
	require.Equal(t, 3, view.Items[0].Quantity)
	require.Equal(t, int64(15000), view.Amounts.Subtotal)

	// the clamp is durable, not cosmetic
	require.Equal(t, []models.CartLine{{ProductID: "P2", Quantity: 3}},
		env.carts.List(t.Context(), "user:1"))
}

func TestGetCartDropsOrphans(t *testing.T) {
	env := setupEnv(t)

	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "discontinued", "qty": 1})

	w := env.do(t, http.MethodGet, "/api/cart", nil)
	var view cartView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Empty(t, view.Items)
	require.Equal(t, int64(0), view.Amounts.Subtotal)
}

func TestCheckoutPickupNoCoupon(t *testing.T) {
	env := setupEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 2})

	w := env.do(t, http.MethodPost, "/api/checkout", validCheckout())
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	require.Equal(t, models.Amounts{
		Subtotal: 20000, Discount: 0, Shipping: 0, Tax: 3800, Total: 23800,
	}, order.Amounts)
	require.Equal(t, models.OrderCreated, order.Status)
	require.Nil(t, order.Address) // pickup needs no address

	require.Empty(t, env.carts.List(t.Context(), "user:1"))
}

func TestCheckoutWithPercentCoupon(t *testing.T) {
	env := setupEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 2})

	body := validCheckout()
	body["coupon_code"] = "diez" // case-insensitive
	w := env.do(t, http.MethodPost, "/api/checkout", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	require.Equal(t, int64(2000), order.Amounts.Discount)
	require.Equal(t, int64(3420), order.Amounts.Tax)
	require.Equal(t, int64(21420), order.Amounts.Total)
	require.Equal(t, "DIEZ", order.Coupon.Code)
}

func TestCheckoutUnknownCouponMeansNoDiscount(t *testing.T) {
	env := setupEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 1})

	body := validCheckout()
	body["coupon_code"] = "NOEXISTE"
	w := env.do(t, http.MethodPost, "/api/checkout", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	require.Equal(t, int64(0), order.Amounts.Discount)
	require.Nil(t, order.Coupon)
}

func TestCheckoutCourierRequiresAddress(t *testing.T) {
	env := setupEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 1})

	body := validCheckout()
	body["shipping_method_id"] = "std"
	w := env.do(t, http.MethodPost, "/api/checkout", body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Contains(t, resp.Fields, "address")
	require.Contains(t, resp.Fields, "region")
	require.Contains(t, resp.Fields, "city")
}

func TestCheckoutCourierChargesShipping(t *testing.T) {
	env := setupEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 1})

	body := validCheckout()
	body["shipping_method_id"] = "std"
	body["region"] = "RM"
	body["city"] = "Santiago"
	body["address"] = "Av. Siempre Viva 742"
	w := env.do(t, http.MethodPost, "/api/checkout", body)
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))
	require.Equal(t, int64(3990), order.Amounts.Shipping)
	// shipping stays out of the tax base
	require.Equal(t, int64(1900), order.Amounts.Tax)
	require.NotNil(t, order.Address)
	require.Equal(t, "Santiago", order.Address.City)
}

func TestCheckoutFieldValidation(t *testing.T) {
	env := setupEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 1})

	cases := []struct {
		name  string
		tweak func(map[string]any)
		field string
	}{
		{"bad email", func(b map[string]any) { b["email"] = "not-an-email" }, "email"},
		{"bad phone", func(b map[string]any) { b["phone"] = "123" }, "phone"},
		{"missing name", func(b map[string]any) { b["first_name"] = "" }, "first_name"},
		{"bad card", func(b map[string]any) { b["card_number"] = "1234" }, "card_number"},
		{"bad expiry", func(b map[string]any) { b["card_exp"] = "13/27" }, "card_exp"},
		{"unknown method", func(b map[string]any) { b["shipping_method_id"] = "drone" }, "shipping_method_id"},
		{"unknown payment", func(b map[string]any) { b["payment_method"] = "cheque" }, "payment_method"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body := validCheckout()
			tc.tweak(body)
			w := env.do(t, http.MethodPost, "/api/checkout", body)
			require.Equal(t, http.StatusBadRequest, w.Code)

			var resp struct {
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			require.Contains(t, resp.Fields, tc.field)
		})
	}
}

func TestCheckoutLengthLimitsCountRunes(t *testing.T) {
	env := setupEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 1})

	// 25 runes, 50 bytes; a byte count would reject it
	body := validCheckout()
	body["last_name"] = strings.Repeat("ñ", 25)
	w := env.do(t, http.MethodPost, "/api/checkout", body)
	require.Equal(t, http.StatusCreated, w.Code)

	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 1})
	body = validCheckout()
	body["last_name"] = strings.Repeat("ñ", 41)
	w = env.do(t, http.MethodPost, "/api/checkout", body)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := setupEnv(t)

	w := env.do(t, http.MethodPost, "/api/checkout", validCheckout())
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHistoryAndStatus(t *testing.T) {
	env := setupEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 1})
	w := env.do(t, http.MethodPost, "/api/checkout", validCheckout())
	require.Equal(t, http.StatusCreated, w.Code)

	var order models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &order))

	w = env.do(t, http.MethodGet, "/api/orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.Order
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list, 1)

	// created -> shipped skips paid
	w = env.do(t, http.MethodPut, "/api/orders/"+order.ID+"/status", gin.H{"status": "shipped"})
	require.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodPut, "/api/orders/"+order.ID+"/status", gin.H{"status": "paid"})
	require.Equal(t, http.StatusOK, w.Code)
}

func TestExpressPaymentSkipsCardChecks(t *testing.T) {
	env := setupEnv(t)
	env.do(t, http.MethodPost, "/api/cart/items", gin.H{"productId": "P1", "qty": 1})

	body := validCheckout()
	body["payment_method"] = "express:wallet"
	delete(body, "card_number")
	delete(body, "card_exp")
	delete(body, "card_cvc")
	w := env.do(t, http.MethodPost, "/api/checkout", body)
	require.Equal(t, http.StatusCreated, w.Code)
}
