package controllers

import (
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/middlewares"
	"storefront/models"
	"storefront/orders"
	"storefront/pricing"
)

// CheckoutController validates the checkout form, prices the reconciled
// cart and hands it to the order emitter.
type CheckoutController struct {
	Cart     *CartController
	Emitter  *orders.Emitter
	Coupons  map[string]models.Coupon
	Methods  []models.ShippingMethod
	TaxRate  float64
	PickupID string
	Logger   *zap.Logger
}

var (
	emailRe = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phoneRe = regexp.MustCompile(`^\+?\d{8,15}$`)
	cardRe  = regexp.MustCompile(`^\d{13,19}$`)
	expRe   = regexp.MustCompile(`^(0[1-9]|1[0-2])/\d{2}$`)
	cvcRe   = regexp.MustCompile(`^\d{3,4}$`)
)

type checkoutRequest struct {
	ShippingMethodID string `json:"shipping_method_id"`
	CouponCode       string `json:"coupon_code"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Region    string `json:"region"`
	City      string `json:"city"`
	Address   string `json:"address"`
	Unit      string `json:"unit"`
	Notes     string `json:"notes"`

	PaymentMethod string `json:"payment_method"`
	CardNumber    string `json:"card_number"`
	CardExp       string `json:"card_exp"`
	CardCVC       string `json:"card_cvc"`
}

// validate applies the checkout form rules. Field violations come back as a
// map so the UI can mark each input; quantity clamping is the only silent-ish
// correction in the flow and it is reported, not hidden.
func (req *checkoutRequest) validate(pickupID string, methods []models.ShippingMethod) (map[string]string, *models.ShippingMethod) {
	errs := make(map[string]string)

	var method *models.ShippingMethod
	for i := range methods {
		if methods[i].ID == req.ShippingMethodID {
			method = &methods[i]
			break
		}
	}
	if method == nil {
		errs["shipping_method_id"] = "unknown shipping method"
	}

	// Length limits count characters, not bytes; accented names must not
	// burn double against them.
	if req.FirstName == "" || utf8.RuneCountInString(req.FirstName) > 40 {
		errs["first_name"] = "required, at most 40 characters"
	}
	if req.LastName == "" || utf8.RuneCountInString(req.LastName) > 40 {
		errs["last_name"] = "required, at most 40 characters"
	}
	if req.Email == "" || utf8.RuneCountInString(req.Email) > 80 || !emailRe.MatchString(req.Email) {
		errs["email"] = "invalid email"
	}
	if !phoneRe.MatchString(req.Phone) {
		errs["phone"] = "invalid phone"
	}

	pickup := method != nil && method.ID == pickupID
	if !pickup {
		if req.Region == "" {
			errs["region"] = "required"
		}
		if req.City == "" {
			errs["city"] = "required"
		}
		if req.Address == "" || utf8.RuneCountInString(req.Address) > 100 {
			errs["address"] = "required, at most 100 characters"
		}
		if utf8.RuneCountInString(req.Unit) > 20 {
			errs["unit"] = "at most 20 characters"
		}
	}
	if utf8.RuneCountInString(req.Notes) > 200 {
		errs["notes"] = "at most 200 characters"
	}

	switch {
	case req.PaymentMethod == "card":
		if !cardRe.MatchString(strings.ReplaceAll(req.CardNumber, " ", "")) {
			errs["card_number"] = "invalid card number"
		}
		if !expRe.MatchString(strings.TrimSpace(req.CardExp)) {
			errs["card_exp"] = "invalid expiry"
		}
		if !cvcRe.MatchString(strings.TrimSpace(req.CardCVC)) {
			errs["card_cvc"] = "invalid cvc"
		}
	case strings.HasPrefix(req.PaymentMethod, "express:"):
		// express wallets carry their own validation upstream
	default:
		errs["payment_method"] = "unknown payment method"
	}

	return errs, method
}

// Submit runs checkout end to end: reconcile, validate, price, emit.
func (ctl *CheckoutController) Submit(c *gin.Context) {
	defer func() {
		middlewares.RecordOrderOperation("create", c.Writer.Status() < 400)
	}()
	userID := c.GetInt(middlewares.ContextUserID)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	fieldErrs, method := req.validate(ctl.PickupID, ctl.Methods)
	if len(fieldErrs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": fieldErrs})
		return
	}

	lines, err := ctl.Cart.reconcileForCheckout(c.Request.Context(), userID)
	if err != nil {
		ctl.Logger.Warn("catalog fetch failed during checkout", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Catalog unavailable, try again"})
		return
	}
	if len(lines) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	// An unknown coupon code is "no discount", not an error.
	var coupon *models.Coupon
	if code := strings.ToUpper(strings.TrimSpace(req.CouponCode)); code != "" {
		if found, ok := ctl.Coupons[code]; ok {
			coupon = &found
		}
	}

	amounts := pricing.Calculate(lines, coupon, method, ctl.PickupID, ctl.TaxRate)

	var address *models.Address
	if method.ID != ctl.PickupID {
		address = &models.Address{
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			Region:    req.Region,
			City:      req.City,
			Street:    req.Address,
			Unit:      req.Unit,
			Notes:     req.Notes,
		}
	}

	order, err := ctl.Emitter.Submit(c.Request.Context(), userID, cartID(userID),
		lines, amounts, coupon, method, address, req.PaymentMethod)
	if err != nil {
		ctl.Logger.Error("order submit failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create order"})
		return
	}

	c.JSON(http.StatusCreated, order)
}

// ShippingMethods lists the configured methods so the form can render them.
func (ctl *CheckoutController) ShippingMethods(c *gin.Context) {
	c.JSON(http.StatusOK, ctl.Methods)
}
