package pricing

import (
	"math"

	"storefront/models"
)

// DefaultTaxRate is the Chilean IVA; pass the configured rate instead of
// reaching for this outside wiring code.
const DefaultTaxRate = 0.19

// Calculate derives order amounts from reconciled lines, an optional coupon
// and an optional shipping method. It is deterministic and never fails:
// malformed coupons degrade to "no discount", a nil method to zero shipping.
//
// All amounts are whole CLP. Rounding is half-up at every derived step
// (discount, then tax), so each displayed line is itself a whole peso. Tax is
// computed on subtotal minus discount; shipping is excluded from the tax base.
func Calculate(lines []Line, coupon *models.Coupon, method *models.ShippingMethod, pickupID string, taxRate float64) models.Amounts {
	var subtotal int64
	for _, ln := range lines {
		price := ln.Product.Price
		if price < 0 {
			price = 0
		}
		subtotal += price * int64(ln.Quantity)
	}

	discount := discountFor(coupon, subtotal)

	shipping := int64(0)
	freeShipping := coupon != nil && coupon.Kind == models.CouponFreeShipping
	if method != nil && method.ID != pickupID && !freeShipping {
		if method.Cost > 0 {
			shipping = method.Cost
		}
	}

	base := subtotal - discount
	if base < 0 {
		base = 0
	}
	tax := roundHalfUp(float64(base) * taxRate)

	return models.Amounts{
		Subtotal: subtotal,
		Discount: discount,
		Shipping: shipping,
		Tax:      tax,
		Total:    base + shipping + tax,
	}
}

func discountFor(coupon *models.Coupon, subtotal int64) int64 {
	if coupon == nil {
		return 0
	}
	switch coupon.Kind {
	case models.CouponPercent:
		pct := coupon.Value
		if pct < 0 {
			pct = 0
		}
		if pct > 100 {
			pct = 100
		}
		return roundHalfUp(float64(subtotal) * float64(pct) / 100)
	case models.CouponFixed:
		v := coupon.Value
		if v < 0 {
			v = 0
		}
		if v > subtotal {
			v = subtotal
		}
		return v
	default:
		// free-shipping coupons do not touch the subtotal
		return 0
	}
}

func roundHalfUp(x float64) int64 {
	return int64(math.Floor(x + 0.5))
}
