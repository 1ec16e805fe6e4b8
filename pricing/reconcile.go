package pricing

import (
	"storefront/catalog"
	"storefront/models"
)

// Line is a cart line joined against the catalog.
type Line struct {
	Product  models.Product
	Quantity int
}

// Reconcile joins raw cart lines against a catalog snapshot. Lines whose
// product is gone from the catalog are dropped (expected churn, not an
// error); surviving quantities are clamped to [1, max(1, stock)]. Order is
// preserved. Pure function: callers that want the corrections to stick must
// write the result back to the cart store themselves.
func Reconcile(items []models.CartLine, snap *catalog.Snapshot) []Line {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p := snap.Lookup(it.ProductID)
		if p == nil {
			continue
		}
		lines = append(lines, Line{Product: *p, Quantity: clampQuantity(it.Quantity, p.Stock)})
	}
	return lines
}

// clampQuantity bounds qty to [1, max(1, stock)]. A zero-stock product still
// clamps to 1: the floor is a display-time guard, and blocking checkout on
// sold-out items is the caller's job.
func clampQuantity(qty, stock int) int {
	max := stock
	if max < 1 {
		max = 1
	}
	if qty < 1 {
		return 1
	}
	if qty > max {
		return max
	}
	return qty
}

// Changed reports whether reconciliation altered or dropped anything relative
// to the raw items, so callers know a write-back (and a user notice) is due.
func Changed(items []models.CartLine, lines []Line) bool {
	if len(items) != len(lines) {
		return true
	}
	for i, it := range items {
		if lines[i].Product.ID != it.ProductID || lines[i].Quantity != it.Quantity {
			return true
		}
	}
	return false
}

// ToCartLines converts reconciled lines back to the persisted shape for
// write-back after clamping.
func ToCartLines(lines []Line) []models.CartLine {
	items := make([]models.CartLine, len(lines))
	for i, ln := range lines {
		items[i] = models.CartLine{ProductID: ln.Product.ID, Quantity: ln.Quantity}
	}
	return items
}
