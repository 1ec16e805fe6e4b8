package models

// Product is the canonical catalog shape. Upstream payloads mix Spanish and
// English field names; catalog.NormalizeProduct maps them here exactly once.
// Nothing outside the catalog package should ever see the raw aliases.
type Product struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Brand      string   `json:"brand"`
	CategoryID string   `json:"category_id"`
	Price      int64    `json:"price"`
	Stock      int      `json:"stock"`
	Rating     float64  `json:"rating"`
	Images     []string `json:"images"`
	ShortDesc  string   `json:"short_desc"`
}

// FirstImage returns the lead image URL or "" when none exist.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CouponKind string

const (
	CouponPercent      CouponKind = "percent"
	CouponFixed        CouponKind = "fixed"
	CouponFreeShipping CouponKind = "ship"
)

type Coupon struct {
	Code  string     `json:"code"`
	Kind  CouponKind `json:"kind"`
	Value int64      `json:"value"`
}

type ShippingMethod struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Cost int64  `json:"cost"`
	ETA  string `json:"eta"`
}
