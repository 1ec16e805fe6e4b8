package catalog

import (
	"encoding/json"
	"math"
	"strings"

	"storefront/models"
)

// The upstream backend grew out of a Spanish-first data set and still serves a
// mix of Spanish and English field names. Everything crossing the boundary is
// normalized here, once, into the canonical models shapes.

// flexString accepts JSON strings and numbers; upstream ids do both.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

type rawProduct struct {
	ID         flexString `json:"id"`
	Name       string     `json:"name"`
	Titulo     string     `json:"titulo"`
	Brand      string     `json:"brand"`
	Marca      string     `json:"marca"`
	CategoryID flexString `json:"category_id"`
	CategoryId flexString `json:"categoryId"`
	Category   flexString `json:"category"`
	Categoria  flexString `json:"categoria"`
	Price      *float64   `json:"price"`
	Precio     *float64   `json:"precio"`
	Stock      *float64   `json:"stock"`
	Rating     float64    `json:"rating"`
	Images     []string   `json:"images"`
	Imagenes   []string   `json:"imagenes"`
	ShortDesc  string     `json:"short_desc"`
	Desc       string     `json:"descripcion"`
}

func normalizeProduct(r rawProduct) models.Product {
	return models.Product{
		ID:         string(r.ID),
		Name:       coalesce(r.Name, r.Titulo, "Producto"),
		Brand:      coalesce(r.Brand, r.Marca),
		CategoryID: coalesce(string(r.CategoryID), string(r.CategoryId), string(r.Category), string(r.Categoria)),
		Price:      asPesos(r.Price, r.Precio),
		Stock:      asCount(r.Stock),
		Rating:     r.Rating,
		Images:     coalesceSlice(r.Images, r.Imagenes),
		ShortDesc:  coalesce(r.ShortDesc, r.Desc),
	}
}

type rawShippingMethod struct {
	ID     flexString `json:"id"`
	Code   flexString `json:"code"`
	Slug   flexString `json:"slug"`
	Nombre string     `json:"nombre"`
	Name   string     `json:"name"`
	Costo  *float64   `json:"costo"`
	Cost   *float64   `json:"cost"`
	Precio *float64   `json:"precio"`
	Dias   string     `json:"dias"`
	SLA    string     `json:"sla"`
}

func normalizeShippingMethod(r rawShippingMethod) models.ShippingMethod {
	return models.ShippingMethod{
		ID:   coalesce(string(r.ID), string(r.Code), string(r.Slug)),
		Name: coalesce(r.Nombre, r.Name, "Envío"),
		Cost: asPesos(r.Costo, r.Cost, r.Precio),
		ETA:  coalesce(r.Dias, r.SLA),
	}
}

type rawCoupon struct {
	Code   string   `json:"code"`
	Codigo string   `json:"codigo"`
	Type   string   `json:"type"`
	Tipo   string   `json:"tipo"`
	Value  *float64 `json:"value"`
	Valor  *float64 `json:"valor"`
}

func normalizeCoupon(r rawCoupon) models.Coupon {
	kindRaw := strings.ToLower(coalesce(r.Type, r.Tipo))
	kind := models.CouponFixed
	switch {
	case strings.Contains(kindRaw, "porcentaje") || strings.Contains(kindRaw, "percent"):
		kind = models.CouponPercent
	case strings.Contains(kindRaw, "envio") || strings.Contains(kindRaw, "free") || strings.Contains(kindRaw, "ship"):
		kind = models.CouponFreeShipping
	}
	return models.Coupon{
		Code:  strings.ToUpper(strings.TrimSpace(coalesce(r.Code, r.Codigo))),
		Kind:  kind,
		Value: asPesos(r.Value, r.Valor),
	}
}

func coalesce(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func coalesceSlice(vals ...[]string) []string {
	for _, v := range vals {
		if len(v) > 0 {
			return v
		}
	}
	return nil
}

func asPesos(vals ...*float64) int64 {
	for _, v := range vals {
		if v != nil {
			if *v < 0 || math.IsNaN(*v) {
				return 0
			}
			return int64(math.Floor(*v + 0.5))
		}
	}
	return 0
}

func asCount(v *float64) int {
	if v == nil || *v < 0 || math.IsNaN(*v) {
		return 0
	}
	return int(*v)
}
