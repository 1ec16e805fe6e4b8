package models

import "time"

// CartLine is one product's presence in a cart. Quantity is stored as the
// user set it; clamping against stock happens at reconciliation, not here.
type CartLine struct {
	ProductID string `json:"productId" binding:"required"`
	Quantity  int    `json:"qty" binding:"required"`
}

// Cart is the persisted shape: the raw line list plus the last write time.
type Cart struct {
	Items     []CartLine `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}
