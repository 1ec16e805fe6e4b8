package models

import "time"

// Review is one user's rating of a product. The upstream backend owns review
// storage and the product-rating aggregate; this service only passes reviews
// through.
type Review struct {
	ID        int       `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    int       `json:"user_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
