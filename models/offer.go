package models

// Offer is one external marketplace hit, normalized across sources.
// Prices are CLP after conversion.
type Offer struct {
	Source    string `json:"source"`
	ID        string `json:"id"`
	Title     string `json:"title"`
	Price     int64  `json:"price"`
	Currency  string `json:"currency"`
	Thumbnail string `json:"thumbnail"`
	Permalink string `json:"permalink"`
}

// Favorite is one entry of a user's favorites list.
type Favorite struct {
	ID        int    `json:"id"`
	ProductID string `json:"product_id"`
}
