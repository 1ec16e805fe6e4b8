package models

import "time"

type OrderStatus string

const (
	OrderCreated   OrderStatus = "created"
	OrderPaid      OrderStatus = "paid"
	OrderShipped   OrderStatus = "shipped"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

// CanTransition reports whether s may move to next. The happy path is
// created -> paid -> shipped -> delivered; cancelled is reachable from any
// non-terminal state. This service only ever writes the initial "created";
// later transitions are driven externally.
func (s OrderStatus) CanTransition(next OrderStatus) bool {
	switch s {
	case OrderCreated:
		return next == OrderPaid || next == OrderCancelled
	case OrderPaid:
		return next == OrderShipped || next == OrderCancelled
	case OrderShipped:
		return next == OrderDelivered || next == OrderCancelled
	default:
		return false
	}
}

// OrderLine snapshots a reconciled cart line at checkout time. Price and name
// are copied so later catalog changes never rewrite order history.
type OrderLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"qty"`
	Image     string `json:"img,omitempty"`
}

func (l OrderLine) Subtotal() int64 {
	return l.Price * int64(l.Quantity)
}

type Amounts struct {
	Subtotal int64 `json:"subtotal"`
	Discount int64 `json:"discount"`
	Shipping int64 `json:"shipping"`
	Tax      int64 `json:"tax"`
	Total    int64 `json:"total"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Region    string `json:"region"`
	City      string `json:"city"`
	Street    string `json:"address"`
	Unit      string `json:"unit,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

// Order is immutable once emitted; only Status changes afterwards.
type Order struct {
	ID             string          `json:"id"`
	UserID         int             `json:"user_id"`
	CreatedAt      time.Time       `json:"created_at"`
	Lines          []OrderLine     `json:"items"`
	Amounts        Amounts         `json:"amounts"`
	Coupon         *Coupon         `json:"coupon,omitempty"`
	ShippingMethod *ShippingMethod `json:"shipping_method,omitempty"`
	Address        *Address        `json:"shipping_address,omitempty"`
	PaymentMethod  string          `json:"payment_method"`
	Status         OrderStatus     `json:"status"`
}

// OrderEvent is the message published to the order exchange.
type OrderEvent struct {
	OrderID  string    `json:"order_id"`
	UserID   int       `json:"user_id"`
	Type     string    `json:"type"` // created, status_updated, payment_check
	Status   string    `json:"status"`
	Total    int64     `json:"total"`
	Occurred time.Time `json:"occurred"`
}
