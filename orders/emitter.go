package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront/cart"
	"storefront/models"
	"storefront/pricing"
)

// EventPublisher is the messaging port; the rabbitmq package implements it.
// A nil publisher disables events (dev mode without a broker).
type EventPublisher interface {
	PublishOrderEvent(event models.OrderEvent, priority uint8) error
	PublishDelayedEvent(event models.OrderEvent, delay time.Duration) error
}

// Emitter turns a priced, reconciled cart into durable order history.
type Emitter struct {
	store     Store
	carts     *cart.Store
	publisher EventPublisher
	logger    *zap.Logger

	paymentWindow time.Duration

	// injectable for tests
	now   func() time.Time
	newID func() string
}

func NewEmitter(store Store, carts *cart.Store, publisher EventPublisher, paymentWindow time.Duration, logger *zap.Logger) *Emitter {
	return &Emitter{
		store:         store,
		carts:         carts,
		publisher:     publisher,
		logger:        logger,
		paymentWindow: paymentWindow,
		now:           func() time.Time { return time.Now().UTC() },
		newID:         func() string { return "ORD-" + uuid.NewString() },
	}
}

// Submit materializes an immutable Order from the reconciled lines and
// computed amounts, prepends it to the user's history and clears the cart.
// Each call is a new purchase event: submitting twice yields two orders with
// distinct ids, on purpose.
//
// Precondition checks (non-empty cart, chosen shipping, valid address) belong
// to the controller's form layer, not here.
func (e *Emitter) Submit(ctx context.Context, userID int, cartID string, lines []pricing.Line,
	amounts models.Amounts, coupon *models.Coupon, method *models.ShippingMethod,
	address *models.Address, paymentMethod string) (*models.Order, error) {

	order := &models.Order{
		ID:            e.newID(),
		UserID:        userID,
		CreatedAt:     e.now(),
		Lines:         snapshotLines(lines),
		Amounts:       amounts,
		PaymentMethod: paymentMethod,
		Status:        models.OrderCreated,
	}
	if coupon != nil {
		c := *coupon
		order.Coupon = &c
	}
	if method != nil {
		m := *method
		order.ShippingMethod = &m
	}
	if address != nil {
		a := *address
		order.Address = &a
	}

	if err := e.store.Append(ctx, order); err != nil {
		return nil, err
	}
	e.carts.Clear(ctx, cartID)

	e.publish(order)
	return order, nil
}

// List returns the user's order history, newest first.
func (e *Emitter) List(ctx context.Context, userID int) ([]models.Order, error) {
	return e.store.ListByUser(ctx, userID)
}

func (e *Emitter) Get(ctx context.Context, orderID string, userID int) (*models.Order, error) {
	return e.store.Get(ctx, orderID, userID)
}

// UpdateStatus applies an externally driven status change, enforcing the
// order lifecycle. Everything except Status is immutable history.
func (e *Emitter) UpdateStatus(ctx context.Context, orderID string, userID int, status models.OrderStatus) error {
	order, err := e.store.Get(ctx, orderID, userID)
	if err != nil {
		return err
	}
	if !order.Status.CanTransition(status) {
		return ErrBadTransition
	}
	if err := e.store.UpdateStatus(ctx, orderID, userID, status); err != nil {
		return err
	}

	if e.publisher != nil {
		priority := uint8(5)
		if status == models.OrderCancelled {
			priority = 8
		}
		event := models.OrderEvent{
			OrderID:  orderID,
			UserID:   userID,
			Type:     "status_updated",
			Status:   string(status),
			Total:    order.Amounts.Total,
			Occurred: e.now(),
		}
		if err := e.publisher.PublishOrderEvent(event, priority); err != nil {
			e.logger.Warn("failed to publish order status event", zap.String("order_id", orderID), zap.Error(err))
		}
	}
	return nil
}

func (e *Emitter) publish(order *models.Order) {
	if e.publisher == nil {
		return
	}
	priority := uint8(5)
	if order.Amounts.Total > 100000 {
		priority = 9
	}
	event := models.OrderEvent{
		OrderID:  order.ID,
		UserID:   order.UserID,
		Type:     "created",
		Status:   string(order.Status),
		Total:    order.Amounts.Total,
		Occurred: order.CreatedAt,
	}
	if err := e.publisher.PublishOrderEvent(event, priority); err != nil {
		e.logger.Warn("failed to publish order created event", zap.String("order_id", order.ID), zap.Error(err))
	}

	check := event
	check.Type = "payment_check"
	if err := e.publisher.PublishDelayedEvent(check, e.paymentWindow); err != nil {
		e.logger.Warn("failed to publish delayed payment check", zap.String("order_id", order.ID), zap.Error(err))
	}
}

// snapshotLines deep-copies reconciled lines into the order shape so later
// mutation of the caller's slice cannot rewrite history.
func snapshotLines(lines []pricing.Line) []models.OrderLine {
	out := make([]models.OrderLine, len(lines))
	for i, ln := range lines {
		out[i] = models.OrderLine{
			ProductID: ln.Product.ID,
			Name:      ln.Product.Name,
			Price:     ln.Product.Price,
			Quantity:  ln.Quantity,
			Image:     ln.Product.FirstImage(),
		}
	}
	return out
}
