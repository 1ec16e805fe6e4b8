package consumers

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"storefront/config"
	"storefront/models"
	"storefront/orders"
)

// OrderConsumer processes order events from the main queue and the DLQ. The
// interesting case is payment_check: a delayed event that auto-cancels orders
// still unpaid after the payment window.
type OrderConsumer struct {
	Store  orders.Store
	Logger *zap.Logger
}

func (oc *OrderConsumer) Start(ch *amqp.Channel, cfg *config.Config) error {
	msgs, err := ch.Consume(
		cfg.OrderQueue,
		"storefront", // consumer tag
		false,        // auto-ack
		false,        // exclusive
		false,        // no-local
		false,        // no-wait
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for msg := range msgs {
			oc.processOrderMessage(msg)
		}
	}()

	dlqMsgs, err := ch.Consume(
		cfg.DeadLetterQueue,
		"storefront-dlq", // consumer tag
		false,            // auto-ack
		false,            // exclusive
		false,            // no-local
		false,            // no-wait
		nil,
	)
	if err != nil {
		oc.Logger.Warn("failed to register DLQ consumer", zap.Error(err))
		return nil
	}

	go func() {
		for msg := range dlqMsgs {
			oc.processDeadLetterMessage(msg)
		}
	}()

	return nil
}

func (oc *OrderConsumer) processOrderMessage(msg amqp.Delivery) {
	defer func() {
		if r := recover(); r != nil {
			oc.Logger.Error("recovered from panic in message processing", zap.Any("panic", r))
		}
	}()

	var event models.OrderEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		oc.Logger.Warn("invalid event payload", zap.ByteString("body", msg.Body))
		msg.Nack(false, false) // reject, do not requeue
		return
	}

	oc.Logger.Info("processing order event",
		zap.String("order_id", event.OrderID),
		zap.String("type", event.Type))

	switch event.Type {
	case "created":
		// notification fan-out hook
	case "status_updated":
		// cache invalidation hook
	case "payment_check":
		oc.handlePaymentCheck(event)
	default:
		oc.Logger.Warn("unknown event type", zap.String("type", event.Type))
	}

	msg.Ack(false)
}

func (oc *OrderConsumer) processDeadLetterMessage(msg amqp.Delivery) {
	oc.Logger.Warn("received dead letter", zap.ByteString("body", msg.Body))
	msg.Ack(false)
}

// handlePaymentCheck cancels the order if it is still unpaid when the delayed
// event fires.
func (oc *OrderConsumer) handlePaymentCheck(event models.OrderEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	order, err := oc.Store.Get(ctx, event.OrderID, event.UserID)
	if err != nil {
		if !errors.Is(err, orders.ErrNotFound) {
			oc.Logger.Warn("payment check lookup failed", zap.String("order_id", event.OrderID), zap.Error(err))
		}
		return
	}
	if order.Status != models.OrderCreated {
		return
	}

	if err := oc.Store.UpdateStatus(ctx, event.OrderID, event.UserID, models.OrderCancelled); err != nil {
		oc.Logger.Warn("auto-cancel failed", zap.String("order_id", event.OrderID), zap.Error(err))
		return
	}
	oc.Logger.Info("auto-cancelled unpaid order", zap.String("order_id", event.OrderID))
}
