package orders

import (
	"context"
	"errors"
	"sync"

	"storefront/models"
)

var ErrNotFound = errors.New("order not found")

// ErrBadTransition is returned when a status update would skip or reverse
// the created -> paid -> shipped -> delivered sequence.
var ErrBadTransition = errors.New("invalid status transition")

// Store is the persistence port for order history. Lists are most-recent-first.
type Store interface {
	Append(ctx context.Context, order *models.Order) error
	ListByUser(ctx context.Context, userID int) ([]models.Order, error)
	Get(ctx context.Context, orderID string, userID int) (*models.Order, error)
	UpdateStatus(ctx context.Context, orderID string, userID int, status models.OrderStatus) error
}

// MemoryStore keeps order history in a per-user slice, newest first.
type MemoryStore struct {
	mu     sync.RWMutex
	byUser map[int][]models.Order
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byUser: make(map[int][]models.Order)}
}

func (m *MemoryStore) Append(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.byUser[order.UserID]
	m.byUser[order.UserID] = append([]models.Order{cloneOrder(order)}, list...)
	return nil
}

func (m *MemoryStore) ListByUser(_ context.Context, userID int) ([]models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	list := m.byUser[userID]
	out := make([]models.Order, len(list))
	for i := range list {
		out[i] = cloneOrder(&list[i])
	}
	return out, nil
}

func (m *MemoryStore) Get(_ context.Context, orderID string, userID int) (*models.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := range m.byUser[userID] {
		if m.byUser[userID][i].ID == orderID {
			o := cloneOrder(&m.byUser[userID][i])
			return &o, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) UpdateStatus(_ context.Context, orderID string, userID int, status models.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.byUser[userID] {
		if m.byUser[userID][i].ID == orderID {
			m.byUser[userID][i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

// cloneOrder deep-copies so stored history can never alias caller slices.
func cloneOrder(o *models.Order) models.Order {
	out := *o
	out.Lines = append([]models.OrderLine(nil), o.Lines...)
	if o.Coupon != nil {
		c := *o.Coupon
		out.Coupon = &c
	}
	if o.ShippingMethod != nil {
		m := *o.ShippingMethod
		out.ShippingMethod = &m
	}
	if o.Address != nil {
		a := *o.Address
		out.Address = &a
	}
	return out
}
