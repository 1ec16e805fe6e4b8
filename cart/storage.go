package cart

import (
	"context"
	"sync"

	"storefront/models"
)

// Storage is the persistence port for carts, keyed by cart id (one cart per
// authenticated user). Implementations must tolerate concurrent calls for
// different carts; calls for the same cart are serialized by the Store.
type Storage interface {
	Load(ctx context.Context, cartID string) (models.Cart, error)
	Save(ctx context.Context, cartID string, cart models.Cart) error
}

// MemoryStorage keeps carts in a map. Used by tests and as the dev fallback
// when no database is configured.
type MemoryStorage struct {
	mu    sync.RWMutex
	carts map[string]models.Cart
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{carts: make(map[string]models.Cart)}
}

func (m *MemoryStorage) Load(_ context.Context, cartID string) (models.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.carts[cartID]
	if !ok {
		return models.Cart{}, nil
	}
	out := models.Cart{Items: append([]models.CartLine(nil), c.Items...), UpdatedAt: c.UpdatedAt}
	return out, nil
}

func (m *MemoryStorage) Save(_ context.Context, cartID string, cart models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[cartID] = models.Cart{Items: append([]models.CartLine(nil), cart.Items...), UpdatedAt: cart.UpdatedAt}
	return nil
}
