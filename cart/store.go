package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/models"
)

// Store owns the line lists of all live carts. Mutations apply to memory
// first and persist asynchronously through a per-cart write queue; stock
// clamping is deliberately absent here (the store does not know the catalog),
// it happens at reconciliation.
type Store struct {
	storage Storage
	logger  *zap.Logger

	mu      sync.Mutex
	carts   map[string]*cartState
	writers map[string]*writer
}

type cartState struct {
	mu     sync.Mutex
	loaded bool
	items  []models.CartLine
}

func NewStore(storage Storage, logger *zap.Logger) *Store {
	return &Store{
		storage: storage,
		logger:  logger,
		carts:   make(map[string]*cartState),
		writers: make(map[string]*writer),
	}
}

// Add increases the quantity of an existing line by qty, or inserts a new
// line. No upper bound: the store alone cannot know stock.
func (s *Store) Add(ctx context.Context, cartID, productID string, qty int) {
	if qty < 1 {
		qty = 1
	}
	s.mutate(ctx, cartID, func(items []models.CartLine) []models.CartLine {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity += qty
				return items
			}
		}
		return append(items, models.CartLine{ProductID: productID, Quantity: qty})
	})
}

// Remove drops the line for productID if present.
func (s *Store) Remove(ctx context.Context, cartID, productID string) {
	s.mutate(ctx, cartID, func(items []models.CartLine) []models.CartLine {
		for i := range items {
			if items[i].ProductID == productID {
				return append(items[:i], items[i+1:]...)
			}
		}
		return items
	})
}

// SetQuantity replaces a line's quantity with max(1, qty). No-op when the
// line does not exist.
func (s *Store) SetQuantity(ctx context.Context, cartID, productID string, qty int) {
	if qty < 1 {
		qty = 1
	}
	s.mutate(ctx, cartID, func(items []models.CartLine) []models.CartLine {
		for i := range items {
			if items[i].ProductID == productID {
				items[i].Quantity = qty
				break
			}
		}
		return items
	})
}

// Replace swaps the whole line list. Used for the reconciliation write-back
// so clamped quantities are durably corrected.
func (s *Store) Replace(ctx context.Context, cartID string, items []models.CartLine) {
	copied := append([]models.CartLine(nil), items...)
	s.mutate(ctx, cartID, func([]models.CartLine) []models.CartLine {
		return copied
	})
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context, cartID string) {
	s.mutate(ctx, cartID, func([]models.CartLine) []models.CartLine {
		return nil
	})
}

// List returns the raw lines, unjoined and unclamped.
func (s *Store) List(ctx context.Context, cartID string) []models.CartLine {
	st := s.state(cartID)
	st.mu.Lock()
	defer st.mu.Unlock()
	s.ensureLoaded(ctx, cartID, st)
	return append([]models.CartLine(nil), st.items...)
}

// Flush blocks until pending persistence writes for cartID have drained.
func (s *Store) Flush(cartID string) {
	s.mu.Lock()
	w := s.writers[cartID]
	s.mu.Unlock()
	if w != nil {
		w.flush()
	}
}

// Close drains and stops all cart writers.
func (s *Store) Close() {
	s.mu.Lock()
	writers := make([]*writer, 0, len(s.writers))
	for _, w := range s.writers {
		writers = append(writers, w)
	}
	s.mu.Unlock()
	for _, w := range writers {
		w.close()
	}
}

// mutate applies fn under the per-cart lock and enqueues the resulting
// snapshot before releasing it, so snapshots reach the writer in mutation
// order. Enqueueing outside the lock would let two racing mutations invert,
// and the writer's coalescing would then persist the older state.
func (s *Store) mutate(ctx context.Context, cartID string, fn func([]models.CartLine) []models.CartLine) {
	w := s.writerFor(cartID)
	st := s.state(cartID)
	st.mu.Lock()
	defer st.mu.Unlock()
	s.ensureLoaded(ctx, cartID, st)
	st.items = fn(st.items)
	w.enqueue(models.Cart{
		Items:     append([]models.CartLine(nil), st.items...),
		UpdatedAt: time.Now().UTC(),
	})
}

// ensureLoaded pulls the persisted cart into memory on first touch. A read
// failure is non-fatal: the cart starts empty for this session.
func (s *Store) ensureLoaded(ctx context.Context, cartID string, st *cartState) {
	if st.loaded {
		return
	}
	st.loaded = true
	c, err := s.storage.Load(ctx, cartID)
	if err != nil {
		s.logger.Warn("cart load failed, starting empty", zap.String("cart_id", cartID), zap.Error(err))
		return
	}
	st.items = c.Items
}

func (s *Store) state(cartID string) *cartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.carts[cartID]
	if !ok {
		st = &cartState{}
		s.carts[cartID] = st
	}
	return st
}

func (s *Store) writerFor(cartID string) *writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.writers[cartID]
	if !ok {
		w = newWriter(cartID, s.storage, s.logger)
		s.writers[cartID] = w
	}
	return w
}
