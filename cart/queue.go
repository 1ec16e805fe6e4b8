package cart

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"storefront/models"
)

// writer serializes persistence writes for one cart. Rapid mutations (qty +/-
// taps) enqueue snapshots in mutation order and a single goroutine applies
// them, so a slow earlier write can never clobber a newer state.
type writer struct {
	cartID  string
	storage Storage
	logger  *zap.Logger

	mu     sync.Mutex
	cond   *sync.Cond
	queue  []models.Cart
	busy   bool
	closed bool
}

func newWriter(cartID string, storage Storage, logger *zap.Logger) *writer {
	w := &writer{cartID: cartID, storage: storage, logger: logger}
	w.cond = sync.NewCond(&w.mu)
	go w.run()
	return w
}

// enqueue records a snapshot to persist. Never blocks the mutation path.
func (w *writer) enqueue(cart models.Cart) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	// Older queued snapshots are superseded by this one; keeping only the
	// newest preserves write order while bounding the queue.
	w.queue = append(w.queue[:0], cart)
	w.cond.Broadcast()
}

func (w *writer) run() {
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.cond.Wait()
		}
		if len(w.queue) == 0 && w.closed {
			w.mu.Unlock()
			return
		}
		snap := w.queue[0]
		w.queue = w.queue[1:]
		w.busy = true
		w.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := w.storage.Save(ctx, w.cartID, snap); err != nil {
			// Best-effort persistence: the in-memory cart already holds the
			// mutation, so a failed write costs durability, not correctness.
			w.logger.Warn("cart persist failed", zap.String("cart_id", w.cartID), zap.Error(err))
		}
		cancel()

		w.mu.Lock()
		w.busy = false
		w.cond.Broadcast()
		w.mu.Unlock()
	}
}

// flush blocks until every enqueued snapshot has been handed to storage.
func (w *writer) flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for len(w.queue) > 0 || w.busy {
		w.cond.Wait()
	}
}

func (w *writer) close() {
	w.mu.Lock()
	w.closed = true
	w.cond.Broadcast()
	for len(w.queue) > 0 || w.busy {
		w.cond.Wait()
	}
	w.mu.Unlock()
}
