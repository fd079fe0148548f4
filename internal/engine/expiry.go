package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/efreitasn/tradingcore/internal/domain"
)

// expiryEntry schedules one good-till-date order.
type expiryEntry struct {
	at    time.Time
	seq   int64
	order *domain.Order
}

// expiryLess orders entries by expires_at, then arrival, then order ID.
func expiryLess(a, b expiryEntry) bool {
	if !a.at.Equal(b.at) {
		return a.at.Before(b.at)
	}
	if a.seq != b.seq {
		return a.seq < b.seq
	}
	return a.order.OrderID < b.order.OrderID
}

// ExpiryManager tracks resting good-till-date orders by expires_at and
// periodically hands due orders to the expire callback.
type ExpiryManager struct {
	interval time.Duration
	now      func() time.Time
	expire   func(*domain.Order)

	mu    sync.Mutex // protects queue and index
	queue *btree.BTreeG[expiryEntry]
	index map[string]expiryEntry // order_id → entry
}

// NewExpiryManager creates an ExpiryManager that sweeps every interval
// using now as the current time.
func NewExpiryManager(interval time.Duration, now func() time.Time, expire func(*domain.Order)) *ExpiryManager {
	const degree = 16
	return &ExpiryManager{
		interval: interval,
		now:      now,
		expire:   expire,
		queue:    btree.NewG[expiryEntry](degree, expiryLess),
		index:    make(map[string]expiryEntry),
	}
}

// Add schedules an order. Orders without an expiry, or already scheduled,
// are ignored.
func (e *ExpiryManager) Add(order *domain.Order) {
	if order.ExpiresAt == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.index[order.OrderID]; ok {
		return
	}
	entry := expiryEntry{at: *order.ExpiresAt, seq: order.Sequence, order: order}
	e.queue.ReplaceOrInsert(entry)
	e.index[order.OrderID] = entry
}

// Remove unschedules an order by ID.
func (e *ExpiryManager) Remove(orderID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, ok := e.index[orderID]
	if !ok {
		return
	}
	delete(e.index, orderID)
	e.queue.Delete(entry)
}

// Start launches a background goroutine that ticks at the configured
// interval and expires orders. It stops when ctx is cancelled.
func (e *ExpiryManager) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(e.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.tick(e.now())
			}
		}
	}()
}

// tick unschedules every order with expires_at <= now and expires them
// outside the manager's lock, earliest first.
func (e *ExpiryManager) tick(now time.Time) {
	e.mu.Lock()
	var due []*domain.Order
	for {
		entry, ok := e.queue.Min()
		if !ok || entry.at.After(now) {
			break
		}
		e.queue.DeleteMin()
		delete(e.index, entry.order.OrderID)
		due = append(due, entry.order)
	}
	e.mu.Unlock()

	for _, order := range due {
		e.expire(order)
	}
}

// Scheduled returns the IDs of tracked orders, earliest expiry first.
func (e *ExpiryManager) Scheduled() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]string, 0, e.queue.Len())
	e.queue.Ascend(func(entry expiryEntry) bool {
		out = append(out, entry.order.OrderID)
		return true
	})
	return out
}

// ActiveOrderCount returns the number of orders currently tracked for
// expiration.
func (e *ExpiryManager) ActiveOrderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Len()
}
