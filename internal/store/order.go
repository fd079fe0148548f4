package store

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/efreitasn/tradingcore/internal/domain"
)

// OrderStore is a thread-safe in-memory store for orders,
// with a primary index by order_id and a secondary index by user_id.
//
// The store guards its indexes only. Mutable order fields belong to the
// engine and are read under the owning symbol's book lock.
type OrderStore struct {
	mu         sync.RWMutex
	orders     map[string]*domain.Order
	userOrders map[string][]*domain.Order // user_id → orders (append-only)
}

// NewOrderStore creates an empty OrderStore.
func NewOrderStore() *OrderStore {
	return &OrderStore{
		orders:     make(map[string]*domain.Order),
		userOrders: make(map[string][]*domain.Order),
	}
}

// Create adds an order to the store and appends it to the user's
// secondary index. It returns domain.ErrDuplicateOrder if the ID is taken.
func (s *OrderStore) Create(o *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[o.OrderID]; exists {
		return errors.Wrapf(domain.ErrDuplicateOrder, "order %s", o.OrderID)
	}
	s.orders[o.OrderID] = o
	s.userOrders[o.UserID] = append(s.userOrders[o.UserID], o)
	return nil
}

// Get retrieves an order by ID. It returns
// domain.ErrOrderNotFound if the order does not exist.
func (s *OrderStore) Get(id string) (*domain.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return o, nil
}

// ListByUser returns a user's orders newest first. The slice is a copy;
// the orders are shared.
func (s *OrderStore) ListByUser(userID string) []*domain.Order {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.userOrders[userID]
	out := make([]*domain.Order, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		out = append(out, all[i])
	}
	return out
}

// Len returns the number of stored orders.
func (s *OrderStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.orders)
}

// Paginate returns the 1-based page of items and the total item count.
// Pages past the end yield an empty slice.
func Paginate[T any](items []T, page, limit int) ([]T, int) {
	total := len(items)
	if page < 1 || limit < 1 {
		return []T{}, total
	}
	start := (page - 1) * limit
	if start >= total {
		return []T{}, total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return items[start:end], total
}
