package engine

import (
	"sync"
	"time"

	"github.com/google/btree"

	"github.com/efreitasn/tradingcore/internal/domain"
)

// OrderBookEntry represents a single order resting on the book.
type OrderBookEntry struct {
	Price     int64
	CreatedAt time.Time
	Sequence  int64
	Order     *domain.Order
}

// PriceLevel represents an aggregated price level in the order book.
type PriceLevel struct {
	Price         int64
	TotalQuantity int64
	OrderCount    int
}

// bidLess defines ordering for the bid side: price descending, then
// created_at ascending, then sequence ascending. Min() returns the best
// bid (highest price, earliest arrival).
func bidLess(a, b OrderBookEntry) bool {
	if a.Price != b.Price {
		return a.Price > b.Price
	}
	return arrivedBefore(a, b)
}

// askLess defines ordering for the ask side: price ascending, then
// created_at ascending, then sequence ascending. Min() returns the best
// ask (lowest price, earliest arrival).
func askLess(a, b OrderBookEntry) bool {
	if a.Price != b.Price {
		return a.Price < b.Price
	}
	return arrivedBefore(a, b)
}

func arrivedBefore(a, b OrderBookEntry) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Sequence < b.Sequence
}

func entryFor(o *domain.Order) OrderBookEntry {
	return OrderBookEntry{
		Price:     o.Price,
		CreatedAt: o.CreatedAt,
		Sequence:  o.Sequence,
		Order:     o,
	}
}

// OrderBook maintains the bid and ask sides for a single symbol using
// B-trees with a secondary index for O(log n) removal by order ID.
//
// mu is the symbol's lock: every read or write of the book, and of the
// mutable fields of orders for this symbol, happens while holding it.
type OrderBook struct {
	symbol string
	mu     sync.RWMutex
	bids   *btree.BTreeG[OrderBookEntry]
	asks   *btree.BTreeG[OrderBookEntry]
	index  map[string]OrderBookEntry // order_id → entry
}

// NewOrderBook creates an order book for the given symbol.
func NewOrderBook(symbol string) *OrderBook {
	const degree = 32
	return &OrderBook{
		symbol: symbol,
		bids:   btree.NewG[OrderBookEntry](degree, bidLess),
		asks:   btree.NewG[OrderBookEntry](degree, askLess),
		index:  make(map[string]OrderBookEntry),
	}
}

// Symbol returns the symbol this book trades.
func (ob *OrderBook) Symbol() string {
	return ob.symbol
}

func (ob *OrderBook) side(s domain.Side) *btree.BTreeG[OrderBookEntry] {
	if s == domain.SideBuy {
		return ob.bids
	}
	return ob.asks
}

// Insert rests an order on its side of the book.
func (ob *OrderBook) Insert(o *domain.Order) {
	entry := entryFor(o)
	ob.side(o.Side).ReplaceOrInsert(entry)
	ob.index[o.OrderID] = entry
}

// Remove deletes an order from the book by order ID using the secondary
// index. It reports whether the order was resting.
func (ob *OrderBook) Remove(orderID string) bool {
	entry, ok := ob.index[orderID]
	if !ok {
		return false
	}
	delete(ob.index, orderID)
	ob.side(entry.Order.Side).Delete(entry)
	return true
}

// Contains reports whether the order is resting on the book.
func (ob *OrderBook) Contains(orderID string) bool {
	_, ok := ob.index[orderID]
	return ok
}

// Best returns the highest-priority order on side s.
func (ob *OrderBook) Best(s domain.Side) (OrderBookEntry, bool) {
	return ob.side(s).Min()
}

// Levels aggregates side s into at most n price levels, best price first.
func (ob *OrderBook) Levels(s domain.Side, n int) []PriceLevel {
	levels := make([]PriceLevel, 0, max(n, 0))
	if n <= 0 {
		return levels
	}
	ob.side(s).Ascend(func(entry OrderBookEntry) bool {
		last := len(levels) - 1
		if last >= 0 && levels[last].Price == entry.Price {
			levels[last].TotalQuantity += entry.Order.Remaining()
			levels[last].OrderCount++
			return true
		}
		if len(levels) == n {
			return false
		}
		levels = append(levels, PriceLevel{Price: entry.Price, TotalQuantity: entry.Order.Remaining(), OrderCount: 1})
		return true
	})
	return levels
}

// Walk iterates one side in priority order. The callback returns true to
// continue, false to stop.
func (ob *OrderBook) Walk(s domain.Side, fn func(OrderBookEntry) bool) {
	ob.side(s).Ascend(fn)
}

// Candidates returns the resting orders an incoming order may trade
// against, in priority order. For limit orders the walk stops at the first
// price the incoming order will not accept.
func (ob *OrderBook) Candidates(incoming *domain.Order) []*domain.Order {
	var out []*domain.Order
	ob.Walk(incoming.Side.Opposite(), func(entry OrderBookEntry) bool {
		if !Compatible(incoming, entry.Order) {
			return false
		}
		out = append(out, entry.Order)
		return true
	})
	return out
}

// Len returns the number of orders resting on side s.
func (ob *OrderBook) Len(s domain.Side) int {
	return ob.side(s).Len()
}

// BookManager is a thread-safe map of symbol → OrderBook.
type BookManager struct {
	mu    sync.RWMutex
	books map[string]*OrderBook
}

// NewBookManager creates a new BookManager.
func NewBookManager() *BookManager {
	return &BookManager{
		books: make(map[string]*OrderBook),
	}
}

// Get returns the order book for symbol if one exists.
func (bm *BookManager) Get(symbol string) (*OrderBook, bool) {
	bm.mu.RLock()
	defer bm.mu.RUnlock()
	book, ok := bm.books[symbol]
	return book, ok
}

// GetOrCreate returns the order book for the given symbol, creating
// one if it doesn't already exist.
func (bm *BookManager) GetOrCreate(symbol string) *OrderBook {
	if book, ok := bm.Get(symbol); ok {
		return book
	}

	bm.mu.Lock()
	defer bm.mu.Unlock()
	// Double-check after acquiring write lock.
	if book, ok := bm.books[symbol]; ok {
		return book
	}
	book := NewOrderBook(symbol)
	bm.books[symbol] = book
	return book
}
