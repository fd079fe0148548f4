package store

import (
	"math"
	"sync"
	"time"

	"github.com/efreitasn/tradingcore/internal/domain"
)

// TapeStats summarises a symbol's executed trades.
type TapeStats struct {
	Trades    int
	Volume    int64 // shares
	Notional  int64 // cents, saturating at math.MaxInt64
	LastPrice int64 // cents
	LastAt    time.Time
}

type tape struct {
	trades []*domain.Trade
	stats  TapeStats
}

// TradeStore is the append-only trade tape of every symbol.
type TradeStore struct {
	mu    sync.RWMutex
	tapes map[string]*tape
	count int
}

// NewTradeStore creates an empty TradeStore.
func NewTradeStore() *TradeStore {
	return &TradeStore{tapes: make(map[string]*tape)}
}

// Append records t on its symbol's tape. Trades must be appended in
// execution order.
func (s *TradeStore) Append(t *domain.Trade) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tp, ok := s.tapes[t.Symbol]
	if !ok {
		tp = &tape{}
		s.tapes[t.Symbol] = tp
	}
	tp.trades = append(tp.trades, t)
	tp.stats.Trades++
	tp.stats.Volume += t.Quantity
	if n, ok := domain.AddCents(tp.stats.Notional, t.Notional()); ok {
		tp.stats.Notional = n
	} else {
		tp.stats.Notional = math.MaxInt64
	}
	tp.stats.LastPrice = t.Price
	tp.stats.LastAt = t.ExecutedAt
	s.count++
}

// GetBySymbol returns a copy of the symbol's tape, oldest first. It is
// empty, never nil, for a symbol without trades.
func (s *TradeStore) GetBySymbol(symbol string) []*domain.Trade {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tp, ok := s.tapes[symbol]
	if !ok {
		return []*domain.Trade{}
	}
	result := make([]*domain.Trade, len(tp.trades))
	copy(result, tp.trades)
	return result
}

// Stats returns the tape summary for symbol. ok is false when the symbol
// has never traded.
func (s *TradeStore) Stats(symbol string) (stats TapeStats, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tp, ok := s.tapes[symbol]
	if !ok {
		return TapeStats{}, false
	}
	return tp.stats, true
}

// Count returns the number of trades across all symbols.
func (s *TradeStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}
