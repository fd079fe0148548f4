// Package observer provides ready-made trade observers for the engine.
package observer

import (
	"sync"

	"go.uber.org/zap"

	"github.com/efreitasn/tradingcore/internal/domain"
)

// Logging writes one structured log line per executed trade.
type Logging struct {
	log *zap.Logger
}

// NewLogging returns a Logging observer writing to log.
func NewLogging(log *zap.Logger) *Logging {
	return &Logging{log: log.Named("trades")}
}

// OnTradeExecuted implements engine.TradeObserver.
func (l *Logging) OnTradeExecuted(trade domain.Trade, buy, sell domain.OrderSnapshot) {
	l.log.Info("trade",
		zap.String("trade_id", trade.TradeID),
		zap.String("symbol", trade.Symbol),
		zap.String("price", domain.FromCents(trade.Price).StringFixed(2)),
		zap.Int64("quantity", trade.Quantity),
		zap.String("buyer", trade.BuyerID),
		zap.String("seller", trade.SellerID),
		zap.String("buy_status", string(buy.Status)),
		zap.String("sell_status", string(sell.Status)),
		zap.Time("executed_at", trade.ExecutedAt),
	)
}

// Collector keeps every trade it sees, in arrival order.
type Collector struct {
	mu     sync.Mutex
	trades []domain.Trade
	volume map[string]int64 // symbol → shares traded
}

// NewCollector returns an empty Collector.
func NewCollector() *Collector {
	return &Collector{volume: make(map[string]int64)}
}

// OnTradeExecuted implements engine.TradeObserver.
func (c *Collector) OnTradeExecuted(trade domain.Trade, _, _ domain.OrderSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trades = append(c.trades, trade)
	c.volume[trade.Symbol] += trade.Quantity
}

// Trades returns a copy of the collected trades.
func (c *Collector) Trades() []domain.Trade {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Trade, len(c.trades))
	copy(out, c.trades)
	return out
}

// Volume returns the number of shares traded for symbol.
func (c *Collector) Volume(symbol string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.volume[symbol]
}
