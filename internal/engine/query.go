package engine

import (
	"fmt"

	"github.com/efreitasn/tradingcore/internal/domain"
)

// Depth is an aggregated view of the top of a symbol's book.
type Depth struct {
	Symbol string
	Bids   []PriceLevel // best (highest) first
	Asks   []PriceLevel // best (lowest) first
	Spread *int64       // nil unless both sides have orders

	LastPrice *int64 // nil until the symbol trades
	Volume    int64  // shares traded so far
}

// Depth returns up to levels aggregated price levels per side. levels
// must be between 1 and the configured depth limit.
func (e *Engine) Depth(symbol string, levels int) (Depth, error) {
	if levels < 1 || levels > e.depthLimit {
		return Depth{}, &domain.ValidationError{Message: fmt.Sprintf("levels must be between 1 and %d", e.depthLimit)}
	}
	book, ok := e.books.Get(symbol)
	if !ok || !e.symbols.Exists(symbol) {
		return Depth{}, domain.ErrSymbolNotFound
	}

	book.mu.RLock()
	defer book.mu.RUnlock()

	d := Depth{
		Symbol: symbol,
		Bids:   book.Levels(domain.SideBuy, levels),
		Asks:   book.Levels(domain.SideSell, levels),
	}
	bid, hasBid := book.Best(domain.SideBuy)
	ask, hasAsk := book.Best(domain.SideSell)
	if hasBid && hasAsk {
		spread := ask.Price - bid.Price
		d.Spread = &spread
	}
	if stats, ok := e.trades.Stats(symbol); ok {
		last := stats.LastPrice
		d.LastPrice = &last
		d.Volume = stats.Volume
	}
	return d, nil
}

// QuotePriceLevel represents a single price level in a quote simulation.
type QuotePriceLevel struct {
	Price    int64
	Quantity int64
}

// QuoteResult holds the result of a market order simulation.
type QuoteResult struct {
	QuantityAvailable int64
	FullyFillable     bool
	EstimatedAvgPrice *int64 // nil when no liquidity
	EstimatedTotal    *int64 // nil when no liquidity
	PriceLevels       []QuotePriceLevel
}

// Quote performs a read-only walk of the side a market order on side would
// trade against: asks for a buy, bids for a sell. Nothing is reserved.
func (e *Engine) Quote(symbol string, side domain.Side, quantity int64) (QuoteResult, error) {
	if side != domain.SideBuy && side != domain.SideSell {
		return QuoteResult{}, &domain.ValidationError{Message: fmt.Sprintf("side must be BUY or SELL, got %q", side)}
	}
	if quantity <= 0 {
		return QuoteResult{}, &domain.ValidationError{Message: "quantity must be greater than zero"}
	}
	book, ok := e.books.Get(symbol)
	if !ok || !e.symbols.Exists(symbol) {
		return QuoteResult{}, domain.ErrSymbolNotFound
	}

	book.mu.RLock()
	defer book.mu.RUnlock()

	result := QuoteResult{PriceLevels: make([]QuotePriceLevel, 0)}
	remaining := quantity
	var totalCost int64
	costOK := true

	book.Walk(side.Opposite(), func(entry OrderBookEntry) bool {
		fillQty := min(entry.Order.Remaining(), remaining)
		if costOK {
			var leg int64
			if leg, costOK = domain.MulCents(entry.Price, fillQty); costOK {
				totalCost, costOK = domain.AddCents(totalCost, leg)
			}
		}
		result.QuantityAvailable += fillQty
		remaining -= fillQty

		if n := len(result.PriceLevels); n > 0 && result.PriceLevels[n-1].Price == entry.Price {
			result.PriceLevels[n-1].Quantity += fillQty
		} else {
			result.PriceLevels = append(result.PriceLevels, QuotePriceLevel{Price: entry.Price, Quantity: fillQty})
		}
		return remaining > 0
	})

	if !costOK {
		return QuoteResult{}, &domain.ValidationError{Message: "estimated total exceeds the largest supported amount"}
	}
	if result.QuantityAvailable > 0 {
		avgPrice := totalCost / result.QuantityAvailable
		result.EstimatedAvgPrice = &avgPrice
		result.EstimatedTotal = &totalCost
	}
	result.FullyFillable = result.QuantityAvailable >= quantity
	return result, nil
}
