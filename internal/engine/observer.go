package engine

import "github.com/efreitasn/tradingcore/internal/domain"

//go:generate mockgen -source=observer.go -destination=mock/observer_mock.go -package=mock

// TradeObserver is notified once per executed trade, after the engine has
// committed the trade and released the symbol lock. buy and sell are the
// two orders as they stood right after the trade.
type TradeObserver interface {
	OnTradeExecuted(trade domain.Trade, buy, sell domain.OrderSnapshot)
}

// TradeObserverFunc adapts an ordinary function to the TradeObserver interface.
type TradeObserverFunc func(trade domain.Trade, buy, sell domain.OrderSnapshot)

// OnTradeExecuted calls f(trade, buy, sell).
func (f TradeObserverFunc) OnTradeExecuted(trade domain.Trade, buy, sell domain.OrderSnapshot) {
	f(trade, buy, sell)
}

// execution is a committed trade waiting to be announced.
type execution struct {
	trade domain.Trade
	buy   domain.OrderSnapshot
	sell  domain.OrderSnapshot
}
