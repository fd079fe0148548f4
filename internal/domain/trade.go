package domain

import "time"

// Trade is a single execution between a buy order and a sell order.
// A trade is created once per match and never modified.
type Trade struct {
	TradeID     string
	Symbol      string
	BuyOrderID  string
	SellOrderID string
	BuyerID     string
	SellerID    string
	Price       int64 // cents
	Quantity    int64
	ExecutedAt  time.Time
}

// Notional returns price × quantity in cents.
func (t Trade) Notional() int64 {
	return t.Price * t.Quantity
}
