package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderKind distinguishes limit orders from market orders.
type OrderKind string

const (
	OrderKindLimit  OrderKind = "LIMIT"
	OrderKindMarket OrderKind = "MARKET"
)

// Side indicates whether an order buys or sells.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite returns the side an order of this side trades against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderStatus represents the lifecycle state of an order.
type OrderStatus string

const (
	OrderStatusPending         OrderStatus = "PENDING"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusFilled || s == OrderStatusCancelled
}

// Order is an instruction to buy or sell a quantity of a symbol.
//
// Identity, symbol, side, kind, price, quantity, CreatedAt and Sequence are
// fixed at admission. FilledQuantity, Status, CancelledAt and Trades only
// change through Fill, Cancel and RecordTrade, which the engine calls while
// holding the symbol's book lock.
type Order struct {
	OrderID        string
	UserID         string
	Symbol         string
	Side           Side
	Kind           OrderKind
	Price          int64 // cents, 0 for market orders
	Quantity       int64
	FilledQuantity int64
	Status         OrderStatus
	CreatedAt      time.Time
	Sequence       int64
	ExpiresAt      *time.Time // nil unless good-till-date
	CancelledAt    *time.Time
	Trades         []*Trade
}

// Remaining returns the quantity still open for matching.
func (o *Order) Remaining() int64 {
	return o.Quantity - o.FilledQuantity
}

// IsTerminal reports whether the order is filled or cancelled.
func (o *Order) IsTerminal() bool {
	return o.Status.IsTerminal()
}

// Fill records an execution of qty units against the order.
func (o *Order) Fill(qty int64) error {
	if o.IsTerminal() {
		return ErrAlreadyTerminal
	}
	if qty <= 0 || qty > o.Remaining() {
		return ErrInvalidFill
	}
	o.FilledQuantity += qty
	if o.FilledQuantity == o.Quantity {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}
	return nil
}

// Cancel moves a live order to CANCELLED. Cancelling a filled or already
// cancelled order returns ErrAlreadyTerminal and leaves it untouched.
func (o *Order) Cancel(at time.Time) error {
	if o.IsTerminal() {
		return ErrAlreadyTerminal
	}
	o.Status = OrderStatusCancelled
	o.CancelledAt = &at
	return nil
}

// RecordTrade appends an execution to the order's trade list.
func (o *Order) RecordTrade(t *Trade) {
	o.Trades = append(o.Trades, t)
}

// AveragePrice computes the volume-weighted average execution price
// as sum(trade.price × trade.quantity) / filled_quantity, truncated to whole
// cents. The sum is kept in decimal so it cannot overflow. Returns
// (price, true) when trades exist, or (0, false) when no trades have been
// executed.
func (o *Order) AveragePrice() (int64, bool) {
	if len(o.Trades) == 0 || o.FilledQuantity == 0 {
		return 0, false
	}
	total := decimal.Zero
	for _, t := range o.Trades {
		total = total.Add(decimal.NewFromInt(t.Price).Mul(decimal.NewFromInt(t.Quantity)))
	}
	avg, _ := total.QuoRem(decimal.NewFromInt(o.FilledQuantity), 0)
	return avg.IntPart(), true
}

// OrderSnapshot is an immutable copy of an order's state at a point in time.
type OrderSnapshot struct {
	OrderID           string
	UserID            string
	Symbol            string
	Side              Side
	Kind              OrderKind
	Price             int64
	Quantity          int64
	FilledQuantity    int64
	RemainingQuantity int64
	Status            OrderStatus
	CreatedAt         time.Time
	Sequence          int64
	ExpiresAt         *time.Time
	CancelledAt       *time.Time
	AveragePrice      *int64
	Trades            []Trade
}

// Snapshot copies the order so the result can be handed to callers that
// do not hold the book lock.
func (o *Order) Snapshot() OrderSnapshot {
	s := OrderSnapshot{
		OrderID:           o.OrderID,
		UserID:            o.UserID,
		Symbol:            o.Symbol,
		Side:              o.Side,
		Kind:              o.Kind,
		Price:             o.Price,
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.Remaining(),
		Status:            o.Status,
		CreatedAt:         o.CreatedAt,
		Sequence:          o.Sequence,
		Trades:            make([]Trade, len(o.Trades)),
	}
	if o.ExpiresAt != nil {
		exp := *o.ExpiresAt
		s.ExpiresAt = &exp
	}
	if o.CancelledAt != nil {
		at := *o.CancelledAt
		s.CancelledAt = &at
	}
	if avg, ok := o.AveragePrice(); ok {
		s.AveragePrice = &avg
	}
	for i, t := range o.Trades {
		s.Trades[i] = *t
	}
	return s
}
