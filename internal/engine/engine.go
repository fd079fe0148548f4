// Package engine matches orders per symbol, settles trades through the
// ledger and announces them to registered observers.
package engine

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/efreitasn/tradingcore/internal/domain"
	"github.com/efreitasn/tradingcore/internal/ids"
	"github.com/efreitasn/tradingcore/internal/ledger"
	"github.com/efreitasn/tradingcore/internal/store"
)

var symbolPattern = regexp.MustCompile(`^[A-Z]{1,10}$`)

// PlaceOrderRequest carries the caller-supplied fields of a new order.
type PlaceOrderRequest struct {
	OrderID   string // optional; generated when empty
	UserID    string
	Symbol    string
	Side      domain.Side
	Kind      domain.OrderKind
	Price     decimal.Decimal // ignored for market orders
	Quantity  int64
	ExpiresAt *time.Time // limit orders only
}

// Engine is one trading universe: a book per symbol, the order and trade
// stores, and the ledger. Symbols match independently of each other.
type Engine struct {
	books   *BookManager
	orders  *store.OrderStore
	trades  *store.TradeStore
	symbols *domain.SymbolRegistry
	ledger  *ledger.Ledger
	expiry  *ExpiryManager

	strategy           Strategy
	clock              Clock
	ids                ids.Generator
	log                *zap.Logger
	depthLimit         int
	expirationInterval time.Duration

	seq atomic.Int64

	obsMu     sync.RWMutex
	observers []TradeObserver
}

// New creates an Engine. Without options it uses price-time priority, the
// system clock, ULIDs and a no-op logger.
func New(opts ...Option) *Engine {
	e := &Engine{
		books:              NewBookManager(),
		orders:             store.NewOrderStore(),
		trades:             store.NewTradeStore(),
		symbols:            domain.NewSymbolRegistry(),
		strategy:           PriceTimePriority{},
		clock:              systemClock{},
		ids:                ids.ULID{},
		log:                zap.NewNop(),
		depthLimit:         defaultDepthLimit,
		expirationInterval: defaultExpirationInterval,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.ledger == nil {
		e.ledger = ledger.New(e.clock.Now)
	}
	e.expiry = NewExpiryManager(e.expirationInterval, e.clock.Now, e.expireOrder)
	return e
}

// Start runs the good-till-date sweeper until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) {
	e.expiry.Start(ctx)
}

// Ledger exposes the engine's portfolio ledger.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// RegisterTradeObserver adds an observer. It sees trades executed after
// registration only.
func (e *Engine) RegisterTradeObserver(o TradeObserver) {
	if o == nil {
		return
	}
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, o)
}

func (e *Engine) validate(req PlaceOrderRequest, now time.Time) (int64, error) {
	if req.UserID == "" {
		return 0, &domain.ValidationError{Message: "user_id is required"}
	}
	if !symbolPattern.MatchString(req.Symbol) {
		return 0, &domain.ValidationError{Message: "symbol must be 1-10 uppercase letters"}
	}
	if req.Side != domain.SideBuy && req.Side != domain.SideSell {
		return 0, &domain.ValidationError{Message: fmt.Sprintf("side must be BUY or SELL, got %q", req.Side)}
	}
	if req.Quantity <= 0 {
		return 0, &domain.ValidationError{Message: "quantity must be greater than zero"}
	}

	switch req.Kind {
	case domain.OrderKindMarket:
		return 0, nil
	case domain.OrderKindLimit:
	default:
		return 0, &domain.ValidationError{Message: fmt.Sprintf("kind must be LIMIT or MARKET, got %q", req.Kind)}
	}

	price, err := domain.ToCents(req.Price)
	if err != nil {
		return 0, &domain.ValidationError{Message: "price: " + err.Error()}
	}
	if price <= 0 {
		return 0, &domain.ValidationError{Message: "price must be greater than zero"}
	}
	if _, ok := domain.MulCents(price, req.Quantity); !ok {
		return 0, &domain.ValidationError{Message: "price multiplied by quantity exceeds the largest supported amount"}
	}
	if req.ExpiresAt != nil && !req.ExpiresAt.After(now) {
		return 0, &domain.ValidationError{Message: "expires_at must be in the future"}
	}
	return price, nil
}

// PlaceOrder validates and admits an order, matches it against the
// opposite side of its symbol's book and rests any limit remainder. A
// market remainder is cancelled. Observers are notified after the symbol
// lock is released.
//
// Admission requires the user to cover the order: cash for price ×
// quantity on a limit buy, the estimated cost of walking the book on a
// market buy, and the shares on a sell. Validation and funding failures
// leave no trace in the engine.
func (e *Engine) PlaceOrder(req PlaceOrderRequest) (domain.OrderSnapshot, error) {
	price, err := e.validate(req, e.clock.Now())
	if err != nil {
		return domain.OrderSnapshot{}, err
	}
	orderID := req.OrderID
	if orderID == "" {
		orderID = e.ids.NewID()
	}

	book := e.books.GetOrCreate(req.Symbol)
	book.mu.Lock()

	order := &domain.Order{
		OrderID:   orderID,
		UserID:    req.UserID,
		Symbol:    req.Symbol,
		Side:      req.Side,
		Kind:      req.Kind,
		Price:     price,
		Quantity:  req.Quantity,
		Status:    domain.OrderStatusPending,
		CreatedAt: e.clock.Now(),
		Sequence:  e.seq.Add(1),
	}
	if req.Kind == domain.OrderKindLimit && req.ExpiresAt != nil {
		exp := *req.ExpiresAt
		order.ExpiresAt = &exp
	}

	if err := e.checkFunds(book, order); err != nil {
		book.mu.Unlock()
		return domain.OrderSnapshot{}, err
	}
	if err := e.orders.Create(order); err != nil {
		book.mu.Unlock()
		return domain.OrderSnapshot{}, err
	}
	if e.symbols.Register(order.Symbol, order.CreatedAt) {
		e.log.Info("symbol listed", zap.String("symbol", order.Symbol))
	}

	e.log.Debug("order admitted",
		zap.String("order_id", order.OrderID),
		zap.String("user_id", order.UserID),
		zap.String("symbol", order.Symbol),
		zap.String("side", string(order.Side)),
		zap.String("kind", string(order.Kind)),
		zap.Int64("price", order.Price),
		zap.Int64("quantity", order.Quantity),
	)

	executions := e.match(book, order)

	if order.Remaining() > 0 {
		if order.Kind == domain.OrderKindLimit {
			book.Insert(order)
			e.expiry.Add(order)
		} else {
			_ = order.Cancel(e.clock.Now())
			e.log.Debug("market order remainder cancelled",
				zap.String("order_id", order.OrderID),
				zap.Int64("unfilled", order.Remaining()),
			)
		}
	}

	snap := order.Snapshot()
	book.mu.Unlock()

	e.notify(executions)
	return snap, nil
}

// checkFunds runs the admission check. The caller holds book.mu.
func (e *Engine) checkFunds(book *OrderBook, o *domain.Order) error {
	if o.Side == domain.SideSell {
		return e.ledger.CanSell(o.UserID, o.Symbol, o.Quantity)
	}
	var (
		cost int64
		ok   bool
	)
	if o.Kind == domain.OrderKindLimit {
		cost, ok = domain.MulCents(o.Price, o.Quantity)
	} else {
		cost, ok = walkCost(book, domain.SideSell, o.Quantity)
	}
	if !ok {
		// No balance can exceed int64, so nobody can cover this order.
		return errors.Wrapf(domain.ErrInsufficientFunds, "user %s cannot cover %d %s", o.UserID, o.Quantity, o.Symbol)
	}
	return e.ledger.CanBuy(o.UserID, cost)
}

// walkCost sums the cost of taking qty units from one side of the book in
// priority order. Unavailable units cost nothing. ok is false when the cost
// does not fit in int64.
func walkCost(book *OrderBook, side domain.Side, qty int64) (cost int64, ok bool) {
	ok = true
	book.Walk(side, func(entry OrderBookEntry) bool {
		fill := min(qty, entry.Order.Remaining())
		var leg int64
		if leg, ok = domain.MulCents(entry.Price, fill); ok {
			cost, ok = domain.AddCents(cost, leg)
		}
		qty -= fill
		return ok && qty > 0
	})
	if !ok {
		return 0, false
	}
	return cost, true
}

// match runs the strategy against the book until the incoming order is
// filled or no acceptable liquidity is left. The caller holds book.mu.
func (e *Engine) match(book *OrderBook, order *domain.Order) []execution {
	var executions []execution
	for order.Remaining() > 0 {
		resting := book.Candidates(order)
		if len(resting) == 0 {
			break
		}
		matches := e.strategy.FindMatches(order, resting)
		if len(matches) == 0 {
			break
		}

		retry := false
		for _, m := range matches {
			if order.Remaining() == 0 {
				break
			}
			if err := e.checkMatch(book, order, m); err != nil {
				e.log.Error("strategy returned an invalid match",
					zap.String("order_id", order.OrderID),
					zap.Error(err),
				)
				return executions
			}

			ex, err := e.execute(book, order, m)
			if err == nil {
				executions = append(executions, ex)
				continue
			}

			var se *ledger.SettlementError
			if errors.As(err, &se) && se.Side != order.Side {
				// The resting owner can no longer pay: pull the order and re-run.
				e.dropResting(book, m.Order, err)
				retry = true
				break
			}
			e.log.Warn("settlement failed for incoming order",
				zap.String("order_id", order.OrderID),
				zap.Error(err),
			)
			return executions
		}
		if !retry && order.Remaining() > 0 {
			// The strategy saw every acceptable resting order already.
			break
		}
	}
	return executions
}

// checkMatch guards the book against a misbehaving strategy.
func (e *Engine) checkMatch(book *OrderBook, order *domain.Order, m Match) error {
	switch {
	case m.Order == nil:
		return errors.New("nil resting order")
	case !book.Contains(m.Order.OrderID):
		return errors.Errorf("order %s is not resting on the book", m.Order.OrderID)
	case m.Order.Side == order.Side:
		return errors.Errorf("order %s is on the same side", m.Order.OrderID)
	case m.Quantity <= 0 || m.Quantity > order.Remaining() || m.Quantity > m.Order.Remaining():
		return errors.Errorf("quantity %d exceeds what order %s can fill", m.Quantity, m.Order.OrderID)
	case m.Price <= 0:
		return errors.Errorf("non-positive price %d", m.Price)
	}
	if order.Kind == domain.OrderKindLimit {
		if (order.Side == domain.SideBuy && m.Price > order.Price) ||
			(order.Side == domain.SideSell && m.Price < order.Price) {
			return errors.Errorf("price %d violates limit %d", m.Price, order.Price)
		}
	}
	return nil
}

// execute settles one match and applies it to both orders. Nothing changes
// if settlement fails. The caller holds book.mu and has run checkMatch.
func (e *Engine) execute(book *OrderBook, order *domain.Order, m Match) (execution, error) {
	buy, sell := order, m.Order
	if order.Side == domain.SideSell {
		buy, sell = m.Order, order
	}

	err := e.ledger.Settle(ledger.Settlement{
		BuyerID:  buy.UserID,
		SellerID: sell.UserID,
		Symbol:   order.Symbol,
		Price:    m.Price,
		Quantity: m.Quantity,
	})
	if err != nil {
		return execution{}, err
	}

	trade := &domain.Trade{
		TradeID:     e.ids.NewID(),
		Symbol:      order.Symbol,
		BuyOrderID:  buy.OrderID,
		SellOrderID: sell.OrderID,
		BuyerID:     buy.UserID,
		SellerID:    sell.UserID,
		Price:       m.Price,
		Quantity:    m.Quantity,
		ExecutedAt:  e.clock.Now(),
	}
	// checkMatch guarantees both fills are valid.
	_ = order.Fill(m.Quantity)
	_ = m.Order.Fill(m.Quantity)
	order.RecordTrade(trade)
	m.Order.RecordTrade(trade)
	e.trades.Append(trade)

	if m.Order.Remaining() == 0 {
		book.Remove(m.Order.OrderID)
		e.expiry.Remove(m.Order.OrderID)
	}

	e.log.Info("trade executed",
		zap.String("trade_id", trade.TradeID),
		zap.String("symbol", trade.Symbol),
		zap.String("buy_order_id", trade.BuyOrderID),
		zap.String("sell_order_id", trade.SellOrderID),
		zap.Int64("price", trade.Price),
		zap.Int64("quantity", trade.Quantity),
	)

	return execution{trade: *trade, buy: buy.Snapshot(), sell: sell.Snapshot()}, nil
}

// dropResting cancels a resting order whose owner failed settlement.
func (e *Engine) dropResting(book *OrderBook, o *domain.Order, cause error) {
	_ = o.Cancel(e.clock.Now())
	book.Remove(o.OrderID)
	e.expiry.Remove(o.OrderID)
	e.log.Warn("resting order cancelled after failed settlement",
		zap.String("order_id", o.OrderID),
		zap.String("user_id", o.UserID),
		zap.Error(cause),
	)
}

// notify delivers executions to every observer in registration order. A
// panicking observer is logged and skipped.
func (e *Engine) notify(executions []execution) {
	if len(executions) == 0 {
		return
	}
	e.obsMu.RLock()
	observers := make([]TradeObserver, len(e.observers))
	copy(observers, e.observers)
	e.obsMu.RUnlock()

	for _, ex := range executions {
		for _, o := range observers {
			e.deliver(o, ex)
		}
	}
}

func (e *Engine) deliver(o TradeObserver, ex execution) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("trade observer panicked",
				zap.String("trade_id", ex.trade.TradeID),
				zap.Any("panic", r),
			)
		}
	}()
	o.OnTradeExecuted(ex.trade, ex.buy, ex.sell)
}

// CancelOrder cancels a live order and removes it from the book. It
// returns domain.ErrOrderNotFound for unknown IDs and
// domain.ErrAlreadyTerminal for filled or cancelled orders.
func (e *Engine) CancelOrder(orderID string) (domain.OrderSnapshot, error) {
	order, err := e.orders.Get(orderID)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}

	book := e.books.GetOrCreate(order.Symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	if err := order.Cancel(e.clock.Now()); err != nil {
		return domain.OrderSnapshot{}, errors.Wrapf(err, "order %s is %s", orderID, order.Status)
	}
	book.Remove(order.OrderID)
	e.expiry.Remove(order.OrderID)

	e.log.Info("order cancelled",
		zap.String("order_id", order.OrderID),
		zap.Int64("filled", order.FilledQuantity),
		zap.Int64("unfilled", order.Remaining()),
	)
	return order.Snapshot(), nil
}

// expireOrder cancels a good-till-date order once it is due. Orders that
// filled or were cancelled in the meantime are left alone.
func (e *Engine) expireOrder(order *domain.Order) {
	book := e.books.GetOrCreate(order.Symbol)
	book.mu.Lock()
	defer book.mu.Unlock()

	if order.IsTerminal() {
		return
	}
	_ = order.Cancel(e.clock.Now())
	book.Remove(order.OrderID)

	e.log.Info("order expired",
		zap.String("order_id", order.OrderID),
		zap.Time("expires_at", *order.ExpiresAt),
		zap.Int64("unfilled", order.Remaining()),
	)
}

// GetOrderStatus returns a consistent snapshot of an order.
func (e *Engine) GetOrderStatus(orderID string) (domain.OrderSnapshot, error) {
	order, err := e.orders.Get(orderID)
	if err != nil {
		return domain.OrderSnapshot{}, err
	}
	book := e.books.GetOrCreate(order.Symbol)
	book.mu.RLock()
	defer book.mu.RUnlock()
	return order.Snapshot(), nil
}

// GetPortfolio returns the user's balances. Unknown users get a zeroed
// portfolio.
func (e *Engine) GetPortfolio(userID string) domain.Portfolio {
	return e.ledger.Portfolio(userID)
}

// ListOrders returns a user's orders newest first, optionally filtered by
// status, as a 1-based page plus the total number of matching orders.
func (e *Engine) ListOrders(userID string, status *domain.OrderStatus, page, limit int) ([]domain.OrderSnapshot, int) {
	var matched []domain.OrderSnapshot
	for _, o := range e.orders.ListByUser(userID) {
		book := e.books.GetOrCreate(o.Symbol)
		book.mu.RLock()
		snap := o.Snapshot()
		book.mu.RUnlock()

		if status != nil && snap.Status != *status {
			continue
		}
		matched = append(matched, snap)
	}
	return store.Paginate(matched, page, limit)
}

// Trades returns the executed trades for a symbol in execution order.
func (e *Engine) Trades(symbol string) []domain.Trade {
	stored := e.trades.GetBySymbol(symbol)
	out := make([]domain.Trade, len(stored))
	for i, t := range stored {
		out[i] = *t
	}
	return out
}

// Symbols lists every symbol that has admitted an order.
func (e *Engine) Symbols() []string {
	return e.symbols.List()
}
