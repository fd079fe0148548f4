package engine

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/efreitasn/tradingcore/internal/domain"
	"github.com/efreitasn/tradingcore/internal/ids"
)

// fakeClock starts at baseTime and only moves when told to.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: baseTime}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sequentialIDs yields id-1, id-2, ... so tests can predict trade IDs.
func sequentialIDs() ids.Generator {
	var n atomic.Int64
	return ids.Func(func() string {
		return fmt.Sprintf("id-%d", n.Add(1))
	})
}

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *fakeClock) {
	t.Helper()
	clock := newFakeClock()
	base := []Option{WithClock(clock), WithIDGenerator(sequentialIDs())}
	return New(append(base, opts...)...), clock
}

func fund(t *testing.T, e *Engine, userID string, cash string) {
	t.Helper()
	require.NoError(t, e.Deposit(userID, decimal.RequireFromString(cash)))
}

func fundShares(t *testing.T, e *Engine, userID, symbol string, qty int64) {
	t.Helper()
	require.NoError(t, e.DepositShares(userID, symbol, qty))
}

func limit(id, user, symbol string, side domain.Side, price string, qty int64) PlaceOrderRequest {
	return PlaceOrderRequest{
		OrderID:  id,
		UserID:   user,
		Symbol:   symbol,
		Side:     side,
		Kind:     domain.OrderKindLimit,
		Price:    decimal.RequireFromString(price),
		Quantity: qty,
	}
}

func market(id, user, symbol string, side domain.Side, qty int64) PlaceOrderRequest {
	return PlaceOrderRequest{
		OrderID:  id,
		UserID:   user,
		Symbol:   symbol,
		Side:     side,
		Kind:     domain.OrderKindMarket,
		Quantity: qty,
	}
}

func mustPlace(t *testing.T, e *Engine, req PlaceOrderRequest) domain.OrderSnapshot {
	t.Helper()
	snap, err := e.PlaceOrder(req)
	require.NoError(t, err)
	return snap
}
