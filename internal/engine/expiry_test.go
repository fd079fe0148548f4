package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/efreitasn/tradingcore/internal/domain"
)

type expiredRecorder struct {
	mu      sync.Mutex
	expired []string
}

func (r *expiredRecorder) expire(o *domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expired = append(r.expired, o.OrderID)
}

func (r *expiredRecorder) ids() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.expired...)
}

func gtdOrder(id string, expiresAt time.Time) *domain.Order {
	o := restingOrder(id, domain.SideBuy, 100, baseTime, 0, 10)
	o.ExpiresAt = &expiresAt
	return o
}

func TestExpiryManager_Add_MaintainsSortOrder(t *testing.T) {
	em := NewExpiryManager(time.Second, time.Now, func(*domain.Order) {})

	em.Add(gtdOrder("o1", baseTime.Add(3*time.Second)))
	em.Add(gtdOrder("o2", baseTime.Add(1*time.Second)))
	em.Add(gtdOrder("o3", baseTime.Add(2*time.Second)))

	require.Equal(t, 3, em.ActiveOrderCount())

	assert.Equal(t, []string{"o2", "o3", "o1"}, em.Scheduled())
}

func TestExpiryManager_Add_SameExpiryKeepsArrivalOrder(t *testing.T) {
	em := NewExpiryManager(time.Second, time.Now, func(*domain.Order) {})
	at := baseTime.Add(time.Minute)

	late := gtdOrder("late", at)
	late.Sequence = 2
	early := gtdOrder("early", at)
	early.Sequence = 1
	em.Add(late)
	em.Add(early)
	em.Add(early)

	assert.Equal(t, []string{"early", "late"}, em.Scheduled())
}

func TestExpiryManager_Add_NilExpiresAt_Ignored(t *testing.T) {
	em := NewExpiryManager(time.Second, time.Now, func(*domain.Order) {})
	em.Add(restingOrder("o1", domain.SideBuy, 100, baseTime, 1, 1))
	assert.Zero(t, em.ActiveOrderCount())
}

func TestExpiryManager_Remove(t *testing.T) {
	em := NewExpiryManager(time.Second, time.Now, func(*domain.Order) {})
	em.Add(gtdOrder("o1", baseTime.Add(time.Second)))
	em.Add(gtdOrder("o2", baseTime.Add(2*time.Second)))

	em.Remove("o2")
	em.Remove("missing")

	assert.Equal(t, 1, em.ActiveOrderCount())
}

func TestExpiryManager_Tick_ExpiresOnlyDue(t *testing.T) {
	rec := &expiredRecorder{}
	em := NewExpiryManager(time.Second, time.Now, rec.expire)
	em.Add(gtdOrder("o1", baseTime.Add(time.Second)))
	em.Add(gtdOrder("o2", baseTime.Add(2*time.Second)))
	em.Add(gtdOrder("o3", baseTime.Add(3*time.Second)))

	em.tick(baseTime.Add(2 * time.Second))

	assert.Equal(t, []string{"o1", "o2"}, rec.ids())
	assert.Equal(t, 1, em.ActiveOrderCount())
}

func TestExpiryManager_Start_StopsOnCancel(t *testing.T) {
	rec := &expiredRecorder{}
	em := NewExpiryManager(5*time.Millisecond, time.Now, rec.expire)
	em.Add(gtdOrder("o1", time.Now().Add(-time.Second)))

	ctx, cancel := context.WithCancel(context.Background())
	em.Start(ctx)

	assert.Eventually(t, func() bool { return len(rec.ids()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
}

func TestEngine_ExpireRestingOrder(t *testing.T) {
	e, clock := newTestEngine(t)
	fund(t, e, "alice", "1000")

	req := limit("gtd", "alice", "AAPL", domain.SideBuy, "10", 5)
	exp := clock.Now().Add(time.Minute)
	req.ExpiresAt = &exp
	snap := mustPlace(t, e, req)
	require.Equal(t, domain.OrderStatusPending, snap.Status)
	require.Equal(t, 1, e.expiry.ActiveOrderCount())

	clock.Advance(30 * time.Second)
	e.expiry.tick(clock.Now())
	st, err := e.GetOrderStatus("gtd")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusPending, st.Status)

	clock.Advance(time.Minute)
	e.expiry.tick(clock.Now())

	st, err = e.GetOrderStatus("gtd")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, st.Status)
	assert.Equal(t, clock.Now(), *st.CancelledAt)

	book, _ := e.books.Get("AAPL")
	assert.Zero(t, book.Len(domain.SideBuy))

	_, err = e.CancelOrder("gtd")
	assert.True(t, errors.Is(err, domain.ErrAlreadyTerminal))
}

func TestEngine_FilledOrderLeavesExpiryQueue(t *testing.T) {
	e, clock := newTestEngine(t)
	fund(t, e, "alice", "1000")
	fundShares(t, e, "bob", "AAPL", 5)

	req := limit("gtd", "alice", "AAPL", domain.SideBuy, "10", 5)
	exp := clock.Now().Add(time.Minute)
	req.ExpiresAt = &exp
	mustPlace(t, e, req)

	mustPlace(t, e, limit("s1", "bob", "AAPL", domain.SideSell, "10", 5))
	assert.Zero(t, e.expiry.ActiveOrderCount())

	clock.Advance(2 * time.Minute)
	e.expiry.tick(clock.Now())
	st, _ := e.GetOrderStatus("gtd")
	assert.Equal(t, domain.OrderStatusFilled, st.Status)
}

func TestEngine_ExpiresAtValidation(t *testing.T) {
	e, clock := newTestEngine(t)
	fund(t, e, "alice", "1000")

	req := limit("gtd", "alice", "AAPL", domain.SideBuy, "10", 5)
	past := clock.Now().Add(-time.Second)
	req.ExpiresAt = &past

	_, err := e.PlaceOrder(req)
	var ve *domain.ValidationError
	assert.ErrorAs(t, err, &ve)

	// Market orders ignore an expiry entirely.
	m := market("m", "alice", "AAPL", domain.SideBuy, 1)
	m.ExpiresAt = &past
	snap, err := e.PlaceOrder(m)
	require.NoError(t, err)
	assert.Nil(t, snap.ExpiresAt)
}
