package store

import (
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/efreitasn/tradingcore/internal/domain"
)

func newTestTrade(id, symbol string, executedAt time.Time) *domain.Trade {
	return &domain.Trade{
		TradeID:     id,
		Symbol:      symbol,
		BuyOrderID:  "buy-1",
		SellOrderID: "sell-1",
		BuyerID:     "alice",
		SellerID:    "bob",
		Price:       10000, // $100.00
		Quantity:    10,
		ExecutedAt:  executedAt,
	}
}

func TestTradeStore_Append_and_GetBySymbol(t *testing.T) {
	s := NewTradeStore()
	now := time.Now()

	s.Append(newTestTrade("trade-1", "AAPL", now))
	s.Append(newTestTrade("trade-2", "AAPL", now.Add(time.Second)))

	trades := s.GetBySymbol("AAPL")
	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].TradeID != "trade-1" || trades[1].TradeID != "trade-2" {
		t.Fatalf("unexpected order: %s, %s", trades[0].TradeID, trades[1].TradeID)
	}
}

func TestTradeStore_GetBySymbol_Empty(t *testing.T) {
	s := NewTradeStore()

	trades := s.GetBySymbol("GOOG")
	if trades == nil {
		t.Fatal("expected non-nil empty slice, got nil")
	}
	if len(trades) != 0 {
		t.Fatalf("expected 0 trades, got %d", len(trades))
	}
}

func TestTradeStore_GetBySymbol_ReturnsCopy(t *testing.T) {
	s := NewTradeStore()
	s.Append(newTestTrade("trade-1", "AAPL", time.Now()))

	trades := s.GetBySymbol("AAPL")
	trades[0] = nil

	if s.GetBySymbol("AAPL")[0] == nil {
		t.Fatal("GetBySymbol should return a copy; internal state was mutated")
	}
}

func TestTradeStore_MultipleSymbols(t *testing.T) {
	s := NewTradeStore()
	now := time.Now()

	s.Append(newTestTrade("t1", "AAPL", now))
	s.Append(newTestTrade("t2", "GOOG", now))
	s.Append(newTestTrade("t3", "AAPL", now.Add(time.Second)))

	if n := len(s.GetBySymbol("AAPL")); n != 2 {
		t.Fatalf("expected 2 AAPL trades, got %d", n)
	}
	if n := len(s.GetBySymbol("GOOG")); n != 1 {
		t.Fatalf("expected 1 GOOG trade, got %d", n)
	}
	if s.Count() != 3 {
		t.Fatalf("Count() = %d, want 3", s.Count())
	}
}

func TestTradeStore_Stats(t *testing.T) {
	s := NewTradeStore()
	now := time.Now()

	if _, ok := s.Stats("AAPL"); ok {
		t.Fatal("Stats(AAPL) ok = true before any trade")
	}

	first := newTestTrade("t1", "AAPL", now)
	second := newTestTrade("t2", "AAPL", now.Add(time.Second))
	second.Price = 10100
	second.Quantity = 5
	s.Append(first)
	s.Append(second)
	s.Append(newTestTrade("t3", "GOOG", now))

	stats, ok := s.Stats("AAPL")
	if !ok {
		t.Fatal("Stats(AAPL) ok = false after trades")
	}
	if stats.Trades != 2 || stats.Volume != 15 {
		t.Errorf("trades=%d volume=%d, want 2/15", stats.Trades, stats.Volume)
	}
	if stats.Notional != 10*10000+5*10100 {
		t.Errorf("notional = %d, want %d", stats.Notional, 10*10000+5*10100)
	}
	if stats.LastPrice != 10100 || !stats.LastAt.Equal(second.ExecutedAt) {
		t.Errorf("last = %d at %v, want 10100 at %v", stats.LastPrice, stats.LastAt, second.ExecutedAt)
	}
}

func TestTradeStore_ConcurrentAccess(t *testing.T) {
	s := NewTradeStore()
	var wg sync.WaitGroup
	now := time.Now()

	for i := 0; i < 200; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			s.Append(newTestTrade(fmt.Sprintf("trade-%d", i), "AAPL", now.Add(time.Duration(i)*time.Millisecond)))
		}(i)
		go func() {
			defer wg.Done()
			s.GetBySymbol("AAPL")
			s.Stats("AAPL")
		}()
	}
	wg.Wait()

	if n := len(s.GetBySymbol("AAPL")); n != 200 {
		t.Fatalf("expected 200 trades, got %d", n)
	}
	if stats, _ := s.Stats("AAPL"); stats.Volume != 2000 {
		t.Fatalf("volume = %d, want 2000", stats.Volume)
	}
}

func TestTradeStore_Stats_NotionalSaturates(t *testing.T) {
	s := NewTradeStore()
	for _, id := range []string{"t1", "t2"} {
		tr := newTestTrade(id, "AAPL", time.Now())
		tr.Price = 1 << 31
		tr.Quantity = 1 << 31
		s.Append(tr)
	}
	stats, _ := s.Stats("AAPL")
	if stats.Notional != math.MaxInt64 {
		t.Errorf("notional = %d, want %d", stats.Notional, int64(math.MaxInt64))
	}
	if stats.Volume != 1<<32 {
		t.Errorf("volume = %d, want %d", stats.Volume, int64(1<<32))
	}
}
