package engine

import (
	"fmt"
	"math/bits"
	"sort"

	"github.com/efreitasn/tradingcore/internal/domain"
)

// Match is a strategy's intent to trade Quantity units of the incoming
// order against Order at Price.
type Match struct {
	Order    *domain.Order
	Quantity int64
	Price    int64
}

// Strategy decides which resting orders an incoming order trades against
// and in what sequence. Implementations must not mutate the orders they
// receive; the engine applies the returned matches.
type Strategy interface {
	FindMatches(incoming *domain.Order, resting []*domain.Order) []Match
}

// StrategyFunc adapts an ordinary function to the Strategy interface.
type StrategyFunc func(incoming *domain.Order, resting []*domain.Order) []Match

// FindMatches calls f(incoming, resting).
func (f StrategyFunc) FindMatches(incoming *domain.Order, resting []*domain.Order) []Match {
	return f(incoming, resting)
}

// StrategyKind names a built-in strategy.
type StrategyKind string

const (
	StrategyPriceTime StrategyKind = "price_time"
	StrategyProRata   StrategyKind = "pro_rata"
)

// ParseStrategyKind validates a strategy name.
func ParseStrategyKind(s string) (StrategyKind, error) {
	switch k := StrategyKind(s); k {
	case StrategyPriceTime, StrategyProRata:
		return k, nil
	}
	return "", fmt.Errorf("unknown matching strategy %q, must be one of: price_time, pro_rata", s)
}

// NewStrategy returns the built-in strategy for kind, defaulting to
// price-time priority.
func NewStrategy(kind StrategyKind) Strategy {
	if kind == StrategyProRata {
		return ProRata{}
	}
	return PriceTimePriority{}
}

// Compatible reports whether incoming may trade against resting at the
// resting order's price. Market orders accept any price; two limit orders
// cross when the buy price is at least the sell price.
func Compatible(incoming, resting *domain.Order) bool {
	if incoming.Kind == domain.OrderKindMarket {
		return true
	}
	if incoming.Side == domain.SideBuy {
		return incoming.Price >= resting.Price
	}
	return resting.Price >= incoming.Price
}

// eligible filters resting down to live, compatible orders on the other
// side of the same symbol and sorts them best price first, then by arrival.
func eligible(incoming *domain.Order, resting []*domain.Order) []*domain.Order {
	out := make([]*domain.Order, 0, len(resting))
	for _, r := range resting {
		if r == nil || r.Symbol != incoming.Symbol || r.Side == incoming.Side {
			continue
		}
		if r.IsTerminal() || r.Remaining() <= 0 || !Compatible(incoming, r) {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Price != b.Price {
			if incoming.Side == domain.SideBuy {
				return a.Price < b.Price
			}
			return a.Price > b.Price
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.Sequence < b.Sequence
	})
	return out
}

// PriceTimePriority fills the best-priced resting order first and breaks
// price ties by earliest arrival. Every match executes at the resting price.
type PriceTimePriority struct{}

// FindMatches implements Strategy.
func (PriceTimePriority) FindMatches(incoming *domain.Order, resting []*domain.Order) []Match {
	remaining := incoming.Remaining()
	var matches []Match
	for _, r := range eligible(incoming, resting) {
		if remaining == 0 {
			break
		}
		qty := min(remaining, r.Remaining())
		matches = append(matches, Match{Order: r, Quantity: qty, Price: r.Price})
		remaining -= qty
	}
	return matches
}

// ProRata walks price levels best first. A level the incoming order can
// clear is filled completely; otherwise each order at that level gets a
// share proportional to its remaining quantity, rounded down, and the
// leftover units go one at a time in arrival order.
type ProRata struct{}

// FindMatches implements Strategy.
func (ProRata) FindMatches(incoming *domain.Order, resting []*domain.Order) []Match {
	remaining := incoming.Remaining()
	candidates := eligible(incoming, resting)
	var matches []Match

	for start := 0; start < len(candidates) && remaining > 0; {
		end := start
		var levelQty int64
		for end < len(candidates) && candidates[end].Price == candidates[start].Price {
			levelQty += candidates[end].Remaining()
			end++
		}
		level := candidates[start:end]
		start = end

		if remaining >= levelQty {
			for _, r := range level {
				matches = append(matches, Match{Order: r, Quantity: r.Remaining(), Price: r.Price})
			}
			remaining -= levelQty
			continue
		}

		alloc := make([]int64, len(level))
		var allocated int64
		for i, r := range level {
			alloc[i] = proportional(remaining, r.Remaining(), levelQty)
			allocated += alloc[i]
		}
		for i := 0; allocated < remaining; i = (i + 1) % len(level) {
			if alloc[i] < level[i].Remaining() {
				alloc[i]++
				allocated++
			}
		}
		for i, r := range level {
			if alloc[i] > 0 {
				matches = append(matches, Match{Order: r, Quantity: alloc[i], Price: r.Price})
			}
		}
		remaining = 0
	}
	return matches
}

// proportional returns floor(total × part / whole) without overflowing.
// It requires 0 < total < whole and 0 < part ≤ whole.
func proportional(total, part, whole int64) int64 {
	hi, lo := bits.Mul64(uint64(total), uint64(part))
	q, _ := bits.Div64(hi, lo, uint64(whole))
	return int64(q)
}
