package domain

import (
	"sort"
	"time"
)

// Portfolio is a read-only copy of a user's cash and holdings.
type Portfolio struct {
	UserID    string
	Cash      int64            // cents
	Holdings  map[string]int64 // symbol → shares
	UpdatedAt time.Time        // zero for users the ledger has never seen
}

// Shares returns the number of shares held for symbol, or 0.
func (p Portfolio) Shares(symbol string) int64 {
	return p.Holdings[symbol]
}

// Symbols returns the held symbols in lexical order.
func (p Portfolio) Symbols() []string {
	symbols := make([]string, 0, len(p.Holdings))
	for s := range p.Holdings {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}
