package domain

import (
	"sort"
	"sync"
	"time"
)

// SymbolRegistry records when each symbol admitted its first order.
type SymbolRegistry struct {
	mu     sync.RWMutex
	listed map[string]time.Time
}

// NewSymbolRegistry creates an empty SymbolRegistry.
func NewSymbolRegistry() *SymbolRegistry {
	return &SymbolRegistry{listed: make(map[string]time.Time)}
}

// Register lists symbol at the given time unless it is already listed.
// It reports whether this call listed it.
func (r *SymbolRegistry) Register(symbol string, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listed[symbol]; ok {
		return false
	}
	r.listed[symbol] = at
	return true
}

// Exists reports whether symbol is listed.
func (r *SymbolRegistry) Exists(symbol string) bool {
	_, ok := r.ListedAt(symbol)
	return ok
}

// ListedAt returns the time symbol was first registered.
func (r *SymbolRegistry) ListedAt(symbol string) (time.Time, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	at, ok := r.listed[symbol]
	return at, ok
}

// List returns all listed symbols in lexical order.
func (r *SymbolRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.listed))
	for s := range r.listed {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
