// Package ledger keeps per-user cash balances and share holdings and
// applies the cash/share movements of executed trades atomically.
package ledger

import (
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/efreitasn/tradingcore/internal/domain"
)

// account holds one user's balances. mu guards every field below it.
type account struct {
	mu        sync.Mutex
	userID    string
	cash      int64            // cents
	holdings  map[string]int64 // symbol → shares
	updatedAt time.Time
}

func (a *account) snapshot() domain.Portfolio {
	p := domain.Portfolio{
		UserID:    a.userID,
		Cash:      a.cash,
		Holdings:  make(map[string]int64, len(a.holdings)),
		UpdatedAt: a.updatedAt,
	}
	for sym, qty := range a.holdings {
		p.Holdings[sym] = qty
	}
	return p
}

// Ledger is a thread-safe collection of accounts. Accounts are created on
// first mutation; reads of unknown users return a zeroed portfolio.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[string]*account
	now      func() time.Time
}

// New creates an empty Ledger. now stamps UpdatedAt and defaults to time.Now.
func New(now func() time.Time) *Ledger {
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		accounts: make(map[string]*account),
		now:      now,
	}
}

// getOrCreate returns the account for userID, creating it if needed.
func (l *Ledger) getOrCreate(userID string) *account {
	l.mu.RLock()
	acc, ok := l.accounts[userID]
	l.mu.RUnlock()
	if ok {
		return acc
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if acc, ok = l.accounts[userID]; ok {
		return acc
	}
	acc = &account{
		userID:   userID,
		holdings: make(map[string]int64),
	}
	l.accounts[userID] = acc
	return acc
}

func (l *Ledger) get(userID string) (*account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	acc, ok := l.accounts[userID]
	return acc, ok
}

// errOverflow reports a credit that would push a balance past int64.
func errOverflow(userID, what string) error {
	return &domain.ValidationError{Message: fmt.Sprintf("%s would overflow the balance of user %s", what, userID)}
}

func validateAmount(userID string, amount int64, what string) error {
	if userID == "" {
		return &domain.ValidationError{Message: "user_id is required"}
	}
	if amount <= 0 {
		return &domain.ValidationError{Message: fmt.Sprintf("%s must be greater than zero", what)}
	}
	return nil
}

// CreditCash adds amount cents to the user's cash balance.
func (l *Ledger) CreditCash(userID string, amount int64) error {
	if err := validateAmount(userID, amount, "amount"); err != nil {
		return err
	}
	acc := l.getOrCreate(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	cash, ok := domain.AddCents(acc.cash, amount)
	if !ok {
		return errOverflow(userID, "amount")
	}
	acc.cash = cash
	acc.updatedAt = l.now()
	return nil
}

// DebitCash removes amount cents from the user's cash balance. It fails with
// domain.ErrInsufficientFunds if the balance is lower than amount.
func (l *Ledger) DebitCash(userID string, amount int64) error {
	if err := validateAmount(userID, amount, "amount"); err != nil {
		return err
	}
	acc := l.getOrCreate(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	if acc.cash < amount {
		return errors.Wrapf(domain.ErrInsufficientFunds, "user %s has %d cents, needs %d", userID, acc.cash, amount)
	}
	acc.cash -= amount
	acc.updatedAt = l.now()
	return nil
}

// CreditHoldings adds qty shares of symbol to the user's holdings.
func (l *Ledger) CreditHoldings(userID, symbol string, qty int64) error {
	if err := validateAmount(userID, qty, "quantity"); err != nil {
		return err
	}
	acc := l.getOrCreate(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	held, ok := domain.AddCents(acc.holdings[symbol], qty)
	if !ok {
		return errOverflow(userID, "quantity")
	}
	acc.holdings[symbol] = held
	acc.updatedAt = l.now()
	return nil
}

// DebitHoldings removes qty shares of symbol from the user's holdings. It
// fails with domain.ErrInsufficientShares if fewer than qty are held.
func (l *Ledger) DebitHoldings(userID, symbol string, qty int64) error {
	if err := validateAmount(userID, qty, "quantity"); err != nil {
		return err
	}
	acc := l.getOrCreate(userID)
	acc.mu.Lock()
	defer acc.mu.Unlock()
	if acc.holdings[symbol] < qty {
		return errors.Wrapf(domain.ErrInsufficientShares, "user %s holds %d %s, needs %d", userID, acc.holdings[symbol], symbol, qty)
	}
	acc.debitShares(symbol, qty)
	acc.updatedAt = l.now()
	return nil
}

// debitShares assumes the caller checked the balance. Zero positions are dropped.
func (a *account) debitShares(symbol string, qty int64) {
	a.holdings[symbol] -= qty
	if a.holdings[symbol] == 0 {
		delete(a.holdings, symbol)
	}
}

// Portfolio returns a detached copy of the user's balances. Unknown users
// get a zeroed snapshot and no account is created.
func (l *Ledger) Portfolio(userID string) domain.Portfolio {
	acc, ok := l.get(userID)
	if !ok {
		return domain.Portfolio{UserID: userID, Holdings: map[string]int64{}}
	}
	acc.mu.Lock()
	defer acc.mu.Unlock()
	return acc.snapshot()
}

// CanBuy reports whether the user holds at least amount cents.
func (l *Ledger) CanBuy(userID string, amount int64) error {
	acc, ok := l.get(userID)
	var cash int64
	if ok {
		acc.mu.Lock()
		cash = acc.cash
		acc.mu.Unlock()
	}
	if cash < amount {
		return errors.Wrapf(domain.ErrInsufficientFunds, "user %s has %d cents, needs %d", userID, cash, amount)
	}
	return nil
}

// CanSell reports whether the user holds at least qty shares of symbol.
func (l *Ledger) CanSell(userID, symbol string, qty int64) error {
	acc, ok := l.get(userID)
	var held int64
	if ok {
		acc.mu.Lock()
		held = acc.holdings[symbol]
		acc.mu.Unlock()
	}
	if held < qty {
		return errors.Wrapf(domain.ErrInsufficientShares, "user %s holds %d %s, needs %d", userID, held, symbol, qty)
	}
	return nil
}

// Settlement describes the balance movements of a single trade.
type Settlement struct {
	BuyerID  string
	SellerID string
	Symbol   string
	Price    int64 // cents per share
	Quantity int64
}

// SettlementError reports which party could not cover its leg of a trade.
// Side is BUY when the buyer lacked cash and SELL when the seller lacked
// shares.
type SettlementError struct {
	UserID string
	Side   domain.Side
	Err    error
}

func (e *SettlementError) Error() string {
	return fmt.Sprintf("settlement failed for %s user %s: %v", e.Side, e.UserID, e.Err)
}

func (e *SettlementError) Unwrap() error {
	return e.Err
}

// Settle moves price × quantity cents from buyer to seller and quantity
// shares from seller to buyer. Both accounts are locked for the whole
// transfer; either every leg is applied or none is. A self-trade locks one
// account and leaves its balances unchanged. A credit that would overflow
// the receiving balance fails as that party's SettlementError.
func (l *Ledger) Settle(s Settlement) error {
	if s.Quantity <= 0 || s.Price <= 0 {
		return &domain.ValidationError{Message: "settlement price and quantity must be greater than zero"}
	}
	notional, ok := domain.MulCents(s.Price, s.Quantity)
	if !ok {
		return &domain.ValidationError{Message: fmt.Sprintf("settlement notional of %d %s at %d overflows", s.Quantity, s.Symbol, s.Price)}
	}

	buyer := l.getOrCreate(s.BuyerID)
	seller := l.getOrCreate(s.SellerID)

	unlock := lockPair(buyer, seller)
	defer unlock()

	if buyer.cash < notional {
		return &SettlementError{
			UserID: s.BuyerID,
			Side:   domain.SideBuy,
			Err:    errors.Wrapf(domain.ErrInsufficientFunds, "buying %d %s at %d", s.Quantity, s.Symbol, s.Price),
		}
	}
	if seller.holdings[s.Symbol] < s.Quantity {
		return &SettlementError{
			UserID: s.SellerID,
			Side:   domain.SideSell,
			Err:    errors.Wrapf(domain.ErrInsufficientShares, "selling %d %s", s.Quantity, s.Symbol),
		}
	}

	if buyer != seller {
		if _, ok := domain.AddCents(buyer.holdings[s.Symbol], s.Quantity); !ok {
			return &SettlementError{UserID: s.BuyerID, Side: domain.SideBuy, Err: errOverflow(s.BuyerID, "quantity")}
		}
		if _, ok := domain.AddCents(seller.cash, notional); !ok {
			return &SettlementError{UserID: s.SellerID, Side: domain.SideSell, Err: errOverflow(s.SellerID, "amount")}
		}
	}

	now := l.now()
	buyer.cash -= notional
	seller.debitShares(s.Symbol, s.Quantity)
	buyer.holdings[s.Symbol] += s.Quantity
	seller.cash += notional
	buyer.updatedAt = now
	seller.updatedAt = now
	return nil
}

// lockPair locks both accounts in user-ID order and returns the unlock func.
func lockPair(a, b *account) func() {
	if a == b {
		a.mu.Lock()
		return a.mu.Unlock
	}
	first, second := a, b
	if second.userID < first.userID {
		first, second = second, first
	}
	first.mu.Lock()
	second.mu.Lock()
	return func() {
		second.mu.Unlock()
		first.mu.Unlock()
	}
}

// Users returns all known user IDs in lexical order.
func (l *Ledger) Users() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]string, 0, len(l.accounts))
	for id := range l.accounts {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// TotalCash sums cash across all accounts, saturating at math.MaxInt64.
func (l *Ledger) TotalCash() int64 {
	var total int64
	for _, id := range l.Users() {
		total = saturatingAdd(total, l.Portfolio(id).Cash)
	}
	return total
}

// TotalHoldings sums the shares of symbol held across all accounts,
// saturating at math.MaxInt64.
func (l *Ledger) TotalHoldings(symbol string) int64 {
	var total int64
	for _, id := range l.Users() {
		total = saturatingAdd(total, l.Portfolio(id).Shares(symbol))
	}
	return total
}

func saturatingAdd(a, b int64) int64 {
	if sum, ok := domain.AddCents(a, b); ok {
		return sum
	}
	return math.MaxInt64
}
