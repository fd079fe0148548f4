package engine

import (
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/efreitasn/tradingcore/internal/domain"
)

func toPositiveCents(amount decimal.Decimal) (int64, error) {
	cents, err := domain.ToCents(amount)
	if err != nil {
		return 0, &domain.ValidationError{Message: "amount: " + err.Error()}
	}
	if cents <= 0 {
		return 0, &domain.ValidationError{Message: "amount must be greater than zero"}
	}
	return cents, nil
}

// Deposit credits cash to a user's account.
func (e *Engine) Deposit(userID string, amount decimal.Decimal) error {
	cents, err := toPositiveCents(amount)
	if err != nil {
		return err
	}
	if err := e.ledger.CreditCash(userID, cents); err != nil {
		return err
	}
	e.log.Debug("cash deposited", zap.String("user_id", userID), zap.Int64("cents", cents))
	return nil
}

// Withdraw debits cash from a user's account. It fails with
// domain.ErrInsufficientFunds when the balance is too low.
func (e *Engine) Withdraw(userID string, amount decimal.Decimal) error {
	cents, err := toPositiveCents(amount)
	if err != nil {
		return err
	}
	return e.ledger.DebitCash(userID, cents)
}

// DepositShares credits shares of symbol to a user's account.
func (e *Engine) DepositShares(userID, symbol string, qty int64) error {
	if !symbolPattern.MatchString(symbol) {
		return &domain.ValidationError{Message: "symbol must be 1-10 uppercase letters"}
	}
	if err := e.ledger.CreditHoldings(userID, symbol, qty); err != nil {
		return err
	}
	e.log.Debug("shares deposited", zap.String("user_id", userID), zap.String("symbol", symbol), zap.Int64("quantity", qty))
	return nil
}

// WithdrawShares debits shares of symbol from a user's account. It fails
// with domain.ErrInsufficientShares when too few are held.
func (e *Engine) WithdrawShares(userID, symbol string, qty int64) error {
	return e.ledger.DebitHoldings(userID, symbol, qty)
}
