package domain

import "errors"

// Sentinel errors for domain-level error handling.
// Callers match them with errors.Is; wrapped variants carry extra context.
var (
	ErrOrderNotFound      = errors.New("order_not_found")
	ErrAlreadyTerminal    = errors.New("order_already_terminal")
	ErrDuplicateOrder     = errors.New("duplicate_order_id")
	ErrInvalidFill        = errors.New("invalid_fill_quantity")
	ErrInsufficientFunds  = errors.New("insufficient_funds")
	ErrInsufficientShares = errors.New("insufficient_shares")
	ErrSymbolNotFound     = errors.New("symbol_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
