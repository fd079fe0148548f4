package handler

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradingcore/internal/domain"
)

// cashRequest is the argument object of the deposit and withdraw commands.
type cashRequest struct {
	UserID string          `json:"user_id"`
	Amount decimal.Decimal `json:"amount"`
}

// sharesRequest is the argument object of the deposit_shares and
// withdraw_shares commands.
type sharesRequest struct {
	UserID   string `json:"user_id"`
	Symbol   string `json:"symbol"`
	Quantity int64  `json:"quantity"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

// portfolioResponse is the result of every account command.
type portfolioResponse struct {
	UserID    string           `json:"user_id"`
	Cash      string           `json:"cash"`
	Holdings  map[string]int64 `json:"holdings"`
	UpdatedAt *string          `json:"updated_at"`
}

// Deposit handles the deposit command.
func (h *Handler) Deposit(args json.RawMessage) (any, error) {
	var req cashRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}
	if err := h.engine.Deposit(req.UserID, req.Amount); err != nil {
		return nil, err
	}
	return h.portfolio(req.UserID), nil
}

// Withdraw handles the withdraw command.
func (h *Handler) Withdraw(args json.RawMessage) (any, error) {
	var req cashRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}
	if err := h.engine.Withdraw(req.UserID, req.Amount); err != nil {
		return nil, err
	}
	return h.portfolio(req.UserID), nil
}

// DepositShares handles the deposit_shares command.
func (h *Handler) DepositShares(args json.RawMessage) (any, error) {
	var req sharesRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}
	if err := h.engine.DepositShares(req.UserID, req.Symbol, req.Quantity); err != nil {
		return nil, err
	}
	return h.portfolio(req.UserID), nil
}

// WithdrawShares handles the withdraw_shares command.
func (h *Handler) WithdrawShares(args json.RawMessage) (any, error) {
	var req sharesRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}
	if err := h.engine.WithdrawShares(req.UserID, req.Symbol, req.Quantity); err != nil {
		return nil, err
	}
	return h.portfolio(req.UserID), nil
}

// GetPortfolio handles the portfolio command.
func (h *Handler) GetPortfolio(args json.RawMessage) (any, error) {
	var req userRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, &domain.ValidationError{Message: "user_id is required"}
	}
	return h.portfolio(req.UserID), nil
}

func (h *Handler) portfolio(userID string) portfolioResponse {
	p := h.engine.GetPortfolio(userID)

	resp := portfolioResponse{
		UserID:   p.UserID,
		Cash:     formatCents(p.Cash),
		Holdings: p.Holdings,
	}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = formatTimePtr(&p.UpdatedAt)
	}
	return resp
}
