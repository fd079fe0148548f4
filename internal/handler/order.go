package handler

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/efreitasn/tradingcore/internal/domain"
	"github.com/efreitasn/tradingcore/internal/engine"
)

const (
	timeLayout = "2006-01-02T15:04:05.000Z"

	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

// placeOrderRequest is the argument object of the place command.
type placeOrderRequest struct {
	OrderID   string           `json:"order_id"`
	UserID    string           `json:"user_id"`
	Symbol    string           `json:"symbol"`
	Side      string           `json:"side"`
	Type      string           `json:"type"`
	Price     *decimal.Decimal `json:"price"`
	Quantity  int64            `json:"quantity"`
	ExpiresAt *string          `json:"expires_at"`
}

// orderIDRequest is the argument object of the cancel and status commands.
type orderIDRequest struct {
	OrderID string `json:"order_id"`
}

// listOrdersRequest is the argument object of the list_orders command.
type listOrdersRequest struct {
	UserID string  `json:"user_id"`
	Status *string `json:"status"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// orderResponse describes an order. Market orders omit price and
// expires_at.
type orderResponse struct {
	OrderID           string          `json:"order_id"`
	UserID            string          `json:"user_id"`
	Symbol            string          `json:"symbol"`
	Side              string          `json:"side"`
	Type              string          `json:"type"`
	Price             *string         `json:"price,omitempty"`
	Quantity          int64           `json:"quantity"`
	FilledQuantity    int64           `json:"filled_quantity"`
	RemainingQuantity int64           `json:"remaining_quantity"`
	Status            string          `json:"status"`
	CreatedAt         string          `json:"created_at"`
	ExpiresAt         *string         `json:"expires_at,omitempty"`
	CancelledAt       *string         `json:"cancelled_at"`
	AveragePrice      *string         `json:"average_price"`
	Trades            []tradeResponse `json:"trades"`
}

// tradeResponse is a single fill in the order response.
type tradeResponse struct {
	TradeID    string `json:"trade_id"`
	Price      string `json:"price"`
	Quantity   int64  `json:"quantity"`
	ExecutedAt string `json:"executed_at"`
}

// listOrdersResponse is one page of a user's orders.
type listOrdersResponse struct {
	Orders []orderResponse `json:"orders"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
	Total  int             `json:"total"`
}

// PlaceOrder handles the place command.
func (h *Handler) PlaceOrder(args json.RawMessage) (any, error) {
	var req placeOrderRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}

	kind := domain.OrderKind(req.Type)
	var price decimal.Decimal
	switch {
	case kind == domain.OrderKindLimit && req.Price == nil:
		return nil, &domain.ValidationError{Message: "price is required for limit orders"}
	case kind == domain.OrderKindMarket && req.Price != nil:
		return nil, &domain.ValidationError{Message: "price must not be set for market orders"}
	case kind == domain.OrderKindMarket && req.ExpiresAt != nil:
		return nil, &domain.ValidationError{Message: "expires_at must not be set for market orders"}
	case req.Price != nil:
		price = *req.Price
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return nil, &domain.ValidationError{Message: "expires_at must be a valid RFC 3339 timestamp"}
		}
		expiresAt = &t
	}

	snap, err := h.engine.PlaceOrder(engine.PlaceOrderRequest{
		OrderID:   req.OrderID,
		UserID:    req.UserID,
		Symbol:    req.Symbol,
		Side:      domain.Side(req.Side),
		Kind:      kind,
		Price:     price,
		Quantity:  req.Quantity,
		ExpiresAt: expiresAt,
	})
	if err != nil {
		return nil, err
	}
	return buildOrderResponse(snap), nil
}

// CancelOrder handles the cancel command.
func (h *Handler) CancelOrder(args json.RawMessage) (any, error) {
	var req orderIDRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}

	snap, err := h.engine.CancelOrder(req.OrderID)
	if err != nil {
		return nil, err
	}
	return buildOrderResponse(snap), nil
}

// GetOrder handles the status command.
func (h *Handler) GetOrder(args json.RawMessage) (any, error) {
	var req orderIDRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}

	snap, err := h.engine.GetOrderStatus(req.OrderID)
	if err != nil {
		return nil, err
	}
	return buildOrderResponse(snap), nil
}

// ListOrders handles the list_orders command. Page and limit default to 1
// and 20.
func (h *Handler) ListOrders(args json.RawMessage) (any, error) {
	var req listOrdersRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}
	if req.UserID == "" {
		return nil, &domain.ValidationError{Message: "user_id is required"}
	}

	var status *domain.OrderStatus
	if req.Status != nil {
		s, err := parseStatus(*req.Status)
		if err != nil {
			return nil, err
		}
		status = &s
	}

	if req.Page == 0 {
		req.Page = defaultPage
	}
	if req.Limit == 0 {
		req.Limit = defaultLimit
	}
	if req.Page < 1 {
		return nil, &domain.ValidationError{Message: "page must be at least 1"}
	}
	if req.Limit < 1 || req.Limit > maxLimit {
		return nil, &domain.ValidationError{Message: fmt.Sprintf("limit must be between 1 and %d", maxLimit)}
	}

	snaps, total := h.engine.ListOrders(req.UserID, status, req.Page, req.Limit)
	orders := make([]orderResponse, len(snaps))
	for i, s := range snaps {
		orders[i] = buildOrderResponse(s)
	}
	return listOrdersResponse{Orders: orders, Page: req.Page, Limit: req.Limit, Total: total}, nil
}

func parseStatus(s string) (domain.OrderStatus, error) {
	switch st := domain.OrderStatus(s); st {
	case domain.OrderStatusPending, domain.OrderStatusPartiallyFilled,
		domain.OrderStatusFilled, domain.OrderStatusCancelled:
		return st, nil
	}
	return "", &domain.ValidationError{Message: fmt.Sprintf("unknown order status %q", s)}
}

// buildOrderResponse converts a snapshot to its JSON form.
func buildOrderResponse(o domain.OrderSnapshot) orderResponse {
	resp := orderResponse{
		OrderID:           o.OrderID,
		UserID:            o.UserID,
		Symbol:            o.Symbol,
		Side:              string(o.Side),
		Type:              string(o.Kind),
		Quantity:          o.Quantity,
		FilledQuantity:    o.FilledQuantity,
		RemainingQuantity: o.RemainingQuantity,
		Status:            string(o.Status),
		CreatedAt:         formatTime(o.CreatedAt),
		CancelledAt:       formatTimePtr(o.CancelledAt),
		ExpiresAt:         formatTimePtr(o.ExpiresAt),
		Trades:            buildTradeResponses(o.Trades),
	}

	if o.Kind == domain.OrderKindLimit {
		resp.Price = formatCentsPtr(&o.Price)
	}
	resp.AveragePrice = formatCentsPtr(o.AveragePrice)

	return resp
}

// buildTradeResponses converts domain trades to response trades.
func buildTradeResponses(trades []domain.Trade) []tradeResponse {
	result := make([]tradeResponse, len(trades))
	for i, t := range trades {
		result[i] = tradeResponse{
			TradeID:    t.TradeID,
			Price:      formatCents(t.Price),
			Quantity:   t.Quantity,
			ExecutedAt: formatTime(t.ExecutedAt),
		}
	}
	return result
}

func formatCents(c int64) string {
	return domain.FromCents(c).StringFixed(2)
}

func formatCentsPtr(c *int64) *string {
	if c == nil {
		return nil
	}
	s := formatCents(*c)
	return &s
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
