package handler

import (
	"encoding/json"

	"github.com/efreitasn/tradingcore/internal/domain"
	"github.com/efreitasn/tradingcore/internal/engine"
)

const defaultDepthLevels = 10

// depthRequest is the argument object of the depth command.
type depthRequest struct {
	Symbol string `json:"symbol"`
	Levels int    `json:"levels"`
}

// bookLevelResponse is a single price level in the depth response.
type bookLevelResponse struct {
	Price         string `json:"price"`
	TotalQuantity int64  `json:"total_quantity"`
	OrderCount    int    `json:"order_count"`
}

// depthResponse is the result of the depth command.
type depthResponse struct {
	Symbol string              `json:"symbol"`
	Bids   []bookLevelResponse `json:"bids"`
	Asks   []bookLevelResponse `json:"asks"`
	Spread *string             `json:"spread"`

	LastPrice *string `json:"last_price"`
	Volume    int64   `json:"volume"`
}

// quoteRequest is the argument object of the quote command.
type quoteRequest struct {
	Symbol   string `json:"symbol"`
	Side     string `json:"side"`
	Quantity int64  `json:"quantity"`
}

// quoteLevelResponse is a single price level in the quote response.
type quoteLevelResponse struct {
	Price    string `json:"price"`
	Quantity int64  `json:"quantity"`
}

// quoteResponse is the result of the quote command.
type quoteResponse struct {
	Symbol            string               `json:"symbol"`
	Side              string               `json:"side"`
	QuantityRequested int64                `json:"quantity_requested"`
	QuantityAvailable int64                `json:"quantity_available"`
	FullyFillable     bool                 `json:"fully_fillable"`
	EstimatedAvgPrice *string              `json:"estimated_average_price"`
	EstimatedTotal    *string              `json:"estimated_total"`
	PriceLevels       []quoteLevelResponse `json:"price_levels"`
}

type symbolRequest struct {
	Symbol string `json:"symbol"`
}

// marketTradeResponse is a trade as seen on the symbol's tape.
type marketTradeResponse struct {
	TradeID     string `json:"trade_id"`
	BuyOrderID  string `json:"buy_order_id"`
	SellOrderID string `json:"sell_order_id"`
	BuyerID     string `json:"buyer_id"`
	SellerID    string `json:"seller_id"`
	Price       string `json:"price"`
	Quantity    int64  `json:"quantity"`
	ExecutedAt  string `json:"executed_at"`
}

type tradesResponse struct {
	Symbol string                `json:"symbol"`
	Trades []marketTradeResponse `json:"trades"`
}

// GetDepth handles the depth command. Levels defaults to 10.
func (h *Handler) GetDepth(args json.RawMessage) (any, error) {
	var req depthRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}
	if req.Levels == 0 {
		req.Levels = defaultDepthLevels
	}

	d, err := h.engine.Depth(req.Symbol, req.Levels)
	if err != nil {
		return nil, err
	}

	return depthResponse{
		Symbol: d.Symbol,
		Bids:   buildLevels(d.Bids),
		Asks:   buildLevels(d.Asks),
		Spread: formatCentsPtr(d.Spread),

		LastPrice: formatCentsPtr(d.LastPrice),
		Volume:    d.Volume,
	}, nil
}

func buildLevels(levels []engine.PriceLevel) []bookLevelResponse {
	out := make([]bookLevelResponse, len(levels))
	for i, l := range levels {
		out[i] = bookLevelResponse{
			Price:         formatCents(l.Price),
			TotalQuantity: l.TotalQuantity,
			OrderCount:    l.OrderCount,
		}
	}
	return out
}

// GetQuote handles the quote command.
func (h *Handler) GetQuote(args json.RawMessage) (any, error) {
	var req quoteRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}

	q, err := h.engine.Quote(req.Symbol, domain.Side(req.Side), req.Quantity)
	if err != nil {
		return nil, err
	}

	levels := make([]quoteLevelResponse, len(q.PriceLevels))
	for i, l := range q.PriceLevels {
		levels[i] = quoteLevelResponse{Price: formatCents(l.Price), Quantity: l.Quantity}
	}
	return quoteResponse{
		Symbol:            req.Symbol,
		Side:              req.Side,
		QuantityRequested: req.Quantity,
		QuantityAvailable: q.QuantityAvailable,
		FullyFillable:     q.FullyFillable,
		EstimatedAvgPrice: formatCentsPtr(q.EstimatedAvgPrice),
		EstimatedTotal:    formatCentsPtr(q.EstimatedTotal),
		PriceLevels:       levels,
	}, nil
}

// GetTrades handles the trades command. An unknown symbol yields an empty
// list.
func (h *Handler) GetTrades(args json.RawMessage) (any, error) {
	var req symbolRequest
	if err := parseArgs(args, &req); err != nil {
		return nil, err
	}

	trades := h.engine.Trades(req.Symbol)
	out := make([]marketTradeResponse, len(trades))
	for i, t := range trades {
		out[i] = marketTradeResponse{
			TradeID:     t.TradeID,
			BuyOrderID:  t.BuyOrderID,
			SellOrderID: t.SellOrderID,
			BuyerID:     t.BuyerID,
			SellerID:    t.SellerID,
			Price:       formatCents(t.Price),
			Quantity:    t.Quantity,
			ExecutedAt:  formatTime(t.ExecutedAt),
		}
	}
	return tradesResponse{Symbol: req.Symbol, Trades: out}, nil
}
