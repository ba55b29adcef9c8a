package dto

import "github.com/shopspring/decimal"

// CreatePortfolioRequest represents the portfolio creation payload
type CreatePortfolioRequest struct {
	Name string `json:"name"`
}

// PlaceOrderRequest represents the order placement payload
type PlaceOrderRequest struct {
	PortfolioID string          `json:"portfolio_id" validate:"required"`
	Symbol      string          `json:"symbol" validate:"required"`
	Side        string          `json:"side" validate:"required"`
	Quantity    int64           `json:"quantity" validate:"required,gt=0"`
	Price       decimal.Decimal `json:"price"`
}

// OrderOutput represents the structured outcome of an order
type OrderOutput struct {
	TradeID      string           `json:"trade_id"`
	Symbol       string           `json:"symbol"`
	Side         string           `json:"side"`
	Quantity     int64            `json:"quantity"`
	Status       string           `json:"status"`
	Filled       bool             `json:"filled"`
	FillPrice    *decimal.Decimal `json:"fill_price,omitempty"`
	RejectReason string           `json:"reject_reason,omitempty"`
	RealizedPnL  *decimal.Decimal `json:"realized_pnl,omitempty"`
}
